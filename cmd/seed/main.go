package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"berich/internal/auth"
	"berich/internal/config"
	"berich/internal/db"
	apperrors "berich/internal/errors"
	"berich/internal/repository"
	"berich/internal/service"
)

// SeedUser is one demo account in the seed payload.
type SeedUser struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Budget   *int64 `json:"budget,omitempty"`
}

type seedResult struct {
	created  int
	skipped  int
	budgeted int
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	logrus.Info("Starting seed script...")

	cfg := config.Load()

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.Migrate(gormDB); err != nil {
		logrus.Fatalf("Failed to run migrations: %v", err)
	}
	logrus.Info("Database migrations completed")

	users, err := loadSeedUsers(os.Getenv("SEED_URL"), os.Getenv("SEED_FILE"))
	if err != nil {
		logrus.Fatalf("Failed to load seed users: %v", err)
	}
	logrus.Infof("Loaded %d seed users", len(users))

	store := repository.NewStore(gormDB)
	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	// Seeding issues tokens as a side effect of sign up; they are not persisted.
	authService := service.NewAuthService(store, auth.NewBcryptHasher(0), jwtService, auth.NewTokenStore(nil), nil, nil)
	settingService := service.NewSettingService(store.Users(), nil)

	res, err := seedUsers(context.Background(), authService, settingService, users)
	if err != nil {
		logrus.Fatalf("Failed to seed users: %v", err)
	}

	logrus.WithFields(logrus.Fields{
		"created":  res.created,
		"skipped":  res.skipped,
		"budgeted": res.budgeted,
	}).Info("Seed completed successfully")
}

// loadSeedUsers reads the seed payload from url when set, otherwise from path.
func loadSeedUsers(url, path string) ([]SeedUser, error) {
	var (
		body []byte
		err  error
	)
	switch {
	case url != "":
		logrus.Infof("Fetching seed users from: %s", url)
		body, err = fetch(url)
	case path != "":
		logrus.Infof("Reading seed users from: %s", path)
		body, err = os.ReadFile(path)
	default:
		return nil, errors.New("set SEED_URL or SEED_FILE")
	}
	if err != nil {
		return nil, err
	}

	var users []SeedUser
	if err := json.Unmarshal(body, &users); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return users, nil
}

func fetch(url string) ([]byte, error) {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status code: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

// seedUsers signs up every user and applies budgets. Already registered emails are skipped.
func seedUsers(ctx context.Context, authService service.AuthService, settings service.SettingService, users []SeedUser) (seedResult, error) {
	var res seedResult
	for _, u := range users {
		result, err := authService.SignUp(ctx, service.SignUpInput{Name: u.Name, Email: u.Email, Password: u.Password})
		if err != nil {
			if errors.Is(err, apperrors.ErrEmailConflict) {
				logrus.WithField("email", u.Email).Info("already registered, skipping")
				res.skipped++
				continue
			}
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) && appErr.Kind == apperrors.KindInvalidArgument {
				logrus.WithField("email", u.Email).WithError(err).Warn("invalid seed user, skipping")
				res.skipped++
				continue
			}
			return res, fmt.Errorf("sign up %s: %w", u.Email, err)
		}
		res.created++

		if u.Budget != nil {
			if err := settings.SetBudget(ctx, result.UserID, *u.Budget); err != nil {
				return res, fmt.Errorf("set budget for %s: %w", u.Email, err)
			}
			res.budgeted++
		}
	}
	return res, nil
}

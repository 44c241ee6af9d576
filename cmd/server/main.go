package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"berich/docs"
	"berich/internal/auth"
	"berich/internal/cache"
	"berich/internal/config"
	"berich/internal/db"
	"berich/internal/handler"
	"berich/internal/kakao"
	"berich/internal/repository"
	"berich/internal/router"
	"berich/internal/service"
)

// @title BeRich API
// @version 1.0
// @description Budget tracking API with local and Kakao sign up, JWT authentication and budget settings.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	setupLogger(cfg)

	gormDB, err := db.NewMySQL(cfg.MySQLDSN)
	if err != nil {
		logrus.Fatalf("database init: %v", err)
	}

	if cfg.ResetDB {
		logrus.Warn("RESET_DB=true detected, dropping all tables")
		if err := db.Reset(gormDB); err != nil {
			logrus.WithError(err).Warn("failed to drop tables (may not exist)")
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		logrus.Fatalf("migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if err := cacheClient.Ping(pingCtx); err != nil {
		logrus.WithError(err).Warn("redis unavailable, continuing without cache")
	}
	cancel()

	store := repository.NewStore(gormDB)

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	tokenStore := auth.NewTokenStore(cacheClient)
	kakaoClient := kakao.NewClient(kakao.Config{
		APIBaseURL:  cfg.KakaoAPIURL,
		AuthBaseURL: cfg.KakaoAuthURL,
		ClientID:    cfg.KakaoClientID,
		RedirectURI: cfg.KakaoRedirectURI,
		Timeout:     cfg.KakaoTimeout,
	})

	authService := service.NewAuthService(store, auth.NewBcryptHasher(0), jwtService, tokenStore, kakaoClient, cacheClient)
	settingService := service.NewSettingService(store.Users(), cacheClient)
	userService := service.NewUserService(store.Users(), cacheClient)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg, jwtService, tokenStore, router.Handlers{
		Auth:    handler.NewAuthHandler(authService),
		Setting: handler.NewSettingHandler(settingService),
		User:    handler.NewUserHandler(userService),
	})

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = strings.TrimPrefix(strings.TrimPrefix(cfg.SwaggerHost, "https://"), "http://")
	}
	logrus.Infof("Swagger documentation available at: %s", swaggerURL(cfg))

	addr := ":" + cfg.ServerPort
	if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
		logrus.Fatalf("server start: %v", err)
	}
}

func setupLogger(cfg *config.Config) {
	if strings.EqualFold(cfg.LogFormat, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("level", cfg.LogLevel).Warn("unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

func swaggerURL(cfg *config.Config) string {
	host := cfg.SwaggerHost
	if host == "" {
		host = "localhost:" + cfg.ServerPort
	}
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return host + "/swagger/index.html"
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"berich/internal/cache"
	apperrors "berich/internal/errors"
	"berich/internal/model"
	"berich/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// UserSummary is the public view of an account.
type UserSummary struct {
	UserID    uint     `json:"userId"`
	Name      string   `json:"name"`
	Email     string   `json:"email"`
	Budget    *int64   `json:"budget,omitempty"`
	BudgetSet bool     `json:"budgetSet"`
	HasLocal  bool     `json:"hasPassword"`
	Providers []string `json:"providers"`
}

// UserService exposes read operations on accounts.
type UserService interface {
	GetUser(ctx context.Context, id uint) (*UserSummary, error)
}

type userService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewUserService builds a UserService with repository and cache.
func NewUserService(repo repository.UserRepository, cache *cache.Client) UserService {
	return &userService{repo: repo, cache: cache}
}

func userCacheKey(id uint) string {
	return fmt.Sprintf("berich:user:%d", id)
}

func (s *userService) GetUser(ctx context.Context, id uint) (*UserSummary, error) {
	if data, _ := s.cache.Get(ctx, userCacheKey(id)); data != nil {
		var cached UserSummary
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	summary := summarize(user)
	if payload, err := json.Marshal(summary); err == nil {
		_ = s.cache.Set(ctx, userCacheKey(id), payload, userCacheTTL)
	}
	return summary, nil
}

func summarize(user *model.User) *UserSummary {
	providers := make([]string, 0, len(user.SocialConnections))
	for _, c := range user.SocialConnections {
		providers = append(providers, c.Provider.String())
	}
	return &UserSummary{
		UserID:    user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Budget:    user.Budget,
		BudgetSet: user.BudgetSet(),
		HasLocal:  user.HasPassword(),
		Providers: providers,
	}
}

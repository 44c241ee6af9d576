package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"berich/internal/cache"
	apperrors "berich/internal/errors"
	"berich/internal/metrics"
	"berich/internal/repository"
)

// SettingService manages per-user settings.
type SettingService interface {
	SetBudget(ctx context.Context, userID uint, amount int64) error
}

type settingService struct {
	repo  repository.UserRepository
	cache *cache.Client
}

// NewSettingService builds a SettingService.
func NewSettingService(repo repository.UserRepository, cache *cache.Client) SettingService {
	return &settingService{repo: repo, cache: cache}
}

// SetBudget overwrites the user's budget. Amounts below 1 are rejected.
func (s *settingService) SetBudget(ctx context.Context, userID uint, amount int64) error {
	if amount < 1 {
		return apperrors.ErrInvalidArgument.WithMessage("budget must be at least 1")
	}

	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}

	if err := s.repo.UpdateBudget(ctx, userID, amount); err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	_ = s.cache.Delete(ctx, userCacheKey(userID))

	logrus.WithFields(logrus.Fields{"user_id": userID, "budget": amount}).Info("budget updated")
	metrics.RecordBudgetUpdate()
	return nil
}

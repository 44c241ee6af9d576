package repository

import (
	"context"

	"gorm.io/gorm"

	"berich/internal/model"
)

// SocialConnectionRepository defines persistence operations for provider links.
type SocialConnectionRepository interface {
	Create(ctx context.Context, conn *model.SocialConnection) error
	FindByProviderAndProviderID(ctx context.Context, provider model.ProviderType, providerID string) (*model.SocialConnection, error)
}

type socialConnectionRepository struct {
	db *gorm.DB
}

// NewSocialConnectionRepository builds a GORM-backed repository.
func NewSocialConnectionRepository(db *gorm.DB) SocialConnectionRepository {
	return &socialConnectionRepository{db: db}
}

func (r *socialConnectionRepository) Create(ctx context.Context, conn *model.SocialConnection) error {
	return r.db.WithContext(ctx).Create(conn).Error
}

func (r *socialConnectionRepository) FindByProviderAndProviderID(ctx context.Context, provider model.ProviderType, providerID string) (*model.SocialConnection, error) {
	var conn model.SocialConnection
	if err := r.db.WithContext(ctx).
		Where("provider = ? AND provider_id = ?", provider, providerID).
		First(&conn).Error; err != nil {
		return nil, err
	}
	return &conn, nil
}

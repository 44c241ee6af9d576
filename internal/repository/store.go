package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that take part in one unit of work.
type Store interface {
	Users() UserRepository
	SocialConnections() SocialConnectionRepository
	// WithTransaction executes fn within a database transaction. The Store handed to fn is
	// bound to the transaction; returning an error rolls everything back.
	WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}

type store struct {
	db                *gorm.DB
	users             UserRepository
	socialConnections SocialConnectionRepository
}

// NewStore creates a Store backed by db.
func NewStore(db *gorm.DB) Store {
	return &store{
		db:                db,
		users:             NewUserRepository(db),
		socialConnections: NewSocialConnectionRepository(db),
	}
}

func (s *store) Users() UserRepository {
	return s.users
}

func (s *store) SocialConnections() SocialConnectionRepository {
	return s.socialConnections
}

func (s *store) WithTransaction(ctx context.Context, fn func(ctx context.Context, tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(ctx, NewStore(tx))
	})
}

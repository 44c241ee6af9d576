package model

import (
	"strings"
	"time"
)

// ProviderType identifies an external identity provider.
type ProviderType string

const (
	ProviderKakao ProviderType = "KAKAO"
)

var knownProviders = map[ProviderType]struct{}{
	ProviderKakao: {},
}

// ParseProviderType converts a case-insensitive provider name into a known ProviderType.
func ParseProviderType(s string) (ProviderType, bool) {
	p := ProviderType(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := knownProviders[p]
	return p, ok
}

func (p ProviderType) String() string {
	return string(p)
}

// SocialConnection links a user to one identity at an external provider.
// (Provider, ProviderID) is unique across all users.
type SocialConnection struct {
	ID         uint         `json:"id" gorm:"primaryKey"`
	UserID     uint         `json:"userId" gorm:"not null;index"`
	Provider   ProviderType `json:"provider" gorm:"size:20;not null;uniqueIndex:idx_social_provider_id,priority:1"`
	ProviderID string       `json:"providerId" gorm:"size:255;not null;uniqueIndex:idx_social_provider_id,priority:2"`
	// Profile holds an optional provider-specific payload, opaque to the account flow.
	Profile   []byte    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

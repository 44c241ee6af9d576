package model

import "time"

// RoleUser is the single role granted to every account.
const RoleUser = "ROLE_USER"

// User represents an account holder. PasswordHash is nil for accounts created through a
// social provider only.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:50;not null"`
	PasswordHash *string   `json:"-" gorm:"size:100"` // Never expose in JSON
	Name         string    `json:"name" gorm:"size:30;not null"`
	Budget       *int64    `json:"budget,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`

	// Relations
	SocialConnections []SocialConnection `json:"socialConnections,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// HasPassword reports whether the user can log in with a local password.
func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

// BudgetSet reports whether the user has configured a budget.
func (u *User) BudgetSet() bool {
	return u.Budget != nil
}

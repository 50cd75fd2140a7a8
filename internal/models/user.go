package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Role gates creator-only operations. A role is upgraded READER -> CREATOR at
// most once and never downgraded by this service.
type Role string

const (
	RoleReader  Role = "READER"
	RoleCreator Role = "CREATOR"
)

// User represents an Inkwell account. Username and email are stored lowercased
// and compared case-insensitively. At most one refresh token is live per user;
// rotation overwrites it and logout clears it.
type User struct {
	ID       string `gorm:"primaryKey;type:uuid" json:"id"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`
	Email    string `gorm:"uniqueIndex;not null" json:"email"`

	PasswordHash string  `gorm:"type:text;not null" json:"-"`
	Role         Role    `gorm:"type:varchar(16);not null;default:READER" json:"role"`
	RefreshToken *string `gorm:"type:text" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	if u.Role == "" {
		u.Role = RoleReader
	}
	return nil
}

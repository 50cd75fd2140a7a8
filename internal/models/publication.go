package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Publication is a creator-owned content channel readers can subscribe to.
// SubscriptionPrice is in cents; 0 means free.
type Publication struct {
	ID          string `gorm:"primaryKey;type:uuid" json:"id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	LogoURL     string `json:"logo_url"`

	OwnerID string `gorm:"not null;index" json:"owner_id"`
	Owner   User   `gorm:"foreignKey:OwnerID" json:"-"`

	SubscriptionPrice int64 `gorm:"default:0" json:"subscription_price"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Publication) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

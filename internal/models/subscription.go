package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubscriptionStatus tracks the lifecycle of a reader's subscription.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "ACTIVE"
	SubscriptionInactive SubscriptionStatus = "INACTIVE"
	SubscriptionCanceled SubscriptionStatus = "CANCELED"
)

// Subscription links a reader to a publication. Payment-provider fields are
// carried for the external billing integration but never interpreted here.
type Subscription struct {
	ID string `gorm:"primaryKey;type:uuid" json:"id"`

	ReaderID      string      `gorm:"not null;index" json:"reader_id"`
	Reader        User        `gorm:"foreignKey:ReaderID" json:"-"`
	PublicationID string      `gorm:"not null;index" json:"publication_id"`
	Publication   Publication `gorm:"foreignKey:PublicationID" json:"-"`

	Status                 SubscriptionStatus `gorm:"type:varchar(16);not null;default:INACTIVE" json:"status"`
	PaymentProvider        string             `json:"payment_provider,omitempty"`
	ProviderSubscriptionID string             `json:"provider_subscription_id,omitempty"`
	CurrentPeriodEnd       *time.Time         `json:"current_period_end,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Subscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.Status == "" {
		s.Status = SubscriptionInactive
	}
	return nil
}

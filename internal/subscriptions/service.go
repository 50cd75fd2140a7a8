package subscriptions

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/inkwell/backend/internal/errors"
	"github.com/inkwell/backend/internal/models"
	"gorm.io/gorm"
)

// Service owns reader subscriptions to publications. Billing happens behind
// an external payment provider; this service only tracks the relationship.
type Service struct {
	db *gorm.DB
}

// NewService creates a new subscriptions service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// Subscribe creates an active subscription for the acting user. One
// non-canceled subscription per reader per publication.
func (s *Service) Subscribe(ctx context.Context, actor *models.User, publicationID string) (*models.Subscription, error) {
	var pub models.Publication
	err := s.db.WithContext(ctx).First(&pub, "id = ?", publicationID).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("Publication not found")
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	if pub.OwnerID == actor.ID {
		return nil, errors.Validation("You cannot subscribe to your own publication")
	}

	var existing models.Subscription
	err = s.db.WithContext(ctx).
		Where("reader_id = ? AND publication_id = ? AND status <> ?",
			actor.ID, publicationID, models.SubscriptionCanceled).
		First(&existing).Error
	if err == nil {
		return nil, errors.Conflict("You are already subscribed to this publication")
	} else if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	periodEnd := time.Now().UTC().Add(30 * 24 * time.Hour)
	sub := models.Subscription{
		ReaderID:         actor.ID,
		PublicationID:    publicationID,
		Status:           models.SubscriptionActive,
		CurrentPeriodEnd: &periodEnd,
	}
	if err := s.db.WithContext(ctx).Create(&sub).Error; err != nil {
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	return &sub, nil
}

// Cancel marks the reader's subscription to a publication as canceled.
func (s *Service) Cancel(ctx context.Context, readerID, publicationID string) error {
	res := s.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("reader_id = ? AND publication_id = ? AND status <> ?",
			readerID, publicationID, models.SubscriptionCanceled).
		Update("status", models.SubscriptionCanceled)
	if res.Error != nil {
		return fmt.Errorf("failed to cancel subscription: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.NotFound("Subscription not found")
	}
	return nil
}

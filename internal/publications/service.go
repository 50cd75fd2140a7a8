package publications

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"sync"

	"github.com/inkwell/backend/internal/errors"
	"github.com/inkwell/backend/internal/logger"
	"github.com/inkwell/backend/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// notFoundOrNotYours is returned for both a missing publication and an
// ownership mismatch, so non-owners cannot probe for existence.
const notFoundOrNotYours = "Publication not found or you do not have permission to modify it"

// Service owns publication CRUD. Mutations are gated on role and ownership;
// update and delete scope their queries to {id, owner} jointly instead of
// checking ownership after a separate fetch.
type Service struct {
	db *gorm.DB
}

// NewService creates a new publications service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateInput holds the fields for a new publication.
type CreateInput struct {
	Name              string
	Description       string
	SubscriptionPrice int64
}

// UpdateInput carries the optional fields of a partial update. Nil means
// "leave unchanged".
type UpdateInput struct {
	Name              *string
	Description       *string
	SubscriptionPrice *int64
}

// Create creates a publication owned by the acting user. CREATOR role required.
func (s *Service) Create(ctx context.Context, actor *models.User, in CreateInput) (*models.Publication, error) {
	if actor.Role != models.RoleCreator {
		return nil, errors.Forbidden("Only creators can create publications")
	}
	if strings.TrimSpace(in.Name) == "" {
		return nil, errors.Validation("Publication name is required")
	}
	if in.SubscriptionPrice < 0 {
		return nil, errors.Validation("Subscription price must be a non-negative number")
	}

	pub := models.Publication{
		Name:              strings.TrimSpace(in.Name),
		Description:       in.Description,
		OwnerID:           actor.ID,
		SubscriptionPrice: in.SubscriptionPrice,
	}
	if err := s.db.WithContext(ctx).Create(&pub).Error; err != nil {
		return nil, fmt.Errorf("failed to create publication: %w", err)
	}
	return &pub, nil
}

// GetByID fetches a publication. Public: no role or ownership requirement.
func (s *Service) GetByID(ctx context.Context, id string) (*models.Publication, error) {
	var pub models.Publication
	err := s.db.WithContext(ctx).First(&pub, "id = ?", id).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("Publication not found")
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &pub, nil
}

// ListByOwner returns the publications owned by the acting user. CREATOR only.
func (s *Service) ListByOwner(ctx context.Context, actor *models.User) ([]models.Publication, error) {
	if actor.Role != models.RoleCreator {
		return nil, errors.Forbidden("You must be a CREATOR")
	}

	var pubs []models.Publication
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", actor.ID).
		Order("created_at DESC").
		Find(&pubs).Error
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return pubs, nil
}

// Update applies a partial update, scoped to {id, owner}. A non-owner gets
// the same NotFound as a nonexistent id.
func (s *Service) Update(ctx context.Context, ownerID, id string, in UpdateInput) (*models.Publication, error) {
	updates := map[string]interface{}{}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, errors.Validation("Publication name cannot be empty")
		}
		updates["name"] = strings.TrimSpace(*in.Name)
	}
	if in.Description != nil {
		updates["description"] = *in.Description
	}
	if in.SubscriptionPrice != nil {
		if *in.SubscriptionPrice < 0 {
			return nil, errors.Validation("Subscription price must be a non-negative number")
		}
		updates["subscription_price"] = *in.SubscriptionPrice
	}
	if len(updates) == 0 {
		return nil, errors.Validation("At least one field (name, description, or subscription_price) is required to update")
	}

	res := s.db.WithContext(ctx).
		Model(&models.Publication{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(updates)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update publication: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, errors.NotFound(notFoundOrNotYours)
	}

	return s.GetByID(ctx, id)
}

// UpdateLogo stores the uploaded logo URL. Follows the original contract for
// this route: missing publication is a 404, foreign publication a 403.
func (s *Service) UpdateLogo(ctx context.Context, ownerID, id, logoURL string) (*models.Publication, error) {
	pub, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if pub.OwnerID != ownerID {
		return nil, errors.Forbidden("You are not the owner of this publication")
	}

	err = s.db.WithContext(ctx).
		Model(pub).
		Update("logo_url", logoURL).Error
	if err != nil {
		return nil, fmt.Errorf("failed to update logo: %w", err)
	}
	return pub, nil
}

// Delete removes a publication (scoped to {id, owner}) and then deletes the
// dependent posts and subscriptions as independent concurrent operations.
// There is no cross-entity transaction; a partial cascade is logged and
// surfaced as an internal error but the publication stays deleted.
func (s *Service) Delete(ctx context.Context, ownerID, id string) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&models.Publication{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete publication: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errors.NotFound(notFoundOrNotYours)
	}

	var wg sync.WaitGroup
	errs := make([]error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		errs[0] = s.db.WithContext(ctx).
			Where("publication_id = ?", id).
			Delete(&models.Post{}).Error
	}()
	go func() {
		defer wg.Done()
		errs[1] = s.db.WithContext(ctx).
			Where("publication_id = ?", id).
			Delete(&models.Subscription{}).Error
	}()
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			logger.Log.Error("cascade delete left orphaned rows",
				zap.String("publication_id", id),
				zap.Error(err),
			)
			return errors.Internal("Failed to delete dependent content")
		}
	}
	return nil
}

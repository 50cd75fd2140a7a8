package posts

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/inkwell/backend/internal/errors"
	"github.com/inkwell/backend/internal/models"
	"gorm.io/gorm"
)

// Service owns posts inside publications. Authoring is restricted to the
// publication owner; the owner lookup is scoped to {id, owner} so a non-owner
// sees the same NotFound as for a missing publication.
type Service struct {
	db *gorm.DB
}

// NewService creates a new posts service
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// CreateInput holds the fields for a new post.
type CreateInput struct {
	Title       string
	Content     string
	AccessLevel models.AccessLevel
	Status      models.PostStatus
}

// Create authors a post in the given publication.
func (s *Service) Create(ctx context.Context, actor *models.User, publicationID string, in CreateInput) (*models.Post, error) {
	if actor.Role != models.RoleCreator {
		return nil, errors.Forbidden("Only creators can author posts")
	}
	if strings.TrimSpace(in.Title) == "" || strings.TrimSpace(in.Content) == "" {
		return nil, errors.Validation("Title and content are required")
	}

	var pub models.Publication
	err := s.db.WithContext(ctx).
		First(&pub, "id = ? AND owner_id = ?", publicationID, actor.ID).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("Publication not found or you do not have permission to modify it")
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	post := models.Post{
		Title:         strings.TrimSpace(in.Title),
		Content:       in.Content,
		PublicationID: pub.ID,
		AuthorID:      actor.ID,
		AccessLevel:   in.AccessLevel,
		Status:        in.Status,
	}
	if err := s.db.WithContext(ctx).Create(&post).Error; err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return &post, nil
}

// ListPublished returns the published posts of a publication, newest first.
// Drafts never leave the service regardless of who asks.
func (s *Service) ListPublished(ctx context.Context, publicationID string) ([]models.Post, error) {
	var pub models.Publication
	err := s.db.WithContext(ctx).First(&pub, "id = ?", publicationID).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("Publication not found")
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	var posts []models.Post
	err = s.db.WithContext(ctx).
		Where("publication_id = ? AND status = ?", publicationID, models.PostPublished).
		Order("created_at DESC").
		Find(&posts).Error
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return posts, nil
}

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AccessLevel controls whether a post is readable without a paid subscription.
type AccessLevel string

const (
	AccessPublic AccessLevel = "PUBLIC"
	AccessPaid   AccessLevel = "PAID"
)

// PostStatus tracks the publishing state of a post.
type PostStatus string

const (
	PostDraft     PostStatus = "DRAFT"
	PostPublished PostStatus = "PUBLISHED"
)

// Post is an article inside a publication, authored by the publication owner.
type Post struct {
	ID      string `gorm:"primaryKey;type:uuid" json:"id"`
	Title   string `gorm:"not null" json:"title"`
	Content string `gorm:"type:text;not null" json:"content"`

	PublicationID string      `gorm:"not null;index" json:"publication_id"`
	Publication   Publication `gorm:"foreignKey:PublicationID" json:"-"`
	AuthorID      string      `gorm:"not null;index" json:"author_id"`
	Author        User        `gorm:"foreignKey:AuthorID" json:"-"`

	AccessLevel AccessLevel `gorm:"type:varchar(16);not null;default:PUBLIC" json:"access_level"`
	Status      PostStatus  `gorm:"type:varchar(16);not null;default:DRAFT" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.AccessLevel == "" {
		p.AccessLevel = AccessPublic
	}
	if p.Status == "" {
		p.Status = PostDraft
	}
	return nil
}

package handlers

import (
	"context"
	"time"

	"github.com/inkwell/backend/internal/auth"
	"github.com/inkwell/backend/internal/config"
	"github.com/inkwell/backend/internal/posts"
	"github.com/inkwell/backend/internal/publications"
	"github.com/inkwell/backend/internal/storage"
	"github.com/inkwell/backend/internal/subscriptions"
	"github.com/inkwell/backend/internal/users"
)

// PublicationCache caches publication snapshots for the public read path.
// *cache.RedisClient satisfies it; tests substitute an in-memory map.
type PublicationCache interface {
	Get(ctx context.Context, key string) (string, error)
	SetEx(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	cfg           *config.Config
	tokens        *auth.Service
	users         *users.Service
	publications  *publications.Service
	posts         *posts.Service
	subscriptions *subscriptions.Service
	logos         storage.LogoUploader
	pubCache      PublicationCache
}

// NewHandlers creates a new handlers instance
func NewHandlers(
	cfg *config.Config,
	tokens *auth.Service,
	usersSvc *users.Service,
	publicationsSvc *publications.Service,
	postsSvc *posts.Service,
	subscriptionsSvc *subscriptions.Service,
) *Handlers {
	return &Handlers{
		cfg:           cfg,
		tokens:        tokens,
		users:         usersSvc,
		publications:  publicationsSvc,
		posts:         postsSvc,
		subscriptions: subscriptionsSvc,
	}
}

// SetLogoUploader sets the logo storage backend. Logo uploads return an error
// until one is configured.
func (h *Handlers) SetLogoUploader(uploader storage.LogoUploader) {
	h.logos = uploader
}

// SetPublicationCache enables read-through caching of public publication
// lookups. Without it every GET hits the database.
func (h *Handlers) SetPublicationCache(c PublicationCache) {
	h.pubCache = c
}

package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/inkwell/backend/internal/dto"
	"github.com/inkwell/backend/internal/errors"
	"github.com/inkwell/backend/internal/logger"
	"github.com/inkwell/backend/internal/models"
	"github.com/inkwell/backend/internal/publications"
	"github.com/inkwell/backend/internal/storage"
	"go.uber.org/zap"
)

// maxLogoSize bounds logo uploads at 5 MB.
const maxLogoSize = 5 << 20

// publicationCacheTTL bounds staleness on the public read path; writes
// invalidate eagerly, so the TTL only covers invalidation failures.
const publicationCacheTTL = 5 * time.Minute

func publicationCacheKey(id string) string {
	return "publication:" + id
}

// invalidatePublication drops the cached snapshot after a write. Best effort:
// a failed delete leaves a stale entry that the TTL bounds.
func (h *Handlers) invalidatePublication(ctx context.Context, id string) {
	if h.pubCache == nil {
		return
	}
	if err := h.pubCache.Del(ctx, publicationCacheKey(id)); err != nil {
		logger.Log.Warn("publication cache invalidation failed",
			zap.String("publication_id", id),
			zap.Error(err),
		)
	}
}

// publicationID extracts and validates the :publicationId path parameter.
// A malformed UUID can never address a resource, so it is a 404 up front
// rather than a database error later.
func publicationID(c *gin.Context) (string, error) {
	raw := c.Param("publicationId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", errors.MalformedID("publicationId")
	}
	return id.String(), nil
}

// CreatePublication creates a publication owned by the authenticated creator
func (h *Handlers) CreatePublication(c *gin.Context) {
	var req dto.CreatePublicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}

	user := CurrentUser(c)
	pub, err := h.publications.Create(c.Request.Context(), user, publications.CreateInput{
		Name:              req.Name,
		Description:       req.Description,
		SubscriptionPrice: req.SubscriptionPrice,
	})
	if err != nil {
		fail(c, err)
		return
	}

	logger.Log.Info("publication created",
		zap.String("publication_id", pub.ID),
		logger.WithUserID(user.ID),
	)
	respond(c, http.StatusCreated, pub, "Publication created successfully")
}

// GetPublication returns a publication by id. Public route.
func (h *Handlers) GetPublication(c *gin.Context) {
	id, err := publicationID(c)
	if err != nil {
		fail(c, err)
		return
	}

	if h.pubCache != nil {
		if raw, err := h.pubCache.Get(c.Request.Context(), publicationCacheKey(id)); err == nil {
			var cached models.Publication
			if json.Unmarshal([]byte(raw), &cached) == nil {
				respond(c, http.StatusOK, &cached, "Publication fetched successfully")
				return
			}
		}
	}

	pub, err := h.publications.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}

	if h.pubCache != nil {
		if raw, err := json.Marshal(pub); err == nil {
			if err := h.pubCache.SetEx(c.Request.Context(), publicationCacheKey(id), raw, publicationCacheTTL); err != nil {
				logger.Log.Warn("publication cache write failed",
					zap.String("publication_id", id),
					zap.Error(err),
				)
			}
		}
	}
	respond(c, http.StatusOK, pub, "Publication fetched successfully")
}

// ListMyPublications returns the authenticated creator's publications
func (h *Handlers) ListMyPublications(c *gin.Context) {
	user := CurrentUser(c)
	pubs, err := h.publications.ListByOwner(c.Request.Context(), user)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, pubs, "Publications fetched successfully")
}

// UpdatePublication applies a partial update to an owned publication
func (h *Handlers) UpdatePublication(c *gin.Context) {
	id, err := publicationID(c)
	if err != nil {
		fail(c, err)
		return
	}

	var req dto.UpdatePublicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}

	user := CurrentUser(c)
	pub, err := h.publications.Update(c.Request.Context(), user.ID, id, publications.UpdateInput{
		Name:              req.Name,
		Description:       req.Description,
		SubscriptionPrice: req.SubscriptionPrice,
	})
	if err != nil {
		fail(c, err)
		return
	}

	h.invalidatePublication(c.Request.Context(), id)
	respond(c, http.StatusOK, pub, "Publication updated successfully")
}

// UploadLogo stores a new logo image for an owned publication
func (h *Handlers) UploadLogo(c *gin.Context) {
	id, err := publicationID(c)
	if err != nil {
		fail(c, err)
		return
	}

	if h.logos == nil {
		fail(c, errors.Internal("Logo storage is not configured"))
		return
	}

	fileHeader, err := c.FormFile("logo")
	if err != nil {
		fail(c, errors.Validation("Logo file is required"))
		return
	}
	if fileHeader.Size > maxLogoSize {
		fail(c, errors.Validation("Logo file must be 5MB or smaller"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		fail(c, errors.Internal("Failed to read uploaded file"))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxLogoSize))
	if err != nil {
		fail(c, errors.Internal("Failed to read uploaded file"))
		return
	}

	user := CurrentUser(c)

	// Ownership is checked before the upload so a non-owner cannot push bytes
	// to storage.
	pub, err := h.publications.GetByID(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	if pub.OwnerID != user.ID {
		fail(c, errors.Forbidden("You are not the owner of this publication"))
		return
	}
	oldLogoURL := pub.LogoURL

	result, err := h.logos.UploadLogo(c.Request.Context(), data, id, fileHeader.Filename)
	if err != nil {
		logger.Log.Error("logo upload failed",
			zap.String("publication_id", id),
			zap.Error(err),
		)
		fail(c, errors.Internal("Failed to upload logo"))
		return
	}

	pub, err = h.publications.UpdateLogo(c.Request.Context(), user.ID, id, result.URL)
	if err != nil {
		fail(c, err)
		return
	}

	// The replaced object is orphaned once the record points elsewhere.
	// Deletion is best effort; a leaked object costs storage, not correctness.
	if oldLogoURL != "" {
		if deleter, ok := h.logos.(storage.FileDeleter); ok {
			if key := storage.ObjectKey(oldLogoURL); key != "" {
				if err := deleter.DeleteFile(c.Request.Context(), key); err != nil {
					logger.Log.Warn("failed to delete replaced logo",
						zap.String("publication_id", id),
						zap.String("key", key),
						zap.Error(err),
					)
				}
			}
		}
	}

	h.invalidatePublication(c.Request.Context(), id)
	respond(c, http.StatusOK, pub, "Logo updated successfully")
}

// DeletePublication deletes an owned publication and its dependent content
func (h *Handlers) DeletePublication(c *gin.Context) {
	id, err := publicationID(c)
	if err != nil {
		fail(c, err)
		return
	}

	user := CurrentUser(c)
	if err := h.publications.Delete(c.Request.Context(), user.ID, id); err != nil {
		fail(c, err)
		return
	}
	h.invalidatePublication(c.Request.Context(), id)

	logger.Log.Info("publication deleted",
		zap.String("publication_id", id),
		logger.WithUserID(user.ID),
	)
	respond(c, http.StatusOK, nil, "Publication deleted successfully")
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkwell/backend/internal/dto"
	"github.com/inkwell/backend/internal/models"
	"github.com/inkwell/backend/internal/posts"
)

// CreatePost authors a post inside an owned publication
func (h *Handlers) CreatePost(c *gin.Context) {
	id, err := publicationID(c)
	if err != nil {
		fail(c, err)
		return
	}

	var req dto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}

	user := CurrentUser(c)
	post, err := h.posts.Create(c.Request.Context(), user, id, posts.CreateInput{
		Title:       req.Title,
		Content:     req.Content,
		AccessLevel: models.AccessLevel(req.AccessLevel),
		Status:      models.PostStatus(req.Status),
	})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, post, "Post created successfully")
}

// ListPosts returns the published posts of a publication. Public route.
func (h *Handlers) ListPosts(c *gin.Context) {
	id, err := publicationID(c)
	if err != nil {
		fail(c, err)
		return
	}

	list, err := h.posts.ListPublished(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, list, "Posts fetched successfully")
}

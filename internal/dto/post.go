package dto

// CreatePostRequest is the payload for authoring a post
type CreatePostRequest struct {
	Title       string `json:"title" binding:"required,max=256"`
	Content     string `json:"content" binding:"required"`
	AccessLevel string `json:"access_level" binding:"omitempty,oneof=PUBLIC PAID"`
	Status      string `json:"status" binding:"omitempty,oneof=DRAFT PUBLISHED"`
}

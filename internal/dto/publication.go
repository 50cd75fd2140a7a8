package dto

// CreatePublicationRequest is the payload for creating a publication
type CreatePublicationRequest struct {
	Name              string `json:"name" binding:"required,max=128"`
	Description       string `json:"description" binding:"max=2048"`
	SubscriptionPrice int64  `json:"subscription_price" binding:"gte=0"`
}

// UpdatePublicationRequest is a partial update; nil fields are left unchanged
type UpdatePublicationRequest struct {
	Name              *string `json:"name"`
	Description       *string `json:"description"`
	SubscriptionPrice *int64  `json:"subscription_price"`
}

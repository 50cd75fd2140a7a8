package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Subscribe subscribes the authenticated reader to a publication
func (h *Handlers) Subscribe(c *gin.Context) {
	id, err := publicationID(c)
	if err != nil {
		fail(c, err)
		return
	}

	user := CurrentUser(c)
	sub, err := h.subscriptions.Subscribe(c.Request.Context(), user, id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, sub, "Subscribed successfully")
}

// Unsubscribe cancels the authenticated reader's subscription
func (h *Handlers) Unsubscribe(c *gin.Context) {
	id, err := publicationID(c)
	if err != nil {
		fail(c, err)
		return
	}

	user := CurrentUser(c)
	if err := h.subscriptions.Cancel(c.Request.Context(), user.ID, id); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, nil, "Subscription canceled")
}

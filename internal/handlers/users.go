package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/inkwell/backend/internal/dto"
	"github.com/inkwell/backend/internal/errors"
	"github.com/inkwell/backend/internal/logger"
	"github.com/inkwell/backend/internal/metrics"
	"github.com/inkwell/backend/internal/users"
)

// Register creates a new account with the default READER role
func (h *Handlers) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}

	user, err := h.users.Register(c.Request.Context(), users.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		fail(c, err)
		return
	}

	metrics.Get().RegistrationsTotal.WithLabelValues().Inc()
	logger.Log.Info("user registered",
		logger.WithUserID(user.ID),
	)
	respond(c, http.StatusCreated, dto.NewUserResponse(user), "User registered successfully")
}

// Login authenticates by username or email and issues the token pair
func (h *Handlers) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, err)
		return
	}

	pair, err := h.users.Login(c.Request.Context(), req.Identifier(), req.Password)
	if err != nil {
		metrics.Get().LoginsTotal.WithLabelValues("failure").Inc()
		fail(c, err)
		return
	}

	metrics.Get().LoginsTotal.WithLabelValues("success").Inc()
	h.setAuthCookies(c, pair.AccessToken, pair.RefreshToken)
	respond(c, http.StatusOK, dto.LoginResponse{
		User:         dto.NewUserResponse(pair.User),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "User logged in successfully")
}

// Refresh redeems a refresh token (cookie first, body fallback) for a new pair
func (h *Handlers) Refresh(c *gin.Context) {
	tokenString, _ := c.Cookie(refreshCookie)
	if tokenString == "" {
		var req dto.RefreshRequest
		// Body is optional; a missing body with no cookie is just an
		// unauthenticated request.
		_ = c.ShouldBindJSON(&req)
		tokenString = req.RefreshToken
	}
	if tokenString == "" {
		metrics.Get().TokenRefreshTotal.WithLabelValues("failure").Inc()
		fail(c, errors.Unauthenticated("Unauthorized request"))
		return
	}

	pair, err := h.users.Refresh(c.Request.Context(), tokenString)
	if err != nil {
		metrics.Get().TokenRefreshTotal.WithLabelValues("failure").Inc()
		fail(c, err)
		return
	}

	metrics.Get().TokenRefreshTotal.WithLabelValues("success").Inc()
	h.setAuthCookies(c, pair.AccessToken, pair.RefreshToken)
	respond(c, http.StatusOK, dto.LoginResponse{
		User:         dto.NewUserResponse(pair.User),
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, "Access token refreshed")
}

// Logout clears the persisted refresh token and expires both cookies
func (h *Handlers) Logout(c *gin.Context) {
	user := CurrentUser(c)
	if err := h.users.Logout(c.Request.Context(), user.ID); err != nil {
		fail(c, err)
		return
	}

	h.clearAuthCookies(c)
	respond(c, http.StatusOK, nil, "User logged out successfully")
}

// GetCurrentUser returns the authenticated user's snapshot
func (h *Handlers) GetCurrentUser(c *gin.Context) {
	user := CurrentUser(c)
	respond(c, http.StatusOK, dto.NewUserResponse(user), "Current user fetched successfully")
}

// BecomeCreator upgrades the authenticated user's role to CREATOR
func (h *Handlers) BecomeCreator(c *gin.Context) {
	user := CurrentUser(c)
	updated, err := h.users.BecomeCreator(c.Request.Context(), user.ID)
	if err != nil {
		fail(c, err)
		return
	}

	logger.Log.Info("user upgraded to creator",
		logger.WithUserID(updated.ID),
	)
	respond(c, http.StatusOK, dto.NewUserResponse(updated), "Role updated to CREATOR")
}

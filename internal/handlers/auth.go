package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/inkwell/backend/internal/errors"
	"github.com/inkwell/backend/internal/models"
)

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"

	// currentUserKey is where AuthMiddleware stores the resolved user.
	currentUserKey = "currentUser"
)

// AuthMiddleware authenticates a request from the accessToken cookie or the
// Authorization bearer header, resolves the user against the store and
// attaches it to the context. Routes behind it can assume CurrentUser is set.
func (h *Handlers) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := c.Cookie(accessCookie)
		if err != nil || tokenString == "" {
			header := c.GetHeader("Authorization")
			tokenString = strings.TrimPrefix(header, "Bearer ")
			if tokenString == header {
				tokenString = ""
			}
		}
		if tokenString == "" {
			fail(c, errors.Unauthenticated("Unauthorized request"))
			return
		}

		claims, err := h.tokens.ParseAccessToken(tokenString)
		if err != nil {
			fail(c, errors.Unauthenticated("Invalid access token"))
			return
		}

		// The token is a snapshot; re-read the user so a deleted account or a
		// role change since signing is honored immediately.
		user, err := h.users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			fail(c, errors.Unauthenticated("Invalid access token"))
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user resolved by AuthMiddleware.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(currentUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.User)
	return user
}

// setAuthCookies installs both tokens as httpOnly cookies. Secure is tied to
// the environment so local development over plain HTTP still works.
func (h *Handlers) setAuthCookies(c *gin.Context, accessToken, refreshToken string) {
	secure := h.cfg.IsProduction()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessCookie, accessToken, int(h.cfg.AccessTokenExpiry.Seconds()), "/", "", secure, true)
	c.SetCookie(refreshCookie, refreshToken, int(h.cfg.RefreshTokenExpiry.Seconds()), "/", "", secure, true)
}

// clearAuthCookies expires both token cookies.
func (h *Handlers) clearAuthCookies(c *gin.Context) {
	secure := h.cfg.IsProduction()
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(accessCookie, "", -1, "/", "", secure, true)
	c.SetCookie(refreshCookie, "", -1, "/", "", secure, true)
}

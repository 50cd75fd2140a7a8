package users

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/inkwell/backend/internal/auth"
	"github.com/inkwell/backend/internal/errors"
	"github.com/inkwell/backend/internal/logger"
	"github.com/inkwell/backend/internal/metrics"
	"github.com/inkwell/backend/internal/models"
	"gorm.io/gorm"
)

// invalidCredentials is deliberately identical for unknown identifier and
// wrong password so login responses cannot be used for user enumeration.
const invalidCredentials = "Invalid user credentials"

// Service owns the credential/session lifecycle: register, login, refresh
// rotation, logout and role upgrade. Failures expected from client input come
// back as *errors.APIError values, never as panics.
type Service struct {
	db     *gorm.DB
	tokens *auth.Service
}

// NewService creates a new users service
func NewService(db *gorm.DB, tokens *auth.Service) *Service {
	return &Service{db: db, tokens: tokens}
}

// RegisterInput holds the fields for a new account.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// TokenPair is an issued access/refresh pair together with the user snapshot.
type TokenPair struct {
	User         *models.User
	AccessToken  string
	RefreshToken string
}

// Register creates a new account with the default READER role. Username and
// email are normalized to lowercase so case variants collide.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	email := strings.ToLower(strings.TrimSpace(in.Email))

	if username == "" || email == "" || in.Password == "" {
		return nil, errors.Validation("All the fields are required")
	}

	var existing models.User
	err := s.db.WithContext(ctx).
		Where("LOWER(username) = ? OR LOWER(email) = ?", username, email).
		First(&existing).Error
	if err == nil {
		return nil, errors.Conflict("User with this email or username already exists")
	} else if !stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}

	hashed, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	user := models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hashed,
		Role:         models.RoleReader,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return &user, nil
}

// Login authenticates by username or email plus password, issues a fresh
// token pair and persists the refresh token as the single valid copy.
func (s *Service) Login(ctx context.Context, identifier, password string) (*TokenPair, error) {
	identifier = strings.ToLower(strings.TrimSpace(identifier))
	if identifier == "" || password == "" {
		return nil, errors.Validation("Username or email and password are required")
	}

	var user models.User
	err := s.db.WithContext(ctx).
		Where("LOWER(username) = ? OR LOWER(email) = ?", identifier, identifier).
		First(&user).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Unauthenticated(invalidCredentials)
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return nil, errors.Unauthenticated(invalidCredentials)
	}

	return s.issuePair(ctx, &user)
}

// Refresh redeems a refresh token for a brand-new pair. The presented token
// must match the persisted copy byte for byte; a mismatch means the token was
// already rotated (reuse/replay) and the session is rejected.
func (s *Service) Refresh(ctx context.Context, tokenString string) (*TokenPair, error) {
	claims, err := s.tokens.ParseRefreshToken(tokenString)
	if err != nil {
		return nil, errors.Unauthenticated("Invalid refresh token")
	}

	var user models.User
	err = s.db.WithContext(ctx).First(&user, "id = ?", claims.UserID).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.Unauthenticated("Invalid refresh token")
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	if user.RefreshToken == nil || *user.RefreshToken != tokenString {
		// The presented token verified but is not the persisted copy: it was
		// already rotated. Worth counting, it can indicate token theft.
		metrics.Get().RefreshReuseTotal.WithLabelValues().Inc()
		logger.Log.Warn("rotated refresh token presented again",
			logger.WithUserID(user.ID),
		)
		return nil, errors.Unauthenticated("Refresh token is expired or used")
	}

	return s.issuePair(ctx, &user)
}

// Logout clears the persisted refresh token. Idempotent: logging out twice or
// with no live session is not an error.
func (s *Service) Logout(ctx context.Context, userID string) error {
	err := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("refresh_token", nil).Error
	if err != nil {
		return fmt.Errorf("failed to clear refresh token: %w", err)
	}
	return nil
}

// BecomeCreator upgrades the user's role to CREATOR.
func (s *Service) BecomeCreator(ctx context.Context, userID string) (*models.User, error) {
	res := s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		Update("role", models.RoleCreator)
	if res.Error != nil {
		return nil, fmt.Errorf("failed to update role: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, errors.NotFound("User not found")
	}

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	// Invariant check: the persisted role must read back as CREATOR.
	if user.Role != models.RoleCreator {
		return nil, errors.Internal("Role update did not persist")
	}
	return user, nil
}

// GetByID loads the public snapshot of a user, excluding the password hash
// and refresh token columns.
func (s *Service) GetByID(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Omit("password_hash", "refresh_token").
		First(&user, "id = ?", userID).Error
	if stderrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errors.NotFound("User not found")
	} else if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &user, nil
}

// issuePair signs a new access/refresh pair and overwrites the persisted
// refresh token (rotation-on-use; the previous token is dead from here on).
func (s *Service) issuePair(ctx context.Context, user *models.User) (*TokenPair, error) {
	accessToken, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	refreshToken, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", user.ID).
		Update("refresh_token", refreshToken).Error
	if err != nil {
		return nil, fmt.Errorf("failed to persist refresh token: %w", err)
	}
	user.RefreshToken = &refreshToken

	return &TokenPair{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

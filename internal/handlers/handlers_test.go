package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/inkwell/backend/internal/auth"
	"github.com/inkwell/backend/internal/config"
	"github.com/inkwell/backend/internal/middleware"
	"github.com/inkwell/backend/internal/models"
	"github.com/inkwell/backend/internal/posts"
	"github.com/inkwell/backend/internal/publications"
	"github.com/inkwell/backend/internal/storage"
	"github.com/inkwell/backend/internal/subscriptions"
	"github.com/inkwell/backend/internal/users"
	"github.com/stretchr/testify/suite"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MockLogoUploader is a mock implementation of storage.LogoUploader for testing
type MockLogoUploader struct {
	Uploaded   []string
	Deleted    []string
	ShouldFail bool
	ReturnURL  string
}

func (m *MockLogoUploader) UploadLogo(ctx context.Context, imageData []byte, publicationID, originalFilename string) (*storage.UploadResult, error) {
	if m.ShouldFail {
		return nil, fmt.Errorf("mock upload failure")
	}
	m.Uploaded = append(m.Uploaded, originalFilename)
	url := m.ReturnURL
	if url == "" {
		url = "https://cdn.example.com/logos/" + publicationID + "/logo.png"
	}
	return &storage.UploadResult{
		Key:  "logos/" + publicationID + "/logo.png",
		URL:  url,
		Size: int64(len(imageData)),
	}, nil
}

func (m *MockLogoUploader) DeleteFile(ctx context.Context, key string) error {
	m.Deleted = append(m.Deleted, key)
	return nil
}

// memoryCache is an in-memory PublicationCache so the handler suite can
// exercise the read-through path without a Redis server.
type memoryCache struct {
	data map[string]string
	sets int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string]string)}
}

func (m *memoryCache) Get(ctx context.Context, key string) (string, error) {
	v, ok := m.data[key]
	if !ok {
		return "", fmt.Errorf("key not found: %s", key)
	}
	return v, nil
}

func (m *memoryCache) SetEx(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.sets++
	switch v := value.(type) {
	case []byte:
		m.data[key] = string(v)
	case string:
		m.data[key] = v
	default:
		m.data[key] = fmt.Sprint(v)
	}
	return nil
}

func (m *memoryCache) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// envelope matches both the success and failure response shapes.
type envelope struct {
	StatusCode int             `json:"statusCode"`
	Data       json.RawMessage `json:"data"`
	Message    string          `json:"message"`
	Success    bool            `json:"success"`
	Errors     []string        `json:"errors"`
}

type HandlersSuite struct {
	suite.Suite
	db     *gorm.DB
	router *gin.Engine
	logos  *MockLogoUploader
	cache  *memoryCache
}

func (s *HandlersSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)

	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)

	s.Require().NoError(db.AutoMigrate(
		&models.User{}, &models.Publication{}, &models.Post{}, &models.Subscription{},
	))
	s.db = db

	cfg := &config.Config{
		Environment:        "test",
		AccessTokenSecret:  "test-access-secret",
		RefreshTokenSecret: "test-refresh-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
	}
	tokens := auth.NewService(auth.Config{
		AccessSecret:  []byte(cfg.AccessTokenSecret),
		RefreshSecret: []byte(cfg.RefreshTokenSecret),
		AccessTTL:     cfg.AccessTokenExpiry,
		RefreshTTL:    cfg.RefreshTokenExpiry,
	})

	h := NewHandlers(cfg, tokens,
		users.NewService(db, tokens),
		publications.NewService(db),
		posts.NewService(db),
		subscriptions.NewService(db),
	)
	s.logos = &MockLogoUploader{}
	h.SetLogoUploader(s.logos)
	s.cache = newMemoryCache()
	h.SetPublicationCache(s.cache)

	r := gin.New()
	r.Use(middleware.Recovery(cfg.Environment))
	r.Use(middleware.ErrorHandler(cfg.Environment))
	h.RegisterRoutes(r.Group("/api/v1"), nil)
	s.router = r
}

// request performs a JSON request. token, when non-empty, is sent as a bearer
// header.
func (s *HandlersSuite) request(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (s *HandlersSuite) register(username, email string) {
	w, _ := s.request("POST", "/api/v1/users/register", "", gin.H{
		"username": username,
		"email":    email,
		"password": "password123",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
}

// login returns the access and refresh tokens from the response body.
func (s *HandlersSuite) login(username string) (string, string) {
	w, env := s.request("POST", "/api/v1/users/login", "", gin.H{
		"username": username,
		"password": "password123",
	})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var data struct {
		AccessToken  string `json:"accessToken"`
		RefreshToken string `json:"refreshToken"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Require().NotEmpty(data.AccessToken)
	s.Require().NotEmpty(data.RefreshToken)
	return data.AccessToken, data.RefreshToken
}

func (s *HandlersSuite) becomeCreator(token string) {
	w, _ := s.request("PATCH", "/api/v1/users/become-creator", token, nil)
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
}

func (s *HandlersSuite) createPublication(token, name string) string {
	w, env := s.request("POST", "/api/v1/publications", token, gin.H{
		"name":               name,
		"subscription_price": 500,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var pub models.Publication
	s.Require().NoError(json.Unmarshal(env.Data, &pub))
	return pub.ID
}

func (s *HandlersSuite) TestFullLifecycle() {
	// alice registers, logs in, upgrades and creates a publication
	s.register("alice", "alice@example.com")
	aliceToken, _ := s.login("alice")

	w, env := s.request("GET", "/api/v1/users/current-user", aliceToken, nil)
	s.Equal(http.StatusOK, w.Code)
	s.True(env.Success)

	s.becomeCreator(aliceToken)
	pubID := s.createPublication(aliceToken, "Daily")

	// bob cannot update alice's publication, and cannot tell it exists
	s.register("bob", "bob@example.com")
	bobToken, _ := s.login("bob")

	w, env = s.request("PATCH", "/api/v1/publications/"+pubID, bobToken, gin.H{"name": "Hijacked"})
	s.Equal(http.StatusNotFound, w.Code)
	s.False(env.Success)

	// alice can
	w, _ = s.request("PATCH", "/api/v1/publications/"+pubID, aliceToken, gin.H{"name": "Daily Dispatch"})
	s.Equal(http.StatusOK, w.Code)

	// anyone can read it
	w, env = s.request("GET", "/api/v1/publications/"+pubID, "", nil)
	s.Equal(http.StatusOK, w.Code)
	var pub models.Publication
	s.Require().NoError(json.Unmarshal(env.Data, &pub))
	s.Equal("Daily Dispatch", pub.Name)
}

func (s *HandlersSuite) TestProtectedRoutesRequireAuth() {
	for _, route := range []struct{ method, path string }{
		{"GET", "/api/v1/users/current-user"},
		{"PATCH", "/api/v1/users/become-creator"},
		{"POST", "/api/v1/publications"},
		{"GET", "/api/v1/publications/my-publications"},
	} {
		w, env := s.request(route.method, route.path, "", nil)
		s.Equal(http.StatusUnauthorized, w.Code, route.path)
		s.Equal("Unauthorized request", env.Message, route.path)
		s.False(env.Success)
	}
}

func (s *HandlersSuite) TestInvalidTokenRejected() {
	w, env := s.request("GET", "/api/v1/users/current-user", "garbage-token", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Invalid access token", env.Message)
}

func (s *HandlersSuite) TestCookieAuthentication() {
	s.register("alice", "alice@example.com")

	// Log in and capture cookies instead of the body tokens
	body, _ := json.Marshal(gin.H{"username": "alice", "password": "password123"})
	req := httptest.NewRequest("POST", "/api/v1/users/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Require().Equal(http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	var accessCookieValue string
	for _, c := range cookies {
		if c.Name == "accessToken" {
			accessCookieValue = c.Value
			s.True(c.HttpOnly)
		}
	}
	s.Require().NotEmpty(accessCookieValue)

	req = httptest.NewRequest("GET", "/api/v1/users/current-user", nil)
	req.AddCookie(&http.Cookie{Name: "accessToken", Value: accessCookieValue})
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlersSuite) TestRefreshEndpointRotates() {
	s.register("alice", "alice@example.com")
	_, refreshToken := s.login("alice")

	w, env := s.request("POST", "/api/v1/users/refresh-token", "", gin.H{"refreshToken": refreshToken})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	var data struct {
		RefreshToken string `json:"refreshToken"`
	}
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.NotEqual(refreshToken, data.RefreshToken)

	// The old token was rotated out
	w, env = s.request("POST", "/api/v1/users/refresh-token", "", gin.H{"refreshToken": refreshToken})
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("Refresh token is expired or used", env.Message)
}

func (s *HandlersSuite) TestLogoutClearsSession() {
	s.register("alice", "alice@example.com")
	accessToken, refreshToken := s.login("alice")

	w, _ := s.request("POST", "/api/v1/users/logout", accessToken, nil)
	s.Equal(http.StatusOK, w.Code)

	w, _ = s.request("POST", "/api/v1/users/refresh-token", "", gin.H{"refreshToken": refreshToken})
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlersSuite) TestReaderCannotCreatePublication() {
	s.register("rita", "rita@example.com")
	token, _ := s.login("rita")

	w, env := s.request("POST", "/api/v1/publications", token, gin.H{"name": "Daily"})
	s.Equal(http.StatusForbidden, w.Code)
	s.False(env.Success)
}

func (s *HandlersSuite) TestMalformedIDIs404() {
	s.register("alice", "alice@example.com")
	token, _ := s.login("alice")

	w, env := s.request("PATCH", "/api/v1/publications/not-a-uuid", token, gin.H{"name": "x"})
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("Resource not found. Invalid: publicationId", env.Message)
}

func (s *HandlersSuite) TestValidationErrorsUseEnvelope() {
	w, env := s.request("POST", "/api/v1/users/register", "", gin.H{
		"username": "al",
		"email":    "not-an-email",
		"password": "short",
	})
	s.Equal(http.StatusBadRequest, w.Code)
	s.False(env.Success)
	s.NotEmpty(env.Errors)
}

func (s *HandlersSuite) TestDuplicateRegistration() {
	s.register("alice", "alice@example.com")

	w, env := s.request("POST", "/api/v1/users/register", "", gin.H{
		"username": "ALICE",
		"email":    "alice@example.com",
		"password": "password123",
	})
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("User with this email or username already exists", env.Message)
}

func (s *HandlersSuite) TestPostsAndSubscriptions() {
	s.register("alice", "alice@example.com")
	aliceToken, _ := s.login("alice")
	s.becomeCreator(aliceToken)
	pubID := s.createPublication(aliceToken, "Daily")

	w, _ := s.request("POST", "/api/v1/publications/"+pubID+"/posts", aliceToken, gin.H{
		"title":   "Hello",
		"content": "First post",
		"status":  "PUBLISHED",
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	// Published posts are publicly readable
	w, env := s.request("GET", "/api/v1/publications/"+pubID+"/posts", "", nil)
	s.Equal(http.StatusOK, w.Code)
	var list []models.Post
	s.Require().NoError(json.Unmarshal(env.Data, &list))
	s.Len(list, 1)

	// bob subscribes, then cancels
	s.register("bob", "bob@example.com")
	bobToken, _ := s.login("bob")

	w, _ = s.request("POST", "/api/v1/publications/"+pubID+"/subscribe", bobToken, nil)
	s.Equal(http.StatusCreated, w.Code)

	w, env = s.request("POST", "/api/v1/publications/"+pubID+"/subscribe", bobToken, nil)
	s.Equal(http.StatusConflict, w.Code)
	s.False(env.Success)

	w, _ = s.request("DELETE", "/api/v1/publications/"+pubID+"/subscribe", bobToken, nil)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlersSuite) TestDeletePublicationCascades() {
	s.register("alice", "alice@example.com")
	aliceToken, _ := s.login("alice")
	s.becomeCreator(aliceToken)
	pubID := s.createPublication(aliceToken, "Daily")

	w, _ := s.request("POST", "/api/v1/publications/"+pubID+"/posts", aliceToken, gin.H{
		"title": "Hello", "content": "body", "status": "PUBLISHED",
	})
	s.Require().Equal(http.StatusCreated, w.Code)

	w, _ = s.request("DELETE", "/api/v1/publications/"+pubID, aliceToken, nil)
	s.Equal(http.StatusOK, w.Code)

	var count int64
	s.db.Model(&models.Post{}).Where("publication_id = ?", pubID).Count(&count)
	s.Zero(count)

	w, _ = s.request("GET", "/api/v1/publications/"+pubID, "", nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersSuite) TestLogoUpload() {
	s.register("alice", "alice@example.com")
	aliceToken, _ := s.login("alice")
	s.becomeCreator(aliceToken)
	pubID := s.createPublication(aliceToken, "Daily")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("logo", "logo.png")
	s.Require().NoError(err)
	_, err = part.Write([]byte("fake png bytes"))
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest("PATCH", "/api/v1/publications/logo/"+pubID, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+aliceToken)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Len(s.logos.Uploaded, 1)

	var env envelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env))
	var pub models.Publication
	s.Require().NoError(json.Unmarshal(env.Data, &pub))
	s.Contains(pub.LogoURL, pubID)
}

func (s *HandlersSuite) TestLogoUploadByNonOwnerIsForbidden() {
	s.register("alice", "alice@example.com")
	aliceToken, _ := s.login("alice")
	s.becomeCreator(aliceToken)
	pubID := s.createPublication(aliceToken, "Daily")

	s.register("bob", "bob@example.com")
	bobToken, _ := s.login("bob")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("logo", "logo.png")
	s.Require().NoError(err)
	_, err = part.Write([]byte("fake png bytes"))
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest("PATCH", "/api/v1/publications/logo/"+pubID, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+bobToken)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	// The logo route keeps the distinct 403 for foreign publications
	s.Equal(http.StatusForbidden, w.Code)
	s.Empty(s.logos.Uploaded)
}

func (s *HandlersSuite) uploadLogo(token, pubID, filename string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("logo", filename)
	s.Require().NoError(err)
	_, err = part.Write([]byte("fake png bytes"))
	s.Require().NoError(err)
	s.Require().NoError(mw.Close())

	req := httptest.NewRequest("PATCH", "/api/v1/publications/logo/"+pubID, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlersSuite) TestLogoReplacementDeletesOldObject() {
	s.register("alice", "alice@example.com")
	aliceToken, _ := s.login("alice")
	s.becomeCreator(aliceToken)
	pubID := s.createPublication(aliceToken, "Daily")

	w := s.uploadLogo(aliceToken, pubID, "first.png")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	s.Empty(s.logos.Deleted)

	w = s.uploadLogo(aliceToken, pubID, "second.png")
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	// Replacing the logo removes the object the record used to point at
	s.Require().Len(s.logos.Deleted, 1)
	s.Contains(s.logos.Deleted[0], pubID)
}

func (s *HandlersSuite) TestPublicationReadsServedFromCache() {
	s.register("alice", "alice@example.com")
	aliceToken, _ := s.login("alice")
	s.becomeCreator(aliceToken)
	pubID := s.createPublication(aliceToken, "Daily")

	w, _ := s.request("GET", "/api/v1/publications/"+pubID, "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(1, s.cache.sets)

	// Change the row behind the cache's back; a cached read keeps the old name
	s.Require().NoError(
		s.db.Model(&models.Publication{}).Where("id = ?", pubID).
			Update("name", "Changed Behind Cache").Error,
	)

	w, env := s.request("GET", "/api/v1/publications/"+pubID, "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var pub models.Publication
	s.Require().NoError(json.Unmarshal(env.Data, &pub))
	s.Equal("Daily", pub.Name)
	s.Equal(1, s.cache.sets)
}

func (s *HandlersSuite) TestPublicationCacheInvalidatedOnUpdate() {
	s.register("alice", "alice@example.com")
	aliceToken, _ := s.login("alice")
	s.becomeCreator(aliceToken)
	pubID := s.createPublication(aliceToken, "Daily")

	w, _ := s.request("GET", "/api/v1/publications/"+pubID, "", nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w, _ = s.request("PATCH", "/api/v1/publications/"+pubID, aliceToken, gin.H{"name": "Daily Dispatch"})
	s.Require().Equal(http.StatusOK, w.Code)

	w, env := s.request("GET", "/api/v1/publications/"+pubID, "", nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var pub models.Publication
	s.Require().NoError(json.Unmarshal(env.Data, &pub))
	s.Equal("Daily Dispatch", pub.Name)
}

func (s *HandlersSuite) TestMalformedBodyIsBadRequest() {
	for _, body := range []string{"", "{not json", `{"username": 42}`} {
		req := httptest.NewRequest("POST", "/api/v1/users/register", bytes.NewReader([]byte(body)))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)

		s.Equal(http.StatusBadRequest, w.Code, "body: %q", body)

		var env envelope
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env))
		s.False(env.Success)
	}
}

func TestHandlersSuite(t *testing.T) {
	suite.Run(t, new(HandlersSuite))
}

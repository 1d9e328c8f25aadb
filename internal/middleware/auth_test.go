package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mentorbook/mentorbook-api/internal/models"
	"github.com/mentorbook/mentorbook-api/pkg/jwt"
	"github.com/mentorbook/mentorbook-api/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	// Set Gin to test mode
	gin.SetMode(gin.TestMode)

	// Initialize logger for tests
	if err := logger.Initialize(logger.Config{
		Level:       "debug",
		Environment: "development",
	}); err != nil {
		panic(err)
	}
}

func testTokenManager() *jwt.TokenManager {
	return jwt.NewTokenManager("test-secret", "mentorbook-test", 1)
}

func TestActorAuthMiddleware_ValidToken(t *testing.T) {
	// Setup
	tm := testTokenManager()
	userID := uuid.New()
	token, err := tm.GenerateToken(userID.String(), "mentor@example.com", "Mentor", "mentor")
	require.NoError(t, err)

	var gotActor models.Actor
	handlerCalled := false
	router := gin.New()
	router.Use(ActorAuthMiddleware(tm))
	router.GET("/test", func(c *gin.Context) {
		handlerCalled = true
		gotActor, _ = GetActor(c)
		c.Status(http.StatusOK)
	})

	// Create request with valid token
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	// Execute
	router.ServeHTTP(w, req)

	// Assert
	assert.True(t, handlerCalled, "Handler should be called for valid token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID, gotActor.ID)
	assert.Equal(t, models.RoleMentor, gotActor.Role)
	assert.Equal(t, "mentor@example.com", gotActor.Email)
}

func TestActorAuthMiddleware_MissingToken(t *testing.T) {
	// Setup
	handlerCalled := false
	router := gin.New()
	router.Use(ActorAuthMiddleware(testTokenManager()))
	router.GET("/test", func(c *gin.Context) {
		handlerCalled = true
		c.Status(http.StatusOK)
	})

	// Create request without token
	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)

	// Execute
	router.ServeHTTP(w, req)

	// Assert
	assert.False(t, handlerCalled, "Handler should not be called when token is missing")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestActorAuthMiddleware_InvalidToken(t *testing.T) {
	// Setup
	handlerCalled := false
	router := gin.New()
	router.Use(ActorAuthMiddleware(testTokenManager()))
	router.GET("/test", func(c *gin.Context) {
		handlerCalled = true
		c.Status(http.StatusOK)
	})

	// Create request with a token signed by someone else
	other := jwt.NewTokenManager("other-secret", "mentorbook-test", 1)
	token, err := other.GenerateToken(uuid.New().String(), "a@b.c", "A", "student")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	// Execute
	router.ServeHTTP(w, req)

	// Assert
	assert.False(t, handlerCalled, "Handler should not be called for invalid token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestActorAuthMiddleware_UnknownRole(t *testing.T) {
	// Setup
	tm := testTokenManager()
	token, err := tm.GenerateToken(uuid.New().String(), "x@example.com", "X", "superuser")
	require.NoError(t, err)

	handlerCalled := false
	router := gin.New()
	router.Use(ActorAuthMiddleware(tm))
	router.GET("/test", func(c *gin.Context) {
		handlerCalled = true
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	// Execute
	router.ServeHTTP(w, req)

	// Assert
	assert.False(t, handlerCalled, "Handler should not be called for an unknown role")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	// Setup
	tm := testTokenManager()
	router := gin.New()
	router.Use(ActorAuthMiddleware(tm))

	handlerCalled := false
	mentorOnly := router.Group("/", RequireRole(models.RoleMentor, models.RoleAdmin))
	mentorOnly.GET("/test", func(c *gin.Context) {
		handlerCalled = true
		c.Status(http.StatusOK)
	})

	// A student is rejected
	studentToken, err := tm.GenerateToken(uuid.New().String(), "s@example.com", "S", "student")
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+studentToken)
	router.ServeHTTP(w, req)

	assert.False(t, handlerCalled, "Handler should not be called for a student")
	assert.Equal(t, http.StatusForbidden, w.Code)

	// A mentor passes
	mentorToken, err := tm.GenerateToken(uuid.New().String(), "m@example.com", "M", "mentor")
	require.NoError(t, err)

	w = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("Authorization", "Bearer "+mentorToken)
	router.ServeHTTP(w, req)

	assert.True(t, handlerCalled, "Handler should be called for a mentor")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetActor_NotSet(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, err := GetActor(c)
	assert.ErrorIs(t, err, ErrActorNotFound)
}

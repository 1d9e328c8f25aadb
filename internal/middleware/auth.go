package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/mentorbook/mentorbook-api/internal/models"
	"github.com/mentorbook/mentorbook-api/pkg/jwt"
	"github.com/mentorbook/mentorbook-api/pkg/logger"
	"go.uber.org/zap"
)

const (
	// ActorContextKey is the key used to store the authenticated actor in context
	ActorContextKey = "actor"
)

var (
	ErrActorNotFound = errors.New("actor not found in context")
	ErrInvalidActor  = errors.New("invalid actor type")
)

// ActorAuthMiddleware validates the Bearer token and resolves the actor.
// The role is taken from the token claims exactly once here; downstream
// code trusts the typed Actor and never re-derives it.
func ActorAuthMiddleware(tokenManager *jwt.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			logger.Warn("Missing bearer token",
				zap.String("path", c.Request.URL.Path),
				zap.String("client_ip", c.ClientIP()),
			)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		claims, err := tokenManager.ValidateToken(token)
		if err != nil {
			_ = c.Error(err) //nolint:errcheck
			if errors.Is(err, jwt.ErrExpiredToken) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Token expired"})
			} else {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			}
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		role, err := models.ParseRole(claims.Role)
		if err != nil {
			logger.Warn("Token carries unknown role",
				zap.String("role", claims.Role),
				zap.String("user_id", claims.UserID),
			)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		actor := models.Actor{
			ID:    userID,
			Email: claims.Email,
			Name:  claims.Name,
			Role:  role,
		}

		c.Set(ActorContextKey, actor)
		c.Next()
	}
}

// RequireRole restricts a route group to the given roles
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := GetActor(c)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			c.Abort()
			return
		}

		for _, role := range roles {
			if actor.Role == role {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		c.Abort()
	}
}

// GetActor extracts the authenticated actor from context
func GetActor(c *gin.Context) (models.Actor, error) {
	val, exists := c.Get(ActorContextKey)
	if !exists {
		return models.Actor{}, ErrActorNotFound
	}

	actor, ok := val.(models.Actor)
	if !ok {
		return models.Actor{}, ErrInvalidActor
	}

	return actor, nil
}

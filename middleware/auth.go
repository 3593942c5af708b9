package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"document-rag-platform/internal/auth"
	"document-rag-platform/internal/config"
	"document-rag-platform/utils"
)

type AuthMiddleware struct {
	config *config.Config
}

func NewAuthMiddleware(cfg *config.Config) *AuthMiddleware {
	return &AuthMiddleware{config: cfg}
}

// RequireAPIKey guards the chat endpoints. The presentation frontend
// holds a single shared key passed as X-API-Key.
func (a *AuthMiddleware) RequireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(a.config.BackendAPIKey)) != 1 {
			utils.RespondWithError(c, http.StatusUnauthorized,
				"invalid_api_key", "A valid X-API-Key header is required", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAuth guards curator endpoints with a bearer JWT.
func (a *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := utils.ExtractTokenFromHeader(c.GetHeader("Authorization"))
		if tokenString == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			utils.RespondWithError(c, http.StatusUnauthorized,
				"unauthorized", "Authentication token is required", nil)
			c.Abort()
			return
		}

		claims, err := auth.ValidateAccessToken([]byte(a.config.JWTSecret), tokenString)
		if err != nil {
			utils.RespondWithError(c, http.StatusUnauthorized,
				"invalid_token", "Your session has expired. Please log in again.", nil)
			c.Abort()
			return
		}

		c.Set("curator_id", claims.CuratorID)
		c.Set("username", claims.Username)
		c.Next()
	}
}

// GetCuratorID returns the authenticated curator's ID from context.
func GetCuratorID(c *gin.Context) string {
	if id, exists := c.Get("curator_id"); exists {
		if str, ok := id.(string); ok {
			return str
		}
	}
	return ""
}

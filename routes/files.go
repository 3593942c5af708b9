package routes

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"document-rag-platform/internal/auth"
	"document-rag-platform/internal/config"
	"document-rag-platform/utils"
)

// SetupFileRoutes serves source files behind signed, expiring links.
// The chat pipeline embeds these URLs in citation maps, so the route
// is unauthenticated but the token binds it to one document.
func SetupFileRoutes(router *gin.Engine, cfg *config.Config) {
	router.GET("/files/:document_id", func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			utils.RespondWithUnauthorized(c, "A signed token is required")
			return
		}

		claims, err := auth.ValidateFileLink([]byte(cfg.JWTSecret), token)
		if err != nil {
			utils.RespondWithUnauthorized(c, "The file link is invalid or has expired")
			return
		}
		if claims.DocumentID != c.Param("document_id") {
			utils.RespondWithForbidden(c, "Token does not match the requested document")
			return
		}

		// The storage key comes from the signed claims, never the URL.
		rel := filepath.Clean(filepath.FromSlash(claims.StorageKey))
		if rel == "." || strings.HasPrefix(rel, "..") || filepath.IsAbs(rel) {
			utils.RespondWithForbidden(c, "Invalid storage reference")
			return
		}

		path := filepath.Join(cfg.FileStorageDir, rel)
		if _, err := os.Stat(path); err != nil {
			utils.RespondWithNotFound(c, "Source file not found")
			return
		}

		c.FileAttachment(path, filepath.Base(path))
	})
}

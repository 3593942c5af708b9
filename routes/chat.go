package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"document-rag-platform/middleware"
	"document-rag-platform/models"
	"document-rag-platform/services"
	"document-rag-platform/utils"
)

// SetupChatRoutes registers the question answering endpoints. These
// are the only routes the presentation layer calls, guarded by the
// shared API key.
func SetupChatRoutes(router *gin.Engine, rag *services.RAGService, authMiddleware *middleware.AuthMiddleware) {
	chat := router.Group("/chat")
	chat.Use(authMiddleware.RequireAPIKey())

	chat.POST("", func(c *gin.Context) {
		var req models.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid chat request", gin.H{"error": err.Error()})
			return
		}

		resp, err := rag.Answer(c.Request.Context(), req)
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to answer question", nil)
			return
		}

		c.JSON(http.StatusOK, resp)
	})

	chat.GET("/conversations/:session_id", func(c *gin.Context) {
		sessionID := c.Param("session_id")

		conv, err := rag.GetConversation(c.Request.Context(), sessionID)
		if err == mongo.ErrNoDocuments {
			utils.RespondWithNotFound(c, "Conversation not found")
			return
		}
		if err != nil {
			utils.RespondWithInternalError(c, "Failed to load conversation", nil)
			return
		}

		c.JSON(http.StatusOK, conv)
	})
}

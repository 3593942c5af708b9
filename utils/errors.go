package utils

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the error envelope every endpoint returns. ErrorCode
// is a stable machine-readable identifier; Message is for humans.
type ErrorResponse struct {
	ErrorCode string      `json:"error_code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
}

func RespondWithError(c *gin.Context, statusCode int, errorCode, message string, details interface{}) {
	c.JSON(statusCode, ErrorResponse{
		ErrorCode: errorCode,
		Message:   message,
		Details:   details,
	})
}

func RespondWithBadRequest(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusBadRequest, "bad_request", message, details)
}

func RespondWithUnauthorized(c *gin.Context, message string) {
	RespondWithError(c, http.StatusUnauthorized, "unauthorized", message, nil)
}

func RespondWithForbidden(c *gin.Context, message string) {
	RespondWithError(c, http.StatusForbidden, "forbidden", message, nil)
}

func RespondWithNotFound(c *gin.Context, message string) {
	RespondWithError(c, http.StatusNotFound, "not_found", message, nil)
}

func RespondWithInternalError(c *gin.Context, message string, details interface{}) {
	RespondWithError(c, http.StatusInternalServerError, "internal_error", message, details)
}

// RespondWithDocumentNotFound reports a missing document by its citable
// identifier.
func RespondWithDocumentNotFound(c *gin.Context, documentID string) {
	RespondWithError(c, http.StatusNotFound, "document_not_found",
		fmt.Sprintf("Document %s not found", documentID), nil)
}

// RespondWithFileTooLarge rejects an upload exceeding the configured
// size limit.
func RespondWithFileTooLarge(c *gin.Context, maxBytes int64) {
	RespondWithError(c, http.StatusRequestEntityTooLarge, "file_too_large",
		fmt.Sprintf("File exceeds the %d byte limit", maxBytes), nil)
}

// RespondWithRateLimited tells the client how long to back off.
func RespondWithRateLimited(c *gin.Context, retryAfter, limit int) {
	RespondWithError(c, http.StatusTooManyRequests, "rate_limit_exceeded",
		"Too many requests. Please try again later.",
		gin.H{
			"retry_after": retryAfter,
			"limit":       limit,
		})
}

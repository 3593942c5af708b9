package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func errorResponse(t *testing.T, respond func(c *gin.Context)) (int, ErrorResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	respond(c)

	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid error body: %v", err)
	}
	return w.Code, body
}

func TestRespondWithDocumentNotFound(t *testing.T) {
	status, body := errorResponse(t, func(c *gin.Context) {
		RespondWithDocumentNotFound(c, "DOC-104-10004")
	})
	if status != http.StatusNotFound {
		t.Errorf("unexpected status: %d", status)
	}
	if body.ErrorCode != "document_not_found" {
		t.Errorf("unexpected error code: %q", body.ErrorCode)
	}
	if !strings.Contains(body.Message, "DOC-104-10004") {
		t.Errorf("message should name the document: %q", body.Message)
	}
}

func TestRespondWithFileTooLarge(t *testing.T) {
	status, body := errorResponse(t, func(c *gin.Context) {
		RespondWithFileTooLarge(c, 104857600)
	})
	if status != http.StatusRequestEntityTooLarge {
		t.Errorf("unexpected status: %d", status)
	}
	if body.ErrorCode != "file_too_large" {
		t.Errorf("unexpected error code: %q", body.ErrorCode)
	}
	if !strings.Contains(body.Message, "104857600") {
		t.Errorf("message should state the limit: %q", body.Message)
	}
}

func TestRespondWithRateLimited(t *testing.T) {
	status, body := errorResponse(t, func(c *gin.Context) {
		RespondWithRateLimited(c, 60, 100)
	})
	if status != http.StatusTooManyRequests {
		t.Errorf("unexpected status: %d", status)
	}
	if body.ErrorCode != "rate_limit_exceeded" {
		t.Errorf("unexpected error code: %q", body.ErrorCode)
	}
	details, ok := body.Details.(map[string]interface{})
	if !ok {
		t.Fatalf("details missing: %v", body.Details)
	}
	if details["retry_after"] != float64(60) || details["limit"] != float64(100) {
		t.Errorf("unexpected details: %v", details)
	}
}

func TestRespondWithErrorEnvelope(t *testing.T) {
	status, body := errorResponse(t, func(c *gin.Context) {
		RespondWithBadRequest(c, "A file is required", nil)
	})
	if status != http.StatusBadRequest {
		t.Errorf("unexpected status: %d", status)
	}
	if body.ErrorCode != "bad_request" || body.Message != "A file is required" {
		t.Errorf("unexpected envelope: %+v", body)
	}
	if body.Details != nil {
		t.Errorf("empty details should be omitted, got %v", body.Details)
	}
}

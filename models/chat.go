package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message is one question/answer turn persisted per session.
type Message struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID        string             `bson:"session_id" json:"session_id"`
	Question         string             `bson:"question" json:"question"`
	Answer           string             `bson:"answer" json:"answer"`
	Citations        map[string]string  `bson:"citations,omitempty" json:"citations,omitempty"`
	TokensUsed       int                `bson:"tokens_used" json:"tokens_used"`
	PromptTokens     int                `bson:"prompt_tokens" json:"prompt_tokens"`
	CompletionTokens int                `bson:"completion_tokens" json:"completion_tokens"`
	Timestamp        time.Time          `bson:"timestamp" json:"timestamp"`
}

type ChatRequest struct {
	Message   string `json:"message" binding:"required,min=1,max=2000"`
	SessionID string `json:"session_id,omitempty"`
}

// Source is one cited passage returned alongside the answer.
type Source struct {
	DocumentID string `json:"document_id"`
	PageNumber string `json:"page_number"`
	Quote      string `json:"quote"`
	SourceName string `json:"source_name,omitempty"`
	URL        string `json:"url,omitempty"`
}

// ChatResponse is the boundary contract with the presentation layer.
// Citations maps "DOCUMENT_ID, Page N" keys to source-file URLs, with
// the literal "N/A" when no file link is available.
type ChatResponse struct {
	Answer           string            `json:"answer"`
	Citations        map[string]string `json:"citations"`
	Sources          []Source          `json:"sources"`
	TokensUsed       int               `json:"tokens_used"`
	PromptTokens     int               `json:"prompt_tokens"`
	CompletionTokens int               `json:"completion_tokens"`
	SessionID        string            `json:"session_id"`
	Timestamp        time.Time         `json:"timestamp"`
}

type ConversationHistory struct {
	SessionID   string    `json:"session_id"`
	Messages    []Message `json:"messages"`
	TotalTokens int       `json:"total_tokens"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Curator is a document-curation account with upload rights.
type Curator struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	PasswordHash string             `bson:"password_hash" json:"-"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	LastLoginAt  *time.Time         `bson:"last_login_at,omitempty" json:"last_login_at,omitempty"`
}

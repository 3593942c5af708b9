package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	genai "github.com/google/generative-ai-go/genai"
)

// qaSystemPrompt instructs the model to answer strictly from the
// provided context and cite every claim as (DOCUMENT_ID, Page N).
const qaSystemPrompt = `You are a meticulous document analyst. Your goal is to extract facts from archival records with 100%% accuracy.

### Instructions
1. DOCUMENT ANALYSIS: ALL questions about people, events, or information in the documents must ONLY use the provided context. NEVER use your training data or general knowledge for document-related questions.
2. GENERAL KNOWLEDGE: ONLY answer without the context for completely unrelated general knowledge questions.
3. DEFAULT ASSUMPTION: Unless the question is clearly asking for general knowledge, assume it is about the documents.
4. The context contains documents with Document ID and Page information clearly marked.
5. For every claim about the DOCUMENTS, include the EXACT QUOTE from the document followed by a citation in this format: (DOCUMENT_ID, Page X)
6. CRITICAL: Always include the specific quoted text before the citation when discussing documents.
7. If the context does not contain the answer to a document-related question, you MUST state: "I don't have information about that in the documents."
8. NEVER fabricate citations or use document IDs that are not in the provided context.
9. Attribution: Only attribute quotes to someone if named as the speaker OR subject. If unclear, use "according to the document" or "an unnamed person" - NEVER GUESS.

### Citation Format
CRITICAL: Each document must have its OWN citation. NEVER combine multiple documents.

Format: (DOCUMENT_ID, Page X) - Use the EXACT Document ID, NOT "Document 1" or numbers.

### Context
%s`

// contextualizePrompt turns a follow-up question into a standalone one.
const contextualizePrompt = `Reformulate the follow-up question as a standalone question using chat history context. If already standalone, return as-is. Don't answer it.`

// HistoryTurn is one prior question/answer exchange fed back into the model.
type HistoryTurn struct {
	Question string
	Answer   string
}

// GenerateResult carries the answer text and token accounting.
type GenerateResult struct {
	Text             string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type GeminiClient struct {
	apiKey       string
	model        string
	breaker      *gobreaker.CircuitBreaker
	rateLimiter  *rate.Limiter
	tokenCounter *TokenCounter
	client       *genai.Client
	tier         string
}

type TokenCounter struct {
	mu              sync.Mutex
	limits          RateLimits
	minuteTokens    int
	dailyTokens     int
	minuteRequests  int
	dailyRequests   int
	lastMinuteReset time.Time
	lastDayReset    time.Time
}

type RateLimits struct {
	RPM int // Requests per minute
	TPM int // Tokens per minute
	RPD int // Requests per day
}

func NewGeminiClient(apiKey, model, tier string) (*GeminiClient, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	limits := getRateLimits(tier)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "GeminiAPI",
		MaxRequests: 5,
		Interval:    10 * time.Second,
		Timeout:     60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Printf("Circuit breaker %s: %s -> %s", name, from, to)
		},
	})

	// RPM limit with some buffer
	rateLimiter := rate.NewLimiter(rate.Limit(float64(limits.RPM)*0.9/60.0), limits.RPM/10+1)

	return &GeminiClient{
		apiKey:       apiKey,
		model:        model,
		breaker:      breaker,
		rateLimiter:  rateLimiter,
		tokenCounter: &TokenCounter{limits: limits},
		client:       client,
		tier:         tier,
	}, nil
}

func getRateLimits(tier string) RateLimits {
	switch tier {
	case "free":
		return RateLimits{RPM: 10, TPM: 250000, RPD: 250}
	case "tier1":
		return RateLimits{RPM: 1000, TPM: 1000000, RPD: 10000}
	case "tier2":
		return RateLimits{RPM: 2000, TPM: 4000000, RPD: 50000}
	default:
		return RateLimits{RPM: 10, TPM: 250000, RPD: 250}
	}
}

// GenerateAnswer produces a cited answer for the question given the
// assembled document context and recent conversation history.
func (gc *GeminiClient) GenerateAnswer(ctx context.Context, question, docContext string, history []HistoryTurn) (*GenerateResult, error) {
	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.generate_answer")
	defer span.End()

	estimatedTokens := estimateTokens(question, docContext)
	span.SetAttributes(
		attribute.Int("gemini.estimated_tokens", estimatedTokens),
		attribute.Int("gemini.history_turns", len(history)),
		attribute.String("gemini.model", gc.model),
	)

	if !gc.tokenCounter.CanConsume(estimatedTokens, 1) {
		span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
		return nil, errors.New("rate limit exceeded: wait before retry")
	}

	if err := gc.rateLimiter.Wait(ctx); err != nil {
		span.SetAttributes(attribute.Bool("gemini.rate_limited", true))
		return nil, err
	}

	result, err := gc.breaker.Execute(func() (interface{}, error) {
		model := gc.client.GenerativeModel(gc.model)
		model.SetTemperature(0.2)
		model.SetMaxOutputTokens(2048)
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(fmt.Sprintf(qaSystemPrompt, docContext))},
		}

		cs := model.StartChat()
		cs.History = historyToContents(history)

		resp, err := cs.SendMessage(ctx, genai.Text(question))
		if err != nil {
			span.SetAttributes(attribute.Bool("gemini.error", true))
			return nil, err
		}

		gr := toGenerateResult(resp)
		gc.tokenCounter.RecordUsage(gr.TotalTokens, 1)

		span.SetAttributes(attribute.Int("gemini.actual_tokens", gr.TotalTokens))
		return gr, nil
	})

	if err != nil {
		if err == gobreaker.ErrOpenState {
			span.SetAttributes(attribute.Bool("gemini.circuit_breaker_open", true))
			return &GenerateResult{
				Text: "I'm experiencing high demand right now. Please try again in a moment.",
			}, nil
		}
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return nil, err
	}

	span.SetAttributes(attribute.Bool("gemini.success", true))
	return result.(*GenerateResult), nil
}

// ContextualizeQuestion rewrites a follow-up question as a standalone
// question using the conversation history. Questions without history
// are returned unchanged without an API call.
func (gc *GeminiClient) ContextualizeQuestion(ctx context.Context, question string, history []HistoryTurn) (string, *GenerateResult, error) {
	if len(history) == 0 {
		return question, &GenerateResult{}, nil
	}

	tracer := otel.Tracer("gemini-client")
	ctx, span := tracer.Start(ctx, "gemini.contextualize")
	defer span.End()

	if err := gc.rateLimiter.Wait(ctx); err != nil {
		return "", nil, err
	}

	result, err := gc.breaker.Execute(func() (interface{}, error) {
		model := gc.client.GenerativeModel(gc.model)
		model.SetTemperature(0.0)
		model.SetMaxOutputTokens(256)
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(contextualizePrompt)},
		}

		cs := model.StartChat()
		cs.History = historyToContents(history)

		resp, err := cs.SendMessage(ctx, genai.Text(question))
		if err != nil {
			return nil, err
		}

		gr := toGenerateResult(resp)
		gc.tokenCounter.RecordUsage(gr.TotalTokens, 1)
		return gr, nil
	})
	if err != nil {
		if err == gobreaker.ErrOpenState {
			// Degrade to the raw question rather than failing the turn.
			span.SetAttributes(attribute.Bool("gemini.circuit_breaker_open", true))
			return question, &GenerateResult{}, nil
		}
		return "", nil, err
	}

	gr := result.(*GenerateResult)
	standalone := gr.Text
	if standalone == "" {
		standalone = question
	}
	return standalone, gr, nil
}

func (tc *TokenCounter) CanConsume(tokens, requests int) bool {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	now := time.Now()

	// Reset counters if time windows expired
	if now.Sub(tc.lastMinuteReset) >= time.Minute {
		tc.minuteTokens = 0
		tc.minuteRequests = 0
		tc.lastMinuteReset = now
	}

	if now.Sub(tc.lastDayReset) >= 24*time.Hour {
		tc.dailyTokens = 0
		tc.dailyRequests = 0
		tc.lastDayReset = now
	}

	if tc.minuteRequests+requests > tc.limits.RPM {
		return false
	}
	if tc.minuteTokens+tokens > tc.limits.TPM {
		return false
	}
	if tc.dailyRequests+requests > tc.limits.RPD {
		return false
	}

	return true
}

func (tc *TokenCounter) RecordUsage(tokens, requests int) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	tc.minuteTokens += tokens
	tc.minuteRequests += requests
	tc.dailyTokens += tokens
	tc.dailyRequests += requests
}

// DailyUsage reports tokens and requests consumed in the current day window.
func (tc *TokenCounter) DailyUsage() (tokens, requests int) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.dailyTokens, tc.dailyRequests
}

// Usage returns the client's token counter for reporting.
func (gc *GeminiClient) Usage() *TokenCounter {
	return gc.tokenCounter
}

func historyToContents(history []HistoryTurn) []*genai.Content {
	contents := make([]*genai.Content, 0, len(history)*2)
	for _, turn := range history {
		contents = append(contents,
			&genai.Content{Role: "user", Parts: []genai.Part{genai.Text(turn.Question)}},
			&genai.Content{Role: "model", Parts: []genai.Part{genai.Text(turn.Answer)}},
		)
	}
	return contents
}

func toGenerateResult(resp *genai.GenerateContentResponse) *GenerateResult {
	gr := &GenerateResult{}

	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				if text, ok := part.(genai.Text); ok {
					gr.Text += string(text)
				}
			}
		}
		break
	}

	if resp.UsageMetadata != nil {
		gr.PromptTokens = int(resp.UsageMetadata.PromptTokenCount)
		gr.CompletionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
		gr.TotalTokens = int(resp.UsageMetadata.TotalTokenCount)
	} else {
		// Fallback: ~4 characters per token
		gr.CompletionTokens = len(gr.Text) / 4
		gr.TotalTokens = gr.CompletionTokens
	}

	return gr
}

// Rough estimation: 1 token ≈ 4 characters
func estimateTokens(question, docContext string) int {
	return (len(question) + len(docContext)) / 4
}

// Close the client
func (gc *GeminiClient) Close() error {
	if gc.client != nil {
		return gc.client.Close()
	}
	return nil
}

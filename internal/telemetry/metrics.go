package telemetry

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the application's instruments.
type Metrics struct {
	RequestCounter    metric.Int64Counter
	RequestDuration   metric.Float64Histogram
	TokensUsed        metric.Int64Counter
	IngestDuration    metric.Float64Histogram
	ChunksIndexed     metric.Int64Counter
	RetrievalHits     metric.Int64Counter
	CitationsResolved metric.Int64Counter
}

// InitMetrics registers all instruments on the global meter.
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter("document-rag-platform")

	requestCounter, err := meter.Int64Counter(
		"http.requests.total",
		metric.WithDescription("Total HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	requestDuration, err := meter.Float64Histogram(
		"http.request.duration",
		metric.WithDescription("HTTP request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	tokensUsed, err := meter.Int64Counter(
		"gemini.tokens.used",
		metric.WithDescription("Total Gemini tokens used"),
	)
	if err != nil {
		return nil, err
	}

	ingestDuration, err := meter.Float64Histogram(
		"ingest.document.duration",
		metric.WithDescription("Document ingestion duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	chunksIndexed, err := meter.Int64Counter(
		"ingest.chunks.indexed",
		metric.WithDescription("Chunks written to the vector index"),
	)
	if err != nil {
		return nil, err
	}

	retrievalHits, err := meter.Int64Counter(
		"retrieval.chunks.returned",
		metric.WithDescription("Chunks returned by retrieval"),
	)
	if err != nil {
		return nil, err
	}

	citationsResolved, err := meter.Int64Counter(
		"citations.resolved.total",
		metric.WithDescription("Citations parsed from answers"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		RequestCounter:    requestCounter,
		RequestDuration:   requestDuration,
		TokensUsed:        tokensUsed,
		IngestDuration:    ingestDuration,
		ChunksIndexed:     chunksIndexed,
		RetrievalHits:     retrievalHits,
		CitationsResolved: citationsResolved,
	}, nil
}

// RecordRequest records one HTTP request.
func (m *Metrics) RecordRequest(method, path, status string, duration float64) {
	attrs := []attribute.KeyValue{
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("http.status", status),
	}

	m.RequestCounter.Add(context.Background(), 1, metric.WithAttributes(attrs...))
	m.RequestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
}

// RecordTokensUsed records Gemini token consumption.
func (m *Metrics) RecordTokensUsed(tokens int64, model string) {
	m.TokensUsed.Add(context.Background(), tokens,
		metric.WithAttributes(attribute.String("gemini.model", model)))
}

// RecordIngest records one document ingestion.
func (m *Metrics) RecordIngest(docType, status string, duration float64, chunks int64) {
	attrs := []attribute.KeyValue{
		attribute.String("document.type", docType),
		attribute.String("ingest.status", status),
	}

	m.IngestDuration.Record(context.Background(), duration, metric.WithAttributes(attrs...))
	if chunks > 0 {
		m.ChunksIndexed.Add(context.Background(), chunks, metric.WithAttributes(attrs...))
	}
}

// RecordRetrieval records hits returned for one query.
func (m *Metrics) RecordRetrieval(hits int64, vectorSearch bool) {
	m.RetrievalHits.Add(context.Background(), hits,
		metric.WithAttributes(attribute.Bool("retrieval.vector", vectorSearch)))
}

// RecordCitations records citations parsed from one answer.
func (m *Metrics) RecordCitations(total, linked int64) {
	m.CitationsResolved.Add(context.Background(), total,
		metric.WithAttributes(attribute.Bool("citation.linked", false)))
	if linked > 0 {
		m.CitationsResolved.Add(context.Background(), linked,
			metric.WithAttributes(attribute.Bool("citation.linked", true)))
	}
}

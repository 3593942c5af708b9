package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"document-rag-platform/internal/config"
	"document-rag-platform/internal/logger"
)

// OCRClient talks to the external OCR sidecar used for scanned images
// and image-only PDFs.
type OCRClient struct {
	cfg        *config.Config
	httpClient *http.Client
	baseURL    string
}

// OCRResponse is the sidecar's extraction result.
type OCRResponse struct {
	Success        bool       `json:"success"`
	Text           string     `json:"text"`
	Chunks         []OCRChunk `json:"chunks"`
	Pages          int        `json:"pages"`
	ProcessingTime float64    `json:"processing_time"`
	QualityScore   float64    `json:"quality_score"`
	WordCount      int        `json:"word_count"`
	CharacterCount int        `json:"character_count"`
	Error          string     `json:"error,omitempty"`
}

// OCRChunk is one recognized text region.
type OCRChunk struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Page       int     `json:"page"`
}

type ocrHealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}

func NewOCRClient(cfg *config.Config) *OCRClient {
	timeout := time.Duration(cfg.OCRTimeout) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}
	return &OCRClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(cfg.OCRServiceURL, "/"),
	}
}

// IsHealthy reports whether the OCR sidecar is up with its model loaded.
func (c *OCRClient) IsHealthy(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false, fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("health check request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("OCR service unhealthy: status %d", resp.StatusCode)
	}

	var health ocrHealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return false, fmt.Errorf("failed to decode health response: %w", err)
	}
	return health.Status == "healthy" && health.ModelLoaded, nil
}

// ExtractPages runs OCR on the file at filePath and returns per-page
// text in the same shape the PDF extractor produces, so downstream
// chunking does not care where the text came from.
func (c *OCRClient) ExtractPages(ctx context.Context, filePath string) (*ExtractionResult, error) {
	if !c.cfg.OCRServiceEnabled {
		return nil, fmt.Errorf("OCR service is disabled")
	}

	healthy, err := c.IsHealthy(ctx)
	if err != nil {
		return nil, fmt.Errorf("OCR service health check failed: %w", err)
	}
	if !healthy {
		return nil, fmt.Errorf("OCR service is not ready")
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	start := time.Now()
	ocrResp, err := c.extract(ctx, data, filepath.Base(filePath))
	if err != nil {
		return nil, err
	}

	result := toExtractionResult(ocrResp)
	result.ProcessingTime = time.Since(start)
	logger.Debug("OCR extraction complete",
		"file", filePath, "pages", result.TotalPages, "quality", result.QualityScore)
	return result, nil
}

func (c *OCRClient) extract(ctx context.Context, data []byte, filename string) (*OCRResponse, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	fileWriter, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(fileWriter, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("failed to copy file data: %w", err)
	}
	writer.WriteField("confidence_threshold", fmt.Sprintf("%.2f", c.cfg.OCRConfidenceThreshold))
	writer.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr/extract", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create OCR request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OCR request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("OCR request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var ocrResp OCRResponse
	if err := json.NewDecoder(resp.Body).Decode(&ocrResp); err != nil {
		return nil, fmt.Errorf("failed to decode OCR response: %w", err)
	}
	if !ocrResp.Success {
		return nil, fmt.Errorf("OCR processing failed: %s", ocrResp.Error)
	}
	return &ocrResp, nil
}

// toExtractionResult regroups OCR regions into pages, dropping regions
// below the service's confidence floor is the sidecar's job.
func toExtractionResult(ocrResp *OCRResponse) *ExtractionResult {
	byPage := make(map[int][]string)
	maxPage := 1
	for _, ch := range ocrResp.Chunks {
		page := ch.Page
		if page < 1 {
			page = 1
		}
		if page > maxPage {
			maxPage = page
		}
		byPage[page] = append(byPage[page], ch.Text)
	}

	var pages []PageText
	if len(byPage) > 0 {
		for p := 1; p <= maxPage; p++ {
			texts, ok := byPage[p]
			if !ok {
				continue
			}
			pages = append(pages, PageText{Number: p, Text: strings.Join(texts, "\n")})
		}
	} else if strings.TrimSpace(ocrResp.Text) != "" {
		// Some sidecar versions only return the flat text.
		pages = []PageText{{Number: 1, Text: ocrResp.Text}}
	}

	total := ocrResp.Pages
	if total < len(pages) {
		total = len(pages)
	}

	return &ExtractionResult{
		Pages:          pages,
		TotalPages:     total,
		Method:         "ocr",
		QualityScore:   ocrResp.QualityScore,
		WordCount:      ocrResp.WordCount,
		CharacterCount: ocrResp.CharacterCount,
	}
}

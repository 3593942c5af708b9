package services

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"

	"document-rag-platform/internal/config"
	"document-rag-platform/internal/logger"
	"document-rag-platform/models"
)

// maxPDFBytes caps in-memory extraction.
const maxPDFBytes = 200 << 20

// PageText is the extracted text of one page. Page numbers are 1-based
// and must survive into chunks, the citation format depends on them.
type PageText struct {
	Number int
	Text   string
}

// ExtractionResult is the outcome of extracting one PDF.
type ExtractionResult struct {
	Pages          []PageText
	TotalPages     int
	Method         string
	QualityScore   float64
	ProcessingTime time.Duration
	WordCount      int
	CharacterCount int
}

// PDFExtractor extracts per-page text from PDFs, trying the native Go
// reader first and falling back to poppler's pdftotext when the result
// looks corrupted (common with scanned or oddly encoded PDFs).
type PDFExtractor struct {
	cfg *config.Config
}

func NewPDFExtractor(cfg *config.Config) *PDFExtractor {
	return &PDFExtractor{cfg: cfg}
}

// ExtractPages extracts text page by page from the PDF at filePath.
func (e *PDFExtractor) ExtractPages(ctx context.Context, filePath string) (*ExtractionResult, error) {
	start := time.Now()

	stat, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat PDF file: %w", err)
	}
	if stat.Size() > maxPDFBytes {
		return nil, fmt.Errorf("pdf too large for in-memory extraction: %d bytes", stat.Size())
	}

	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF file: %w", err)
	}

	methods := []struct {
		name    string
		extract func(context.Context, []byte) (*ExtractionResult, error)
	}{
		{models.ExtractionMethodGoPDF, e.extractWithGoPDF},
		{models.ExtractionMethodPoppler, e.extractWithPoppler},
	}

	var lastErr error
	var best *ExtractionResult

	for _, method := range methods {
		result, err := method.extract(ctx, content)
		if err != nil {
			logger.Debug("PDF extraction method failed", "method", method.name, "file", filePath, "error", err)
			lastErr = err
			continue
		}

		result.Method = method.name
		result.ProcessingTime = time.Since(start)
		result.QualityScore = evaluateTextQuality(joinPages(result.Pages))
		analyzePages(result)

		if result.QualityScore >= 0.7 {
			return result, nil
		}
		if best == nil || result.QualityScore > best.QualityScore {
			best = result
		}
	}

	if best != nil && best.QualityScore >= 0.3 {
		logger.Warn("Using degraded PDF extraction result",
			"file", filePath, "method", best.Method, "quality", best.QualityScore)
		return best, nil
	}

	return nil, fmt.Errorf("all extraction methods failed: %v", lastErr)
}

func (e *PDFExtractor) extractWithGoPDF(_ context.Context, content []byte) (*ExtractionResult, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF reader: %w", err)
	}

	total := reader.NumPage()
	pages := make([]PageText, 0, total)

	for i := 1; i <= total; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		fonts := make(map[string]*pdf.Font)
		text, err := page.GetPlainText(fonts)
		if err != nil {
			logger.Debug("Failed to extract PDF page", "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, PageText{Number: i, Text: text})
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no text extracted")
	}
	return &ExtractionResult{Pages: pages, TotalPages: total}, nil
}

// extractWithPoppler shells out to pdftotext. Form feed characters
// separate pages in its output, which keeps page numbers intact.
func (e *PDFExtractor) extractWithPoppler(ctx context.Context, content []byte) (*ExtractionResult, error) {
	if _, err := exec.LookPath("pdftotext"); err != nil {
		return nil, fmt.Errorf("pdftotext not available")
	}

	extractCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(extractCtx, "pdftotext", "-layout", "-", "-")
	cmd.Stdin = bytes.NewReader(content)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("pdftotext failed: %v, stderr: %s", err, stderr.String())
	}

	raw := strings.Split(stdout.String(), "\f")
	pages := make([]PageText, 0, len(raw))
	for i, text := range raw {
		if strings.TrimSpace(text) == "" {
			continue
		}
		pages = append(pages, PageText{Number: i + 1, Text: text})
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no text extracted")
	}
	return &ExtractionResult{Pages: pages, TotalPages: len(raw)}, nil
}

func joinPages(pages []PageText) string {
	texts := make([]string, len(pages))
	for i, p := range pages {
		texts[i] = p.Text
	}
	return strings.Join(texts, "\n")
}

func analyzePages(result *ExtractionResult) {
	for _, p := range result.Pages {
		result.WordCount += len(strings.Fields(p.Text))
		result.CharacterCount += len(p.Text)
	}
}

// evaluateTextQuality scores extracted text between 0 and 1. Low scores
// usually mean a scanned PDF or a broken font encoding.
func evaluateTextQuality(text string) float64 {
	text = strings.TrimSpace(text)
	if len(text) < 10 {
		return 0.1
	}

	var alphanumeric, printable, corrupted int
	for _, r := range text {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			alphanumeric++
			printable++
		case r == ' ' || r == '\n' || r == '\t':
			printable++
		case r == '�':
			corrupted++
		case r >= 32 && r <= 126:
			printable++
		case r > 127:
			// Accented letters and common punctuation are fine, control
			// bytes and stray glyphs are not.
			if strings.ContainsRune("—“”‘’…", r) || (r >= 0xC0 && r <= 0x17F) {
				printable++
			} else {
				corrupted++
			}
		}
	}

	total := len([]rune(text))
	score := float64(printable)/float64(total)*0.4 - float64(corrupted)/float64(total)*2.0

	if ratio := float64(alphanumeric) / float64(total); ratio >= 0.3 {
		score += 0.3
	} else {
		score += ratio
	}
	if len(text) > 100 {
		score += 0.1
	}
	if strings.Count(text, " the ")+strings.Count(text, " and ")+strings.Count(text, " of ") > 3 {
		score += 0.2
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

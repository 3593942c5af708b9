package services

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"document-rag-platform/models"
)

func TestDocumentIDFromFileName(t *testing.T) {
	tests := []struct {
		fileName string
		want     string
	}{
		{"doc-104-10004.pdf", "DOC-104-10004"},
		{"Warren Commission Hearing Vol 2.pdf", "WARREN_COMMISSION_HEARING_VOL_2"},
		{"memo (draft), v2.txt", "MEMO_DRAFT_V2"},
		{"report.1963.11.pdf", "REPORT_1963_11"},
	}

	idPattern := regexp.MustCompile(`^[A-Z0-9\-_]+$`)
	for _, tt := range tests {
		got := documentIDFromFileName(tt.fileName)
		if got != tt.want {
			t.Errorf("documentIDFromFileName(%q) = %q, want %q", tt.fileName, got, tt.want)
		}
		if !idPattern.MatchString(got) {
			t.Errorf("ID %q would not survive the citation format", got)
		}
	}
}

func TestExtractPlainText(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "doc.txt")
	content := "The committee met on Tuesday.\n\nThe session lasted two hours."
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := extractPlainText(path)
	if err != nil {
		t.Fatalf("extractPlainText failed: %v", err)
	}
	if result.TotalPages != 1 || len(result.Pages) != 1 {
		t.Errorf("text file should be one page, got %d", result.TotalPages)
	}
	if result.Pages[0].Text != content {
		t.Errorf("unexpected page text: %q", result.Pages[0].Text)
	}
	if result.Method != models.ExtractionMethodPlain {
		t.Errorf("unexpected method: %q", result.Method)
	}
	if result.WordCount != 10 {
		t.Errorf("expected 10 words, got %d", result.WordCount)
	}
}

func TestExtractPlainTextLatin1(t *testing.T) {
	dir := t.TempDir()

	// "résumé" encoded as ISO-8859-1, invalid as UTF-8.
	data := []byte{'r', 0xE9, 's', 'u', 'm', 0xE9, ' ', 'a', 't', 't', 'a', 'c', 'h', 'e', 'd'}
	path := filepath.Join(dir, "legacy.txt")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := extractPlainText(path)
	if err != nil {
		t.Fatalf("extractPlainText failed: %v", err)
	}
	if result.Pages[0].Text != "résumé attached" {
		t.Errorf("latin-1 decode failed: %q", result.Pages[0].Text)
	}
}

func TestExtractPlainTextEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.txt")
	if err := os.WriteFile(path, []byte("   \n\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := extractPlainText(path); err == nil {
		t.Error("expected error for blank file")
	}
}

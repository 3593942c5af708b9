package routes

import (
	"testing"

	"document-rag-platform/models"
)

func TestDocTypeFor(t *testing.T) {
	tests := []struct {
		filename    string
		contentType string
		want        string
	}{
		{"report.pdf", "", models.DocTypePDF},
		{"REPORT.PDF", "", models.DocTypePDF},
		{"notes.txt", "", models.DocTypeText},
		{"readme.md", "", models.DocTypeText},
		{"scan.tiff", "", models.DocTypeImage},
		{"upload.bin", "application/pdf", models.DocTypePDF},
		{"upload.bin", "text/plain", models.DocTypeText},
		{"upload.bin", "image/png", models.DocTypeImage},
		{"upload.bin", "application/zip", ""},
		{"noext", "", ""},
	}

	for _, tt := range tests {
		if got := docTypeFor(tt.filename, tt.contentType); got != tt.want {
			t.Errorf("docTypeFor(%q, %q) = %q, want %q", tt.filename, tt.contentType, got, tt.want)
		}
	}
}

func TestStorageKeyFor(t *testing.T) {
	if got := storageKeyFor(models.DocTypePDF, "dataset1", "report.pdf"); got != "organized/pdfs/dataset1_report.pdf" {
		t.Errorf("unexpected key: %q", got)
	}
	if got := storageKeyFor(models.DocTypeText, "", "notes.txt"); got != "organized/texts/notes.txt" {
		t.Errorf("unexpected key: %q", got)
	}
	if got := storageKeyFor(models.DocTypeImage, "batch2", "scan.png"); got != "organized/images/batch2_scan.png" {
		t.Errorf("unexpected key: %q", got)
	}

	// Path components in the filename must not escape the category dir.
	if got := storageKeyFor(models.DocTypePDF, "", "../../etc/passwd"); got != "organized/pdfs/passwd" {
		t.Errorf("traversal not stripped: %q", got)
	}
}

package services

import (
	"strings"
	"testing"
)

func TestBuildContextGroupsByPage(t *testing.T) {
	hits := []RetrievedChunk{
		{DocumentID: "DOC-1", PageNumber: 3, Text: "First passage.", SourceName: "State Archive", PublicationDate: "1963-11-22"},
		{DocumentID: "DOC-2", PageNumber: 1, Text: "Other document."},
		{DocumentID: "DOC-1", PageNumber: 3, Text: "Second passage from the same page."},
	}
	resolve := staticResolver(map[string]string{"DOC-1": "https://example.org/files/DOC-1"})

	out := BuildContext(hits, resolve)

	if !strings.Contains(out, "=== DOCUMENT 1 ===") || !strings.Contains(out, "=== DOCUMENT 2 ===") {
		t.Fatalf("expected two document blocks:\n%s", out)
	}
	if strings.Contains(out, "=== DOCUMENT 3 ===") {
		t.Errorf("same-page chunks should share one block:\n%s", out)
	}
	if !strings.Contains(out, "First passage.\n\n---\n\nSecond passage from the same page.") {
		t.Errorf("same-page texts not merged with separator:\n%s", out)
	}
	if !strings.Contains(out, "Source: State Archive\n") {
		t.Errorf("source header missing:\n%s", out)
	}
	if !strings.Contains(out, "Document ID: DOC-1\nPage: 3\n") {
		t.Errorf("identity headers missing:\n%s", out)
	}
	if !strings.Contains(out, "Date: 1963-11-22\n") {
		t.Errorf("date header missing:\n%s", out)
	}
	if !strings.Contains(out, "Link: https://example.org/files/DOC-1\n") {
		t.Errorf("link header missing:\n%s", out)
	}
	// Unlinked documents get the sentinel, never an empty header.
	if !strings.Contains(out, "Link: "+NoLink+"\n") {
		t.Errorf("unlinked document should show %q:\n%s", NoLink, out)
	}
}

func TestBuildContextPreservesHitOrder(t *testing.T) {
	hits := []RetrievedChunk{
		{DocumentID: "DOC-9", PageNumber: 5, Text: "Best match."},
		{DocumentID: "DOC-1", PageNumber: 1, Text: "Second best."},
	}
	out := BuildContext(hits, staticResolver(nil))

	first := strings.Index(out, "Document ID: DOC-9")
	second := strings.Index(out, "Document ID: DOC-1")
	if first < 0 || second < 0 || first > second {
		t.Errorf("blocks not in retrieval order:\n%s", out)
	}
}

func TestBuildContextEmpty(t *testing.T) {
	out := BuildContext(nil, staticResolver(nil))
	if out != "No relevant documents were found for this question." {
		t.Errorf("unexpected empty-context message: %q", out)
	}
}

package services

import (
	"strings"
	"testing"
)

func TestChunkTextRespectsSize(t *testing.T) {
	c := NewChunker(100, 20)

	var b strings.Builder
	for i := 0; i < 40; i++ {
		b.WriteString("The quick brown fox jumps over the lazy dog. ")
	}

	chunks := c.ChunkText(b.String())
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	for i, ch := range chunks {
		if len(ch) > 100 {
			t.Errorf("chunk %d exceeds size limit: %d chars", i, len(ch))
		}
		if strings.TrimSpace(ch) == "" {
			t.Errorf("chunk %d is blank", i)
		}
	}
}

func TestChunkTextShortInput(t *testing.T) {
	c := NewChunker(1024, 200)

	chunks := c.ChunkText("A short paragraph.")
	if len(chunks) != 1 {
		t.Fatalf("expected one chunk, got %d", len(chunks))
	}
	if chunks[0] != "A short paragraph." {
		t.Errorf("unexpected chunk content: %q", chunks[0])
	}

	if got := c.ChunkText("   \n\n  "); got != nil {
		t.Errorf("expected nil for whitespace input, got %v", got)
	}
}

func TestChunkTextPrefersParagraphBreaks(t *testing.T) {
	c := NewChunker(60, 0)

	text := "First paragraph with some words here.\n\nSecond paragraph with more words."
	chunks := c.ChunkText(text)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d: %v", len(chunks), chunks)
	}
	if strings.Contains(chunks[0], "Second") {
		t.Errorf("paragraphs were not split apart: %q", chunks[0])
	}
}

func TestChunkTextOverlap(t *testing.T) {
	c := NewChunker(80, 30)

	text := strings.Repeat("alpha beta gamma delta epsilon. ", 12)
	chunks := c.ChunkText(text)
	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(chunks))
	}
	// Consecutive chunks share text from the overlap seed.
	tail := chunks[0][len(chunks[0])-10:]
	if !strings.Contains(chunks[1], strings.TrimSpace(tail)) {
		t.Errorf("chunk 1 does not overlap chunk 0: tail=%q chunk=%q", tail, chunks[1])
	}
}

func TestChunkPageSinglePageStoredWhole(t *testing.T) {
	c := NewChunker(1024, 200)

	text := strings.Repeat("A short scanned letter. ", 60) // ~1440 chars, under 2x
	pieces := c.ChunkPage(text, 1, 1)
	if len(pieces) != 1 {
		t.Fatalf("expected single-page document stored whole, got %d pieces", len(pieces))
	}
	if pieces[0].PageNumber != 1 || pieces[0].TotalChunks != 1 {
		t.Errorf("unexpected piece metadata: %+v", pieces[0])
	}
}

func TestChunkPageMultiPage(t *testing.T) {
	c := NewChunker(100, 20)

	text := strings.Repeat("Testimony continues across several lines of the record. ", 10)
	pieces := c.ChunkPage(text, 3, 12)
	if len(pieces) < 2 {
		t.Fatalf("expected multiple pieces, got %d", len(pieces))
	}
	for i, p := range pieces {
		if p.PageNumber != 3 {
			t.Errorf("piece %d has wrong page: %d", i, p.PageNumber)
		}
		if p.ChunkIndex != i {
			t.Errorf("piece %d has wrong index: %d", i, p.ChunkIndex)
		}
		if p.TotalChunks != len(pieces) {
			t.Errorf("piece %d has wrong total: %d", i, p.TotalChunks)
		}
	}
}

func TestExtractEntities(t *testing.T) {
	text := "According to John Smith, the New York Office closed. John Smith left town."
	entities := ExtractEntities(text)

	want := map[string]bool{"john smith": false, "new york office": false}
	for _, e := range entities {
		if _, ok := want[e]; ok {
			want[e] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("entity %q not extracted, got %v", name, entities)
		}
	}

	// Duplicates collapse to one entry.
	count := 0
	for _, e := range entities {
		if e == "john smith" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected john smith once, got %d times", count)
	}

	if got := ExtractEntities("no proper nouns here at all"); got != nil {
		t.Errorf("expected nil for lowercase text, got %v", got)
	}
}

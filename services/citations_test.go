package services

import (
	"strings"
	"testing"
)

func staticResolver(links map[string]string) LinkResolver {
	return func(documentID string) string {
		return links[documentID]
	}
}

func TestParseCitations(t *testing.T) {
	answer := "The meeting took place in June (DOC-104-10004, Page 3). " +
		"Witnesses confirmed the account (DOC-104-10004, Page 3) and a second " +
		"report corroborated it (MEMO_1963_11, Page 12)."

	citations := ParseCitations(answer)
	if len(citations) != 2 {
		t.Fatalf("expected 2 citations, got %d: %v", len(citations), citations)
	}
	if citations[0].DocumentID != "DOC-104-10004" || citations[0].Page != "3" {
		t.Errorf("unexpected first citation: %+v", citations[0])
	}
	if citations[1].DocumentID != "MEMO_1963_11" || citations[1].Page != "12" {
		t.Errorf("unexpected second citation: %+v", citations[1])
	}
}

func TestParseCitationsPageRange(t *testing.T) {
	citations := ParseCitations("See the transcript (HEARING_52, Page 3-4).")
	if len(citations) != 1 {
		t.Fatalf("expected 1 citation, got %d", len(citations))
	}
	if citations[0].Page != "3-4" {
		t.Errorf("page range not captured: %q", citations[0].Page)
	}
}

func TestParseCitationsNone(t *testing.T) {
	if got := ParseCitations("No citations in this answer at all."); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestBuildCitationMap(t *testing.T) {
	citations := []Citation{
		{DocumentID: "DOC-1", Page: "2"},
		{DocumentID: "DOC-2", Page: "5"},
	}
	resolve := staticResolver(map[string]string{"DOC-1": "https://example.org/files/DOC-1"})

	cm := BuildCitationMap(citations, resolve)
	if got := cm["DOC-1, Page 2"]; got != "https://example.org/files/DOC-1" {
		t.Errorf("unexpected link for DOC-1: %q", got)
	}
	if got := cm["DOC-2, Page 5"]; got != NoLink {
		t.Errorf("unlinked citation should map to %q, got %q", NoLink, got)
	}
}

func TestAppendSources(t *testing.T) {
	answer := "The agent arrived on Tuesday (DOC-1, Page 2)."
	citations := ParseCitations(answer)
	resolve := staticResolver(map[string]string{"DOC-1": "https://example.org/files/DOC-1"})

	out := AppendSources(answer, citations, resolve)
	if !strings.Contains(out, "**Sources:**") {
		t.Fatalf("sources section missing:\n%s", out)
	}
	if !strings.Contains(out, "1. [DOC-1, Page 2](https://example.org/files/DOC-1)") {
		t.Errorf("linked source entry missing:\n%s", out)
	}

	// Unlinked citations are listed without markdown link syntax.
	out = AppendSources(answer, citations, staticResolver(nil))
	if !strings.Contains(out, "1. DOC-1, Page 2\n") {
		t.Errorf("plain source entry missing:\n%s", out)
	}

	if got := AppendSources("Nothing cited.", nil, resolve); got != "Nothing cited." {
		t.Errorf("answer without citations should be unchanged, got %q", got)
	}
}

func TestRewriteAnswerLinks(t *testing.T) {
	answer := "Confirmed in the memo (DOC-1, Page 2) and the cable (DOC-2, Page 7)."
	cm := map[string]string{
		"DOC-1, Page 2": "https://example.org/files/DOC-1",
		"DOC-2, Page 7": NoLink,
	}

	out := RewriteAnswerLinks(answer, cm)
	if !strings.Contains(out, "([DOC-1, Page 2](https://example.org/files/DOC-1))") {
		t.Errorf("linked marker not rewritten:\n%s", out)
	}
	if !strings.Contains(out, "(DOC-2, Page 7)") || strings.Contains(out, "[DOC-2") {
		t.Errorf("unlinked marker should stay plain:\n%s", out)
	}
}

func TestBuildSources(t *testing.T) {
	citations := []Citation{{DocumentID: "DOC-1", Page: "2"}}
	hits := []RetrievedChunk{
		{DocumentID: "DOC-1", PageNumber: 1, Text: "Wrong page text.", SourceName: "National Archives"},
		{DocumentID: "DOC-1", PageNumber: 2, Text: "The agent arrived on Tuesday morning.", SourceName: "National Archives"},
	}
	resolve := staticResolver(map[string]string{"DOC-1": "https://example.org/files/DOC-1"})

	sources := BuildSources(citations, hits, resolve)
	if len(sources) != 1 {
		t.Fatalf("expected 1 source, got %d", len(sources))
	}
	s := sources[0]
	if s.DocumentID != "DOC-1" || s.PageNumber != "2" {
		t.Errorf("unexpected source identity: %+v", s)
	}
	if s.Quote != "The agent arrived on Tuesday morning." {
		t.Errorf("quote should come from the cited page, got %q", s.Quote)
	}
	if s.SourceName != "National Archives" {
		t.Errorf("source name not carried over: %q", s.SourceName)
	}
	if s.URL != "https://example.org/files/DOC-1" {
		t.Errorf("unexpected URL: %q", s.URL)
	}
}

func TestSnippetTruncation(t *testing.T) {
	long := strings.Repeat("word ", 100)
	got := snippet(long, 50)
	if len(got) > 54 {
		t.Errorf("snippet too long: %d chars", len(got))
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("truncated snippet should end with ellipsis: %q", got)
	}
	if got := snippet("short", 50); got != "short" {
		t.Errorf("short text should pass through, got %q", got)
	}
}

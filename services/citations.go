package services

import (
	"fmt"
	"regexp"
	"strings"

	"document-rag-platform/models"
)

// NoLink marks a citation with no resolvable public URL.
const NoLink = "N/A"

// citationPattern matches inline citations the model is instructed to
// emit: (DOCUMENT_ID, Page N). Page is captured loosely because the
// model occasionally writes ranges like "3-4" or "unknown".
var citationPattern = regexp.MustCompile(`\(([A-Z0-9\-_]+),\s*Page\s+([^)]+)\)`)

// Citation is one (document, page) reference parsed from an answer.
type Citation struct {
	DocumentID string
	Page       string
}

// Key returns the canonical map key for a citation: "DOC_ID, Page N".
func (c Citation) Key() string {
	return fmt.Sprintf("%s, Page %s", c.DocumentID, c.Page)
}

// Marker returns the inline form as it appears in the answer text.
func (c Citation) Marker() string {
	return fmt.Sprintf("(%s, Page %s)", c.DocumentID, c.Page)
}

// LinkResolver maps a document ID to a retrievable URL, or "" when the
// document has no public link.
type LinkResolver func(documentID string) string

// ParseCitations extracts the citations from an answer, deduplicated
// and in order of first appearance.
func ParseCitations(answer string) []Citation {
	matches := citationPattern.FindAllStringSubmatch(answer, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	citations := make([]Citation, 0, len(matches))
	for _, m := range matches {
		c := Citation{
			DocumentID: strings.TrimSpace(m[1]),
			Page:       strings.TrimSpace(m[2]),
		}
		if _, ok := seen[c.Key()]; ok {
			continue
		}
		seen[c.Key()] = struct{}{}
		citations = append(citations, c)
	}
	return citations
}

// BuildCitationMap resolves each citation to a URL. Citations whose
// document has no link map to the NoLink sentinel rather than being
// dropped, so the client can still render the reference.
func BuildCitationMap(citations []Citation, resolve LinkResolver) map[string]string {
	cm := make(map[string]string, len(citations))
	for _, c := range citations {
		url := resolve(c.DocumentID)
		if url == "" {
			url = NoLink
		}
		cm[c.Key()] = url
	}
	return cm
}

// AppendSources adds a numbered **Sources:** section to the answer,
// one entry per distinct citation, hyperlinked where a URL exists.
// Answers with no citations are returned unchanged.
func AppendSources(answer string, citations []Citation, resolve LinkResolver) string {
	if len(citations) == 0 {
		return answer
	}

	var b strings.Builder
	b.WriteString(strings.TrimRight(answer, "\n"))
	b.WriteString("\n\n**Sources:**\n")
	for i, c := range citations {
		url := resolve(c.DocumentID)
		if url == "" {
			fmt.Fprintf(&b, "%d. %s\n", i+1, c.Key())
		} else {
			fmt.Fprintf(&b, "%d. [%s](%s)\n", i+1, c.Key(), url)
		}
	}
	return b.String()
}

// RewriteAnswerLinks turns the plain inline markers into markdown
// hyperlinks for citations that resolved to a URL. Markers without a
// link stay as plain text.
func RewriteAnswerLinks(answer string, citationMap map[string]string) string {
	return citationPattern.ReplaceAllStringFunc(answer, func(marker string) string {
		m := citationPattern.FindStringSubmatch(marker)
		c := Citation{DocumentID: strings.TrimSpace(m[1]), Page: strings.TrimSpace(m[2])}
		url, ok := citationMap[c.Key()]
		if !ok || url == NoLink {
			return marker
		}
		return fmt.Sprintf("([%s](%s))", c.Key(), url)
	})
}

// BuildSources assembles the structured source list for the response.
// Each citation is paired with the retrieved chunk it most likely came
// from so the client can show a supporting quote.
func BuildSources(citations []Citation, hits []RetrievedChunk, resolve LinkResolver) []models.Source {
	sources := make([]models.Source, 0, len(citations))
	for _, c := range citations {
		src := models.Source{
			DocumentID: c.DocumentID,
			PageNumber: c.Page,
			URL:        resolve(c.DocumentID),
		}
		for _, h := range hits {
			if h.DocumentID != c.DocumentID {
				continue
			}
			if src.SourceName == "" {
				src.SourceName = h.SourceName
			}
			if fmt.Sprintf("%d", h.PageNumber) == c.Page {
				src.Quote = snippet(h.Text, 200)
				break
			}
			if src.Quote == "" {
				src.Quote = snippet(h.Text, 200)
			}
		}
		sources = append(sources, src)
	}
	return sources
}

func snippet(text string, max int) string {
	text = strings.TrimSpace(text)
	if len(text) <= max {
		return text
	}
	cut := text[:max]
	if idx := strings.LastIndexByte(cut, ' '); idx > max/2 {
		cut = cut[:idx]
	}
	return cut + "..."
}

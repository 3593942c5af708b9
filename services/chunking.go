package services

import (
	"regexp"
	"strings"
)

// Chunker splits extracted document text into overlapping chunks sized
// for embedding. Splitting prefers paragraph breaks, then line breaks,
// then sentence boundaries, then spaces, and only hard-cuts when a
// segment has no separators at all.
type Chunker struct {
	chunkSize  int
	overlap    int
	separators []string
}

// ChunkPiece is one chunk of a page plus the metadata recorded with it.
type ChunkPiece struct {
	Text        string
	PageNumber  int
	ChunkIndex  int
	TotalChunks int
	Entities    []string
}

func NewChunker(chunkSize, overlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 1024
	}
	if overlap < 0 || overlap >= chunkSize {
		overlap = 200
	}
	return &Chunker{
		chunkSize:  chunkSize,
		overlap:    overlap,
		separators: []string{"\n\n", "\n", ". ", " "},
	}
}

// ChunkText splits free text into chunks.
func (c *Chunker) ChunkText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	return c.splitRecursive(text, c.separators)
}

// ChunkPage chunks one page of a document. Single-page documents that
// fit within twice the chunk size are stored whole to preserve context
// and avoid pointless overlap (scanned images, short text files).
func (c *Chunker) ChunkPage(pageText string, pageNumber, totalPages int) []ChunkPiece {
	pageText = strings.TrimSpace(pageText)
	if pageText == "" {
		return nil
	}

	if totalPages == 1 && len(pageText) <= c.chunkSize*2 {
		return []ChunkPiece{{
			Text:        pageText,
			PageNumber:  pageNumber,
			ChunkIndex:  0,
			TotalChunks: 1,
			Entities:    ExtractEntities(pageText),
		}}
	}

	texts := c.ChunkText(pageText)
	pieces := make([]ChunkPiece, len(texts))
	for i, t := range texts {
		pieces[i] = ChunkPiece{
			Text:        t,
			PageNumber:  pageNumber,
			ChunkIndex:  i,
			TotalChunks: len(texts),
			Entities:    ExtractEntities(t),
		}
	}
	return pieces
}

func (c *Chunker) splitRecursive(text string, seps []string) []string {
	if len(text) <= c.chunkSize {
		if s := strings.TrimSpace(text); s != "" {
			return []string{s}
		}
		return nil
	}

	if len(seps) == 0 {
		return c.hardSplit(text)
	}

	sep := seps[0]
	if !strings.Contains(text, sep) {
		return c.splitRecursive(text, seps[1:])
	}

	segments := strings.Split(text, sep)
	var chunks []string
	var current strings.Builder

	// appended tracks whether current holds real content beyond the
	// overlap seed carried over from the previous chunk.
	appended := false

	flush := func() {
		s := strings.TrimSpace(current.String())
		current.Reset()
		appended = false
		if s != "" {
			chunks = append(chunks, s)
			if c.overlap > 0 {
				current.WriteString(overlapTail(s, c.overlap))
			}
		}
	}

	for _, seg := range segments {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}

		// A segment that alone exceeds the limit gets split with the
		// finer separators.
		if len(seg) > c.chunkSize {
			if appended {
				flush()
			}
			current.Reset()
			appended = false
			chunks = append(chunks, c.splitRecursive(seg, seps[1:])...)
			continue
		}

		if current.Len() > 0 && current.Len()+len(sep)+len(seg) > c.chunkSize {
			if appended {
				flush()
			}
			// Still too big with just the seed: drop the seed.
			if current.Len() > 0 && current.Len()+len(sep)+len(seg) > c.chunkSize {
				current.Reset()
			}
		}

		if current.Len() > 0 {
			current.WriteString(sep)
		}
		current.WriteString(seg)
		appended = true
	}

	if appended {
		if s := strings.TrimSpace(current.String()); s != "" {
			chunks = append(chunks, s)
		}
	}

	return chunks
}

// hardSplit cuts text with no separators at fixed offsets with overlap.
func (c *Chunker) hardSplit(text string) []string {
	var chunks []string
	step := c.chunkSize - c.overlap
	if step <= 0 {
		step = c.chunkSize
	}
	for i := 0; i < len(text); i += step {
		end := i + c.chunkSize
		if end > len(text) {
			end = len(text)
		}
		chunks = append(chunks, text[i:end])
		if end == len(text) {
			break
		}
	}
	return chunks
}

// overlapTail returns the last overlapSize characters of text, trimmed
// forward to the next word boundary so chunks never start mid-word.
func overlapTail(text string, overlapSize int) string {
	if len(text) <= overlapSize {
		return text
	}
	tail := text[len(text)-overlapSize:]
	if idx := strings.IndexByte(tail, ' '); idx >= 0 && idx+1 < len(tail) {
		tail = tail[idx+1:]
	}
	return tail
}

var entityPattern = regexp.MustCompile(`\b[A-Z][a-zA-Z]+(?:[ \t][A-Z][a-zA-Z'.-]+)+\b`)

// ExtractEntities pulls likely named entities (people, organizations,
// places) from text: capitalized multi-word runs, lowercased for
// filter matching. A heuristic stand-in for a full NER pass.
func ExtractEntities(text string) []string {
	matches := entityPattern.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(matches))
	entities := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.ToLower(strings.TrimSpace(m))
		if len(m) <= 2 {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		entities = append(entities, m)
	}
	return entities
}

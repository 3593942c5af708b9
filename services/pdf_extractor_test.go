package services

import (
	"strings"
	"testing"
)

func TestEvaluateTextQuality(t *testing.T) {
	clean := strings.Repeat("The committee reviewed the report and the findings of the panel. ", 5)
	if score := evaluateTextQuality(clean); score < 0.7 {
		t.Errorf("clean English text scored too low: %f", score)
	}

	corrupted := strings.Repeat("��x� ", 50)
	if score := evaluateTextQuality(corrupted); score >= 0.3 {
		t.Errorf("corrupted text scored too high: %f", score)
	}

	if score := evaluateTextQuality("abc"); score != 0.1 {
		t.Errorf("near-empty text should score 0.1, got %f", score)
	}

	// Accented characters are not corruption.
	accented := strings.Repeat("Le rapport de la commission résume les témoignages et les conclusions. ", 5)
	if score := evaluateTextQuality(accented); score < 0.5 {
		t.Errorf("accented text scored too low: %f", score)
	}
}

func TestJoinPagesAndAnalyze(t *testing.T) {
	result := &ExtractionResult{
		Pages: []PageText{
			{Number: 1, Text: "one two three"},
			{Number: 2, Text: "four five"},
		},
		TotalPages: 2,
	}

	if got := joinPages(result.Pages); got != "one two three\nfour five" {
		t.Errorf("unexpected joined text: %q", got)
	}

	analyzePages(result)
	if result.WordCount != 5 {
		t.Errorf("expected 5 words, got %d", result.WordCount)
	}
	if result.CharacterCount != len("one two three")+len("four five") {
		t.Errorf("unexpected character count: %d", result.CharacterCount)
	}
}

package utils

import "testing"

func TestExtractDateFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"report_1963-11-22_final.pdf", "1963-11-22"},
		{"memo_1963_11_22.txt", "1963-11-22"},
		{"scan_19631122.pdf", "1963-11-22"},
		{"hearing_transcript_1964.pdf", "1964"},
		{"notes_2023.txt", "2023"},
		{"undated_document.pdf", ""},
		{"", ""},
		// Archive serial numbers are not dates.
		{"DOJ-OGR-00024825.pdf", ""},
		{"file_2023-45-99.pdf", "2023"},
		{"00024825_19631122.pdf", "1963-11-22"},
	}

	for _, tt := range tests {
		if got := ExtractDateFromFilename(tt.filename); got != tt.want {
			t.Errorf("ExtractDateFromFilename(%q) = %q, want %q", tt.filename, got, tt.want)
		}
	}
}

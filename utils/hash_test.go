package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestChunkIDDeterministic(t *testing.T) {
	a := ChunkID("organized/pdfs/dataset1_memo.pdf", 3, "chunk text")
	b := ChunkID("organized/pdfs/dataset1_memo.pdf", 3, "chunk text")
	if a != b {
		t.Errorf("same inputs produced different IDs: %s vs %s", a, b)
	}
	if len(a) != 32 {
		t.Errorf("expected 32-char hex ID, got %d chars: %s", len(a), a)
	}

	if ChunkID("organized/pdfs/dataset1_memo.pdf", 4, "chunk text") == a {
		t.Error("different page should change the ID")
	}
	if ChunkID("organized/pdfs/dataset1_memo.pdf", 3, "other text") == a {
		t.Error("different text should change the ID")
	}
	if ChunkID("organized/pdfs/other.pdf", 3, "chunk text") == a {
		t.Error("different storage key should change the ID")
	}
}

func TestFileHash(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	if err := os.WriteFile(path, []byte("file contents"), 0o644); err != nil {
		t.Fatal(err)
	}

	h1, err := FileHash(path)
	if err != nil {
		t.Fatalf("FileHash failed: %v", err)
	}
	if len(h1) != 64 {
		t.Errorf("expected 64-char sha256 hex, got %d chars", len(h1))
	}

	h2, err := FileHash(path)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Error("hash not deterministic")
	}

	if h1 != HashBytes([]byte("file contents")) {
		t.Error("FileHash and HashBytes disagree on identical content")
	}

	if _, err := FileHash(filepath.Join(dir, "missing.txt")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple", 4)
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !CheckPassword("correct horse battery staple", hash) {
		t.Error("correct password rejected")
	}
	if CheckPassword("wrong password", hash) {
		t.Error("wrong password accepted")
	}
}

func TestExtractTokenFromHeader(t *testing.T) {
	if got := ExtractTokenFromHeader("Bearer abc.def.ghi"); got != "abc.def.ghi" {
		t.Errorf("unexpected token: %q", got)
	}
	if got := ExtractTokenFromHeader("bearer abc"); got != "abc" {
		t.Errorf("scheme should be case-insensitive, got %q", got)
	}
	if got := ExtractTokenFromHeader("Basic dXNlcjpwYXNz"); got != "" {
		t.Errorf("non-bearer header should yield empty, got %q", got)
	}
	if got := ExtractTokenFromHeader(""); got != "" {
		t.Errorf("empty header should yield empty, got %q", got)
	}
}

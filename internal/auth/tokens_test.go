package auth

import (
	"strings"
	"testing"
	"time"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestAccessTokenRoundTrip(t *testing.T) {
	token, exp, err := IssueAccessToken(testSecret, "curator-1", "alice", time.Hour)
	if err != nil {
		t.Fatalf("IssueAccessToken failed: %v", err)
	}
	if time.Until(exp) < 59*time.Minute {
		t.Errorf("expiry too soon: %v", exp)
	}

	claims, err := ValidateAccessToken(testSecret, token)
	if err != nil {
		t.Fatalf("ValidateAccessToken failed: %v", err)
	}
	if claims.CuratorID != "curator-1" || claims.Username != "alice" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestAccessTokenShortSecret(t *testing.T) {
	if _, _, err := IssueAccessToken([]byte("short"), "curator-1", "alice", time.Hour); err == nil {
		t.Error("expected error for short secret")
	}
}

func TestAccessTokenWrongSecret(t *testing.T) {
	token, _, err := IssueAccessToken(testSecret, "curator-1", "alice", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	other := []byte(strings.Repeat("x", 32))
	if _, err := ValidateAccessToken(other, token); err == nil {
		t.Error("expected validation failure with wrong secret")
	}
}

func TestAccessTokenExpired(t *testing.T) {
	token, _, err := IssueAccessToken(testSecret, "curator-1", "alice", -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ValidateAccessToken(testSecret, token); err == nil {
		t.Error("expected validation failure for expired token")
	}
}

func TestFileLinkRoundTrip(t *testing.T) {
	token, err := SignFileLink(testSecret, "DOC-104-10004", "organized/pdfs/dataset1_memo.pdf", time.Hour)
	if err != nil {
		t.Fatalf("SignFileLink failed: %v", err)
	}

	claims, err := ValidateFileLink(testSecret, token)
	if err != nil {
		t.Fatalf("ValidateFileLink failed: %v", err)
	}
	if claims.DocumentID != "DOC-104-10004" {
		t.Errorf("unexpected document ID: %q", claims.DocumentID)
	}
	if claims.StorageKey != "organized/pdfs/dataset1_memo.pdf" {
		t.Errorf("unexpected storage key: %q", claims.StorageKey)
	}
}

func TestFileLinkNotValidAsAccessToken(t *testing.T) {
	// A file-link token must not grant curator access: it carries no
	// curator claims.
	token, err := SignFileLink(testSecret, "DOC-1", "organized/pdfs/a.pdf", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := ValidateAccessToken(testSecret, token)
	if err == nil && claims.CuratorID != "" {
		t.Errorf("file-link token produced curator claims: %+v", claims)
	}
}

func TestFileLinkTampered(t *testing.T) {
	token, err := SignFileLink(testSecret, "DOC-1", "organized/pdfs/a.pdf", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		t.Fatalf("unexpected token shape: %d parts", len(parts))
	}
	tampered := parts[0] + "." + parts[1] + "." + "AAAA" + parts[2][4:]
	if _, err := ValidateFileLink(testSecret, tampered); err == nil {
		t.Error("expected validation failure for tampered signature")
	}
}

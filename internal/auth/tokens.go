package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims carried by a curator access token.
type Claims struct {
	CuratorID string `json:"curator_id"`
	Username  string `json:"username"`
	jwt.RegisteredClaims
}

// FileClaims grant time-limited access to one stored source file.
// These tokens stand in for the presigned object-store URLs the
// citation map points at.
type FileClaims struct {
	DocumentID string `json:"document_id"`
	StorageKey string `json:"storage_key"`
	jwt.RegisteredClaims
}

const issuer = "document-rag-platform"

// IssueAccessToken signs a curator access token.
func IssueAccessToken(secret []byte, curatorID, username string, ttl time.Duration) (string, time.Time, error) {
	if len(secret) < 32 {
		return "", time.Time{}, fmt.Errorf("JWT_SECRET must be at least 32 characters")
	}

	now := time.Now()
	exp := now.Add(ttl)
	claims := Claims{
		CuratorID: curatorID,
		Username:  username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   curatorID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// ValidateAccessToken parses and verifies a curator access token.
func ValidateAccessToken(secret []byte, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// SignFileLink issues a short-lived token authorizing one file download.
func SignFileLink(secret []byte, documentID, storageKey string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := FileClaims{
		DocumentID: documentID,
		StorageKey: storageKey,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   documentID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateFileLink verifies a file-link token and returns its claims.
func ValidateFileLink(secret []byte, tokenString string) (*FileClaims, error) {
	claims := &FileClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

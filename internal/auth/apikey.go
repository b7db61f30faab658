// Package auth issues and validates the tokens the command layer presents to the ledger API.
package auth

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidAPIKey = errors.New("invalid api key")
	ErrWeakAPIKey    = errors.New("api key must be at least 16 characters")
)

// MinAPIKeyLength is the shortest API key HashAPIKey accepts.
const MinAPIKeyLength = 16

// APIKeyVerifier checks API keys against a bcrypt hash.
// Only the hash is configured on the server; the key itself stays with the command layer.
type APIKeyVerifier struct {
	hash []byte
}

// NewAPIKeyVerifier creates a verifier for the given bcrypt hash.
func NewAPIKeyVerifier(hash string) (*APIKeyVerifier, error) {
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, fmt.Errorf("invalid api key hash: %w", err)
	}
	return &APIKeyVerifier{hash: []byte(hash)}, nil
}

// Verify returns ErrInvalidAPIKey unless key matches the hash.
func (v *APIKeyVerifier) Verify(key string) error {
	if key == "" {
		return ErrInvalidAPIKey
	}
	if err := bcrypt.CompareHashAndPassword(v.hash, []byte(key)); err != nil {
		return ErrInvalidAPIKey
	}
	return nil
}

// HashAPIKey returns the bcrypt hash to configure for key.
func HashAPIKey(key string) (string, error) {
	if len(key) < MinAPIKeyLength {
		return "", ErrWeakAPIKey
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash api key: %w", err)
	}
	return string(hash), nil
}

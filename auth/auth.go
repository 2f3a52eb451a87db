// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package auth

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/danielhkuo/quickly-vote/models"
)

var (
	ErrInvalidToken     = errors.New("invalid token format")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrInvalidIdentity  = errors.New("invalid identity")
)

// GenerateID creates a random hex ID of the specified byte length
func GenerateID(byteLen int) (string, error) {
	b := make([]byte, byteLen)
	_, err := rand.Read(b)
	if err != nil {
		return "", fmt.Errorf("failed to generate random ID: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// SignIdentity produces the token the authentication provider hands to a
// caller: base64(payload) "." base64(HMAC-SHA256(payload)).
func SignIdentity(id models.Identity, secret string) (string, error) {
	if err := validateIdentity(id); err != nil {
		return "", err
	}
	payload, err := json.Marshal(id)
	if err != nil {
		return "", fmt.Errorf("failed to encode identity: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(payload)
	return encoded + "." + sign(encoded, secret), nil
}

// ParseIdentity verifies a token from SignIdentity and returns the identity
// it vouches for.
func ParseIdentity(token, secret string) (models.Identity, error) {
	encoded, signature, ok := strings.Cut(token, ".")
	if !ok || encoded == "" || signature == "" {
		return models.Identity{}, ErrInvalidToken
	}

	expected := sign(encoded, secret)
	if !hmac.Equal([]byte(signature), []byte(expected)) {
		return models.Identity{}, ErrInvalidSignature
	}

	payload, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return models.Identity{}, ErrInvalidToken
	}

	var id models.Identity
	if err := json.Unmarshal(payload, &id); err != nil {
		return models.Identity{}, ErrInvalidToken
	}
	if err := validateIdentity(id); err != nil {
		return models.Identity{}, err
	}
	return id, nil
}

func validateIdentity(id models.Identity) error {
	if strings.TrimSpace(id.ID) == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidIdentity)
	}
	if id.Role != models.RoleAdmin && id.Role != models.RoleVoter {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidIdentity, id.Role)
	}
	return nil
}

func sign(encoded, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write([]byte(encoded))
	// Use URL-safe base64 and trim padding for cleaner tokens
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

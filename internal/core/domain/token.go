package domain

import (
	"strings"
	"time"
)

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// BearerPrefix is the scheme marker tokens carry while in transport.
const BearerPrefix = "Bearer "

// TokenClaims is the verified content of a parsed token.
type TokenClaims struct {
	ID        string
	Subject   string
	Kind      TokenKind
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair is what a successful login hands to the caller. Both values
// carry the BearerPrefix.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// WithScheme prefixes a raw token with the transport scheme marker.
func WithScheme(raw string) string {
	return BearerPrefix + raw
}

// StripScheme removes the transport scheme marker. It fails with
// ErrMissingToken when the value is empty or not prefixed.
func StripScheme(value string) (string, error) {
	if !strings.HasPrefix(value, BearerPrefix) {
		return "", ErrMissingToken
	}
	raw := value[len(BearerPrefix):]
	if raw == "" {
		return "", ErrMissingToken
	}
	return raw, nil
}

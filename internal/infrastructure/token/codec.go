// Package token implements the HS256 token codec used for access and refresh
// tokens.
package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sixhundredbills/forum/internal/core/domain"
)

// MinKeyLength is the smallest accepted HMAC key, in bytes.
const MinKeyLength = 32

// claims is the wire form of a token.
type claims struct {
	jwt.RegisteredClaims
	Kind domain.TokenKind `json:"kind"`
}

// Codec signs and verifies tokens with a server-held symmetric key.
type Codec struct {
	key    []byte
	now    func() time.Time
	parser *jwt.Parser
}

// Option customises a Codec.
type Option func(*Codec)

// WithClock replaces time.Now, for tests and for deterministic issuance.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

// NewCodec returns a Codec signing with key.
func NewCodec(key []byte, opts ...Option) (*Codec, error) {
	if len(key) < MinKeyLength {
		return nil, fmt.Errorf("token: signing key must be at least %d bytes, got %d", MinKeyLength, len(key))
	}
	c := &Codec{key: key, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
		jwt.WithStrictDecoding(),
	)
	return c, nil
}

// KeyFromSecret decodes a base64 secret, falling back to the raw bytes when
// the secret is not valid base64.
func KeyFromSecret(secret string) []byte {
	if b, err := base64.StdEncoding.DecodeString(secret); err == nil && len(b) >= MinKeyLength {
		return b
	}
	return []byte(secret)
}

// Issue mints a token for subject that expires ttl from now.
func (c *Codec) Issue(subject string, kind domain.TokenKind, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", errors.New("token: empty subject")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token: non-positive ttl %s", ttl)
	}

	now := c.now()
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Kind: kind,
	})
	signed, err := t.SignedString(c.key)
	if err != nil {
		return "", fmt.Errorf("token: sign: %w", err)
	}
	return signed, nil
}

// Parse verifies the signature before trusting any claim. A token whose
// signature verifies but whose expiry has passed yields domain.ErrExpiredToken;
// every other failure yields domain.ErrMalformedToken.
func (c *Codec) Parse(raw string) (*domain.TokenClaims, error) {
	var cl claims
	_, err := c.parser.ParseWithClaims(raw, &cl, func(*jwt.Token) (interface{}, error) {
		return c.key, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) && !errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, domain.ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedToken, err)
	}

	if cl.Subject == "" || (cl.Kind != domain.KindAccess && cl.Kind != domain.KindRefresh) {
		return nil, domain.ErrMalformedToken
	}

	out := &domain.TokenClaims{
		ID:      cl.ID,
		Subject: cl.Subject,
		Kind:    cl.Kind,
	}
	if cl.IssuedAt != nil {
		out.IssuedAt = cl.IssuedAt.Time
	}
	if cl.ExpiresAt != nil {
		out.ExpiresAt = cl.ExpiresAt.Time
	}
	return out, nil
}

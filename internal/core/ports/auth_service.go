package ports

import (
	"context"
	"time"

	"github.com/sixhundredbills/forum/internal/core/domain"
)

// TokenCodec issues and verifies signed, expiring tokens. Tokens it returns
// and accepts are raw, without the transport scheme prefix.
type TokenCodec interface {
	Issue(subject string, kind domain.TokenKind, ttl time.Duration) (string, error)
	// Parse fails with domain.ErrMalformedToken or domain.ErrExpiredToken.
	Parse(token string) (*domain.TokenClaims, error)
}

// SignupInput carries a new account's details.
type SignupInput struct {
	Email    string
	Password string
	Name     string
	Role     string
	// AdminSecret must match the server's admin signup secret when Role is
	// ADMIN.
	AdminSecret string
}

// AuthService is the Session Service.
type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.TokenPair, *domain.User, error)
	// Reissue exchanges a raw refresh token for a new scheme-prefixed access
	// token. A superseded or revoked refresh token yields ("", nil).
	Reissue(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, actor *domain.User) error
	Resign(ctx context.Context, userID string) error
}

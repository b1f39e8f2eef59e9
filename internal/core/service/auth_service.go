package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sixhundredbills/forum/internal/core/domain"
	"github.com/sixhundredbills/forum/internal/core/ports"
)

const (
	defaultAccessTTL  = 30 * time.Minute
	defaultRefreshTTL = 14 * 24 * time.Hour
)

// AuthService implements signup, login, reissue, logout and resign.
//
// The only server-side session state is the refresh token mirrored on the
// user record. Logout clears it, so an access token issued before logout
// stays usable until its own expiry.
type AuthService struct {
	users      ports.UserRepository
	codec      ports.TokenCodec
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	log        zerolog.Logger

	// adminSecret gates ADMIN signups. Empty disables them.
	adminSecret string
}

// AuthOption configures an AuthService.
type AuthOption func(*AuthService)

// WithAdminSecret lets signups request the ADMIN role by presenting secret.
func WithAdminSecret(secret string) AuthOption {
	return func(s *AuthService) { s.adminSecret = secret }
}

func NewAuthService(
	users ports.UserRepository,
	codec ports.TokenCodec,
	accessTTL, refreshTTL time.Duration,
	log zerolog.Logger,
	opts ...AuthOption,
) *AuthService {
	if accessTTL <= 0 {
		accessTTL = defaultAccessTTL
	}
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTTL
	}
	s := &AuthService{
		users:      users,
		codec:      codec,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
		log:        log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AccessTTL and RefreshTTL let the transport size cookie lifetimes.
func (s *AuthService) AccessTTL() time.Duration  { return s.accessTTL }
func (s *AuthService) RefreshTTL() time.Duration { return s.refreshTTL }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (*domain.User, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, domain.ErrInvalidInput
	}

	role := in.Role
	if role == "" {
		role = domain.RoleUser
	}
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return nil, fmt.Errorf("%w: unknown role %q", domain.ErrInvalidInput, role)
	}
	if role == domain.RoleAdmin && !s.adminSecretMatches(in.AdminSecret) {
		s.log.Warn().Str("email", email).Msg("admin signup refused")
		return nil, domain.ErrForbidden
	}

	// Resigned accounts keep their email reserved.
	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrDuplicateAccount
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("signup: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("signup: hash password: %w", err)
	}

	now := s.now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Email:           email,
		Name:            strings.TrimSpace(in.Name),
		PasswordHash:    string(hash),
		PasswordHistory: []string{string(hash)},
		Role:            role,
		Status:          domain.StatusNormal,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("user_id", created.ID).Str("role", created.Role).Msg("user signed up")
	return created, nil
}

func (s *AuthService) adminSecretMatches(presented string) bool {
	if s.adminSecret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(presented), []byte(s.adminSecret)) == 1
}

// Login checks credentials, mints both tokens and stores the refresh token on
// the user, replacing any earlier one. Returned tokens carry the scheme prefix.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.TokenPair, *domain.User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, domain.ErrBadCredentials
	}
	if user.IsResigned() {
		return nil, nil, domain.ErrResignedAccount
	}

	access, err := s.codec.Issue(user.Email, domain.KindAccess, s.accessTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("login: %w", err)
	}
	refresh, err := s.codec.Issue(user.Email, domain.KindRefresh, s.refreshTTL)
	if err != nil {
		return nil, nil, fmt.Errorf("login: %w", err)
	}

	pair := &domain.TokenPair{
		AccessToken:  domain.WithScheme(access),
		RefreshToken: domain.WithScheme(refresh),
	}
	if err := s.users.UpdateRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, nil, fmt.Errorf("login: store refresh token: %w", err)
	}
	user.RefreshToken = pair.RefreshToken

	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return pair, user, nil
}

// Reissue mints a new access token for a raw refresh token. When the token no
// longer matches the stored one it returns ("", nil).
func (s *AuthService) Reissue(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.codec.Parse(refreshToken)
	switch {
	case errors.Is(err, domain.ErrExpiredToken):
		return "", domain.ErrExpiredRefreshToken
	case err != nil:
		return "", domain.ErrInvalidToken
	case claims.Kind != domain.KindRefresh:
		return "", domain.ErrInvalidToken
	}

	user, err := s.users.FindByEmail(ctx, claims.Subject)
	if err != nil {
		return "", err
	}

	stored, err := domain.StripScheme(user.RefreshToken)
	if err != nil || stored != refreshToken {
		s.log.Debug().Str("user_id", user.ID).Msg("stale refresh token presented")
		return "", nil
	}

	access, err := s.codec.Issue(user.Email, domain.KindAccess, s.accessTTL)
	if err != nil {
		return "", fmt.Errorf("reissue: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("access token reissued")
	return domain.WithScheme(access), nil
}

func (s *AuthService) Logout(ctx context.Context, actor *domain.User) error {
	if actor == nil {
		return domain.ErrNotLoggedIn
	}
	if err := s.users.UpdateRefreshToken(ctx, actor.ID, ""); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info().Str("user_id", actor.ID).Msg("user logged out")
	return nil
}

// Resign is irreversible. It also revokes the stored refresh token.
func (s *AuthService) Resign(ctx context.Context, userID string) error {
	if err := s.users.Resign(ctx, userID); err != nil {
		return err
	}
	s.log.Info().Str("user_id", userID).Msg("user resigned")
	return nil
}

package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sixhundredbills/forum/internal/core/domain"
	"github.com/sixhundredbills/forum/internal/core/ports"
)

// ProfileService reads and edits the caller's own account.
type ProfileService struct {
	users        ports.UserRepository
	postLikes    ports.LikeRepository
	commentLikes ports.LikeRepository
	now          func() time.Time
	log          zerolog.Logger
}

func NewProfileService(
	users ports.UserRepository,
	postLikes ports.LikeRepository,
	commentLikes ports.LikeRepository,
	log zerolog.Logger,
) *ProfileService {
	return &ProfileService{
		users:        users,
		postLikes:    postLikes,
		commentLikes: commentLikes,
		now:          time.Now,
		log:          log,
	}
}

func (s *ProfileService) GetProfile(ctx context.Context, actor *domain.User) (*ports.Profile, error) {
	if actor == nil {
		return nil, domain.ErrNotLoggedIn
	}
	return s.profile(ctx, actor)
}

// UpdateProfile reloads the user so the password check runs against the
// stored hash and history, not the copy resolved for the request.
func (s *ProfileService) UpdateProfile(ctx context.Context, actor *domain.User, in ports.UpdateProfileInput) (*ports.Profile, error) {
	if actor == nil {
		return nil, domain.ErrNotLoggedIn
	}
	if in.NewPassword == "" {
		return nil, fmt.Errorf("%w: empty new password", domain.ErrInvalidInput)
	}

	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
		return nil, domain.ErrBadPassword
	}
	if reused(user, in.NewPassword) {
		return nil, domain.ErrPasswordReused
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("update profile: hash password: %w", err)
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		user.Name = name
	}
	user.PasswordHash = string(hash)
	user.PasswordHistory = pushHistory(user.PasswordHistory, user.PasswordHash)
	user.UpdatedAt = s.now().UTC()
	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("profile updated")
	return s.profile(ctx, user)
}

func (s *ProfileService) profile(ctx context.Context, user *domain.User) (*ports.Profile, error) {
	posts, err := s.postLikes.CountByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("count liked posts: %w", err)
	}
	comments, err := s.commentLikes.CountByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("count liked comments: %w", err)
	}
	return &ports.Profile{
		Email:         user.Email,
		Name:          user.Name,
		LikedPosts:    posts,
		LikedComments: comments,
	}, nil
}

// reused reports whether password matches the current hash or any hash in
// the user's history. Accounts created before history was kept only have
// the current hash.
func reused(user *domain.User, password string) bool {
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) == nil {
		return true
	}
	for _, h := range user.PasswordHistory {
		if bcrypt.CompareHashAndPassword([]byte(h), []byte(password)) == nil {
			return true
		}
	}
	return false
}

// pushHistory prepends hash and keeps the newest domain.PasswordHistorySize
// entries.
func pushHistory(history []string, hash string) []string {
	out := make([]string, 0, domain.PasswordHistorySize)
	out = append(out, hash)
	for _, h := range history {
		if len(out) == domain.PasswordHistorySize {
			break
		}
		out = append(out, h)
	}
	return out
}

package ports

import (
	"context"

	"github.com/sixhundredbills/forum/internal/core/domain"
)

// Profile is what a user sees about their own account.
type Profile struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	LikedPosts    int64  `json:"liked_posts"`
	LikedComments int64  `json:"liked_comments"`
}

// UpdateProfileInput changes the name and the password. Password is the
// current one and must match.
type UpdateProfileInput struct {
	Name        string
	Password    string
	NewPassword string
}

type ProfileService interface {
	GetProfile(ctx context.Context, actor *domain.User) (*Profile, error)
	// UpdateProfile fails with domain.ErrBadPassword when Password does not
	// match and with domain.ErrPasswordReused when NewPassword is one of the
	// last domain.PasswordHistorySize passwords.
	UpdateProfile(ctx context.Context, actor *domain.User, in UpdateProfileInput) (*Profile, error)
}

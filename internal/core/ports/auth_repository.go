package ports

import (
	"context"

	"github.com/sixhundredbills/forum/internal/core/domain"
)

// UserRepository is the Credential Store.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	// UpdateRefreshToken overwrites the stored refresh token. Concurrent
	// writers for the same user race with last-write-wins semantics.
	UpdateRefreshToken(ctx context.Context, userID, token string) error
	// Resign marks the user RESIGNED and clears the stored refresh token.
	Resign(ctx context.Context, userID string) error
	// UpdateProfile overwrites name, password hash and password history.
	UpdateProfile(ctx context.Context, user *domain.User) error
}

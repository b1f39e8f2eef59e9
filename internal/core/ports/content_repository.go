package ports

import (
	"context"

	"github.com/sixhundredbills/forum/internal/core/domain"
)

// Page selects one page of a listing. Number starts at 1.
type Page struct {
	Number int
	Size   int
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 50
)

// Normalize fills in defaults and clamps the size.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset is the number of rows before the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) (*domain.Post, error)
	FindByID(ctx context.Context, id string) (*domain.Post, error)
	// Update overwrites title, content and updated_at.
	Update(ctx context.Context, post *domain.Post) (*domain.Post, error)
	// List returns posts newest first.
	List(ctx context.Context, page Page) ([]*domain.Post, error)
	Delete(ctx context.Context, id string) error
}

type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	FindByID(ctx context.Context, id string) (*domain.Comment, error)
	// Update overwrites body and updated_at.
	Update(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	// ListByPost returns the post's comments oldest first.
	ListByPost(ctx context.Context, postID string, page Page) ([]*domain.Comment, error)
	// FindChildIDs returns the ids of the direct replies to parentID.
	FindChildIDs(ctx context.Context, parentID string) ([]string, error)
	// FindRootIDs returns the ids of the post's comments that have no parent.
	FindRootIDs(ctx context.Context, postID string) ([]string, error)
	// FindIDsByPost returns the ids of every comment of the post.
	FindIDsByPost(ctx context.Context, postID string) ([]string, error)
	Delete(ctx context.Context, id string) error
}

// LikeRepository stores likes for one kind of target (posts or comments).
type LikeRepository interface {
	// Create fails with domain.ErrAlreadyLiked when (UserID, TargetID) exists.
	Create(ctx context.Context, like *domain.Like) (*domain.Like, error)
	// Delete fails with domain.ErrLikeNotFound when nothing was removed.
	Delete(ctx context.Context, userID, targetID string) error
	DeleteByTarget(ctx context.Context, targetID string) (int64, error)
	CountByTarget(ctx context.Context, targetID string) (int64, error)
	CountByUser(ctx context.Context, userID string) (int64, error)
}

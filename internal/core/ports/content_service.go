package ports

import (
	"context"

	"github.com/sixhundredbills/forum/internal/core/domain"
)

// CreateCommentInput carries a new comment. ParentID is empty for a root.
type CreateCommentInput struct {
	PostID   string
	ParentID string
	Body     string
}

// UpdatePostInput replaces a post's title and content.
type UpdatePostInput struct {
	Title   string
	Content string
}

// PostView is a post together with its like count.
type PostView struct {
	*domain.Post
	Likes int64 `json:"likes"`
}

// DeleteResult reports how many rows a delete request removed.
type DeleteResult struct {
	Posts    int   `json:"posts,omitempty"`
	Comments int   `json:"comments"`
	Likes    int64 `json:"likes"`
}

// LikeResult is returned by like and unlike operations.
type LikeResult struct {
	TargetID string `json:"target_id"`
	Likes    int64  `json:"likes"`
}

// ContentService is the Content Tree Service plus the content operations
// that feed it.
type ContentService interface {
	CreatePost(ctx context.Context, actor *domain.User, title, content string) (*domain.Post, error)
	GetPost(ctx context.Context, postID string) (*PostView, error)
	ListPosts(ctx context.Context, page Page) ([]*PostView, error)
	// UpdatePost is allowed to the author and to admins.
	UpdatePost(ctx context.Context, postID string, actor *domain.User, in UpdatePostInput) (*PostView, error)
	DeletePost(ctx context.Context, postID string, actor *domain.User) (*DeleteResult, error)
	CreateComment(ctx context.Context, actor *domain.User, in CreateCommentInput) (*domain.Comment, error)
	// DeleteComment removes the comment, every descendant reply and all
	// likes attached to any of them.
	DeleteComment(ctx context.Context, commentID string, actor *domain.User) (*DeleteResult, error)
	// FindComment loads a comment and checks that it belongs to postID.
	FindComment(ctx context.Context, postID, commentID string) (*domain.Comment, error)
	ListComments(ctx context.Context, postID string, page Page) ([]*domain.Comment, error)
	// UpdateComment is allowed to the author only.
	UpdateComment(ctx context.Context, postID, commentID string, actor *domain.User, body string) (*domain.Comment, error)

	LikePost(ctx context.Context, postID string, actor *domain.User) (*LikeResult, error)
	UnlikePost(ctx context.Context, postID string, actor *domain.User) (*LikeResult, error)
	LikeComment(ctx context.Context, commentID string, actor *domain.User) (*LikeResult, error)
	UnlikeComment(ctx context.Context, commentID string, actor *domain.User) (*LikeResult, error)
}

// AuditSink receives deletion events. Implementations must not block the
// caller for long and must not fail the deletion.
type AuditSink interface {
	Enqueue(event domain.DeletionEvent)
}

// AuditRepository persists deletion events.
type AuditRepository interface {
	InsertDeletion(ctx context.Context, event domain.DeletionEvent) error
}

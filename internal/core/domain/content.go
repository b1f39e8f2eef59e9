package domain

import "time"

// Post is the root of a discussion thread.
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Comment belongs to a post and optionally replies to another comment of the
// same post. Comments without a parent are roots of the post's forest.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	ParentID  string    `json:"parent_id,omitempty"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Comment) IsRoot() bool {
	return c.ParentID == ""
}

// Like records that a user likes a post or a comment. Unique per
// (UserID, TargetID).
type Like struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	TargetID  string    `json:"target_id"`
	CreatedAt time.Time `json:"created_at"`
}

// DeletionKind names what a deletion request targeted.
type DeletionKind string

const (
	DeletionComment DeletionKind = "comment"
	DeletionPost    DeletionKind = "post"
)

// DeletionEvent is the audit record of one successful delete request.
type DeletionEvent struct {
	Kind     DeletionKind
	TargetID string
	PostID   string
	ActorID  string
	ByAdmin  bool
	Comments int
	Likes    int64
	At       time.Time
}

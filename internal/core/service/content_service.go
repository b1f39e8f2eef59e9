package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/sixhundredbills/forum/internal/core/domain"
	"github.com/sixhundredbills/forum/internal/core/ports"
)

type noopAuditSink struct{}

func (noopAuditSink) Enqueue(domain.DeletionEvent) {}

// ContentService manages posts, threaded comments and likes, and owns the
// cascading delete of comment trees.
type ContentService struct {
	posts        ports.PostRepository
	comments     ports.CommentRepository
	postLikes    ports.LikeRepository
	commentLikes ports.LikeRepository
	audit        ports.AuditSink
	now          func() time.Time
	log          zerolog.Logger
}

// NewContentService returns a ContentService. A nil audit sink discards
// deletion events.
func NewContentService(
	posts ports.PostRepository,
	comments ports.CommentRepository,
	postLikes ports.LikeRepository,
	commentLikes ports.LikeRepository,
	audit ports.AuditSink,
	log zerolog.Logger,
) *ContentService {
	if audit == nil {
		audit = noopAuditSink{}
	}
	return &ContentService{
		posts:        posts,
		comments:     comments,
		postLikes:    postLikes,
		commentLikes: commentLikes,
		audit:        audit,
		now:          time.Now,
		log:          log,
	}
}

func (s *ContentService) CreatePost(ctx context.Context, actor *domain.User, title, content string) (*domain.Post, error) {
	if actor == nil {
		return nil, domain.ErrNotLoggedIn
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: empty title", domain.ErrInvalidInput)
	}

	now := s.now().UTC()
	return s.posts.Create(ctx, &domain.Post{
		AuthorID:  actor.ID,
		Title:     title,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

func (s *ContentService) GetPost(ctx context.Context, postID string) (*ports.PostView, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return s.postView(ctx, post)
}

func (s *ContentService) ListPosts(ctx context.Context, page ports.Page) ([]*ports.PostView, error) {
	posts, err := s.posts.List(ctx, page.Normalize())
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	views := make([]*ports.PostView, 0, len(posts))
	for _, p := range posts {
		v, err := s.postView(ctx, p)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *ContentService) UpdatePost(ctx context.Context, postID string, actor *domain.User, in ports.UpdatePostInput) (*ports.PostView, error) {
	if actor == nil {
		return nil, domain.ErrNotLoggedIn
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: empty title", domain.ErrInvalidInput)
	}
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(post.AuthorID) {
		return nil, domain.ErrForbidden
	}

	post.Title = title
	post.Content = in.Content
	post.UpdatedAt = s.now().UTC()
	updated, err := s.posts.Update(ctx, post)
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("post_id", updated.ID).
		Str("actor_id", actor.ID).
		Bool("by_admin", actor.ID != updated.AuthorID).
		Msg("post updated")
	return s.postView(ctx, updated)
}

func (s *ContentService) postView(ctx context.Context, post *domain.Post) (*ports.PostView, error) {
	n, err := s.postLikes.CountByTarget(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("count likes of post %s: %w", post.ID, err)
	}
	return &ports.PostView{Post: post, Likes: n}, nil
}

// DeletePost removes the post's likes, every comment of the post with their
// likes, and finally the post.
func (s *ContentService) DeletePost(ctx context.Context, postID string, actor *domain.User) (*ports.DeleteResult, error) {
	if actor == nil {
		return nil, domain.ErrNotLoggedIn
	}
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(post.AuthorID) {
		return nil, domain.ErrForbidden
	}

	likes, err := s.postLikes.DeleteByTarget(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("delete post %s: likes: %w", post.ID, err)
	}

	del := s.newTreeDeleter()
	roots, err := s.comments.FindRootIDs(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("delete post %s: roots: %w", post.ID, err)
	}
	for _, id := range roots {
		if err := del.deleteSubtree(ctx, id); err != nil {
			return nil, fmt.Errorf("delete post %s: %w", post.ID, err)
		}
	}

	// Comments not reachable from a root are left over from an earlier
	// partial delete.
	rest, err := s.comments.FindIDsByPost(ctx, post.ID)
	if err != nil {
		return nil, fmt.Errorf("delete post %s: sweep: %w", post.ID, err)
	}
	for _, id := range rest {
		if err := del.deleteSubtree(ctx, id); err != nil {
			return nil, fmt.Errorf("delete post %s: %w", post.ID, err)
		}
	}

	if err := s.posts.Delete(ctx, post.ID); err != nil {
		return nil, fmt.Errorf("delete post %s: %w", post.ID, err)
	}

	res := &ports.DeleteResult{Posts: 1, Comments: del.comments, Likes: likes + del.likes}
	s.emit(domain.DeletionPost, post.ID, post.ID, post.AuthorID, actor, res)
	return res, nil
}

func (s *ContentService) CreateComment(ctx context.Context, actor *domain.User, in ports.CreateCommentInput) (*domain.Comment, error) {
	if actor == nil {
		return nil, domain.ErrNotLoggedIn
	}
	if strings.TrimSpace(in.Body) == "" {
		return nil, fmt.Errorf("%w: empty comment", domain.ErrInvalidInput)
	}
	if _, err := s.posts.FindByID(ctx, in.PostID); err != nil {
		return nil, err
	}

	if in.ParentID != "" {
		parent, err := s.comments.FindByID(ctx, in.ParentID)
		if err != nil {
			if errors.Is(err, domain.ErrCommentNotFound) {
				return nil, domain.ErrInvalidParent
			}
			return nil, err
		}
		if parent.PostID != in.PostID {
			return nil, domain.ErrInvalidParent
		}
	}

	now := s.now().UTC()
	return s.comments.Create(ctx, &domain.Comment{
		PostID:    in.PostID,
		AuthorID:  actor.ID,
		ParentID:  in.ParentID,
		Body:      in.Body,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// DeleteComment authorizes once against the requested comment; replies are
// removed regardless of who wrote them.
func (s *ContentService) DeleteComment(ctx context.Context, commentID string, actor *domain.User) (*ports.DeleteResult, error) {
	if actor == nil {
		return nil, domain.ErrNotLoggedIn
	}
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManage(comment.AuthorID) {
		return nil, domain.ErrForbidden
	}

	del := s.newTreeDeleter()
	if err := del.deleteSubtree(ctx, comment.ID); err != nil {
		return nil, fmt.Errorf("delete comment %s: %w", comment.ID, err)
	}

	res := &ports.DeleteResult{Comments: del.comments, Likes: del.likes}
	s.emit(domain.DeletionComment, comment.ID, comment.PostID, comment.AuthorID, actor, res)
	return res, nil
}

func (s *ContentService) FindComment(ctx context.Context, postID, commentID string) (*domain.Comment, error) {
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.PostID != postID {
		return nil, domain.ErrCommentNotFound
	}
	return comment, nil
}

// ListComments returns one page of the post's comments. A post without
// comments yields an empty slice.
func (s *ContentService) ListComments(ctx context.Context, postID string, page ports.Page) ([]*domain.Comment, error) {
	if _, err := s.posts.FindByID(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.comments.ListByPost(ctx, postID, page.Normalize())
	if err != nil {
		return nil, fmt.Errorf("list comments of post %s: %w", postID, err)
	}
	if comments == nil {
		comments = []*domain.Comment{}
	}
	return comments, nil
}

// UpdateComment edits the body. Unlike delete, admins cannot edit someone
// else's comment.
func (s *ContentService) UpdateComment(ctx context.Context, postID, commentID string, actor *domain.User, body string) (*domain.Comment, error) {
	if actor == nil {
		return nil, domain.ErrNotLoggedIn
	}
	if strings.TrimSpace(body) == "" {
		return nil, fmt.Errorf("%w: empty comment", domain.ErrInvalidInput)
	}
	comment, err := s.FindComment(ctx, postID, commentID)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != actor.ID {
		return nil, domain.ErrForbidden
	}

	comment.Body = body
	comment.UpdatedAt = s.now().UTC()
	return s.comments.Update(ctx, comment)
}

func (s *ContentService) LikePost(ctx context.Context, postID string, actor *domain.User) (*ports.LikeResult, error) {
	if actor == nil {
		return nil, domain.ErrNotLoggedIn
	}
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return s.like(ctx, s.postLikes, post.ID, post.AuthorID, actor)
}

func (s *ContentService) UnlikePost(ctx context.Context, postID string, actor *domain.User) (*ports.LikeResult, error) {
	if actor == nil {
		return nil, domain.ErrNotLoggedIn
	}
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	return s.unlike(ctx, s.postLikes, post.ID, actor)
}

func (s *ContentService) LikeComment(ctx context.Context, commentID string, actor *domain.User) (*ports.LikeResult, error) {
	if actor == nil {
		return nil, domain.ErrNotLoggedIn
	}
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	return s.like(ctx, s.commentLikes, comment.ID, comment.AuthorID, actor)
}

func (s *ContentService) UnlikeComment(ctx context.Context, commentID string, actor *domain.User) (*ports.LikeResult, error) {
	if actor == nil {
		return nil, domain.ErrNotLoggedIn
	}
	comment, err := s.comments.FindByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	return s.unlike(ctx, s.commentLikes, comment.ID, actor)
}

func (s *ContentService) like(ctx context.Context, repo ports.LikeRepository, targetID, authorID string, actor *domain.User) (*ports.LikeResult, error) {
	if authorID == actor.ID {
		return nil, domain.ErrSelfLike
	}
	if _, err := repo.Create(ctx, &domain.Like{UserID: actor.ID, TargetID: targetID, CreatedAt: s.now().UTC()}); err != nil {
		return nil, err
	}
	return s.likeResult(ctx, repo, targetID)
}

func (s *ContentService) unlike(ctx context.Context, repo ports.LikeRepository, targetID string, actor *domain.User) (*ports.LikeResult, error) {
	if err := repo.Delete(ctx, actor.ID, targetID); err != nil {
		return nil, err
	}
	return s.likeResult(ctx, repo, targetID)
}

func (s *ContentService) likeResult(ctx context.Context, repo ports.LikeRepository, targetID string) (*ports.LikeResult, error) {
	n, err := repo.CountByTarget(ctx, targetID)
	if err != nil {
		return nil, fmt.Errorf("count likes: %w", err)
	}
	return &ports.LikeResult{TargetID: targetID, Likes: n}, nil
}

func (s *ContentService) emit(kind domain.DeletionKind, targetID, postID, authorID string, actor *domain.User, res *ports.DeleteResult) {
	byAdmin := actor.ID != authorID
	s.audit.Enqueue(domain.DeletionEvent{
		Kind:     kind,
		TargetID: targetID,
		PostID:   postID,
		ActorID:  actor.ID,
		ByAdmin:  byAdmin,
		Comments: res.Comments,
		Likes:    res.Likes,
		At:       s.now().UTC(),
	})
	s.log.Info().
		Str("kind", string(kind)).
		Str("target_id", targetID).
		Str("actor_id", actor.ID).
		Bool("by_admin", byAdmin).
		Int("comments", res.Comments).
		Int64("likes", res.Likes).
		Msg("content deleted")
}

// treeDeleter removes comment subtrees leaves first and tallies what it
// removed. One deleter spans a whole request so a node reached twice is
// only deleted once.
type treeDeleter struct {
	commentRepo ports.CommentRepository
	likeRepo    ports.LikeRepository
	seen        map[string]struct{}

	comments int
	likes    int64
}

func (s *ContentService) newTreeDeleter() *treeDeleter {
	return &treeDeleter{
		commentRepo: s.comments,
		likeRepo:    s.commentLikes,
		seen:        make(map[string]struct{}),
	}
}

func (d *treeDeleter) deleteSubtree(ctx context.Context, rootID string) error {
	return walkPostOrder(ctx, rootID, d.seen, d.commentRepo.FindChildIDs, func(id string) error {
		n, err := d.likeRepo.DeleteByTarget(ctx, id)
		if err != nil {
			return fmt.Errorf("comment %s: likes: %w", id, err)
		}
		if err := d.commentRepo.Delete(ctx, id); err != nil {
			return fmt.Errorf("comment %s: %w", id, err)
		}
		d.comments++
		d.likes += n
		return nil
	})
}

type walkFrame struct {
	id       string
	expanded bool
}

// walkPostOrder calls visit for rootID and every node below it, children
// before their parent and siblings in the order children returns them. It
// keeps its own stack so depth is bounded by memory only. Ids already in
// seen are skipped, which also guards against cycles.
func walkPostOrder(
	ctx context.Context,
	rootID string,
	seen map[string]struct{},
	children func(ctx context.Context, id string) ([]string, error),
	visit func(id string) error,
) error {
	if _, ok := seen[rootID]; ok {
		return nil
	}
	seen[rootID] = struct{}{}

	stack := []walkFrame{{id: rootID}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		top := len(stack) - 1
		if stack[top].expanded {
			id := stack[top].id
			stack = stack[:top]
			if err := visit(id); err != nil {
				return err
			}
			continue
		}

		stack[top].expanded = true
		kids, err := children(ctx, stack[top].id)
		if err != nil {
			return fmt.Errorf("children of %s: %w", stack[top].id, err)
		}
		for i := len(kids) - 1; i >= 0; i-- {
			if _, ok := seen[kids[i]]; ok {
				continue
			}
			seen[kids[i]] = struct{}{}
			stack = append(stack, walkFrame{id: kids[i]})
		}
	}
	return nil
}

package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sixhundredbills/forum/internal/api/metrics"
	"github.com/sixhundredbills/forum/internal/core/ports"
)

// CommentHandler handles HTTP requests for comments and their likes.
type CommentHandler struct {
	service ports.ContentService
}

func NewCommentHandler(service ports.ContentService) *CommentHandler {
	return &CommentHandler{service: service}
}

// Create handles POST /posts/:postId/comments.
//
// @Summary      Comment on a post or reply to a comment
// @Tags         comments
// @Accept       json
// @Produce      json
// @Param        postId  path      string                true  "Post id"
// @Param        body    body      createCommentRequest  true  "Comment"
// @Success      201     {object}  envelopeComment
// @Failure      400     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /posts/{postId}/comments [post]
func (h *CommentHandler) Create(c echo.Context) error {
	u, err := actor(c)
	if err != nil {
		return err
	}
	var req createCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.service.CreateComment(c.Request().Context(), u, ports.CreateCommentInput{
		PostID:   c.Param("postId"),
		ParentID: req.ParentID,
		Body:     req.Body,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "comment created", comment)
}

// List handles GET /posts/:postId/comments. Replies are included; clients
// thread them by parent_id.
//
// @Summary      List a post's comments
// @Tags         comments
// @Produce      json
// @Param        postId  path      string  true   "Post id"
// @Param        page    query     int     false  "Page, from 1"
// @Param        size    query     int     false  "Page size, at most 50"
// @Success      200     {object}  envelopeCommentList
// @Failure      400     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /posts/{postId}/comments [get]
func (h *CommentHandler) List(c echo.Context) error {
	var q pageQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}
	comments, err := h.service.ListComments(c.Request().Context(), c.Param("postId"), q.toPage())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "comments", comments)
}

// Update handles PUT /posts/:postId/comments/:commentId. Only the author may
// edit a comment.
//
// @Summary      Update a comment
// @Tags         comments
// @Accept       json
// @Produce      json
// @Param        postId     path      string                true  "Post id"
// @Param        commentId  path      string                true  "Comment id"
// @Param        body       body      updateCommentRequest  true  "Comment"
// @Success      200        {object}  envelopeComment
// @Failure      400        {object}  errorResponse
// @Failure      401        {object}  errorResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /posts/{postId}/comments/{commentId} [put]
func (h *CommentHandler) Update(c echo.Context) error {
	u, err := actor(c)
	if err != nil {
		return err
	}
	var req updateCommentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	comment, err := h.service.UpdateComment(c.Request().Context(), c.Param("postId"), c.Param("commentId"), u, req.Body)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "comment updated", comment)
}

// Delete handles DELETE /posts/:postId/comments/:commentId. Every reply below
// the comment is removed too, whoever wrote it.
//
// @Summary      Delete a comment and its replies
// @Tags         comments
// @Produce      json
// @Param        postId     path      string  true  "Post id"
// @Param        commentId  path      string  true  "Comment id"
// @Success      200        {object}  envelopeDelete
// @Failure      401        {object}  errorResponse
// @Failure      403        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /posts/{postId}/comments/{commentId} [delete]
func (h *CommentHandler) Delete(c echo.Context) error {
	u, err := actor(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	comment, err := h.service.FindComment(ctx, c.Param("postId"), c.Param("commentId"))
	if err != nil {
		return err
	}
	res, err := h.service.DeleteComment(ctx, comment.ID, u)
	if err != nil {
		return err
	}
	recordDeletion(res)
	return respond(c, http.StatusOK, "comment deleted", res)
}

// Like handles POST /posts/:postId/comments/:commentId/likes.
//
// @Summary      Like a comment
// @Tags         likes
// @Produce      json
// @Param        postId     path      string  true  "Post id"
// @Param        commentId  path      string  true  "Comment id"
// @Success      200        {object}  envelopeLike
// @Failure      400        {object}  errorResponse
// @Failure      404        {object}  errorResponse
// @Router       /posts/{postId}/comments/{commentId}/likes [post]
func (h *CommentHandler) Like(c echo.Context) error {
	u, err := actor(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	comment, err := h.service.FindComment(ctx, c.Param("postId"), c.Param("commentId"))
	if err != nil {
		return err
	}
	res, err := h.service.LikeComment(ctx, comment.ID, u)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "comment liked", res)
}

// Unlike handles DELETE /posts/:postId/comments/:commentId/likes.
//
// @Summary      Unlike a comment
// @Tags         likes
// @Produce      json
// @Param        postId     path      string  true  "Post id"
// @Param        commentId  path      string  true  "Comment id"
// @Success      200        {object}  envelopeLike
// @Failure      404        {object}  errorResponse
// @Router       /posts/{postId}/comments/{commentId}/likes [delete]
func (h *CommentHandler) Unlike(c echo.Context) error {
	u, err := actor(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	comment, err := h.service.FindComment(ctx, c.Param("postId"), c.Param("commentId"))
	if err != nil {
		return err
	}
	res, err := h.service.UnlikeComment(ctx, comment.ID, u)
	if err != nil {
		return err
	}
	metrics.LikesDeletedTotal.Inc()
	return respond(c, http.StatusOK, "comment unliked", res)
}

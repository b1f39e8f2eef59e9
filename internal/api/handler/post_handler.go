package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/sixhundredbills/forum/internal/api/metrics"
	"github.com/sixhundredbills/forum/internal/core/ports"
)

// PostHandler handles HTTP requests for posts and their likes.
type PostHandler struct {
	service ports.ContentService
}

func NewPostHandler(service ports.ContentService) *PostHandler {
	return &PostHandler{service: service}
}

// Create handles POST /posts.
//
// @Summary      Create a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        body  body      createPostRequest  true  "Post"
// @Success      201   {object}  envelopePost
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /posts [post]
func (h *PostHandler) Create(c echo.Context) error {
	u, err := actor(c)
	if err != nil {
		return err
	}
	var req createPostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.service.CreatePost(c.Request().Context(), u, req.Title, req.Content)
	if err != nil {
		return err
	}
	return respond(c, http.StatusCreated, "post created", post)
}

// List handles GET /posts, newest first.
//
// @Summary      List posts
// @Tags         posts
// @Produce      json
// @Param        page  query     int  false  "Page, from 1"
// @Param        size  query     int  false  "Page size, at most 50"
// @Success      200   {object}  envelopePostList
// @Failure      400   {object}  errorResponse
// @Router       /posts [get]
func (h *PostHandler) List(c echo.Context) error {
	var q pageQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}
	posts, err := h.service.ListPosts(c.Request().Context(), q.toPage())
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "posts", posts)
}

// Get handles GET /posts/:postId.
//
// @Summary      Get a post
// @Tags         posts
// @Produce      json
// @Param        postId  path      string  true  "Post id"
// @Success      200     {object}  envelopePostView
// @Failure      404     {object}  errorResponse
// @Router       /posts/{postId} [get]
func (h *PostHandler) Get(c echo.Context) error {
	post, err := h.service.GetPost(c.Request().Context(), c.Param("postId"))
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "post", post)
}

// Update handles PUT /posts/:postId. Admins may edit any post.
//
// @Summary      Update a post
// @Tags         posts
// @Accept       json
// @Produce      json
// @Param        postId  path      string             true  "Post id"
// @Param        body    body      updatePostRequest  true  "Post"
// @Success      200     {object}  envelopePostView
// @Failure      400     {object}  errorResponse
// @Failure      401     {object}  errorResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /posts/{postId} [put]
func (h *PostHandler) Update(c echo.Context) error {
	u, err := actor(c)
	if err != nil {
		return err
	}
	var req updatePostRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	post, err := h.service.UpdatePost(c.Request().Context(), c.Param("postId"), u, ports.UpdatePostInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "post updated", post)
}

// Delete handles DELETE /posts/:postId. The post's comments and every like
// on the post or its comments go with it.
//
// @Summary      Delete a post
// @Tags         posts
// @Produce      json
// @Param        postId  path      string  true  "Post id"
// @Success      200     {object}  envelopeDelete
// @Failure      401     {object}  errorResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /posts/{postId} [delete]
func (h *PostHandler) Delete(c echo.Context) error {
	u, err := actor(c)
	if err != nil {
		return err
	}

	res, err := h.service.DeletePost(c.Request().Context(), c.Param("postId"), u)
	if err != nil {
		return err
	}
	recordDeletion(res)
	return respond(c, http.StatusOK, "post deleted", res)
}

// Like handles POST /posts/:postId/likes.
//
// @Summary      Like a post
// @Tags         likes
// @Produce      json
// @Param        postId  path      string  true  "Post id"
// @Success      200     {object}  envelopeLike
// @Failure      400     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /posts/{postId}/likes [post]
func (h *PostHandler) Like(c echo.Context) error {
	u, err := actor(c)
	if err != nil {
		return err
	}
	res, err := h.service.LikePost(c.Request().Context(), c.Param("postId"), u)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, "post liked", res)
}

// Unlike handles DELETE /posts/:postId/likes.
//
// @Summary      Unlike a post
// @Tags         likes
// @Produce      json
// @Param        postId  path      string  true  "Post id"
// @Success      200     {object}  envelopeLike
// @Failure      404     {object}  errorResponse
// @Router       /posts/{postId}/likes [delete]
func (h *PostHandler) Unlike(c echo.Context) error {
	u, err := actor(c)
	if err != nil {
		return err
	}
	res, err := h.service.UnlikePost(c.Request().Context(), c.Param("postId"), u)
	if err != nil {
		return err
	}
	metrics.LikesDeletedTotal.Inc()
	return respond(c, http.StatusOK, "post unliked", res)
}

func recordDeletion(res *ports.DeleteResult) {
	metrics.PostsDeletedTotal.Add(float64(res.Posts))
	metrics.CommentsDeletedTotal.Add(float64(res.Comments))
	metrics.LikesDeletedTotal.Add(float64(res.Likes))
}

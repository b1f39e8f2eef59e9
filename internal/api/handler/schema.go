package handler

import (
	"github.com/sixhundredbills/forum/internal/core/domain"
	"github.com/sixhundredbills/forum/internal/core/ports"
)

// errorResponse documents the error envelope rendered by the HTTP error handler.
type errorResponse struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// --- Request types ---

type signupRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name"     validate:"required,max=50"`
	Role     string `json:"role"     validate:"omitempty,oneof=USER ADMIN"`
	// AdminSecret is required when Role is ADMIN.
	AdminSecret string `json:"admin_secret,omitempty"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type createPostRequest struct {
	Title   string `json:"title"   validate:"required,max=200"`
	Content string `json:"content" validate:"required"`
}

type updatePostRequest struct {
	Title   string `json:"title"   validate:"required,max=200"`
	Content string `json:"content" validate:"required"`
}

// pageQuery reads ?page=&size= on listings. Zero values take the defaults.
type pageQuery struct {
	Page int `query:"page" validate:"omitempty,min=1"`
	Size int `query:"size" validate:"omitempty,min=1,max=50"`
}

func (q pageQuery) toPage() ports.Page {
	return ports.Page{Number: q.Page, Size: q.Size}.Normalize()
}

type updateCommentRequest struct {
	Body string `json:"body" validate:"required,max=2000"`
}

type updateProfileRequest struct {
	Name        string `json:"name"         validate:"omitempty,max=50"`
	Password    string `json:"password"     validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8,max=72"`
}

type createCommentRequest struct {
	ParentID string `json:"parent_id" validate:"omitempty,len=24,hexadecimal"`
	Body     string `json:"body"      validate:"required,max=2000"`
}

// --- Response types ---

type envelopeUser struct {
	Message    string       `json:"message"`
	StatusCode int          `json:"statusCode"`
	Data       *domain.User `json:"data"`
}

type loginData struct {
	User   *domain.User      `json:"user"`
	Tokens *domain.TokenPair `json:"tokens"`
}

type envelopeLogin struct {
	Message    string    `json:"message"`
	StatusCode int       `json:"statusCode"`
	Data       loginData `json:"data"`
}

type reissueData struct {
	AccessToken string `json:"access_token"`
}

type envelopeReissue struct {
	Message    string      `json:"message"`
	StatusCode int         `json:"statusCode"`
	Data       reissueData `json:"data"`
}

type envelopePost struct {
	Message    string       `json:"message"`
	StatusCode int          `json:"statusCode"`
	Data       *domain.Post `json:"data"`
}

type envelopePostView struct {
	Message    string          `json:"message"`
	StatusCode int             `json:"statusCode"`
	Data       *ports.PostView `json:"data"`
}

type envelopePostList struct {
	Message    string            `json:"message"`
	StatusCode int               `json:"statusCode"`
	Data       []*ports.PostView `json:"data"`
}

type envelopeCommentList struct {
	Message    string            `json:"message"`
	StatusCode int               `json:"statusCode"`
	Data       []*domain.Comment `json:"data"`
}

type envelopeProfile struct {
	Message    string         `json:"message"`
	StatusCode int            `json:"statusCode"`
	Data       *ports.Profile `json:"data"`
}

type envelopeComment struct {
	Message    string          `json:"message"`
	StatusCode int             `json:"statusCode"`
	Data       *domain.Comment `json:"data"`
}

type envelopeDelete struct {
	Message    string             `json:"message"`
	StatusCode int                `json:"statusCode"`
	Data       ports.DeleteResult `json:"data"`
}

type envelopeLike struct {
	Message    string           `json:"message"`
	StatusCode int              `json:"statusCode"`
	Data       ports.LikeResult `json:"data"`
}

package domain

import "errors"

// Session errors.
var (
	ErrNotLoggedIn         = errors.New("login required")
	ErrMalformedToken      = errors.New("malformed token")
	ErrInvalidToken        = errors.New("invalid token")
	ErrExpiredAccessToken  = errors.New("access token expired, reissue required")
	ErrExpiredRefreshToken = errors.New("refresh token expired, login required")
	ErrUserNotFound        = errors.New("user not found")
	ErrBadCredentials      = errors.New("invalid credentials")
	ErrResignedAccount     = errors.New("account has been resigned")
	ErrDuplicateAccount    = errors.New("account already exists")
	ErrTooManyRequests     = errors.New("too many requests")
	ErrInvalidInput        = errors.New("invalid input")
)

// Profile errors.
var (
	ErrBadPassword    = errors.New("current password does not match")
	ErrPasswordReused = errors.New("new password was used recently")
)

// Token codec errors. ErrMalformedToken above is shared with the codec.
var (
	ErrMissingToken = errors.New("token scheme missing")
	ErrExpiredToken = errors.New("token expired")
)

// Content errors.
var (
	ErrForbidden       = errors.New("access forbidden")
	ErrPostNotFound    = errors.New("post not found")
	ErrCommentNotFound = errors.New("comment not found")
	ErrInvalidParent   = errors.New("parent comment must belong to the same post")
	ErrSelfLike        = errors.New("cannot like your own content")
	ErrAlreadyLiked    = errors.New("already liked")
	ErrLikeNotFound    = errors.New("like not found")
)

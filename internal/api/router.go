package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/sixhundredbills/forum/internal/api/handler"
	"github.com/sixhundredbills/forum/internal/api/middleware"
	"github.com/sixhundredbills/forum/internal/core/domain"
	"github.com/sixhundredbills/forum/internal/core/ports"
)

// Request paths the session verifier treats specially.
const (
	SignupPath  = "/users/signup"
	LoginPath   = "/users/login"
	ReissuePath = "/users/reissue"
)

// Deps is everything the router needs. Limiter may be nil, which disables
// rate limiting. Registry defaults to the global Prometheus registry.
type Deps struct {
	Auth    ports.AuthService
	Content ports.ContentService
	Profile ports.ProfileService
	Codec   ports.TokenCodec
	Users   middleware.UserFinder
	Limiter middleware.Limiter
	Cookies middleware.CookieJar
	Checks  map[string]handler.Check

	Registry *prometheus.Registry
	Log      zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	// Client addresses come from the socket only. X-Forwarded-For is caller
	// controlled and would let anyone rotate past the login rate limit.
	e.IPExtractor = echo.ExtractIPDirect()
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Registry != nil {
		registerer, gatherer = d.Registry, d.Registry
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "forum",
		Registerer: registerer,
	}))

	// --- Ops routes (no session) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(d.Checks)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", readinessHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Session verifier ---
	session := middleware.Session(middleware.SessionConfig{
		Codec:       d.Codec,
		Users:       d.Users,
		Reissuer:    d.Auth,
		Cookies:     d.Cookies,
		PassThrough: []string{SignupPath, LoginPath},
		ReissuePath: ReissuePath,
		Log:         d.Log,
	})

	var throttle []echo.MiddlewareFunc
	if d.Limiter != nil {
		throttle = append(throttle, middleware.RateLimit(d.Limiter, d.Log))
	}

	authHandler := handler.NewAuthHandler(d.Auth, d.Cookies)
	postHandler := handler.NewPostHandler(d.Content)
	commentHandler := handler.NewCommentHandler(d.Content)
	profileHandler := handler.NewProfileHandler(d.Profile)

	// --- Account routes ---
	users := e.Group("/users", session)
	users.POST("/signup", authHandler.Signup, throttle...)
	users.POST("/login", authHandler.Login, throttle...)
	users.POST("/reissue", authHandler.Reissue)
	users.POST("/logout", authHandler.Logout)
	users.POST("/resign", authHandler.Resign)
	users.GET("/profile", profileHandler.Get)
	users.PUT("/profile", profileHandler.Update)

	admin := e.Group("/admin", session, middleware.RBAC(domain.RoleAdmin))
	admin.POST("/users/:userId/resign", authHandler.AdminResign)

	// --- Content routes ---
	posts := e.Group("/posts", session)
	posts.GET("", postHandler.List)
	posts.POST("", postHandler.Create)
	posts.GET("/:postId", postHandler.Get)
	posts.PUT("/:postId", postHandler.Update)
	posts.DELETE("/:postId", postHandler.Delete)
	posts.POST("/:postId/likes", postHandler.Like)
	posts.DELETE("/:postId/likes", postHandler.Unlike)

	posts.GET("/:postId/comments", commentHandler.List)
	posts.POST("/:postId/comments", commentHandler.Create)
	posts.PUT("/:postId/comments/:commentId", commentHandler.Update)
	posts.DELETE("/:postId/comments/:commentId", commentHandler.Delete)
	posts.POST("/:postId/comments/:commentId/likes", commentHandler.Like)
	posts.DELETE("/:postId/comments/:commentId/likes", commentHandler.Unlike)

	return e
}

// Package httpapi exposes the auth service over HTTP using gin. It owns
// request/response shapes, cookie handling and the mapping from service
// errors to status codes; all business rules live in the services package.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/r-scheele/authgate/internal/common"
	"github.com/r-scheele/authgate/internal/logging"
	"github.com/r-scheele/authgate/internal/server/mail"
	"github.com/r-scheele/authgate/internal/server/models"
	"github.com/r-scheele/authgate/internal/server/services"
	"github.com/r-scheele/authgate/internal/server/tasks"
	"github.com/r-scheele/authgate/internal/server/token"
)

const (
	accessCookieName  = "Authorization"
	refreshCookieName = "refresh_token"
)

// AuthService is the slice of the auth service the HTTP layer depends on.
type AuthService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.UserProfile, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	UpdateProfile(ctx context.Context, profileID string, upd models.ProfileUpdate) error
}

// VerificationService is the slice of the verification-code service the HTTP
// layer depends on.
type VerificationService interface {
	Generate(ctx context.Context, profileID, email string) (*models.VerificationCode, error)
	Verify(ctx context.Context, code int) (*models.VerificationCode, error)
	Delete(ctx context.Context, code int) error
}

// Server wires handlers, middleware and background dispatch around the
// services.
type Server struct {
	auth       AuthService
	codes      VerificationService
	codec      *token.Codec
	mailer     mail.Sender
	tasks      *tasks.Dispatcher
	logger     logging.Logger
	production bool
}

func NewServer(
	auth AuthService,
	codes VerificationService,
	codec *token.Codec,
	mailer mail.Sender,
	dispatcher *tasks.Dispatcher,
	logger logging.Logger,
	production bool,
) *Server {
	return &Server{
		auth:       auth,
		codes:      codes,
		codec:      codec,
		mailer:     mailer,
		tasks:      dispatcher,
		logger:     logger,
		production: production,
	}
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	if s.production {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery(), s.requestLog())

	api := r.Group("/api")
	{
		api.POST("/register", s.register)
		api.POST("/login", s.login)
		api.POST("/refresh", s.refresh)
		api.GET("/verify", s.verify)
		api.GET("/profile", s.authRequired(), s.profile)
	}
	return r
}

func (s *Server) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// writeError translates service errors into responses. Refresh-token
// invalidation and expiry both come out as a plain 401; the distinction
// stays in the server logs.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidUsername):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "username may only contain letters, digits, '.', '_' or '-'"})
	case errors.Is(err, common.ErrEmailAlreadyTaken):
		c.JSON(http.StatusConflict, gin.H{"code": "email_taken", "field": "email"})
	case errors.Is(err, common.ErrUsernameAlreadyTaken):
		c.JSON(http.StatusConflict, gin.H{"code": "username_taken", "field": "username"})
	case errors.Is(err, common.ErrLoginFailed):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
	case errors.Is(err, common.ErrVerificationPending):
		c.JSON(http.StatusForbidden, gin.H{"error": "account not verified, check your email for the verification code"})
	case errors.Is(err, common.ErrRefreshTokenExpired),
		errors.Is(err, common.ErrRefreshTokenInvalidated),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrInvalidToken):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	default:
		s.logger.Error(c.Request.Context(), "request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// setAuthCookies attaches both tokens as HttpOnly cookies. The Secure flag
// follows the production setting so local HTTP development keeps working.
func (s *Server) setAuthCookies(c *gin.Context, pair *services.TokenPair) {
	now := time.Now()
	c.SetCookie(accessCookieName, "Bearer "+pair.AccessToken,
		int(pair.AccessExpiresAt.Sub(now).Seconds()), "/", "", s.production, true)
	c.SetCookie(refreshCookieName, pair.RefreshToken,
		int(pair.RefreshExpiresAt.Sub(now).Seconds()), "/", "", s.production, true)
}

func (s *Server) clearAuthCookies(c *gin.Context) {
	c.SetCookie(accessCookieName, "", -1, "/", "", s.production, true)
	c.SetCookie(refreshCookieName, "", -1, "/", "", s.production, true)
}

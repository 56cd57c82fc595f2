package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/r-scheele/authgate/internal/common"
	"github.com/r-scheele/authgate/internal/server/mail"
	"github.com/r-scheele/authgate/internal/server/models"
	"github.com/r-scheele/authgate/internal/server/services"
)

type registerRequest struct {
	Username *string `json:"username"`
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=6"`
	Role     string  `json:"role" binding:"omitempty,oneof=USER INSTRUCTOR MENTOR ADMIN"`
	AvatarID string  `json:"avatar_id"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// profileResponse is the public view of a profile; the password hash never
// leaves the server.
type profileResponse struct {
	ID           string     `json:"id"`
	Username     *string    `json:"username"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	IsVerified   bool       `json:"is_verified"`
	LastLoginAt  *time.Time `json:"last_login_at"`
	RegisteredAt time.Time  `json:"registered_at"`
	AvatarID     string     `json:"avatar_id"`
}

type tokenResponse struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

func newProfileResponse(p *models.UserProfile) profileResponse {
	return profileResponse{
		ID:           p.ID,
		Username:     p.Username,
		Email:        p.Email,
		Role:         string(p.Role),
		IsVerified:   p.IsVerified,
		LastLoginAt:  p.LastLoginAt,
		RegisteredAt: p.RegisteredAt,
		AvatarID:     p.AvatarID,
	}
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := s.auth.Register(c.Request.Context(), services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     models.Role(req.Role),
		AvatarID: req.AvatarID,
	})
	if err != nil {
		s.writeError(c, err)
		return
	}

	code, err := s.codes.Generate(c.Request.Context(), profile.ID, profile.Email)
	if err != nil {
		s.writeError(c, err)
		return
	}
	s.tasks.Dispatch(func(ctx context.Context) error {
		subject, body := mail.VerificationBody(code.Code)
		return s.mailer.Send(ctx, profile.Email, subject, body)
	})

	c.JSON(http.StatusCreated, newProfileResponse(profile))
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pair, err := s.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}

	// Last-login is best effort and must not delay the response.
	profileID := pair.ProfileID
	now := time.Now()
	s.tasks.Dispatch(func(ctx context.Context) error {
		return s.auth.UpdateProfile(ctx, profileID, models.ProfileUpdate{LastLoginAt: &now})
	})

	s.setAuthCookies(c, pair)
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:      pair.AccessToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	})
}

func (s *Server) refresh(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookieName)
	if err != nil || refreshToken == "" {
		s.clearAuthCookies(c)
		s.writeError(c, common.ErrInvalidToken)
		return
	}

	pair, err := s.auth.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		s.clearAuthCookies(c)
		s.writeError(c, err)
		return
	}

	s.setAuthCookies(c, pair)
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:      pair.AccessToken,
		AccessExpiresAt:  pair.AccessExpiresAt,
		RefreshExpiresAt: pair.RefreshExpiresAt,
	})
}

func (s *Server) verify(c *gin.Context) {
	code, err := strconv.Atoi(c.Query("code"))
	if err != nil {
		s.writeError(c, common.ErrorNotFound)
		return
	}

	record, err := s.codes.Verify(c.Request.Context(), code)
	if err != nil {
		s.writeError(c, err)
		return
	}

	verified := true
	if err := s.auth.UpdateProfile(c.Request.Context(), record.ProfileID, models.ProfileUpdate{IsVerified: &verified}); err != nil {
		s.writeError(c, err)
		return
	}

	s.tasks.Dispatch(func(ctx context.Context) error {
		return s.codes.Delete(ctx, code)
	})

	c.JSON(http.StatusOK, gin.H{"message": "account verified"})
}

// profile answers from the access-token claims alone; no storage round-trip.
func (s *Server) profile(c *gin.Context) {
	identity := identityFrom(c)
	c.JSON(http.StatusOK, identity)
}

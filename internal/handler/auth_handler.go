package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/skillmatch-hu/skillmatch-api/internal/dto"
	"github.com/skillmatch-hu/skillmatch-api/internal/models"
	appErrors "github.com/skillmatch-hu/skillmatch-api/pkg/errors"
	"github.com/skillmatch-hu/skillmatch-api/pkg/response"
)

type authService interface {
	RegisterStudent(ctx context.Context, email, fullName, schoolAccountName string) (*models.User, error)
	RegisterWithInvite(ctx context.Context, token, email, fullName string) (*models.User, error)
	IssueInvite(ctx context.Context, businessID *string) (string, *models.InviteKey, error)
	IssueToken(user *models.User) (string, error)
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

// AuthHandler serves onboarding and token endpoints.
type AuthHandler struct {
	service authService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(service authService) *AuthHandler {
	return &AuthHandler{service: service}
}

// RegisterStudent creates a student account and returns a signed token.
func (h *AuthHandler) RegisterStudent(c *gin.Context) {
	var req dto.RegisterStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid registration payload"))
		return
	}
	user, err := h.service.RegisterStudent(c.Request.Context(), req.Email, req.FullName, req.SchoolAccountName)
	if err != nil {
		response.Error(c, err)
		return
	}
	token, err := h.service.IssueToken(user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.TokenResponse{Token: token})
}

// RegisterWithInvite redeems an invite key and returns a signed token for
// the newly minted supervisor or teacher.
func (h *AuthHandler) RegisterWithInvite(c *gin.Context) {
	var req dto.RegisterWithInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid invite payload"))
		return
	}
	user, err := h.service.RegisterWithInvite(c.Request.Context(), req.Token, req.Email, req.FullName)
	if err != nil {
		response.Error(c, err)
		return
	}
	token, err := h.service.IssueToken(user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.TokenResponse{Token: token})
}

// IssueInvite mints an invite key; teacher-only.
func (h *AuthHandler) IssueInvite(c *gin.Context) {
	var req dto.IssueInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid invite payload"))
		return
	}
	token, key, err := h.service.IssueInvite(c.Request.Context(), req.BusinessID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.InviteResponse{
		Token:     token,
		ExpiresAt: key.ExpiresAt.Format(time.RFC3339),
	})
}

// Me returns the caller's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	user, err := h.service.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user)
}

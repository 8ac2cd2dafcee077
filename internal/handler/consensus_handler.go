package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skillmatch-hu/skillmatch-api/internal/dto"
	"github.com/skillmatch-hu/skillmatch-api/internal/models"
	appErrors "github.com/skillmatch-hu/skillmatch-api/pkg/errors"
	"github.com/skillmatch-hu/skillmatch-api/pkg/response"
)

type consensusService interface {
	CreateRequest(ctx context.Context, taskID, studentID, requesterID string, reqType models.RequestType, reason string) (*models.StatusChangeRequest, error)
	Respond(ctx context.Context, requestID, responderID string, approve bool, message *string) (*models.StatusChangeRequest, error)
	GetPendingForUser(ctx context.Context, user *models.User) ([]models.StatusChangeRequest, error)
}

type consensusUserLookup interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
}

// ConsensusHandler exposes REST endpoints for the status change workflow.
type ConsensusHandler struct {
	service consensusService
	users   consensusUserLookup
}

// NewConsensusHandler constructs the handler.
func NewConsensusHandler(service consensusService, users consensusUserLookup) *ConsensusHandler {
	return &ConsensusHandler{service: service, users: users}
}

// Create godoc
// @Summary Open a status change request on a registration
// @Tags Consensus
// @Accept json
// @Produce json
// @Param payload body dto.CreateStatusRequestRequest true "Request payload"
// @Success 201 {object} response.Envelope
// @Router /status-requests [post]
func (h *ConsensusHandler) Create(c *gin.Context) {
	var req dto.CreateStatusRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid status request payload"))
		return
	}
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	// Students may only act on their own registrations.
	if claims.Role == models.RoleStudent && claims.UserID != req.StudentID {
		response.Error(c, appErrors.ErrForbidden)
		return
	}

	created, err := h.service.CreateRequest(c.Request.Context(), req.TaskID, req.StudentID, claims.UserID, req.Type, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusCreated, created)
}

// Respond godoc
// @Summary Approve or deny a pending status change request
// @Tags Consensus
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.RespondStatusRequestRequest true "Decision payload"
// @Success 200 {object} response.Envelope
// @Router /status-requests/{id}/respond [post]
func (h *ConsensusHandler) Respond(c *gin.Context) {
	var req dto.RespondStatusRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid decision payload"))
		return
	}
	claims, ok := currentUser(c)
	if !ok {
		return
	}

	resolved, err := h.service.Respond(c.Request.Context(), c.Param("id"), claims.UserID, req.Approve, req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resolved)
}

// Pending godoc
// @Summary List pending requests awaiting the caller's decision
// @Tags Consensus
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /status-requests/pending [get]
func (h *ConsensusHandler) Pending(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	user, err := h.users.GetUser(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	pending, err := h.service.GetPendingForUser(c.Request.Context(), user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, pending)
}

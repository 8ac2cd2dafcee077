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

type registrationService interface {
	Register(ctx context.Context, taskID, studentID, description string) (*models.Registration, error)
	Accept(ctx context.Context, taskID, studentID string, response *string) error
	Deny(ctx context.Context, taskID, studentID string, response *string) error
	Start(ctx context.Context, taskID, studentID string) error
	GetForStudent(ctx context.Context, studentID string) ([]models.Registration, error)
	GetForTask(ctx context.Context, taskID string) ([]models.Registration, error)
}

// RegistrationHandler serves the application lifecycle endpoints.
type RegistrationHandler struct {
	service registrationService
}

// NewRegistrationHandler constructs the handler.
func NewRegistrationHandler(service registrationService) *RegistrationHandler {
	return &RegistrationHandler{service: service}
}

// Create applies the calling student to a task.
func (h *RegistrationHandler) Create(c *gin.Context) {
	var req dto.CreateRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid registration payload"))
		return
	}
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	reg, err := h.service.Register(c.Request.Context(), req.TaskID, claims.UserID, req.Description)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, reg)
}

// Decide accepts or denies a student's application.
func (h *RegistrationHandler) Decide(c *gin.Context) {
	var req dto.DecideRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid decision payload"))
		return
	}
	taskID := c.Param("id")
	studentID := c.Param("studentId")

	var err error
	if req.Accept {
		err = h.service.Accept(c.Request.Context(), taskID, studentID, req.Response)
	} else {
		err = h.service.Deny(c.Request.Context(), taskID, studentID, req.Response)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Start stamps the calling student's registration as started.
func (h *RegistrationHandler) Start(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	if err := h.service.Start(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListForStudent returns the caller's registrations.
func (h *RegistrationHandler) ListForStudent(c *gin.Context) {
	claims, ok := currentUser(c)
	if !ok {
		return
	}
	regs, err := h.service.GetForStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, regs)
}

// ListForTask returns every registration on a task.
func (h *RegistrationHandler) ListForTask(c *gin.Context) {
	regs, err := h.service.GetForTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, regs)
}

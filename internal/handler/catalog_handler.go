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

type catalogService interface {
	GetBusinesses(ctx context.Context) ([]models.Business, error)
	GetBusiness(ctx context.Context, id string) (*models.Business, error)
	CreateBusiness(ctx context.Context, business *models.Business) error
	ArchiveBusiness(ctx context.Context, id string, archived bool) error
	GetProjects(ctx context.Context) ([]models.Project, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)
	GetProjectsByBusiness(ctx context.Context, businessID string) ([]models.Project, error)
	CreateProject(ctx context.Context, project *models.Project) error
	ArchiveProject(ctx context.Context, id string, archived bool) error
	GetTask(ctx context.Context, id string) (*models.Task, error)
	GetTasksByProject(ctx context.Context, projectID string) ([]models.Task, error)
	CreateTask(ctx context.Context, task *models.Task) error
	GetSkills(ctx context.Context) ([]models.Skill, error)
	GetPendingSkills(ctx context.Context) ([]models.Skill, error)
	ProposeSkill(ctx context.Context, name string) (*models.Skill, error)
	ApproveSkill(ctx context.Context, id string) error
	GetThemes(ctx context.Context) ([]models.Theme, error)
}

// CatalogHandler serves the browsing and authoring endpoints.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

func (h *CatalogHandler) ListBusinesses(c *gin.Context) {
	businesses, err := h.service.GetBusinesses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, businesses)
}

func (h *CatalogHandler) GetBusiness(c *gin.Context) {
	business, err := h.service.GetBusiness(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, business)
}

func (h *CatalogHandler) CreateBusiness(c *gin.Context) {
	var req dto.CreateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid business payload"))
		return
	}
	business := &models.Business{
		Name:        req.Name,
		Description: req.Description,
		ImagePath:   req.ImagePath,
		Locations:   req.Locations,
	}
	if err := h.service.CreateBusiness(c.Request.Context(), business); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, business)
}

func (h *CatalogHandler) ArchiveBusiness(c *gin.Context) {
	var req dto.ArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid archive payload"))
		return
	}
	if err := h.service.ArchiveBusiness(c.Request.Context(), c.Param("id"), req.Archived); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *CatalogHandler) ListProjects(c *gin.Context) {
	if businessID := c.Query("businessId"); businessID != "" {
		projects, err := h.service.GetProjectsByBusiness(c.Request.Context(), businessID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, projects)
		return
	}
	projects, err := h.service.GetProjects(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, projects)
}

func (h *CatalogHandler) GetProject(c *gin.Context) {
	project, err := h.service.GetProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, project)
}

func (h *CatalogHandler) CreateProject(c *gin.Context) {
	var req dto.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid project payload"))
		return
	}
	project := &models.Project{
		BusinessID:  req.BusinessID,
		Name:        req.Name,
		Description: req.Description,
		ImagePath:   req.ImagePath,
		ThemeIDs:    req.ThemeIDs,
	}
	if err := h.service.CreateProject(c.Request.Context(), project); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

func (h *CatalogHandler) ArchiveProject(c *gin.Context) {
	var req dto.ArchiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid archive payload"))
		return
	}
	if err := h.service.ArchiveProject(c.Request.Context(), c.Param("id"), req.Archived); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *CatalogHandler) GetTask(c *gin.Context) {
	task, err := h.service.GetTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task)
}

func (h *CatalogHandler) ListTasksByProject(c *gin.Context) {
	tasks, err := h.service.GetTasksByProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tasks)
}

func (h *CatalogHandler) CreateTask(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid task payload"))
		return
	}
	task := &models.Task{
		ProjectID:   req.ProjectID,
		Name:        req.Name,
		Description: req.Description,
		TotalNeeded: req.TotalNeeded,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	for _, skillID := range req.SkillIDs {
		task.Skills = append(task.Skills, models.Skill{ID: skillID})
	}
	if err := h.service.CreateTask(c.Request.Context(), task); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

func (h *CatalogHandler) ListSkills(c *gin.Context) {
	if c.Query("pending") == "true" {
		skills, err := h.service.GetPendingSkills(c.Request.Context())
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, skills)
		return
	}
	skills, err := h.service.GetSkills(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, skills)
}

func (h *CatalogHandler) ProposeSkill(c *gin.Context) {
	var req dto.ProposeSkillRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid skill payload"))
		return
	}
	skill, err := h.service.ProposeSkill(c.Request.Context(), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, skill)
}

func (h *CatalogHandler) ApproveSkill(c *gin.Context) {
	if err := h.service.ApproveSkill(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *CatalogHandler) ListThemes(c *gin.Context) {
	themes, err := h.service.GetThemes(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, themes)
}

package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/skillmatch-hu/skillmatch-api/internal/models"
)

type businessStore interface {
	GetByID(ctx context.Context, id string) (*models.Business, error)
	GetAll(ctx context.Context) ([]models.Business, error)
	Create(ctx context.Context, business *models.Business) error
	SetArchived(ctx context.Context, id string, archived bool) error
}

type catalogProjectStore interface {
	GetByID(ctx context.Context, id string) (*models.Project, error)
	GetAll(ctx context.Context) ([]models.Project, error)
	GetByBusiness(ctx context.Context, businessID string) ([]models.Project, error)
	Create(ctx context.Context, project *models.Project) error
	SetArchived(ctx context.Context, id string, archived bool) error
}

type taskStore interface {
	GetByID(ctx context.Context, id string) (*models.Task, error)
	GetByProject(ctx context.Context, projectID string) ([]models.Task, error)
	Create(ctx context.Context, task *models.Task) error
}

type skillStore interface {
	GetAll(ctx context.Context) ([]models.Skill, error)
	GetPending(ctx context.Context) ([]models.Skill, error)
	Create(ctx context.Context, skill *models.Skill) error
	Approve(ctx context.Context, id string) error
	GetAllThemes(ctx context.Context) ([]models.Theme, error)
}

// CatalogService exposes the browsing and authoring surface for businesses,
// projects, tasks, skills and themes. It is a thin layer; the repositories
// carry the constraints.
type CatalogService struct {
	businesses businessStore
	projects   catalogProjectStore
	tasks      taskStore
	skills     skillStore
	logger     *zap.Logger
}

// NewCatalogService constructs the service.
func NewCatalogService(businesses businessStore, projects catalogProjectStore, tasks taskStore, skills skillStore, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		businesses: businesses,
		projects:   projects,
		tasks:      tasks,
		skills:     skills,
		logger:     logger,
	}
}

func (s *CatalogService) GetBusinesses(ctx context.Context) ([]models.Business, error) {
	return s.businesses.GetAll(ctx)
}

func (s *CatalogService) GetBusiness(ctx context.Context, id string) (*models.Business, error) {
	return s.businesses.GetByID(ctx, id)
}

func (s *CatalogService) CreateBusiness(ctx context.Context, business *models.Business) error {
	return s.businesses.Create(ctx, business)
}

func (s *CatalogService) ArchiveBusiness(ctx context.Context, id string, archived bool) error {
	return s.businesses.SetArchived(ctx, id, archived)
}

func (s *CatalogService) GetProjects(ctx context.Context) ([]models.Project, error) {
	return s.projects.GetAll(ctx)
}

func (s *CatalogService) GetProject(ctx context.Context, id string) (*models.Project, error) {
	return s.projects.GetByID(ctx, id)
}

func (s *CatalogService) GetProjectsByBusiness(ctx context.Context, businessID string) ([]models.Project, error) {
	return s.projects.GetByBusiness(ctx, businessID)
}

func (s *CatalogService) CreateProject(ctx context.Context, project *models.Project) error {
	return s.projects.Create(ctx, project)
}

func (s *CatalogService) ArchiveProject(ctx context.Context, id string, archived bool) error {
	return s.projects.SetArchived(ctx, id, archived)
}

func (s *CatalogService) GetTask(ctx context.Context, id string) (*models.Task, error) {
	return s.tasks.GetByID(ctx, id)
}

func (s *CatalogService) GetTasksByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	return s.tasks.GetByProject(ctx, projectID)
}

func (s *CatalogService) CreateTask(ctx context.Context, task *models.Task) error {
	return s.tasks.Create(ctx, task)
}

func (s *CatalogService) GetSkills(ctx context.Context) ([]models.Skill, error) {
	return s.skills.GetAll(ctx)
}

func (s *CatalogService) GetPendingSkills(ctx context.Context) ([]models.Skill, error) {
	return s.skills.GetPending(ctx)
}

// ProposeSkill creates a pending skill awaiting teacher approval.
func (s *CatalogService) ProposeSkill(ctx context.Context, name string) (*models.Skill, error) {
	skill := &models.Skill{Name: name, IsPending: true}
	if err := s.skills.Create(ctx, skill); err != nil {
		return nil, err
	}
	return skill, nil
}

func (s *CatalogService) ApproveSkill(ctx context.Context, id string) error {
	return s.skills.Approve(ctx, id)
}

func (s *CatalogService) GetThemes(ctx context.Context) ([]models.Theme, error) {
	return s.skills.GetAllThemes(ctx)
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/skillmatch-hu/skillmatch-api/internal/models"
	"github.com/skillmatch-hu/skillmatch-api/internal/repository"
	appErrors "github.com/skillmatch-hu/skillmatch-api/pkg/errors"
	"github.com/skillmatch-hu/skillmatch-api/pkg/export"
)

type portfolioStore interface {
	ListCompletedByProject(ctx context.Context, projectID string) ([]repository.CompletedWork, error)
	ListLiveByStudent(ctx context.Context, studentID string) ([]repository.CompletedWork, error)
	InsertSnapshot(ctx context.Context, snapshot *models.PortfolioSnapshot) error
	ListSnapshotsByStudent(ctx context.Context, studentID string) ([]models.PortfolioSnapshot, error)
	DeleteSnapshot(ctx context.Context, id string) error
	DeleteAllForStudent(ctx context.Context, studentID string) error
}

type projectStore interface {
	GetByID(ctx context.Context, id string) (*models.Project, error)
	Delete(ctx context.Context, id string) error
}

// PortfolioService preserves students' completed work across project
// deletion and serves the merged live-plus-snapshot portfolio view.
type PortfolioService struct {
	portfolios portfolioStore
	projects   projectStore
	cache      *redis.Client
	cacheTTL   time.Duration
	exporter   *export.PDFExporter
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
}

// NewPortfolioService constructs the service. A nil cache disables caching;
// a nil metrics service disables counters.
func NewPortfolioService(portfolios portfolioStore, projects projectStore, cache *redis.Client, cacheTTL time.Duration, metrics *MetricsService, logger *zap.Logger) *PortfolioService {
	return &PortfolioService{
		portfolios: portfolios,
		projects:   projects,
		cache:      cache,
		cacheTTL:   cacheTTL,
		exporter:   export.NewPDFExporter(),
		metrics:    metrics,
		logger:     logger,
		now:        time.Now,
	}
}

func portfolioCacheKey(studentID string) string {
	return "portfolio:" + studentID
}

// DeleteProject snapshots every completed registration under the project and
// only then removes the project. Any snapshot failure aborts the whole
// deletion; the live graph stays untouched.
func (s *PortfolioService) DeleteProject(ctx context.Context, projectID string) error {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return err
	}

	completed, err := s.portfolios.ListCompletedByProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("collect completed work: %w", err)
	}

	affected := make(map[string]struct{}, len(completed))
	for _, work := range completed {
		snapshot, err := buildSnapshot(work, s.now().UTC())
		if err == nil {
			err = s.portfolios.InsertSnapshot(ctx, snapshot)
		}
		if err != nil {
			return &appErrors.SnapshotIncompleteError{
				ProjectID: projectID,
				StudentID: work.StudentID,
				Err:       err,
			}
		}
		affected[work.StudentID] = struct{}{}
	}

	if err := s.projects.Delete(ctx, projectID); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}

	for studentID := range affected {
		s.invalidate(ctx, studentID)
	}
	s.metrics.CountSnapshots(len(completed))
	s.logger.Info("project deleted",
		zap.String("project_id", projectID),
		zap.Int("snapshots", len(completed)),
	)
	return nil
}

// GetStudentPortfolio merges live completed registrations with snapshots of
// deleted projects, newest completion first.
func (s *PortfolioService) GetStudentPortfolio(ctx context.Context, studentID string) ([]models.PortfolioItem, error) {
	if s.cache != nil {
		raw, err := s.cache.Get(ctx, portfolioCacheKey(studentID)).Result()
		if err == nil {
			var items []models.PortfolioItem
			if json.Unmarshal([]byte(raw), &items) == nil {
				return items, nil
			}
		}
	}

	live, err := s.portfolios.ListLiveByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load live portfolio: %w", err)
	}
	snapshots, err := s.portfolios.ListSnapshotsByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("load portfolio snapshots: %w", err)
	}

	items := make([]models.PortfolioItem, 0, len(live)+len(snapshots))
	for _, work := range live {
		items = append(items, liveItem(work))
	}
	for i := range snapshots {
		item, err := snapshotItem(&snapshots[i])
		if err != nil {
			s.logger.Warn("skipping unreadable portfolio snapshot",
				zap.String("snapshot_id", snapshots[i].ID),
				zap.Error(err),
			)
			continue
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CompletedAt.After(items[j].CompletedAt)
	})

	if s.cache != nil {
		if raw, err := json.Marshal(items); err == nil {
			s.cache.Set(ctx, portfolioCacheKey(studentID), raw, s.cacheTTL)
		}
	}
	return items, nil
}

// DeleteSnapshot removes one snapshot at the owning student's request.
func (s *PortfolioService) DeleteSnapshot(ctx context.Context, studentID, snapshotID string) error {
	snapshots, err := s.portfolios.ListSnapshotsByStudent(ctx, studentID)
	if err != nil {
		return err
	}
	owned := false
	for _, snap := range snapshots {
		if snap.ID == snapshotID {
			owned = true
			break
		}
	}
	if !owned {
		return appErrors.ErrForbidden
	}
	if err := s.portfolios.DeleteSnapshot(ctx, snapshotID); err != nil {
		return err
	}
	s.invalidate(ctx, studentID)
	return nil
}

// DeleteAllSnapshots removes every snapshot a student owns.
func (s *PortfolioService) DeleteAllSnapshots(ctx context.Context, studentID string) error {
	if err := s.portfolios.DeleteAllForStudent(ctx, studentID); err != nil {
		return err
	}
	s.invalidate(ctx, studentID)
	return nil
}

// ExportPortfolioPDF renders the merged portfolio as a tabular PDF.
func (s *PortfolioService) ExportPortfolioPDF(ctx context.Context, studentID string) ([]byte, error) {
	items, err := s.GetStudentPortfolio(ctx, studentID)
	if err != nil {
		return nil, err
	}

	headers := []string{"Project", "Task", "Business", "Skills", "Completed"}
	rows := make([]map[string]string, 0, len(items))
	for _, item := range items {
		rows = append(rows, map[string]string{
			"Project":   item.Project.ProjectName,
			"Task":      item.Task.TaskName,
			"Business":  item.Project.BusinessName,
			"Skills":    strings.Join(item.Skills, ", "),
			"Completed": item.CompletedAt.Format("2006-01-02"),
		})
	}
	return s.exporter.Render(export.Dataset{Headers: headers, Rows: rows}, "Portfolio")
}

func (s *PortfolioService) invalidate(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, portfolioCacheKey(studentID)).Err(); err != nil {
		s.logger.Warn("portfolio cache invalidation failed",
			zap.String("student_id", studentID),
			zap.Error(err),
		)
	}
}

// buildSnapshot freezes one completed registration into literal JSON blobs.
func buildSnapshot(work repository.CompletedWork, now time.Time) (*models.PortfolioSnapshot, error) {
	project := models.ProjectSnapshot{
		ProjectName:         work.ProjectName,
		ProjectDescription:  work.ProjectDescription,
		BusinessName:        work.BusinessName,
		BusinessDescription: work.BusinessDescription,
		BusinessLocation:    work.BusinessLocations,
		BusinessID:          work.BusinessID,
		ProjectID:           work.ProjectID,
	}
	task := models.TaskSnapshot{
		TaskName:        work.TaskName,
		TaskDescription: work.TaskDescription,
		TaskID:          work.TaskID,
	}
	skills := work.Skills
	if skills == nil {
		skills = []string{}
	}
	timeline := models.TimelineSnapshot{
		RequestedAt: work.RequestedAt.UTC().Format(time.RFC3339),
		CompletedAt: work.CompletedAt.UTC().Format(time.RFC3339),
	}
	if work.AcceptedAt != nil {
		timeline.AcceptedAt = work.AcceptedAt.UTC().Format(time.RFC3339)
	}
	if work.StartedAt != nil {
		timeline.StartedAt = work.StartedAt.UTC().Format(time.RFC3339)
	}

	projectJSON, err := json.Marshal(project)
	if err != nil {
		return nil, fmt.Errorf("marshal project snapshot: %w", err)
	}
	taskJSON, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("marshal task snapshot: %w", err)
	}
	skillsJSON, err := json.Marshal(skills)
	if err != nil {
		return nil, fmt.Errorf("marshal skills snapshot: %w", err)
	}
	timelineJSON, err := json.Marshal(timeline)
	if err != nil {
		return nil, fmt.Errorf("marshal timeline snapshot: %w", err)
	}

	return &models.PortfolioSnapshot{
		StudentID:        work.StudentID,
		CreatedAt:        now,
		ProjectSnapshot:  projectJSON,
		TaskSnapshot:     taskJSON,
		SkillsSnapshot:   skillsJSON,
		TimelineSnapshot: timelineJSON,
	}, nil
}

func liveItem(work repository.CompletedWork) models.PortfolioItem {
	archived := work.ProjectArchived
	item := models.PortfolioItem{
		SourceType:  models.PortfolioSourceLive,
		IsArchived:  &archived,
		CompletedAt: work.CompletedAt,
		Project: models.ProjectSnapshot{
			ProjectName:         work.ProjectName,
			ProjectDescription:  work.ProjectDescription,
			BusinessName:        work.BusinessName,
			BusinessDescription: work.BusinessDescription,
			BusinessLocation:    work.BusinessLocations,
			BusinessID:          work.BusinessID,
			ProjectID:           work.ProjectID,
		},
		Task: models.TaskSnapshot{
			TaskName:        work.TaskName,
			TaskDescription: work.TaskDescription,
			TaskID:          work.TaskID,
		},
		Skills: work.Skills,
		Timeline: models.TimelineSnapshot{
			RequestedAt: work.RequestedAt.UTC().Format(time.RFC3339),
			CompletedAt: work.CompletedAt.UTC().Format(time.RFC3339),
		},
	}
	if item.Skills == nil {
		item.Skills = []string{}
	}
	if work.AcceptedAt != nil {
		item.Timeline.AcceptedAt = work.AcceptedAt.UTC().Format(time.RFC3339)
	}
	if work.StartedAt != nil {
		item.Timeline.StartedAt = work.StartedAt.UTC().Format(time.RFC3339)
	}
	return item
}

func snapshotItem(snap *models.PortfolioSnapshot) (models.PortfolioItem, error) {
	var item models.PortfolioItem
	if err := json.Unmarshal(snap.ProjectSnapshot, &item.Project); err != nil {
		return item, fmt.Errorf("decode project snapshot: %w", err)
	}
	if err := json.Unmarshal(snap.TaskSnapshot, &item.Task); err != nil {
		return item, fmt.Errorf("decode task snapshot: %w", err)
	}
	if err := json.Unmarshal(snap.SkillsSnapshot, &item.Skills); err != nil {
		return item, fmt.Errorf("decode skills snapshot: %w", err)
	}
	if err := json.Unmarshal(snap.TimelineSnapshot, &item.Timeline); err != nil {
		return item, fmt.Errorf("decode timeline snapshot: %w", err)
	}

	id := snap.ID
	item.SourceType = models.PortfolioSourceSnapshot
	item.SnapshotID = &id
	if t, err := time.Parse(time.RFC3339, item.Timeline.CompletedAt); err == nil {
		item.CompletedAt = t
	} else {
		item.CompletedAt = snap.CreatedAt
	}
	return item, nil
}

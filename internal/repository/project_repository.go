package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/skillmatch-hu/skillmatch-api/internal/models"
	appErrors "github.com/skillmatch-hu/skillmatch-api/pkg/errors"
	"github.com/skillmatch-hu/skillmatch-api/pkg/typedb"
)

// ProjectRepository persists projects and their business ownership.
type ProjectRepository struct {
	db typedb.Executor
}

// NewProjectRepository constructs the repository.
func NewProjectRepository(db typedb.Executor) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectFetch = `
fetch {
  "id": $p.id,
  "name": $p.name,
  "description": $p.description,
  "image_path": $p.image-path,
  "created_at": $p.created-at,
  "archived": $p.archived,
  "business_id": $b.id,
  "theme_ids": [
    match
    $pt isa project-theme (subject: $p, label: $th);
    fetch { "id": $th.id };
  ]
};`

const projectByIDQuery = `
match
$p isa project, has id ~id;
$bp isa business-project (owner: $b, venture: $p);` + projectFetch

const projectAllQuery = `
match
$p isa project;
$bp isa business-project (owner: $b, venture: $p);` + projectFetch

const projectByBusinessQuery = `
match
$b isa business, has id ~business_id;
$bp isa business-project (owner: $b, venture: $p);` + projectFetch

const projectInsertQuery = `
match
$b isa business, has id ~business_id;
insert
$p isa project,
  has id ~id,
  has name ~name,
  has description ~description,
  has image-path ~image_path,
  has created-at ~created_at,
  has archived false;
$bp isa business-project (owner: $b, venture: $p);`

const projectThemeInsertQuery = `
match
$p isa project, has id ~id;
$th isa theme, has id ~theme_id;
insert
$pt isa project-theme (subject: $p, label: $th);`

const projectArchiveQuery = `
match
$p isa project, has id ~id;
update
$p has archived ~archived;`

// Cascade deletion runs leaf-first so no relation survives with a missing
// player: requests on registrations, registrations, skill links, tasks, then
// the project's own links and the project.
const projectDeleteRequestsQuery = `
match
$p isa project, has id ~id;
$pt isa project-task (parent: $p, unit: $t);
$r isa registration (target: $t);
$req isa status-change-request (subject: $r);
delete
$req;`

const projectDeleteRegistrationsQuery = `
match
$p isa project, has id ~id;
$pt isa project-task (parent: $p, unit: $t);
$r isa registration (target: $t);
delete
$r;`

const projectDeleteTaskSkillsQuery = `
match
$p isa project, has id ~id;
$pt isa project-task (parent: $p, unit: $t);
$ts isa task-skill (demander: $t);
delete
$ts;`

const projectDeleteTasksQuery = `
match
$p isa project, has id ~id;
$pt isa project-task (parent: $p, unit: $t);
delete
$pt;
$t;`

const projectDeleteLinksQuery = `
match
$p isa project, has id ~id;
$bp isa business-project (venture: $p);
delete
$bp;`

const projectDeleteThemeLinksQuery = `
match
$p isa project, has id ~id;
$pt isa project-theme (subject: $p);
delete
$pt;`

const projectDeleteQuery = `
match
$p isa project, has id ~id;
delete
$p;`

// GetByID loads a project expected to exist.
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	docs, err := r.db.Read(ctx, projectByIDQuery, typedb.Params{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get project: %w", err)
	}
	if len(docs) == 0 {
		return nil, &appErrors.ItemRetrievalError{Entity: "project", ID: id}
	}
	return mapProject(docs[0]), nil
}

// GetAll returns every project.
func (r *ProjectRepository) GetAll(ctx context.Context) ([]models.Project, error) {
	return r.list(ctx, projectAllQuery, nil)
}

// GetByBusiness returns the projects a business owns.
func (r *ProjectRepository) GetByBusiness(ctx context.Context, businessID string) ([]models.Project, error) {
	return r.list(ctx, projectByBusinessQuery, typedb.Params{"business_id": businessID})
}

// Create inserts a project owned by an existing business, plus its theme
// links. The write fails when the business id matches nothing.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	if project.CreatedAt.IsZero() {
		project.CreatedAt = time.Now().UTC()
	}
	err := r.db.Write(ctx, projectInsertQuery, typedb.Params{
		"id":          project.ID,
		"business_id": project.BusinessID,
		"name":        project.Name,
		"description": project.Description,
		"image_path":  project.ImagePath,
		"created_at":  project.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	for _, themeID := range project.ThemeIDs {
		err := r.db.Write(ctx, projectThemeInsertQuery, typedb.Params{
			"id":       project.ID,
			"theme_id": themeID,
		})
		if err != nil {
			return fmt.Errorf("attach project theme: %w", err)
		}
	}
	return nil
}

// SetArchived flips the archive flag.
func (r *ProjectRepository) SetArchived(ctx context.Context, id string, archived bool) error {
	if err := r.db.Write(ctx, projectArchiveQuery, typedb.Params{"id": id, "archived": archived}); err != nil {
		return fmt.Errorf("archive project: %w", err)
	}
	return nil
}

// Delete removes a project and everything hanging off it: status change
// requests, registrations, task skill links, tasks, theme and ownership
// links. Callers are responsible for snapshotting completed work first.
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	steps := []struct {
		name  string
		query string
	}{
		{"requests", projectDeleteRequestsQuery},
		{"registrations", projectDeleteRegistrationsQuery},
		{"task skills", projectDeleteTaskSkillsQuery},
		{"tasks", projectDeleteTasksQuery},
		{"theme links", projectDeleteThemeLinksQuery},
		{"ownership", projectDeleteLinksQuery},
		{"project", projectDeleteQuery},
	}
	for _, step := range steps {
		if err := r.db.Write(ctx, step.query, typedb.Params{"id": id}); err != nil {
			return fmt.Errorf("delete project %s: %w", step.name, err)
		}
	}
	return nil
}

func (r *ProjectRepository) list(ctx context.Context, query string, params typedb.Params) ([]models.Project, error) {
	docs, err := r.db.Read(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	out := make([]models.Project, 0, len(docs))
	for _, doc := range docs {
		out = append(out, *mapProject(doc))
	}
	return out, nil
}

func mapProject(doc typedb.Document) *models.Project {
	project := &models.Project{
		ID:          doc.String("id"),
		BusinessID:  doc.String("business_id"),
		Name:        doc.String("name"),
		Description: doc.String("description"),
		ImagePath:   doc.StringPtr("image_path"),
		CreatedAt:   doc.Time("created_at"),
		Archived:    doc.Bool("archived"),
	}
	for _, themeDoc := range doc.Docs("theme_ids") {
		project.ThemeIDs = append(project.ThemeIDs, themeDoc.String("id"))
	}
	return project
}

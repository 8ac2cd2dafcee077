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

// TaskRepository persists tasks, their project membership and required
// skills.
type TaskRepository struct {
	db typedb.Executor
}

// NewTaskRepository constructs the repository.
func NewTaskRepository(db typedb.Executor) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskFetch = `
fetch {
  "id": $t.id,
  "name": $t.name,
  "description": $t.description,
  "total_needed": $t.total-needed,
  "created_at": $t.created-at,
  "start_date": $t.start-date,
  "end_date": $t.end-date,
  "project_id": $p.id,
  "skills": [
    match
    $ts isa task-skill (demander: $t, required: $s);
    fetch {
      "id": $s.id,
      "name": $s.name,
      "is_pending": $s.is-pending,
      "created_at": $s.created-at
    };
  ]
};`

const taskByIDQuery = `
match
$t isa task, has id ~id;
$pt isa project-task (parent: $p, unit: $t);` + taskFetch

const taskByProjectQuery = `
match
$p isa project, has id ~project_id;
$pt isa project-task (parent: $p, unit: $t);` + taskFetch

const taskInsertQuery = `
match
$p isa project, has id ~project_id;
insert
$t isa task,
  has id ~id,
  has name ~name,
  has description ~description,
  has total-needed ~total_needed,
  has created-at ~created_at,
  has start-date ~start_date,
  has end-date ~end_date;
$pt isa project-task (parent: $p, unit: $t);`

const taskSkillInsertQuery = `
match
$t isa task, has id ~id;
$s isa skill, has id ~skill_id;
insert
$ts isa task-skill (demander: $t, required: $s);`

// GetByID loads a task with its required skills.
func (r *TaskRepository) GetByID(ctx context.Context, id string) (*models.Task, error) {
	docs, err := r.db.Read(ctx, taskByIDQuery, typedb.Params{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if len(docs) == 0 {
		return nil, &appErrors.ItemRetrievalError{Entity: "task", ID: id}
	}
	return mapTask(docs[0]), nil
}

// GetByProject returns all tasks under a project.
func (r *TaskRepository) GetByProject(ctx context.Context, projectID string) ([]models.Task, error) {
	docs, err := r.db.Read(ctx, taskByProjectQuery, typedb.Params{"project_id": projectID})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	out := make([]models.Task, 0, len(docs))
	for _, doc := range docs {
		out = append(out, *mapTask(doc))
	}
	return out, nil
}

// Create inserts a task under an existing project and links its skills.
// Nil start or end dates stay off the task entirely.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	err := r.db.Write(ctx, taskInsertQuery, typedb.Params{
		"id":           task.ID,
		"project_id":   task.ProjectID,
		"name":         task.Name,
		"description":  task.Description,
		"total_needed": task.TotalNeeded,
		"created_at":   task.CreatedAt,
		"start_date":   dateParam(task.StartDate),
		"end_date":     dateParam(task.EndDate),
	})
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	for _, skill := range task.Skills {
		err := r.db.Write(ctx, taskSkillInsertQuery, typedb.Params{
			"id":       task.ID,
			"skill_id": skill.ID,
		})
		if err != nil {
			return fmt.Errorf("attach task skill: %w", err)
		}
	}
	return nil
}

// dateParam renders an optional timestamp as a calendar date literal. The
// typed nil keeps absent dates elidable.
func dateParam(t *time.Time) *typedb.Date {
	if t == nil {
		return nil
	}
	d := typedb.Date(*t)
	return &d
}

func mapTask(doc typedb.Document) *models.Task {
	task := &models.Task{
		ID:          doc.String("id"),
		ProjectID:   doc.String("project_id"),
		Name:        doc.String("name"),
		Description: doc.String("description"),
		TotalNeeded: doc.Int("total_needed"),
		CreatedAt:   doc.Time("created_at"),
		StartDate:   doc.TimePtr("start_date"),
		EndDate:     doc.TimePtr("end_date"),
	}
	for _, skillDoc := range doc.Docs("skills") {
		task.Skills = append(task.Skills, mapSkill(skillDoc))
	}
	return task
}

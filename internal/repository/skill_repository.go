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

// SkillRepository persists skills and themes. Skill names are unique in the
// graph; the repository checks the constraint up front so callers get a typed
// conflict instead of a driver error.
type SkillRepository struct {
	db typedb.Executor
}

// NewSkillRepository constructs the repository.
func NewSkillRepository(db typedb.Executor) *SkillRepository {
	return &SkillRepository{db: db}
}

const skillFetch = `
fetch {
  "id": $s.id,
  "name": $s.name,
  "is_pending": $s.is-pending,
  "created_at": $s.created-at
};`

const skillAllQuery = `
match
$s isa skill;` + skillFetch

const skillPendingQuery = `
match
$s isa skill, has is-pending true;` + skillFetch

const skillByNameQuery = `
match
$s isa skill, has name ~name;` + skillFetch

const skillByIDQuery = `
match
$s isa skill, has id ~id;` + skillFetch

const skillInsertQuery = `
insert
$s isa skill,
  has id ~id,
  has name ~name,
  has is-pending ~is_pending,
  has created-at ~created_at;`

const skillApproveQuery = `
match
$s isa skill, has id ~id;
update
$s has is-pending false;`

const themeFetch = `
fetch {
  "id": $t.id,
  "name": $t.name,
  "sdg_code": $t.sdg-code,
  "icon": $t.icon,
  "color": $t.color,
  "display_order": $t.display-order
};`

const themeAllQuery = `
match
$t isa theme;` + themeFetch

// GetAll returns every skill, pending ones included.
func (r *SkillRepository) GetAll(ctx context.Context) ([]models.Skill, error) {
	return r.list(ctx, skillAllQuery, nil)
}

// GetPending returns skills awaiting teacher approval.
func (r *SkillRepository) GetPending(ctx context.Context) ([]models.Skill, error) {
	return r.list(ctx, skillPendingQuery, nil)
}

// GetByID loads a skill expected to exist.
func (r *SkillRepository) GetByID(ctx context.Context, id string) (*models.Skill, error) {
	docs, err := r.db.Read(ctx, skillByIDQuery, typedb.Params{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get skill: %w", err)
	}
	if len(docs) == 0 {
		return nil, &appErrors.ItemRetrievalError{Entity: "skill", ID: id}
	}
	skill := mapSkill(docs[0])
	return &skill, nil
}

// Create inserts a skill, rejecting duplicate names.
func (r *SkillRepository) Create(ctx context.Context, skill *models.Skill) error {
	docs, err := r.db.Read(ctx, skillByNameQuery, typedb.Params{"name": skill.Name})
	if err != nil {
		return fmt.Errorf("check skill name: %w", err)
	}
	if len(docs) > 0 {
		return &appErrors.KeyConstraintError{Entity: "skill", Key: "name", Value: skill.Name}
	}

	if skill.ID == "" {
		skill.ID = uuid.NewString()
	}
	if skill.CreatedAt.IsZero() {
		skill.CreatedAt = time.Now().UTC()
	}
	err = r.db.Write(ctx, skillInsertQuery, typedb.Params{
		"id":         skill.ID,
		"name":       skill.Name,
		"is_pending": skill.IsPending,
		"created_at": skill.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("create skill: %w", err)
	}
	return nil
}

// Approve clears the pending flag on a proposed skill.
func (r *SkillRepository) Approve(ctx context.Context, id string) error {
	if err := r.db.Write(ctx, skillApproveQuery, typedb.Params{"id": id}); err != nil {
		return fmt.Errorf("approve skill: %w", err)
	}
	return nil
}

// GetAllThemes returns the theme catalog ordered by display order.
func (r *SkillRepository) GetAllThemes(ctx context.Context) ([]models.Theme, error) {
	docs, err := r.db.Read(ctx, themeAllQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("list themes: %w", err)
	}
	out := make([]models.Theme, 0, len(docs))
	for _, doc := range docs {
		out = append(out, models.Theme{
			ID:           doc.String("id"),
			Name:         doc.String("name"),
			SDGCode:      doc.StringPtr("sdg_code"),
			Icon:         doc.StringPtr("icon"),
			Color:        doc.StringPtr("color"),
			DisplayOrder: doc.IntPtr("display_order"),
		})
	}
	return out, nil
}

func (r *SkillRepository) list(ctx context.Context, query string, params typedb.Params) ([]models.Skill, error) {
	docs, err := r.db.Read(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	out := make([]models.Skill, 0, len(docs))
	for _, doc := range docs {
		out = append(out, mapSkill(doc))
	}
	return out, nil
}

func mapSkill(doc typedb.Document) models.Skill {
	return models.Skill{
		ID:        doc.String("id"),
		Name:      doc.String("name"),
		IsPending: doc.Bool("is_pending"),
		CreatedAt: doc.Time("created_at"),
	}
}

package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/skillmatch-hu/skillmatch-api/internal/models"
	"github.com/skillmatch-hu/skillmatch-api/pkg/typedb"
)

// PortfolioRepository reads completed work out of the live graph and
// persists the immutable snapshots that survive project deletion.
type PortfolioRepository struct {
	db typedb.Executor
}

// NewPortfolioRepository constructs the repository.
func NewPortfolioRepository(db typedb.Executor) *PortfolioRepository {
	return &PortfolioRepository{db: db}
}

// CompletedWork is one completed registration joined with its full project,
// business, task and skill context, ready to render or freeze.
type CompletedWork struct {
	ProjectID           string
	ProjectName         string
	ProjectDescription  string
	ProjectArchived     bool
	BusinessID          string
	BusinessName        string
	BusinessDescription string
	BusinessLocations   []string
	TaskID              string
	TaskName            string
	TaskDescription     string
	StudentID           string
	Skills              []string
	RequestedAt         time.Time
	AcceptedAt          *time.Time
	StartedAt           *time.Time
	CompletedAt         time.Time
}

const completedWorkFetch = `
fetch {
  "project_id": $p.id,
  "project_name": $p.name,
  "project_description": $p.description,
  "project_archived": $p.archived,
  "business_id": $b.id,
  "business_name": $b.name,
  "business_description": $b.description,
  "business_locations": [ $b.location ],
  "task_id": $t.id,
  "task_name": $t.name,
  "task_description": $t.description,
  "student_id": $stu.id,
  "skills": [
    match
    $ts isa task-skill (demander: $t, required: $s);
    fetch { "name": $s.name };
  ],
  "requested_at": $r.created-at,
  "accepted_at": $r.accepted-at,
  "started_at": $r.started-at,
  "completed_at": $done
};`

const completedByProjectQuery = `
match
$p isa project, has id ~project_id;
$bp isa business-project (owner: $b, venture: $p);
$pt isa project-task (parent: $p, unit: $t);
$r isa registration (registrant: $stu, target: $t), has completed-at $done;` + completedWorkFetch

const completedByStudentQuery = `
match
$stu isa student, has id ~student_id;
$r isa registration (registrant: $stu, target: $t), has completed-at $done;
$pt isa project-task (parent: $p, unit: $t);
$bp isa business-project (owner: $b, venture: $p);` + completedWorkFetch

const snapshotFetch = `
fetch {
  "id": $snap.id,
  "student_id": $stu.id,
  "created_at": $snap.created-at,
  "project_snapshot": $snap.project-snapshot,
  "task_snapshot": $snap.task-snapshot,
  "skills_snapshot": $snap.skills-snapshot,
  "timeline_snapshot": $snap.timeline-snapshot
};`

const snapshotsByStudentQuery = `
match
$stu isa student, has id ~student_id;
$own isa snapshot-ownership (owner: $stu, snapshot: $snap);` + snapshotFetch

const snapshotInsertQuery = `
match
$stu isa student, has id ~student_id;
insert
$snap isa portfolio-snapshot,
  has id ~id,
  has created-at ~created_at,
  has project-snapshot ~project_snapshot,
  has task-snapshot ~task_snapshot,
  has skills-snapshot ~skills_snapshot,
  has timeline-snapshot ~timeline_snapshot;
$own isa snapshot-ownership (owner: $stu, snapshot: $snap);`

const snapshotDeleteQuery = `
match
$snap isa portfolio-snapshot, has id ~id;
$own isa snapshot-ownership (snapshot: $snap);
delete
$own;
$snap;`

const snapshotDeleteAllForStudentQuery = `
match
$stu isa student, has id ~student_id;
$own isa snapshot-ownership (owner: $stu, snapshot: $snap);
delete
$own;
$snap;`

// ListCompletedByProject returns every completed registration under a
// project, joined with the context a snapshot needs.
func (r *PortfolioRepository) ListCompletedByProject(ctx context.Context, projectID string) ([]CompletedWork, error) {
	return r.listWork(ctx, completedByProjectQuery, typedb.Params{"project_id": projectID})
}

// ListLiveByStudent returns the student's completed registrations whose
// projects still exist.
func (r *PortfolioRepository) ListLiveByStudent(ctx context.Context, studentID string) ([]CompletedWork, error) {
	return r.listWork(ctx, completedByStudentQuery, typedb.Params{"student_id": studentID})
}

// InsertSnapshot persists an immutable snapshot owned by the student.
func (r *PortfolioRepository) InsertSnapshot(ctx context.Context, snapshot *models.PortfolioSnapshot) error {
	if snapshot.ID == "" {
		snapshot.ID = uuid.NewString()
	}
	if snapshot.CreatedAt.IsZero() {
		snapshot.CreatedAt = time.Now().UTC()
	}
	err := r.db.Write(ctx, snapshotInsertQuery, typedb.Params{
		"student_id":        snapshot.StudentID,
		"id":                snapshot.ID,
		"created_at":        snapshot.CreatedAt,
		"project_snapshot":  string(snapshot.ProjectSnapshot),
		"task_snapshot":     string(snapshot.TaskSnapshot),
		"skills_snapshot":   string(snapshot.SkillsSnapshot),
		"timeline_snapshot": string(snapshot.TimelineSnapshot),
	})
	if err != nil {
		return fmt.Errorf("insert portfolio snapshot: %w", err)
	}
	return nil
}

// ListSnapshotsByStudent returns the student's snapshots.
func (r *PortfolioRepository) ListSnapshotsByStudent(ctx context.Context, studentID string) ([]models.PortfolioSnapshot, error) {
	docs, err := r.db.Read(ctx, snapshotsByStudentQuery, typedb.Params{"student_id": studentID})
	if err != nil {
		return nil, fmt.Errorf("list portfolio snapshots: %w", err)
	}
	out := make([]models.PortfolioSnapshot, 0, len(docs))
	for _, doc := range docs {
		out = append(out, models.PortfolioSnapshot{
			ID:               doc.String("id"),
			StudentID:        doc.String("student_id"),
			CreatedAt:        doc.Time("created_at"),
			ProjectSnapshot:  []byte(doc.String("project_snapshot")),
			TaskSnapshot:     []byte(doc.String("task_snapshot")),
			SkillsSnapshot:   []byte(doc.String("skills_snapshot")),
			TimelineSnapshot: []byte(doc.String("timeline_snapshot")),
		})
	}
	return out, nil
}

// DeleteSnapshot removes one snapshot, for a student's right-to-erasure
// request.
func (r *PortfolioRepository) DeleteSnapshot(ctx context.Context, id string) error {
	if err := r.db.Write(ctx, snapshotDeleteQuery, typedb.Params{"id": id}); err != nil {
		return fmt.Errorf("delete portfolio snapshot: %w", err)
	}
	return nil
}

// DeleteAllForStudent removes every snapshot a student owns.
func (r *PortfolioRepository) DeleteAllForStudent(ctx context.Context, studentID string) error {
	if err := r.db.Write(ctx, snapshotDeleteAllForStudentQuery, typedb.Params{"student_id": studentID}); err != nil {
		return fmt.Errorf("delete portfolio snapshots: %w", err)
	}
	return nil
}

func (r *PortfolioRepository) listWork(ctx context.Context, query string, params typedb.Params) ([]CompletedWork, error) {
	docs, err := r.db.Read(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("list completed work: %w", err)
	}
	out := make([]CompletedWork, 0, len(docs))
	for _, doc := range docs {
		work := CompletedWork{
			ProjectID:           doc.String("project_id"),
			ProjectName:         doc.String("project_name"),
			ProjectDescription:  doc.String("project_description"),
			ProjectArchived:     doc.Bool("project_archived"),
			BusinessID:          doc.String("business_id"),
			BusinessName:        doc.String("business_name"),
			BusinessDescription: doc.String("business_description"),
			BusinessLocations:   doc.Strings("business_locations"),
			TaskID:              doc.String("task_id"),
			TaskName:            doc.String("task_name"),
			TaskDescription:     doc.String("task_description"),
			StudentID:           doc.String("student_id"),
			RequestedAt:         doc.Time("requested_at"),
			AcceptedAt:          doc.TimePtr("accepted_at"),
			StartedAt:           doc.TimePtr("started_at"),
			CompletedAt:         doc.Time("completed_at"),
		}
		for _, skillDoc := range doc.Docs("skills") {
			work.Skills = append(work.Skills, skillDoc.String("name"))
		}
		out = append(out, work)
	}
	return out, nil
}

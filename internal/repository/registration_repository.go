package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/skillmatch-hu/skillmatch-api/internal/models"
	appErrors "github.com/skillmatch-hu/skillmatch-api/pkg/errors"
	"github.com/skillmatch-hu/skillmatch-api/pkg/typedb"
)

// RegistrationRepository persists the registration relation between students
// and tasks, keyed by the (task, student) pair.
type RegistrationRepository struct {
	db typedb.Executor
}

// NewRegistrationRepository constructs the repository.
func NewRegistrationRepository(db typedb.Executor) *RegistrationRepository {
	return &RegistrationRepository{db: db}
}

const registrationFetch = `
fetch {
  "task_id": $t.id,
  "student_id": $stu.id,
  "description": $r.description,
  "is_accepted": $r.is-accepted,
  "response": $r.response,
  "created_at": $r.created-at,
  "accepted_at": $r.accepted-at,
  "started_at": $r.started-at,
  "completed_at": $r.completed-at,
  "registration_status": $r.registration-status
};`

const registrationByPairQuery = `
match
$t isa task, has id ~task_id;
$stu isa student, has id ~student_id;
$r isa registration (registrant: $stu, target: $t);` + registrationFetch

const registrationByTaskQuery = `
match
$t isa task, has id ~task_id;
$r isa registration (registrant: $stu, target: $t);` + registrationFetch

const registrationByStudentQuery = `
match
$stu isa student, has id ~student_id;
$r isa registration (registrant: $stu, target: $t);` + registrationFetch

const registrationInsertQuery = `
match
$t isa task, has id ~task_id;
$stu isa student, has id ~student_id;
insert
$r isa registration (registrant: $stu, target: $t),
  has description ~description,
  has created-at ~created_at;`

const registrationAcceptQuery = `
match
$t isa task, has id ~task_id;
$stu isa student, has id ~student_id;
$r isa registration (registrant: $stu, target: $t);
not { $r has is-accepted $decided; };
insert
$r has is-accepted true;
$r has accepted-at ~accepted_at;
$r has response ~response;`

const registrationDenyQuery = `
match
$t isa task, has id ~task_id;
$stu isa student, has id ~student_id;
$r isa registration (registrant: $stu, target: $t);
not { $r has is-accepted $decided; };
insert
$r has is-accepted false;
$r has response ~response;`

const registrationStartQuery = `
match
$t isa task, has id ~task_id;
$stu isa student, has id ~student_id;
$r isa registration (registrant: $stu, target: $t), has is-accepted true;
not { $r has started-at $started; };
insert
$r has started-at ~started_at;`

const registrationCloseQuery = `
match
$t isa task, has id ~task_id;
$stu isa student, has id ~student_id;
$r isa registration (registrant: $stu, target: $t);
not { $r has registration-status $closed; };
insert
$r has registration-status ~status;
$r has completed-at ~completed_at;`

// End review candidates: accepted registrations on tasks whose end date has
// passed, still open, with no pending request already on them.
const registrationEndReviewCandidatesQuery = `
match
$r isa registration (registrant: $stu, target: $t), has is-accepted true;
$t has id $tid, has end-date $end;
$end < ~today;
$stu has id $sid;
not { $r has registration-status $closed; };
not { $r has completed-at $done; };
not { $req isa status-change-request (subject: $r), has request-status "pending"; };
fetch {
  "task_id": $tid,
  "student_id": $sid
};`

// RegistrationKey identifies one registration.
type RegistrationKey struct {
	TaskID    string
	StudentID string
}

// Create inserts a registration for an existing (task, student) pair.
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	if existing, _ := r.GetByTaskAndStudent(ctx, reg.TaskID, reg.StudentID); existing != nil {
		return &appErrors.KeyConstraintError{Entity: "registration", Key: "task/student", Value: reg.TaskID + "/" + reg.StudentID}
	}
	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now().UTC()
	}
	err := r.db.Write(ctx, registrationInsertQuery, typedb.Params{
		"task_id":     reg.TaskID,
		"student_id":  reg.StudentID,
		"description": reg.Description,
		"created_at":  reg.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("create registration: %w", err)
	}
	return nil
}

// GetByTaskAndStudent loads a registration expected to exist.
func (r *RegistrationRepository) GetByTaskAndStudent(ctx context.Context, taskID, studentID string) (*models.Registration, error) {
	docs, err := r.db.Read(ctx, registrationByPairQuery, typedb.Params{
		"task_id":    taskID,
		"student_id": studentID,
	})
	if err != nil {
		return nil, fmt.Errorf("get registration: %w", err)
	}
	if len(docs) == 0 {
		return nil, &appErrors.ItemRetrievalError{Entity: "registration", ID: taskID + "/" + studentID}
	}
	return mapRegistration(docs[0]), nil
}

// GetByTask returns every registration on a task.
func (r *RegistrationRepository) GetByTask(ctx context.Context, taskID string) ([]models.Registration, error) {
	return r.list(ctx, registrationByTaskQuery, typedb.Params{"task_id": taskID})
}

// GetByStudent returns every registration a student holds.
func (r *RegistrationRepository) GetByStudent(ctx context.Context, studentID string) ([]models.Registration, error) {
	return r.list(ctx, registrationByStudentQuery, typedb.Params{"student_id": studentID})
}

// Accept marks an undecided registration accepted. The match guards against
// double decisions; a registration already decided is left untouched.
func (r *RegistrationRepository) Accept(ctx context.Context, taskID, studentID string, response *string, at time.Time) error {
	err := r.db.Write(ctx, registrationAcceptQuery, typedb.Params{
		"task_id":     taskID,
		"student_id":  studentID,
		"response":    response,
		"accepted_at": at,
	})
	if err != nil {
		return fmt.Errorf("accept registration: %w", err)
	}
	return nil
}

// Deny marks an undecided registration rejected.
func (r *RegistrationRepository) Deny(ctx context.Context, taskID, studentID string, response *string) error {
	err := r.db.Write(ctx, registrationDenyQuery, typedb.Params{
		"task_id":    taskID,
		"student_id": studentID,
		"response":   response,
	})
	if err != nil {
		return fmt.Errorf("deny registration: %w", err)
	}
	return nil
}

// Start records when an accepted registration's work began.
func (r *RegistrationRepository) Start(ctx context.Context, taskID, studentID string, at time.Time) error {
	err := r.db.Write(ctx, registrationStartQuery, typedb.Params{
		"task_id":    taskID,
		"student_id": studentID,
		"started_at": at,
	})
	if err != nil {
		return fmt.Errorf("start registration: %w", err)
	}
	return nil
}

// Close stamps the final status on a registration. Completion time is only
// recorded for finished work; a broken registration must never surface as
// completed, so its completed-at clause is elided.
func (r *RegistrationRepository) Close(ctx context.Context, taskID, studentID string, status models.RegistrationStatus, at time.Time) error {
	completedAt := &at
	if status != models.RegistrationFinished {
		completedAt = nil
	}
	err := r.db.Write(ctx, registrationCloseQuery, typedb.Params{
		"task_id":      taskID,
		"student_id":   studentID,
		"status":       string(status),
		"completed_at": completedAt,
	})
	if err != nil {
		return fmt.Errorf("close registration: %w", err)
	}
	return nil
}

// ListEndReviewCandidates returns open accepted registrations whose task end
// date lies before today and that have no pending request yet.
func (r *RegistrationRepository) ListEndReviewCandidates(ctx context.Context, today time.Time) ([]RegistrationKey, error) {
	day := typedb.Date(today)
	docs, err := r.db.Read(ctx, registrationEndReviewCandidatesQuery, typedb.Params{"today": day})
	if err != nil {
		return nil, fmt.Errorf("list end review candidates: %w", err)
	}
	out := make([]RegistrationKey, 0, len(docs))
	for _, doc := range docs {
		out = append(out, RegistrationKey{
			TaskID:    doc.String("task_id"),
			StudentID: doc.String("student_id"),
		})
	}
	return out, nil
}

func (r *RegistrationRepository) list(ctx context.Context, query string, params typedb.Params) ([]models.Registration, error) {
	docs, err := r.db.Read(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	out := make([]models.Registration, 0, len(docs))
	for _, doc := range docs {
		out = append(out, *mapRegistration(doc))
	}
	return out, nil
}

func mapRegistration(doc typedb.Document) *models.Registration {
	reg := &models.Registration{
		TaskID:      doc.String("task_id"),
		StudentID:   doc.String("student_id"),
		Description: doc.String("description"),
		IsAccepted:  doc.BoolPtr("is_accepted"),
		Response:    doc.StringPtr("response"),
		CreatedAt:   doc.Time("created_at"),
		AcceptedAt:  doc.TimePtr("accepted_at"),
		StartedAt:   doc.TimePtr("started_at"),
		CompletedAt: doc.TimePtr("completed_at"),
	}
	if s := doc.StringPtr("registration_status"); s != nil {
		status := models.RegistrationStatus(*s)
		reg.Status = &status
	}
	return reg
}

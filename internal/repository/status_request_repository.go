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

// StatusRequestRepository persists status change requests. A registration
// holds at most one pending request at a time; both the repository check and
// the insert guard enforce it.
type StatusRequestRepository struct {
	db typedb.Executor
}

// NewStatusRequestRepository constructs the repository.
func NewStatusRequestRepository(db typedb.Executor) *StatusRequestRepository {
	return &StatusRequestRepository{db: db}
}

const requestFetch = `
fetch {
  "id": $req.id,
  "task_id": $t.id,
  "student_id": $stu.id,
  "request_type": $req.request-type,
  "reason": $req.reason,
  "request_status": $req.request-status,
  "created_at": $req.created-at,
  "responded_at": $req.responded-at,
  "response_message": $req.response-message,
  "auto_approve_at": $req.auto-approve-at,
  "requester": [
    match
    $req isa status-change-request (requester: $ru);
    fetch { "id": $ru.id };
  ],
  "responder": [
    match
    $req isa status-change-request (responder: $rp);
    fetch { "id": $rp.id };
  ]
};`

const requestByIDQuery = `
match
$req isa status-change-request (subject: $r), has id ~id;
$r isa registration (registrant: $stu, target: $t);` + requestFetch

const requestPendingByPairQuery = `
match
$t isa task, has id ~task_id;
$stu isa student, has id ~student_id;
$r isa registration (registrant: $stu, target: $t);
$req isa status-change-request (subject: $r), has request-status "pending";` + requestFetch

// The insert repeats the no-pending guard so a racing create inserts
// nothing. Create re-reads the pending request afterwards and reports a
// foreign id as a conflict, so the loser of the race never gets a phantom
// request back.
const requestInsertQuery = `
match
$t isa task, has id ~task_id;
$stu isa student, has id ~student_id;
$u isa user, has id ~requester_id;
$r isa registration (registrant: $stu, target: $t);
not { $other isa status-change-request (subject: $r), has request-status "pending"; };
insert
$req isa status-change-request (subject: $r, requester: $u),
  has id ~id,
  has request-type ~type,
  has reason ~reason,
  has request-status "pending",
  has created-at ~created_at;`

// System-generated end reviews have no requester and carry the auto-approve
// deadline.
const requestInsertSystemQuery = `
match
$t isa task, has id ~task_id;
$stu isa student, has id ~student_id;
$r isa registration (registrant: $stu, target: $t);
not { $other isa status-change-request (subject: $r), has request-status "pending"; };
insert
$req isa status-change-request (subject: $r),
  has id ~id,
  has request-type ~type,
  has reason ~reason,
  has request-status "pending",
  has created-at ~created_at,
  has auto-approve-at ~auto_approve_at;`

const requestRespondQuery = `
match
$req isa status-change-request, has id ~id, has request-status "pending";
$u isa user, has id ~responder_id;
update
$req has request-status ~status;
$req has responded-at ~responded_at;
$req has response-message ~message;
insert
$req links (responder: $u);`

const requestAutoApproveQuery = `
match
$req isa status-change-request, has id ~id, has request-status "pending";
update
$req has request-status "auto_approved";
$req has responded-at ~responded_at;
$req has response-message ~message;`

const requestsPendingForStudentQuery = `
match
$stu isa student, has id ~user_id;
$r isa registration (registrant: $stu, target: $t);
$req isa status-change-request (subject: $r), has request-status "pending";
not { $req isa status-change-request (requester: $stu); };` + requestFetch

const requestsPendingForSupervisorQuery = `
match
$sup isa supervisor, has id ~user_id, has business-id $bid;
$b isa business, has id $bid;
$bp isa business-project (owner: $b, venture: $p);
$pt isa project-task (parent: $p, unit: $t);
$r isa registration (registrant: $stu, target: $t);
$req isa status-change-request (subject: $r), has request-status "pending";
not { $req isa status-change-request (requester: $sup); };` + requestFetch

const requestsExpiredQuery = `
match
$req isa status-change-request (subject: $r),
  has request-type "end_review",
  has request-status "pending",
  has auto-approve-at $deadline;
$deadline < ~now;
$r isa registration (registrant: $stu, target: $t);` + requestFetch

// Create inserts a pending request, with or without a requester. It fails
// with ConflictingRequestError when the registration already has one
// pending.
func (r *StatusRequestRepository) Create(ctx context.Context, req *models.StatusChangeRequest) error {
	pending, err := r.GetPendingByRegistration(ctx, req.TaskID, req.StudentID)
	if err != nil {
		return err
	}
	if pending != nil {
		return &appErrors.ConflictingRequestError{TaskID: req.TaskID, StudentID: req.StudentID}
	}

	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	req.Status = models.RequestPending

	if req.RequesterID == nil {
		err = r.db.Write(ctx, requestInsertSystemQuery, typedb.Params{
			"task_id":         req.TaskID,
			"student_id":      req.StudentID,
			"id":              req.ID,
			"type":            string(req.Type),
			"reason":          req.Reason,
			"created_at":      req.CreatedAt,
			"auto_approve_at": req.AutoApproveAt,
		})
	} else {
		err = r.db.Write(ctx, requestInsertQuery, typedb.Params{
			"task_id":      req.TaskID,
			"student_id":   req.StudentID,
			"requester_id": *req.RequesterID,
			"id":           req.ID,
			"type":         string(req.Type),
			"reason":       req.Reason,
			"created_at":   req.CreatedAt,
		})
	}
	if err != nil {
		return fmt.Errorf("create status change request: %w", err)
	}

	// The guarded insert is a no-op when another request won the race
	// between the precheck and the write. Whoever holds the pending slot
	// now decides the outcome: anyone but us means we lost.
	stored, err := r.GetPendingByRegistration(ctx, req.TaskID, req.StudentID)
	if err != nil {
		return err
	}
	if stored == nil || stored.ID != req.ID {
		return &appErrors.ConflictingRequestError{TaskID: req.TaskID, StudentID: req.StudentID}
	}
	return nil
}

// GetByID loads a request expected to exist.
func (r *StatusRequestRepository) GetByID(ctx context.Context, id string) (*models.StatusChangeRequest, error) {
	docs, err := r.db.Read(ctx, requestByIDQuery, typedb.Params{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get status change request: %w", err)
	}
	if len(docs) == 0 {
		return nil, &appErrors.ItemRetrievalError{Entity: "status change request", ID: id}
	}
	return mapRequest(docs[0]), nil
}

// GetPendingByRegistration returns the pending request on a registration, or
// nil when there is none.
func (r *StatusRequestRepository) GetPendingByRegistration(ctx context.Context, taskID, studentID string) (*models.StatusChangeRequest, error) {
	docs, err := r.db.Read(ctx, requestPendingByPairQuery, typedb.Params{
		"task_id":    taskID,
		"student_id": studentID,
	})
	if err != nil {
		return nil, fmt.Errorf("get pending request: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return mapRequest(docs[0]), nil
}

// Respond closes a pending request with the responder's decision. The match
// only binds while the request is still pending, so a stale respond is a
// no-op at the store level; callers detect it by re-reading.
func (r *StatusRequestRepository) Respond(ctx context.Context, id, responderID string, status models.RequestStatus, message *string, at time.Time) error {
	err := r.db.Write(ctx, requestRespondQuery, typedb.Params{
		"id":           id,
		"responder_id": responderID,
		"status":       string(status),
		"responded_at": at,
		"message":      message,
	})
	if err != nil {
		return fmt.Errorf("respond to request: %w", err)
	}
	return nil
}

// MarkAutoApproved closes a pending request without a responder.
func (r *StatusRequestRepository) MarkAutoApproved(ctx context.Context, id string, message string, at time.Time) error {
	err := r.db.Write(ctx, requestAutoApproveQuery, typedb.Params{
		"id":           id,
		"responded_at": at,
		"message":      message,
	})
	if err != nil {
		return fmt.Errorf("auto approve request: %w", err)
	}
	return nil
}

// ListPendingForStudent returns pending requests on the student's own
// registrations, excluding requests the student raised.
func (r *StatusRequestRepository) ListPendingForStudent(ctx context.Context, studentID string) ([]models.StatusChangeRequest, error) {
	return r.list(ctx, requestsPendingForStudentQuery, typedb.Params{"user_id": studentID})
}

// ListPendingForSupervisor returns pending requests on registrations under
// the supervisor's business, excluding requests the supervisor raised.
func (r *StatusRequestRepository) ListPendingForSupervisor(ctx context.Context, supervisorID string) ([]models.StatusChangeRequest, error) {
	return r.list(ctx, requestsPendingForSupervisorQuery, typedb.Params{"user_id": supervisorID})
}

// ListExpiredEndReviews returns pending end reviews whose auto-approve
// deadline lies before now.
func (r *StatusRequestRepository) ListExpiredEndReviews(ctx context.Context, now time.Time) ([]models.StatusChangeRequest, error) {
	return r.list(ctx, requestsExpiredQuery, typedb.Params{"now": now})
}

func (r *StatusRequestRepository) list(ctx context.Context, query string, params typedb.Params) ([]models.StatusChangeRequest, error) {
	docs, err := r.db.Read(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("list status change requests: %w", err)
	}
	out := make([]models.StatusChangeRequest, 0, len(docs))
	for _, doc := range docs {
		out = append(out, *mapRequest(doc))
	}
	return out, nil
}

func mapRequest(doc typedb.Document) *models.StatusChangeRequest {
	req := &models.StatusChangeRequest{
		ID:              doc.String("id"),
		TaskID:          doc.String("task_id"),
		StudentID:       doc.String("student_id"),
		Type:            models.RequestType(doc.String("request_type")),
		Reason:          doc.String("reason"),
		Status:          models.RequestStatus(doc.String("request_status")),
		CreatedAt:       doc.Time("created_at"),
		RespondedAt:     doc.TimePtr("responded_at"),
		ResponseMessage: doc.StringPtr("response_message"),
		AutoApproveAt:   doc.TimePtr("auto_approve_at"),
	}
	if players := doc.Docs("requester"); len(players) > 0 {
		req.RequesterID = players[0].StringPtr("id")
	}
	if players := doc.Docs("responder"); len(players) > 0 {
		req.ResponderID = players[0].StringPtr("id")
	}
	return req
}

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/skillmatch-hu/skillmatch-api/internal/models"
	appErrors "github.com/skillmatch-hu/skillmatch-api/pkg/errors"
	"github.com/skillmatch-hu/skillmatch-api/pkg/typedb"
)

type readCall struct {
	template string
	params   typedb.Params
}

type writeCall struct {
	template string
	params   typedb.Params
}

// stubExecutor records queries and feeds canned fetch answers back, the seam
// all repository tests share.
type stubExecutor struct {
	reads       []readCall
	writes      []writeCall
	readResults [][]typedb.Document
	writeErr    error
}

func (s *stubExecutor) Read(_ context.Context, template string, params typedb.Params) ([]typedb.Document, error) {
	s.reads = append(s.reads, readCall{template: template, params: params})
	if len(s.readResults) == 0 {
		return nil, nil
	}
	result := s.readResults[0]
	s.readResults = s.readResults[1:]
	return result, nil
}

func (s *stubExecutor) Write(_ context.Context, template string, params typedb.Params) error {
	s.writes = append(s.writes, writeCall{template: template, params: params})
	return s.writeErr
}

func pendingRequestDoc() typedb.Document {
	return typedb.Document{
		"id":             "req-1",
		"task_id":        "task-1",
		"student_id":     "student-1",
		"request_type":   "completion",
		"reason":         "done",
		"request_status": "pending",
		"created_at":     "2025-06-01T12:00:00Z",
		"requester":      []any{map[string]any{"id": "student-1"}},
	}
}

func TestStatusRequestCreateRejectsSecondPending(t *testing.T) {
	exec := &stubExecutor{readResults: [][]typedb.Document{{pendingRequestDoc()}}}
	repo := NewStatusRequestRepository(exec)

	requester := "sup-1"
	err := repo.Create(context.Background(), &models.StatusChangeRequest{
		TaskID:      "task-1",
		StudentID:   "student-1",
		Type:        models.RequestCancellation,
		Reason:      "stalled",
		RequesterID: &requester,
	})
	var conflict *appErrors.ConflictingRequestError
	require.ErrorAs(t, err, &conflict)
	require.Empty(t, exec.writes)
}

// storedPendingDoc feeds the post-insert verification read that Create runs
// to confirm its own request holds the pending slot.
func storedPendingDoc(id string) typedb.Document {
	doc := pendingRequestDoc()
	doc["id"] = id
	return doc
}

func TestStatusRequestCreateWithRequester(t *testing.T) {
	exec := &stubExecutor{readResults: [][]typedb.Document{nil, {storedPendingDoc("req-42")}}}
	repo := NewStatusRequestRepository(exec)

	requester := "student-1"
	req := &models.StatusChangeRequest{
		ID:          "req-42",
		TaskID:      "task-1",
		StudentID:   "student-1",
		Type:        models.RequestCompletion,
		Reason:      "done",
		RequesterID: &requester,
	}
	require.NoError(t, repo.Create(context.Background(), req))
	require.Equal(t, models.RequestPending, req.Status)

	require.Len(t, exec.writes, 1)
	require.Equal(t, requestInsertQuery, exec.writes[0].template)
	require.Equal(t, "student-1", exec.writes[0].params["requester_id"])
}

func TestStatusRequestCreateSystemHasNoRequester(t *testing.T) {
	exec := &stubExecutor{readResults: [][]typedb.Document{nil, {storedPendingDoc("rev-1")}}}
	repo := NewStatusRequestRepository(exec)

	deadline := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	req := &models.StatusChangeRequest{
		ID:            "rev-1",
		TaskID:        "task-1",
		StudentID:     "student-1",
		Type:          models.RequestEndReview,
		Reason:        "Task end date has passed.",
		AutoApproveAt: &deadline,
	}
	require.NoError(t, repo.Create(context.Background(), req))

	require.Len(t, exec.writes, 1)
	require.Equal(t, requestInsertSystemQuery, exec.writes[0].template)
	require.NotContains(t, exec.writes[0].params, "requester_id")
	require.Equal(t, &deadline, exec.writes[0].params["auto_approve_at"])
}

func TestStatusRequestCreateLosingRaceSurfacesConflict(t *testing.T) {
	// The precheck sees no pending request, but by the time the guarded
	// insert runs another create has taken the pending slot: the write is a
	// no-op and the verification read returns the winner's request.
	exec := &stubExecutor{readResults: [][]typedb.Document{nil, {storedPendingDoc("req-1")}}}
	repo := NewStatusRequestRepository(exec)

	requester := "sup-1"
	req := &models.StatusChangeRequest{
		TaskID:      "task-1",
		StudentID:   "student-1",
		Type:        models.RequestCancellation,
		Reason:      "stalled",
		RequesterID: &requester,
	}
	err := repo.Create(context.Background(), req)
	var conflict *appErrors.ConflictingRequestError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "task-1", conflict.TaskID)

	require.Len(t, exec.writes, 1)
	require.NotEmpty(t, exec.writes[0].params["id"])
	require.NotEqual(t, "req-1", exec.writes[0].params["id"])
}

func TestStatusRequestGetByIDMapsRolePlayers(t *testing.T) {
	doc := pendingRequestDoc()
	doc["responder"] = []any{map[string]any{"id": "sup-1"}}
	doc["responded_at"] = "2025-06-02T09:30:00Z"
	doc["request_status"] = "approved"
	exec := &stubExecutor{readResults: [][]typedb.Document{{doc}}}
	repo := NewStatusRequestRepository(exec)

	req, err := repo.GetByID(context.Background(), "req-1")
	require.NoError(t, err)
	require.Equal(t, "task-1", req.TaskID)
	require.Equal(t, models.RequestApproved, req.Status)
	require.NotNil(t, req.RequesterID)
	require.Equal(t, "student-1", *req.RequesterID)
	require.NotNil(t, req.ResponderID)
	require.Equal(t, "sup-1", *req.ResponderID)
	require.NotNil(t, req.RespondedAt)
	require.Equal(t, time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC), req.RespondedAt.UTC())
}

func TestStatusRequestGetByIDMissing(t *testing.T) {
	exec := &stubExecutor{}
	repo := NewStatusRequestRepository(exec)

	_, err := repo.GetByID(context.Background(), "req-404")
	var retrieval *appErrors.ItemRetrievalError
	require.ErrorAs(t, err, &retrieval)
	require.Equal(t, "req-404", retrieval.ID)
}

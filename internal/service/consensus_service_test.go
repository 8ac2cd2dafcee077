package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/skillmatch-hu/skillmatch-api/internal/models"
	"github.com/skillmatch-hu/skillmatch-api/internal/repository"
	appErrors "github.com/skillmatch-hu/skillmatch-api/pkg/errors"
)

type registrationStoreStub struct {
	regs       map[string]*models.Registration
	candidates []repository.RegistrationKey
}

func newRegistrationStoreStub() *registrationStoreStub {
	return &registrationStoreStub{regs: make(map[string]*models.Registration)}
}

func regKey(taskID, studentID string) string { return taskID + "/" + studentID }

func (s *registrationStoreStub) add(reg *models.Registration) {
	s.regs[regKey(reg.TaskID, reg.StudentID)] = reg
}

func (s *registrationStoreStub) GetByTaskAndStudent(_ context.Context, taskID, studentID string) (*models.Registration, error) {
	if reg, ok := s.regs[regKey(taskID, studentID)]; ok {
		copy := *reg
		return &copy, nil
	}
	return nil, &appErrors.ItemRetrievalError{Entity: "registration", ID: regKey(taskID, studentID)}
}

func (s *registrationStoreStub) Close(_ context.Context, taskID, studentID string, status models.RegistrationStatus, at time.Time) error {
	reg, ok := s.regs[regKey(taskID, studentID)]
	if !ok {
		return &appErrors.ItemRetrievalError{Entity: "registration", ID: regKey(taskID, studentID)}
	}
	reg.Status = &status
	if status == models.RegistrationFinished {
		reg.CompletedAt = &at
	}
	return nil
}

func (s *registrationStoreStub) ListEndReviewCandidates(_ context.Context, _ time.Time) ([]repository.RegistrationKey, error) {
	return s.candidates, nil
}

type requestStoreStub struct {
	requests map[string]*models.StatusChangeRequest
}

func newRequestStoreStub() *requestStoreStub {
	return &requestStoreStub{requests: make(map[string]*models.StatusChangeRequest)}
}

func (s *requestStoreStub) Create(_ context.Context, req *models.StatusChangeRequest) error {
	for _, existing := range s.requests {
		if existing.TaskID == req.TaskID && existing.StudentID == req.StudentID && existing.Status == models.RequestPending {
			return &appErrors.ConflictingRequestError{TaskID: req.TaskID, StudentID: req.StudentID}
		}
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.Status = models.RequestPending
	stored := *req
	s.requests[req.ID] = &stored
	return nil
}

func (s *requestStoreStub) GetByID(_ context.Context, id string) (*models.StatusChangeRequest, error) {
	if req, ok := s.requests[id]; ok {
		copy := *req
		return &copy, nil
	}
	return nil, &appErrors.ItemRetrievalError{Entity: "status change request", ID: id}
}

func (s *requestStoreStub) GetPendingByRegistration(_ context.Context, taskID, studentID string) (*models.StatusChangeRequest, error) {
	for _, req := range s.requests {
		if req.TaskID == taskID && req.StudentID == studentID && req.Status == models.RequestPending {
			copy := *req
			return &copy, nil
		}
	}
	return nil, nil
}

func (s *requestStoreStub) Respond(_ context.Context, id, responderID string, status models.RequestStatus, message *string, at time.Time) error {
	req, ok := s.requests[id]
	if !ok || req.Status != models.RequestPending {
		return nil
	}
	req.Status = status
	req.ResponderID = &responderID
	req.RespondedAt = &at
	req.ResponseMessage = message
	return nil
}

func (s *requestStoreStub) MarkAutoApproved(_ context.Context, id string, message string, at time.Time) error {
	req, ok := s.requests[id]
	if !ok || req.Status != models.RequestPending {
		return nil
	}
	req.Status = models.RequestAutoApproved
	req.RespondedAt = &at
	req.ResponseMessage = &message
	return nil
}

func (s *requestStoreStub) ListPendingForStudent(_ context.Context, studentID string) ([]models.StatusChangeRequest, error) {
	var out []models.StatusChangeRequest
	for _, req := range s.requests {
		if req.Status != models.RequestPending || req.StudentID != studentID {
			continue
		}
		if req.RequesterID != nil && *req.RequesterID == studentID {
			continue
		}
		out = append(out, *req)
	}
	return out, nil
}

func (s *requestStoreStub) ListPendingForSupervisor(_ context.Context, supervisorID string) ([]models.StatusChangeRequest, error) {
	var out []models.StatusChangeRequest
	for _, req := range s.requests {
		if req.Status != models.RequestPending {
			continue
		}
		if req.RequesterID != nil && *req.RequesterID == supervisorID {
			continue
		}
		out = append(out, *req)
	}
	return out, nil
}

func (s *requestStoreStub) ListExpiredEndReviews(_ context.Context, now time.Time) ([]models.StatusChangeRequest, error) {
	var out []models.StatusChangeRequest
	for _, req := range s.requests {
		if req.Status != models.RequestPending || req.Type != models.RequestEndReview {
			continue
		}
		if req.AutoApproveAt != nil && req.AutoApproveAt.Before(now) {
			out = append(out, *req)
		}
	}
	return out, nil
}

func boolPtr(b bool) *bool { return &b }

func acceptedRegistration(taskID, studentID string) *models.Registration {
	return &models.Registration{
		TaskID:     taskID,
		StudentID:  studentID,
		IsAccepted: boolPtr(true),
		CreatedAt:  time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC),
	}
}

func newConsensusFixture(t *testing.T) (*ConsensusService, *registrationStoreStub, *requestStoreStub) {
	t.Helper()
	regs := newRegistrationStoreStub()
	reqs := newRequestStoreStub()
	svc := NewConsensusService(regs, reqs, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc, regs, reqs
}

func TestCreateRequestHappyPath(t *testing.T) {
	svc, regs, _ := newConsensusFixture(t)
	regs.add(acceptedRegistration("task-1", "student-1"))

	req, err := svc.CreateRequest(context.Background(), "task-1", "student-1", "student-1", models.RequestCompletion, "all done")
	require.NoError(t, err)
	require.Equal(t, models.RequestPending, req.Status)
	require.NotEmpty(t, req.ID)
	require.NotNil(t, req.RequesterID)
	require.Equal(t, "student-1", *req.RequesterID)
	require.Nil(t, req.AutoApproveAt)
}

func TestCreateRequestRejectsSecondPending(t *testing.T) {
	svc, regs, _ := newConsensusFixture(t)
	regs.add(acceptedRegistration("task-1", "student-1"))

	_, err := svc.CreateRequest(context.Background(), "task-1", "student-1", "student-1", models.RequestCompletion, "done")
	require.NoError(t, err)

	_, err = svc.CreateRequest(context.Background(), "task-1", "student-1", "sup-1", models.RequestCancellation, "not working out")
	var conflict *appErrors.ConflictingRequestError
	require.ErrorAs(t, err, &conflict)
	require.Equal(t, "task-1", conflict.TaskID)
}

func TestCreateRequestRejectsEndReviewType(t *testing.T) {
	svc, regs, _ := newConsensusFixture(t)
	regs.add(acceptedRegistration("task-1", "student-1"))

	_, err := svc.CreateRequest(context.Background(), "task-1", "student-1", "student-1", models.RequestEndReview, "trying to cheat")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestCreateRequestOnClosedRegistration(t *testing.T) {
	svc, regs, _ := newConsensusFixture(t)
	reg := acceptedRegistration("task-1", "student-1")
	finished := models.RegistrationFinished
	reg.Status = &finished
	regs.add(reg)

	_, err := svc.CreateRequest(context.Background(), "task-1", "student-1", "student-1", models.RequestCompletion, "again")
	var transition *appErrors.InvalidTransitionError
	require.ErrorAs(t, err, &transition)
}

func TestRespondApproveFinishesRegistration(t *testing.T) {
	svc, regs, _ := newConsensusFixture(t)
	regs.add(acceptedRegistration("task-1", "student-1"))

	created, err := svc.CreateRequest(context.Background(), "task-1", "student-1", "student-1", models.RequestCompletion, "done")
	require.NoError(t, err)

	msg := "great work"
	resolved, err := svc.Respond(context.Background(), created.ID, "sup-1", true, &msg)
	require.NoError(t, err)
	require.Equal(t, models.RequestApproved, resolved.Status)
	require.NotNil(t, resolved.ResponderID)
	require.Equal(t, "sup-1", *resolved.ResponderID)
	require.NotNil(t, resolved.RespondedAt)

	reg, err := regs.GetByTaskAndStudent(context.Background(), "task-1", "student-1")
	require.NoError(t, err)
	require.Equal(t, models.RegistrationFinished, reg.EffectiveStatus())
	require.NotNil(t, reg.CompletedAt)
}

func TestRespondApproveCancellationBreaksRegistration(t *testing.T) {
	svc, regs, _ := newConsensusFixture(t)
	regs.add(acceptedRegistration("task-1", "student-1"))

	created, err := svc.CreateRequest(context.Background(), "task-1", "student-1", "sup-1", models.RequestCancellation, "project halted")
	require.NoError(t, err)

	resolved, err := svc.Respond(context.Background(), created.ID, "student-1", true, nil)
	require.NoError(t, err)

	// A missing response message is stored as the empty string, never as an
	// absent attribute.
	require.NotNil(t, resolved.ResponseMessage)
	require.Empty(t, *resolved.ResponseMessage)

	reg, err := regs.GetByTaskAndStudent(context.Background(), "task-1", "student-1")
	require.NoError(t, err)
	require.Equal(t, models.RegistrationBroken, reg.EffectiveStatus())

	// Cancelled work is not completed work: no completion stamp, so it can
	// never surface in a portfolio.
	require.Nil(t, reg.CompletedAt)
}

func TestRespondDenyLeavesRegistrationRunning(t *testing.T) {
	svc, regs, _ := newConsensusFixture(t)
	regs.add(acceptedRegistration("task-1", "student-1"))

	created, err := svc.CreateRequest(context.Background(), "task-1", "student-1", "student-1", models.RequestCompletion, "done")
	require.NoError(t, err)

	msg := "tasks remain open"
	resolved, err := svc.Respond(context.Background(), created.ID, "sup-1", false, &msg)
	require.NoError(t, err)
	require.Equal(t, models.RequestDenied, resolved.Status)

	reg, err := regs.GetByTaskAndStudent(context.Background(), "task-1", "student-1")
	require.NoError(t, err)
	require.Equal(t, models.RegistrationRunning, reg.EffectiveStatus())
	require.Nil(t, reg.CompletedAt)
}

func TestRespondTwiceFails(t *testing.T) {
	svc, regs, _ := newConsensusFixture(t)
	regs.add(acceptedRegistration("task-1", "student-1"))

	created, err := svc.CreateRequest(context.Background(), "task-1", "student-1", "student-1", models.RequestCompletion, "done")
	require.NoError(t, err)

	_, err = svc.Respond(context.Background(), created.ID, "sup-1", true, nil)
	require.NoError(t, err)

	_, err = svc.Respond(context.Background(), created.ID, "sup-1", false, nil)
	var transition *appErrors.InvalidTransitionError
	require.ErrorAs(t, err, &transition)
	require.Equal(t, string(models.RequestApproved), transition.From)
}

func TestCreateEndReviewRequiresOpenRegistration(t *testing.T) {
	svc, regs, _ := newConsensusFixture(t)
	reg := acceptedRegistration("task-1", "student-1")
	broken := models.RegistrationBroken
	reg.Status = &broken
	regs.add(reg)

	_, err := svc.CreateEndReview(context.Background(), "task-1", "student-1")
	var transition *appErrors.InvalidTransitionError
	require.ErrorAs(t, err, &transition)
	require.Equal(t, string(models.RegistrationBroken), transition.From)
}

func TestCheckAndCreateEndReviews(t *testing.T) {
	svc, regs, reqs := newConsensusFixture(t)
	regs.add(acceptedRegistration("task-1", "student-1"))
	regs.add(acceptedRegistration("task-2", "student-2"))
	regs.candidates = []repository.RegistrationKey{
		{TaskID: "task-1", StudentID: "student-1"},
		{TaskID: "task-2", StudentID: "student-2"},
	}

	// student-2 already has a pending request; the sweep must skip it.
	_, err := svc.CreateRequest(context.Background(), "task-2", "student-2", "student-2", models.RequestCompletion, "done")
	require.NoError(t, err)

	created, err := svc.CheckAndCreateEndReviews(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, created)

	pending, err := reqs.GetPendingByRegistration(context.Background(), "task-1", "student-1")
	require.NoError(t, err)
	require.NotNil(t, pending)
	require.Equal(t, models.RequestEndReview, pending.Type)
	require.Nil(t, pending.RequesterID)
	require.NotNil(t, pending.AutoApproveAt)
	require.Equal(t, svc.now().Add(14*24*time.Hour), *pending.AutoApproveAt)

	// Rerunning the sweep creates nothing new.
	created, err = svc.CheckAndCreateEndReviews(context.Background())
	require.NoError(t, err)
	require.Zero(t, created)
}

func TestAutoApproveExpired(t *testing.T) {
	svc, regs, reqs := newConsensusFixture(t)
	regs.add(acceptedRegistration("task-1", "student-1"))
	regs.candidates = []repository.RegistrationKey{{TaskID: "task-1", StudentID: "student-1"}}

	_, err := svc.CheckAndCreateEndReviews(context.Background())
	require.NoError(t, err)

	// Nothing expires before the deadline.
	approved, err := svc.AutoApproveExpired(context.Background())
	require.NoError(t, err)
	require.Zero(t, approved)

	// Move the clock past the two-week window.
	svc.now = func() time.Time { return time.Date(2025, 6, 16, 12, 0, 0, 0, time.UTC) }

	approved, err = svc.AutoApproveExpired(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, approved)

	var request *models.StatusChangeRequest
	for _, req := range reqs.requests {
		request = req
	}
	require.NotNil(t, request)
	require.Equal(t, models.RequestAutoApproved, request.Status)
	require.Nil(t, request.ResponderID)
	require.NotNil(t, request.ResponseMessage)
	require.Equal(t, "Automatically approved after 14 days without response.", *request.ResponseMessage)

	reg, err := regs.GetByTaskAndStudent(context.Background(), "task-1", "student-1")
	require.NoError(t, err)
	require.Equal(t, models.RegistrationFinished, reg.EffectiveStatus())

	// The sweep is idempotent.
	approved, err = svc.AutoApproveExpired(context.Background())
	require.NoError(t, err)
	require.Zero(t, approved)
}

func TestGetPendingForUserFiltersByRole(t *testing.T) {
	svc, regs, _ := newConsensusFixture(t)
	regs.add(acceptedRegistration("task-1", "student-1"))

	_, err := svc.CreateRequest(context.Background(), "task-1", "student-1", "student-1", models.RequestCompletion, "done")
	require.NoError(t, err)

	// The raising student does not see their own request.
	pending, err := svc.GetPendingForUser(context.Background(), &models.User{ID: "student-1", Role: models.RoleStudent})
	require.NoError(t, err)
	require.Empty(t, pending)

	// The supervisor side does.
	pending, err = svc.GetPendingForUser(context.Background(), &models.User{ID: "sup-1", Role: models.RoleSupervisor})
	require.NoError(t, err)
	require.Len(t, pending, 1)

	// Teachers decide nothing.
	pending, err = svc.GetPendingForUser(context.Background(), &models.User{ID: "teacher-1", Role: models.RoleTeacher})
	require.NoError(t, err)
	require.Empty(t, pending)
}

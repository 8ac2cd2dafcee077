package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/skillmatch-hu/skillmatch-api/internal/models"
	"github.com/skillmatch-hu/skillmatch-api/internal/repository"
	appErrors "github.com/skillmatch-hu/skillmatch-api/pkg/errors"
)

const (
	// autoApproveWindow is how long an end review may sit unanswered before
	// the system approves it on the student's behalf.
	autoApproveWindow = 14 * 24 * time.Hour

	autoApproveMessage = "Automatically approved after 14 days without response."

	endReviewReason = "Task end date has passed."
)

type registrationStore interface {
	GetByTaskAndStudent(ctx context.Context, taskID, studentID string) (*models.Registration, error)
	Close(ctx context.Context, taskID, studentID string, status models.RegistrationStatus, at time.Time) error
	ListEndReviewCandidates(ctx context.Context, today time.Time) ([]repository.RegistrationKey, error)
}

type requestStore interface {
	Create(ctx context.Context, req *models.StatusChangeRequest) error
	GetByID(ctx context.Context, id string) (*models.StatusChangeRequest, error)
	GetPendingByRegistration(ctx context.Context, taskID, studentID string) (*models.StatusChangeRequest, error)
	Respond(ctx context.Context, id, responderID string, status models.RequestStatus, message *string, at time.Time) error
	MarkAutoApproved(ctx context.Context, id string, message string, at time.Time) error
	ListPendingForStudent(ctx context.Context, studentID string) ([]models.StatusChangeRequest, error)
	ListPendingForSupervisor(ctx context.Context, supervisorID string) ([]models.StatusChangeRequest, error)
	ListExpiredEndReviews(ctx context.Context, now time.Time) ([]models.StatusChangeRequest, error)
}

// ConsensusService runs the status change workflow: one party proposes ending
// a registration, the other side approves or denies, and unanswered end
// reviews approve themselves after two weeks.
type ConsensusService struct {
	registrations registrationStore
	requests      requestStore
	logger        *zap.Logger
	now           func() time.Time
}

// NewConsensusService constructs the service.
func NewConsensusService(registrations registrationStore, requests requestStore, logger *zap.Logger) *ConsensusService {
	return &ConsensusService{
		registrations: registrations,
		requests:      requests,
		logger:        logger,
		now:           time.Now,
	}
}

// CreateRequest opens a completion or cancellation request on an open
// registration. End reviews are system-generated and cannot be raised here.
func (s *ConsensusService) CreateRequest(ctx context.Context, taskID, studentID, requesterID string, reqType models.RequestType, reason string) (*models.StatusChangeRequest, error) {
	if reqType != models.RequestCompletion && reqType != models.RequestCancellation {
		return nil, appErrors.Wrap(
			fmt.Errorf("request type %q cannot be raised by a user", reqType),
			appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request type",
		)
	}

	reg, err := s.registrations.GetByTaskAndStudent(ctx, taskID, studentID)
	if err != nil {
		return nil, err
	}
	if reg.EffectiveStatus() != models.RegistrationRunning {
		return nil, &appErrors.InvalidTransitionError{
			RequestID: taskID + "/" + studentID,
			From:      string(reg.EffectiveStatus()),
			Op:        "open request on",
		}
	}
	if reg.IsAccepted == nil || !*reg.IsAccepted {
		return nil, &appErrors.InvalidTransitionError{
			RequestID: taskID + "/" + studentID,
			From:      "unaccepted",
			Op:        "open request on",
		}
	}

	req := &models.StatusChangeRequest{
		TaskID:      taskID,
		StudentID:   studentID,
		Type:        reqType,
		Reason:      reason,
		RequesterID: &requesterID,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info("status change request created",
		zap.String("request_id", req.ID),
		zap.String("task_id", taskID),
		zap.String("student_id", studentID),
		zap.String("type", string(reqType)),
	)
	return req, nil
}

// Respond records the counterpart's decision on a pending request. Approval
// closes the registration with the outcome the request type implies; denial
// leaves it running.
func (s *ConsensusService) Respond(ctx context.Context, requestID, responderID string, approve bool, message *string) (*models.StatusChangeRequest, error) {
	if message == nil {
		empty := ""
		message = &empty
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != models.RequestPending {
		return nil, &appErrors.InvalidTransitionError{
			RequestID: requestID,
			From:      string(req.Status),
			Op:        "respond to",
		}
	}

	status := models.RequestDenied
	if approve {
		status = models.RequestApproved
	}
	at := s.now().UTC()
	if err := s.requests.Respond(ctx, requestID, responderID, status, message, at); err != nil {
		return nil, err
	}

	if approve {
		if err := s.registrations.Close(ctx, req.TaskID, req.StudentID, req.Type.Outcome(), at); err != nil {
			return nil, fmt.Errorf("close registration after approval: %w", err)
		}
	}

	s.logger.Info("status change request resolved",
		zap.String("request_id", requestID),
		zap.String("responder_id", responderID),
		zap.String("status", string(status)),
	)
	return s.requests.GetByID(ctx, requestID)
}

// CreateEndReview opens a system-generated review on an accepted, still open
// registration. It has no requester, so either side may respond, and it
// carries the deadline after which it approves itself.
func (s *ConsensusService) CreateEndReview(ctx context.Context, taskID, studentID string) (*models.StatusChangeRequest, error) {
	reg, err := s.registrations.GetByTaskAndStudent(ctx, taskID, studentID)
	if err != nil {
		return nil, err
	}
	if reg.EffectiveStatus() != models.RegistrationRunning || reg.CompletedAt != nil {
		return nil, &appErrors.InvalidTransitionError{
			RequestID: taskID + "/" + studentID,
			From:      string(reg.EffectiveStatus()),
			Op:        "open end review on",
		}
	}
	if reg.IsAccepted == nil || !*reg.IsAccepted {
		return nil, &appErrors.InvalidTransitionError{
			RequestID: taskID + "/" + studentID,
			From:      "unaccepted",
			Op:        "open end review on",
		}
	}

	now := s.now().UTC()
	deadline := now.Add(autoApproveWindow)
	req := &models.StatusChangeRequest{
		TaskID:        taskID,
		StudentID:     studentID,
		Type:          models.RequestEndReview,
		Reason:        endReviewReason,
		CreatedAt:     now,
		AutoApproveAt: &deadline,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// CheckAndCreateEndReviews opens an end review for every accepted, still open
// registration whose task end date has passed and that has no pending request
// yet. The sweep is idempotent: rerunning it creates nothing new.
func (s *ConsensusService) CheckAndCreateEndReviews(ctx context.Context) (int, error) {
	now := s.now().UTC()
	candidates, err := s.registrations.ListEndReviewCandidates(ctx, now)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, key := range candidates {
		_, err := s.CreateEndReview(ctx, key.TaskID, key.StudentID)
		if err != nil {
			// Another sweep or a user beat us to it between the candidate
			// query and the insert.
			var conflict *appErrors.ConflictingRequestError
			if errors.As(err, &conflict) {
				continue
			}
			return created, err
		}
		created++
	}

	if created > 0 {
		s.logger.Info("end reviews created", zap.Int("count", created))
	}
	return created, nil
}

// AutoApproveExpired closes every pending end review whose deadline has
// passed, finishing the underlying registration.
func (s *ConsensusService) AutoApproveExpired(ctx context.Context) (int, error) {
	now := s.now().UTC()
	expired, err := s.requests.ListExpiredEndReviews(ctx, now)
	if err != nil {
		return 0, err
	}

	approved := 0
	for _, req := range expired {
		if err := s.requests.MarkAutoApproved(ctx, req.ID, autoApproveMessage, now); err != nil {
			return approved, err
		}
		if err := s.registrations.Close(ctx, req.TaskID, req.StudentID, req.Type.Outcome(), now); err != nil {
			return approved, fmt.Errorf("close registration after auto approval: %w", err)
		}
		approved++
	}

	if approved > 0 {
		s.logger.Info("end reviews auto approved", zap.Int("count", approved))
	}
	return approved, nil
}

// GetPendingForUser returns the pending requests awaiting this user's
// decision. Requests the user raised themselves are excluded; teachers have
// no registrations to decide on.
func (s *ConsensusService) GetPendingForUser(ctx context.Context, user *models.User) ([]models.StatusChangeRequest, error) {
	switch user.Role {
	case models.RoleStudent:
		return s.requests.ListPendingForStudent(ctx, user.ID)
	case models.RoleSupervisor:
		return s.requests.ListPendingForSupervisor(ctx, user.ID)
	default:
		return nil, nil
	}
}

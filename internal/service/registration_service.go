package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/skillmatch-hu/skillmatch-api/internal/models"
	appErrors "github.com/skillmatch-hu/skillmatch-api/pkg/errors"
)

type registrationLifecycleStore interface {
	Create(ctx context.Context, reg *models.Registration) error
	GetByTaskAndStudent(ctx context.Context, taskID, studentID string) (*models.Registration, error)
	GetByTask(ctx context.Context, taskID string) ([]models.Registration, error)
	GetByStudent(ctx context.Context, studentID string) ([]models.Registration, error)
	Accept(ctx context.Context, taskID, studentID string, response *string, at time.Time) error
	Deny(ctx context.Context, taskID, studentID string, response *string) error
	Start(ctx context.Context, taskID, studentID string, at time.Time) error
}

type registrationTaskStore interface {
	GetByID(ctx context.Context, id string) (*models.Task, error)
}

// RegistrationService handles the registration lifecycle up to the point the
// consensus workflow takes over: apply, accept or deny, start.
type RegistrationService struct {
	registrations registrationLifecycleStore
	tasks         registrationTaskStore
	logger        *zap.Logger
	now           func() time.Time
}

// NewRegistrationService constructs the service.
func NewRegistrationService(registrations registrationLifecycleStore, tasks registrationTaskStore, logger *zap.Logger) *RegistrationService {
	return &RegistrationService{
		registrations: registrations,
		tasks:         tasks,
		logger:        logger,
		now:           time.Now,
	}
}

// Register applies a student to a task. Capacity is advisory: when the task
// is full the application still lands, the supervisor decides.
func (s *RegistrationService) Register(ctx context.Context, taskID, studentID, description string) (*models.Registration, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	reg := &models.Registration{
		TaskID:      taskID,
		StudentID:   studentID,
		Description: description,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.registrations.Create(ctx, reg); err != nil {
		return nil, err
	}

	if existing, err := s.registrations.GetByTask(ctx, taskID); err == nil {
		accepted := 0
		for _, other := range existing {
			if other.IsAccepted != nil && *other.IsAccepted {
				accepted++
			}
		}
		if accepted >= task.TotalNeeded {
			s.logger.Info("registration on full task",
				zap.String("task_id", taskID),
				zap.Int("accepted", accepted),
				zap.Int("needed", task.TotalNeeded),
			)
		}
	}
	return reg, nil
}

// Accept approves an application. Only undecided registrations move.
func (s *RegistrationService) Accept(ctx context.Context, taskID, studentID string, response *string) error {
	reg, err := s.registrations.GetByTaskAndStudent(ctx, taskID, studentID)
	if err != nil {
		return err
	}
	if reg.IsAccepted != nil {
		return &appErrors.InvalidTransitionError{
			RequestID: taskID + "/" + studentID,
			From:      "decided",
			Op:        "accept",
		}
	}
	return s.registrations.Accept(ctx, taskID, studentID, response, s.now().UTC())
}

// Deny rejects an application.
func (s *RegistrationService) Deny(ctx context.Context, taskID, studentID string, response *string) error {
	reg, err := s.registrations.GetByTaskAndStudent(ctx, taskID, studentID)
	if err != nil {
		return err
	}
	if reg.IsAccepted != nil {
		return &appErrors.InvalidTransitionError{
			RequestID: taskID + "/" + studentID,
			From:      "decided",
			Op:        "deny",
		}
	}
	return s.registrations.Deny(ctx, taskID, studentID, response)
}

// Start stamps the moment an accepted registration's work began.
func (s *RegistrationService) Start(ctx context.Context, taskID, studentID string) error {
	reg, err := s.registrations.GetByTaskAndStudent(ctx, taskID, studentID)
	if err != nil {
		return err
	}
	if reg.IsAccepted == nil || !*reg.IsAccepted {
		return &appErrors.InvalidTransitionError{
			RequestID: taskID + "/" + studentID,
			From:      "unaccepted",
			Op:        "start",
		}
	}
	if reg.StartedAt != nil {
		return &appErrors.InvalidTransitionError{
			RequestID: taskID + "/" + studentID,
			From:      "started",
			Op:        "start",
		}
	}
	return s.registrations.Start(ctx, taskID, studentID, s.now().UTC())
}

// GetForStudent returns the student's registrations.
func (s *RegistrationService) GetForStudent(ctx context.Context, studentID string) ([]models.Registration, error) {
	return s.registrations.GetByStudent(ctx, studentID)
}

// GetForTask returns every registration on a task.
func (s *RegistrationService) GetForTask(ctx context.Context, taskID string) ([]models.Registration, error) {
	return s.registrations.GetByTask(ctx, taskID)
}

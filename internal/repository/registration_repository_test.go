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

func registrationDoc() typedb.Document {
	return typedb.Document{
		"task_id":     "task-1",
		"student_id":  "student-1",
		"description": "I would like to join",
		"is_accepted": true,
		"created_at":  "2025-02-20T09:00:00Z",
		"accepted_at": "2025-03-01T09:00:00Z",
	}
}

func TestRegistrationCreateRejectsDuplicatePair(t *testing.T) {
	exec := &stubExecutor{readResults: [][]typedb.Document{{registrationDoc()}}}
	repo := NewRegistrationRepository(exec)

	err := repo.Create(context.Background(), &models.Registration{
		TaskID:    "task-1",
		StudentID: "student-1",
	})
	var constraint *appErrors.KeyConstraintError
	require.ErrorAs(t, err, &constraint)
	require.Equal(t, "registration", constraint.Entity)
	require.Empty(t, exec.writes)
}

func TestRegistrationGetByTaskAndStudentMapsLifecycle(t *testing.T) {
	doc := registrationDoc()
	doc["started_at"] = "2025-03-10T09:00:00Z"
	doc["registration_status"] = "afgerond"
	doc["completed_at"] = "2025-05-01T16:00:00Z"
	exec := &stubExecutor{readResults: [][]typedb.Document{{doc}}}
	repo := NewRegistrationRepository(exec)

	reg, err := repo.GetByTaskAndStudent(context.Background(), "task-1", "student-1")
	require.NoError(t, err)
	require.NotNil(t, reg.IsAccepted)
	require.True(t, *reg.IsAccepted)
	require.Equal(t, models.RegistrationFinished, reg.EffectiveStatus())
	require.NotNil(t, reg.CompletedAt)
	require.Equal(t, time.Date(2025, 5, 1, 16, 0, 0, 0, time.UTC), reg.CompletedAt.UTC())
}

func TestRegistrationWithoutStatusReadsAsRunning(t *testing.T) {
	exec := &stubExecutor{readResults: [][]typedb.Document{{registrationDoc()}}}
	repo := NewRegistrationRepository(exec)

	reg, err := repo.GetByTaskAndStudent(context.Background(), "task-1", "student-1")
	require.NoError(t, err)
	require.Nil(t, reg.Status)
	require.Equal(t, models.RegistrationRunning, reg.EffectiveStatus())
}

func TestRegistrationCloseParams(t *testing.T) {
	exec := &stubExecutor{}
	repo := NewRegistrationRepository(exec)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Close(context.Background(), "task-1", "student-1", models.RegistrationFinished, at))

	require.Len(t, exec.writes, 1)
	require.Equal(t, registrationCloseQuery, exec.writes[0].template)
	require.Equal(t, "afgerond", exec.writes[0].params["status"])
	require.Equal(t, &at, exec.writes[0].params["completed_at"])
}

func TestRegistrationCloseBrokenOmitsCompletedAt(t *testing.T) {
	exec := &stubExecutor{}
	repo := NewRegistrationRepository(exec)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Close(context.Background(), "task-1", "student-1", models.RegistrationBroken, at))

	require.Len(t, exec.writes, 1)
	require.Equal(t, "afgebroken", exec.writes[0].params["status"])
	require.Equal(t, (*time.Time)(nil), exec.writes[0].params["completed_at"])

	// A cancelled registration carries no completed-at, so the portfolio
	// queries that select on it can never pick it up.
	query, err := typedb.BuildElide(registrationCloseQuery, exec.writes[0].params)
	require.NoError(t, err)
	require.NotContains(t, query, "completed-at")
	require.NotContains(t, query, ";;")
}

func TestListEndReviewCandidatesUsesDateLiteral(t *testing.T) {
	exec := &stubExecutor{readResults: [][]typedb.Document{{
		{"task_id": "task-1", "student_id": "student-1"},
	}}}
	repo := NewRegistrationRepository(exec)

	today := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	keys, err := repo.ListEndReviewCandidates(context.Background(), today)
	require.NoError(t, err)
	require.Equal(t, []RegistrationKey{{TaskID: "task-1", StudentID: "student-1"}}, keys)

	require.Len(t, exec.reads, 1)
	require.Equal(t, registrationEndReviewCandidatesQuery, exec.reads[0].template)
	require.IsType(t, typedb.Date{}, exec.reads[0].params["today"])
}

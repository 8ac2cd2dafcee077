package models

import (
	"encoding/json"
	"time"
)

// ProjectSnapshot freezes the project and business context of a completed
// registration. All fields are literals; nothing references the graph.
type ProjectSnapshot struct {
	ProjectName         string   `json:"project_name"`
	ProjectDescription  string   `json:"project_description"`
	BusinessName        string   `json:"business_name"`
	BusinessDescription string   `json:"business_description"`
	BusinessLocation    []string `json:"business_location"`
	BusinessID          string   `json:"business_id"`
	ProjectID           string   `json:"project_id"`
}

// TaskSnapshot freezes the task a student completed.
type TaskSnapshot struct {
	TaskName        string `json:"task_name"`
	TaskDescription string `json:"task_description"`
	TaskID          string `json:"task_id"`
}

// TimelineSnapshot freezes the registration timestamps as ISO-8601 strings.
type TimelineSnapshot struct {
	RequestedAt string `json:"requested_at"`
	AcceptedAt  string `json:"accepted_at,omitempty"`
	StartedAt   string `json:"started_at,omitempty"`
	CompletedAt string `json:"completed_at"`
}

// PortfolioSnapshot is an immutable, append-only record preserving a
// student's completed work after its project is deleted. The four blobs are
// stored as raw JSON so unknown keys written by newer versions survive a
// read-modify-write by an older one.
type PortfolioSnapshot struct {
	ID               string          `json:"id"`
	StudentID        string          `json:"studentId"`
	CreatedAt        time.Time       `json:"createdAt"`
	ProjectSnapshot  json.RawMessage `json:"project_snapshot"`
	TaskSnapshot     json.RawMessage `json:"task_snapshot"`
	SkillsSnapshot   json.RawMessage `json:"skills_snapshot"`
	TimelineSnapshot json.RawMessage `json:"timeline_snapshot"`
}

// PortfolioSourceType distinguishes live registrations from snapshots in the
// merged portfolio view.
type PortfolioSourceType string

const (
	PortfolioSourceLive     PortfolioSourceType = "live"
	PortfolioSourceSnapshot PortfolioSourceType = "snapshot"
)

// PortfolioItem is one entry of a student's merged portfolio, newest first.
type PortfolioItem struct {
	SourceType  PortfolioSourceType `json:"sourceType"`
	SnapshotID  *string             `json:"snapshotId,omitempty"`
	IsArchived  *bool               `json:"isArchived,omitempty"`
	CompletedAt time.Time           `json:"completedAt"`
	Project     ProjectSnapshot     `json:"project_snapshot"`
	Task        TaskSnapshot        `json:"task_snapshot"`
	Skills      []string            `json:"skills_snapshot"`
	Timeline    TimelineSnapshot    `json:"timeline_snapshot"`
}

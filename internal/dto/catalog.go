package dto

import "time"

// CreateBusinessRequest registers a new business with at least one location.
type CreateBusinessRequest struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description" binding:"required"`
	ImagePath   string   `json:"imagePath"`
	Locations   []string `json:"locations" binding:"required,min=1"`
}

// CreateProjectRequest creates a project owned by a business.
type CreateProjectRequest struct {
	BusinessID  string   `json:"businessId" binding:"required,uuid"`
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description" binding:"required"`
	ImagePath   *string  `json:"imagePath"`
	ThemeIDs    []string `json:"themeIds" binding:"omitempty,dive,uuid"`
}

// CreateTaskRequest creates a task under a project.
type CreateTaskRequest struct {
	ProjectID   string     `json:"projectId" binding:"required,uuid"`
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description" binding:"required"`
	TotalNeeded int        `json:"totalNeeded" binding:"required,min=1"`
	StartDate   *time.Time `json:"startDate"`
	EndDate     *time.Time `json:"endDate"`
	SkillIDs    []string   `json:"skillIds" binding:"omitempty,dive,uuid"`
}

// ProposeSkillRequest proposes a new skill for teacher approval.
type ProposeSkillRequest struct {
	Name string `json:"name" binding:"required"`
}

// ArchiveRequest flips an archive flag.
type ArchiveRequest struct {
	Archived bool `json:"archived"`
}

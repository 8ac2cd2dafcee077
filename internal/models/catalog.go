package models

import "time"

// Business posts projects and employs supervisors.
type Business struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ImagePath   string   `json:"imagePath"`
	Locations   []string `json:"locations"`
	Archived    bool     `json:"archived"`
}

// Project belongs to exactly one business; the link is fixed at creation.
type Project struct {
	ID          string    `json:"id"`
	BusinessID  string    `json:"businessId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImagePath   *string   `json:"imagePath,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	Archived    bool      `json:"archived"`
	ThemeIDs    []string  `json:"themeIds,omitempty"`
}

// Task is a unit of work inside a project that students register for.
type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"projectId"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	TotalNeeded int        `json:"totalNeeded"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Skills      []Skill    `json:"skills,omitempty"`
}

// Skill names a competence; new skills proposed by users stay pending until
// a teacher approves them.
type Skill struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsPending bool      `json:"isPending"`
	CreatedAt time.Time `json:"createdAt"`
}

// Theme is a classification tag, optionally mapped to an SDG.
type Theme struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	SDGCode      *string `json:"sdgCode,omitempty"`
	Icon         *string `json:"icon,omitempty"`
	Color        *string `json:"color,omitempty"`
	DisplayOrder *int    `json:"displayOrder,omitempty"`
}

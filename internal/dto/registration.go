package dto

// CreateRegistrationRequest applies a student to a task.
type CreateRegistrationRequest struct {
	TaskID      string `json:"taskId" binding:"required,uuid"`
	Description string `json:"description" binding:"required"`
}

// DecideRegistrationRequest accepts or denies an application.
type DecideRegistrationRequest struct {
	Accept   bool    `json:"accept"`
	Response *string `json:"response"`
}

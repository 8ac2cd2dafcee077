package dto

import "github.com/skillmatch-hu/skillmatch-api/internal/models"

// CreateStatusRequestRequest opens a completion or cancellation request on a
// registration.
type CreateStatusRequestRequest struct {
	TaskID    string             `json:"taskId" binding:"required,uuid"`
	StudentID string             `json:"studentId" binding:"required,uuid"`
	Type      models.RequestType `json:"requestType" binding:"required,requesttype"`
	Reason    string             `json:"reason" binding:"required"`
}

// RespondStatusRequestRequest records the counterpart's decision.
type RespondStatusRequestRequest struct {
	Approve bool    `json:"approve"`
	Message *string `json:"message"`
}

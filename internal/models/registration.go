package models

import "time"

// RegistrationStatus is the lifecycle outcome of a registration. The values
// are the Dutch labels the product exposes.
type RegistrationStatus string

const (
	RegistrationRunning  RegistrationStatus = "lopend"
	RegistrationFinished RegistrationStatus = "afgerond"
	RegistrationBroken   RegistrationStatus = "afgebroken"
)

// Registration asserts that a student applied to a task and carries the
// lifecycle timestamps. A registration without a status reads as running.
type Registration struct {
	TaskID      string              `json:"taskId"`
	StudentID   string              `json:"studentId"`
	Description string              `json:"description"`
	IsAccepted  *bool               `json:"isAccepted,omitempty"`
	Response    *string             `json:"response,omitempty"`
	CreatedAt   time.Time           `json:"createdAt"`
	AcceptedAt  *time.Time          `json:"acceptedAt,omitempty"`
	StartedAt   *time.Time          `json:"startedAt,omitempty"`
	CompletedAt *time.Time          `json:"completedAt,omitempty"`
	Status      *RegistrationStatus `json:"registrationStatus,omitempty"`
}

// EffectiveStatus resolves the nullable status column to its default.
func (r *Registration) EffectiveStatus() RegistrationStatus {
	if r.Status == nil {
		return RegistrationRunning
	}
	return *r.Status
}

// RequestType enumerates the ways a registration may be asked to end.
type RequestType string

const (
	RequestCompletion   RequestType = "completion"
	RequestCancellation RequestType = "cancellation"
	RequestEndReview    RequestType = "end_review"
)

// RequestStatus is the workflow state of a status change request.
type RequestStatus string

const (
	RequestPending      RequestStatus = "pending"
	RequestApproved     RequestStatus = "approved"
	RequestDenied       RequestStatus = "denied"
	RequestAutoApproved RequestStatus = "auto_approved"
)

// Outcome returns the registration status an approved request of this type
// produces: only a cancellation breaks the registration.
func (t RequestType) Outcome() RegistrationStatus {
	if t == RequestCancellation {
		return RegistrationBroken
	}
	return RegistrationFinished
}

// StatusChangeRequest is one party's proposal to end a registration, or a
// system-generated end review. End reviews have no requester.
type StatusChangeRequest struct {
	ID              string        `json:"id"`
	TaskID          string        `json:"taskId"`
	StudentID       string        `json:"studentId"`
	Type            RequestType   `json:"requestType"`
	Reason          string        `json:"reason"`
	Status          RequestStatus `json:"requestStatus"`
	RequesterID     *string       `json:"requesterId,omitempty"`
	ResponderID     *string       `json:"responderId,omitempty"`
	CreatedAt       time.Time     `json:"createdAt"`
	RespondedAt     *time.Time    `json:"respondedAt,omitempty"`
	ResponseMessage *string       `json:"responseMessage,omitempty"`
	AutoApproveAt   *time.Time    `json:"autoApproveAt,omitempty"`
}

package dto

// RegisterStudentRequest creates a student account.
type RegisterStudentRequest struct {
	Email             string `json:"email" binding:"required,email"`
	FullName          string `json:"fullName" binding:"required"`
	SchoolAccountName string `json:"schoolAccountName" binding:"required"`
}

// RegisterWithInviteRequest redeems an invite key for a supervisor or
// teacher account.
type RegisterWithInviteRequest struct {
	Token    string `json:"token" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	FullName string `json:"fullName" binding:"required"`
}

// IssueInviteRequest mints a new invite key. A nil business id grants a
// teacher account.
type IssueInviteRequest struct {
	BusinessID *string `json:"businessId" binding:"omitempty,uuid"`
}

// TokenResponse returns a signed access token.
type TokenResponse struct {
	Token string `json:"token"`
}

// InviteResponse returns the one-time invite token.
type InviteResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expiresAt"`
}

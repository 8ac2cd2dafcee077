package models

import "time"

// UserRole discriminates the three user kinds.
type UserRole string

const (
	RoleStudent    UserRole = "student"
	RoleSupervisor UserRole = "supervisor"
	RoleTeacher    UserRole = "teacher"
)

// User is the common identity shared by students, supervisors and teachers.
type User struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	FullName  string   `json:"fullName"`
	ImagePath *string  `json:"imagePath,omitempty"`
	Role      UserRole `json:"role"`

	// SchoolAccountName is set for students only.
	SchoolAccountName *string `json:"schoolAccountName,omitempty"`
	// BusinessID is set for supervisors only; a supervisor belongs to
	// exactly one business.
	BusinessID *string `json:"businessId,omitempty"`
}

// InviteKey grants one-time registration access, scoped to a business for
// supervisor invites or unscoped for teacher invites. The raw token is only
// ever returned at issue time; at rest only the hash is stored.
type InviteKey struct {
	ID         string     `json:"id"`
	BusinessID *string    `json:"businessId,omitempty"`
	ExpiresAt  time.Time  `json:"expiresAt"`
	UsedAt     *time.Time `json:"usedAt,omitempty"`
}

// Usable reports whether the key can still be redeemed.
func (k *InviteKey) Usable(now time.Time) bool {
	return k.UsedAt == nil && k.ExpiresAt.After(now)
}

package domain

import "time"

// Role of an account.
type Role string

const (
	RoleStudent  Role = "student"
	RoleTeacher  Role = "teacher"
	RoleGuardian Role = "guardian"
)

// User is an account document. Students link to exactly one teacher and one
// guardian by identifier; either link may be empty.
type User struct {
	ID              string
	Role            Role
	Username        string
	TeacherID       string // students only
	GuardianID      string // students only
	PushAddress     string // empty when the device never registered
	LastNotifiedDay string // YYYY-MM-DD of the last completion notice, local time
	CreatedAt       time.Time
}

// HasAddress reports whether the user can receive push messages.
func (u *User) HasAddress() bool {
	return u != nil && u.PushAddress != ""
}

package models

// Role is a participant's role in the classroom session.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
)

// Valid reports whether the role is one of the two known values.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleTeacher
}

// Participant is a connected user, keyed by its ephemeral connection id.
type Participant struct {
	ConnectionID string `json:"connectionId"`
	Name         string `json:"name"`
	Role         Role   `json:"role"`
}

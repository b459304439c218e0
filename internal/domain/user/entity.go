package user

import "time"

type Role string

const (
	RoleAdmin Role = "admin" // Manages shifts and reads reports
	RoleStaff Role = "staff" // Clocks in and out of own shifts
)

type User struct {
	ID           string
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin checks if user can manage the roster
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

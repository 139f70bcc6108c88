package models

import "time"

const (
	RoleAdmin    = "admin"
	RoleEmployee = "employee"
)

type User struct {
	ID           uint64
	Username     string
	PasswordHash string
	Role         string
	FullName     string
	Designation  string
	Location     string
	DateOfBirth  *time.Time
	CreatedAt    time.Time
}

// DisplayName is the name printed on reports.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

type UserCreateInput struct {
	Username     string
	PasswordHash string
	Role         string
	FullName     string
	Designation  string
	Location     string
	DateOfBirth  *time.Time
}

// UserUpdate carries optional profile changes; nil fields are left untouched.
type UserUpdate struct {
	FullName     *string
	Designation  *string
	Location     *string
	DateOfBirth  *time.Time
	PasswordHash *string
}

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID       uint64
	Username string
	Role     string
}

func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

type OnlineEmployee struct {
	User         *User
	SessionID    uint64
	SessionStart time.Time
	LastActivity time.Time
}

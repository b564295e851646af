package session

import "time"

// State is the position of the session in its lifecycle.
type State string

const (
	StateLoggedOut State = "logged_out"
	StateLoggingIn State = "logging_in"
	StateLoggedIn  State = "logged_in"
)

// User is the authenticated account as reported by the server.
type User struct {
	ID           int64       `json:"id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	Name         string      `json:"name"`
	Avatar       string      `json:"avatar,omitempty"`
	Phone        string      `json:"phone,omitempty"`
	DepartmentID *int64      `json:"departmentId,omitempty"`
	Department   *Department `json:"department,omitempty"`
	Role         *Role       `json:"role,omitempty"`
	IsActive     bool        `json:"isActive"`
	LastLoginAt  *time.Time  `json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Department groups users and tickets.
type Department struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ManagerID   *int64 `json:"managerId,omitempty"`
	IsActive    bool   `json:"isActive"`
}

// Role carries the permissions granted to a user.
type Role struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Permissions []Permission `json:"permissions,omitempty"`
	IsActive    bool         `json:"isActive"`
}

// Permission is a single grant, matched by Code.
type Permission struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
}

// LoginForm holds credentials for POST /auth/login.
type LoginForm struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Remember bool   `json:"remember,omitempty"`
}

// LoginResult is the body of a successful login.
type LoginResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Profile is the body of GET /auth/me.
type Profile struct {
	User        *User    `json:"user"`
	Permissions []string `json:"permissions"`
}

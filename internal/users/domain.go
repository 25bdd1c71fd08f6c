package users

import "time"

// User represents a user account for management.
type User struct {
	ID                int64     `json:"id"`
	PhoneNumber       string    `json:"phone_number"`
	FirstName         string    `json:"first_name"`
	LastName          string    `json:"last_name"`
	RoleID            *int64    `json:"role_id"`
	PermissionGroupID *int64    `json:"permission_group_id"`
	IsSuperAdmin      bool      `json:"is_super_admin"`
	IsPanelUser       bool      `json:"is_panel_user"`
	IsEnabled         bool      `json:"is_enabled"`
	RecorderID        *int64    `json:"recorder_id"`
	RecordDate        time.Time `json:"record_date"`
	PasswordHash      string    `json:"-"`
	TokenVersion      int64     `json:"-"`
}

// CreateInput carries a new account.
type CreateInput struct {
	PhoneNumber       string
	Password          string
	FirstName         string
	LastName          string
	RoleID            *int64
	PermissionGroupID *int64
	IsPanelUser       bool
}

// Patch carries a partial account update. Nil fields are left unchanged; a
// zero RoleID or PermissionGroupID clears the reference.
type Patch struct {
	PhoneNumber       *string
	Password          *string
	FirstName         *string
	LastName          *string
	RoleID            *int64
	PermissionGroupID *int64
	IsPanelUser       *bool
}

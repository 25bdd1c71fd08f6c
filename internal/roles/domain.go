package roles

import "time"

// Role represents a staff role for management.
type Role struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	IsEnabled  bool      `json:"is_enabled"`
	RecorderID *int64    `json:"recorder_id"`
	RecordDate time.Time `json:"record_date"`
}

// RoleInput carries a role create or update. A nil IsEnabled keeps the
// current value on update and defaults to true on create.
type RoleInput struct {
	Name      *string
	IsEnabled *bool
}

// Package logins keeps the login log: one entry per successful login.
package logins

import "time"

// Entry is one recorded login.
type Entry struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	LoginDate  time.Time `json:"login_date"`
	RemoteAddr string    `json:"remote_addr"`
	UserAgent  string    `json:"user_agent"`
	RecordDate time.Time `json:"record_date"`
}

// Filter narrows a login log listing. Zero values do not filter.
type Filter struct {
	From   time.Time
	To     time.Time
	UserID int64
}

package auth

import "time"

// TokenTypeBearer is the token_type returned with every issued token.
const TokenTypeBearer = "bearer"

// User is the identity record consumed by authentication and authorization.
type User struct {
	ID                int64
	LoginID           string
	PasswordHash      string
	FirstName         string
	LastName          string
	IsEnabled         bool
	IsSuperAdmin      bool
	PermissionGroupID *int64
	TokenVersion      int64
	RecordDate        time.Time
}

// GetID returns the user id.
func (u *User) GetID() int64 { return u.ID }

// IsSuperUser reports whether the user bypasses permission resolution.
func (u *User) IsSuperUser() bool { return u != nil && u.IsSuperAdmin }

// PermissionGroup returns the assigned permission group, if any.
func (u *User) PermissionGroup() (int64, bool) {
	if u == nil || u.PermissionGroupID == nil {
		return 0, false
	}
	return *u.PermissionGroupID, true
}

// Token is the login response body.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// LoginMeta describes where a login came from.
type LoginMeta struct {
	RemoteAddr string
	UserAgent  string
}

// LoginEvent is emitted after every successful login.
type LoginEvent struct {
	UserID     int64
	LoginAt    time.Time
	RemoteAddr string
	UserAgent  string
}

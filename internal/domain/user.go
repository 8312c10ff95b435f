package domain

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID            string
	Name          string
	Role          Role
	Email         string
	EmailVerified bool
	Image         *string
	Login         string
	Credits       int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsAdmin reports whether the user carries the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Session is a database-backed login session. Deleting the user cascades.
type Session struct {
	ID        string
	Token     string
	ExpiresAt time.Time
	IPAddress *string
	UserAgent *string
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Account links a user to an identity at an external provider.
type Account struct {
	ID                    string
	AccountID             string
	ProviderID            string
	UserID                string
	AccessToken           *string
	RefreshToken          *string
	IDToken               *string
	AccessTokenExpiresAt  *time.Time
	RefreshTokenExpiresAt *time.Time
	Scope                 *string
	Password              *string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

// Verification holds a short-lived value such as an OAuth state.
type Verification struct {
	ID         string
	Identifier string
	Value      string
	ExpiresAt  time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// AuthSession is what a request sees once its session token resolved.
type AuthSession struct {
	Session Session
	User    User
}

package domain

import "time"

const (
	RoleUser  = "USER"
	RoleAdmin = "ADMIN"
)

// UserStatus is the account lifecycle state. RESIGNED is terminal.
type UserStatus string

const (
	StatusNormal   UserStatus = "NORMAL"
	StatusResigned UserStatus = "RESIGNED"
)

// User is the authenticated principal. Email is the credential subject and
// is what tokens carry as their subject.
type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	Status       UserStatus `json:"status"`
	// RefreshToken mirrors the single live refresh token, scheme prefix
	// included. Empty means no session.
	RefreshToken string `json:"-"`
	// PasswordHistory holds the hashes of the most recent passwords, newest
	// first, current one included.
	PasswordHistory []string  `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

func (u *User) IsResigned() bool {
	return u.Status == StatusResigned
}

// CanManage reports whether u may delete content authored by authorID.
func (u *User) CanManage(authorID string) bool {
	return u.ID == authorID || u.IsAdmin()
}

// PasswordHistorySize is how many recent passwords a new password may not
// repeat.
const PasswordHistorySize = 3

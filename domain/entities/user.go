package entities

import "strings"

// UserType is the role a user holds on campus.
type UserType string

const (
	UserVisitor UserType = "visitor"
	UserStudent UserType = "student"
	UserAdmin   UserType = "admin"
)

// ParseUserType matches case-insensitively; unknown values default to
// UserVisitor, the least-privileged role.
func ParseUserType(s string) UserType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "student":
		return UserStudent
	case "admin":
		return UserAdmin
	default:
		return UserVisitor
	}
}

// User is an authenticated account profile.
type User struct {
	ID        string
	Email     string
	FullName  string
	StudentID string
	Type      UserType
	IsActive  bool
}

// Session is the authentication state carried across process restarts.
// A session with a token but no user is valid (the profile is fetched
// lazily); a user without a token is never persisted.
type Session struct {
	Token string
	User  *User
}

// LoggedIn reports whether the session holds a usable credential.
func (s Session) LoggedIn() bool {
	return s.Token != ""
}

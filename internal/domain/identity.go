package domain

import "time"

// Principal identifies a caller. The empty principal is the anonymous caller.
type Principal string

func (p Principal) IsAnonymous() bool { return p == "" }

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleUser, RoleGuest:
		return Role(s), nil
	}
	return "", Invalid("role", "must be one of admin, user, guest")
}

// Account is a registered principal with login credentials.
type Account struct {
	Principal    Principal `json:"principal" yaml:"principal"`
	Username     string    `json:"username" yaml:"username"`
	PasswordHash string    `json:"-" yaml:"-"`
	Role         Role      `json:"role" yaml:"role"`
	CreatedAt    time.Time `json:"createdAt" yaml:"createdAt"`
}

type UserProfile struct {
	Name string `json:"name" yaml:"name"`
}

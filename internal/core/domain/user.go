package domain

import (
	"strings"
	"time"
)

// ProtectedUsername identifies the built-in administrator account.
const ProtectedUsername = "admin"

// User models an account record in the user store.
type User struct {
	ID           string       `json:"id"            bson:"id"`
	Username     string       `json:"username"      bson:"username"`
	PasswordHash string       `json:"-"             bson:"password_hash"`
	DisplayName  string       `json:"display_name"  bson:"display_name"`
	Email        string       `json:"email,omitempty"      bson:"email,omitempty"`
	Department   string       `json:"department,omitempty" bson:"department,omitempty"`
	Role         Role         `json:"role"          bson:"role"`
	Permissions  []Permission `json:"permissions"   bson:"permissions"`
	IsActive     bool         `json:"is_active"     bson:"is_active"`
	CreatedAt    time.Time    `json:"created_at"    bson:"created_at"`
	LastLoginAt  *time.Time   `json:"last_login_at" bson:"last_login_at,omitempty"`
	CreatedBy    string       `json:"created_by"    bson:"created_by"`

	// CredentialRotationRequired is set while the bootstrap credential is in use.
	CredentialRotationRequired bool `json:"credential_rotation_required" bson:"credential_rotation_required"`
}

// IsProtected reports whether u is the built-in administrator.
func (u *User) IsProtected() bool {
	return u != nil && strings.EqualFold(u.Username, ProtectedUsername)
}

// Clone returns a deep copy of u.
func (u User) Clone() User {
	c := u
	if u.Permissions != nil {
		c.Permissions = append([]Permission(nil), u.Permissions...)
	}
	if u.LastLoginAt != nil {
		t := *u.LastLoginAt
		c.LastLoginAt = &t
	}
	return c
}

// CloneUsers deep-copies a record set.
func CloneUsers(users []User) []User {
	out := make([]User, len(users))
	for i := range users {
		out[i] = users[i].Clone()
	}
	return out
}

// SameUsername compares usernames case-insensitively.
func SameUsername(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// UserStats summarises the user store.
type UserStats struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Admins   int `json:"admins"`
	Managers int `json:"managers"`
	Users    int `json:"users"`
}

// Package user defines user accounts and their roles.
package user

import (
	"github.com/tallybook/tallybook/id"
	"github.com/tallybook/tallybook/types"
)

// Role controls what a user may do and see.
type Role string

const (
	// RolePlatform has cross-tenant visibility and no business of its own.
	RolePlatform Role = "platform"
	// RoleAdmin administers a single business.
	RoleAdmin Role = "admin"
	// RoleUser is a regular member of a single business.
	RoleUser Role = "user"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RolePlatform, RoleAdmin, RoleUser:
		return true
	}
	return false
}

// User is an account that can authenticate against the engine.
// PasswordHash is a bcrypt hash, never the plaintext password.
type User struct {
	types.Entity
	ID           id.UserID     `json:"id"`
	Username     string        `json:"username"`
	PasswordHash string        `json:"-"`
	Role         Role          `json:"role"`
	BusinessID   id.BusinessID `json:"business_id,omitempty"` // Nil for platform users
}

// ListOpts filters user listings.
type ListOpts struct {
	BusinessID id.BusinessID
	Limit      int
	Offset     int
}

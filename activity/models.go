// Package activity defines the append-only activity trail.
package activity

import (
	"time"

	"github.com/tallybook/tallybook/id"
)

// Entry is one activity log record. Entries are append-only; nothing in
// the engine updates or deletes them.
type Entry struct {
	ID          id.ActivityID `json:"id"`
	UserID      id.UserID     `json:"user_id"`
	EntityName  string        `json:"entity_name"` // "Product", "Invoice", ...
	Action      string        `json:"action"`      // "create", "update", "delete", "login", "stock"
	Description string        `json:"description"`
	When        time.Time     `json:"when"`
}

// ListOpts filters activity listings.
type ListOpts struct {
	UserID id.UserID // Nil = all users (platform only)
	Limit  int
	Offset int
}

// Package business defines the tenant entity that owns products,
// customers, invoices, and sales.
package business

import (
	"github.com/tallybook/tallybook/id"
	"github.com/tallybook/tallybook/types"
)

// Type classifies a business.
type Type string

const (
	TypeStore     Type = "store"
	TypeFranchise Type = "franchise"
	TypePlatform  Type = "platform"
)

// Valid reports whether t is a known business type.
func (t Type) Valid() bool {
	switch t {
	case TypeStore, TypeFranchise, TypePlatform:
		return true
	}
	return false
}

// Business is an isolated tenant. BID is the human-facing sequential
// number issued by the sequence generator; ID is the stable identifier
// everything else references.
type Business struct {
	types.Entity
	ID      id.BusinessID `json:"id"`
	BID     int64         `json:"bid"`
	Name    string        `json:"name"`
	Address string        `json:"address,omitempty"`
	Phone   string        `json:"phone,omitempty"`
	Type    Type          `json:"type"`
}

// ListOpts filters business listings.
type ListOpts struct {
	Search string // case-insensitive substring over name
	Limit  int
	Offset int
}

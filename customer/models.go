// Package customer defines the customers invoices are issued to.
package customer

import (
	"github.com/tallybook/tallybook/id"
	"github.com/tallybook/tallybook/types"
)

// Customer belongs to exactly one business. Email is unique within that
// business.
type Customer struct {
	types.Entity
	ID         id.CustomerID `json:"id"`
	Name       string        `json:"name"`
	Email      string        `json:"email"`
	Phone      string        `json:"phone,omitempty"`
	Address    string        `json:"address,omitempty"`
	BusinessID id.BusinessID `json:"business_id"`
}

// ListOpts filters customer listings.
type ListOpts struct {
	BusinessID id.BusinessID // Nil = all businesses (platform only)
	Limit      int
	Offset     int
}

// Package sale defines the denormalized sale records used for reporting.
package sale

import (
	"time"

	"github.com/tallybook/tallybook/id"
	"github.com/tallybook/tallybook/types"
)

// Sale mirrors an invoice's total for reporting. A sale exists iff its
// invoice exists; it has no independent create or update path.
type Sale struct {
	types.Entity
	ID         id.SaleID     `json:"id"`
	InvoiceID  id.InvoiceID  `json:"invoice_id"`
	CustomerID id.CustomerID `json:"customer_id"`
	BusinessID id.BusinessID `json:"business_id"`
	Total      types.Money   `json:"total"`
}

// ListOpts filters sale listings. Start/End bound CreatedAt for reports.
type ListOpts struct {
	BusinessID id.BusinessID // Nil = all businesses (platform only)
	Start      time.Time
	End        time.Time
	Limit      int
	Offset     int
}

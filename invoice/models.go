// Package invoice defines invoices and their line items.
package invoice

import (
	"github.com/tallybook/tallybook/id"
	"github.com/tallybook/tallybook/types"
)

// Status is the lifecycle state of an invoice. Invoices start pending;
// deletion is the terminal operation, not a status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusCancelled:
		return true
	}
	return false
}

// Item is one invoice line. Price is caller-supplied per line and
// deliberately decoupled from the current catalog price.
type Item struct {
	ProductID id.ProductID `json:"product_id"`
	Quantity  int64        `json:"quantity"`
	Price     types.Money  `json:"price"`
}

// Amount returns quantity * price for this line.
func (it Item) Amount() types.Money {
	return it.Price.Multiply(it.Quantity)
}

// Invoice is issued by a business to one of its customers. Items is an
// ordered sequence, mutable only via full replacement; Total always
// equals the sum of quantity*price over Items.
type Invoice struct {
	types.Entity
	ID         id.InvoiceID  `json:"id"`
	CustomerID id.CustomerID `json:"customer_id"`
	BusinessID id.BusinessID `json:"business_id"`
	Items      []Item        `json:"items"`
	Total      types.Money   `json:"total"`
	Status     Status        `json:"status"`
}

// ItemsTotal sums quantity*price over items. Returns zero USD for an
// empty list.
func ItemsTotal(items []Item) types.Money {
	if len(items) == 0 {
		return types.Zero("usd")
	}

	total := items[0].Amount()
	for _, it := range items[1:] {
		total = total.Add(it.Amount())
	}
	return total
}

// QuantityByProduct aggregates requested quantity per product across
// items. Lists may legitimately repeat a product; stock deltas are
// computed against these aggregates, never per line.
func QuantityByProduct(items []Item) map[id.ProductID]int64 {
	agg := make(map[id.ProductID]int64, len(items))
	for _, it := range items {
		agg[it.ProductID] += it.Quantity
	}
	return agg
}

// ListOpts filters invoice listings.
type ListOpts struct {
	BusinessID id.BusinessID // Nil = all businesses (platform only)
	Status     Status
	Limit      int
	Offset     int
}

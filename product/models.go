// Package product defines catalog products and their stock invariants.
package product

import (
	"github.com/tallybook/tallybook/id"
	"github.com/tallybook/tallybook/types"
)

// Product is one catalog entry owned by a business. Quantity never goes
// negative, and LowStockAlert always equals quantity <= LowStockAmount —
// both invariants are enforced by the stock ledger and RefreshLowStock.
type Product struct {
	types.Entity
	ID             id.ProductID  `json:"id"`
	Name           string        `json:"name"`
	Brand          string        `json:"brand"`
	SKU            string        `json:"sku"`
	Quantity       int64         `json:"quantity"`
	Price          types.Money   `json:"price"`
	LowStockAmount int64         `json:"low_stock_amount"`
	LowStockAlert  bool          `json:"low_stock_alert"`
	BusinessID     id.BusinessID `json:"business_id"`
}

// DefaultLowStockAmount is the threshold applied when a product is
// created without one.
const DefaultLowStockAmount = 10

// RefreshLowStock recomputes the derived alert flag. Call after any
// change to Quantity or LowStockAmount.
func (p *Product) RefreshLowStock() {
	p.LowStockAlert = p.Quantity <= p.LowStockAmount
}

// ListOpts filters product listings.
type ListOpts struct {
	BusinessID   id.BusinessID // Nil = all businesses (platform only)
	Search       string        // case-insensitive substring over name, brand, sku
	LowStockOnly bool
	Limit        int
	Offset       int
}

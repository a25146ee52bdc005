// Package plugin provides an extensible plugin system for Tallybook.
// Plugins can hook into various lifecycle events to extend functionality.
package plugin

import (
	"context"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Tenant lifecycle hooks
// ──────────────────────────────────────────────────

// OnBusinessCreated is called when a new business is registered.
type OnBusinessCreated interface {
	Plugin
	OnBusinessCreated(ctx context.Context, biz interface{}) error
}

// OnUserRegistered is called when a new user account is created.
type OnUserRegistered interface {
	Plugin
	OnUserRegistered(ctx context.Context, usr interface{}) error
}

// ──────────────────────────────────────────────────
// Catalog lifecycle hooks
// ──────────────────────────────────────────────────

// OnProductCreated is called when a new product is added to the catalog.
type OnProductCreated interface {
	Plugin
	OnProductCreated(ctx context.Context, prod interface{}) error
}

// OnProductDeleted is called when a product is removed from the catalog.
type OnProductDeleted interface {
	Plugin
	OnProductDeleted(ctx context.Context, productID string) error
}

// OnCustomerCreated is called when a new customer is created.
type OnCustomerCreated interface {
	Plugin
	OnCustomerCreated(ctx context.Context, cust interface{}) error
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceCreated is called when an invoice is created and its stock
// deducted.
type OnInvoiceCreated interface {
	Plugin
	OnInvoiceCreated(ctx context.Context, inv interface{}) error
}

// OnInvoiceUpdated is called when an invoice is updated.
type OnInvoiceUpdated interface {
	Plugin
	OnInvoiceUpdated(ctx context.Context, oldInv, newInv interface{}) error
}

// OnInvoiceDeleted is called when an invoice is deleted and its stock
// restored.
type OnInvoiceDeleted interface {
	Plugin
	OnInvoiceDeleted(ctx context.Context, invoiceID string) error
}

// OnSaleRecorded is called when a sale record is written alongside an
// invoice.
type OnSaleRecorded interface {
	Plugin
	OnSaleRecorded(ctx context.Context, s interface{}) error
}

// ──────────────────────────────────────────────────
// Stock hooks
// ──────────────────────────────────────────────────

// OnStockAdjusted is called after any stock level change, with the
// applied delta and the resulting quantity.
type OnStockAdjusted interface {
	Plugin
	OnStockAdjusted(ctx context.Context, productID string, delta, quantity int64) error
}

// OnLowStock is called when an adjustment leaves a product at or below
// its low-stock threshold.
type OnLowStock interface {
	Plugin
	OnLowStock(ctx context.Context, productID string, quantity, threshold int64) error
}

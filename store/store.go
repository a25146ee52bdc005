// Package store defines the unified storage interface for all Tallybook
// entities.
package store

import (
	"context"

	"github.com/tallybook/tallybook/activity"
	"github.com/tallybook/tallybook/business"
	"github.com/tallybook/tallybook/customer"
	"github.com/tallybook/tallybook/id"
	"github.com/tallybook/tallybook/invoice"
	"github.com/tallybook/tallybook/product"
	"github.com/tallybook/tallybook/sale"
	"github.com/tallybook/tallybook/user"
)

// Store is the unified storage interface for all Tallybook entities.
// Instead of embedding sub-interfaces, all methods are declared
// explicitly to avoid naming conflicts.
//
// List methods return one window of results plus the total matching
// count, so callers can build pagination envelopes.
//
// Implementations map their native not-found and duplicate-key
// conditions to the tallybook sentinel errors.
type Store interface {
	// Business methods
	CreateBusiness(ctx context.Context, b *business.Business) error
	GetBusiness(ctx context.Context, bizID id.BusinessID) (*business.Business, error)
	ListBusinesses(ctx context.Context, opts business.ListOpts) ([]*business.Business, int, error)
	UpdateBusiness(ctx context.Context, b *business.Business) error
	DeleteBusiness(ctx context.Context, bizID id.BusinessID) error

	// User methods
	CreateUser(ctx context.Context, u *user.User) error
	GetUser(ctx context.Context, userID id.UserID) (*user.User, error)
	GetUserByUsername(ctx context.Context, username string) (*user.User, error)
	ListUsers(ctx context.Context, opts user.ListOpts) ([]*user.User, int, error)
	UpdateUser(ctx context.Context, u *user.User) error
	DeleteUser(ctx context.Context, userID id.UserID) error

	// Product methods
	CreateProduct(ctx context.Context, p *product.Product) error
	GetProduct(ctx context.Context, productID id.ProductID) (*product.Product, error)
	ListProducts(ctx context.Context, opts product.ListOpts) ([]*product.Product, int, error)
	UpdateProduct(ctx context.Context, p *product.Product) error
	DeleteProduct(ctx context.Context, productID id.ProductID) error

	// ApplyStockDelta atomically adjusts a product's quantity and
	// recomputes its low-stock flag in the same write. The check that
	// quantity+delta >= 0 happens store-side so concurrent adjustments
	// cannot interleave between check and write. Fails with an error
	// wrapping ErrInsufficientStock, leaving the product unchanged.
	ApplyStockDelta(ctx context.Context, productID id.ProductID, delta int64) (*product.Product, error)

	// Customer methods
	CreateCustomer(ctx context.Context, c *customer.Customer) error
	GetCustomer(ctx context.Context, customerID id.CustomerID) (*customer.Customer, error)
	ListCustomers(ctx context.Context, opts customer.ListOpts) ([]*customer.Customer, int, error)
	UpdateCustomer(ctx context.Context, c *customer.Customer) error
	DeleteCustomer(ctx context.Context, customerID id.CustomerID) error

	// Invoice methods
	CreateInvoice(ctx context.Context, inv *invoice.Invoice) error
	GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error)
	ListInvoices(ctx context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, int, error)
	UpdateInvoice(ctx context.Context, inv *invoice.Invoice) error
	DeleteInvoice(ctx context.Context, invID id.InvoiceID) error
	CountInvoicesByProduct(ctx context.Context, productID id.ProductID) (int, error)

	// Sale methods
	CreateSale(ctx context.Context, s *sale.Sale) error
	GetSale(ctx context.Context, saleID id.SaleID) (*sale.Sale, error)
	GetSaleByInvoice(ctx context.Context, invID id.InvoiceID) (*sale.Sale, error)
	ListSales(ctx context.Context, opts sale.ListOpts) ([]*sale.Sale, int, error)
	UpdateSale(ctx context.Context, s *sale.Sale) error
	DeleteSale(ctx context.Context, saleID id.SaleID) error

	// Activity methods
	AppendActivity(ctx context.Context, entry *activity.Entry) error
	ListActivity(ctx context.Context, opts activity.ListOpts) ([]*activity.Entry, int, error)

	// NextSequence atomically increments and returns the named counter,
	// starting at 1 for a counter that does not exist yet.
	NextSequence(ctx context.Context, name string) (int64, error)

	// InTx runs fn as one unit of work. Writes made through the context
	// passed to fn are committed together; if fn returns an error,
	// none of them persist.
	InTx(ctx context.Context, fn func(ctx context.Context) error) error

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

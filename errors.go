package tallybook

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure scenarios.
var (
	// Authentication / authorization
	ErrNotAuthenticated   = errors.New("tallybook: not authenticated")
	ErrUnauthorized       = errors.New("tallybook: unauthorized")
	ErrPlatformScope      = errors.New("tallybook: platform users must specify a business")
	ErrInvalidCredentials = errors.New("tallybook: invalid credentials")

	// General
	ErrNotFound     = errors.New("tallybook: not found")
	ErrDuplicateKey = errors.New("tallybook: duplicate key")
	ErrInvalidInput = errors.New("tallybook: invalid input")

	// Entity lookups
	ErrBusinessNotFound = errors.New("tallybook: business not found")
	ErrUserNotFound     = errors.New("tallybook: user not found")
	ErrProductNotFound  = errors.New("tallybook: product not found")
	ErrCustomerNotFound = errors.New("tallybook: customer not found")
	ErrInvoiceNotFound  = errors.New("tallybook: invoice not found")
	ErrSaleNotFound     = errors.New("tallybook: sale not found")

	// Workflow
	ErrForeignEntity     = errors.New("tallybook: entity does not belong to this business")
	ErrInsufficientStock = errors.New("tallybook: insufficient stock")
	ErrProductInUse      = errors.New("tallybook: product is referenced by invoices")

	// Store
	ErrStoreClosed       = errors.New("tallybook: store is closed")
	ErrTransactionFailed = errors.New("tallybook: transaction failed")
	ErrMigrationFailed   = errors.New("tallybook: migration failed")
)

// StockError reports a stock adjustment that would drive quantity
// negative. It wraps ErrInsufficientStock and names the product.
type StockError struct {
	ProductName string
	SKU         string
	Available   int64
	Requested   int64
}

func (e *StockError) Error() string {
	return fmt.Sprintf("tallybook: insufficient stock for %q (SKU: %s): have %d, need %d",
		e.ProductName, e.SKU, e.Available, e.Requested)
}

// Unwrap makes errors.Is(err, ErrInsufficientStock) hold.
func (e *StockError) Unwrap() error { return ErrInsufficientStock }

// IsNotFound returns true if the error is any not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrBusinessNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrInvoiceNotFound) ||
		errors.Is(err, ErrSaleNotFound)
}

// IsAuthFailure returns true if the error is an authentication or
// authorization failure.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrNotAuthenticated) ||
		errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrInvalidCredentials)
}

// IsConflict returns true if the error is a uniqueness or reference
// conflict the caller can resolve by changing the input.
func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateKey) ||
		errors.Is(err, ErrForeignEntity) ||
		errors.Is(err, ErrProductInUse) ||
		errors.Is(err, ErrInsufficientStock)
}

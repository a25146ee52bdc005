// Package id defines TypeID-based identity types for all Tallybook entities.
//
// Every entity uses a single ID struct with a prefix that identifies the
// entity type. IDs are K-sortable (UUIDv7-based), globally unique, and
// URL-safe in the format "prefix_suffix".
package id

import (
	"database/sql/driver"
	"fmt"

	"go.jetify.com/typeid/v2"
)

// Prefix identifies the entity type encoded in a TypeID.
type Prefix string

// Prefix constants for all Tallybook entity types.
const (
	PrefixBusiness Prefix = "biz"  // Tenant business
	PrefixUser     Prefix = "usr"  // User account
	PrefixProduct  Prefix = "prod" // Catalog product
	PrefixCustomer Prefix = "cust" // Business customer
	PrefixInvoice  Prefix = "inv"  // Invoice
	PrefixSale     Prefix = "sale" // Sale record mirroring an invoice
	PrefixActivity Prefix = "alog" // Activity log entry
)

// ID is the primary identifier type for all Tallybook entities.
// It wraps a TypeID providing a prefix-qualified, globally unique,
// sortable, URL-safe identifier in the format "prefix_suffix".
//
//nolint:recvcheck // Value receivers for read-only methods, pointer receivers for UnmarshalText/Scan.
type ID struct {
	inner typeid.TypeID
	valid bool
}

// Nil is the zero-value ID.
var Nil ID

// New generates a new globally unique ID with the given prefix.
// It panics if prefix is not a valid TypeID prefix (programming error).
func New(prefix Prefix) ID {
	tid, err := typeid.Generate(string(prefix))
	if err != nil {
		panic(fmt.Sprintf("id: invalid prefix %q: %v", prefix, err))
	}

	return ID{inner: tid, valid: true}
}

// Parse parses a TypeID string (e.g., "prod_01h2xcejqtf2nbrexx3vqjhp41")
// into an ID. Returns an error if the string is not valid.
func Parse(s string) (ID, error) {
	if s == "" {
		return Nil, fmt.Errorf("id: parse %q: empty string", s)
	}

	tid, err := typeid.Parse(s)
	if err != nil {
		return Nil, fmt.Errorf("id: parse %q: %w", s, err)
	}

	return ID{inner: tid, valid: true}, nil
}

// ParseWithPrefix parses a TypeID string and validates that its prefix
// matches the expected value.
func ParseWithPrefix(s string, expected Prefix) (ID, error) {
	parsed, err := Parse(s)
	if err != nil {
		return Nil, err
	}

	if parsed.Prefix() != expected {
		return Nil, fmt.Errorf("id: expected prefix %q, got %q", expected, parsed.Prefix())
	}

	return parsed, nil
}

// MustParse is like Parse but panics on error. Use for hardcoded ID values.
func MustParse(s string) ID {
	parsed, err := Parse(s)
	if err != nil {
		panic(fmt.Sprintf("id: must parse %q: %v", s, err))
	}

	return parsed
}

// ──────────────────────────────────────────────────
// Type aliases
// ──────────────────────────────────────────────────

// BusinessID is a type-safe identifier for businesses (prefix: "biz").
type BusinessID = ID

// UserID is a type-safe identifier for users (prefix: "usr").
type UserID = ID

// ProductID is a type-safe identifier for products (prefix: "prod").
type ProductID = ID

// CustomerID is a type-safe identifier for customers (prefix: "cust").
type CustomerID = ID

// InvoiceID is a type-safe identifier for invoices (prefix: "inv").
type InvoiceID = ID

// SaleID is a type-safe identifier for sales (prefix: "sale").
type SaleID = ID

// ActivityID is a type-safe identifier for activity log entries (prefix: "alog").
type ActivityID = ID

// ──────────────────────────────────────────────────
// Convenience constructors
// ──────────────────────────────────────────────────

// NewBusinessID generates a new unique business ID.
func NewBusinessID() ID { return New(PrefixBusiness) }

// NewUserID generates a new unique user ID.
func NewUserID() ID { return New(PrefixUser) }

// NewProductID generates a new unique product ID.
func NewProductID() ID { return New(PrefixProduct) }

// NewCustomerID generates a new unique customer ID.
func NewCustomerID() ID { return New(PrefixCustomer) }

// NewInvoiceID generates a new unique invoice ID.
func NewInvoiceID() ID { return New(PrefixInvoice) }

// NewSaleID generates a new unique sale ID.
func NewSaleID() ID { return New(PrefixSale) }

// NewActivityID generates a new unique activity log entry ID.
func NewActivityID() ID { return New(PrefixActivity) }

// ──────────────────────────────────────────────────
// Convenience parsers
// ──────────────────────────────────────────────────

// ParseBusinessID parses a string and validates the "biz" prefix.
func ParseBusinessID(s string) (ID, error) { return ParseWithPrefix(s, PrefixBusiness) }

// ParseUserID parses a string and validates the "usr" prefix.
func ParseUserID(s string) (ID, error) { return ParseWithPrefix(s, PrefixUser) }

// ParseProductID parses a string and validates the "prod" prefix.
func ParseProductID(s string) (ID, error) { return ParseWithPrefix(s, PrefixProduct) }

// ParseCustomerID parses a string and validates the "cust" prefix.
func ParseCustomerID(s string) (ID, error) { return ParseWithPrefix(s, PrefixCustomer) }

// ParseInvoiceID parses a string and validates the "inv" prefix.
func ParseInvoiceID(s string) (ID, error) { return ParseWithPrefix(s, PrefixInvoice) }

// ParseSaleID parses a string and validates the "sale" prefix.
func ParseSaleID(s string) (ID, error) { return ParseWithPrefix(s, PrefixSale) }

// ParseActivityID parses a string and validates the "alog" prefix.
func ParseActivityID(s string) (ID, error) { return ParseWithPrefix(s, PrefixActivity) }

// ──────────────────────────────────────────────────
// ID methods
// ──────────────────────────────────────────────────

// String returns the full TypeID string representation (prefix_suffix).
// Returns an empty string for the Nil ID.
func (i ID) String() string {
	if !i.valid {
		return ""
	}

	return i.inner.String()
}

// Prefix returns the prefix component of this ID.
func (i ID) Prefix() Prefix {
	if !i.valid {
		return ""
	}

	return Prefix(i.inner.Prefix())
}

// IsNil reports whether this ID is the zero value.
func (i ID) IsNil() bool {
	return !i.valid
}

// MarshalText implements encoding.TextMarshaler.
func (i ID) MarshalText() ([]byte, error) {
	if !i.valid {
		return []byte{}, nil
	}

	return []byte(i.inner.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (i *ID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = Nil

		return nil
	}

	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}

	*i = parsed

	return nil
}

// Value implements driver.Valuer for database storage.
// Returns nil for the Nil ID so that optional foreign key columns store NULL.
func (i ID) Value() (driver.Value, error) {
	if !i.valid {
		return nil, nil //nolint:nilnil // nil is the canonical NULL for driver.Valuer
	}

	return i.inner.String(), nil
}

// Scan implements sql.Scanner for database retrieval.
func (i *ID) Scan(src any) error {
	if src == nil {
		*i = Nil

		return nil
	}

	switch v := src.(type) {
	case string:
		if v == "" {
			*i = Nil

			return nil
		}

		return i.UnmarshalText([]byte(v))
	case []byte:
		if len(v) == 0 {
			*i = Nil

			return nil
		}

		return i.UnmarshalText(v)
	default:
		return fmt.Errorf("id: cannot scan %T into ID", src)
	}
}

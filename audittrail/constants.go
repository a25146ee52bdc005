package audittrail

// Action constants for audit events.
const (
	// Tenant actions
	ActionBusinessCreated = "business.created"
	ActionBusinessUpdated = "business.updated"
	ActionBusinessDeleted = "business.deleted"

	// Identity actions
	ActionUserRegistered = "user.registered"
	ActionUserUpdated    = "user.updated"
	ActionUserDeleted    = "user.deleted"
	ActionUserLoggedIn   = "user.logged_in"

	// Catalog actions
	ActionProductCreated  = "product.created"
	ActionProductUpdated  = "product.updated"
	ActionProductDeleted  = "product.deleted"
	ActionCustomerCreated = "customer.created"
	ActionCustomerUpdated = "customer.updated"
	ActionCustomerDeleted = "customer.deleted"

	// Invoice actions
	ActionInvoiceCreated = "invoice.created"
	ActionInvoiceUpdated = "invoice.updated"
	ActionInvoiceDeleted = "invoice.deleted"
	ActionSaleRecorded   = "sale.recorded"
	ActionSaleDeleted    = "sale.deleted"

	// Stock actions
	ActionStockAdjusted = "stock.adjusted"
	ActionLowStock      = "stock.low"
)

// Resource constants for audit events.
const (
	ResourceBusiness = "business"
	ResourceUser     = "user"
	ResourceProduct  = "product"
	ResourceCustomer = "customer"
	ResourceInvoice  = "invoice"
	ResourceSale     = "sale"
)

// Category constants for audit events.
const (
	CategoryTenant   = "tenant"
	CategoryIdentity = "identity"
	CategoryCatalog  = "catalog"
	CategorySales    = "sales"
	CategoryStock    = "stock"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)

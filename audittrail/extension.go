// Package audittrail bridges Tallybook lifecycle events to an audit
// trail backend.
//
// It defines a local Recorder interface so the package does not depend
// on any particular audit system. Callers inject a RecorderFunc adapter
// that bridges to their backend at wiring time.
package audittrail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tallybook/tallybook/plugin"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin            = (*Extension)(nil)
	_ plugin.OnBusinessCreated = (*Extension)(nil)
	_ plugin.OnUserRegistered  = (*Extension)(nil)
	_ plugin.OnProductCreated  = (*Extension)(nil)
	_ plugin.OnProductDeleted  = (*Extension)(nil)
	_ plugin.OnCustomerCreated = (*Extension)(nil)
	_ plugin.OnInvoiceCreated  = (*Extension)(nil)
	_ plugin.OnInvoiceUpdated  = (*Extension)(nil)
	_ plugin.OnInvoiceDeleted  = (*Extension)(nil)
	_ plugin.OnSaleRecorded    = (*Extension)(nil)
	_ plugin.OnStockAdjusted   = (*Extension)(nil)
	_ plugin.OnLowStock        = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// It is defined locally so that audittrail does not import any concrete
// backend — callers inject one at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Tallybook lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-trail" }

// ──────────────────────────────────────────────────
// Tenant lifecycle hooks
// ──────────────────────────────────────────────────

// OnBusinessCreated implements plugin.OnBusinessCreated.
func (e *Extension) OnBusinessCreated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionBusinessCreated, SeverityInfo, OutcomeSuccess,
		ResourceBusiness, "", CategoryTenant, nil,
		"event", "business_created",
	)
}

// OnUserRegistered implements plugin.OnUserRegistered.
func (e *Extension) OnUserRegistered(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionUserRegistered, SeverityInfo, OutcomeSuccess,
		ResourceUser, "", CategoryIdentity, nil,
		"event", "user_registered",
	)
}

// ──────────────────────────────────────────────────
// Catalog lifecycle hooks
// ──────────────────────────────────────────────────

// OnProductCreated implements plugin.OnProductCreated.
func (e *Extension) OnProductCreated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionProductCreated, SeverityInfo, OutcomeSuccess,
		ResourceProduct, "", CategoryCatalog, nil,
		"event", "product_created",
	)
}

// OnProductDeleted implements plugin.OnProductDeleted.
func (e *Extension) OnProductDeleted(ctx context.Context, productID string) error {
	return e.record(ctx, ActionProductDeleted, SeverityWarning, OutcomeSuccess,
		ResourceProduct, productID, CategoryCatalog, nil,
		"product_id", productID,
	)
}

// OnCustomerCreated implements plugin.OnCustomerCreated.
func (e *Extension) OnCustomerCreated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionCustomerCreated, SeverityInfo, OutcomeSuccess,
		ResourceCustomer, "", CategoryCatalog, nil,
		"event", "customer_created",
	)
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceCreated implements plugin.OnInvoiceCreated.
func (e *Extension) OnInvoiceCreated(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionInvoiceCreated, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, "", CategorySales, nil,
		"event", "invoice_created",
	)
}

// OnInvoiceUpdated implements plugin.OnInvoiceUpdated.
func (e *Extension) OnInvoiceUpdated(ctx context.Context, _, _ interface{}) error {
	return e.record(ctx, ActionInvoiceUpdated, SeverityInfo, OutcomeSuccess,
		ResourceInvoice, "", CategorySales, nil,
		"event", "invoice_updated",
	)
}

// OnInvoiceDeleted implements plugin.OnInvoiceDeleted.
func (e *Extension) OnInvoiceDeleted(ctx context.Context, invoiceID string) error {
	return e.record(ctx, ActionInvoiceDeleted, SeverityWarning, OutcomeSuccess,
		ResourceInvoice, invoiceID, CategorySales, nil,
		"invoice_id", invoiceID,
	)
}

// OnSaleRecorded implements plugin.OnSaleRecorded.
func (e *Extension) OnSaleRecorded(ctx context.Context, _ interface{}) error {
	return e.record(ctx, ActionSaleRecorded, SeverityInfo, OutcomeSuccess,
		ResourceSale, "", CategorySales, nil,
		"event", "sale_recorded",
	)
}

// ──────────────────────────────────────────────────
// Stock hooks
// ──────────────────────────────────────────────────

// OnStockAdjusted implements plugin.OnStockAdjusted.
func (e *Extension) OnStockAdjusted(ctx context.Context, productID string, delta, quantity int64) error {
	return e.record(ctx, ActionStockAdjusted, SeverityInfo, OutcomeSuccess,
		ResourceProduct, productID, CategoryStock, nil,
		"product_id", productID,
		"delta", delta,
		"quantity", quantity,
	)
}

// OnLowStock implements plugin.OnLowStock.
func (e *Extension) OnLowStock(ctx context.Context, productID string, quantity, threshold int64) error {
	return e.record(ctx, ActionLowStock, SeverityWarning, OutcomeSuccess,
		ResourceProduct, productID, CategoryStock, nil,
		"product_id", productID,
		"quantity", quantity,
		"threshold", threshold,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audittrail: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}

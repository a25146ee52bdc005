// Package observability provides a metrics extension for Tallybook that
// records lifecycle event counts through an injected MetricFactory.
package observability

import (
	"context"

	"github.com/tallybook/tallybook/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin            = (*MetricsExtension)(nil)
	_ plugin.OnInit            = (*MetricsExtension)(nil)
	_ plugin.OnBusinessCreated = (*MetricsExtension)(nil)
	_ plugin.OnUserRegistered  = (*MetricsExtension)(nil)
	_ plugin.OnProductCreated  = (*MetricsExtension)(nil)
	_ plugin.OnProductDeleted  = (*MetricsExtension)(nil)
	_ plugin.OnCustomerCreated = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceCreated  = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceUpdated  = (*MetricsExtension)(nil)
	_ plugin.OnInvoiceDeleted  = (*MetricsExtension)(nil)
	_ plugin.OnSaleRecorded    = (*MetricsExtension)(nil)
	_ plugin.OnStockAdjusted   = (*MetricsExtension)(nil)
	_ plugin.OnLowStock        = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics. It is defined locally so the package
// works with any metrics backend — wrap your Prometheus registry or
// statsd client in an adapter at wiring time.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Tallybook plugin to automatically track inventory
// and invoicing activity.
type MetricsExtension struct {
	factory MetricFactory

	// Tenant metrics
	BusinessCreated Counter
	UserRegistered  Counter

	// Catalog metrics
	ProductCreated  Counter
	ProductDeleted  Counter
	CustomerCreated Counter

	// Invoice metrics
	InvoiceCreated Counter
	InvoiceUpdated Counter
	InvoiceDeleted Counter
	SaleRecorded   Counter
	InvoiceTotal   Histogram

	// Stock metrics
	StockAdjustments Counter
	StockDeductions  Counter
	StockRestocks    Counter
	StockDeltaSize   Histogram
	LowStockAlerts   Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Tenant metrics
		BusinessCreated: factory.Counter("tallybook.business.created"),
		UserRegistered:  factory.Counter("tallybook.user.registered"),

		// Catalog metrics
		ProductCreated:  factory.Counter("tallybook.product.created"),
		ProductDeleted:  factory.Counter("tallybook.product.deleted"),
		CustomerCreated: factory.Counter("tallybook.customer.created"),

		// Invoice metrics
		InvoiceCreated: factory.Counter("tallybook.invoice.created"),
		InvoiceUpdated: factory.Counter("tallybook.invoice.updated"),
		InvoiceDeleted: factory.Counter("tallybook.invoice.deleted"),
		SaleRecorded:   factory.Counter("tallybook.sale.recorded"),
		InvoiceTotal:   factory.Histogram("tallybook.invoice.total_amount"),

		// Stock metrics
		StockAdjustments: factory.Counter("tallybook.stock.adjustments"),
		StockDeductions:  factory.Counter("tallybook.stock.deductions"),
		StockRestocks:    factory.Counter("tallybook.stock.restocks"),
		StockDeltaSize:   factory.Histogram("tallybook.stock.delta_size"),
		LowStockAlerts:   factory.Counter("tallybook.stock.low_alerts"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// ──────────────────────────────────────────────────
// Tenant lifecycle hooks
// ──────────────────────────────────────────────────

// OnBusinessCreated implements plugin.OnBusinessCreated.
func (m *MetricsExtension) OnBusinessCreated(_ context.Context, _ interface{}) error {
	m.BusinessCreated.Inc()
	return nil
}

// OnUserRegistered implements plugin.OnUserRegistered.
func (m *MetricsExtension) OnUserRegistered(_ context.Context, _ interface{}) error {
	m.UserRegistered.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Catalog lifecycle hooks
// ──────────────────────────────────────────────────

// OnProductCreated implements plugin.OnProductCreated.
func (m *MetricsExtension) OnProductCreated(_ context.Context, _ interface{}) error {
	m.ProductCreated.Inc()
	return nil
}

// OnProductDeleted implements plugin.OnProductDeleted.
func (m *MetricsExtension) OnProductDeleted(_ context.Context, _ string) error {
	m.ProductDeleted.Inc()
	return nil
}

// OnCustomerCreated implements plugin.OnCustomerCreated.
func (m *MetricsExtension) OnCustomerCreated(_ context.Context, _ interface{}) error {
	m.CustomerCreated.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Invoice lifecycle hooks
// ──────────────────────────────────────────────────

// OnInvoiceCreated implements plugin.OnInvoiceCreated.
func (m *MetricsExtension) OnInvoiceCreated(_ context.Context, _ interface{}) error {
	m.InvoiceCreated.Inc()
	return nil
}

// OnInvoiceUpdated implements plugin.OnInvoiceUpdated.
func (m *MetricsExtension) OnInvoiceUpdated(_ context.Context, _, _ interface{}) error {
	m.InvoiceUpdated.Inc()
	return nil
}

// OnInvoiceDeleted implements plugin.OnInvoiceDeleted.
func (m *MetricsExtension) OnInvoiceDeleted(_ context.Context, _ string) error {
	m.InvoiceDeleted.Inc()
	return nil
}

// OnSaleRecorded implements plugin.OnSaleRecorded.
func (m *MetricsExtension) OnSaleRecorded(_ context.Context, _ interface{}) error {
	m.SaleRecorded.Inc()
	return nil
}

// ──────────────────────────────────────────────────
// Stock hooks
// ──────────────────────────────────────────────────

// OnStockAdjusted implements plugin.OnStockAdjusted.
func (m *MetricsExtension) OnStockAdjusted(_ context.Context, _ string, delta, _ int64) error {
	m.StockAdjustments.Inc()
	if delta < 0 {
		m.StockDeductions.Inc()
		m.StockDeltaSize.Observe(float64(-delta))
	} else {
		m.StockRestocks.Inc()
		m.StockDeltaSize.Observe(float64(delta))
	}
	return nil
}

// OnLowStock implements plugin.OnLowStock.
func (m *MetricsExtension) OnLowStock(_ context.Context, _ string, _, _ int64) error {
	m.LowStockAlerts.Inc()
	return nil
}

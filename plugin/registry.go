package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit            []OnInit
	onShutdown        []OnShutdown
	onBusinessCreated []OnBusinessCreated
	onUserRegistered  []OnUserRegistered
	onProductCreated  []OnProductCreated
	onProductDeleted  []OnProductDeleted
	onCustomerCreated []OnCustomerCreated
	onInvoiceCreated  []OnInvoiceCreated
	onInvoiceUpdated  []OnInvoiceUpdated
	onInvoiceDeleted  []OnInvoiceDeleted
	onSaleRecorded    []OnSaleRecorded
	onStockAdjusted   []OnStockAdjusted
	onLowStock        []OnLowStock
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger: slog.Default(),
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnBusinessCreated); ok {
		r.onBusinessCreated = append(r.onBusinessCreated, v)
	}
	if v, ok := p.(OnUserRegistered); ok {
		r.onUserRegistered = append(r.onUserRegistered, v)
	}
	if v, ok := p.(OnProductCreated); ok {
		r.onProductCreated = append(r.onProductCreated, v)
	}
	if v, ok := p.(OnProductDeleted); ok {
		r.onProductDeleted = append(r.onProductDeleted, v)
	}
	if v, ok := p.(OnCustomerCreated); ok {
		r.onCustomerCreated = append(r.onCustomerCreated, v)
	}
	if v, ok := p.(OnInvoiceCreated); ok {
		r.onInvoiceCreated = append(r.onInvoiceCreated, v)
	}
	if v, ok := p.(OnInvoiceUpdated); ok {
		r.onInvoiceUpdated = append(r.onInvoiceUpdated, v)
	}
	if v, ok := p.(OnInvoiceDeleted); ok {
		r.onInvoiceDeleted = append(r.onInvoiceDeleted, v)
	}
	if v, ok := p.(OnSaleRecorded); ok {
		r.onSaleRecorded = append(r.onSaleRecorded, v)
	}
	if v, ok := p.(OnStockAdjusted); ok {
		r.onStockAdjusted = append(r.onStockAdjusted, v)
	}
	if v, ok := p.(OnLowStock); ok {
		r.onLowStock = append(r.onLowStock, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	// Check each interface
	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	// List all interfaces to check
	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnBusinessCreated)(nil)).Elem(), "OnBusinessCreated")
	checkInterface(reflect.TypeOf((*OnUserRegistered)(nil)).Elem(), "OnUserRegistered")
	checkInterface(reflect.TypeOf((*OnProductCreated)(nil)).Elem(), "OnProductCreated")
	checkInterface(reflect.TypeOf((*OnInvoiceCreated)(nil)).Elem(), "OnInvoiceCreated")
	checkInterface(reflect.TypeOf((*OnSaleRecorded)(nil)).Elem(), "OnSaleRecorded")
	checkInterface(reflect.TypeOf((*OnStockAdjusted)(nil)).Elem(), "OnStockAdjusted")
	checkInterface(reflect.TypeOf((*OnLowStock)(nil)).Elem(), "OnLowStock")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitBusinessCreated calls OnBusinessCreated for all plugins that implement it.
func (r *Registry) EmitBusinessCreated(ctx context.Context, biz interface{}) {
	r.mu.RLock()
	plugins := r.onBusinessCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBusinessCreated(ctx, biz)
		}); err != nil {
			r.logger.Warn("plugin OnBusinessCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitUserRegistered calls OnUserRegistered for all plugins that implement it.
func (r *Registry) EmitUserRegistered(ctx context.Context, usr interface{}) {
	r.mu.RLock()
	plugins := r.onUserRegistered
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnUserRegistered(ctx, usr)
		}); err != nil {
			r.logger.Warn("plugin OnUserRegistered failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitProductCreated calls OnProductCreated for all plugins that implement it.
func (r *Registry) EmitProductCreated(ctx context.Context, prod interface{}) {
	r.mu.RLock()
	plugins := r.onProductCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnProductCreated(ctx, prod)
		}); err != nil {
			r.logger.Warn("plugin OnProductCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitProductDeleted calls OnProductDeleted for all plugins that implement it.
func (r *Registry) EmitProductDeleted(ctx context.Context, productID string) {
	r.mu.RLock()
	plugins := r.onProductDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnProductDeleted(ctx, productID)
		}); err != nil {
			r.logger.Warn("plugin OnProductDeleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitCustomerCreated calls OnCustomerCreated for all plugins that implement it.
func (r *Registry) EmitCustomerCreated(ctx context.Context, cust interface{}) {
	r.mu.RLock()
	plugins := r.onCustomerCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnCustomerCreated(ctx, cust)
		}); err != nil {
			r.logger.Warn("plugin OnCustomerCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInvoiceCreated calls OnInvoiceCreated for all plugins that implement it.
func (r *Registry) EmitInvoiceCreated(ctx context.Context, inv interface{}) {
	r.mu.RLock()
	plugins := r.onInvoiceCreated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInvoiceCreated(ctx, inv)
		}); err != nil {
			r.logger.Warn("plugin OnInvoiceCreated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInvoiceUpdated calls OnInvoiceUpdated for all plugins that implement it.
func (r *Registry) EmitInvoiceUpdated(ctx context.Context, oldInv, newInv interface{}) {
	r.mu.RLock()
	plugins := r.onInvoiceUpdated
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInvoiceUpdated(ctx, oldInv, newInv)
		}); err != nil {
			r.logger.Warn("plugin OnInvoiceUpdated failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInvoiceDeleted calls OnInvoiceDeleted for all plugins that implement it.
func (r *Registry) EmitInvoiceDeleted(ctx context.Context, invoiceID string) {
	r.mu.RLock()
	plugins := r.onInvoiceDeleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInvoiceDeleted(ctx, invoiceID)
		}); err != nil {
			r.logger.Warn("plugin OnInvoiceDeleted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitSaleRecorded calls OnSaleRecorded for all plugins that implement it.
func (r *Registry) EmitSaleRecorded(ctx context.Context, s interface{}) {
	r.mu.RLock()
	plugins := r.onSaleRecorded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSaleRecorded(ctx, s)
		}); err != nil {
			r.logger.Warn("plugin OnSaleRecorded failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitStockAdjusted calls OnStockAdjusted for all plugins that implement it.
func (r *Registry) EmitStockAdjusted(ctx context.Context, productID string, delta, quantity int64) {
	r.mu.RLock()
	plugins := r.onStockAdjusted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnStockAdjusted(ctx, productID, delta, quantity)
		}); err != nil {
			r.logger.Warn("plugin OnStockAdjusted failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitLowStock calls OnLowStock for all plugins that implement it.
func (r *Registry) EmitLowStock(ctx context.Context, productID string, quantity, threshold int64) {
	r.mu.RLock()
	plugins := r.onLowStock
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnLowStock(ctx, productID, quantity, threshold)
		}); err != nil {
			r.logger.Warn("plugin OnLowStock failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the stock pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}

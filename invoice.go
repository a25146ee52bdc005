package tallybook

import (
	"context"
	"fmt"
	"strings"

	"github.com/tallybook/tallybook/id"
	"github.com/tallybook/tallybook/invoice"
	"github.com/tallybook/tallybook/product"
	"github.com/tallybook/tallybook/sale"
	"github.com/tallybook/tallybook/types"
)

// CreateInvoiceInput creates an invoice. Prices are caller-supplied per
// line, decoupled from the current catalog price.
type CreateInvoiceInput struct {
	CustomerID id.CustomerID
	Items      []invoice.Item
}

// UpdateInvoiceInput carries the optional fields of an update; nil
// fields are left unchanged. Items, when supplied, fully replaces the
// invoice's item list.
type UpdateInvoiceInput struct {
	CustomerID *id.CustomerID
	Items      []invoice.Item
	Status     *invoice.Status
}

// CreateInvoice validates the customer and every line item, deducts
// stock for each product, and persists the invoice together with its
// mirrored sale record.
//
// Validation is a pre-flight pass: no stock moves until the customer,
// every product reference, and every aggregate stock level has been
// checked. The deductions and both writes then run as one unit of work,
// so a failure at any step leaves no partial state behind.
func (e *Engine) CreateInvoice(ctx context.Context, actor Actor, in CreateInvoiceInput) (*InvoiceView, error) {
	bizID, err := e.authorizeTenantCreate(actor)
	if err != nil {
		return nil, err
	}
	if err := validateItems(in.Items); err != nil {
		return nil, err
	}

	cust, err := e.store.GetCustomer(ctx, in.CustomerID)
	if err != nil || cust.BusinessID != bizID {
		return nil, fmt.Errorf("%w: customer %s", ErrForeignEntity, in.CustomerID)
	}

	order, agg := aggregateItems(in.Items)
	products, err := e.resolveProducts(ctx, order, bizID)
	if err != nil {
		return nil, err
	}
	for _, pid := range order {
		p := products[pid]
		if p.Quantity < agg[pid] {
			return nil, &StockError{
				ProductName: p.Name,
				SKU:         p.SKU,
				Available:   p.Quantity,
				Requested:   agg[pid],
			}
		}
	}

	inv := &invoice.Invoice{
		Entity:     types.NewEntity(),
		ID:         id.NewInvoiceID(),
		CustomerID: in.CustomerID,
		BusinessID: bizID,
		Items:      in.Items,
		Total:      invoice.ItemsTotal(in.Items),
		Status:     invoice.StatusPending,
	}
	s := &sale.Sale{
		Entity:     types.NewEntity(),
		ID:         id.NewSaleID(),
		InvoiceID:  inv.ID,
		CustomerID: in.CustomerID,
		BusinessID: bizID,
		Total:      inv.Total,
	}

	err = e.store.InTx(ctx, func(ctx context.Context) error {
		for _, pid := range order {
			if _, err := e.AdjustStock(ctx, actor, pid, -agg[pid], "create", "Invoice creation"); err != nil {
				return err
			}
		}
		if err := e.store.CreateInvoice(ctx, inv); err != nil {
			return err
		}
		return e.store.CreateSale(ctx, s)
	})
	if err != nil {
		return nil, err
	}

	e.logActivity(ctx, actor.UserID, "Invoice", "create",
		fmt.Sprintf("Invoice created for customer %q (Total: %s)", cust.Name, inv.Total))
	e.logActivity(ctx, actor.UserID, "Sale", "create",
		fmt.Sprintf("Sale created for customer %q (Total: %s)", cust.Name, s.Total))

	e.plugins.EmitInvoiceCreated(ctx, inv)
	e.plugins.EmitSaleRecorded(ctx, s)

	return e.resolveInvoice(ctx, inv)
}

// UpdateInvoice partially updates an invoice. When items are supplied
// the quantity deltas between the old and new aggregates are applied
// through the stock ledger: a positive delta restocks, a negative delta
// deducts further, and products dropped from the list are restocked in
// full. The whole sequence runs as one unit of work.
func (e *Engine) UpdateInvoice(ctx context.Context, actor Actor, invID id.InvoiceID, in UpdateInvoiceInput) (*InvoiceView, error) {
	old, err := e.store.GetInvoice(ctx, invID)
	if err != nil {
		return nil, err
	}
	if err := e.authorize(actor, old.BusinessID); err != nil {
		return nil, err
	}

	inv, err := e.store.GetInvoice(ctx, invID)
	if err != nil {
		return nil, err
	}

	var changes []fieldChange

	if in.CustomerID != nil && *in.CustomerID != inv.CustomerID {
		cust, err := e.store.GetCustomer(ctx, *in.CustomerID)
		if err != nil || cust.BusinessID != inv.BusinessID {
			return nil, fmt.Errorf("%w: customer %s", ErrForeignEntity, *in.CustomerID)
		}
		changes = append(changes, fieldChange{"customer", inv.CustomerID.String(), in.CustomerID.String()})
		inv.CustomerID = *in.CustomerID
	}

	var newOrder []id.ProductID
	var newAgg map[id.ProductID]int64
	if in.Items != nil {
		if err := validateItems(in.Items); err != nil {
			return nil, err
		}

		newOrder, newAgg = aggregateItems(in.Items)
		products, err := e.resolveProducts(ctx, newOrder, inv.BusinessID)
		if err != nil {
			return nil, err
		}

		// Pre-flight: every net additional deduction must be coverable.
		_, oldAgg := aggregateItems(old.Items)
		for _, pid := range newOrder {
			delta := oldAgg[pid] - newAgg[pid]
			if delta < 0 && products[pid].Quantity+delta < 0 {
				p := products[pid]
				return nil, &StockError{
					ProductName: p.Name,
					SKU:         p.SKU,
					Available:   p.Quantity,
					Requested:   -delta,
				}
			}
		}

		newTotal := invoice.ItemsTotal(in.Items)
		if !newTotal.Equal(inv.Total) {
			changes = append(changes, fieldChange{"total", inv.Total.String(), newTotal.String()})
		}
		inv.Items = in.Items
		inv.Total = newTotal
	}

	if in.Status != nil && *in.Status != inv.Status {
		if !in.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown invoice status %q", ErrInvalidInput, *in.Status)
		}
		changes = append(changes, fieldChange{"status", string(inv.Status), string(*in.Status)})
		inv.Status = *in.Status
	}

	totalChanged := !inv.Total.Equal(old.Total)

	err = e.store.InTx(ctx, func(ctx context.Context) error {
		if in.Items != nil {
			oldOrder, oldAgg := aggregateItems(old.Items)

			for _, pid := range newOrder {
				delta := oldAgg[pid] - newAgg[pid]
				if _, err := e.AdjustStock(ctx, actor, pid, delta, "update", "Invoice update"); err != nil {
					return err
				}
			}
			// Products dropped from the list are restocked in full.
			for _, pid := range oldOrder {
				if _, kept := newAgg[pid]; kept {
					continue
				}
				if _, err := e.AdjustStock(ctx, actor, pid, oldAgg[pid], "update", "Invoice update (product removed)"); err != nil {
					return err
				}
			}
		}

		inv.Touch()
		if err := e.store.UpdateInvoice(ctx, inv); err != nil {
			return err
		}

		if totalChanged {
			s, err := e.store.GetSaleByInvoice(ctx, invID)
			if err != nil {
				return err
			}
			s.Total = inv.Total
			s.Touch()
			return e.store.UpdateSale(ctx, s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logActivity(ctx, actor.UserID, "Invoice", "update",
		strings.TrimSpace(fmt.Sprintf("Invoice updated. %s", changeDescription(changes))))
	if totalChanged {
		e.logActivity(ctx, actor.UserID, "Sale", "update",
			fmt.Sprintf("Sale updated for invoice (Total: %s)", inv.Total))
	}

	e.plugins.EmitInvoiceUpdated(ctx, old, inv)

	return e.resolveInvoice(ctx, inv)
}

// DeleteInvoice restocks every item in full and removes the invoice and
// its paired sale as one unit of work.
func (e *Engine) DeleteInvoice(ctx context.Context, actor Actor, invID id.InvoiceID) error {
	inv, err := e.store.GetInvoice(ctx, invID)
	if err != nil {
		return err
	}
	if err := e.authorize(actor, inv.BusinessID); err != nil {
		return err
	}

	order, agg := aggregateItems(inv.Items)

	err = e.store.InTx(ctx, func(ctx context.Context) error {
		for _, pid := range order {
			if _, err := e.AdjustStock(ctx, actor, pid, agg[pid], "delete", "Invoice deletion"); err != nil {
				return err
			}
		}

		if err := e.store.DeleteInvoice(ctx, invID); err != nil {
			return err
		}

		s, err := e.store.GetSaleByInvoice(ctx, invID)
		if err != nil {
			if IsNotFound(err) {
				return nil
			}
			return err
		}
		return e.store.DeleteSale(ctx, s.ID)
	})
	if err != nil {
		return err
	}

	e.logActivity(ctx, actor.UserID, "Invoice", "delete",
		fmt.Sprintf("Invoice deleted (Total: %s)", inv.Total))
	e.logActivity(ctx, actor.UserID, "Sale", "delete",
		fmt.Sprintf("Sale deleted for invoice (Total: %s)", inv.Total))

	e.plugins.EmitInvoiceDeleted(ctx, invID.String())

	return nil
}

// DeleteSale removes a sale record. A sale exists iff its invoice does,
// so deleting a sale cascades to the paired invoice, restocking its
// items on the way out.
func (e *Engine) DeleteSale(ctx context.Context, actor Actor, saleID id.SaleID) error {
	s, err := e.store.GetSale(ctx, saleID)
	if err != nil {
		return err
	}
	if err := e.authorize(actor, s.BusinessID); err != nil {
		return err
	}

	return e.DeleteInvoice(ctx, actor, s.InvoiceID)
}

// ──────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────

// validateItems rejects empty lists, non-positive quantities, and
// missing or mixed price currencies. Every line must carry the same
// currency so the total is well-defined.
func validateItems(items []invoice.Item) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: invoice needs at least one item", ErrInvalidInput)
	}
	currency := items[0].Price.Currency
	for _, it := range items {
		if it.ProductID.IsNil() {
			return fmt.Errorf("%w: item is missing a product reference", ErrInvalidInput)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("%w: item quantity must be positive", ErrInvalidInput)
		}
		if it.Price.Currency == "" {
			return fmt.Errorf("%w: item price is missing a currency", ErrInvalidInput)
		}
		if it.Price.Currency != currency {
			return fmt.Errorf("%w: item currencies must match (%s vs %s)", ErrInvalidInput, currency, it.Price.Currency)
		}
	}
	return nil
}

// aggregateItems sums requested quantity per product, preserving
// first-seen order so stock adjustments and their audit entries are
// deterministic.
func aggregateItems(items []invoice.Item) ([]id.ProductID, map[id.ProductID]int64) {
	agg := invoice.QuantityByProduct(items)
	order := make([]id.ProductID, 0, len(agg))
	seen := make(map[id.ProductID]bool, len(agg))
	for _, it := range items {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			order = append(order, it.ProductID)
		}
	}
	return order, agg
}

// resolveProducts loads every referenced product and verifies it belongs
// to bizID. Missing and foreign products fail identically: the caller
// has no business knowing which.
func (e *Engine) resolveProducts(ctx context.Context, ids []id.ProductID, bizID id.BusinessID) (map[id.ProductID]*product.Product, error) {
	products := make(map[id.ProductID]*product.Product, len(ids))
	for _, pid := range ids {
		p, err := e.store.GetProduct(ctx, pid)
		if err != nil || p.BusinessID != bizID {
			return nil, fmt.Errorf("%w: product %s", ErrForeignEntity, pid)
		}
		products[pid] = p
	}
	return products, nil
}

package tallybook

import (
	"context"
	"fmt"

	"github.com/tallybook/tallybook/id"
	"github.com/tallybook/tallybook/product"
)

// AdjustStock applies a signed quantity delta to a product. It is the
// single choke point for ALL quantity changes — invoice deductions,
// restocks, and catalog corrections alike. The store applies the delta
// as an atomic conditional update, so a delta that would drive quantity
// negative fails with ErrInsufficientStock and changes nothing, even
// under concurrent callers.
//
// action and reasonPrefix feed the activity trail: one entry is written
// when the quantity or the low-stock flag changed. A zero delta is a
// no-op.
func (e *Engine) AdjustStock(ctx context.Context, actor Actor, productID id.ProductID, delta int64, action, reasonPrefix string) (*product.Product, error) {
	p, err := e.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := e.authorize(actor, p.BusinessID); err != nil {
		return nil, err
	}

	if delta == 0 {
		return p, nil
	}

	wasAlerting := p.LowStockAlert

	p, err = e.store.ApplyStockDelta(ctx, productID, delta)
	if err != nil {
		return nil, err
	}

	e.logActivity(ctx, actor.UserID, "Product", action,
		fmt.Sprintf("%s: product %q (SKU: %s) adjusted by %+d to %d (low stock alert: %v)",
			reasonPrefix, p.Name, p.SKU, delta, p.Quantity, p.LowStockAlert))

	e.plugins.EmitStockAdjusted(ctx, productID.String(), delta, p.Quantity)
	if p.LowStockAlert && !wasAlerting {
		e.plugins.EmitLowStock(ctx, productID.String(), p.Quantity, p.LowStockAmount)
	}

	e.logger.Debug("stock adjusted",
		"product_id", productID.String(),
		"sku", p.SKU,
		"delta", delta,
		"quantity", p.Quantity,
		"low_stock_alert", p.LowStockAlert,
	)

	return p, nil
}

package tallybook

import (
	"context"
	"fmt"
	"time"

	"github.com/tallybook/tallybook/activity"
	"github.com/tallybook/tallybook/business"
	"github.com/tallybook/tallybook/customer"
	"github.com/tallybook/tallybook/id"
	"github.com/tallybook/tallybook/invoice"
	"github.com/tallybook/tallybook/product"
	"github.com/tallybook/tallybook/sale"
	"github.com/tallybook/tallybook/types"
	"github.com/tallybook/tallybook/user"
)

// ItemView is one invoice line with its product reference resolved.
type ItemView struct {
	Product  *product.Product `json:"product"`
	Quantity int64            `json:"quantity"`
	Price    types.Money      `json:"price"`
	Amount   types.Money      `json:"amount"`
}

// InvoiceView is an invoice with every reference resolved. Resolution
// is explicit: a dangling customer, business, or product reference
// fails the read rather than returning a partially-populated view.
type InvoiceView struct {
	Invoice  *invoice.Invoice   `json:"invoice"`
	Customer *customer.Customer `json:"customer"`
	Business *business.Business `json:"business"`
	Items    []ItemView         `json:"items"`
}

// Profile is the result of Me: the actor's user record and, for
// non-platform actors, its business.
type Profile struct {
	User     *user.User         `json:"user"`
	Business *business.Business `json:"business,omitempty"`
}

// scope resolves the business filter for list reads: platform actors
// see every tenant (Nil filter), everyone else only their own.
func (e *Engine) scope(actor Actor) (id.BusinessID, error) {
	if actor.IsAnonymous() {
		return id.Nil, ErrNotAuthenticated
	}
	if actor.IsPlatform() {
		return id.Nil, nil
	}
	if actor.BusinessID.IsNil() {
		return id.Nil, ErrUnauthorized
	}
	return actor.BusinessID, nil
}

// ──────────────────────────────────────────────────
// Businesses
// ──────────────────────────────────────────────────

// Businesses lists all tenants. Platform-only.
func (e *Engine) Businesses(ctx context.Context, actor Actor, limit, offset int) (types.Page[*business.Business], error) {
	if err := e.requirePlatform(actor); err != nil {
		return types.Page[*business.Business]{}, err
	}

	items, total, err := e.store.ListBusinesses(ctx, business.ListOpts{Limit: limit, Offset: offset})
	if err != nil {
		return types.Page[*business.Business]{}, err
	}
	return types.NewPage(items, total, offset), nil
}

// SearchBusinesses lists tenants whose name matches the term.
// Platform-only.
func (e *Engine) SearchBusinesses(ctx context.Context, actor Actor, term string, limit, offset int) (types.Page[*business.Business], error) {
	if err := e.requirePlatform(actor); err != nil {
		return types.Page[*business.Business]{}, err
	}

	items, total, err := e.store.ListBusinesses(ctx, business.ListOpts{Search: term, Limit: limit, Offset: offset})
	if err != nil {
		return types.Page[*business.Business]{}, err
	}
	return types.NewPage(items, total, offset), nil
}

// Business retrieves a single tenant the actor may see.
func (e *Engine) Business(ctx context.Context, actor Actor, bizID id.BusinessID) (*business.Business, error) {
	if err := e.authorize(actor, bizID); err != nil {
		return nil, err
	}
	return e.store.GetBusiness(ctx, bizID)
}

// ──────────────────────────────────────────────────
// Products
// ──────────────────────────────────────────────────

// Products lists products visible to the actor.
func (e *Engine) Products(ctx context.Context, actor Actor, limit, offset int) (types.Page[*product.Product], error) {
	bizID, err := e.scope(actor)
	if err != nil {
		return types.Page[*product.Product]{}, err
	}

	items, total, err := e.store.ListProducts(ctx, product.ListOpts{BusinessID: bizID, Limit: limit, Offset: offset})
	if err != nil {
		return types.Page[*product.Product]{}, err
	}
	return types.NewPage(items, total, offset), nil
}

// SearchProducts lists products matching the term over name, brand, and
// SKU. Platform actors may narrow to one business via bizID; everyone
// else is always scoped to their own.
func (e *Engine) SearchProducts(ctx context.Context, actor Actor, term string, bizID id.BusinessID, limit, offset int) (types.Page[*product.Product], error) {
	scoped, err := e.scope(actor)
	if err != nil {
		return types.Page[*product.Product]{}, err
	}
	if scoped.IsNil() {
		scoped = bizID // platform narrowing
	}

	items, total, err := e.store.ListProducts(ctx, product.ListOpts{
		BusinessID: scoped,
		Search:     term,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return types.Page[*product.Product]{}, err
	}
	return types.NewPage(items, total, offset), nil
}

// LowStockProducts lists products whose low-stock alert is raised.
func (e *Engine) LowStockProducts(ctx context.Context, actor Actor, limit, offset int) (types.Page[*product.Product], error) {
	bizID, err := e.scope(actor)
	if err != nil {
		return types.Page[*product.Product]{}, err
	}

	items, total, err := e.store.ListProducts(ctx, product.ListOpts{
		BusinessID:   bizID,
		LowStockOnly: true,
		Limit:        limit,
		Offset:       offset,
	})
	if err != nil {
		return types.Page[*product.Product]{}, err
	}
	return types.NewPage(items, total, offset), nil
}

// Product retrieves a single product the actor may see.
func (e *Engine) Product(ctx context.Context, actor Actor, productID id.ProductID) (*product.Product, error) {
	p, err := e.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := e.authorize(actor, p.BusinessID); err != nil {
		return nil, err
	}
	return p, nil
}

// ──────────────────────────────────────────────────
// Customers
// ──────────────────────────────────────────────────

// Customers lists customers visible to the actor.
func (e *Engine) Customers(ctx context.Context, actor Actor, limit, offset int) (types.Page[*customer.Customer], error) {
	bizID, err := e.scope(actor)
	if err != nil {
		return types.Page[*customer.Customer]{}, err
	}

	items, total, err := e.store.ListCustomers(ctx, customer.ListOpts{BusinessID: bizID, Limit: limit, Offset: offset})
	if err != nil {
		return types.Page[*customer.Customer]{}, err
	}
	return types.NewPage(items, total, offset), nil
}

// Customer retrieves a single customer the actor may see.
func (e *Engine) Customer(ctx context.Context, actor Actor, customerID id.CustomerID) (*customer.Customer, error) {
	c, err := e.store.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := e.authorize(actor, c.BusinessID); err != nil {
		return nil, err
	}
	return c, nil
}

// ──────────────────────────────────────────────────
// Invoices
// ──────────────────────────────────────────────────

// Invoices lists invoices visible to the actor, references resolved.
func (e *Engine) Invoices(ctx context.Context, actor Actor, limit, offset int) (types.Page[*InvoiceView], error) {
	bizID, err := e.scope(actor)
	if err != nil {
		return types.Page[*InvoiceView]{}, err
	}

	items, total, err := e.store.ListInvoices(ctx, invoice.ListOpts{BusinessID: bizID, Limit: limit, Offset: offset})
	if err != nil {
		return types.Page[*InvoiceView]{}, err
	}

	views := make([]*InvoiceView, 0, len(items))
	for _, inv := range items {
		view, err := e.resolveInvoice(ctx, inv)
		if err != nil {
			return types.Page[*InvoiceView]{}, err
		}
		views = append(views, view)
	}
	return types.NewPage(views, total, offset), nil
}

// Invoice retrieves a single invoice the actor may see, references
// resolved.
func (e *Engine) Invoice(ctx context.Context, actor Actor, invID id.InvoiceID) (*InvoiceView, error) {
	inv, err := e.store.GetInvoice(ctx, invID)
	if err != nil {
		return nil, err
	}
	if err := e.authorize(actor, inv.BusinessID); err != nil {
		return nil, err
	}
	return e.resolveInvoice(ctx, inv)
}

// resolveInvoice expands an invoice's references. A dangling reference
// is an error, never a partially-populated view.
func (e *Engine) resolveInvoice(ctx context.Context, inv *invoice.Invoice) (*InvoiceView, error) {
	cust, err := e.store.GetCustomer(ctx, inv.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("resolve invoice %s customer: %w", inv.ID, err)
	}
	biz, err := e.store.GetBusiness(ctx, inv.BusinessID)
	if err != nil {
		return nil, fmt.Errorf("resolve invoice %s business: %w", inv.ID, err)
	}

	items := make([]ItemView, 0, len(inv.Items))
	for _, it := range inv.Items {
		p, err := e.store.GetProduct(ctx, it.ProductID)
		if err != nil {
			return nil, fmt.Errorf("resolve invoice %s product %s: %w", inv.ID, it.ProductID, err)
		}
		items = append(items, ItemView{
			Product:  p,
			Quantity: it.Quantity,
			Price:    it.Price,
			Amount:   it.Amount(),
		})
	}

	return &InvoiceView{
		Invoice:  inv,
		Customer: cust,
		Business: biz,
		Items:    items,
	}, nil
}

// ──────────────────────────────────────────────────
// Sales
// ──────────────────────────────────────────────────

// Sales lists sale records visible to the actor.
func (e *Engine) Sales(ctx context.Context, actor Actor, limit, offset int) (types.Page[*sale.Sale], error) {
	bizID, err := e.scope(actor)
	if err != nil {
		return types.Page[*sale.Sale]{}, err
	}

	items, total, err := e.store.ListSales(ctx, sale.ListOpts{BusinessID: bizID, Limit: limit, Offset: offset})
	if err != nil {
		return types.Page[*sale.Sale]{}, err
	}
	return types.NewPage(items, total, offset), nil
}

// Sale retrieves a single sale record the actor may see.
func (e *Engine) Sale(ctx context.Context, actor Actor, saleID id.SaleID) (*sale.Sale, error) {
	s, err := e.store.GetSale(ctx, saleID)
	if err != nil {
		return nil, err
	}
	if err := e.authorize(actor, s.BusinessID); err != nil {
		return nil, err
	}
	return s, nil
}

// SalesReport lists sales whose creation time falls within [start, end].
func (e *Engine) SalesReport(ctx context.Context, actor Actor, start, end time.Time, limit, offset int) (types.Page[*sale.Sale], error) {
	bizID, err := e.scope(actor)
	if err != nil {
		return types.Page[*sale.Sale]{}, err
	}

	items, total, err := e.store.ListSales(ctx, sale.ListOpts{
		BusinessID: bizID,
		Start:      start,
		End:        end,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return types.Page[*sale.Sale]{}, err
	}
	return types.NewPage(items, total, offset), nil
}

// ──────────────────────────────────────────────────
// Activity & identity
// ──────────────────────────────────────────────────

// ActivityLogs lists audit entries. Platform actors see every entry;
// everyone else only their own.
func (e *Engine) ActivityLogs(ctx context.Context, actor Actor, limit, offset int) (types.Page[*activity.Entry], error) {
	if actor.IsAnonymous() {
		return types.Page[*activity.Entry]{}, ErrNotAuthenticated
	}

	opts := activity.ListOpts{Limit: limit, Offset: offset}
	if !actor.IsPlatform() {
		opts.UserID = actor.UserID
	}

	items, total, err := e.store.ListActivity(ctx, opts)
	if err != nil {
		return types.Page[*activity.Entry]{}, err
	}
	return types.NewPage(items, total, offset), nil
}

// Users lists user accounts, optionally narrowed to one business.
// Platform-only.
func (e *Engine) Users(ctx context.Context, actor Actor, bizID id.BusinessID, limit, offset int) (types.Page[*user.User], error) {
	if err := e.requirePlatform(actor); err != nil {
		return types.Page[*user.User]{}, err
	}

	items, total, err := e.store.ListUsers(ctx, user.ListOpts{BusinessID: bizID, Limit: limit, Offset: offset})
	if err != nil {
		return types.Page[*user.User]{}, err
	}
	return types.NewPage(items, total, offset), nil
}

// Me resolves the actor to its user record and business.
func (e *Engine) Me(ctx context.Context, actor Actor) (*Profile, error) {
	if actor.IsAnonymous() {
		return nil, ErrNotAuthenticated
	}

	u, err := e.store.GetUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	profile := &Profile{User: u}
	if !u.BusinessID.IsNil() {
		biz, err := e.store.GetBusiness(ctx, u.BusinessID)
		if err != nil {
			return nil, err
		}
		profile.Business = biz
	}
	return profile, nil
}

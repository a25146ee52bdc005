package tallybook_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	tallybook "github.com/tallybook/tallybook"
	"github.com/tallybook/tallybook/business"
	"github.com/tallybook/tallybook/id"
	"github.com/tallybook/tallybook/invoice"
	"github.com/tallybook/tallybook/store/memory"
	"github.com/tallybook/tallybook/types"
	"github.com/tallybook/tallybook/user"
)

func newTestEngine(t *testing.T) *tallybook.Engine {
	t.Helper()

	e := tallybook.New(memory.New(),
		tallybook.WithTokenSecret([]byte("test-secret")),
		tallybook.WithBcryptCost(4), // keep hashing fast in tests
	)
	require.NoError(t, e.Start(context.Background()))
	t.Cleanup(func() { _ = e.Stop() })

	return e
}

func platformActor() tallybook.Actor {
	return tallybook.Actor{UserID: id.NewUserID(), Role: user.RolePlatform}
}

// seedTenant creates a business and returns an admin actor scoped to it.
func seedTenant(t *testing.T, e *tallybook.Engine, name string) (tallybook.Actor, *business.Business) {
	t.Helper()

	biz, err := e.CreateBusiness(context.Background(), platformActor(), tallybook.CreateBusinessInput{
		Name: name,
		Type: business.TypeStore,
	})
	require.NoError(t, err)

	actor := tallybook.Actor{UserID: id.NewUserID(), Role: user.RoleAdmin, BusinessID: biz.ID}
	return actor, biz
}

func seedProduct(t *testing.T, e *tallybook.Engine, actor tallybook.Actor, name, sku string, qty int64, price types.Money) id.ProductID {
	t.Helper()

	p, err := e.CreateProduct(context.Background(), actor, tallybook.CreateProductInput{
		Name:           name,
		SKU:            sku,
		Quantity:       qty,
		Price:          price,
		LowStockAmount: 5,
	})
	require.NoError(t, err)
	return p.ID
}

func seedCustomer(t *testing.T, e *tallybook.Engine, actor tallybook.Actor, name, email string) id.CustomerID {
	t.Helper()

	c, err := e.CreateCustomer(context.Background(), actor, tallybook.CreateCustomerInput{
		Name:  name,
		Email: email,
	})
	require.NoError(t, err)
	return c.ID
}

// ──────────────────────────────────────────────────
// Accounts & auth
// ──────────────────────────────────────────────────

func TestRegisterLoginAuthenticate(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	// Anonymous registration bootstraps the first account.
	payload, err := e.Register(ctx, tallybook.Actor{}, tallybook.RegisterInput{
		Username: "ada",
		Password: "hunter2",
	})
	require.NoError(t, err)
	require.NotEmpty(t, payload.Token)
	require.Equal(t, user.RoleUser, payload.User.Role)

	// The issued token resolves back to the user.
	actor, err := e.Authenticate(ctx, payload.Token)
	require.NoError(t, err)
	require.Equal(t, payload.User.ID, actor.UserID)
	require.Equal(t, user.RoleUser, actor.Role)

	// Wrong password and unknown user fail identically.
	_, err = e.Login(ctx, "ada", "wrong")
	require.ErrorIs(t, err, tallybook.ErrInvalidCredentials)
	_, err = e.Login(ctx, "nobody", "hunter2")
	require.ErrorIs(t, err, tallybook.ErrInvalidCredentials)

	login, err := e.Login(ctx, "ada", "hunter2")
	require.NoError(t, err)
	require.NotEmpty(t, login.Token)

	// Garbage tokens never authenticate.
	_, err = e.Authenticate(ctx, "not-a-token")
	require.ErrorIs(t, err, tallybook.ErrNotAuthenticated)
}

func TestRegisterAuthorization(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	// An authenticated non-platform actor may not create accounts.
	regular := tallybook.Actor{UserID: id.NewUserID(), Role: user.RoleUser, BusinessID: id.NewBusinessID()}
	_, err := e.Register(ctx, regular, tallybook.RegisterInput{Username: "eve", Password: "pw"})
	require.ErrorIs(t, err, tallybook.ErrUnauthorized)

	// Platform actors may, and platform accounts never get a business.
	_, biz := seedTenant(t, e, "Acme")
	payload, err := e.Register(ctx, platformActor(), tallybook.RegisterInput{
		Username:   "root",
		Password:   "pw",
		Role:       user.RolePlatform,
		BusinessID: biz.ID,
	})
	require.NoError(t, err)
	require.True(t, payload.User.BusinessID.IsNil())

	// A tenant account must reference an existing business.
	_, err = e.Register(ctx, platformActor(), tallybook.RegisterInput{
		Username:   "ghost",
		Password:   "pw",
		BusinessID: id.NewBusinessID(),
	})
	require.ErrorIs(t, err, tallybook.ErrBusinessNotFound)

	// Duplicate usernames are rejected by the store.
	_, err = e.Register(ctx, tallybook.Actor{}, tallybook.RegisterInput{Username: "root", Password: "pw"})
	require.ErrorIs(t, err, tallybook.ErrDuplicateKey)
}

// ──────────────────────────────────────────────────
// Invoice lifecycle
// ──────────────────────────────────────────────────

func TestInvoiceLifecycle(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	actor, _ := seedTenant(t, e, "Corner Shop")
	productA := seedProduct(t, e, actor, "Widget", "WID-1", 10, types.USD(500))
	productB := seedProduct(t, e, actor, "Gadget", "GAD-1", 7, types.USD(250))
	custID := seedCustomer(t, e, actor, "Grace", "grace@example.com")

	// Create: two widgets at $5.00 each.
	view, err := e.CreateInvoice(ctx, actor, tallybook.CreateInvoiceInput{
		CustomerID: custID,
		Items:      []invoice.Item{{ProductID: productA, Quantity: 2, Price: types.USD(500)}},
	})
	require.NoError(t, err)
	require.Equal(t, invoice.StatusPending, view.Invoice.Status)
	require.True(t, view.Invoice.Total.Equal(types.USD(1000)))
	require.Len(t, view.Items, 1)
	require.True(t, view.Items[0].Amount.Equal(types.USD(1000)))

	p, err := e.Product(ctx, actor, productA)
	require.NoError(t, err)
	require.EqualValues(t, 8, p.Quantity)

	// The mirrored sale carries the same total.
	sales, err := e.Sales(ctx, actor, 0, 0)
	require.NoError(t, err)
	require.Len(t, sales.Items, 1)
	require.Equal(t, view.Invoice.ID, sales.Items[0].InvoiceID)
	require.True(t, sales.Items[0].Total.Equal(types.USD(1000)))

	invID := view.Invoice.ID

	// Update: grow the widget line to five units. Net delta is -3.
	view, err = e.UpdateInvoice(ctx, actor, invID, tallybook.UpdateInvoiceInput{
		Items: []invoice.Item{{ProductID: productA, Quantity: 5, Price: types.USD(500)}},
	})
	require.NoError(t, err)
	require.True(t, view.Invoice.Total.Equal(types.USD(2500)))

	p, err = e.Product(ctx, actor, productA)
	require.NoError(t, err)
	require.EqualValues(t, 5, p.Quantity)

	sl, err := e.Sale(ctx, actor, sales.Items[0].ID)
	require.NoError(t, err)
	require.True(t, sl.Total.Equal(types.USD(2500)))

	// Update: swap the widget for a gadget. The dropped widget is
	// restocked in full.
	view, err = e.UpdateInvoice(ctx, actor, invID, tallybook.UpdateInvoiceInput{
		Items: []invoice.Item{{ProductID: productB, Quantity: 1, Price: types.USD(250)}},
	})
	require.NoError(t, err)
	require.True(t, view.Invoice.Total.Equal(types.USD(250)))

	p, err = e.Product(ctx, actor, productA)
	require.NoError(t, err)
	require.EqualValues(t, 10, p.Quantity)

	p, err = e.Product(ctx, actor, productB)
	require.NoError(t, err)
	require.EqualValues(t, 6, p.Quantity)

	// Delete: everything restocked, invoice and sale both gone.
	require.NoError(t, e.DeleteInvoice(ctx, actor, invID))

	p, err = e.Product(ctx, actor, productB)
	require.NoError(t, err)
	require.EqualValues(t, 7, p.Quantity)

	_, err = e.Invoice(ctx, actor, invID)
	require.True(t, tallybook.IsNotFound(err))

	sales, err = e.Sales(ctx, actor, 0, 0)
	require.NoError(t, err)
	require.Empty(t, sales.Items)
}

func TestCreateInvoiceInsufficientStock(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	actor, _ := seedTenant(t, e, "Corner Shop")
	productA := seedProduct(t, e, actor, "Widget", "WID-1", 10, types.USD(500))
	custID := seedCustomer(t, e, actor, "Grace", "grace@example.com")

	_, err := e.CreateInvoice(ctx, actor, tallybook.CreateInvoiceInput{
		CustomerID: custID,
		Items:      []invoice.Item{{ProductID: productA, Quantity: 11, Price: types.USD(500)}},
	})
	require.ErrorIs(t, err, tallybook.ErrInsufficientStock)

	var stockErr *tallybook.StockError
	require.True(t, errors.As(err, &stockErr))
	require.Equal(t, "Widget", stockErr.ProductName)
	require.EqualValues(t, 10, stockErr.Available)
	require.EqualValues(t, 11, stockErr.Requested)

	// Nothing moved.
	p, err := e.Product(ctx, actor, productA)
	require.NoError(t, err)
	require.EqualValues(t, 10, p.Quantity)

	invoices, err := e.Invoices(ctx, actor, 0, 0)
	require.NoError(t, err)
	require.Empty(t, invoices.Items)

	sales, err := e.Sales(ctx, actor, 0, 0)
	require.NoError(t, err)
	require.Empty(t, sales.Items)
}

func TestCreateInvoiceAggregatesDuplicateLines(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	actor, _ := seedTenant(t, e, "Corner Shop")
	productA := seedProduct(t, e, actor, "Widget", "WID-1", 10, types.USD(500))
	custID := seedCustomer(t, e, actor, "Grace", "grace@example.com")

	// Stock is checked against the per-product aggregate, not per line.
	_, err := e.CreateInvoice(ctx, actor, tallybook.CreateInvoiceInput{
		CustomerID: custID,
		Items: []invoice.Item{
			{ProductID: productA, Quantity: 6, Price: types.USD(500)},
			{ProductID: productA, Quantity: 5, Price: types.USD(400)},
		},
	})
	require.ErrorIs(t, err, tallybook.ErrInsufficientStock)

	view, err := e.CreateInvoice(ctx, actor, tallybook.CreateInvoiceInput{
		CustomerID: custID,
		Items: []invoice.Item{
			{ProductID: productA, Quantity: 4, Price: types.USD(500)},
			{ProductID: productA, Quantity: 4, Price: types.USD(400)},
		},
	})
	require.NoError(t, err)
	require.True(t, view.Invoice.Total.Equal(types.USD(3600)))

	p, err := e.Product(ctx, actor, productA)
	require.NoError(t, err)
	require.EqualValues(t, 2, p.Quantity)
}

func TestCreateInvoiceValidation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	actor, _ := seedTenant(t, e, "Corner Shop")
	productA := seedProduct(t, e, actor, "Widget", "WID-1", 10, types.USD(500))
	custID := seedCustomer(t, e, actor, "Grace", "grace@example.com")

	tests := []struct {
		name    string
		input   tallybook.CreateInvoiceInput
		wantErr error
	}{
		{
			"empty items",
			tallybook.CreateInvoiceInput{CustomerID: custID},
			tallybook.ErrInvalidInput,
		},
		{
			"zero quantity",
			tallybook.CreateInvoiceInput{
				CustomerID: custID,
				Items:      []invoice.Item{{ProductID: productA, Quantity: 0, Price: types.USD(500)}},
			},
			tallybook.ErrInvalidInput,
		},
		{
			"mixed currencies",
			tallybook.CreateInvoiceInput{
				CustomerID: custID,
				Items: []invoice.Item{
					{ProductID: productA, Quantity: 1, Price: types.USD(500)},
					{ProductID: productA, Quantity: 1, Price: types.EUR(500)},
				},
			},
			tallybook.ErrInvalidInput,
		},
		{
			"missing currency",
			tallybook.CreateInvoiceInput{
				CustomerID: custID,
				Items:      []invoice.Item{{ProductID: productA, Quantity: 1, Price: types.Money{Amount: 500}}},
			},
			tallybook.ErrInvalidInput,
		},
		{
			"unknown customer",
			tallybook.CreateInvoiceInput{
				CustomerID: id.NewCustomerID(),
				Items:      []invoice.Item{{ProductID: productA, Quantity: 1, Price: types.USD(500)}},
			},
			tallybook.ErrForeignEntity,
		},
		{
			"unknown product",
			tallybook.CreateInvoiceInput{
				CustomerID: custID,
				Items:      []invoice.Item{{ProductID: id.NewProductID(), Quantity: 1, Price: types.USD(500)}},
			},
			tallybook.ErrForeignEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.CreateInvoice(ctx, actor, tt.input)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	// Cross-tenant references fail the same way as missing ones.
	otherActor, _ := seedTenant(t, e, "Other Shop")
	otherCust := seedCustomer(t, e, otherActor, "Mallory", "mallory@example.com")

	_, err := e.CreateInvoice(ctx, actor, tallybook.CreateInvoiceInput{
		CustomerID: otherCust,
		Items:      []invoice.Item{{ProductID: productA, Quantity: 1, Price: types.USD(500)}},
	})
	require.ErrorIs(t, err, tallybook.ErrForeignEntity)

	// The update path applies the same item validation.
	view, err := e.CreateInvoice(ctx, actor, tallybook.CreateInvoiceInput{
		CustomerID: custID,
		Items:      []invoice.Item{{ProductID: productA, Quantity: 1, Price: types.USD(500)}},
	})
	require.NoError(t, err)

	_, err = e.UpdateInvoice(ctx, actor, view.Invoice.ID, tallybook.UpdateInvoiceInput{
		Items: []invoice.Item{
			{ProductID: productA, Quantity: 1, Price: types.USD(500)},
			{ProductID: productA, Quantity: 1, Price: types.GBP(500)},
		},
	})
	require.ErrorIs(t, err, tallybook.ErrInvalidInput)
}

func TestUpdateInvoiceInsufficientStockLeavesStateIntact(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	actor, _ := seedTenant(t, e, "Corner Shop")
	productA := seedProduct(t, e, actor, "Widget", "WID-1", 10, types.USD(500))
	custID := seedCustomer(t, e, actor, "Grace", "grace@example.com")

	view, err := e.CreateInvoice(ctx, actor, tallybook.CreateInvoiceInput{
		CustomerID: custID,
		Items:      []invoice.Item{{ProductID: productA, Quantity: 2, Price: types.USD(500)}},
	})
	require.NoError(t, err)

	// Growing to 20 needs 18 more than the 8 remaining.
	_, err = e.UpdateInvoice(ctx, actor, view.Invoice.ID, tallybook.UpdateInvoiceInput{
		Items: []invoice.Item{{ProductID: productA, Quantity: 20, Price: types.USD(500)}},
	})
	require.ErrorIs(t, err, tallybook.ErrInsufficientStock)

	p, err := e.Product(ctx, actor, productA)
	require.NoError(t, err)
	require.EqualValues(t, 8, p.Quantity)

	got, err := e.Invoice(ctx, actor, view.Invoice.ID)
	require.NoError(t, err)
	require.True(t, got.Invoice.Total.Equal(types.USD(1000)))
	require.Len(t, got.Invoice.Items, 1)
	require.EqualValues(t, 2, got.Invoice.Items[0].Quantity)
}

func TestUpdateInvoiceStatusAndCustomer(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	actor, _ := seedTenant(t, e, "Corner Shop")
	productA := seedProduct(t, e, actor, "Widget", "WID-1", 10, types.USD(500))
	custID := seedCustomer(t, e, actor, "Grace", "grace@example.com")
	otherCust := seedCustomer(t, e, actor, "Linus", "linus@example.com")

	view, err := e.CreateInvoice(ctx, actor, tallybook.CreateInvoiceInput{
		CustomerID: custID,
		Items:      []invoice.Item{{ProductID: productA, Quantity: 2, Price: types.USD(500)}},
	})
	require.NoError(t, err)

	paid := invoice.StatusPaid
	view, err = e.UpdateInvoice(ctx, actor, view.Invoice.ID, tallybook.UpdateInvoiceInput{
		CustomerID: &otherCust,
		Status:     &paid,
	})
	require.NoError(t, err)
	require.Equal(t, invoice.StatusPaid, view.Invoice.Status)
	require.Equal(t, otherCust, view.Invoice.CustomerID)
	require.Equal(t, "Linus", view.Customer.Name)

	// Leaving items untouched leaves stock untouched.
	p, err := e.Product(ctx, actor, productA)
	require.NoError(t, err)
	require.EqualValues(t, 8, p.Quantity)

	bogus := invoice.Status("shipped")
	_, err = e.UpdateInvoice(ctx, actor, view.Invoice.ID, tallybook.UpdateInvoiceInput{Status: &bogus})
	require.ErrorIs(t, err, tallybook.ErrInvalidInput)
}

func TestDeleteSaleCascadesToInvoice(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	actor, _ := seedTenant(t, e, "Corner Shop")
	productA := seedProduct(t, e, actor, "Widget", "WID-1", 10, types.USD(500))
	custID := seedCustomer(t, e, actor, "Grace", "grace@example.com")

	view, err := e.CreateInvoice(ctx, actor, tallybook.CreateInvoiceInput{
		CustomerID: custID,
		Items:      []invoice.Item{{ProductID: productA, Quantity: 3, Price: types.USD(500)}},
	})
	require.NoError(t, err)

	sales, err := e.Sales(ctx, actor, 0, 0)
	require.NoError(t, err)
	require.Len(t, sales.Items, 1)

	require.NoError(t, e.DeleteSale(ctx, actor, sales.Items[0].ID))

	_, err = e.Invoice(ctx, actor, view.Invoice.ID)
	require.True(t, tallybook.IsNotFound(err))

	p, err := e.Product(ctx, actor, productA)
	require.NoError(t, err)
	require.EqualValues(t, 10, p.Quantity)
}

// ──────────────────────────────────────────────────
// Stock & low-stock alerts
// ──────────────────────────────────────────────────

func TestLowStockAlertTracksQuantity(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	actor, _ := seedTenant(t, e, "Corner Shop")
	custID := seedCustomer(t, e, actor, "Grace", "grace@example.com")

	p, err := e.CreateProduct(ctx, actor, tallybook.CreateProductInput{
		Name:           "Widget",
		SKU:            "WID-1",
		Quantity:       20,
		Price:          types.USD(500),
		LowStockAmount: 10,
	})
	require.NoError(t, err)
	require.False(t, p.LowStockAlert)

	// Deduct past the threshold.
	view, err := e.CreateInvoice(ctx, actor, tallybook.CreateInvoiceInput{
		CustomerID: custID,
		Items:      []invoice.Item{{ProductID: p.ID, Quantity: 12, Price: types.USD(500)}},
	})
	require.NoError(t, err)

	got, err := e.Product(ctx, actor, p.ID)
	require.NoError(t, err)
	require.EqualValues(t, 8, got.Quantity)
	require.True(t, got.LowStockAlert)

	low, err := e.LowStockProducts(ctx, actor, 0, 0)
	require.NoError(t, err)
	require.Len(t, low.Items, 1)
	require.Equal(t, p.ID, low.Items[0].ID)

	// Restocking past the threshold clears the alert.
	require.NoError(t, e.DeleteInvoice(ctx, actor, view.Invoice.ID))

	got, err = e.Product(ctx, actor, p.ID)
	require.NoError(t, err)
	require.EqualValues(t, 20, got.Quantity)
	require.False(t, got.LowStockAlert)

	low, err = e.LowStockProducts(ctx, actor, 0, 0)
	require.NoError(t, err)
	require.Empty(t, low.Items)
}

func TestUpdateProductQuantityGoesThroughLedger(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	actor, _ := seedTenant(t, e, "Corner Shop")
	productA := seedProduct(t, e, actor, "Widget", "WID-1", 10, types.USD(500))

	qty := int64(3)
	p, err := e.UpdateProduct(ctx, actor, productA, tallybook.UpdateProductInput{Quantity: &qty})
	require.NoError(t, err)
	require.EqualValues(t, 3, p.Quantity)
	require.True(t, p.LowStockAlert) // threshold is 5

	negative := int64(-1)
	_, err = e.UpdateProduct(ctx, actor, productA, tallybook.UpdateProductInput{Quantity: &negative})
	require.ErrorIs(t, err, tallybook.ErrInvalidInput)

	// The correction shows up in the activity trail like any other
	// stock movement.
	logs, err := e.ActivityLogs(ctx, actor, 0, 0)
	require.NoError(t, err)

	var found bool
	for _, entry := range logs.Items {
		if strings.Contains(entry.Description, "Catalog correction") {
			found = true
		}
	}
	require.True(t, found, "expected a catalog correction entry in the activity trail")
}

func TestDeleteProductRestrictedWhileReferenced(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	actor, _ := seedTenant(t, e, "Corner Shop")
	productA := seedProduct(t, e, actor, "Widget", "WID-1", 10, types.USD(500))
	custID := seedCustomer(t, e, actor, "Grace", "grace@example.com")

	view, err := e.CreateInvoice(ctx, actor, tallybook.CreateInvoiceInput{
		CustomerID: custID,
		Items:      []invoice.Item{{ProductID: productA, Quantity: 1, Price: types.USD(500)}},
	})
	require.NoError(t, err)

	err = e.DeleteProduct(ctx, actor, productA)
	require.ErrorIs(t, err, tallybook.ErrProductInUse)

	require.NoError(t, e.DeleteInvoice(ctx, actor, view.Invoice.ID))
	require.NoError(t, e.DeleteProduct(ctx, actor, productA))
}

// ──────────────────────────────────────────────────
// Authorization matrix
// ──────────────────────────────────────────────────

func TestAuthorizationMatrix(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	actorA, _ := seedTenant(t, e, "Shop A")
	actorB, _ := seedTenant(t, e, "Shop B")
	productA := seedProduct(t, e, actorA, "Widget", "WID-1", 10, types.USD(500))

	anonymous := tallybook.Actor{}
	platform := platformActor()

	t.Run("anonymous is rejected everywhere", func(t *testing.T) {
		_, err := e.CreateProduct(ctx, anonymous, tallybook.CreateProductInput{Name: "X", SKU: "X-1"})
		require.ErrorIs(t, err, tallybook.ErrNotAuthenticated)

		_, err = e.Products(ctx, anonymous, 0, 0)
		require.ErrorIs(t, err, tallybook.ErrNotAuthenticated)

		_, err = e.Product(ctx, anonymous, productA)
		require.ErrorIs(t, err, tallybook.ErrNotAuthenticated)
	})

	t.Run("cross-tenant access is rejected without state change", func(t *testing.T) {
		_, err := e.Product(ctx, actorB, productA)
		require.ErrorIs(t, err, tallybook.ErrUnauthorized)

		name := "Hijacked"
		_, err = e.UpdateProduct(ctx, actorB, productA, tallybook.UpdateProductInput{Name: &name})
		require.ErrorIs(t, err, tallybook.ErrUnauthorized)

		err = e.DeleteProduct(ctx, actorB, productA)
		require.ErrorIs(t, err, tallybook.ErrUnauthorized)

		p, err := e.Product(ctx, actorA, productA)
		require.NoError(t, err)
		require.Equal(t, "Widget", p.Name)
	})

	t.Run("platform reads everything but creates nothing tenant-scoped", func(t *testing.T) {
		p, err := e.Product(ctx, platform, productA)
		require.NoError(t, err)
		require.Equal(t, "Widget", p.Name)

		_, err = e.CreateProduct(ctx, platform, tallybook.CreateProductInput{Name: "X", SKU: "X-1"})
		require.ErrorIs(t, err, tallybook.ErrPlatformScope)

		_, err = e.CreateCustomer(ctx, platform, tallybook.CreateCustomerInput{Name: "X", Email: "x@example.com"})
		require.ErrorIs(t, err, tallybook.ErrPlatformScope)
	})

	t.Run("business management is platform-only", func(t *testing.T) {
		_, err := e.CreateBusiness(ctx, actorA, tallybook.CreateBusinessInput{Name: "Rogue", Type: business.TypeStore})
		require.ErrorIs(t, err, tallybook.ErrUnauthorized)

		_, err = e.Businesses(ctx, actorA, 0, 0)
		require.ErrorIs(t, err, tallybook.ErrUnauthorized)
	})
}

func TestListScoping(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	actorA, _ := seedTenant(t, e, "Shop A")
	actorB, _ := seedTenant(t, e, "Shop B")
	seedProduct(t, e, actorA, "Widget", "WID-1", 10, types.USD(500))
	seedProduct(t, e, actorB, "Gadget", "GAD-1", 10, types.USD(250))

	pageA, err := e.Products(ctx, actorA, 0, 0)
	require.NoError(t, err)
	require.Len(t, pageA.Items, 1)
	require.Equal(t, "Widget", pageA.Items[0].Name)

	// Platform sees both tenants in one listing.
	all, err := e.Products(ctx, platformActor(), 0, 0)
	require.NoError(t, err)
	require.Len(t, all.Items, 2)
}

// ──────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────

func TestPagination(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	actor, _ := seedTenant(t, e, "Corner Shop")
	seedCustomer(t, e, actor, "A", "a@example.com")
	seedCustomer(t, e, actor, "B", "b@example.com")
	seedCustomer(t, e, actor, "C", "c@example.com")

	page, err := e.Customers(ctx, actor, 2, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.Equal(t, 3, page.TotalCount)
	require.True(t, page.HasMore)

	page, err = e.Customers(ctx, actor, 2, 2)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.False(t, page.HasMore)

	// Out-of-range windows degrade gracefully, never panic: negative
	// offsets and limits count as zero, offsets past the end are empty.
	page, err = e.Customers(ctx, actor, 10, -1)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)
	require.False(t, page.HasMore)

	page, err = e.Customers(ctx, actor, -5, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 3)

	page, err = e.Customers(ctx, actor, 2, 99)
	require.NoError(t, err)
	require.Empty(t, page.Items)
	require.Equal(t, 3, page.TotalCount)
}

func TestSearchProducts(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	actor, _ := seedTenant(t, e, "Corner Shop")
	seedProduct(t, e, actor, "Blue Widget", "WID-1", 10, types.USD(500))
	seedProduct(t, e, actor, "Red Gadget", "GAD-1", 10, types.USD(250))

	page, err := e.SearchProducts(ctx, actor, "widget", id.Nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, "Blue Widget", page.Items[0].Name)

	// SKU matches too.
	page, err = e.SearchProducts(ctx, actor, "gad-1", id.Nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Equal(t, "Red Gadget", page.Items[0].Name)
}

func TestSalesReport(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	actor, _ := seedTenant(t, e, "Corner Shop")
	productA := seedProduct(t, e, actor, "Widget", "WID-1", 100, types.USD(500))
	custID := seedCustomer(t, e, actor, "Grace", "grace@example.com")

	_, err := e.CreateInvoice(ctx, actor, tallybook.CreateInvoiceInput{
		CustomerID: custID,
		Items:      []invoice.Item{{ProductID: productA, Quantity: 1, Price: types.USD(500)}},
	})
	require.NoError(t, err)

	now := time.Now()

	page, err := e.SalesReport(ctx, actor, now.Add(-time.Hour), now.Add(time.Hour), 0, 0)
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	// A window in the past excludes it.
	page, err = e.SalesReport(ctx, actor, now.Add(-2*time.Hour), now.Add(-time.Hour), 0, 0)
	require.NoError(t, err)
	require.Empty(t, page.Items)
}

func TestActivityLogsScopedToUser(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	actorA, _ := seedTenant(t, e, "Shop A")
	actorB, _ := seedTenant(t, e, "Shop B")
	seedProduct(t, e, actorA, "Widget", "WID-1", 10, types.USD(500))
	seedProduct(t, e, actorB, "Gadget", "GAD-1", 10, types.USD(250))

	logsA, err := e.ActivityLogs(ctx, actorA, 0, 0)
	require.NoError(t, err)
	require.NotEmpty(t, logsA.Items)
	for _, entry := range logsA.Items {
		require.Equal(t, actorA.UserID, entry.UserID)
	}

	// Platform sees entries from every user, including business creation.
	all, err := e.ActivityLogs(ctx, platformActor(), 0, 0)
	require.NoError(t, err)
	require.Greater(t, len(all.Items), len(logsA.Items))
}

func TestMe(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	_, biz := seedTenant(t, e, "Corner Shop")

	payload, err := e.Register(ctx, platformActor(), tallybook.RegisterInput{
		Username:   "ada",
		Password:   "pw",
		BusinessID: biz.ID,
	})
	require.NoError(t, err)

	actor, err := e.Authenticate(ctx, payload.Token)
	require.NoError(t, err)

	profile, err := e.Me(ctx, actor)
	require.NoError(t, err)
	require.Equal(t, "ada", profile.User.Username)
	require.NotNil(t, profile.Business)
	require.Equal(t, biz.ID, profile.Business.ID)

	_, err = e.Me(ctx, tallybook.Actor{})
	require.ErrorIs(t, err, tallybook.ErrNotAuthenticated)
}

func TestUsersListingPlatformOnly(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	actor, biz := seedTenant(t, e, "Corner Shop")

	_, err := e.Register(ctx, platformActor(), tallybook.RegisterInput{
		Username: "ada", Password: "pw", BusinessID: biz.ID,
	})
	require.NoError(t, err)
	_, err = e.Register(ctx, platformActor(), tallybook.RegisterInput{
		Username: "root", Password: "pw", Role: user.RolePlatform,
	})
	require.NoError(t, err)

	_, err = e.Users(ctx, actor, id.Nil, 0, 0)
	require.ErrorIs(t, err, tallybook.ErrUnauthorized)

	all, err := e.Users(ctx, platformActor(), id.Nil, 0, 0)
	require.NoError(t, err)
	require.Len(t, all.Items, 2)

	scoped, err := e.Users(ctx, platformActor(), biz.ID, 0, 0)
	require.NoError(t, err)
	require.Len(t, scoped.Items, 1)
	require.Equal(t, "ada", scoped.Items[0].Username)
}

func TestBusinessSequence(t *testing.T) {
	e := newTestEngine(t)

	_, bizA := seedTenant(t, e, "First")
	_, bizB := seedTenant(t, e, "Second")

	require.EqualValues(t, 1, bizA.BID)
	require.EqualValues(t, 2, bizB.BID)
}

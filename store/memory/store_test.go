package memory_test

import (
	"context"
	"errors"
	"testing"

	tallybook "github.com/tallybook/tallybook"
	"github.com/tallybook/tallybook/id"
	"github.com/tallybook/tallybook/product"
	"github.com/tallybook/tallybook/store/memory"
	"github.com/tallybook/tallybook/types"
)

func newProduct(bizID id.BusinessID, name, sku string, qty int64) *product.Product {
	p := &product.Product{
		Entity:         types.NewEntity(),
		ID:             id.NewProductID(),
		Name:           name,
		SKU:            sku,
		Quantity:       qty,
		Price:          types.USD(500),
		LowStockAmount: 5,
		BusinessID:     bizID,
	}
	p.RefreshLowStock()
	return p
}

func TestProductSKUUniquePerBusiness(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	bizA := id.NewBusinessID()
	bizB := id.NewBusinessID()

	if err := s.CreateProduct(ctx, newProduct(bizA, "Widget", "WID-1", 10)); err != nil {
		t.Fatal(err)
	}

	// Same SKU in the same business is a conflict.
	err := s.CreateProduct(ctx, newProduct(bizA, "Widget Again", "WID-1", 10))
	if !errors.Is(err, tallybook.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	// Same SKU in another business is fine.
	if err := s.CreateProduct(ctx, newProduct(bizB, "Widget", "WID-1", 10)); err != nil {
		t.Fatal(err)
	}
}

func TestApplyStockDelta(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	p := newProduct(id.NewBusinessID(), "Widget", "WID-1", 10)
	if err := s.CreateProduct(ctx, p); err != nil {
		t.Fatal(err)
	}

	got, err := s.ApplyStockDelta(ctx, p.ID, -4)
	if err != nil {
		t.Fatal(err)
	}
	if got.Quantity != 6 {
		t.Errorf("quantity: got %d, want 6", got.Quantity)
	}
	if got.LowStockAlert {
		t.Error("alert should be off at quantity 6 with threshold 5")
	}

	got, err = s.ApplyStockDelta(ctx, p.ID, -1)
	if err != nil {
		t.Fatal(err)
	}
	if !got.LowStockAlert {
		t.Error("alert should be on at quantity 5 with threshold 5")
	}

	// A delta past zero fails and changes nothing.
	_, err = s.ApplyStockDelta(ctx, p.ID, -6)
	if !errors.Is(err, tallybook.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}

	var stockErr *tallybook.StockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected *StockError, got %T", err)
	}
	if stockErr.Available != 5 || stockErr.Requested != 6 {
		t.Errorf("unexpected stock error: %+v", stockErr)
	}

	got, err = s.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Quantity != 5 {
		t.Errorf("quantity after failed delta: got %d, want 5", got.Quantity)
	}

	// Unknown products are a lookup failure, not a stock failure.
	_, err = s.ApplyStockDelta(ctx, id.NewProductID(), -1)
	if !errors.Is(err, tallybook.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestNextSequence(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := s.NextSequence(ctx, "bid")
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("sequence: got %d, want %d", got, want)
		}
	}

	// Sequences are independent per name.
	got, err := s.NextSequence(ctx, "other")
	if err != nil {
		t.Fatal(err)
	}
	if got != 1 {
		t.Errorf("independent sequence: got %d, want 1", got)
	}
}

func TestInTxRollsBackOnError(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	p := newProduct(id.NewBusinessID(), "Widget", "WID-1", 10)
	if err := s.CreateProduct(ctx, p); err != nil {
		t.Fatal(err)
	}

	boom := errors.New("boom")
	err := s.InTx(ctx, func(ctx context.Context) error {
		if _, err := s.ApplyStockDelta(ctx, p.ID, -4); err != nil {
			return err
		}
		if err := s.CreateProduct(ctx, newProduct(p.BusinessID, "Gadget", "GAD-1", 3)); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected the inner error, got %v", err)
	}

	// Both writes were rolled back.
	got, err := s.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Quantity != 10 {
		t.Errorf("quantity after rollback: got %d, want 10", got.Quantity)
	}

	_, total, err := s.ListProducts(ctx, product.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 {
		t.Errorf("products after rollback: got %d, want 1", total)
	}
}

func TestInTxCommitsOnSuccess(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	p := newProduct(id.NewBusinessID(), "Widget", "WID-1", 10)
	if err := s.CreateProduct(ctx, p); err != nil {
		t.Fatal(err)
	}

	err := s.InTx(ctx, func(ctx context.Context) error {
		_, err := s.ApplyStockDelta(ctx, p.ID, -4)
		return err
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := s.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Quantity != 6 {
		t.Errorf("quantity after commit: got %d, want 6", got.Quantity)
	}
}

func TestListProductsFilters(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	bizA := id.NewBusinessID()
	bizB := id.NewBusinessID()

	low := newProduct(bizA, "Blue Widget", "WID-1", 2)
	if err := s.CreateProduct(ctx, low); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateProduct(ctx, newProduct(bizA, "Red Gadget", "GAD-1", 50)); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateProduct(ctx, newProduct(bizB, "Widget", "WID-1", 50)); err != nil {
		t.Fatal(err)
	}

	items, total, err := s.ListProducts(ctx, product.ListOpts{BusinessID: bizA})
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("business filter: got %d/%d, want 2/2", len(items), total)
	}

	items, _, err = s.ListProducts(ctx, product.ListOpts{BusinessID: bizA, LowStockOnly: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].ID != low.ID {
		t.Fatalf("low stock filter returned the wrong products: %v", items)
	}

	// Search is case-insensitive over name, brand, and SKU.
	items, _, err = s.ListProducts(ctx, product.ListOpts{BusinessID: bizA, Search: "widget"})
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 1 || items[0].Name != "Blue Widget" {
		t.Fatalf("search returned the wrong products: %v", items)
	}
}

func TestListWindowBounds(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	bizID := id.NewBusinessID()
	if err := s.CreateProduct(ctx, newProduct(bizID, "Widget", "WID-1", 10)); err != nil {
		t.Fatal(err)
	}
	if err := s.CreateProduct(ctx, newProduct(bizID, "Gadget", "GAD-1", 10)); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		limit  int
		offset int
		want   int
	}{
		{"negative offset", 10, -1, 2},
		{"negative limit", -5, 0, 2},
		{"both negative", -1, -1, 2},
		{"offset past end", 10, 99, 0},
		{"window", 1, 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, total, err := s.ListProducts(ctx, product.ListOpts{Limit: tt.limit, Offset: tt.offset})
			if err != nil {
				t.Fatal(err)
			}
			if len(items) != tt.want {
				t.Errorf("items: got %d, want %d", len(items), tt.want)
			}
			if total != 2 {
				t.Errorf("total: got %d, want 2", total)
			}
		})
	}
}

func TestStoreReturnsClones(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	p := newProduct(id.NewBusinessID(), "Widget", "WID-1", 10)
	if err := s.CreateProduct(ctx, p); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	got.Name = "Mutated"

	again, err := s.GetProduct(ctx, p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if again.Name != "Widget" {
		t.Errorf("store state leaked through a returned pointer: %q", again.Name)
	}
}

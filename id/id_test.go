package id_test

import (
	"strings"
	"testing"

	"github.com/tallybook/tallybook/id"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		newFn  func() id.ID
		prefix string
	}{
		{"BusinessID", id.NewBusinessID, "biz_"},
		{"UserID", id.NewUserID, "usr_"},
		{"ProductID", id.NewProductID, "prod_"},
		{"CustomerID", id.NewCustomerID, "cust_"},
		{"InvoiceID", id.NewInvoiceID, "inv_"},
		{"SaleID", id.NewSaleID, "sale_"},
		{"ActivityID", id.NewActivityID, "alog_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.newFn().String()
			if !strings.HasPrefix(got, tt.prefix) {
				t.Errorf("expected prefix %q, got %q", tt.prefix, got)
			}
		})
	}
}

func TestNew(t *testing.T) {
	i := id.New(id.PrefixProduct)
	if i.IsNil() {
		t.Fatal("expected non-nil ID")
	}
	if i.Prefix() != id.PrefixProduct {
		t.Errorf("expected prefix %q, got %q", id.PrefixProduct, i.Prefix())
	}
}

func TestParseRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		newFn   func() id.ID
		parseFn func(string) (id.ID, error)
	}{
		{"BusinessID", id.NewBusinessID, id.ParseBusinessID},
		{"UserID", id.NewUserID, id.ParseUserID},
		{"ProductID", id.NewProductID, id.ParseProductID},
		{"CustomerID", id.NewCustomerID, id.ParseCustomerID},
		{"InvoiceID", id.NewInvoiceID, id.ParseInvoiceID},
		{"SaleID", id.NewSaleID, id.ParseSaleID},
		{"ActivityID", id.NewActivityID, id.ParseActivityID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := tt.newFn()
			parsed, err := tt.parseFn(original.String())
			if err != nil {
				t.Fatalf("parse failed: %v", err)
			}
			if parsed.String() != original.String() {
				t.Errorf("round-trip mismatch: %q != %q", parsed.String(), original.String())
			}
		})
	}
}

func TestCrossTypeRejection(t *testing.T) {
	productID := id.NewProductID()

	if _, err := id.ParseInvoiceID(productID.String()); err == nil {
		t.Error("expected error parsing product ID as invoice ID")
	}
	if _, err := id.ParseBusinessID(productID.String()); err == nil {
		t.Error("expected error parsing product ID as business ID")
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"garbage", "not-a-typeid"},
		{"missing suffix", "prod_"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := id.Parse(tt.input); err == nil {
				t.Errorf("expected error parsing %q", tt.input)
			}
		})
	}
}

func TestNilID(t *testing.T) {
	if !id.Nil.IsNil() {
		t.Error("Nil should be nil")
	}
	if id.Nil.String() != "" {
		t.Errorf("Nil.String(): got %q, want empty", id.Nil.String())
	}

	var zero id.ID
	if zero != id.Nil {
		t.Error("zero value should equal Nil")
	}
}

func TestTextRoundTrip(t *testing.T) {
	original := id.NewSaleID()

	data, err := original.MarshalText()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded id.ID
	if err := decoded.UnmarshalText(data); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != original {
		t.Errorf("round-trip mismatch: %q != %q", decoded.String(), original.String())
	}
}

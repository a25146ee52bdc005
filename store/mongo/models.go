package mongo

import (
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

// ==================== Business models ====================

type businessModel struct {
	ID        string    `bson:"_id"`
	BID       int64     `bson:"bid"`
	Name      string    `bson:"name"`
	Address   string    `bson:"address,omitempty"`
	Phone     string    `bson:"phone,omitempty"`
	Type      string    `bson:"type"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toBusinessModel(b *business.Business) *businessModel {
	return &businessModel{
		ID:        b.ID.String(),
		BID:       b.BID,
		Name:      b.Name,
		Address:   b.Address,
		Phone:     b.Phone,
		Type:      string(b.Type),
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func fromBusinessModel(m *businessModel) (*business.Business, error) {
	bizID, err := id.ParseBusinessID(m.ID)
	if err != nil {
		return nil, err
	}

	return &business.Business{
		Entity:  types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:      bizID,
		BID:     m.BID,
		Name:    m.Name,
		Address: m.Address,
		Phone:   m.Phone,
		Type:    business.Type(m.Type),
	}, nil
}

// ==================== User models ====================

type userModel struct {
	ID           string    `bson:"_id"`
	Username     string    `bson:"username"`
	PasswordHash string    `bson:"password_hash"`
	Role         string    `bson:"role"`
	BusinessID   string    `bson:"business_id,omitempty"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toUserModel(u *user.User) *userModel {
	return &userModel{
		ID:           u.ID.String(),
		Username:     u.Username,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		BusinessID:   u.BusinessID.String(),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func fromUserModel(m *userModel) (*user.User, error) {
	userID, err := id.ParseUserID(m.ID)
	if err != nil {
		return nil, err
	}

	u := &user.User{
		Entity:       types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:           userID,
		Username:     m.Username,
		PasswordHash: m.PasswordHash,
		Role:         user.Role(m.Role),
	}
	if m.BusinessID != "" {
		bizID, err := id.ParseBusinessID(m.BusinessID)
		if err != nil {
			return nil, err
		}
		u.BusinessID = bizID
	}
	return u, nil
}

// ==================== Product models ====================

type productModel struct {
	ID             string    `bson:"_id"`
	Name           string    `bson:"name"`
	Brand          string    `bson:"brand,omitempty"`
	SKU            string    `bson:"sku"`
	Quantity       int64     `bson:"quantity"`
	PriceCents     int64     `bson:"price_cents"`
	PriceCurrency  string    `bson:"price_currency"`
	LowStockAmount int64     `bson:"low_stock_amount"`
	LowStockAlert  bool      `bson:"low_stock_alert"`
	BusinessID     string    `bson:"business_id"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func toProductModel(p *product.Product) *productModel {
	return &productModel{
		ID:             p.ID.String(),
		Name:           p.Name,
		Brand:          p.Brand,
		SKU:            p.SKU,
		Quantity:       p.Quantity,
		PriceCents:     p.Price.Amount,
		PriceCurrency:  p.Price.Currency,
		LowStockAmount: p.LowStockAmount,
		LowStockAlert:  p.LowStockAlert,
		BusinessID:     p.BusinessID.String(),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

func fromProductModel(m *productModel) (*product.Product, error) {
	productID, err := id.ParseProductID(m.ID)
	if err != nil {
		return nil, err
	}
	bizID, err := id.ParseBusinessID(m.BusinessID)
	if err != nil {
		return nil, err
	}

	return &product.Product{
		Entity:         types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:             productID,
		Name:           m.Name,
		Brand:          m.Brand,
		SKU:            m.SKU,
		Quantity:       m.Quantity,
		Price:          types.Money{Amount: m.PriceCents, Currency: m.PriceCurrency},
		LowStockAmount: m.LowStockAmount,
		LowStockAlert:  m.LowStockAlert,
		BusinessID:     bizID,
	}, nil
}

// ==================== Customer models ====================

type customerModel struct {
	ID         string    `bson:"_id"`
	Name       string    `bson:"name"`
	Email      string    `bson:"email"`
	Phone      string    `bson:"phone,omitempty"`
	Address    string    `bson:"address,omitempty"`
	BusinessID string    `bson:"business_id"`
	CreatedAt  time.Time `bson:"created_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

func toCustomerModel(c *customer.Customer) *customerModel {
	return &customerModel{
		ID:         c.ID.String(),
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
		Address:    c.Address,
		BusinessID: c.BusinessID.String(),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func fromCustomerModel(m *customerModel) (*customer.Customer, error) {
	customerID, err := id.ParseCustomerID(m.ID)
	if err != nil {
		return nil, err
	}
	bizID, err := id.ParseBusinessID(m.BusinessID)
	if err != nil {
		return nil, err
	}

	return &customer.Customer{
		Entity:     types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:         customerID,
		Name:       m.Name,
		Email:      m.Email,
		Phone:      m.Phone,
		Address:    m.Address,
		BusinessID: bizID,
	}, nil
}

// ==================== Invoice models ====================

type invoiceModel struct {
	ID            string      `bson:"_id"`
	CustomerID    string      `bson:"customer_id"`
	BusinessID    string      `bson:"business_id"`
	Items         []itemModel `bson:"items"`
	TotalCents    int64       `bson:"total_cents"`
	TotalCurrency string      `bson:"total_currency"`
	Status        string      `bson:"status"`
	CreatedAt     time.Time   `bson:"created_at"`
	UpdatedAt     time.Time   `bson:"updated_at"`
}

type itemModel struct {
	ProductID     string `bson:"product_id"`
	Quantity      int64  `bson:"quantity"`
	PriceCents    int64  `bson:"price_cents"`
	PriceCurrency string `bson:"price_currency"`
}

func toInvoiceModel(inv *invoice.Invoice) *invoiceModel {
	items := make([]itemModel, len(inv.Items))
	for i, it := range inv.Items {
		items[i] = itemModel{
			ProductID:     it.ProductID.String(),
			Quantity:      it.Quantity,
			PriceCents:    it.Price.Amount,
			PriceCurrency: it.Price.Currency,
		}
	}

	return &invoiceModel{
		ID:            inv.ID.String(),
		CustomerID:    inv.CustomerID.String(),
		BusinessID:    inv.BusinessID.String(),
		Items:         items,
		TotalCents:    inv.Total.Amount,
		TotalCurrency: inv.Total.Currency,
		Status:        string(inv.Status),
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
}

func fromInvoiceModel(m *invoiceModel) (*invoice.Invoice, error) {
	invID, err := id.ParseInvoiceID(m.ID)
	if err != nil {
		return nil, err
	}
	customerID, err := id.ParseCustomerID(m.CustomerID)
	if err != nil {
		return nil, err
	}
	bizID, err := id.ParseBusinessID(m.BusinessID)
	if err != nil {
		return nil, err
	}

	items := make([]invoice.Item, len(m.Items))
	for i, it := range m.Items {
		productID, err := id.ParseProductID(it.ProductID)
		if err != nil {
			return nil, err
		}
		items[i] = invoice.Item{
			ProductID: productID,
			Quantity:  it.Quantity,
			Price:     types.Money{Amount: it.PriceCents, Currency: it.PriceCurrency},
		}
	}

	return &invoice.Invoice{
		Entity:     types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:         invID,
		CustomerID: customerID,
		BusinessID: bizID,
		Items:      items,
		Total:      types.Money{Amount: m.TotalCents, Currency: m.TotalCurrency},
		Status:     invoice.Status(m.Status),
	}, nil
}

// ==================== Sale models ====================

type saleModel struct {
	ID            string    `bson:"_id"`
	InvoiceID     string    `bson:"invoice_id"`
	CustomerID    string    `bson:"customer_id"`
	BusinessID    string    `bson:"business_id"`
	TotalCents    int64     `bson:"total_cents"`
	TotalCurrency string    `bson:"total_currency"`
	CreatedAt     time.Time `bson:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at"`
}

func toSaleModel(sl *sale.Sale) *saleModel {
	return &saleModel{
		ID:            sl.ID.String(),
		InvoiceID:     sl.InvoiceID.String(),
		CustomerID:    sl.CustomerID.String(),
		BusinessID:    sl.BusinessID.String(),
		TotalCents:    sl.Total.Amount,
		TotalCurrency: sl.Total.Currency,
		CreatedAt:     sl.CreatedAt,
		UpdatedAt:     sl.UpdatedAt,
	}
}

func fromSaleModel(m *saleModel) (*sale.Sale, error) {
	saleID, err := id.ParseSaleID(m.ID)
	if err != nil {
		return nil, err
	}
	invID, err := id.ParseInvoiceID(m.InvoiceID)
	if err != nil {
		return nil, err
	}
	customerID, err := id.ParseCustomerID(m.CustomerID)
	if err != nil {
		return nil, err
	}
	bizID, err := id.ParseBusinessID(m.BusinessID)
	if err != nil {
		return nil, err
	}

	return &sale.Sale{
		Entity:     types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:         saleID,
		InvoiceID:  invID,
		CustomerID: customerID,
		BusinessID: bizID,
		Total:      types.Money{Amount: m.TotalCents, Currency: m.TotalCurrency},
	}, nil
}

// ==================== Activity models ====================

type activityModel struct {
	ID          string    `bson:"_id"`
	UserID      string    `bson:"user_id"`
	EntityName  string    `bson:"entity_name"`
	Action      string    `bson:"action"`
	Description string    `bson:"description"`
	When        time.Time `bson:"when"`
}

func toActivityModel(entry *activity.Entry) *activityModel {
	return &activityModel{
		ID:          entry.ID.String(),
		UserID:      entry.UserID.String(),
		EntityName:  entry.EntityName,
		Action:      entry.Action,
		Description: entry.Description,
		When:        entry.When,
	}
}

func fromActivityModel(m *activityModel) (*activity.Entry, error) {
	entryID, err := id.ParseActivityID(m.ID)
	if err != nil {
		return nil, err
	}

	entry := &activity.Entry{
		ID:          entryID,
		EntityName:  m.EntityName,
		Action:      m.Action,
		Description: m.Description,
		When:        m.When,
	}
	if m.UserID != "" {
		userID, err := id.ParseUserID(m.UserID)
		if err != nil {
			return nil, err
		}
		entry.UserID = userID
	}
	return entry, nil
}

// ==================== Counter models ====================

type counterModel struct {
	ID       string `bson:"_id"`
	Sequence int64  `bson:"sequence"`
}

// Package memory provides an in-memory Store implementation, used for
// tests and demos.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	tallybook "github.com/tallybook/tallybook"
	"github.com/tallybook/tallybook/activity"
	"github.com/tallybook/tallybook/business"
	"github.com/tallybook/tallybook/customer"
	"github.com/tallybook/tallybook/id"
	"github.com/tallybook/tallybook/invoice"
	"github.com/tallybook/tallybook/product"
	"github.com/tallybook/tallybook/sale"
	"github.com/tallybook/tallybook/store"
	"github.com/tallybook/tallybook/user"
)

// compile-time interface check
var _ store.Store = (*Store)(nil)

// Store keeps every entity in maps guarded by one RWMutex. Values are
// cloned on the way in and out so callers never alias store state.
type Store struct {
	mu sync.RWMutex

	businesses map[string]*business.Business
	users      map[string]*user.User
	products   map[string]*product.Product
	customers  map[string]*customer.Customer
	invoices   map[string]*invoice.Invoice
	sales      map[string]*sale.Sale
	activities []*activity.Entry
	counters   map[string]int64

	// txMu serializes transactions; InTx snapshots all maps and
	// restores them when fn fails.
	txMu sync.Mutex
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		businesses: make(map[string]*business.Business),
		users:      make(map[string]*user.User),
		products:   make(map[string]*product.Product),
		customers:  make(map[string]*customer.Customer),
		invoices:   make(map[string]*invoice.Invoice),
		sales:      make(map[string]*sale.Sale),
		counters:   make(map[string]int64),
	}
}

// ==================== Business ====================

func (s *Store) CreateBusiness(_ context.Context, b *business.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.businesses[b.ID.String()]; exists {
		return tallybook.ErrDuplicateKey
	}
	s.businesses[b.ID.String()] = cloneBusiness(b)
	return nil
}

func (s *Store) GetBusiness(_ context.Context, bizID id.BusinessID) (*business.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if b, ok := s.businesses[bizID.String()]; ok {
		return cloneBusiness(b), nil
	}
	return nil, tallybook.ErrBusinessNotFound
}

func (s *Store) ListBusinesses(_ context.Context, opts business.ListOpts) ([]*business.Business, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*business.Business, 0)
	for _, b := range s.businesses {
		if opts.Search != "" && !containsFold(b.Name, opts.Search) {
			continue
		}
		matched = append(matched, cloneBusiness(b))
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].BID < matched[j].BID
	})

	window := paginate(matched, opts.Limit, opts.Offset)
	return window, len(matched), nil
}

func (s *Store) UpdateBusiness(_ context.Context, b *business.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.businesses[b.ID.String()]; !exists {
		return tallybook.ErrBusinessNotFound
	}
	s.businesses[b.ID.String()] = cloneBusiness(b)
	return nil
}

func (s *Store) DeleteBusiness(_ context.Context, bizID id.BusinessID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.businesses[bizID.String()]; !exists {
		return tallybook.ErrBusinessNotFound
	}
	delete(s.businesses, bizID.String())
	return nil
}

// ==================== User ====================

func (s *Store) CreateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Username == u.Username {
			return tallybook.ErrDuplicateKey
		}
	}
	s.users[u.ID.String()] = cloneUser(u)
	return nil
}

func (s *Store) GetUser(_ context.Context, userID id.UserID) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.users[userID.String()]; ok {
		return cloneUser(u), nil
	}
	return nil, tallybook.ErrUserNotFound
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.Username == username {
			return cloneUser(u), nil
		}
	}
	return nil, tallybook.ErrUserNotFound
}

func (s *Store) ListUsers(_ context.Context, opts user.ListOpts) ([]*user.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*user.User, 0)
	for _, u := range s.users {
		if !opts.BusinessID.IsNil() && u.BusinessID != opts.BusinessID {
			continue
		}
		matched = append(matched, cloneUser(u))
	}
	sortByCreated(matched, func(u *user.User) sortKey { return sortKey{u.CreatedAt, u.ID.String()} })

	window := paginate(matched, opts.Limit, opts.Offset)
	return window, len(matched), nil
}

func (s *Store) UpdateUser(_ context.Context, u *user.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[u.ID.String()]; !exists {
		return tallybook.ErrUserNotFound
	}
	for _, existing := range s.users {
		if existing.ID != u.ID && existing.Username == u.Username {
			return tallybook.ErrDuplicateKey
		}
	}
	s.users[u.ID.String()] = cloneUser(u)
	return nil
}

func (s *Store) DeleteUser(_ context.Context, userID id.UserID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[userID.String()]; !exists {
		return tallybook.ErrUserNotFound
	}
	delete(s.users, userID.String())
	return nil
}

// ==================== Product ====================

func (s *Store) CreateProduct(_ context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.products {
		if existing.SKU == p.SKU && existing.BusinessID == p.BusinessID {
			return tallybook.ErrDuplicateKey
		}
	}
	s.products[p.ID.String()] = cloneProduct(p)
	return nil
}

func (s *Store) GetProduct(_ context.Context, productID id.ProductID) (*product.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if p, ok := s.products[productID.String()]; ok {
		return cloneProduct(p), nil
	}
	return nil, tallybook.ErrProductNotFound
}

func (s *Store) ListProducts(_ context.Context, opts product.ListOpts) ([]*product.Product, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*product.Product, 0)
	for _, p := range s.products {
		if !opts.BusinessID.IsNil() && p.BusinessID != opts.BusinessID {
			continue
		}
		if opts.LowStockOnly && !p.LowStockAlert {
			continue
		}
		if opts.Search != "" &&
			!containsFold(p.Name, opts.Search) &&
			!containsFold(p.Brand, opts.Search) &&
			!containsFold(p.SKU, opts.Search) {
			continue
		}
		matched = append(matched, cloneProduct(p))
	}
	sortByCreated(matched, func(p *product.Product) sortKey { return sortKey{p.CreatedAt, p.ID.String()} })

	window := paginate(matched, opts.Limit, opts.Offset)
	return window, len(matched), nil
}

func (s *Store) UpdateProduct(_ context.Context, p *product.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[p.ID.String()]; !exists {
		return tallybook.ErrProductNotFound
	}
	for _, existing := range s.products {
		if existing.ID != p.ID && existing.SKU == p.SKU && existing.BusinessID == p.BusinessID {
			return tallybook.ErrDuplicateKey
		}
	}
	s.products[p.ID.String()] = cloneProduct(p)
	return nil
}

func (s *Store) DeleteProduct(_ context.Context, productID id.ProductID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.products[productID.String()]; !exists {
		return tallybook.ErrProductNotFound
	}
	delete(s.products, productID.String())
	return nil
}

// ApplyStockDelta performs the check-and-write under the store lock so
// concurrent adjustments to one product cannot interleave.
func (s *Store) ApplyStockDelta(_ context.Context, productID id.ProductID, delta int64) (*product.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID.String()]
	if !ok {
		return nil, tallybook.ErrProductNotFound
	}
	if p.Quantity+delta < 0 {
		return nil, &tallybook.StockError{
			ProductName: p.Name,
			SKU:         p.SKU,
			Available:   p.Quantity,
			Requested:   -delta,
		}
	}

	p.Quantity += delta
	p.RefreshLowStock()
	p.Touch()
	return cloneProduct(p), nil
}

// ==================== Customer ====================

func (s *Store) CreateCustomer(_ context.Context, c *customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.customers {
		if existing.Email == c.Email && existing.BusinessID == c.BusinessID {
			return tallybook.ErrDuplicateKey
		}
	}
	s.customers[c.ID.String()] = cloneCustomer(c)
	return nil
}

func (s *Store) GetCustomer(_ context.Context, customerID id.CustomerID) (*customer.Customer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.customers[customerID.String()]; ok {
		return cloneCustomer(c), nil
	}
	return nil, tallybook.ErrCustomerNotFound
}

func (s *Store) ListCustomers(_ context.Context, opts customer.ListOpts) ([]*customer.Customer, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*customer.Customer, 0)
	for _, c := range s.customers {
		if !opts.BusinessID.IsNil() && c.BusinessID != opts.BusinessID {
			continue
		}
		matched = append(matched, cloneCustomer(c))
	}
	sortByCreated(matched, func(c *customer.Customer) sortKey { return sortKey{c.CreatedAt, c.ID.String()} })

	window := paginate(matched, opts.Limit, opts.Offset)
	return window, len(matched), nil
}

func (s *Store) UpdateCustomer(_ context.Context, c *customer.Customer) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[c.ID.String()]; !exists {
		return tallybook.ErrCustomerNotFound
	}
	for _, existing := range s.customers {
		if existing.ID != c.ID && existing.Email == c.Email && existing.BusinessID == c.BusinessID {
			return tallybook.ErrDuplicateKey
		}
	}
	s.customers[c.ID.String()] = cloneCustomer(c)
	return nil
}

func (s *Store) DeleteCustomer(_ context.Context, customerID id.CustomerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customers[customerID.String()]; !exists {
		return tallybook.ErrCustomerNotFound
	}
	delete(s.customers, customerID.String())
	return nil
}

// ==================== Invoice ====================

func (s *Store) CreateInvoice(_ context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[inv.ID.String()]; exists {
		return tallybook.ErrDuplicateKey
	}
	s.invoices[inv.ID.String()] = cloneInvoice(inv)
	return nil
}

func (s *Store) GetInvoice(_ context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if inv, ok := s.invoices[invID.String()]; ok {
		return cloneInvoice(inv), nil
	}
	return nil, tallybook.ErrInvoiceNotFound
}

func (s *Store) ListInvoices(_ context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*invoice.Invoice, 0)
	for _, inv := range s.invoices {
		if !opts.BusinessID.IsNil() && inv.BusinessID != opts.BusinessID {
			continue
		}
		if opts.Status != "" && inv.Status != opts.Status {
			continue
		}
		matched = append(matched, cloneInvoice(inv))
	}
	sortByCreated(matched, func(inv *invoice.Invoice) sortKey { return sortKey{inv.CreatedAt, inv.ID.String()} })

	window := paginate(matched, opts.Limit, opts.Offset)
	return window, len(matched), nil
}

func (s *Store) UpdateInvoice(_ context.Context, inv *invoice.Invoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[inv.ID.String()]; !exists {
		return tallybook.ErrInvoiceNotFound
	}
	s.invoices[inv.ID.String()] = cloneInvoice(inv)
	return nil
}

func (s *Store) DeleteInvoice(_ context.Context, invID id.InvoiceID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.invoices[invID.String()]; !exists {
		return tallybook.ErrInvoiceNotFound
	}
	delete(s.invoices, invID.String())
	return nil
}

func (s *Store) CountInvoicesByProduct(_ context.Context, productID id.ProductID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, inv := range s.invoices {
		for _, it := range inv.Items {
			if it.ProductID == productID {
				count++
				break
			}
		}
	}
	return count, nil
}

// ==================== Sale ====================

func (s *Store) CreateSale(_ context.Context, sl *sale.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sales[sl.ID.String()]; exists {
		return tallybook.ErrDuplicateKey
	}
	s.sales[sl.ID.String()] = cloneSale(sl)
	return nil
}

func (s *Store) GetSale(_ context.Context, saleID id.SaleID) (*sale.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if sl, ok := s.sales[saleID.String()]; ok {
		return cloneSale(sl), nil
	}
	return nil, tallybook.ErrSaleNotFound
}

func (s *Store) GetSaleByInvoice(_ context.Context, invID id.InvoiceID) (*sale.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sl := range s.sales {
		if sl.InvoiceID == invID {
			return cloneSale(sl), nil
		}
	}
	return nil, tallybook.ErrSaleNotFound
}

func (s *Store) ListSales(_ context.Context, opts sale.ListOpts) ([]*sale.Sale, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*sale.Sale, 0)
	for _, sl := range s.sales {
		if !opts.BusinessID.IsNil() && sl.BusinessID != opts.BusinessID {
			continue
		}
		if !opts.Start.IsZero() && sl.CreatedAt.Before(opts.Start) {
			continue
		}
		if !opts.End.IsZero() && sl.CreatedAt.After(opts.End) {
			continue
		}
		matched = append(matched, cloneSale(sl))
	}
	sortByCreated(matched, func(sl *sale.Sale) sortKey { return sortKey{sl.CreatedAt, sl.ID.String()} })

	window := paginate(matched, opts.Limit, opts.Offset)
	return window, len(matched), nil
}

func (s *Store) UpdateSale(_ context.Context, sl *sale.Sale) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sales[sl.ID.String()]; !exists {
		return tallybook.ErrSaleNotFound
	}
	s.sales[sl.ID.String()] = cloneSale(sl)
	return nil
}

func (s *Store) DeleteSale(_ context.Context, saleID id.SaleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sales[saleID.String()]; !exists {
		return tallybook.ErrSaleNotFound
	}
	delete(s.sales, saleID.String())
	return nil
}

// ==================== Activity ====================

func (s *Store) AppendActivity(_ context.Context, entry *activity.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *entry
	s.activities = append(s.activities, &cp)
	return nil
}

func (s *Store) ListActivity(_ context.Context, opts activity.ListOpts) ([]*activity.Entry, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*activity.Entry, 0)
	for _, entry := range s.activities {
		if !opts.UserID.IsNil() && entry.UserID != opts.UserID {
			continue
		}
		cp := *entry
		matched = append(matched, &cp)
	}

	window := paginate(matched, opts.Limit, opts.Offset)
	return window, len(matched), nil
}

// ==================== Sequence ====================

func (s *Store) NextSequence(_ context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counters[name]++
	return s.counters[name], nil
}

// ==================== Transactions ====================

// InTx snapshots the whole store, runs fn, and restores the snapshot if
// fn fails. Transactions are serialized against each other; concurrent
// non-transactional writers are not isolated — this driver backs tests,
// not production.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	snap := s.snapshot()
	if err := fn(ctx); err != nil {
		s.restore(snap)
		return err
	}
	return nil
}

type snapshot struct {
	businesses map[string]*business.Business
	users      map[string]*user.User
	products   map[string]*product.Product
	customers  map[string]*customer.Customer
	invoices   map[string]*invoice.Invoice
	sales      map[string]*sale.Sale
	activities []*activity.Entry
	counters   map[string]int64
}

func (s *Store) snapshot() *snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := &snapshot{
		businesses: make(map[string]*business.Business, len(s.businesses)),
		users:      make(map[string]*user.User, len(s.users)),
		products:   make(map[string]*product.Product, len(s.products)),
		customers:  make(map[string]*customer.Customer, len(s.customers)),
		invoices:   make(map[string]*invoice.Invoice, len(s.invoices)),
		sales:      make(map[string]*sale.Sale, len(s.sales)),
		activities: append([]*activity.Entry(nil), s.activities...),
		counters:   make(map[string]int64, len(s.counters)),
	}
	for k, v := range s.businesses {
		snap.businesses[k] = cloneBusiness(v)
	}
	for k, v := range s.users {
		snap.users[k] = cloneUser(v)
	}
	for k, v := range s.products {
		snap.products[k] = cloneProduct(v)
	}
	for k, v := range s.customers {
		snap.customers[k] = cloneCustomer(v)
	}
	for k, v := range s.invoices {
		snap.invoices[k] = cloneInvoice(v)
	}
	for k, v := range s.sales {
		snap.sales[k] = cloneSale(v)
	}
	for k, v := range s.counters {
		snap.counters[k] = v
	}
	return snap
}

func (s *Store) restore(snap *snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.businesses = snap.businesses
	s.users = snap.users
	s.products = snap.products
	s.customers = snap.customers
	s.invoices = snap.invoices
	s.sales = snap.sales
	s.activities = snap.activities
	s.counters = snap.counters
}

// ==================== Core ====================

func (s *Store) Migrate(_ context.Context) error { return nil }

func (s *Store) Ping(_ context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// ==================== Helpers ====================

func cloneBusiness(b *business.Business) *business.Business {
	cp := *b
	return &cp
}

func cloneUser(u *user.User) *user.User {
	cp := *u
	return &cp
}

func cloneProduct(p *product.Product) *product.Product {
	cp := *p
	return &cp
}

func cloneCustomer(c *customer.Customer) *customer.Customer {
	cp := *c
	return &cp
}

func cloneInvoice(inv *invoice.Invoice) *invoice.Invoice {
	cp := *inv
	cp.Items = append([]invoice.Item(nil), inv.Items...)
	return &cp
}

func cloneSale(sl *sale.Sale) *sale.Sale {
	cp := *sl
	return &cp
}

func paginate[T any](all []T, limit, offset int) []T {
	// Negative values arrive straight from callers; treat them like
	// zero rather than panicking on the slice bounds.
	if offset < 0 {
		offset = 0
	}
	start := offset
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

type sortKey struct {
	created time.Time
	id      string
}

func sortByCreated[T any](items []T, key func(T) sortKey) {
	sort.Slice(items, func(i, j int) bool {
		ki, kj := key(items[i]), key(items[j])
		if !ki.created.Equal(kj.created) {
			return ki.created.Before(kj.created)
		}
		return ki.id < kj.id
	})
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// Package mongo implements store.Store on MongoDB.
//
// Stock deltas are applied as server-side conditional updates, unique
// constraints live in compound indexes created by Migrate, and the
// invoice unit of work runs in a session transaction — which requires
// a replica set or mongos deployment.
package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"

	tallybook "github.com/tallybook/tallybook"
	"github.com/tallybook/tallybook/activity"
	"github.com/tallybook/tallybook/business"
	"github.com/tallybook/tallybook/customer"
	"github.com/tallybook/tallybook/id"
	"github.com/tallybook/tallybook/invoice"
	"github.com/tallybook/tallybook/product"
	"github.com/tallybook/tallybook/sale"
	tallystore "github.com/tallybook/tallybook/store"
	"github.com/tallybook/tallybook/user"
)

// Collection name constants.
const (
	colBusinesses = "tallybook_businesses"
	colUsers      = "tallybook_users"
	colProducts   = "tallybook_products"
	colCustomers  = "tallybook_customers"
	colInvoices   = "tallybook_invoices"
	colSales      = "tallybook_sales"
	colActivity   = "tallybook_activity"
	colCounters   = "tallybook_counters"
)

// compile-time interface check
var _ tallystore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New connects to MongoDB and returns a store over the named database.
func New(uri, database string) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("tallybook/mongo: connect: %w", err)
	}
	return NewWithClient(client, database), nil
}

// NewWithClient wraps an existing client, for callers that manage their
// own connection lifecycle.
func NewWithClient(client *mongo.Client, database string) *Store {
	return &Store{
		client: client,
		db:     client.Database(database),
	}
}

// Migrate creates the unique and query indexes for all collections.
func (s *Store) Migrate(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	indexes := map[string][]mongo.IndexModel{
		colUsers: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: unique},
		},
		colProducts: {
			{Keys: bson.D{{Key: "business_id", Value: 1}, {Key: "sku", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "business_id", Value: 1}, {Key: "low_stock_alert", Value: 1}}},
		},
		colCustomers: {
			{Keys: bson.D{{Key: "business_id", Value: 1}, {Key: "email", Value: 1}}, Options: unique},
		},
		colInvoices: {
			{Keys: bson.D{{Key: "business_id", Value: 1}}},
			{Keys: bson.D{{Key: "items.product_id", Value: 1}}},
		},
		colSales: {
			{Keys: bson.D{{Key: "invoice_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "business_id", Value: 1}, {Key: "created_at", Value: 1}}},
		},
		colActivity: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "when", Value: 1}}},
		},
	}

	for col, models := range indexes {
		if _, err := s.db.Collection(col).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("%w: %s indexes: %v", tallybook.ErrMigrationFailed, col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close() error {
	return s.client.Disconnect(context.Background())
}

func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// mapWriteErr translates driver duplicate-key failures to the
// tallybook sentinel.
func mapWriteErr(err error, op string) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %s", tallybook.ErrDuplicateKey, op)
	}
	return fmt.Errorf("tallybook/mongo: %s: %w", op, err)
}

// createdSort orders list windows oldest-first, tie-broken by the
// K-sortable _id.
var createdSort = bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}

// findWindow runs a filtered, sorted, paginated find plus a count of
// everything matching the filter.
func (s *Store) findWindow(ctx context.Context, col string, filter bson.M, limit, offset int, out any) (int, error) {
	c := s.db.Collection(col)

	total, err := c.CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("tallybook/mongo: count %s: %w", col, err)
	}

	opts := options.Find().SetSort(createdSort)
	if offset > 0 {
		opts = opts.SetSkip(int64(offset))
	}
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}

	cur, err := c.Find(ctx, filter, opts)
	if err != nil {
		return 0, fmt.Errorf("tallybook/mongo: list %s: %w", col, err)
	}
	if err := cur.All(ctx, out); err != nil {
		return 0, fmt.Errorf("tallybook/mongo: decode %s: %w", col, err)
	}
	return int(total), nil
}

// regexFilter builds a case-insensitive substring match.
func regexFilter(term string) bson.M {
	return bson.M{"$regex": term, "$options": "i"}
}

// ==================== Business ====================

func (s *Store) CreateBusiness(ctx context.Context, b *business.Business) error {
	if _, err := s.db.Collection(colBusinesses).InsertOne(ctx, toBusinessModel(b)); err != nil {
		return mapWriteErr(err, "create business")
	}
	return nil
}

func (s *Store) GetBusiness(ctx context.Context, bizID id.BusinessID) (*business.Business, error) {
	var m businessModel
	err := s.db.Collection(colBusinesses).FindOne(ctx, bson.M{"_id": bizID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, tallybook.ErrBusinessNotFound
		}
		return nil, fmt.Errorf("tallybook/mongo: get business: %w", err)
	}
	return fromBusinessModel(&m)
}

func (s *Store) ListBusinesses(ctx context.Context, opts business.ListOpts) ([]*business.Business, int, error) {
	filter := bson.M{}
	if opts.Search != "" {
		filter["name"] = regexFilter(opts.Search)
	}

	var models []businessModel
	total, err := s.findWindow(ctx, colBusinesses, filter, opts.Limit, opts.Offset, &models)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*business.Business, len(models))
	for i := range models {
		if result[i], err = fromBusinessModel(&models[i]); err != nil {
			return nil, 0, err
		}
	}
	return result, total, nil
}

func (s *Store) UpdateBusiness(ctx context.Context, b *business.Business) error {
	m := toBusinessModel(b)
	res, err := s.db.Collection(colBusinesses).ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return mapWriteErr(err, "update business")
	}
	if res.MatchedCount == 0 {
		return tallybook.ErrBusinessNotFound
	}
	return nil
}

func (s *Store) DeleteBusiness(ctx context.Context, bizID id.BusinessID) error {
	res, err := s.db.Collection(colBusinesses).DeleteOne(ctx, bson.M{"_id": bizID.String()})
	if err != nil {
		return fmt.Errorf("tallybook/mongo: delete business: %w", err)
	}
	if res.DeletedCount == 0 {
		return tallybook.ErrBusinessNotFound
	}
	return nil
}

// ==================== User ====================

func (s *Store) CreateUser(ctx context.Context, u *user.User) error {
	if _, err := s.db.Collection(colUsers).InsertOne(ctx, toUserModel(u)); err != nil {
		return mapWriteErr(err, "create user")
	}
	return nil
}

func (s *Store) GetUser(ctx context.Context, userID id.UserID) (*user.User, error) {
	var m userModel
	err := s.db.Collection(colUsers).FindOne(ctx, bson.M{"_id": userID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, tallybook.ErrUserNotFound
		}
		return nil, fmt.Errorf("tallybook/mongo: get user: %w", err)
	}
	return fromUserModel(&m)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*user.User, error) {
	var m userModel
	err := s.db.Collection(colUsers).FindOne(ctx, bson.M{"username": username}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, tallybook.ErrUserNotFound
		}
		return nil, fmt.Errorf("tallybook/mongo: get user by username: %w", err)
	}
	return fromUserModel(&m)
}

func (s *Store) ListUsers(ctx context.Context, opts user.ListOpts) ([]*user.User, int, error) {
	filter := bson.M{}
	if !opts.BusinessID.IsNil() {
		filter["business_id"] = opts.BusinessID.String()
	}

	var models []userModel
	total, err := s.findWindow(ctx, colUsers, filter, opts.Limit, opts.Offset, &models)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*user.User, len(models))
	for i := range models {
		if result[i], err = fromUserModel(&models[i]); err != nil {
			return nil, 0, err
		}
	}
	return result, total, nil
}

func (s *Store) UpdateUser(ctx context.Context, u *user.User) error {
	m := toUserModel(u)
	res, err := s.db.Collection(colUsers).ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return mapWriteErr(err, "update user")
	}
	if res.MatchedCount == 0 {
		return tallybook.ErrUserNotFound
	}
	return nil
}

func (s *Store) DeleteUser(ctx context.Context, userID id.UserID) error {
	res, err := s.db.Collection(colUsers).DeleteOne(ctx, bson.M{"_id": userID.String()})
	if err != nil {
		return fmt.Errorf("tallybook/mongo: delete user: %w", err)
	}
	if res.DeletedCount == 0 {
		return tallybook.ErrUserNotFound
	}
	return nil
}

// ==================== Product ====================

func (s *Store) CreateProduct(ctx context.Context, p *product.Product) error {
	if _, err := s.db.Collection(colProducts).InsertOne(ctx, toProductModel(p)); err != nil {
		return mapWriteErr(err, "create product")
	}
	return nil
}

func (s *Store) GetProduct(ctx context.Context, productID id.ProductID) (*product.Product, error) {
	var m productModel
	err := s.db.Collection(colProducts).FindOne(ctx, bson.M{"_id": productID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, tallybook.ErrProductNotFound
		}
		return nil, fmt.Errorf("tallybook/mongo: get product: %w", err)
	}
	return fromProductModel(&m)
}

func (s *Store) ListProducts(ctx context.Context, opts product.ListOpts) ([]*product.Product, int, error) {
	filter := bson.M{}
	if !opts.BusinessID.IsNil() {
		filter["business_id"] = opts.BusinessID.String()
	}
	if opts.LowStockOnly {
		filter["low_stock_alert"] = true
	}
	if opts.Search != "" {
		re := regexFilter(opts.Search)
		filter["$or"] = bson.A{
			bson.M{"name": re},
			bson.M{"brand": re},
			bson.M{"sku": re},
		}
	}

	var models []productModel
	total, err := s.findWindow(ctx, colProducts, filter, opts.Limit, opts.Offset, &models)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*product.Product, len(models))
	for i := range models {
		if result[i], err = fromProductModel(&models[i]); err != nil {
			return nil, 0, err
		}
	}
	return result, total, nil
}

func (s *Store) UpdateProduct(ctx context.Context, p *product.Product) error {
	m := toProductModel(p)
	res, err := s.db.Collection(colProducts).ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return mapWriteErr(err, "update product")
	}
	if res.MatchedCount == 0 {
		return tallybook.ErrProductNotFound
	}
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, productID id.ProductID) error {
	res, err := s.db.Collection(colProducts).DeleteOne(ctx, bson.M{"_id": productID.String()})
	if err != nil {
		return fmt.Errorf("tallybook/mongo: delete product: %w", err)
	}
	if res.DeletedCount == 0 {
		return tallybook.ErrProductNotFound
	}
	return nil
}

// ApplyStockDelta adjusts quantity and recomputes the low-stock flag in
// one server-side update. The filter carries the non-negativity guard,
// so a losing racer simply matches no document.
func (s *Store) ApplyStockDelta(ctx context.Context, productID id.ProductID, delta int64) (*product.Product, error) {
	filter := bson.M{"_id": productID.String()}
	if delta < 0 {
		filter["quantity"] = bson.M{"$gte": -delta}
	}

	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"quantity":   bson.M{"$add": bson.A{"$quantity", delta}},
			"updated_at": "$$NOW",
		}}},
		{{Key: "$set", Value: bson.M{
			"low_stock_alert": bson.M{"$lte": bson.A{"$quantity", "$low_stock_amount"}},
		}}},
	}

	var m productModel
	err := s.db.Collection(colProducts).
		FindOneAndUpdate(ctx, filter, update,
			options.FindOneAndUpdate().SetReturnDocument(options.After)).
		Decode(&m)
	if err == nil {
		return fromProductModel(&m)
	}
	if !isNoDocuments(err) {
		return nil, fmt.Errorf("tallybook/mongo: apply stock delta: %w", err)
	}

	// No match: either the product is gone or the guard rejected the
	// delta. Re-read to tell the two apart.
	p, getErr := s.GetProduct(ctx, productID)
	if getErr != nil {
		return nil, getErr
	}
	return nil, &tallybook.StockError{
		ProductName: p.Name,
		SKU:         p.SKU,
		Available:   p.Quantity,
		Requested:   -delta,
	}
}

// ==================== Customer ====================

func (s *Store) CreateCustomer(ctx context.Context, c *customer.Customer) error {
	if _, err := s.db.Collection(colCustomers).InsertOne(ctx, toCustomerModel(c)); err != nil {
		return mapWriteErr(err, "create customer")
	}
	return nil
}

func (s *Store) GetCustomer(ctx context.Context, customerID id.CustomerID) (*customer.Customer, error) {
	var m customerModel
	err := s.db.Collection(colCustomers).FindOne(ctx, bson.M{"_id": customerID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, tallybook.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("tallybook/mongo: get customer: %w", err)
	}
	return fromCustomerModel(&m)
}

func (s *Store) ListCustomers(ctx context.Context, opts customer.ListOpts) ([]*customer.Customer, int, error) {
	filter := bson.M{}
	if !opts.BusinessID.IsNil() {
		filter["business_id"] = opts.BusinessID.String()
	}

	var models []customerModel
	total, err := s.findWindow(ctx, colCustomers, filter, opts.Limit, opts.Offset, &models)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*customer.Customer, len(models))
	for i := range models {
		if result[i], err = fromCustomerModel(&models[i]); err != nil {
			return nil, 0, err
		}
	}
	return result, total, nil
}

func (s *Store) UpdateCustomer(ctx context.Context, c *customer.Customer) error {
	m := toCustomerModel(c)
	res, err := s.db.Collection(colCustomers).ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return mapWriteErr(err, "update customer")
	}
	if res.MatchedCount == 0 {
		return tallybook.ErrCustomerNotFound
	}
	return nil
}

func (s *Store) DeleteCustomer(ctx context.Context, customerID id.CustomerID) error {
	res, err := s.db.Collection(colCustomers).DeleteOne(ctx, bson.M{"_id": customerID.String()})
	if err != nil {
		return fmt.Errorf("tallybook/mongo: delete customer: %w", err)
	}
	if res.DeletedCount == 0 {
		return tallybook.ErrCustomerNotFound
	}
	return nil
}

// ==================== Invoice ====================

func (s *Store) CreateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	if _, err := s.db.Collection(colInvoices).InsertOne(ctx, toInvoiceModel(inv)); err != nil {
		return mapWriteErr(err, "create invoice")
	}
	return nil
}

func (s *Store) GetInvoice(ctx context.Context, invID id.InvoiceID) (*invoice.Invoice, error) {
	var m invoiceModel
	err := s.db.Collection(colInvoices).FindOne(ctx, bson.M{"_id": invID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, tallybook.ErrInvoiceNotFound
		}
		return nil, fmt.Errorf("tallybook/mongo: get invoice: %w", err)
	}
	return fromInvoiceModel(&m)
}

func (s *Store) ListInvoices(ctx context.Context, opts invoice.ListOpts) ([]*invoice.Invoice, int, error) {
	filter := bson.M{}
	if !opts.BusinessID.IsNil() {
		filter["business_id"] = opts.BusinessID.String()
	}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}

	var models []invoiceModel
	total, err := s.findWindow(ctx, colInvoices, filter, opts.Limit, opts.Offset, &models)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*invoice.Invoice, len(models))
	for i := range models {
		if result[i], err = fromInvoiceModel(&models[i]); err != nil {
			return nil, 0, err
		}
	}
	return result, total, nil
}

func (s *Store) UpdateInvoice(ctx context.Context, inv *invoice.Invoice) error {
	m := toInvoiceModel(inv)
	res, err := s.db.Collection(colInvoices).ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return mapWriteErr(err, "update invoice")
	}
	if res.MatchedCount == 0 {
		return tallybook.ErrInvoiceNotFound
	}
	return nil
}

func (s *Store) DeleteInvoice(ctx context.Context, invID id.InvoiceID) error {
	res, err := s.db.Collection(colInvoices).DeleteOne(ctx, bson.M{"_id": invID.String()})
	if err != nil {
		return fmt.Errorf("tallybook/mongo: delete invoice: %w", err)
	}
	if res.DeletedCount == 0 {
		return tallybook.ErrInvoiceNotFound
	}
	return nil
}

func (s *Store) CountInvoicesByProduct(ctx context.Context, productID id.ProductID) (int, error) {
	total, err := s.db.Collection(colInvoices).CountDocuments(ctx, bson.M{"items.product_id": productID.String()})
	if err != nil {
		return 0, fmt.Errorf("tallybook/mongo: count invoices by product: %w", err)
	}
	return int(total), nil
}

// ==================== Sale ====================

func (s *Store) CreateSale(ctx context.Context, sl *sale.Sale) error {
	if _, err := s.db.Collection(colSales).InsertOne(ctx, toSaleModel(sl)); err != nil {
		return mapWriteErr(err, "create sale")
	}
	return nil
}

func (s *Store) GetSale(ctx context.Context, saleID id.SaleID) (*sale.Sale, error) {
	var m saleModel
	err := s.db.Collection(colSales).FindOne(ctx, bson.M{"_id": saleID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, tallybook.ErrSaleNotFound
		}
		return nil, fmt.Errorf("tallybook/mongo: get sale: %w", err)
	}
	return fromSaleModel(&m)
}

func (s *Store) GetSaleByInvoice(ctx context.Context, invID id.InvoiceID) (*sale.Sale, error) {
	var m saleModel
	err := s.db.Collection(colSales).FindOne(ctx, bson.M{"invoice_id": invID.String()}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, tallybook.ErrSaleNotFound
		}
		return nil, fmt.Errorf("tallybook/mongo: get sale by invoice: %w", err)
	}
	return fromSaleModel(&m)
}

func (s *Store) ListSales(ctx context.Context, opts sale.ListOpts) ([]*sale.Sale, int, error) {
	filter := bson.M{}
	if !opts.BusinessID.IsNil() {
		filter["business_id"] = opts.BusinessID.String()
	}
	created := bson.M{}
	if !opts.Start.IsZero() {
		created["$gte"] = opts.Start
	}
	if !opts.End.IsZero() {
		created["$lte"] = opts.End
	}
	if len(created) > 0 {
		filter["created_at"] = created
	}

	var models []saleModel
	total, err := s.findWindow(ctx, colSales, filter, opts.Limit, opts.Offset, &models)
	if err != nil {
		return nil, 0, err
	}

	result := make([]*sale.Sale, len(models))
	for i := range models {
		if result[i], err = fromSaleModel(&models[i]); err != nil {
			return nil, 0, err
		}
	}
	return result, total, nil
}

func (s *Store) UpdateSale(ctx context.Context, sl *sale.Sale) error {
	m := toSaleModel(sl)
	res, err := s.db.Collection(colSales).ReplaceOne(ctx, bson.M{"_id": m.ID}, m)
	if err != nil {
		return mapWriteErr(err, "update sale")
	}
	if res.MatchedCount == 0 {
		return tallybook.ErrSaleNotFound
	}
	return nil
}

func (s *Store) DeleteSale(ctx context.Context, saleID id.SaleID) error {
	res, err := s.db.Collection(colSales).DeleteOne(ctx, bson.M{"_id": saleID.String()})
	if err != nil {
		return fmt.Errorf("tallybook/mongo: delete sale: %w", err)
	}
	if res.DeletedCount == 0 {
		return tallybook.ErrSaleNotFound
	}
	return nil
}

// ==================== Activity ====================

func (s *Store) AppendActivity(ctx context.Context, entry *activity.Entry) error {
	if _, err := s.db.Collection(colActivity).InsertOne(ctx, toActivityModel(entry)); err != nil {
		return fmt.Errorf("tallybook/mongo: append activity: %w", err)
	}
	return nil
}

func (s *Store) ListActivity(ctx context.Context, opts activity.ListOpts) ([]*activity.Entry, int, error) {
	filter := bson.M{}
	if !opts.UserID.IsNil() {
		filter["user_id"] = opts.UserID.String()
	}

	c := s.db.Collection(colActivity)
	total, err := c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("tallybook/mongo: count activity: %w", err)
	}

	findOpts := options.Find().SetSort(bson.D{{Key: "when", Value: 1}, {Key: "_id", Value: 1}})
	if opts.Offset > 0 {
		findOpts = findOpts.SetSkip(int64(opts.Offset))
	}
	if opts.Limit > 0 {
		findOpts = findOpts.SetLimit(int64(opts.Limit))
	}

	cur, err := c.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, 0, fmt.Errorf("tallybook/mongo: list activity: %w", err)
	}
	var models []activityModel
	if err := cur.All(ctx, &models); err != nil {
		return nil, 0, fmt.Errorf("tallybook/mongo: decode activity: %w", err)
	}

	result := make([]*activity.Entry, len(models))
	for i := range models {
		if result[i], err = fromActivityModel(&models[i]); err != nil {
			return nil, 0, err
		}
	}
	return result, int(total), nil
}

// ==================== Sequence ====================

func (s *Store) NextSequence(ctx context.Context, name string) (int64, error) {
	var m counterModel
	err := s.db.Collection(colCounters).
		FindOneAndUpdate(ctx,
			bson.M{"_id": name},
			bson.M{"$inc": bson.M{"sequence": 1}},
			options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)).
		Decode(&m)
	if err != nil {
		return 0, fmt.Errorf("tallybook/mongo: next sequence %q: %w", name, err)
	}
	return m.Sequence, nil
}

// ==================== Transactions ====================

// InTx runs fn inside a session transaction. The context passed to fn
// is session-bound: every store call made through it joins the
// transaction.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("%w: start session: %v", tallybook.ErrTransactionFailed, err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}

package tallybook

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/tallybook/tallybook/activity"
	"github.com/tallybook/tallybook/auth"
	"github.com/tallybook/tallybook/business"
	"github.com/tallybook/tallybook/customer"
	"github.com/tallybook/tallybook/id"
	"github.com/tallybook/tallybook/plugin"
	"github.com/tallybook/tallybook/product"
	"github.com/tallybook/tallybook/store"
	"github.com/tallybook/tallybook/types"
	"github.com/tallybook/tallybook/user"
)

// bidSequence is the counter name for human-facing business numbers.
const bidSequence = "business_bid"

// Engine is the main inventory/invoicing engine.
type Engine struct {
	store   store.Store
	plugins *plugin.Registry
	logger  *slog.Logger
	tokens  *auth.TokenManager

	// Configuration
	tokenSecret []byte
	tokenTTL    time.Duration
	bcryptCost  int
}

// New creates a new Engine instance.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:    s,
		plugins:  plugin.NewRegistry(),
		logger:   slog.Default(),
		tokenTTL: auth.DefaultTokenTTL,
	}

	for _, opt := range opts {
		opt(e)
	}

	e.tokens = auth.NewTokenManager(e.tokenSecret, e.tokenTTL)

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithTokenSecret sets the signing secret for bearer tokens.
func WithTokenSecret(secret []byte) Option {
	return func(e *Engine) {
		e.tokenSecret = secret
	}
}

// WithTokenTTL sets the lifetime of issued bearer tokens.
func WithTokenTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		e.tokenTTL = ttl
	}
}

// WithBcryptCost sets the bcrypt cost used for password hashing.
// Zero means the bcrypt default.
func WithBcryptCost(cost int) Option {
	return func(e *Engine) {
		e.bcryptCost = cost
	}
}

// Start migrates the store and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("tallybook started",
		"plugins", e.plugins.Count(),
		"token_ttl", e.tokenTTL,
	)

	return nil
}

// Stop shuts down the Engine.
func (e *Engine) Stop() error {
	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	return e.store.Close()
}

// ──────────────────────────────────────────────────
// Activity trail helpers
// ──────────────────────────────────────────────────

// logActivity appends one entry to the activity trail. The trail is a
// fire-and-forget side effect: a failed append is logged and never
// fails the parent operation.
func (e *Engine) logActivity(ctx context.Context, userID id.UserID, entityName, action, description string) {
	entry := &activity.Entry{
		ID:          id.NewActivityID(),
		UserID:      userID,
		EntityName:  entityName,
		Action:      action,
		Description: description,
		When:        time.Now(),
	}

	if err := e.store.AppendActivity(ctx, entry); err != nil {
		e.logger.Warn("failed to append activity entry",
			"entity", entityName,
			"action", action,
			"error", err,
		)
	}
}

// fieldChange records one old-to-new field transition for update
// descriptions.
type fieldChange struct {
	Field string
	Old   string
	New   string
}

// changeDescription renders field changes as
// `Changes: name from "a" to "b", ...`. Empty when nothing changed.
func changeDescription(changes []fieldChange) string {
	if len(changes) == 0 {
		return ""
	}

	parts := make([]string, 0, len(changes))
	for _, c := range changes {
		parts = append(parts, fmt.Sprintf("%s from %q to %q", c.Field, c.Old, c.New))
	}
	return "Changes: " + strings.Join(parts, ", ")
}

// ──────────────────────────────────────────────────
// Accounts & Auth
// ──────────────────────────────────────────────────

// RegisterInput creates a user account.
type RegisterInput struct {
	Username   string
	Password   string
	Role       user.Role     // defaults to RoleUser
	BusinessID id.BusinessID // ignored for platform users
}

// AuthPayload is returned by Register and Login.
type AuthPayload struct {
	Token string
	User  *user.User
}

// Register creates a user account and returns a signed token for it.
// An anonymous actor may register (bootstrap); any authenticated actor
// must hold the platform role.
func (e *Engine) Register(ctx context.Context, actor Actor, in RegisterInput) (*AuthPayload, error) {
	if !actor.IsAnonymous() && !actor.IsPlatform() {
		return nil, ErrUnauthorized
	}
	if in.Username == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}

	role := in.Role
	if role == "" {
		role = user.RoleUser
	}
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, in.Role)
	}

	u := &user.User{
		Entity:   types.NewEntity(),
		ID:       id.NewUserID(),
		Username: in.Username,
		Role:     role,
	}

	// Platform users never belong to a business.
	if role != user.RolePlatform && !in.BusinessID.IsNil() {
		if _, err := e.store.GetBusiness(ctx, in.BusinessID); err != nil {
			return nil, err
		}
		u.BusinessID = in.BusinessID
	}

	hash, err := auth.HashPassword(in.Password, e.bcryptCost)
	if err != nil {
		return nil, err
	}
	u.PasswordHash = hash

	if err := e.store.CreateUser(ctx, u); err != nil {
		return nil, err
	}

	token, err := e.tokens.Issue(u.ID.String(), string(u.Role))
	if err != nil {
		return nil, err
	}

	e.logActivity(ctx, u.ID, "User", "create", fmt.Sprintf("User %q created", u.Username))
	e.plugins.EmitUserRegistered(ctx, u)

	return &AuthPayload{Token: token, User: u}, nil
}

// Login verifies credentials and returns a signed token. A missing user
// and a wrong password are indistinguishable to the caller.
func (e *Engine) Login(ctx context.Context, username, password string) (*AuthPayload, error) {
	u, err := e.store.GetUserByUsername(ctx, username)
	if err != nil || !auth.CheckPassword(u.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := e.tokens.Issue(u.ID.String(), string(u.Role))
	if err != nil {
		return nil, err
	}

	e.logActivity(ctx, u.ID, "User", "login", fmt.Sprintf("User %q logged in", u.Username))

	return &AuthPayload{Token: token, User: u}, nil
}

// Authenticate resolves a bearer token to an Actor. Invalid or expired
// tokens, and tokens whose user no longer exists, fail with
// ErrNotAuthenticated.
func (e *Engine) Authenticate(ctx context.Context, token string) (Actor, error) {
	claims, err := e.tokens.Verify(token)
	if err != nil {
		return Actor{}, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}

	userID, err := id.ParseUserID(claims.UserID)
	if err != nil {
		return Actor{}, fmt.Errorf("%w: %v", ErrNotAuthenticated, err)
	}

	u, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return Actor{}, fmt.Errorf("%w: user no longer exists", ErrNotAuthenticated)
	}

	return Actor{UserID: u.ID, Role: u.Role, BusinessID: u.BusinessID}, nil
}

// UpdateUserInput carries the optional fields of an update; nil fields
// are left unchanged.
type UpdateUserInput struct {
	Username   *string
	Password   *string
	Role       *user.Role
	BusinessID *id.BusinessID
}

// UpdateUser partially updates a user account. Platform-only.
func (e *Engine) UpdateUser(ctx context.Context, actor Actor, userID id.UserID, in UpdateUserInput) (*user.User, error) {
	if err := e.requirePlatform(actor); err != nil {
		return nil, err
	}

	u, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	oldUsername := u.Username
	var changes []fieldChange

	if in.Username != nil && *in.Username != u.Username {
		changes = append(changes, fieldChange{"username", u.Username, *in.Username})
		u.Username = *in.Username
	}
	if in.Role != nil && *in.Role != u.Role {
		if !in.Role.Valid() {
			return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidInput, *in.Role)
		}
		changes = append(changes, fieldChange{"role", string(u.Role), string(*in.Role)})
		u.Role = *in.Role
		if u.Role == user.RolePlatform {
			u.BusinessID = id.Nil
		}
	}
	if in.BusinessID != nil && u.Role != user.RolePlatform && *in.BusinessID != u.BusinessID {
		if !in.BusinessID.IsNil() {
			if _, err := e.store.GetBusiness(ctx, *in.BusinessID); err != nil {
				return nil, err
			}
		}
		changes = append(changes, fieldChange{"business", u.BusinessID.String(), in.BusinessID.String()})
		u.BusinessID = *in.BusinessID
	}
	if in.Password != nil {
		hash, err := auth.HashPassword(*in.Password, e.bcryptCost)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = hash
	}

	u.Touch()
	if err := e.store.UpdateUser(ctx, u); err != nil {
		return nil, err
	}

	e.logActivity(ctx, actor.UserID, "User", "update",
		strings.TrimSpace(fmt.Sprintf("User %q updated. %s", oldUsername, changeDescription(changes))))

	return u, nil
}

// DeleteUser removes a user account. Platform-only.
func (e *Engine) DeleteUser(ctx context.Context, actor Actor, userID id.UserID) error {
	if err := e.requirePlatform(actor); err != nil {
		return err
	}

	u, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	if err := e.store.DeleteUser(ctx, userID); err != nil {
		return err
	}

	e.logActivity(ctx, actor.UserID, "User", "delete", fmt.Sprintf("User %q deleted", u.Username))
	return nil
}

// ──────────────────────────────────────────────────
// Business Management
// ──────────────────────────────────────────────────

// CreateBusinessInput creates a tenant.
type CreateBusinessInput struct {
	Name    string
	Address string
	Phone   string
	Type    business.Type
}

// CreateBusiness creates a tenant and issues its sequential BID.
// Platform-only.
func (e *Engine) CreateBusiness(ctx context.Context, actor Actor, in CreateBusinessInput) (*business.Business, error) {
	if err := e.requirePlatform(actor); err != nil {
		return nil, err
	}
	if in.Name == "" {
		return nil, fmt.Errorf("%w: business name is required", ErrInvalidInput)
	}
	if !in.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown business type %q", ErrInvalidInput, in.Type)
	}

	bid, err := e.store.NextSequence(ctx, bidSequence)
	if err != nil {
		return nil, err
	}

	b := &business.Business{
		Entity:  types.NewEntity(),
		ID:      id.NewBusinessID(),
		BID:     bid,
		Name:    in.Name,
		Address: in.Address,
		Phone:   in.Phone,
		Type:    in.Type,
	}

	if err := e.store.CreateBusiness(ctx, b); err != nil {
		return nil, err
	}

	e.logActivity(ctx, actor.UserID, "Business", "create",
		fmt.Sprintf("Business %q (BID: %d) created", b.Name, b.BID))
	e.plugins.EmitBusinessCreated(ctx, b)

	return b, nil
}

// UpdateBusinessInput carries the optional fields of an update; nil
// fields are left unchanged.
type UpdateBusinessInput struct {
	Name    *string
	Address *string
	Phone   *string
	Type    *business.Type
}

// UpdateBusiness partially updates a tenant. Platform-only.
func (e *Engine) UpdateBusiness(ctx context.Context, actor Actor, bizID id.BusinessID, in UpdateBusinessInput) (*business.Business, error) {
	if err := e.requirePlatform(actor); err != nil {
		return nil, err
	}

	b, err := e.store.GetBusiness(ctx, bizID)
	if err != nil {
		return nil, err
	}

	oldName, oldBID := b.Name, b.BID
	var changes []fieldChange

	if in.Name != nil && *in.Name != b.Name {
		changes = append(changes, fieldChange{"name", b.Name, *in.Name})
		b.Name = *in.Name
	}
	if in.Address != nil && *in.Address != b.Address {
		changes = append(changes, fieldChange{"address", b.Address, *in.Address})
		b.Address = *in.Address
	}
	if in.Phone != nil && *in.Phone != b.Phone {
		changes = append(changes, fieldChange{"phone", b.Phone, *in.Phone})
		b.Phone = *in.Phone
	}
	if in.Type != nil && *in.Type != b.Type {
		if !in.Type.Valid() {
			return nil, fmt.Errorf("%w: unknown business type %q", ErrInvalidInput, *in.Type)
		}
		changes = append(changes, fieldChange{"type", string(b.Type), string(*in.Type)})
		b.Type = *in.Type
	}

	b.Touch()
	if err := e.store.UpdateBusiness(ctx, b); err != nil {
		return nil, err
	}

	e.logActivity(ctx, actor.UserID, "Business", "update",
		strings.TrimSpace(fmt.Sprintf("Business %q (BID: %d) updated. %s", oldName, oldBID, changeDescription(changes))))

	return b, nil
}

// DeleteBusiness removes a tenant. Platform-only.
func (e *Engine) DeleteBusiness(ctx context.Context, actor Actor, bizID id.BusinessID) error {
	if err := e.requirePlatform(actor); err != nil {
		return err
	}

	b, err := e.store.GetBusiness(ctx, bizID)
	if err != nil {
		return err
	}

	if err := e.store.DeleteBusiness(ctx, bizID); err != nil {
		return err
	}

	e.logActivity(ctx, actor.UserID, "Business", "delete",
		fmt.Sprintf("Business %q (BID: %d) deleted", b.Name, b.BID))
	return nil
}

// ──────────────────────────────────────────────────
// Product Catalog
// ──────────────────────────────────────────────────

// CreateProductInput creates a catalog product.
type CreateProductInput struct {
	Name           string
	Brand          string
	SKU            string
	Quantity       int64
	Price          types.Money
	LowStockAmount int64 // 0 means DefaultLowStockAmount
}

// CreateProduct adds a product to the actor's catalog. Platform actors
// are rejected: they have no business to create under.
func (e *Engine) CreateProduct(ctx context.Context, actor Actor, in CreateProductInput) (*product.Product, error) {
	bizID, err := e.authorizeTenantCreate(actor)
	if err != nil {
		return nil, err
	}
	if in.Name == "" || in.SKU == "" {
		return nil, fmt.Errorf("%w: product name and sku are required", ErrInvalidInput)
	}
	if in.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must not be negative", ErrInvalidInput)
	}

	threshold := in.LowStockAmount
	if threshold == 0 {
		threshold = product.DefaultLowStockAmount
	}

	p := &product.Product{
		Entity:         types.NewEntity(),
		ID:             id.NewProductID(),
		Name:           in.Name,
		Brand:          in.Brand,
		SKU:            in.SKU,
		Quantity:       in.Quantity,
		Price:          in.Price,
		LowStockAmount: threshold,
		BusinessID:     bizID,
	}
	p.RefreshLowStock()

	if err := e.store.CreateProduct(ctx, p); err != nil {
		return nil, err
	}

	e.logActivity(ctx, actor.UserID, "Product", "create",
		fmt.Sprintf("Product %q (SKU: %s) created", p.Name, p.SKU))
	e.plugins.EmitProductCreated(ctx, p)

	return p, nil
}

// UpdateProductInput carries the optional fields of an update; nil
// fields are left unchanged.
type UpdateProductInput struct {
	Name           *string
	Brand          *string
	SKU            *string
	Quantity       *int64
	Price          *types.Money
	LowStockAmount *int64
}

// UpdateProduct partially updates a product. A quantity change is a
// catalog correction and flows through the stock ledger like every
// other quantity mutation.
func (e *Engine) UpdateProduct(ctx context.Context, actor Actor, productID id.ProductID, in UpdateProductInput) (*product.Product, error) {
	p, err := e.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := e.authorize(actor, p.BusinessID); err != nil {
		return nil, err
	}

	oldName, oldSKU := p.Name, p.SKU
	var changes []fieldChange

	if in.Name != nil && *in.Name != p.Name {
		changes = append(changes, fieldChange{"name", p.Name, *in.Name})
		p.Name = *in.Name
	}
	if in.Brand != nil && *in.Brand != p.Brand {
		changes = append(changes, fieldChange{"brand", p.Brand, *in.Brand})
		p.Brand = *in.Brand
	}
	if in.SKU != nil && *in.SKU != p.SKU {
		changes = append(changes, fieldChange{"sku", p.SKU, *in.SKU})
		p.SKU = *in.SKU
	}
	if in.Price != nil && !in.Price.Equal(p.Price) {
		changes = append(changes, fieldChange{"price", p.Price.String(), in.Price.String()})
		p.Price = *in.Price
	}
	if in.LowStockAmount != nil && *in.LowStockAmount != p.LowStockAmount {
		changes = append(changes, fieldChange{
			"lowStockAmount",
			fmt.Sprintf("%d", p.LowStockAmount),
			fmt.Sprintf("%d", *in.LowStockAmount),
		})
		p.LowStockAmount = *in.LowStockAmount
	}
	if in.Quantity != nil && *in.Quantity != p.Quantity {
		if *in.Quantity < 0 {
			return nil, fmt.Errorf("%w: quantity must not be negative", ErrInvalidInput)
		}
		changes = append(changes, fieldChange{
			"quantity",
			fmt.Sprintf("%d", p.Quantity),
			fmt.Sprintf("%d", *in.Quantity),
		})
	}

	p.RefreshLowStock()
	p.Touch()
	if err := e.store.UpdateProduct(ctx, p); err != nil {
		return nil, err
	}

	// Quantity changes go through the stock ledger choke point, never a
	// direct field write.
	if in.Quantity != nil && *in.Quantity != p.Quantity {
		delta := *in.Quantity - p.Quantity
		p, err = e.AdjustStock(ctx, actor, productID, delta, "update", "Catalog correction")
		if err != nil {
			return nil, err
		}
	}

	e.logActivity(ctx, actor.UserID, "Product", "update",
		strings.TrimSpace(fmt.Sprintf("Product %q (SKU: %s) updated. %s", oldName, oldSKU, changeDescription(changes))))

	return p, nil
}

// DeleteProduct removes a product from the catalog. Products referenced
// by existing invoice items cannot be deleted.
func (e *Engine) DeleteProduct(ctx context.Context, actor Actor, productID id.ProductID) error {
	p, err := e.store.GetProduct(ctx, productID)
	if err != nil {
		return err
	}
	if err := e.authorize(actor, p.BusinessID); err != nil {
		return err
	}

	refs, err := e.store.CountInvoicesByProduct(ctx, productID)
	if err != nil {
		return err
	}
	if refs > 0 {
		return fmt.Errorf("%w: %q (SKU: %s) appears on %d invoice(s)", ErrProductInUse, p.Name, p.SKU, refs)
	}

	if err := e.store.DeleteProduct(ctx, productID); err != nil {
		return err
	}

	e.logActivity(ctx, actor.UserID, "Product", "delete",
		fmt.Sprintf("Product %q (SKU: %s) deleted", p.Name, p.SKU))
	e.plugins.EmitProductDeleted(ctx, productID.String())

	return nil
}

// ──────────────────────────────────────────────────
// Customer Management
// ──────────────────────────────────────────────────

// CreateCustomerInput creates a customer.
type CreateCustomerInput struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// CreateCustomer adds a customer to the actor's business. Platform
// actors are rejected.
func (e *Engine) CreateCustomer(ctx context.Context, actor Actor, in CreateCustomerInput) (*customer.Customer, error) {
	bizID, err := e.authorizeTenantCreate(actor)
	if err != nil {
		return nil, err
	}
	if in.Name == "" || in.Email == "" {
		return nil, fmt.Errorf("%w: customer name and email are required", ErrInvalidInput)
	}

	c := &customer.Customer{
		Entity:     types.NewEntity(),
		ID:         id.NewCustomerID(),
		Name:       in.Name,
		Email:      in.Email,
		Phone:      in.Phone,
		Address:    in.Address,
		BusinessID: bizID,
	}

	if err := e.store.CreateCustomer(ctx, c); err != nil {
		return nil, err
	}

	e.logActivity(ctx, actor.UserID, "Customer", "create",
		fmt.Sprintf("Customer %q (Email: %s) created", c.Name, c.Email))
	e.plugins.EmitCustomerCreated(ctx, c)

	return c, nil
}

// UpdateCustomerInput carries the optional fields of an update; nil
// fields are left unchanged.
type UpdateCustomerInput struct {
	Name    *string
	Email   *string
	Phone   *string
	Address *string
}

// UpdateCustomer partially updates a customer.
func (e *Engine) UpdateCustomer(ctx context.Context, actor Actor, customerID id.CustomerID, in UpdateCustomerInput) (*customer.Customer, error) {
	c, err := e.store.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := e.authorize(actor, c.BusinessID); err != nil {
		return nil, err
	}

	oldName, oldEmail := c.Name, c.Email
	var changes []fieldChange

	if in.Name != nil && *in.Name != c.Name {
		changes = append(changes, fieldChange{"name", c.Name, *in.Name})
		c.Name = *in.Name
	}
	if in.Email != nil && *in.Email != c.Email {
		changes = append(changes, fieldChange{"email", c.Email, *in.Email})
		c.Email = *in.Email
	}
	if in.Phone != nil && *in.Phone != c.Phone {
		changes = append(changes, fieldChange{"phone", c.Phone, *in.Phone})
		c.Phone = *in.Phone
	}
	if in.Address != nil && *in.Address != c.Address {
		changes = append(changes, fieldChange{"address", c.Address, *in.Address})
		c.Address = *in.Address
	}

	c.Touch()
	if err := e.store.UpdateCustomer(ctx, c); err != nil {
		return nil, err
	}

	e.logActivity(ctx, actor.UserID, "Customer", "update",
		strings.TrimSpace(fmt.Sprintf("Customer %q (Email: %s) updated. %s", oldName, oldEmail, changeDescription(changes))))

	return c, nil
}

// DeleteCustomer removes a customer.
func (e *Engine) DeleteCustomer(ctx context.Context, actor Actor, customerID id.CustomerID) error {
	c, err := e.store.GetCustomer(ctx, customerID)
	if err != nil {
		return err
	}
	if err := e.authorize(actor, c.BusinessID); err != nil {
		return err
	}

	if err := e.store.DeleteCustomer(ctx, customerID); err != nil {
		return err
	}

	e.logActivity(ctx, actor.UserID, "Customer", "delete",
		fmt.Sprintf("Customer %q (Email: %s) deleted", c.Name, c.Email))
	return nil
}

// Package tallybook provides a multi-tenant inventory and invoicing engine for Go applications.
//
// Tallybook is designed as a library, not a service. Import it directly into your Go
// application and put whatever transport you like in front of it. It provides:
//
//   - Invoice-driven stock mutation with atomic per-product guards
//   - Low-stock alerting derived from configurable thresholds
//   - Mirrored sale records for reporting, always 1:1 with invoices
//   - Role-based tenant isolation (platform vs. per-business accounts)
//   - An append-only activity trail for every mutation
//   - Lifecycle plugins and a pluggable audit bridge
//
// # Quick Start
//
// Create an engine instance with your preferred store:
//
//	import (
//	    "github.com/tallybook/tallybook"
//	    "github.com/tallybook/tallybook/store/mongo"
//	)
//
//	// Initialize store
//	store, err := mongo.New(databaseURL, "tallybook")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Create engine
//	tb := tallybook.New(store, tallybook.WithTokenSecret(secret))
//
//	// Start the engine (runs migrations, initializes plugins)
//	if err := tb.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer tb.Stop()
//
// # Core Concepts
//
// Every call names its caller explicitly — there is no ambient request
// state. An Actor is resolved from a bearer token once, then passed to
// each operation:
//
//	actor, err := tb.Authenticate(ctx, token)
//	view, err := tb.CreateInvoice(ctx, actor, tallybook.CreateInvoiceInput{
//	    CustomerID: custID,
//	    Items: []invoice.Item{
//	        {ProductID: prodID, Quantity: 2, Price: tallybook.USD(500)},
//	    },
//	})
//
// Creating an invoice deducts stock for every line, persists the
// invoice and its mirrored sale together, and rolls the whole sequence
// back if any step fails. Updating an invoice's items applies only the
// net per-product difference; deleting one restocks everything.
//
// All quantity changes flow through a single choke point, AdjustStock,
// which enforces the two stock invariants: quantity never goes
// negative, and the low-stock alert always equals
// quantity <= lowStockAmount.
//
// All monetary calculations use integer arithmetic to avoid
// floating-point precision issues. The Money type represents amounts in
// the smallest currency unit (cents for USD, pence for GBP).
//
// # TypeID
//
// All entities use TypeID for globally unique, type-safe identifiers:
//
//	prod_01h2xcejqtf2nbrexx3vqjhp41  // Product ID
//	inv_01h455vb4pex5vsknk084sn02q   // Invoice ID
//	sale_01h455vb4pex5vsknk084sn02q  // Sale ID
//
// TypeIDs are K-sortable, making them ideal for database indexes and
// providing natural time-ordering of entities.
package tallybook

package tallybook

import (
	"github.com/tallybook/tallybook/id"
	"github.com/tallybook/tallybook/user"
)

// Actor identifies the caller of an engine operation. It is passed
// explicitly to every call — the engine keeps no ambient request state.
// A zero-value Actor is anonymous and fails every authenticated
// operation with ErrNotAuthenticated.
type Actor struct {
	UserID     id.UserID
	Role       user.Role
	BusinessID id.BusinessID // Nil for platform actors
}

// IsAnonymous reports whether this actor carries no identity.
func (a Actor) IsAnonymous() bool {
	return a.UserID.IsNil()
}

// IsPlatform reports whether this actor has the cross-tenant platform role.
func (a Actor) IsPlatform() bool {
	return a.Role == user.RolePlatform
}

// CanAccess reports whether the actor may act on a resource owned by
// businessID. Platform actors may act on any business; everyone else
// only on their own.
func (a Actor) CanAccess(businessID id.BusinessID) bool {
	if a.IsPlatform() {
		return true
	}
	if a.BusinessID.IsNil() {
		return false
	}
	return a.BusinessID == businessID
}

// authorize is the gate every entity-scoped operation passes through
// before reading or mutating. Order matters: authentication before
// authorization.
func (e *Engine) authorize(actor Actor, businessID id.BusinessID) error {
	if actor.IsAnonymous() {
		return ErrNotAuthenticated
	}
	if !actor.CanAccess(businessID) {
		return ErrUnauthorized
	}
	return nil
}

// authorizeTenantCreate gates creation of business-scoped entities
// (products, customers, invoices). Platform actors are rejected with a
// dedicated error: they have no implicit business to create under.
func (e *Engine) authorizeTenantCreate(actor Actor) (id.BusinessID, error) {
	if actor.IsAnonymous() {
		return id.Nil, ErrNotAuthenticated
	}
	if actor.IsPlatform() {
		return id.Nil, ErrPlatformScope
	}
	if actor.BusinessID.IsNil() {
		return id.Nil, ErrUnauthorized
	}
	return actor.BusinessID, nil
}

// requirePlatform gates the platform-only operations (user and business
// management).
func (e *Engine) requirePlatform(actor Actor) error {
	if actor.IsAnonymous() {
		return ErrNotAuthenticated
	}
	if !actor.IsPlatform() {
		return ErrUnauthorized
	}
	return nil
}

// Package reconcile sends local mutations and queries to the commerce
// backend and reconciles the page stores with what comes back.
package reconcile

import (
	"context"
	"log"
	"sync"
	"time"

	"storefront.GO/core/errs"
	"storefront.GO/model/entity"
	"storefront.GO/store"
)

// DefaultTimeout bounds every backend call.
const DefaultTimeout = 10 * time.Second

// MutationState tracks the last mutation of one cart line.
type MutationState string

const (
	Idle       MutationState = "IDLE"
	Pending    MutationState = "PENDING"
	Confirmed  MutationState = "CONFIRMED"
	RolledBack MutationState = "ROLLED_BACK"
	// Rejected: the backend refused the change; the local value is kept.
	Rejected MutationState = "REJECTED"
)

// CartBackend is the part of the commerce API the cart needs.
type CartBackend interface {
	Me(ctx context.Context) (entity.User, error)
	GetCart(ctx context.Context, userID string) (entity.CartState, error)
	UpdateQuantity(ctx context.Context, cartID int64, quantity int) error
	DeleteCartItem(ctx context.Context, cartID int64) error
}

// Cart applies cart mutations optimistically and confirms them remotely.
// Mutations of one cart line run one at a time, in call order of lock
// acquisition; different lines proceed in parallel.
type Cart struct {
	store   *store.CartStore
	api     CartBackend
	timeout time.Duration
	locks   keyedLocks

	mu     sync.Mutex
	states map[int64]MutationState
}

func NewCart(s *store.CartStore, api CartBackend, timeout time.Duration) *Cart {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Cart{store: s, api: api, timeout: timeout, states: make(map[int64]MutationState)}
}

// State returns the mutation state of cartID.
func (c *Cart) State(cartID int64) MutationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	if st, ok := c.states[cartID]; ok {
		return st
	}
	return Idle
}

// InFlight reports whether any mutation is pending or a line is parked at
// the removal sentinel waiting for confirmation.
func (c *Cart) InFlight() bool {
	c.mu.Lock()
	for _, st := range c.states {
		if st == Pending {
			c.mu.Unlock()
			return true
		}
	}
	c.mu.Unlock()
	for _, it := range c.store.Snapshot().Items {
		if it.PendingRemoval() {
			return true
		}
	}
	return false
}

func (c *Cart) setState(cartID int64, st MutationState) {
	c.mu.Lock()
	c.states[cartID] = st
	c.mu.Unlock()
}

// Load resolves the session user and loads the server cart into the store.
func (c *Cart) Load(ctx context.Context) (entity.CartState, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	user, err := c.api.Me(ctx)
	if err != nil {
		return entity.CartState{}, err
	}
	cart, err := c.api.GetCart(ctx, user.UserID)
	if err != nil {
		log.Printf("[CART] action=load user=%s msg=%v", user.UserID, err)
		c.store.Load(entity.CartState{UserID: user.UserID, Address: user.Address})
		return entity.CartState{}, err
	}
	cart.UserID = user.UserID
	c.store.Load(cart)
	snap := c.store.Snapshot()
	if snap.Address == "" && user.Address != "" {
		snap.Address = user.Address
		c.store.Restore(snap)
	}
	return c.store.Snapshot(), nil
}

// Resync reloads the server cart unless a mutation is in flight. It reports
// whether the store was replaced.
func (c *Cart) Resync(ctx context.Context) (bool, error) {
	userID := c.store.UserID()
	if userID == "" {
		return false, errs.AuthRequired("cart.resync")
	}
	if c.InFlight() {
		return false, nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	cart, err := c.api.GetCart(ctx, userID)
	if err != nil {
		return false, err
	}
	if c.InFlight() {
		return false, nil
	}
	cart.UserID = userID
	if cart.Address == "" {
		cart.Address = c.store.Snapshot().Address
	}
	c.store.Load(cart)
	return true, nil
}

// UpdateQuantity sets cartID to quantity locally, then persists it. On
// failure the line is rolled back, except for business rejections where the
// local value stays and the backend message is returned.
func (c *Cart) UpdateQuantity(ctx context.Context, cartID int64, quantity int) error {
	const op = "cart.update_quantity"
	if c.store.UserID() == "" {
		return errs.AuthRequired(op)
	}
	quantity = store.ClampQuantity(quantity)
	if quantity == 0 {
		return errs.Validation(op, "quantity", "quantity 0 removes the item")
	}

	unlock, err := c.locks.lock(ctx, cartID)
	if err != nil {
		return errs.Network(op, 0, err)
	}
	defer unlock()
	return c.update(ctx, cartID, quantity)
}

// AdjustQuantity applies a plus or minus press. The new value is computed
// from the line as it stands once earlier mutations of the line have
// settled. Reaching zero parks the line at the removal sentinel and asks
// confirmRemove: yes removes the line, no sets it back to one. A nil
// confirmRemove removes.
func (c *Cart) AdjustQuantity(ctx context.Context, cartID int64, delta int, confirmRemove func() bool) error {
	const op = "cart.adjust_quantity"
	if c.store.UserID() == "" {
		return errs.AuthRequired(op)
	}

	unlock, err := c.locks.lock(ctx, cartID)
	if err != nil {
		return errs.Network(op, 0, err)
	}
	defer unlock()

	it, ok := c.store.Item(cartID)
	if !ok {
		return errs.Validation(op, "cartId", "item is not in the cart")
	}
	q := it.Quantity + delta
	if q > entity.MaxQuantity {
		q = entity.MaxQuantity
	}
	if q > 0 {
		return c.update(ctx, cartID, q)
	}

	c.store.SetQuantity(cartID, 0)
	if confirmRemove == nil || confirmRemove() {
		return c.remove(ctx, cartID)
	}
	return c.update(ctx, cartID, entity.MinQuantity)
}

// update runs with the line lock held.
func (c *Cart) update(ctx context.Context, cartID int64, quantity int) error {
	const op = "cart.update_quantity"
	tok, ok := c.store.SetQuantity(cartID, quantity)
	if !ok {
		return errs.Validation(op, "cartId", "item is not in the cart")
	}
	c.setState(cartID, Pending)

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	err := c.api.UpdateQuantity(callCtx, cartID, quantity)
	cancel()

	switch {
	case err == nil:
		c.setState(cartID, Confirmed)
		return nil
	case errs.IsBusiness(err):
		c.setState(cartID, Rejected)
		log.Printf("[CART] action=update_quantity cart_id=%d msg=rejected: %v", cartID, err)
		return err
	default:
		if tok.Item.Quantity < entity.MinQuantity {
			tok.Item.Quantity = entity.MinQuantity
		}
		c.store.RestoreItem(tok)
		c.setState(cartID, RolledBack)
		log.Printf("[CART] action=update_quantity cart_id=%d msg=rolled back: %v", cartID, err)
		return asNetwork(op, err)
	}
}

// Remove drops cartID locally and deletes it remotely. On any failure the
// line comes back in place; a line removed from quantity 0 comes back as 1.
func (c *Cart) Remove(ctx context.Context, cartID int64) error {
	if c.store.UserID() == "" {
		return errs.AuthRequired("cart.remove")
	}

	unlock, err := c.locks.lock(ctx, cartID)
	if err != nil {
		return errs.Network("cart.remove", 0, err)
	}
	defer unlock()
	return c.remove(ctx, cartID)
}

// remove runs with the line lock held.
func (c *Cart) remove(ctx context.Context, cartID int64) error {
	const op = "cart.remove"
	tok, ok := c.store.RemoveItem(cartID)
	if !ok {
		return errs.Validation(op, "cartId", "item is not in the cart")
	}
	c.setState(cartID, Pending)

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	err := c.api.DeleteCartItem(callCtx, cartID)
	cancel()

	if err == nil {
		c.setState(cartID, Confirmed)
		return nil
	}
	if tok.Item.Quantity < entity.MinQuantity {
		tok.Item.Quantity = entity.MinQuantity
	}
	c.store.RestoreItem(tok)
	c.setState(cartID, RolledBack)
	log.Printf("[CART] action=remove cart_id=%d msg=rolled back: %v", cartID, err)
	if errs.IsBusiness(err) || errs.IsAuthRequired(err) {
		return err
	}
	return asNetwork(op, err)
}

// asNetwork keeps typed errors and wraps anything else as a network failure.
func asNetwork(op string, err error) error {
	if errs.KindOf(err) != "" {
		return err
	}
	return errs.Network(op, 0, err)
}

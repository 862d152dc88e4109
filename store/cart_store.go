// Package store holds the page state stores. Each page owns one store for
// its lifetime; every mutation goes through a named operation and is fully
// applied before subscribers are notified.
package store

import (
	"sync"

	"storefront.GO/model/entity"
)

// RollbackToken captures what a cart mutation replaced so that exactly that
// item can be put back if the remote call fails.
type RollbackToken struct {
	Item    entity.LineItem
	Index   int
	Removed bool
}

// CartStore is the single source of truth for the cart page.
type CartStore struct {
	mu    sync.Mutex
	state entity.CartState
	subs  broadcaster[entity.CartState]
}

func NewCartStore() *CartStore {
	return &CartStore{}
}

// ClampQuantity maps user input into [0, 99]. Negative input becomes 1,
// anything above the maximum becomes 99, and 0 stays as removal intent.
func ClampQuantity(q int) int {
	switch {
	case q < 0:
		return entity.MinQuantity
	case q > entity.MaxQuantity:
		return entity.MaxQuantity
	default:
		return q
	}
}

// Load replaces the state with a freshly fetched cart. When Address is empty
// it is taken from the first row that carries one.
func (s *CartStore) Load(st entity.CartState) {
	if st.Address == "" {
		for _, it := range st.Items {
			if it.Address != "" {
				st.Address = it.Address
				break
			}
		}
	}
	s.Restore(st)
}

// Snapshot returns a deep copy of the current state.
func (s *CartStore) Snapshot() entity.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *CartStore) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.UserID
}

// Item returns the current line item for cartID.
func (s *CartStore) Item(cartID int64) (entity.LineItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	it, _, ok := s.state.Find(cartID)
	return it, ok
}

// SetQuantity applies a clamped quantity to cartID. It never calls the network.
func (s *CartStore) SetQuantity(cartID int64, q int) (RollbackToken, bool) {
	q = ClampQuantity(q)
	s.mu.Lock()
	it, idx, ok := s.state.Find(cartID)
	if !ok {
		s.mu.Unlock()
		return RollbackToken{}, false
	}
	s.state.Items[idx].Quantity = q
	s.mu.Unlock()

	s.notify()
	return RollbackToken{Item: it, Index: idx}, true
}

// RemoveItem drops cartID from local state and returns it as rollback token.
func (s *CartStore) RemoveItem(cartID int64) (RollbackToken, bool) {
	s.mu.Lock()
	it, idx, ok := s.state.Find(cartID)
	if !ok {
		s.mu.Unlock()
		return RollbackToken{}, false
	}
	s.state.Items = append(s.state.Items[:idx:idx], s.state.Items[idx+1:]...)
	s.state.Reindex()
	s.mu.Unlock()

	s.notify()
	return RollbackToken{Item: it, Index: idx, Removed: true}, true
}

// RestoreItem undoes one mutation. A removed item is re-inserted at its old
// position (or the end); otherwise the item's previous values are put back.
func (s *CartStore) RestoreItem(tok RollbackToken) {
	s.mu.Lock()
	_, idx, present := s.state.Find(tok.Item.CartID)
	switch {
	case present:
		s.state.Items[idx] = tok.Item
	case tok.Removed:
		pos := tok.Index
		if pos < 0 || pos > len(s.state.Items) {
			pos = len(s.state.Items)
		}
		items := make([]entity.LineItem, 0, len(s.state.Items)+1)
		items = append(items, s.state.Items[:pos]...)
		items = append(items, tok.Item)
		items = append(items, s.state.Items[pos:]...)
		s.state.Items = items
	default:
		// the item was removed after this token was taken; nothing to put back
		s.mu.Unlock()
		return
	}
	s.state.Reindex()
	s.mu.Unlock()

	s.notify()
}

// Restore replaces the whole state with snapshot.
func (s *CartStore) Restore(snapshot entity.CartState) {
	st := snapshot.Clone()
	st.Reindex()
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()

	s.notify()
}

// Subscribe registers fn for every state change and returns its cancel func.
func (s *CartStore) Subscribe(fn func(entity.CartState)) func() {
	return s.subs.subscribe(fn)
}

// Teardown drops subscribers and state at the end of the page lifetime.
func (s *CartStore) Teardown() {
	s.subs.clear()
	s.mu.Lock()
	s.state = entity.CartState{}
	s.mu.Unlock()
}

func (s *CartStore) notify() {
	s.subs.publish(s.Snapshot)
}

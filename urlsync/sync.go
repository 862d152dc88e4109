package urlsync

import (
	"context"
	"log"
	"net/url"
	"strings"

	"storefront.GO/model/entity"
	"storefront.GO/store"
)

// FetchFunc runs the search query for a state.
type FetchFunc func(ctx context.Context, st entity.SearchState)

// Direction of a history pop.
type Direction int

const (
	Back Direction = iota
	Forward
)

// Synchronizer writes search states to the History and drives the fetch
// after every write. The URL is always written before the fetch starts.
type Synchronizer struct {
	path    string
	history History
	store   *store.SearchStore
	fetch   FetchFunc
}

func NewSynchronizer(path string, h History, s *store.SearchStore) *Synchronizer {
	return &Synchronizer{path: path, history: h, store: s}
}

// SetFetcher wires the search reconciler; it must be set before the first Publish.
func (s *Synchronizer) SetFetcher(fn FetchFunc) {
	s.fetch = fn
}

// Load reads the current URL into the store without touching history.
func (s *Synchronizer) Load() entity.SearchState {
	st := FromQuery(s.history.Current())
	s.store.Restore(st)
	return s.store.Snapshot()
}

// Publish records st in the URL and triggers the fetch. A changed URL is
// pushed so back/forward revisit it; an unchanged one is replaced.
func (s *Synchronizer) Publish(ctx context.Context, st entity.SearchState) {
	u := Join(s.path, st)
	if u != s.history.Current() {
		s.history.Push(u)
	} else {
		s.history.Replace(u)
	}
	log.Printf("[URLSYNC] action=publish url=%s", u)
	s.runFetch(ctx, st)
}

// ReplaceURL corrects the current entry without fetching.
func (s *Synchronizer) ReplaceURL(st entity.SearchState) {
	u := Join(s.path, st)
	s.history.Replace(u)
	log.Printf("[URLSYNC] action=replace url=%s", u)
}

// Replace corrects the current entry and fetches.
func (s *Synchronizer) Replace(ctx context.Context, st entity.SearchState) {
	s.ReplaceURL(st)
	s.runFetch(ctx, st)
}

// Pop moves through history, restores the store from the URL found there
// and fetches. It reports false when there is nowhere to go.
func (s *Synchronizer) Pop(ctx context.Context, dir Direction) bool {
	var (
		u  string
		ok bool
	)
	if dir == Forward {
		u, ok = s.history.Forward()
	} else {
		u, ok = s.history.Back()
	}
	if !ok {
		return false
	}
	st := FromQuery(u)
	s.store.Restore(st)
	log.Printf("[URLSYNC] action=pop url=%s", u)
	s.runFetch(ctx, s.store.Snapshot())
	return true
}

func (s *Synchronizer) runFetch(ctx context.Context, st entity.SearchState) {
	if s.fetch != nil {
		s.fetch(ctx, st)
	}
}

// ConsumeStoreSelection reads a logistics map callback from the current URL
// and replaces it by the bare path so a reload does not replay it.
func ConsumeStoreSelection(h History) (entity.StoreSelection, bool) {
	cur := h.Current()
	i := strings.IndexByte(cur, '?')
	if i < 0 {
		return entity.StoreSelection{}, false
	}
	v, _ := url.ParseQuery(cur[i+1:])
	sel, ok := StoreSelectionFromURL(v)
	if !ok {
		return entity.StoreSelection{}, false
	}
	h.Replace(cur[:i])
	return sel, true
}

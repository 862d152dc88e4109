package store

import (
	"sync"

	"storefront.GO/model/entity"
)

// SearchStore is the single source of truth for the search page.
type SearchStore struct {
	mu       sync.Mutex
	state    entity.SearchState
	defaults entity.SearchState
	subs     broadcaster[entity.SearchState]
}

// NewSearchStore starts from initial; its Size is kept as the default page
// size for Reset.
func NewSearchStore(initial entity.SearchState) *SearchStore {
	initial = initial.Normalize().Clone()
	defaults := entity.DefaultSearchState()
	defaults.Size = initial.Size
	return &SearchStore{state: initial, defaults: defaults}
}

func (s *SearchStore) Snapshot() entity.SearchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// ApplyFilter merges patch into the state and returns the result.
//
// Setting MainCategory always clears SubCategory. Any change to a field other
// than Page resets Page to 0; Page from the patch only applies when nothing
// else changed.
func (s *SearchStore) ApplyFilter(patch entity.SearchPatch) entity.SearchState {
	s.mu.Lock()
	prev := s.state
	next := prev.Clone()

	if patch.MainCategory != nil {
		next.MainCategory = *patch.MainCategory
		next.SubCategory = ""
	} else if patch.SubCategory != nil {
		next.SubCategory = *patch.SubCategory
	}
	if patch.ClearMinPrice {
		next.MinPrice = nil
	} else if patch.MinPrice != nil {
		next.MinPrice = entity.Price(*patch.MinPrice)
	}
	if patch.ClearMaxPrice {
		next.MaxPrice = nil
	} else if patch.MaxPrice != nil {
		next.MaxPrice = entity.Price(*patch.MaxPrice)
	}
	if patch.Keyword != nil {
		next.Keyword = *patch.Keyword
	}
	if patch.Size != nil {
		next.Size = *patch.Size
	}
	if patch.Sort != nil {
		next.Sort = *patch.Sort
	}
	next = next.Normalize()

	probe := next
	probe.Page = prev.Page
	switch {
	case !probe.Equal(prev):
		next.Page = 0
	case patch.Page != nil && *patch.Page >= 0:
		next.Page = *patch.Page
	}

	changed := !next.Equal(prev)
	s.state = next
	out := next.Clone()
	s.mu.Unlock()

	if changed {
		s.notify()
	}
	return out
}

// ClampPage pulls Page back into [0, totalPages-1] after the server reported
// the real page count. It reports whether the page moved.
func (s *SearchStore) ClampPage(totalPages int) (entity.SearchState, bool) {
	s.mu.Lock()
	last := totalPages - 1
	if last < 0 {
		last = 0
	}
	if s.state.Page <= last {
		out := s.state.Clone()
		s.mu.Unlock()
		return out, false
	}
	s.state.Page = last
	out := s.state.Clone()
	s.mu.Unlock()

	s.notify()
	return out, true
}

// Restore replaces the state wholesale; used for back/forward navigation.
func (s *SearchStore) Restore(snapshot entity.SearchState) {
	st := snapshot.Normalize().Clone()
	s.mu.Lock()
	changed := !st.Equal(s.state)
	s.state = st
	s.mu.Unlock()

	if changed {
		s.notify()
	}
}

// Reset drops every filter, including categories.
func (s *SearchStore) Reset() entity.SearchState {
	s.Restore(s.defaults)
	return s.Snapshot()
}

func (s *SearchStore) Subscribe(fn func(entity.SearchState)) func() {
	return s.subs.subscribe(fn)
}

func (s *SearchStore) Teardown() {
	s.subs.clear()
}

func (s *SearchStore) notify() {
	s.subs.publish(s.Snapshot)
}

package reconcile

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"storefront.GO/core/errs"
	"storefront.GO/model/entity"
	"storefront.GO/store"
)

// QueryPhase is the state of the search results panel.
type QueryPhase string

const (
	QueryIdle      QueryPhase = "IDLE"
	Fetching       QueryPhase = "FETCHING"
	Rendered       QueryPhase = "RENDERED"
	StaleDiscarded QueryPhase = "STALE_DISCARDED"
	ErrorDisplayed QueryPhase = "ERROR_DISPLAYED"
)

// QueryState is what the results panel shows.
type QueryState struct {
	Phase  QueryPhase
	Seq    int64
	State  entity.SearchState
	Result entity.SearchResult
	Err    error

	// Recommendations fill an empty result; RecommendErr is set when they
	// could not be loaded.
	Recommendations []entity.Product
	RecommendErr    error
}

// Empty reports a rendered result without products.
func (q QueryState) Empty() bool {
	return q.Phase == Rendered && len(q.Result.Content) == 0
}

// SearchBackend is the part of the commerce API the search page needs.
type SearchBackend interface {
	SearchProducts(ctx context.Context, st entity.SearchState) (entity.SearchResult, error)
	Recommendations(ctx context.Context) ([]entity.Product, error)
}

// URLReplacer corrects the current URL without adding a history entry.
type URLReplacer interface {
	ReplaceURL(st entity.SearchState)
}

// Search issues product queries and keeps only the newest response.
type Search struct {
	api     SearchBackend
	store   *store.SearchStore
	urls    URLReplacer
	timeout time.Duration

	seq atomic.Int64

	mu       sync.Mutex
	current  QueryState
	onChange func(QueryState)
}

func NewSearch(s *store.SearchStore, api SearchBackend, urls URLReplacer, timeout time.Duration) *Search {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Search{api: api, store: s, urls: urls, timeout: timeout, current: QueryState{Phase: QueryIdle}}
}

// OnChange registers the results panel renderer. It runs with the query
// lock held and must not call back into Search.
func (s *Search) OnChange(fn func(QueryState)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Current returns what the panel shows now.
func (s *Search) Current() QueryState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Latest is the sequence number of the newest issued request.
func (s *Search) Latest() int64 {
	return s.seq.Load()
}

// Query fetches results for st. A response that is no longer the newest is
// dropped and reported as a stale error; nothing is rendered for it.
func (s *Search) Query(ctx context.Context, st entity.SearchState) error {
	const op = "search.query"
	st = st.Normalize()
	seq := s.seq.Add(1)
	s.settle(seq, func(q *QueryState) {
		q.Phase = Fetching
		q.State = st
		q.Err = nil
	})

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	res, err := s.api.SearchProducts(callCtx, st)
	cancel()

	if err != nil {
		if !s.settle(seq, func(q *QueryState) {
			q.Phase = ErrorDisplayed
			q.Err = err
		}) {
			return s.stale(op, seq)
		}
		log.Printf("[SEARCH] action=query seq=%d msg=%v", seq, err)
		return err
	}

	// the server may report fewer pages than the current page needs
	if last := lastPage(res.Page.TotalPages); st.Page > last && seq == s.seq.Load() {
		clamped, moved := s.store.ClampPage(res.Page.TotalPages)
		if moved && seq == s.seq.Load() {
			log.Printf("[SEARCH] action=clamp_page seq=%d page=%d total_pages=%d", seq, clamped.Page, res.Page.TotalPages)
			if s.urls != nil {
				s.urls.ReplaceURL(clamped)
			}
			return s.Query(ctx, clamped)
		}
	}

	if !s.settle(seq, func(q *QueryState) {
		q.Phase = Rendered
		q.Result = res
		q.Recommendations = nil
		q.RecommendErr = nil
	}) {
		return s.stale(op, seq)
	}

	if len(res.Content) == 0 {
		s.recommend(ctx, seq)
	}
	return nil
}

// Retry re-runs the query for the store's current state.
func (s *Search) Retry(ctx context.Context) error {
	return s.Query(ctx, s.store.Snapshot())
}

func (s *Search) recommend(ctx context.Context, seq int64) {
	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	ps, err := s.api.Recommendations(callCtx)
	cancel()
	if err != nil {
		log.Printf("[SEARCH] action=recommend seq=%d msg=%v", seq, err)
	}
	s.settle(seq, func(q *QueryState) {
		q.Recommendations = ps
		q.RecommendErr = err
	})
}

// settle applies fn when seq is still the newest request and notifies the
// renderer. It reports false for a superseded request.
func (s *Search) settle(seq int64, fn func(*QueryState)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.seq.Load() {
		return false
	}
	next := s.current
	next.Seq = seq
	fn(&next)
	s.current = next
	if s.onChange != nil {
		s.onChange(next)
	}
	return true
}

func (s *Search) stale(op string, seq int64) error {
	latest := s.seq.Load()
	log.Printf("[SEARCH] action=discard seq=%d latest=%d", seq, latest)
	return errs.Stale(op, seq, latest)
}

func lastPage(totalPages int) int {
	if totalPages <= 0 {
		return 0
	}
	return totalPages - 1
}

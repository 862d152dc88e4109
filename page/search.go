package page

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"storefront.GO/core/debounce"
	"storefront.GO/core/errs"
	"storefront.GO/model/entity"
	"storefront.GO/reconcile"
	"storefront.GO/store"
	"storefront.GO/urlsync"
)

// DefaultDebounce is the keyword input quiet period.
const DefaultDebounce = 500 * time.Millisecond

// Filter kinds accepted by RemoveFilter.
const (
	FilterKeyword = "keyword"
	FilterPrice   = "price"
	FilterAll     = "all"
)

// SearchAPI is everything the search page sends to the backend.
type SearchAPI interface {
	reconcile.SearchBackend
	MainCategories(ctx context.Context) ([]entity.Category, error)
	SubCategories(ctx context.Context, main string) ([]entity.Category, error)
	Me(ctx context.Context) (entity.User, error)
	AddToCart(ctx context.Context, userID string, productID int64, quantity int) error
	AddWishlist(ctx context.Context, productID int64) error
}

// SearchView renders the search page.
type SearchView interface {
	RenderMainNav(cats []entity.Category, selected string)
	// RenderSubNav receives nil when no main category is selected.
	RenderSubNav(cats []entity.Category, selected string)
	RenderResults(q reconcile.QueryState)
}

type SearchOptions struct {
	API       SearchAPI
	View      SearchView
	History   urlsync.History
	Notifier  Notifier
	Navigator Navigator
	Bus       *Bus
	// Path is the page path written to history, e.g. "/search.html".
	Path     string
	PageSize int
	Debounce time.Duration
	Timeout  time.Duration
}

// SearchPage is the product search and filter page.
type SearchPage struct {
	opts     SearchOptions
	store    *store.SearchStore
	sync     *urlsync.Synchronizer
	search   *reconcile.Search
	debounce *debounce.Debouncer

	mu      sync.Mutex
	ctx     context.Context
	mains   []entity.Category
	subs    []entity.Category
	subsFor string
}

func NewSearchPage(opts SearchOptions) *SearchPage {
	if opts.Path == "" {
		opts.Path = "/search.html"
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	initial := entity.DefaultSearchState()
	if opts.PageSize > 0 {
		initial.Size = opts.PageSize
	}
	s := store.NewSearchStore(initial)
	p := &SearchPage{
		opts:     opts,
		store:    s,
		debounce: debounce.New(opts.Debounce),
		ctx:      context.Background(),
	}
	p.sync = urlsync.NewSynchronizer(opts.Path, opts.History, s)
	p.search = reconcile.NewSearch(s, opts.API, p.sync, opts.Timeout)
	p.search.OnChange(opts.View.RenderResults)
	p.sync.SetFetcher(func(ctx context.Context, st entity.SearchState) {
		if err := p.search.Query(ctx, st); err != nil && !errs.IsStale(err) {
			log.Printf("[SEARCH] action=fetch msg=%v", err)
		}
	})
	return p
}

// Store exposes the page state for inspection.
func (p *SearchPage) Store() *store.SearchStore { return p.store }

// Results is what the results panel shows.
func (p *SearchPage) Results() reconcile.QueryState { return p.search.Current() }

// Init reads the state from the URL, loads the navigation and runs the
// first query. ctx is also used for debounced keyword searches.
func (p *SearchPage) Init(ctx context.Context) error {
	p.mu.Lock()
	p.ctx = ctx
	p.mu.Unlock()

	st := p.sync.Load()
	p.loadNav(ctx, st)
	err := p.search.Query(ctx, st)
	if errs.IsStale(err) {
		return nil
	}
	return err
}

func (p *SearchPage) loadNav(ctx context.Context, st entity.SearchState) {
	p.mu.Lock()
	mains := p.mains
	p.mu.Unlock()
	if mains == nil {
		m, err := p.opts.API.MainCategories(ctx)
		if err != nil {
			log.Printf("[SEARCH] action=main_categories msg=%v", err)
		} else {
			p.mu.Lock()
			p.mains = m
			p.mu.Unlock()
			mains = m
		}
	}
	p.opts.View.RenderMainNav(mains, st.MainCategory)
	p.loadSubNav(ctx, st)
}

func (p *SearchPage) loadSubNav(ctx context.Context, st entity.SearchState) {
	if st.MainCategory == "" {
		p.mu.Lock()
		p.subs, p.subsFor = nil, ""
		p.mu.Unlock()
		p.opts.View.RenderSubNav(nil, "")
		return
	}
	p.mu.Lock()
	subs, cached := p.subs, p.subsFor == st.MainCategory
	p.mu.Unlock()
	if !cached {
		var err error
		subs, err = p.opts.API.SubCategories(ctx, st.MainCategory)
		if err != nil {
			log.Printf("[SEARCH] action=sub_categories main=%s msg=%v", st.MainCategory, err)
			subs = []entity.Category{}
		}
		p.mu.Lock()
		p.subs, p.subsFor = subs, st.MainCategory
		p.mu.Unlock()
	}
	p.opts.View.RenderSubNav(subs, st.SubCategory)
}

// apply merges patch into the store, records it in history and fetches.
func (p *SearchPage) apply(ctx context.Context, patch entity.SearchPatch) entity.SearchState {
	before := p.store.Snapshot()
	st := p.store.ApplyFilter(patch)
	if st.MainCategory != before.MainCategory || st.SubCategory != before.SubCategory {
		p.loadNav(ctx, st)
	}
	p.sync.Publish(ctx, st)
	return st
}

// SelectMainCategory picks a main category; "" shows all products.
func (p *SearchPage) SelectMainCategory(ctx context.Context, code string) {
	p.apply(ctx, entity.SearchPatch{MainCategory: entity.Str(code)})
}

// ToggleSubCategory selects code, or clears it when it is already selected.
func (p *SearchPage) ToggleSubCategory(ctx context.Context, code string) {
	if p.store.Snapshot().SubCategory == code {
		code = ""
	}
	p.apply(ctx, entity.SearchPatch{SubCategory: entity.Str(code)})
}

// SnapPrice clamps v into the slider range and rounds it to the slider step.
func SnapPrice(v int64) int64 {
	if v < entity.PriceFloor {
		v = entity.PriceFloor
	}
	if v > entity.PriceCeiling {
		v = entity.PriceCeiling
	}
	return (v + entity.PriceStep/2) / entity.PriceStep * entity.PriceStep
}

// SetPriceRange applies the price slider. The minimum may not exceed the maximum.
func (p *SearchPage) SetPriceRange(ctx context.Context, lo, hi int64) error {
	lo, hi = SnapPrice(lo), SnapPrice(hi)
	if lo > hi {
		err := errs.Validation("search.price", "minPrice", "最低價格不能高於最高價格")
		notify(p.opts.Notifier, Error, err.Message)
		return err
	}
	p.apply(ctx, entity.SearchPatch{MinPrice: entity.Price(lo), MaxPrice: entity.Price(hi)})
	return nil
}

// SetSort changes the sort order.
func (p *SearchPage) SetSort(ctx context.Context, sort string) {
	if sort == "" {
		sort = entity.DefaultSort
	}
	p.apply(ctx, entity.SearchPatch{Sort: entity.Str(sort)})
}

// KeywordInput is called on every keystroke. Only the last input within the
// debounce period is searched; blank input is ignored.
func (p *SearchPage) KeywordInput(raw string) {
	kw := strings.TrimSpace(raw)
	if kw == "" {
		p.debounce.Cancel()
		return
	}
	p.debounce.Trigger(func() {
		p.mu.Lock()
		ctx := p.ctx
		p.mu.Unlock()
		p.apply(ctx, entity.SearchPatch{Keyword: entity.Str(kw)})
	})
}

// SubmitKeyword searches right away, dropping any pending debounced input.
func (p *SearchPage) SubmitKeyword(ctx context.Context, raw string) {
	p.debounce.Cancel()
	kw := strings.TrimSpace(raw)
	if kw == "" {
		return
	}
	p.apply(ctx, entity.SearchPatch{Keyword: entity.Str(kw)})
}

// GoToPage moves to a zero-based page inside the server's page count.
func (p *SearchPage) GoToPage(ctx context.Context, page int) error {
	total := p.search.Current().Result.Page.TotalPages
	if page < 0 || page >= total {
		return errs.Validation("search.page", "page", "page out of range")
	}
	if page == p.store.Snapshot().Page {
		return nil
	}
	p.apply(ctx, entity.SearchPatch{Page: entity.Int(page)})
	return nil
}

// ChangePage is the previous/next button.
func (p *SearchPage) ChangePage(ctx context.Context, delta int) error {
	return p.GoToPage(ctx, p.store.Snapshot().Page+delta)
}

// RemoveFilter drops a filter chip. FilterAll clears keyword, price and
// sort but keeps the categories.
func (p *SearchPage) RemoveFilter(ctx context.Context, kind string) error {
	var patch entity.SearchPatch
	switch kind {
	case FilterKeyword:
		patch.Keyword = entity.Str("")
	case FilterPrice:
		patch.ClearMinPrice, patch.ClearMaxPrice = true, true
	case FilterAll:
		patch.Keyword = entity.Str("")
		patch.ClearMinPrice, patch.ClearMaxPrice = true, true
		patch.Sort = entity.Str(entity.DefaultSort)
	default:
		return errs.Validation("search.remove_filter", "kind", "unknown filter "+kind)
	}
	p.debounce.Cancel()
	p.apply(ctx, patch)
	return nil
}

// Reset returns to the default state.
func (p *SearchPage) Reset(ctx context.Context) {
	p.debounce.Cancel()
	st := p.store.Reset()
	p.loadNav(ctx, st)
	p.sync.Publish(ctx, st)
}

// Pop handles the browser back and forward buttons.
func (p *SearchPage) Pop(ctx context.Context, dir urlsync.Direction) bool {
	p.debounce.Cancel()
	before := p.store.Snapshot()
	if !p.sync.Pop(ctx, dir) {
		return false
	}
	if st := p.store.Snapshot(); st.MainCategory != before.MainCategory || st.SubCategory != before.SubCategory {
		p.loadNav(ctx, st)
	}
	return true
}

// Retry re-runs the failed query.
func (p *SearchPage) Retry(ctx context.Context) error {
	err := p.search.Retry(ctx)
	if errs.IsStale(err) {
		return nil
	}
	return err
}

// AddToCart adds one unit of productID for the session user.
func (p *SearchPage) AddToCart(ctx context.Context, productID int64) error {
	return addToCart(ctx, p.opts.API, p.opts.Notifier, p.opts.Navigator, p.opts.Bus, productID, 1)
}

// AddToWishlist saves productID to the member wishlist.
func (p *SearchPage) AddToWishlist(ctx context.Context, productID int64) error {
	if err := p.opts.API.AddWishlist(ctx, productID); err != nil {
		report(p.opts.Notifier, p.opts.Navigator, err)
		return err
	}
	notify(p.opts.Notifier, Info, "已加入收藏清單")
	return nil
}

// Teardown stops pending input and drops listeners.
func (p *SearchPage) Teardown() {
	p.debounce.Cancel()
	p.search.OnChange(nil)
	p.store.Teardown()
}

type cartAdder interface {
	Me(ctx context.Context) (entity.User, error)
	AddToCart(ctx context.Context, userID string, productID int64, quantity int) error
}

func addToCart(ctx context.Context, api cartAdder, n Notifier, nav Navigator, bus *Bus, productID int64, qty int) error {
	user, err := api.Me(ctx)
	if err != nil {
		report(n, nav, err)
		return err
	}
	if err := api.AddToCart(ctx, user.UserID, productID, qty); err != nil {
		report(n, nav, err)
		return err
	}
	log.Printf("[CART] action=add user=%s product=%d quantity=%d", user.UserID, productID, qty)
	notify(n, Info, "已加入購物車")
	if bus != nil {
		bus.Publish(EventCartCountChanged)
	}
	return nil
}

package reconcile

import (
	"context"
	"sync"

	"storefront.GO/model/entity"
)

// gate blocks a fake call until released; a nil gate never blocks.
type gate chan struct{}

func (g gate) wait(ctx context.Context) error {
	if g == nil {
		return nil
	}
	select {
	case <-g:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type cartCall struct {
	Method   string
	CartID   int64
	Quantity int
}

type fakeCartAPI struct {
	mu      sync.Mutex
	calls   []cartCall
	user    entity.User
	cart    entity.CartState
	errs    map[int64]error
	gates   map[int64]gate
	started chan cartCall
}

func newFakeCartAPI() *fakeCartAPI {
	return &fakeCartAPI{
		user:    entity.User{UserID: "u1"},
		errs:    make(map[int64]error),
		gates:   make(map[int64]gate),
		started: make(chan cartCall, 64),
	}
}

func (f *fakeCartAPI) record(c cartCall) (error, gate) {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	err, g := f.errs[c.CartID], f.gates[c.CartID]
	f.mu.Unlock()
	f.started <- c
	return err, g
}

func (f *fakeCartAPI) Calls() []cartCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]cartCall(nil), f.calls...)
}

func (f *fakeCartAPI) setErr(cartID int64, err error) {
	f.mu.Lock()
	f.errs[cartID] = err
	f.mu.Unlock()
}

func (f *fakeCartAPI) setGate(cartID int64, g gate) {
	f.mu.Lock()
	f.gates[cartID] = g
	f.mu.Unlock()
}

func (f *fakeCartAPI) Me(ctx context.Context) (entity.User, error) {
	return f.user, nil
}

func (f *fakeCartAPI) GetCart(ctx context.Context, userID string) (entity.CartState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cart.Clone(), nil
}

func (f *fakeCartAPI) UpdateQuantity(ctx context.Context, cartID int64, quantity int) error {
	err, g := f.record(cartCall{Method: "PUT", CartID: cartID, Quantity: quantity})
	if werr := g.wait(ctx); werr != nil {
		return werr
	}
	return err
}

func (f *fakeCartAPI) DeleteCartItem(ctx context.Context, cartID int64) error {
	err, g := f.record(cartCall{Method: "DELETE", CartID: cartID})
	if werr := g.wait(ctx); werr != nil {
		return werr
	}
	return err
}

type searchReply struct {
	res entity.SearchResult
	err error
	g   gate
}

type fakeSearchAPI struct {
	mu        sync.Mutex
	queries   []entity.SearchState
	replies   []searchReply
	fallback  func(st entity.SearchState) (entity.SearchResult, error)
	recs      []entity.Product
	recErr    error
	recCalled int
}

func (f *fakeSearchAPI) SearchProducts(ctx context.Context, st entity.SearchState) (entity.SearchResult, error) {
	f.mu.Lock()
	f.queries = append(f.queries, st)
	var r searchReply
	if len(f.replies) > 0 {
		r, f.replies = f.replies[0], f.replies[1:]
	} else if f.fallback != nil {
		f.mu.Unlock()
		return f.fallback(st)
	}
	f.mu.Unlock()
	if err := r.g.wait(ctx); err != nil {
		return entity.SearchResult{}, err
	}
	return r.res, r.err
}

func (f *fakeSearchAPI) Recommendations(ctx context.Context) ([]entity.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recCalled++
	return f.recs, f.recErr
}

func (f *fakeSearchAPI) Queries() []entity.SearchState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.SearchState(nil), f.queries...)
}

type fakeURLs struct {
	mu       sync.Mutex
	replaced []entity.SearchState
}

func (f *fakeURLs) ReplaceURL(st entity.SearchState) {
	f.mu.Lock()
	f.replaced = append(f.replaced, st)
	f.mu.Unlock()
}

type fakeCheckoutAPI struct {
	mu        sync.Mutex
	orderID   int64
	err       error
	params    entity.PaymentParams
	paramsErr error
	checkouts []entity.CheckoutRequest
	started   chan struct{}
	gate      gate
}

func (f *fakeCheckoutAPI) Checkout(ctx context.Context, req entity.CheckoutRequest) (int64, error) {
	f.mu.Lock()
	f.checkouts = append(f.checkouts, req)
	f.mu.Unlock()
	if f.started != nil {
		f.started <- struct{}{}
	}
	if err := f.gate.wait(ctx); err != nil {
		return 0, err
	}
	return f.orderID, f.err
}

func (f *fakeCheckoutAPI) Checkouts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.checkouts)
}

func (f *fakeCheckoutAPI) PaymentParams(ctx context.Context, orderID int64) (entity.PaymentParams, error) {
	return f.params, f.paramsErr
}

type fakeRedirector struct {
	gateway string
	params  entity.PaymentParams
	err     error
}

func (f *fakeRedirector) Redirect(ctx context.Context, gatewayURL string, params entity.PaymentParams) error {
	f.gateway = gatewayURL
	f.params = params
	return f.err
}

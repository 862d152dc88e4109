package page

import (
	"context"
	"fmt"
	"sync"

	"storefront.GO/core/errs"
	"storefront.GO/model/entity"
	"storefront.GO/reconcile"
)

// fakeAPI is an in-memory commerce backend. Calls are recorded as
// "METHOD arg" strings.
type fakeAPI struct {
	mu    sync.Mutex
	calls []string

	user    entity.User
	meErr   error
	cart    entity.CartState
	cartErr error
	opErr   map[string]error

	checkoutID  int64
	checkoutErr error

	results   []entity.SearchResult
	searchErr error
	searched  []entity.SearchState
	mains     []entity.Category
	subs      map[string][]entity.Category

	product   entity.Product
	reviews   entity.ReviewPage
	related   []entity.Product
	orders    []entity.Order
	wishlist  []entity.WishlistItem
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		user:  entity.User{UserID: "u1", Address: "台北市信義區"},
		opErr: make(map[string]error),
		subs:  make(map[string][]entity.Category),
	}
}

func (f *fakeAPI) record(format string, args ...interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := fmt.Sprintf(format, args...)
	f.calls = append(f.calls, c)
	return f.opErr[c]
}

func (f *fakeAPI) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeAPI) fail(call string, err error) {
	f.mu.Lock()
	f.opErr[call] = err
	f.mu.Unlock()
}

func (f *fakeAPI) Me(ctx context.Context) (entity.User, error) {
	f.record("ME")
	return f.user, f.meErr
}

func (f *fakeAPI) GetCart(ctx context.Context, userID string) (entity.CartState, error) {
	f.record("GET cart %s", userID)
	return f.cart.Clone(), f.cartErr
}

func (f *fakeAPI) UpdateQuantity(ctx context.Context, cartID int64, quantity int) error {
	return f.record("PUT %d %d", cartID, quantity)
}

func (f *fakeAPI) DeleteCartItem(ctx context.Context, cartID int64) error {
	return f.record("DELETE %d", cartID)
}

func (f *fakeAPI) AddToCart(ctx context.Context, userID string, productID int64, quantity int) error {
	return f.record("ADD %s %d %d", userID, productID, quantity)
}

func (f *fakeAPI) Checkout(ctx context.Context, req entity.CheckoutRequest) (int64, error) {
	f.record("CHECKOUT %s %s", req.LogisticsType, req.StoreID)
	return f.checkoutID, f.checkoutErr
}

func (f *fakeAPI) PaymentParams(ctx context.Context, orderID int64) (entity.PaymentParams, error) {
	if err := f.record("PAY %d", orderID); err != nil {
		return nil, err
	}
	return entity.PaymentParams{"MerchantTradeNo": fmt.Sprint(orderID)}, nil
}

func (f *fakeAPI) SearchProducts(ctx context.Context, st entity.SearchState) (entity.SearchResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searched = append(f.searched, st)
	if f.searchErr != nil {
		return entity.SearchResult{}, f.searchErr
	}
	if len(f.results) == 0 {
		return entity.SearchResult{}, nil
	}
	r := f.results[0]
	if len(f.results) > 1 {
		f.results = f.results[1:]
	}
	return r, nil
}

func (f *fakeAPI) Searched() []entity.SearchState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.SearchState(nil), f.searched...)
}

func (f *fakeAPI) Recommendations(ctx context.Context) ([]entity.Product, error) {
	f.record("RECOMMEND")
	return []entity.Product{{ProductID: 100, Name: "Lamp"}}, nil
}

func (f *fakeAPI) MainCategories(ctx context.Context) ([]entity.Category, error) {
	f.record("MAINS")
	return f.mains, nil
}

func (f *fakeAPI) SubCategories(ctx context.Context, main string) ([]entity.Category, error) {
	f.record("SUBS %s", main)
	return f.subs[main], nil
}

func (f *fakeAPI) AddWishlist(ctx context.Context, productID int64) error {
	return f.record("WISH %d", productID)
}

func (f *fakeAPI) Product(ctx context.Context, productID int64) (entity.Product, error) {
	if err := f.record("PRODUCT %d", productID); err != nil {
		return entity.Product{}, err
	}
	return f.product, nil
}

func (f *fakeAPI) Reviews(ctx context.Context, productID int64) (entity.ReviewPage, error) {
	if err := f.record("REVIEWS %d", productID); err != nil {
		return entity.ReviewPage{}, err
	}
	return f.reviews, nil
}

func (f *fakeAPI) Related(ctx context.Context, categoryID string, exclude int64) ([]entity.Product, error) {
	if err := f.record("RELATED %s %d", categoryID, exclude); err != nil {
		return nil, err
	}
	return f.related, nil
}

func (f *fakeAPI) Orders(ctx context.Context) ([]entity.Order, error) {
	if err := f.record("ORDERS"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entity.Order(nil), f.orders...), nil
}

func (f *fakeAPI) CancelOrder(ctx context.Context, orderID int64) error {
	if err := f.record("CANCEL %d", orderID); err != nil {
		return err
	}
	f.mu.Lock()
	for i := range f.orders {
		if f.orders[i].OrderID == orderID {
			f.orders[i].Status = entity.OrderCancelled
		}
	}
	f.mu.Unlock()
	return nil
}

func (f *fakeAPI) Wishlist(ctx context.Context) ([]entity.WishlistItem, error) {
	if err := f.record("WISHLIST"); err != nil {
		return nil, err
	}
	return append([]entity.WishlistItem(nil), f.wishlist...), nil
}

func (f *fakeAPI) RemoveWishlist(ctx context.Context, productID int64) error {
	return f.record("UNWISH %d", productID)
}

// view records every render call of every page.
type view struct {
	mu        sync.Mutex
	carts     []entity.CartState
	cartErr   error
	shipping  entity.Shipping
	enabled   bool
	reason    string
	mainSel   string
	subs      []entity.Category
	subSel    string
	results   []reconcile.QueryState
	product   entity.ProductDetail
	orders    []entity.Order
	wishlist  []entity.WishlistItem
	memberErr error
}

func (v *view) RenderCart(st entity.CartState) {
	v.mu.Lock()
	v.carts = append(v.carts, st)
	v.mu.Unlock()
}
func (v *view) RenderCartError(err error) {
	v.mu.Lock()
	v.cartErr = err
	v.mu.Unlock()
}
func (v *view) RenderShipping(s entity.Shipping) {
	v.mu.Lock()
	v.shipping = s
	v.mu.Unlock()
}
func (v *view) RenderCheckout(enabled bool, reason string) {
	v.mu.Lock()
	v.enabled, v.reason = enabled, reason
	v.mu.Unlock()
}
func (v *view) RenderMainNav(cats []entity.Category, selected string) {
	v.mu.Lock()
	v.mainSel = selected
	v.mu.Unlock()
}
func (v *view) RenderSubNav(cats []entity.Category, selected string) {
	v.mu.Lock()
	v.subs, v.subSel = cats, selected
	v.mu.Unlock()
}
func (v *view) RenderResults(q reconcile.QueryState) {
	v.mu.Lock()
	v.results = append(v.results, q)
	v.mu.Unlock()
}
func (v *view) RenderProduct(d entity.ProductDetail) {
	v.mu.Lock()
	v.product = d
	v.mu.Unlock()
}
func (v *view) RenderOrders(o []entity.Order) {
	v.mu.Lock()
	v.orders = o
	v.mu.Unlock()
}
func (v *view) RenderWishlist(items []entity.WishlistItem) {
	v.mu.Lock()
	v.wishlist = items
	v.mu.Unlock()
}
func (v *view) RenderMemberError(err error) {
	v.mu.Lock()
	v.memberErr = err
	v.mu.Unlock()
}

func (v *view) lastCart() entity.CartState {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.carts) == 0 {
		return entity.CartState{}
	}
	return v.carts[len(v.carts)-1]
}

func (v *view) lastResult() reconcile.QueryState {
	v.mu.Lock()
	defer v.mu.Unlock()
	if len(v.results) == 0 {
		return reconcile.QueryState{}
	}
	return v.results[len(v.results)-1]
}

type prompter struct {
	answer bool
	asked  []string
}

func (p *prompter) Confirm(msg string) bool {
	p.asked = append(p.asked, msg)
	return p.answer
}

type toast struct {
	Level Level
	Msg   string
}

type notifier struct {
	mu     sync.Mutex
	toasts []toast
}

func (n *notifier) Notify(level Level, msg string) {
	n.mu.Lock()
	n.toasts = append(n.toasts, toast{level, msg})
	n.mu.Unlock()
}

func (n *notifier) last() toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.toasts) == 0 {
		return toast{}
	}
	return n.toasts[len(n.toasts)-1]
}

type navigator struct{ urls []string }

func (n *navigator) Navigate(url string) { n.urls = append(n.urls, url) }

type redirector struct {
	gateway string
	params  entity.PaymentParams
}

func (r *redirector) Redirect(ctx context.Context, gatewayURL string, params entity.PaymentParams) error {
	r.gateway, r.params = gatewayURL, params
	return nil
}

var errNetwork = errs.Network("fake", 503, fmt.Errorf("unavailable"))

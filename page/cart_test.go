package page

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront.GO/core/errs"
	"storefront.GO/model/entity"
	"storefront.GO/reconcile"
	"storefront.GO/urlsync"
)

type cartFixture struct {
	api   *fakeAPI
	view  *view
	ask   *prompter
	toast *notifier
	nav   *navigator
	pay   *redirector
	hist  *urlsync.MemoryHistory
	bus   *Bus
	page  *CartPage
}

func newCartFixture(t *testing.T, url string) *cartFixture {
	t.Helper()
	f := &cartFixture{
		api:   newFakeAPI(),
		view:  &view{},
		ask:   &prompter{answer: true},
		toast: &notifier{},
		nav:   &navigator{},
		pay:   &redirector{},
		hist:  urlsync.NewMemoryHistory(url),
		bus:   NewBus(),
	}
	f.api.cart = entity.CartState{Items: []entity.LineItem{
		{CartID: 7, ProductID: 70, Name: "Chair", UnitPrice: 500, Quantity: 2},
	}}
	f.page = NewCartPage(CartOptions{
		API: f.api, View: f.view, History: f.hist, Prompter: f.ask,
		Notifier: f.toast, Navigator: f.nav, Redirector: f.pay,
		GatewayURL: "https://pay.example/checkout", Bus: f.bus,
	})
	t.Cleanup(f.page.Teardown)
	return f
}

func TestCartPage_MinusToZeroRemoves(t *testing.T) {
	f := newCartFixture(t, "/cart.html")
	ctx := context.Background()
	require.NoError(t, f.page.Load(ctx))
	assert.Equal(t, int64(1000), f.view.lastCart().Total())

	require.NoError(t, f.page.ChangeQuantity(ctx, 7, -1))
	assert.Equal(t, int64(500), f.view.lastCart().Total())

	require.NoError(t, f.page.ChangeQuantity(ctx, 7, -1))
	assert.Equal(t, []string{PromptRemoveAtZero}, f.ask.asked)
	assert.Equal(t, []string{"ME", "GET cart u1", "PUT 7 1", "DELETE 7"}, f.api.Calls())

	last := f.view.lastCart()
	assert.Empty(t, last.Items)
	assert.Equal(t, int64(0), last.Total())
}

func TestCartPage_RemovalFailureRestoresOne(t *testing.T) {
	f := newCartFixture(t, "/cart.html")
	ctx := context.Background()
	require.NoError(t, f.page.Load(ctx))
	f.api.fail("DELETE 7", errNetwork)

	require.NoError(t, f.page.ChangeQuantity(ctx, 7, -1))
	err := f.page.ChangeQuantity(ctx, 7, -1)
	require.Error(t, err)
	assert.True(t, errs.IsNetwork(err))

	last := f.view.lastCart()
	require.Len(t, last.Items, 1)
	assert.Equal(t, 1, last.Items[0].Quantity)
	assert.Equal(t, int64(500), last.Total())
	assert.Equal(t, Error, f.toast.last().Level)
}

func TestCartPage_DeclinedZeroPromptSetsOne(t *testing.T) {
	f := newCartFixture(t, "/cart.html")
	f.ask.answer = false
	f.api.cart.Items[0].Quantity = 1
	ctx := context.Background()
	require.NoError(t, f.page.Load(ctx))

	require.NoError(t, f.page.ChangeQuantity(ctx, 7, -1))
	assert.Contains(t, f.api.Calls(), "PUT 7 1")
	assert.NotContains(t, f.api.Calls(), "DELETE 7")
	it, ok := f.page.Store().Item(7)
	require.True(t, ok)
	assert.Equal(t, 1, it.Quantity)
}

func TestCartPage_InputQuantity(t *testing.T) {
	f := newCartFixture(t, "/cart.html")
	ctx := context.Background()
	require.NoError(t, f.page.Load(ctx))

	require.NoError(t, f.page.InputQuantity(ctx, 7, "abc"))
	require.NoError(t, f.page.InputQuantity(ctx, 7, "-3"))
	require.NoError(t, f.page.InputQuantity(ctx, 7, " 5 "))
	require.NoError(t, f.page.InputQuantity(ctx, 7, "150"))
	assert.Equal(t, []string{"ME", "GET cart u1", "PUT 7 1", "PUT 7 1", "PUT 7 5", "PUT 7 99"}, f.api.Calls())
}

func TestCartPage_TrashAsksFirst(t *testing.T) {
	f := newCartFixture(t, "/cart.html")
	ctx := context.Background()
	require.NoError(t, f.page.Load(ctx))

	f.ask.answer = false
	require.NoError(t, f.page.RemoveItem(ctx, 7))
	assert.NotContains(t, f.api.Calls(), "DELETE 7")

	f.ask.answer = true
	require.NoError(t, f.page.RemoveItem(ctx, 7))
	assert.Contains(t, f.api.Calls(), "DELETE 7")
	assert.Equal(t, []string{PromptRemove, PromptRemove}, f.ask.asked)
}

func TestCartPage_AuthRedirectsToLogin(t *testing.T) {
	f := newCartFixture(t, "/cart.html")
	f.api.meErr = errs.AuthRequired("user.me")

	err := f.page.Load(context.Background())
	assert.True(t, errs.IsAuthRequired(err))
	assert.Equal(t, []string{LoginURL}, f.nav.urls)
}

func TestCartPage_LoadErrorView(t *testing.T) {
	f := newCartFixture(t, "/cart.html")
	f.api.cartErr = errNetwork

	require.Error(t, f.page.Load(context.Background()))
	assert.Error(t, f.view.cartErr)
}

func TestCartPage_StoreFromMapCallback(t *testing.T) {
	f := newCartFixture(t, "/cart.html?storeId=131386&storeName=%E5%85%A8%E5%AE%B6&address=Taipei&type=FAMIC2C")
	ctx := context.Background()
	require.NoError(t, f.page.Load(ctx))

	ship := f.page.Shipping()
	assert.Equal(t, entity.LogisticsCVS, ship.Type)
	assert.Equal(t, "131386", ship.Store.StoreID)
	assert.Equal(t, "全家", ship.Store.Name)
	assert.Equal(t, "/cart.html", f.hist.Current())
	assert.Equal(t, ship, f.view.shipping)

	f.api.checkoutID = 55
	require.NoError(t, f.page.Checkout(ctx))
	assert.Contains(t, f.api.Calls(), "CHECKOUT CVS 131386")
	assert.Equal(t, reconcile.RedirectingToPayment, f.page.CheckoutPhase())
	assert.Equal(t, "https://pay.example/checkout", f.pay.gateway)
	assert.Equal(t, "55", f.pay.params["MerchantTradeNo"])
	assert.False(t, f.view.enabled)
}

func TestCartPage_CheckoutRejectionReenables(t *testing.T) {
	f := newCartFixture(t, "/cart.html")
	ctx := context.Background()
	require.NoError(t, f.page.Load(ctx))
	f.api.checkoutErr = errs.Business("checkout", 200, "庫存不足")

	err := f.page.Checkout(ctx)
	require.Error(t, err)
	assert.True(t, f.view.enabled)
	assert.Equal(t, "庫存不足", f.view.reason)
	assert.Equal(t, toast{Error, "庫存不足"}, f.toast.last())
	assert.Equal(t, reconcile.OrderRejected, f.page.CheckoutPhase())
}

func TestCartPage_CheckoutValidation(t *testing.T) {
	f := newCartFixture(t, "/cart.html")
	f.api.user.Address = ""
	ctx := context.Background()
	require.NoError(t, f.page.Load(ctx))

	require.NoError(t, f.page.SelectShipping(entity.LogisticsCVS))
	err := f.page.Checkout(ctx)
	assert.True(t, errs.IsValidation(err))

	require.NoError(t, f.page.SelectShipping(entity.LogisticsHome))
	f.page.SetAddress("輸入配送地址")
	err = f.page.Checkout(ctx)
	assert.True(t, errs.IsValidation(err))
	assert.True(t, f.view.enabled)

	assert.True(t, errs.IsValidation(f.page.SelectShipping("AIR")))
	for _, c := range f.api.Calls() {
		assert.NotContains(t, c, "CHECKOUT")
	}
}

func TestCartPage_ResyncOnCartCountChanged(t *testing.T) {
	f := newCartFixture(t, "/cart.html")
	ctx := context.Background()
	require.NoError(t, f.page.Load(ctx))

	f.api.mu.Lock()
	f.api.cart.Items = append(f.api.cart.Items, entity.LineItem{CartID: 8, UnitPrice: 100, Quantity: 3})
	f.api.mu.Unlock()
	f.bus.Publish(EventCartCountChanged)

	assert.Equal(t, 5, f.view.lastCart().Count())
	assert.Equal(t, int64(1300), f.view.lastCart().Total())
}

package page

import (
	"context"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"storefront.GO/core/errs"
	"storefront.GO/model/entity"
	"storefront.GO/reconcile"
	"storefront.GO/store"
	"storefront.GO/urlsync"
)

// Prompts shown by the cart page.
const (
	PromptRemoveAtZero = "數量為 0，是否要從購物車移除此商品？"
	PromptRemove       = "確定要移除此商品嗎？"
)

// CartAPI is everything the cart page sends to the backend.
type CartAPI interface {
	reconcile.CartBackend
	reconcile.CheckoutBackend
}

// CartView renders the cart page.
type CartView interface {
	RenderCart(st entity.CartState)
	RenderCartError(err error)
	RenderShipping(s entity.Shipping)
	RenderCheckout(enabled bool, reason string)
}

type CartOptions struct {
	API        CartAPI
	View       CartView
	History    urlsync.History
	Prompter   Prompter
	Notifier   Notifier
	Navigator  Navigator
	Redirector reconcile.PaymentRedirector
	GatewayURL string
	Bus        *Bus
	Timeout    time.Duration
}

// CartPage is the cart and checkout page.
type CartPage struct {
	opts     CartOptions
	store    *store.CartStore
	cart     *reconcile.Cart
	checkout *reconcile.Checkout

	mu       sync.Mutex
	shipping entity.Shipping

	unsubscribe []func()
}

func NewCartPage(opts CartOptions) *CartPage {
	s := store.NewCartStore()
	p := &CartPage{
		opts:     opts,
		store:    s,
		cart:     reconcile.NewCart(s, opts.API, opts.Timeout),
		checkout: reconcile.NewCheckout(opts.API, opts.Redirector, opts.GatewayURL, opts.Timeout),
		shipping: entity.Shipping{Type: entity.LogisticsHome},
	}
	p.unsubscribe = append(p.unsubscribe, s.Subscribe(opts.View.RenderCart))
	return p
}

// Store exposes the page state for inspection.
func (p *CartPage) Store() *store.CartStore { return p.store }

// Reconciler exposes the cart reconciler for periodic resync.
func (p *CartPage) Reconciler() *reconcile.Cart { return p.cart }

// Load fetches the cart, picks up a store chosen on the logistics map and
// renders the page.
func (p *CartPage) Load(ctx context.Context) error {
	if p.opts.History != nil {
		if sel, ok := urlsync.ConsumeStoreSelection(p.opts.History); ok {
			p.mu.Lock()
			p.shipping.Type = entity.LogisticsCVS
			p.shipping.Store = sel
			p.mu.Unlock()
			log.Printf("[CART] action=store_selected store_id=%s", sel.StoreID)
		}
	}
	p.opts.View.RenderShipping(p.Shipping())
	p.opts.View.RenderCheckout(p.checkout.Enabled(), p.checkout.Reason())

	if _, err := p.cart.Load(ctx); err != nil {
		if errs.IsAuthRequired(err) {
			report(p.opts.Notifier, p.opts.Navigator, err)
			return err
		}
		p.opts.View.RenderCartError(err)
		return err
	}
	if p.opts.Bus != nil {
		p.unsubscribe = append(p.unsubscribe, p.opts.Bus.Subscribe(EventCartCountChanged, func() {
			if _, err := p.cart.Resync(context.Background()); err != nil {
				log.Printf("[CART] action=resync msg=%v", err)
			}
		}))
	}
	return nil
}

// ChangeQuantity applies a plus or minus button press. Reaching zero asks
// whether to remove the item; declining sets it back to one.
func (p *CartPage) ChangeQuantity(ctx context.Context, cartID int64, delta int) error {
	if _, ok := p.store.Item(cartID); !ok {
		return errs.Validation("cart.change_quantity", "cartId", "item is not in the cart")
	}
	err := p.cart.AdjustQuantity(ctx, cartID, delta, func() bool {
		return p.confirm(PromptRemoveAtZero)
	})
	report(p.opts.Notifier, p.opts.Navigator, err)
	return err
}

// InputQuantity applies a typed quantity. Anything that is not a number of
// at least one becomes one.
func (p *CartPage) InputQuantity(ctx context.Context, cartID int64, raw string) error {
	q, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || q < entity.MinQuantity {
		q = entity.MinQuantity
	}
	return p.update(ctx, cartID, q)
}

// RemoveItem is the trash button.
func (p *CartPage) RemoveItem(ctx context.Context, cartID int64) error {
	if !p.confirm(PromptRemove) {
		return nil
	}
	return p.remove(ctx, cartID)
}

func (p *CartPage) update(ctx context.Context, cartID int64, q int) error {
	err := p.cart.UpdateQuantity(ctx, cartID, q)
	report(p.opts.Notifier, p.opts.Navigator, err)
	return err
}

func (p *CartPage) remove(ctx context.Context, cartID int64) error {
	err := p.cart.Remove(ctx, cartID)
	report(p.opts.Notifier, p.opts.Navigator, err)
	return err
}

func (p *CartPage) confirm(msg string) bool {
	if p.opts.Prompter == nil {
		return true
	}
	return p.opts.Prompter.Confirm(msg)
}

// Shipping returns the current delivery choice.
func (p *CartPage) Shipping() entity.Shipping {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shipping
}

// SelectShipping switches between home delivery and store pickup.
func (p *CartPage) SelectShipping(kind string) error {
	if kind != entity.LogisticsHome && kind != entity.LogisticsCVS {
		return errs.Validation("cart.shipping", "logisticsType", "unknown shipping type "+kind)
	}
	p.mu.Lock()
	p.shipping.Type = kind
	s := p.shipping
	p.mu.Unlock()
	p.opts.View.RenderShipping(s)
	return nil
}

// SetAddress sets the home delivery address.
func (p *CartPage) SetAddress(addr string) {
	p.mu.Lock()
	p.shipping.Address = strings.TrimSpace(addr)
	s := p.shipping
	p.mu.Unlock()
	p.opts.View.RenderShipping(s)
}

// SelectStore records a pickup store and switches to store pickup.
func (p *CartPage) SelectStore(sel entity.StoreSelection) {
	p.mu.Lock()
	p.shipping.Type = entity.LogisticsCVS
	p.shipping.Store = sel
	s := p.shipping
	p.mu.Unlock()
	p.opts.View.RenderShipping(s)
}

// Checkout submits the order. The button is disabled while the order is
// submitted and enabled again unless the page is redirecting to payment.
func (p *CartPage) Checkout(ctx context.Context) error {
	if !p.checkout.Enabled() {
		return errs.Validation("checkout.submit", "checkout", "checkout already in progress")
	}
	p.opts.View.RenderCheckout(false, "")
	err := p.checkout.Submit(ctx, p.store.Snapshot(), p.Shipping())
	p.opts.View.RenderCheckout(p.checkout.Enabled(), p.checkout.Reason())
	report(p.opts.Notifier, p.opts.Navigator, err)
	return err
}

// CheckoutPhase is the current checkout state.
func (p *CartPage) CheckoutPhase() reconcile.CheckoutPhase {
	return p.checkout.Phase()
}

// Teardown drops listeners and state.
func (p *CartPage) Teardown() {
	for _, fn := range p.unsubscribe {
		fn()
	}
	p.unsubscribe = nil
	p.store.Teardown()
}

package reconcile

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"storefront.GO/core/errs"
	"storefront.GO/model/entity"
)

// CheckoutPhase is the state of the checkout control.
type CheckoutPhase string

const (
	ReviewingCart        CheckoutPhase = "REVIEWING_CART"
	SubmittingOrder      CheckoutPhase = "SUBMITTING_ORDER"
	OrderCreated         CheckoutPhase = "ORDER_CREATED"
	RedirectingToPayment CheckoutPhase = "REDIRECTING_TO_PAYMENT"
	OrderRejected        CheckoutPhase = "ORDER_REJECTED"
)

// CheckoutBackend is the part of the commerce API checkout needs.
type CheckoutBackend interface {
	Checkout(ctx context.Context, req entity.CheckoutRequest) (int64, error)
	PaymentParams(ctx context.Context, orderID int64) (entity.PaymentParams, error)
}

// PaymentRedirector hands the browser over to the payment gateway.
type PaymentRedirector interface {
	Redirect(ctx context.Context, gatewayURL string, params entity.PaymentParams) error
}

// Checkout runs the order submission state machine for one cart page.
type Checkout struct {
	api        CheckoutBackend
	redirector PaymentRedirector
	gatewayURL string
	timeout    time.Duration

	mu      sync.Mutex
	phase   CheckoutPhase
	reason  string
	orderID int64
}

func NewCheckout(api CheckoutBackend, redirector PaymentRedirector, gatewayURL string, timeout time.Duration) *Checkout {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Checkout{api: api, redirector: redirector, gatewayURL: gatewayURL, timeout: timeout, phase: ReviewingCart}
}

func (c *Checkout) Phase() CheckoutPhase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Reason is the last rejection message shown to the user.
func (c *Checkout) Reason() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reason
}

func (c *Checkout) OrderID() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.orderID
}

// Enabled reports whether the checkout control accepts a click.
func (c *Checkout) Enabled() bool {
	switch c.Phase() {
	case ReviewingCart, OrderRejected:
		return true
	default:
		return false
	}
}

func (c *Checkout) transition(p CheckoutPhase, reason string) {
	c.mu.Lock()
	c.phase = p
	c.reason = reason
	c.mu.Unlock()
	log.Printf("[CHECKOUT] action=transition phase=%s reason=%q", p, reason)
}

// ValidAddress rejects blank addresses and the placeholders the address
// field can carry before the user filled it in.
func ValidAddress(addr string) bool {
	addr = strings.TrimSpace(addr)
	return addr != "" && addr != "輸入配送地址" && addr != "undefined"
}

// BuildRequest validates the cart and shipping choice and builds the order request.
func BuildRequest(cart entity.CartState, ship entity.Shipping) (entity.CheckoutRequest, error) {
	const op = "checkout.validate"
	if cart.UserID == "" {
		return entity.CheckoutRequest{}, errs.AuthRequired(op)
	}
	if len(cart.Items) == 0 {
		return entity.CheckoutRequest{}, errs.Validation(op, "items", "請先選購商品再結帳")
	}
	req := entity.CheckoutRequest{UserID: cart.UserID, PaymentMethod: entity.PaymentCredit}
	switch ship.Type {
	case entity.LogisticsCVS:
		if strings.TrimSpace(ship.Store.StoreID) == "" {
			return entity.CheckoutRequest{}, errs.Validation(op, "storeId", "超商取貨必須選擇取貨門市")
		}
		req.LogisticsType = entity.LogisticsCVS
		req.LogisticsSubType = ship.Store.SubType
		req.StoreID = ship.Store.StoreID
		req.StoreName = ship.Store.Name
		req.Address = ship.Store.Address
	default:
		addr := ship.Address
		if addr == "" {
			addr = cart.Address
		}
		if !ValidAddress(addr) {
			return entity.CheckoutRequest{}, errs.Validation(op, "address", "您的配送地址似乎有誤")
		}
		req.LogisticsType = entity.LogisticsHome
		req.Address = strings.TrimSpace(addr)
	}
	return req, nil
}

// Submit validates, creates the order and redirects to payment. The control
// is enabled again after every outcome other than the redirect.
func (c *Checkout) Submit(ctx context.Context, cart entity.CartState, ship entity.Shipping) error {
	const op = "checkout.submit"
	req, err := BuildRequest(cart, ship)
	if err != nil {
		return err
	}

	c.mu.Lock()
	switch c.phase {
	case SubmittingOrder, OrderCreated, RedirectingToPayment:
		c.mu.Unlock()
		return errs.Validation(op, "checkout", "checkout already in progress")
	}
	c.phase = SubmittingOrder
	c.reason = ""
	c.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	orderID, err := c.api.Checkout(callCtx, req)
	cancel()
	if err != nil {
		c.transition(OrderRejected, errs.MessageOf(err))
		return err
	}

	c.mu.Lock()
	c.orderID = orderID
	c.mu.Unlock()
	c.transition(OrderCreated, "")

	callCtx, cancel = context.WithTimeout(ctx, c.timeout)
	params, err := c.api.PaymentParams(callCtx, orderID)
	cancel()
	if err != nil {
		c.transition(OrderRejected, errs.MessageOf(err))
		return err
	}

	c.transition(RedirectingToPayment, "")
	if err := c.redirector.Redirect(ctx, c.gatewayURL, params); err != nil {
		e := errs.Network(op, 0, err)
		c.transition(OrderRejected, errs.MessageOf(e))
		return e
	}
	return nil
}

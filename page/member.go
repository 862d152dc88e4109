package page

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"storefront.GO/core/errs"
	"storefront.GO/model/entity"
)

const PromptCancelOrder = "確定要取消此訂單嗎？"

// MemberAPI is everything the member center sends to the backend.
type MemberAPI interface {
	Orders(ctx context.Context) ([]entity.Order, error)
	CancelOrder(ctx context.Context, orderID int64) error
	Wishlist(ctx context.Context) ([]entity.WishlistItem, error)
	RemoveWishlist(ctx context.Context, productID int64) error
}

type MemberView interface {
	RenderOrders(orders []entity.Order)
	RenderWishlist(items []entity.WishlistItem)
	RenderMemberError(err error)
}

type MemberOptions struct {
	API       MemberAPI
	View      MemberView
	Prompter  Prompter
	Notifier  Notifier
	Navigator Navigator
}

// MemberPage is the member center: order history and wishlist.
type MemberPage struct {
	opts MemberOptions

	mu       sync.Mutex
	orders   []entity.Order
	filter   string
	wishlist []entity.WishlistItem
}

func NewMemberPage(opts MemberOptions) *MemberPage {
	return &MemberPage{opts: opts}
}

// LoadOrders fetches the order history, newest first.
func (p *MemberPage) LoadOrders(ctx context.Context) error {
	orders, err := p.opts.API.Orders(ctx)
	if err != nil {
		p.fail(err)
		return err
	}
	p.mu.Lock()
	p.orders = orders
	p.mu.Unlock()
	p.opts.View.RenderMemberError(nil)
	p.renderOrders()
	return nil
}

// FilterOrders narrows the list to orders whose id, date or status contains q.
func (p *MemberPage) FilterOrders(q string) []entity.Order {
	p.mu.Lock()
	p.filter = strings.TrimSpace(q)
	p.mu.Unlock()
	return p.renderOrders()
}

func (p *MemberPage) renderOrders() []entity.Order {
	p.mu.Lock()
	q := strings.ToLower(p.filter)
	var out []entity.Order
	for _, o := range p.orders {
		if q == "" || orderMatches(o, q) {
			out = append(out, o)
		}
	}
	p.mu.Unlock()
	p.opts.View.RenderOrders(out)
	return out
}

func orderMatches(o entity.Order, q string) bool {
	for _, f := range []string{strconv.FormatInt(o.OrderID, 10), o.OrderDate, o.StatusDisplay, o.Status} {
		if strings.Contains(strings.ToLower(f), q) {
			return true
		}
	}
	return false
}

// CancelOrder cancels orderID after confirmation and reloads the list.
func (p *MemberPage) CancelOrder(ctx context.Context, orderID int64) error {
	const op = "member.cancel_order"
	o, ok := p.order(orderID)
	if !ok {
		return errs.Validation(op, "orderId", "order not found")
	}
	if !o.Cancellable() {
		err := errs.Validation(op, "orderId", "此訂單目前無法取消")
		notify(p.opts.Notifier, Error, err.Message)
		return err
	}
	if p.opts.Prompter != nil && !p.opts.Prompter.Confirm(PromptCancelOrder) {
		return nil
	}
	if err := p.opts.API.CancelOrder(ctx, orderID); err != nil {
		p.fail(err)
		return err
	}
	notify(p.opts.Notifier, Info, "訂單已取消")
	return p.LoadOrders(ctx)
}

func (p *MemberPage) order(id int64) (entity.Order, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, o := range p.orders {
		if o.OrderID == id {
			return o, true
		}
	}
	return entity.Order{}, false
}

// LoadWishlist fetches the wishlist.
func (p *MemberPage) LoadWishlist(ctx context.Context) error {
	items, err := p.opts.API.Wishlist(ctx)
	if err != nil {
		p.fail(err)
		return err
	}
	p.mu.Lock()
	p.wishlist = items
	p.mu.Unlock()
	p.opts.View.RenderWishlist(items)
	return nil
}

// RemoveWishlist drops productID from the list right away and puts it back
// in place when the backend refuses.
func (p *MemberPage) RemoveWishlist(ctx context.Context, productID int64) error {
	p.mu.Lock()
	idx := -1
	for i, it := range p.wishlist {
		if it.ProductID == productID {
			idx = i
			break
		}
	}
	if idx < 0 {
		p.mu.Unlock()
		return errs.Validation("member.remove_wishlist", "productId", "item is not in the wishlist")
	}
	removed := p.wishlist[idx]
	next := make([]entity.WishlistItem, 0, len(p.wishlist)-1)
	next = append(next, p.wishlist[:idx]...)
	next = append(next, p.wishlist[idx+1:]...)
	p.wishlist = next
	p.mu.Unlock()
	p.opts.View.RenderWishlist(next)

	if err := p.opts.API.RemoveWishlist(ctx, productID); err != nil {
		p.mu.Lock()
		restored := make([]entity.WishlistItem, 0, len(p.wishlist)+1)
		at := idx
		if at > len(p.wishlist) {
			at = len(p.wishlist)
		}
		restored = append(restored, p.wishlist[:at]...)
		restored = append(restored, removed)
		restored = append(restored, p.wishlist[at:]...)
		p.wishlist = restored
		p.mu.Unlock()
		p.opts.View.RenderWishlist(restored)
		p.fail(err)
		return err
	}
	return nil
}

// Wishlist returns the current list.
func (p *MemberPage) Wishlist() []entity.WishlistItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entity.WishlistItem(nil), p.wishlist...)
}

func (p *MemberPage) fail(err error) {
	if errs.IsAuthRequired(err) {
		report(p.opts.Notifier, p.opts.Navigator, err)
		return
	}
	p.opts.View.RenderMemberError(err)
	report(p.opts.Notifier, nil, err)
}

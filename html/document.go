package html

import (
	"html/template"
	"log"
	"sync"

	"storefront.GO/core/errs"
	"storefront.GO/model/entity"
	"storefront.GO/reconcile"
)

// Region ids of the page fragments a Document keeps.
const (
	RegionCartItems   = "cart-items"
	RegionCartSummary = "cart-summary"
	RegionAddress     = "user-addr"
	RegionShipping    = "shipping"
	RegionCheckout    = "checkout"
	RegionMainNav     = "main-nav"
	RegionSubNav      = "sub-nav"
	RegionBreadcrumb  = "breadcrumb"
	RegionFilters     = "filters"
	RegionProducts    = "product-list"
	RegionPagination  = "pagination"
	RegionProduct     = "product"
	RegionOrders      = "orders"
	RegionWishlist    = "wishlist"
	RegionMemberError = "member-error"
)

// Document is an in-memory page: each render call replaces one or more
// regions with freshly rendered HTML. It implements the page views.
type Document struct {
	tmpl *Template

	mu      sync.Mutex
	regions map[string]string
	mains   []entity.Category
	subs    []entity.Category
}

func NewDocument(t *Template) *Document {
	return &Document{tmpl: t, regions: make(map[string]string)}
}

// Region returns the current HTML of id.
func (d *Document) Region(id string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.regions[id]
}

func (d *Document) set(id, name string, data interface{}) {
	out, err := d.tmpl.String(name, data)
	if err != nil {
		log.Printf("[HTML] action=render template=%s msg=%v", name, err)
		out = ""
	}
	d.mu.Lock()
	d.regions[id] = out
	d.mu.Unlock()
}

func (d *Document) RenderCart(st entity.CartState) {
	if len(st.Items) == 0 {
		d.set(RegionCartItems, "cart_empty", false)
	} else {
		d.set(RegionCartItems, "cart_rows", st)
	}
	d.set(RegionCartSummary, "cart_summary", st)
	d.set(RegionAddress, "cart_address", st.Address)
}

func (d *Document) RenderCartError(err error) {
	d.set(RegionCartItems, "cart_empty", true)
	d.set(RegionCartSummary, "cart_summary", entity.CartState{})
}

func (d *Document) RenderShipping(s entity.Shipping) {
	d.set(RegionShipping, "cart_shipping", s)
}

func (d *Document) RenderCheckout(enabled bool, reason string) {
	d.set(RegionCheckout, "checkout_button", struct {
		Enabled bool
		Reason  string
	}{enabled, reason})
}

func (d *Document) RenderMainNav(cats []entity.Category, selected string) {
	d.mu.Lock()
	d.mains = cats
	d.mu.Unlock()
	d.set(RegionMainNav, "main_nav", MainNav(cats, selected))
}

// RenderSubNav shows the sidebar; nil cats hides it.
func (d *Document) RenderSubNav(cats []entity.Category, selected string) {
	d.mu.Lock()
	d.subs = cats
	d.mu.Unlock()
	if cats == nil {
		d.mu.Lock()
		d.regions[RegionSubNav] = ""
		d.mu.Unlock()
		return
	}
	d.set(RegionSubNav, "sub_nav", SubNav(cats, selected))
}

func (d *Document) RenderResults(q reconcile.QueryState) {
	d.mu.Lock()
	mains, subs := d.mains, d.subs
	d.mu.Unlock()

	d.set(RegionBreadcrumb, "breadcrumb", Breadcrumb(q.State, mains, subs))
	d.set(RegionFilters, "filter_chips", FilterChips(q.State))
	d.set(RegionProducts, "product_list", q)

	var p Pagination
	if q.Phase == reconcile.Rendered && len(q.Result.Content) > 0 {
		p = PageWindow(q.State.Page, q.Result.Page.TotalPages)
	}
	d.set(RegionPagination, "pagination", p)
}

func (d *Document) RenderProduct(p entity.ProductDetail) {
	d.set(RegionProduct, "product_detail", p)
}

func (d *Document) RenderOrders(orders []entity.Order) {
	d.set(RegionOrders, "orders", orders)
}

func (d *Document) RenderWishlist(items []entity.WishlistItem) {
	d.set(RegionWishlist, "wishlist", items)
}

func (d *Document) RenderMemberError(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		d.regions[RegionMemberError] = ""
		return
	}
	d.regions[RegionMemberError] = template.HTMLEscapeString(errs.MessageOf(err))
}

package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"storefront.GO/core/errs"
	"storefront.GO/html"
	"storefront.GO/model/entity"
	"storefront.GO/reconcile"
)

// textView renders every page as plain text.
type textView struct {
	out   io.Writer
	quiet bool

	mains []entity.Category
	subs  []entity.Category
}

func (v *textView) table(header string, rows func(w io.Writer)) {
	w := tabwriter.NewWriter(v.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, header)
	rows(w)
	w.Flush()
}

func (v *textView) RenderCart(st entity.CartState) {
	if v.quiet {
		return
	}
	if len(st.Items) == 0 {
		fmt.Fprintln(v.out, "您的購物車是空的")
		return
	}
	v.table("CART\tPRODUCT\tPRICE\tQTY\tSUBTOTAL", func(w io.Writer) {
		for _, it := range st.Items {
			fmt.Fprintf(w, "%d\t%s\t$%s\t%d\t$%s\n", it.CartID, it.Name,
				html.FormatCurrency(it.UnitPrice), it.Quantity, html.FormatCurrency(it.Subtotal()))
		}
	})
	fmt.Fprintf(v.out, "共 %d 件  總計 $%s\n", st.Count(), html.FormatCurrency(st.Total()))
}

func (v *textView) RenderCartError(err error) {
	fmt.Fprintf(v.out, "載入失敗: %s\n", errs.MessageOf(err))
}

func (v *textView) RenderShipping(s entity.Shipping) {
	if v.quiet {
		return
	}
	switch s.Type {
	case entity.LogisticsCVS:
		fmt.Fprintf(v.out, "配送: 超商取貨 %s %s\n", s.Store.StoreID, s.Store.Name)
	default:
		addr := s.Address
		if addr == "" {
			addr = "(會員地址)"
		}
		fmt.Fprintf(v.out, "配送: 宅配 %s\n", addr)
	}
}

func (v *textView) RenderCheckout(enabled bool, reason string) {
	if reason != "" {
		fmt.Fprintf(v.out, "結帳失敗: %s\n", reason)
	}
}

func (v *textView) RenderMainNav(cats []entity.Category, selected string) {
	v.mains = cats
}

func (v *textView) RenderSubNav(cats []entity.Category, selected string) {
	v.subs = cats
	if v.quiet || cats == nil {
		return
	}
	items := html.SubNav(cats, selected)
	names := make([]string, 0, len(items))
	for _, it := range items {
		name := it.Name
		if it.Count != nil {
			name = fmt.Sprintf("%s(%d)", name, *it.Count)
		}
		if it.Active {
			name = "*" + name
		}
		names = append(names, name)
	}
	fmt.Fprintf(v.out, "子分類: %s\n", strings.Join(names, " | "))
}

func (v *textView) RenderResults(q reconcile.QueryState) {
	switch q.Phase {
	case reconcile.Fetching:
		return
	case reconcile.ErrorDisplayed:
		fmt.Fprintf(v.out, "載入商品發生錯誤，請稍後再試。(%s)\n", errs.MessageOf(q.Err))
		return
	}
	if v.quiet {
		return
	}
	crumbs := html.Breadcrumb(q.State, v.mains, v.subs)
	labels := make([]string, len(crumbs))
	for i, c := range crumbs {
		labels[i] = c.Label
	}
	fmt.Fprintln(v.out, strings.Join(labels, " > "))
	for _, chip := range html.FilterChips(q.State) {
		fmt.Fprintf(v.out, "[%s] ", chip.Label)
	}
	if len(q.Result.Content) == 0 {
		fmt.Fprintln(v.out, "\n找不到符合條件的商品")
		for _, p := range q.Recommendations {
			fmt.Fprintf(v.out, "  推薦: %d %s $%s\n", p.ProductID, p.Name, html.FormatCurrency(p.Price))
		}
		return
	}
	fmt.Fprintln(v.out)
	v.table("ID\tPRODUCT\tPRICE\tRATING\tSTOCK", func(w io.Writer) {
		for _, p := range q.Result.Content {
			stock := fmt.Sprint(p.Stock)
			if p.SoldOut() {
				stock = "已售完"
			}
			fmt.Fprintf(w, "%d\t%s\t$%s\t%.1f\t%s\n", p.ProductID, p.Name, html.FormatCurrency(p.Price), p.Rating, stock)
		}
	})
	pg := q.Result.Page
	fmt.Fprintf(v.out, "第 %d / %d 頁，共 %d 件\n", pg.Number+1, pg.TotalPages, pg.TotalElements)
}

func (v *textView) RenderProduct(d entity.ProductDetail) {
	p := d.Product
	fmt.Fprintf(v.out, "%s  $%s\n%s\n", p.Name, html.FormatCurrency(p.Price), p.Description)
	if p.SoldOut() {
		fmt.Fprintln(v.out, "已售完")
	}
	if len(d.Reviews.Reviews) == 0 {
		fmt.Fprintln(v.out, "目前尚無評分")
	}
	for _, r := range d.Reviews.Reviews {
		fmt.Fprintf(v.out, "  %.1f %s: %s\n", r.Rating, r.UserName, r.Comment)
	}
	for _, r := range d.Related {
		fmt.Fprintf(v.out, "  相關: %d %s\n", r.ProductID, r.Name)
	}
}

func (v *textView) RenderOrders(orders []entity.Order) {
	if len(orders) == 0 {
		fmt.Fprintln(v.out, "找不到訂單紀錄!")
		return
	}
	v.table("ORDER\tDATE\tTOTAL\tSTATUS", func(w io.Writer) {
		for _, o := range orders {
			fmt.Fprintf(w, "%d\t%s\t$%s\t%s\n", o.OrderID, o.OrderDate, html.FormatCurrency(o.TotalAmount), o.StatusDisplay)
		}
	})
}

func (v *textView) RenderWishlist(items []entity.WishlistItem) {
	if len(items) == 0 {
		fmt.Fprintln(v.out, "您的收藏清單是空的。")
		return
	}
	v.table("ID\tPRODUCT\tPRICE", func(w io.Writer) {
		for _, it := range items {
			fmt.Fprintf(w, "%d\t%s\t$%s\n", it.ProductID, it.Name, html.FormatCurrency(it.Price))
		}
	})
}

func (v *textView) RenderMemberError(err error) {
	if err != nil {
		fmt.Fprintf(v.out, "錯誤: %s\n", errs.MessageOf(err))
	}
}

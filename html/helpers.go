package html

import (
	"strconv"
	"strings"

	"storefront.GO/model/entity"
)

// FormatCurrency renders n with thousands separators: 1234567 -> "1,234,567".
func FormatCurrency(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// MaxPageLinks is the width of the pagination window.
const MaxPageLinks = 5

type PageLink struct {
	Index  int // zero-based page index
	Label  int // one-based label
	Active bool
}

// Pagination is the pager under the product grid.
type Pagination struct {
	Visible      bool
	Current      int
	PrevDisabled bool
	NextDisabled bool
	Links        []PageLink
}

// PageWindow centers a window of at most MaxPageLinks pages on current.
// Nothing is shown for a single page.
func PageWindow(current, totalPages int) Pagination {
	p := Pagination{Current: current}
	if totalPages <= 1 {
		return p
	}
	p.Visible = true
	p.PrevDisabled = current <= 0
	p.NextDisabled = current >= totalPages-1

	start := current - MaxPageLinks/2
	if start < 0 {
		start = 0
	}
	end := start + MaxPageLinks - 1
	if end > totalPages-1 {
		end = totalPages - 1
	}
	if end-start+1 < MaxPageLinks && totalPages >= MaxPageLinks {
		start = end - MaxPageLinks + 1
		if start < 0 {
			start = 0
		}
	}
	for i := start; i <= end; i++ {
		p.Links = append(p.Links, PageLink{Index: i, Label: i + 1, Active: i == current})
	}
	return p
}

// Crumb is one breadcrumb entry. Code is set on a clickable main category.
type Crumb struct {
	Label  string
	Code   string
	Active bool
}

// CategoryName looks code up in cats; unknown codes render as themselves.
func CategoryName(cats []entity.Category, code string) string {
	for _, c := range cats {
		if c.Code == code && c.Name != "" {
			return c.Name
		}
	}
	return code
}

// Breadcrumb builds the trail after the home link.
func Breadcrumb(st entity.SearchState, mains, subs []entity.Category) []Crumb {
	var out []Crumb
	switch {
	case st.MainCategory != "":
		name := CategoryName(mains, st.MainCategory)
		if name == st.MainCategory {
			name = strings.ToUpper(name)
		}
		if st.SubCategory != "" {
			out = append(out, Crumb{Label: name, Code: st.MainCategory})
		} else {
			out = append(out, Crumb{Label: name, Active: true})
		}
	case st.Keyword == "":
		out = append(out, Crumb{Label: "所有商品", Active: true})
	}
	if st.SubCategory != "" {
		out = append(out, Crumb{Label: CategoryName(subs, st.SubCategory), Active: true})
	}
	if st.Keyword != "" {
		out = append(out, Crumb{Label: "搜尋：" + st.Keyword, Active: true})
	}
	return out
}

// Chip kinds double as RemoveFilter arguments.
const (
	ChipKeyword = "keyword"
	ChipPrice   = "price"
)

type Chip struct {
	Kind  string
	Label string
}

// FilterChips lists the removable filters. The price chip only appears when
// the range is narrower than the slider bounds.
func FilterChips(st entity.SearchState) []Chip {
	var out []Chip
	if st.Keyword != "" {
		out = append(out, Chip{Kind: ChipKeyword, Label: "關鍵字: " + st.Keyword})
	}
	narrowed := (st.MinPrice != nil && *st.MinPrice > entity.PriceFloor) ||
		(st.MaxPrice != nil && *st.MaxPrice < entity.PriceCeiling)
	if narrowed {
		lo, hi := entity.PriceFloor, entity.PriceCeiling
		if st.MinPrice != nil {
			lo = *st.MinPrice
		}
		if st.MaxPrice != nil {
			hi = *st.MaxPrice
		}
		out = append(out, Chip{Kind: ChipPrice, Label: "價格: NT$" + FormatCurrency(lo) + " - NT$" + FormatCurrency(hi)})
	}
	return out
}

// NavItem is a main navigation or sidebar entry.
type NavItem struct {
	Code   string
	Name   string
	Count  *int
	Active bool
}

// MainNav is the top navigation with the "all products" entry first.
func MainNav(cats []entity.Category, selected string) []NavItem {
	out := []NavItem{{Name: "全部商品", Active: selected == ""}}
	for _, c := range cats {
		out = append(out, NavItem{Code: c.Code, Name: c.Name, Active: c.Code == selected})
	}
	return out
}

// SubNav is the sidebar; its first entry clears the sub-category and
// counts the entries below it.
func SubNav(cats []entity.Category, selected string) []NavItem {
	n := len(cats)
	out := []NavItem{{Name: "所有子分類", Count: &n, Active: selected == ""}}
	for _, c := range cats {
		out = append(out, NavItem{Code: c.Code, Name: c.Name, Count: c.Count, Active: c.Code == selected})
	}
	return out
}

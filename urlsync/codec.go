// Package urlsync keeps the search state and the page URL in step.
package urlsync

import (
	"net/url"
	"strconv"
	"strings"

	"storefront.GO/model/entity"
)

// Query keys in the order they are written.
const (
	KeyMainCategory = "mainCategory"
	KeySubCategory  = "subCategory"
	KeyMaxPrice     = "maxPrice"
	KeyMinPrice     = "minPrice"
	KeyKeyword      = "keyword"
	KeyPage         = "page"
	KeySize         = "size"
	KeySort         = "sort"
)

// FromURL reads a SearchState from query values. Missing or unparsable
// values fall back to defaults and inverted price bounds are swapped; it
// never fails.
func FromURL(v url.Values) entity.SearchState {
	st := entity.DefaultSearchState()
	st.MainCategory = v.Get(KeyMainCategory)
	st.SubCategory = v.Get(KeySubCategory)
	st.MinPrice = parsePrice(v.Get(KeyMinPrice))
	st.MaxPrice = parsePrice(v.Get(KeyMaxPrice))
	if st.MinPrice != nil && st.MaxPrice != nil && *st.MinPrice > *st.MaxPrice {
		st.MinPrice, st.MaxPrice = st.MaxPrice, st.MinPrice
	}
	st.Keyword = v.Get(KeyKeyword)
	if n, err := strconv.Atoi(v.Get(KeyPage)); err == nil && n > 0 {
		st.Page = n
	}
	if n, err := strconv.Atoi(v.Get(KeySize)); err == nil && n > 0 {
		st.Size = n
	}
	if s := v.Get(KeySort); s != "" {
		st.Sort = s
	}
	return st
}

// FromQuery parses a raw query string (with or without the leading "?"),
// or a full URL, and reads it with FromURL.
func FromQuery(raw string) entity.SearchState {
	if i := strings.IndexByte(raw, '?'); i >= 0 {
		raw = raw[i+1:]
	}
	v, err := url.ParseQuery(raw)
	if err != nil && v == nil {
		return entity.DefaultSearchState()
	}
	return FromURL(v)
}

func parsePrice(s string) *int64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return nil
	}
	return &n
}

// ToURL encodes the non-default fields of st as a query string without the
// leading "?". A default state encodes to "".
func ToURL(st entity.SearchState) string {
	st = st.Normalize()
	var b strings.Builder
	add := func(k, v string) {
		if b.Len() > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(v))
	}
	if st.MainCategory != "" {
		add(KeyMainCategory, st.MainCategory)
	}
	if st.SubCategory != "" {
		add(KeySubCategory, st.SubCategory)
	}
	if st.MaxPrice != nil {
		add(KeyMaxPrice, strconv.FormatInt(*st.MaxPrice, 10))
	}
	if st.MinPrice != nil {
		add(KeyMinPrice, strconv.FormatInt(*st.MinPrice, 10))
	}
	if st.Keyword != "" {
		add(KeyKeyword, st.Keyword)
	}
	if st.Page != 0 {
		add(KeyPage, strconv.Itoa(st.Page))
	}
	if st.Size != entity.DefaultPageSize {
		add(KeySize, strconv.Itoa(st.Size))
	}
	if st.Sort != entity.DefaultSort {
		add(KeySort, st.Sort)
	}
	return b.String()
}

// Join appends the encoded state to path.
func Join(path string, st entity.SearchState) string {
	q := ToURL(st)
	if q == "" {
		return path
	}
	return path + "?" + q
}

// StoreSelectionFromURL reads the convenience store picked on the logistics
// map from the callback query. ok is false when no store id is present.
func StoreSelectionFromURL(v url.Values) (entity.StoreSelection, bool) {
	id := strings.TrimSpace(v.Get("storeId"))
	if id == "" {
		return entity.StoreSelection{}, false
	}
	return entity.StoreSelection{
		StoreID: id,
		Name:    v.Get("storeName"),
		Address: v.Get("address"),
		SubType: v.Get("type"),
	}, true
}

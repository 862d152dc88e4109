package commerce

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"storefront.GO/core/cache"
	"storefront.GO/core/errs"
	"storefront.GO/model/entity"
)

const categoryTag = "categories"

// RecommendationSize is the number of products fetched for an empty result.
const RecommendationSize = 4

// SearchQuery builds the backend query for st. Page, size and sort are
// always sent; empty filters are left out.
func SearchQuery(st entity.SearchState) url.Values {
	st = st.Normalize()
	q := url.Values{}
	if st.MainCategory != "" {
		q.Set("mainCategory", st.MainCategory)
	}
	if st.SubCategory != "" {
		q.Set("subCategory", st.SubCategory)
	}
	if st.MinPrice != nil {
		q.Set("minPrice", strconv.FormatInt(*st.MinPrice, 10))
	}
	if st.MaxPrice != nil {
		q.Set("maxPrice", strconv.FormatInt(*st.MaxPrice, 10))
	}
	if st.Keyword != "" {
		q.Set("keyword", st.Keyword)
	}
	q.Set("page", strconv.Itoa(st.Page))
	q.Set("size", strconv.Itoa(st.Size))
	q.Set("sort", st.Sort)
	return q
}

// SearchProducts runs the product search for st.
func (c *Client) SearchProducts(ctx context.Context, st entity.SearchState) (entity.SearchResult, error) {
	const op = "products.search"
	status, body, err := c.send(ctx, call{op: op, method: http.MethodGet, path: "/products/search", query: SearchQuery(st)})
	if err != nil {
		return entity.SearchResult{}, err
	}
	res, err := decodeSearchResult(body)
	if err != nil {
		return entity.SearchResult{}, errs.Network(op, status, fmt.Errorf("decode response: %w", err))
	}
	return res, nil
}

// Recommendations fetches the top rated products shown next to an empty result.
func (c *Client) Recommendations(ctx context.Context) ([]entity.Product, error) {
	st := entity.SearchState{Size: RecommendationSize, Sort: "ratingDesc"}
	res, err := c.SearchProducts(ctx, st)
	if err != nil {
		return nil, err
	}
	return res.Content, nil
}

// decodeSearchResult accepts a paged object or a bare product array.
func decodeSearchResult(body []byte) (entity.SearchResult, error) {
	var res entity.SearchResult
	if len(body) == 0 {
		return res, nil
	}
	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return res, err
	}
	switch v := raw.(type) {
	case []interface{}:
		if err := decodeValue(v, &res.Content); err != nil {
			return res, err
		}
		res.Page = entity.PageMeta{Size: len(res.Content), TotalElements: int64(len(res.Content))}
		if len(res.Content) > 0 {
			res.Page.TotalPages = 1
		}
	case map[string]interface{}:
		if err := decodeValue(v["content"], &res.Content); err != nil {
			return res, err
		}
		if err := decodeValue(v["page"], &res.Page); err != nil {
			return res, err
		}
	}
	return res, nil
}

// MainCategories lists the navigation categories. Results are cached.
func (c *Client) MainCategories(ctx context.Context) ([]entity.Category, error) {
	var out []entity.Category
	err := c.cache.Fetch(ctx, cache.Key("categories", "main"), c.cacheTTL, []string{categoryTag}, &out, func() (interface{}, error) {
		var cats []entity.Category
		err := c.do(ctx, call{op: "categories.main", method: http.MethodGet, path: "/categories/main"}, &cats)
		return cats, err
	})
	return out, err
}

// SubCategories lists the sidebar sub-categories of main with their counts.
func (c *Client) SubCategories(ctx context.Context, main string) ([]entity.Category, error) {
	if main == "" {
		return nil, nil
	}
	var out []entity.Category
	err := c.cache.Fetch(ctx, cache.Key("categories", "sub", main), c.cacheTTL, []string{categoryTag}, &out, func() (interface{}, error) {
		var cats []entity.Category
		err := c.do(ctx, call{
			op:     "categories.sub",
			method: http.MethodGet,
			path:   "/categories/main/" + url.PathEscape(main) + "/sub",
		}, &cats)
		return cats, err
	})
	return out, err
}

// InvalidateCategories drops cached category lists.
func (c *Client) InvalidateCategories() {
	c.cache.Invalidate(categoryTag)
}

func (c *Client) Product(ctx context.Context, productID int64) (entity.Product, error) {
	const op = "product.get"
	status, body, err := c.send(ctx, call{op: op, method: http.MethodGet, path: "/product/" + strconv.FormatInt(productID, 10)})
	if err != nil {
		return entity.Product{}, err
	}
	var p entity.Product
	if err := decodeLenient(body, &p); err != nil {
		return entity.Product{}, errs.Network(op, status, fmt.Errorf("decode response: %w", err))
	}
	return p, nil
}

// Reviews loads one page of reviews of productID.
func (c *Client) Reviews(ctx context.Context, productID int64) (entity.ReviewPage, error) {
	var page entity.ReviewPage
	err := c.do(ctx, call{
		op:     "product.reviews",
		method: http.MethodGet,
		path:   "/product/" + strconv.FormatInt(productID, 10) + "/reviews",
	}, &page)
	return page, err
}

// Related lists products of categoryID other than exclude.
func (c *Client) Related(ctx context.Context, categoryID string, exclude int64) ([]entity.Product, error) {
	const op = "product.related"
	status, body, err := c.send(ctx, call{
		op:     op,
		method: http.MethodGet,
		path:   "/product/related/" + url.PathEscape(categoryID),
		query:  url.Values{"exclude": {strconv.FormatInt(exclude, 10)}},
	})
	if err != nil {
		return nil, err
	}
	res, err := decodeSearchResult(body)
	if err != nil {
		return nil, errs.Network(op, status, fmt.Errorf("decode response: %w", err))
	}
	return res.Content, nil
}

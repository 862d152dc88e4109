package html

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/sync/errgroup"

	"storefront.GO/model/entity"
	"storefront.GO/reconcile"
	"storefront.GO/urlsync"
)

// Catalog is the read side of the commerce API used by the server-rendered pages.
type Catalog interface {
	SearchProducts(ctx context.Context, st entity.SearchState) (entity.SearchResult, error)
	Recommendations(ctx context.Context) ([]entity.Product, error)
	MainCategories(ctx context.Context) ([]entity.Category, error)
	SubCategories(ctx context.Context, main string) ([]entity.Category, error)
	Product(ctx context.Context, productID int64) (entity.Product, error)
	Reviews(ctx context.Context, productID int64) (entity.ReviewPage, error)
	Related(ctx context.Context, categoryID string, exclude int64) ([]entity.Product, error)
}

// SearchPage is the data of the search_page template.
type SearchPage struct {
	Title      string
	MainNav    []NavItem
	SubNav     []NavItem
	Breadcrumb []Crumb
	Chips      []Chip
	Query      reconcile.QueryState
	Pagination Pagination
}

// BuildSearchPage runs one search for st and assembles the whole page.
// Category lookups are best effort; a failed search renders the error view.
func BuildSearchPage(ctx context.Context, cat Catalog, st entity.SearchState) SearchPage {
	st = st.Normalize()
	var (
		mains, subs []entity.Category
		res         entity.SearchResult
		searchErr   error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if mains, err = cat.MainCategories(gctx); err != nil {
			log.Printf("[HTML] action=main_categories msg=%v", err)
		}
		return nil
	})
	if st.MainCategory != "" {
		g.Go(func() error {
			var err error
			if subs, err = cat.SubCategories(gctx, st.MainCategory); err != nil {
				log.Printf("[HTML] action=sub_categories main=%s msg=%v", st.MainCategory, err)
			}
			return nil
		})
	}
	g.Go(func() error {
		res, searchErr = cat.SearchProducts(gctx, st)
		return nil
	})
	_ = g.Wait()

	q := reconcile.QueryState{Phase: reconcile.Rendered, State: st, Result: res}
	if searchErr != nil {
		q.Phase = reconcile.ErrorDisplayed
		q.Err = searchErr
	} else if len(res.Content) == 0 {
		q.Recommendations, q.RecommendErr = cat.Recommendations(ctx)
	}

	page := SearchPage{
		Title:      "商品搜尋",
		MainNav:    MainNav(mains, st.MainCategory),
		Breadcrumb: Breadcrumb(st, mains, subs),
		Chips:      FilterChips(st),
		Query:      q,
	}
	if st.MainCategory != "" {
		page.SubNav = SubNav(subs, st.SubCategory)
	}
	if q.Phase == reconcile.Rendered && len(res.Content) > 0 {
		page.Pagination = PageWindow(st.Page, res.Page.TotalPages)
	}
	return page
}

// LoadProductDetail fetches the product, then its reviews and related
// products in parallel. Only the product itself is required.
func LoadProductDetail(ctx context.Context, cat Catalog, id int64) (entity.ProductDetail, error) {
	p, err := cat.Product(ctx, id)
	if err != nil {
		return entity.ProductDetail{}, err
	}
	d := entity.ProductDetail{Product: p}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := cat.Reviews(gctx, id)
		if err != nil {
			log.Printf("[HTML] action=reviews product=%d msg=%v", id, err)
			return nil
		}
		d.Reviews = r
		return nil
	})
	if p.CategoryID != "" {
		g.Go(func() error {
			rel, err := cat.Related(gctx, p.CategoryID, id)
			if err != nil {
				log.Printf("[HTML] action=related product=%d msg=%v", id, err)
				return nil
			}
			d.Related = rel
			return nil
		})
	}
	_ = g.Wait()
	return d, nil
}

// RegisterStorefrontRoutes serves the search and product pages rendered on
// the server. e.Renderer must be a *Template.
func RegisterStorefrontRoutes(e *echo.Echo, cat Catalog) {
	e.GET("/search", func(c echo.Context) error {
		start := time.Now()
		st := urlsync.FromURL(c.QueryParams())
		page := BuildSearchPage(c.Request().Context(), cat, st)
		log.Printf("[HTML] action=search url=%s took=%s", urlsync.ToURL(st), time.Since(start))
		return c.Render(http.StatusOK, "search_page", page)
	})
	e.GET("/product/:id", func(c echo.Context) error {
		id, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || id <= 0 {
			return c.String(http.StatusBadRequest, "Invalid product ID")
		}
		d, err := LoadProductDetail(c.Request().Context(), cat, id)
		if err != nil {
			return c.String(http.StatusNotFound, "Product not found")
		}
		return c.Render(http.StatusOK, "product_page", d)
	})
}

package page

import (
	"context"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"storefront.GO/model/entity"
	"storefront.GO/reconcile"
)

// ProductAPI is everything the product page sends to the backend.
type ProductAPI interface {
	Product(ctx context.Context, productID int64) (entity.Product, error)
	Reviews(ctx context.Context, productID int64) (entity.ReviewPage, error)
	Related(ctx context.Context, categoryID string, exclude int64) ([]entity.Product, error)
	Me(ctx context.Context) (entity.User, error)
	AddToCart(ctx context.Context, userID string, productID int64, quantity int) error
}

type ProductView interface {
	RenderProduct(d entity.ProductDetail)
}

type ProductOptions struct {
	API       ProductAPI
	View      ProductView
	Notifier  Notifier
	Navigator Navigator
	Bus       *Bus
	Timeout   time.Duration
}

// ProductPage is the product detail page.
type ProductPage struct {
	opts ProductOptions

	mu     sync.Mutex
	detail entity.ProductDetail
}

func NewProductPage(opts ProductOptions) *ProductPage {
	if opts.Timeout <= 0 {
		opts.Timeout = reconcile.DefaultTimeout
	}
	return &ProductPage{opts: opts}
}

// Load fetches the product with its reviews and related products. The
// product is required; reviews and related products are shown when they load.
func (p *ProductPage) Load(ctx context.Context, productID int64) (entity.ProductDetail, error) {
	ctx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	var (
		d   entity.ProductDetail
		dmu sync.Mutex
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		prod, err := p.opts.API.Product(gctx, productID)
		if err != nil {
			return err
		}
		var related []entity.Product
		if prod.CategoryID != "" {
			if related, err = p.opts.API.Related(gctx, prod.CategoryID, productID); err != nil {
				log.Printf("[PRODUCT] action=related product=%d msg=%v", productID, err)
				related = nil
			}
		}
		dmu.Lock()
		d.Product, d.Related = prod, related
		dmu.Unlock()
		return nil
	})
	g.Go(func() error {
		rv, err := p.opts.API.Reviews(gctx, productID)
		if err != nil {
			log.Printf("[PRODUCT] action=reviews product=%d msg=%v", productID, err)
			return nil
		}
		dmu.Lock()
		d.Reviews = rv
		dmu.Unlock()
		return nil
	})
	if err := g.Wait(); err != nil {
		report(p.opts.Notifier, p.opts.Navigator, err)
		return entity.ProductDetail{}, err
	}

	p.mu.Lock()
	p.detail = d
	p.mu.Unlock()
	p.opts.View.RenderProduct(d)
	return d, nil
}

// AddToCart adds quantity units of the loaded product.
func (p *ProductPage) AddToCart(ctx context.Context, quantity int) error {
	if quantity < entity.MinQuantity {
		quantity = entity.MinQuantity
	}
	return addToCart(ctx, p.opts.API, p.opts.Notifier, p.opts.Navigator, p.opts.Bus, p.productID(), quantity)
}

// BuyNow adds the product and goes to the cart.
func (p *ProductPage) BuyNow(ctx context.Context, quantity int) error {
	if err := p.AddToCart(ctx, quantity); err != nil {
		return err
	}
	if p.opts.Navigator != nil {
		p.opts.Navigator.Navigate(CartURL)
	}
	return nil
}

func (p *ProductPage) productID() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.detail.Product.ProductID
}

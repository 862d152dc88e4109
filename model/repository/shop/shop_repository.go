package shop

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	shopEntity "storefront.GO/model/entity/shop"
)

var (
	ErrNotFound       = errors.New("not found")
	ErrEmptyCart      = errors.New("購物車為空，無法結帳")
	ErrNotCancellable = errors.New("此訂單目前無法取消")
)

// StockError reports a product that cannot cover the requested quantity.
type StockError struct {
	Name string
}

func (e *StockError) Error() string {
	return fmt.Sprintf("商品 [%s] 庫存不足，無法結帳！", e.Name)
}

// MaxQuantity caps one cart line.
const MaxQuantity = 99

type ShopRepository struct {
	db *gorm.DB
}

func NewShopRepository(db *gorm.DB) *ShopRepository {
	return &ShopRepository{db: db}
}

// Migrate creates or updates every shop table.
func (r *ShopRepository) Migrate() error {
	return r.db.AutoMigrate(shopEntity.All()...)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// --- customers and sessions ---

// FindSessionUser returns the customer owning a non-revoked session token.
func (r *ShopRepository) FindSessionUser(token string) (*shopEntity.Customer, error) {
	var s shopEntity.Session
	if err := r.db.Where("token = ? AND revoked = ?", token, false).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return r.Customer(s.UserID)
}

func (r *ShopRepository) Customer(userID string) (*shopEntity.Customer, error) {
	var c shopEntity.Customer
	if err := r.db.Where("user_id = ?", userID).First(&c).Error; err != nil {
		return nil, notFound(err)
	}
	return &c, nil
}

// --- catalog ---

// SearchFilter mirrors the storefront search parameters. Page is zero-based.
type SearchFilter struct {
	MainCategory string
	SubCategory  string
	MinPrice     *int64
	MaxPrice     *int64
	Keyword      string
	Page         int
	Size         int
	Sort         string
}

var sortOrders = map[string]string{
	"latest":     "created_at DESC",
	"priceAsc":   "price ASC",
	"priceDesc":  "price DESC",
	"ratingAsc":  "rating ASC",
	"ratingDesc": "rating DESC",
}

// SearchProducts returns one page of matching products and the total match count.
// A sub category wins over its main category.
func (r *ShopRepository) SearchProducts(f SearchFilter) ([]shopEntity.Product, int64, error) {
	q := r.db.Model(&shopEntity.Product{})
	switch {
	case f.SubCategory != "":
		q = q.Where("category_id = ?", f.SubCategory)
	case f.MainCategory != "":
		q = q.Where("main_category = ?", f.MainCategory)
	}
	if f.MinPrice != nil {
		q = q.Where("price >= ?", *f.MinPrice)
	}
	if f.MaxPrice != nil {
		q = q.Where("price <= ?", *f.MaxPrice)
	}
	if kw := strings.TrimSpace(f.Keyword); kw != "" {
		like := "%" + kw + "%"
		q = q.Where("pname LIKE ? OR description LIKE ?", like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if f.Size <= 0 {
		f.Size = 12
	}
	if f.Page < 0 {
		f.Page = 0
	}
	order := "product_id ASC"
	if o, ok := sortOrders[f.Sort]; ok {
		order = o + ", product_id ASC"
	}
	var products []shopEntity.Product
	err := q.Order(order).Limit(f.Size).Offset(f.Page * f.Size).Find(&products).Error
	return products, total, err
}

// MainCategories lists the categories without a parent.
func (r *ShopRepository) MainCategories() ([]shopEntity.Category, error) {
	var cats []shopEntity.Category
	err := r.db.Where("parent_code = ?", "").Order("position ASC, code ASC").Find(&cats).Error
	return cats, err
}

// CategoryCount is a sub category with the number of products in it.
type CategoryCount struct {
	shopEntity.Category
	Count int
}

// SubCategories lists the children of main with their product counts.
func (r *ShopRepository) SubCategories(main string) ([]CategoryCount, error) {
	var cats []shopEntity.Category
	if err := r.db.Where("parent_code = ?", main).Order("position ASC, code ASC").Find(&cats).Error; err != nil {
		return nil, err
	}
	out := make([]CategoryCount, 0, len(cats))
	if len(cats) == 0 {
		return out, nil
	}
	codes := make([]string, len(cats))
	for i, c := range cats {
		codes[i] = c.Code
	}
	type row struct {
		CategoryID string
		N          int
	}
	var rows []row
	if err := r.db.Model(&shopEntity.Product{}).
		Select("category_id, COUNT(*) AS n").
		Where("category_id IN ?", codes).
		Group("category_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(rows))
	for _, rw := range rows {
		counts[rw.CategoryID] = rw.N
	}
	for _, c := range cats {
		out = append(out, CategoryCount{Category: c, Count: counts[c.Code]})
	}
	return out, nil
}

func (r *ShopRepository) Product(id int64) (*shopEntity.Product, error) {
	var p shopEntity.Product
	if err := r.db.Where("product_id = ?", id).First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// Reviews returns one page of reviews, newest first, and the page count.
func (r *ShopRepository) Reviews(productID int64, page, size int) ([]shopEntity.Review, int, error) {
	if size <= 0 {
		size = 5
	}
	if page < 0 {
		page = 0
	}
	q := r.db.Model(&shopEntity.Review{}).Where("product_id = ?", productID).Session(&gorm.Session{})
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var reviews []shopEntity.Review
	err := q.Order("review_id DESC").Limit(size).Offset(page * size).Find(&reviews).Error
	pages := int((total + int64(size) - 1) / int64(size))
	return reviews, pages, err
}

// Related returns up to limit products of the same sub category, excluding one.
func (r *ShopRepository) Related(categoryID string, exclude int64, limit int) ([]shopEntity.Product, error) {
	if limit <= 0 {
		limit = 4
	}
	var products []shopEntity.Product
	err := r.db.Where("category_id = ? AND product_id <> ?", categoryID, exclude).
		Order("rating DESC, product_id ASC").Limit(limit).Find(&products).Error
	return products, err
}

// --- cart ---

// Cart returns the user's lines with their products, oldest first.
func (r *ShopRepository) Cart(userID string) ([]shopEntity.CartItem, error) {
	var items []shopEntity.CartItem
	err := r.db.Preload("Product").Where("user_id = ?", userID).Order("cart_id ASC").Find(&items).Error
	return items, err
}

// AddToCart adds quantity to the user's line for productID, creating it when
// missing. The line is capped at MaxQuantity and at the product stock.
func (r *ShopRepository) AddToCart(userID string, productID int64, quantity int) (*shopEntity.CartItem, error) {
	var out shopEntity.CartItem
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var p shopEntity.Product
		if err := tx.Where("product_id = ?", productID).First(&p).Error; err != nil {
			return notFound(err)
		}
		var line shopEntity.CartItem
		err := tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&line).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			line = shopEntity.CartItem{UserID: userID, ProductID: productID}
		case err != nil:
			return err
		}
		next := line.Quantity + quantity
		if next > MaxQuantity {
			next = MaxQuantity
		}
		if next > p.Stock {
			return &StockError{Name: p.Name}
		}
		line.Quantity = next
		if err := tx.Save(&line).Error; err != nil {
			return err
		}
		line.Product = p
		out = line
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateQuantity sets one of the user's lines to quantity. Zero only checks
// ownership; the row stays until it is deleted.
func (r *ShopRepository) UpdateQuantity(userID string, cartID int64, quantity int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var line shopEntity.CartItem
		if err := tx.Preload("Product").Where("cart_id = ? AND user_id = ?", cartID, userID).First(&line).Error; err != nil {
			return notFound(err)
		}
		if quantity == 0 {
			return nil
		}
		if quantity > line.Product.Stock {
			return &StockError{Name: line.Product.Name}
		}
		return tx.Model(&shopEntity.CartItem{}).Where("cart_id = ?", cartID).Update("quantity", quantity).Error
	})
}

// DeleteCartItem removes one of the user's lines.
func (r *ShopRepository) DeleteCartItem(userID string, cartID int64) error {
	res := r.db.Where("cart_id = ? AND user_id = ?", cartID, userID).Delete(&shopEntity.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- orders ---

// CreateOrder turns the user's cart into an order. Stock is taken in
// product order; any shortage rolls the whole order back. A repeated
// idempotency key returns the order created the first time.
func (r *ShopRepository) CreateOrder(userID string, ship shopEntity.OrderShipping, paymentMethod, idempotencyKey string) (*shopEntity.Order, error) {
	if idempotencyKey != "" {
		var prev shopEntity.Order
		err := r.db.Where("user_id = ? AND idempotency_key = ?", userID, idempotencyKey).First(&prev).Error
		if err == nil {
			return &prev, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	var order shopEntity.Order
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var items []shopEntity.CartItem
		if err := tx.Preload("Product").Where("user_id = ?", userID).Order("product_id ASC").Find(&items).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return ErrEmptyCart
		}

		lines := make([]shopEntity.OrderLine, 0, len(items))
		var total int64
		for _, it := range items {
			res := tx.Model(&shopEntity.Product{}).
				Where("product_id = ? AND stock >= ?", it.ProductID, it.Quantity).
				Update("stock", gorm.Expr("stock - ?", it.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return &StockError{Name: it.Product.Name}
			}
			total += it.Product.Price * int64(it.Quantity)
			lines = append(lines, shopEntity.OrderLine{
				ProductID: it.ProductID,
				Name:      it.Product.Name,
				Quantity:  it.Quantity,
				UnitPrice: it.Product.Price,
			})
		}
		raw, err := json.Marshal(lines)
		if err != nil {
			return err
		}

		order = shopEntity.Order{
			UserID:         userID,
			OrderDate:      time.Now(),
			TotalAmount:    total,
			Status:         shopEntity.StatusPending,
			PaymentMethod:  paymentMethod,
			ShipmentStatus: shopEntity.ShipmentPending,
			Shipping:       datatypes.NewJSONType(ship),
			Lines:          datatypes.JSON(raw),
			IdempotencyKey: idempotencyKey,
		}
		if err := tx.Create(&order).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ?", userID).Delete(&shopEntity.CartItem{}).Error
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// Order returns one of the user's orders.
func (r *ShopRepository) Order(userID string, orderID int64) (*shopEntity.Order, error) {
	var o shopEntity.Order
	if err := r.db.Where("order_id = ? AND user_id = ?", orderID, userID).First(&o).Error; err != nil {
		return nil, notFound(err)
	}
	return &o, nil
}

// Orders lists the user's orders, newest first.
func (r *ShopRepository) Orders(userID string) ([]shopEntity.Order, error) {
	var orders []shopEntity.Order
	err := r.db.Where("user_id = ?", userID).Order("order_date DESC, order_id DESC").Find(&orders).Error
	return orders, err
}

// SetTradeNo records the gateway trade number issued for an order.
func (r *ShopRepository) SetTradeNo(orderID int64, tradeNo string) error {
	return r.db.Model(&shopEntity.Order{}).Where("order_id = ?", orderID).Update("trade_no", tradeNo).Error
}

// MarkPaid moves the pending order carrying tradeNo to PAID. Repeated
// notifications for a paid order are accepted.
func (r *ShopRepository) MarkPaid(tradeNo string) (*shopEntity.Order, error) {
	var o shopEntity.Order
	if err := r.db.Where("trade_no = ?", tradeNo).First(&o).Error; err != nil {
		return nil, notFound(err)
	}
	switch o.Status {
	case shopEntity.StatusPaid:
		return &o, nil
	case shopEntity.StatusPending, shopEntity.StatusCreated:
	default:
		return nil, ErrNotCancellable
	}
	if err := r.db.Model(&o).Update("order_status", shopEntity.StatusPaid).Error; err != nil {
		return nil, err
	}
	o.Status = shopEntity.StatusPaid
	return &o, nil
}

// OrderLines decodes the item snapshot of o.
func OrderLines(o *shopEntity.Order) ([]shopEntity.OrderLine, error) {
	var lines []shopEntity.OrderLine
	if len(o.Lines) == 0 {
		return lines, nil
	}
	err := json.Unmarshal(o.Lines, &lines)
	return lines, err
}

// CancelOrder cancels an order that has not shipped yet and returns its
// stock.
func (r *ShopRepository) CancelOrder(userID string, orderID int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var o shopEntity.Order
		if err := tx.Where("order_id = ? AND user_id = ?", orderID, userID).First(&o).Error; err != nil {
			return notFound(err)
		}
		switch o.Status {
		case shopEntity.StatusPending, shopEntity.StatusCreated, shopEntity.StatusPaid:
		default:
			return ErrNotCancellable
		}
		if o.ShipmentStatus != "" && o.ShipmentStatus != shopEntity.ShipmentPending {
			return ErrNotCancellable
		}
		lines, err := OrderLines(&o)
		if err != nil {
			return err
		}
		for _, l := range lines {
			if err := tx.Model(&shopEntity.Product{}).Where("product_id = ?", l.ProductID).
				Update("stock", gorm.Expr("stock + ?", l.Quantity)).Error; err != nil {
				return err
			}
		}
		return tx.Model(&shopEntity.Order{}).Where("order_id = ?", orderID).
			Update("order_status", shopEntity.StatusCancelled).Error
	})
}

// --- wishlist ---

func (r *ShopRepository) Wishlist(userID string) ([]shopEntity.WishlistItem, error) {
	var items []shopEntity.WishlistItem
	err := r.db.Preload("Product").Where("user_id = ?", userID).Order("id ASC").Find(&items).Error
	return items, err
}

// AddWishlist saves productID; saving it twice is not an error.
func (r *ShopRepository) AddWishlist(userID string, productID int64) error {
	if _, err := r.Product(productID); err != nil {
		return err
	}
	return r.db.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&shopEntity.WishlistItem{UserID: userID, ProductID: productID}).Error
}

func (r *ShopRepository) RemoveWishlist(userID string, productID int64) error {
	res := r.db.Where("user_id = ? AND product_id = ?", userID, productID).Delete(&shopEntity.WishlistItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

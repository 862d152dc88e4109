package shop

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"storefront.GO/api"
	"storefront.GO/core/auth"
	"storefront.GO/model/entity"
	shopEntity "storefront.GO/model/entity/shop"
	shopRepo "storefront.GO/model/repository/shop"
)

func init() {
	api.RegisterModule("shop", RegisterShopRoutes)
}

// RegisterShopRoutes serves the commerce API the storefront client talks to.
// Catalog reads are public (see config.GetAuthSkipperPaths); everything
// else runs as the session user.
func RegisterShopRoutes(apiGroup *echo.Group, db *gorm.DB) {
	h := &handler{repo: shopRepo.NewShopRepository(db), pay: LoadPaymentConfig()}

	apiGroup.GET("/user/me", h.me)

	apiGroup.GET("/products/search", h.search)
	apiGroup.GET("/categories/main", h.mainCategories)
	apiGroup.GET("/categories/main/:code/sub", h.subCategories)
	apiGroup.GET("/product/:id", h.product)
	apiGroup.GET("/product/:id/reviews", h.reviews)
	apiGroup.GET("/product/related/:categoryId", h.related)

	apiGroup.GET("/cart/:userId", h.cart)
	apiGroup.POST("/cart/add", h.addToCart)
	apiGroup.PUT("/cart/quantity", h.updateQuantity)
	apiGroup.DELETE("/cart/:cartId", h.deleteCartItem)

	apiGroup.POST("/orders/checkout", h.checkout)
	apiGroup.POST("/ecpay/checkout/:orderId", h.paymentParams)
	apiGroup.POST("/ecpay/callback", h.paymentCallback)

	apiGroup.GET("/v1/orders", h.orders)
	apiGroup.PATCH("/v1/orders/:id/cancelOrder", h.cancelOrder)
	apiGroup.GET("/v1/wishList", h.wishlist)
	apiGroup.POST("/v1/wishList/items", h.addWishlist)
	apiGroup.DELETE("/v1/wishList/items/:id", h.removeWishlist)
}

type handler struct {
	repo *shopRepo.ShopRepository
	pay  PaymentConfig
}

func message(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"message": msg})
}

// fail maps repository errors to the status codes the client relies on.
func fail(c echo.Context, err error) error {
	var stock *shopRepo.StockError
	switch {
	case errors.As(err, &stock):
		return message(c, http.StatusBadRequest, stock.Error())
	case errors.Is(err, shopRepo.ErrNotFound):
		return message(c, http.StatusNotFound, "找不到資料")
	case errors.Is(err, shopRepo.ErrEmptyCart), errors.Is(err, shopRepo.ErrNotCancellable):
		return message(c, http.StatusBadRequest, err.Error())
	default:
		log.Printf("[SHOP] action=%s %s msg=%v", c.Request().Method, c.Path(), err)
		return message(c, http.StatusInternalServerError, "系統發生錯誤，請稍後再試")
	}
}

func paramID(c echo.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func (h *handler) me(c echo.Context) error {
	cust, err := h.repo.Customer(auth.UserID(c))
	if err != nil {
		if errors.Is(err, shopRepo.ErrNotFound) {
			return message(c, http.StatusUnauthorized, "請先登入")
		}
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, entity.User{UserID: cust.UserID, Name: cust.Name, Email: cust.Email, Address: cust.Address})
}

// --- catalog ---

func queryInt(c echo.Context, name string, def int) int {
	if v, err := strconv.Atoi(c.QueryParam(name)); err == nil {
		return v
	}
	return def
}

func queryPrice(c echo.Context, name string) *int64 {
	v, err := strconv.ParseInt(c.QueryParam(name), 10, 64)
	if err != nil || v < 0 {
		return nil
	}
	return &v
}

func (h *handler) search(c echo.Context) error {
	f := shopRepo.SearchFilter{
		MainCategory: c.QueryParam("mainCategory"),
		SubCategory:  c.QueryParam("subCategory"),
		MinPrice:     queryPrice(c, "minPrice"),
		MaxPrice:     queryPrice(c, "maxPrice"),
		Keyword:      c.QueryParam("keyword"),
		Page:         queryInt(c, "page", 0),
		Size:         queryInt(c, "size", entity.DefaultPageSize),
		Sort:         c.QueryParam("sort"),
	}
	if f.Size <= 0 {
		f.Size = entity.DefaultPageSize
	}
	if f.Page < 0 {
		f.Page = 0
	}
	products, total, err := h.repo.SearchProducts(f)
	if err != nil {
		return fail(c, err)
	}
	if f.Keyword != "" && total == 0 {
		log.Printf("[SHOP] action=search keyword=%q msg=no results", f.Keyword)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"content": products,
		"page": entity.PageMeta{
			Number:        f.Page,
			Size:          f.Size,
			TotalPages:    int((total + int64(f.Size) - 1) / int64(f.Size)),
			TotalElements: total,
		},
	})
}

func (h *handler) mainCategories(c echo.Context) error {
	cats, err := h.repo.MainCategories()
	if err != nil {
		return fail(c, err)
	}
	out := make([]entity.Category, 0, len(cats))
	for _, cat := range cats {
		out = append(out, entity.Category{Code: cat.Code, Name: cat.Name})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *handler) subCategories(c echo.Context) error {
	cats, err := h.repo.SubCategories(c.Param("code"))
	if err != nil {
		return fail(c, err)
	}
	out := make([]entity.Category, 0, len(cats))
	for _, cat := range cats {
		n := cat.Count
		out = append(out, entity.Category{Code: cat.Code, Name: cat.Name, Count: &n})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *handler) product(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return message(c, http.StatusBadRequest, "Invalid product ID")
	}
	p, err := h.repo.Product(id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *handler) reviews(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return message(c, http.StatusBadRequest, "Invalid product ID")
	}
	page := queryInt(c, "page", 0)
	reviews, pages, err := h.repo.Reviews(id, page, queryInt(c, "size", 5))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"reviews": reviews, "currentPage": page, "totalPages": pages})
}

func (h *handler) related(c echo.Context) error {
	exclude, _ := strconv.ParseInt(c.QueryParam("exclude"), 10, 64)
	products, err := h.repo.Related(c.Param("categoryId"), exclude, 4)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, products)
}

// --- cart ---

func (h *handler) cart(c echo.Context) error {
	userID := auth.UserID(c)
	if c.Param("userId") != userID {
		return message(c, http.StatusForbidden, "無權限查看此購物車")
	}
	items, err := h.repo.Cart(userID)
	if err != nil {
		return fail(c, err)
	}
	var addr string
	if cust, err := h.repo.Customer(userID); err == nil {
		addr = cust.Address
	}
	out := make([]entity.LineItem, 0, len(items))
	for _, it := range items {
		out = append(out, entity.LineItem{
			CartID:        it.CartID,
			ProductID:     it.ProductID,
			Name:          it.Product.Name,
			Image:         it.Product.Image,
			Specification: it.Specification,
			UnitPrice:     it.Product.Price,
			Quantity:      it.Quantity,
			Address:       addr,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *handler) addToCart(c echo.Context) error {
	var req entity.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, err.Error())
	}
	userID := auth.UserID(c)
	if req.UserID != "" && req.UserID != userID {
		return message(c, http.StatusForbidden, "無權限修改此購物車")
	}
	if req.Quantity < entity.MinQuantity {
		req.Quantity = entity.MinQuantity
	}
	if _, err := h.repo.AddToCart(userID, req.ProductID, req.Quantity); err != nil {
		return fail(c, err)
	}
	return message(c, http.StatusOK, "已加入購物車")
}

func (h *handler) updateQuantity(c echo.Context) error {
	var req entity.UpdateQuantityRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, err.Error())
	}
	// 0 marks the line for removal; the client deletes it next
	if req.Quantity < 0 || req.Quantity > entity.MaxQuantity {
		return message(c, http.StatusBadRequest, "數量必須介於 0 到 99 之間")
	}
	if err := h.repo.UpdateQuantity(auth.UserID(c), req.CartID, req.Quantity); err != nil {
		return fail(c, err)
	}
	return message(c, http.StatusOK, "更新成功")
}

func (h *handler) deleteCartItem(c echo.Context) error {
	id, ok := paramID(c, "cartId")
	if !ok {
		return message(c, http.StatusBadRequest, "Invalid cart ID")
	}
	if err := h.repo.DeleteCartItem(auth.UserID(c), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// --- orders ---

func (h *handler) checkout(c echo.Context) error {
	var req entity.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, err.Error())
	}
	userID := auth.UserID(c)
	if req.UserID != userID {
		return message(c, http.StatusForbidden, "無權限結帳")
	}
	ship := shopEntity.OrderShipping{
		LogisticsType:    req.LogisticsType,
		LogisticsSubType: req.LogisticsSubType,
		Address:          strings.TrimSpace(req.Address),
		StoreID:          req.StoreID,
		StoreName:        req.StoreName,
	}
	switch ship.LogisticsType {
	case entity.LogisticsCVS:
		if ship.StoreID == "" {
			return message(c, http.StatusBadRequest, "超商取貨必須選擇取貨門市")
		}
	default:
		ship.LogisticsType = entity.LogisticsHome
		if ship.Address == "" {
			return message(c, http.StatusBadRequest, "請輸入配送地址")
		}
	}
	order, err := h.repo.CreateOrder(userID, ship, req.PaymentMethod, c.Request().Header.Get("Idempotency-Key"))
	if err != nil {
		return fail(c, err)
	}
	log.Printf("[SHOP] action=checkout user=%s order_id=%d total=%d", userID, order.OrderID, order.TotalAmount)
	return c.JSON(http.StatusOK, echo.Map{"orderId": order.OrderID, "totalAmount": order.TotalAmount})
}

func (h *handler) paymentParams(c echo.Context) error {
	id, ok := paramID(c, "orderId")
	if !ok {
		return message(c, http.StatusBadRequest, "Invalid order ID")
	}
	order, err := h.repo.Order(auth.UserID(c), id)
	if err != nil {
		return fail(c, err)
	}
	lines, err := shopRepo.OrderLines(order)
	if err != nil {
		return fail(c, err)
	}
	form := h.pay.CheckoutForm(order, lines)
	if err := h.repo.SetTradeNo(order.OrderID, form["MerchantTradeNo"]); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, form)
}

// paymentCallback receives the gateway's server-side notification. The
// gateway expects the plain text "1|OK" once the notification is accepted.
func (h *handler) paymentCallback(c echo.Context) error {
	form, err := c.FormParams()
	if err != nil {
		return c.String(http.StatusBadRequest, "0|invalid form")
	}
	params := make(entity.PaymentParams, len(form))
	for k := range form {
		params[k] = form.Get(k)
	}
	if !h.pay.Verify(params) {
		log.Printf("[SHOP] action=payment_callback trade_no=%s msg=check value mismatch", params["MerchantTradeNo"])
		return c.String(http.StatusBadRequest, "0|CheckMacValue error")
	}
	if params["RtnCode"] != "1" {
		log.Printf("[SHOP] action=payment_callback trade_no=%s rtn=%s msg=%s", params["MerchantTradeNo"], params["RtnCode"], params["RtnMsg"])
		return c.String(http.StatusOK, "1|OK")
	}
	order, err := h.repo.MarkPaid(params["MerchantTradeNo"])
	if err != nil {
		log.Printf("[SHOP] action=payment_callback trade_no=%s msg=%v", params["MerchantTradeNo"], err)
		return c.String(http.StatusOK, "0|order not found")
	}
	log.Printf("[SHOP] action=payment_callback order_id=%d msg=paid", order.OrderID)
	return c.String(http.StatusOK, "1|OK")
}

func (h *handler) orders(c echo.Context) error {
	orders, err := h.repo.Orders(auth.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	out := make([]entity.Order, 0, len(orders))
	for _, o := range orders {
		out = append(out, entity.Order{
			OrderID:        o.OrderID,
			OrderDate:      o.OrderDate.Format("2006-01-02 15:04"),
			TotalAmount:    o.TotalAmount,
			Status:         o.Status,
			StatusDisplay:  shopEntity.StatusDisplay[o.Status],
			PaymentMethod:  o.PaymentMethod,
			ShipmentStatus: o.ShipmentStatus,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *handler) cancelOrder(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return message(c, http.StatusBadRequest, "Invalid order ID")
	}
	if err := h.repo.CancelOrder(auth.UserID(c), id); err != nil {
		return fail(c, err)
	}
	return message(c, http.StatusOK, "訂單已取消")
}

// --- wishlist ---

func (h *handler) wishlist(c echo.Context) error {
	items, err := h.repo.Wishlist(auth.UserID(c))
	if err != nil {
		return fail(c, err)
	}
	out := make([]entity.WishlistItem, 0, len(items))
	for _, it := range items {
		out = append(out, entity.WishlistItem{
			ProductID:   it.ProductID,
			Name:        it.Product.Name,
			Image:       it.Product.Image,
			Description: it.Product.Description,
			Price:       it.Product.Price,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (h *handler) addWishlist(c echo.Context) error {
	var req struct {
		ProductID int64 `json:"productId"`
	}
	if err := c.Bind(&req); err != nil {
		return message(c, http.StatusBadRequest, err.Error())
	}
	if err := h.repo.AddWishlist(auth.UserID(c), req.ProductID); err != nil {
		return fail(c, err)
	}
	return message(c, http.StatusOK, "已加入收藏清單")
}

func (h *handler) removeWishlist(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return message(c, http.StatusBadRequest, "Invalid product ID")
	}
	if err := h.repo.RemoveWishlist(auth.UserID(c), id); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

package shop_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	shopApi "storefront.GO/api/shop"
	"storefront.GO/core/auth"
	"storefront.GO/model/entity"
	shopRepo "storefront.GO/model/repository/shop"
)

func shopTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, shopRepo.NewShopRepository(db).Migrate())
	require.NoError(t, shopRepo.Seed(db))
	return db
}

func newShopServer(t *testing.T) *echo.Echo {
	t.Helper()
	db := shopTestDB(t)
	e := echo.New()
	api := e.Group("/api", auth.Middleware(db))
	shopApi.RegisterShopRoutes(api, db)
	return e
}

func call(e *echo.Echo, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(auth.SessionHeader, token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	var m struct {
		Message string `json:"message"`
	}
	decode(t, rec, &m)
	return m.Message
}

func TestShopAPI_SessionAuth(t *testing.T) {
	e := newShopServer(t)

	rec := call(e, http.MethodGet, "/api/user/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "請先登入", messageOf(t, rec))

	rec = call(e, http.MethodGet, "/api/user/me", shopRepo.DemoTokenRevoked, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(e, http.MethodGet, "/api/user/me", shopRepo.DemoToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var u entity.User
	decode(t, rec, &u)
	assert.Equal(t, "u1", u.UserID)
	assert.Equal(t, "Amy", u.Name)
}

func TestShopAPI_SearchIsPublic(t *testing.T) {
	e := newShopServer(t)

	rec := call(e, http.MethodGet, "/api/products/search?mainCategory=SOFA&size=2&page=0&sort=priceAsc", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var res entity.SearchResult
	decode(t, rec, &res)
	require.Len(t, res.Content, 2)
	assert.Equal(t, int64(4), res.Content[0].ProductID)
	assert.Equal(t, entity.PageMeta{Number: 0, Size: 2, TotalPages: 2, TotalElements: 3}, res.Page)

	rec = call(e, http.MethodGet, "/api/products/search?keyword=nothing", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &res)
	assert.Empty(t, res.Content)
	assert.Equal(t, 0, res.Page.TotalPages)
}

func TestShopAPI_Categories(t *testing.T) {
	e := newShopServer(t)

	var mains []entity.Category
	rec := call(e, http.MethodGet, "/api/categories/main", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &mains)
	require.Len(t, mains, 2)
	assert.Equal(t, "沙發", mains[0].Name)
	assert.Nil(t, mains[0].Count)

	var subs []entity.Category
	rec = call(e, http.MethodGet, "/api/categories/main/SOFA/sub", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &subs)
	require.Len(t, subs, 2)
	require.NotNil(t, subs[1].Count)
	assert.Equal(t, 2, *subs[1].Count)
}

func TestShopAPI_Product(t *testing.T) {
	e := newShopServer(t)

	rec := call(e, http.MethodGet, "/api/product/3", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var p entity.Product
	decode(t, rec, &p)
	assert.Equal(t, "Walnut Bed", p.Name)
	assert.Equal(t, "DOUBLE", p.CategoryID)

	assert.Equal(t, http.StatusBadRequest, call(e, http.MethodGet, "/api/product/abc", "", nil).Code)
	assert.Equal(t, http.StatusNotFound, call(e, http.MethodGet, "/api/product/99", "", nil).Code)

	rec = call(e, http.MethodGet, "/api/product/3/reviews", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page entity.ReviewPage
	decode(t, rec, &page)
	assert.Len(t, page.Reviews, 2)
	assert.Equal(t, 1, page.TotalPages)

	rec = call(e, http.MethodGet, "/api/product/related/FABRIC?exclude=4", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var related []entity.Product
	decode(t, rec, &related)
	require.Len(t, related, 1)
	assert.Equal(t, int64(2), related[0].ProductID)
}

func TestShopAPI_Cart(t *testing.T) {
	e := newShopServer(t)

	rec := call(e, http.MethodGet, "/api/cart/u1", shopRepo.DemoToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var items []entity.LineItem
	decode(t, rec, &items)
	require.Len(t, items, 2)
	assert.Equal(t, "Oak Leather Sofa", items[0].Name)
	assert.Equal(t, int64(32000), items[0].UnitPrice)
	assert.Equal(t, "台北市信義區松仁路100號", items[0].Address)
	assert.Contains(t, rec.Body.String(), `"cartid"`)

	assert.Equal(t, http.StatusForbidden, call(e, http.MethodGet, "/api/cart/u1", shopRepo.DemoTokenOther, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, call(e, http.MethodGet, "/api/cart/u1", "", nil).Code)

	// zero is accepted and leaves the row for the follow-up delete
	rec = call(e, http.MethodPut, "/api/cart/quantity", shopRepo.DemoToken, entity.UpdateQuantityRequest{CartID: items[1].CartID, Quantity: 0})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = call(e, http.MethodGet, "/api/cart/u1", shopRepo.DemoToken, nil)
	var afterZero []entity.LineItem
	decode(t, rec, &afterZero)
	require.Len(t, afterZero, 2)
	assert.Equal(t, 2, afterZero[1].Quantity)

	rec = call(e, http.MethodPut, "/api/cart/quantity", shopRepo.DemoToken, entity.UpdateQuantityRequest{CartID: items[1].CartID, Quantity: -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = call(e, http.MethodPut, "/api/cart/quantity", shopRepo.DemoToken, entity.UpdateQuantityRequest{CartID: items[1].CartID, Quantity: 100})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(e, http.MethodPut, "/api/cart/quantity", shopRepo.DemoToken, entity.UpdateQuantityRequest{CartID: items[1].CartID, Quantity: 11})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "商品 [Fabric Sofa] 庫存不足，無法結帳！", messageOf(t, rec))

	rec = call(e, http.MethodPut, "/api/cart/quantity", shopRepo.DemoToken, entity.UpdateQuantityRequest{CartID: items[1].CartID, Quantity: 3})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(e, http.MethodPost, "/api/cart/add", shopRepo.DemoToken, entity.AddToCartRequest{UserID: "u1", ProductID: 5, Quantity: 1})
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = call(e, http.MethodPost, "/api/cart/add", shopRepo.DemoToken, entity.AddToCartRequest{UserID: "u1", ProductID: 4, Quantity: 1})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "sold out product")

	path := "/api/cart/" + strconv.FormatInt(items[0].CartID, 10)
	assert.Equal(t, http.StatusNoContent, call(e, http.MethodDelete, path, shopRepo.DemoToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, call(e, http.MethodDelete, path, shopRepo.DemoToken, nil).Code)

	rec = call(e, http.MethodGet, "/api/cart/u1", shopRepo.DemoToken, nil)
	decode(t, rec, &items)
	require.Len(t, items, 2)
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, int64(5), items[1].ProductID)
}

func checkoutRequest(e *echo.Echo, token, key string, req entity.CheckoutRequest) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(req)
	r := httptest.NewRequest(http.MethodPost, "/api/orders/checkout", bytes.NewReader(raw))
	r.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	r.Header.Set(auth.SessionHeader, token)
	if key != "" {
		r.Header.Set("Idempotency-Key", key)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, r)
	return rec
}

func TestShopAPI_Checkout(t *testing.T) {
	e := newShopServer(t)
	home := entity.CheckoutRequest{UserID: "u1", PaymentMethod: entity.PaymentCredit, LogisticsType: entity.LogisticsHome}

	rec := checkoutRequest(e, shopRepo.DemoToken, "", home)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "home delivery needs an address")

	cvs := entity.CheckoutRequest{UserID: "u1", PaymentMethod: entity.PaymentCredit, LogisticsType: entity.LogisticsCVS}
	assert.Equal(t, http.StatusBadRequest, checkoutRequest(e, shopRepo.DemoToken, "", cvs).Code, "cvs needs a store")

	assert.Equal(t, http.StatusForbidden, checkoutRequest(e, shopRepo.DemoTokenOther, "", home).Code)

	home.Address = "台北市"
	rec = checkoutRequest(e, shopRepo.DemoToken, "k1", home)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp entity.CheckoutResponse
	decode(t, rec, &resp)
	assert.NotZero(t, resp.OrderID)

	rec = checkoutRequest(e, shopRepo.DemoToken, "k1", home)
	require.Equal(t, http.StatusOK, rec.Code)
	var replay entity.CheckoutResponse
	decode(t, rec, &replay)
	assert.Equal(t, resp.OrderID, replay.OrderID)

	rec = checkoutRequest(e, shopRepo.DemoToken, "k2", home)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "購物車為空，無法結帳", messageOf(t, rec))
}

func TestShopAPI_PaymentAndCallback(t *testing.T) {
	e := newShopServer(t)
	rec := checkoutRequest(e, shopRepo.DemoToken, "", entity.CheckoutRequest{
		UserID: "u1", PaymentMethod: entity.PaymentCredit, LogisticsType: entity.LogisticsCVS, StoreID: "131386", StoreName: "建盛",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp entity.CheckoutResponse
	decode(t, rec, &resp)

	path := "/api/ecpay/checkout/" + strconv.FormatInt(resp.OrderID, 10)
	assert.Equal(t, http.StatusNotFound, call(e, http.MethodPost, path, shopRepo.DemoTokenOther, nil).Code)

	rec = call(e, http.MethodPost, path, shopRepo.DemoToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var params entity.PaymentParams
	decode(t, rec, &params)
	pay := shopApi.LoadPaymentConfig()
	assert.True(t, pay.Verify(params))
	assert.Equal(t, "68000", params["TotalAmount"])
	assert.Equal(t, "Oak Leather Sofa x 1#Fabric Sofa x 2", params["ItemName"])
	assert.True(t, strings.HasPrefix(params["MerchantTradeNo"], "TW"+strconv.FormatInt(resp.OrderID, 10)))

	notify := entity.PaymentParams{
		"MerchantID":      params["MerchantID"],
		"MerchantTradeNo": params["MerchantTradeNo"],
		"RtnCode":         "1",
		"RtnMsg":          "交易成功",
		"TradeAmt":        "68000",
	}
	notify["CheckMacValue"] = pay.CheckMacValue(notify)

	tampered := url.Values{}
	for k, v := range notify {
		tampered.Set(k, v)
	}
	tampered.Set("TradeAmt", "1")
	rec = postForm(e, "/api/ecpay/callback", tampered)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	form := url.Values{}
	for k, v := range notify {
		form.Set(k, v)
	}
	rec = postForm(e, "/api/ecpay/callback", form)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1|OK", rec.Body.String())

	var orders []entity.Order
	decode(t, call(e, http.MethodGet, "/api/v1/orders", shopRepo.DemoToken, nil), &orders)
	require.Len(t, orders, 1)
	assert.Equal(t, "PAID", orders[0].Status)
	assert.Equal(t, "已付款", orders[0].StatusDisplay)
}

func postForm(e *echo.Echo, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestShopAPI_OrdersAndWishlist(t *testing.T) {
	e := newShopServer(t)
	rec := checkoutRequest(e, shopRepo.DemoToken, "", entity.CheckoutRequest{
		UserID: "u1", Address: "台北市", PaymentMethod: entity.PaymentCredit, LogisticsType: entity.LogisticsHome,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp entity.CheckoutResponse
	decode(t, rec, &resp)

	var orders []entity.Order
	decode(t, call(e, http.MethodGet, "/api/v1/orders", shopRepo.DemoToken, nil), &orders)
	require.Len(t, orders, 1)
	assert.Equal(t, "待付款", orders[0].StatusDisplay)
	assert.True(t, orders[0].Cancellable())

	cancel := "/api/v1/orders/" + strconv.FormatInt(resp.OrderID, 10) + "/cancelOrder"
	assert.Equal(t, http.StatusOK, call(e, http.MethodPatch, cancel, shopRepo.DemoToken, nil).Code)
	rec = call(e, http.MethodPatch, cancel, shopRepo.DemoToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "此訂單目前無法取消", messageOf(t, rec))

	assert.Equal(t, http.StatusOK, call(e, http.MethodPost, "/api/v1/wishList/items", shopRepo.DemoToken, map[string]int64{"productId": 3}).Code)
	assert.Equal(t, http.StatusNotFound, call(e, http.MethodPost, "/api/v1/wishList/items", shopRepo.DemoToken, map[string]int64{"productId": 99}).Code)

	var wish []entity.WishlistItem
	decode(t, call(e, http.MethodGet, "/api/v1/wishList", shopRepo.DemoToken, nil), &wish)
	require.Len(t, wish, 1)
	assert.Equal(t, "Walnut Bed", wish[0].Name)

	assert.Equal(t, http.StatusNoContent, call(e, http.MethodDelete, "/api/v1/wishList/items/3", shopRepo.DemoToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, call(e, http.MethodDelete, "/api/v1/wishList/items/3", shopRepo.DemoToken, nil).Code)
}

func TestPaymentConfig_CheckMacValue(t *testing.T) {
	pay := shopApi.PaymentConfig{HashKey: "key", HashIV: "iv"}
	a := entity.PaymentParams{"b": "2", "A": "1", "ItemName": "Sofa x 1#Lamp (brass) x 2"}
	mac := pay.CheckMacValue(a)
	assert.Len(t, mac, 64)
	assert.Equal(t, strings.ToUpper(mac), mac)

	a["CheckMacValue"] = mac
	assert.Equal(t, mac, pay.CheckMacValue(a), "existing CheckMacValue is not signed")
	assert.True(t, pay.Verify(a))

	a["b"] = "3"
	assert.False(t, pay.Verify(a))
	assert.False(t, pay.Verify(entity.PaymentParams{"A": "1"}))
}

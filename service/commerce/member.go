package commerce

import (
	"context"
	"net/http"
	"sort"
	"strconv"

	"storefront.GO/model/entity"
)

// Orders lists the member's orders, newest first.
func (c *Client) Orders(ctx context.Context) ([]entity.Order, error) {
	var orders []entity.Order
	if err := c.do(ctx, call{op: "orders.list", method: http.MethodGet, path: "/v1/orders"}, &orders); err != nil {
		return nil, err
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].OrderDate > orders[j].OrderDate
	})
	return orders, nil
}

func (c *Client) CancelOrder(ctx context.Context, orderID int64) error {
	return c.do(ctx, call{
		op:       "orders.cancel",
		method:   http.MethodPatch,
		path:     "/v1/orders/" + strconv.FormatInt(orderID, 10) + "/cancelOrder",
		fallback: "系統錯誤",
	}, nil)
}

func (c *Client) Wishlist(ctx context.Context) ([]entity.WishlistItem, error) {
	var items []entity.WishlistItem
	err := c.do(ctx, call{op: "wishlist.list", method: http.MethodGet, path: "/v1/wishList"}, &items)
	return items, err
}

func (c *Client) AddWishlist(ctx context.Context, productID int64) error {
	return c.do(ctx, call{
		op:     "wishlist.add",
		method: http.MethodPost,
		path:   "/v1/wishList/items",
		body:   map[string]int64{"productId": productID},
	}, nil)
}

func (c *Client) RemoveWishlist(ctx context.Context, productID int64) error {
	return c.do(ctx, call{
		op:     "wishlist.remove",
		method: http.MethodDelete,
		path:   "/v1/wishList/items/" + strconv.FormatInt(productID, 10),
	}, nil)
}

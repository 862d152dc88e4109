package commerce

import (
	"context"
	"net/http"
	"strconv"

	"storefront.GO/core/errs"
	"storefront.GO/model/entity"
)

// Me resolves the current session identity.
func (c *Client) Me(ctx context.Context) (entity.User, error) {
	const op = "user.me"
	var u entity.User
	if err := c.do(ctx, call{op: op, method: http.MethodGet, path: "/user/me"}, &u); err != nil {
		return entity.User{}, err
	}
	if u.UserID == "" {
		return entity.User{}, errs.AuthRequired(op)
	}
	return u, nil
}

// GetCart loads the cart rows of userID.
func (c *Client) GetCart(ctx context.Context, userID string) (entity.CartState, error) {
	const op = "cart.get"
	if err := requireUser(op, userID); err != nil {
		return entity.CartState{}, err
	}
	var items []entity.LineItem
	err := c.do(ctx, call{op: op, method: http.MethodGet, path: "/cart/" + userID}, &items)
	if err != nil {
		return entity.CartState{}, err
	}
	return entity.CartState{UserID: userID, Items: items}, nil
}

func (c *Client) UpdateQuantity(ctx context.Context, cartID int64, quantity int) error {
	return c.do(ctx, call{
		op:     "cart.update_quantity",
		method: http.MethodPut,
		path:   "/cart/quantity",
		body:   entity.UpdateQuantityRequest{CartID: cartID, Quantity: quantity},
	}, nil)
}

func (c *Client) DeleteCartItem(ctx context.Context, cartID int64) error {
	return c.do(ctx, call{
		op:     "cart.delete",
		method: http.MethodDelete,
		path:   "/cart/" + strconv.FormatInt(cartID, 10),
	}, nil)
}

// AddToCart adds quantity units of productID to the cart of userID.
func (c *Client) AddToCart(ctx context.Context, userID string, productID int64, quantity int) error {
	const op = "cart.add"
	if err := requireUser(op, userID); err != nil {
		return err
	}
	return c.do(ctx, call{
		op:       op,
		method:   http.MethodPost,
		path:     "/cart/add",
		body:     entity.AddToCartRequest{UserID: userID, ProductID: productID, Quantity: quantity},
		fallback: "加入購物車失敗",
	}, nil)
}

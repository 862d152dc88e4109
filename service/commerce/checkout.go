package commerce

import (
	"context"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"storefront.GO/core/errs"
	"storefront.GO/model/entity"
)

const (
	// DefaultCheckoutRejection is shown when a 2xx checkout carries neither
	// an order id nor a message.
	DefaultCheckoutRejection = "庫存不足或訂單建立失敗，請稍後再試"
	// DefaultCheckoutFailure is shown when a failed checkout has no usable body.
	DefaultCheckoutFailure = "系統發生錯誤，請稍後再試"
	// PaymentUnreachable is shown when gateway parameters cannot be fetched.
	PaymentUnreachable = "無法連接綠界金流"
)

// Checkout creates an order. A 2xx response without an order id is a
// business rejection carrying the backend message verbatim.
func (c *Client) Checkout(ctx context.Context, req entity.CheckoutRequest) (int64, error) {
	const op = "orders.checkout"
	if err := requireUser(op, req.UserID); err != nil {
		return 0, err
	}
	var resp entity.CheckoutResponse
	status, body, err := c.send(ctx, call{
		op:       op,
		method:   http.MethodPost,
		path:     "/orders/checkout",
		body:     req,
		header:   map[string]string{"Idempotency-Key": uuid.NewString()},
		fallback: DefaultCheckoutFailure,
	})
	if err != nil {
		return 0, err
	}
	if len(body) > 0 {
		if jerr := decodeLenient(body, &resp); jerr != nil {
			// a 2xx with a non-JSON body still means no order was created
			resp.Message = MessageFromBody(body)
		}
	}
	if resp.OrderID == 0 {
		msg := resp.Message
		if msg == "" {
			msg = DefaultCheckoutRejection
		}
		return 0, errs.Business(op, status, msg)
	}
	return resp.OrderID, nil
}

// PaymentParams fetches the hidden form fields for the payment gateway.
func (c *Client) PaymentParams(ctx context.Context, orderID int64) (entity.PaymentParams, error) {
	const op = "ecpay.checkout"
	params := entity.PaymentParams{}
	err := c.do(ctx, call{
		op:     op,
		method: http.MethodPost,
		path:   "/ecpay/checkout/" + strconv.FormatInt(orderID, 10),
	}, &params)
	if err != nil {
		if e, ok := err.(*errs.Error); ok && e.Kind != errs.KindAuthRequired {
			e.Kind = errs.KindNetwork
			e.Message = PaymentUnreachable
		}
		return nil, err
	}
	if len(params) == 0 {
		return nil, &errs.Error{Kind: errs.KindNetwork, Op: op, Message: PaymentUnreachable}
	}
	return params, nil
}

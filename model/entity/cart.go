package entity

const (
	// MaxQuantity is the largest quantity a line item can hold.
	MaxQuantity = 99
	// MinQuantity is the smallest persisted quantity; 0 only signals pending removal.
	MinQuantity = 1
)

// LineItem is one row of the cart. Wire keys follow the backend's cart payload.
type LineItem struct {
	CartID        int64  `json:"cartid"`
	ProductID     int64  `json:"productid"`
	Name          string `json:"pname"`
	Image         string `json:"productimage,omitempty"`
	Specification string `json:"specification,omitempty"`
	UnitPrice     int64  `json:"price"`
	Quantity      int    `json:"quantity"`
	Address       string `json:"address,omitempty"`

	// DisplayIndex maps a rendered row back to state; not a business key.
	DisplayIndex int `json:"-"`
}

// Subtotal is derived, never stored.
func (li LineItem) Subtotal() int64 {
	return li.UnitPrice * int64(li.Quantity)
}

// PendingRemoval reports the transient quantity-0 state.
func (li LineItem) PendingRemoval() bool {
	return li.Quantity == 0
}

// CartState is the canonical cart page state.
type CartState struct {
	UserID string
	Items  []LineItem
	// Address is the delivery address the backend attaches to the first row.
	Address string
}

// Total is the sum of subtotals over all items.
func (s CartState) Total() int64 {
	var total int64
	for _, it := range s.Items {
		total += it.Subtotal()
	}
	return total
}

// Count is the number of units in the cart.
func (s CartState) Count() int {
	n := 0
	for _, it := range s.Items {
		n += it.Quantity
	}
	return n
}

// Find returns the item with cartID and its position.
func (s CartState) Find(cartID int64) (LineItem, int, bool) {
	for i, it := range s.Items {
		if it.CartID == cartID {
			return it, i, true
		}
	}
	return LineItem{}, -1, false
}

// Clone deep-copies the state.
func (s CartState) Clone() CartState {
	out := s
	if s.Items != nil {
		out.Items = make([]LineItem, len(s.Items))
		copy(out.Items, s.Items)
	}
	return out
}

// Reindex rewrites DisplayIndex to match slice order.
func (s *CartState) Reindex() {
	for i := range s.Items {
		s.Items[i].DisplayIndex = i
	}
}

// AddToCartRequest is the body of POST /cart/add.
type AddToCartRequest struct {
	UserID    string `json:"userId"`
	ProductID int64  `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// UpdateQuantityRequest is the body of PUT /cart/quantity.
type UpdateQuantityRequest struct {
	CartID   int64 `json:"cartId"`
	Quantity int   `json:"quantity"`
}

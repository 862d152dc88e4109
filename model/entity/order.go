package entity

// Logistics types accepted by checkout.
const (
	LogisticsHome = "HOME"
	LogisticsCVS  = "CVS"

	PaymentCredit = "Credit"
)

// StoreSelection is the convenience store picked on the logistics map.
type StoreSelection struct {
	StoreID string
	Name    string
	Address string
	SubType string
}

// Shipping is the shipping choice made on the cart page.
type Shipping struct {
	Type    string // LogisticsHome or LogisticsCVS
	Address string // home delivery address
	Store   StoreSelection
}

// CheckoutRequest is the body of POST /orders/checkout.
type CheckoutRequest struct {
	UserID           string `json:"userId"`
	Address          string `json:"address"`
	PaymentMethod    string `json:"paymentMethod"`
	LogisticsType    string `json:"logisticsType"`
	LogisticsSubType string `json:"logisticsSubType"`
	StoreID          string `json:"storeId"`
	StoreName        string `json:"storeName"`
}

// CheckoutResponse covers both outcomes the backend may send with a 2xx.
type CheckoutResponse struct {
	OrderID int64  `json:"orderId"`
	Message string `json:"message"`
}

// PaymentParams are the hidden form fields posted to the payment gateway.
type PaymentParams map[string]string

// Order statuses the backend reports.
const (
	OrderCreated   = "CREATED"
	OrderPaid      = "PAID"
	OrderPending   = "PENDING"
	OrderCancelled = "CANCELLED"

	ShipmentPending = "PENDING_SHIPMENT"
)

// Order is a member-center order summary.
type Order struct {
	OrderID        int64  `json:"orderId"`
	OrderDate      string `json:"orderDate"`
	TotalAmount    int64  `json:"totalAmount"`
	Status         string `json:"orderStatus"`
	StatusDisplay  string `json:"orderStatusDisplay"`
	PaymentMethod  string `json:"paymentMethod"`
	ShipmentStatus string `json:"shipmentStatus"`
}

// Cancellable reports whether the order can still be cancelled: it has not
// shipped and is created, pending or paid.
func (o Order) Cancellable() bool {
	switch o.Status {
	case OrderCreated, OrderPaid, OrderPending:
	default:
		return false
	}
	return o.ShipmentStatus == "" || o.ShipmentStatus == ShipmentPending
}

// WishlistItem is one wishlist entry.
type WishlistItem struct {
	ProductID   int64  `json:"productId"`
	Name        string `json:"productName"`
	Image       string `json:"productImage"`
	Description string `json:"description"`
	Price       int64  `json:"price"`
}

// User is the session identity returned by GET /user/me.
type User struct {
	UserID  string `json:"userId"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Address string `json:"address"`
}

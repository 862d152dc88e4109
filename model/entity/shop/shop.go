package shop

import (
	"time"

	"gorm.io/datatypes"
)

// Customer represents shop_customer table
type Customer struct {
	UserID  string `gorm:"column:user_id;type:varchar(64);primaryKey" json:"userId"`
	Name    string `gorm:"column:name;type:varchar(255)" json:"name"`
	Email   string `gorm:"column:email;type:varchar(255);uniqueIndex" json:"email"`
	Address string `gorm:"column:address;type:varchar(512)" json:"address"`
}

func (Customer) TableName() string {
	return "shop_customer"
}

// Session maps a session token to a customer.
type Session struct {
	Token     string    `gorm:"column:token;type:varchar(64);primaryKey"`
	UserID    string    `gorm:"column:user_id;type:varchar(64);not null;index"`
	Revoked   bool      `gorm:"column:revoked;not null;default:false"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (Session) TableName() string {
	return "shop_session"
}

// Category is a main category when ParentCode is empty, a sub category otherwise.
type Category struct {
	Code       string `gorm:"column:code;type:varchar(64);primaryKey" json:"code"`
	Name       string `gorm:"column:cname;type:varchar(255);not null" json:"cname"`
	ParentCode string `gorm:"column:parent_code;type:varchar(64);index" json:"parentCode,omitempty"`
	Position   int    `gorm:"column:position;not null;default:0" json:"-"`
}

func (Category) TableName() string {
	return "shop_category"
}

// Product represents shop_product table
type Product struct {
	ProductID    int64     `gorm:"column:product_id;primaryKey;autoIncrement" json:"productid"`
	Name         string    `gorm:"column:pname;type:varchar(255);not null" json:"pname"`
	Description  string    `gorm:"column:description;type:text" json:"description"`
	Price        int64     `gorm:"column:price;not null;default:0;index" json:"price"`
	Stock        int       `gorm:"column:stock;not null;default:0" json:"stock"`
	Image        string    `gorm:"column:product_image;type:varchar(512)" json:"productimage"`
	MainCategory string    `gorm:"column:main_category;type:varchar(64);index" json:"mainCategory"`
	CategoryID   string    `gorm:"column:category_id;type:varchar(64);index" json:"categoryid"`
	Rating       float64   `gorm:"column:rating;not null;default:0" json:"rating"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime" json:"-"`
}

func (Product) TableName() string {
	return "shop_product"
}

// Review represents shop_review table
type Review struct {
	ReviewID  int64   `gorm:"column:review_id;primaryKey;autoIncrement" json:"reviewid"`
	ProductID int64   `gorm:"column:product_id;not null;index" json:"-"`
	UserName  string  `gorm:"column:user_name;type:varchar(255)" json:"username"`
	Color     string  `gorm:"column:color;type:varchar(64)" json:"color"`
	Rating    float64 `gorm:"column:rating;not null" json:"rating"`
	Comment   string  `gorm:"column:comment;type:text" json:"comment"`
}

func (Review) TableName() string {
	return "shop_review"
}

// CartItem is one cart line; the product is joined in on read.
type CartItem struct {
	CartID        int64   `gorm:"column:cart_id;primaryKey;autoIncrement"`
	UserID        string  `gorm:"column:user_id;type:varchar(64);not null;index"`
	ProductID     int64   `gorm:"column:product_id;not null"`
	Quantity      int     `gorm:"column:quantity;not null"`
	Specification string  `gorm:"column:specification;type:varchar(255)"`
	Product       Product `gorm:"foreignKey:ProductID;references:ProductID"`
}

func (CartItem) TableName() string {
	return "shop_cart_item"
}

// Order statuses and their display names.
const (
	StatusPending   = "PENDING"
	StatusCreated   = "CREATED"
	StatusPaid      = "PAID"
	StatusCancelled = "CANCELLED"

	ShipmentPending = "PENDING_SHIPMENT"
)

var StatusDisplay = map[string]string{
	StatusPending:   "待付款",
	StatusCreated:   "已成立",
	StatusPaid:      "已付款",
	StatusCancelled: "已取消",
}

// OrderShipping is stored as JSON on the order row.
type OrderShipping struct {
	LogisticsType    string `json:"logisticsType"`
	LogisticsSubType string `json:"logisticsSubType,omitempty"`
	Address          string `json:"address"`
	StoreID          string `json:"storeId,omitempty"`
	StoreName        string `json:"storeName,omitempty"`
}

// OrderLine is an order item snapshot stored as JSON on the order row.
type OrderLine struct {
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"unitPrice"`
}

// Order represents shop_order table
type Order struct {
	OrderID        int64                             `gorm:"column:order_id;primaryKey;autoIncrement"`
	UserID         string                            `gorm:"column:user_id;type:varchar(64);not null;index"`
	OrderDate      time.Time                         `gorm:"column:order_date;not null"`
	TotalAmount    int64                             `gorm:"column:total_amount;not null"`
	Status         string                            `gorm:"column:order_status;type:varchar(32);not null"`
	PaymentMethod  string                            `gorm:"column:payment_method;type:varchar(32)"`
	ShipmentStatus string                            `gorm:"column:shipment_status;type:varchar(32)"`
	Shipping       datatypes.JSONType[OrderShipping] `gorm:"column:shipping"`
	// Lines holds []OrderLine.
	Lines          datatypes.JSON                    `gorm:"column:order_lines"`
	IdempotencyKey string                            `gorm:"column:idempotency_key;type:varchar(64);index"`
	TradeNo        string                            `gorm:"column:trade_no;type:varchar(32);index"`
}

func (Order) TableName() string {
	return "shop_order"
}

// WishlistItem represents shop_wishlist table
type WishlistItem struct {
	ID        int64   `gorm:"column:id;primaryKey;autoIncrement"`
	UserID    string  `gorm:"column:user_id;type:varchar(64);not null;uniqueIndex:idx_wish_user_product"`
	ProductID int64   `gorm:"column:product_id;not null;uniqueIndex:idx_wish_user_product"`
	Product   Product `gorm:"foreignKey:ProductID;references:ProductID"`
}

func (WishlistItem) TableName() string {
	return "shop_wishlist"
}

// All lists every table for AutoMigrate.
func All() []interface{} {
	return []interface{}{&Customer{}, &Session{}, &Category{}, &Product{}, &Review{}, &CartItem{}, &Order{}, &WishlistItem{}}
}

package entity

// Product is a catalog record as returned by search and product endpoints.
type Product struct {
	ProductID   int64   `json:"productid" mapstructure:"productid"`
	Name        string  `json:"pname" mapstructure:"pname"`
	Description string  `json:"description" mapstructure:"description"`
	Price       int64   `json:"price" mapstructure:"price"`
	Stock       int     `json:"stock" mapstructure:"stock"`
	Image       string  `json:"productimage" mapstructure:"productimage"`
	CategoryID  string  `json:"categoryid" mapstructure:"categoryid"`
	Rating      float64 `json:"rating" mapstructure:"rating"`
}

// SoldOut reports an empty stock.
func (p Product) SoldOut() bool {
	return p.Stock <= 0
}

// PageMeta is the server-authoritative pagination block.
type PageMeta struct {
	Number        int   `json:"number"`
	Size          int   `json:"size"`
	TotalPages    int   `json:"totalPages"`
	TotalElements int64 `json:"totalElements"`
}

// SearchResult is the response of GET /products/search.
type SearchResult struct {
	Content []Product `json:"content"`
	Page    PageMeta  `json:"page"`
}

// Category is a navigation entry; Count is set for sub-categories only.
type Category struct {
	Code  string `json:"code"`
	Name  string `json:"cname"`
	Count *int   `json:"count,omitempty"`
}

// Review is a product review.
type Review struct {
	ReviewID int64   `json:"reviewid"`
	UserName string  `json:"username"`
	Color    string  `json:"color"`
	Rating   float64 `json:"rating"`
	Comment  string  `json:"comment"`
}

// ReviewPage is one server-side page of reviews; CurrentPage is one-based.
type ReviewPage struct {
	Reviews     []Review `json:"reviews"`
	CurrentPage int      `json:"currentPage"`
	TotalPages  int      `json:"totalPages"`
}

// ProductDetail is everything the product page shows.
type ProductDetail struct {
	Product Product
	Reviews ReviewPage
	Related []Product
}

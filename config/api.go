package config

// GetAuthSkipperPaths returns the reference backend paths served without a session.
func GetAuthSkipperPaths() []string {
	// Catalog reads are public; cart, orders and member routes need a session
	return []string{
		"/api/products/search",
		"/api/categories/main",
		"/api/categories/main/:code/sub",
		"/api/product/:id",
		"/api/product/:id/reviews",
		"/api/product/related/:categoryId",
		"/api/ecpay/callback",
	}
}

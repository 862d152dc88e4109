package auth

import (
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"storefront.GO/config"
	shopRepo "storefront.GO/model/repository/shop"
)

// Context keys set by the session middleware.
const (
	KeyUserID   = "user_id"
	KeyCustomer = "customer"
	KeyAuthType = "auth_type"
)

// SessionHeader carries the storefront session token.
const SessionHeader = "X-Session-Token"

// Middleware returns the auth middleware based on AUTH_TYPE env var.
// "session" (the default) resolves X-Session-Token to a customer; "key"
// accepts a single static API_KEY for a fixed API_USER_ID.
func Middleware(db *gorm.DB) echo.MiddlewareFunc {
	skipper := buildSkipper()
	switch os.Getenv("AUTH_TYPE") {
	case "key":
		return keyAuth(skipper)
	default:
		return sessionAuth(shopRepo.NewShopRepository(db), skipper)
	}
}

func buildSkipper() middleware.Skipper {
	skipPaths := config.GetAuthSkipperPaths()
	return func(c echo.Context) bool {
		path := c.Path()
		for _, skip := range skipPaths {
			if path == skip {
				return true
			}
		}
		return false
	}
}

func keyAuth(skipper middleware.Skipper) echo.MiddlewareFunc {
	apiKey := os.Getenv("API_KEY")
	userID := os.Getenv("API_USER_ID")
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:" + SessionHeader,
		Validator: func(key string, c echo.Context) (bool, error) {
			if apiKey == "" || key != apiKey {
				return false, nil
			}
			c.Set(KeyAuthType, "static")
			c.Set(KeyUserID, userID)
			return true, nil
		},
		Skipper:      skipper,
		ErrorHandler: unauthorized,
	})
}

func sessionAuth(repo *shopRepo.ShopRepository, skipper middleware.Skipper) echo.MiddlewareFunc {
	return middleware.KeyAuthWithConfig(middleware.KeyAuthConfig{
		KeyLookup: "header:" + SessionHeader,
		Validator: func(token string, c echo.Context) (bool, error) {
			customer, err := repo.FindSessionUser(token)
			if err != nil {
				return false, nil
			}
			c.Set(KeyAuthType, "session")
			c.Set(KeyUserID, customer.UserID)
			c.Set(KeyCustomer, customer)
			return true, nil
		},
		Skipper:      skipper,
		ErrorHandler: unauthorized,
	})
}

// unauthorized answers a missing or unknown token with 401 so clients can
// tell it apart from a rejected request.
func unauthorized(err error, c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"message": "請先登入"})
}

// UserID returns the authenticated user of the request, or "".
func UserID(c echo.Context) string {
	id, _ := c.Get(KeyUserID).(string)
	return id
}

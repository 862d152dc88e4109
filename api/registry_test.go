package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"storefront.GO/core/registry"
)

func TestRegistry_RegisterGET_ApplyRoutes(t *testing.T) {
	RegisterGET("/test/registry/check", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	e := echo.New()
	ApplyRoutes(e, nil)

	req := httptest.NewRequest(http.MethodGet, "/test/registry/check", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRegistry_Modules(t *testing.T) {
	registry.GlobalRegistry.UnlockForTesting(registry.KeyRegistryAPI)
	RegisterModule("test-cart", func(g *echo.Group, _ *gorm.DB) {
		g.GET("/cart-check", func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })
	})

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic on duplicate module name")
			}
		}()
		RegisterModule("test-cart", func(*echo.Group, *gorm.DB) {})
	}()

	e := echo.New()
	names := ApplyModules(e.Group("/api"), nil)
	if len(names) == 0 || names[len(names)-1] != "test-cart" {
		t.Errorf("names = %v, want test-cart last", names)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/cart-check", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected panic after ApplyModules locked the registry")
		}
	}()
	RegisterModule("late", func(*echo.Group, *gorm.DB) {})
}

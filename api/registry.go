package api

import (
	"log"
	"sync"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"storefront.GO/core/registry"
)

var mu sync.Mutex

// --- /api group modules (session-authenticated, DB-dependent) ---

// ModuleFunc registers routes on the /api group with DB access.
type ModuleFunc func(g *echo.Group, db *gorm.DB)

type module struct {
	name string
	fn   ModuleFunc
}

func getModules() []module {
	if v, ok := registry.GlobalRegistry.GetGlobal(registry.KeyRegistryAPI); ok && v != nil {
		return v.([]module)
	}
	return nil
}

// RegisterModule registers a named API module. Call from init() in API
// packages; a name can be registered once.
func RegisterModule(name string, fn ModuleFunc) {
	mu.Lock()
	defer mu.Unlock()
	if registry.GlobalRegistry.IsLocked(registry.KeyRegistryAPI) {
		panic("api/registry: API modules locked (register only during init)")
	}
	list := getModules()
	for _, m := range list {
		if m.name == name {
			panic("api/registry: duplicate module " + name)
		}
	}
	list = append(list, module{name: name, fn: fn})
	registry.GlobalRegistry.SetGlobal(registry.KeyRegistryAPI, list)
}

// ApplyModules mounts every registered module on g in registration order,
// locks the registry and returns the module names.
func ApplyModules(g *echo.Group, db *gorm.DB) []string {
	mods := getModules()
	names := make([]string, 0, len(mods))
	for _, m := range mods {
		m.fn(g, db)
		names = append(names, m.name)
		log.Printf("[API] action=apply module=%s", m.name)
	}
	registry.GlobalRegistry.Lock(registry.KeyRegistryAPI)
	return names
}

// --- Root-level routes (public: health, storefront pages) ---

// RouteFunc registers routes on the root Echo instance.
type RouteFunc func(e *echo.Echo, db *gorm.DB)

func getRoutes() []RouteFunc {
	if v, ok := registry.GlobalRegistry.GetGlobal(registry.KeyRegistryRoutes); ok && v != nil {
		return v.([]RouteFunc)
	}
	return nil
}

// RegisterRoute registers a root-level route module. Call from init().
func RegisterRoute(fn RouteFunc) {
	mu.Lock()
	defer mu.Unlock()
	if registry.GlobalRegistry.IsLocked(registry.KeyRegistryRoutes) {
		panic("api/registry: routes locked (register only during init)")
	}
	registry.GlobalRegistry.SetGlobal(registry.KeyRegistryRoutes, append(getRoutes(), fn))
}

// RegisterGET is shorthand for a public GET route on root.
func RegisterGET(path string, handler echo.HandlerFunc) {
	RegisterRoute(func(e *echo.Echo, _ *gorm.DB) {
		e.GET(path, handler)
	})
}

// ApplyRoutes calls all registered root-level routes. Locks the registry.
func ApplyRoutes(e *echo.Echo, db *gorm.DB) {
	for _, fn := range getRoutes() {
		fn(e, db)
	}
	registry.GlobalRegistry.Lock(registry.KeyRegistryRoutes)
}

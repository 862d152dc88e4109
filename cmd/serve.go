package cmd

import (
	"fmt"
	"log"
	"math/rand"
	"strconv"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"storefront.GO/api"
	_ "storefront.GO/api/shop"
	"storefront.GO/config"
	"storefront.GO/core/auth"
	"storefront.GO/html"
	shopRepo "storefront.GO/model/repository/shop"
	"storefront.GO/service/commerce"
)

var serveSeed bool

// NewServer builds the reference backend: the /api modules behind session
// auth, the root routes and the server-rendered storefront pages.
func NewServer(db *gorm.DB, catalog html.Catalog) (*echo.Echo, error) {
	tmpl, err := html.New()
	if err != nil {
		return nil, err
	}
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.Gzip())
	e.Use(middleware.Decompress())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start).Milliseconds()
			c.Response().Header().Set("X-Request-Duration-ms", strconv.FormatInt(duration, 10))
			return err
		}
	})
	e.Renderer = tmpl
	for _, t := range tmpl.Templates.Templates() {
		log.Println("Loaded template:", t.Name())
	}

	apiGroup := e.Group("/api")
	apiGroup.Use(auth.Middleware(db))
	api.ApplyModules(apiGroup, db)
	api.ApplyRoutes(e, db)
	if catalog != nil {
		html.RegisterStorefrontRoutes(e, catalog)
	}
	return e, nil
}

// Serve opens the database, migrates it and runs the backend on PORT.
func Serve(seed bool) error {
	cfg := config.App()
	config.InitRedis()
	log.Println(config.PingRedis())

	db, err := config.NewDB()
	if err != nil {
		return fmt.Errorf("connect to DB: %w", err)
	}
	sqldb, err := db.DB()
	if err != nil {
		return fmt.Errorf("get DB instance: %w", err)
	}
	if err := sqldb.Ping(); err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	log.Println("Database connection successful.")

	repo := shopRepo.NewShopRepository(db)
	if err := repo.Migrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	if seed {
		if err := shopRepo.Seed(db); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		log.Printf("Demo data ready, session token %s", shopRepo.DemoToken)
	}

	// server-rendered pages read the catalog through the public API
	e, err := NewServer(db, commerce.NewFromConfig(cfg))
	if err != nil {
		return err
	}

	fonts := []string{"standard", "slant", "small", "big", "doom", "larry3d"}
	figure.NewFigure("storefront.GO", fonts[rand.Intn(len(fonts))], true).Print()
	fmt.Println()

	log.Printf("Server running on :%s", cfg.Port)
	return e.Start(":" + cfg.Port)
}

var serveCmd = &cobra.Command{
	Use:   "backend:serve",
	Short: "Run the reference commerce backend and storefront pages",
	RunE: func(c *cobra.Command, args []string) error {
		return Serve(serveSeed)
	},
}

func init() {
	serveCmd.Flags().BoolVar(&serveSeed, "seed", false, "fill an empty database with demo data")
	rootCmd.AddCommand(serveCmd)
}

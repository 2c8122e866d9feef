package router

import (
	"laklak-api/internal/handler"
	"laklak-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler          *handler.Handler
	CatalogHandler   *handler.CatalogHandler
	InventoryHandler *handler.InventoryHandler
	PackageHandler   *handler.PackageHandler
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", "X-User-ID", "X-User-Role"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// PUBLIC routes (no identity required)
	if cfg.Handler != nil {
		r.Get("/api/v1/health", cfg.Handler.Health)
		r.Get("/api/v1/ready", cfg.Handler.Ready)
	}

	// AUTHENTICATED routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.Identity)

		r.Route("/api/v1", func(r chi.Router) {
			if cfg.CatalogHandler != nil {
				r.Route("/products", func(r chi.Router) {
					r.Post("/", cfg.CatalogHandler.CreateProduct)
					r.Get("/", cfg.CatalogHandler.ListProducts)
					r.Post("/bulk-stock", cfg.CatalogHandler.BulkStock)
					r.Get("/{id}", cfg.CatalogHandler.GetProduct)
					r.Patch("/{id}", cfg.CatalogHandler.UpdateProduct)
					r.Delete("/{id}", cfg.CatalogHandler.DeleteProduct)
				})
			}

			if cfg.InventoryHandler != nil {
				r.Route("/inventory", func(r chi.Router) {
					r.Post("/stock", cfg.InventoryHandler.UpdateStock)
					r.Post("/price", cfg.InventoryHandler.UpdatePrice)
					r.Post("/bulk-price", cfg.InventoryHandler.BulkPrice)
					r.Get("/transactions", cfg.InventoryHandler.ListTransactions)
					r.Get("/price-changes", cfg.InventoryHandler.ListPriceChanges)
					r.Get("/dashboard", cfg.InventoryHandler.Dashboard)
					r.Route("/alerts", func(r chi.Router) {
						r.Get("/", cfg.InventoryHandler.ListAlerts)
						r.Post("/{id}/acknowledge", cfg.InventoryHandler.AcknowledgeAlert)
						r.Post("/{id}/resolve", cfg.InventoryHandler.ResolveAlert)
					})
				})
			}

			if cfg.PackageHandler != nil {
				r.Route("/packages", func(r chi.Router) {
					r.Post("/", cfg.PackageHandler.CreatePackage)
					r.Get("/{id}", cfg.PackageHandler.GetPackage)
					r.Post("/{id}/products", cfg.PackageHandler.AddProduct)
					r.Delete("/{id}/products", cfg.PackageHandler.ClearProducts)
					r.Delete("/{id}/products/{productID}", cfg.PackageHandler.RemoveProduct)
				})
			}
		})
	})

	return r
}

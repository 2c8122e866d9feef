package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"laklak-api/internal/bus"
	"laklak-api/internal/cache"
	"laklak-api/internal/config"
	"laklak-api/internal/handler"
	"laklak-api/internal/repository"
	"laklak-api/internal/router"
	"laklak-api/internal/service"

	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting LakLak API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize store based on config
	var store repository.Store
	switch cfg.Database.Type {
	case "mysql":
		mysqlStore, err := repository.NewMySQLStore(cfg.Database.DSN())
		if err != nil {
			log.Fatalf("Failed to initialize MySQL: %v", err)
		}
		store = mysqlStore
		log.Println("MySQL store initialized")
	default: // sqlite
		sqliteStore, err := repository.NewSQLiteStore(cfg.Database.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		store = sqliteStore
		log.Println("SQLite store initialized")
	}
	defer store.Close()

	// Initialize dashboard cache
	var dashCache cache.Cache = cache.NewMemoryCache()
	if cfg.Cache.Type == "redis" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed, using in-memory cache: %v", err)
		} else {
			dashCache = cache.NewRedisCache(redisClient)
			log.Println("Redis cache initialized")
		}
		cancel()
	}

	// Initialize event publisher
	var publisher bus.Publisher
	switch cfg.Kafka.BusType {
	case "memory":
		publisher = bus.NewMemoryBus()
		log.Println("In-memory bus initialized")
	case "nop":
		publisher = bus.NopPublisher{}
		log.Println("Event publishing disabled")
	default: // kafka
		publisher = bus.NewKafkaPublisher(cfg.Kafka.BrokerList())
		log.Printf("Kafka publisher initialized (brokers: %s)", cfg.Kafka.Brokers)
	}
	defer publisher.Close()

	// Initialize services
	pricing := service.NewPricingEngine(store)
	catalogService := service.NewCatalogService(store, publisher, pricing, cfg.Kafka, cfg.Inventory.LowStockThreshold)
	packageService := service.NewPackageService(store, pricing)
	alertService := service.NewAlertService(store)
	reportService := service.NewReportService(store, dashCache, cfg.Cache.DashboardTTL, cfg.Inventory.LowStockThreshold)

	// Initialize handlers
	healthHandler := handler.New(cfg.App.Version, store)
	catalogHandler := handler.NewCatalogHandler(catalogService, reportService)
	inventoryHandler := handler.NewInventoryHandler(catalogService, alertService, reportService)
	packageHandler := handler.NewPackageHandler(packageService)

	// Create router
	r := router.New(router.Config{
		Handler:          healthHandler,
		CatalogHandler:   catalogHandler,
		InventoryHandler: inventoryHandler,
		PackageHandler:   packageHandler,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	fmt.Println("Goodbye!")
}

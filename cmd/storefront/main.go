package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bookavenue/storefront/internal/config"
	"github.com/bookavenue/storefront/internal/db"
	"github.com/bookavenue/storefront/internal/events"
	"github.com/bookavenue/storefront/internal/repo"
	"github.com/bookavenue/storefront/internal/session"
	"github.com/bookavenue/storefront/internal/shop"
	"github.com/bookavenue/storefront/internal/web"
	"github.com/bookavenue/storefront/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	// Initialize logger
	log := logger.New(cfg.ServiceName, cfg.LogLevel)
	defer log.Sync()

	log.Info("Storefront starting")

	// Connect to database
	log.Info("Connecting to database...")
	database, err := db.Connect(cfg.PGDSN)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	// Run migrations
	log.Info("Running database migrations...")
	if err := db.RunMigrations(database); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Connect to Redis for sessions
	log.Info("Connecting to Redis", zap.String("addr", cfg.RedisAddr))
	sessions := session.NewRedisStore(cfg.RedisAddr)
	if err := sessions.Ping(context.Background()); err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer sessions.Close()

	// Connect to RabbitMQ. The storefront keeps serving without it;
	// events are dropped until the broker comes back on a restart.
	log.Info("Connecting to RabbitMQ")
	var publisher events.Publisher
	publisher, err = events.NewPublisher(cfg.RabbitMQURL, log)
	if err != nil {
		log.Warn("RabbitMQ unavailable, events disabled", zap.Error(err))
		publisher = events.NopPublisher{}
	}
	defer publisher.Close()

	// Initialize repositories
	catalogRepo := repo.NewCatalogRepository(database, log)
	userRepo := repo.NewUserRepository(database, log)
	orderRepo := repo.NewOrderRepository(database, log)
	reviewRepo := repo.NewReviewRepository(database, log)
	dashRepo := repo.NewDashboardRepository(database, orderRepo, userRepo, catalogRepo, reviewRepo, log)

	// Initialize services
	checkout := shop.NewCheckout(catalogRepo, orderRepo, log)
	recommender := shop.NewRecommender(catalogRepo, orderRepo)

	handlers := &web.Handlers{
		Catalog:    catalogRepo,
		Users:      userRepo,
		Orders:     orderRepo,
		Reviews:    reviewRepo,
		Dash:       dashRepo,
		Sessions:   sessions,
		Checkout:   checkout,
		Recommend:  recommender,
		Events:     publisher,
		Log:        log,
		CookieName: cfg.CookieName,
	}

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      web.NewRouter(handlers),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Info("Starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	log.Info("Server stopped")
}

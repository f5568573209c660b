package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/catalog"
	"storefront/config"
	"storefront/db"
	"storefront/events"
	"storefront/images"
	"storefront/repository"
	"storefront/routes"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load(logrus.StandardLogger())
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	logger := cfg.NewLogger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	categoryRepo, productRepo, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to open catalog store: %v", err)
	}
	defer closeStore()

	// Uploads directory is created if it doesn't exist
	imageStore, err := images.NewStore(cfg.UploadDir, cfg.MaxUploadBytes, logger)
	if err != nil {
		logger.Fatalf("Failed to prepare uploads directory: %v", err)
	}

	hub := events.NewHub(logger)
	go hub.Run(ctx)

	svc := catalog.NewService(categoryRepo, productRepo, imageStore, hub, logger)

	// Create Fiber app
	app := routes.NewApp(cfg.BodyLimitBytes, logger)
	routes.SetupRoutes(app, routes.NewHandler(svc, imageStore, logger), hub)

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Errorf("Server shutdown failed: %v", err)
		}
	}()

	// Start server
	logger.Infof("Starting server on port %s", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
	logger.Info("Server stopped")
}

// openStore picks the catalog backend from DATABASE_URL. The returned func
// releases the connection.
func openStore(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (repository.CategoryRepository, repository.ProductRepository, func(), error) {
	if cfg.UsesMongo() {
		client, database, err := db.OpenMongo(ctx, cfg.DatabaseURL, cfg.MongoDatabase, logger)
		if err != nil {
			return nil, nil, nil, err
		}
		closeFn := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(disconnectCtx); err != nil {
				logger.Warnf("Failed to disconnect from MongoDB: %v", err)
			}
		}
		return repository.NewMongoCategoryRepository(database, logger),
			repository.NewMongoProductRepository(database, logger),
			closeFn, nil
	}

	database, err := db.Open(cfg.DatabaseURL, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	closeFn := func() {
		sqlDB, err := database.DB()
		if err != nil {
			return
		}
		if err := sqlDB.Close(); err != nil {
			logger.Warnf("Failed to close database: %v", err)
		}
	}
	return repository.NewGormCategoryRepository(database, logger),
		repository.NewGormProductRepository(database, logger),
		closeFn, nil
}

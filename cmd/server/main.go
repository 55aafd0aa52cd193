package main

import (
	"context" // context package is needed for connection setup
	"time"    // Connection timeouts

	"asso_funds/internal/app"    // Wiring of stores, services and routes
	"asso_funds/internal/config" // Custom package for configuration

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid config: %v", err)
	}

	// Setup logger
	app.SetupLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Connect to the configured store
	st, err := app.OpenStore(ctx, cfg)
	if err != nil {
		logrus.Fatalf("failed to open store: %v", err) // Fatal error if DB connection fails
	}
	defer st.Close()

	// Setup Redis client, optional
	rdb, err := app.OpenRedis(ctx, cfg)
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}
	if rdb == nil {
		logrus.Warn("REDIS_ADDR not set, caching disabled")
	} else {
		defer rdb.Close()
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin with every route
	r, err := app.NewEngine(cfg, app.NewServices(cfg, st, rdb))
	if err != nil {
		logrus.Fatalf("failed to set up router: %v", err)
	}

	logrus.WithFields(logrus.Fields{"port": cfg.AppPort, "driver": cfg.DBDriver}).Info("Server running") // Log server start
	if err := r.Run(":" + cfg.AppPort); err != nil {                                                     // Start the server on port cfg.AppPort
		logrus.Fatalf("server stopped: %v", err)
	}
}

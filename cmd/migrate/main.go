package main

import (
	"context" // Mongo operations
	"time"    // Timeout

	"asso_funds/internal/app"              // Logger setup
	"asso_funds/internal/config"           // Custom import path (Config)
	"asso_funds/internal/db"               // Custom import path (Database)
	"asso_funds/internal/store/mongostore" // Mongo backend

	"github.com/sirupsen/logrus" // Logging
)

// Main entry point for migration
func main() {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid config: %v", err)
	}
	app.SetupLogger(cfg)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if cfg.DBDriver == "mongo" {
		// MongoDB has no schema, only indexes
		st, err := mongostore.Open(ctx, cfg.MongoURI, cfg.DBName)
		if err != nil {
			logrus.Fatalf("failed to open store: %v", err)
		}
		defer st.Close()
		if err := st.EnsureIndexes(ctx); err != nil {
			logrus.Fatalf("failed to create indexes: %v", err)
		}
		logrus.Info("Indexes created.")
		return
	}

	gdb, err := db.Open(cfg) // Connect to the SQL database
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err)
	}
	if err := db.Migrate(gdb); err != nil {
		logrus.Fatalf("%v", err)
	}
}

// Package cmd provides the assoctl commands for managing association accounts.
package cmd

import (
	"context"
	"fmt"

	"asso_funds/internal/app"
	"asso_funds/internal/config"
	"asso_funds/internal/store"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	debug   bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "assoctl",
	Short: "Manage association accounts",
	Long: `assoctl manages the accounts of the association funds API.

Registration through the API only creates members; treasurer, president
and controller accounts are created or promoted here.

Example:
  assoctl user create --username alice --password s3cretpass --role treasurer
  assoctl user set-role --username bob --role president`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
		logrus.SetLevel(logrus.InfoLevel)
		if debug {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML config file (default: CONFIG_FILE, then .env and environment)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(userCmd)
}

// loadConfig reads the configuration, preferring the --config flag over CONFIG_FILE.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgFile != "" {
		_ = godotenv.Load()
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.ValidateStore(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// withServices opens the store and optional cache, runs fn and closes both.
func withServices(ctx context.Context, fn func(*app.Services) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := app.OpenStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeStore(st)

	// the identity cache must see role and password changes
	rdb, err := app.OpenRedis(ctx, cfg)
	if err != nil {
		logrus.WithField("error", err.Error()).Warn("Redis unavailable, cached identities may be stale until they expire")
		rdb = nil
	}
	if rdb != nil {
		defer closeRedis(rdb)
	}
	return fn(app.NewServices(cfg, st, rdb))
}

func closeStore(st store.Store) {
	if err := st.Close(); err != nil {
		logrus.WithField("error", err.Error()).Debug("Closing store failed")
	}
}

func closeRedis(rdb *redis.Client) {
	if err := rdb.Close(); err != nil {
		logrus.WithField("error", err.Error()).Debug("Closing Redis failed")
	}
}

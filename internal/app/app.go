// Package app wires configuration into the stores, caches and HTTP engine shared
// by the binaries under cmd/.
package app

import (
	"context"
	"fmt"
	"time"

	"asso_funds/internal/api"
	"asso_funds/internal/auth"
	"asso_funds/internal/config"
	"asso_funds/internal/db"
	"asso_funds/internal/service"
	"asso_funds/internal/store"
	"asso_funds/internal/store/mongostore"
	"asso_funds/internal/store/sqlstore"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// SetupLogger configures the global logrus logger: JSON in production, text otherwise.
func SetupLogger(cfg *config.Config) {
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		logrus.WithField("log_level", cfg.LogLevel).Warn("Unknown log level, using info")
		level = logrus.InfoLevel
	}
	logrus.SetLevel(level)
}

// OpenStore connects to the backend selected by DB_DRIVER.
func OpenStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.DBDriver == "mongo" {
		ms, err := mongostore.Open(ctx, cfg.MongoURI, cfg.DBName)
		if err != nil {
			return nil, err
		}
		return ms, nil
	}
	gdb, err := db.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to DB: %w", err)
	}
	return sqlstore.New(gdb), nil
}

// OpenRedis returns a pinged client, or nil when REDIS_ADDR is empty.
func OpenRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	if cfg.RedisAddr == "" {
		return nil, nil
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return rdb, nil
}

// Services bundles the use cases built from one store.
type Services struct {
	Guard        *auth.Guard
	Users        *service.Users
	Transactions *service.Transactions
}

// NewServices builds the guard and services. rdb may be nil.
func NewServices(cfg *config.Config, st store.Store, rdb *redis.Client) *Services {
	guard := auth.NewGuard(st, cfg.JWTSecret, rdb, cfg.CacheTTL)
	return &Services{
		Guard:        guard,
		Users:        service.NewUsers(st, guard, rdb, cfg.JWTSecret, cfg.JWTTTL),
		Transactions: service.NewTransactions(st, rdb, cfg.CacheTTL),
	}
}

// NewEngine builds the gin engine with CORS and every route mounted.
func NewEngine(cfg *config.Config, svc *Services) (*gin.Engine, error) {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		return nil, fmt.Errorf("failed to set trusted proxies: %w", err)
	}
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	api.RegisterRoutes(r, svc.Users, svc.Transactions, svc.Guard)
	return r, nil
}

func corsConfig(origins []string) cors.Config {
	c := cors.DefaultConfig()
	c.AllowHeaders = append(c.AllowHeaders, "Authorization")
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
	}
	return c
}

// requestLogger logs one line per request through logrus.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logrus.WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		}).Debug("Request handled")
	}
}

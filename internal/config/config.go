package config

import (
	"errors"  // Validation errors
	"fmt"     // Error wrapping
	"os"      // For environment variables
	"strconv" // For string to int conversion
	"strings" // For list parsing
	"time"    // Durations

	"github.com/joho/godotenv" // For loading .env files
	"gopkg.in/yaml.v3"         // For the optional config file
)

// Config holds the application configuration
type Config struct {
	AppPort     string        `yaml:"app_port"`     // Application port
	DBDriver    string        `yaml:"db_driver"`    // mysql, postgres, sqlite or mongo
	DBUser      string        `yaml:"db_user"`      // Database user
	DBPassword  string        `yaml:"db_password"`  // Database password
	DBHost      string        `yaml:"db_host"`      // Database host
	DBPort      string        `yaml:"db_port"`      // Database port
	DBName      string        `yaml:"db_name"`      // Database name (file path for sqlite)
	DBDSN       string        `yaml:"db_dsn"`       // Full DSN, overrides the parts above
	MongoURI    string        `yaml:"mongo_uri"`    // MongoDB connection string
	JWTSecret   string        `yaml:"jwt_secret"`   // JWT secret key
	JWTTTL      time.Duration `yaml:"jwt_ttl"`      // Token lifetime
	RedisAddr   string        `yaml:"redis_addr"`   // Redis server address, empty disables caching
	RedisPass   string        `yaml:"redis_pass"`   // Redis password
	RedisDB     int           `yaml:"redis_db"`     // Redis database number
	CacheTTL    time.Duration `yaml:"cache_ttl"`    // Lifetime of cached listings
	CORSOrigins []string      `yaml:"cors_origins"` // Allowed origins
	LogLevel    string        `yaml:"log_level"`    // logrus level name
	IsProd      bool          `yaml:"is_prod"`      // Is production environment
}

// Defaults returns the configuration used when nothing is set
func Defaults() *Config {
	return &Config{
		AppPort:     "5000",              // Same port as the previous deployment
		DBDriver:    "mysql",             // Default SQL backend
		DBHost:      "127.0.0.1",         // Local database
		JWTTTL:      30 * 24 * time.Hour, // Tokens last 30 days
		CacheTTL:    60 * time.Second,    // Cache listings for a minute
		CORSOrigins: []string{"*"},       // Allow every origin
		LogLevel:    "info",              // Default log level
	}
}

// LoadConfig loads configuration from .env, the optional CONFIG_FILE and environment variables, in that order
func LoadConfig() (*Config, error) {
	_ = godotenv.Load() // Load .env file if present
	return Load(os.Getenv("CONFIG_FILE"))
}

// Load overlays the YAML file at path (if not empty) and then the environment on the defaults
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile overlays a YAML file on the current values
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

// applyEnv overrides values with the environment variables that are set
func (c *Config) applyEnv() error {
	setString(&c.AppPort, "APP_PORT")
	setString(&c.DBDriver, "DB_DRIVER")
	setString(&c.DBUser, "DB_USER")
	setString(&c.DBPassword, "DB_PASSWORD")
	setString(&c.DBHost, "DB_HOST")
	setString(&c.DBPort, "DB_PORT")
	setString(&c.DBName, "DB_NAME")
	setString(&c.DBDSN, "DB_DSN")
	setString(&c.MongoURI, "MONGO_URI")
	setString(&c.JWTSecret, "JWT_SECRET")
	setString(&c.RedisAddr, "REDIS_ADDR")
	setString(&c.RedisPass, "REDIS_PASS")
	setString(&c.LogLevel, "LOG_LEVEL")
	if v := os.Getenv("REDIS_DB"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid REDIS_DB: %w", err)
		}
		c.RedisDB = n
	}
	if err := setDuration(&c.JWTTTL, "JWT_TTL"); err != nil {
		return err
	}
	if err := setDuration(&c.CacheTTL, "CACHE_TTL"); err != nil {
		return err
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORSOrigins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORSOrigins = append(c.CORSOrigins, o)
			}
		}
	}
	if v := os.Getenv("IS_PROD"); v != "" {
		c.IsProd = v == "true" // Is production environment
	}
	return nil
}

// Validate reports the settings the server cannot start without
func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	return errors.Join(append(errs, c.ValidateStore())...)
}

// ValidateStore reports missing database settings only
func (c *Config) ValidateStore() error {
	var errs []error
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
		if c.DBDSN == "" && c.DBName == "" {
			errs = append(errs, errors.New("DB_NAME or DB_DSN is required"))
		}
	case "mongo":
		if c.MongoURI == "" {
			errs = append(errs, errors.New("MONGO_URI is required for the mongo driver"))
		}
		if c.DBName == "" {
			errs = append(errs, errors.New("DB_NAME is required for the mongo driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver))
	}
	return errors.Join(errs...)
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

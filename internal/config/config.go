package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Configuration constants
const (
	// Server Configuration
	Port      = "PORT"
	Host      = "HOST"
	JWTSecret = "JWT_SECRET"

	// Store Configuration
	StoreDriver   = "STORE_DRIVER"
	MongoURI      = "MONGO_URI"
	MongoDatabase = "MONGO_DATABASE"
	SeedFile      = "SEED_FILE"

	// Ledger Database Configuration
	DBURL = "DB_URL"

	// Logging Configuration
	LogLevel  = "LOG_LEVEL"
	LogFormat = "LOG_FORMAT"

	// Redis Configuration
	RedisAddr     = "REDIS_ADDR"
	RedisPassword = "REDIS_PASSWORD"
	RedisDB       = "REDIS_DB"

	// Listing Configuration
	ListingIncludePending = "LISTING_INCLUDE_PENDING"
	ListingCacheTTL       = "LISTING_CACHE_TTL"
	ListingCacheSize      = "LISTING_CACHE_SIZE"

	// Reconcile Configuration
	ReconcileDelay         = "RECONCILE_DELAY"
	ReconcileSweepInterval = "RECONCILE_SWEEP_INTERVAL"
	ReconcileWorkers       = "RECONCILE_WORKERS"
	ReconcileQueueCapacity = 100
)

// Store drivers
const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig
	Store     StoreConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Logging   LoggingConfig
	Listing   ListingConfig
	Reconcile ReconcileConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port      string
	Host      string
	JWTSecret string
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// ListingConfig holds listing query and cache configuration
type ListingConfig struct {
	IncludePending bool
	CacheTTL       time.Duration
	CacheSize      int64
}

// ReconcileConfig holds purchase follow-up reconciliation configuration
type ReconcileConfig struct {
	Delay         time.Duration
	SweepInterval time.Duration
	Workers       int
}

// LoadConfig loads configuration from environment variables and .envrc file
func LoadConfig() (*Config, error) {
	// Set up Viper
	viper.SetConfigName(".envrc")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AddConfigPath("../config")

	// Enable environment variable reading
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	setDefaults()

	// Read config file (optional, will use env vars if file doesn't exist)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config := &Config{
		Server: ServerConfig{
			Port:      viper.GetString(Port),
			Host:      viper.GetString(Host),
			JWTSecret: viper.GetString(JWTSecret),
		},
		Store:    *NewStoreConfig(),
		Database: *NewDatabaseConfig(),
		Redis: RedisConfig{
			Addr:     viper.GetString(RedisAddr),
			Password: viper.GetString(RedisPassword),
			DB:       viper.GetInt(RedisDB),
		},
		Logging: LoggingConfig{
			Level:  viper.GetString(LogLevel),
			Format: viper.GetString(LogFormat),
		},
		Listing: ListingConfig{
			IncludePending: viper.GetBool(ListingIncludePending),
			CacheTTL:       viper.GetDuration(ListingCacheTTL),
			CacheSize:      viper.GetInt64(ListingCacheSize),
		},
		Reconcile: ReconcileConfig{
			Delay:         viper.GetDuration(ReconcileDelay),
			SweepInterval: viper.GetDuration(ReconcileSweepInterval),
			Workers:       viper.GetInt(ReconcileWorkers),
		},
	}

	return config, nil
}

// setDefaults sets default values for configuration
func setDefaults() {
	// Server defaults
	viper.SetDefault(Port, "8080")
	viper.SetDefault(Host, "localhost")

	// Store defaults
	viper.SetDefault(StoreDriver, DriverMongo)
	viper.SetDefault(MongoURI, "mongodb://localhost:27017")
	viper.SetDefault(MongoDatabase, "property_marketplace")

	// Redis defaults
	viper.SetDefault(RedisAddr, "localhost:6379")
	viper.SetDefault(RedisPassword, "")
	viper.SetDefault(RedisDB, 0)

	// Logging defaults
	viper.SetDefault(LogLevel, "info")
	viper.SetDefault(LogFormat, "json")

	// Listing defaults
	viper.SetDefault(ListingIncludePending, true)
	viper.SetDefault(ListingCacheTTL, "30s")
	viper.SetDefault(ListingCacheSize, 1000)

	// Reconcile defaults
	viper.SetDefault(ReconcileDelay, "30s")
	viper.SetDefault(ReconcileSweepInterval, "10m")
	viper.SetDefault(ReconcileWorkers, 4)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.Server.JWTSecret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	switch c.Store.Driver {
	case DriverMongo:
		if c.Store.MongoURI == "" {
			return fmt.Errorf("MongoDB URI is required for the mongo store driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	if c.Redis.Addr == "" {
		return fmt.Errorf("Redis address is required")
	}

	if c.Reconcile.Workers <= 0 {
		return fmt.Errorf("reconcile workers must be positive")
	}

	if c.Reconcile.SweepInterval <= 0 {
		return fmt.Errorf("reconcile sweep interval must be positive")
	}

	return nil
}

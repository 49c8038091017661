package config

import (
	"github.com/spf13/viper"
)

// DatabaseConfig holds the payment ledger database configuration. An empty
// URL disables the ledger.
type DatabaseConfig struct {
	URL string
}

// NewDatabaseConfig creates a new database configuration using Viper
func NewDatabaseConfig() *DatabaseConfig {
	return &DatabaseConfig{
		URL: viper.GetString(DBURL),
	}
}

// GetConnectionString returns the PostgreSQL connection string
func (c *DatabaseConfig) GetConnectionString() string {
	return c.URL
}

// Enabled returns true if a ledger database is configured
func (c *DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// StoreConfig holds the document store configuration
type StoreConfig struct {
	Driver        string
	MongoURI      string
	MongoDatabase string
	SeedFile      string
}

// NewStoreConfig creates a new document store configuration using Viper
func NewStoreConfig() *StoreConfig {
	return &StoreConfig{
		Driver:        viper.GetString(StoreDriver),
		MongoURI:      viper.GetString(MongoURI),
		MongoDatabase: viper.GetString(MongoDatabase),
		SeedFile:      viper.GetString(SeedFile),
	}
}

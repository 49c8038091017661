package mongo

import (
	"property-marketplace-service/internal/ports/outbound"

	"github.com/rs/zerolog"
)

// RepositoryFactory creates the document store repositories
type RepositoryFactory struct {
	conn   *Connection
	logger zerolog.Logger
}

// NewRepositoryFactory creates a new repository factory
func NewRepositoryFactory(conn *Connection, logger zerolog.Logger) *RepositoryFactory {
	return &RepositoryFactory{conn: conn, logger: logger}
}

// GetPropertyRepository returns the property repository
func (f *RepositoryFactory) GetPropertyRepository() outbound.PropertyRepository {
	return NewPropertyRepository(&PropertyRepositoryParams{DB: f.conn.Database(), Logger: f.logger})
}

// GetUserRepository returns the user repository
func (f *RepositoryFactory) GetUserRepository() outbound.UserRepository {
	return NewUserRepository(&UserRepositoryParams{DB: f.conn.Database(), Logger: f.logger})
}

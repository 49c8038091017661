package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"property-marketplace-service/internal/domain/property"
	"property-marketplace-service/internal/domain/shared"
	"property-marketplace-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Store is an in-process document store. Every mutation takes the write
// lock for its whole read-check-write so conditional updates behave like
// single-document atomic updates. Documents are copied on the way in and
// out so callers never share state with the store.
type Store struct {
	mu         sync.RWMutex
	properties map[uuid.UUID]*property.Property
	users      map[uuid.UUID]*shared.User
	logger     zerolog.Logger
}

// StoreParams holds the parameters for creating a store
type StoreParams struct {
	Logger zerolog.Logger
}

// NewStore creates an empty store
func NewStore(params *StoreParams) *Store {
	return &Store{
		properties: make(map[uuid.UUID]*property.Property),
		users:      make(map[uuid.UUID]*shared.User),
		logger:     params.Logger.With().Str("component", "memory_store").Logger(),
	}
}

// seedFile is the on-disk format accepted by LoadSeed
type seedFile struct {
	Users      []*shared.User       `json:"users"`
	Properties []*property.Property `json:"properties"`
}

// LoadSeed reads users and properties from a JSON file into the store
func (s *Store) LoadSeed(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed seedFile
	if err := json.Unmarshal(raw, &seed); err != nil {
		return fmt.Errorf("failed to parse seed file: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range seed.Users {
		s.users[u.ID] = u.Clone()
	}
	for _, p := range seed.Properties {
		if !p.Status.IsValid() {
			p.Status = property.StatusAvailable
		}
		p.RefreshDerived()
		s.properties[p.ID] = p.Clone()
	}

	s.logger.Info().
		Int("users", len(seed.Users)).
		Int("properties", len(seed.Properties)).
		Str("path", path).
		Msg("Seed data loaded")
	return nil
}

// Properties returns a PropertyRepository backed by the store
func (s *Store) Properties() *PropertyRepository {
	return &PropertyRepository{store: s}
}

// Users returns a UserRepository backed by the store
func (s *Store) Users() *UserRepository {
	return &UserRepository{store: s}
}

// matches applies a listing filter the way the document store does:
// case-insensitive substring per field, all fields conjunctive.
func matches(p *property.Property, filter outbound.ListingFilter) bool {
	if !containsFold(p.Type, filter.Type) ||
		!containsFold(p.Location, filter.Location) ||
		!containsFold(p.Purpose, filter.Purpose) {
		return false
	}
	if len(filter.Statuses) == 0 {
		return true
	}
	for _, status := range filter.Statuses {
		if p.Status == status {
			return true
		}
	}
	return false
}

func containsFold(value, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(term))
}

func addID(ids []uuid.UUID, id uuid.UUID) ([]uuid.UUID, bool) {
	for _, v := range ids {
		if v == id {
			return ids, false
		}
	}
	return append(ids, id), true
}

func removeID(ids []uuid.UUID, id uuid.UUID) ([]uuid.UUID, bool) {
	out := ids[:0]
	removed := false
	for _, v := range ids {
		if v == id {
			removed = true
			continue
		}
		out = append(out, v)
	}
	return out, removed
}

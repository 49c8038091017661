package app

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"property-marketplace-service/internal/adapters/memory"
	"property-marketplace-service/internal/domain/property"
	"property-marketplace-service/internal/domain/shared"
	"property-marketplace-service/internal/ports/inbound"
	"property-marketplace-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	properties *memory.PropertyRepository
	users      outbound.UserRepository
	ledger     *fakeLedger
	scheduler  *fakeScheduler
	cache      *fakeCache

	propertyService  *PropertyService
	bidService       *BidService
	purchaseService  *PurchaseService
	shortlistService *ShortlistService
	profileService   *ProfileService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.NewStore(&memory.StoreParams{Logger: zerolog.Nop()})
	return newTestEnvWithUsers(t, store.Properties(), store.Users())
}

func newTestEnvWithUsers(t *testing.T, properties *memory.PropertyRepository, users outbound.UserRepository) *testEnv {
	t.Helper()
	env := &testEnv{
		properties: properties,
		users:      users,
		ledger:     newFakeLedger(),
		scheduler:  &fakeScheduler{},
		cache:      &fakeCache{},
	}
	logger := zerolog.Nop()

	env.propertyService = NewPropertyService(PropertyServiceParams{
		PropertyRepo:   properties,
		UserRepo:       users,
		Cache:          env.cache,
		IncludePending: true,
		Logger:         logger,
	})
	env.bidService = NewBidService(BidServiceParams{
		PropertyRepo: properties,
		UserRepo:     users,
		Cache:        env.cache,
		Logger:       logger,
	})
	env.purchaseService = NewPurchaseService(PurchaseServiceParams{
		PropertyRepo:   properties,
		UserRepo:       users,
		Ledger:         env.ledger,
		Cache:          env.cache,
		Scheduler:      env.scheduler,
		ReconcileDelay: time.Minute,
		Logger:         logger,
	})
	env.shortlistService = NewShortlistService(ShortlistServiceParams{
		PropertyRepo: properties,
		UserRepo:     users,
		Logger:       logger,
	})
	env.profileService = NewProfileService(ProfileServiceParams{
		PropertyRepo: properties,
		UserRepo:     users,
		Logger:       logger,
	})
	return env
}

func (env *testEnv) createUser(t *testing.T, name string) *shared.User {
	t.Helper()
	user := &shared.User{ID: uuid.New(), Name: name, Email: name + "@example.com"}
	require.NoError(t, env.users.Create(context.Background(), user))
	return user
}

func (env *testEnv) createListing(t *testing.T, owner *shared.User, req inbound.CreateListingRequest) *property.Property {
	t.Helper()
	req.OwnerID = owner.ID
	p, err := env.propertyService.CreateListing(context.Background(), req)
	require.NoError(t, err)
	return p
}

func (env *testEnv) bid(t *testing.T, p *property.Property, bidder *shared.User, price float64) {
	t.Helper()
	_, err := env.bidService.PlaceBid(context.Background(), inbound.PlaceBidRequest{
		PropertyID: p.ID,
		UserID:     bidder.ID,
		Price:      price,
	})
	require.NoError(t, err)
}

func (env *testEnv) accept(t *testing.T, p *property.Property, owner, bidder *shared.User, price float64) {
	t.Helper()
	_, err := env.bidService.AcceptBid(context.Background(), inbound.AcceptBidRequest{
		PropertyID: p.ID,
		CallerID:   owner.ID,
		BidUserID:  bidder.ID,
		BidPrice:   price,
	})
	require.NoError(t, err)
}

type fakeLedger struct {
	mu          sync.Mutex
	records     map[uuid.UUID]shared.PaymentRecord
	writes      int
	failing     bool
	failLookups bool
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: make(map[uuid.UUID]shared.PaymentRecord)}
}

func (l *fakeLedger) Record(ctx context.Context, rec shared.PaymentRecord) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failing {
		return false, shared.ErrDatabaseQuery
	}
	l.writes++
	if _, ok := l.records[rec.PropertyID]; ok {
		return false, nil
	}
	l.records[rec.PropertyID] = rec
	return true, nil
}

func (l *fakeLedger) GetByPropertyID(ctx context.Context, propertyID uuid.UUID) (*shared.PaymentRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.failLookups {
		return nil, shared.ErrDatabaseQuery
	}
	rec, ok := l.records[propertyID]
	if !ok {
		return nil, shared.ErrPropertyNotFound
	}
	return &rec, nil
}

func (l *fakeLedger) setFailing(failing bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failing = failing
}

func (l *fakeLedger) setFailLookups(failing bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failLookups = failing
}

func (l *fakeLedger) writeCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.writes
}

type scheduledReconcile struct {
	propertyID uuid.UUID
	at         time.Time
}

type fakeScheduler struct {
	mu    sync.Mutex
	calls []scheduledReconcile
}

func (s *fakeScheduler) Schedule(ctx context.Context, propertyID uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, scheduledReconcile{propertyID: propertyID, at: at})
	return nil
}

func (s *fakeScheduler) scheduled() []scheduledReconcile {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]scheduledReconcile, len(s.calls))
	copy(out, s.calls)
	return out
}

type invalidation struct {
	reason     outbound.EventType
	propertyID uuid.UUID
}

// fakeCache keys entries by generation like the real listing cache
type fakeCache struct {
	mu            sync.Mutex
	generation    int64
	entries       map[string][]*property.Property
	invalidations []invalidation
}

func cacheKey(generation int64, filter outbound.ListingFilter) string {
	return fmt.Sprintf("%d|%s|%s|%s", generation, filter.Type, filter.Location, filter.Purpose)
}

func (c *fakeCache) Get(ctx context.Context, filter outbound.ListingFilter) ([]*property.Property, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[cacheKey(c.generation, filter)]
	return v, c.generation, ok
}

func (c *fakeCache) Set(ctx context.Context, filter outbound.ListingFilter, generation int64, properties []*property.Property) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[string][]*property.Property)
	}
	c.entries[cacheKey(generation, filter)] = properties
}

func (c *fakeCache) Invalidate(ctx context.Context, reason outbound.EventType, propertyID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.invalidations = append(c.invalidations, invalidation{reason: reason, propertyID: propertyID})
}

func (c *fakeCache) recorded() []invalidation {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]invalidation, len(c.invalidations))
	copy(out, c.invalidations)
	return out
}

// flakyUsers fails selected user operations until healed
type flakyUsers struct {
	outbound.UserRepository
	mu                 sync.Mutex
	failAddPurchased   bool
	failPullShortlists bool
}

func (f *flakyUsers) AddPurchased(ctx context.Context, userID, propertyID uuid.UUID) (bool, error) {
	f.mu.Lock()
	fail := f.failAddPurchased
	f.mu.Unlock()
	if fail {
		return false, shared.ErrDatabaseQuery
	}
	return f.UserRepository.AddPurchased(ctx, userID, propertyID)
}

func (f *flakyUsers) PullFromAllShortlists(ctx context.Context, propertyID uuid.UUID) (int64, error) {
	f.mu.Lock()
	fail := f.failPullShortlists
	f.mu.Unlock()
	if fail {
		return 0, shared.ErrDatabaseQuery
	}
	return f.UserRepository.PullFromAllShortlists(ctx, propertyID)
}

func (f *flakyUsers) heal() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAddPurchased = false
	f.failPullShortlists = false
}

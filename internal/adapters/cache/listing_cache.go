package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"property-marketplace-service/internal/adapters/metrics"
	"property-marketplace-service/internal/domain/property"
	"property-marketplace-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/karlseguin/ccache/v3"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	keyPrefix     = "listings"
	generationKey = "listings:generation"

	// InvalidationTopic carries generation bumps between instances
	InvalidationTopic = "cache"

	tierLocal  = "local"
	tierRedis  = "redis"
	resultHit  = "hit"
	resultMiss = "miss"
)

// ListingCache is a two level cache for listing queries: an in-process
// ccache in front of Redis. Entries are keyed by the current generation,
// so bumping the generation drops every result at once.
type ListingCache struct {
	local       *ccache.Cache[[]*property.Property]
	client      *redis.Client
	broadcaster outbound.Broadcaster
	ttl         time.Duration
	generation  atomic.Int64
	instanceID  string
	events      chan outbound.Event
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	logger      zerolog.Logger
}

var _ outbound.ListingCache = (*ListingCache)(nil)

type ListingCacheParams struct {
	RedisClient *redis.Client
	Broadcaster outbound.Broadcaster
	TTL         time.Duration
	MaxSize     int64
	Logger      zerolog.Logger
}

func NewListingCache(params ListingCacheParams) *ListingCache {
	ctx, cancel := context.WithCancel(context.Background())

	return &ListingCache{
		local:       ccache.New(ccache.Configure[[]*property.Property]().MaxSize(params.MaxSize)),
		client:      params.RedisClient,
		broadcaster: params.Broadcaster,
		ttl:         params.TTL,
		instanceID:  uuid.NewString(),
		events:      make(chan outbound.Event, 16),
		ctx:         ctx,
		cancel:      cancel,
		logger:      params.Logger.With().Str("component", "listing_cache").Logger(),
	}
}

// Start loads the shared generation and listens for invalidations from
// other instances
func (c *ListingCache) Start(ctx context.Context) error {
	gen, err := c.client.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("failed to load cache generation: %w", err)
	}
	c.adopt(gen)

	if err := c.broadcaster.Subscribe(ctx, InvalidationTopic, c.subscriberID(), c.events); err != nil {
		return fmt.Errorf("failed to subscribe to cache invalidations: %w", err)
	}

	c.wg.Add(1)
	go c.listen()

	c.logger.Info().Int64("generation", gen).Msg("Listing cache started")
	return nil
}

// Stop ends the invalidation listener and releases the local cache
func (c *ListingCache) Stop(ctx context.Context) {
	c.cancel()
	if err := c.broadcaster.Unsubscribe(ctx, InvalidationTopic, c.subscriberID()); err != nil {
		c.logger.Error().Err(err).Msg("Failed to unsubscribe from cache invalidations")
	}
	c.wg.Wait()
	c.local.Stop()
}

// Get looks the filter up under the current generation and returns that
// generation, so a result computed after a miss can be stored with Set.
func (c *ListingCache) Get(ctx context.Context, filter outbound.ListingFilter) ([]*property.Property, int64, bool) {
	gen := c.generation.Load()
	key := c.keyAt(gen, filter)

	if item := c.local.Get(key); item != nil && !item.Expired() {
		metrics.CacheLookups.WithLabelValues(tierLocal, resultHit).Inc()
		return cloneAll(item.Value()), gen, true
	}
	metrics.CacheLookups.WithLabelValues(tierLocal, resultMiss).Inc()

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn().Err(err).Str("key", key).Msg("Failed to read listing cache from Redis")
		}
		metrics.CacheLookups.WithLabelValues(tierRedis, resultMiss).Inc()
		return nil, gen, false
	}

	var properties []*property.Property
	if err := json.Unmarshal(data, &properties); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to decode cached listings")
		metrics.CacheLookups.WithLabelValues(tierRedis, resultMiss).Inc()
		return nil, gen, false
	}
	metrics.CacheLookups.WithLabelValues(tierRedis, resultHit).Inc()

	c.local.Set(key, properties, c.ttl)
	return cloneAll(properties), gen, true
}

// Set stores a result under the generation its lookup was made under. A
// result from an older generation is dropped since an invalidation has
// happened since it was read.
func (c *ListingCache) Set(ctx context.Context, filter outbound.ListingFilter, generation int64, properties []*property.Property) {
	if generation < c.generation.Load() {
		c.logger.Debug().Int64("generation", generation).Msg("Skipped caching listings read before an invalidation")
		return
	}
	key := c.keyAt(generation, filter)
	stored := cloneAll(properties)
	c.local.Set(key, stored, c.ttl)

	data, err := json.Marshal(stored)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to encode listings for cache")
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("Failed to write listing cache to Redis")
	}
}

// Invalidate bumps the shared generation and tells the other instances.
// When Redis is unreachable only the local generation moves.
func (c *ListingCache) Invalidate(ctx context.Context, reason outbound.EventType, propertyID uuid.UUID) {
	gen, err := c.client.Incr(ctx, generationKey).Result()
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to bump cache generation in Redis")
		gen = c.generation.Add(1)
	} else {
		c.adopt(gen)
	}
	c.local.Clear()

	event := outbound.Event{
		Type:       reason,
		PropertyID: propertyID,
		Data: map[string]interface{}{
			"generation": gen,
			"origin":     c.instanceID,
		},
		Timestamp: time.Now().Unix(),
	}
	if err := c.broadcaster.Publish(ctx, InvalidationTopic, event); err != nil {
		c.logger.Warn().Err(err).Str("reason", string(reason)).Msg("Failed to publish cache invalidation")
	}

	c.logger.Debug().
		Str("reason", string(reason)).
		Str("property_id", propertyID.String()).
		Int64("generation", gen).
		Msg("Listing cache invalidated")
}

// Generation returns the generation this instance currently reads under
func (c *ListingCache) Generation() int64 {
	return c.generation.Load()
}

func (c *ListingCache) listen() {
	defer c.wg.Done()

	for {
		select {
		case event, ok := <-c.events:
			if !ok {
				return
			}
			if origin, _ := event.Data["origin"].(string); origin == c.instanceID {
				continue
			}
			// numbers decode as float64
			if gen, ok := event.Data["generation"].(float64); ok {
				c.adopt(int64(gen))
			}
			c.local.Clear()
			c.logger.Debug().
				Str("reason", string(event.Type)).
				Str("property_id", event.PropertyID.String()).
				Msg("Dropped local listings after remote invalidation")
		case <-c.ctx.Done():
			return
		}
	}
}

// adopt moves the local generation forward, never back
func (c *ListingCache) adopt(gen int64) {
	for {
		current := c.generation.Load()
		if gen <= current || c.generation.CompareAndSwap(current, gen) {
			return
		}
	}
}

func (c *ListingCache) subscriberID() string {
	return "listing-cache-" + c.instanceID
}

func (c *ListingCache) keyAt(generation int64, filter outbound.ListingFilter) string {
	return fmt.Sprintf("%s:%d:%s", keyPrefix, generation, FilterHash(filter))
}

// FilterHash is an order independent digest of the listing filter
func FilterHash(filter outbound.ListingFilter) string {
	statuses := make([]string, 0, len(filter.Statuses))
	for _, s := range filter.Statuses {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)

	params := map[string]string{
		"type":     strings.ToLower(filter.Type),
		"location": strings.ToLower(filter.Location),
		"purpose":  strings.ToLower(filter.Purpose),
		"status":   strings.Join(statuses, ","),
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var builder strings.Builder
	for i, k := range keys {
		if i > 0 {
			builder.WriteString(":")
		}
		builder.WriteString(k)
		builder.WriteString("=")
		builder.WriteString(params[k])
	}

	hash := md5.Sum([]byte(builder.String()))
	return hex.EncodeToString(hash[:])
}

func cloneAll(properties []*property.Property) []*property.Property {
	out := make([]*property.Property, len(properties))
	for i, p := range properties {
		out[i] = p.Clone()
	}
	return out
}

package broadcaster

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"property-marketplace-service/internal/domain/shared"
	"property-marketplace-service/internal/ports/outbound"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const channelPrefix = "marketplace:"

// RedisBroadcaster implements the broadcaster interface using Redis pub/sub
type RedisBroadcaster struct {
	client         *redis.Client
	subscribers    map[string]chan outbound.Event // clientID -> local channel
	pubsubs        map[string]*redis.PubSub       // clientID -> pubsub instance
	clientsToTopic map[string]map[string]bool     // clientID -> topic -> subscribed
	mu             sync.RWMutex
	ctx            context.Context
	cancel         context.CancelFunc
	wg             sync.WaitGroup
	logger         zerolog.Logger
}

var _ outbound.Broadcaster = (*RedisBroadcaster)(nil)

type RedisBroadcasterParams struct {
	RedisClient *redis.Client
	Logger      zerolog.Logger
}

func NewBroadcaster(params RedisBroadcasterParams) *RedisBroadcaster {
	ctx, cancel := context.WithCancel(context.Background())

	return &RedisBroadcaster{
		client:         params.RedisClient,
		subscribers:    make(map[string]chan outbound.Event),
		pubsubs:        make(map[string]*redis.PubSub),
		clientsToTopic: make(map[string]map[string]bool),
		ctx:            ctx,
		cancel:         cancel,
		logger:         params.Logger.With().Str("component", "redis_broadcaster").Logger(),
	}
}

// Subscribe delivers events published on topic to eventChan. A client
// subscribed to several topics receives all of them on the same channel.
func (r *RedisBroadcaster) Subscribe(ctx context.Context, topic string, clientID string, eventChan chan outbound.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.clientsToTopic[clientID] != nil && r.clientsToTopic[clientID][topic] {
		return nil
	}

	if r.subscribers[clientID] == nil {
		r.subscribers[clientID] = eventChan
	}

	var pubsub *redis.PubSub
	if existing, exists := r.pubsubs[clientID]; exists {
		pubsub = existing
		if err := pubsub.Subscribe(ctx, channelPrefix+topic); err != nil {
			r.logger.Error().Err(err).Str("client_id", clientID).Str("topic", topic).Msg("Failed to subscribe to Redis channel")
			return fmt.Errorf("%w: %v", shared.ErrSubscribeFailed, err)
		}
	} else {
		pubsub = r.client.Subscribe(ctx, channelPrefix+topic)
		// wait for the confirmation so no publish after Subscribe returns is missed
		if _, err := pubsub.Receive(ctx); err != nil {
			_ = pubsub.Close()
			r.logger.Error().Err(err).Str("client_id", clientID).Str("topic", topic).Msg("Failed to subscribe to Redis channel")
			return fmt.Errorf("%w: %v", shared.ErrSubscribeFailed, err)
		}
		r.pubsubs[clientID] = pubsub

		r.wg.Add(1)
		go r.listenForRedisMessages(pubsub, clientID, eventChan)
	}

	if r.clientsToTopic[clientID] == nil {
		r.clientsToTopic[clientID] = make(map[string]bool)
	}
	r.clientsToTopic[clientID][topic] = true

	r.logger.Info().
		Str("client_id", clientID).
		Str("topic", topic).
		Msg("Client subscribed to topic via Redis")
	return nil
}

// Unsubscribe stops delivery of topic to the client. The client's channel is
// closed once it has no topics left.
func (r *RedisBroadcaster) Unsubscribe(ctx context.Context, topic string, clientID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	topics, exists := r.clientsToTopic[clientID]
	if !exists || !topics[topic] {
		return nil
	}
	delete(topics, topic)

	if len(topics) > 0 {
		if pubsub, exists := r.pubsubs[clientID]; exists {
			if err := pubsub.Unsubscribe(ctx, channelPrefix+topic); err != nil {
				r.logger.Error().Err(err).Str("client_id", clientID).Str("topic", topic).Msg("Error unsubscribing from Redis channel")
			}
		}
		return nil
	}

	delete(r.clientsToTopic, clientID)
	r.closeClient(clientID)

	r.logger.Info().
		Str("client_id", clientID).
		Str("topic", topic).
		Msg("Client unsubscribed from topic")
	return nil
}

// Publish publishes an event to all subscribers of topic via Redis
func (r *RedisBroadcaster) Publish(ctx context.Context, topic string, event outbound.Event) error {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	eventJSON, err := json.Marshal(event)
	if err != nil {
		r.logger.Error().Err(err).Msg("Failed to marshal event")
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	result := r.client.Publish(ctx, channelPrefix+topic, eventJSON)
	if err := result.Err(); err != nil {
		r.logger.Error().Err(err).Str("topic", topic).Msg("Failed to publish to Redis")
		return fmt.Errorf("%w: %v", shared.ErrBroadcastFailed, err)
	}

	r.logger.Debug().
		Str("event_type", string(event.Type)).
		Str("topic", topic).
		Int64("subscriber_count", result.Val()).
		Msg("Published event")

	return nil
}

// listenForRedisMessages forwards Redis messages to the client's local channel
func (r *RedisBroadcaster) listenForRedisMessages(pubsub *redis.PubSub, clientID string, localChan chan outbound.Event) {
	defer r.wg.Done()
	defer func() {
		if err := recover(); err != nil {
			r.logger.Error().Interface("panic", err).Str("client_id", clientID).Msg("Redis message listener panic for client")
		}
	}()

	ch := pubsub.Channel()

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				r.logger.Debug().Str("client_id", clientID).Msg("Redis channel closed for client")
				return
			}

			var event outbound.Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				r.logger.Error().Err(err).Str("client_id", clientID).Msg("Failed to unmarshal Redis message for client")
				continue
			}

			r.mu.RLock()
			_, live := r.subscribers[clientID]
			if live {
				select {
				case localChan <- event:
				default:
					r.logger.Warn().Str("client_id", clientID).Msg("Local channel full for client, dropping event")
				}
			}
			r.mu.RUnlock()

		case <-r.ctx.Done():
			return
		}
	}
}

// closeClient releases a client's channel and pubsub. Callers hold r.mu.
func (r *RedisBroadcaster) closeClient(clientID string) {
	if eventChan, exists := r.subscribers[clientID]; exists {
		close(eventChan)
		delete(r.subscribers, clientID)
	}

	if pubsub, exists := r.pubsubs[clientID]; exists {
		if err := pubsub.Close(); err != nil {
			r.logger.Error().Err(err).Str("client_id", clientID).Msg("Error closing Redis pubsub for client")
		}
		delete(r.pubsubs, clientID)
	}
}

// Close stops all listeners and releases every subscription. The Redis
// client itself is owned by the caller.
func (r *RedisBroadcaster) Close() error {
	r.cancel()

	r.mu.Lock()
	for clientID := range r.subscribers {
		delete(r.clientsToTopic, clientID)
		r.closeClient(clientID)
	}
	r.mu.Unlock()

	r.wg.Wait()
	return nil
}

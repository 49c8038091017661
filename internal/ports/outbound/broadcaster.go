package outbound

import (
	"context"

	"github.com/google/uuid"
)

// EventType represents the type of event being broadcasted
type EventType string

const (
	EventTypeListingCreated EventType = "listing.created"
	EventTypeBidPlaced      EventType = "bid.placed"
	EventTypeBidAccepted    EventType = "bid.accepted"
	EventTypePropertySold   EventType = "property.sold"
)

// Event represents a broadcast event
type Event struct {
	Type       EventType              `json:"type"`
	PropertyID uuid.UUID              `json:"property_id"`
	Data       map[string]interface{} `json:"data"`
	Timestamp  int64                  `json:"timestamp"`
}

// Broadcaster defines the interface for fanning events out across instances
type Broadcaster interface {
	// Subscribe delivers events published on topic to eventChan
	Subscribe(ctx context.Context, topic string, clientID string, eventChan chan Event) error

	// Unsubscribe stops delivery of topic to the client
	Unsubscribe(ctx context.Context, topic string, clientID string) error

	// Publish publishes an event to all subscribers of topic
	Publish(ctx context.Context, topic string, event Event) error
}

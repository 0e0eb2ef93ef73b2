package messaging

import (
	"context"
	"encoding/json"
)

// Broker publishes serialized events to named channels.
type Broker interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Close() error
}

// Message is the envelope consumers receive.
type Message struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	OccurredAt  string          `json:"occurred_at"`
	Payload     json.RawMessage `json:"payload"`
}

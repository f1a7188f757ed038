// Package events defines the order event envelope and its NATS Streaming
// transport: a publisher for terminal and side-channel events, and a durable
// queue consumer that triggers order processing.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types carried in the envelope.
const (
	TypeOrderCreated         = "ORDER_CREATED"
	TypeOrderProcessed       = "ORDER_PROCESSED"
	TypeOrderFailed          = "ORDER_FAILED"
	TypeOrderPendingApproval = "ORDER_PENDING_APPROVAL"
	TypeLowStockAlert        = "LOW_STOCK_ALERT"
	TypeFraudAlert           = "FRAUD_ALERT"
)

// Envelope is the wire format for order events: a unique event id, a type
// tag, and a type-specific payload.
type Envelope struct {
	EventID   string         `json:"eventId"`
	EventType string         `json:"eventType"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload"`
}

// NewEnvelope creates an envelope with a fresh event id and timestamp.
func NewEnvelope(eventType string, payload map[string]any) Envelope {
	return Envelope{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// OrderID returns the order id carried in the payload, if any.
func (e Envelope) OrderID() string {
	id, _ := e.Payload["orderId"].(string)
	return id
}

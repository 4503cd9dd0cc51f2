package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Event types published by the dashboard.
const (
	EventOrderStatusChanged       = "OrderStatusChanged"
	EventStockAvailabilityChanged = "StockAvailabilityChanged"
)

// Envelope wraps every event on the bus.
type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"`
	CompanyID    string          `json:"company_id"`
	Payload      json.RawMessage `json:"payload"`
}

// OrderStatusChangedPayload records a requested status transition.
type OrderStatusChangedPayload struct {
	OrderID  string `json:"order_id"`
	ToStatus string `json:"to_status"`
}

// StockAvailabilityChangedPayload records a menu item toggle.
type StockAvailabilityChangedPayload struct {
	Category  string `json:"category"`
	ItemID    string `json:"item_id"`
	Available bool   `json:"available"`
}

// NewEnvelope builds an envelope around payload.
func NewEnvelope(eventType, producer, companyID string, payload any) (Envelope, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Envelope{
		EventID:      uuid.NewString(),
		EventType:    eventType,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     producer,
		CompanyID:    companyID,
		Payload:      raw,
	}, nil
}

// PublishEnvelope publishes env keyed by company, so one company's events
// stay ordered on a single partition.
func PublishEnvelope(ctx context.Context, client Client, env Envelope) error {
	value, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}
	return client.Publish(ctx, []byte(env.CompanyID), value)
}

// DecodeEnvelope parses a consumed message.
func DecodeEnvelope(msg Message) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode envelope: %w", err)
	}
	return env, nil
}

// DecodePayload unmarshals an envelope payload into T.
func DecodePayload[T any](env Envelope) (T, error) {
	var t T
	if err := json.Unmarshal(env.Payload, &t); err != nil {
		return t, fmt.Errorf("decode %s payload: %w", env.EventType, err)
	}
	return t, nil
}

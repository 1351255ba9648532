package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// MessageType classifies an envelope message.
type MessageType string

const (
	// MessageTypeEvent represents a domain event notification
	MessageTypeEvent MessageType = "event"
	// MessageTypeStatus represents a status update
	MessageTypeStatus MessageType = "status"
	// MessageTypeAlert represents an alert that may require action
	MessageTypeAlert MessageType = "alert"
)

// Message is the envelope structure for all published inventory messages.
type Message struct {
	// ID is a unique identifier for this message
	ID string `json:"id"`
	// Type indicates the message type
	Type MessageType `json:"type"`
	// Source identifies the sender (e.g., "service:materials")
	Source string `json:"source"`
	// Timestamp when the message was created
	Timestamp time.Time `json:"timestamp"`
	// CorrelationID links related messages (optional)
	CorrelationID string `json:"correlation_id,omitempty"`
	// Payload contains the actual message data as JSON
	Payload json.RawMessage `json:"payload"`
}

// NewMessage creates a new envelope with a generated ID and UTC timestamp.
func NewMessage(msgType MessageType, source string, payload interface{}) (*Message, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &Message{
		ID:        uuid.NewString(),
		Type:      msgType,
		Source:    source,
		Timestamp: time.Now().UTC(),
		Payload:   payloadBytes,
	}, nil
}

// UnmarshalPayload deserializes the payload into the provided structure.
func (m *Message) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(m.Payload, v)
}

// MaterialEvent describes a change to a material record.
type MaterialEvent struct {
	MaterialID  int64   `json:"material_id"`
	Name        string  `json:"name"`
	Quantity    float64 `json:"quantity"`
	Measurement string  `json:"measurement"`
	Status      string  `json:"status"`
}

// BatchEvent describes a logged or updated material batch.
type BatchEvent struct {
	BatchID    int64   `json:"batch_id"`
	MaterialID int64   `json:"material_id"`
	Quantity   float64 `json:"quantity"`
	Unit       string  `json:"unit"`
	LoggedBy   string  `json:"logged_by"`
}

// DeductionEvent describes the outcome of a sale deduction.
type DeductionEvent struct {
	ItemsProcessed int      `json:"items_processed"`
	ItemsSkipped   []string `json:"items_skipped,omitempty"`
}

// LowStockEvent describes a material that crossed its low stock threshold.
type LowStockEvent struct {
	MaterialID int64   `json:"material_id"`
	Name       string  `json:"name"`
	Quantity   float64 `json:"quantity"`
	Status     string  `json:"status"`
}

// HealthStatusEvent carries the periodic service health summary.
type HealthStatusEvent struct {
	Status     string            `json:"status"`
	Components map[string]string `json:"components,omitempty"`
}

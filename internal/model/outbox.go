package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type OutboxStatus string

const (
	OutboxStatusPending   OutboxStatus = "pending"
	OutboxStatusRetry     OutboxStatus = "retry"
	OutboxStatusProcessed OutboxStatus = "processed"
	OutboxStatusFailed    OutboxStatus = "failed"
)

type OutboxEvent struct {
	ID           uuid.UUID    `db:"id" json:"id"`
	EventType    string       `db:"event_type" json:"event_type"`
	Payload      Payload      `db:"payload" json:"payload"`
	Status       OutboxStatus `db:"status" json:"status"`
	ErrorMessage *string      `db:"error_message" json:"error_message,omitempty"`
	RetryCount   int          `db:"retry_count" json:"retry_count"`
	RetryAt      *time.Time   `db:"retry_at" json:"retry_at,omitempty"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	ProcessedAt  *time.Time   `db:"processed_at" json:"processed_at,omitempty"`
	UpdatedAt    time.Time    `db:"updated_at" json:"updated_at"`
}

// Payload is a JSON document stored as text so every driver round-trips it.
type Payload json.RawMessage

func (p Payload) Value() (driver.Value, error) {
	if p == nil {
		return nil, nil
	}
	return string(p), nil
}

func (p *Payload) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*p = nil
	case []byte:
		*p = append((*p)[:0], v...)
	case string:
		*p = Payload(v)
	default:
		return fmt.Errorf("unsupported payload type %T", src)
	}
	return nil
}

func (p Payload) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	return p, nil
}

// NewPayload marshals v into a Payload.
func NewPayload(v interface{}) (Payload, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return Payload(b), nil
}

package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for persisted entities
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// DateLayout is the wire format for schedule dates.
const DateLayout = "2006-01-02"

// TimeLayout is the wire format for schedule start times (24h).
const TimeLayout = "15:04"

package model

import (
	"time"

	"github.com/google/uuid"
)

// EventPayoutCompleted is emitted once a walker balance has been credited.
const EventPayoutCompleted = "payout.completed"

type NotificationStatus string

const (
	NotificationStatusSent   NotificationStatus = "sent"
	NotificationStatusFailed NotificationStatus = "failed"
)

// PayoutCompleted is the outbox payload of EventPayoutCompleted.
type PayoutCompleted struct {
	EventID         uuid.UUID `json:"event_id"`
	PaymentID       uuid.UUID `json:"payment_id"`
	PayoutPaymentID uuid.UUID `json:"payout_payment_id"`
	WalkID          uuid.UUID `json:"walk_id"`
	WalkerID        uuid.UUID `json:"walker_id"`
	WalkerAmount    int64     `json:"walker_amount"`
	Balance         int64     `json:"balance"`
	OccurredAt      time.Time `json:"occurred_at"`
}

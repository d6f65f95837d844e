package model

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusPaid      PaymentStatus = "paid"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// ParsePaymentStatus reports whether s names a known payment status.
func ParsePaymentStatus(s string) (PaymentStatus, bool) {
	switch st := PaymentStatus(s); st {
	case PaymentStatusPending, PaymentStatusPaid, PaymentStatusCancelled:
		return st, true
	}
	return "", false
}

type PaymentKind string

const (
	// PaymentKindCharge is what the client owes for a walk.
	PaymentKindCharge PaymentKind = "charge"
	// PaymentKindPayout is the ledger entry crediting the walker.
	PaymentKindPayout PaymentKind = "payout"
)

type Payment struct {
	Base
	WalkID           uuid.UUID     `db:"walk_id" json:"walk_id"`
	Kind             PaymentKind   `db:"kind" json:"kind"`
	Amount           int64         `db:"amount" json:"amount"`
	Status           PaymentStatus `db:"status" json:"status"`
	WalkerAssigned   bool          `db:"walker_assigned" json:"walker_assigned"`
	WalkerAmount     *int64        `db:"walker_amount" json:"walker_amount,omitempty"`
	CommissionAmount *int64        `db:"commission_amount" json:"commission_amount,omitempty"`
	AssignmentDate   *time.Time    `db:"assignment_date" json:"assignment_date,omitempty"`
}

type UpdatePaymentStatusRequest struct {
	Status string `json:"status"`
}

type PaymentFilters struct {
	ClientID *uuid.UUID
	WalkerID *uuid.UUID
	WalkID   *uuid.UUID
	Status   PaymentStatus
}

// Settlement describes a completed payout assignment.
type Settlement struct {
	PaymentID        uuid.UUID `json:"payment_id"`
	WalkID           uuid.UUID `json:"walk_id"`
	WalkerID         uuid.UUID `json:"walker_id"`
	Amount           int64     `json:"amount"`
	CommissionAmount int64     `json:"commission_amount"`
	WalkerAmount     int64     `json:"walker_amount"`
	Balance          int64     `json:"balance"`
	PayoutPaymentID  uuid.UUID `json:"payout_payment_id"`
	AssignedAt       time.Time `json:"assigned_at"`
}

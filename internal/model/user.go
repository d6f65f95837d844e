package model

import (
	"time"

	"github.com/google/uuid"
)

// Role identifiers as carried in the role_id token claim.
type Role int

const (
	RoleAdmin  Role = 1
	RoleClient Role = 2
	RoleWalker Role = 3
)

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleClient:
		return "client"
	case RoleWalker:
		return "walker"
	default:
		return "unknown"
	}
}

// User is the contact card of an account holder.
type User struct {
	ID     uuid.UUID `db:"id" json:"id"`
	Name   string    `db:"name" json:"name"`
	Email  string    `db:"email" json:"email"`
	Phone  string    `db:"phone" json:"phone,omitempty"`
	RoleID Role      `db:"role_id" json:"role_id"`
}

type Pet struct {
	ID      uuid.UUID `db:"id" json:"id"`
	OwnerID uuid.UUID `db:"owner_id" json:"owner_id"`
	Name    string    `db:"name" json:"name"`
	Zone    string    `db:"zone" json:"zone,omitempty"`
}

// WalkerProfile holds the running payout balance of a walker.
type WalkerProfile struct {
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	Balance   int64     `db:"balance" json:"balance"`
	Zone      string    `db:"zone" json:"zone,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

type Rating struct {
	ID         uuid.UUID `db:"id" json:"id"`
	WalkID     uuid.UUID `db:"walk_id" json:"walk_id"`
	SenderID   uuid.UUID `db:"sender_id" json:"sender_id"`
	ReceiverID uuid.UUID `db:"receiver_id" json:"receiver_id"`
	Value      int       `db:"value" json:"value"`
	Comment    string    `db:"comment" json:"comment"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

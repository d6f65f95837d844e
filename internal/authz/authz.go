// Package authz decides what an authenticated actor may do with a walk or payment.
package authz

import (
	"github.com/google/uuid"

	"github.com/paseoapp/walk-api/internal/model"
)

// Actor is the authenticated caller.
type Actor struct {
	UserID uuid.UUID
	Role   model.Role
}

func (a Actor) IsAdmin() bool  { return a.Role == model.RoleAdmin }
func (a Actor) IsClient() bool { return a.Role == model.RoleClient }
func (a Actor) IsWalker() bool { return a.Role == model.RoleWalker }

type Action string

const (
	WalkCreate          Action = "walk:create"
	WalkRead            Action = "walk:read"
	WalkConfirm         Action = "walk:confirm"
	WalkRelease         Action = "walk:release"
	WalkStart           Action = "walk:start"
	WalkFinish          Action = "walk:finish"
	WalkCancel          Action = "walk:cancel"
	PaymentRead         Action = "payment:read"
	PaymentUpdateStatus Action = "payment:update_status"
	PaymentSettle       Action = "payment:settle"
)

// Resource is the ownership view of the object acted on. A zero value
// stands for "no specific object", as for creation.
type Resource struct {
	ClientID uuid.UUID
	WalkerID *uuid.UUID
	// Open marks a walk any walker may pick up.
	Open bool
}

// WalkResource builds the resource view of walk.
func WalkResource(walk *model.Walk) Resource {
	return Resource{
		ClientID: walk.ClientID,
		WalkerID: walk.WalkerID,
		Open:     walk.Status == model.WalkStatusPending && !walk.HasWalker(),
	}
}

func (r Resource) ownedBy(id uuid.UUID) bool {
	return r.ClientID != uuid.Nil && r.ClientID == id
}

func (r Resource) assignedTo(id uuid.UUID) bool {
	return r.WalkerID != nil && *r.WalkerID == id
}

// Can reports whether actor may perform action on res.
func Can(actor Actor, action Action, res Resource) bool {
	switch action {
	case WalkCreate:
		return actor.IsClient()
	case WalkRead, PaymentRead:
		switch {
		case actor.IsAdmin():
			return true
		case actor.IsClient():
			return res.ownedBy(actor.UserID)
		case actor.IsWalker():
			return res.assignedTo(actor.UserID) || (action == WalkRead && res.Open)
		}
	case WalkConfirm:
		return actor.IsWalker() && res.Open
	case WalkRelease, WalkStart, WalkFinish:
		return actor.IsAdmin() || (actor.IsWalker() && res.assignedTo(actor.UserID))
	case WalkCancel, PaymentUpdateStatus:
		return actor.IsAdmin() || (actor.IsClient() && res.ownedBy(actor.UserID))
	case PaymentSettle:
		return actor.IsAdmin()
	}
	return false
}

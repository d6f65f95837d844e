package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/paseoapp/walk-api/internal/model"
)

var (
	// ErrNotFound is returned when a lookup or keyed update matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned on unique constraint violations.
	ErrConflict = errors.New("record already exists")
	// ErrStale is returned when a conditional update lost against a concurrent change.
	ErrStale = errors.New("record changed concurrently")
)

// Store groups the repositories and runs them inside a transaction.
// Repositories obtained from the Store passed to fn share the transaction.
type Store interface {
	Walks() WalkRepository
	Payments() PaymentRepository
	Pets() PetRepository
	Users() UserRepository
	WalkerProfiles() WalkerProfileRepository
	Ratings() RatingRepository
	Outbox() OutboxRepository
	WithTx(ctx context.Context, fn func(Store) error) error
	Ping(ctx context.Context) error
}

// StatusChange is a conditional walk status update.
type StatusChange struct {
	WalkID uuid.UUID
	From   model.WalkStatus
	To     model.WalkStatus
	// SetWalker overwrites walker_id with WalkerID (nil clears it).
	SetWalker bool
	WalkerID  *uuid.UUID
	At        time.Time
}

type (
	WalkRepository interface {
		Create(ctx context.Context, walk *model.Walk) error
		AddScheduleRows(ctx context.Context, rows []model.ScheduleRow) error
		AddPets(ctx context.Context, walkID uuid.UUID, petIDs []uuid.UUID) error
		Get(ctx context.Context, id uuid.UUID) (*model.Walk, error)
		List(ctx context.Context, filters *model.WalkFilters) ([]*model.Walk, error)
		UpdateStatus(ctx context.Context, change StatusChange) error
		// UpcomingScheduleRows returns rows dated on or after the calendar date from.
		UpcomingScheduleRows(ctx context.Context, walkID uuid.UUID, from time.Time) ([]model.ScheduleRow, error)
	}

	PaymentRepository interface {
		Create(ctx context.Context, payment *model.Payment) error
		Get(ctx context.Context, id uuid.UUID) (*model.Payment, error)
		List(ctx context.Context, filters *model.PaymentFilters) ([]*model.Payment, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.PaymentStatus, at time.Time) error
		// MarkAssigned latches walker_assigned on a paid, unassigned payment.
		// It returns ErrStale when the payment no longer qualifies.
		MarkAssigned(ctx context.Context, id uuid.UUID, walkerAmount, commission int64, at time.Time) error
		CancelPendingCharges(ctx context.Context, walkID uuid.UUID, at time.Time) (int64, error)
	}

	PetRepository interface {
		Create(ctx context.Context, pet *model.Pet) error
		Get(ctx context.Context, id uuid.UUID) (*model.Pet, error)
	}

	UserRepository interface {
		Create(ctx context.Context, user *model.User) error
		Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	}

	WalkerProfileRepository interface {
		Create(ctx context.Context, profile *model.WalkerProfile) error
		Get(ctx context.Context, userID uuid.UUID) (*model.WalkerProfile, error)
		// AddBalance credits delta and returns ErrNotFound when no profile exists.
		AddBalance(ctx context.Context, userID uuid.UUID, delta int64, at time.Time) error
	}

	RatingRepository interface {
		Create(ctx context.Context, rating *model.Rating) error
		ListByWalk(ctx context.Context, walkID uuid.UUID) ([]*model.Rating, error)
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		Get(ctx context.Context, id uuid.UUID) (*model.OutboxEvent, error)
		GetPendingEvents(ctx context.Context, limit int, now time.Time) ([]*model.OutboxEvent, error)
		MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error
		MarkRetry(ctx context.Context, id uuid.UUID, errMsg string, retryAt time.Time) error
		MarkFailed(ctx context.Context, id uuid.UUID, errMsg string, at time.Time) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)

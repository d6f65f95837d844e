package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/paseoapp/walk-api/internal/repository"
)

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// baseRepository carries the handle every repository runs its queries on.
type baseRepository struct {
	db queryer
}

// rebind converts ? placeholders to the driver's bind style.
func (r baseRepository) rebind(query string) string {
	return r.db.Rebind(query)
}

// Store is the sqlx-backed repository.Store.
type Store struct {
	db   *sqlx.DB
	base baseRepository
	inTx bool
}

func NewStore(db *sqlx.DB) *Store {
	return &Store{db: db, base: baseRepository{db: db}}
}

func (s *Store) DB() *sqlx.DB { return s.db }

func (s *Store) Walks() repository.WalkRepository       { return &walkRepository{s.base} }
func (s *Store) Payments() repository.PaymentRepository { return &paymentRepository{s.base} }
func (s *Store) Pets() repository.PetRepository         { return &petRepository{s.base} }
func (s *Store) Users() repository.UserRepository       { return &userRepository{s.base} }
func (s *Store) Ratings() repository.RatingRepository   { return &ratingRepository{s.base} }
func (s *Store) Outbox() repository.OutboxRepository    { return &outboxRepository{s.base} }

func (s *Store) WalkerProfiles() repository.WalkerProfileRepository {
	return &walkerProfileRepository{s.base}
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTx executes fn within a transaction. Nested calls join the outer one.
func (s *Store) WithTx(ctx context.Context, fn func(repository.Store) error) (err error) {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	txStore := &Store{db: s.db, base: baseRepository{db: tx}, inTx: true}
	if err := fn(txStore); err != nil {
		tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

var _ repository.Store = (*Store)(nil)

package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/paseoapp/walk-api/internal/model"
	"github.com/paseoapp/walk-api/internal/repository"
)

type userRepository struct {
	baseRepository
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := r.rebind(`INSERT INTO users (id, name, email, phone, role_id) VALUES (?, ?, ?, ?, ?)`)
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if _, err := r.db.ExecContext(ctx, query, user.ID, user.Name, user.Email, user.Phone, user.RoleID); err != nil {
		return fmt.Errorf("failed to create user: %w", mapError(err))
	}
	return nil
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := r.rebind(`SELECT id, name, email, phone, role_id FROM users WHERE id = ?`)
	var user model.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, fmt.Errorf("failed to get user: %w", mapError(err))
	}
	return &user, nil
}

type petRepository struct {
	baseRepository
}

func (r *petRepository) Create(ctx context.Context, pet *model.Pet) error {
	query := r.rebind(`INSERT INTO pets (id, owner_id, name, zone) VALUES (?, ?, ?, ?)`)
	if pet.ID == uuid.Nil {
		pet.ID = uuid.New()
	}
	if _, err := r.db.ExecContext(ctx, query, pet.ID, pet.OwnerID, pet.Name, pet.Zone); err != nil {
		return fmt.Errorf("failed to create pet: %w", mapError(err))
	}
	return nil
}

func (r *petRepository) Get(ctx context.Context, id uuid.UUID) (*model.Pet, error) {
	query := r.rebind(`SELECT id, owner_id, name, zone FROM pets WHERE id = ?`)
	var pet model.Pet
	if err := r.db.GetContext(ctx, &pet, query, id); err != nil {
		return nil, fmt.Errorf("failed to get pet: %w", mapError(err))
	}
	return &pet, nil
}

type walkerProfileRepository struct {
	baseRepository
}

func (r *walkerProfileRepository) Create(ctx context.Context, profile *model.WalkerProfile) error {
	query := r.rebind(`
		INSERT INTO walker_profiles (user_id, balance, zone, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`)
	if _, err := r.db.ExecContext(ctx, query,
		profile.UserID, profile.Balance, profile.Zone, profile.CreatedAt, profile.UpdatedAt,
	); err != nil {
		return fmt.Errorf("failed to create walker profile: %w", mapError(err))
	}
	return nil
}

func (r *walkerProfileRepository) Get(ctx context.Context, userID uuid.UUID) (*model.WalkerProfile, error) {
	query := r.rebind(`
		SELECT user_id, balance, zone, created_at, updated_at
		FROM walker_profiles WHERE user_id = ?
	`)
	var profile model.WalkerProfile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get walker profile: %w", mapError(err))
	}
	return &profile, nil
}

func (r *walkerProfileRepository) AddBalance(ctx context.Context, userID uuid.UUID, delta int64, at time.Time) error {
	query := r.rebind(`
		UPDATE walker_profiles SET balance = balance + ?, updated_at = ?
		WHERE user_id = ?
	`)
	result, err := r.db.ExecContext(ctx, query, delta, at, userID)
	if err != nil {
		return fmt.Errorf("failed to credit walker balance: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

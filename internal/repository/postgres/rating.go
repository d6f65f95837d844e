package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/paseoapp/walk-api/internal/model"
)

type ratingRepository struct {
	baseRepository
}

func (r *ratingRepository) Create(ctx context.Context, rating *model.Rating) error {
	query := r.rebind(`
		INSERT INTO ratings (id, walk_id, sender_id, receiver_id, value, comment, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if rating.ID == uuid.Nil {
		rating.ID = uuid.New()
	}
	_, err := r.db.ExecContext(ctx, query,
		rating.ID, rating.WalkID, rating.SenderID, rating.ReceiverID,
		rating.Value, rating.Comment, rating.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create rating: %w", mapError(err))
	}
	return nil
}

func (r *ratingRepository) ListByWalk(ctx context.Context, walkID uuid.UUID) ([]*model.Rating, error) {
	query := r.rebind(`
		SELECT id, walk_id, sender_id, receiver_id, value, comment, created_at
		FROM ratings WHERE walk_id = ?
		ORDER BY created_at, id
	`)
	var ratings []*model.Rating
	if err := r.db.SelectContext(ctx, &ratings, query, walkID); err != nil {
		return nil, fmt.Errorf("failed to list ratings: %w", err)
	}
	return ratings, nil
}

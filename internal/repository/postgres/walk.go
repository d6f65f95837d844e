package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/paseoapp/walk-api/internal/model"
	"github.com/paseoapp/walk-api/internal/repository"
)

type walkRepository struct {
	baseRepository
}

const walkColumns = `w.id, w.walk_type, w.status, w.client_id, w.walker_id, w.comments, w.created_at, w.updated_at`

func (r *walkRepository) Create(ctx context.Context, walk *model.Walk) error {
	query := r.rebind(`
		INSERT INTO walks (
			id, walk_type, status, client_id, walker_id, comments, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if walk.ID == uuid.Nil {
		walk.ID = uuid.New()
	}

	_, err := r.db.ExecContext(ctx, query,
		walk.ID,
		walk.WalkType,
		walk.Status,
		walk.ClientID,
		walk.WalkerID,
		walk.Comments,
		walk.CreatedAt,
		walk.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create walk: %w", mapError(err))
	}
	return nil
}

func (r *walkRepository) AddScheduleRows(ctx context.Context, rows []model.ScheduleRow) error {
	query := r.rebind(`
		INSERT INTO days_walk (id, walk_id, walk_date, start_time, duration)
		VALUES (?, ?, ?, ?, ?)
	`)
	for i := range rows {
		if rows[i].ID == uuid.Nil {
			rows[i].ID = uuid.New()
		}
		if _, err := r.db.ExecContext(ctx, query,
			rows[i].ID, rows[i].WalkID, rows[i].Date, rows[i].StartTime, rows[i].Duration,
		); err != nil {
			return fmt.Errorf("failed to create schedule row: %w", mapError(err))
		}
	}
	return nil
}

func (r *walkRepository) AddPets(ctx context.Context, walkID uuid.UUID, petIDs []uuid.UUID) error {
	query := r.rebind(`INSERT INTO walk_pets (walk_id, pet_id) VALUES (?, ?)`)
	for _, petID := range petIDs {
		if _, err := r.db.ExecContext(ctx, query, walkID, petID); err != nil {
			return fmt.Errorf("failed to link pet: %w", mapError(err))
		}
	}
	return nil
}

func (r *walkRepository) Get(ctx context.Context, id uuid.UUID) (*model.Walk, error) {
	query := r.rebind(`SELECT ` + walkColumns + ` FROM walks w WHERE w.id = ?`)

	var walk model.Walk
	if err := r.db.GetContext(ctx, &walk, query, id); err != nil {
		return nil, fmt.Errorf("failed to get walk: %w", mapError(err))
	}
	if err := r.loadDetails(ctx, []*model.Walk{&walk}); err != nil {
		return nil, err
	}
	return &walk, nil
}

func (r *walkRepository) List(ctx context.Context, filters *model.WalkFilters) ([]*model.Walk, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filters != nil {
		if filters.ClientID != nil {
			conds = append(conds, "w.client_id = ?")
			args = append(args, *filters.ClientID)
		}
		if filters.WalkerID != nil {
			if filters.IncludeOpen {
				open := "(w.walker_id IS NULL AND w.status = ?"
				args = append(args, *filters.WalkerID, model.WalkStatusPending)
				if filters.Zone != "" {
					open += ` AND EXISTS (
						SELECT 1 FROM walk_pets wp JOIN pets p ON p.id = wp.pet_id
						WHERE wp.walk_id = w.id AND p.zone = ?)`
					args = append(args, filters.Zone)
				}
				conds = append(conds, "(w.walker_id = ? OR "+open+"))")
			} else {
				conds = append(conds, "w.walker_id = ?")
				args = append(args, *filters.WalkerID)
			}
		}
		if filters.Status != "" {
			conds = append(conds, "w.status = ?")
			args = append(args, filters.Status)
		}
	}

	query := `SELECT ` + walkColumns + ` FROM walks w`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY w.created_at DESC, w.id"

	var walks []*model.Walk
	if err := r.db.SelectContext(ctx, &walks, r.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list walks: %w", err)
	}
	if err := r.loadDetails(ctx, walks); err != nil {
		return nil, err
	}
	return walks, nil
}

// loadDetails attaches schedule rows and pet ids to walks.
func (r *walkRepository) loadDetails(ctx context.Context, walks []*model.Walk) error {
	if len(walks) == 0 {
		return nil
	}
	byID := make(map[uuid.UUID]*model.Walk, len(walks))
	ids := make([]uuid.UUID, 0, len(walks))
	for _, w := range walks {
		byID[w.ID] = w
		ids = append(ids, w.ID)
	}

	query, args, err := sqlx.In(`
		SELECT id, walk_id, walk_date, start_time, duration
		FROM days_walk WHERE walk_id IN (?)
		ORDER BY walk_date, start_time
	`, ids)
	if err != nil {
		return fmt.Errorf("failed to build schedule query: %w", err)
	}
	var rows []model.ScheduleRow
	if err := r.db.SelectContext(ctx, &rows, r.rebind(query), args...); err != nil {
		return fmt.Errorf("failed to load schedule: %w", err)
	}
	for _, row := range rows {
		if w, ok := byID[row.WalkID]; ok {
			w.Days = append(w.Days, row)
		}
	}

	query, args, err = sqlx.In(`SELECT walk_id, pet_id FROM walk_pets WHERE walk_id IN (?) ORDER BY pet_id`, ids)
	if err != nil {
		return fmt.Errorf("failed to build pets query: %w", err)
	}
	var links []struct {
		WalkID uuid.UUID `db:"walk_id"`
		PetID  uuid.UUID `db:"pet_id"`
	}
	if err := r.db.SelectContext(ctx, &links, r.rebind(query), args...); err != nil {
		return fmt.Errorf("failed to load walk pets: %w", err)
	}
	for _, l := range links {
		if w, ok := byID[l.WalkID]; ok {
			w.PetIDs = append(w.PetIDs, l.PetID)
		}
	}
	return nil
}

func (r *walkRepository) UpdateStatus(ctx context.Context, change repository.StatusChange) error {
	set := "status = ?, updated_at = ?"
	args := []interface{}{change.To, change.At}
	if change.SetWalker {
		set += ", walker_id = ?"
		args = append(args, change.WalkerID)
	}
	args = append(args, change.WalkID, change.From)

	query := r.rebind(`UPDATE walks SET ` + set + ` WHERE id = ? AND status = ?`)
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update walk status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrStale
	}
	return nil
}

// UpcomingScheduleRows returns the rows dated on or after from, earliest first.
func (r *walkRepository) UpcomingScheduleRows(ctx context.Context, walkID uuid.UUID, from time.Time) ([]model.ScheduleRow, error) {
	query := r.rebind(`
		SELECT id, walk_id, walk_date, start_time, duration
		FROM days_walk
		WHERE walk_id = ? AND walk_date >= ?
		ORDER BY walk_date, start_time
	`)
	var rows []model.ScheduleRow
	if err := r.db.SelectContext(ctx, &rows, query, walkID, from); err != nil {
		return nil, fmt.Errorf("failed to get upcoming schedule rows: %w", err)
	}
	return rows, nil
}

package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/paseoapp/walk-api/internal/model"
	"github.com/paseoapp/walk-api/internal/repository"
)

type paymentRepository struct {
	baseRepository
}

const paymentColumns = `p.id, p.walk_id, p.kind, p.amount, p.status, p.walker_assigned,
	p.walker_amount, p.commission_amount, p.assignment_date, p.created_at, p.updated_at`

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	query := r.rebind(`
		INSERT INTO payments (
			id, walk_id, kind, amount, status, walker_assigned,
			walker_amount, commission_amount, assignment_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.WalkID,
		payment.Kind,
		payment.Amount,
		payment.Status,
		payment.WalkerAssigned,
		payment.WalkerAmount,
		payment.CommissionAmount,
		payment.AssignmentDate,
		payment.CreatedAt,
		payment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create payment: %w", mapError(err))
	}
	return nil
}

func (r *paymentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	query := r.rebind(`SELECT ` + paymentColumns + ` FROM payments p WHERE p.id = ?`)

	var payment model.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, fmt.Errorf("failed to get payment: %w", mapError(err))
	}
	return &payment, nil
}

func (r *paymentRepository) List(ctx context.Context, filters *model.PaymentFilters) ([]*model.Payment, error) {
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
			conds = append(conds, "w.walker_id = ?")
			args = append(args, *filters.WalkerID)
		}
		if filters.WalkID != nil {
			conds = append(conds, "p.walk_id = ?")
			args = append(args, *filters.WalkID)
		}
		if filters.Status != "" {
			conds = append(conds, "p.status = ?")
			args = append(args, filters.Status)
		}
	}

	query := `SELECT ` + paymentColumns + ` FROM payments p JOIN walks w ON w.id = p.walk_id`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY p.created_at DESC, p.id"

	var payments []*model.Payment
	if err := r.db.SelectContext(ctx, &payments, r.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	return payments, nil
}

func (r *paymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.PaymentStatus, at time.Time) error {
	query := r.rebind(`
		UPDATE payments SET status = ?, updated_at = ?
		WHERE id = ? AND status = ? AND kind = ?
	`)
	return r.execOne(ctx, "update payment status", query, to, at, id, from, model.PaymentKindCharge)
}

func (r *paymentRepository) MarkAssigned(ctx context.Context, id uuid.UUID, walkerAmount, commission int64, at time.Time) error {
	query := r.rebind(`
		UPDATE payments
		SET walker_assigned = TRUE,
			walker_amount = ?,
			commission_amount = ?,
			assignment_date = ?,
			updated_at = ?
		WHERE id = ? AND walker_assigned = FALSE AND status = ?
	`)
	return r.execOne(ctx, "assign payment", query, walkerAmount, commission, at, at, id, model.PaymentStatusPaid)
}

func (r *paymentRepository) CancelPendingCharges(ctx context.Context, walkID uuid.UUID, at time.Time) (int64, error) {
	query := r.rebind(`
		UPDATE payments SET status = ?, updated_at = ?
		WHERE walk_id = ? AND status = ? AND kind = ?
	`)
	result, err := r.db.ExecContext(ctx, query,
		model.PaymentStatusCancelled, at, walkID, model.PaymentStatusPending, model.PaymentKindCharge)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel payments: %w", err)
	}
	return result.RowsAffected()
}

// execOne runs a conditional update and reports ErrStale when it matched nothing.
func (r *paymentRepository) execOne(ctx context.Context, op, query string, args ...interface{}) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", op, err)
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

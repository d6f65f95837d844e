package payment

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"

	"github.com/paseoapp/walk-api/internal/authz"
	"github.com/paseoapp/walk-api/internal/model"
	"github.com/paseoapp/walk-api/internal/repository"
	"github.com/paseoapp/walk-api/internal/service/pricing"
	apperrors "github.com/paseoapp/walk-api/pkg/errors"
)

// Settle splits a paid payment into commission and walker share and credits
// the walker. A non-nil Settlement with a Dependency error means the money
// moved but the notification failed.
func (s *Service) Settle(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Settlement, error) {
	if !authz.Can(actor, authz.PaymentSettle, authz.Resource{}) {
		return nil, ErrForbidden
	}
	return s.settle(ctx, id)
}

func (s *Service) settle(ctx context.Context, id uuid.UUID) (*model.Settlement, error) {
	settlement, event, err := s.assign(ctx, id)
	if err != nil {
		s.metrics.Settlements.WithLabelValues(apperrors.KindOf(err).String()).Inc()
		return nil, err
	}

	s.metrics.Settlements.WithLabelValues("success").Inc()
	s.metrics.PayoutAmount.Add(float64(settlement.WalkerAmount))
	s.metrics.CommissionAmount.Add(float64(settlement.CommissionAmount))
	s.log.Info("payment settled",
		"payment_id", settlement.PaymentID.String(),
		"walker_id", settlement.WalkerID.String(),
		"walker_amount", settlement.WalkerAmount,
		"commission_amount", settlement.CommissionAmount,
		"balance", settlement.Balance,
	)

	if s.inline {
		if err := s.notifyInline(ctx, event); err != nil {
			return settlement, ErrNotificationFailed.Wrap(err)
		}
	}
	return settlement, nil
}

// assign checks the preconditions in order, then moves the money in one transaction.
func (s *Service) assign(ctx context.Context, id uuid.UUID) (*model.Settlement, *model.OutboxEvent, error) {
	payment, err := s.getPayment(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if payment.Status != model.PaymentStatusPaid {
		return nil, nil, ErrPaymentNotConfirmed
	}
	if payment.WalkerAssigned || payment.Kind == model.PaymentKindPayout {
		return nil, nil, ErrAlreadyAssigned
	}
	walk, err := s.store.Walks().Get(ctx, payment.WalkID)
	if err != nil {
		return nil, nil, apperrors.Internal(err)
	}
	if !walk.HasWalker() {
		return nil, nil, ErrNoWalkerAssigned
	}
	walkerID := *walk.WalkerID

	commission, walkerAmount := pricing.Split(payment.Amount)
	now := s.now().UTC()

	settlement := &model.Settlement{
		PaymentID:        payment.ID,
		WalkID:           walk.ID,
		WalkerID:         walkerID,
		Amount:           payment.Amount,
		CommissionAmount: commission,
		WalkerAmount:     walkerAmount,
		AssignedAt:       now,
	}
	var event *model.OutboxEvent

	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		if err := tx.Payments().MarkAssigned(ctx, payment.ID, walkerAmount, commission, now); err != nil {
			if errors.Is(err, repository.ErrStale) {
				return ErrAlreadyAssigned
			}
			return err
		}

		if err := tx.WalkerProfiles().AddBalance(ctx, walkerID, walkerAmount, now); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrWalkerProfileNotFound
			}
			return err
		}
		profile, err := tx.WalkerProfiles().Get(ctx, walkerID)
		if err != nil {
			return err
		}
		settlement.Balance = profile.Balance

		payout := &model.Payment{
			Base:           model.Base{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
			WalkID:         walk.ID,
			Kind:           model.PaymentKindPayout,
			Amount:         walkerAmount,
			Status:         model.PaymentStatusPaid,
			WalkerAssigned: true,
			AssignmentDate: &now,
		}
		if err := tx.Payments().Create(ctx, payout); err != nil {
			return err
		}
		settlement.PayoutPaymentID = payout.ID

		payload, err := model.NewPayload(model.PayoutCompleted{
			EventID:         uuid.New(),
			PaymentID:       payment.ID,
			PayoutPaymentID: payout.ID,
			WalkID:          walk.ID,
			WalkerID:        walkerID,
			WalkerAmount:    walkerAmount,
			Balance:         profile.Balance,
			OccurredAt:      now,
		})
		if err != nil {
			return err
		}
		event = &model.OutboxEvent{
			ID:        uuid.New(),
			EventType: model.EventPayoutCompleted,
			Payload:   payload,
			CreatedAt: now,
		}
		return tx.Outbox().Create(ctx, event)
	})
	if err != nil {
		if _, ok := apperrors.As(err); ok {
			return nil, nil, err
		}
		s.log.Error(err, "failed to settle payment", "payment_id", payment.ID.String())
		return nil, nil, apperrors.Internal(err)
	}
	return settlement, event, nil
}

// notifyInline delivers the outbox event in-process and records the outcome on it.
func (s *Service) notifyInline(ctx context.Context, event *model.OutboxEvent) error {
	var payload model.PayoutCompleted
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		return err
	}

	now := s.now().UTC()
	if err := s.notifier.NotifyPayout(ctx, payload); err != nil {
		if markErr := s.store.Outbox().MarkFailed(ctx, event.ID, err.Error(), now); markErr != nil {
			s.log.Error(markErr, "failed to update outbox event", "event_id", event.ID.String())
		}
		s.log.Warn("payout notification failed", "event_id", event.ID.String(), "error", err.Error())
		return err
	}

	if err := s.store.Outbox().MarkProcessed(ctx, event.ID, now); err != nil {
		s.log.Error(err, "failed to update outbox event", "event_id", event.ID.String())
	}
	return nil
}

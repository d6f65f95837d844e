package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/paseoapp/walk-api/internal/authz"
	"github.com/paseoapp/walk-api/internal/model"
	"github.com/paseoapp/walk-api/internal/repository"
	apperrors "github.com/paseoapp/walk-api/pkg/errors"
	"github.com/paseoapp/walk-api/pkg/logger"
	"github.com/paseoapp/walk-api/pkg/metrics"
)

var (
	ErrPaymentNotFound       = apperrors.NotFound("Pago no encontrado")
	ErrPaymentNotConfirmed   = apperrors.Validation("El pago no está confirmado")
	ErrAlreadyAssigned       = apperrors.Validation("El pago ya fue asignado al paseador")
	ErrNoWalkerAssigned      = apperrors.Validation("El paseo no tiene paseador asignado")
	ErrWalkerProfileNotFound = apperrors.NotFound("Perfil de paseador no encontrado")
	ErrInvalidStatus         = apperrors.Validation("Estado de pago inválido")
	ErrStatusTransition      = apperrors.Validation("Transición de estado de pago no permitida")
	ErrPayoutImmutable       = apperrors.Validation("Los pagos al paseador no pueden modificarse")
	ErrForbidden             = apperrors.Forbidden("No autorizado para esta operación")
	ErrNotificationFailed    = apperrors.Dependency("Pago asignado, pero la notificación al paseador falló", nil)
)

// Notifier delivers the payout notice when no broker is configured.
type Notifier interface {
	NotifyPayout(ctx context.Context, event model.PayoutCompleted) error
}

type Config struct {
	// InlineNotify delivers notifications right after commit instead of
	// leaving the outbox event to the worker.
	InlineNotify bool
	Now          func() time.Time
}

type Service struct {
	store    repository.Store
	notifier Notifier
	inline   bool
	metrics  *metrics.Metrics
	log      *logger.Logger
	now      func() time.Time
}

func NewService(store repository.Store, notifier Notifier, cfg Config, m *metrics.Metrics, log *logger.Logger) *Service {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if m == nil {
		m = metrics.NewNop()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		store:    store,
		notifier: notifier,
		inline:   cfg.InlineNotify && notifier != nil,
		metrics:  m,
		log:      log,
		now:      cfg.Now,
	}
}

// StatusUpdate is the outcome of a payment status change. SettlementErr is
// set when the change committed but the chained settlement did not.
type StatusUpdate struct {
	Payment       *model.Payment    `json:"payment"`
	Settlement    *model.Settlement `json:"settlement,omitempty"`
	SettlementErr error             `json:"-"`
}

func (s *Service) getPayment(ctx context.Context, id uuid.UUID) (*model.Payment, error) {
	payment, err := s.store.Payments().Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return payment, nil
}

func (s *Service) paymentResource(ctx context.Context, payment *model.Payment) (authz.Resource, *model.Walk, error) {
	walk, err := s.store.Walks().Get(ctx, payment.WalkID)
	if err != nil {
		return authz.Resource{}, nil, apperrors.Internal(err)
	}
	return authz.WalkResource(walk), walk, nil
}

// Get returns a payment the actor is allowed to see.
func (s *Service) Get(ctx context.Context, actor authz.Actor, id uuid.UUID) (*model.Payment, error) {
	payment, err := s.getPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	res, _, err := s.paymentResource(ctx, payment)
	if err != nil {
		return nil, err
	}
	if !authz.Can(actor, authz.PaymentRead, res) {
		return nil, ErrForbidden
	}
	return payment, nil
}

// List returns payments of the walks visible to actor.
func (s *Service) List(ctx context.Context, actor authz.Actor, status string) ([]*model.Payment, error) {
	filters := &model.PaymentFilters{}
	if status != "" {
		st, ok := model.ParsePaymentStatus(status)
		if !ok {
			return nil, ErrInvalidStatus
		}
		filters.Status = st
	}

	switch {
	case actor.IsAdmin():
	case actor.IsClient():
		filters.ClientID = &actor.UserID
	case actor.IsWalker():
		filters.WalkerID = &actor.UserID
	default:
		return nil, ErrForbidden
	}

	payments, err := s.store.Payments().List(ctx, filters)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if payments == nil {
		payments = []*model.Payment{}
	}
	return payments, nil
}

// UpdateStatus confirms or cancels a pending charge. Confirming chains into settlement.
func (s *Service) UpdateStatus(ctx context.Context, actor authz.Actor, id uuid.UUID, req *model.UpdatePaymentStatusRequest) (*StatusUpdate, error) {
	target, ok := model.ParsePaymentStatus(req.Status)
	if !ok {
		return nil, ErrInvalidStatus
	}

	payment, err := s.getPayment(ctx, id)
	if err != nil {
		return nil, err
	}
	res, _, err := s.paymentResource(ctx, payment)
	if err != nil {
		return nil, err
	}
	if !authz.Can(actor, authz.PaymentUpdateStatus, res) {
		return nil, ErrForbidden
	}
	if payment.Kind == model.PaymentKindPayout {
		return nil, ErrPayoutImmutable
	}
	if payment.Status != model.PaymentStatusPending || target == model.PaymentStatusPending {
		return nil, ErrStatusTransition
	}

	err = s.store.Payments().UpdateStatus(ctx, payment.ID, payment.Status, target, s.now().UTC())
	if errors.Is(err, repository.ErrStale) {
		return nil, ErrStatusTransition
	}
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	s.log.Info("payment status updated",
		"payment_id", payment.ID.String(),
		"from", string(payment.Status),
		"to", string(target),
		"actor_id", actor.UserID.String(),
	)

	result := &StatusUpdate{}
	if target == model.PaymentStatusPaid {
		result.Settlement, result.SettlementErr = s.settle(ctx, payment.ID)
	}

	if result.Payment, err = s.getPayment(ctx, payment.ID); err != nil {
		return nil, err
	}
	return result, nil
}

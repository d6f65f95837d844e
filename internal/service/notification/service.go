package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/paseoapp/walk-api/internal/email"
	"github.com/paseoapp/walk-api/internal/model"
	"github.com/paseoapp/walk-api/internal/repository"
	"github.com/paseoapp/walk-api/internal/sms"
	"github.com/paseoapp/walk-api/pkg/circuitbreaker"
	"github.com/paseoapp/walk-api/pkg/logger"
	"github.com/paseoapp/walk-api/pkg/metrics"
	"github.com/paseoapp/walk-api/pkg/worker"
)

const (
	channelEmail = "email"
	channelSMS   = "sms"

	defaultRetryDelay = 500 * time.Millisecond
)

// Notifier delivers payout notices to walkers.
type Notifier interface {
	NotifyPayout(ctx context.Context, event model.PayoutCompleted) error
}

type Config struct {
	// Retries is the number of extra attempts per channel.
	Retries    int
	RetryDelay time.Duration
}

type Service struct {
	users    repository.UserRepository
	emailSvc email.Service
	sms      sms.Sender
	breakers map[string]*gobreaker.CircuitBreaker
	cfg      Config
	metrics  *metrics.Metrics
	log      *logger.Logger
}

func NewService(users repository.UserRepository, emailSvc email.Service, smsSender sms.Sender, cfg Config, m *metrics.Metrics, log *logger.Logger) *Service {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = defaultRetryDelay
	}
	if log == nil {
		log = logger.Nop()
	}
	if m == nil {
		m = metrics.NewNop()
	}
	s := &Service{
		users:    users,
		emailSvc: emailSvc,
		sms:      smsSender,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
		cfg:      cfg,
		metrics:  m,
		log:      log,
	}
	for _, channel := range []string{channelEmail, channelSMS} {
		s.breakers[channel] = circuitbreaker.New(circuitbreaker.DefaultSettings("notify-"+channel), &log.ZL)
	}
	return s
}

// NotifyPayout tells the walker their balance was credited, by email and SMS.
// Every channel is attempted; the returned error joins the channel failures.
func (s *Service) NotifyPayout(ctx context.Context, event model.PayoutCompleted) error {
	user, err := s.users.Get(ctx, event.WalkerID)
	if err != nil {
		return fmt.Errorf("failed to load walker contact: %w", err)
	}

	subject := "Pago acreditado"
	body := fmt.Sprintf(
		"Hola %s, se acreditaron $%d en tu saldo por el paseo %s. Saldo actual: $%d.",
		user.Name, event.WalkerAmount, event.WalkID, event.Balance,
	)

	var errs []error
	if user.Email != "" {
		errs = append(errs, s.deliver(ctx, channelEmail, func() error {
			return s.emailSvc.SendCustom(ctx, user.Email, subject, body)
		}))
	}
	if user.Phone != "" {
		errs = append(errs, s.deliver(ctx, channelSMS, func() error {
			return s.sms.Send(ctx, user.Phone, body)
		}))
	}

	if err := errors.Join(errs...); err != nil {
		s.log.Warn("payout notification incomplete",
			"walker_id", event.WalkerID.String(),
			"payment_id", event.PaymentID.String(),
			"error", err.Error(),
		)
		return err
	}
	return nil
}

func (s *Service) deliver(ctx context.Context, channel string, send func() error) error {
	breaker := s.breakers[channel]
	err := worker.Retry(ctx, s.cfg.Retries+1, s.cfg.RetryDelay, func() error {
		_, err := breaker.Execute(func() (interface{}, error) {
			return nil, send()
		})
		return err
	})

	status := string(model.NotificationStatusSent)
	if err != nil {
		status = string(model.NotificationStatusFailed)
		err = fmt.Errorf("%s: %w", channel, err)
	}
	s.metrics.Notifications.WithLabelValues(channel, status).Inc()
	return err
}

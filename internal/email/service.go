package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/paseoapp/walk-api/internal/config"
	"github.com/paseoapp/walk-api/pkg/logger"
)

type Service interface {
	SendCustom(ctx context.Context, to string, subject string, content string) error
}

type smtpService struct {
	dialer *gomail.Dialer
	from   string
}

// NewService returns an SMTP sender, or a logging stub when no host is configured.
func NewService(cfg config.SMTPConfig, log *logger.Logger) Service {
	if cfg.Host == "" {
		return &logService{log: log}
	}
	return &smtpService{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
		from:   cfg.From,
	}
}

func (s *smtpService) SendCustom(ctx context.Context, to string, subject string, content string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if to == "" {
		return fmt.Errorf("recipient is required")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", content)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

type logService struct {
	log *logger.Logger
}

func (s *logService) SendCustom(_ context.Context, to string, subject string, _ string) error {
	s.log.Info("email delivery disabled, dropping message", "to", to, "subject", subject)
	return nil
}

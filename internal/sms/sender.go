// Package sms delivers text messages through an HTTP gateway.
package sms

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/paseoapp/walk-api/internal/config"
	"github.com/paseoapp/walk-api/pkg/logger"
)

type Sender interface {
	Send(ctx context.Context, to string, body string) error
}

type httpSender struct {
	client *http.Client
	url    string
	apiKey string
	from   string
}

// NewSender returns a gateway client, or a logging stub when no gateway is configured.
func NewSender(cfg config.SMSConfig, log *logger.Logger) Sender {
	if cfg.GatewayURL == "" {
		return &logSender{log: log}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &httpSender{
		client: &http.Client{Timeout: timeout},
		url:    cfg.GatewayURL,
		apiKey: cfg.APIKey,
		from:   cfg.Sender,
	}
}

type message struct {
	From string `json:"from,omitempty"`
	To   string `json:"to"`
	Body string `json:"body"`
}

func (s *httpSender) Send(ctx context.Context, to string, body string) error {
	if to == "" {
		return fmt.Errorf("recipient is required")
	}
	payload, err := json.Marshal(message{From: s.from, To: to, Body: body})
	if err != nil {
		return fmt.Errorf("failed to encode sms: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send sms: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return fmt.Errorf("sms gateway returned %d", resp.StatusCode)
	}
	return nil
}

type logSender struct {
	log *logger.Logger
}

func (s *logSender) Send(_ context.Context, to string, _ string) error {
	s.log.Info("sms delivery disabled, dropping message", "to", to)
	return nil
}

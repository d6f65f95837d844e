package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paseoapp/walk-api/internal/config"
	"github.com/paseoapp/walk-api/pkg/logger"
)

func TestHTTPSender_Send(t *testing.T) {
	var got message
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewSender(config.SMSConfig{GatewayURL: srv.URL, APIKey: "k", Sender: "Paseo"}, logger.Nop())
	require.NoError(t, s.Send(context.Background(), "+56912345678", "hola"))

	assert.Equal(t, "Bearer k", auth)
	assert.Equal(t, message{From: "Paseo", To: "+56912345678", Body: "hola"}, got)
}

func TestHTTPSender_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	s := NewSender(config.SMSConfig{GatewayURL: srv.URL}, logger.Nop())
	assert.Error(t, s.Send(context.Background(), "+56912345678", "hola"))
	assert.Error(t, s.Send(context.Background(), "", "hola"))
}

func TestNewSender_WithoutGatewayLogsOnly(t *testing.T) {
	s := NewSender(config.SMSConfig{}, logger.Nop())
	assert.NoError(t, s.Send(context.Background(), "+56912345678", "hola"))
}

package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
)

func TestNew_OpensAfterConsecutiveFailures(t *testing.T) {
	cb := New(Settings{Name: "test", MaxFailures: 2, Interval: time.Minute, Timeout: time.Hour}, nil)
	fail := func() (interface{}, error) { return nil, errors.New("down") }

	_, _ = cb.Execute(fail)
	assert.Equal(t, gobreaker.StateClosed, cb.State())
	_, _ = cb.Execute(fail)
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	called := false
	_, err := cb.Execute(func() (interface{}, error) {
		called = true
		return nil, nil
	})
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.False(t, called)
}

func TestDefaultSettings(t *testing.T) {
	s := DefaultSettings("notify-email")
	assert.Equal(t, "notify-email", s.Name)
	assert.Equal(t, uint32(5), s.MaxFailures)
}

package validator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsHHMM(t *testing.T) {
	for _, ok := range []string{"00:00", "08:30", "14:00", "23:59"} {
		assert.True(t, IsHHMM(ok), ok)
	}
	for _, bad := range []string{"", "8:30", "24:00", "12:60", "12:5", "1230", "12:30:00"} {
		assert.False(t, IsHHMM(bad), bad)
	}
}

func TestValidateField(t *testing.T) {
	v := New()

	assert.NoError(t, v.ValidateField("09:15", "hhmm"))
	assert.Error(t, v.ValidateField("9:15", "hhmm"))

	assert.NoError(t, v.ValidateField(30, "oneof=30 60"))
	assert.Error(t, v.ValidateField(45, "oneof=30 60"))

	// max counts characters, not bytes.
	assert.NoError(t, v.ValidateField(strings.Repeat("ñ", 250), "max=250"))
	assert.Error(t, v.ValidateField(strings.Repeat("a", 251), "max=250"))
}

func TestRegister(t *testing.T) {
	v := New()
	err := v.Register("upper", func(s string) bool { return strings.ToUpper(s) == s })
	assert.NoError(t, err)

	assert.NoError(t, v.ValidateField([]string{"A", "B"}, "dive,upper"))
	assert.Error(t, v.ValidateField([]string{"A", "b"}, "dive,upper"))
}

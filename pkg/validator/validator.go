package validator

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var hhmmPattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// Validator provides validation functionality
type Validator interface {
	Validate(obj interface{}) error
	ValidateField(value interface{}, tag string) error
	Register(tag string, fn func(value string) bool) error
}

type validate struct {
	engine *validator.Validate
}

// New returns a validator with the hhmm tag registered.
func New() Validator {
	v := &validate{engine: validator.New(validator.WithRequiredStructEnabled())}
	// hhmm is built in; registration cannot fail.
	_ = v.Register("hhmm", IsHHMM)
	return v
}

// IsHHMM reports whether s is a 24h HH:MM time.
func IsHHMM(s string) bool {
	return hhmmPattern.MatchString(s)
}

func (v *validate) Validate(obj interface{}) error {
	return v.engine.Struct(obj)
}

func (v *validate) ValidateField(value interface{}, tag string) error {
	return v.engine.Var(value, tag)
}

// Register adds a string-valued tag.
func (v *validate) Register(tag string, fn func(value string) bool) error {
	return v.engine.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return fn(fl.Field().String())
	})
}

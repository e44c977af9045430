package ctxcomp

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strconv"
	"time"
)

type converter func(raw string) (any, error)

// ValidationConfig collects custom converters for the default Validation component. The zero
// value is ready to use.
type ValidationConfig struct {
	converters map[reflect.Type]converter
}

// RegisterConverter adds a converter from raw strings to T. It replaces the built-in converter for
// T, if there is one.
func RegisterConverter[T any](cfg *ValidationConfig, fn func(raw string) (T, error)) {
	if fn == nil {
		panic("converter cannot be nil")
	}
	if cfg.converters == nil {
		cfg.converters = map[reflect.Type]converter{}
	}
	cfg.converters[typeOf[T]()] = func(raw string) (any, error) {
		return fn(raw)
	}
}

// Validation converts raw request input (query parameters, headers, path parameters) into typed
// values. It is resolved through ValidationKey.
type Validation struct {
	converters map[reflect.Type]converter
}

// NewValidation returns a Validation with the built-in converters plus the ones in cfg.
func NewValidation(cfg ValidationConfig) *Validation {
	v := &Validation{
		converters: map[reflect.Type]converter{
			typeOf[string](): func(raw string) (any, error) { return raw, nil },
			typeOf[int]():    func(raw string) (any, error) { return strconv.Atoi(raw) },
			typeOf[int64](): func(raw string) (any, error) {
				return strconv.ParseInt(raw, 10, 64)
			},
			typeOf[float64](): func(raw string) (any, error) {
				return strconv.ParseFloat(raw, 64)
			},
			typeOf[bool](): func(raw string) (any, error) { return strconv.ParseBool(raw) },
			typeOf[time.Duration](): func(raw string) (any, error) {
				return time.ParseDuration(raw)
			},
		},
	}
	for t, c := range cfg.converters {
		v.converters[t] = c
	}
	return v
}

// HasConverter reports whether values of type t can be converted.
func (v *Validation) HasConverter(t reflect.Type) bool {
	_, ok := v.converters[t]
	return ok
}

// ValidationError reports a value that could not be converted to the requested type.
type ValidationError struct {
	Field string
	Value string
	Type  reflect.Type
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("field %s: cannot convert %q to %v: %v", e.Field, e.Value, e.Type, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Convert converts raw into a T using v. field names the input in the error. Failures, including a
// missing converter for T, are returned as *ValidationError.
func Convert[T any](v *Validation, field, raw string) (T, error) {
	var zero T
	t := typeOf[T]()
	c, ok := v.converters[t]
	if !ok {
		return zero, &ValidationError{Field: field, Value: raw, Type: t, Err: fmt.Errorf("no converter registered for %v", t)}
	}
	out, err := c(raw)
	if err != nil {
		return zero, &ValidationError{Field: field, Value: raw, Type: t, Err: err}
	}
	return out.(T), nil
}

// ErrorMapper turns an error raised while handling a request into a response status and body. It
// reports false if it does not handle err.
type ErrorMapper func(err error) (status int, body any, ok bool)

// ValidationErrorMapper maps a *ValidationError anywhere in the error chain to a 400 response whose
// body lists the offending field.
func ValidationErrorMapper(err error) (int, any, bool) {
	var verr *ValidationError
	if !errors.As(err, &verr) {
		return 0, nil, false
	}
	body := map[string]any{
		verr.Field: map[string]any{
			"message": verr.Err.Error(),
			"value":   verr.Value,
		},
	}
	return http.StatusBadRequest, body, true
}

package ctxcomp

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrComponentNotFound is wrapped by the ComponentError returned when a key has no entry.
	ErrComponentNotFound = errors.New("component not found")

	// ErrMissingContext is returned by resolvers wrapped with RequireContext when they are
	// resolved without a request context.
	ErrMissingContext = errors.New("component resolver requires a request context")

	// ErrDuplicatePlugin is returned when the same plugin instance is registered twice.
	ErrDuplicatePlugin = errors.New("plugin already registered")

	// ErrAlreadyApplied is returned when Config.Apply is called more than once.
	ErrAlreadyApplied = errors.New("configuration already applied")
)

// ComponentError reports a failure to look up a component. SourceError is ErrComponentNotFound
// when the key was never registered.
type ComponentError struct {
	Message        string
	KeyID          string
	ReferencedType reflect.Type
	SourceError    error
}

func (e *ComponentError) Error() string {
	if e.SourceError == nil {
		return fmt.Sprintf("%s: %s", e.Message, e.KeyID)
	}
	return fmt.Sprintf("%s: %s (%v)", e.Message, e.KeyID, e.SourceError)
}

func (e *ComponentError) Unwrap() error {
	return e.SourceError
}

func notFoundError(id keyIdentity) *ComponentError {
	return &ComponentError{
		Message:        "no component resolver registered",
		KeyID:          id.id,
		ReferencedType: id.typ,
		SourceError:    ErrComponentNotFound,
	}
}

// PluginError wraps the error returned by a plugin's Start hook.
type PluginError struct {
	Plugin      string
	SourceError error
}

func (e *PluginError) Error() string {
	return fmt.Sprintf("plugin %s failed to start: %v", e.Plugin, e.SourceError)
}

func (e *PluginError) Unwrap() error {
	return e.SourceError
}

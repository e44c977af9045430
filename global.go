package ctxcomp

import "log/slog"

type TimingMode int

const (
	// TimingDisable does not record any timing information. This is the default.
	TimingDisable TimingMode = iota

	// TimingResolvers records a timing span for each resolver call, named after the component key
	// id, under whatever timing root the request context carries. Resolvers still receive the
	// request context unchanged, so spans they open themselves are siblings, not children.
	TimingResolvers
)

// RegistryOption is a functional option for configuring a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger the registry reports registrations to. By default slog.Default()
// is used.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithTiming sets the timing mode of the registry.
func WithTiming(mode TimingMode) RegistryOption {
	return func(r *Registry) {
		r.timing = mode
	}
}

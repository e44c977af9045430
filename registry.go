package ctxcomp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gburgyan/go-timing"
)

// Registrar is anything that owns a component registry. Both *Registry and *Config implement it,
// so every registration and resolution function works with either.
type Registrar interface {
	Components() *Registry
}

type entryKind int

const (
	kindValue entryKind = iota
	kindResolver
	kindParametrized
)

func (k entryKind) String() string {
	switch k {
	case kindValue:
		return "value"
	case kindResolver:
		return "resolver"
	case kindParametrized:
		return "parametrized"
	default:
		return "unknown"
	}
}

// entry is a single registration. Entries are replaced wholesale, never mutated, which is what
// keeps concurrent lookups safe without a lock.
type entry struct {
	key       AnyKey
	kind      entryKind
	value     any
	resolver  func(ctx context.Context) (any, error)
	param     func(params any, ctx context.Context) (any, error)
	defaults  func() any
	source    any // the typed function as registered, for diagnostics
	isDefault bool
}

// Registry maps component keys to fixed values or resolvers.
//
// Registration is expected to happen during a single-threaded configuration phase. After that the
// registry is read-mostly: concurrent calls to Resolve are safe. Registering while requests are
// being served is not a supported use case; it will not corrupt the registry but lookups may
// observe either the old or the new entry.
type Registry struct {
	entries sync.Map // map[keyIdentity]*entry
	logger  *slog.Logger
	timing  TimingMode
}

// NewRegistry returns an empty registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Components returns the registry itself, which makes *Registry a Registrar.
func (r *Registry) Components() *Registry {
	return r
}

// Has reports whether anything is registered under key.
func (r *Registry) Has(key AnyKey) bool {
	_, ok := r.entries.Load(key.identity())
	return ok
}

// Len returns the number of registered components.
func (r *Registry) Len() int {
	n := 0
	r.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// set stores e unconditionally. The last registration for a key wins.
func (r *Registry) set(e *entry) {
	_, replaced := r.entries.Swap(e.key.identity(), e)
	r.logger.Debug("component registered",
		"component", e.key.ID(),
		"type", e.key.Type(),
		"kind", e.kind,
		"replaced", replaced)
}

// setDefault stores e only if nothing is registered under its key yet. It reports whether e was
// stored.
func (r *Registry) setDefault(e *entry) bool {
	e.isDefault = true
	_, loaded := r.entries.LoadOrStore(e.key.identity(), e)
	if loaded {
		r.logger.Debug("default component skipped, already registered",
			"component", e.key.ID(),
			"type", e.key.Type())
		return false
	}
	r.logger.Debug("default component registered",
		"component", e.key.ID(),
		"type", e.key.Type(),
		"kind", e.kind)
	return true
}

func (r *Registry) lookup(id keyIdentity) (*entry, error) {
	v, ok := r.entries.Load(id)
	if !ok {
		return nil, notFoundError(id)
	}
	return v.(*entry), nil
}

// produce returns the component held by e. Values are returned as is; resolvers are invoked with
// ctx every time. params is only consulted by parametrized entries, and nil there means "use the
// defaults".
func (r *Registry) produce(ctx context.Context, e *entry, params any) (any, error) {
	switch e.kind {
	case kindValue:
		return e.value, nil
	case kindResolver:
		defer r.startTiming(ctx, e)()
		return e.resolver(ctx)
	case kindParametrized:
		if params == nil {
			params = e.defaults()
		}
		defer r.startTiming(ctx, e)()
		return e.param(params, ctx)
	default:
		// We should never get here.
		panic(fmt.Sprintf("unknown component entry kind %d", e.kind))
	}
}

// startTiming opens a timing span around a resolver call when timing is enabled and returns the
// function that completes it. The span only records the call; the resolver still gets ctx as is.
func (r *Registry) startTiming(ctx context.Context, e *entry) func() {
	if r.timing != TimingResolvers || ctx == nil {
		return func() {}
	}
	_, complete := timing.Start(ctx, e.key.ID())
	return func() { complete() }
}

// castComponent converts a produced component back to T. A nil component yields the zero T,
// which is how nil interface and pointer components come back out of the registry.
func castComponent[T any](e *entry, v any) (T, error) {
	if v == nil {
		var zero T
		return zero, nil
	}
	c, ok := v.(T)
	if !ok {
		var zero T
		return zero, &ComponentError{
			Message:        fmt.Sprintf("component has type %T", v),
			KeyID:          e.key.ID(),
			ReferencedType: e.key.Type(),
		}
	}
	return c, nil
}

// Register stores a fixed value under key, replacing any previous registration. The value is
// returned as is by every Resolve call; the request context is ignored.
func Register[T any](r Registrar, key Key[T], value T) {
	r.Components().set(&entry{
		key:   key,
		kind:  kindValue,
		value: value,
	})
}

// RegisterResolver stores a resolver under key, replacing any previous registration. The resolver
// is invoked on every Resolve call.
func RegisterResolver[T any](r Registrar, key Key[T], fn Resolver[T]) {
	if fn == nil {
		panic("resolver cannot be nil")
	}
	r.Components().set(&entry{
		key:      key,
		kind:     kindResolver,
		resolver: eraseResolver(fn),
		source:   fn,
	})
}

// RegisterDefault stores value under key only if the key has no registration yet. It reports
// whether the value was installed. This is the only conditional write; it is how framework and
// plugin defaults avoid clobbering user configuration.
func RegisterDefault[T any](r Registrar, key Key[T], value T) bool {
	return r.Components().setDefault(&entry{
		key:   key,
		kind:  kindValue,
		value: value,
	})
}

// RegisterDefaultResolver is RegisterDefault for resolvers.
func RegisterDefaultResolver[T any](r Registrar, key Key[T], fn Resolver[T]) bool {
	if fn == nil {
		panic("resolver cannot be nil")
	}
	return r.Components().setDefault(&entry{
		key:      key,
		kind:     kindResolver,
		resolver: eraseResolver(fn),
		source:   fn,
	})
}

// Resolve returns the component registered under key. A value registration is returned directly;
// a resolver is invoked with ctx. Errors from resolvers are returned unchanged. If nothing is
// registered under key the error is a *ComponentError wrapping ErrComponentNotFound.
func Resolve[T any](ctx context.Context, r Registrar, key Key[T]) (T, error) {
	reg := r.Components()
	e, err := reg.lookup(key.identity())
	if err != nil {
		var zero T
		return zero, err
	}
	v, err := reg.produce(ctx, e, nil)
	if err != nil {
		var zero T
		return zero, err
	}
	return castComponent[T](e, v)
}

// MustResolve behaves like Resolve except it panics if the component cannot be produced. A missing
// component is almost always a configuration bug, so this is a convenient form for framework code.
func MustResolve[T any](ctx context.Context, r Registrar, key Key[T]) T {
	c, err := Resolve(ctx, r, key)
	if err != nil {
		panic(err)
	}
	return c
}

// ResolveOptional behaves like Resolve but reports a missing registration with false instead of an
// error. Errors returned by resolvers are still returned.
func ResolveOptional[T any](ctx context.Context, r Registrar, key Key[T]) (T, bool, error) {
	if !r.Components().Has(key) {
		var zero T
		return zero, false, nil
	}
	c, err := Resolve(ctx, r, key)
	return c, err == nil, err
}

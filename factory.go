package ctxcomp

import (
	"context"
	"fmt"
)

// ParametrizedKey addresses a component that takes caller-supplied parameters at resolution time
// rather than at registration time. It shares its identity with the embedded Key, so a
// parametrized registration replaces a plain one under the same type and id, and vice versa.
//
// Deprecated: Experimental. The parametrized API may change or be removed; it is kept apart from
// Key so that nothing in the stable API depends on it.
type ParametrizedKey[T, P any] struct {
	Key[T]
	defaults func() P
}

// NewParametrizedKey returns a parametrized key for T. defaults supplies a fresh parameter value
// for every resolution; it must not return shared mutable state. An empty id falls back to the
// type name of T.
//
// Deprecated: Experimental. See ParametrizedKey.
func NewParametrizedKey[T, P any](id string, defaults func() P) ParametrizedKey[T, P] {
	if defaults == nil {
		panic("parametrized key requires a defaults supplier")
	}
	return ParametrizedKey[T, P]{
		Key:      NewKeyWithID[T](id),
		defaults: defaults,
	}
}

// Defaults returns a fresh copy of the default parameters.
//
// Deprecated: Experimental. See ParametrizedKey.
func (k ParametrizedKey[T, P]) Defaults() P {
	return k.defaults()
}

// ParametrizedResolver produces a component from parameters and the request context.
//
// Deprecated: Experimental. See ParametrizedKey.
type ParametrizedResolver[T, P any] func(params P, ctx context.Context) (T, error)

// RegisterParametrizedResolver stores a parametrized resolver under key, replacing any previous
// registration.
//
// Deprecated: Experimental. See ParametrizedKey.
func RegisterParametrizedResolver[T, P any](r Registrar, key ParametrizedKey[T, P], fn ParametrizedResolver[T, P]) {
	if fn == nil {
		panic("resolver cannot be nil")
	}
	if key.defaults == nil {
		panic("parametrized key requires a defaults supplier")
	}
	r.Components().set(&entry{
		key:  key.Key,
		kind: kindParametrized,
		param: func(params any, ctx context.Context) (any, error) {
			var p P
			if params != nil {
				var ok bool
				if p, ok = params.(P); !ok {
					// Only reachable if two parametrized keys share an identity but disagree on P.
					return nil, fmt.Errorf("parametrized component %s expects parameters of type %v, got %T", key.ID(), typeOf[P](), params)
				}
			}
			return fn(p, ctx)
		},
		defaults: func() any { return key.defaults() },
		source:   fn,
	})
}

// ResolveParametrized resolves a component with parameters. The parameters start from the key's
// defaults and are then passed to configure, which may be nil. If the key holds a plain value or
// resolver, the parameters are ignored and the component is resolved as with Resolve.
//
// Deprecated: Experimental. See ParametrizedKey.
func ResolveParametrized[T, P any](ctx context.Context, r Registrar, key ParametrizedKey[T, P], configure func(params *P)) (T, error) {
	reg := r.Components()
	e, err := reg.lookup(key.identity())
	if err != nil {
		var zero T
		return zero, err
	}

	var params any
	if e.kind == kindParametrized {
		p := key.Defaults()
		if configure != nil {
			configure(&p)
		}
		params = p
	}

	v, err := reg.produce(ctx, e, params)
	if err != nil {
		var zero T
		return zero, err
	}
	return castComponent[T](e, v)
}

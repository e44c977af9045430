package ctxcomp

import "context"

// Resolver produces a component for a request context. It is called on every lookup of its key;
// the registry never memoizes the result. The context is passed through untouched and may be nil
// when a component is resolved outside a request.
//
// Resolvers are called concurrently when requests are served concurrently, so they must be safe
// for concurrent use.
type Resolver[T any] func(ctx context.Context) (T, error)

// RequireContext wraps a resolver that cannot work without a request context. The wrapped
// resolver returns ErrMissingContext when it is resolved with a nil context instead of calling fn.
func RequireContext[T any](fn Resolver[T]) Resolver[T] {
	if fn == nil {
		panic("resolver cannot be nil")
	}
	return func(ctx context.Context) (T, error) {
		if ctx == nil {
			var zero T
			return zero, ErrMissingContext
		}
		return fn(ctx)
	}
}

// eraseResolver converts a typed resolver into the form stored by the registry.
func eraseResolver[T any](fn Resolver[T]) func(ctx context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		return fn(ctx)
	}
}

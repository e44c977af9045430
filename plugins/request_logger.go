package plugins

import (
	"context"
	"log/slog"

	ctxcomp "github.com/gburgyan/go-ctxcomp"
)

// requestIDKey is an unexported type to prevent collisions with context keys from other packages.
type requestIDKey struct{}

// WithRequestID returns a new context carrying the request id. The request layer calls this once
// per request.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestIDFromContext returns the request id stored by WithRequestID.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(requestIDKey{}).(string)
	return id, ok && id != ""
}

// RequestLogger publishes a request-scoped logger under ctxcomp.LoggerKey. Each resolution derives
// a logger from Base carrying the request id of the context, if there is one.
type RequestLogger struct {
	// Base is the logger requests derive from. Nil means the session logger.
	Base *slog.Logger
}

func (p *RequestLogger) Name() string {
	return "request-logger"
}

func (p *RequestLogger) Start(cfg *ctxcomp.Config) error {
	base := p.Base
	if base == nil {
		base = cfg.Logger()
	}
	ctxcomp.RegisterDefaultResolver(cfg, ctxcomp.LoggerKey, func(ctx context.Context) (*slog.Logger, error) {
		if id, ok := RequestIDFromContext(ctx); ok {
			return base.With("request_id", id), nil
		}
		return base, nil
	})
	return nil
}

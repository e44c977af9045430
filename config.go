package ctxcomp

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// Config is a configuration session: the object user code and plugins interact with to register
// components and plugins. It owns one Registry and one PluginManager. There is no process-wide
// registry; code that needs components is handed the Config (or its Registry).
//
// A Config is configured by a single goroutine. Once Apply has returned, its registry may be read
// concurrently.
type Config struct {
	// HTTP holds HTTP related settings published as components.
	HTTP HTTPConfig
	// Validation collects converters for the default Validation component.
	Validation ValidationConfig
	// Async configures the default async executor.
	Async AsyncConfig
	// JSON configures the default JSON mapper.
	JSON JSONConfig

	sessionID    string
	logger       *slog.Logger
	registryOpts []RegistryOption
	components   *Registry
	plugins      *PluginManager
	applied      bool
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithConfigLogger sets the logger of the session. The registry and plugin manager log through it
// too, with the session id attached.
func WithConfigLogger(logger *slog.Logger) ConfigOption {
	return func(c *Config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithSessionID replaces the generated session id.
func WithSessionID(id string) ConfigOption {
	return func(c *Config) {
		if id != "" {
			c.sessionID = id
		}
	}
}

// WithRegistryOptions passes options through to the session's Registry.
func WithRegistryOptions(opts ...RegistryOption) ConfigOption {
	return func(c *Config) {
		c.registryOpts = append(c.registryOpts, opts...)
	}
}

// NewConfig returns a new configuration session with an empty registry.
func NewConfig(opts ...ConfigOption) *Config {
	c := &Config{
		HTTP:      HTTPConfig{MaxRequestSize: DefaultMaxRequestSize},
		sessionID: uuid.NewString(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("session", c.sessionID)

	// The session logger goes first so that an explicit WithLogger registry option still wins.
	registryOpts := append([]RegistryOption{WithLogger(c.logger)}, c.registryOpts...)
	c.components = NewRegistry(registryOpts...)
	c.plugins = NewPluginManager(c.logger)
	return c
}

// Setup creates a Config and applies userConfig to it.
func Setup(userConfig func(cfg *Config) error, opts ...ConfigOption) (*Config, error) {
	c := NewConfig(opts...)
	if err := c.Apply(userConfig); err != nil {
		return nil, err
	}
	return c, nil
}

// Apply runs the configuration session. The steps happen in this order:
//
//  1. the validation error mapper is installed as a default;
//  2. userConfig runs, and may register components, resolvers and plugins;
//  3. all registered plugins are started, in registration order;
//  4. the remaining framework defaults are seeded: JSON mapper, file renderer, validation, async
//     executor, max request size, logger, and the defaults of every DefaultSeeder plugin.
//
// Only default registrations are used by steps 1 and 4, and plugins are expected to use them too,
// so anything registered by userConfig takes precedence over plugin and framework defaults.
// Plugins observe the complete user configuration when they start.
//
// Apply can only be called once per Config; later calls return ErrAlreadyApplied.
func (c *Config) Apply(userConfig func(cfg *Config) error) error {
	if c.applied {
		return ErrAlreadyApplied
	}
	c.applied = true

	RegisterDefault[ErrorMapper](c, ValidationErrorMapperKey, ValidationErrorMapper)

	if userConfig != nil {
		if err := userConfig(c); err != nil {
			return fmt.Errorf("applying user configuration: %w", err)
		}
	}

	if err := c.plugins.StartPlugins(c); err != nil {
		return err
	}

	c.seedDefaults()
	c.logger.Debug("configuration applied", "components", c.components.Len(), "plugins", len(c.plugins.Plugins()))
	return nil
}

// Components returns the session's registry.
func (c *Config) Components() *Registry {
	return c.components
}

// Plugins returns the session's plugin manager.
func (c *Config) Plugins() *PluginManager {
	return c.plugins
}

// Logger returns the session logger.
func (c *Config) Logger() *slog.Logger {
	return c.logger
}

// SessionID returns the id of the configuration session.
func (c *Config) SessionID() string {
	return c.sessionID
}

// RegisterPlugin registers a plugin to be started by Apply. Plugins registered from within another
// plugin's Start are started in the same Apply call.
func (c *Config) RegisterPlugin(p Plugin) error {
	return c.plugins.Register(p)
}

// JSONMapper sets the JSONMapper component.
func (c *Config) JSONMapper(m JSONMapper) {
	Register(c, JSONMapperKey, m)
}

// FileRenderer sets the FileRenderer component.
func (c *Config) FileRenderer(r FileRenderer) {
	Register(c, FileRendererKey, r)
}

// RegisterComponent is Register on the session's registry.
func RegisterComponent[T any](c *Config, key Key[T], component T) {
	Register(c, key, component)
}

// RegisterComponentResolver is RegisterResolver on the session's registry.
func RegisterComponentResolver[T any](c *Config, key Key[T], fn Resolver[T]) {
	RegisterResolver(c, key, fn)
}

// ResolveComponent is Resolve on the session's registry.
func ResolveComponent[T any](ctx context.Context, c *Config, key Key[T]) (T, error) {
	return Resolve(ctx, c, key)
}

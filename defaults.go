package ctxcomp

import "log/slog"

// Keys of the components the framework seeds by default. Any of them can be replaced by
// registering a component under the same key during configuration.
var (
	JSONMapperKey            = NewKey[JSONMapper]()
	FileRendererKey          = NewKey[FileRenderer]()
	ValidationKey            = NewKey[*Validation]()
	AsyncExecutorKey         = NewKey[AsyncExecutor]()
	MaxRequestSizeKey        = NewKeyWithID[int64]("maxRequestSize")
	ValidationErrorMapperKey = NewKeyWithID[ErrorMapper]("validationErrorMapper")
	LoggerKey                = NewKey[*slog.Logger]()
	CacheKey                 = NewKey[Cache]()
)

// DefaultMaxRequestSize is the request body limit seeded when HTTPConfig.MaxRequestSize is not set.
const DefaultMaxRequestSize int64 = 1_000_000

// HTTPConfig holds the HTTP settings that are published as components.
type HTTPConfig struct {
	// MaxRequestSize is the largest request body, in bytes, the framework will read into memory.
	MaxRequestSize int64
}

// seedDefaults installs every framework default that is still missing. It runs after the user
// configuration and the plugins, and only uses default registrations.
func (c *Config) seedDefaults() {
	RegisterDefault(c, JSONMapperKey, NewJSONMapper(c.JSON))
	RegisterDefault[FileRenderer](c, FileRendererKey, NotImplementedRenderer{})
	RegisterDefault(c, ValidationKey, NewValidation(c.Validation))
	if !c.components.Has(AsyncExecutorKey) {
		// Checked first so that an executor is not created only to be thrown away.
		RegisterDefault(c, AsyncExecutorKey, NewAsyncExecutor(c.Async, c.logger))
	}
	maxSize := c.HTTP.MaxRequestSize
	if maxSize <= 0 {
		maxSize = DefaultMaxRequestSize
	}
	RegisterDefault(c, MaxRequestSizeKey, maxSize)
	RegisterDefault(c, LoggerKey, c.logger)

	for _, p := range c.plugins.Plugins() {
		if seeder, ok := p.(DefaultSeeder); ok {
			c.logger.Debug("seeding plugin defaults", "plugin", PluginName(p))
			seeder.SeedDefaults(c)
		}
	}
}

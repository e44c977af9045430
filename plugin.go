package ctxcomp

import (
	"fmt"
	"log/slog"
	"reflect"
)

// Plugin is a unit of configuration logic that runs once while a configuration session is being
// applied. Start is called after the user configuration and may register components, resolvers
// and further plugins on cfg. Plugins that install components should use RegisterDefault or
// RegisterDefaultResolver so that user registrations keep precedence.
type Plugin interface {
	Start(cfg *Config) error
}

// NamedPlugin is optionally implemented by plugins to give themselves a name in logs and errors.
// Plugins without a name are reported by their Go type.
type NamedPlugin interface {
	Plugin
	Name() string
}

// DefaultSeeder is optionally implemented by plugins that provide configuration objects of their
// own. SeedDefaults is called in the last configuration step, after all plugins have started,
// together with the framework defaults, so it should only use default registrations.
type DefaultSeeder interface {
	SeedDefaults(cfg *Config)
}

// PluginName returns the name of a plugin for logging.
func PluginName(p Plugin) string {
	if np, ok := p.(NamedPlugin); ok {
		return np.Name()
	}
	return fmt.Sprintf("%T", p)
}

type pluginRecord struct {
	plugin  Plugin
	started bool
}

// PluginManager keeps plugins in registration order and starts each of them at most once.
//
// A PluginManager is not safe for concurrent use. It is driven by a single configuration session,
// and plugins may register further plugins from within their Start hook.
type PluginManager struct {
	records []*pluginRecord
	logger  *slog.Logger
}

// NewPluginManager returns an empty plugin manager. A nil logger means slog.Default().
func NewPluginManager(logger *slog.Logger) *PluginManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &PluginManager{logger: logger}
}

// Register appends a plugin. Registering the same plugin instance twice returns an error wrapping
// ErrDuplicatePlugin; starting a plugin twice is almost always a bug.
func (m *PluginManager) Register(p Plugin) error {
	if p == nil {
		return fmt.Errorf("plugin cannot be nil")
	}
	for _, rec := range m.records {
		if samePlugin(rec.plugin, p) {
			return fmt.Errorf("%w: %s", ErrDuplicatePlugin, PluginName(p))
		}
	}
	m.records = append(m.records, &pluginRecord{plugin: p})
	m.logger.Debug("plugin registered", "plugin", PluginName(p), "position", len(m.records))
	return nil
}

// StartPlugins starts every plugin that has not been started yet, in registration order. Plugins
// registered by another plugin's Start hook are started in the same call once the plugins ahead of
// them have started. Calling StartPlugins again only starts plugins registered since.
//
// A plugin is marked as started before its hook runs, so a plugin whose Start fails is not
// retried. The first failure stops the pass and is returned as a *PluginError.
func (m *PluginManager) StartPlugins(cfg *Config) error {
	// Indexing rather than ranging picks up plugins appended during the loop.
	for i := 0; i < len(m.records); i++ {
		rec := m.records[i]
		if rec.started {
			continue
		}
		rec.started = true
		name := PluginName(rec.plugin)
		m.logger.Debug("starting plugin", "plugin", name)
		if err := rec.plugin.Start(cfg); err != nil {
			m.logger.Error("plugin failed to start", "plugin", name, "error", err)
			return &PluginError{Plugin: name, SourceError: err}
		}
	}
	return nil
}

// Started reports whether p has been started by this manager.
func (m *PluginManager) Started(p Plugin) bool {
	for _, rec := range m.records {
		if samePlugin(rec.plugin, p) {
			return rec.started
		}
	}
	return false
}

// Plugins returns the registered plugins in registration order.
func (m *PluginManager) Plugins() []Plugin {
	plugins := make([]Plugin, 0, len(m.records))
	for _, rec := range m.records {
		plugins = append(plugins, rec.plugin)
	}
	return plugins
}

// samePlugin reports whether a and b are the same plugin instance. Plugins with non-comparable
// dynamic types (a func or a map, say) are never considered equal since comparing them panics.
func samePlugin(a, b Plugin) bool {
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

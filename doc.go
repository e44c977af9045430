// Package ctxcomp provides a typed component registry that a framework core and its plugins use to
// publish services under stable keys. A component is either a fixed value or a resolver that is
// invoked with the per-request context.Context on every lookup.
//
// The Config type is the configuration session that ties a Registry and a PluginManager together.
// Config.Apply runs the user configuration, starts plugins, and then seeds the built-in defaults
// so that user registrations always win over plugin defaults, and plugin defaults always win over
// the framework fallbacks.
package ctxcomp

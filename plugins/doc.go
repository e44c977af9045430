// Package plugins contains plugins bundled with ctxcomp. Each of them installs its components with
// default registrations, so anything the application registered itself is left alone.
package plugins

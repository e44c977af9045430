// Package settings loads the ctxcomp configuration knobs from a file and the environment and turns
// them into a configured ctxcomp.Config.
package settings

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	ctxcomp "github.com/gburgyan/go-ctxcomp"
)

// EnvPrefix prefixes the environment variables that override settings, for example
// CTXCOMP_HTTP_MAX_REQUEST_SIZE.
const EnvPrefix = "CTXCOMP"

// Settings mirrors the configuration file.
type Settings struct {
	HTTP   HTTPSettings  `mapstructure:"http" yaml:"http"`
	Async  AsyncSettings `mapstructure:"async" yaml:"async"`
	JSON   JSONSettings  `mapstructure:"json" yaml:"json"`
	Log    LogSettings   `mapstructure:"log" yaml:"log"`
	Timing bool          `mapstructure:"timing" yaml:"timing"`
}

type HTTPSettings struct {
	MaxRequestSize int64 `mapstructure:"max_request_size" yaml:"max_request_size"`
}

type AsyncSettings struct {
	Workers   int `mapstructure:"workers" yaml:"workers"`
	QueueSize int `mapstructure:"queue_size" yaml:"queue_size"`
}

type JSONSettings struct {
	Indent string `mapstructure:"indent" yaml:"indent"`
}

type LogSettings struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		HTTP:  HTTPSettings{MaxRequestSize: ctxcomp.DefaultMaxRequestSize},
		Async: AsyncSettings{Workers: 0, QueueSize: 0},
		Log:   LogSettings{Level: "info", Format: "text"},
	}
}

// Load reads settings from path, which may be any format viper understands (yaml, json, toml...).
// An empty path loads only defaults and environment overrides.
func Load(path string) (Settings, error) {
	v := viper.New()

	defaults := Defaults()
	v.SetDefault("http.max_request_size", defaults.HTTP.MaxRequestSize)
	v.SetDefault("async.workers", defaults.Async.Workers)
	v.SetDefault("async.queue_size", defaults.Async.QueueSize)
	v.SetDefault("json.indent", defaults.JSON.Indent)
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("log.format", defaults.Log.Format)
	v.SetDefault("timing", defaults.Timing)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("reading settings from %s: %w", path, err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decoding settings: %w", err)
	}
	return s, nil
}

// Options returns the ctxcomp options for these settings. Logs are written to logW.
func (s Settings) Options(logW io.Writer) []ctxcomp.ConfigOption {
	opts := []ctxcomp.ConfigOption{
		ctxcomp.WithConfigLogger(NewLogger(s.Log.Level, s.Log.Format, logW)),
	}
	if s.Timing {
		opts = append(opts, ctxcomp.WithRegistryOptions(ctxcomp.WithTiming(ctxcomp.TimingResolvers)))
	}
	return opts
}

// ApplyTo copies the settings into the public configuration blocks of cfg. It is meant to be called
// first thing in the user configuration callback, so that the rest of the callback can still
// adjust the values.
func (s Settings) ApplyTo(cfg *ctxcomp.Config) {
	if s.HTTP.MaxRequestSize > 0 {
		cfg.HTTP.MaxRequestSize = s.HTTP.MaxRequestSize
	}
	cfg.Async.Workers = s.Async.Workers
	cfg.Async.QueueSize = s.Async.QueueSize
	cfg.JSON.Indent = s.JSON.Indent
}

// NewLogger creates a slog.Logger writing to outW. It does not set the global logger.
func NewLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler

	if formatStr == "json" {
		handler = slog.NewJSONHandler(outW, handlerOpts)
	} else {
		handler = slog.NewTextHandler(outW, handlerOpts)
	}

	return slog.New(handler)
}

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	ctxcomp "github.com/gburgyan/go-ctxcomp"
	"github.com/gburgyan/go-ctxcomp/plugins"
	"github.com/gburgyan/go-ctxcomp/settings"
)

// report is the document written by `status --format yaml`.
type report struct {
	Session    string              `yaml:"session"`
	Settings   settings.Settings   `yaml:"settings"`
	Plugins    []string            `yaml:"plugins"`
	Components []ctxcomp.EntryInfo `yaml:"components"`
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "componentctl",
		Short:         "Inspect the component registry produced by a configuration",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.AddCommand(newStatusCmd())
	return rootCmd
}

func newStatusCmd() *cobra.Command {
	var (
		cfgFile   string
		format    string
		noPlugins bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Apply a configuration and print the registered components",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "text" && format != "yaml" {
				return fmt.Errorf("unknown format %q, expected text or yaml", format)
			}
			s, err := settings.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg, err := buildConfig(s, !noPlugins, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer closeExecutor(cfg)
			return writeStatus(cmd.OutOrStdout(), format, s, cfg)
		},
	}

	cmd.Flags().StringVarP(&cfgFile, "config", "c", "", "settings file (yaml, json or toml)")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text or yaml")
	cmd.Flags().BoolVar(&noPlugins, "no-plugins", false, "do not register the bundled plugins")
	return cmd
}

func buildConfig(s settings.Settings, bundled bool, logW io.Writer) (*ctxcomp.Config, error) {
	return ctxcomp.Setup(func(cfg *ctxcomp.Config) error {
		s.ApplyTo(cfg)
		if !bundled {
			return nil
		}
		if err := cfg.RegisterPlugin(&plugins.RequestLogger{}); err != nil {
			return err
		}
		return cfg.RegisterPlugin(&plugins.SharedCache{})
	}, s.Options(logW)...)
}

func writeStatus(w io.Writer, format string, s settings.Settings, cfg *ctxcomp.Config) error {
	if format == "text" {
		_, err := fmt.Fprintln(w, cfg.Components().Status())
		return err
	}

	r := report{
		Session:    cfg.SessionID(),
		Settings:   s,
		Components: cfg.Components().Entries(),
	}
	for _, p := range cfg.Plugins().Plugins() {
		r.Plugins = append(r.Plugins, ctxcomp.PluginName(p))
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	return enc.Close()
}

// closeExecutor releases the async executor if the session created one.
func closeExecutor(cfg *ctxcomp.Config) {
	executor, found, err := ctxcomp.ResolveOptional(context.Background(), cfg, ctxcomp.AsyncExecutorKey)
	if err == nil && found && executor != nil {
		executor.Close()
	}
}

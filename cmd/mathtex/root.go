package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/wudi/mathtex"
	"github.com/wudi/mathtex/config"
	"github.com/wudi/mathtex/mathjax"
	"github.com/wudi/mathtex/observability"
)

// app holds the global flags and the settings resolved from them.
type app struct {
	configPath string
	bundle     string
	domShim    string
	verbose    bool

	cfg *config.Config
}

func newRootCommand() *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "mathtex",
		Short:         "mathtex - render LaTeX formulas to SVG, MathML and images",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(c *cobra.Command, args []string) error {
			if a.verbose {
				slog.SetLogLoggerLevel(slog.LevelDebug)
			}
			// maxprocs.Set only fails on an invalid GOMAXPROCS; the runtime
			// default then applies.
			_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
				slog.Debug(fmt.Sprintf(format, args...))
			}))
			return a.loadConfig()
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file (.yaml, .yml or .toml)")
	cmd.PersistentFlags().StringVar(&a.bundle, "bundle", "", "MathJax bundle (tex-svg-full.js), overrides the config")
	cmd.PersistentFlags().StringVar(&a.domShim, "dom-shim", "", "DOM shim script, overrides the config")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	cmd.AddCommand(
		newRenderCommand(a),
		newSVGCommand(a),
		newMathMLCommand(a),
		newBatchCommand(a),
	)
	return cmd
}

func (a *app) loadConfig() error {
	cfg := config.Default()
	if a.configPath != "" {
		loaded, err := config.Load(a.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if a.bundle != "" {
		cfg.Engine.BundlePath = a.bundle
	}
	if a.domShim != "" {
		cfg.Engine.DOMShimPath = a.domShim
	}
	a.cfg = cfg
	slog.Debug("config resolved", "bundle", cfg.Engine.BundlePath, "cache", cfg.Cache.Kind, "markup", cfg.Engine.Markup)
	return nil
}

func (a *app) converter() (*mathtex.Converter, error) {
	if a.cfg.Engine.BundlePath == "" {
		return nil, fmt.Errorf("no MathJax bundle: set engine.bundlePath in the config or pass --bundle")
	}
	logger := observability.NewSlogLogger(slog.Default())
	return mathtex.NewConverter(*a.cfg, mathtex.WithLogger(logger))
}

// parseOptions turns repeated name=value flags into engine options, in
// flag order. Values are script literals: numbers, true/false or quoted
// strings.
func parseOptions(raw []string, inline bool) ([]mathjax.Option, error) {
	var opts []mathjax.Option
	if inline {
		opts = append(opts, mathjax.BoolOption("display", false))
	}
	for _, r := range raw {
		name, value, ok := strings.Cut(r, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --option %q (expected name=value)", r)
		}
		opts = append(opts, mathjax.Option{Name: strings.TrimSpace(name), Value: strings.TrimSpace(value)})
	}
	return opts, nil
}

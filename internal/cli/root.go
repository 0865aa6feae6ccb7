package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"lazycloud/internal/app"
	"lazycloud/internal/config"
	"lazycloud/internal/system"
)

type rootOptions struct {
	context string
	service string
	demo    bool
	theme   string
	tick    string
	logFile string
}

var rootOpts rootOptions

var rootCmd = &cobra.Command{
	Use:   "lazycloud",
	Short: "lazycloud – terminal control plane for cloud services",
	Long:  "lazycloud browses cloud contexts and manages their services from a TUI.",
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default action: launch the TUI
		return runTUI(rootOpts)
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	f := rootCmd.Flags()
	f.StringVarP(&rootOpts.context, "context", "c", "", "preselect a context by name")
	f.StringVarP(&rootOpts.service, "service", "s", "", "open a service directly (needs --context)")
	f.StringVar(&rootOpts.theme, "theme", "", "color theme (overrides config)")
	f.StringVar(&rootOpts.tick, "tick", "", "UI tick interval, e.g. 100ms (overrides config)")
	f.StringVar(&rootOpts.logFile, "log-file", "", "write logs to this file")
	rootCmd.PersistentFlags().BoolVar(&rootOpts.demo, "demo", false, "use demo contexts and in-memory backends")
}

func runTUI(opts rootOptions) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg, err = applyFlags(cfg, opts)
	if err != nil {
		return err
	}

	logPath := opts.logFile
	if logPath == "" && strings.TrimSpace(cfg.LogLevel) != "" {
		logPath, _ = config.LogPath()
	}
	closeLog, err := system.Redirect(logPath, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = closeLog() }()

	s, err := newSession(cfg, opts.demo)
	if err != nil {
		return err
	}
	if err := s.ctrl.Preselect(opts.context, opts.service); err != nil {
		return err
	}
	system.Logger.Info("starting", "demo", opts.demo, "contexts", len(s.contexts))
	return app.Run(s.ctrl, s.run)
}

// applyFlags layers command-line overrides on top of the loaded config.
func applyFlags(cfg config.Config, opts rootOptions) (config.Config, error) {
	if opts.theme != "" {
		cfg.Theme = opts.theme
	}
	if opts.tick != "" {
		cfg.Tick = opts.tick
	}
	if opts.service != "" && opts.context == "" {
		return cfg, fmt.Errorf("--service needs --context")
	}
	return cfg, nil
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

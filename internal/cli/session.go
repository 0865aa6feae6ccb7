package cli

import (
	"fmt"
	"strings"

	"lazycloud/internal/app"
	"lazycloud/internal/config"
	"lazycloud/internal/core"
	"lazycloud/internal/keys"
	"lazycloud/internal/provider/gcp"
	"lazycloud/internal/system"
	"lazycloud/internal/ui"
)

// session is everything the TUI needs, assembled from config and flags.
type session struct {
	ctrl     *app.Controller
	run      app.RunOptions
	contexts []core.Context
}

func newSession(cfg config.Config, demo bool) (*session, error) {
	km := keys.Default()
	if err := km.Apply(cfg.Keybindings); err != nil {
		return nil, fmt.Errorf("keybindings: %w", err)
	}
	theme, ok := ui.Lookup(cfg.Theme)
	if !ok {
		return nil, fmt.Errorf("unknown theme %q (available: %s)", cfg.Theme, strings.Join(ui.ThemeNames(), ", "))
	}
	reg, err := registry()
	if err != nil {
		return nil, err
	}
	src, err := contextSource(demo)
	if err != nil {
		return nil, err
	}
	contexts, err := src.load()
	if err != nil {
		return nil, err
	}

	ctrl := app.New(reg, contexts, app.Options{
		Keys:  km,
		Theme: theme,
		Env:   core.Env{Demo: demo},
		OnContextSelected: func(ctx core.Context) {
			if demo || cfg.LastContext == ctx.Name {
				return
			}
			cfg.LastContext = ctx.Name
			if err := config.Save(cfg); err != nil {
				system.Logger.Warn("save last context", "err", err)
			}
		},
	})
	if cfg.LastContext != "" {
		ctrl.FocusContext(cfg.LastContext)
	}

	s := &session{
		ctrl:     ctrl,
		contexts: contexts,
		run:      app.RunOptions{Tick: cfg.TickInterval()},
	}
	if src.dir != "" {
		s.run.WatchDirs = []string{src.dir}
		s.run.Reload = src.load
	}
	return s, nil
}

func registry() (*core.Registry, error) {
	return core.NewRegistry(gcp.Services()...)
}

// contextSrc is where contexts come from: gcloud configurations on disk,
// or the fixed demo set.
type contextSrc struct {
	dir  string
	load app.ContextLoader
}

func contextSource(demo bool) (contextSrc, error) {
	if demo {
		return contextSrc{load: func() ([]core.Context, error) { return gcp.DemoContexts(), nil }}, nil
	}
	root, err := gcp.ConfigDir()
	if err != nil {
		return contextSrc{}, err
	}
	return contextSrc{
		dir:  gcp.ConfigurationsDir(root),
		load: func() ([]core.Context, error) { return gcp.Discover(root) },
	}, nil
}

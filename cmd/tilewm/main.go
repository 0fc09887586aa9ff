// Command tilewm is a tiling terminal compositor: it splits the host
// terminal into bordered tiles and runs a shell or another app in each.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/odvcencio/tilewm/pkg/config"
	tilerrors "github.com/odvcencio/tilewm/pkg/errors"
	"github.com/odvcencio/tilewm/pkg/logging"
	"github.com/odvcencio/tilewm/pkg/telemetry"
	"github.com/odvcencio/tilewm/pkg/ui/backend"
	tcellbackend "github.com/odvcencio/tilewm/pkg/ui/backend/tcell"
	"github.com/odvcencio/tilewm/pkg/ui/backend/tty"
	"github.com/odvcencio/tilewm/pkg/ui/desktop"
	"github.com/odvcencio/tilewm/pkg/ui/input"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "tilewm: %s\n", tilerrors.Describe(err))
		os.Exit(exitCodeForError(err))
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	opts, err := parseStartupOptions(args, stderr)
	if err != nil {
		return withExitCode(tilerrors.Wrap(err, tilerrors.ErrCodeInvalidInput, "parse flags"), exitConfig)
	}
	if opts.showVersion {
		fmt.Fprintf(stdout, "tilewm %s\n", version)
		return nil
	}

	cfg, err := opts.loadConfig()
	if err != nil {
		code := tilerrors.ErrCodeConfigLoad
		if errors.Is(err, config.ErrInvalid) {
			code = tilerrors.ErrCodeConfigInvalid
		}
		return tilerrors.Wrap(err, code, "load configuration").
			WithRemediation("check the file named in the error, or run with --config /dev/null for defaults")
	}

	bindings, err := desktop.DefaultBindings().With(cfg.Keys)
	if err != nil {
		return tilerrors.Wrap(err, tilerrors.ErrCodeConfigInvalid, "key bindings")
	}
	if opts.printBindings {
		fmt.Fprint(stdout, bindings.Help())
		return nil
	}

	logger, err := logging.Open(logging.Options{Level: cfg.Logging.Level, File: cfg.Logging.File})
	if err != nil {
		return tilerrors.Wrap(err, tilerrors.ErrCodeConfigInvalid, "open log")
	}
	defer logger.Close()
	logger.Info("starting", "version", version, "backend", cfg.Display.Backend, "input", cfg.Input.Source)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = runDesktop(ctx, opts, cfg, bindings, logger.Logger)
	if err != nil {
		var coded *tilerrors.Error
		if errors.As(err, &coded) {
			logger.Error("exited", "error", coded)
		} else {
			logger.Error("exited", "error", err)
		}
	} else {
		logger.Info("exited")
	}
	return err
}

func newBackend(cfg *config.Config, logger *slog.Logger) (backend.Backend, error) {
	switch cfg.Display.Backend {
	case config.BackendTcell:
		b, err := tcellbackend.New()
		if err != nil {
			return nil, tilerrors.Wrap(err, tilerrors.ErrCodeBackendInit, "create tcell screen")
		}
		return b, nil
	default:
		return tty.New(os.Stdin, os.Stdout, tty.Options{
			AltScreen:  cfg.Display.AltScreen,
			HideCursor: true,
			Mouse:      cfg.Display.Mouse,
			Logger:     logger,
		}), nil
	}
}

// openKeyboard opens the configured evdev node, or the first keyboard.
func openKeyboard(cfg *config.Config) (*input.Evdev, error) {
	path := cfg.Input.Device
	if path == "" {
		found, err := input.FindKeyboard()
		if err != nil {
			return nil, tilerrors.Wrap(err, tilerrors.ErrCodeDeviceOpen, "find keyboard").
				WithRemediation("set input.device or run with --input tty")
		}
		path = found
	}
	kb, err := input.OpenEvdev(path)
	if err != nil {
		return nil, tilerrors.Wrap(err, tilerrors.ErrCodeDeviceOpen, "open keyboard").
			WithContext("path", path).
			WithUserMessage(fmt.Sprintf("cannot read keyboard device %s", path)).
			WithRemediation("add your user to the input group", "or run with --input tty")
	}
	return kb, nil
}

func runDesktop(ctx context.Context, opts *startupOptions, cfg *config.Config, bindings desktop.Bindings, logger *slog.Logger) error {
	reg, err := newRegistry(cfg, bindings, logger)
	if err != nil {
		return err
	}

	var kb *input.Evdev
	if cfg.Input.Source == config.SourceEvdev {
		if kb, err = openKeyboard(cfg); err != nil {
			return err
		}
		defer kb.Close()
		logger.Info("reading keys from evdev", "path", kb.Path())
	}

	b, err := newBackend(cfg, logger)
	if err != nil {
		return err
	}
	if err := b.Init(); err != nil {
		return tilerrors.Wrap(err, tilerrors.ErrCodeBackendInit, "take over the terminal").
			WithRemediation("tilewm must run in an interactive terminal")
	}
	defer b.Fini()

	pipeline := input.NewPipeline(cfg.Input.QueueSize)
	d, err := desktop.New(b, reg, pipeline, desktop.Config{
		FrameRate:        cfg.Display.FrameRate,
		ForceRedrawEvery: cfg.Display.ForceRedrawEvery,
		Repeat:           cfg.Input.Repeat(),
		Keys:             cfg.Keys,
		Layout:           cfg.Layout.Rows,
		Startup:          cfg.Startup.Apps,
	}, desktop.WithLogger(logger))
	if err != nil {
		return tilerrors.Wrap(err, tilerrors.ErrCodeConfigInvalid, "create desktop")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)

	g.Go(func() error {
		defer cancel()
		return d.Run(gctx)
	})

	if kb == nil {
		g.Go(func() error { return b.Run(gctx, pipeline) })
	} else {
		// The host terminal still reports resizes and mouse events; its
		// keys are dropped in favor of the device.
		host := input.NewPipeline(cfg.Input.QueueSize)
		g.Go(func() error { return b.Run(gctx, host) })
		g.Go(func() error {
			return forwardHost(gctx, host, pipeline, time.Second/time.Duration(cfg.Display.FrameRate))
		})
		g.Go(func() error { return kb.Run(gctx, pipeline) })
	}

	if path := opts.watchPath(); path != "" {
		if _, err := os.Stat(path); err == nil {
			w := config.NewWatcher(path, logger)
			g.Go(func() error {
				return w.Run(gctx, func(c *config.Config) {
					d.Reload(desktop.Settings{Keys: c.Keys, Repeat: c.Input.Repeat()})
				})
			})
		}
	}

	if cfg.Metrics.Enabled {
		if cfg.MetricsPublic() {
			logger.Warn("metrics endpoint is not bound to loopback", "addr", cfg.Metrics.Addr)
		}
		srv := telemetry.NewServer(cfg.Metrics.Addr, telemetry.NewRouter(nil), logger)
		g.Go(func() error { return srv.Serve(gctx) })
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// forwardHost moves mouse and resize events from host into dst once per
// frame and discards host keys.
func forwardHost(ctx context.Context, host, dst *input.Pipeline, every time.Duration) error {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			snap := host.Poll()
			for _, m := range snap.Mouse {
				dst.TrySend(m)
			}
			if snap.Resize != nil {
				dst.TrySend(*snap.Resize)
			}
		}
	}
}

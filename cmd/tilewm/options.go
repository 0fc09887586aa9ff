package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/odvcencio/tilewm/pkg/config"
	"github.com/odvcencio/tilewm/pkg/paths"
)

type startupOptions struct {
	configPath    string
	backend       string
	input         string
	device        string
	logLevel      string
	logFile       string
	metricsAddr   string
	printBindings bool
	showVersion   bool
}

func parseStartupOptions(raw []string, stderr io.Writer) (*startupOptions, error) {
	opts := &startupOptions{}
	fs := flag.NewFlagSet("tilewm", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/tilewm/config.yaml)")
	fs.StringVar(&opts.configPath, "c", "", "shorthand for --config")
	fs.StringVar(&opts.backend, "backend", "", "display backend: tty or tcell")
	fs.StringVar(&opts.input, "input", "", "key source: tty or evdev")
	fs.StringVar(&opts.device, "device", "", "evdev keyboard node (default: first keyboard found)")
	fs.StringVar(&opts.logLevel, "log-level", "", "debug, info, warn, error or off")
	fs.StringVar(&opts.logFile, "log-file", "", "log file path")
	fs.StringVar(&opts.metricsAddr, "metrics", "", "serve Prometheus metrics on this address")
	fs.BoolVar(&opts.printBindings, "bindings", false, "print the key bindings and exit")
	fs.BoolVar(&opts.showVersion, "version", false, "print the version and exit")

	if err := fs.Parse(raw); err != nil {
		return nil, err
	}
	opts.configPath = paths.ExpandHome(opts.configPath)
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

// loadConfig reads the config file and layers the flags on top.
func (o *startupOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFromPath(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	if o.backend != "" {
		cfg.Display.Backend = o.backend
	}
	if o.input != "" {
		cfg.Input.Source = o.input
	}
	if o.device != "" {
		cfg.Input.Device = o.device
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFile != "" {
		cfg.Logging.File = o.logFile
	}
	if o.metricsAddr != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = o.metricsAddr
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// watchPath returns the file to hot-reload, or "" when there is none.
func (o *startupOptions) watchPath() string {
	if o.configPath != "" {
		return o.configPath
	}
	return config.DefaultPath()
}

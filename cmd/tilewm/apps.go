package main

import (
	"log/slog"

	"github.com/odvcencio/tilewm/pkg/config"
	tilerrors "github.com/odvcencio/tilewm/pkg/errors"
	"github.com/odvcencio/tilewm/pkg/ui/desktop"
	"github.com/odvcencio/tilewm/pkg/ui/vt"
	"github.com/odvcencio/tilewm/pkg/ui/widget"
)

const helpTitle = "tilewm key bindings"

// newRegistry registers the apps the chooser offers.
func newRegistry(cfg *config.Config, bindings desktop.Bindings, logger *slog.Logger) (*widget.Registry, error) {
	reg := widget.NewRegistry()

	cmd := vt.Command{
		Path: cfg.Terminal.Shell,
		Args: cfg.Terminal.Args,
		Term: cfg.Terminal.Term,
	}
	spawn := vt.Factory(cmd,
		vt.WithLogger(logger),
		vt.WithReadBuffer(cfg.Terminal.ReadBuffer),
		vt.WithQueueSize(cfg.Terminal.QueueSize),
	)
	terminal := func(width, height int) (widget.Occupant, error) {
		occ, err := spawn(width, height)
		if err != nil {
			return nil, tilerrors.Wrap(err, tilerrors.ErrCodePTYSpawn, "start shell").
				WithContext("shell", cmd.Path)
		}
		return occ, nil
	}
	if err := reg.Register("terminal", terminal); err != nil {
		return nil, err
	}

	help := bindings.Help()
	if err := reg.Register("help", func(int, int) (widget.Occupant, error) {
		return widget.NewText("help", helpTitle, help), nil
	}); err != nil {
		return nil, err
	}
	return reg, nil
}

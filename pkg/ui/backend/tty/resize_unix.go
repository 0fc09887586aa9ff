//go:build !windows

package tty

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/odvcencio/tilewm/pkg/ui/input"
	"github.com/odvcencio/tilewm/pkg/ui/terminal"
)

// watchResize turns SIGWINCH into resize events until stopped.
func watchResize(ctx context.Context, b *Backend, p *input.Pipeline) func() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGWINCH)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-sig:
				w, h, err := sizeOf(b.out)
				if err != nil {
					continue
				}
				if !p.TrySend(terminal.ResizeEvent{Width: w, Height: h}) {
					b.logger.Debug("resize event dropped")
				}
			case <-done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	return func() {
		signal.Stop(sig)
		close(done)
	}
}

//go:build windows

package tty

import (
	"context"

	"github.com/odvcencio/tilewm/pkg/ui/input"
)

// watchResize does nothing; the per-cycle size query notices changes.
func watchResize(context.Context, *Backend, *input.Pipeline) func() {
	return func() {}
}

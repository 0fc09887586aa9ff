//go:build !windows

package vt

import (
	"os"
	"syscall"
)

var (
	sigResize os.Signal = syscall.SIGWINCH
	sigHangup os.Signal = syscall.SIGHUP
)

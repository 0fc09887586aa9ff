//go:build windows

package vt

import "os"

// Windows has no window-change signal; the console size is enough.
var (
	sigResize os.Signal
	sigHangup os.Signal = os.Kill
)

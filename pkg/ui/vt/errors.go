package vt

import "errors"

var (
	// ErrDefunct reports that the child's output stream ended.
	ErrDefunct = errors.New("terminal child exited")

	// ErrClosed reports use of a closed terminal.
	ErrClosed = errors.New("terminal closed")

	// ErrInputFull reports that the input queue had no room.
	ErrInputFull = errors.New("terminal input queue full")
)

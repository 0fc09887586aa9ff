package main

import (
	"errors"

	tilerrors "github.com/odvcencio/tilewm/pkg/errors"
)

const (
	exitFailure = 1
	exitConfig  = 2
	exitDevice  = 3
)

type exitCoder interface {
	ExitCode() int
}

type exitError struct {
	code int
	err  error
}

func (e exitError) Error() string {
	if e.err == nil {
		return ""
	}
	return e.err.Error()
}

func (e exitError) Unwrap() error {
	return e.err
}

func (e exitError) ExitCode() int {
	if e.code == 0 {
		return exitFailure
	}
	return e.code
}

func withExitCode(err error, code int) error {
	if err == nil {
		return nil
	}
	return exitError{code: code, err: err}
}

// exitCodeForError prefers an explicit code, then derives one from the
// structured error code.
func exitCodeForError(err error) int {
	if err == nil {
		return 0
	}
	var coded exitCoder
	if errors.As(err, &coded) {
		return coded.ExitCode()
	}
	switch tilerrors.GetCode(err) {
	case tilerrors.ErrCodeConfigLoad, tilerrors.ErrCodeConfigParse, tilerrors.ErrCodeConfigInvalid, tilerrors.ErrCodeInvalidInput:
		return exitConfig
	case tilerrors.ErrCodeDeviceOpen, tilerrors.ErrCodeBackendInit:
		return exitDevice
	}
	return exitFailure
}

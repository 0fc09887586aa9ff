package errors

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// ErrorCode represents a structured error code
type ErrorCode string

const (
	// Configuration errors
	ErrCodeConfigLoad    ErrorCode = "CONFIG_LOAD"
	ErrCodeConfigParse   ErrorCode = "CONFIG_PARSE"
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"

	// Display and input devices
	ErrCodeBackendInit ErrorCode = "BACKEND_INIT"
	ErrCodeDeviceOpen  ErrorCode = "DEVICE_OPEN"

	// Hosted programs
	ErrCodePTYSpawn ErrorCode = "PTY_SPAWN"

	// Generic errors
	ErrCodeInternal     ErrorCode = "INTERNAL"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Error represents a structured tilewm error
type Error struct {
	Code        ErrorCode
	Message     string
	Underlying  error
	Context     map[string]any
	Stack       []Frame
	UserMessage string
	Remediation []string
}

// Frame is one caller recorded when the error was created.
type Frame struct {
	Function string
	File     string
	Line     int
}

// New returns a coded error with no cause.
func New(code ErrorCode, message string) *Error {
	return build(code, message, nil)
}

// Wrap attaches a code and message to err. Wrap(nil, ...) is nil.
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}
	return build(code, message, err)
}

// build is called only from New and Wrap; Stack starts at their caller.
func build(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:       code,
		Message:    message,
		Underlying: cause,
		Context:    map[string]any{},
		Stack:      captureStack(3),
	}
}

// WithContext records a key/value pair shown after the message.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = map[string]any{}
	}
	e.Context[key] = value
	return e
}

// WithUserMessage sets the message shown on the terminal at exit.
func (e *Error) WithUserMessage(message string) *Error {
	e.UserMessage = message
	return e
}

// WithRemediation adds tips printed under the message by Describe.
func (e *Error) WithRemediation(tips ...string) *Error {
	e.Remediation = append(e.Remediation, tips...)
	return e
}

// Error formats as "[CODE] message {k: v, ...}: cause" with sorted keys.
func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s", e.Code, e.Message)
	for i, k := range e.contextKeys() {
		sep := ", "
		if i == 0 {
			sep = " {"
		}
		fmt.Fprintf(&sb, "%s%s: %v", sep, k, e.Context[k])
	}
	if len(e.Context) > 0 {
		sb.WriteByte('}')
	}
	if e.Underlying != nil {
		fmt.Fprintf(&sb, ": %v", e.Underlying)
	}
	return sb.String()
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Underlying
}

// LogValue renders the error as a slog group: code, message, context,
// cause and the frame that created it.
func (e *Error) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.String("code", string(e.Code)),
		slog.String("message", e.Message),
	}
	if len(e.Context) > 0 {
		ctx := make([]any, 0, len(e.Context))
		for _, k := range e.contextKeys() {
			ctx = append(ctx, slog.Any(k, e.Context[k]))
		}
		attrs = append(attrs, slog.Group("context", ctx...))
	}
	if e.Underlying != nil {
		attrs = append(attrs, slog.String("cause", e.Underlying.Error()))
	}
	if len(e.Stack) > 0 {
		attrs = append(attrs, slog.String("at", e.Stack[0].String()))
	}
	return slog.GroupValue(attrs...)
}

func (e *Error) contextKeys() []string {
	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// String formats a stack frame as function (file:line).
func (f Frame) String() string {
	return fmt.Sprintf("%s (%s:%d)", f.Function, filepath.Base(f.File), f.Line)
}

func captureStack(skip int) []Frame {
	const maxDepth = 32
	var pcs [maxDepth]uintptr

	n := runtime.Callers(skip+1, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	out := make([]Frame, 0, n)
	for {
		fr, more := frames.Next()
		if fr.Function != "" {
			out = append(out, Frame{Function: fr.Function, File: fr.File, Line: fr.Line})
		}
		if !more {
			break
		}
	}
	return out
}

// IsCode reports whether any error in err's chain carries code.
func IsCode(err error, code ErrorCode) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Code == code {
			return true
		}
		err = e.Underlying
	}
	return false
}

// GetCode extracts the outermost error code from err.
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return ErrCodeInternal
	}
	return e.Code
}

// Describe renders err for a person: the user message, or the error
// text, followed by any remediation tips.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	var sb strings.Builder
	if e.UserMessage != "" {
		sb.WriteString(e.UserMessage)
	} else {
		sb.WriteString(err.Error())
	}
	for _, tip := range e.Remediation {
		sb.WriteString("\n  - ")
		sb.WriteString(tip)
	}
	return sb.String()
}

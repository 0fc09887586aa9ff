//go:build linux

package input

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"github.com/odvcencio/tilewm/pkg/ui/terminal"
)

// ErrNoKeyboard is returned when no keyboard device can be found.
var ErrNoKeyboard = errors.New("no keyboard device found")

const (
	evKey       = 0x01
	eventSize   = 24
	keyboardDir = "/dev/input"
)

// inputEvent mirrors struct input_event on 64-bit Linux.
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

// FindKeyboard returns the first keyboard event device under /dev/input.
func FindKeyboard() (string, error) {
	for _, dir := range []string{"by-path", "by-id"} {
		matches, err := filepath.Glob(filepath.Join(keyboardDir, dir, "*-event-kbd"))
		if err != nil {
			continue
		}
		sort.Strings(matches)
		for _, m := range matches {
			if resolved, err := filepath.EvalSymlinks(m); err == nil {
				return resolved, nil
			}
		}
	}
	return "", ErrNoKeyboard
}

// Evdev reads physical key transitions from a Linux input device. Unlike a
// terminal it reports releases and modifier keys, so it drives real hold
// semantics.
type Evdev struct {
	path    string
	r       io.ReadCloser
	tracker *ModifierTracker
}

// OpenEvdev opens the event device at path. An empty path searches for a
// keyboard.
func OpenEvdev(path string) (*Evdev, error) {
	if path == "" {
		found, err := FindKeyboard()
		if err != nil {
			return nil, err
		}
		path = found
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return newEvdev(path, f), nil
}

func newEvdev(path string, r io.ReadCloser) *Evdev {
	return &Evdev{path: path, r: r, tracker: NewModifierTracker()}
}

// Path returns the device path.
func (e *Evdev) Path() string {
	return e.path
}

// Run reads key events into p until ctx ends or the device fails.
func (e *Evdev) Run(ctx context.Context, p *Pipeline) error {
	go func() {
		<-ctx.Done()
		_ = e.r.Close()
	}()

	br := bufio.NewReaderSize(e.r, eventSize*64)
	for {
		var ev inputEvent
		if err := binary.Read(br, binary.NativeEndian, &ev); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("read %s: %w", e.path, err)
		}
		if ev.Type != evKey {
			continue
		}
		t := e.tracker.Annotate(terminal.Code(ev.Code), terminal.KeyState(ev.Value))
		if err := p.Send(ctx, t); err != nil {
			return err
		}
	}
}

// Close releases the device.
func (e *Evdev) Close() error {
	return e.r.Close()
}

//go:build !windows

package vt

import (
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/odvcencio/tilewm/pkg/ui/compositor"
	"github.com/odvcencio/tilewm/pkg/ui/widget"
)

// child scripts a mock process. Chunks sent on out are returned by Read;
// closing out ends the stream.
type child struct {
	proc *MockProcess
	out  chan []byte
}

func newChild(ctrl *gomock.Controller, waitErr error) *child {
	c := &child{proc: NewMockProcess(ctrl), out: make(chan []byte)}
	c.proc.EXPECT().Pid().Return(42).AnyTimes()
	c.proc.EXPECT().Read(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		b, ok := <-c.out
		if !ok {
			return 0, io.EOF
		}
		return copy(p, b), nil
	}).AnyTimes()
	c.proc.EXPECT().Wait().Return(waitErr).Times(1)
	return c
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func waitExited(t *testing.T, term *Terminal) {
	t.Helper()
	select {
	case <-term.Exited():
	case <-time.After(2 * time.Second):
		t.Fatal("child was not reaped")
	}
}

func TestTerminalAppliesOutput(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := newChild(ctrl, nil)
	term := New(c.proc, 20, 5, WithName("shell"))
	assert.Equal(t, "shell", term.Name())
	assert.NotEmpty(t, term.ID())
	assert.Equal(t, 42, term.Pid())

	c.out <- []byte("hello\r\nwor")
	c.out <- []byte("ld")
	waitFor(t, "output", func() bool {
		term.Update(widget.Input{})
		return strings.HasPrefix(term.Screen().Text(1), "world")
	})
	assert.Equal(t, "hello", strings.TrimRight(term.Screen().Text(0), " "))
	assert.False(t, term.Defunct())

	close(c.out)
	waitExited(t, term)
}

func TestTerminalDefunctOnEOF(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	exitErr := errors.New("exit status 1")
	c := newChild(ctrl, exitErr)
	term := New(c.proc, 20, 5)

	c.out <- []byte("bye")
	close(c.out)
	waitFor(t, "defunct", func() bool {
		term.Update(widget.Input{})
		return term.Defunct()
	})
	waitExited(t, term)

	assert.Equal(t, exitErr, term.ExitErr())
	assert.Equal(t, "bye", strings.TrimRight(term.Screen().Text(0), " "))

	// Input to a defunct terminal goes nowhere.
	assert.ErrorIs(t, term.Send([]byte("x")), ErrDefunct)
	assert.False(t, term.Update(widget.Input{Focused: true, Raw: []byte("x")}))

	// Nor does a resize reach the child.
	term.Resize(10, 3)
	w, h := term.Screen().Size()
	assert.Equal(t, []int{10, 3}, []int{w, h})
}

func TestTerminalForwardsFocusedInput(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := newChild(ctrl, nil)
	written := make(chan []byte, 1)
	c.proc.EXPECT().Write([]byte("ls\r")).DoAndReturn(func(p []byte) (int, error) {
		written <- p
		return len(p), nil
	})

	term := New(c.proc, 20, 5)
	term.Update(widget.Input{Focused: false, Raw: []byte("ignored")})
	term.Update(widget.Input{Focused: true, Raw: []byte("ls\r")})

	select {
	case p := <-written:
		assert.Equal(t, "ls\r", string(p))
	case <-time.After(2 * time.Second):
		t.Fatal("input was not written")
	}

	close(c.out)
	waitExited(t, term)
}

func TestTerminalInputQueueFull(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := newChild(ctrl, nil)
	block := make(chan struct{})
	c.proc.EXPECT().Write(gomock.Any()).DoAndReturn(func(p []byte) (int, error) {
		<-block
		return len(p), nil
	}).AnyTimes()

	term := New(c.proc, 20, 5, WithQueueSize(1))
	var err error
	for range 10 {
		if err = term.Send([]byte("k")); err != nil {
			break
		}
	}
	assert.ErrorIs(t, err, ErrInputFull)

	c.proc.EXPECT().Signal(sigHangup).Return(nil)
	c.proc.EXPECT().Close().DoAndReturn(func() error {
		close(block)
		close(c.out)
		return nil
	})
	require.NoError(t, term.Close())
	waitExited(t, term)
}

func TestTerminalResize(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := newChild(ctrl, nil)
	gomock.InOrder(
		c.proc.EXPECT().Resize(40, 10).Return(nil),
		c.proc.EXPECT().Signal(sigResize).Return(nil),
	)

	term := New(c.proc, 80, 24)
	term.Resize(80, 24)
	term.Resize(40, 10)
	term.Resize(40, 10)

	w, h := term.Screen().Size()
	assert.Equal(t, 40, w)
	assert.Equal(t, 10, h)

	close(c.out)
	waitExited(t, term)
}

func TestTerminalResizeTruncates(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := newChild(ctrl, nil)
	c.proc.EXPECT().Resize(40, 24).Return(nil)
	c.proc.EXPECT().Signal(sigResize).Return(nil)

	term := New(c.proc, 80, 24)
	c.out <- []byte(strings.Repeat("y", 70) + "\x1b[1;61H")
	waitFor(t, "output", func() bool {
		term.Update(widget.Input{})
		x, _ := term.Screen().Cursor()
		return x == 60
	})

	term.Resize(40, 24)
	assert.Equal(t, strings.Repeat("y", 40), term.Screen().Text(0))
	x, y := term.Screen().Cursor()
	assert.Equal(t, 40, x)
	assert.Equal(t, 0, y)

	close(c.out)
	waitExited(t, term)
}

func TestTerminalClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := newChild(ctrl, nil)
	gomock.InOrder(
		c.proc.EXPECT().Signal(sigHangup).Return(nil),
		c.proc.EXPECT().Close().DoAndReturn(func() error {
			close(c.out)
			return nil
		}),
	)

	term := New(c.proc, 20, 5)
	require.NoError(t, term.Close())
	require.NoError(t, term.Close())
	waitExited(t, term)

	assert.False(t, term.Update(widget.Input{Focused: true, Raw: []byte("x")}))
	assert.ErrorIs(t, term.Send([]byte("x")), ErrClosed)
}

func TestTerminalDraw(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := newChild(ctrl, nil)
	term := New(c.proc, 10, 3)
	c.out <- []byte("\x1b[32mab")
	waitFor(t, "output", func() bool {
		term.Update(widget.Input{})
		return term.Screen().Cell(1, 0).Glyph == "b"
	})

	frame := compositor.NewFrame()
	term.Draw(frame.Region(2, 1, 10, 3), true)
	assert.Equal(t, "ab", strings.TrimSpace(frame.Text(1)))
	assert.Equal(t, "\x1b[32m", frame.Get(2, 1).Prefix)
	assert.Contains(t, frame.Get(4, 1).Prefix, compositor.ANSIReverse)

	frame = compositor.NewFrame()
	term.Draw(frame.Region(0, 0, 10, 3), false)
	assert.NotContains(t, frame.Get(2, 0).Prefix, compositor.ANSIReverse)

	close(c.out)
	waitExited(t, term)
}

func TestTerminalHints(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	c := newChild(ctrl, nil)
	term := New(c.proc, 20, 5)

	hints := term.Hints()
	assert.True(t, hints.Flags.Has(widget.FlagBackground))
	assert.True(t, hints.Fits(2, 1))
	assert.False(t, hints.Fits(1, 1))

	close(c.out)
	waitExited(t, term)
}

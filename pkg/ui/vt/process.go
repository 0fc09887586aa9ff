package vt

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"

	"github.com/creack/pty"
)

//go:generate mockgen -package=vt -destination=mock_process_test.go github.com/odvcencio/tilewm/pkg/ui/vt Process

// Process is a child attached to the master side of a pseudo-terminal.
// Reads return the child's output; writes deliver keystrokes.
type Process interface {
	io.ReadWriteCloser
	// Resize sets the terminal window size seen by the child.
	Resize(cols, rows int) error
	Signal(sig os.Signal) error
	Pid() int
	// Wait blocks until the child exits.
	Wait() error
}

// Command describes the child to start.
type Command struct {
	Path string
	Args []string
	Dir  string
	// Env is added to the parent's environment.
	Env []string
	// Term is exported as TERM. Empty means "xterm".
	Term string
}

type ptyProcess struct {
	cmd  *exec.Cmd
	ptmx *os.File
}

// StartProcess starts cmd on a new pseudo-terminal of cols x rows.
func StartProcess(c Command, cols, rows int) (Process, error) {
	if c.Path == "" {
		return nil, fmt.Errorf("start process: %w", exec.ErrNotFound)
	}
	term := c.Term
	if term == "" {
		term = "xterm"
	}

	cmd := exec.Command(c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Env = append(cmd.Env,
		"TERM="+term,
		"COLUMNS="+strconv.Itoa(cols),
		"LINES="+strconv.Itoa(rows),
	)

	ptmx, err := pty.StartWithSize(cmd, winsize(cols, rows))
	if err != nil {
		return nil, fmt.Errorf("start %s: %w", c.Path, err)
	}
	return &ptyProcess{cmd: cmd, ptmx: ptmx}, nil
}

func winsize(cols, rows int) *pty.Winsize {
	return &pty.Winsize{Cols: clampUint16(cols), Rows: clampUint16(rows)}
}

func clampUint16(v int) uint16 {
	return uint16(clamp(v, 1, 0xffff))
}

func (p *ptyProcess) Read(b []byte) (int, error) {
	return p.ptmx.Read(b)
}

func (p *ptyProcess) Write(b []byte) (int, error) {
	return p.ptmx.Write(b)
}

func (p *ptyProcess) Close() error {
	return p.ptmx.Close()
}

func (p *ptyProcess) Resize(cols, rows int) error {
	return pty.Setsize(p.ptmx, winsize(cols, rows))
}

func (p *ptyProcess) Signal(sig os.Signal) error {
	if p.cmd.Process == nil {
		return os.ErrProcessDone
	}
	return p.cmd.Process.Signal(sig)
}

func (p *ptyProcess) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

func (p *ptyProcess) Wait() error {
	return p.cmd.Wait()
}

package sim

import (
	"context"
	"strings"
	"testing"
	"time"

	tcellv2 "github.com/gdamore/tcell/v2"

	"github.com/odvcencio/tilewm/pkg/ui/compositor"
	"github.com/odvcencio/tilewm/pkg/ui/input"
	"github.com/odvcencio/tilewm/pkg/ui/terminal"
)

func newSim(t *testing.T, w, h int) *Backend {
	t.Helper()
	sim := New(w, h)
	if err := sim.Init(); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(sim.Fini)
	return sim
}

func present(t *testing.T, sim *Backend, r *compositor.Renderer, full bool) {
	t.Helper()
	if err := sim.Present(r, full); err != nil {
		t.Fatalf("Present failed: %v", err)
	}
}

func TestBackend_BasicRendering(t *testing.T) {
	sim := newSim(t, 20, 5)

	r := compositor.NewRenderer()
	r.Begin().Write(0, 0, "Hello, World!")
	present(t, sim, r, false)

	_, h := sim.Size()
	lines := strings.Split(sim.Capture(), "\n")
	if len(lines) != h {
		t.Errorf("Expected %d lines, got %d", h, len(lines))
	}
	if !strings.HasPrefix(lines[0], "Hello, World!") {
		t.Errorf("Expected first line to start with 'Hello, World!', got %q", lines[0])
	}
	if r.Rendering() {
		t.Error("Present should end the render cycle")
	}
}

func TestBackend_Size(t *testing.T) {
	sim := newSim(t, 80, 24)

	w, h := sim.Size()
	if w != 80 || h != 24 {
		t.Errorf("Expected 80x24, got %dx%d", w, h)
	}
}

func TestBackend_Resize(t *testing.T) {
	sim := newSim(t, 80, 24)
	sim.Resize(40, 12)

	w, h := sim.Size()
	if w != 40 || h != 12 {
		t.Errorf("Expected size 40x12 after resize, got %dx%d", w, h)
	}
}

func TestBackend_DiffPresent(t *testing.T) {
	sim := newSim(t, 20, 5)
	r := compositor.NewRenderer()

	f := r.Begin()
	f.Write(0, 0, "keep")
	f.Write(0, 1, "drop")
	present(t, sim, r, false)

	r.Begin().Write(0, 0, "keep")
	r.Frame().Write(2, 3, "new")
	present(t, sim, r, false)

	if got := sim.CaptureRegion(0, 0, 6, 4); got != "keep  \n      \n      \n  new " {
		t.Errorf("Unexpected screen:\n%s", got)
	}
	stats := r.Stats()
	if stats.RowsSkipped != 1 || stats.RowsCleared != 1 || stats.RowsRepainted != 1 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestBackend_FindText(t *testing.T) {
	sim := newSim(t, 40, 10)

	r := compositor.NewRenderer()
	r.Begin().Write(5, 3, "target")
	present(t, sim, r, true)

	x, y := sim.FindText("target")
	if x != 5 || y != 3 {
		t.Errorf("Expected to find 'target' at (5, 3), got (%d, %d)", x, y)
	}
	if sim.ContainsText("missing") {
		t.Error("Should not find 'missing' on screen")
	}
}

func TestBackend_WideGlyph(t *testing.T) {
	sim := newSim(t, 10, 2)

	r := compositor.NewRenderer()
	r.Begin().Write(0, 0, "世x")
	present(t, sim, r, false)

	if got := sim.CaptureRegion(0, 0, 3, 1); got != "世x" {
		t.Errorf("Expected %q, got %q", "世x", got)
	}
	if x, _ := sim.FindText("x"); x != 2 {
		t.Errorf("Expected x at column 2, got %d", x)
	}
}

func TestBackend_Styles(t *testing.T) {
	sim := newSim(t, 20, 10)

	r := compositor.NewRenderer()
	r.Begin().Write(0, 0, "\x1b[1;31;44mS\x1b[0mT")
	present(t, sim, r, false)

	mainc, _, style := sim.CaptureCell(0, 0)
	if mainc != 'S' {
		t.Errorf("Expected 'S', got %c", mainc)
	}
	if !style.Bold {
		t.Error("Expected bold attribute to be set")
	}
	if style.FG != compositor.Color16(1) || style.BG != compositor.Color16(4) {
		t.Errorf("Unexpected colors fg=%+v bg=%+v", style.FG, style.BG)
	}

	_, _, style = sim.CaptureCell(1, 0)
	if !style.Equal(compositor.DefaultStyle()) {
		t.Errorf("Expected reset style after SGR 0, got %+v", style)
	}
}

func TestBackend_Run(t *testing.T) {
	sim := newSim(t, 20, 10)
	p := input.NewPipeline(16)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sim.Run(ctx, p) }()

	sim.InjectKeyRune('a')
	sim.InjectMouse(3, 2, tcellv2.Button1)
	sim.InjectResize(30, 8)

	var (
		raw    []byte
		sawA   bool
		mouse  []terminal.MouseEvent
		resize *terminal.ResizeEvent
	)
	deadline := time.Now().Add(2 * time.Second)
	for (!sawA || len(mouse) == 0 || resize == nil || resize.Width != 30) && time.Now().Before(deadline) {
		snap := p.Poll()
		raw = append(raw, snap.Raw...)
		if snap.Pressed("A") {
			sawA = true
		}
		mouse = append(mouse, snap.Mouse...)
		if snap.Resize != nil {
			resize = snap.Resize
		}
		time.Sleep(5 * time.Millisecond)
	}

	if !sawA || string(raw) != "a" {
		t.Errorf("Expected key A with raw %q, got pressed=%v raw=%q", "a", sawA, raw)
	}
	if len(mouse) == 0 || mouse[0].X != 3 || mouse[0].Y != 2 || mouse[0].Button != terminal.MouseLeft {
		t.Errorf("Unexpected mouse events %+v", mouse)
	}
	if resize == nil || resize.Width != 30 || resize.Height != 8 {
		t.Errorf("Unexpected resize %+v", resize)
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}

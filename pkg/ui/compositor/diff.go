package compositor

import (
	"io"
)

type renderState uint8

const (
	stateIdle renderState = iota
	stateRendering
)

// DiffStats describes the output of the last render.
type DiffStats struct {
	RowsRepainted int
	RowsCleared   int
	RowsSkipped   int
	Bytes         int
	Full          bool
}

// Renderer double-buffers two frames and emits the minimal set of row
// repaints needed to turn the previous frame into the current one.
//
// Each cycle: Begin swaps the frames and clears the new current one, the
// caller draws into it, and Diff or PaintAll produces the output. The only
// sequences generated are cursor positioning and erase-line; style
// sequences come from the cells themselves.
type Renderer struct {
	current  *Frame
	previous *Frame
	writer   *ANSIWriter
	state    renderState
	stats    DiffStats
}

// NewRenderer creates a renderer with two empty frames.
func NewRenderer() *Renderer {
	return &Renderer{
		current:  NewFrame(),
		previous: NewFrame(),
		writer:   NewANSIWriter(),
	}
}

// Begin starts a cycle and returns the frame to draw into.
func (r *Renderer) Begin() *Frame {
	r.current, r.previous = r.previous, r.current
	r.current.Clear()
	r.state = stateRendering
	return r.current
}

// Frame returns the frame being drawn.
func (r *Renderer) Frame() *Frame {
	return r.current
}

// Previous returns the frame drawn in the last cycle.
func (r *Renderer) Previous() *Frame {
	return r.previous
}

// Rendering reports whether a cycle has begun but not been flushed.
func (r *Renderer) Rendering() bool {
	return r.state == stateRendering
}

// Stats returns statistics for the last Diff or PaintAll.
func (r *Renderer) Stats() DiffStats {
	return r.stats
}

// Invalidate forgets what is on screen so the next Diff repaints every row.
func (r *Renderer) Invalidate() {
	if r.state == stateRendering {
		r.previous.Clear()
		return
	}
	// Begin has not run yet; current becomes previous once it does.
	r.current.Clear()
}

// Diff returns the writes that turn the previous frame into the current
// one on a terminal of the given size. Rows outside the terminal are
// skipped and each row is truncated to width visible columns.
func (r *Renderer) Diff(width, height int) string {
	w := r.writer
	w.Reset()
	r.stats = DiffStats{}

	visible := func(y int) bool { return y >= 0 && y < height }

	for _, y := range r.previous.Rows() {
		if !visible(y) {
			continue
		}
		old, _ := r.previous.Row(y)
		row, ok := r.current.Row(y)
		if !ok {
			w.MoveToRow(y)
			w.EraseLine()
			r.stats.RowsCleared++
			continue
		}
		line := row.Render(width)
		if line == old.Render(width) {
			r.stats.RowsSkipped++
			continue
		}
		w.MoveToRow(y)
		w.WriteString(line)
		if row.Len() < min(old.Len(), width) {
			w.EraseLine()
		}
		r.stats.RowsRepainted++
	}

	for _, y := range r.current.Rows() {
		if !visible(y) {
			continue
		}
		if _, ok := r.previous.Row(y); ok {
			continue
		}
		row, _ := r.current.Row(y)
		w.MoveToRow(y)
		w.WriteString(row.Render(width))
		r.stats.RowsRepainted++
	}

	r.state = stateIdle
	r.stats.Bytes = w.Len()
	return w.String()
}

// PaintAll repaints every visible row regardless of the previous frame.
// Used after a terminal resize or when the screen contents are unknown.
func (r *Renderer) PaintAll(width, height int) string {
	w := r.writer
	w.Reset()
	r.stats = DiffStats{Full: true}

	for y := range max(height, 0) {
		w.MoveToRow(y)
		w.EraseLine()
		if row, ok := r.current.Row(y); ok {
			w.WriteString(row.Render(width))
		}
		r.stats.RowsRepainted++
	}

	r.state = stateIdle
	r.stats.Bytes = w.Len()
	return w.String()
}

// Render writes the diff, or a full repaint when full is set, to out.
func (r *Renderer) Render(out io.Writer, width, height int, full bool) (int, error) {
	var s string
	if full {
		s = r.PaintAll(width, height)
	} else {
		s = r.Diff(width, height)
	}
	if s == "" {
		return 0, nil
	}
	return io.WriteString(out, s)
}

// Apply is Diff for backends that draw through an API. It calls paint for
// every visible row that changed, or for every visible row when full is set,
// and ends the cycle. A nil row means the row is now empty.
func (r *Renderer) Apply(width, height int, full bool, paint func(y int, row *Row)) {
	r.stats = DiffStats{Full: full}
	for y := range max(height, 0) {
		old, hadOld := r.previous.Row(y)
		row, ok := r.current.Row(y)
		switch {
		case full:
			r.stats.RowsRepainted++
		case !ok && !hadOld:
			continue
		case !ok:
			r.stats.RowsCleared++
		case hadOld && row.Render(width) == old.Render(width):
			r.stats.RowsSkipped++
			continue
		default:
			r.stats.RowsRepainted++
		}
		paint(y, row)
	}
	r.state = stateIdle
}

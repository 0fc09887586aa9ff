package input

import (
	"context"
	"slices"
	"sync/atomic"
	"time"

	"github.com/odvcencio/tilewm/pkg/ui/terminal"
)

// DefaultQueueSize is the capacity of a pipeline's event queue.
const DefaultQueueSize = 256

// Snapshot is everything the pipeline observed in one polling cycle.
type Snapshot struct {
	// Keys holds every live key, ordered by its most recent sample.
	Keys []KeyEvent
	// Raw holds the bytes drained this cycle, in arrival order.
	Raw   []byte
	Mouse []terminal.MouseEvent
	// Resize is the last resize drained this cycle, if any.
	Resize *terminal.ResizeEvent
}

// Find returns the first live key matching token.
func (s Snapshot) Find(token string) (KeyEvent, bool) {
	for _, k := range s.Keys {
		if k.Is(token) {
			return k, true
		}
	}
	return KeyEvent{}, false
}

// Pressed reports whether a key matching token went down this cycle.
func (s Snapshot) Pressed(token string) bool {
	k, ok := s.Find(token)
	return ok && k.Pressed()
}

// Empty reports whether nothing happened this cycle.
func (s Snapshot) Empty() bool {
	return len(s.Keys) == 0 && len(s.Raw) == 0 && len(s.Mouse) == 0 && s.Resize == nil
}

// Pipeline collects events from source goroutines and turns them into a
// live key map, one Poll per compositor cycle.
//
// Send is safe to call from any goroutine. Poll, Live and Reset belong to
// the compositor goroutine.
type Pipeline struct {
	queue   chan terminal.Event
	live    map[terminal.Code]*KeyEvent
	seq     uint64
	now     func() time.Time
	dropped atomic.Int64
}

// NewPipeline creates a pipeline whose queue holds size events.
func NewPipeline(size int) *Pipeline {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &Pipeline{
		queue: make(chan terminal.Event, size),
		live:  make(map[terminal.Code]*KeyEvent),
		now:   time.Now,
	}
}

// Send queues an event, blocking while the queue is full.
func (p *Pipeline) Send(ctx context.Context, ev terminal.Event) error {
	select {
	case p.queue <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySend queues an event without blocking. It reports false, and counts
// the event as dropped, when the queue is full.
func (p *Pipeline) TrySend(ev terminal.Event) bool {
	select {
	case p.queue <- ev:
		return true
	default:
		p.dropped.Add(1)
		return false
	}
}

// Forward sends every event from src until src closes or ctx ends.
func (p *Pipeline) Forward(ctx context.Context, src <-chan terminal.Event) error {
	for {
		select {
		case ev, ok := <-src:
			if !ok {
				return nil
			}
			if err := p.Send(ctx, ev); err != nil {
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// Dropped returns the number of events TrySend discarded.
func (p *Pipeline) Dropped() int64 {
	return p.dropped.Load()
}

// Poll drains the queue without blocking and advances every live key by
// one frame:
//   - a key released last cycle is removed;
//   - a key still down becomes held and its hold counter advances;
//   - a sample with the same code and modifiers as a live key refreshes it;
//   - any other sample starts a fresh press.
//
// Keys from sources that cannot report releases are released on the first
// cycle without a new sample.
func (p *Pipeline) Poll() Snapshot {
	for code, ev := range p.live {
		switch {
		case ev.State == StateReleased:
			delete(p.live, code)
		case ev.autoRelease:
			ev.pendingRelease = true
		default:
			ev.State = StateHeld
			ev.HoldFrames++
		}
	}

	var snap Snapshot
	// Bounded so a flooding source cannot stall the cycle.
drain:
	for range cap(p.queue) {
		select {
		case ev := <-p.queue:
			p.dispatch(&snap, ev)
		default:
			break drain
		}
	}

	for _, ev := range p.live {
		if ev.pendingRelease {
			ev.pendingRelease = false
			ev.State = StateReleased
		}
	}

	snap.Keys = make([]KeyEvent, 0, len(p.live))
	for _, ev := range p.live {
		snap.Keys = append(snap.Keys, *ev)
	}
	slices.SortFunc(snap.Keys, func(a, b KeyEvent) int {
		switch {
		case a.seq < b.seq:
			return -1
		case a.seq > b.seq:
			return 1
		}
		return 0
	})
	return snap
}

func (p *Pipeline) dispatch(snap *Snapshot, ev terminal.Event) {
	switch ev := ev.(type) {
	case terminal.KeyTransition:
		snap.Raw = append(snap.Raw, ev.Raw...)
		p.apply(ev)
	case terminal.MouseEvent:
		snap.Mouse = append(snap.Mouse, ev)
	case terminal.ResizeEvent:
		snap.Resize = &ev
	}
}

func (p *Pipeline) apply(t terminal.KeyTransition) {
	if t.Code == terminal.CodeNone {
		return
	}
	p.seq++
	ev, live := p.live[t.Code]

	if t.State == terminal.KeyReleased {
		if live {
			ev.State = StateReleased
			ev.pendingRelease = false
			ev.seq = p.seq
		}
		return
	}

	if live && ev.State != StateReleased && ev.Mods == t.Mods {
		if ev.pendingRelease {
			ev.pendingRelease = false
			ev.State = StateHeld
			ev.HoldFrames++
		}
		if t.Rune != 0 {
			ev.Rune = t.Rune
		}
		ev.seq = p.seq
		return
	}

	p.live[t.Code] = &KeyEvent{
		Code:        t.Code,
		State:       StatePressed,
		Rune:        t.Rune,
		Mods:        t.Mods,
		PressedAt:   p.now(),
		autoRelease: t.AutoRelease,
		seq:         p.seq,
	}
}

// Live returns the current state of a key.
func (p *Pipeline) Live(code terminal.Code) (KeyEvent, bool) {
	ev, ok := p.live[code]
	if !ok {
		return KeyEvent{}, false
	}
	return *ev, true
}

// Reset forgets every live key. Queued events are kept.
func (p *Pipeline) Reset() {
	clear(p.live)
}

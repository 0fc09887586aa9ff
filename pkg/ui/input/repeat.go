package input

// RepeatPolicy decides on which frames a held key acts again. It counts
// frames rather than wall-clock time and is used for every repeatable
// action: the press always fires, then held frames fire once HoldFrames
// reaches Delay and every Every frames after that.
type RepeatPolicy struct {
	Delay int
	Every int
}

// DefaultRepeat fires on the press and on every even hold frame.
func DefaultRepeat() RepeatPolicy {
	return RepeatPolicy{Delay: 0, Every: 2}
}

// Fires reports whether e should act this frame.
func (p RepeatPolicy) Fires(e KeyEvent) bool {
	switch e.State {
	case StatePressed:
		return true
	case StateHeld:
		if e.HoldFrames < p.Delay {
			return false
		}
		every := max(p.Every, 1)
		return (e.HoldFrames-p.Delay)%every == 0
	}
	return false
}

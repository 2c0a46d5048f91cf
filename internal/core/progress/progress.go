// Package progress defines the iteration-callback contract every
// long-running core operation accepts. The core never writes to
// stdout/stderr or files itself; presentation is entirely the caller's
// concern (spec.md §4.8).
package progress

// Level is one of the four semantic cadences a caller can ask for. The core
// only uses it to decide how often to call Callback; it never formats or
// prints anything based on it.
type Level string

const (
	LevelMinimal  Level = "minimal"
	LevelNormal   Level = "normal"
	LevelDetailed Level = "detailed"
	LevelDebug    Level = "debug"
)

// Event is delivered to a Callback at the configured cadence.
type Event struct {
	Iteration      int
	TotalEstimate  int
	CurrentScore   float64
	BestScore      float64
	Extras         map[string]float64
}

// Callback receives progress events. A nil Callback is always safe to call
// through Sink, which no-ops in that case.
type Callback func(Event)

// Sink wraps a possibly-nil Callback plus a Level and applies the level's
// rate contract: minimal fires at start and end, normal at each 10%
// milestone, detailed on every accepted iteration, debug on every proposal.
type Sink struct {
	cb            Callback
	level         Level
	totalEstimate int
	lastMilestone int
}

// NewSink builds a progress sink. cb may be nil.
func NewSink(cb Callback, level Level, totalEstimate int) *Sink {
	if level == "" {
		level = LevelNormal
	}
	return &Sink{cb: cb, level: level, totalEstimate: totalEstimate, lastMilestone: -1}
}

func (s *Sink) emit(e Event) {
	if s == nil || s.cb == nil {
		return
	}
	e.TotalEstimate = s.totalEstimate
	s.cb(e)
}

// Start emits the minimal-level start event.
func (s *Sink) Start(initialScore float64) {
	s.emit(Event{Iteration: 0, CurrentScore: initialScore, BestScore: initialScore})
}

// End emits the minimal-level end event.
func (s *Sink) End(iteration int, currentScore, bestScore float64) {
	s.emit(Event{Iteration: iteration, CurrentScore: currentScore, BestScore: bestScore})
}

// Accepted reports an accepted (applied) iteration. Fires under normal (at
// 10% milestones) and detailed (every time) cadences.
func (s *Sink) Accepted(iteration int, currentScore, bestScore float64, extras map[string]float64) {
	if s == nil || s.cb == nil {
		return
	}
	switch s.level {
	case LevelDetailed, LevelDebug:
		s.emit(Event{Iteration: iteration, CurrentScore: currentScore, BestScore: bestScore, Extras: extras})
	case LevelNormal:
		if s.totalEstimate <= 0 {
			return
		}
		milestone := iteration * 10 / s.totalEstimate
		if milestone != s.lastMilestone {
			s.lastMilestone = milestone
			s.emit(Event{Iteration: iteration, CurrentScore: currentScore, BestScore: bestScore, Extras: extras})
		}
	}
}

// Proposed reports a candidate move before constraint filtering. Only the
// debug cadence fires on proposals.
func (s *Sink) Proposed(iteration int, currentScore, bestScore float64, extras map[string]float64) {
	if s == nil || s.cb == nil || s.level != LevelDebug {
		return
	}
	s.emit(Event{Iteration: iteration, CurrentScore: currentScore, BestScore: bestScore, Extras: extras})
}

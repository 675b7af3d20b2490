// Package pacer estimates which word of a text is being spoken while an
// external speech engine plays it back.
//
// The speech engine gives no word timings, so the pacer derives them from
// word length and a per-language rate, then advances a current word index on
// a frame cadence once playback is reported as started.
package pacer

import (
	"sync"
	"time"
)

const (
	// StartupDelay compensates for the lag between playback being reported
	// as started and the audio becoming audible.
	StartupDelay = 300 * time.Millisecond

	// TrailingGrace is how long ticking continues after the estimated end
	// of the last word.
	TrailingGrace = time.Second
)

// NoWord is the index reported when no word is current.
const NoWord = -1

// State is the per-session pacing state.
type State struct {
	CurrentIndex  int       // Current word, or NoWord
	PlaybackStart time.Time // When playback was reported; zero when idle
}

// IdleState returns the state of a session that is not playing.
func IdleState() State {
	return State{CurrentIndex: NoWord}
}

// Started reports whether a playback session is in progress.
func (s State) Started() bool {
	return !s.PlaybackStart.IsZero()
}

// Timing holds the constants Advance works with.
type Timing struct {
	StartupDelay  time.Duration
	TrailingGrace time.Duration
}

// DefaultTiming returns the standard startup delay and trailing grace.
func DefaultTiming() Timing {
	return Timing{
		StartupDelay:  StartupDelay,
		TrailingGrace: TrailingGrace,
	}
}

// Advance computes the state for time now. It returns the new state and
// whether another tick should be scheduled. The current index never moves
// backwards.
func Advance(s State, words []TimedWord, now time.Time, timing Timing) (State, bool) {
	if !s.Started() || len(words) == 0 {
		return s, false
	}
	if s.CurrentIndex < 0 {
		s.CurrentIndex = 0
	}

	elapsed := now.Sub(s.PlaybackStart) - timing.StartupDelay
	if elapsed < 0 {
		return s, true
	}

	// Words are sorted by start, so the first word starting after elapsed
	// ends the scan. Equal starts favour the later word.
	index := 0
	for i, w := range words {
		if w.StartAt > elapsed {
			break
		}
		index = i
	}
	if index > s.CurrentIndex {
		s.CurrentIndex = index
	}

	last := words[len(words)-1]
	return s, elapsed < last.EndAt+timing.TrailingGrace
}

// Option configures a Pacer.
type Option func(*Pacer)

// WithScheduler sets the scheduler driving ticks. The default is a
// FrameScheduler at DefaultFrameInterval.
func WithScheduler(s Scheduler) Option {
	return func(p *Pacer) { p.scheduler = s }
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(p *Pacer) { p.now = now }
}

// WithTiming overrides the startup delay and trailing grace.
func WithTiming(t Timing) Option {
	return func(p *Pacer) { p.timing = t }
}

// Pacer tracks the spoken word for a single text-highlighting session.
type Pacer struct {
	mu sync.Mutex

	table     Table
	scheduler Scheduler
	now       func() time.Time
	timing    Timing

	text     string
	language string
	words    []TimedWord
	state    State

	// generation is bumped on every reset so callbacks from an earlier
	// session are ignored.
	generation uint64
	cancel     func()
	closed     bool

	onChange []func(int)
}

// New returns an idle Pacer using table for word timings.
func New(table Table, opts ...Option) *Pacer {
	p := &Pacer{
		table:     table,
		scheduler: NewFrameScheduler(DefaultFrameInterval),
		now:       time.Now,
		timing:    DefaultTiming(),
		state:     IdleState(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OnChange registers fn to be called with the new index whenever the current
// word changes. Callbacks run outside the pacer's lock.
func (p *Pacer) OnChange(fn func(index int)) {
	if fn == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onChange = append(p.onChange, fn)
}

// SetText replaces the text being paced. Any session in progress is reset
// when the text or language differs from the current one.
func (p *Pacer) SetText(text, language string) {
	p.mu.Lock()
	if p.words != nil && text == p.text && language == p.language {
		p.mu.Unlock()
		return
	}
	changed := p.resetLocked()
	p.text = text
	p.language = language
	p.words = EstimateTimings(Tokenize(text), language, p.table)
	if p.words == nil {
		p.words = []TimedWord{}
	}
	callbacks := p.onChange
	p.mu.Unlock()

	if changed {
		notify(callbacks, NoWord)
	}
}

// SetPlaybackActive starts a session when active is true and resets it when
// false.
func (p *Pacer) SetPlaybackActive(active bool) {
	if active {
		p.Start()
		return
	}
	p.Reset()
}

// Start begins a session at the current time. It is a no-op while a session
// is active, when there are no words, or after Close.
func (p *Pacer) Start() {
	p.mu.Lock()
	if p.closed || p.state.Started() || len(p.words) == 0 {
		p.mu.Unlock()
		return
	}
	p.state = State{CurrentIndex: 0, PlaybackStart: p.now()}
	p.scheduleLocked()
	callbacks := p.onChange
	p.mu.Unlock()

	notify(callbacks, 0)
}

// Tick advances the session to now and reports whether ticking should
// continue. It does not schedule anything itself.
func (p *Pacer) Tick(now time.Time) bool {
	p.mu.Lock()
	index, changed, more := p.tickLocked(now)
	callbacks := p.onChange
	p.mu.Unlock()

	if changed {
		notify(callbacks, index)
	}
	return more
}

// Reset ends the session. Any pending tick is cancelled before Reset
// returns.
func (p *Pacer) Reset() {
	p.mu.Lock()
	changed := p.resetLocked()
	callbacks := p.onChange
	p.mu.Unlock()

	if changed {
		notify(callbacks, NoWord)
	}
}

// Close resets the pacer and prevents further sessions.
func (p *Pacer) Close() {
	p.mu.Lock()
	p.closed = true
	p.resetLocked()
	p.onChange = nil
	p.mu.Unlock()
}

// CurrentIndex returns the current word index, or NoWord.
func (p *Pacer) CurrentIndex() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state.CurrentIndex
}

// TotalWords returns the number of words in the current text.
func (p *Pacer) TotalWords() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.words)
}

// Words returns a copy of the timed words for the current text.
func (p *Pacer) Words() []TimedWord {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]TimedWord, len(p.words))
	copy(out, p.words)
	return out
}

// State returns a snapshot of the session state.
func (p *Pacer) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Text returns the text and language being paced.
func (p *Pacer) Text() (string, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.text, p.language
}

// Pending reports whether a tick is scheduled.
func (p *Pacer) Pending() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancel != nil
}

func (p *Pacer) tickLocked(now time.Time) (index int, changed, more bool) {
	prev := p.state.CurrentIndex
	p.state, more = Advance(p.state, p.words, now, p.timing)
	return p.state.CurrentIndex, p.state.CurrentIndex != prev, more
}

func (p *Pacer) scheduleLocked() {
	gen := p.generation
	p.cancel = p.scheduler.Schedule(func() { p.fire(gen) })
}

// fire runs a scheduled tick and schedules its successor.
func (p *Pacer) fire(gen uint64) {
	p.mu.Lock()
	if gen != p.generation || p.closed {
		p.mu.Unlock()
		return
	}
	p.cancel = nil
	index, changed, more := p.tickLocked(p.now())
	if more {
		p.scheduleLocked()
	}
	callbacks := p.onChange
	p.mu.Unlock()

	if changed {
		notify(callbacks, index)
	}
}

// resetLocked returns the pacer to the idle state and reports whether the
// current index changed.
func (p *Pacer) resetLocked() bool {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.generation++
	changed := p.state.CurrentIndex != NoWord
	p.state = IdleState()
	return changed
}

func notify(callbacks []func(int), index int) {
	for _, fn := range callbacks {
		fn(index)
	}
}

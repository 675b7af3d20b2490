package pacer_test

import (
	"sync"
	"testing"
	"time"

	"github.com/nosabos/nosabos/tts/pacer"
)

// manualScheduler queues callbacks until the test fires them.
type manualScheduler struct {
	mu        sync.Mutex
	pending   []*scheduled
	scheduled int
}

type scheduled struct {
	fn        func()
	cancelled bool
}

func (s *manualScheduler) Schedule(fn func()) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	item := &scheduled{fn: fn}
	s.pending = append(s.pending, item)
	s.scheduled++
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		item.cancelled = true
	}
}

// fire runs every queued callback that has not been cancelled and returns
// how many ran.
func (s *manualScheduler) fire() int {
	s.mu.Lock()
	queue := s.pending
	s.pending = nil
	s.mu.Unlock()

	ran := 0
	for _, item := range queue {
		s.mu.Lock()
		cancelled := item.cancelled
		s.mu.Unlock()
		if cancelled {
			continue
		}
		item.fn()
		ran++
	}
	return ran
}

// live returns the number of queued, uncancelled callbacks.
func (s *manualScheduler) live() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, item := range s.pending {
		if !item.cancelled {
			n++
		}
	}
	return n
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestPacer(t *testing.T) (*pacer.Pacer, *manualScheduler, *fakeClock) {
	t.Helper()
	sched := &manualScheduler{}
	clock := newFakeClock()
	p := pacer.New(pacer.DefaultTable(),
		pacer.WithScheduler(sched),
		pacer.WithClock(clock.Now),
	)
	return p, sched, clock
}

func TestNewPacerIsIdle(t *testing.T) {
	p, _, _ := newTestPacer(t)

	if got := p.CurrentIndex(); got != pacer.NoWord {
		t.Errorf("CurrentIndex() = %d, want %d", got, pacer.NoWord)
	}
	if got := p.TotalWords(); got != 0 {
		t.Errorf("TotalWords() = %d, want 0", got)
	}
	if p.State().Started() {
		t.Error("new pacer should not be started")
	}
}

func TestStartupDelayKeepsFirstWord(t *testing.T) {
	p, _, clock := newTestPacer(t)
	p.SetText("hola mundo", "es")
	p.Start()

	start := p.State().PlaybackStart
	clock.Advance(250 * time.Millisecond)

	if more := p.Tick(start.Add(250 * time.Millisecond)); !more {
		t.Error("Tick during startup delay should ask for more ticks")
	}
	if got := p.CurrentIndex(); got != 0 {
		t.Errorf("CurrentIndex() during startup delay = %d, want 0", got)
	}
}

func TestTickAdvancesToSecondWord(t *testing.T) {
	p, _, _ := newTestPacer(t)
	p.SetText("hola mundo", "es")
	p.Start()

	start := p.State().PlaybackStart

	// elapsed = 600ms - 300ms = 300ms, past word 1's start at 283ms.
	p.Tick(start.Add(600 * time.Millisecond))
	if got := p.CurrentIndex(); got != 1 {
		t.Errorf("CurrentIndex() at elapsed 300ms = %d, want 1", got)
	}
}

func TestTickTieBreakFavoursLaterWord(t *testing.T) {
	p, _, _ := newTestPacer(t)
	p.SetText("hola mundo", "es")
	p.Start()

	start := p.State().PlaybackStart
	p.Tick(start.Add(pacer.StartupDelay + 283*time.Millisecond))
	if got := p.CurrentIndex(); got != 1 {
		t.Errorf("CurrentIndex() at word 1 start = %d, want 1", got)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	p, sched, clock := newTestPacer(t)
	p.SetText("uno dos tres", "es")

	p.Start()
	first := p.State().PlaybackStart

	clock.Advance(time.Second)
	p.Start()

	if got := p.State().PlaybackStart; !got.Equal(first) {
		t.Errorf("PlaybackStart changed on second Start: %v, want %v", got, first)
	}
	if sched.scheduled != 1 {
		t.Errorf("scheduled %d ticks, want 1", sched.scheduled)
	}
}

func TestStartWithoutWords(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t "} {
		p, sched, clock := newTestPacer(t)
		p.SetText(text, "es")
		p.Start()
		clock.Advance(time.Second)
		p.Tick(clock.Now())

		if got := p.CurrentIndex(); got != pacer.NoWord {
			t.Errorf("text %q: CurrentIndex() = %d, want %d", text, got, pacer.NoWord)
		}
		if got := p.TotalWords(); got != 0 {
			t.Errorf("text %q: TotalWords() = %d, want 0", text, got)
		}
		if sched.scheduled != 0 {
			t.Errorf("text %q: scheduled %d ticks, want 0", text, sched.scheduled)
		}
	}
}

func TestPlaybackStoppedResets(t *testing.T) {
	p, sched, clock := newTestPacer(t)
	p.SetText("hola mundo", "es")
	p.SetPlaybackActive(true)

	clock.Advance(600 * time.Millisecond)
	sched.fire()
	if got := p.CurrentIndex(); got != 1 {
		t.Fatalf("CurrentIndex() = %d, want 1", got)
	}

	p.SetPlaybackActive(false)

	if got := p.CurrentIndex(); got != pacer.NoWord {
		t.Errorf("CurrentIndex() after stop = %d, want %d", got, pacer.NoWord)
	}
	if p.State().Started() {
		t.Error("PlaybackStart should be cleared after stop")
	}
	if sched.live() != 0 {
		t.Errorf("%d ticks still pending after stop", sched.live())
	}
	if ran := sched.fire(); ran != 0 {
		t.Errorf("%d ticks ran after stop, want 0", ran)
	}
}

func TestStaleTickIgnoredAfterRestart(t *testing.T) {
	sched := &manualScheduler{}
	clock := newFakeClock()

	// A scheduler whose cancel does nothing, so the stale callback fires.
	leaky := pacer.SchedulerFunc(func(fn func()) func() {
		sched.Schedule(fn)
		return func() {}
	})
	p := pacer.New(pacer.DefaultTable(), pacer.WithScheduler(leaky), pacer.WithClock(clock.Now))
	p.SetText("uno dos tres cuatro", "es")

	p.Start()
	p.Reset()
	p.Start()

	// Jump far ahead: only the current session's tick may advance the index.
	clock.Advance(pacer.StartupDelay + 100*time.Millisecond)
	sched.fire()

	if got := p.CurrentIndex(); got != 0 {
		t.Errorf("CurrentIndex() = %d, want 0", got)
	}
	if got := sched.live(); got != 1 {
		t.Errorf("live ticks = %d, want exactly 1 successor", got)
	}
}

func TestTickingStopsAfterTrailingGrace(t *testing.T) {
	p, sched, clock := newTestPacer(t)
	p.SetText("hola mundo", "es")
	p.Start()

	// Last word ends at 593ms; grace runs until 1593ms of elapsed time.
	clock.Advance(pacer.StartupDelay + 1500*time.Millisecond)
	sched.fire()
	if sched.live() != 1 {
		t.Fatalf("expected ticking to continue inside the grace period")
	}

	clock.Advance(200 * time.Millisecond)
	sched.fire()
	if sched.live() != 0 {
		t.Errorf("expected ticking to stop after the grace period")
	}

	// State is kept until an explicit reset.
	if got := p.CurrentIndex(); got != 1 {
		t.Errorf("CurrentIndex() after grace = %d, want 1", got)
	}
	if !p.State().Started() {
		t.Error("session should still be started until Reset")
	}
}

func TestIndexNeverDecreases(t *testing.T) {
	p, _, _ := newTestPacer(t)
	p.SetText("a b c d e f", "en")
	p.Start()
	start := p.State().PlaybackStart

	p.Tick(start.Add(2 * time.Second))
	high := p.CurrentIndex()
	p.Tick(start.Add(400 * time.Millisecond))

	if got := p.CurrentIndex(); got != high {
		t.Errorf("CurrentIndex() went from %d to %d", high, got)
	}
}

func TestSetTextResetsSession(t *testing.T) {
	p, sched, _ := newTestPacer(t)
	p.SetText("hola mundo", "es")
	p.Start()

	p.SetText("adiós amigos míos", "es")

	if got := p.CurrentIndex(); got != pacer.NoWord {
		t.Errorf("CurrentIndex() after text change = %d, want %d", got, pacer.NoWord)
	}
	if got := p.TotalWords(); got != 3 {
		t.Errorf("TotalWords() = %d, want 3", got)
	}
	if sched.live() != 0 {
		t.Errorf("pending tick survived text change")
	}
}

func TestSetSameTextKeepsSession(t *testing.T) {
	p, _, _ := newTestPacer(t)
	p.SetText("hola mundo", "es")
	p.Start()

	p.SetText("hola mundo", "es")

	if !p.State().Started() {
		t.Error("setting identical text should not reset the session")
	}
}

func TestCloseCancelsAndBlocksStart(t *testing.T) {
	p, sched, _ := newTestPacer(t)
	p.SetText("hola mundo", "es")
	p.Start()

	p.Close()
	if sched.live() != 0 {
		t.Error("pending tick survived Close")
	}

	p.Start()
	if p.State().Started() {
		t.Error("Start after Close should be a no-op")
	}
}

func TestOnChangeReportsTransitions(t *testing.T) {
	p, sched, clock := newTestPacer(t)
	p.SetText("hola mundo", "es")

	var got []int
	p.OnChange(func(i int) { got = append(got, i) })

	p.Start()
	clock.Advance(600 * time.Millisecond)
	sched.fire()
	p.Reset()

	want := []int{0, 1, pacer.NoWord}
	if len(got) != len(want) {
		t.Fatalf("OnChange calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("OnChange call %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestAdvance(t *testing.T) {
	words := pacer.EstimateTimings(pacer.Tokenize("hola mundo"), "es", pacer.DefaultTable())
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	timing := pacer.DefaultTiming()

	tests := []struct {
		name      string
		state     pacer.State
		at        time.Duration
		wantIndex int
		wantMore  bool
	}{
		{
			name:      "idle state is untouched",
			state:     pacer.IdleState(),
			at:        time.Second,
			wantIndex: pacer.NoWord,
			wantMore:  false,
		},
		{
			name:      "startup delay",
			state:     pacer.State{CurrentIndex: 0, PlaybackStart: start},
			at:        250 * time.Millisecond,
			wantIndex: 0,
			wantMore:  true,
		},
		{
			name:      "first word",
			state:     pacer.State{CurrentIndex: 0, PlaybackStart: start},
			at:        500 * time.Millisecond,
			wantIndex: 0,
			wantMore:  true,
		},
		{
			name:      "second word",
			state:     pacer.State{CurrentIndex: 0, PlaybackStart: start},
			at:        600 * time.Millisecond,
			wantIndex: 1,
			wantMore:  true,
		},
		{
			name:      "past grace",
			state:     pacer.State{CurrentIndex: 1, PlaybackStart: start},
			at:        pacer.StartupDelay + 593*time.Millisecond + time.Second,
			wantIndex: 1,
			wantMore:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, more := pacer.Advance(tt.state, words, start.Add(tt.at), timing)
			if got.CurrentIndex != tt.wantIndex {
				t.Errorf("CurrentIndex = %d, want %d", got.CurrentIndex, tt.wantIndex)
			}
			if more != tt.wantMore {
				t.Errorf("more = %v, want %v", more, tt.wantMore)
			}
		})
	}
}

func TestFrameSchedulerCancel(t *testing.T) {
	s := pacer.NewFrameScheduler(5 * time.Millisecond)
	fired := make(chan struct{}, 1)
	cancel := s.Schedule(func() { fired <- struct{}{} })
	cancel()

	select {
	case <-fired:
		t.Error("cancelled callback fired")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPacerWithFrameScheduler(t *testing.T) {
	p := pacer.New(pacer.DefaultTable(),
		pacer.WithScheduler(pacer.NewFrameScheduler(time.Millisecond)),
		pacer.WithTiming(pacer.Timing{StartupDelay: 0, TrailingGrace: 10 * time.Millisecond}),
	)
	defer p.Close()

	changes := make(chan int, 16)
	p.OnChange(func(i int) {
		select {
		case changes <- i:
		default:
		}
	})

	p.SetText("a b", "en")
	p.Start()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case i := <-changes:
			if i == 1 {
				return
			}
		case <-deadline:
			t.Fatalf("pacer never reached the last word, index %d", p.CurrentIndex())
		}
	}
}

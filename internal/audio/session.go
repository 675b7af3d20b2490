package audio

import (
	"sync"

	"github.com/nosabos/nosabos/tts"
)

// eventBuffer is large enough that a UI reading events once per frame never
// causes a drop.
const eventBuffer = 32

// session tracks which clip is current. Every Play bumps the generation so
// completions of replaced clips are ignored.
type session struct {
	mu      sync.Mutex
	events  chan tts.PlaybackEvent
	gen     uint64
	playing bool
	closed  bool
}

func newSession() *session {
	return &session{events: make(chan tts.PlaybackEvent, eventBuffer)}
}

// begin marks a new clip as playing. It returns the clip's generation and
// whether a previous clip was interrupted.
func (s *session) begin() (gen uint64, interrupted bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, false, tts.ErrPlayerClosed
	}
	interrupted = s.playing
	if interrupted {
		s.emit(tts.PlaybackEvent{Type: tts.PlaybackStopped})
	}
	s.gen++
	s.playing = true
	s.emit(tts.PlaybackEvent{Type: tts.PlaybackStarted})
	return s.gen, interrupted, nil
}

// end reports the outcome of clip gen. It returns false when gen is no
// longer current.
func (s *session) end(gen uint64, typ tts.PlaybackEventType, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen || !s.playing {
		return false
	}
	s.playing = false
	s.emit(tts.PlaybackEvent{Type: typ, Err: err})
	return true
}

// stop ends whatever clip is current.
func (s *session) stop() bool {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	return s.end(gen, tts.PlaybackStopped, nil)
}

func (s *session) isPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing
}

// close stops playback and closes the event channel. It reports whether
// this call closed the session.
func (s *session) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if s.playing {
		s.playing = false
		s.emit(tts.PlaybackEvent{Type: tts.PlaybackStopped})
	}
	s.gen++
	s.closed = true
	close(s.events)
	return true
}

// emit must be called with s.mu held. Events are dropped rather than block
// the audio path when nobody is reading.
func (s *session) emit(ev tts.PlaybackEvent) {
	select {
	case s.events <- ev:
	default:
	}
}

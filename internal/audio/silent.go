package audio

import (
	"context"
	"sync"
	"time"

	"github.com/nosabos/nosabos/tts"
)

// SilentPlayer pretends to play clips: it emits the same events as a real
// device, timed by the clip duration.
type SilentPlayer struct {
	*session

	mu      sync.Mutex
	timer   *time.Timer
	stopCtx func() bool
}

var _ tts.AudioPlayer = (*SilentPlayer)(nil)

// NewSilentPlayer returns a player that makes no sound.
func NewSilentPlayer() *SilentPlayer {
	return &SilentPlayer{session: newSession()}
}

// Play starts the clip's timer, replacing any clip in progress. Canceling
// ctx stops playback.
func (p *SilentPlayer) Play(ctx context.Context, clip *tts.Audio) error {
	if clip == nil || clip.Duration <= 0 {
		return tts.ErrNothingToPlay
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.release()
	gen, _, err := p.begin()
	if err != nil {
		return err
	}

	p.timer = time.AfterFunc(clip.Duration, func() {
		p.end(gen, tts.PlaybackFinished, nil)
	})
	p.stopCtx = context.AfterFunc(ctx, func() {
		p.end(gen, tts.PlaybackStopped, nil)
	})
	return nil
}

// Stop ends the current clip early.
func (p *SilentPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.release()
	p.stop()
	return nil
}

// IsPlaying reports whether a clip is in progress.
func (p *SilentPlayer) IsPlaying() bool { return p.isPlaying() }

// Events returns the playback event channel. It is closed by Close.
func (p *SilentPlayer) Events() <-chan tts.PlaybackEvent { return p.events }

// Close stops playback. Further calls to Play fail with ErrPlayerClosed.
func (p *SilentPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.release()
	p.close()
	return nil
}

// release must be called with p.mu held.
func (p *SilentPlayer) release() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.stopCtx != nil {
		p.stopCtx()
		p.stopCtx = nil
	}
}

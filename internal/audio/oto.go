//go:build !nocgo && (cgo || darwin || windows)
// +build !nocgo
// +build cgo darwin windows

package audio

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"

	"github.com/nosabos/nosabos/tts"
)

// oto allows a single context per process.
var (
	otoOnce    sync.Once
	otoContext *oto.Context
	otoRate    int
	otoErr     error
)

const (
	readyTimeout = 5 * time.Second
	pollInterval = 10 * time.Millisecond
)

func sharedContext(sampleRate int) (*oto.Context, int, error) {
	otoOnce.Do(func() {
		opts := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: 1,
			Format:       oto.FormatSignedInt16LE,
		}
		// macOS benefits from larger buffers
		switch runtime.GOOS {
		case "darwin":
			opts.BufferSize = 100 * time.Millisecond
		case "windows":
			opts.BufferSize = 80 * time.Millisecond
		default:
			opts.BufferSize = 50 * time.Millisecond
		}

		ctx, ready, err := oto.NewContext(opts)
		if err != nil {
			otoErr = fmt.Errorf("%w: %w", tts.ErrAudioUnavailable, err)
			return
		}
		select {
		case <-ready:
			otoContext, otoRate = ctx, sampleRate
		case <-time.After(readyTimeout):
			otoErr = fmt.Errorf("%w: device not ready after %v", tts.ErrAudioUnavailable, readyTimeout)
		}
	})
	return otoContext, otoRate, otoErr
}

// OtoPlayer plays mono 16-bit PCM on the default sound device.
type OtoPlayer struct {
	*session

	ctx    *oto.Context
	rate   int
	logger *log.Logger

	mu      sync.Mutex
	current *oto.Player
	data    []byte // referenced until playback ends
	cancel  context.CancelFunc
}

var _ tts.AudioPlayer = (*OtoPlayer)(nil)

// NewOtoPlayer opens the sound device at sampleRate. Clips at other rates
// are resampled.
func NewOtoPlayer(sampleRate int, logger *log.Logger) (*OtoPlayer, error) {
	if logger == nil {
		logger = log.Default()
	}
	ctx, rate, err := sharedContext(sampleRate)
	if err != nil {
		return nil, err
	}
	if rate != sampleRate {
		logger.Debug("Audio device already open", "rate", rate, "requested", sampleRate)
	}
	return &OtoPlayer{
		session: newSession(),
		ctx:     ctx,
		rate:    rate,
		logger:  logger,
	}, nil
}

// Play starts clip, replacing any clip in progress. Canceling ctx stops
// playback.
func (p *OtoPlayer) Play(ctx context.Context, clip *tts.Audio) error {
	if clip == nil || len(clip.Data) == 0 {
		return tts.ErrNothingToPlay
	}

	data := Downmix(clip.Data, clip.Channels)
	if clip.SampleRate != p.rate {
		data = Resample(data, clip.SampleRate, p.rate)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.release()
	gen, _, err := p.begin()
	if err != nil {
		return err
	}

	player := p.ctx.NewPlayer(bytes.NewReader(data))
	player.Play()

	watchCtx, cancel := context.WithCancel(ctx)
	p.current, p.data, p.cancel = player, data, cancel
	go p.watch(watchCtx, gen, player)

	p.logger.Debug("Playback started", "bytes", len(data), "duration", clip.Duration)
	return nil
}

// watch waits for the clip to drain or ctx to end. oto has no completion
// callback, so the player is polled.
func (p *OtoPlayer) watch(ctx context.Context, gen uint64, player *oto.Player) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if p.end(gen, tts.PlaybackStopped, nil) {
				p.mu.Lock()
				if p.current == player {
					p.release()
				}
				p.mu.Unlock()
			}
			return
		case <-ticker.C:
			if player.IsPlaying() {
				continue
			}
			if err := player.Err(); err != nil {
				p.end(gen, tts.PlaybackFailed, err)
			} else {
				p.end(gen, tts.PlaybackFinished, nil)
			}
			p.mu.Lock()
			if p.current == player {
				p.release()
			}
			p.mu.Unlock()
			return
		}
	}
}

// Stop halts the current clip.
func (p *OtoPlayer) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stop()
	p.release()
	return nil
}

// IsPlaying reports whether a clip is in progress.
func (p *OtoPlayer) IsPlaying() bool { return p.isPlaying() }

// Events returns the playback event channel. It is closed by Close.
func (p *OtoPlayer) Events() <-chan tts.PlaybackEvent { return p.events }

// Close stops playback. The shared device stays open for the process.
func (p *OtoPlayer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.close()
	p.release()
	return nil
}

// release must be called with p.mu held.
func (p *OtoPlayer) release() {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	if p.current != nil {
		p.current.Pause()
		if err := p.current.Close(); err != nil {
			p.logger.Debug("Closing player failed", "err", err)
		}
		p.current = nil
	}
	p.data = nil
}

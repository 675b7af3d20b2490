package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/nosabos/nosabos/tts"
)

func clipOf(d time.Duration) *tts.Audio {
	return &tts.Audio{Data: []byte{0, 0}, SampleRate: 24000, Channels: 1, Duration: d}
}

func nextEvent(t *testing.T, p tts.AudioPlayer) tts.PlaybackEvent {
	t.Helper()
	select {
	case ev := <-p.Events():
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a playback event")
		return tts.PlaybackEvent{}
	}
}

func expectEvents(t *testing.T, p tts.AudioPlayer, want ...tts.PlaybackEventType) {
	t.Helper()
	for _, typ := range want {
		if ev := nextEvent(t, p); ev.Type != typ {
			t.Fatalf("event = %v, want %v", ev.Type, typ)
		}
	}
}

func TestSilentPlayerFinishes(t *testing.T) {
	p := NewSilentPlayer()
	defer p.Close() //nolint:errcheck

	if err := p.Play(context.Background(), clipOf(20*time.Millisecond)); err != nil {
		t.Fatal(err)
	}
	if !p.IsPlaying() {
		t.Error("IsPlaying() = false right after Play")
	}
	expectEvents(t, p, tts.PlaybackStarted, tts.PlaybackFinished)
	if p.IsPlaying() {
		t.Error("IsPlaying() = true after the clip finished")
	}
}

func TestSilentPlayerStop(t *testing.T) {
	p := NewSilentPlayer()
	defer p.Close() //nolint:errcheck

	_ = p.Play(context.Background(), clipOf(time.Hour))
	_ = p.Stop()
	expectEvents(t, p, tts.PlaybackStarted, tts.PlaybackStopped)

	// Stopping again is a no-op.
	_ = p.Stop()
	select {
	case ev := <-p.Events():
		t.Errorf("unexpected event %v", ev.Type)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestSilentPlayerReplace(t *testing.T) {
	p := NewSilentPlayer()
	defer p.Close() //nolint:errcheck

	_ = p.Play(context.Background(), clipOf(time.Hour))
	_ = p.Play(context.Background(), clipOf(10*time.Millisecond))
	expectEvents(t, p,
		tts.PlaybackStarted,
		tts.PlaybackStopped,
		tts.PlaybackStarted,
		tts.PlaybackFinished,
	)
}

func TestSilentPlayerContextCancel(t *testing.T) {
	p := NewSilentPlayer()
	defer p.Close() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	_ = p.Play(ctx, clipOf(time.Hour))
	cancel()
	expectEvents(t, p, tts.PlaybackStarted, tts.PlaybackStopped)
}

func TestSilentPlayerClose(t *testing.T) {
	p := NewSilentPlayer()
	_ = p.Play(context.Background(), clipOf(time.Hour))
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	expectEvents(t, p, tts.PlaybackStarted, tts.PlaybackStopped)
	if _, ok := <-p.Events(); ok {
		t.Error("event channel should be closed")
	}

	if err := p.Play(context.Background(), clipOf(time.Second)); !errors.Is(err, tts.ErrPlayerClosed) {
		t.Errorf("Play after Close error = %v", err)
	}
	if err := p.Close(); err != nil {
		t.Errorf("second Close error = %v", err)
	}
}

func TestSilentPlayerNothingToPlay(t *testing.T) {
	p := NewSilentPlayer()
	defer p.Close() //nolint:errcheck

	for _, clip := range []*tts.Audio{nil, {SampleRate: 24000}} {
		if err := p.Play(context.Background(), clip); !errors.Is(err, tts.ErrNothingToPlay) {
			t.Errorf("Play(%v) error = %v", clip, err)
		}
	}
}

func TestNewDisabled(t *testing.T) {
	p := New(tts.AudioConfig{Enabled: false, SampleRate: 24000}, nil)
	defer p.Close() //nolint:errcheck
	if _, ok := p.(*SilentPlayer); !ok {
		t.Errorf("New() = %T, want *SilentPlayer", p)
	}
}

func samples(vals ...int16) []byte {
	out := make([]byte, 0, 2*len(vals))
	for _, v := range vals {
		out = binary.LittleEndian.AppendUint16(out, uint16(v))
	}
	return out
}

func decode(pcm []byte) []int16 {
	out := make([]int16, len(pcm)/2)
	for i := range out {
		out[i] = int16(binary.LittleEndian.Uint16(pcm[2*i:]))
	}
	return out
}

func TestDownmix(t *testing.T) {
	got := decode(Downmix(samples(100, 300, -200, -400), 2))
	if len(got) != 2 || got[0] != 200 || got[1] != -300 {
		t.Errorf("Downmix() = %v", got)
	}

	mono := samples(1, 2, 3)
	if d := Downmix(mono, 1); &d[0] != &mono[0] {
		t.Error("mono input should be returned unchanged")
	}
}

func TestResample(t *testing.T) {
	in := samples(0, 100, 200, 300)

	up := decode(Resample(in, 1, 2))
	want := []int16{0, 50, 100, 150, 200, 250, 300, 300}
	if len(up) != len(want) {
		t.Fatalf("Resample up = %v", up)
	}
	for i := range want {
		if up[i] != want[i] {
			t.Errorf("Resample up = %v, want %v", up, want)
			break
		}
	}

	down := decode(Resample(in, 2, 1))
	if len(down) != 2 || down[0] != 0 || down[1] != 200 {
		t.Errorf("Resample down = %v", down)
	}

	if got := Resample(in, 24000, 24000); len(got) != len(in) {
		t.Error("same rate should be a no-op")
	}
}

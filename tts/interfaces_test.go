package tts_test

import (
	"testing"
	"time"

	"github.com/nosabos/nosabos/internal/audio"
	"github.com/nosabos/nosabos/tts"
)

// Compile-time checks that the players satisfy AudioPlayer.
var _ tts.AudioPlayer = (*audio.SilentPlayer)(nil)

func TestPCMDuration(t *testing.T) {
	tests := []struct {
		name       string
		n          int
		sampleRate int
		channels   int
		want       time.Duration
	}{
		{name: "one second mono", n: 48000, sampleRate: 24000, channels: 1, want: time.Second},
		{name: "one second stereo", n: 96000, sampleRate: 24000, channels: 2, want: time.Second},
		{name: "half second", n: 24000, sampleRate: 24000, channels: 1, want: 500 * time.Millisecond},
		{name: "odd byte ignored", n: 3, sampleRate: 1000, channels: 1, want: time.Millisecond},
		{name: "no rate", n: 48000, sampleRate: 0, channels: 1, want: 0},
		{name: "no channels", n: 48000, sampleRate: 24000, channels: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tts.PCMDuration(tt.n, tt.sampleRate, tt.channels); got != tt.want {
				t.Errorf("PCMDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewPCMAudio(t *testing.T) {
	a := tts.NewPCMAudio(make([]byte, 4800), 24000, 0)
	if a.Channels != 1 {
		t.Errorf("Channels = %d, want 1", a.Channels)
	}
	if a.Duration != 100*time.Millisecond {
		t.Errorf("Duration = %v, want 100ms", a.Duration)
	}
}

func TestPlaybackEvent(t *testing.T) {
	tests := []struct {
		typ    tts.PlaybackEventType
		name   string
		active bool
	}{
		{tts.PlaybackStarted, "started", true},
		{tts.PlaybackFinished, "finished", false},
		{tts.PlaybackStopped, "stopped", false},
		{tts.PlaybackFailed, "failed", false},
		{tts.PlaybackEventType(42), "unknown", false},
	}

	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.name {
			t.Errorf("String() = %q, want %q", got, tt.name)
		}
		if got := (tts.PlaybackEvent{Type: tt.typ}).Active(); got != tt.active {
			t.Errorf("%s: Active() = %v, want %v", tt.name, got, tt.active)
		}
	}
}

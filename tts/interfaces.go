package tts

import (
	"context"
	"time"
)

// TextGenerator produces text from a prompt, e.g. lesson sentences or
// explanations.
type TextGenerator interface {
	GenerateText(ctx context.Context, req TextRequest) (string, error)
}

// SpeechGenerator synthesizes speech audio for a piece of text.
type SpeechGenerator interface {
	GenerateSpeech(ctx context.Context, req SpeechRequest) (*Audio, error)
}

// Generator is a backend able to produce both text and speech.
type Generator interface {
	TextGenerator
	SpeechGenerator
}

// AudioPlayer plays generated speech and reports playback transitions on its
// event channel. Those transitions drive the word pacer.
type AudioPlayer interface {
	// Play starts playing clip. It returns once playback has been handed to
	// the output device; completion is reported as an event.
	Play(ctx context.Context, clip *Audio) error

	// Stop halts playback. A PlaybackStopped event follows if audio was
	// playing.
	Stop() error

	// IsPlaying returns true while audio is being output.
	IsPlaying() bool

	// Events returns the channel playback events are delivered on.
	Events() <-chan PlaybackEvent

	// Close stops playback and releases the output device.
	Close() error
}

// TextRequest asks for generated text.
type TextRequest struct {
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
}

// SpeechRequest asks for synthesized speech.
type SpeechRequest struct {
	Text     string `json:"text"`
	Voice    string `json:"voice,omitempty"`
	Language string `json:"language,omitempty"`
}

// Audio is a clip of 16-bit little-endian PCM.
type Audio struct {
	Data       []byte        // Raw PCM samples
	SampleRate int           // Sample rate in Hz
	Channels   int           // Number of audio channels
	Duration   time.Duration // Duration of the clip
}

// NewPCMAudio wraps 16-bit PCM data and computes its duration.
func NewPCMAudio(data []byte, sampleRate, channels int) *Audio {
	if channels <= 0 {
		channels = 1
	}
	return &Audio{
		Data:       data,
		SampleRate: sampleRate,
		Channels:   channels,
		Duration:   PCMDuration(len(data), sampleRate, channels),
	}
}

// PCMDuration returns how long n bytes of 16-bit PCM last.
func PCMDuration(n, sampleRate, channels int) time.Duration {
	if sampleRate <= 0 || channels <= 0 {
		return 0
	}
	frames := n / (2 * channels)
	return time.Duration(frames) * time.Second / time.Duration(sampleRate)
}

// PlaybackEventType is the kind of playback transition.
type PlaybackEventType int

const (
	// PlaybackStarted is sent when audio starts coming out of the device.
	PlaybackStarted PlaybackEventType = iota
	// PlaybackFinished is sent when a clip plays to the end.
	PlaybackFinished
	// PlaybackStopped is sent when playback is stopped early.
	PlaybackStopped
	// PlaybackFailed is sent when the device fails mid-clip.
	PlaybackFailed
)

// String returns the string representation of the event type.
func (t PlaybackEventType) String() string {
	switch t {
	case PlaybackStarted:
		return "started"
	case PlaybackFinished:
		return "finished"
	case PlaybackStopped:
		return "stopped"
	case PlaybackFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// PlaybackEvent is a playback transition.
type PlaybackEvent struct {
	Type PlaybackEventType
	Err  error
}

// Active reports whether audio is playing after this event.
func (e PlaybackEvent) Active() bool {
	return e.Type == PlaybackStarted
}

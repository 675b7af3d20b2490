//go:build nocgo || (!cgo && !darwin && !windows)
// +build nocgo !cgo,!darwin,!windows

package audio

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/nosabos/nosabos/tts"
)

// OtoPlayer is unavailable in builds without a sound backend: Linux and
// the BSDs need cgo for ALSA.
type OtoPlayer struct{ *session }

// NewOtoPlayer always fails with tts.ErrAudioUnavailable.
func NewOtoPlayer(int, *log.Logger) (*OtoPlayer, error) {
	return nil, tts.ErrAudioUnavailable
}

func (p *OtoPlayer) Play(context.Context, *tts.Audio) error { return tts.ErrAudioUnavailable }
func (p *OtoPlayer) Stop() error                            { return nil }
func (p *OtoPlayer) IsPlaying() bool                        { return false }
func (p *OtoPlayer) Events() <-chan tts.PlaybackEvent       { return nil }
func (p *OtoPlayer) Close() error                           { return nil }

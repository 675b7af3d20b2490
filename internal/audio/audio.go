package audio

import (
	"github.com/charmbracelet/log"

	"github.com/nosabos/nosabos/tts"
)

// New returns the player described by cfg. When the sound device cannot be
// opened it logs a warning and falls back to a SilentPlayer, so words are
// still highlighted.
func New(cfg tts.AudioConfig, logger *log.Logger) tts.AudioPlayer {
	if logger == nil {
		logger = log.Default()
	}
	if !cfg.Enabled {
		return NewSilentPlayer()
	}

	p, err := NewOtoPlayer(cfg.SampleRate, logger)
	if err != nil {
		logger.Warn("Audio output unavailable, playing silently", "err", err)
		return NewSilentPlayer()
	}
	return p
}

package ui

import "time"

// Config contains TUI-specific configuration.
type Config struct {
	// Lesson file, empty when the text was given directly
	Path  string
	Title string
	Text  string

	Language string
	Voice    string

	AutoPlay    bool
	Watch       bool
	EnableMouse bool

	HighlightColor string        `env:"NOSABOS_HIGHLIGHT_COLOR"`
	MaxWidth       uint          `env:"NOSABOS_MAX_WIDTH" envDefault:"100"`
	FrameInterval  time.Duration

	// For debugging the UI
	ShowIndex bool `env:"NOSABOS_SHOW_INDEX"`
}

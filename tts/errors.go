package tts

import (
	"errors"
	"time"
)

// Common errors for speech generation and playback.
var (
	// Generation errors
	ErrEmptyText     = errors.New("text is empty")
	ErrTextTooLong   = errors.New("text is too long")
	ErrMissingAPIKey = errors.New("generative AI API key is not configured")
	ErrUpstream      = errors.New("generative AI API request failed")
	ErrRateLimited   = errors.New("generative AI API rate limit reached")
	ErrNoAudio       = errors.New("response contained no audio")
	ErrNoText        = errors.New("response contained no text")

	// Player errors
	ErrPlayerClosed     = errors.New("audio player is closed")
	ErrNothingToPlay    = errors.New("no audio to play")
	ErrAudioUnavailable = errors.New("audio output is not available")

	// Configuration errors
	ErrInvalidConfig = errors.New("invalid configuration")

	// State errors
	ErrStateTransition = errors.New("invalid state transition")
)

// IsRecoverableError checks if an error is recoverable.
func IsRecoverableError(err error) bool {
	if err == nil {
		return true
	}

	switch {
	case errors.Is(err, ErrMissingAPIKey),
		errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrAudioUnavailable),
		errors.Is(err, ErrPlayerClosed):
		return false
	}

	return true
}

// ErrorSeverity represents the severity of an error.
type ErrorSeverity int

const (
	// SeverityWarning is for errors that don't prevent operation.
	SeverityWarning ErrorSeverity = iota
	// SeverityError is for errors that prevent the current action.
	SeverityError
	// SeverityCritical is for errors that prevent any further work.
	SeverityCritical
)

// String returns the string representation of the severity.
func (s ErrorSeverity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// TTSError adds the component and action to an error.
type TTSError struct {
	Err       error          // The underlying error
	Component string         // Component that generated the error
	Action    string         // Action being performed when the error occurred
	Severity  ErrorSeverity  // Severity of the error
	Timestamp time.Time      // When the error occurred
	Context   map[string]any // Additional context
}

// Error implements the error interface.
func (e *TTSError) Error() string {
	if e.Err == nil {
		return "unknown TTS error"
	}
	if e.Component == "" {
		return e.Err.Error()
	}
	if e.Action == "" {
		return e.Component + ": " + e.Err.Error()
	}
	return e.Component + ": " + e.Action + ": " + e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *TTSError) Unwrap() error {
	return e.Err
}

// IsRecoverable checks if the error is recoverable.
func (e *TTSError) IsRecoverable() bool {
	return e.Severity != SeverityCritical && IsRecoverableError(e.Err)
}

// NewTTSError creates a new TTS error with context.
func NewTTSError(err error, component, action string) *TTSError {
	return &TTSError{
		Err:       err,
		Component: component,
		Action:    action,
		Severity:  SeverityError,
		Timestamp: time.Now(),
		Context:   make(map[string]any),
	}
}

// WithSeverity sets the error severity.
func (e *TTSError) WithSeverity(severity ErrorSeverity) *TTSError {
	e.Severity = severity
	return e
}

// WithContext adds context to the error.
func (e *TTSError) WithContext(key string, value any) *TTSError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

package genai

import (
	"errors"
	"net/http"

	"github.com/nosabos/nosabos/tts"
)

// Error codes carried in ErrorResponse.Code.
const (
	CodeBadRequest    = "bad_request"
	CodeEmptyText     = "empty_text"
	CodeTextTooLong   = "text_too_long"
	CodeRateLimited   = "rate_limited"
	CodeMissingAPIKey = "missing_api_key"
	CodeNoAudio       = "no_audio"
	CodeNoText        = "no_text"
	CodeUpstream      = "upstream"
	CodeInternal      = "internal"
)

var codeErrors = map[string]error{
	CodeEmptyText:     tts.ErrEmptyText,
	CodeTextTooLong:   tts.ErrTextTooLong,
	CodeRateLimited:   tts.ErrRateLimited,
	CodeMissingAPIKey: tts.ErrMissingAPIKey,
	CodeNoAudio:       tts.ErrNoAudio,
	CodeNoText:        tts.ErrNoText,
	CodeUpstream:      tts.ErrUpstream,
}

// Classify maps a generation error to an HTTP status and error code.
func Classify(err error) (int, string) {
	switch {
	case errors.Is(err, tts.ErrEmptyText):
		return http.StatusBadRequest, CodeEmptyText
	case errors.Is(err, tts.ErrTextTooLong):
		return http.StatusBadRequest, CodeTextTooLong
	case errors.Is(err, tts.ErrRateLimited):
		return http.StatusTooManyRequests, CodeRateLimited
	case errors.Is(err, tts.ErrMissingAPIKey):
		return http.StatusInternalServerError, CodeMissingAPIKey
	case errors.Is(err, tts.ErrNoAudio):
		return http.StatusBadGateway, CodeNoAudio
	case errors.Is(err, tts.ErrNoText):
		return http.StatusBadGateway, CodeNoText
	case errors.Is(err, tts.ErrUpstream):
		return http.StatusBadGateway, CodeUpstream
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

// ErrorForCode returns the sentinel error for code, falling back to
// ErrUpstream.
func ErrorForCode(code string) error {
	if err, ok := codeErrors[code]; ok {
		return err
	}
	return tts.ErrUpstream
}

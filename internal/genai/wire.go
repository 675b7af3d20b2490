package genai

import (
	"mime"
	"strconv"
	"strings"
)

// Request and response bodies of the generateContent endpoint.

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

type generationConfig struct {
	ResponseModalities []string      `json:"responseModalities,omitempty"`
	SpeechConfig       *speechConfig `json:"speechConfig,omitempty"`
}

type speechConfig struct {
	VoiceConfig  voiceConfig `json:"voiceConfig"`
	LanguageCode string      `json:"languageCode,omitempty"`
}

type voiceConfig struct {
	PrebuiltVoiceConfig prebuiltVoiceConfig `json:"prebuiltVoiceConfig"`
}

type prebuiltVoiceConfig struct {
	VoiceName string `json:"voiceName"`
}

type generateResponse struct {
	Candidates []struct {
		Content      content `json:"content"`
		FinishReason string  `json:"finishReason"`
	} `json:"candidates"`
}

type apiError struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error"`
}

// Bodies exchanged between ProxyClient and the nosabos proxy server.

// TextResponse is returned by POST /api/generate-text.
type TextResponse struct {
	Text string `json:"text"`
}

// SpeechResponse is returned by POST /api/generate-speech.
type SpeechResponse struct {
	Audio      string `json:"audio"` // base64 16-bit PCM
	SampleRate int    `json:"sampleRate"`
	Channels   int    `json:"channels"`
	DurationMs int64  `json:"durationMs"`
	MimeType   string `json:"mimeType"`
}

// ErrorResponse is returned by the proxy for any failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

// DefaultSampleRate is used when the upstream mime type carries no rate.
const DefaultSampleRate = 24000

// SampleRate extracts the rate parameter from a PCM mime type such as
// "audio/L16;codec=pcm;rate=24000".
func SampleRate(mimeType string) int {
	_, params, err := mime.ParseMediaType(mimeType)
	if err == nil {
		if r, err := strconv.Atoi(params["rate"]); err == nil && r > 0 {
			return r
		}
		return DefaultSampleRate
	}

	// Be lenient with malformed parameter lists.
	for _, p := range strings.Split(mimeType, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(p), "=")
		if ok && strings.EqualFold(k, "rate") {
			if r, err := strconv.Atoi(v); err == nil && r > 0 {
				return r
			}
		}
	}
	return DefaultSampleRate
}

// PCMMimeType builds the mime type describing 16-bit PCM at rate.
func PCMMimeType(rate int) string {
	return "audio/L16;codec=pcm;rate=" + strconv.Itoa(rate)
}

package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nosabos/nosabos/tts"
)

func TestProxyClientSpeech(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate-speech" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req tts.SpeechRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Text != "hola" || req.Voice != "Puck" {
			t.Errorf("request = %+v", req)
		}
		_ = json.NewEncoder(w).Encode(SpeechResponse{
			Audio:      base64.StdEncoding.EncodeToString(make([]byte, 3200)),
			SampleRate: 16000,
			Channels:   1,
			DurationMs: 100,
			MimeType:   PCMMimeType(16000),
		})
	}))
	defer srv.Close()

	clip, err := NewProxyClient(srv.URL+"/", nil).GenerateSpeech(context.Background(), tts.SpeechRequest{Text: "hola", Voice: "Puck"})
	if err != nil {
		t.Fatal(err)
	}
	if clip.SampleRate != 16000 || clip.Duration != 100*time.Millisecond {
		t.Errorf("clip = %d Hz, %v", clip.SampleRate, clip.Duration)
	}
}

func TestProxyClientText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(TextResponse{Text: "Buenas noches"})
	}))
	defer srv.Close()

	text, err := NewProxyClient(srv.URL, nil).GenerateText(context.Background(), tts.TextRequest{Prompt: "say good night"})
	if err != nil || text != "Buenas noches" {
		t.Errorf("GenerateText() = %q, %v", text, err)
	}
}

func TestProxyClientErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    any
		wantErr error
	}{
		{"rate limited", http.StatusTooManyRequests, ErrorResponse{Error: "slow down", Code: CodeRateLimited}, tts.ErrRateLimited},
		{"too long", http.StatusBadRequest, ErrorResponse{Error: "text is too long", Code: CodeTextTooLong}, tts.ErrTextTooLong},
		{"missing key", http.StatusInternalServerError, ErrorResponse{Error: "no key", Code: CodeMissingAPIKey}, tts.ErrMissingAPIKey},
		{"unknown body", http.StatusBadGateway, "not json", tts.ErrUpstream},
		{"empty audio", http.StatusOK, SpeechResponse{SampleRate: 24000}, tts.ErrNoAudio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_ = json.NewEncoder(w).Encode(tt.body)
			}))
			defer srv.Close()

			_, err := NewProxyClient(srv.URL, nil).GenerateSpeech(context.Background(), tts.SpeechRequest{Text: "hola"})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

package proxy

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/nosabos/nosabos/internal/genai"
	"github.com/nosabos/nosabos/tts"
)

type fakeGenerator struct {
	err      error
	lastText tts.TextRequest
	lastTTS  tts.SpeechRequest
}

func (f *fakeGenerator) GenerateText(_ context.Context, req tts.TextRequest) (string, error) {
	f.lastText = req
	if f.err != nil {
		return "", f.err
	}
	return "respuesta: " + req.Prompt, nil
}

func (f *fakeGenerator) GenerateSpeech(_ context.Context, req tts.SpeechRequest) (*tts.Audio, error) {
	f.lastTTS = req
	if f.err != nil {
		return nil, f.err
	}
	return tts.NewPCMAudio(make([]byte, 4800), 24000, 1), nil
}

func newTestServer(gen tts.Generator, origins ...string) *httptest.Server {
	s := New(Config{AllowedOrigins: origins}, gen, log.New(io.Discard))
	return httptest.NewServer(s.Handler())
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	res, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func TestGenerateSpeechHandler(t *testing.T) {
	gen := &fakeGenerator{}
	srv := newTestServer(gen)
	defer srv.Close()

	res := post(t, srv.URL+"/api/generate-speech", `{"text":"hola mundo","voice":"Puck","language":"es"}`)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	if res.Header.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", res.Header.Get("Content-Type"))
	}

	var out genai.SpeechResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	pcm, err := base64.StdEncoding.DecodeString(out.Audio)
	if err != nil || len(pcm) != 4800 {
		t.Errorf("audio = %d bytes, %v", len(pcm), err)
	}
	if out.SampleRate != 24000 || out.Channels != 1 || out.DurationMs != 100 {
		t.Errorf("response = %+v", out)
	}
	if out.MimeType != "audio/L16;codec=pcm;rate=24000" {
		t.Errorf("MimeType = %q", out.MimeType)
	}
	if gen.lastTTS != (tts.SpeechRequest{Text: "hola mundo", Voice: "Puck", Language: "es"}) {
		t.Errorf("generator saw %+v", gen.lastTTS)
	}
}

func TestGenerateTextHandler(t *testing.T) {
	gen := &fakeGenerator{}
	srv := newTestServer(gen)
	defer srv.Close()

	res := post(t, srv.URL+"/api/generate-text", `{"prompt":"hola","system":"tutor"}`)
	var out genai.TextResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	if out.Text != "respuesta: hola" || gen.lastText.System != "tutor" {
		t.Errorf("text = %q, request = %+v", out.Text, gen.lastText)
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		body   string
		status int
		code   string
	}{
		{"invalid json", nil, `{"text":`, http.StatusBadRequest, genai.CodeBadRequest},
		{"unknown field", nil, `{"txt":"hola"}`, http.StatusBadRequest, genai.CodeBadRequest},
		{"empty text", tts.ErrEmptyText, `{"text":""}`, http.StatusBadRequest, genai.CodeEmptyText},
		{"too long", fmt.Errorf("%w: 6000 characters", tts.ErrTextTooLong), `{"text":"x"}`, http.StatusBadRequest, genai.CodeTextTooLong},
		{"rate limited", tts.ErrRateLimited, `{"text":"x"}`, http.StatusTooManyRequests, genai.CodeRateLimited},
		{"missing key", tts.ErrMissingAPIKey, `{"text":"x"}`, http.StatusInternalServerError, genai.CodeMissingAPIKey},
		{"upstream", fmt.Errorf("%w: status 503", tts.ErrUpstream), `{"text":"x"}`, http.StatusBadGateway, genai.CodeUpstream},
		{"unexpected", errors.New("disk on fire"), `{"text":"x"}`, http.StatusInternalServerError, genai.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(&fakeGenerator{err: tt.err})
			defer srv.Close()

			res := post(t, srv.URL+"/api/generate-speech", tt.body)
			if res.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", res.StatusCode, tt.status)
			}
			var out genai.ErrorResponse
			if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
				t.Fatal(err)
			}
			if out.Code != tt.code {
				t.Errorf("code = %q, want %q", out.Code, tt.code)
			}
			if out.RequestID == "" || out.RequestID != res.Header.Get(RequestIDHeader) {
				t.Errorf("requestId = %q, header = %q", out.RequestID, res.Header.Get(RequestIDHeader))
			}
			if strings.Contains(out.Error, "disk on fire") {
				t.Error("internal error details leaked")
			}
		})
	}
}

func TestBodyLimit(t *testing.T) {
	srv := newTestServer(&fakeGenerator{})
	defer srv.Close()

	body := `{"text":"` + strings.Repeat("a", MaxBodySize) + `"}`
	res := post(t, srv.URL+"/api/generate-speech", body)
	if res.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", res.StatusCode)
	}
}

func TestRequestID(t *testing.T) {
	srv := newTestServer(&fakeGenerator{})
	defer srv.Close()

	res, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if _, err := uuid.Parse(res.Header.Get(RequestIDHeader)); err != nil {
		t.Errorf("generated request ID is not a UUID: %v", err)
	}

	id := uuid.NewString()
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	res, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.Header.Get(RequestIDHeader) != id {
		t.Errorf("request ID = %q, want client supplied %q", res.Header.Get(RequestIDHeader), id)
	}
}

func TestCORS(t *testing.T) {
	srv := newTestServer(&fakeGenerator{}, "https://nosabos.app")
	defer srv.Close()

	tests := []struct {
		origin string
		want   string
	}{
		{"https://nosabos.app", "https://nosabos.app"},
		{"https://evil.example", ""},
	}
	for _, tt := range tests {
		req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/generate-speech", nil)
		req.Header.Set("Origin", tt.origin)
		res, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		res.Body.Close()
		if res.StatusCode != http.StatusNoContent {
			t.Errorf("preflight status = %d", res.StatusCode)
		}
		if got := res.Header.Get("Access-Control-Allow-Origin"); got != tt.want {
			t.Errorf("Allow-Origin for %s = %q, want %q", tt.origin, got, tt.want)
		}
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(&fakeGenerator{})
	defer srv.Close()

	res, err := http.Get(srv.URL + "/api/generate-speech")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", res.StatusCode)
	}
}

func TestServeShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	s := New(Config{}, &fakeGenerator{}, log.New(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	res, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	res.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

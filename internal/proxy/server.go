// Package proxy serves text and speech generation over HTTP so browser
// and CLI clients never hold the model API key.
package proxy

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/charmbracelet/log"

	"github.com/nosabos/nosabos/internal/genai"
	"github.com/nosabos/nosabos/tts"
)

// MaxBodySize bounds request bodies.
const MaxBodySize = 1 << 20

const shutdownTimeout = 10 * time.Second

// Config configures a Server.
type Config struct {
	Addr           string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
}

// ConfigFrom converts the application configuration.
func ConfigFrom(c tts.ProxyConfig) Config {
	return Config{
		Addr:           c.Addr,
		AllowedOrigins: c.AllowedOrigins,
		ReadTimeout:    c.ReadTimeout,
		WriteTimeout:   c.WriteTimeout,
	}
}

// Server is the generation proxy.
type Server struct {
	cfg    Config
	gen    tts.Generator
	logger *log.Logger
	server *http.Server
}

// New returns a server answering with gen.
func New(cfg Config, gen tts.Generator, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	s := &Server{cfg: cfg, gen: gen, logger: logger}
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
	}
	return s
}

// Handler returns the routed handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/generate-text", s.handleText)
	mux.HandleFunc("POST /api/generate-speech", s.handleSpeech)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	var h http.Handler = mux
	h = withBodyLimit(MaxBodySize, h)
	h = withCORS(s.cfg.AllowedOrigins, h)
	h = withLogging(s.logger, h)
	h = withRequestID(h)
	return h
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info("Proxy listening", "addr", ln.Addr().String())

	errc := make(chan error, 1)
	go func() { errc <- s.server.Serve(ln) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down proxy")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleText(w http.ResponseWriter, r *http.Request) {
	var req tts.TextRequest
	if !s.decode(w, r, &req) {
		return
	}

	text, err := s.gen.GenerateText(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.reply(w, http.StatusOK, genai.TextResponse{Text: text})
}

func (s *Server) handleSpeech(w http.ResponseWriter, r *http.Request) {
	var req tts.SpeechRequest
	if !s.decode(w, r, &req) {
		return
	}

	clip, err := s.gen.GenerateSpeech(r.Context(), req)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.reply(w, http.StatusOK, genai.SpeechResponse{
		Audio:      base64.StdEncoding.EncodeToString(clip.Data),
		SampleRate: clip.SampleRate,
		Channels:   clip.Channels,
		DurationMs: clip.Duration.Milliseconds(),
		MimeType:   genai.PCMMimeType(clip.SampleRate),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.reply(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		msg := "invalid JSON body"
		status := http.StatusBadRequest
		if errors.As(err, &tooLarge) {
			msg = "request body too large"
			status = http.StatusRequestEntityTooLarge
		}
		s.reply(w, status, genai.ErrorResponse{
			Error:     msg,
			Code:      genai.CodeBadRequest,
			RequestID: RequestID(r.Context()),
		})
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, code := genai.Classify(err)
	id := RequestID(r.Context())
	if status >= http.StatusInternalServerError {
		s.logger.Error("Generation failed", "path", r.URL.Path, "code", code, "err", err, "requestId", id)
	}

	msg := err.Error()
	if code == genai.CodeInternal {
		msg = "internal error"
	}
	s.reply(w, status, genai.ErrorResponse{Error: msg, Code: code, RequestID: id})
}

func (s *Server) reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("Writing response failed", "err", err)
	}
}

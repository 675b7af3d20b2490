// Package genai talks to a hosted generative AI API to produce lesson text
// and synthesized speech.
package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/nosabos/nosabos/internal/cache"
	"github.com/nosabos/nosabos/tts"
)

// maxResponseSize bounds upstream bodies. Speech responses carry base64 PCM.
const maxResponseSize = 64 << 20

// Config configures a Client.
type Config struct {
	APIKey            string
	BaseURL           string
	TextModel         string
	SpeechModel       string
	Voice             string // default prebuilt voice
	Timeout           time.Duration
	RequestsPerMinute int
	MaxTextLength     int // in runes
}

// ConfigFrom converts the application configuration.
func ConfigFrom(c tts.GenAIConfig) Config {
	return Config{
		APIKey:            c.APIKey,
		BaseURL:           c.BaseURL,
		TextModel:         c.TextModel,
		SpeechModel:       c.SpeechModel,
		Voice:             c.Voice,
		Timeout:           c.Timeout,
		RequestsPerMinute: c.RequestsPerMinute,
		MaxTextLength:     c.MaxTextLength,
	}
}

// Cache stores generated clips. *cache.Manager satisfies it.
type Cache interface {
	Get(key string) ([]byte, bool)
	Put(key string, value []byte) error
}

// Client calls the generateContent endpoint directly.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	cache   Cache
	logger  *log.Logger
}

var _ tts.Generator = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithCache caches speech clips.
func WithCache(store Cache) Option {
	return func(c *Client) { c.cache = store }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New returns a Client for cfg.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 60
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60), max(1, cfg.RequestsPerMinute/60)),
		logger:  log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GenerateText returns the text of the first candidate for req.
func (c *Client) GenerateText(ctx context.Context, req tts.TextRequest) (text string, err error) {
	if err := c.validate(req.Prompt); err != nil {
		return "", err
	}

	m := tts.StartGeneration(c.logger, "text", c.cfg.TextModel, req.Prompt)
	defer func() { m.EndGeneration(0, false, err) }()

	body := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: req.Prompt}}}},
	}
	if req.System != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: req.System}}}
	}

	resp, err := c.generate(ctx, c.cfg.TextModel, body)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	if len(resp.Candidates) > 0 {
		for _, p := range resp.Candidates[0].Content.Parts {
			sb.WriteString(p.Text)
		}
	}
	text = strings.TrimSpace(sb.String())
	if text == "" {
		return "", tts.ErrNoText
	}
	return text, nil
}

// GenerateSpeech synthesizes req.Text with the requested (or default) voice.
func (c *Client) GenerateSpeech(ctx context.Context, req tts.SpeechRequest) (clip *tts.Audio, err error) {
	if err := c.validate(req.Text); err != nil {
		return nil, err
	}
	voice := req.Voice
	if voice == "" {
		voice = c.cfg.Voice
	}

	m := tts.StartGeneration(c.logger, "speech", c.cfg.SpeechModel, req.Text)
	cacheHit := false
	defer func() {
		n := 0
		if clip != nil {
			n = len(clip.Data)
		}
		m.EndGeneration(n, cacheHit, err)
	}()

	key := speechKey(c.cfg.SpeechModel, voice, req.Language, req.Text)
	if c.cache != nil {
		if data, ok := c.cache.Get(key); ok {
			if clip, err := decodeClip(data); err == nil {
				cacheHit = true
				return clip, nil
			}
			c.logger.Debug("Discarding unreadable cached clip", "key", key)
		}
	}

	body := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: req.Text}}}},
		GenerationConfig: &generationConfig{
			ResponseModalities: []string{"AUDIO"},
			SpeechConfig: &speechConfig{
				VoiceConfig:  voiceConfig{PrebuiltVoiceConfig: prebuiltVoiceConfig{VoiceName: voice}},
				LanguageCode: req.Language,
			},
		},
	}

	resp, err := c.generate(ctx, c.cfg.SpeechModel, body)
	if err != nil {
		return nil, err
	}

	clip, err = audioFromResponse(resp)
	if err != nil {
		return nil, err
	}

	if c.cache != nil {
		if data, err := encodeClip(clip); err == nil {
			if err := c.cache.Put(key, data); err != nil {
				c.logger.Warn("Could not cache clip", "err", err)
			}
		}
	}
	return clip, nil
}

func (c *Client) validate(text string) error {
	if strings.TrimSpace(text) == "" {
		return tts.ErrEmptyText
	}
	if c.cfg.MaxTextLength > 0 && utf8.RuneCountInString(text) > c.cfg.MaxTextLength {
		return fmt.Errorf("%w: %d characters, limit is %d", tts.ErrTextTooLong, utf8.RuneCountInString(text), c.cfg.MaxTextLength)
	}
	if c.cfg.APIKey == "" {
		return tts.ErrMissingAPIKey
	}
	return nil
}

func (c *Client) generate(ctx context.Context, model string, body generateRequest) (*generateResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		// The wait would outlast the deadline.
		return nil, fmt.Errorf("%w: %w", tts.ErrRateLimited, err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.cfg.BaseURL, url.PathEscape(model))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.cfg.APIKey)

	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", tts.ErrUpstream, err)
	}
	defer res.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %w", tts.ErrUpstream, err)
	}
	c.logger.Debug("Upstream response", "model", model, "status", res.StatusCode, "bytes", len(data), "took", time.Since(start))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, upstreamError(res.StatusCode, data)
	}

	var out generateResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("%w: decode response: %w", tts.ErrUpstream, err)
	}
	return &out, nil
}

func upstreamError(status int, body []byte) error {
	msg := http.StatusText(status)
	var ae apiError
	if json.Unmarshal(body, &ae) == nil && ae.Error.Message != "" {
		msg = ae.Error.Message
	}
	if status == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %s", tts.ErrRateLimited, msg)
	}
	return fmt.Errorf("%w: status %d: %s", tts.ErrUpstream, status, msg)
}

func audioFromResponse(resp *generateResponse) (*tts.Audio, error) {
	if len(resp.Candidates) == 0 {
		return nil, tts.ErrNoAudio
	}

	var pcm []byte
	sampleRate := 0
	for _, p := range resp.Candidates[0].Content.Parts {
		if p.InlineData == nil || p.InlineData.Data == "" {
			continue
		}
		chunk, err := base64.StdEncoding.DecodeString(p.InlineData.Data)
		if err != nil {
			return nil, fmt.Errorf("%w: decode audio: %w", tts.ErrUpstream, err)
		}
		if sampleRate == 0 {
			sampleRate = SampleRate(p.InlineData.MimeType)
		}
		pcm = append(pcm, chunk...)
	}
	if len(pcm) == 0 {
		return nil, tts.ErrNoAudio
	}
	return tts.NewPCMAudio(pcm, sampleRate, 1), nil
}

func speechKey(model, voice, language, text string) string {
	return cache.GenerateKey("speech", model, voice, strings.ToLower(language), text)
}

type cachedClip struct {
	SampleRate int
	Channels   int
	Data       []byte
}

func encodeClip(clip *tts.Audio) ([]byte, error) {
	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(cachedClip{
		SampleRate: clip.SampleRate,
		Channels:   clip.Channels,
		Data:       clip.Data,
	})
	return buf.Bytes(), err
}

func decodeClip(data []byte) (*tts.Audio, error) {
	var cc cachedClip
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&cc); err != nil {
		return nil, err
	}
	if len(cc.Data) == 0 {
		return nil, errors.New("empty clip")
	}
	return tts.NewPCMAudio(cc.Data, cc.SampleRate, cc.Channels), nil
}

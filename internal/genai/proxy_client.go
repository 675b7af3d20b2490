package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/nosabos/nosabos/tts"
)

// ProxyClient talks to a running `nosabos serve` instead of the model API,
// so the API key never leaves the server.
type ProxyClient struct {
	baseURL string
	http    *http.Client
}

var _ tts.Generator = (*ProxyClient)(nil)

// NewProxyClient returns a client for the proxy at baseURL. A nil
// httpClient uses a client with a 90 second timeout.
func NewProxyClient(baseURL string, httpClient *http.Client) *ProxyClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 90 * time.Second}
	}
	return &ProxyClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// GenerateText implements tts.TextGenerator.
func (p *ProxyClient) GenerateText(ctx context.Context, req tts.TextRequest) (string, error) {
	var out TextResponse
	if err := p.post(ctx, "/api/generate-text", req, &out); err != nil {
		return "", err
	}
	if out.Text == "" {
		return "", tts.ErrNoText
	}
	return out.Text, nil
}

// GenerateSpeech implements tts.SpeechGenerator.
func (p *ProxyClient) GenerateSpeech(ctx context.Context, req tts.SpeechRequest) (*tts.Audio, error) {
	var out SpeechResponse
	if err := p.post(ctx, "/api/generate-speech", req, &out); err != nil {
		return nil, err
	}

	pcm, err := base64.StdEncoding.DecodeString(out.Audio)
	if err != nil {
		return nil, fmt.Errorf("%w: decode audio: %w", tts.ErrUpstream, err)
	}
	if len(pcm) == 0 {
		return nil, tts.ErrNoAudio
	}

	rate := out.SampleRate
	if rate == 0 {
		rate = SampleRate(out.MimeType)
	}
	return tts.NewPCMAudio(pcm, rate, out.Channels), nil
}

func (p *ProxyClient) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := p.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", tts.ErrUpstream, err)
	}
	defer res.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", tts.ErrUpstream, err)
	}

	if res.StatusCode != http.StatusOK {
		var er ErrorResponse
		if json.Unmarshal(data, &er) != nil || er.Code == "" {
			return fmt.Errorf("%w: proxy returned status %d", tts.ErrUpstream, res.StatusCode)
		}
		return fmt.Errorf("%w: %s", ErrorForCode(er.Code), er.Error)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: decode response: %w", tts.ErrUpstream, err)
	}
	return nil
}

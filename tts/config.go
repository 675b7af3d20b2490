package tts

import (
	"fmt"
	"strings"
	"time"

	"github.com/nosabos/nosabos/tts/pacer"
)

// Config contains all nosabos configuration options.
type Config struct {
	// Language spoken when none is given on the command line
	Language string `yaml:"language" env:"NOSABOS_LANGUAGE" envDefault:"es"`

	Pacing    PacingConfig    `yaml:"pacing"`
	GenAI     GenAIConfig     `yaml:"genai"`
	Proxy     ProxyConfig     `yaml:"proxy"`
	Cache     CacheConfig     `yaml:"cache"`
	Audio     AudioConfig     `yaml:"audio"`
	Highlight HighlightConfig `yaml:"highlight"`
}

// PacingConfig controls word highlighting.
type PacingConfig struct {
	// Optional YAML table overriding the built-in rates
	TableFile     string        `yaml:"table_file" env:"NOSABOS_PACING_TABLE_FILE"`
	FrameInterval time.Duration `yaml:"frame_interval" env:"NOSABOS_PACING_FRAME_INTERVAL" envDefault:"16ms"`
	StartupDelay  time.Duration `yaml:"startup_delay" env:"NOSABOS_PACING_STARTUP_DELAY" envDefault:"300ms"`
	TrailingGrace time.Duration `yaml:"trailing_grace" env:"NOSABOS_PACING_TRAILING_GRACE" envDefault:"1s"`
}

// GenAIConfig configures the hosted generative AI API.
type GenAIConfig struct {
	APIKey            string        `yaml:"api_key" env:"NOSABOS_GENAI_API_KEY"`
	BaseURL           string        `yaml:"base_url" env:"NOSABOS_GENAI_BASE_URL" envDefault:"https://generativelanguage.googleapis.com"`
	TextModel         string        `yaml:"text_model" env:"NOSABOS_GENAI_TEXT_MODEL" envDefault:"gemini-2.5-flash"`
	SpeechModel       string        `yaml:"speech_model" env:"NOSABOS_GENAI_SPEECH_MODEL" envDefault:"gemini-2.5-flash-preview-tts"`
	Voice             string        `yaml:"voice" env:"NOSABOS_GENAI_VOICE" envDefault:"Kore"`
	Timeout           time.Duration `yaml:"timeout" env:"NOSABOS_GENAI_TIMEOUT" envDefault:"30s"`
	RequestsPerMinute int           `yaml:"requests_per_minute" env:"NOSABOS_GENAI_REQUESTS_PER_MINUTE" envDefault:"60"`
	MaxTextLength     int           `yaml:"max_text_length" env:"NOSABOS_GENAI_MAX_TEXT_LENGTH" envDefault:"5000"`
}

// ProxyConfig configures `nosabos serve`.
type ProxyConfig struct {
	Addr           string        `yaml:"addr" env:"NOSABOS_PROXY_ADDR" envDefault:":8080"`
	AllowedOrigins []string      `yaml:"allowed_origins" env:"NOSABOS_PROXY_ALLOWED_ORIGINS" envSeparator:","`
	ReadTimeout    time.Duration `yaml:"read_timeout" env:"NOSABOS_PROXY_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout   time.Duration `yaml:"write_timeout" env:"NOSABOS_PROXY_WRITE_TIMEOUT" envDefault:"90s"`
}

// CacheConfig configures the generated speech cache.
type CacheConfig struct {
	Enabled          bool   `yaml:"enabled" env:"NOSABOS_CACHE_ENABLED" envDefault:"true"`
	Dir              string `yaml:"dir" env:"NOSABOS_CACHE_DIR"`
	MemoryMB         int    `yaml:"memory_mb" env:"NOSABOS_CACHE_MEMORY_MB" envDefault:"32"`
	DiskMB           int    `yaml:"disk_mb" env:"NOSABOS_CACHE_DISK_MB" envDefault:"256"`
	TTLDays          int    `yaml:"ttl_days" env:"NOSABOS_CACHE_TTL_DAYS" envDefault:"7"`
	CompressionLevel int    `yaml:"compression_level" env:"NOSABOS_CACHE_COMPRESSION_LEVEL" envDefault:"3"`
}

// AudioConfig configures local playback.
type AudioConfig struct {
	// When false, playback is simulated and nothing is sent to the device
	Enabled    bool `yaml:"enabled" env:"NOSABOS_AUDIO_ENABLED" envDefault:"true"`
	SampleRate int  `yaml:"sample_rate" env:"NOSABOS_AUDIO_SAMPLE_RATE" envDefault:"24000"`
}

// HighlightConfig configures how the current word is drawn.
type HighlightConfig struct {
	Color string `yaml:"color" env:"NOSABOS_HIGHLIGHT_COLOR" envDefault:"yellow"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Language: "es",
		Pacing: PacingConfig{
			FrameInterval: pacer.DefaultFrameInterval,
			StartupDelay:  pacer.StartupDelay,
			TrailingGrace: pacer.TrailingGrace,
		},
		GenAI: GenAIConfig{
			BaseURL:           "https://generativelanguage.googleapis.com",
			TextModel:         "gemini-2.5-flash",
			SpeechModel:       "gemini-2.5-flash-preview-tts",
			Voice:             "Kore",
			Timeout:           30 * time.Second,
			RequestsPerMinute: 60,
			MaxTextLength:     5000,
		},
		Proxy: ProxyConfig{
			Addr:         ":8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 90 * time.Second,
		},
		Cache: CacheConfig{
			Enabled:          true,
			MemoryMB:         32,
			DiskMB:           256,
			TTLDays:          7,
			CompressionLevel: 3,
		},
		Audio: AudioConfig{
			Enabled:    true,
			SampleRate: 24000,
		},
		Highlight: HighlightConfig{
			Color: "yellow",
		},
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if len(c.Language) < 2 || len(c.Language) > 12 {
		return fmt.Errorf("%w: language code must be 2-12 characters, got %q", ErrInvalidConfig, c.Language)
	}
	if err := c.Pacing.Validate(); err != nil {
		return fmt.Errorf("pacing config: %w", err)
	}
	if err := c.GenAI.Validate(); err != nil {
		return fmt.Errorf("genai config: %w", err)
	}
	if err := c.Proxy.Validate(); err != nil {
		return fmt.Errorf("proxy config: %w", err)
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache config: %w", err)
	}

	validRates := []int{8000, 16000, 22050, 24000, 44100, 48000}
	rateValid := false
	for _, sr := range validRates {
		if c.Audio.SampleRate == sr {
			rateValid = true
			break
		}
	}
	if !rateValid {
		return fmt.Errorf("%w: invalid sample rate %d: must be one of %v", ErrInvalidConfig, c.Audio.SampleRate, validRates)
	}

	c.Highlight.Color = strings.ToLower(strings.TrimSpace(c.Highlight.Color))
	if c.Highlight.Color == "" {
		c.Highlight.Color = "yellow"
	}

	return nil
}

// Validate checks if the pacing configuration is valid.
func (c *PacingConfig) Validate() error {
	if c.FrameInterval < time.Millisecond || c.FrameInterval > time.Second {
		return fmt.Errorf("%w: frame_interval must be between 1ms and 1s, got %v", ErrInvalidConfig, c.FrameInterval)
	}
	if c.StartupDelay < 0 || c.StartupDelay > 5*time.Second {
		return fmt.Errorf("%w: startup_delay must be between 0 and 5s, got %v", ErrInvalidConfig, c.StartupDelay)
	}
	if c.TrailingGrace < 0 || c.TrailingGrace > 10*time.Second {
		return fmt.Errorf("%w: trailing_grace must be between 0 and 10s, got %v", ErrInvalidConfig, c.TrailingGrace)
	}
	return nil
}

// Timing returns the pacer timing for this configuration.
func (c PacingConfig) Timing() pacer.Timing {
	return pacer.Timing{
		StartupDelay:  c.StartupDelay,
		TrailingGrace: c.TrailingGrace,
	}
}

// Validate checks if the generative AI configuration is valid.
func (c *GenAIConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("%w: base_url cannot be empty", ErrInvalidConfig)
	}
	if c.TextModel == "" || c.SpeechModel == "" {
		return fmt.Errorf("%w: text_model and speech_model cannot be empty", ErrInvalidConfig)
	}
	if c.Timeout < time.Second {
		return fmt.Errorf("%w: timeout must be at least 1 second, got %v", ErrInvalidConfig, c.Timeout)
	}
	if c.RequestsPerMinute < 1 || c.RequestsPerMinute > 6000 {
		return fmt.Errorf("%w: requests_per_minute must be between 1 and 6000, got %d", ErrInvalidConfig, c.RequestsPerMinute)
	}
	if c.MaxTextLength < 1 {
		return fmt.Errorf("%w: max_text_length must be positive, got %d", ErrInvalidConfig, c.MaxTextLength)
	}
	return nil
}

// Validate checks if the proxy configuration is valid.
func (c *ProxyConfig) Validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr cannot be empty", ErrInvalidConfig)
	}
	if c.ReadTimeout < 0 || c.WriteTimeout < 0 {
		return fmt.Errorf("%w: timeouts must not be negative", ErrInvalidConfig)
	}
	return nil
}

// Validate checks if the cache configuration is valid.
func (c *CacheConfig) Validate() error {
	if c.MemoryMB < 0 || c.MemoryMB > 4096 {
		return fmt.Errorf("%w: memory_mb must be between 0 and 4096, got %d", ErrInvalidConfig, c.MemoryMB)
	}
	if c.DiskMB < 0 || c.DiskMB > 10000 {
		return fmt.Errorf("%w: disk_mb must be between 0 and 10000, got %d", ErrInvalidConfig, c.DiskMB)
	}
	if c.CompressionLevel < 0 || c.CompressionLevel > 22 {
		return fmt.Errorf("%w: compression_level must be between 0 and 22, got %d", ErrInvalidConfig, c.CompressionLevel)
	}
	if c.TTLDays < 0 {
		return fmt.Errorf("%w: ttl_days must not be negative, got %d", ErrInvalidConfig, c.TTLDays)
	}
	return nil
}

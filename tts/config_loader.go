package tts

import (
	"fmt"

	"github.com/spf13/viper"
)

// LoadConfigFromViper loads the configuration from Viper, on top of the
// defaults.
func LoadConfigFromViper() (Config, error) {
	return LoadConfig(viper.GetViper())
}

// LoadConfig loads the configuration from v, on top of the defaults.
func LoadConfig(v *viper.Viper) (Config, error) {
	cfg := DefaultConfig()

	if v.IsSet("language") {
		cfg.Language = v.GetString("language")
	}

	// Pacing
	if v.IsSet("pacing.table_file") {
		cfg.Pacing.TableFile = v.GetString("pacing.table_file")
	}
	if v.IsSet("pacing.frame_interval") {
		cfg.Pacing.FrameInterval = v.GetDuration("pacing.frame_interval")
	}
	if v.IsSet("pacing.startup_delay") {
		cfg.Pacing.StartupDelay = v.GetDuration("pacing.startup_delay")
	}
	if v.IsSet("pacing.trailing_grace") {
		cfg.Pacing.TrailingGrace = v.GetDuration("pacing.trailing_grace")
	}

	// Generative AI
	if v.IsSet("genai.api_key") {
		cfg.GenAI.APIKey = v.GetString("genai.api_key")
	}
	if v.IsSet("genai.base_url") {
		cfg.GenAI.BaseURL = v.GetString("genai.base_url")
	}
	if v.IsSet("genai.text_model") {
		cfg.GenAI.TextModel = v.GetString("genai.text_model")
	}
	if v.IsSet("genai.speech_model") {
		cfg.GenAI.SpeechModel = v.GetString("genai.speech_model")
	}
	if v.IsSet("genai.voice") {
		cfg.GenAI.Voice = v.GetString("genai.voice")
	}
	if v.IsSet("genai.timeout") {
		cfg.GenAI.Timeout = v.GetDuration("genai.timeout")
	}
	if v.IsSet("genai.requests_per_minute") {
		cfg.GenAI.RequestsPerMinute = v.GetInt("genai.requests_per_minute")
	}
	if v.IsSet("genai.max_text_length") {
		cfg.GenAI.MaxTextLength = v.GetInt("genai.max_text_length")
	}

	// Proxy
	if v.IsSet("proxy.addr") {
		cfg.Proxy.Addr = v.GetString("proxy.addr")
	}
	if v.IsSet("proxy.allowed_origins") {
		cfg.Proxy.AllowedOrigins = v.GetStringSlice("proxy.allowed_origins")
	}
	if v.IsSet("proxy.read_timeout") {
		cfg.Proxy.ReadTimeout = v.GetDuration("proxy.read_timeout")
	}
	if v.IsSet("proxy.write_timeout") {
		cfg.Proxy.WriteTimeout = v.GetDuration("proxy.write_timeout")
	}

	// Cache
	if v.IsSet("cache.enabled") {
		cfg.Cache.Enabled = v.GetBool("cache.enabled")
	}
	if v.IsSet("cache.dir") {
		cfg.Cache.Dir = v.GetString("cache.dir")
	}
	if v.IsSet("cache.memory_mb") {
		cfg.Cache.MemoryMB = v.GetInt("cache.memory_mb")
	}
	if v.IsSet("cache.disk_mb") {
		cfg.Cache.DiskMB = v.GetInt("cache.disk_mb")
	}
	if v.IsSet("cache.ttl_days") {
		cfg.Cache.TTLDays = v.GetInt("cache.ttl_days")
	}
	if v.IsSet("cache.compression_level") {
		cfg.Cache.CompressionLevel = v.GetInt("cache.compression_level")
	}

	// Audio
	if v.IsSet("audio.enabled") {
		cfg.Audio.Enabled = v.GetBool("audio.enabled")
	}
	if v.IsSet("audio.sample_rate") {
		cfg.Audio.SampleRate = v.GetInt("audio.sample_rate")
	}

	// Highlight
	if v.IsSet("highlight.color") {
		cfg.Highlight.Color = v.GetString("highlight.color")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// SetDefaults sets default values in Viper.
func SetDefaults() {
	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	defaults := DefaultConfig()

	v.SetDefault("language", defaults.Language)

	v.SetDefault("pacing.table_file", defaults.Pacing.TableFile)
	v.SetDefault("pacing.frame_interval", defaults.Pacing.FrameInterval.String())
	v.SetDefault("pacing.startup_delay", defaults.Pacing.StartupDelay.String())
	v.SetDefault("pacing.trailing_grace", defaults.Pacing.TrailingGrace.String())

	v.SetDefault("genai.base_url", defaults.GenAI.BaseURL)
	v.SetDefault("genai.text_model", defaults.GenAI.TextModel)
	v.SetDefault("genai.speech_model", defaults.GenAI.SpeechModel)
	v.SetDefault("genai.voice", defaults.GenAI.Voice)
	v.SetDefault("genai.timeout", defaults.GenAI.Timeout.String())
	v.SetDefault("genai.requests_per_minute", defaults.GenAI.RequestsPerMinute)
	v.SetDefault("genai.max_text_length", defaults.GenAI.MaxTextLength)

	v.SetDefault("proxy.addr", defaults.Proxy.Addr)
	v.SetDefault("proxy.read_timeout", defaults.Proxy.ReadTimeout.String())
	v.SetDefault("proxy.write_timeout", defaults.Proxy.WriteTimeout.String())

	v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	v.SetDefault("cache.memory_mb", defaults.Cache.MemoryMB)
	v.SetDefault("cache.disk_mb", defaults.Cache.DiskMB)
	v.SetDefault("cache.ttl_days", defaults.Cache.TTLDays)
	v.SetDefault("cache.compression_level", defaults.Cache.CompressionLevel)

	v.SetDefault("audio.enabled", defaults.Audio.Enabled)
	v.SetDefault("audio.sample_rate", defaults.Audio.SampleRate)

	v.SetDefault("highlight.color", defaults.Highlight.Color)
}

package tts

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// Metrics tracks a single generation request.
type Metrics struct {
	Kind       string // "text" or "speech"
	Model      string
	TextLength int
	Start      time.Time
	End        time.Time
	Duration   time.Duration
	AudioBytes int
	CacheHit   bool
	Err        error

	logger *log.Logger
}

var (
	metricsMu      sync.Mutex
	metricsEnabled bool
	metricsLogger  = log.Default()
	history        []Metrics
)

// maxHistory bounds the number of generations kept for GenerationStats.
const maxHistory = 256

// InitializeLogging sets the log level and enables generation metrics in
// debug mode. A nil logger keeps the package default.
func InitializeLogging(logger *log.Logger, debug bool) {
	metricsMu.Lock()
	defer metricsMu.Unlock()

	if logger != nil {
		metricsLogger = logger
	}
	if debug {
		metricsLogger.SetLevel(log.DebugLevel)
		metricsLogger.Debug("generation metrics enabled")
	}
	metricsEnabled = debug
}

// StartGeneration starts tracking a generation request. The outcome is
// logged to logger, or to the package logger when logger is nil.
func StartGeneration(logger *log.Logger, kind, model, text string) *Metrics {
	metricsMu.Lock()
	enabled := metricsEnabled
	if logger == nil {
		logger = metricsLogger
	}
	metricsMu.Unlock()

	m := &Metrics{
		Kind:       kind,
		Model:      model,
		TextLength: len([]rune(text)),
		Start:      time.Now(),
		logger:     logger,
	}

	if enabled {
		logger.Debug("Generation started", "kind", kind, "model", model, "textLength", m.TextLength)
	}
	return m
}

// EndGeneration completes tracking and logs the outcome.
func (m *Metrics) EndGeneration(audioBytes int, cacheHit bool, err error) {
	m.End = time.Now()
	m.Duration = m.End.Sub(m.Start)
	m.AudioBytes = audioBytes
	m.CacheHit = cacheHit
	m.Err = err

	metricsMu.Lock()
	history = append(history, *m)
	if len(history) > maxHistory {
		history = history[len(history)-maxHistory:]
	}
	enabled := metricsEnabled
	logger := m.logger
	if logger == nil {
		logger = metricsLogger
	}
	metricsMu.Unlock()

	if err != nil {
		logger.Error("Generation failed",
			"kind", m.Kind,
			"model", m.Model,
			"duration", m.Duration,
			"err", err)
		return
	}
	if enabled {
		logger.Info("Generation completed",
			"kind", m.Kind,
			"model", m.Model,
			"textLength", m.TextLength,
			"audioBytes", m.AudioBytes,
			"duration", m.Duration,
			"cacheHit", m.CacheHit)
	}
}

// GenerationStats summarizes the generations seen by this process.
func GenerationStats() string {
	metricsMu.Lock()
	defer metricsMu.Unlock()

	if len(history) == 0 {
		return "No generations yet"
	}

	var total time.Duration
	var bytes, hits, failures int
	for _, m := range history {
		total += m.Duration
		bytes += m.AudioBytes
		if m.CacheHit {
			hits++
		}
		if m.Err != nil {
			failures++
		}
	}

	return fmt.Sprintf(
		"Generations: %d\n"+
			"  Avg Duration: %v\n"+
			"  Audio Bytes: %d\n"+
			"  Cache Hit Rate: %.1f%%\n"+
			"  Errors: %d",
		len(history),
		total/time.Duration(len(history)),
		bytes,
		float64(hits)/float64(len(history))*100,
		failures,
	)
}

func resetGenerationStats() {
	metricsMu.Lock()
	history = nil
	metricsMu.Unlock()
}

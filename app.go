package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"

	"github.com/nosabos/nosabos/internal/cache"
	"github.com/nosabos/nosabos/internal/genai"
	"github.com/nosabos/nosabos/tts"
	"github.com/nosabos/nosabos/tts/pacer"
	"github.com/nosabos/nosabos/utils"
)

var appScope = gap.NewScope(gap.User, "nosabos")

func loadTable(cfg tts.PacingConfig) (pacer.Table, error) {
	if cfg.TableFile == "" {
		return pacer.DefaultTable(), nil
	}
	t, err := pacer.LoadTable(utils.ExpandPath(cfg.TableFile))
	if err != nil {
		return pacer.Table{}, fmt.Errorf("unable to load pacing table: %w", err)
	}
	return t, nil
}

func newPacer(cfg tts.PacingConfig, table pacer.Table) *pacer.Pacer {
	return pacer.New(table,
		pacer.WithTiming(cfg.Timing()),
		pacer.WithScheduler(pacer.NewFrameScheduler(cfg.FrameInterval)),
	)
}

func clipCacheDir(cfg tts.CacheConfig) (string, error) {
	if cfg.Dir != "" {
		return utils.ExpandPath(cfg.Dir), nil
	}
	dir, err := appScope.CacheDir()
	if err != nil {
		return "", fmt.Errorf("unable to find cache directory: %w", err)
	}
	return filepath.Join(dir, "clips"), nil
}

func openCache(cfg tts.CacheConfig, logger *log.Logger) (*cache.Manager, error) {
	dir, err := clipCacheDir(cfg)
	if err != nil {
		return nil, err
	}
	m, err := cache.NewManager(cache.Config{
		MemoryCapacity:   int64(cfg.MemoryMB) << 20,
		DiskCapacity:     int64(cfg.DiskMB) << 20,
		Dir:              dir,
		CompressionLevel: cfg.CompressionLevel,
		TTL:              time.Duration(cfg.TTLDays) * 24 * time.Hour,
	}, cache.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("unable to open speech cache: %w", err)
	}
	return m, nil
}

// newGenerator returns the speech source: the proxy at proxyURL when set,
// otherwise the hosted API. The returned func releases the clip cache.
func newGenerator(cfg tts.Config, proxyURL string, logger *log.Logger) (tts.Generator, func() error, error) {
	noop := func() error { return nil }
	if proxyURL != "" {
		log.Debug("Using generation proxy", "url", proxyURL)
		return genai.NewProxyClient(proxyURL, nil), noop, nil
	}

	opts := []genai.Option{genai.WithLogger(logger)}
	closer := noop
	if cfg.Cache.Enabled {
		c, err := openCache(cfg.Cache, logger)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, genai.WithCache(c))
		closer = c.Close
	}
	return genai.New(genai.ConfigFrom(cfg.GenAI), opts...), closer, nil
}

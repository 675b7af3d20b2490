package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nosabos/nosabos/internal/cache"
)

var (
	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear the speech cache",
		Args:  cobra.NoArgs,
	}

	cacheStatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show what the speech cache holds",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			m, err := openCache(cfg.Cache, log.Default())
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck

			ttl := time.Duration(cfg.Cache.TTLDays) * 24 * time.Hour
			return writeCacheStats(os.Stdout, m.Stats(), ttl, cfg.Cache.Enabled)
		},
	}

	cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached clip",
		Args:  cobra.NoArgs,
		RunE: func(*cobra.Command, []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			m, err := openCache(cfg.Cache, log.Default())
			if err != nil {
				return err
			}
			defer m.Close() //nolint:errcheck

			before := m.Stats().Disk
			if err := m.Clear(); err != nil {
				return fmt.Errorf("unable to clear speech cache: %w", err)
			}
			fmt.Printf("Removed %s (%s)\n",
				pluralize(before.Items, "clip"),
				humanize.Bytes(uint64(before.Size))) //nolint:gosec
			return nil
		},
	}
)

func writeCacheStats(w io.Writer, s cache.ManagerStats, ttl time.Duration, enabled bool) error {
	status := "enabled"
	if !enabled {
		status = "disabled"
	}
	expiry := "never"
	if ttl > 0 {
		expiry = "after " + strings.TrimSpace(humanize.RelTime(time.Time{}, time.Time{}.Add(ttl), "", ""))
	}

	_, err := fmt.Fprintf(w,
		"  %s  %s\n  %s  %s\n  %s  %s\n  %s  %s of %s\n  %s  %s\n",
		keyword("Status   "), status,
		keyword("Directory"), s.Dir,
		keyword("Clips    "), humanize.Comma(int64(s.Disk.Items)),
		keyword("Size     "), humanize.Bytes(uint64(s.Disk.Size)), humanize.Bytes(uint64(s.Disk.Capacity)), //nolint:gosec
		keyword("Expires  "), expiry,
	)
	if err != nil {
		return fmt.Errorf("unable to write to writer: %w", err)
	}
	return nil
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return humanize.Comma(int64(n)) + " " + noun + "s"
}

func init() {
	cacheCmd.AddCommand(cacheStatsCmd, cacheClearCmd)
}

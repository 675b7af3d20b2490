package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/nosabos/nosabos/tts/pacer"
)

var languagesCmd = &cobra.Command{
	Use:     "languages [QUERY]",
	Aliases: []string{"langs"},
	Short:   "List the pacing rate of each language",
	Long: paragraph(fmt.Sprintf("\n%s the languages with a known speaking rate. "+
		"QUERY fuzzy-matches codes and English names.", keyword("List"))),
	Example: paragraph("nosabos languages\nnosabos languages span"),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		table, err := loadTable(cfg.Pacing)
		if err != nil {
			return err
		}

		var query string
		if len(args) > 0 {
			query = args[0]
		}
		entries := filterLanguages(languageEntries(table), query)
		if len(entries) == 0 {
			return fmt.Errorf("no language matches %q", query)
		}
		return writeLanguages(os.Stdout, entries, table.Fallback())
	},
}

type languageEntry struct {
	Code string
	Name string
	Rate time.Duration
}

func languageEntries(table pacer.Table) []languageEntry {
	namer := display.English.Languages()
	rates := table.Languages()
	entries := make([]languageEntry, 0, len(rates))
	for _, lr := range rates {
		name := lr.Code
		if tag, err := language.Parse(lr.Code); err == nil {
			if n := namer.Name(tag); n != "" {
				name = n
			}
		}
		entries = append(entries, languageEntry{Code: lr.Code, Name: name, Rate: lr.Rate})
	}
	return entries
}

// filterLanguages returns the entries matching query, best match first.
func filterLanguages(entries []languageEntry, query string) []languageEntry {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return entries
	}

	targets := make([]string, len(entries))
	for i, e := range entries {
		targets[i] = strings.ToLower(e.Code + " " + e.Name)
	}

	matches := fuzzy.Find(query, targets)
	out := make([]languageEntry, 0, len(matches))
	for _, m := range matches {
		out = append(out, entries[m.Index])
	}
	return out
}

func writeLanguages(w io.Writer, entries []languageEntry, fallback time.Duration) error {
	for _, e := range entries {
		if _, err := fmt.Fprintf(w, "  %-6s %-24s %s/char\n", e.Code, e.Name, formatMillis(e.Rate)); err != nil {
			return fmt.Errorf("unable to write to writer: %w", err)
		}
	}
	_, err := fmt.Fprintf(w, "\n  other languages: %s/char\n", formatMillis(fallback))
	return err
}

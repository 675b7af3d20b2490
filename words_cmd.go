package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/nosabos/nosabos/tts/highlight"
	"github.com/nosabos/nosabos/tts/pacer"
)

var (
	wordsFile      string
	wordsLanguage  string
	wordsHighlight int

	wordsCmd = &cobra.Command{
		Use:   "words [TEXT]",
		Short: "Show how a text is split into words and paced",
		Long: paragraph(fmt.Sprintf("\n%s each word with its byte offsets and estimated start and end, "+
			"as used for highlighting.", keyword("List"))),
		Example: paragraph("nosabos words -l es \"hola mundo\"\nnosabos words -f leccion.md --highlight 3"),
		Args:    cobra.ArbitraryArgs,
		RunE:    runWords,
	}
)

func runWords(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	piped, err := stdinIsPipe()
	if err != nil {
		return err
	}
	in, err := readSpeakInput(args, wordsFile, os.Stdin, piped)
	if err != nil {
		return err
	}
	table, err := loadTable(cfg.Pacing)
	if err != nil {
		return err
	}

	language := cfg.Language
	if cmd.Flags().Changed("language") {
		language = wordsLanguage
	}

	isTerminal := term.IsTerminal(int(os.Stdout.Fd()))
	words := pacer.EstimateTimings(pacer.Tokenize(in.Text), language, table)
	if err := writeWords(os.Stdout, words, isTerminal); err != nil {
		return err
	}

	if cmd.Flags().Changed("highlight") {
		r := highlight.NewRenderer("none")
		if isTerminal {
			r = highlight.NewRenderer(cfg.Highlight.Color)
		}
		if _, err := fmt.Fprintln(os.Stdout, "\n"+r.Render(in.Text, wordsHighlight)); err != nil {
			return fmt.Errorf("unable to write to writer: %w", err)
		}
	}
	return nil
}

// writeWords prints one row per word. Columns are padded by display width
// so accented and CJK words line up.
func writeWords(w io.Writer, words []pacer.TimedWord, styled bool) error {
	width := runewidth.StringWidth("word")
	for _, wd := range words {
		width = max(width, runewidth.StringWidth(wd.Text))
	}

	header := fmt.Sprintf("%5s  %s  %11s  %8s  %8s", "#", runewidth.FillRight("word", width), "bytes", "start", "end")
	if styled {
		header = faint(header)
	}
	if _, err := fmt.Fprintln(w, header); err != nil {
		return fmt.Errorf("unable to write to writer: %w", err)
	}

	for _, wd := range words {
		_, err := fmt.Fprintf(w, "%5d  %s  %11s  %8s  %8s\n",
			wd.Index,
			runewidth.FillRight(wd.Text, width),
			fmt.Sprintf("%d-%d", wd.Start, wd.End),
			formatMillis(wd.StartAt),
			formatMillis(wd.EndAt),
		)
		if err != nil {
			return fmt.Errorf("unable to write to writer: %w", err)
		}
	}

	summary := fmt.Sprintf("%d words, about %s", len(words), formatMillis(pacer.TotalDuration(words)))
	if styled {
		summary = faint(summary)
	}
	_, err := fmt.Fprintln(w, "\n"+summary)
	return err
}

func formatMillis(d time.Duration) string {
	return fmt.Sprintf("%dms", d.Milliseconds())
}

func init() {
	wordsCmd.Flags().StringVarP(&wordsFile, "file", "f", "", "lesson file (markdown or plain text)")
	wordsCmd.Flags().StringVarP(&wordsLanguage, "language", "l", "", "language code of the text (default from config)")
	wordsCmd.Flags().IntVar(&wordsHighlight, "highlight", pacer.NoWord, "also print the text with this word highlighted")
}

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/nosabos/nosabos/internal/audio"
	"github.com/nosabos/nosabos/internal/lesson"
	"github.com/nosabos/nosabos/ui"
	"github.com/nosabos/nosabos/utils"
)

var (
	speakFile     string
	speakLanguage string
	speakVoice    string
	speakSilent   bool
	speakProxy    string
	speakWatch    bool
	speakAutoPlay bool
	speakMouse    bool

	speakCmd = &cobra.Command{
		Use:   "speak [TEXT]",
		Short: "Speak text and highlight each word as it is said",
		Long: paragraph(fmt.Sprintf("\n%s text or a lesson file aloud while the current word is highlighted. "+
			"Without an API key or with --silent the words are paced without sound.", keyword("Speak"))),
		Example: paragraph("nosabos speak \"¿Dónde está la biblioteca?\"\n" +
			"nosabos speak -f lecciones/mercado.md --watch\n" +
			"echo \"Bonjour tout le monde\" | nosabos speak -l fr"),
		Args: cobra.ArbitraryArgs,
		RunE: runSpeak,
	}
)

// speakInput is the text to speak and where it came from.
type speakInput struct {
	Path  string
	Title string
	Text  string
}

func readSpeakInput(args []string, file string, stdin io.Reader, piped bool) (speakInput, error) {
	switch {
	case file != "":
		l, err := lesson.Load(utils.ExpandPath(file))
		if err != nil {
			return speakInput{}, err
		}
		return speakInput{Path: l.Path, Title: l.Title, Text: l.Text}, nil
	case len(args) == 1 && args[0] == "-", len(args) == 0 && piped:
		b, err := io.ReadAll(stdin)
		if err != nil {
			return speakInput{}, fmt.Errorf("unable to read from stdin: %w", err)
		}
		return speakInput{Text: strings.TrimSpace(string(b))}, nil
	case len(args) > 0:
		return speakInput{Text: strings.Join(args, " ")}, nil
	default:
		return speakInput{}, errors.New("nothing to speak: pass TEXT, --file or pipe text on stdin")
	}
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to open file: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

func runSpeak(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	speakProxy = viper.GetString("speak.proxy")

	piped, err := stdinIsPipe()
	if err != nil {
		return err
	}
	in, err := readSpeakInput(args, speakFile, os.Stdin, piped)
	if err != nil {
		return err
	}
	if speakWatch && in.Path == "" {
		return errors.New("--watch needs a lesson file (--file)")
	}

	table, err := loadTable(cfg.Pacing)
	if err != nil {
		return err
	}

	// Read environment to get debugging stuff
	uiCfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}
	uiCfg.Path = in.Path
	uiCfg.Title = in.Title
	uiCfg.Text = in.Text
	uiCfg.Language = cfg.Language
	if cmd.Flags().Changed("language") {
		uiCfg.Language = speakLanguage
	}
	uiCfg.Voice = speakVoice
	uiCfg.AutoPlay = speakAutoPlay
	uiCfg.Watch = speakWatch
	uiCfg.EnableMouse = speakMouse
	uiCfg.FrameInterval = cfg.Pacing.FrameInterval
	if uiCfg.HighlightColor == "" {
		uiCfg.HighlightColor = cfg.Highlight.Color
	}

	svc := ui.Services{
		Pacer:  newPacer(cfg.Pacing, table),
		Timing: cfg.Pacing.Timing(),
	}

	silent := speakSilent || (speakProxy == "" && cfg.GenAI.APIKey == "")
	if silent {
		log.Info("Pacing without sound", "requested", speakSilent)
		svc.Player = audio.NewSilentPlayer()
	} else {
		gen, closeGen, err := newGenerator(cfg, speakProxy, log.Default())
		if err != nil {
			return err
		}
		defer func() {
			if err := closeGen(); err != nil {
				log.Error("Closing speech cache failed", "error", err)
			}
		}()
		svc.Generator = gen
		svc.Player = audio.New(cfg.Audio, log.Default())
	}
	defer func() {
		if err := svc.Player.Close(); err != nil {
			log.Debug("Closing player failed", "error", err)
		}
	}()

	if _, err := ui.NewProgram(uiCfg, svc).Run(); err != nil {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func init() {
	speakCmd.Flags().StringVarP(&speakFile, "file", "f", "", "lesson file to speak (markdown or plain text)")
	speakCmd.Flags().StringVarP(&speakLanguage, "language", "l", "", "language code of the text (default from config)")
	speakCmd.Flags().StringVar(&speakVoice, "voice", "", "voice name (default from config)")
	speakCmd.Flags().BoolVar(&speakSilent, "silent", false, "pace the words without generating speech")
	speakCmd.Flags().StringVar(&speakProxy, "proxy", "", "generate speech through a nosabos proxy at this URL")
	speakCmd.Flags().BoolVar(&speakWatch, "watch", false, "reload the lesson file when it changes")
	speakCmd.Flags().BoolVar(&speakAutoPlay, "auto-play", false, "start speaking immediately")
	speakCmd.Flags().BoolVarP(&speakMouse, "mouse", "m", false, "enable mouse wheel")
	_ = speakCmd.Flags().MarkHidden("mouse")

	_ = viper.BindPFlag("speak.proxy", speakCmd.Flags().Lookup("proxy"))
}

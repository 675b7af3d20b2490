// Package ui provides the speak TUI: the text is narrated while the word
// being spoken is highlighted.
package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"

	"github.com/nosabos/nosabos/tts"
	"github.com/nosabos/nosabos/tts/highlight"
	"github.com/nosabos/nosabos/tts/pacer"
)

const (
	statusMessageTimeoutDuration = time.Second * 3 // how long to show status messages like "copied!"
	statusBarHeight              = 1
	progressHeight               = 1
	ellipsis                     = "…"
)

// Services are the collaborators of a speak session. The caller owns them
// and closes the player after the program exits.
type Services struct {
	Pacer  *pacer.Pacer
	Player tts.AudioPlayer
	Timing pacer.Timing

	// Generator produces speech; nil plays silence for the estimated
	// duration so the highlighting can still be followed.
	Generator tts.SpeechGenerator
}

// NewProgram returns a new Tea program.
func NewProgram(cfg Config, svc Services) *tea.Program {
	log.Debug(
		"Starting speak session",
		"path", cfg.Path,
		"language", cfg.Language,
		"watch", cfg.Watch,
		"silent", svc.Generator == nil,
	)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	return tea.NewProgram(newModel(cfg, svc), opts...)
}

type model struct {
	cfg      Config
	svc      Services
	sm       *tts.StateMachine
	renderer highlight.Renderer

	ctx    context.Context
	cancel context.CancelFunc

	text  string
	title string
	clip  *tts.Audio

	// genID identifies the latest generation request so results for
	// replaced text are dropped. frameID does the same for frame loops.
	genID   uint64
	frameID uint64

	playWhenReady bool
	reloadPending bool
	stopPlaying   context.CancelFunc

	watcher *fileWatcher
	shown   int // word index last rendered

	width    int
	height   int
	viewport viewport.Model
	spinner  spinner.Model
	progress progress.Model

	statusMessage string
	err           error
}

func newModel(cfg Config, svc Services) model {
	if cfg.FrameInterval <= 0 {
		cfg.FrameInterval = pacer.DefaultFrameInterval
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := model{
		cfg:      cfg,
		svc:      svc,
		sm:       tts.NewStateMachine(),
		renderer: highlight.NewRenderer(cfg.HighlightColor),
		ctx:      ctx,
		cancel:   cancel,
		title:    cfg.Title,
		shown:    pacer.NoWord,
		viewport: viewport.New(0, 0),
		spinner:  spinner.New(spinner.WithSpinner(spinner.Dot)),
		progress: progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
	}
	m.spinner.Style = m.spinner.Style.Foreground(fuchsia)

	if cfg.Watch && cfg.Path != "" {
		w, err := newFileWatcher(cfg.Path)
		if err != nil {
			log.Error("unable to watch lesson", "file", cfg.Path, "error", err)
		} else {
			m.watcher = w
		}
	}

	m.setText(cfg.Text)
	return m
}

func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForPlayback(m.svc.Player.Events())}
	if m.watcher != nil {
		cmds = append(cmds, m.watcher.wait)
	}
	if m.cfg.AutoPlay {
		cmds = append(cmds, speak)
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.setSize(msg.Width, msg.Height)
		m.refresh(true)

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, m.quit()
		case " ":
			cmds = append(cmds, m.toggle())
		case "c":
			cmds = append(cmds, m.copyWord())
		default:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			cmds = append(cmds, cmd)
		}

	case tea.MouseMsg:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)

	case speakMsg:
		if m.sm.Current() != tts.StatePlaying {
			cmds = append(cmds, m.toggle())
		}

	case generatedMsg:
		if msg.id != m.genID {
			log.Debug("dropping stale speech", "id", msg.id, "current", m.genID)
			break
		}
		if msg.err != nil {
			m.fail(msg.err)
			break
		}
		if msg.clip == nil {
			m.fail(tts.ErrNothingToPlay)
			break
		}
		m.clip = msg.clip
		m.err = nil
		_ = m.sm.Transition(tts.StateReady)
		if m.playWhenReady {
			m.playWhenReady = false
			m.play()
		}

	case playbackMsg:
		cmds = append(cmds, waitForPlayback(m.svc.Player.Events()), m.handlePlayback(tts.PlaybackEvent(msg)))

	case frameMsg:
		if msg.id != m.frameID || m.sm.Current() != tts.StatePlaying {
			break
		}
		m.refresh(false)
		cmds = append(cmds, frameTick(m.frameID, m.cfg.FrameInterval))

	case spinner.TickMsg:
		if m.sm.Current() == tts.StateGenerating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case reloadMsg:
		if m.sm.Current() == tts.StatePlaying {
			// Replace the text once playback ends.
			m.reloadPending = true
		} else {
			cmds = append(cmds, loadLessonCmd(m.cfg.Path))
		}
		if m.watcher != nil {
			cmds = append(cmds, m.watcher.wait)
		}

	case lessonLoadedMsg:
		cmds = append(cmds, m.reload(msg))

	case statusMessageTimeoutMsg:
		m.statusMessage = ""
	}

	return m, tea.Batch(cmds...)
}

func (m model) View() string {
	var b strings.Builder
	fmt.Fprint(&b, m.viewport.View()+"\n")
	m.progressView(&b)
	fmt.Fprint(&b, "\n")
	m.statusBarView(&b)
	return b.String()
}

// toggle starts or stops speaking, generating speech first when needed.
func (m *model) toggle() tea.Cmd {
	switch m.sm.Current() {
	case tts.StatePlaying:
		m.stop()
	case tts.StateReady:
		m.play()
	case tts.StateIdle, tts.StateError:
		m.playWhenReady = true
		return m.generate()
	case tts.StateGenerating:
		m.playWhenReady = true
	}
	return nil
}

func (m *model) generate() tea.Cmd {
	if strings.TrimSpace(m.text) == "" {
		m.fail(tts.ErrEmptyText)
		return nil
	}
	if m.sm.Current() != tts.StateGenerating {
		if err := m.sm.Transition(tts.StateGenerating); err != nil {
			log.Debug("cannot generate", "error", err)
			return nil
		}
	}

	m.genID++
	m.clip = nil
	m.err = nil
	req := tts.SpeechRequest{
		Text:     m.text,
		Voice:    m.cfg.Voice,
		Language: m.cfg.Language,
	}
	return tea.Batch(
		m.spinner.Tick,
		generateCmd(m.ctx, m.svc.Generator, m.genID, req, m.svc.Pacer.Words(), m.svc.Timing),
	)
}

func (m *model) play() {
	if m.clip == nil {
		return
	}
	ctx, cancel := context.WithCancel(m.ctx)
	if err := m.svc.Player.Play(ctx, m.clip); err != nil {
		cancel()
		m.fail(tts.NewTTSError(err, "audio", "play"))
		return
	}
	m.stopPlaying = cancel
}

func (m *model) stop() {
	if m.stopPlaying != nil {
		m.stopPlaying()
		m.stopPlaying = nil
	}
	if err := m.svc.Player.Stop(); err != nil {
		log.Debug("stopping playback failed", "error", err)
	}
}

// handlePlayback moves the session and the pacer along with the player.
func (m *model) handlePlayback(ev tts.PlaybackEvent) tea.Cmd {
	log.Debug("playback event", "type", ev.Type, "error", ev.Err)
	m.svc.Pacer.SetPlaybackActive(ev.Active())

	var cmd tea.Cmd
	switch ev.Type {
	case tts.PlaybackStarted:
		if err := m.sm.Transition(tts.StatePlaying); err != nil {
			log.Debug("unexpected playback start", "error", err)
		}
		m.err = nil
		m.frameID++
		cmd = frameTick(m.frameID, m.cfg.FrameInterval)
	case tts.PlaybackFinished, tts.PlaybackStopped:
		if m.sm.Current() == tts.StatePlaying {
			_ = m.sm.Transition(tts.StateReady)
		}
		if m.reloadPending {
			m.reloadPending = false
			cmd = loadLessonCmd(m.cfg.Path)
		}
	case tts.PlaybackFailed:
		m.fail(tts.NewTTSError(ev.Err, "audio", "play").WithSeverity(tts.SeverityCritical))
	}

	m.refresh(false)
	return cmd
}

// reload replaces the text with an edited lesson and regenerates speech
// for it if speech had been requested before.
func (m *model) reload(msg lessonLoadedMsg) tea.Cmd {
	if msg.err != nil {
		log.Error("unable to reload lesson", "file", m.cfg.Path, "error", msg.err)
		return m.showStatusMessage("Reload failed")
	}
	if msg.lesson.Text == m.text {
		return nil
	}

	m.title = msg.lesson.Title
	m.setText(msg.lesson.Text)
	m.refresh(true)

	var cmd tea.Cmd
	switch m.sm.Current() {
	case tts.StateReady, tts.StateError, tts.StateGenerating:
		cmd = m.generate()
	}
	return tea.Batch(cmd, m.showStatusMessage("Reloaded"))
}

func (m *model) setText(text string) {
	m.text = text
	m.clip = nil
	m.svc.Pacer.SetText(text, m.cfg.Language)
	m.shown = pacer.NoWord
}

func (m *model) copyWord() tea.Cmd {
	index := m.svc.Pacer.CurrentIndex()
	words := m.svc.Pacer.Words()
	if index < 0 || index >= len(words) {
		return m.showStatusMessage("No word to copy")
	}

	word := words[index].Text
	if err := clipboard.WriteAll(word); err != nil {
		log.Debug("clipboard write failed", "error", err)
		return m.showStatusMessage("Clipboard unavailable")
	}
	return m.showStatusMessage(fmt.Sprintf("Copied “%s”", word))
}

func (m *model) showStatusMessage(msg string) tea.Cmd {
	m.statusMessage = msg
	return statusMessageTimeout(statusMessageTimeoutDuration)
}

func (m *model) fail(err error) {
	var terr *tts.TTSError
	if errors.As(err, &terr) {
		log.Error("speak session error", "component", terr.Component, "action", terr.Action, "error", terr.Err, "context", terr.Context)
	} else {
		log.Error("speak session error", "error", err)
	}
	m.err = err
	m.playWhenReady = false
	if m.sm.Can(tts.StateError) {
		_ = m.sm.Transition(tts.StateError)
	}
}

func (m *model) quit() tea.Cmd {
	m.stop()
	m.svc.Pacer.Close()
	if m.watcher != nil {
		if err := m.watcher.Close(); err != nil {
			log.Debug("closing watcher failed", "error", err)
		}
	}
	m.cancel()
	return tea.Quit
}

func (m *model) setSize(w, h int) {
	m.width = w
	m.height = h
	m.viewport.Width = w
	m.viewport.Height = max(0, h-statusBarHeight-progressHeight)
	m.progress.Width = max(0, w-counterWidth(m.svc.Pacer.TotalWords()))
}

func (m *model) wrapWidth() int {
	w := m.viewport.Width
	if m.cfg.MaxWidth > 0 && w > int(m.cfg.MaxWidth) { //nolint:gosec
		w = int(m.cfg.MaxWidth) //nolint:gosec
	}
	return w
}

// refresh redraws the text when the current word changed, or always when
// force is set, and scrolls the current word into view.
func (m *model) refresh(force bool) {
	index := m.svc.Pacer.CurrentIndex()
	if !force && index == m.shown {
		return
	}
	m.shown = index

	content := m.renderer.Render(m.text, index)
	if w := m.wrapWidth(); w > 0 {
		content = wordwrap.String(content, w)
	}
	m.viewport.SetContent(content)

	words := m.svc.Pacer.Words()
	if index < 0 || index >= len(words) || m.viewport.Height == 0 {
		return
	}
	line := m.lineOf(words[index].End)
	if line < m.viewport.YOffset || line >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(max(0, line-m.viewport.Height/2))
	}
}

// lineOf returns the wrapped line holding byte offset end of the text.
func (m *model) lineOf(end int) int {
	prefix := m.text[:end]
	if w := m.wrapWidth(); w > 0 {
		prefix = wordwrap.String(prefix, w)
	}
	return strings.Count(prefix, "\n")
}

func counterWidth(total int) int {
	return 2*len(fmt.Sprint(total)) + 4
}

func (m model) progressView(b *strings.Builder) {
	total := m.svc.Pacer.TotalWords()
	index := m.svc.Pacer.CurrentIndex()

	var percent float64
	if total > 0 && index >= 0 {
		percent = float64(index+1) / float64(total)
	}
	counter := fmt.Sprintf(" %d/%d ", index+1, total)
	if m.cfg.ShowIndex {
		counter = fmt.Sprintf(" [%d] %d/%d ", index, index+1, total)
	}
	fmt.Fprint(b, m.progress.ViewAs(percent)+counterStyle(counter))
}

func (m model) statusBarView(b *strings.Builder) {
	logo := logoView()
	help := statusBarHelpStyle(" space speak/stop · c copy · q quit ")

	note := m.noteView()
	style := statusBarNoteStyle
	switch {
	case m.statusMessage != "":
		note = m.statusMessage
		style = statusBarMessageStyle
	case m.err != nil:
		style = statusBarErrorStyle
	}

	note = truncate.StringWithTail(" "+note+" ", uint(max(0, //nolint:gosec
		m.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(help),
	)), ellipsis)

	padding := max(0,
		m.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(note)-
			ansi.PrintableRuneWidth(help),
	)

	fmt.Fprintf(b, "%s%s%s%s",
		logo,
		style(note),
		style(strings.Repeat(" ", padding)),
		help,
	)
}

func (m model) noteView() string {
	name := m.title
	if name == "" && m.cfg.Path != "" {
		name = filepath.Base(m.cfg.Path)
	}
	if name != "" {
		name += " | "
	}
	if m.cfg.Language != "" {
		name += m.cfg.Language + " | "
	}

	if m.err != nil && m.sm.Current() != tts.StateGenerating {
		note := name + "Error: " + m.err.Error()
		if retryable(m.err) {
			note += " (space to retry)"
		}
		return note
	}

	switch m.sm.Current() {
	case tts.StateGenerating:
		return name + m.spinner.View() + " Generating speech..."
	case tts.StateReady:
		return name + "Ready"
	case tts.StatePlaying:
		if m.svc.Generator == nil {
			return name + "Speaking (silent)"
		}
		return name + "Speaking"
	case tts.StateError:
		return name + "Error"
	default:
		return name + "Press space to speak"
	}
}

func retryable(err error) bool {
	var terr *tts.TTSError
	if errors.As(err, &terr) {
		return terr.IsRecoverable()
	}
	return tts.IsRecoverableError(err)
}

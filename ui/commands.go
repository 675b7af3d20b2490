package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"

	"github.com/nosabos/nosabos/internal/genai"
	"github.com/nosabos/nosabos/internal/lesson"
	"github.com/nosabos/nosabos/tts"
	"github.com/nosabos/nosabos/tts/pacer"
)

type (
	// speakMsg asks for speech as if space had been pressed.
	speakMsg struct{}

	generatedMsg struct {
		id   uint64
		clip *tts.Audio
		err  error
	}

	playbackMsg tts.PlaybackEvent

	frameMsg struct {
		id uint64
	}

	reloadMsg struct{}

	lessonLoadedMsg struct {
		lesson *lesson.Lesson
		err    error
	}

	statusMessageTimeoutMsg struct{}
)

func speak() tea.Msg { return speakMsg{} }

// generateCmd produces the clip for text. Without a generator the clip is
// silence lasting as long as the estimated narration.
func generateCmd(ctx context.Context, gen tts.SpeechGenerator, id uint64, req tts.SpeechRequest, words []pacer.TimedWord, timing pacer.Timing) tea.Cmd {
	return func() tea.Msg {
		if gen == nil {
			return generatedMsg{id: id, clip: silentClip(words, timing)}
		}
		clip, err := gen.GenerateSpeech(ctx, req)
		if err != nil {
			return generatedMsg{id: id, err: tts.NewTTSError(err, "genai", "generate speech").
				WithContext("voice", req.Voice).
				WithContext("language", req.Language)}
		}
		return generatedMsg{id: id, clip: clip}
	}
}

func silentClip(words []pacer.TimedWord, timing pacer.Timing) *tts.Audio {
	d := pacer.TotalDuration(words)
	if d == 0 {
		return nil
	}
	return &tts.Audio{
		SampleRate: genai.DefaultSampleRate,
		Channels:   1,
		Duration:   timing.StartupDelay + d,
	}
}

func waitForPlayback(events <-chan tts.PlaybackEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return nil
		}
		return playbackMsg(ev)
	}
}

func frameTick(id uint64, interval time.Duration) tea.Cmd {
	return tea.Tick(interval, func(time.Time) tea.Msg {
		return frameMsg{id: id}
	})
}

func loadLessonCmd(path string) tea.Cmd {
	return func() tea.Msg {
		l, err := lesson.Load(path)
		return lessonLoadedMsg{lesson: l, err: err}
	}
}

func statusMessageTimeout(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return statusMessageTimeoutMsg{}
	})
}

// fileWatcher reports writes to a single lesson file. The parent directory
// is watched so editors that replace the file are noticed too.
type fileWatcher struct {
	watcher *fsnotify.Watcher
	path    string
}

func newFileWatcher(path string) (*fileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	dir := filepath.Dir(abs)
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	log.Info("fsnotify watching dir", "dir", dir)
	return &fileWatcher{watcher: w, path: abs}, nil
}

// wait blocks until the file changes. It returns nil once the watcher is
// closed.
func (fw *fileWatcher) wait() tea.Msg {
	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != fw.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			return reloadMsg{}
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return nil
			}
			log.Debug("fsnotify error", "file", fw.path, "error", err)
		}
	}
}

func (fw *fileWatcher) Close() error {
	return fw.watcher.Close()
}

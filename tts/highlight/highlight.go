// Package highlight splits text into word and filler segments and marks the
// word currently being spoken.
package highlight

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/nosabos/nosabos/tts/pacer"
)

// Kind tells word segments apart from the text between them.
type Kind int

const (
	// KindText is whitespace or other content between words.
	KindText Kind = iota
	// KindWord is a word as found by pacer.Tokenize.
	KindWord
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindWord:
		return "word"
	default:
		return "unknown"
	}
}

// Segment is a contiguous piece of the original text.
type Segment struct {
	Kind        Kind
	Content     string
	Index       int // Word index, -1 for text segments
	Highlighted bool
}

// Segments covers text with word and text segments in order. Concatenating
// the contents yields text. Exactly one word is highlighted when current is
// a valid word index; otherwise none is.
func Segments(text string, current int) []Segment {
	words := pacer.Tokenize(text)
	segments := make([]Segment, 0, 2*len(words)+1)

	pos := 0
	for _, w := range words {
		if w.Start > pos {
			segments = append(segments, Segment{Kind: KindText, Content: text[pos:w.Start], Index: -1})
		}
		segments = append(segments, Segment{
			Kind:        KindWord,
			Content:     w.Text,
			Index:       w.Index,
			Highlighted: w.Index == current,
		})
		pos = w.End
	}
	if pos < len(text) {
		segments = append(segments, Segment{Kind: KindText, Content: text[pos:], Index: -1})
	}

	return segments
}

// Join concatenates segment contents.
func Join(segments []Segment) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Content)
	}
	return b.String()
}

// Renderer draws segments for a terminal.
type Renderer struct {
	Active lipgloss.Style
	Spoken lipgloss.Style
	Plain  bool // Mark the active word with brackets instead of colour
}

// NewRenderer returns a renderer highlighting the active word with color,
// which may be a named ANSI colour ("yellow") or any lipgloss colour value.
// "none" selects plain bracket marking.
func NewRenderer(color string) Renderer {
	if strings.EqualFold(color, "none") {
		return Renderer{Plain: true}
	}
	return Renderer{
		Active: lipgloss.NewStyle().
			Background(lipgloss.Color(ansiColor(color))).
			Foreground(lipgloss.Color("0")).
			Bold(true),
		Spoken: lipgloss.NewStyle().Faint(true),
	}
}

// Render returns text with the word at current highlighted. Words before it
// are drawn with the Spoken style.
func (r Renderer) Render(text string, current int) string {
	var b strings.Builder
	for _, s := range Segments(text, current) {
		switch {
		case s.Kind != KindWord:
			b.WriteString(s.Content)
		case s.Highlighted && r.Plain:
			b.WriteString("[" + s.Content + "]")
		case s.Highlighted:
			b.WriteString(r.Active.Render(s.Content))
		case !r.Plain && current >= 0 && s.Index < current:
			b.WriteString(r.Spoken.Render(s.Content))
		default:
			b.WriteString(s.Content)
		}
	}
	return b.String()
}

var namedColors = map[string]string{
	"black":   "0",
	"red":     "1",
	"green":   "2",
	"yellow":  "226",
	"blue":    "4",
	"magenta": "5",
	"cyan":    "6",
	"white":   "7",
}

func ansiColor(name string) string {
	if c, ok := namedColors[strings.ToLower(name)]; ok {
		return c
	}
	if name == "" {
		return namedColors["yellow"]
	}
	return name
}

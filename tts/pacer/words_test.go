package pacer_test

import (
	"strings"
	"testing"
	"time"

	"github.com/nosabos/nosabos/tts/pacer"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []pacer.Word
	}{
		{
			name: "empty",
			text: "",
			want: nil,
		},
		{
			name: "whitespace only",
			text: " \t\n ",
			want: nil,
		},
		{
			name: "two words",
			text: "hola mundo",
			want: []pacer.Word{
				{Text: "hola", Start: 0, End: 4, Index: 0},
				{Text: "mundo", Start: 5, End: 10, Index: 1},
			},
		},
		{
			name: "surrounding and repeated whitespace",
			text: "  ¿Qué  tal?\n",
			want: []pacer.Word{
				{Text: "¿Qué", Start: 2, End: 8, Index: 0},
				{Text: "tal?", Start: 10, End: 14, Index: 1},
			},
		},
		{
			name: "non-breaking space separates words",
			text: "buenos días",
			want: []pacer.Word{
				{Text: "buenos", Start: 0, End: 6, Index: 0},
				{Text: "días", Start: 8, End: 13, Index: 1},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pacer.Tokenize(tt.text)
			if len(got) != len(tt.want) {
				t.Fatalf("Tokenize(%q) returned %d words, want %d: %+v", tt.text, len(got), len(tt.want), got)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("word %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestTokenizeReconstructsText(t *testing.T) {
	texts := []string{
		"hola mundo",
		"  leading and trailing  ",
		"línea uno\nlínea dos\t\tfin",
		"日本語 の テキスト",
		"single",
	}

	for _, text := range texts {
		words := pacer.Tokenize(text)

		var b strings.Builder
		prev := 0
		for i, w := range words {
			if w.Start < prev {
				t.Fatalf("%q: word %d overlaps the previous one", text, i)
			}
			if w.Index != i {
				t.Errorf("%q: word %d has index %d", text, i, w.Index)
			}
			gap := text[prev:w.Start]
			if strings.TrimSpace(gap) != "" {
				t.Errorf("%q: non-whitespace %q between words", text, gap)
			}
			if text[w.Start:w.End] != w.Text {
				t.Errorf("%q: word %d text %q does not match offsets", text, i, w.Text)
			}
			b.WriteString(gap)
			b.WriteString(w.Text)
			prev = w.End
		}
		b.WriteString(text[prev:])

		if b.String() != text {
			t.Errorf("reconstructed %q, want %q", b.String(), text)
		}
	}
}

func TestEstimateTimingsHolaMundo(t *testing.T) {
	words := pacer.EstimateTimings(pacer.Tokenize("hola mundo"), "es", pacer.DefaultTable())
	if len(words) != 2 {
		t.Fatalf("got %d words, want 2", len(words))
	}

	want := []struct {
		start, end time.Duration
	}{
		{0, 248 * time.Millisecond},
		{283 * time.Millisecond, 593 * time.Millisecond},
	}
	for i, w := range want {
		if words[i].StartAt != w.start || words[i].EndAt != w.end {
			t.Errorf("word %d timing = [%v, %v], want [%v, %v]",
				i, words[i].StartAt, words[i].EndAt, w.start, w.end)
		}
	}

	if got := pacer.TotalDuration(words); got != 593*time.Millisecond {
		t.Errorf("TotalDuration() = %v, want 593ms", got)
	}
}

func TestEstimateTimingsCountsRunes(t *testing.T) {
	table := pacer.NewTable(10*time.Millisecond, nil)
	words := pacer.EstimateTimings(pacer.Tokenize("añó"), "xx", table)

	if got := words[0].EndAt; got != 30*time.Millisecond {
		t.Errorf("EndAt = %v, want 30ms for three runes", got)
	}
}

func TestEstimateTimingsMonotonicAndDeterministic(t *testing.T) {
	text := "El rápido zorro marrón salta sobre el perro perezoso . ¡ Olé !"
	table := pacer.DefaultTable()

	for _, lang := range []string{"es", "en", "ja", "unknown", ""} {
		first := pacer.EstimateTimings(pacer.Tokenize(text), lang, table)
		second := pacer.EstimateTimings(pacer.Tokenize(text), lang, table)

		if len(first) != len(second) {
			t.Fatalf("%s: lengths differ", lang)
		}
		for i := range first {
			if first[i] != second[i] {
				t.Errorf("%s: word %d differs between runs", lang, i)
			}
			if first[i].EndAt < first[i].StartAt {
				t.Errorf("%s: word %d ends before it starts", lang, i)
			}
			if i == 0 {
				if first[i].StartAt != 0 {
					t.Errorf("%s: first word starts at %v, want 0", lang, first[i].StartAt)
				}
				continue
			}
			if first[i].StartAt < first[i-1].StartAt || first[i].EndAt < first[i-1].EndAt {
				t.Errorf("%s: word %d is out of order", lang, i)
			}
			if first[i].StartAt != first[i-1].EndAt+pacer.WordGap {
				t.Errorf("%s: word %d gap = %v, want %v", lang, i, first[i].StartAt-first[i-1].EndAt, pacer.WordGap)
			}
		}
	}
}

func TestEstimateTimingsEmpty(t *testing.T) {
	if got := pacer.EstimateTimings(nil, "es", pacer.DefaultTable()); len(got) != 0 {
		t.Errorf("EstimateTimings(nil) = %v, want empty", got)
	}
	if got := pacer.TotalDuration(nil); got != 0 {
		t.Errorf("TotalDuration(nil) = %v, want 0", got)
	}
}

package pacer

import (
	"time"
	"unicode"
	"unicode/utf8"
)

// WordGap is the pause inserted before every word except the first.
const WordGap = 35 * time.Millisecond

// Word is a run of non-whitespace characters found in the source text.
type Word struct {
	Text  string // The word as it appears in the text
	Start int    // Byte offset of the first character
	End   int    // Byte offset one past the last character
	Index int    // Position among the words of the text (0-based)
}

// TimedWord is a Word with its estimated position in the narration.
type TimedWord struct {
	Word
	StartAt time.Duration // Estimated start, relative to audible playback
	EndAt   time.Duration // Estimated end
}

// Tokenize splits text into words on runs of Unicode whitespace.
func Tokenize(text string) []Word {
	var words []Word
	start := -1

	for i, r := range text {
		if unicode.IsSpace(r) {
			if start >= 0 {
				words = append(words, Word{
					Text:  text[start:i],
					Start: start,
					End:   i,
					Index: len(words),
				})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}

	if start >= 0 {
		words = append(words, Word{
			Text:  text[start:],
			Start: start,
			End:   len(text),
			Index: len(words),
		})
	}

	return words
}

// EstimateTimings assigns each word a start and end time using the
// per-character rate for language. The running total carries forward, so the
// result is non-decreasing in both StartAt and EndAt.
func EstimateTimings(words []Word, language string, table Table) []TimedWord {
	if len(words) == 0 {
		return nil
	}

	rate := table.Rate(language)
	timed := make([]TimedWord, len(words))

	var elapsed time.Duration
	for i, w := range words {
		if i > 0 {
			elapsed += WordGap
		}
		duration := time.Duration(utf8.RuneCountInString(w.Text)) * rate
		timed[i] = TimedWord{
			Word:    w,
			StartAt: elapsed,
			EndAt:   elapsed + duration,
		}
		elapsed += duration
	}

	return timed
}

// TotalDuration returns the estimated end of the last word, or zero.
func TotalDuration(words []TimedWord) time.Duration {
	if len(words) == 0 {
		return 0
	}
	return words[len(words)-1].EndAt
}

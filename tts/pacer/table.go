package pacer

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultRate is the per-character rate used for languages missing from a
// table.
const DefaultRate = 65 * time.Millisecond

// defaultRates are milliseconds per character, tuned against the voices the
// speech API produces for each language.
var defaultRates = map[string]int{
	"en":  60,
	"es":  62,
	"pt":  63,
	"fr":  64,
	"it":  62,
	"de":  70,
	"nl":  68,
	"ru":  66,
	"ja":  140,
	"zh":  180,
	"ko":  120,
	"nah": 72,
}

// Table maps language codes to a speaking rate per character. A Table is
// immutable once built and safe for concurrent use.
type Table struct {
	rates    map[string]time.Duration
	fallback time.Duration
}

// LanguageRate is a single table entry.
type LanguageRate struct {
	Code string
	Rate time.Duration
}

// NewTable builds a table from rates, copying the map. Codes are matched
// case-insensitively. A non-positive fallback is replaced by DefaultRate.
func NewTable(fallback time.Duration, rates map[string]time.Duration) Table {
	if fallback <= 0 {
		fallback = DefaultRate
	}
	t := Table{
		rates:    make(map[string]time.Duration, len(rates)),
		fallback: fallback,
	}
	for code, rate := range rates {
		if rate <= 0 {
			continue
		}
		t.rates[strings.ToLower(strings.TrimSpace(code))] = rate
	}
	return t
}

// DefaultTable returns the built-in pacing table.
func DefaultTable() Table {
	rates := make(map[string]time.Duration, len(defaultRates))
	for code, ms := range defaultRates {
		rates[code] = time.Duration(ms) * time.Millisecond
	}
	return NewTable(DefaultRate, rates)
}

// Rate returns the per-character rate for code. Region and script subtags are
// ignored when the full tag is not listed; unknown codes get the fallback.
func (t Table) Rate(code string) time.Duration {
	fallback := t.fallback
	if fallback <= 0 {
		fallback = DefaultRate
	}

	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return fallback
	}
	if rate, ok := t.rates[code]; ok {
		return rate
	}

	tag, err := language.Parse(code)
	if err != nil {
		return fallback
	}
	base, _ := tag.Base()
	if rate, ok := t.rates[base.String()]; ok {
		return rate
	}
	return fallback
}

// Fallback returns the rate used for unlisted languages.
func (t Table) Fallback() time.Duration {
	if t.fallback <= 0 {
		return DefaultRate
	}
	return t.fallback
}

// Languages returns the table entries sorted by code.
func (t Table) Languages() []LanguageRate {
	out := make([]LanguageRate, 0, len(t.rates))
	for code, rate := range t.rates {
		out = append(out, LanguageRate{Code: code, Rate: rate})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// tableFile is the on-disk form of a table, with rates in milliseconds.
type tableFile struct {
	Default   int            `yaml:"default"`
	Languages map[string]int `yaml:"languages"`
}

// LoadTable reads a YAML pacing table:
//
//	default: 65
//	languages:
//	  es: 62
//	  en: 60
func LoadTable(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Table{}, fmt.Errorf("unable to read pacing table: %w", err)
	}
	return ParseTable(data)
}

// ParseTable decodes a YAML pacing table.
func ParseTable(data []byte) (Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Table{}, fmt.Errorf("unable to parse pacing table: %w", err)
	}
	if f.Default < 0 {
		return Table{}, fmt.Errorf("pacing table default must not be negative, got %d", f.Default)
	}

	rates := make(map[string]time.Duration, len(f.Languages))
	for code, ms := range f.Languages {
		if ms <= 0 {
			return Table{}, fmt.Errorf("pacing table rate for %q must be positive, got %d", code, ms)
		}
		rates[code] = time.Duration(ms) * time.Millisecond
	}
	return NewTable(time.Duration(f.Default)*time.Millisecond, rates), nil
}

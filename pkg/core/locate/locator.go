// Package locate finds numeric values next to financial line-item labels in
// flat statement text.
package locate

import (
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"
)

// Mode selects how many candidates Locate returns.
type Mode int

const (
	// Single returns at most the first parseable candidate.
	Single Mode = iota
	// All returns every non-overlapping match in document order.
	All
)

func (m Mode) String() string {
	if m == All {
		return "all"
	}
	return "single"
}

// ParseMode maps "single"/"all" to a Mode; anything else is Single.
func ParseMode(s string) Mode {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return All
	}
	return Single
}

// DefaultContextWindow is the number of characters kept on each side of a
// label occurrence in diagnostics.
const DefaultContextWindow = 30

// Candidate is an unvalidated label/value match.
type Candidate struct {
	Label   string  `json:"label"`
	Raw     string  `json:"raw"`
	Value   float64 `json:"value"`
	Context string  `json:"context"`
	Offset  int     `json:"offset"` // byte offset of the numeric token
	Line    int     `json:"line"`   // 1-based line of the numeric token
}

// Result is the outcome of one Locate call.
type Result struct {
	Candidates []Candidate `json:"candidates"`
	// Contexts lists text windows around raw label occurrences. Only filled
	// when no candidate was found.
	Contexts []string `json:"contexts,omitempty"`
	// HintLine is the most plausible line for the label when no candidate
	// was found (0 if the label does not occur).
	HintLine int `json:"hint_line,omitempty"`
}

// Found reports whether at least one candidate was located.
func (r Result) Found() bool { return len(r.Candidates) > 0 }

// Locator matches labels against text. It is safe for concurrent use.
type Locator struct {
	Mode          Mode
	ContextWindow int
}

// New creates a Locator with the default context window.
func New(mode Mode) *Locator {
	return &Locator{Mode: mode, ContextWindow: DefaultContextWindow}
}

var (
	patternMu    sync.RWMutex
	patternCache = map[string]*regexp.Regexp{}
)

// valuePattern matches the label followed by optional whitespace/colons, an
// optional currency symbol and the numeric token.
func valuePattern(label string) *regexp.Regexp {
	key := strings.ToLower(label)
	patternMu.RLock()
	re, ok := patternCache[key]
	patternMu.RUnlock()
	if ok {
		return re
	}

	re = regexp.MustCompile(`(?i)` + regexp.QuoteMeta(label) + `[\s:]*[$€£₹]?\s*(\d[\d,.]*)`)
	patternMu.Lock()
	patternCache[key] = re
	patternMu.Unlock()
	return re
}

// Locate scans text for the label and returns candidates per the Mode.
func (l *Locator) Locate(text, label string) Result {
	label = strings.TrimSpace(label)
	if label == "" || text == "" {
		return Result{}
	}

	var res Result
	for _, m := range valuePattern(label).FindAllStringSubmatchIndex(text, -1) {
		// a trailing separator belongs to the sentence, not the number
		raw := strings.TrimRight(text[m[2]:m[3]], ".,")
		val, err := ParseNumber(raw)
		if err != nil {
			continue
		}
		res.Candidates = append(res.Candidates, Candidate{
			Label:   label,
			Raw:     raw,
			Value:   val,
			Context: window(text, m[0], m[1], l.window()),
			Offset:  m[2],
			Line:    lineAt(text, m[2]),
		})
		if l.Mode == Single {
			break
		}
	}

	if len(res.Candidates) == 0 {
		res.Contexts = Contexts(text, label, l.window())
		res.HintLine = FindLineNumber(text, label)
	}
	return res
}

func (l *Locator) window() int {
	if l.ContextWindow <= 0 {
		return DefaultContextWindow
	}
	return l.ContextWindow
}

// Contexts returns ±width character windows around every case-insensitive
// occurrence of the label, whether or not a number follows it.
func Contexts(text, label string, width int) []string {
	if label == "" {
		return nil
	}
	re := regexp.MustCompile(`(?i)` + regexp.QuoteMeta(label))
	var out []string
	for _, m := range re.FindAllStringIndex(text, -1) {
		out = append(out, window(text, m[0], m[1], width))
	}
	return out
}

// window cuts text[start-width : end+width], moved onto rune boundaries.
func window(text string, start, end, width int) string {
	lo := start - width
	if lo < 0 {
		lo = 0
	}
	hi := end + width
	if hi > len(text) {
		hi = len(text)
	}
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	return text[lo:hi]
}

func lineAt(text string, offset int) int {
	return strings.Count(text[:offset], "\n") + 1
}

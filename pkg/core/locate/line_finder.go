package locate

import (
	"regexp"
	"strings"
)

// figurePattern matches one monetary figure: "1,234", "$1,234.5", "(1,234)".
// Single digits are left out so note and page references do not count.
var figurePattern = regexp.MustCompile(`\(?[$€£₹]?\d[\d,]*\d(?:\.\d+)?\)?`)

// Line ranks, best first.
const (
	rankRow     = iota // label followed by two or more figures
	rankFigure         // label followed by one figure
	rankMention        // label with figures only before it, or none
	rankNone
)

// FindLineNumber returns the 1-based line that most plausibly holds the
// label's figures, or 0 if the label never occurs. Case-insensitive.
//
// HTML and Markdown tables reach here flattened to one line per row
// ("Net Income 1,200 1,000"), so a label followed by several figures is
// taken as the statement row; the first such line wins, then the first line
// with a single trailing figure, then the first mention.
func FindLineNumber(text string, label string) int {
	needle := strings.ToLower(strings.TrimSpace(label))
	if needle == "" || text == "" {
		return 0
	}

	best, bestRank := 0, rankNone
	for i, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		idx := strings.Index(lower, needle)
		if idx < 0 {
			continue
		}
		rank := rankLine(lower[idx+len(needle):])
		if rank < bestRank {
			best, bestRank = i+1, rank
			if rank == rankRow {
				break
			}
		}
	}
	return best
}

// rankLine classifies the text after the label. Markdown cell bars are
// treated as spaces.
func rankLine(rest string) int {
	switch n := len(figurePattern.FindAllString(strings.ReplaceAll(rest, "|", " "), 3)); {
	case n >= 2:
		return rankRow
	case n == 1:
		return rankFigure
	}
	return rankMention
}

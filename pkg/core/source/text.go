package source

import "strings"

// splitPlainText normalizes line endings and splits on form feeds, which
// text dumps of paged documents use as page breaks.
func splitPlainText(data []byte) []string {
	s := strings.ReplaceAll(string(data), "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	pages := strings.Split(s, "\f")
	for i := range pages {
		pages[i] = strings.Trim(pages[i], "\n")
	}
	return pages
}

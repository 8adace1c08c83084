package source

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var blockTags = map[string]bool{
	"p": true, "div": true, "tr": true, "li": true, "br": true, "table": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"section": true, "article": true, "header": true, "footer": true, "pre": true,
	"thead": true, "tbody": true, "ul": true, "ol": true, "dt": true, "dd": true,
}

// ExtractHTML flattens an HTML statement into lines: block elements end a
// line and table cells in a row are joined with spaces, so a line item label
// and its figures stay on the same line.
func ExtractHTML(data []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}
	doc.Find("script, style, noscript, head, template").Remove()

	var sb strings.Builder
	writeHTMLText(&sb, doc.Selection)
	return tidyLines(sb.String()), nil
}

func writeHTMLText(sb *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, c *goquery.Selection) {
		name := goquery.NodeName(c)
		if name == "#text" {
			sb.WriteString(c.Text())
			return
		}
		writeHTMLText(sb, c)
		switch {
		case name == "td" || name == "th":
			sb.WriteByte(' ')
		case blockTags[name]:
			sb.WriteByte('\n')
		}
	})
}

// tidyLines collapses runs of whitespace inside lines and drops blank lines.
func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, l := range lines {
		l = strings.Join(strings.Fields(l), " ")
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

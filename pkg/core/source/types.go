// Package source normalizes statement documents (PDF, scans, HTML, Markdown,
// plain text) into one flat text blob per document.
package source

import (
	"fmt"
	"sort"
	"strings"
)

// Kind identifies the input format of a document.
type Kind string

const (
	KindUnknown  Kind = ""
	KindPDF      Kind = "pdf"
	KindHTML     Kind = "html"
	KindMarkdown Kind = "markdown"
	KindText     Kind = "text"
	KindImage    Kind = "image"
)

// Extraction strategies for PDF documents.
const (
	StrategyAuto = "auto" // text layer, falling back to OCR when it is too thin
	StrategyText = "text" // text layer only
	StrategyOCR  = "ocr"  // page images through an OCR engine
)

// Document is one uploaded statement. It is consumed once by an Adapter.
type Document struct {
	Name string
	Kind Kind // optional; detected from Name and content when empty
	Data []byte
}

// ExtractedText is the flat text of a document. Pages are joined with "\n"
// and PageOffsets records where each page starts in Text.
type ExtractedText struct {
	Text        string
	PageOffsets []int
	Strategy    string
	// Warnings holds non-fatal problems such as an unavailable OCR engine.
	Warnings []error
}

// NewExtractedText joins page texts in order with a line break between pages.
func NewExtractedText(pages []string, strategy string) *ExtractedText {
	var sb strings.Builder
	offsets := make([]int, 0, len(pages))
	for i, p := range pages {
		if i > 0 {
			sb.WriteByte('\n')
		}
		offsets = append(offsets, sb.Len())
		sb.WriteString(p)
	}
	return &ExtractedText{Text: sb.String(), PageOffsets: offsets, Strategy: strategy}
}

// Pages returns the number of pages that contributed text.
func (e *ExtractedText) Pages() int {
	return len(e.PageOffsets)
}

// PageAt returns the 1-based page containing the byte offset, or 0 when the
// text carries no page information.
func (e *ExtractedText) PageAt(offset int) int {
	if len(e.PageOffsets) == 0 || offset < 0 {
		return 0
	}
	// first page start strictly greater than offset, minus one
	i := sort.Search(len(e.PageOffsets), func(i int) bool { return e.PageOffsets[i] > offset })
	if i == 0 {
		return 1
	}
	return i
}

// Preview returns at most n bytes of the text, cut on a rune boundary.
func (e *ExtractedText) Preview(n int) string {
	if n <= 0 || len(e.Text) <= n {
		return e.Text
	}
	cut := n
	for cut > 0 && !utf8RuneStart(e.Text[cut]) {
		cut--
	}
	return e.Text[:cut]
}

func utf8RuneStart(b byte) bool { return b&0xC0 != 0x80 }

// UnreadableDocumentError means the document could not be opened or decoded.
// It is fatal for the document.
type UnreadableDocumentError struct {
	Name   string
	Reason string
	Err    error
}

func (e *UnreadableDocumentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unreadable document %q: %s: %v", e.Name, e.Reason, e.Err)
	}
	return fmt.Sprintf("unreadable document %q: %s", e.Name, e.Reason)
}

func (e *UnreadableDocumentError) Unwrap() error { return e.Err }

// EngineUnavailableError means the OCR backend is missing or misconfigured.
// Extraction continues with empty text.
type EngineUnavailableError struct {
	Engine string
	Err    error
}

func (e *EngineUnavailableError) Error() string {
	return fmt.Sprintf("ocr engine %q unavailable: %v", e.Engine, e.Err)
}

func (e *EngineUnavailableError) Unwrap() error { return e.Err }

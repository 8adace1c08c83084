package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"equiintel/pkg/core/ocr"
)

// Adapter turns one document into its flat text.
type Adapter interface {
	Extract(ctx context.Context, doc Document) (*ExtractedText, error)
}

// Options controls the extraction policy.
type Options struct {
	Strategy     string // auto | text | ocr
	MinTextChars int    // auto: below this the text layer counts as unusable
	PreviewChars int    // characters of text logged for operators
}

// DefaultOptions mirrors the shipped configuration.
func DefaultOptions() Options {
	return Options{Strategy: StrategyAuto, MinTextChars: 50, PreviewChars: 2000}
}

// PolicyAdapter selects an extraction strategy per document kind.
type PolicyAdapter struct {
	opts   Options
	engine ocr.Engine // may be nil; OCR then degrades to empty text
	logger *slog.Logger
}

var _ Adapter = (*PolicyAdapter)(nil)

// NewAdapter creates a PolicyAdapter. engine may be nil.
func NewAdapter(engine ocr.Engine, opts Options) *PolicyAdapter {
	if opts.Strategy == "" {
		opts.Strategy = StrategyAuto
	}
	return &PolicyAdapter{opts: opts, engine: engine, logger: slog.Default()}
}

// WithLogger replaces the diagnostics logger.
func (a *PolicyAdapter) WithLogger(l *slog.Logger) *PolicyAdapter {
	a.logger = l
	return a
}

// Strategy returns the configured PDF strategy.
func (a *PolicyAdapter) Strategy() string { return a.opts.Strategy }

// Extract implements Adapter.
func (a *PolicyAdapter) Extract(ctx context.Context, doc Document) (*ExtractedText, error) {
	if len(doc.Data) == 0 {
		return nil, &UnreadableDocumentError{Name: doc.Name, Reason: "empty document"}
	}

	kind := DetectKind(doc)
	logCtx := a.logger.With("document", doc.Name, "kind", string(kind), "bytes", len(doc.Data))

	var (
		et  *ExtractedText
		err error
	)
	switch kind {
	case KindPDF:
		et, err = a.extractPDF(ctx, doc, logCtx)
	case KindHTML:
		var s string
		s, err = ExtractHTML(doc.Data)
		if err != nil {
			err = &UnreadableDocumentError{Name: doc.Name, Reason: "invalid HTML", Err: err}
		} else {
			et = NewExtractedText([]string{s}, "html")
		}
	case KindMarkdown:
		et = NewExtractedText([]string{ExtractMarkdown(doc.Data)}, "markdown")
	case KindText:
		et = NewExtractedText(splitPlainText(doc.Data), "text")
	case KindImage:
		img := ocr.Image{Page: 1, Data: doc.Data, MIME: imageMIME(doc)}
		pages, warnings := a.recognize(ctx, []ocr.Image{img}, 1, logCtx)
		et = NewExtractedText(pages, StrategyOCR)
		et.Warnings = warnings
	default:
		err = &UnreadableDocumentError{Name: doc.Name, Reason: "unsupported document format"}
	}
	if err != nil {
		logCtx.Error("Text extraction failed.", "error", err)
		return nil, err
	}

	logCtx.Info("Text extracted.",
		"strategy", et.Strategy,
		"pages", et.Pages(),
		"chars", len(et.Text),
		"warnings", len(et.Warnings),
	)
	logCtx.Debug("Extracted text preview.", "preview", et.Preview(a.opts.PreviewChars))
	return et, nil
}

func (a *PolicyAdapter) extractPDF(ctx context.Context, doc Document, logCtx *slog.Logger) (*ExtractedText, error) {
	pageCount, countErr := pdfPageCount(doc.Data)
	if countErr != nil {
		logCtx.Warn("PDF structure validation failed.", "error", countErr)
	} else {
		logCtx = logCtx.With("pageCount", pageCount)
	}

	if a.opts.Strategy == StrategyOCR {
		if countErr != nil {
			return nil, &UnreadableDocumentError{Name: doc.Name, Reason: "corrupt PDF", Err: countErr}
		}
		pages, warnings, err := a.ocrPDF(ctx, doc, pageCount, logCtx)
		if err != nil {
			return nil, err
		}
		et := NewExtractedText(pages, StrategyOCR)
		et.Warnings = warnings
		return et, nil
	}

	pages, err := pdfTextPages(doc.Data)
	if err != nil {
		if countErr != nil {
			return nil, &UnreadableDocumentError{Name: doc.Name, Reason: "corrupt PDF", Err: err}
		}
		// structurally fine but no readable text layer
		logCtx.Warn("Text layer unreadable.", "error", err)
		pages = nil
	}

	if a.opts.Strategy == StrategyText {
		return NewExtractedText(pages, StrategyText), nil
	}

	if joinedLen(pages) >= a.opts.MinTextChars {
		return NewExtractedText(pages, StrategyText), nil
	}

	logCtx.Info("Text layer too thin, falling back to OCR.", "chars", joinedLen(pages), "min", a.opts.MinTextChars)
	if countErr != nil {
		return nil, &UnreadableDocumentError{Name: doc.Name, Reason: "corrupt PDF", Err: countErr}
	}
	ocrPages, warnings, err := a.ocrPDF(ctx, doc, pageCount, logCtx)
	if err != nil {
		return nil, err
	}

	merged, fromOCR := mergePages(pages, ocrPages)
	strategy := StrategyOCR
	if fromOCR == 0 && joinedLen(pages) > 0 {
		strategy = StrategyText
	}
	logCtx.Info("Pages merged.", "ocrPages", fromOCR, "textPages", len(merged)-fromOCR)
	et := NewExtractedText(merged, strategy)
	et.Warnings = warnings
	return et, nil
}

func (a *PolicyAdapter) ocrPDF(ctx context.Context, doc Document, pageCount int, logCtx *slog.Logger) ([]string, []error, error) {
	images, err := pdfPageImages(doc.Data)
	if err != nil {
		return nil, nil, &UnreadableDocumentError{Name: doc.Name, Reason: "cannot rasterize pages", Err: err}
	}
	logCtx.Info("Page images extracted.", "images", len(images))
	pages, warnings := a.recognize(ctx, images, pageCount, logCtx)
	return pages, warnings, nil
}

// recognize runs the images sequentially through the single OCR engine and
// returns one entry per page: each text lands at its image's page number and
// pages without an image stay empty. An unavailable engine yields all-empty
// pages with the error recorded as a warning.
func (a *PolicyAdapter) recognize(ctx context.Context, images []ocr.Image, pageCount int, logCtx *slog.Logger) ([]string, []error) {
	n := pageCount
	for _, img := range images {
		if img.Page > n {
			n = img.Page
		}
	}
	pages := make([]string, n)

	if a.engine == nil {
		logCtx.Warn("No OCR engine configured; continuing with empty text.")
		return pages, []error{&EngineUnavailableError{Engine: "none", Err: errors.New("no OCR engine configured")}}
	}
	if err := a.engine.Available(ctx); err != nil {
		logCtx.Warn("OCR engine unavailable; continuing with empty text.", "engine", a.engine.Name(), "error", err)
		return pages, []error{&EngineUnavailableError{Engine: a.engine.Name(), Err: err}}
	}

	var warnings []error
	for _, img := range images {
		if img.Page < 1 {
			warnings = append(warnings, errors.New("image without page number skipped"))
			continue
		}
		text, err := a.engine.Recognize(ctx, img)
		if err != nil && !errors.Is(err, ocr.ErrNoText) {
			logCtx.Warn("OCR failed for page.", "page", img.Page, "error", err)
			warnings = append(warnings, fmt.Errorf("page %d: %w", img.Page, err))
		}
		pages[img.Page-1] = text
	}
	return pages, warnings
}

// mergePages takes the OCR text of a page when there is any and the text
// layer otherwise. It also reports how many pages came from OCR.
func mergePages(textPages, ocrPages []string) ([]string, int) {
	n := len(textPages)
	if len(ocrPages) > n {
		n = len(ocrPages)
	}
	merged := make([]string, n)
	fromOCR := 0
	for i := range merged {
		if i < len(ocrPages) && strings.TrimSpace(ocrPages[i]) != "" {
			merged[i] = ocrPages[i]
			fromOCR++
			continue
		}
		if i < len(textPages) {
			merged[i] = textPages[i]
		}
	}
	return merged, fromOCR
}

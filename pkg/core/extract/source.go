package extract

import (
	"context"

	"equiintel/pkg/core/align"
	"equiintel/pkg/core/locate"
	"equiintel/pkg/core/source"
)

// Lookup is what a source knows about one label.
type Lookup struct {
	Series   align.TimeSeries
	Contexts []string
	HintLine int
}

// SeriesSource is the capability every data source offers: fetch the time
// series of one label. Implementations must be safe for concurrent calls
// with different labels.
type SeriesSource interface {
	Name() string
	FetchSeries(ctx context.Context, label Label) (Lookup, error)
}

// TextSource locates labels in one document's extracted text and aligns the
// values with the document's dates.
type TextSource struct {
	text    *source.ExtractedText
	locator *locate.Locator
	aligner align.Strategy
	dates   []align.DateMark
}

var _ SeriesSource = (*TextSource)(nil)

// NewTextSource scans the document dates once; they are shared by all labels.
func NewTextSource(et *source.ExtractedText, loc *locate.Locator, aligner align.Strategy) *TextSource {
	if aligner == nil {
		aligner = align.Positional{}
	}
	if loc == nil {
		loc = locate.New(locate.Single)
	}
	return &TextSource{
		text:    et,
		locator: loc,
		aligner: aligner,
		dates:   align.ScanDates(et.Text),
	}
}

func (s *TextSource) Name() string { return "text" }

// Dates returns the dates found in the document.
func (s *TextSource) Dates() []align.DateMark { return s.dates }

// FetchSeries implements SeriesSource. It only reads shared immutable state.
func (s *TextSource) FetchSeries(_ context.Context, label Label) (Lookup, error) {
	res := s.locator.Locate(s.text.Text, string(label))
	return Lookup{
		Series:   s.aligner.Align(s.dates, res.Candidates, s.text.PageAt),
		Contexts: res.Contexts,
		HintLine: res.HintLine,
	}, nil
}

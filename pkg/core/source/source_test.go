package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"equiintel/pkg/core/ocr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEngine struct {
	text     string
	availErr error
	calls    int
	pages    []int
}

func (f *fakeEngine) Name() string { return "fake" }

func (f *fakeEngine) Available(context.Context) error { return f.availErr }

func (f *fakeEngine) Recognize(_ context.Context, img ocr.Image) (string, error) {
	f.calls++
	f.pages = append(f.pages, img.Page)
	return f.text, nil
}

var pngMagic = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestDetectKind(t *testing.T) {
	cases := []struct {
		name string
		doc  Document
		want Kind
	}{
		{"explicit kind wins", Document{Name: "a.pdf", Kind: KindText}, KindText},
		{"pdf extension", Document{Name: "Annual.PDF"}, KindPDF},
		{"markdown extension", Document{Name: "notes.md"}, KindMarkdown},
		{"pdf magic", Document{Name: "upload", Data: []byte("%PDF-1.7\n...")}, KindPDF},
		{"html sniff", Document{Name: "upload", Data: []byte("<html><body>x</body></html>")}, KindHTML},
		{"png sniff", Document{Name: "upload", Data: pngMagic}, KindImage},
		{"text sniff", Document{Name: "upload", Data: []byte("Net Income 100")}, KindText},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectKind(tc.doc))
		})
	}
}

func TestExtract_PlainTextPages(t *testing.T) {
	a := NewAdapter(nil, DefaultOptions())
	et, err := a.Extract(context.Background(), Document{
		Name: "s.txt",
		Data: []byte("Net Income 100\r\nTotal Assets 900\fCurrent Liabilities 200\n"),
	})
	require.NoError(t, err)

	assert.Equal(t, "text", et.Strategy)
	assert.Equal(t, 2, et.Pages())
	assert.Equal(t, "Net Income 100\nTotal Assets 900\nCurrent Liabilities 200", et.Text)
	assert.Equal(t, 1, et.PageAt(0))
	assert.Equal(t, 2, et.PageAt(len("Net Income 100\nTotal Assets 900\n")))
	assert.Empty(t, et.Warnings)
}

func TestExtract_HTMLKeepsRowsOnOneLine(t *testing.T) {
	html := `<html><head><style>p{}</style></head><body>
<h1>Statement</h1>
<table>
  <tr><th>Item</th><th>2023</th><th>2022</th></tr>
  <tr><td>Net Income</td><td>1,200</td><td>1,000</td></tr>
</table>
<script>var x = 1;</script>
</body></html>`
	et, err := NewAdapter(nil, DefaultOptions()).Extract(context.Background(), Document{Name: "s.html", Data: []byte(html)})
	require.NoError(t, err)

	assert.Equal(t, "html", et.Strategy)
	assert.Contains(t, et.Text, "Net Income 1,200 1,000")
	assert.NotContains(t, et.Text, "var x")
	assert.NotContains(t, et.Text, "p{}")
}

func TestExtract_MarkdownTable(t *testing.T) {
	md := "```markdown\n# Results\n\n| Item | 2023 |\n|---|---|\n| **Net Income** | 1,200 |\n```"
	et, err := NewAdapter(nil, DefaultOptions()).Extract(context.Background(), Document{Name: "s.md", Data: []byte(md)})
	require.NoError(t, err)

	assert.Equal(t, "markdown", et.Strategy)
	assert.Contains(t, et.Text, "Results")
	assert.Contains(t, et.Text, "Net Income 1,200")
	assert.NotContains(t, et.Text, "**")
	assert.NotContains(t, et.Text, "|")
}

func TestExtract_ImageUsesEngine(t *testing.T) {
	eng := &fakeEngine{text: "Net Income 42"}
	et, err := NewAdapter(eng, DefaultOptions()).Extract(context.Background(), Document{Name: "scan.png", Data: pngMagic})
	require.NoError(t, err)

	assert.Equal(t, 1, eng.calls)
	assert.Equal(t, StrategyOCR, et.Strategy)
	assert.Equal(t, "Net Income 42", et.Text)
}

func TestExtract_UnavailableEngineDegrades(t *testing.T) {
	eng := &fakeEngine{availErr: errors.New("binary missing")}
	et, err := NewAdapter(eng, DefaultOptions()).Extract(context.Background(), Document{Name: "scan.png", Data: pngMagic})
	require.NoError(t, err)

	assert.Empty(t, et.Text)
	require.Len(t, et.Warnings, 1)
	var unavailable *EngineUnavailableError
	require.ErrorAs(t, et.Warnings[0], &unavailable)
	assert.Equal(t, "fake", unavailable.Engine)
	assert.Zero(t, eng.calls)
}

func TestExtract_NoEngineDegrades(t *testing.T) {
	et, err := NewAdapter(nil, DefaultOptions()).Extract(context.Background(), Document{Name: "scan.jpg", Data: []byte("\xff\xd8\xff")})
	require.NoError(t, err)

	require.Len(t, et.Warnings, 1)
	var unavailable *EngineUnavailableError
	assert.ErrorAs(t, et.Warnings[0], &unavailable)
}

func TestExtract_UnreadableDocuments(t *testing.T) {
	a := NewAdapter(nil, DefaultOptions())
	var unreadable *UnreadableDocumentError

	_, err := a.Extract(context.Background(), Document{Name: "empty.txt"})
	require.ErrorAs(t, err, &unreadable)
	assert.Equal(t, "empty document", unreadable.Reason)

	_, err = a.Extract(context.Background(), Document{Name: "blob.bin", Data: []byte{0x00, 0x01, 0x02, 0x03}})
	assert.ErrorAs(t, err, &unreadable)

	_, err = a.Extract(context.Background(), Document{Name: "broken.pdf", Data: []byte("%PDF-1.4\nnot really a pdf")})
	assert.ErrorAs(t, err, &unreadable)
}

func TestPageAtAndPreview(t *testing.T) {
	et := NewExtractedText([]string{"abc", "déf"}, "text")
	assert.Equal(t, []int{0, 4}, et.PageOffsets)
	assert.Equal(t, 1, et.PageAt(3))
	assert.Equal(t, 2, et.PageAt(4))
	assert.Equal(t, 2, et.PageAt(100))
	assert.Equal(t, 0, et.PageAt(-1))
	assert.Equal(t, 0, NewExtractedText(nil, "ocr").PageAt(0))

	// "é" spans bytes 5-6; a cut at 6 falls back to the rune start
	assert.Equal(t, "abc\nd", et.Preview(6))
	assert.Equal(t, et.Text, et.Preview(0))
	assert.Equal(t, et.Text, et.Preview(1000))
}

func TestCleanMarkdown(t *testing.T) {
	assert.Equal(t, "# A", CleanMarkdown("```markdown\n# A\n```"))
	assert.Equal(t, "# A", CleanMarkdown("```\n# A\n```"))
	assert.Equal(t, "# A", CleanMarkdown("  # A  "))
}

func readFixture(t *testing.T, name string) Document {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return Document{Name: name, Data: data}
}

func TestExtract_TextPDFKeepsPageOrder(t *testing.T) {
	eng := &fakeEngine{text: "should not be used"}
	et, err := NewAdapter(eng, DefaultOptions()).Extract(context.Background(), readFixture(t, "text_2page.pdf"))
	require.NoError(t, err)

	assert.Equal(t, StrategyText, et.Strategy)
	assert.Zero(t, eng.calls)
	require.Equal(t, 2, et.Pages())

	revenue := strings.Index(et.Text, "Revenue")
	netIncome := strings.Index(et.Text, "Net Income")
	require.GreaterOrEqual(t, revenue, 0, et.Text)
	require.Greater(t, netIncome, revenue, et.Text)
	assert.Equal(t, byte('\n'), et.Text[et.PageOffsets[1]-1])
	assert.Equal(t, 1, et.PageAt(revenue))
	assert.Equal(t, 2, et.PageAt(netIncome))
}

func TestExtract_TextPDFStrategies(t *testing.T) {
	doc := readFixture(t, "text_2page.pdf")

	et, err := NewAdapter(nil, Options{Strategy: StrategyText}).Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Contains(t, et.Text, "Total Assets")

	// the text pages carry no images, so OCR leaves both pages empty
	eng := &fakeEngine{text: "unused"}
	et, err = NewAdapter(eng, Options{Strategy: StrategyOCR}).Extract(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, StrategyOCR, et.Strategy)
	assert.Equal(t, 2, et.Pages())
	assert.Zero(t, eng.calls)
}

func TestExtract_ScannedPageFallsBackToOCR(t *testing.T) {
	eng := &fakeEngine{text: "Net Income 1,200 1,000"}
	et, err := NewAdapter(eng, DefaultOptions()).Extract(context.Background(), readFixture(t, "scanned_page2.pdf"))
	require.NoError(t, err)

	assert.Equal(t, StrategyOCR, et.Strategy)
	assert.Equal(t, []int{2}, eng.pages)
	require.Equal(t, 2, et.Pages())

	// page 1 keeps its text layer, page 2 is the scan
	title := strings.Index(et.Text, "Annual Report 2024")
	netIncome := strings.Index(et.Text, "Net Income 1,200 1,000")
	require.GreaterOrEqual(t, title, 0, et.Text)
	require.Greater(t, netIncome, title, et.Text)
	assert.Equal(t, 1, et.PageAt(title))
	assert.Equal(t, 2, et.PageAt(netIncome))
	assert.Equal(t, et.PageOffsets[1], netIncome)
}

func TestExtract_ScannedPageWithoutEngineKeepsTextLayer(t *testing.T) {
	et, err := NewAdapter(nil, DefaultOptions()).Extract(context.Background(), readFixture(t, "scanned_page2.pdf"))
	require.NoError(t, err)

	assert.Equal(t, StrategyText, et.Strategy)
	assert.Contains(t, et.Text, "Annual Report 2024")
	require.Len(t, et.Warnings, 1)
	var unavailable *EngineUnavailableError
	assert.ErrorAs(t, et.Warnings[0], &unavailable)
}

func TestRecognize_PlacesTextByPageNumber(t *testing.T) {
	eng := &fakeEngine{text: "scan"}
	a := NewAdapter(eng, DefaultOptions())

	images := []ocr.Image{{Page: 3, Data: pngMagic}, {Page: 1, Data: pngMagic}}
	pages, warnings := a.recognize(context.Background(), images, 4, a.logger)
	assert.Empty(t, warnings)
	assert.Equal(t, []string{"scan", "", "scan", ""}, pages)
	assert.Equal(t, []int{3, 1}, eng.pages)

	// an image past the reported page count still gets its own page
	pages, _ = a.recognize(context.Background(), []ocr.Image{{Page: 2}}, 1, a.logger)
	assert.Equal(t, []string{"", "scan"}, pages)
}

func TestMergePages(t *testing.T) {
	tests := []struct {
		name        string
		text, ocr   []string
		want        []string
		wantFromOCR int
	}{
		{"ocr fills scanned pages", []string{"cover", ""}, []string{"", "Net Income 5"}, []string{"cover", "Net Income 5"}, 1},
		{"ocr wins when both present", []string{"garbled"}, []string{"clean"}, []string{"clean"}, 1},
		{"blank ocr keeps text layer", []string{"a", "b"}, []string{" ", ""}, []string{"a", "b"}, 0},
		{"uneven lengths", []string{"a"}, []string{"", "", "c"}, []string{"a", "", "c"}, 1},
		{"no text layer", nil, []string{"x"}, []string{"x"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fromOCR := mergePages(tt.text, tt.ocr)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantFromOCR, fromOCR)
		})
	}
}

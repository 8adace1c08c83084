package source

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"equiintel/pkg/core/ocr"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func relaxedConfig() *model.Configuration {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	return cfg
}

// pdfPageCount validates the PDF structure and returns its page count.
func pdfPageCount(data []byte) (int, error) {
	return api.PageCount(bytes.NewReader(data), relaxedConfig())
}

// pdfTextPages reads the native text layer page by page. Pages without a
// usable text layer yield an empty string so page numbering is preserved.
// Recovers from panics (e.g. zlib: invalid header) caused by corrupt PDFs.
func pdfTextPages(data []byte) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("panic during PDF text extraction: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	total := r.NumPage()
	pages = make([]string, 0, total)
	for i := 1; i <= total; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, pageErr := page.GetPlainText(nil)
		if pageErr != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// pdfPageImages pulls the raster image of every page that has one, tagged
// with its page number. A scanned page carries
// its scan as an embedded image at native resolution; when a page holds
// several images the largest one is taken as the page scan.
func pdfPageImages(data []byte) ([]ocr.Image, error) {
	perPage, err := api.ExtractImagesRaw(bytes.NewReader(data), nil, relaxedConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to extract page images: %w", err)
	}

	best := make(map[int]model.Image)
	for _, images := range perPage {
		for _, img := range images {
			cur, ok := best[img.PageNr]
			if !ok || img.Width*img.Height > cur.Width*cur.Height {
				best[img.PageNr] = img
			}
		}
	}

	pageNrs := make([]int, 0, len(best))
	for nr := range best {
		pageNrs = append(pageNrs, nr)
	}
	sort.Ints(pageNrs)

	out := make([]ocr.Image, 0, len(pageNrs))
	for _, nr := range pageNrs {
		img := best[nr]
		if img.Reader == nil {
			continue
		}
		raw, err := io.ReadAll(img.Reader)
		if err != nil {
			return nil, fmt.Errorf("failed to read image on page %d: %w", nr, err)
		}
		out = append(out, ocr.Image{Page: nr, Data: raw, MIME: mimeForFileType(img.FileType)})
	}
	return out, nil
}

func mimeForFileType(ft string) string {
	switch strings.ToLower(strings.TrimPrefix(ft, ".")) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "tif", "tiff":
		return "image/tiff"
	case "jpx", "jp2":
		return "image/jp2"
	default:
		return "image/png"
	}
}

func joinedLen(pages []string) int {
	n := 0
	for _, p := range pages {
		n += len(strings.TrimSpace(p))
	}
	return n
}

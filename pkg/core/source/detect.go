package source

import (
	"bytes"
	"net/http"
	"path/filepath"
	"strings"
)

var extKinds = map[string]Kind{
	".pdf":      KindPDF,
	".html":     KindHTML,
	".htm":      KindHTML,
	".xhtml":    KindHTML,
	".md":       KindMarkdown,
	".markdown": KindMarkdown,
	".txt":      KindText,
	".text":     KindText,
	".png":      KindImage,
	".jpg":      KindImage,
	".jpeg":     KindImage,
	".tif":      KindImage,
	".tiff":     KindImage,
}

// DetectKind resolves the document format: explicit Kind, then file
// extension, then content sniffing.
func DetectKind(doc Document) Kind {
	if doc.Kind != KindUnknown {
		return doc.Kind
	}
	if k, ok := extKinds[strings.ToLower(filepath.Ext(doc.Name))]; ok {
		return k
	}
	if bytes.HasPrefix(bytes.TrimLeft(doc.Data, " \t\r\n"), []byte("%PDF")) {
		return KindPDF
	}

	ct := http.DetectContentType(doc.Data)
	switch {
	case strings.HasPrefix(ct, "text/html"):
		return KindHTML
	case strings.HasPrefix(ct, "image/"):
		return KindImage
	case strings.HasPrefix(ct, "text/plain"):
		return KindText
	}
	return KindUnknown
}

// imageMIME guesses the MIME type of a standalone image upload.
func imageMIME(doc Document) string {
	switch strings.ToLower(filepath.Ext(doc.Name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".tif", ".tiff":
		return "image/tiff"
	}
	return http.DetectContentType(doc.Data)
}

package ocr

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// TesseractEngine runs the tesseract CLI. The image is piped on stdin and the
// recognized text is read from stdout.
type TesseractEngine struct {
	// Path of the tesseract binary (default: "tesseract" on PATH)
	Path string
	// Language passed with -l (default: "eng")
	Language string
	// PageSegMode passed with --psm; 0 leaves tesseract's default
	PageSegMode int
	// Timeout per page (default: 60s)
	Timeout time.Duration
}

var _ Engine = (*TesseractEngine)(nil)

// NewTesseractEngine creates a TesseractEngine with default settings.
func NewTesseractEngine(path string) *TesseractEngine {
	if path == "" {
		path = "tesseract"
	}
	return &TesseractEngine{
		Path:     path,
		Language: "eng",
		Timeout:  60 * time.Second,
	}
}

func (t *TesseractEngine) Name() string { return "tesseract" }

// Available checks that the tesseract binary is installed and runnable.
func (t *TesseractEngine) Available(ctx context.Context) error {
	_, err := t.Version(ctx)
	return err
}

// Version returns the first line of `tesseract --version`.
func (t *TesseractEngine) Version(ctx context.Context) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, t.binary(), "--version").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("tesseract not found at %q: %w", t.binary(), err)
	}
	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 && strings.TrimSpace(lines[0]) != "" {
		return strings.TrimSpace(lines[0]), nil
	}
	return "", fmt.Errorf("unable to parse tesseract version")
}

// Recognize runs OCR over a single page image.
func (t *TesseractEngine) Recognize(ctx context.Context, img Image) (string, error) {
	timeout := t.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// tesseract stdin stdout [-l lang] [--psm n]
	cmd := exec.CommandContext(ctx, t.binary(), t.args()...)
	cmd.Stdin = bytes.NewReader(img.Data)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("tesseract timeout after %v on page %d", timeout, img.Page)
		}
		return "", fmt.Errorf("tesseract failed on page %d: %v, stderr: %s", img.Page, err, stderr.String())
	}

	return stdout.String(), nil
}

func (t *TesseractEngine) args() []string {
	args := []string{"stdin", "stdout"}
	if t.Language != "" {
		args = append(args, "-l", t.Language)
	}
	if t.PageSegMode > 0 {
		args = append(args, "--psm", strconv.Itoa(t.PageSegMode))
	}
	return args
}

func (t *TesseractEngine) binary() string {
	if t.Path == "" {
		return "tesseract"
	}
	return t.Path
}

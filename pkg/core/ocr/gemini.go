package ocr

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"google.golang.org/genai"
)

const transcribePrompt = `Transcribe all text on this financial statement page verbatim.
Keep one output line per printed line and keep numbers exactly as printed, including
currency symbols, thousands separators and dates. Output plain text only.`

// GeminiEngine uses a Gemini vision model as an OCR backend.
type GeminiEngine struct {
	Model  string // e.g. "gemini-2.0-flash"
	APIKey string // falls back to GEMINI_API_KEY

	mu     sync.Mutex
	client *genai.Client
}

var _ Engine = (*GeminiEngine)(nil)

// NewGeminiEngine creates a Gemini OCR engine. The client is created lazily.
func NewGeminiEngine(model string) *GeminiEngine {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &GeminiEngine{Model: model}
}

func (g *GeminiEngine) Name() string { return "gemini" }

func (g *GeminiEngine) apiKey() string {
	if g.APIKey != "" {
		return g.APIKey
	}
	return os.Getenv("GEMINI_API_KEY")
}

// Available only checks credentials; it does not spend a request.
func (g *GeminiEngine) Available(ctx context.Context) error {
	if g.apiKey() == "" {
		return fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}
	return nil
}

func (g *GeminiEngine) ensureClient(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.client != nil {
		return nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return fmt.Errorf("failed to create GenAI client: %w", err)
	}
	g.client = client
	return nil
}

// Recognize sends the page image with a transcription prompt.
func (g *GeminiEngine) Recognize(ctx context.Context, img Image) (string, error) {
	if err := g.Available(ctx); err != nil {
		return "", err
	}
	if err := g.ensureClient(ctx); err != nil {
		return "", err
	}

	mime := img.MIME
	if mime == "" {
		mime = "image/png"
	}
	parts := []*genai.Part{
		genai.NewPartFromText(transcribePrompt),
		genai.NewPartFromBytes(img.Data, mime),
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0)),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.Model, contents, config)
	if err != nil {
		return "", fmt.Errorf("gemini transcription failed on page %d: %w", img.Page, err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return "", ErrNoText
	}
	return text, nil
}

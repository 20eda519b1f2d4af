package extract

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/PremSaiBollamoni/tallybridge/internal/invoice"
)

// GeminiModel is the default Gemini model used for page extraction.
const GeminiModel = "gemini-2.5-flash"

// Gemini extracts invoice pages through the Gemini API. The client reads its
// API key from the environment (GEMINI_API_KEY / GOOGLE_API_KEY).
type Gemini struct {
	model string
}

// NewGemini creates a Gemini-backed extractor.
func NewGemini() *Gemini {
	return &Gemini{model: GeminiModel}
}

// ExtractPage implements PageExtractor.
func (g *Gemini) ExtractPage(ctx context.Context, image []byte) (invoice.Record, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return invoice.Record{}, fmt.Errorf("gemini: create client: %w", err)
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: extractionPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: http.DetectContentType(image),
						Data:     image,
					},
				},
			},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return invoice.Record{}, fmt.Errorf("gemini: generate content: %w", err)
	}

	rawText := resp.Text()
	if rawText == "" {
		return invoice.Record{}, fmt.Errorf("gemini: empty response from model")
	}

	rec, err := decodeRecord(rawText)
	if err != nil {
		return invoice.Record{}, fmt.Errorf("gemini: %w", err)
	}
	return rec, nil
}

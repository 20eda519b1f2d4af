package extract

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"

	"github.com/sashabaranov/go-openai"

	"github.com/PremSaiBollamoni/tallybridge/internal/invoice"
)

const (
	deepInfraBaseURL = "https://api.deepinfra.com/v1/openai"

	// DeepInfraModel is the vision model used for page extraction.
	DeepInfraModel = "meta-llama/Llama-4-Maverick-17B-128E-Instruct-FP8"

	deepInfraMaxTokens = 4092
)

// DeepInfra extracts invoice pages through DeepInfra's OpenAI-compatible
// chat-completions API.
type DeepInfra struct {
	client *openai.Client
	model  string
}

// NewDeepInfra creates an extractor authenticated with the given API token.
func NewDeepInfra(token string) *DeepInfra {
	cfg := openai.DefaultConfig(token)
	cfg.BaseURL = deepInfraBaseURL
	return &DeepInfra{
		client: openai.NewClientWithConfig(cfg),
		model:  DeepInfraModel,
	}
}

// ExtractPage implements PageExtractor.
func (d *DeepInfra) ExtractPage(ctx context.Context, image []byte) (invoice.Record, error) {
	dataURL := fmt.Sprintf("data:%s;base64,%s",
		http.DetectContentType(image), base64.StdEncoding.EncodeToString(image))

	resp, err := d.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     d.model,
		MaxTokens: deepInfraMaxTokens,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: extractionPrompt,
					},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: dataURL},
					},
				},
			},
		},
	})
	if err != nil {
		return invoice.Record{}, fmt.Errorf("deepinfra: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return invoice.Record{}, fmt.Errorf("deepinfra: response has no choices")
	}

	rec, err := decodeRecord(resp.Choices[0].Message.Content)
	if err != nil {
		return invoice.Record{}, fmt.Errorf("deepinfra: %w", err)
	}
	return rec, nil
}

package classifier

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// Prompts sent with every classification request. The model is asked for a
// bare one-word answer so the response parses without post-processing.
const (
	systemPrompt = "You are a vision assistant. Reply with one word only: Normal or Abnormal."
	userPrompt   = "Please analyse this graph. Reply with one word only: Normal or Abnormal."
)

// maxAnswerTokens bounds the completion. A verdict is one word; a model that
// rambles past this produces an unusable answer anyway.
const maxAnswerTokens = 8

// VisionClient asks a model one question about one image.
type VisionClient interface {
	// Classify submits the image (as a data URL) and returns the raw model
	// answer text.
	Classify(ctx context.Context, imageURL string) (string, error)
}

// OpenAIClient talks to an OpenAI-compatible vision endpoint.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient builds a client for the server at baseURL (without the /v1
// suffix). The API key may be empty for local servers.
func NewOpenAIClient(baseURL, apiKey, model string, timeout time.Duration) *OpenAIClient {
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL + "/v1"
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

// Classify sends a single-image multimodal completion request with
// deterministic decoding and returns the first choice's text.
func (c *OpenAIClient) Classify(ctx context.Context, imageURL string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: userPrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: imageURL,
						},
					},
				},
			},
		},
		// Temperature carries an omitempty tag, so a literal 0 never reaches
		// the wire and the server would decode at its own default. The
		// smallest subnormal float32 serializes and rounds to zero upstream.
		Temperature: math.SmallestNonzeroFloat32,
		TopP:        1,
		MaxTokens:   maxAnswerTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

package llm

import (
	"context"
	"fmt"

	"github.com/dvloznov/receipt-ledger/internal/domain"
	"github.com/dvloznov/receipt-ledger/internal/logger"
	"google.golang.org/genai"
)

// DefaultModelName is the default Gemini model used for extraction.
const DefaultModelName = "gemini-2.5-flash"

// Config configures the Gemini client. BaseURL and APIVersion are only set
// when talking to a non-default endpoint.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	APIVersion string
}

// Client sends prompts and receipt images to Gemini. A Client built without
// credentials is permanently disabled and fails every call.
type Client struct {
	genai          *genai.Client
	model          string
	disabledReason string
}

// New builds the client once at startup. It never returns an error: a missing
// key or a failed construction yields a disabled client instead.
func New(ctx context.Context, cfg Config) *Client {
	log := logger.FromContext(ctx)

	if cfg.APIKey == "" {
		log.Warn().Msg("GEMINI_API_KEY not set - AI features disabled")
		return Disabled("AI service not configured")
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModelName
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    cfg.BaseURL,
			APIVersion: cfg.APIVersion,
		},
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to create Gemini client - AI features disabled")
		return Disabled(fmt.Sprintf("AI client initialisation failed: %v", err))
	}

	log.Info().Str("model", model).Msg("Gemini client ready")
	return &Client{genai: gc, model: model}
}

// Disabled returns a client whose every call fails with AIServiceUnavailable.
func Disabled(reason string) *Client {
	return &Client{disabledReason: reason}
}

// Enabled reports whether the client can reach the model.
func (c *Client) Enabled() bool {
	return c.genai != nil
}

// Model returns the configured model name, or "" when disabled.
func (c *Client) Model() string {
	return c.model
}

// Generate sends one user turn holding the prompt followed by each image, in
// order, and returns the model's raw text. No retry is attempted.
func (c *Client) Generate(ctx context.Context, prompt string, images ...domain.ReceiptImage) (string, error) {
	if !c.Enabled() {
		return "", domain.NewError(domain.KindAIServiceUnavailable, "Generate", c.disabledReason, nil)
	}

	parts := make([]*genai.Part, 0, len(images)+1)
	parts = append(parts, &genai.Part{Text: prompt})
	for _, img := range images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: img.MIMEType,
				Data:     img.Data,
			},
		})
	}

	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: parts,
		},
	}

	config := &genai.GenerateContentConfig{
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr[int32](0),
		},
	}

	log := logger.FromContext(ctx)
	log.Debug().
		Str("model", c.model).
		Int("images", len(images)).
		Int("prompt_chars", len(prompt)).
		Msg("Calling Gemini")

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		return "", domain.NewError(domain.KindAIServiceUnavailable, "Generate", "generate content", err)
	}

	return resp.Text(), nil
}

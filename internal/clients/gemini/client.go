// Package gemini provides a client for the Google Gemini API
package gemini

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/bobmcallan/trademind/internal/common"
	"github.com/bobmcallan/trademind/internal/interfaces"
	"github.com/bobmcallan/trademind/internal/models"
)

const DefaultModel = "gemini-2.5-flash"

// Client implements the AdvisorClient interface
type Client struct {
	client *genai.Client
	model  string
	logger *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithModel sets the model to use
func WithModel(model string) ClientOption {
	return func(c *Client) {
		if model != "" {
			c.model = model
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new Gemini client
func NewClient(ctx context.Context, apiKey string, opts ...ClientOption) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	c := &Client{
		client: genaiClient,
		model:  DefaultModel,
		logger: common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// adviceSchema constrains the model to the advice JSON contract.
var adviceSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"action":     {Type: genai.TypeString, Enum: []string{"BUY", "SELL", "HOLD"}},
		"reasoning":  {Type: genai.TypeString},
		"confidence": {Type: genai.TypeInteger},
	},
	Required: []string{"action", "reasoning", "confidence"},
}

// advicePayload is the JSON shape the model is asked to produce.
type advicePayload struct {
	Action     string `json:"action"`
	Reasoning  string `json:"reasoning"`
	Confidence int    `json:"confidence"`
}

// AnalyzePosition asks Gemini for a BUY/SELL/HOLD recommendation on a
// position. The caller owns the fallback policy for failures.
func (c *Client) AnalyzePosition(ctx context.Context, symbol string, buyPrice, currentPrice float64, sector string) (*models.Advice, error) {
	prompt := buildPositionPrompt(symbol, buyPrice, currentPrice, sector)

	c.logger.Debug().Str("model", c.model).Str("symbol", symbol).Msg("Requesting position analysis")

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   adviceSchema,
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate advice: %w", err)
	}

	text, err := extractTextFromResponse(result)
	if err != nil {
		return nil, err
	}

	var payload advicePayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		return nil, fmt.Errorf("failed to parse advice response: %w", err)
	}

	advice := &models.Advice{
		Action:     models.AdviceAction(payload.Action),
		Reasoning:  payload.Reasoning,
		Confidence: payload.Confidence,
	}
	if advice.Reasoning == "" {
		advice.Reasoning = "Analysis unavailable"
	}
	if advice.Confidence <= 0 {
		advice.Confidence = 50
	}

	return advice, nil
}

// buildPositionPrompt creates the analysis prompt for a position.
func buildPositionPrompt(symbol string, buyPrice, currentPrice float64, sector string) string {
	profitLoss := 0.0
	if buyPrice > 0 {
		profitLoss = ((currentPrice - buyPrice) / buyPrice) * 100
	}
	plString := fmt.Sprintf("%.2f%%", profitLoss)
	if profitLoss > 0 {
		plString = "+" + plString
	}

	return fmt.Sprintf(`Analyze the following stock position for a retail investor:
Stock: %s (Sector: %s)
Buy Price: $%.2f
Current Price: $%.2f
Performance: %s

Based on general technical analysis principles for a volatile market:
1. If the stock has dropped significantly (>10%%), consider if it's a "buy the dip" or "cut losses".
2. If the stock has gained significantly (>20%%), consider "taking profits" or "holding for long term".
3. Provide a recommendation: BUY (add more), SELL (close position), or HOLD.
4. Provide a very short, punchy reason (max 20 words).
5. Provide a confidence score (0-100) based on how strong the signal is.
`, symbol, sector, buyPrice, currentPrice, plString)
}

// extractTextFromResponse extracts text from a generate content response
func extractTextFromResponse(result *genai.GenerateContentResponse) (string, error) {
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}

	text := ""
	for _, part := range result.Candidates[0].Content.Parts {
		if part.Text != "" {
			text += part.Text
		}
	}

	return text, nil
}

// Ensure Client implements AdvisorClient
var _ interfaces.AdvisorClient = (*Client)(nil)

// Package analysis implements the receipt-image analysis gateway.
//
// The remote model is treated as untrusted: any rejection, empty
// candidate list, or unparseable response is mapped to a
// *common.AnalysisError so the batch pipeline can record it on the
// item and move on.
package analysis

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/snapledger/snapledger/internal/common"
	"github.com/snapledger/snapledger/internal/model"
)

const defaultModel = "gemini-2.5-pro"

const analysisTimeout = 30 * time.Second

const receiptPrompt = `Analyze this receipt image and return a single JSON object with these fields:
{
  "merchant": "store name",
  "date": "YYYY-MM-DD",
  "time": "HH:MM or empty string",
  "total": 0,
  "currency": "ISO 4217 code",
  "category": "one of: Supermarket, Restaurant, Transport, Health, Clothing, Electronics, Entertainment, Home, Other",
  "subcategory": "optional, empty string if unknown",
  "city": "optional",
  "country": "optional",
  "items": [{"name": "item name", "price": 0, "qty": 1}]
}
Prices and total are in minor currency units (cents). Return only the JSON object, no commentary.`

// GeminiGateway analyzes receipt images using Google Gemini.
type GeminiGateway struct {
	client    *genai.Client
	generator *genai.GenerativeModel
}

// NewGeminiGateway creates a gateway backed by the named Gemini model.
func NewGeminiGateway(ctx context.Context, apiKey, modelName string) (*GeminiGateway, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini api key is required", common.ErrMissingConfig)
	}
	if modelName == "" {
		modelName = defaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiGateway{
		client:    client,
		generator: client.GenerativeModel(modelName),
	}, nil
}

// Analyze submits the image and parses the model response into a draft
// transaction.
func (g *GeminiGateway) Analyze(ctx context.Context, image model.CapturedImage) (*model.DraftTransaction, error) {
	ctx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()

	parts := []genai.Part{
		genai.ImageData(imageFormat(image.Bytes), image.Bytes),
		genai.Text(receiptPrompt),
	}

	resp, err := g.generator.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, &common.AnalysisError{Message: "analysis request failed", Err: err}
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, &common.AnalysisError{Message: "no response from model", Err: common.ErrEmptyResponse}
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	draft, err := ParseDraft(responseText.String())
	if err != nil {
		return nil, &common.AnalysisError{Message: "unparseable analysis response", Err: err}
	}

	return draft, nil
}

// imageFormat sniffs the capture bytes so the upload carries its real
// format label. Cameras hand us JPEG far more often than PNG, so an
// unrecognized payload falls back to jpeg.
func imageFormat(data []byte) string {
	mime := http.DetectContentType(data)
	if format, ok := strings.CutPrefix(mime, "image/"); ok {
		return format
	}
	return "jpeg"
}

// Close closes the underlying client.
func (g *GeminiGateway) Close() error {
	return g.client.Close()
}

package nlu

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bitewise/orderflow/internal/genai"
	"github.com/bitewise/orderflow/internal/models"
)

const extractionSystemPrompt = `You extract food order items from a customer message.
Respond with JSON only, no prose, in this exact shape:
{"items":[{"name":"...","quantity":1,"modifiers":["..."]}],"unclear":false}
Use menu item names from this list when possible: %s.
Put any customization words (size, milk, toppings, toasted, iced) into "modifiers" as short fragments.
If the message is not ordering food, respond {"items":[],"unclear":true}.`

// GenAI is the generative fallback extractor. It produces the same result
// shape as the deterministic extractor; the engine treats both identically.
type GenAI struct {
	client   genai.ClientInterface
	menuList string
}

// NewGenAI builds the fallback extractor over the given client and catalog.
func NewGenAI(client genai.ClientInterface, items []models.CatalogItem) *GenAI {
	names := make([]string, 0, len(items))
	for _, it := range items {
		names = append(names, it.Name)
	}
	return &GenAI{client: client, menuList: strings.Join(names, ", ")}
}

// Extract asks the model for a structured extraction. Malformed model output
// is reported as unclear rather than an error so the conversation can re-ask.
func (g *GenAI) Extract(ctx context.Context, utterance string) (Extraction, error) {
	system := fmt.Sprintf(extractionSystemPrompt, g.menuList)
	raw, err := g.client.GeneratePrompt(ctx, system, utterance)
	if err != nil {
		return Extraction{}, fmt.Errorf("failed to generate extraction: %w", err)
	}

	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var out Extraction
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &out); err != nil {
		slog.Warn("GenAI extractor returned malformed JSON", "error", err)
		return Extraction{Unclear: true}, nil
	}
	for i := range out.Items {
		if out.Items[i].Quantity < 1 {
			out.Items[i].Quantity = 1
		}
	}
	slog.Debug("GenAI extractor resolved", "items", len(out.Items), "unclear", out.Unclear)
	return out, nil
}

package nlu

import (
	"context"
	"log/slog"
)

// Chain tries providers in order and returns the first clear extraction,
// typically the deterministic extractor backed by a generative fallback.
type Chain struct {
	providers []Provider
}

// NewChain builds a provider chain. At least one provider is required.
func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// Extract runs each provider until one returns a clear result. Provider
// errors are logged and treated as unclear so a later provider can still
// answer; only the last provider's error is surfaced.
func (c *Chain) Extract(ctx context.Context, utterance string) (Extraction, error) {
	var last Extraction
	for i, p := range c.providers {
		out, err := p.Extract(ctx, utterance)
		if err != nil {
			slog.Warn("NLU provider failed", "error", err, "provider", i)
			if i == len(c.providers)-1 {
				return Extraction{Unclear: true}, err
			}
			continue
		}
		if !out.Unclear && len(out.Items) > 0 {
			return out, nil
		}
		last = out
	}
	if len(last.Items) == 0 {
		last.Unclear = true
	}
	return last, nil
}

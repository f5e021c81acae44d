package tui

import (
	"fmt"
	"strings"
)

// Price is a model's list price in USD per million tokens.
type Price struct {
	InputPer1M  float64
	OutputPer1M float64
}

// Cost returns the price of a call with the given token counts.
func (p Price) Cost(inputTokens, outputTokens int) float64 {
	return (float64(inputTokens)*p.InputPer1M + float64(outputTokens)*p.OutputPer1M) / 1_000_000
}

// ModelPricing covers the models offered by the setup wizard.
var ModelPricing = map[string]Price{
	"claude-opus-4-5-20251101":   {InputPer1M: 5.0, OutputPer1M: 25.0},
	"claude-sonnet-4-5-20250929": {InputPer1M: 3.0, OutputPer1M: 15.0},
	"claude-haiku-4-5-20251001":  {InputPer1M: 1.0, OutputPer1M: 5.0},
	"claude-sonnet-4-20250514":   {InputPer1M: 3.0, OutputPer1M: 15.0},
	"claude-3-haiku-20240307":    {InputPer1M: 0.25, OutputPer1M: 1.25},

	"gemini-2.5-pro":   {InputPer1M: 1.25, OutputPer1M: 10.0},
	"gemini-2.5-flash": {InputPer1M: 0.30, OutputPer1M: 2.50},
	"gemini-2.0-flash": {InputPer1M: 0.10, OutputPer1M: 0.40},

	"o3":          {InputPer1M: 10.0, OutputPer1M: 40.0},
	"o3-mini":     {InputPer1M: 1.10, OutputPer1M: 4.40},
	"gpt-4o":      {InputPer1M: 2.5, OutputPer1M: 10.0},
	"gpt-4o-mini": {InputPer1M: 0.15, OutputPer1M: 0.60},
}

// providerDefaults maps an adapter name to the model it calls when none is
// configured, so "gemini-api" is priced as gemini-2.0-flash.
var providerDefaults = map[string]string{
	"anthropic-api": "claude-sonnet-4-5-20250929",
	"claude-cli":    "claude-sonnet-4-5-20250929",
	"gemini-api":    "gemini-2.0-flash",
	"codex-cli":     "o3",
}

// DefaultPrice is used for models with no known price.
var DefaultPrice = Price{InputPer1M: 5.0, OutputPer1M: 15.0}

// PriceFor resolves a model ID or adapter name to a price. Unknown IDs
// fall back to the longest known ID they start with ("gemini-2.5-flash-lite"
// is priced as gemini-2.5-flash), then to DefaultPrice.
func PriceFor(model string) (Price, bool) {
	if m, ok := providerDefaults[model]; ok {
		model = m
	}
	if p, ok := ModelPricing[model]; ok {
		return p, true
	}

	best := ""
	for id := range ModelPricing {
		if strings.HasPrefix(model, id) && len(id) > len(best) {
			best = id
		}
	}
	if best != "" {
		return ModelPricing[best], true
	}
	return DefaultPrice, false
}

// EstimateTokens estimates a token count at roughly four characters per token.
func EstimateTokens(chars int) int {
	if chars <= 0 {
		return 0
	}
	return chars / 4
}

// EstimateCost returns the estimated USD cost of a call.
func EstimateCost(model string, inputTokens, outputTokens int) float64 {
	price, _ := PriceFor(model)
	return price.Cost(inputTokens, outputTokens)
}

// FormatCost formats a cost in USD, with more decimals for tiny amounts.
func FormatCost(cost float64) string {
	switch {
	case cost < 0.001:
		return fmt.Sprintf("$%.4f", cost)
	case cost < 0.01:
		return fmt.Sprintf("$%.3f", cost)
	default:
		return fmt.Sprintf("$%.2f", cost)
	}
}

// FormatTokens formats a token count, using a k suffix from 1000 up.
func FormatTokens(tokens int) string {
	switch {
	case tokens < 1000:
		return fmt.Sprintf("%d", tokens)
	case tokens < 10000:
		return fmt.Sprintf("%.1fk", float64(tokens)/1000)
	default:
		return fmt.Sprintf("%dk", tokens/1000)
	}
}

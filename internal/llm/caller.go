package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/raine/marketplace-assistant/config"
	"github.com/raine/marketplace-assistant/internal/storage"
	"github.com/rs/zerolog/log"
)

// ErrorPrefix starts every failure text returned by a Caller.
const ErrorPrefix = "Error:"

// Caller sends one prompt, with optional images, to a hosted model and returns
// the generated text. Call never returns an error: transport, auth and
// decoding failures come back as text starting with ErrorPrefix.
type Caller interface {
	Call(ctx context.Context, prompt string, images [][]byte, useSearch bool) string
}

// Usage contains token usage and cost information.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}

// UsageRecorder persists per-call usage. storage.SQLiteStore implements it.
type UsageRecorder interface {
	RecordUsage(rec storage.UsageRecord) error
}

// IsError reports whether text is a failure returned by a Caller.
func IsError(text string) bool {
	return strings.HasPrefix(text, ErrorPrefix)
}

func errorText(format string, a ...any) string {
	return ErrorPrefix + " " + fmt.Sprintf(format, a...)
}

func calculateCost(inputTokens, outputTokens int64, inputPrice, outputPrice float64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * inputPrice
	outputCost := float64(outputTokens) / 1_000_000 * outputPrice
	return inputCost + outputCost
}

func recordUsage(recorder UsageRecorder, rec storage.UsageRecord) {
	if recorder == nil {
		return
	}
	if err := recorder.RecordUsage(rec); err != nil {
		log.Warn().Err(err).Msg("failed to record api usage")
	}
}

// New returns the Caller for cfg.Provider.
// A missing key is only logged; calls then fail with an "Error:" text.
func New(ctx context.Context, cfg *config.Config, recorder UsageRecorder) (Caller, error) {
	if cfg.ProviderAPIKey() == "" {
		log.Warn().Str("provider", cfg.Provider).Str("variable", cfg.APIKeyEnvVar()).Msg("model API key not set")
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		client, err := NewGeminiClient(ctx, cfg, recorder)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return NewClient(cfg, recorder), nil
	}
}

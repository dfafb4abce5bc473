package llm

import (
	"context"
	"fmt"

	"github.com/raine/marketplace-assistant/config"
	"github.com/raine/marketplace-assistant/internal/storage"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// Gemini pricing (per million tokens)
const (
	geminiInputPricePerMillion  = 0.30
	geminiOutputPricePerMillion = 2.50
)

// GeminiClient is the alternative backend selected with LLM_PROVIDER=gemini.
// Search mode maps to the Google Search tool.
type GeminiClient struct {
	client   *genai.Client
	cfg      *config.Config
	recorder UsageRecorder
}

var _ Caller = (*GeminiClient)(nil)

// NewGeminiClient creates a Gemini-backed Caller. recorder may be nil.
func NewGeminiClient(ctx context.Context, cfg *config.Config, recorder UsageRecorder) (*GeminiClient, error) {
	return newGeminiClient(ctx, cfg, recorder, genai.HTTPOptions{})
}

func newGeminiClient(ctx context.Context, cfg *config.Config, recorder UsageRecorder, httpOptions genai.HTTPOptions) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.GeminiAPIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPOptions: httpOptions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &GeminiClient{client: client, cfg: cfg, recorder: recorder}, nil
}

func (g *GeminiClient) generateConfig(useSearch bool) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(float32(g.cfg.Temperature)),
		MaxOutputTokens: int32(g.cfg.MaxTokens),
		// The token limit is tight; thinking would eat into it.
		ThinkingConfig: &genai.ThinkingConfig{ThinkingBudget: genai.Ptr[int32](0)},
	}
	if useSearch {
		cfg.Tools = []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}}
	}
	return cfg
}

// Call implements Caller. Parts are the prompt followed by the images in
// order, each labelled image/jpeg.
func (g *GeminiClient) Call(ctx context.Context, prompt string, images [][]byte, useSearch bool) string {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
	}
	for _, imgData := range images {
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{Data: imgData, MIMEType: "image/jpeg"},
		})
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	rec := storage.UsageRecord{
		Provider:   config.ProviderGemini,
		Model:      g.cfg.GeminiModel,
		Search:     useSearch,
		ImageCount: len(images),
	}

	result, err := g.client.Models.GenerateContent(ctx, g.cfg.GeminiModel, contents, g.generateConfig(useSearch))
	if err != nil {
		recordUsage(g.recorder, rec)
		log.Error().Err(err).Str("model", g.cfg.GeminiModel).Msg("llm call failed")
		return errorText("%s", err)
	}

	usage := Usage{}
	if result.UsageMetadata != nil {
		usage.InputTokens = int64(result.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int64(result.UsageMetadata.CandidatesTokenCount)
		usage.TotalTokens = int64(result.UsageMetadata.TotalTokenCount)
		usage.CostUSD = calculateCost(usage.InputTokens, usage.OutputTokens, geminiInputPricePerMillion, geminiOutputPricePerMillion)
	}
	rec.InputTokens = usage.InputTokens
	rec.OutputTokens = usage.OutputTokens
	rec.CostUSD = usage.CostUSD

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		recordUsage(g.recorder, rec)
		log.Error().Str("model", g.cfg.GeminiModel).Msg("empty response from gemini")
		return errorText("no response from Gemini")
	}

	rec.OK = true
	recordUsage(g.recorder, rec)

	log.Info().
		Str("model", g.cfg.GeminiModel).
		Int("imageCount", len(images)).
		Bool("search", useSearch).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Float64("costUSD", usage.CostUSD).
		Msg("llm call")

	return result.Text()
}

package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/raine/marketplace-assistant/config"
	"github.com/raine/marketplace-assistant/internal/storage"
	"github.com/rs/zerolog/log"
)

// xAI pricing (per million tokens)
const (
	xaiInputPricePerMillion  = 0.20
	xaiOutputPricePerMillion = 0.50
)

// ChatRequest is the chat-completions request body.
type ChatRequest struct {
	Model            string            `json:"model"`
	Messages         []ChatMessage     `json:"messages"`
	Temperature      float64           `json:"temperature"`
	MaxTokens        int               `json:"max_tokens"`
	SearchParameters *SearchParameters `json:"search_parameters,omitempty"`
}

// SearchParameters turns on live web search for the request.
type SearchParameters struct {
	Mode string `json:"mode"`
}

type ChatMessage struct {
	Role    string         `json:"role"`
	Content MessageContent `json:"content"`
}

// MessageContent is either plain text or an ordered list of parts. It is
// encoded as a JSON string when Parts is nil and as an array otherwise.
type MessageContent struct {
	Text  string
	Parts []ContentPart
}

func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.Parts == nil {
		return json.Marshal(c.Text)
	}
	return json.Marshal(c.Parts)
}

func (c *MessageContent) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		c.Parts = nil
		return json.Unmarshal(data, &c.Text)
	}
	c.Text = ""
	return json.Unmarshal(data, &c.Parts)
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

// Client calls an OpenAI-compatible chat-completions endpoint (xAI by default).
type Client struct {
	httpClient *resty.Client
	cfg        *config.Config
	recorder   UsageRecorder
}

var _ Caller = (*Client)(nil)

// NewClient creates a Client. recorder may be nil.
func NewClient(cfg *config.Config, recorder UsageRecorder) *Client {
	return &Client{
		httpClient: resty.New().SetDebug(false),
		cfg:        cfg,
		recorder:   recorder,
	}
}

// ImageDataURL encodes image bytes as a data URL. The MIME label is always
// image/jpeg regardless of the real format.
func ImageDataURL(image []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
}

// BuildRequest builds the single-message payload. Without images the content
// is the plain prompt; with images it is the prompt part followed by one image
// part per image in order.
func BuildRequest(cfg *config.Config, prompt string, images [][]byte, useSearch bool) ChatRequest {
	content := MessageContent{Text: prompt}
	if len(images) > 0 {
		parts := make([]ContentPart, 0, len(images)+1)
		parts = append(parts, ContentPart{Type: "text", Text: prompt})
		for _, img := range images {
			parts = append(parts, ContentPart{
				Type:     "image_url",
				ImageURL: &ImageURL{URL: ImageDataURL(img)},
			})
		}
		content = MessageContent{Parts: parts}
	}

	req := ChatRequest{
		Model:       cfg.Model,
		Messages:    []ChatMessage{{Role: "user", Content: content}},
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}
	if useSearch {
		req.SearchParameters = &SearchParameters{Mode: "on"}
	}
	return req
}

// Call performs exactly one POST. There is no retry and no timeout beyond
// what ctx imposes.
func (c *Client) Call(ctx context.Context, prompt string, images [][]byte, useSearch bool) string {
	rec := storage.UsageRecord{
		Provider:   config.ProviderXAI,
		Model:      c.cfg.Model,
		Search:     useSearch,
		ImageCount: len(images),
	}

	text, usage, err := c.call(ctx, BuildRequest(c.cfg, prompt, images, useSearch))
	rec.InputTokens = usage.InputTokens
	rec.OutputTokens = usage.OutputTokens
	rec.CostUSD = usage.CostUSD
	rec.OK = err == nil
	recordUsage(c.recorder, rec)

	if err != nil {
		log.Error().Err(err).Str("model", c.cfg.Model).Msg("llm call failed")
		return errorText("%s", err)
	}

	log.Info().
		Str("model", c.cfg.Model).
		Int("imageCount", len(images)).
		Bool("search", useSearch).
		Int64("inputTokens", usage.InputTokens).
		Int64("outputTokens", usage.OutputTokens).
		Float64("costUSD", usage.CostUSD).
		Msg("llm call")

	return text
}

func (c *Client) call(ctx context.Context, req ChatRequest) (string, Usage, error) {
	res, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+c.cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetBody(req).
		Post(c.cfg.APIURL)
	if err != nil {
		return "", Usage{}, fmt.Errorf("request failed: %w", err)
	}
	if res.StatusCode() < 200 || res.StatusCode() >= 300 {
		detail := strings.TrimSpace(res.String())
		if detail == "" {
			detail = fmt.Sprintf("HTTP %d", res.StatusCode())
		}
		return "", Usage{}, fmt.Errorf("%s", detail)
	}

	var body chatResponse
	if err := json.Unmarshal(res.Body(), &body); err != nil {
		return "", Usage{}, fmt.Errorf("malformed response: %w", err)
	}

	var usage Usage
	if body.Usage != nil {
		usage.InputTokens = body.Usage.PromptTokens
		usage.OutputTokens = body.Usage.CompletionTokens
		usage.TotalTokens = body.Usage.TotalTokens
		usage.CostUSD = calculateCost(usage.InputTokens, usage.OutputTokens, xaiInputPricePerMillion, xaiOutputPricePerMillion)
	}

	if len(body.Choices) == 0 {
		return "", usage, fmt.Errorf("malformed response: no choices")
	}
	return body.Choices[0].Message.Content, usage, nil
}

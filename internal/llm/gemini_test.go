package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/raine/marketplace-assistant/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func newTestGeminiClient(t *testing.T, status int, body string) (*GeminiClient, *string, *recorderStub) {
	t.Helper()
	var sent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		sent = string(data)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		Provider:     config.ProviderGemini,
		GeminiAPIKey: "gemini-key",
		GeminiModel:  config.DefaultGeminiModel,
		Temperature:  config.DefaultTemperature,
		MaxTokens:    config.DefaultMaxTokens,
	}
	rec := &recorderStub{}
	client, err := newGeminiClient(context.Background(), cfg, rec, genai.HTTPOptions{BaseURL: srv.URL})
	require.NoError(t, err)
	return client, &sent, rec
}

func TestGeminiCall_Success(t *testing.T) {
	client, sent, rec := newTestGeminiClient(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"Title: Crib"}]}}],"usageMetadata":{"promptTokenCount":10,"candidatesTokenCount":4,"totalTokenCount":14}}`)

	text := client.Call(context.Background(), "describe", [][]byte{[]byte("img")}, true)

	assert.Equal(t, "Title: Crib", text)
	assert.Contains(t, *sent, "describe")
	assert.Contains(t, *sent, "image/jpeg")
	assert.Contains(t, *sent, "googleSearch")

	require.Len(t, rec.records, 1)
	assert.True(t, rec.records[0].OK)
	assert.Equal(t, config.ProviderGemini, rec.records[0].Provider)
	assert.Equal(t, int64(10), rec.records[0].InputTokens)
	assert.Equal(t, int64(4), rec.records[0].OutputTokens)
}

func TestGeminiCall_NoSearchTool(t *testing.T) {
	client, sent, _ := newTestGeminiClient(t, http.StatusOK,
		`{"candidates":[{"content":{"role":"model","parts":[{"text":"Hi!"}]}}]}`)

	text := client.Call(context.Background(), "reply", nil, false)

	assert.Equal(t, "Hi!", text)
	assert.NotContains(t, *sent, "googleSearch")
}

func TestGeminiCall_Failures(t *testing.T) {
	t.Run("api error", func(t *testing.T) {
		client, _, rec := newTestGeminiClient(t, http.StatusBadRequest,
			`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`)
		text := client.Call(context.Background(), "p", nil, false)
		assert.True(t, strings.HasPrefix(text, "Error:"), text)
		require.Len(t, rec.records, 1)
		assert.False(t, rec.records[0].OK)
	})

	t.Run("no candidates", func(t *testing.T) {
		client, _, _ := newTestGeminiClient(t, http.StatusOK, `{"candidates":[]}`)
		text := client.Call(context.Background(), "p", nil, false)
		assert.Equal(t, "Error: no response from Gemini", text)
	})
}

package config

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, ProviderXAI, cfg.Provider)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, DefaultModel, cfg.Model)
	assert.Equal(t, 0.7, cfg.Temperature)
	assert.Equal(t, 300, cfg.MaxTokens)
	assert.Equal(t, ".", cfg.UploadDir)
	assert.Equal(t, DefaultDBPath, cfg.DBPath)
	assert.Empty(t, cfg.APIKey)
	assert.False(t, cfg.StructuredOutput)
	assert.False(t, cfg.UniqueUploadNames)
}

func TestFromLookup_GrokKeyFallback(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{"GROK_API_KEY": "grok-key"}))
	require.NoError(t, err)
	assert.Equal(t, "grok-key", cfg.APIKey)

	cfg, err = FromLookup(lookupFrom(map[string]string{"GROK_API_KEY": "grok-key", "XAI_API_KEY": "xai-key"}))
	require.NoError(t, err)
	assert.Equal(t, "xai-key", cfg.APIKey)
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"LLM_PROVIDER":        "Gemini",
		"GEMINI_API_KEY":      "g",
		"STRUCTURED_OUTPUT":   "yes",
		"UNIQUE_UPLOAD_NAMES": "1",
		"UPLOAD_DIR":          "/tmp/uploads",
		"LLM_API_URL":         "http://localhost:9999/v1/chat/completions",
	}))
	require.NoError(t, err)

	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, "GEMINI_API_KEY", cfg.APIKeyEnvVar())
	assert.Equal(t, "g", cfg.ProviderAPIKey())
	assert.True(t, cfg.StructuredOutput)
	assert.True(t, cfg.UniqueUploadNames)
	assert.Equal(t, "/tmp/uploads", cfg.UploadDir)
	assert.Equal(t, "http://localhost:9999/v1/chat/completions", cfg.APIURL)
}

func TestFromLookup_Invalid(t *testing.T) {
	_, err := FromLookup(lookupFrom(map[string]string{"LLM_PROVIDER": "openai"}))
	assert.ErrorContains(t, err, "unknown LLM_PROVIDER")

	_, err = FromLookup(lookupFrom(map[string]string{"STRUCTURED_OUTPUT": "maybe"}))
	assert.ErrorContains(t, err, "STRUCTURED_OUTPUT")
}

func TestWriteEnvFileAt(t *testing.T) {
	path := filepath.Join(t.TempDir(), EnvFileName)
	err := writeEnvFileAt(path, map[string]string{
		"BOT_TOKEN":   "123:abc",
		"XAI_API_KEY": `key"with"quotes`,
	})
	require.NoError(t, err)

	values, err := godotenv.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "123:abc", values["BOT_TOKEN"])
	assert.Equal(t, `key"with"quotes`, values["XAI_API_KEY"])
}

func TestValidateTelegramToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if r.URL.Path == "/botgood/getMe" {
			w.Write([]byte(`{"ok":true}`))
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"ok":false,"description":"Unauthorized"}`))
	}))
	defer ts.Close()

	assert.NoError(t, validateTelegramToken(ts.URL, "good"))
	assert.EqualError(t, validateTelegramToken(ts.URL, "bad"), "Unauthorized")
}

func TestValidateXAIKey(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer good" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	assert.NoError(t, validateXAIKey(ts.URL, "good"))
	assert.ErrorContains(t, validateXAIKey(ts.URL, "bad"), "HTTP 401")
}

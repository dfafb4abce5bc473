package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	AppName     = "marketplace-assistant"
	EnvFileName = "config.env"
)

const (
	ProviderXAI    = "xai"
	ProviderGemini = "gemini"
)

const (
	DefaultAPIURL      = "https://api.x.ai/v1/chat/completions"
	DefaultModel       = "grok-4-1-fast-non-reasoning"
	DefaultGeminiModel = "gemini-2.5-flash"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 300
	DefaultDBPath      = "assistant.db"
)

// Config is built once at startup and shared read-only afterwards.
type Config struct {
	Provider string

	// Chat-completions backend
	APIKey string
	APIURL string
	Model  string

	// Gemini backend
	GeminiAPIKey string
	GeminiModel  string

	Temperature float64
	MaxTokens   int

	// StructuredOutput asks the model for JSON and parses it before falling
	// back to the Title:/Description:/Price: markers.
	StructuredOutput bool

	UploadDir         string
	UniqueUploadNames bool

	BotToken string
	DBPath   string
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory. Errors are ignored since the file may not exist.
func LoadEnvFile() {
	configPath, err := FilePath()
	if err != nil {
		return
	}
	_ = godotenv.Load(configPath)
}

// Dir returns the application's config directory, creating it if needed.
func Dir() (string, error) {
	configBase, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user config directory: %w", err)
	}

	configDir := filepath.Join(configBase, AppName)
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	return configDir, nil
}

// FilePath returns the full path to the config file.
func FilePath() (string, error) {
	configDir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, EnvFileName), nil
}

// Load reads the configuration from the process environment. The API key is
// not validated here; a missing key surfaces as an auth error from the remote
// endpoint.
func Load() (*Config, error) {
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config using lookup to resolve variables.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		return def
	}

	cfg := &Config{
		Provider:     strings.ToLower(get("LLM_PROVIDER", ProviderXAI)),
		APIKey:       get("XAI_API_KEY", get("GROK_API_KEY", "")),
		APIURL:       get("LLM_API_URL", DefaultAPIURL),
		Model:        get("LLM_MODEL", DefaultModel),
		GeminiAPIKey: get("GEMINI_API_KEY", ""),
		GeminiModel:  get("GEMINI_MODEL", DefaultGeminiModel),
		Temperature:  DefaultTemperature,
		MaxTokens:    DefaultMaxTokens,
		UploadDir:    get("UPLOAD_DIR", "."),
		BotToken:     get("BOT_TOKEN", ""),
		DBPath:       get("ASSISTANT_DB_PATH", DefaultDBPath),
	}

	var err error
	if cfg.StructuredOutput, err = parseBool(get("STRUCTURED_OUTPUT", "false")); err != nil {
		return nil, fmt.Errorf("STRUCTURED_OUTPUT: %w", err)
	}
	if cfg.UniqueUploadNames, err = parseBool(get("UNIQUE_UPLOAD_NAMES", "false")); err != nil {
		return nil, fmt.Errorf("UNIQUE_UPLOAD_NAMES: %w", err)
	}

	switch cfg.Provider {
	case ProviderXAI, ProviderGemini:
	default:
		return nil, fmt.Errorf("unknown LLM_PROVIDER %q (use %s or %s)", cfg.Provider, ProviderXAI, ProviderGemini)
	}

	return cfg, nil
}

// APIKeyEnvVar returns the variable holding the key for the selected provider.
func (c *Config) APIKeyEnvVar() string {
	if c.Provider == ProviderGemini {
		return "GEMINI_API_KEY"
	}
	return "XAI_API_KEY"
}

// ProviderAPIKey returns the key for the selected provider.
func (c *Config) ProviderAPIKey() string {
	if c.Provider == ProviderGemini {
		return c.GeminiAPIKey
	}
	return c.APIKey
}

// MissingForBot returns the names of variables the bot cannot start without.
// The model API key is deliberately absent from the list.
func MissingForBot() []string {
	var missing []string
	if os.Getenv("BOT_TOKEN") == "" {
		missing = append(missing, "BOT_TOKEN")
	}
	return missing
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "on":
		return true, nil
	case "0", "false", "no", "off", "":
		return false, nil
	}
	return strconv.ParseBool(s)
}

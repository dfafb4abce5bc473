package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

const (
	telegramAPIBaseURL = "https://api.telegram.org"
	xaiKeyCheckURL     = "https://api.x.ai/v1/api-key"
)

var validationClient = resty.New().SetTimeout(10 * time.Second)

// IsInteractiveTerminal returns true if both stdin and stdout are TTYs.
func IsInteractiveTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// RunSetupWizard collects the bot token and model API key, writes them to the
// config file and exports them into the current process. Returns true if the
// program should continue starting.
func RunSetupWizard() bool {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginBottom(1)

	fmt.Println()
	fmt.Println(titleStyle.Render("Marketplace Assistant - First-time Setup"))
	fmt.Println()

	var botToken, apiKey string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Telegram Bot Token").
				Description("Message @BotFather on Telegram → /newbot → copy token").
				Value(&botToken).
				Validate(func(s string) error {
					if s == "" {
						return errors.New("token is required")
					}
					return validateTelegramToken(telegramAPIBaseURL, s)
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("xAI API Key").
				Description("Get yours at https://console.x.ai (leave empty to set later)").
				Value(&apiKey).
				Validate(func(s string) error {
					if s == "" {
						return nil
					}
					return validateXAIKey(xaiKeyCheckURL, s)
				}),
		),
	).WithTheme(huh.ThemeBase16())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("\nSetup cancelled.")
			return false
		}
		fmt.Printf("\nError: %v\n", err)
		return false
	}

	values := map[string]string{"BOT_TOKEN": botToken}
	if apiKey != "" {
		values["XAI_API_KEY"] = apiKey
	}

	configPath, err := WriteEnvFile(values)
	if err != nil {
		fmt.Printf("\nError saving configuration: %v\n", err)
		WaitOnWindows()
		return false
	}

	for k, v := range values {
		os.Setenv(k, v)
	}

	successStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Bold(true)

	pathStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245"))

	fmt.Println()
	fmt.Println(successStyle.Render("✓ Configuration saved"))
	fmt.Println(pathStyle.Render("  " + configPath))
	fmt.Println()
	fmt.Println("Starting bot...")
	fmt.Println()

	return true
}

// validateTelegramToken validates a Telegram bot token by calling getMe.
func validateTelegramToken(baseURL, token string) error {
	var result struct {
		OK          bool   `json:"ok"`
		Description string `json:"description,omitempty"`
	}

	_, err := validationClient.R().
		SetResult(&result).
		SetError(&result).
		Get(fmt.Sprintf("%s/bot%s/getMe", baseURL, token))
	if err != nil {
		return errors.New("connection failed - check your internet")
	}

	if !result.OK {
		if result.Description != "" {
			return errors.New(result.Description)
		}
		return errors.New("token rejected by Telegram")
	}

	return nil
}

// validateXAIKey checks the key against the key info endpoint.
func validateXAIKey(checkURL, key string) error {
	res, err := validationClient.R().
		SetAuthToken(key).
		Get(checkURL)
	if err != nil {
		return errors.New("connection failed - check your internet")
	}

	switch {
	case res.StatusCode() == 400 || res.StatusCode() == 401 || res.StatusCode() == 403:
		return fmt.Errorf("API key rejected (HTTP %d)", res.StatusCode())
	case res.IsError():
		return fmt.Errorf("unexpected response (HTTP %d)", res.StatusCode())
	}

	return nil
}

// WriteEnvFile writes values to the config file with 0600 permissions since
// it holds secrets. Returns the path written.
func WriteEnvFile(values map[string]string) (string, error) {
	configPath, err := FilePath()
	if err != nil {
		return "", err
	}
	if err := writeEnvFileAt(configPath, values); err != nil {
		return "", err
	}
	return configPath, nil
}

func writeEnvFileAt(path string, values map[string]string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	order := []string{"BOT_TOKEN", "XAI_API_KEY", "GEMINI_API_KEY", "LLM_PROVIDER"}
	for _, key := range order {
		if val, ok := values[key]; ok {
			if _, err := fmt.Fprintf(f, "%s=%q\n", key, val); err != nil {
				return fmt.Errorf("failed to write %s: %w", key, err)
			}
		}
	}

	return nil
}

// WaitOnWindows pauses so users can read errors before the console closes.
func WaitOnWindows() {
	if runtime.GOOS == "windows" {
		fmt.Println()
		fmt.Println("Press Enter to exit...")
		fmt.Scanln()
	}
}

// FatalWithWait logs a fatal error and waits on Windows before exiting.
func FatalWithWait(format string, args ...any) {
	log.Error().Msgf(format, args...)
	WaitOnWindows()
	os.Exit(1)
}

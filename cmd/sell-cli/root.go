package main

import (
	"context"
	"fmt"
	"os"

	"github.com/raine/marketplace-assistant/config"
	"github.com/raine/marketplace-assistant/internal/assistant"
	"github.com/raine/marketplace-assistant/internal/intake"
	"github.com/raine/marketplace-assistant/internal/llm"
	"github.com/raine/marketplace-assistant/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// cliProfileID is the settings row used for defaults remembered by the CLI.
const cliProfileID int64 = 0

// app holds what the subcommands share once configuration is loaded.
type app struct {
	verbose bool
	noUsage bool

	cfg       *config.Config
	store     *storage.SQLiteStore
	assistant *assistant.Assistant
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "sell-cli",
		Short: "Draft marketplace listings and buyer replies",
		Long: `sell-cli prepares Facebook Marketplace listings from item photos and drafts
replies to buyer messages using the configured model backend.

Configuration is read from the environment and from config.env in the
user config directory (the same file the Telegram bot uses).`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Log debug output to stderr")
	cmd.PersistentFlags().BoolVar(&a.noUsage, "no-usage", false, "Do not record model usage in the database")

	cmd.AddCommand(newListingCmd(a))
	cmd.AddCommand(newReplyCmd(a))
	cmd.AddCommand(newUsageCmd(a))

	return cmd
}

// open loads configuration and builds the assistant. The returned func
// releases the database.
func (a *app) open(ctx context.Context) (func(), error) {
	level := zerolog.WarnLevel
	if a.verbose {
		level = zerolog.DebugLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level)

	config.LoadEnvFile()
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	a.cfg = cfg

	var recorder llm.UsageRecorder
	if !a.noUsage {
		store, err := storage.NewSQLiteStore(cfg.DBPath)
		if err != nil {
			log.Warn().Err(err).Str("dbPath", cfg.DBPath).Msg("usage will not be recorded")
		} else {
			a.store = store
			recorder = store
		}
	}

	caller, err := llm.New(ctx, cfg, recorder)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to initialize %s client: %w", cfg.Provider, err)
	}

	a.assistant = assistant.New(caller, intake.NewStore(cfg.UploadDir, cfg.UniqueUploadNames), cfg.StructuredOutput)
	return a.close, nil
}

func (a *app) close() {
	if a.store != nil {
		a.store.Close()
		a.store = nil
	}
}

// settings returns the remembered CLI defaults, or empty ones without a store.
func (a *app) settings() storage.Settings {
	if a.store == nil {
		return storage.Settings{TelegramID: cliProfileID}
	}
	settings, err := a.store.GetSettings(cliProfileID)
	if err != nil {
		log.Warn().Err(err).Msg("failed to load saved defaults")
		return storage.Settings{TelegramID: cliProfileID}
	}
	return *settings
}

// remember stores a default for the next run. Failures only get logged.
func (a *app) remember(value string, set func(*storage.SQLiteStore, int64, string) error) {
	if a.store == nil || value == "" {
		return
	}
	if err := set(a.store, cliProfileID, value); err != nil {
		log.Warn().Err(err).Msg("failed to save default")
	}
}

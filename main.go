package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raine/marketplace-assistant/config"
	"github.com/raine/marketplace-assistant/internal/assistant"
	"github.com/raine/marketplace-assistant/internal/bot"
	"github.com/raine/marketplace-assistant/internal/intake"
	"github.com/raine/marketplace-assistant/internal/llm"
	"github.com/raine/marketplace-assistant/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const logFileName = "marketplace-assistant.log"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Try to load existing config.env
	config.LoadEnvFile()

	if missing := config.MissingForBot(); len(missing) > 0 {
		if config.IsInteractiveTerminal() {
			if !config.RunSetupWizard() {
				config.WaitOnWindows()
				os.Exit(1)
			}
		} else {
			// Non-interactive (systemd, containers) - fail with clear error
			config.FatalWithWait("missing required config: %s", strings.Join(missing, ", "))
		}
	}

	// JOURNAL_STREAM is set by systemd when running as a service.
	// journald keeps the logs there and the working directory may be read-only.
	if _, underSystemd := os.LookupEnv("JOURNAL_STREAM"); underSystemd {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			config.FatalWithWait("failed to open log file: %v", err)
		}
		defer logFile.Close()

		consoleWriter := zerolog.ConsoleWriter{Out: os.Stderr}
		fileWriter := zerolog.ConsoleWriter{Out: logFile, NoColor: true}
		log.Logger = log.Output(io.MultiWriter(consoleWriter, fileWriter))

		log.Info().Str("logFile", logFileName).Msg("logging to file")
	}

	cfg, err := config.Load()
	if err != nil {
		config.FatalWithWait("invalid config: %v", err)
	}

	store, err := storage.NewSQLiteStore(cfg.DBPath)
	if err != nil {
		config.FatalWithWait("failed to initialize settings store: %v", err)
	}
	defer store.Close()
	log.Info().Str("dbPath", cfg.DBPath).Msg("settings store initialized")

	// Create context that cancels on SIGINT or SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	caller, err := llm.New(ctx, cfg, store)
	if err != nil {
		config.FatalWithWait("failed to initialize %s client: %v", cfg.Provider, err)
	}
	log.Info().Str("provider", cfg.Provider).Msg("model client initialized")

	asst := assistant.New(caller, intake.NewStore(cfg.UploadDir, cfg.UniqueUploadNames), cfg.StructuredOutput)

	tg, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		config.FatalWithWait("failed to initialize telegram bot: %v", err)
	}
	tg.Debug = false
	log.Info().Str("username", tg.Self.UserName).Msg("authorized on account")

	// Register bot commands for Telegram's command menu
	bot.RegisterCommands(tg)

	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runBot(ctx, tg.GetUpdatesChan(updateConfig), tg.StopReceivingUpdates, bot.NewBot(tg, store, asst))
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		log.Error().Err(err).Msg("shutdown with error")
	} else {
		log.Info().Msg("shutdown complete")
	}
}

// updateHandler receives Telegram updates in the order they arrive.
type updateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
	Shutdown()
}

// runBot feeds updates to h until ctx is cancelled or the channel closes.
// HandleUpdate only queues the update on the chat's worker, so calling it
// inline keeps each chat's updates in arrival order.
func runBot(ctx context.Context, updates tgbotapi.UpdatesChannel, stopReceiving func(), h updateHandler) error {
	defer h.Shutdown()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopping bot update loop")
			stopReceiving()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				log.Warn().Msg("updates channel closed")
				return nil
			}
			h.HandleUpdate(ctx, update)
		}
	}
}

package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Command defines a bot command with its handler key and Telegram menu description.
type Command struct {
	Name        string // Command name without slash (e.g., "start")
	Description string // Description shown in Telegram command menu
}

// botCommands is the single source of truth for the Telegram command menu.
var botCommands = []Command{
	{Name: "listing", Description: "Create a listing from photos"},
	{Name: "reply", Description: "Draft replies to a buyer"},
	{Name: "done", Description: "Finish sending photos"},
	{Name: "skip", Description: "Skip the current question"},
	{Name: "cancel", Description: "Cancel the current flow"},
	{Name: "location", Description: "View/set default item location"},
	{Name: "meetups", Description: "View/set preferred meeting spots"},
	{Name: "usage", Description: "Show model usage and cost"},
}

// RegisterCommands sets the bot's command menu in Telegram.
// This should be called once at startup.
func RegisterCommands(tg BotAPI) {
	commands := make([]tgbotapi.BotCommand, len(botCommands))
	for i, cmd := range botCommands {
		commands[i] = tgbotapi.BotCommand{
			Command:     cmd.Name,
			Description: cmd.Description,
		}
	}

	config := tgbotapi.NewSetMyCommands(commands...)
	if _, err := tg.Request(config); err != nil {
		log.Error().Err(err).Msg("failed to set bot commands")
	} else {
		log.Info().Int("count", len(commands)).Msg("registered bot commands")
	}
}

package bot

import (
	"context"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raine/marketplace-assistant/internal/assistant"
	"github.com/raine/marketplace-assistant/internal/storage"
	"github.com/rs/zerolog/log"
)

// usageWindow is the recent period shown by /usage.
const usageWindow = 30 * 24 * time.Hour

// BotAPI defines the interface for Telegram bot API operations.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Bot is the main Telegram bot handler.
type Bot struct {
	tg    BotAPI
	state *BotState
	store storage.SettingsStore

	// Handlers
	listingHandler *ListingHandler
	replyHandler   *ReplyHandler
}

// NewBot creates a new Bot instance. store may be nil, in which case
// nothing is remembered between flows.
func NewBot(tg BotAPI, store storage.SettingsStore, asst *assistant.Assistant) *Bot {
	bot := &Bot{
		tg:    tg,
		store: store,
	}

	bot.state = bot.NewBotState()
	bot.listingHandler = NewListingHandler(tg, asst, store)
	bot.replyHandler = NewReplyHandler(tg, asst, store)

	return bot
}

// HandleUpdate is the main message router.
// It dispatches messages to the appropriate session worker for sequential processing.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	b.dispatchUpdate(ctx, update, false)
}

// handleUpdateSync is like HandleUpdate but waits for message processing to complete.
// Used in tests where we need synchronous behavior.
func (b *Bot) handleUpdateSync(ctx context.Context, update tgbotapi.Update) {
	b.dispatchUpdate(ctx, update, true)
}

// dispatchUpdate routes updates to the appropriate session worker.
// If sync is true, it waits for message processing to complete.
func (b *Bot) dispatchUpdate(ctx context.Context, update tgbotapi.Update, sync bool) {
	var userId int64

	switch {
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		userId = update.CallbackQuery.From.ID
	case update.Message != nil && update.Message.From != nil:
		userId = update.Message.From.ID
	default:
		return
	}

	session := b.state.getUserSession(userId)

	send := func(msg SessionMessage) {
		if sync {
			session.SendSync(msg)
		} else {
			session.Send(msg)
		}
	}

	if update.CallbackQuery != nil {
		send(SessionMessage{
			Type:          "callback",
			Ctx:           ctx,
			CallbackQuery: update.CallbackQuery,
		})
		return
	}

	message := update.Message
	log.Info().Str("text", message.Text).Int("photos", len(message.Photo)).Msg("got message")

	msgType := "text"
	if len(message.Photo) > 0 || message.Document != nil {
		msgType = "photo"
	}
	send(SessionMessage{
		Type:    msgType,
		Ctx:     ctx,
		Message: message,
	})
}

// HandleSessionMessage implements MessageHandler interface.
// This is called by the session worker goroutine for sequential processing.
// No mutex locking is needed here since only one goroutine accesses session state.
func (b *Bot) HandleSessionMessage(ctx context.Context, session *UserSession, msg SessionMessage) {
	switch msg.Type {
	case "callback":
		b.handleCallbackQuery(ctx, session, msg.CallbackQuery)
	case "photo":
		b.listingHandler.HandlePhoto(ctx, session, msg.Message)
	case "text":
		b.handleTextMessage(ctx, session, msg.Message)
	}
}

// handleTextMessage processes text messages.
// Called from session worker - no locking needed.
func (b *Bot) handleTextMessage(ctx context.Context, session *UserSession, message *tgbotapi.Message) {
	if b.handleSettingInput(session, message.Text) {
		return
	}
	if b.listingHandler.HandleInput(ctx, session, message) {
		return
	}
	if b.replyHandler.HandleInput(ctx, session, message) {
		return
	}
	b.handleCommand(ctx, session, message)
}

// handleCommand processes bot commands.
// Called from session worker - no locking needed.
func (b *Bot) handleCommand(ctx context.Context, session *UserSession, message *tgbotapi.Message) {
	command, _ := parseCommand(message.Text)
	switch command {
	case "/start", "/help":
		session.reply(MsgStartPrompt)
	case "/listing":
		b.listingHandler.Start(session)
	case "/reply":
		b.replyHandler.Start(session)
	case "/cancel":
		session.reset()
		session.replyAndRemoveCustomKeyboard(MsgCancelled)
	case "/done":
		if session.listing == nil {
			session.reply(MsgNoActiveListing)
			return
		}
		b.listingHandler.Generate(ctx, session)
	case "/skip":
		session.reply(MsgNothingToSkip)
	case "/location":
		b.handleLocationCommand(session)
	case "/meetups":
		b.handleMeetupsCommand(session)
	case "/usage":
		b.handleUsageCommand(session)
	default:
		session.reply(MsgUseCommand)
	}
}

// handleCallbackQuery handles inline keyboard button presses.
// Called from session worker - no locking needed.
func (b *Bot) handleCallbackQuery(ctx context.Context, session *UserSession, query *tgbotapi.CallbackQuery) {
	// Answer the callback to remove the loading state
	callback := tgbotapi.NewCallback(query.ID, "")
	if _, err := b.tg.Request(callback); err != nil {
		log.Debug().Err(err).Msg("failed to answer callback query")
	}

	switch {
	case strings.HasPrefix(query.Data, "avail:"):
		b.replyHandler.HandleCallback(ctx, session, query)
	case strings.HasPrefix(query.Data, "cat:"),
		strings.HasPrefix(query.Data, "cond:"),
		strings.HasPrefix(query.Data, "bundle:"),
		strings.HasPrefix(query.Data, "retry:"):
		b.listingHandler.HandleCallback(ctx, session, query)
	default:
		log.Warn().Str("data", query.Data).Msg("unknown callback data")
	}
}

// --- Settings commands ---

// handleLocationCommand shows the saved item location and waits for a new one.
func (b *Bot) handleLocationCommand(session *UserSession) {
	if b.store == nil {
		session.reply(MsgSettingsUnavailable)
		return
	}
	settings, err := b.store.GetSettings(session.userId)
	if err != nil {
		session.replyWithError(err)
		return
	}

	session.awaitingSetting = settingLocation
	if settings.Location != "" {
		session.reply(MsgLocationCurrent, escapeMarkdown(settings.Location))
	} else {
		session.reply(MsgLocationNotSet)
	}
}

// handleMeetupsCommand shows the saved meeting spots and waits for new ones.
func (b *Bot) handleMeetupsCommand(session *UserSession) {
	if b.store == nil {
		session.reply(MsgSettingsUnavailable)
		return
	}
	settings, err := b.store.GetSettings(session.userId)
	if err != nil {
		session.replyWithError(err)
		return
	}

	session.awaitingSetting = settingMeetups
	if settings.MeetingLocations != "" {
		session.reply(MsgMeetupsCurrent, escapeMarkdown(settings.MeetingLocations))
	} else {
		session.reply(MsgMeetupsNotSet)
	}
}

// handleSettingInput handles text input after /location or /meetups.
// Returns true if the message was handled. Commands other than /cancel end
// the wait and are processed normally.
// Called from session worker - no locking needed.
func (b *Bot) handleSettingInput(session *UserSession, text string) bool {
	pending := session.awaitingSetting
	if pending == settingNone {
		return false
	}

	command, _ := parseCommand(text)
	if command == "/cancel" {
		session.awaitingSetting = settingNone
		session.reply(MsgSettingsCancelled)
		return true
	}
	if strings.HasPrefix(text, "/") {
		session.awaitingSetting = settingNone
		return false
	}

	value := strings.TrimSpace(text)
	if value == "" {
		return true
	}

	var err error
	switch pending {
	case settingLocation:
		err = b.store.SetLocation(session.userId, value)
	case settingMeetups:
		err = b.store.SetMeetingLocations(session.userId, value)
	}
	if err != nil {
		session.replyWithError(err)
		return true
	}

	session.awaitingSetting = settingNone
	if pending == settingLocation {
		session.reply(MsgLocationUpdated, escapeMarkdown(value))
	} else {
		session.reply(MsgMeetupsUpdated, escapeMarkdown(value))
	}
	return true
}

// handleUsageCommand reports model usage for the recent window and in total.
func (b *Bot) handleUsageCommand(session *UserSession) {
	if b.store == nil {
		session.reply(MsgSettingsUnavailable)
		return
	}

	recent, err := b.store.GetUsageSummary(time.Now().Add(-usageWindow))
	if err != nil {
		session.replyWithError(err)
		return
	}
	total, err := b.store.GetUsageSummary(time.Time{})
	if err != nil {
		session.replyWithError(err)
		return
	}

	session.reply(MsgUsage,
		pluralize("call", "calls", recent.Calls),
		recent.FailedCalls,
		recent.InputTokens,
		recent.OutputTokens,
		recent.CostUSD,
		pluralize("call", "calls", total.Calls),
		total.CostUSD,
	)
}

// Shutdown stops all session workers.
func (b *Bot) Shutdown() {
	b.state.Shutdown()
}

package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raine/marketplace-assistant/internal/assistant"
	"github.com/raine/marketplace-assistant/internal/availability"
	"github.com/raine/marketplace-assistant/internal/storage"
	"github.com/rs/zerolog/log"
)

type replyStep int

const (
	replyStepMessage replyStep = iota
	replyStepAvailability
	replyStepCustomTime
	replyStepMeetups
)

// ReplyForm collects the inputs of one reply generation.
type ReplyForm struct {
	Step         replyStep
	BuyerMessage string
	Availability availability.Week
	// CustomDay is the day whose custom time is being entered
	CustomDay int
}

// ReplyHandler drives the buyer-reply conversation.
type ReplyHandler struct {
	tg        BotAPI
	assistant *assistant.Assistant
	store     storage.SettingsStore
}

// NewReplyHandler creates a new reply handler. store may be nil.
func NewReplyHandler(tg BotAPI, asst *assistant.Assistant, store storage.SettingsStore) *ReplyHandler {
	return &ReplyHandler{tg: tg, assistant: asst, store: store}
}

// Start begins a new reply, discarding any flow in progress.
// Called from session worker - no locking needed.
func (h *ReplyHandler) Start(session *UserSession) {
	session.reset()
	session.replyForm = &ReplyForm{Step: replyStepMessage}
	session.replyAndRemoveCustomKeyboard(MsgEnterBuyerMessage)
}

// makeAvailabilityKeyboard renders one row per weekday: the day button edits
// its custom time, the others toggle slots.
func makeAvailabilityKeyboard(week availability.Week) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for day, name := range availability.Weekdays {
		dayLabel := name[:3] + " " + BtnCustom
		if week[day].Custom != "" {
			dayLabel = BtnCheck + dayLabel
		}
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(dayLabel, "avail:"+strconv.Itoa(day)+":custom"),
		}
		for _, slot := range availability.Slots {
			label := slot.String()
			if week[day].Has(slot) {
				label = BtnCheck + label
			}
			data := "avail:" + strconv.Itoa(day) + ":" + strings.ToLower(slot.String())
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(label, data))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewInlineKeyboardRow(
		tgbotapi.NewInlineKeyboardButtonData(BtnDone, "avail:done"),
	))
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func (h *ReplyHandler) promptAvailability(session *UserSession, form *ReplyForm) {
	msg := tgbotapi.NewMessage(session.userId, fmt.Sprintf(MsgSelectAvailability, availability.SlotLegend()))
	msg.ReplyMarkup = makeAvailabilityKeyboard(form.Availability)
	session.replyWithMessage(msg)
}

func (h *ReplyHandler) promptMeetups(session *UserSession) {
	saved := loadSettings(h.store, session.userId).MeetingLocations
	if saved != "" {
		session.replyWithSuggestion(MsgEnterMeetupsSaved, saved)
		return
	}
	session.replyWithSuggestion(MsgEnterMeetups, "")
}

// HandleInput handles text during the reply flow. Returns true if the
// message was handled.
// Called from session worker - no locking needed.
func (h *ReplyHandler) HandleInput(ctx context.Context, session *UserSession, message *tgbotapi.Message) bool {
	form := session.replyForm
	if form == nil {
		return false
	}

	text := message.Text
	command, _ := parseCommand(text)

	switch form.Step {
	case replyStepMessage:
		if strings.HasPrefix(text, "/") || text == "" {
			return false
		}
		form.BuyerMessage = text
		form.Availability = loadSettings(h.store, session.userId).Availability
		form.Step = replyStepAvailability
		h.promptAvailability(session, form)
		return true

	case replyStepAvailability:
		if strings.HasPrefix(text, "/") {
			return false
		}
		h.promptAvailability(session, form)
		return true

	case replyStepCustomTime:
		if command == "/skip" {
			form.Availability.SetCustom(form.CustomDay, "")
		} else if strings.HasPrefix(text, "/") {
			return false
		} else {
			form.Availability.SetCustom(form.CustomDay, strings.TrimSpace(text))
		}
		form.Step = replyStepAvailability
		h.promptAvailability(session, form)
		return true

	case replyStepMeetups:
		if strings.HasPrefix(text, "/") {
			return false
		}
		locations := strings.TrimSpace(text)
		saveSetting(h.store, session.userId, locations, storage.SettingsStore.SetMeetingLocations)
		session.replyForm = nil
		h.generate(ctx, session, form, locations)
		return true
	}

	return false
}

// HandleCallback processes avail: callbacks.
// Called from session worker - no locking needed.
func (h *ReplyHandler) HandleCallback(ctx context.Context, session *UserSession, query *tgbotapi.CallbackQuery) {
	form := session.replyForm
	if form == nil || (form.Step != replyStepAvailability && form.Step != replyStepCustomTime) {
		session.reply(MsgNoActiveReply)
		return
	}

	if query.Data == "avail:done" {
		session.removeInlineKeyboard(query)
		if h.store != nil {
			if err := h.store.SetAvailability(session.userId, form.Availability); err != nil {
				log.Warn().Err(err).Int64("userId", session.userId).Msg("failed to save availability")
			}
		}
		form.Step = replyStepMeetups
		session.reply(MsgAvailabilitySummary, escapeMarkdown(form.Availability.Summary()))
		h.promptMeetups(session)
		return
	}

	parts := strings.Split(query.Data, ":")
	if len(parts) != 3 {
		log.Error().Str("data", query.Data).Msg("invalid availability callback data")
		return
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil || day < 0 || day >= len(availability.Weekdays) {
		log.Error().Str("data", query.Data).Msg("invalid availability callback day")
		return
	}

	if parts[2] == "custom" {
		form.CustomDay = day
		form.Step = replyStepCustomTime
		session.reply(MsgEnterCustomTime, availability.Weekdays[day])
		return
	}

	slot, ok := availability.ParseSlot(parts[2])
	if !ok {
		log.Error().Str("data", query.Data).Msg("invalid availability callback slot")
		return
	}
	form.Availability.Toggle(day, slot)
	form.Step = replyStepAvailability

	if query.Message != nil {
		edit := tgbotapi.NewEditMessageReplyMarkup(
			query.Message.Chat.ID,
			query.Message.MessageID,
			makeAvailabilityKeyboard(form.Availability),
		)
		if _, err := h.tg.Request(edit); err != nil {
			log.Warn().Err(err).Msg("failed to update availability keyboard")
		}
	}
}

func (h *ReplyHandler) generate(ctx context.Context, session *UserSession, form *ReplyForm, locations string) {
	var reply string
	session.whileTyping(ctx, func() {
		reply = h.assistant.GenerateReply(ctx, assistant.ReplyRequest{
			BuyerMessage: form.BuyerMessage,
			Availability: form.Availability,
			Locations:    locations,
		})
	})
	if strings.TrimSpace(reply) == "" {
		reply = MsgEmptyReply
	}
	session.replyPlain(reply)
}

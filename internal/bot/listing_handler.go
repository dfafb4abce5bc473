package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raine/marketplace-assistant/internal/assistant"
	"github.com/raine/marketplace-assistant/internal/intake"
	"github.com/raine/marketplace-assistant/internal/listing"
	"github.com/raine/marketplace-assistant/internal/prompt"
	"github.com/raine/marketplace-assistant/internal/storage"
	"github.com/rs/zerolog/log"
)

type listingStep int

const (
	listingStepCategory listingStep = iota
	listingStepCondition
	listingStepLocation
	listingStepDetails
	listingStepBundle
	listingStepPhotos
)

// ListingForm collects the inputs of one listing generation.
type ListingForm struct {
	Step      listingStep
	Category  string
	Condition string
	Location  string
	Details   string
	IsBundle  bool
	Uploads   []intake.Upload
}

func (f *ListingForm) request() assistant.ListingRequest {
	return assistant.ListingRequest{
		Category:  f.Category,
		Condition: f.Condition,
		Location:  f.Location,
		Details:   f.Details,
		IsBundle:  f.IsBundle,
		Uploads:   f.Uploads,
	}
}

// ListingHandler drives the listing conversation.
type ListingHandler struct {
	tg         BotAPI
	assistant  *assistant.Assistant
	store      storage.SettingsStore
	downloader *ImageDownloader
}

// NewListingHandler creates a new listing handler. store may be nil.
func NewListingHandler(tg BotAPI, asst *assistant.Assistant, store storage.SettingsStore) *ListingHandler {
	return &ListingHandler{
		tg:         tg,
		assistant:  asst,
		store:      store,
		downloader: NewImageDownloader(),
	}
}

// Start begins a new listing, discarding any flow in progress.
// Called from session worker - no locking needed.
func (h *ListingHandler) Start(session *UserSession) {
	session.reset()
	session.listing = &ListingForm{Step: listingStepCategory}
	h.promptCategory(session)
}

func (h *ListingHandler) promptCategory(session *UserSession) {
	msg := tgbotapi.NewMessage(session.userId, MsgSelectCategory)
	msg.ReplyMarkup = makeOptionsKeyboard("cat:", prompt.Categories)
	session.replyWithMessage(msg)
}

func (h *ListingHandler) promptCondition(session *UserSession) {
	msg := tgbotapi.NewMessage(session.userId, MsgSelectCondition)
	msg.ReplyMarkup = makeOptionsKeyboard("cond:", prompt.Conditions)
	session.replyWithMessage(msg)
}

func (h *ListingHandler) promptBundle(session *UserSession) {
	msg := tgbotapi.NewMessage(session.userId, MsgBundleQuestion)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(BtnYes, "bundle:yes"),
			tgbotapi.NewInlineKeyboardButtonData(BtnNo, "bundle:no"),
		),
	)
	session.replyWithMessage(msg)
}

func (h *ListingHandler) promptLocation(session *UserSession) {
	saved := loadSettings(h.store, session.userId).Location
	if saved != "" {
		session.replyWithSuggestion(MsgEnterLocationSaved, saved)
		return
	}
	session.replyWithSuggestion(MsgEnterLocation, "")
}

// makeOptionsKeyboard lays out options two per row. Callback data is the
// prefix followed by the option index.
func makeOptionsKeyboard(prefix string, options []string) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i := 0; i < len(options); i += 2 {
		row := []tgbotapi.InlineKeyboardButton{
			tgbotapi.NewInlineKeyboardButtonData(options[i], prefix+strconv.Itoa(i)),
		}
		if i+1 < len(options) {
			row = append(row, tgbotapi.NewInlineKeyboardButtonData(options[i+1], prefix+strconv.Itoa(i+1)))
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func parseOptionIndex(data, prefix string, options []string) (string, bool) {
	i, err := strconv.Atoi(strings.TrimPrefix(data, prefix))
	if err != nil || i < 0 || i >= len(options) {
		return "", false
	}
	return options[i], true
}

// HandleCallback processes cat:, cond:, bundle: and retry:listing callbacks.
// Called from session worker - no locking needed.
func (h *ListingHandler) HandleCallback(ctx context.Context, session *UserSession, query *tgbotapi.CallbackQuery) {
	if query.Data == "retry:listing" {
		session.removeInlineKeyboard(query)
		h.Retry(ctx, session)
		return
	}

	form := session.listing
	if form == nil {
		session.reply(MsgNoActiveListing)
		return
	}

	switch {
	case strings.HasPrefix(query.Data, "cat:") && form.Step == listingStepCategory:
		category, ok := parseOptionIndex(query.Data, "cat:", prompt.Categories)
		if !ok {
			log.Error().Str("data", query.Data).Msg("invalid category callback data")
			return
		}
		session.removeInlineKeyboard(query)
		form.Category = category
		form.Step = listingStepCondition
		session.reply(MsgCategorySelected, escapeMarkdown(category))
		h.promptCondition(session)

	case strings.HasPrefix(query.Data, "cond:") && form.Step == listingStepCondition:
		condition, ok := parseOptionIndex(query.Data, "cond:", prompt.Conditions)
		if !ok {
			log.Error().Str("data", query.Data).Msg("invalid condition callback data")
			return
		}
		session.removeInlineKeyboard(query)
		form.Condition = condition
		form.Step = listingStepLocation
		session.reply(MsgConditionSelected, condition)
		h.promptLocation(session)

	case strings.HasPrefix(query.Data, "bundle:") && form.Step == listingStepBundle:
		session.removeInlineKeyboard(query)
		form.IsBundle = query.Data == "bundle:yes"
		form.Step = listingStepPhotos
		label := BtnNo
		if form.IsBundle {
			label = BtnYes
		}
		session.reply(MsgBundleSelected, label)
		session.reply(MsgSendPhotos)

	default:
		log.Debug().Str("data", query.Data).Int("step", int(form.Step)).Msg("ignoring stale listing callback")
	}
}

// HandleInput handles text during the listing flow. Returns true if the
// message was handled.
// Called from session worker - no locking needed.
func (h *ListingHandler) HandleInput(ctx context.Context, session *UserSession, message *tgbotapi.Message) bool {
	form := session.listing
	if form == nil {
		return false
	}

	text := message.Text
	command, _ := parseCommand(text)

	switch form.Step {
	case listingStepLocation:
		if strings.HasPrefix(text, "/") {
			return false
		}
		form.Location = strings.TrimSpace(text)
		saveSetting(h.store, session.userId, form.Location, storage.SettingsStore.SetLocation)
		form.Step = listingStepDetails
		session.replyAndRemoveCustomKeyboard(MsgEnterDetails)
		return true

	case listingStepDetails:
		if command == "/skip" {
			form.Details = ""
		} else if strings.HasPrefix(text, "/") {
			return false
		} else {
			form.Details = strings.TrimSpace(text)
		}
		form.Step = listingStepBundle
		h.promptBundle(session)
		return true

	case listingStepPhotos:
		if command == "/done" {
			h.Generate(ctx, session)
			return true
		}
		return false

	default:
		// Waiting for a keyboard choice; show it again
		if strings.HasPrefix(text, "/") {
			return false
		}
		switch form.Step {
		case listingStepCategory:
			h.promptCategory(session)
		case listingStepCondition:
			h.promptCondition(session)
		case listingStepBundle:
			h.promptBundle(session)
		}
		return true
	}
}

// HandlePhoto downloads a compressed photo or an image document into the
// current listing.
// Called from session worker - no locking needed.
func (h *ListingHandler) HandlePhoto(ctx context.Context, session *UserSession, message *tgbotapi.Message) {
	form := session.listing
	if form == nil {
		session.reply(MsgPhotosNotExpected)
		return
	}
	if form.Step != listingStepPhotos {
		session.reply(MsgPhotosTooEarly)
		return
	}

	var fileID, name string
	switch {
	case len(message.Photo) > 0:
		// Largest size is last
		fileID = message.Photo[len(message.Photo)-1].FileID
	case message.Document != nil && strings.HasPrefix(message.Document.MimeType, "image/"):
		fileID = message.Document.FileID
		name = message.Document.FileName
	default:
		session.reply(MsgNotAnImage)
		return
	}

	upload, err := h.downloader.DownloadUpload(ctx, h.tg.GetFileDirectURL, fileID, name)
	if err != nil {
		log.Error().Err(err).Str("fileID", fileID).Msg("failed to download photo")
		session.reply(MsgImageDownloadFail)
		return
	}

	form.Uploads = append(form.Uploads, upload)
	session.reply(MsgPhotoAdded, len(form.Uploads))
}

// Generate submits the current listing form.
// Called from session worker - no locking needed.
func (h *ListingHandler) Generate(ctx context.Context, session *UserSession) {
	form := session.listing
	if form == nil {
		session.reply(MsgNoActiveListing)
		return
	}
	if len(form.Uploads) == 0 {
		session.reply(MsgNoPhotos)
		return
	}

	session.listing = nil
	session.lastListing = form
	h.generate(ctx, session, form)
}

// Retry regenerates the last submitted listing with the same inputs.
// Called from session worker - no locking needed.
func (h *ListingHandler) Retry(ctx context.Context, session *UserSession) {
	if session.lastListing == nil {
		session.reply(MsgNoListingToRetry)
		return
	}
	h.generate(ctx, session, session.lastListing)
}

func (h *ListingHandler) generate(ctx context.Context, session *UserSession, form *ListingForm) {
	session.reply(MsgGeneratingListing, pluralize("photo", "photos", len(form.Uploads)))

	var parsed listing.Parsed
	var err error
	session.whileTyping(ctx, func() {
		parsed, err = h.assistant.GenerateListing(ctx, form.request())
	})
	if err != nil {
		if errors.Is(err, assistant.ErrNoImages) {
			session.reply(MsgNoPhotos)
			return
		}
		session.replyWithError(err)
		return
	}

	h.sendResult(session, parsed)
}

// sendResult renders a parsed listing as plain text so model output cannot
// break Markdown parsing.
func (h *ListingHandler) sendResult(session *UserSession, parsed listing.Parsed) {
	var sb strings.Builder
	fmt.Fprintf(&sb, MsgListingResult, parsed.Title, parsed.Description, parsed.Price)
	if len(parsed.Links) > 0 {
		var links []string
		for i, link := range parsed.Links {
			links = append(links, fmt.Sprintf("%d. %s", i+1, link))
		}
		fmt.Fprintf(&sb, MsgListingSources, strings.Join(links, "\n"))
	}

	msg := tgbotapi.NewMessage(session.userId, sb.String())
	msg.DisableWebPagePreview = true
	if parsed.NeedsRetry() {
		msg.Text += "\n\n" + MsgListingRetryPrompt
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(BtnRetry, "retry:listing"),
			),
		)
	} else {
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	}
	session.replyWithMessage(msg)
}

// loadSettings returns the saved settings, or empty ones when there is no
// store or the lookup fails.
func loadSettings(store storage.SettingsStore, userId int64) storage.Settings {
	if store == nil {
		return storage.Settings{TelegramID: userId}
	}
	settings, err := store.GetSettings(userId)
	if err != nil {
		log.Warn().Err(err).Int64("userId", userId).Msg("failed to load settings")
		return storage.Settings{TelegramID: userId}
	}
	return *settings
}

// saveSetting stores a remembered default. Failures only get logged.
func saveSetting(store storage.SettingsStore, userId int64, value string, set func(storage.SettingsStore, int64, string) error) {
	if store == nil || value == "" {
		return
	}
	if err := set(store, userId, value); err != nil {
		log.Warn().Err(err).Int64("userId", userId).Msg("failed to save setting")
	}
}

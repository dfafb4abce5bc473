package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// SessionMessage represents a message to be processed by the session worker.
type SessionMessage struct {
	Type string
	Ctx  context.Context
	Done chan struct{} // Closed when processing is complete (for synchronous dispatch)

	// Only one is set based on Type
	Message       *tgbotapi.Message
	CallbackQuery *tgbotapi.CallbackQuery
	Text          string
}

// MessageSender abstracts the ability to send Telegram messages.
// This interface decouples UserSession from the full Bot struct,
// improving testability.
type MessageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// MessageHandler is the interface for processing session messages.
// This allows the session to dispatch to external handlers without circular dependencies.
type MessageHandler interface {
	HandleSessionMessage(ctx context.Context, session *UserSession, msg SessionMessage)
}

// pendingSetting is a saved default waiting for its new value.
type pendingSetting int

const (
	settingNone pendingSetting = iota
	settingLocation
	settingMeetups
)

// UserSession holds the form state of one chat.
//
// Threading model:
//   - Each session has a dedicated worker goroutine that processes messages sequentially
//   - Message handlers are called only from the worker and can access session
//     state without locks
//   - A model call blocks only this session's worker
type UserSession struct {
	userId int64
	sender MessageSender

	// Worker channel for sequential message processing
	inbox   chan SessionMessage
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	handler MessageHandler // Set after construction to avoid circular deps

	// At most one of listing and replyForm is active
	listing   *ListingForm
	replyForm *ReplyForm

	// Last submitted listing, kept for the retry button
	lastListing *ListingForm

	awaitingSetting pendingSetting
}

// reset clears all flow state. The last submitted listing is kept so a
// retry stays possible after starting over.
func (s *UserSession) reset() {
	log.Info().Int64("userId", s.userId).Msg("reset user session")
	s.listing = nil
	s.replyForm = nil
	s.awaitingSetting = settingNone
}

func (s *UserSession) replyWithError(err error) tgbotapi.Message {
	log.Error().Stack().Err(err).Send()
	return s._reply(formatReplyText(MsgUnexpectedErr, escapeMarkdown(err.Error())), false)
}

// sendTypingAction sends a "typing" chat action to show the user that the bot is processing.
// The typing indicator automatically expires after ~5 seconds in Telegram.
func (s *UserSession) sendTypingAction() {
	action := tgbotapi.NewChatAction(s.userId, tgbotapi.ChatTyping)
	// Use Request instead of Send because sendChatAction returns a boolean, not a Message
	_, err := s.sender.Request(action)
	if err != nil {
		log.Debug().Err(err).Int64("userId", s.userId).Msg("failed to send typing action")
	}
}

// startTypingLoop sends a typing action every 4 seconds until the context is cancelled.
func (s *UserSession) startTypingLoop(ctx context.Context) {
	s.sendTypingAction()

	ticker := time.NewTicker(4 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sendTypingAction()
		}
	}
}

// whileTyping runs fn with the typing indicator shown. The indicator
// goroutine has exited when whileTyping returns.
func (s *UserSession) whileTyping(ctx context.Context, fn func()) {
	typingCtx, stop := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.startTypingLoop(typingCtx)
	}()

	defer func() {
		stop()
		<-done
	}()
	fn()
}

func (s *UserSession) replyWithMessage(msg tgbotapi.MessageConfig) tgbotapi.Message {
	msg.ChatID = s.userId
	sent, err := s.sender.Send(msg)
	if err != nil {
		log.Error().Stack().
			Interface("msg", msg).
			Err(fmt.Errorf("failed to send reply message: %w", err)).Send()
	} else {
		log.Info().Int64("userId", s.userId).Int("messageId", sent.MessageID).Msg("sent message")
	}

	return sent
}

func (s *UserSession) _reply(text string, removeReplyKeyboard bool) tgbotapi.Message {
	msg := tgbotapi.MessageConfig{
		Text:      text,
		ParseMode: tgbotapi.ModeMarkdown,
	}

	if removeReplyKeyboard {
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	}

	return s.replyWithMessage(msg)
}

func (s *UserSession) reply(text string, a ...any) tgbotapi.Message {
	return s._reply(formatReplyText(text, a...), false)
}

// replyPlain sends model output as is, without Markdown parsing, and closes
// any custom keyboard.
func (s *UserSession) replyPlain(text string) tgbotapi.Message {
	return s.replyWithMessage(tgbotapi.MessageConfig{
		Text:        text,
		ReplyMarkup: tgbotapi.NewRemoveKeyboard(false),
	})
}

// replyAndRemoveCustomKeyboard sends a text as reply while removing any
// existing custom reply keyboard. In telegram, bot's custom keyboards will
// remain as long as a new one is sent or the current one is removed.
func (s *UserSession) replyAndRemoveCustomKeyboard(text string, a ...any) tgbotapi.Message {
	return s._reply(formatReplyText(text, a...), true)
}

// replyWithSuggestion asks a question with a one-time keyboard offering a
// saved value. Without a saved value any custom keyboard is removed.
func (s *UserSession) replyWithSuggestion(text, suggestion string) tgbotapi.Message {
	msg := tgbotapi.MessageConfig{
		Text:      formatReplyText(text),
		ParseMode: tgbotapi.ModeMarkdown,
	}
	if suggestion != "" {
		keyboard := tgbotapi.NewReplyKeyboard(
			tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(suggestion)),
		)
		keyboard.OneTimeKeyboard = true
		keyboard.ResizeKeyboard = true
		msg.ReplyMarkup = keyboard
	} else {
		msg.ReplyMarkup = tgbotapi.NewRemoveKeyboard(false)
	}
	return s.replyWithMessage(msg)
}

// removeInlineKeyboard strips the inline keyboard from the message a callback
// came from.
func (s *UserSession) removeInlineKeyboard(query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		return
	}
	edit := tgbotapi.NewEditMessageReplyMarkup(
		query.Message.Chat.ID,
		query.Message.MessageID,
		tgbotapi.InlineKeyboardMarkup{InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{}},
	)
	if _, err := s.sender.Request(edit); err != nil {
		log.Debug().Err(err).Int64("userId", s.userId).Msg("failed to remove inline keyboard")
	}
}

// --- Worker methods ---

// StartWorker starts the session's message processing worker goroutine.
// Must be called after setting the handler.
func (s *UserSession) StartWorker() {
	s.wg.Add(1)
	go s.runWorker()
}

// SetHandler sets the message handler for this session.
func (s *UserSession) SetHandler(handler MessageHandler) {
	s.handler = handler
}

// runWorker is the main worker loop that processes messages sequentially.
func (s *UserSession) runWorker() {
	defer s.wg.Done()

	for {
		select {
		case <-s.ctx.Done():
			// Drain any remaining messages and signal completion
			for {
				select {
				case msg := <-s.inbox:
					if msg.Done != nil {
						close(msg.Done)
					}
				default:
					return
				}
			}
		case msg := <-s.inbox:
			s.processMessage(msg)
		}
	}
}

// processMessage handles a single message from the inbox.
func (s *UserSession) processMessage(msg SessionMessage) {
	defer func() {
		// Recover from any panics to keep the worker running
		if r := recover(); r != nil {
			log.Error().
				Int64("userId", s.userId).
				Interface("panic", r).
				Msg("recovered from panic in session worker")
		}
		if msg.Done != nil {
			close(msg.Done)
		}
	}()

	if s.handler == nil {
		log.Error().Int64("userId", s.userId).Msg("session handler not set")
		return
	}

	s.handler.HandleSessionMessage(msg.Ctx, s, msg)
}

// Send queues a message for processing by the worker.
// This is non-blocking - it returns immediately after queuing.
func (s *UserSession) Send(msg SessionMessage) {
	select {
	case s.inbox <- msg:
	case <-s.ctx.Done():
		if msg.Done != nil {
			close(msg.Done)
		}
	}
}

// SendSync queues a message and waits for it to be processed.
func (s *UserSession) SendSync(msg SessionMessage) {
	msg.Done = make(chan struct{})
	s.Send(msg)
	<-msg.Done
}

// Stop stops the worker and waits for it to finish.
func (s *UserSession) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Package transport connects the bot to Telegram. It owns both delivery
// modes (long polling and webhook) and the outbound primitives the
// controller uses; the controller itself never sees tgbotapi types.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/RakhmaMed/Downloader-Bot/internal/bot"
	"github.com/RakhmaMed/Downloader-Bot/internal/bus"
	"github.com/RakhmaMed/Downloader-Bot/internal/domain"
)

const pollTimeoutSeconds = 30

// Telegram implements domain.Transport over the Bot API and feeds inbound
// messages onto the bus from either delivery mode.
type Telegram struct {
	token     string
	allowFrom []int64 // allowed user IDs (empty = allow all)

	api    *tgbotapi.BotAPI
	bus    *bus.InMemoryBus
	logger *slog.Logger
}

// Config configures the Telegram transport.
type Config struct {
	Token     string
	AllowFrom []string // user IDs as strings
	Logger    *slog.Logger
}

// NewTelegram connects to the Bot API.
func NewTelegram(cfg Config) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}

	var allowed []int64
	for _, s := range cfg.AllowFrom {
		if id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			allowed = append(allowed, id)
		}
	}

	cfg.Logger.Info("telegram bot connected",
		"username", api.Self.UserName,
		"id", api.Self.ID,
	)

	return &Telegram{
		token:     cfg.Token,
		allowFrom: allowed,
		api:       api,
		logger:    cfg.Logger,
	}, nil
}

// --- outbound primitives (domain.Transport) ---
// tgbotapi performs its own HTTP calls without context support, so ctx is
// accepted for interface symmetry only.

func (t *Telegram) SendText(ctx context.Context, chatID string, text string) (domain.MessageRef, error) {
	id, err := parseChatID(chatID)
	if err != nil {
		return domain.MessageRef{}, err
	}
	sent, err := t.api.Send(tgbotapi.NewMessage(id, text))
	if err != nil {
		return domain.MessageRef{}, fmt.Errorf("send text: %w", err)
	}
	return domain.MessageRef{ChatID: chatID, MessageID: sent.MessageID}, nil
}

func (t *Telegram) EditText(ctx context.Context, ref domain.MessageRef, text string) error {
	id, err := parseChatID(ref.ChatID)
	if err != nil {
		return err
	}
	if _, err := t.api.Send(tgbotapi.NewEditMessageText(id, ref.MessageID, text)); err != nil {
		return fmt.Errorf("edit message %d: %w", ref.MessageID, err)
	}
	return nil
}

func (t *Telegram) DeleteMessage(ctx context.Context, ref domain.MessageRef) error {
	id, err := parseChatID(ref.ChatID)
	if err != nil {
		return err
	}
	if _, err := t.api.Request(tgbotapi.NewDeleteMessage(id, ref.MessageID)); err != nil {
		return fmt.Errorf("delete message %d: %w", ref.MessageID, err)
	}
	return nil
}

func (t *Telegram) SendVideo(ctx context.Context, chatID string, path string) error {
	id, err := parseChatID(chatID)
	if err != nil {
		return err
	}
	if _, err := t.api.Send(tgbotapi.NewVideo(id, tgbotapi.FilePath(path))); err != nil {
		return fmt.Errorf("send video: %w", err)
	}
	return nil
}

func parseChatID(chatID string) (int64, error) {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chat ID %q: %w", chatID, err)
	}
	return id, nil
}

// --- inbound: polling mode ---

// StartPolling removes any registered webhook and consumes updates via long
// polling until ctx is cancelled.
func (t *Telegram) StartPolling(ctx context.Context, b *bus.InMemoryBus) error {
	t.bus = b

	// Telegram refuses getUpdates while a webhook is registered.
	if err := t.removeWebhook(true); err != nil {
		return err
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeoutSeconds
	updates := t.api.GetUpdatesChan(u)

	t.logger.Info("telegram polling started")

	for {
		select {
		case <-ctx.Done():
			t.logger.Info("telegram polling stopping")
			t.api.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			t.handleUpdate(update)
		}
	}
}

// registerWebhook points Telegram at url. The secret, when set, is echoed
// back by Telegram in a header on every delivery.
func (t *Telegram) registerWebhook(url, secret string) error {
	params := tgbotapi.Params{
		"url":                  url,
		"drop_pending_updates": "true",
	}
	if secret != "" {
		params["secret_token"] = secret
	}
	if _, err := t.api.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	return nil
}

func (t *Telegram) removeWebhook(dropPending bool) error {
	params := tgbotapi.Params{
		"drop_pending_updates": strconv.FormatBool(dropPending),
	}
	if _, err := t.api.MakeRequest("deleteWebhook", params); err != nil {
		return fmt.Errorf("delete webhook: %w", err)
	}
	return nil
}

// handleUpdate routes one update, whichever mode delivered it. Commands are
// answered here; anything else with text is handed to the controller via
// the bus.
func (t *Telegram) handleUpdate(update tgbotapi.Update) {
	if update.Message == nil || update.Message.From == nil || update.Message.Chat == nil {
		return
	}

	userID := update.Message.From.ID
	chatID := update.Message.Chat.ID

	if !t.isAllowed(userID) {
		t.logger.Warn("unauthorized telegram user",
			"user_id", userID,
			"username", update.Message.From.UserName,
		)
		return
	}

	text := update.Message.Text
	if text == "" {
		return
	}

	if update.Message.IsCommand() {
		t.handleCommand(chatID, update.Message)
		return
	}

	t.logger.Info("telegram message received",
		"user_id", userID,
		"chat_id", chatID,
		"text_len", len(text),
	)

	t.bus.Publish(domain.InboundMessage{
		ChatID:    strconv.FormatInt(chatID, 10),
		SenderID:  strconv.FormatInt(userID, 10),
		Text:      text,
		Timestamp: time.Unix(int64(update.Message.Date), 0),
	})
}

func (t *Telegram) handleCommand(chatID int64, msg *tgbotapi.Message) {
	var reply string
	switch msg.Command() {
	case "start":
		reply = bot.StartReply()
	case "help":
		reply = bot.HelpReply()
	default:
		reply = "Unknown command. Type /help for usage."
	}
	if _, err := t.api.Send(tgbotapi.NewMessage(chatID, reply)); err != nil {
		t.logger.Warn("command reply failed", "chat_id", chatID, "err", err)
	}
}

func (t *Telegram) isAllowed(userID int64) bool {
	if len(t.allowFrom) == 0 {
		return true
	}
	for _, id := range t.allowFrom {
		if id == userID {
			return true
		}
	}
	return false
}

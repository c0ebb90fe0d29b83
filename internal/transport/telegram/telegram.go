// Package telegram carries the intake dialogue over a Telegram bot, with the
// chat id standing in for the party's address.
package telegram

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/vendorlink/vendorlink/internal/transport"
)

const pollTimeoutSeconds = 30

// Channel is a Telegram bot acting as both receiver and sender.
type Channel struct {
	bot    *tgbotapi.BotAPI
	logger *slog.Logger
}

// NewChannel connects the bot with the given token.
func NewChannel(log *slog.Logger, token string) (*Channel, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram: bot token is required")
	}
	if log == nil {
		log = slog.Default()
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	return &Channel{
		bot:    bot,
		logger: log.With(slog.String("adapter", "telegram")),
	}, nil
}

// Send delivers text to the chat id in to.
func (c *Channel) Send(_ context.Context, to, text string) error {
	chatID, err := strconv.ParseInt(to, 10, 64)
	if err != nil {
		return errors.New("telegram: address is not a chat id: " + to)
	}
	_, err = c.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// Listen long-polls for updates and hands each text message to the handler
// until ctx is cancelled. Each message is handled in its own goroutine so a
// slow turn never blocks unrelated chats.
func (c *Channel) Listen(ctx context.Context, handler transport.InboundHandler) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = pollTimeoutSeconds
	updates := c.bot.GetUpdatesChan(updateConfig)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.logger.Info("stop listening")
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					c.logger.Info("updates channel closed")
					return
				}
				if update.Message == nil || update.Message.Chat == nil {
					continue
				}
				text := strings.TrimSpace(update.Message.Text)
				if text == "" {
					continue
				}
				msg := transport.InboundMessage{
					From:       strconv.FormatInt(update.Message.Chat.ID, 10),
					Text:       text,
					ReceivedAt: time.Unix(int64(update.Message.Date), 0).UTC(),
				}
				go c.handleInbound(ctx, handler, msg)
			}
		}
	}()
}

// handleInbound processes one message in its own goroutine. There is no echo
// recover middleware on this path, so a handling panic is contained here and
// scoped to the single message.
func (c *Channel) handleInbound(ctx context.Context, handler transport.InboundHandler, msg transport.InboundMessage) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("inbound handling panicked",
				slog.String("from", msg.From),
				slog.Any("panic", r))
		}
	}()
	if err := handler.HandleInbound(ctx, msg); err != nil {
		c.logger.Error("inbound handling failed",
			slog.String("from", msg.From),
			slog.Any("error", err))
	}
}

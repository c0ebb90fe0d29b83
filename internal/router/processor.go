// Package router dispatches inbound channel messages to the inquiry broker
// or the conversation engine.
package router

import (
	"context"
	"log/slog"
	"strings"

	"github.com/vendorlink/vendorlink/internal/inquiry"
	"github.com/vendorlink/vendorlink/internal/logger"
	"github.com/vendorlink/vendorlink/internal/transport"
)

// Converser turns a dialogue message into a reply for the sender.
type Converser interface {
	HandleMessage(ctx context.Context, from, text string) string
}

// ReplyRouter routes correlation-tagged supplier replies.
type ReplyRouter interface {
	RouteReply(ctx context.Context, text, from string) inquiry.Status
}

// Processor handles one inbound message at a time. Messages carrying a
// correlation reference go to the broker, even mid-conversation; everything
// else advances the sender's dialogue. Errors never escape a single message.
type Processor struct {
	conversations Converser
	replies       ReplyRouter
	messenger     transport.Messenger
	logger        *slog.Logger
}

// NewProcessor creates a Processor.
func NewProcessor(log *slog.Logger, conversations Converser, replies ReplyRouter, messenger transport.Messenger) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		conversations: conversations,
		replies:       replies,
		messenger:     messenger,
		logger:        log.With(slog.String("service", "router")),
	}
}

// Supplier-facing routing outcomes.
const (
	msgReplyForwarded  = "Your reply was forwarded to the buyer."
	msgInquiryNotFound = "We couldn't find that inquiry. Please check the reference number in your reply."
	msgNotParty        = "This number was not contacted for that inquiry."
)

// HandleInbound processes one inbound message and sends the reply back to
// the sender over the transport.
func (p *Processor) HandleInbound(ctx context.Context, msg transport.InboundMessage) error {
	from := strings.TrimSpace(msg.From)
	if from == "" {
		p.logger.Warn("inbound message without sender dropped")
		return nil
	}
	ctx = logger.WithContext(ctx, p.logger.With(slog.String("from", from)))

	var reply string
	if inquiry.HasReference(msg.Text) {
		switch p.replies.RouteReply(ctx, msg.Text, from) {
		case inquiry.StatusDelivered:
			reply = msgReplyForwarded
		case inquiry.StatusNotParty:
			reply = msgNotParty
		default:
			reply = msgInquiryNotFound
		}
	} else {
		reply = p.conversations.HandleMessage(ctx, from, msg.Text)
	}

	if reply == "" {
		return nil
	}
	if err := p.messenger.Send(ctx, from, reply); err != nil {
		logger.FromContext(ctx).Error("send reply failed", slog.Any("error", err))
	}
	return nil
}

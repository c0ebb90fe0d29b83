// Package transport abstracts the messaging channel that carries buyer and
// supplier text messages.
package transport

import (
	"context"
	"time"
)

// Messenger delivers one text message to an address. Sends are at-most-once;
// delivery is not confirmed.
type Messenger interface {
	Send(ctx context.Context, to, text string) error
}

// InboundMessage is one raw text message received from the channel.
type InboundMessage struct {
	From       string
	Text       string
	ReceivedAt time.Time
}

// InboundHandler consumes inbound messages; errors are scoped to the message.
type InboundHandler interface {
	HandleInbound(ctx context.Context, msg InboundMessage) error
}

package telegram

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vendorlink/vendorlink/internal/transport"
)

type panickingHandler struct{}

func (panickingHandler) HandleInbound(context.Context, transport.InboundMessage) error {
	panic("session state corrupted")
}

type failingHandler struct{}

func (failingHandler) HandleInbound(context.Context, transport.InboundMessage) error {
	return errors.New("transport down")
}

func TestHandleInboundContainsPanic(t *testing.T) {
	c := &Channel{logger: slog.Default()}

	assert.NotPanics(t, func() {
		c.handleInbound(context.Background(), panickingHandler{}, transport.InboundMessage{
			From: "123456",
			Text: "hello",
		})
	})
}

func TestHandleInboundLogsErrorWithoutEscalating(t *testing.T) {
	c := &Channel{logger: slog.Default()}

	assert.NotPanics(t, func() {
		c.handleInbound(context.Background(), failingHandler{}, transport.InboundMessage{
			From: "123456",
			Text: "hello",
		})
	})
}

package modules

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.uber.org/fx"

	"github.com/vendorlink/vendorlink/internal/config"
	"github.com/vendorlink/vendorlink/internal/router"
	"github.com/vendorlink/vendorlink/internal/transport"
	"github.com/vendorlink/vendorlink/internal/transport/telegram"
	"github.com/vendorlink/vendorlink/internal/transport/twilio"
)

// ChannelModule provides the messaging transport selected in config and, for
// transports that pull their own inbound stream, starts the receiver.
var ChannelModule = fx.Module(
	"channel",
	fx.Provide(
		provideChannel,
		provideMessenger,
	),
	fx.Invoke(startReceiver),
)

// channelSetup carries the configured messenger plus the optional telegram
// receiver (nil when the twilio webhook is the inbound path).
type channelSetup struct {
	Messenger transport.Messenger
	Telegram  *telegram.Channel
}

func provideChannel(log *slog.Logger, cfg config.Config) (channelSetup, error) {
	switch cfg.Transport.Type {
	case "twilio", "":
		tw := cfg.Transport.Twilio
		client, err := twilio.NewClient(log, tw.AccountSID, tw.AuthToken, tw.FromNumber, tw.BaseURL,
			time.Duration(tw.TimeoutSeconds)*time.Second)
		if err != nil {
			return channelSetup{}, fmt.Errorf("twilio transport: %w", err)
		}
		return channelSetup{Messenger: client}, nil

	case "telegram":
		ch, err := telegram.NewChannel(log, cfg.Transport.Telegram.BotToken)
		if err != nil {
			return channelSetup{}, fmt.Errorf("telegram transport: %w", err)
		}
		return channelSetup{Messenger: ch, Telegram: ch}, nil

	default:
		return channelSetup{}, fmt.Errorf("unknown transport type: %s", cfg.Transport.Type)
	}
}

func provideMessenger(setup channelSetup) transport.Messenger {
	return setup.Messenger
}

func startReceiver(lc fx.Lifecycle, setup channelSetup, processor *router.Processor) {
	if setup.Telegram == nil {
		return
	}
	listenCtx, cancel := context.WithCancel(context.Background())
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			setup.Telegram.Listen(listenCtx, processor)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			return nil
		},
	})
}

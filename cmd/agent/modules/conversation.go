package modules

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
	"go.uber.org/fx"

	"github.com/vendorlink/vendorlink/internal/config"
	"github.com/vendorlink/vendorlink/internal/conversation"
	"github.com/vendorlink/vendorlink/internal/dispatch"
	"github.com/vendorlink/vendorlink/internal/inquiry"
	"github.com/vendorlink/vendorlink/internal/match"
	"github.com/vendorlink/vendorlink/internal/router"
	"github.com/vendorlink/vendorlink/internal/session"
	"github.com/vendorlink/vendorlink/internal/transport"
)

const supplierSendsPerSecond = 5.0

// ConversationModule provides the dialogue engine, inquiry broker,
// notification dispatcher, and the inbound processor, plus the retention
// sweeps bounding the in-memory stores.
var ConversationModule = fx.Module(
	"conversation",
	fx.Provide(
		session.NewStore,
		provideBroker,
		provideDispatcher,
		provideConversationEngine,
		provideProcessor,
	),
	fx.Invoke(startRetentionSweeps),
)

func provideBroker(log *slog.Logger, messenger transport.Messenger) *inquiry.Broker {
	return inquiry.NewBroker(log, messenger)
}

func provideDispatcher(log *slog.Logger, messenger transport.Messenger) *dispatch.Dispatcher {
	return dispatch.NewDispatcher(log, messenger, supplierSendsPerSecond)
}

func provideConversationEngine(log *slog.Logger, sessions *session.Store, matcher *match.Engine, broker *inquiry.Broker, dispatcher *dispatch.Dispatcher) *conversation.Engine {
	return conversation.NewEngine(log, sessions, matcher, broker, dispatcher)
}

func provideProcessor(log *slog.Logger, engine *conversation.Engine, broker *inquiry.Broker, messenger transport.Messenger) *router.Processor {
	return router.NewProcessor(log, engine, broker, messenger)
}

func startRetentionSweeps(lc fx.Lifecycle, log *slog.Logger, cfg config.Config, sessions *session.Store, broker *inquiry.Broker) error {
	c := cron.New()
	_, err := c.AddFunc(cfg.Retention.SweepSpec, func() {
		if removed := sessions.Sweep(cfg.Retention.SessionIdle()); removed > 0 {
			log.Info("idle sessions evicted", slog.Int("removed", removed))
		}
		if removed := broker.Sweep(cfg.Retention.InquiryAge()); removed > 0 {
			log.Info("expired inquiries evicted", slog.Int("removed", removed))
		}
	})
	if err != nil {
		return err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			c.Start()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			<-c.Stop().Done()
			return nil
		},
	})
	return nil
}

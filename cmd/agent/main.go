package main

import (
	"fmt"
	"log/slog"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/vendorlink/vendorlink/cmd/agent/modules"
	"github.com/vendorlink/vendorlink/internal/version"
)

func main() {
	fmt.Printf("Starting VendorLink Agent %s\n", version.GetInfo())

	fx.New(
		modules.InfraModule,
		modules.ChannelModule,
		modules.CatalogModule,
		modules.ConversationModule,
		modules.ServerModule,
		fx.WithLogger(func(logger *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: logger.With(slog.String("component", "fx"))}
		}),
	).Run()
}

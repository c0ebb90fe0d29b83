// Package dispatch fans an inquiry out to every matched supplier.
package dispatch

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/vendorlink/vendorlink/internal/inquiry"
	"github.com/vendorlink/vendorlink/internal/match"
	"github.com/vendorlink/vendorlink/internal/transport"
)

const defaultMaxInFlight = 8

// Dispatcher sends one supplier prompt per candidate concurrently and joins
// on completion. Sends are at-most-once: a failure is logged, never retried,
// and never aborts sibling sends.
type Dispatcher struct {
	messenger   transport.Messenger
	limiter     *rate.Limiter
	maxInFlight int
	logger      *slog.Logger
}

// NewDispatcher creates a Dispatcher. sendsPerSecond <= 0 disables rate
// limiting.
func NewDispatcher(log *slog.Logger, messenger transport.Messenger, sendsPerSecond float64) *Dispatcher {
	if log == nil {
		log = slog.Default()
	}
	var limiter *rate.Limiter
	if sendsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(sendsPerSecond), 1)
	}
	return &Dispatcher{
		messenger:   messenger,
		limiter:     limiter,
		maxInFlight: defaultMaxInFlight,
		logger:      log.With(slog.String("service", "dispatch")),
	}
}

// Notify sends the inquiry to every candidate with a usable contact address
// and returns how many suppliers were targeted. It blocks until every send
// has settled.
func (d *Dispatcher) Notify(ctx context.Context, inquiryID string, req match.Request, candidates []match.Candidate) int {
	targeted := 0

	var group errgroup.Group
	group.SetLimit(d.maxInFlight)
	for _, c := range candidates {
		if strings.TrimSpace(c.Address) == "" {
			d.logger.Warn("candidate without contact address skipped",
				slog.String("inquiry", inquiryID),
				slog.String("name", c.Name))
			continue
		}
		targeted++

		candidate := c
		group.Go(func() error {
			if d.limiter != nil {
				if err := d.limiter.Wait(ctx); err != nil {
					d.logger.Warn("rate limiter wait aborted",
						slog.String("inquiry", inquiryID),
						slog.Any("error", err))
					return nil
				}
			}
			text := supplierPrompt(inquiryID, req, candidate)
			if err := d.messenger.Send(ctx, candidate.Address, text); err != nil {
				d.logger.Warn("supplier notification failed",
					slog.String("inquiry", inquiryID),
					slog.String("supplier", candidate.Address),
					slog.Any("error", err))
			}
			return nil
		})
	}
	_ = group.Wait()

	return targeted
}

func supplierPrompt(inquiryID string, req match.Request, c match.Candidate) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New buyer inquiry %s%s\n", inquiry.Marker, inquiryID)

	product := strings.TrimSpace(req.ProductName)
	if product == "" {
		product = c.Product
	}
	fmt.Fprintf(&b, "Product: %s\n", product)
	if req.Quantity != nil {
		fmt.Fprintf(&b, "Quantity: %v\n", *req.Quantity)
	}
	if req.Pincode != "" {
		fmt.Fprintf(&b, "Buyer pincode: %s\n", req.Pincode)
	}
	fmt.Fprintf(&b, "Reply to this message keeping %s%s in your text to reach the buyer.", inquiry.Marker, inquiryID)
	return b.String()
}

// Package inquiry correlates a buyer's broadcast request with asynchronous
// supplier replies.
package inquiry

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vendorlink/vendorlink/internal/match"
	"github.com/vendorlink/vendorlink/internal/transport"
)

// Marker prefixes every correlation id on the wire: "#" followed by digits.
const Marker = "#"

var refPattern = regexp.MustCompile(`#(\d+)`)

// HasReference reports whether text carries a correlation reference. Messages
// with a reference bypass the conversation engine entirely.
func HasReference(text string) bool {
	return refPattern.MatchString(text)
}

// Status is the outcome of routing a supplier reply.
type Status int

// Routing outcomes.
const (
	StatusDelivered Status = iota
	StatusNotFound
	StatusNotParty
	StatusNoReference
)

// Contacted is one supplier an inquiry was sent to.
type Contacted struct {
	Address string
	Name    string
}

// Inquiry links a buyer's request to the suppliers it was sent to. The
// contacted list is immutable once created.
type Inquiry struct {
	ID        string
	Buyer     string
	Product   string
	Contacted []Contacted
	CreatedAt time.Time
}

// Broker mints correlation ids and routes supplier replies back to buyers.
type Broker struct {
	mu        sync.RWMutex
	inquiries map[string]*Inquiry

	// seq is seeded with UnixNano and incremented per inquiry, so ids are
	// unique digit strings within a process lifetime. A collision would need
	// a restart landing on the exact nanosecond an earlier run had reached;
	// that risk is treated as negligible.
	seq atomic.Int64

	messenger transport.Messenger
	logger    *slog.Logger
}

// NewBroker creates a Broker that delivers routed replies via messenger.
func NewBroker(log *slog.Logger, messenger transport.Messenger) *Broker {
	if log == nil {
		log = slog.Default()
	}
	b := &Broker{
		inquiries: map[string]*Inquiry{},
		messenger: messenger,
		logger:    log.With(slog.String("service", "inquiry")),
	}
	b.seq.Store(time.Now().UnixNano())
	return b
}

// Create stores a new inquiry for the buyer and returns its correlation id.
func (b *Broker) Create(buyer, product string, candidates []match.Candidate) string {
	id := strconv.FormatInt(b.seq.Add(1), 10)

	contacted := make([]Contacted, 0, len(candidates))
	for _, c := range candidates {
		contacted = append(contacted, Contacted{Address: c.Address, Name: c.Name})
	}

	b.mu.Lock()
	b.inquiries[id] = &Inquiry{
		ID:        id,
		Buyer:     buyer,
		Product:   product,
		Contacted: contacted,
		CreatedAt: time.Now(),
	}
	b.mu.Unlock()

	b.logger.Info("inquiry created",
		slog.String("id", id),
		slog.String("buyer", buyer),
		slog.Int("suppliers", len(contacted)))
	return id
}

// Resolve looks up the supplier in the inquiry's contacted list by exact
// address match.
func (b *Broker) Resolve(id, supplierAddr string) (Contacted, Status) {
	b.mu.RLock()
	inq, ok := b.inquiries[id]
	b.mu.RUnlock()
	if !ok {
		return Contacted{}, StatusNotFound
	}
	for _, c := range inq.Contacted {
		if c.Address == supplierAddr {
			return c, StatusDelivered
		}
	}
	return Contacted{}, StatusNotParty
}

// RouteReply scans text for a correlation reference and, if it names a known
// inquiry the sender was party to, forwards the reply to the originating
// buyer. It never fails the process; every outcome maps to a Status.
func (b *Broker) RouteReply(ctx context.Context, text, from string) Status {
	groups := refPattern.FindStringSubmatch(text)
	if groups == nil {
		return StatusNoReference
	}
	id := groups[1]

	// Fetch the inquiry once; a concurrent retention sweep can evict the id
	// at any point, so a second map read after unlocking is not safe. The
	// inquiry itself is immutable after Create.
	b.mu.RLock()
	inq, ok := b.inquiries[id]
	b.mu.RUnlock()
	if !ok {
		b.logger.Warn("reply not routable",
			slog.String("id", id),
			slog.String("from", from),
			slog.Int("status", int(StatusNotFound)))
		return StatusNotFound
	}

	var supplier Contacted
	party := false
	for _, c := range inq.Contacted {
		if c.Address == from {
			supplier = c
			party = true
			break
		}
	}
	if !party {
		b.logger.Warn("reply not routable",
			slog.String("id", id),
			slog.String("from", from),
			slog.Int("status", int(StatusNotParty)))
		return StatusNotParty
	}

	buyer := inq.Buyer

	name := supplier.Name
	if name == "" {
		name = from
	}
	msg := fmt.Sprintf("Reply from %s (%s): %s", name, supplier.Address, text)
	if err := b.messenger.Send(ctx, buyer, msg); err != nil {
		b.logger.Error("deliver reply to buyer failed",
			slog.String("id", id),
			slog.String("buyer", buyer),
			slog.Any("error", err))
	}
	return StatusDelivered
}

// Len reports the number of stored inquiries.
func (b *Broker) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.inquiries)
}

// Sweep evicts inquiries older than maxAge and reports how many went.
// Inquiries are otherwise never deleted; this bounds the map's growth.
func (b *Broker) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	b.mu.Lock()
	defer b.mu.Unlock()
	removed := 0
	for id, inq := range b.inquiries {
		if inq.CreatedAt.Before(cutoff) {
			delete(b.inquiries, id)
			removed++
		}
	}
	return removed
}

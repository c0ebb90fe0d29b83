// Package conversation drives the multi-turn intake dialogue, one finite
// state machine per buyer session.
package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/vendorlink/vendorlink/internal/match"
	"github.com/vendorlink/vendorlink/internal/session"
)

// Searcher produces ranked supplier candidates for a completed request.
type Searcher interface {
	Search(ctx context.Context, req match.Request) ([]match.Candidate, error)
}

// Correlator assigns a correlation id to a completed request.
type Correlator interface {
	Create(buyer, product string, candidates []match.Candidate) string
}

// Notifier fans the inquiry out to suppliers and reports targeted count.
type Notifier interface {
	Notify(ctx context.Context, inquiryID string, req match.Request, candidates []match.Candidate) int
}

// Buyer-facing dialogue text.
const (
	msgWelcome = "Welcome to VendorLink! What product are you looking for?\n" +
		"(Reply 'skip' to skip a question, 'stop' to quit at any time.)"
	msgAskCategory  = "Which category does it belong to? (e.g. chemicals, textiles, metals, or 'skip')"
	msgAskQuantity  = "How many units do you need? (a number, or 'skip')"
	msgBadQuantity  = "That doesn't look like a valid quantity. Please send a non-negative number, or 'skip'."
	msgAskPincode   = "What is your pincode? (6 digits, or 'skip')"
	msgBadPincode   = "A pincode is exactly 6 digits. Please try again, or 'skip'."
	msgAskProximity = "Do you want suppliers from the 'same' region, or 'pan' India?"
	msgBadProximity = "Please reply exactly 'same' or 'pan'."
	msgNoSuppliers  = "Sorry, no matching suppliers were found."
	msgStopped      = "Okay, your search has been cancelled. Message us anytime to start again."
	msgFarewell     = "Thank you for using VendorLink. Goodbye!"
	msgLostState    = "Sorry, something went wrong with your session. Please message us again to restart."
	msgSearchAgain  = "\n\nWould you like to search again? (yes/no)"
)

const greetKeyword = "hello"

var pincodePattern = regexp.MustCompile(`^\d{6}$`)

// Engine advances buyer sessions turn by turn and runs the terminal search.
type Engine struct {
	sessions   *session.Store
	searcher   Searcher
	correlator Correlator
	notifier   Notifier
	logger     *slog.Logger
}

// NewEngine creates an Engine.
func NewEngine(log *slog.Logger, sessions *session.Store, searcher Searcher, correlator Correlator, notifier Notifier) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		sessions:   sessions,
		searcher:   searcher,
		correlator: correlator,
		notifier:   notifier,
		logger:     log.With(slog.String("service", "conversation")),
	}
}

// HandleMessage advances the buyer's session with one inbound text and
// returns the reply. All failures surface as buyer-facing text; none escape.
func (e *Engine) HandleMessage(ctx context.Context, from, text string) string {
	input := strings.TrimSpace(text)

	s, ok := e.sessions.Get(from)
	if !ok {
		e.sessions.GetOrCreate(from)
		return msgWelcome
	}
	if strings.EqualFold(input, greetKeyword) {
		// a new greeting overwrites the in-progress session
		e.sessions.Replace(from)
		return msgWelcome
	}

	s.Lock()
	defer s.Unlock()

	// A parallel turn from the same buyer may have destroyed or replaced the
	// session while this one waited for its lock; mutating the detached copy
	// would silently lose the answer.
	if cur, ok := e.sessions.Get(from); !ok || cur != s {
		e.sessions.GetOrCreate(from)
		return msgWelcome
	}
	s.Touch()

	if isStop(input) {
		e.sessions.Delete(from)
		return msgStopped
	}

	switch s.State {
	case session.StateProductName:
		if !isSkip(input) {
			s.Draft.ProductName = input
		}
		s.State = session.StateCategory
		return msgAskCategory

	case session.StateCategory:
		if !isSkip(input) {
			s.Draft.Category = input
		}
		s.State = session.StateQuantity
		return msgAskQuantity

	case session.StateQuantity:
		if !isSkip(input) {
			qty, err := strconv.ParseFloat(input, 64)
			if err != nil || qty < 0 {
				return msgBadQuantity
			}
			s.Draft.Quantity = &qty
		}
		s.State = session.StatePincode
		return msgAskPincode

	case session.StatePincode:
		if !isSkip(input) {
			if !pincodePattern.MatchString(input) {
				return msgBadPincode
			}
			s.Draft.Pincode = input
		}
		s.State = session.StateProximity
		return msgAskProximity

	case session.StateProximity:
		switch {
		case strings.EqualFold(input, string(match.ProximitySame)):
			s.Draft.Proximity = match.ProximitySame
		case strings.EqualFold(input, string(match.ProximityPan)):
			s.Draft.Proximity = match.ProximityPan
		default:
			return msgBadProximity
		}
		s.State = session.StateEnd
		return e.runSearch(ctx, s) + msgSearchAgain

	case session.StateEnd:
		if strings.EqualFold(input, "yes") || strings.EqualFold(input, "y") {
			s.Reset()
			return msgWelcome
		}
		e.sessions.Delete(from)
		return msgFarewell

	default:
		e.logger.Error("session in unknown state, destroying",
			slog.String("buyer", from),
			slog.Int("state", int(s.State)))
		e.sessions.Delete(from)
		return msgLostState
	}
}

// runSearch executes the terminal transition: match, correlate, fan out.
// The reply waits for the full fan-out to settle.
func (e *Engine) runSearch(ctx context.Context, s *session.Session) string {
	candidates, err := e.searcher.Search(ctx, s.Draft)
	if err != nil {
		e.logger.Warn("search failed",
			slog.String("buyer", s.Buyer),
			slog.Any("error", err))
		return msgNoSuppliers
	}

	contactable := candidates[:0]
	for _, c := range candidates {
		if strings.TrimSpace(c.Address) != "" {
			contactable = append(contactable, c)
		}
	}
	if len(contactable) == 0 {
		return msgNoSuppliers
	}

	id := e.correlator.Create(s.Buyer, s.Draft.ProductName, contactable)
	targeted := e.notifier.Notify(ctx, id, s.Draft, contactable)
	if targeted == 0 {
		return msgNoSuppliers
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Your inquiry was sent to %d supplier(s):\n", targeted)
	for i, c := range contactable {
		fmt.Fprintf(&b, "%d. %s (%s)\n", i+1, c.Name, c.Address)
	}
	b.WriteString("Their replies will arrive here.")
	return b.String()
}

func isSkip(input string) bool {
	return strings.EqualFold(input, "skip")
}

func isStop(input string) bool {
	return strings.EqualFold(input, "stop") || strings.EqualFold(input, "no")
}

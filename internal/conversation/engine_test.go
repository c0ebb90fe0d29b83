package conversation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendorlink/vendorlink/internal/match"
	"github.com/vendorlink/vendorlink/internal/session"
)

type fakeSearcher struct {
	lastReq    match.Request
	candidates []match.Candidate
	err        error
}

func (f *fakeSearcher) Search(_ context.Context, req match.Request) ([]match.Candidate, error) {
	f.lastReq = req
	return f.candidates, f.err
}

type fakeCorrelator struct {
	created int
	buyer   string
	product string
}

func (f *fakeCorrelator) Create(buyer, product string, _ []match.Candidate) string {
	f.created++
	f.buyer = buyer
	f.product = product
	return "1755000000000000001"
}

type fakeNotifier struct {
	notified   int
	candidates []match.Candidate
}

func (f *fakeNotifier) Notify(_ context.Context, _ string, _ match.Request, candidates []match.Candidate) int {
	f.notified++
	f.candidates = candidates
	return len(candidates)
}

type harness struct {
	engine     *Engine
	sessions   *session.Store
	searcher   *fakeSearcher
	correlator *fakeCorrelator
	notifier   *fakeNotifier
}

func newHarness() *harness {
	h := &harness{
		sessions: session.NewStore(),
		searcher: &fakeSearcher{
			candidates: []match.Candidate{
				{Address: "+911111111111", Name: "Vadodara Chem"},
			},
		},
		correlator: &fakeCorrelator{},
		notifier:   &fakeNotifier{},
	}
	h.engine = NewEngine(nil, h.sessions, h.searcher, h.correlator, h.notifier)
	return h
}

func (h *harness) send(t *testing.T, text string) string {
	t.Helper()
	return h.engine.HandleMessage(context.Background(), "+919999999999", text)
}

func TestFullIntakeFlow(t *testing.T) {
	h := newHarness()

	assert.Equal(t, msgWelcome, h.send(t, "hello"))
	assert.Equal(t, msgAskCategory, h.send(t, "Sodium"))
	assert.Equal(t, msgAskQuantity, h.send(t, "chemicals"))
	assert.Equal(t, msgAskPincode, h.send(t, "100"))
	assert.Equal(t, msgAskProximity, h.send(t, "390013"))

	reply := h.send(t, "same")
	assert.Contains(t, reply, "Vadodara Chem")
	assert.Contains(t, reply, "search again")

	// the accumulated request reflects exactly the answers given
	req := h.searcher.lastReq
	assert.Equal(t, "Sodium", req.ProductName)
	assert.Equal(t, "chemicals", req.Category)
	require.NotNil(t, req.Quantity)
	assert.Equal(t, 100.0, *req.Quantity)
	assert.Equal(t, "390013", req.Pincode)
	assert.Equal(t, match.ProximitySame, req.Proximity)

	assert.Equal(t, 1, h.correlator.created)
	assert.Equal(t, "+919999999999", h.correlator.buyer)
	assert.Equal(t, 1, h.notifier.notified)
}

func TestSkipEverything(t *testing.T) {
	h := newHarness()

	h.send(t, "hi")
	h.send(t, "skip")
	h.send(t, "SKIP")
	h.send(t, "skip")
	h.send(t, "skip")
	h.send(t, "pan")

	req := h.searcher.lastReq
	assert.Empty(t, req.ProductName)
	assert.Empty(t, req.Category)
	assert.Nil(t, req.Quantity)
	assert.Empty(t, req.Pincode)
	assert.Equal(t, match.ProximityPan, req.Proximity)
}

func TestInvalidInputsReprompt(t *testing.T) {
	h := newHarness()

	h.send(t, "hello")
	h.send(t, "Sodium")
	h.send(t, "chemicals")

	assert.Equal(t, msgBadQuantity, h.send(t, "many"))
	assert.Equal(t, msgBadQuantity, h.send(t, "-5"))
	assert.Equal(t, msgAskPincode, h.send(t, "50"))

	assert.Equal(t, msgBadPincode, h.send(t, "1234"))
	assert.Equal(t, msgBadPincode, h.send(t, "39001x"))
	assert.Equal(t, msgAskProximity, h.send(t, "390013"))

	assert.Equal(t, msgBadProximity, h.send(t, "nearby"))
	assert.Contains(t, h.send(t, "SAME"), "supplier")
}

func TestStopDestroysSessionInAnyState(t *testing.T) {
	for _, stop := range []string{"stop", "STOP", "no", "No"} {
		h := newHarness()
		h.send(t, "hello")
		h.send(t, "Sodium")

		assert.Equal(t, msgStopped, h.send(t, stop))
		assert.Zero(t, h.sessions.Len())

		// next message with no session creates a fresh one
		assert.Equal(t, msgWelcome, h.send(t, "anything at all"))
		assert.Equal(t, 1, h.sessions.Len())
	}
}

func TestGreetingOverwritesExistingSession(t *testing.T) {
	h := newHarness()

	h.send(t, "hello")
	h.send(t, "Sodium")
	h.send(t, "chemicals")

	assert.Equal(t, msgWelcome, h.send(t, "HELLO"))
	s, ok := h.sessions.Get("+919999999999")
	require.True(t, ok)
	assert.Equal(t, session.StateProductName, s.State)
	assert.Empty(t, s.Draft.ProductName)
}

func TestSearchAgainRestartsWithCleanDraft(t *testing.T) {
	h := newHarness()

	h.send(t, "hello")
	h.send(t, "Sodium")
	h.send(t, "skip")
	h.send(t, "skip")
	h.send(t, "skip")
	h.send(t, "pan")

	assert.Equal(t, msgWelcome, h.send(t, "yes"))
	s, _ := h.sessions.Get("+919999999999")
	assert.Equal(t, session.StateProductName, s.State)
	assert.Empty(t, s.Draft.ProductName)

	// anything other than yes at END destroys the session
	h.send(t, "Copper")
	h.send(t, "skip")
	h.send(t, "skip")
	h.send(t, "skip")
	h.send(t, "pan")
	assert.Equal(t, msgFarewell, h.send(t, "thanks"))
	assert.Zero(t, h.sessions.Len())
}

func TestSearchFailureKeepsSessionAlive(t *testing.T) {
	h := newHarness()
	h.searcher.err = errors.New("embeddings down")

	h.send(t, "hello")
	h.send(t, "Sodium")
	h.send(t, "skip")
	h.send(t, "skip")
	h.send(t, "skip")

	reply := h.send(t, "pan")
	assert.Contains(t, reply, msgNoSuppliers)
	assert.Contains(t, reply, "search again")
	assert.Equal(t, 1, h.sessions.Len())
	assert.Zero(t, h.correlator.created)
}

func TestNoContactableSuppliers(t *testing.T) {
	h := newHarness()
	h.searcher.candidates = []match.Candidate{{Address: "", Name: "ghost"}}

	h.send(t, "hello")
	h.send(t, "Sodium")
	h.send(t, "skip")
	h.send(t, "skip")
	h.send(t, "skip")

	reply := h.send(t, "same")
	assert.Contains(t, reply, msgNoSuppliers)
	assert.Zero(t, h.correlator.created)
	assert.Zero(t, h.notifier.notified)
}

func TestTurnOnDestroyedSessionStartsFresh(t *testing.T) {
	h := newHarness()

	h.send(t, "hello")
	s, ok := h.sessions.Get("+919999999999")
	require.True(t, ok)

	// hold the session lock so the next turn parks on it, then destroy the
	// session out from under that turn
	s.Lock()
	done := make(chan string, 1)
	go func() {
		done <- h.engine.HandleMessage(context.Background(), "+919999999999", "Sodium")
	}()
	time.Sleep(20 * time.Millisecond)
	h.sessions.Delete("+919999999999")
	s.Unlock()

	assert.Equal(t, msgWelcome, <-done)
	// the detached session was not mutated back into the store
	fresh, ok := h.sessions.Get("+919999999999")
	require.True(t, ok)
	assert.Equal(t, session.StateProductName, fresh.State)
	assert.Empty(t, fresh.Draft.ProductName)
}

func TestUnknownStateDestroysSession(t *testing.T) {
	h := newHarness()

	h.send(t, "hello")
	s, _ := h.sessions.Get("+919999999999")
	s.State = session.State(99)

	assert.Equal(t, msgLostState, h.send(t, "Sodium"))
	assert.Zero(t, h.sessions.Len())
}

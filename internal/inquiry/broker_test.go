package inquiry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vendorlink/vendorlink/internal/match"
)

type recordingMessenger struct {
	mu    sync.Mutex
	sends map[string][]string
	err   error
}

func newRecordingMessenger() *recordingMessenger {
	return &recordingMessenger{sends: map[string][]string{}}
}

func (m *recordingMessenger) Send(_ context.Context, to, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends[to] = append(m.sends[to], text)
	return m.err
}

func candidates() []match.Candidate {
	return []match.Candidate{
		{Address: "+911111111111", Name: "Vadodara Chem"},
		{Address: "+912222222222", Name: "Surat Traders"},
	}
}

func TestCreateMintsUniqueDigitIDs(t *testing.T) {
	broker := NewBroker(nil, newRecordingMessenger())

	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := broker.Create("+919999999999", "Sodium", candidates())
		require.Regexp(t, `^\d+$`, id)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
	assert.Equal(t, 100, broker.Len())
}

func TestRouteReplyDelivered(t *testing.T) {
	messenger := newRecordingMessenger()
	broker := NewBroker(nil, messenger)

	id := broker.Create("+919999999999", "Sodium", candidates())
	status := broker.RouteReply(context.Background(), "Re "+Marker+id+" we have stock", "+911111111111")

	assert.Equal(t, StatusDelivered, status)
	require.Len(t, messenger.sends["+919999999999"], 1)
	assert.Contains(t, messenger.sends["+919999999999"][0], "Vadodara Chem")
	assert.Contains(t, messenger.sends["+919999999999"][0], "we have stock")
}

func TestRouteReplyFromNonParty(t *testing.T) {
	messenger := newRecordingMessenger()
	broker := NewBroker(nil, messenger)

	id := broker.Create("+919999999999", "Sodium", candidates())
	status := broker.RouteReply(context.Background(), Marker+id, "+913333333333")

	assert.Equal(t, StatusNotParty, status)
	assert.Empty(t, messenger.sends)
}

func TestRouteReplyUnknownInquiry(t *testing.T) {
	broker := NewBroker(nil, newRecordingMessenger())

	status := broker.RouteReply(context.Background(), "#123456789", "+911111111111")
	assert.Equal(t, StatusNotFound, status)
}

func TestRouteReplyWithoutReference(t *testing.T) {
	broker := NewBroker(nil, newRecordingMessenger())

	status := broker.RouteReply(context.Background(), "hello there", "+911111111111")
	assert.Equal(t, StatusNoReference, status)
}

func TestRouteReplySurvivesSendFailure(t *testing.T) {
	messenger := newRecordingMessenger()
	messenger.err = errors.New("carrier down")
	broker := NewBroker(nil, messenger)

	id := broker.Create("+919999999999", "Sodium", candidates())
	status := broker.RouteReply(context.Background(), Marker+id, "+911111111111")

	// delivery is at-most-once and unconfirmed; routing still succeeded
	assert.Equal(t, StatusDelivered, status)
}

func TestHasReference(t *testing.T) {
	assert.True(t, HasReference("reply to #1755112233 please"))
	assert.False(t, HasReference("no marker here"))
	assert.False(t, HasReference("# but no digits"))
}

func TestRouteReplyConcurrentWithSweep(t *testing.T) {
	broker := NewBroker(nil, newRecordingMessenger())

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		id := broker.Create("+919999999999", "Sodium", candidates())
		wg.Add(2)
		go func() {
			defer wg.Done()
			status := broker.RouteReply(context.Background(), Marker+id, "+911111111111")
			// the sweep may win the race, but routing never crashes
			assert.Contains(t, []Status{StatusDelivered, StatusNotFound}, status)
		}()
		go func() {
			defer wg.Done()
			broker.Sweep(-time.Hour)
		}()
	}
	wg.Wait()
}

func TestSweepEvictsOldInquiries(t *testing.T) {
	broker := NewBroker(nil, newRecordingMessenger())

	oldID := broker.Create("+919999999999", "Sodium", candidates())
	broker.mu.Lock()
	broker.inquiries[oldID].CreatedAt = time.Now().Add(-100 * time.Hour)
	broker.mu.Unlock()
	broker.Create("+918888888888", "Copper", candidates())

	removed := broker.Sweep(72 * time.Hour)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, broker.Len())

	_, status := broker.Resolve(oldID, "+911111111111")
	assert.Equal(t, StatusNotFound, status)
}

package app

import (
	"testing"
	"time"

	"vehicle_rental_service/internal/realtime/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typingSetup(t *testing.T, idle time.Duration) (*TypingTracker, *fakeSender) {
	t.Helper()
	v := newTestVerifier()
	reg := NewRegistry(v, nil)
	n := NewNotifier(reg)

	watcher, sender := admit(t, reg, v, 2, "support_agent")
	require.NoError(t, reg.JoinRoom(watcher.ConnID, domain.TicketRoom(1)))

	return NewTypingTracker(n, idle), sender
}

func TestTypingTracker_RelaysStartAndStop(t *testing.T) {
	tracker, sender := typingSetup(t, time.Minute)
	defer tracker.Stop()

	tracker.NotifyTyping(1, 5, "customer@rental.test", true)
	tracker.NotifyTyping(1, 5, "customer@rental.test", false)

	assert.Equal(t, []string{domain.EventUserTyping, domain.EventUserStopTyping}, sender.eventTypes())
}

func TestTypingTracker_AutoExpiresLostStop(t *testing.T) {
	tracker, sender := typingSetup(t, 30*time.Millisecond)
	defer tracker.Stop()

	tracker.NotifyTyping(1, 5, "customer@rental.test", true)

	assert.Eventually(t, func() bool {
		types := sender.eventTypes()
		return len(types) == 2 && types[1] == domain.EventUserStopTyping
	}, time.Second, 10*time.Millisecond)
}

func TestTypingTracker_ExplicitStopCancelsExpiry(t *testing.T) {
	tracker, sender := typingSetup(t, 40*time.Millisecond)
	defer tracker.Stop()

	tracker.NotifyTyping(1, 5, "customer@rental.test", true)
	tracker.NotifyTyping(1, 5, "customer@rental.test", false)

	time.Sleep(120 * time.Millisecond)

	// exactly one stop: the explicit one, no expiry duplicate
	assert.Equal(t, []string{domain.EventUserTyping, domain.EventUserStopTyping}, sender.eventTypes())
}

func TestTypingTracker_OriginatorExcluded(t *testing.T) {
	v := newTestVerifier()
	reg := NewRegistry(v, nil)
	n := NewNotifier(reg)

	typist, typistSender := admit(t, reg, v, 5, "customer")
	watcher, watcherSender := admit(t, reg, v, 2, "support_agent")
	require.NoError(t, reg.JoinRoom(typist.ConnID, domain.TicketRoom(1)))
	require.NoError(t, reg.JoinRoom(watcher.ConnID, domain.TicketRoom(1)))

	tracker := NewTypingTracker(n, time.Minute)
	defer tracker.Stop()

	tracker.NotifyTyping(1, 5, "customer@rental.test", true)

	assert.Equal(t, []string{domain.EventUserTyping}, watcherSender.eventTypes())
	assert.Zero(t, typistSender.count())
}

func TestTypingTracker_RestartResetsTimer(t *testing.T) {
	tracker, sender := typingSetup(t, 60*time.Millisecond)
	defer tracker.Stop()

	tracker.NotifyTyping(1, 5, "customer@rental.test", true)
	time.Sleep(30 * time.Millisecond)
	tracker.NotifyTyping(1, 5, "customer@rental.test", true)
	time.Sleep(40 * time.Millisecond)

	// second start pushed the deadline; no stop emitted yet
	for _, typ := range sender.eventTypes() {
		assert.NotEqual(t, domain.EventUserStopTyping, typ)
	}
}

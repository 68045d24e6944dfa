package app

import (
	"fmt"
	"sync"
	"time"

	"vehicle_rental_service/internal/realtime/domain"
)

// TypingTracker relays typing indicators and clears stuck ones. A client
// whose stop event never arrives (lost frame, abrupt disconnect) would
// otherwise leave the indicator on forever, so an idle timer per
// (ticket, user) pair emits the stop on its behalf.
type TypingTracker struct {
	mu       sync.Mutex
	notifier *Notifier
	idle     time.Duration
	timers   map[string]*time.Timer
}

// NewTypingTracker create a TypingTracker with the given idle window.
func NewTypingTracker(notifier *Notifier, idle time.Duration) *TypingTracker {
	if idle <= 0 {
		idle = 6 * time.Second
	}
	return &TypingTracker{
		notifier: notifier,
		idle:     idle,
		timers:   make(map[string]*time.Timer),
	}
}

// NotifyTyping relays the indicator to the ticket room. Nothing is
// persisted and there is no acknowledgement.
func (t *TypingTracker) NotifyTyping(ticketID, userID uint, userEmail string, isTyping bool) {
	payload := domain.TypingPayload{
		TicketID:  ticketID,
		UserID:    userID,
		UserEmail: userEmail,
		IsTyping:  isTyping,
	}
	key := typingKey(ticketID, userID)

	t.mu.Lock()
	if timer, ok := t.timers[key]; ok {
		timer.Stop()
		delete(t.timers, key)
	}
	if isTyping {
		t.timers[key] = time.AfterFunc(t.idle, func() {
			t.expire(key, payload)
		})
	}
	t.mu.Unlock()

	t.notifier.Typing(payload)
}

// Stop cancels every pending expiry timer.
func (t *TypingTracker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for key, timer := range t.timers {
		timer.Stop()
		delete(t.timers, key)
	}
}

func (t *TypingTracker) expire(key string, payload domain.TypingPayload) {
	t.mu.Lock()
	if _, ok := t.timers[key]; !ok {
		// an explicit stop won the race
		t.mu.Unlock()
		return
	}
	delete(t.timers, key)
	t.mu.Unlock()

	payload.IsTyping = false
	t.notifier.Typing(payload)
}

func typingKey(ticketID, userID uint) string {
	return fmt.Sprintf("%d:%d", ticketID, userID)
}

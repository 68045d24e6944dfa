package app

import (
	"fmt"
	"testing"

	"vehicle_rental_service/internal/realtime/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_PublishReachesMembersOnly(t *testing.T) {
	v := newTestVerifier()
	reg := NewRegistry(v, nil)
	n := NewNotifier(reg)

	inA, senderA := admit(t, reg, v, 1, "customer")
	inB, senderB := admit(t, reg, v, 2, "support_agent")
	_, senderC := admit(t, reg, v, 3, "customer")

	require.NoError(t, reg.JoinRoom(inA.ConnID, domain.TicketRoom(10)))
	require.NoError(t, reg.JoinRoom(inB.ConnID, domain.TicketRoom(10)))

	n.Publish(domain.TicketRoom(10), domain.EventChatMessage, map[string]interface{}{"body": "hi"})

	assert.Equal(t, []string{domain.EventChatMessage}, senderA.eventTypes())
	assert.Equal(t, []string{domain.EventChatMessage}, senderB.eventTypes())
	assert.Zero(t, senderC.count())
}

func TestNotifier_LateJoinerMissesEvent(t *testing.T) {
	v := newTestVerifier()
	reg := NewRegistry(v, nil)
	n := NewNotifier(reg)

	identity, sender := admit(t, reg, v, 1, "customer")

	n.Publish(domain.TicketRoom(5), domain.EventChatMessage, nil)
	require.NoError(t, reg.JoinRoom(identity.ConnID, domain.TicketRoom(5)))

	// no replay for members that joined after the publish
	assert.Zero(t, sender.count())
}

func TestNotifier_PublishAfterRemoveSkipsConnection(t *testing.T) {
	v := newTestVerifier()
	reg := NewRegistry(v, nil)
	n := NewNotifier(reg)

	inA, senderA := admit(t, reg, v, 1, "customer")
	inB, senderB := admit(t, reg, v, 2, "customer")
	require.NoError(t, reg.JoinRoom(inA.ConnID, domain.TicketRoom(3)))
	require.NoError(t, reg.JoinRoom(inB.ConnID, domain.TicketRoom(3)))

	reg.Remove(inA.ConnID)
	n.Publish(domain.TicketRoom(3), domain.EventChatMessage, nil)

	assert.Zero(t, senderA.count())
	assert.Equal(t, 1, senderB.count())
}

func TestNotifier_PublishToManyDeliversOnce(t *testing.T) {
	v := newTestVerifier()
	reg := NewRegistry(v, nil)
	n := NewNotifier(reg)

	identity, sender := admit(t, reg, v, 9, "support_agent")
	require.NoError(t, reg.JoinRoom(identity.ConnID, domain.TicketRoom(1)))

	// present in all three target rooms, delivered exactly once
	n.PublishToMany([]string{
		domain.TicketRoom(1),
		domain.UserRoom(9),
		domain.RoleRoom("support_agent"),
	}, domain.EventTicketUpdated, nil)

	assert.Equal(t, 1, sender.count())
}

func TestNotifier_TicketCreatedTargets(t *testing.T) {
	v := newTestVerifier()
	reg := NewRegistry(v, nil)
	n := NewNotifier(reg)

	_, adminSender := admit(t, reg, v, 1, "admin")
	_, agentSender := admit(t, reg, v, 2, "support_agent")
	_, ownerSender := admit(t, reg, v, 3, "customer")
	_, otherSender := admit(t, reg, v, 4, "customer")

	n.TicketCreated(3, map[string]interface{}{"id": 77})

	assert.Equal(t, []string{domain.EventTicketCreated}, adminSender.eventTypes())
	assert.Equal(t, []string{domain.EventTicketCreated}, agentSender.eventTypes())
	assert.Equal(t, []string{domain.EventTicketCreated}, ownerSender.eventTypes())
	assert.Zero(t, otherSender.count())
}

func TestNotifier_TicketStatusChangedTargets(t *testing.T) {
	v := newTestVerifier()
	reg := NewRegistry(v, nil)
	n := NewNotifier(reg)

	_, ownerSender := admit(t, reg, v, 5, "customer")
	_, agentSender := admit(t, reg, v, 6, "support_agent")
	_, otherSender := admit(t, reg, v, 7, "customer")

	agentID := uint(6)
	n.TicketStatusChanged(30, 5, &agentID, "in_progress")

	assert.Equal(t, []string{domain.EventTicketStatusChanged}, ownerSender.eventTypes())
	assert.Equal(t, []string{domain.EventTicketStatusChanged}, agentSender.eventTypes())
	assert.Zero(t, otherSender.count())
}

func TestNotifier_NewChatMessageEvents(t *testing.T) {
	v := newTestVerifier()
	reg := NewRegistry(v, nil)
	n := NewNotifier(reg)

	identity, sender := admit(t, reg, v, 1, "customer")
	require.NoError(t, reg.JoinRoom(identity.ConnID, domain.TicketRoom(8)))

	n.NewChatMessage(8, map[string]interface{}{"message": "hello"})

	assert.Equal(t, []string{domain.EventChatMessage, domain.EventTicketNewMessage}, sender.eventTypes())
}

func TestNotifier_FIFOPerRoom(t *testing.T) {
	v := newTestVerifier()
	reg := NewRegistry(v, nil)
	n := NewNotifier(reg)

	identity, sender := admit(t, reg, v, 1, "customer")
	require.NoError(t, reg.JoinRoom(identity.ConnID, domain.TicketRoom(2)))

	for i := 0; i < 20; i++ {
		n.Publish(domain.TicketRoom(2), domain.EventChatMessage, fmt.Sprintf("msg-%d", i))
	}

	require.Equal(t, 20, sender.count())
	for i, ev := range sender.events {
		assert.Equal(t, fmt.Sprintf("msg-%d", i), ev.Data)
	}
}

func TestNotifier_EnvelopeShape(t *testing.T) {
	v := newTestVerifier()
	reg := NewRegistry(v, nil)
	n := NewNotifier(reg)

	_, sender := admit(t, reg, v, 1, "customer")

	n.SystemMessage(domain.UserRoom(1), "maintenance window")

	require.Equal(t, 1, sender.count())
	ev := sender.events[0]
	assert.Equal(t, domain.EventSystemMessage, ev.Type)
	assert.NotEmpty(t, ev.Timestamp)
	assert.Equal(t, map[string]interface{}{"message": "maintenance window"}, ev.Data)
}

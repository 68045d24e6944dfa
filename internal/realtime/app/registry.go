package app

import (
	"errors"
	"sync"

	"vehicle_rental_service/internal/realtime/domain"
	"vehicle_rental_service/pkg/logger"
	"vehicle_rental_service/pkg/token"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	// ErrUnknownConn join/leave was asked for a connection id that is not registered
	ErrUnknownConn = errors.New("unknown connection")
	// ErrRoomLimit a connection tried to join more ticket rooms than allowed
	ErrRoomLimit = errors.New("ticket room limit reached")
)

// maxTicketRooms caps how many ticket rooms one connection may join.
const maxTicketRooms = 64

// Sender delivers one event to a connection without blocking. It reports
// false when the event had to be dropped (slow or gone recipient).
type Sender interface {
	Send(ev domain.Event) bool
}

// TokenVerifier validates a bearer credential during the handshake.
type TokenVerifier interface {
	Verify(credential string) (*token.Claims, error)
}

// PresenceMirror reflects who is online into an external store for the
// operational/REST side. All calls are best effort.
type PresenceMirror interface {
	UserOnline(identity domain.Identity)
	UserOffline(identity domain.Identity)
	Heartbeat(userID uint)
}

type entry struct {
	identity domain.Identity
	sender   Sender
	rooms    map[string]struct{}
}

// Registry owns the set of live connections and their room membership.
// Every mutation and every membership snapshot taken for a publish holds
// the same lock, so a publish never iterates a half-updated room.
type Registry struct {
	mu        sync.RWMutex
	verifier  TokenVerifier
	mirror    PresenceMirror
	conns     map[string]*entry
	rooms     map[string]map[string]struct{}
	userConns map[uint]int
}

// NewRegistry create a Registry. mirror may be nil.
func NewRegistry(verifier TokenVerifier, mirror PresenceMirror) *Registry {
	return &Registry{
		verifier:  verifier,
		mirror:    mirror,
		conns:     make(map[string]*entry),
		rooms:     make(map[string]map[string]struct{}),
		userConns: make(map[uint]int),
	}
}

// Admit verifies the credential and registers the connection. On success
// the connection is already a member of its user room and role room.
// On failure nothing is registered.
func (r *Registry) Admit(sender Sender, credential string) (domain.Identity, error) {
	claims, err := r.verifier.Verify(credential)
	if err != nil {
		return domain.Identity{}, err
	}

	identity := domain.Identity{
		ConnID: uuid.New().String(),
		UserID: claims.UserID,
		Role:   claims.Role,
		Email:  claims.Email,
	}

	r.mu.Lock()
	e := &entry{
		identity: identity,
		sender:   sender,
		rooms:    make(map[string]struct{}),
	}
	r.conns[identity.ConnID] = e
	r.joinLocked(e, domain.UserRoom(identity.UserID))
	r.joinLocked(e, domain.RoleRoom(identity.Role))
	r.userConns[identity.UserID]++
	first := r.userConns[identity.UserID] == 1
	r.mu.Unlock()

	if r.mirror != nil && first {
		r.mirror.UserOnline(identity)
	}

	logger.Log.Info("connection admitted",
		zap.String("connID", identity.ConnID),
		zap.Uint("userID", identity.UserID),
		zap.String("role", identity.Role),
	)
	return identity, nil
}

// Remove unregisters the connection and drops it from every room it
// belonged to. Safe to call multiple times.
func (r *Registry) Remove(connID string) {
	r.mu.Lock()
	e, ok := r.conns[connID]
	var identity domain.Identity
	var last bool
	if ok {
		for room := range e.rooms {
			r.leaveLocked(e, room)
		}
		delete(r.conns, connID)
		identity = e.identity
		r.userConns[identity.UserID]--
		if r.userConns[identity.UserID] <= 0 {
			delete(r.userConns, identity.UserID)
			last = true
		}
	}
	r.mu.Unlock()

	if !ok {
		return
	}
	if r.mirror != nil && last {
		r.mirror.UserOffline(identity)
	}
	logger.Log.Info("connection removed", zap.String("connID", connID), zap.Uint("userID", identity.UserID))
}

// JoinRoom adds the connection to a ticket room. Access authorization is
// the caller's responsibility.
func (r *Registry) JoinRoom(connID, room string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connID]
	if !ok {
		return ErrUnknownConn
	}
	if domain.IsTicketRoom(room) && r.ticketRoomsLocked(e) >= maxTicketRooms {
		if _, member := e.rooms[room]; !member {
			return ErrRoomLimit
		}
	}
	r.joinLocked(e, room)
	return nil
}

// LeaveRoom removes the connection from a room. Leaving a room the
// connection never joined is a no-op.
func (r *Registry) LeaveRoom(connID, room string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.conns[connID]
	if !ok {
		return ErrUnknownConn
	}
	r.leaveLocked(e, room)
	return nil
}

// Heartbeat refreshes the presence mirror entry for the connection owner.
func (r *Registry) Heartbeat(connID string) {
	r.mu.RLock()
	e, ok := r.conns[connID]
	r.mu.RUnlock()
	if ok && r.mirror != nil {
		r.mirror.Heartbeat(e.identity.UserID)
	}
}

// CountConnected returns the number of live connections.
func (r *Registry) CountConnected() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// ListByRole returns the identities of every connection with the role.
func (r *Registry) ListByRole(role string) []domain.Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var identities []domain.Identity
	for connID := range r.rooms[domain.RoleRoom(role)] {
		if e, ok := r.conns[connID]; ok {
			identities = append(identities, e.identity)
		}
	}
	return identities
}

// Rooms returns the rooms the connection currently belongs to.
func (r *Registry) Rooms(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.conns[connID]
	if !ok {
		return nil
	}
	rooms := make([]string, 0, len(e.rooms))
	for room := range e.rooms {
		rooms = append(rooms, room)
	}
	return rooms
}

// Recipients snapshots the senders of every connection that is a member
// of at least one of the rooms, each connection at most once.
func (r *Registry) Recipients(rooms ...string) []Sender {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var senders []Sender
	for _, room := range rooms {
		for connID := range r.rooms[room] {
			if _, dup := seen[connID]; dup {
				continue
			}
			seen[connID] = struct{}{}
			if e, ok := r.conns[connID]; ok {
				senders = append(senders, e.sender)
			}
		}
	}
	return senders
}

// RecipientsExcluding is Recipients minus every connection owned by the
// excluded user.
func (r *Registry) RecipientsExcluding(excludeUserID uint, rooms ...string) []Sender {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	var senders []Sender
	for _, room := range rooms {
		for connID := range r.rooms[room] {
			if _, dup := seen[connID]; dup {
				continue
			}
			seen[connID] = struct{}{}
			if e, ok := r.conns[connID]; ok && e.identity.UserID != excludeUserID {
				senders = append(senders, e.sender)
			}
		}
	}
	return senders
}

func (r *Registry) joinLocked(e *entry, room string) {
	if r.rooms[room] == nil {
		r.rooms[room] = make(map[string]struct{})
	}
	r.rooms[room][e.identity.ConnID] = struct{}{}
	e.rooms[room] = struct{}{}
}

func (r *Registry) leaveLocked(e *entry, room string) {
	if members, ok := r.rooms[room]; ok {
		delete(members, e.identity.ConnID)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	delete(e.rooms, room)
}

func (r *Registry) ticketRoomsLocked(e *entry) int {
	n := 0
	for room := range e.rooms {
		if domain.IsTicketRoom(room) {
			n++
		}
	}
	return n
}

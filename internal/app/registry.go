package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/core"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
)

type sessionEntry struct {
	Session core.MemberSession
	Rooms   map[domain.RoomID]*domain.Member
	Cancel  context.CancelFunc
}

// Registry tracks live connections and the rooms each one joined.
// It is the locally known membership set, rooms hold the fan-out side.
type Registry struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*sessionEntry
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[core.SessionID]*sessionEntry),
	}
}

func (r *Registry) BindSignal(sid core.SessionID, sess core.MemberSession, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sid] = &sessionEntry{
		Session: sess,
		Rooms:   make(map[domain.RoomID]*domain.Member),
		Cancel:  cancel,
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("bound signal")
}

func (r *Registry) GetSession(sid core.SessionID) (core.MemberSession, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.sessions[sid]; ok {
		return e.Session, true
	}
	return nil, false
}

// Unbind drops the connection and returns the rooms it was still part of.
func (r *Registry) Unbind(sid core.SessionID) []domain.RoomID {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil
	}
	rooms := make([]domain.RoomID, 0, len(e.Rooms))
	for id := range e.Rooms {
		rooms = append(rooms, id)
	}
	delete(r.sessions, sid)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Int("rooms", len(rooms)).Msg("unbind session")
	return rooms
}

// JoinRoom records membership. A RoleNone join keeps the role already known
// for that room. It reports false when the connection is not bound.
func (r *Registry) JoinRoom(sid core.SessionID, room domain.RoomID, role domain.Role) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	if m, ok := e.Rooms[room]; ok {
		if role != domain.RoleNone {
			m.Role = role
		}
		return true
	}
	e.Rooms[room] = domain.NewMember(room, role)
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room_id", string(room)).Str("role", string(role)).Msg("joined room")
	return true
}

func (r *Registry) LeaveRoom(sid core.SessionID, room domain.RoomID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.sessions[sid]; ok {
		delete(e.Rooms, room)
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Str("room_id", string(room)).Msg("left room")
}

func (r *Registry) InRoom(sid core.SessionID, room domain.RoomID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return false
	}
	_, ok = e.Rooms[room]
	return ok
}

// RoleIn returns the role sid joined room with, RoleNone if it did not.
func (r *Registry) RoleIn(sid core.SessionID, room domain.RoomID) domain.Role {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return domain.RoleNone
	}
	if m, ok := e.Rooms[room]; ok {
		return m.Role
	}
	return domain.RoleNone
}

func (r *Registry) RoomsOf(sid core.SessionID) []domain.RoomID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.sessions[sid]
	if !ok {
		return nil
	}
	out := make([]domain.RoomID, 0, len(e.Rooms))
	for id := range e.Rooms {
		out = append(out, id)
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) Cancel(sid core.SessionID) bool {
	r.mu.RLock()
	e, ok := r.sessions[sid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("sid", string(sid)).Msg("canceled session")
	return true
}

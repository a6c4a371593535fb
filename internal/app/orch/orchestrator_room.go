package orch

import (
	"github.com/rs/zerolog/log"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/core"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
)

// JoinRoom records sid as a member of room in both the registry and the
// fan-out group. It reports false for an unknown connection.
func (o *Orchestrator) JoinRoom(sid core.SessionID, room domain.RoomID, role domain.Role) bool {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return false
	}
	if !o.Registry.JoinRoom(sid, room, role) {
		return false
	}
	o.Rooms.Join(room, sess)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("room_id", string(room)).Str("role", string(role)).Msg("added to room")
	return true
}

func (o *Orchestrator) LeaveRoom(sid core.SessionID, room domain.RoomID) {
	o.Registry.LeaveRoom(sid, room)
	o.Rooms.Leave(room, sid)
}

// kick removes sid from the fan-out group only. The registry keeps its role,
// so EnsureMembership restores it on the next event.
func (o *Orchestrator) kick(sid core.SessionID, room domain.RoomID) {
	o.Rooms.Leave(room, sid)
}

// EnsureMembership (re)joins sid to room when either side lost it, keeping
// the role it already has there.
func (o *Orchestrator) EnsureMembership(sid core.SessionID, room domain.RoomID) bool {
	if o.Registry.InRoom(sid, room) {
		if r, ok := o.Rooms.Get(room); ok && r.Has(sid) {
			return true
		}
	}
	log.Debug().Str("module", "orch").Str("sid", string(sid)).Str("room_id", string(room)).Msg("rejoin")
	return o.JoinRoom(sid, room, domain.RoleNone)
}

// HasRole reports whether sid joined room with role.
func (o *Orchestrator) HasRole(sid core.SessionID, room domain.RoomID, role domain.Role) bool {
	return o.Registry.RoleIn(sid, room) == role
}

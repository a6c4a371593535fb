// Package orch ties presence, room status and broadcast together.
package orch

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/app"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/core"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/metrics"
)

type Orchestrator struct {
	Registry *app.Registry
	Rooms    core.RoomManager
	Policy   app.Policy
	Store    core.RoomStore
	Locks    app.RoomLocker
	Bus      core.RoomBus
}

var _ core.Broadcaster = (*Orchestrator)(nil)

// EmitToRoom hands a frame to the bus; delivery happens in Deliver on every
// instance subscribed to it. Without a bus the frame is delivered locally.
func (o *Orchestrator) EmitToRoom(ctx context.Context, room domain.RoomID, data core.Frame, exclude core.SessionID) error {
	env := core.RoomEnvelope{Room: room, Exclude: exclude, Data: data}
	if o.Bus == nil {
		o.Deliver(env)
		return nil
	}
	return o.Bus.Publish(ctx, env)
}

// Deliver fans an envelope out to the local members of its room.
func (o *Orchestrator) Deliver(env core.RoomEnvelope) {
	room, ok := o.Rooms.Get(env.Room)
	if !ok {
		return
	}

	res := room.Broadcast(env.Exclude, env.Data)
	if len(res.Dropped) > 0 {
		metrics.BroadcastDropped.Add(float64(len(res.Dropped)))
	}
	if o.Policy == nil {
		return
	}
	for _, slow := range res.Dropped {
		switch o.Policy.OnBackPressure(room, slow) {
		case app.KickMember:
			log.Warn().Str("module", "orch").Str("sid", string(slow.ID())).Str("room_id", string(env.Room)).Msg("slow consumer kicked")
			o.kick(slow.ID(), env.Room)
		case app.MarkSlow, app.DropFrame, app.NoAction:
		}
	}
}

// OnDisconnect drops every membership of sid and forgets the connection.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	for _, room := range o.Registry.Unbind(sid) {
		o.Rooms.Leave(room, sid)
	}
	log.Info().Str("module", "orch").Str("sid", string(sid)).Msg("disconnected")
}

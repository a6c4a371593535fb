package signal

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/core"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
)

// lifecycleErrorText maps a status transition failure to the client text.
func lifecycleErrorText(err error) string {
	switch {
	case errors.Is(err, core.ErrRoomNotFound),
		errors.Is(err, domain.ErrRoomFinalized),
		errors.Is(err, domain.ErrInvalidTransition):
		return errRoomUnavailable
	default:
		return errRoomUpdate
	}
}

// allowed reports whether sid may act as role in the room. Without role
// enforcement everything is allowed.
func (ctl *SignalWSController) allowed(sid core.SessionID, room domain.RoomID, role domain.Role) bool {
	if !ctl.opts.EnforceRoles {
		return true
	}
	return ctl.Orch.HasRole(sid, room, role)
}

// handleDoctorJoin is silent towards the room. Only a missing room is
// reported back; a closed or finalized room keeps the observer joined.
func (ctl *SignalWSController) handleDoctorJoin(ctx context.Context, sid core.SessionID, conn core.SignalConnection, in inbound) {
	st, err := ctl.Orch.JoinClinician(ctx, sid, in.RoomID)
	switch {
	case err == nil:
		log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room_id", string(in.RoomID)).Str("status", string(st)).Msg("clinician joined")
	case errors.Is(err, core.ErrRoomNotFound):
		ctl.sendError(conn, in.Type, errRoomUnavailable)
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrRoomFinalized):
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room_id", string(in.RoomID)).Msg("clinician joined closed room")
	default:
		log.Error().Err(err).Str("module", "signal").Str("room_id", string(in.RoomID)).Msg("clinician join")
		ctl.sendError(conn, in.Type, errRoomUpdate)
	}
}

func (ctl *SignalWSController) handlePatientJoin(ctx context.Context, sid core.SessionID, conn core.SignalConnection, in inbound) {
	st, err := ctl.Orch.JoinPatient(ctx, sid, in.RoomID)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Str("room_id", string(in.RoomID)).Msg("patient join rejected")
		ctl.sendError(conn, in.Type, lifecycleErrorText(err))
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room_id", string(in.RoomID)).Str("status", string(st)).Msg("patient joined")
	ctl.emit(ctx, in, outPatientJoined, msgPatientJoined, sid)
}

func (ctl *SignalWSController) handlePosition(ctx context.Context, sid core.SessionID, conn core.SignalConnection, in inbound) {
	if !ctl.Orch.EnsureMembership(sid, in.RoomID) {
		ctl.sendError(conn, in.Type, errInternal)
		return
	}
	ctl.emit(ctx, in, outPosition, positionMessage{Sender: string(sid), Position: in.Position}, sid)
}

// handleDoctorClose re-broadcasts closeRoom on every call. Every close that
// leaves the chat finished asks for the directive; the service stores it once.
func (ctl *SignalWSController) handleDoctorClose(ctx context.Context, sid core.SessionID, conn core.SignalConnection, in inbound) {
	if !ctl.allowed(sid, in.RoomID, domain.RoleClinician) {
		ctl.sendError(conn, in.Type, errNotAllowed)
		return
	}
	from, to, err := ctl.Orch.ApplyLifecycle(ctx, in.RoomID, domain.EventDoctorClose)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("room_id", string(in.RoomID)).Msg("close rejected")
		ctl.sendError(conn, in.Type, lifecycleErrorText(err))
		return
	}
	if to == domain.StatusChatFinished {
		if err := ctl.Conv.EndConversation(ctx, in.RoomID); err != nil {
			log.Error().Err(err).Str("module", "signal").Str("room_id", string(in.RoomID)).Str("from", string(from)).Msg("store close directive")
		}
	}
	ctl.emit(ctx, in, outCloseRoom, msgRoomClosed, "")
}

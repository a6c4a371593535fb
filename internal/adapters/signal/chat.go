package signal

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/core"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
)

func (ctl *SignalWSController) handleFirstInteraction(ctx context.Context, sid core.SessionID, conn core.SignalConnection, in inbound) {
	if !ctl.allowed(sid, in.RoomID, domain.RolePatient) {
		ctl.sendError(conn, in.Type, errNotAllowed)
		return
	}
	if _, _, err := ctl.Orch.ApplyLifecycle(ctx, in.RoomID, domain.EventFirstInteraction); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("room_id", string(in.RoomID)).Msg("first interaction rejected")
		ctl.sendError(conn, in.Type, lifecycleErrorText(err))
		return
	}
	if !ctl.Orch.EnsureMembership(sid, in.RoomID) {
		ctl.sendError(conn, in.Type, errInternal)
		return
	}

	turn, err := ctl.Conv.StartConversation(ctx, in.RoomID)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("room_id", string(in.RoomID)).Msg("start conversation")
		ctl.sendError(conn, in.Type, errAssistantUnavailable)
		return
	}
	ctl.emit(ctx, in, outNewMessage, chatMessage{Sender: SenderAssistant, Message: turn}, "")
}

// handlePatientSendMessage relays the raw text first; the reply follows as a
// second newMessage.
func (ctl *SignalWSController) handlePatientSendMessage(ctx context.Context, sid core.SessionID, conn core.SignalConnection, in inbound) {
	if !ctl.allowed(sid, in.RoomID, domain.RolePatient) {
		ctl.sendError(conn, in.Type, errNotAllowed)
		return
	}
	text := strings.TrimSpace(in.Message)
	if text == "" {
		ctl.sendError(conn, in.Type, errBadPayload)
		return
	}
	if !ctl.Limiter.Allow(sid) {
		ctl.sendError(conn, in.Type, errRateLimited)
		return
	}
	if !ctl.Orch.EnsureMembership(sid, in.RoomID) {
		ctl.sendError(conn, in.Type, errInternal)
		return
	}

	ctl.emit(ctx, in, outNewMessage, chatMessage{Sender: string(sid), Message: text}, "")

	turn, err := ctl.Conv.ContinueConversation(ctx, in.RoomID, text)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("room_id", string(in.RoomID)).Msg("continue conversation")
		ctl.sendError(conn, in.Type, errAssistantUnavailable)
		return
	}
	ctl.emit(ctx, in, outNewMessage, chatMessage{Sender: SenderAssistant, Message: turn}, "")
}

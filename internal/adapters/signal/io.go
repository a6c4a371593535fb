package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/core"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/metrics"
)

func (ctl *SignalWSController) writePump(ctx context.Context, c *WsSignalConn) {
	ticker := time.NewTicker(ctl.opts.PingPeriod)
	defer func() {
		ticker.Stop()
		c.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "signal").Msg("writePump ctx done")
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, ""),
				time.Now().Add(ctl.opts.WriteWait))
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctl.opts.WriteWait)); err != nil {
				log.Warn().Err(err).Str("module", "signal").Msg("writePump ping")
				return
			}
		}
	}
}

func (ctl *SignalWSController) readPump(ctx context.Context, sid core.SessionID, c *WsSignalConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		ctl.Orch.Registry.Cancel(sid)
		ctl.Orch.OnDisconnect(sid)
		ctl.Limiter.Forget(sid)
		c.Close()
		metrics.ActiveConnections.Dec()
	}()

	pongWait := ctl.opts.PingPeriod * 10 / 9
	c.conn.SetReadLimit(ctl.opts.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	// handler work is not canceled by a dropped socket
	hctx := context.WithoutCancel(ctx)

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		ctl.handleSignal(hctx, sid, c, data)
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	}
}

// handleSignal decodes one envelope and runs its handler to completion.
// Failures never escape: they become an error event for the sender.
func (ctl *SignalWSController) handleSignal(ctx context.Context, sid core.SessionID, conn core.SignalConnection, data []byte) {
	var in inbound
	if err := json.Unmarshal(data, &in); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad json")
		metrics.EventsReceived.WithLabelValues("invalid").Inc()
		ctl.sendError(conn, "invalid", errBadPayload)
		return
	}

	h, ok := ctl.handlers[in.Type]
	if !ok {
		log.Warn().Str("module", "signal").Str("type", in.Type).Msg("unknown signal")
		metrics.EventsReceived.WithLabelValues("unknown").Inc()
		ctl.sendError(conn, "unknown", errUnknownEvent)
		return
	}
	metrics.EventsReceived.WithLabelValues(in.Type).Inc()

	if in.Type != evPing && in.RoomID == "" {
		ctl.sendError(conn, in.Type, errMissingRoom)
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("module", "signal").Str("sid", string(sid)).Str("type", in.Type).Msg("handler panic")
			ctl.sendError(conn, in.Type, errInternal)
		}
	}()
	h(ctx, sid, conn, in)
}

func encode(typ string, data any) (core.Frame, error) {
	return json.Marshal(outbound{Type: typ, Data: data})
}

func (ctl *SignalWSController) send(conn core.SignalConnection, typ string, data any) {
	b, err := encode(typ, data)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("type", typ).Msg("send marshal")
		return
	}
	if err := conn.TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("type", typ).Msg("send dropped")
	}
}

func (ctl *SignalWSController) sendError(conn core.SignalConnection, inType string, text string) {
	metrics.ErrorsSent.WithLabelValues(inType).Inc()
	ctl.send(conn, outError, text)
}

// emit broadcasts to the room through the orchestrator.
func (ctl *SignalWSController) emit(ctx context.Context, in inbound, typ string, data any, exclude core.SessionID) {
	b, err := encode(typ, data)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Str("type", typ).Msg("emit marshal")
		return
	}
	if err := ctl.Orch.EmitToRoom(ctx, in.RoomID, b, exclude); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("room_id", string(in.RoomID)).Str("type", typ).Msg("emit failed")
	}
}

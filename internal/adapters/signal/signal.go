package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/app/conversation"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/app/orch"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/core"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/metrics"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// Conversation is the dialogue side used by the chat events.
type Conversation interface {
	StartConversation(ctx context.Context, id domain.RoomID) (*conversation.Turn, error)
	ContinueConversation(ctx context.Context, id domain.RoomID, message string) (*conversation.Turn, error)
	EndConversation(ctx context.Context, id domain.RoomID) error
}

type Options struct {
	EnforceRoles bool
	ReadLimit    int64
	PingPeriod   time.Duration
	WriteWait    time.Duration
	SendBuffer   int
}

func (o Options) withDefaults() Options {
	if o.ReadLimit <= 0 {
		o.ReadLimit = 32768
	}
	if o.PingPeriod <= 0 {
		o.PingPeriod = 54 * time.Second
	}
	if o.WriteWait <= 0 {
		o.WriteWait = 5 * time.Second
	}
	if o.SendBuffer <= 0 {
		o.SendBuffer = 32
	}
	return o
}

type handlerFunc func(ctx context.Context, sid core.SessionID, conn core.SignalConnection, in inbound)

type SignalWSController struct {
	Orch    *orch.Orchestrator
	Conv    Conversation
	Limiter *RoomRateLimiter

	opts     Options
	handlers map[string]handlerFunc
}

func NewSignalWSController(o *orch.Orchestrator, conv Conversation, limiter *RoomRateLimiter, opts Options) *SignalWSController {
	ctl := &SignalWSController{
		Orch:    o,
		Conv:    conv,
		Limiter: limiter,
		opts:    opts.withDefaults(),
	}
	ctl.handlers = map[string]handlerFunc{
		evDoctorJoin:         ctl.handleDoctorJoin,
		evPatientJoin:        ctl.handlePatientJoin,
		evFirstInteraction:   ctl.handleFirstInteraction,
		evPatientSendMessage: ctl.handlePatientSendMessage,
		evPosition:           ctl.handlePosition,
		evDoctorClose:        ctl.handleDoctorClose,
		evPing:               ctl.handlePing,
	}
	return ctl
}

// WsSignalConn implements core.SignalConnection over a websocket with a
// bounded outgoing queue drained by writePump.
type WsSignalConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsSignalConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsSignalConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSignal upgrades the request and runs the pumps until either side
// goes away. Each websocket gets its own connection id.
func (ctl *SignalWSController) HandleSignal(ctx context.Context, c *gin.Context) {
	sid := core.SessionID(uuid.NewString())
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("client_token", c.GetString("client_token")).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsSignalConn{
		conn: ws,
		send: make(chan core.Frame, ctl.opts.SendBuffer),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Orch.Registry.BindSignal(sid, core.NewMemberSession(sid, conn), cancel)
	metrics.ActiveConnections.Inc()

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}

package bus

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/core"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
)

const DefaultSubjectPrefix = "bytche.room"

// natsConn is the subset of *nats.Conn used here.
type natsConn interface {
	Publish(subj string, data []byte) error
	Subscribe(subj string, cb nats.MsgHandler) (*nats.Subscription, error)
	Drain() error
}

// wireEnvelope is what travels on the subject. Frames are JSON already.
type wireEnvelope struct {
	Room    domain.RoomID   `json:"room"`
	Exclude core.SessionID  `json:"exclude,omitempty"`
	Data    json.RawMessage `json:"data"`
}

// NatsBus relays room broadcasts through NATS subjects <prefix>.<token>, where
// token is the room id in unpadded base64url so any id stays one subject
// token. Every instance subscribes to the wildcard and fans out to its own
// members; the real id travels in the envelope.
type NatsBus struct {
	conn   natsConn
	prefix string
}

func NewNatsBus(url string, prefix string) (*NatsBus, error) {
	conn, err := nats.Connect(url, nats.Name("bytche-signal"))
	if err != nil {
		return nil, fmt.Errorf("bus: connect nats: %w", err)
	}
	log.Info().Str("module", "bus.nats").Str("url", conn.ConnectedUrlRedacted()).Msg("connected")
	return newNatsBus(conn, prefix), nil
}

func newNatsBus(conn natsConn, prefix string) *NatsBus {
	prefix = strings.TrimSuffix(prefix, ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NatsBus{conn: conn, prefix: prefix}
}

func (b *NatsBus) subject(room domain.RoomID) string {
	return b.prefix + "." + base64.RawURLEncoding.EncodeToString([]byte(room))
}

func (b *NatsBus) Publish(ctx context.Context, env core.RoomEnvelope) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(wireEnvelope{
		Room:    env.Room,
		Exclude: env.Exclude,
		Data:    json.RawMessage(env.Data),
	})
	if err != nil {
		return fmt.Errorf("bus: encode envelope: %w", err)
	}
	if err := b.conn.Publish(b.subject(env.Room), payload); err != nil {
		return fmt.Errorf("bus: publish %s: %w", env.Room, err)
	}
	return nil
}

func (b *NatsBus) Subscribe(h Handler) error {
	_, err := b.conn.Subscribe(b.prefix+".*", func(msg *nats.Msg) {
		var w wireEnvelope
		if err := json.Unmarshal(msg.Data, &w); err != nil {
			log.Warn().Err(err).Str("module", "bus.nats").Str("subject", msg.Subject).Msg("bad envelope")
			return
		}
		h(core.RoomEnvelope{Room: w.Room, Exclude: w.Exclude, Data: core.Frame(w.Data)})
	})
	if err != nil {
		return fmt.Errorf("bus: subscribe: %w", err)
	}
	return nil
}

func (b *NatsBus) Close() error {
	return b.conn.Drain()
}

var (
	_ core.RoomBus = (*NatsBus)(nil)
	_ core.RoomBus = (*LocalBus)(nil)
)

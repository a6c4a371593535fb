package core

import (
	"context"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
)

// RoomEnvelope is one room broadcast on its way to local members.
// An empty Exclude means every member receives Data.
type RoomEnvelope struct {
	Room    domain.RoomID
	Exclude SessionID
	Data    Frame
}

// RoomBus relays room broadcasts to every instance that may hold members.
type RoomBus interface {
	Publish(ctx context.Context, env RoomEnvelope) error
	Subscribe(h func(RoomEnvelope)) error
	Close() error
}

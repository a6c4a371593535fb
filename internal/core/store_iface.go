package core

import (
	"context"
	"errors"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
)

// ErrRoomNotFound is distinct from transport failures of the store.
var ErrRoomNotFound = errors.New("room not found")

// RoomStore is the remote owner of room records. Nothing is cached locally,
// every caller goes through it. No retries are performed.
type RoomStore interface {
	FetchRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error)
	PatchRoom(ctx context.Context, id domain.RoomID, patch domain.RoomPatch) error
}

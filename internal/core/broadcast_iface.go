package core

import (
	"context"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
)

// Broadcaster is the room-scoped multicast capability handed to components
// that need to reach a room.
type Broadcaster interface {
	JoinRoom(sid SessionID, room domain.RoomID, role domain.Role) bool
	LeaveRoom(sid SessionID, room domain.RoomID)
	EmitToRoom(ctx context.Context, room domain.RoomID, data Frame, exclude SessionID) error
}

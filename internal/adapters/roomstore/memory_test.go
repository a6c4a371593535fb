package roomstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/config"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/core"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
)

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	s := NewMemoryStore(domain.Room{
		ID:          "r1",
		Status:      domain.StatusAwaiting,
		ChatHistory: []domain.ChatMessage{{Role: domain.ChatRoleSystem, Content: "a"}},
	})
	ctx := context.Background()

	room, err := s.FetchRoom(ctx, "r1")
	require.NoError(t, err)
	room.ChatHistory[0].Content = "mutated"
	room.Status = domain.StatusFinalized

	again, err := s.FetchRoom(ctx, "r1")
	require.NoError(t, err)
	require.Equal(t, "a", again.ChatHistory[0].Content)
	require.Equal(t, domain.StatusAwaiting, again.Status)

	require.NoError(t, s.PatchRoom(ctx, "r1", domain.StatusPatch(domain.StatusDoctorConnected)))
	require.NoError(t, s.PatchRoom(ctx, "r1", domain.RoomPatch{}))
	require.Equal(t, 1, s.Patches())

	_, err = s.FetchRoom(ctx, "missing")
	require.ErrorIs(t, err, core.ErrRoomNotFound)
}

// slowStore blocks until the context ends.
type slowStore struct{}

func (slowStore) FetchRoom(ctx context.Context, _ domain.RoomID) (*domain.Room, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func (slowStore) PatchRoom(ctx context.Context, _ domain.RoomID, _ domain.RoomPatch) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestInstrumented_Timeout(t *testing.T) {
	s := NewInstrumented(slowStore{}, 10*time.Millisecond)
	_, err := s.FetchRoom(context.Background(), "r1")
	require.ErrorIs(t, err, context.DeadlineExceeded)
	err = s.PatchRoom(context.Background(), "r1", domain.StatusPatch(domain.StatusChatStarted))
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestOpen_Memory(t *testing.T) {
	store, closer, err := Open(context.Background(), config.StoreConfig{Driver: "memory", Timeout: time.Second})
	require.NoError(t, err)
	require.NoError(t, closer.Close())

	inst, ok := store.(*Instrumented)
	require.True(t, ok)
	require.IsType(t, &MemoryStore{}, inst.Unwrap())

	_, _, err = Open(context.Background(), config.StoreConfig{Driver: "sqlite"})
	require.Error(t, err)
}

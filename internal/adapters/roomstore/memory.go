package roomstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/core"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
)

// MemoryStore is an in-process store for local runs and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	rooms   map[domain.RoomID]domain.Room
	patches int
}

func NewMemoryStore(rooms ...domain.Room) *MemoryStore {
	s := &MemoryStore{rooms: make(map[domain.RoomID]domain.Room)}
	for _, r := range rooms {
		s.Put(r)
	}
	return s
}

func (s *MemoryStore) Put(room domain.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rooms[room.ID] = cloneRoom(room)
}

func (s *MemoryStore) FetchRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, fmt.Errorf("roomstore: fetch %s: %w", id, core.ErrRoomNotFound)
	}
	out := cloneRoom(r)
	return &out, nil
}

func (s *MemoryStore) PatchRoom(ctx context.Context, id domain.RoomID, patch domain.RoomPatch) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if patch.Empty() {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return fmt.Errorf("roomstore: patch %s: %w", id, core.ErrRoomNotFound)
	}
	patch.Apply(&r)
	s.rooms[id] = r
	s.patches++
	return nil
}

// Patches counts successful non-empty patches.
func (s *MemoryStore) Patches() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.patches
}

func cloneRoom(r domain.Room) domain.Room {
	r.ChatHistory = append([]domain.ChatMessage(nil), r.ChatHistory...)
	r.Patient.Restrictions = append([]string(nil), r.Patient.Restrictions...)
	r.Patient.FocusAreas = append([]string(nil), r.Patient.FocusAreas...)
	return r
}

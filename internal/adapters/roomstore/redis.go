package roomstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/core"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
)

// redisAPI is the subset of *redis.Client used by RedisStore.
type redisAPI interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// RedisStore keeps each room as a JSON document under room:{id}.
// Patches are read-merge-write; callers hold the per-room lock.
type RedisStore struct {
	client redisAPI
}

func NewRedisStore(ctx context.Context, redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("roomstore: parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("roomstore: ping redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func roomKey(id domain.RoomID) string {
	return fmt.Sprintf("room:%s", id)
}

func (s *RedisStore) FetchRoom(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	raw, err := s.client.Get(ctx, roomKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("roomstore: fetch %s: %w", id, core.ErrRoomNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("roomstore: fetch %s: %w", id, err)
	}
	var room domain.Room
	if err := json.Unmarshal(raw, &room); err != nil {
		return nil, fmt.Errorf("roomstore: decode room %s: %w", id, err)
	}
	if room.ID == "" {
		room.ID = id
	}
	return &room, nil
}

func (s *RedisStore) PatchRoom(ctx context.Context, id domain.RoomID, patch domain.RoomPatch) error {
	if patch.Empty() {
		return nil
	}
	room, err := s.FetchRoom(ctx, id)
	if err != nil {
		return err
	}
	patch.Apply(room)
	return s.put(ctx, room)
}

// Put writes a whole room. Used to seed rooms for local runs.
func (s *RedisStore) Put(ctx context.Context, room domain.Room) error {
	return s.put(ctx, &room)
}

func (s *RedisStore) put(ctx context.Context, room *domain.Room) error {
	b, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("roomstore: encode room %s: %w", room.ID, err)
	}
	if err := s.client.Set(ctx, roomKey(room.ID), b, 0).Err(); err != nil {
		return fmt.Errorf("roomstore: write %s: %w", room.ID, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

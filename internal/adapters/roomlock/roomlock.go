// Package roomlock picks the room lock implementation: in-process for a
// single instance, a Redis lease when instances share rooms.
package roomlock

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/app"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/config"
)

// Open builds the configured locker. The returned closer is never nil.
func Open(ctx context.Context, cfg config.LockConfig) (app.RoomLocker, io.Closer, error) {
	switch cfg.Driver {
	case "", "local":
		log.Info().Str("module", "roomlock").Str("driver", "local").Dur("timeout", cfg.Timeout).Msg("room locks ready")
		return app.NewRoomLocks(cfg.Timeout), nopCloser{}, nil
	case "redis":
		l, err := NewRedisLocks(ctx, cfg.RedisURL, cfg.TTL, cfg.Timeout)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Str("module", "roomlock").Str("driver", "redis").Dur("ttl", cfg.TTL).Dur("timeout", cfg.Timeout).Msg("room locks ready")
		return l, l, nil
	default:
		return nil, nil, fmt.Errorf("roomlock: unknown driver %q", cfg.Driver)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

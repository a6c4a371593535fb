package roomstore

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/config"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/core"
)

// Open builds the configured driver wrapped in Instrumented. The returned
// closer releases driver resources and is never nil.
func Open(ctx context.Context, cfg config.StoreConfig) (core.RoomStore, io.Closer, error) {
	var (
		store  core.RoomStore
		closer io.Closer = nopCloser{}
	)
	switch cfg.Driver {
	case "", "http":
		s, err := NewHTTPStore(cfg.BaseURL)
		if err != nil {
			return nil, nil, err
		}
		store = s
	case "redis":
		s, err := NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		store, closer = s, s
	case "memory":
		store = NewMemoryStore()
	default:
		return nil, nil, fmt.Errorf("roomstore: unknown driver %q", cfg.Driver)
	}
	log.Info().Str("module", "roomstore").Str("driver", cfg.Driver).Dur("timeout", cfg.Timeout).Msg("room store ready")
	return NewInstrumented(store, cfg.Timeout), closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

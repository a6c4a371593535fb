package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	ossignal "os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/adapters/bus"
	router "github.com/luan-vieira-er/28-BYTCHE-sub000/internal/adapters/http"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/adapters/llm"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/adapters/roomlock"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/adapters/roomstore"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/adapters/signal"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/app"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/app/conversation"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/app/orch"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/config"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/core"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
)

func setupLogger(cfg config.LogConfig) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if cfg.JSON {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
	}
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
}

// seedDemo puts a waiting room into the in-memory store so a local
// session can be opened without the backend.
func seedDemo(store core.RoomStore) {
	if in, ok := store.(*roomstore.Instrumented); ok {
		store = in.Unwrap()
	}
	mem, ok := store.(*roomstore.MemoryStore)
	if !ok {
		return
	}
	mem.Put(domain.Room{
		ID:     "demo",
		Status: domain.StatusAwaiting,
		Patient: domain.PatientProfile{
			Name: "Paciente Demo",
			Age:  30,
		},
	})
	log.Info().Str("module", "main").Str("room_id", "demo").Msg("seeded demo room")
}

func main() {
	ctx, cancel := ossignal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Console logging until the config says otherwise.
	setupLogger(config.LogConfig{Level: "info"})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	setupLogger(cfg.Log)

	store, storeCloser, err := roomstore.Open(ctx, cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Msg("open room store")
	}
	defer storeCloser.Close()
	seedDemo(store)

	completer, err := llm.NewFromConfig(cfg.LLM)
	if err != nil {
		log.Fatal().Err(err).Msg("text generation client")
	}

	roomBus, err := bus.New(cfg.Bus.NatsURL, cfg.Bus.Subject)
	if err != nil {
		log.Fatal().Err(err).Msg("room bus")
	}
	defer roomBus.Close()

	locks, lockCloser, err := roomlock.Open(ctx, cfg.Lock)
	if err != nil {
		log.Fatal().Err(err).Msg("room locks")
	}
	defer lockCloser.Close()

	o := &orch.Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomManager(),
		Policy:   app.PolicyByName(cfg.Signal.Backpressure),
		Store:    store,
		Locks:    locks,
		Bus:      roomBus,
	}
	if err := roomBus.Subscribe(o.Deliver); err != nil {
		log.Fatal().Err(err).Msg("subscribe room bus")
	}

	conv, err := conversation.NewService(store, completer, locks, cfg.LLM.Model, cfg.LLM.Timeout)
	if err != nil {
		log.Fatal().Err(err).Msg("conversation service")
	}

	ctl := signal.NewSignalWSController(o, conv,
		signal.NewRoomRateLimiter(cfg.Signal.RateLimit, cfg.Signal.RateInterval),
		signal.Options{
			EnforceRoles: cfg.Signal.EnforceRoles,
			ReadLimit:    cfg.ReadLimit,
			PingPeriod:   cfg.PingPeriod,
			WriteWait:    cfg.WriteWait,
			SendBuffer:   cfg.SendBuffer,
		})

	r := router.SetupRouter(ctx, cfg, o, ctl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Bytche signal server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}

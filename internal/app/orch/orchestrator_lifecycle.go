package orch

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/core"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
)

// ApplyLifecycle runs one guarded status transition under the room lock.
// The store is written only when the status actually changes. On error, to
// equals from (or is empty when the room could not be read).
func (o *Orchestrator) ApplyLifecycle(ctx context.Context, id domain.RoomID, ev domain.LifecycleEvent) (from, to domain.Status, err error) {
	release, err := o.Locks.Acquire(ctx, id)
	if err != nil {
		return "", "", err
	}
	defer release()

	room, err := o.Store.FetchRoom(ctx, id)
	if err != nil {
		return "", "", fmt.Errorf("orch: %s: %w", ev, err)
	}
	from = room.Status
	to, err = domain.Transition(from, ev)
	if err != nil {
		return from, from, err
	}
	if to == from {
		return from, to, nil
	}
	if err := o.Store.PatchRoom(ctx, id, domain.StatusPatch(to)); err != nil {
		return from, from, fmt.Errorf("orch: %s: %w", ev, err)
	}
	log.Info().Str("module", "orch").Str("room_id", string(id)).Str("from", string(from)).Str("to", string(to)).Msg("status changed")
	return from, to, nil
}

// JoinClinician records membership first and then advances the status.
// Membership is kept even if the transition fails.
func (o *Orchestrator) JoinClinician(ctx context.Context, sid core.SessionID, id domain.RoomID) (domain.Status, error) {
	o.JoinRoom(sid, id, domain.RoleClinician)
	_, to, err := o.ApplyLifecycle(ctx, id, domain.EventDoctorJoin)
	return to, err
}

// JoinPatient validates the room before any membership change. A missing or
// FINALIZADO room (or a store failure) leaves presence untouched. A closed
// chat is still joinable; its status just stays where it is.
func (o *Orchestrator) JoinPatient(ctx context.Context, sid core.SessionID, id domain.RoomID) (domain.Status, error) {
	_, to, err := o.ApplyLifecycle(ctx, id, domain.EventPatientJoin)
	if err != nil && !errors.Is(err, domain.ErrInvalidTransition) {
		return to, err
	}
	o.JoinRoom(sid, id, domain.RolePatient)
	return to, nil
}

package orch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/adapters/bus"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/adapters/roomstore"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/app"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/core"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
)

type recSignal struct {
	mu     sync.Mutex
	frames []string
	full   bool
}

func (r *recSignal) TrySend(f core.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return errors.New("full")
	}
	r.frames = append(r.frames, string(f))
	return nil
}

func (r *recSignal) Close() {}

func (r *recSignal) got() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.frames...)
}

func newTestOrch(t *testing.T, rooms ...domain.Room) (*Orchestrator, *roomstore.MemoryStore) {
	t.Helper()
	store := roomstore.NewMemoryStore(rooms...)
	b := bus.NewLocalBus()
	o := &Orchestrator{
		Registry: app.NewRegistry(),
		Rooms:    app.NewRoomManager(),
		Policy:   app.SimplePolicy{},
		Store:    store,
		Locks:    app.NewRoomLocks(0),
		Bus:      b,
	}
	require.NoError(t, b.Subscribe(o.Deliver))
	return o, store
}

func connect(o *Orchestrator, sid core.SessionID) *recSignal {
	sig := &recSignal{}
	o.Registry.BindSignal(sid, core.NewMemberSession(sid, sig), func() {})
	return sig
}

func status(t *testing.T, store *roomstore.MemoryStore, id domain.RoomID) domain.Status {
	t.Helper()
	room, err := store.FetchRoom(context.Background(), id)
	require.NoError(t, err)
	return room.Status
}

func TestApplyLifecycle_PatchesOnlyOnChange(t *testing.T) {
	o, store := newTestOrch(t, domain.Room{ID: "r1", Status: domain.StatusChatStarted})
	ctx := context.Background()

	from, to, err := o.ApplyLifecycle(ctx, "r1", domain.EventDoctorClose)
	require.NoError(t, err)
	require.Equal(t, domain.StatusChatStarted, from)
	require.Equal(t, domain.StatusChatFinished, to)
	require.Equal(t, 1, store.Patches())

	from, to, err = o.ApplyLifecycle(ctx, "r1", domain.EventDoctorClose)
	require.NoError(t, err)
	require.Equal(t, domain.StatusChatFinished, from)
	require.Equal(t, domain.StatusChatFinished, to)
	require.Equal(t, 1, store.Patches())

	_, _, err = o.ApplyLifecycle(ctx, "r1", domain.EventDoctorJoin)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	require.Equal(t, domain.StatusChatFinished, status(t, store, "r1"))

	_, _, err = o.ApplyLifecycle(ctx, "missing", domain.EventDoctorJoin)
	require.ErrorIs(t, err, core.ErrRoomNotFound)
}

func TestJoinClinician_KeepsMembershipOnMissingRoom(t *testing.T) {
	o, _ := newTestOrch(t)
	connect(o, "c1")

	_, err := o.JoinClinician(context.Background(), "c1", "r404")
	require.ErrorIs(t, err, core.ErrRoomNotFound)
	require.True(t, o.HasRole("c1", "r404", domain.RoleClinician))
}

func TestJoinPatient_FinalizedRoomChangesNothing(t *testing.T) {
	o, store := newTestOrch(t, domain.Room{ID: "r1", Status: domain.StatusFinalized})
	connect(o, "p1")

	_, err := o.JoinPatient(context.Background(), "p1", "r1")
	require.ErrorIs(t, err, domain.ErrRoomFinalized)
	require.False(t, o.Registry.InRoom("p1", "r1"))
	_, ok := o.Rooms.Get("r1")
	require.False(t, ok)
	require.Equal(t, domain.StatusFinalized, status(t, store, "r1"))
	require.Equal(t, 0, store.Patches())
}

func TestJoinPatient_MissingRoom(t *testing.T) {
	o, _ := newTestOrch(t)
	connect(o, "p1")

	_, err := o.JoinPatient(context.Background(), "p1", "nope")
	require.ErrorIs(t, err, core.ErrRoomNotFound)
	require.Empty(t, o.Registry.RoomsOf("p1"))
}

func TestJoinPatient_ClosedChatStillJoins(t *testing.T) {
	o, store := newTestOrch(t, domain.Room{ID: "r1", Status: domain.StatusChatFinished})
	connect(o, "p1")

	st, err := o.JoinPatient(context.Background(), "p1", "r1")
	require.NoError(t, err)
	require.Equal(t, domain.StatusChatFinished, st)
	require.True(t, o.HasRole("p1", "r1", domain.RolePatient))
	require.Equal(t, domain.StatusChatFinished, status(t, store, "r1"))
}

func TestEmitToRoom_Exclude(t *testing.T) {
	o, _ := newTestOrch(t)
	a, b := connect(o, "a"), connect(o, "b")
	require.True(t, o.JoinRoom("a", "r1", domain.RoleClinician))
	require.True(t, o.JoinRoom("b", "r1", domain.RolePatient))
	ctx := context.Background()

	require.NoError(t, o.EmitToRoom(ctx, "r1", core.Frame(`"one"`), "b"))
	require.NoError(t, o.EmitToRoom(ctx, "r1", core.Frame(`"all"`), ""))

	require.Equal(t, []string{`"one"`, `"all"`}, a.got())
	require.Equal(t, []string{`"all"`}, b.got())

	// nobody local in r2: nothing to do
	require.NoError(t, o.EmitToRoom(ctx, "r2", core.Frame(`"x"`), ""))
}

func TestEmitToRoom_WithoutBusDeliversLocally(t *testing.T) {
	o, _ := newTestOrch(t)
	o.Bus = nil
	a := connect(o, "a")
	o.JoinRoom("a", "r1", domain.RolePatient)

	require.NoError(t, o.EmitToRoom(context.Background(), "r1", core.Frame(`1`), ""))
	require.Equal(t, []string{`1`}, a.got())
}

func TestDeliver_KicksSlowConsumer(t *testing.T) {
	o, _ := newTestOrch(t)
	slow := connect(o, "slow")
	slow.full = true
	connect(o, "ok")
	o.JoinRoom("slow", "r1", domain.RolePatient)
	o.JoinRoom("ok", "r1", domain.RoleClinician)

	o.Deliver(core.RoomEnvelope{Room: "r1", Data: core.Frame(`1`)})

	room, ok := o.Rooms.Get("r1")
	require.True(t, ok)
	require.False(t, room.Has("slow"))
	require.True(t, room.Has("ok"))
	// the registry still knows the member and its role
	require.True(t, o.HasRole("slow", "r1", domain.RolePatient))

	// the next event rejoins it with the same role
	slow.full = false
	require.True(t, o.EnsureMembership("slow", "r1"))
	require.True(t, room.Has("slow"))
	require.True(t, o.HasRole("slow", "r1", domain.RolePatient))

	o.Deliver(core.RoomEnvelope{Room: "r1", Data: core.Frame(`2`)})
	require.Equal(t, []string{`2`}, slow.got())
}

func TestEnsureMembership_KeepsRoleAndIsIdempotent(t *testing.T) {
	o, _ := newTestOrch(t)
	connect(o, "c1")
	require.True(t, o.JoinRoom("c1", "r1", domain.RoleClinician))

	require.True(t, o.EnsureMembership("c1", "r1"))
	require.True(t, o.EnsureMembership("c1", "r1"))
	require.True(t, o.HasRole("c1", "r1", domain.RoleClinician))

	require.True(t, o.EnsureMembership("c1", "r2"))
	require.Equal(t, domain.RoleNone, o.Registry.RoleIn("c1", "r2"))
	require.True(t, o.Registry.InRoom("c1", "r2"))

	require.False(t, o.EnsureMembership("ghost", "r1"))
}

func TestOnDisconnect_DropsAllMemberships(t *testing.T) {
	o, _ := newTestOrch(t)
	connect(o, "c1")
	connect(o, "c2")
	o.JoinRoom("c1", "r1", domain.RoleClinician)
	o.JoinRoom("c1", "r2", domain.RoleClinician)
	o.JoinRoom("c2", "r1", domain.RolePatient)

	o.OnDisconnect("c1")

	require.Equal(t, 1, o.Registry.Count())
	_, ok := o.Rooms.Get("r2")
	require.False(t, ok)
	room, ok := o.Rooms.Get("r1")
	require.True(t, ok)
	require.Equal(t, 1, room.MemberCount())
}

func TestApplyLifecycle_SerializedPerRoom(t *testing.T) {
	o, store := newTestOrch(t, domain.Room{ID: "r1", Status: domain.StatusAwaiting})
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, _ = o.ApplyLifecycle(context.Background(), "r1", domain.EventDoctorJoin)
		}()
	}
	wg.Wait()
	require.Equal(t, domain.StatusDoctorConnected, status(t, store, "r1"))
	require.Equal(t, 1, store.Patches())
}

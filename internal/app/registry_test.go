package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/core"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
)

type nopSignal struct{}

func (nopSignal) TrySend(core.Frame) error { return nil }
func (nopSignal) Close() {}

func TestRegistryMembership(t *testing.T) {
	reg := NewRegistry()
	require.False(t, reg.JoinRoom("c1", "r1", domain.RoleClinician), "unbound connection")

	canceled := false
	reg.BindSignal("c1", core.NewMemberSession("c1", nopSignal{}), func() { canceled = true })
	require.Equal(t, 1, reg.Count())

	require.True(t, reg.JoinRoom("c1", "r1", domain.RoleClinician))
	require.True(t, reg.InRoom("c1", "r1"))
	require.Equal(t, domain.RoleClinician, reg.RoleIn("c1", "r1"))

	// rejoin without a role keeps the tagged one
	require.True(t, reg.JoinRoom("c1", "r1", domain.RoleNone))
	require.Equal(t, domain.RoleClinician, reg.RoleIn("c1", "r1"))

	require.True(t, reg.JoinRoom("c1", "r2", domain.RolePatient))
	require.ElementsMatch(t, []domain.RoomID{"r1", "r2"}, reg.RoomsOf("c1"))

	require.Equal(t, domain.RolePatient, reg.RoleIn("c1", "r2"))

	reg.LeaveRoom("c1", "r2")
	require.False(t, reg.InRoom("c1", "r2"))
	require.Equal(t, domain.RoleNone, reg.RoleIn("c1", "r2"))

	require.True(t, reg.Cancel("c1"))
	require.True(t, canceled)

	require.Equal(t, []domain.RoomID{"r1"}, reg.Unbind("c1"))
	require.Nil(t, reg.Unbind("c1"))
	require.Equal(t, 0, reg.Count())
	require.False(t, reg.Cancel("c1"))
}

func TestRoomManagerDropsEmptyGroups(t *testing.T) {
	rm := NewRoomManager()
	room := rm.Join("r1", core.NewMemberSession("c1", nopSignal{}))
	require.Same(t, room, rm.Join("r1", core.NewMemberSession("c2", nopSignal{})))
	require.Equal(t, []core.RoomInfo{{ID: "r1", MemberCount: 2}}, rm.List())

	rm.Leave("r1", "c1")
	got, ok := rm.Get("r1")
	require.True(t, ok)
	require.Same(t, room, got)

	rm.Leave("r1", "c2")
	_, ok = rm.Get("r1")
	require.False(t, ok)
	require.Empty(t, rm.List())

	rm.Leave("missing", "c1")
}

func TestPolicyByName(t *testing.T) {
	require.Equal(t, KickMember, PolicyByName("kick").OnBackPressure(nil, nil))
	require.Equal(t, KickMember, PolicyByName("").OnBackPressure(nil, nil))
	require.Equal(t, DropFrame, PolicyByName("drop").OnBackPressure(nil, nil))
}

package domain

// Role is established by the join event a connection sends for a room.
type Role string

const (
	RoleNone      Role = ""
	RoleClinician Role = "clinician"
	RolePatient   Role = "patient"
)

// Member represents a connection's participation meta for a room.
// No transport or lifecycle logic here.
type Member struct {
	Room RoomID
	Role Role
}

// NewMember avoids raw literals in adapters and keeps construction obvious.
func NewMember(room RoomID, role Role) *Member {
	return &Member{Room: room, Role: role}
}

package core

import (
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
)

// PublishResult reports delivery stats/backpressure to orchestrator.
type PublishResult struct {
	SendTo  int
	Dropped []MemberSession
}

// RoomService is the transport-level group of one room.
// It owns the membership set but never touches transport resources.
type RoomService interface {
	ID() domain.RoomID
	MemberCount() int
	Members() []SessionID
	Has(sid SessionID) bool

	AddMember(ms MemberSession)
	RemoveMember(sid SessionID)
	Broadcast(exclude SessionID, data Frame) PublishResult
}

type RoomInfo struct {
	ID          domain.RoomID `json:"id"`
	MemberCount int           `json:"client_count"`
}

// RoomManager owns the set of groups. Join and Leave are atomic with group
// creation and removal, so an emptied group is never joined after removal.
type RoomManager interface {
	Get(id domain.RoomID) (RoomService, bool)
	Join(id domain.RoomID, ms MemberSession) RoomService
	Leave(id domain.RoomID, sid SessionID)
	List() []RoomInfo
}

// Package domain contains room entities and the status rules, no transport logic.
package domain

type RoomID string

// Room is the persisted unit of one patient session as held by the room store.
type Room struct {
	ID          RoomID         `json:"id"`
	Status      Status         `json:"status"`
	ChatHistory []ChatMessage  `json:"chatHistory"`
	Patient     PatientProfile `json:"patient"`
}

// PatientProfile is filled by the case-creation workflow and only read here,
// once, to build the system prompt.
type PatientProfile struct {
	Name         string   `json:"name"`
	Age          int      `json:"age"`
	Purpose      string   `json:"purpose"`
	Profile      string   `json:"profile"`
	Restrictions []string `json:"restrictions"`
	FocusAreas   []string `json:"focusAreas"`
	History      string   `json:"history"`
}

// RoomPatch is a partial update. Nil fields are left untouched by the store.
type RoomPatch struct {
	Status      *Status       `json:"status,omitempty"`
	ChatHistory []ChatMessage `json:"chatHistory,omitempty"`
}

// Empty reports whether the patch carries nothing to write.
func (p RoomPatch) Empty() bool {
	return p.Status == nil && p.ChatHistory == nil
}

// Apply merges the patch into r.
func (p RoomPatch) Apply(r *Room) {
	if p.Status != nil {
		r.Status = *p.Status
	}
	if p.ChatHistory != nil {
		r.ChatHistory = append([]ChatMessage(nil), p.ChatHistory...)
	}
}

// StatusPatch is a small helper for the common status-only update.
func StatusPatch(s Status) RoomPatch {
	return RoomPatch{Status: &s}
}

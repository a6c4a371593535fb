package domain

import (
	"errors"
	"fmt"
)

type Status string

const (
	StatusAwaiting         Status = "AGUARDANDO"
	StatusDoctorConnected  Status = "DOUTOR_CONECTADO"
	StatusPatientConnected Status = "PACIENTE_CONECTADO"
	StatusChatStarted      Status = "CHAT_INICIADO"
	StatusChatFinished     Status = "CHAT_FINALIZADO"
	StatusFinalized        Status = "FINALIZADO"
)

var (
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrRoomFinalized     = errors.New("room finalized")
)

func (s Status) Valid() bool {
	switch s {
	case StatusAwaiting, StatusDoctorConnected, StatusPatientConnected,
		StatusChatStarted, StatusChatFinished, StatusFinalized:
		return true
	}
	return false
}

// Terminal reports whether no lifecycle event may move the room forward.
func (s Status) Terminal() bool {
	return s == StatusChatFinished || s == StatusFinalized
}

// LifecycleEvent is one of the four events that mutate room status.
type LifecycleEvent string

const (
	EventDoctorJoin       LifecycleEvent = "doctorJoinRoom"
	EventPatientJoin      LifecycleEvent = "patientJoinRoom"
	EventFirstInteraction LifecycleEvent = "firstInteraction"
	EventDoctorClose      LifecycleEvent = "doctorCloseRoom"
)

// Target is the status an event writes when the transition is allowed.
func (e LifecycleEvent) Target() (Status, bool) {
	switch e {
	case EventDoctorJoin:
		return StatusDoctorConnected, true
	case EventPatientJoin:
		return StatusPatientConnected, true
	case EventFirstInteraction:
		return StatusChatStarted, true
	case EventDoctorClose:
		return StatusChatFinished, true
	}
	return "", false
}

// Transition returns the status after ev is applied to current.
//
// Outside the terminal states the event target overwrites whatever is there,
// so a re-join after a dropped connection simply re-asserts its status.
// A closed chat only accepts another close (no-op), and FINALIZADO accepts nothing.
func Transition(current Status, ev LifecycleEvent) (Status, error) {
	target, ok := ev.Target()
	if !ok {
		return current, fmt.Errorf("unknown lifecycle event %q: %w", ev, ErrInvalidTransition)
	}
	switch current {
	case StatusFinalized:
		return current, ErrRoomFinalized
	case StatusChatFinished:
		if ev == EventDoctorClose {
			return current, nil
		}
		return current, fmt.Errorf("%s from %s: %w", ev, current, ErrInvalidTransition)
	}
	return target, nil
}

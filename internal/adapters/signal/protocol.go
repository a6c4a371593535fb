package signal

import (
	"encoding/json"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
)

// Inbound event names. They are the wire contract with existing clients.
const (
	evDoctorJoin         = "doctorJoinRoom"
	evPatientJoin        = "patientJoinRoom"
	evFirstInteraction   = "firstInteraction"
	evPatientSendMessage = "patientSendMessage"
	evPosition           = "position"
	evDoctorClose        = "doctorCloseRoom"
	evPing               = "ping"
)

// Outbound event names.
const (
	outNewMessage    = "newMessage"
	outPatientJoined = "patientJoined"
	outPosition      = "position"
	outCloseRoom     = "closeRoom"
	outError         = "error"
	outPong          = "pong"
)

// SenderAssistant marks messages produced by text generation.
const SenderAssistant = "assistant"

// Client visible texts.
const (
	msgPatientJoined        = "Paciente entrou na sala"
	msgRoomClosed           = "Sessão encerrada pelo profissional"
	errRoomUnavailable      = "Sala não encontrada ou finalizada"
	errAssistantUnavailable = "Assistente indisponível, tente novamente"
	errRoomUpdate           = "Não foi possível atualizar a sala"
	errNotAllowed           = "Ação não permitida"
	errBadPayload           = "Mensagem inválida"
	errMissingRoom          = "roomId obrigatório"
	errUnknownEvent         = "Evento desconhecido"
	errRateLimited          = "Muitas mensagens, aguarde um instante"
	errInternal             = "Erro interno"
)

// inbound is the flat client envelope; unused fields stay empty.
type inbound struct {
	Type     string          `json:"type"`
	RoomID   domain.RoomID   `json:"roomId"`
	Message  string          `json:"message,omitempty"`
	Position json.RawMessage `json:"position,omitempty"`
}

type outbound struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// chatMessage carries either raw text or a conversation turn in Message.
type chatMessage struct {
	Sender  string `json:"sender"`
	Message any    `json:"message"`
}

type positionMessage struct {
	Sender   string          `json:"sender"`
	Position json.RawMessage `json:"position"`
}

// Package conversation drives turn-based dialogue between a patient and the
// text generation backend, keeping the room transcript in the store.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/adapters/llm"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/core"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/metrics"
)

var (
	ErrMalformedOptions = errors.New("conversation: malformed reply options")
	ErrEmptyReply       = errors.New("conversation: empty reply")
)

// RoomLocker serializes work on one room.
type RoomLocker interface {
	Acquire(ctx context.Context, id domain.RoomID) (func(), error)
}

// Turn is one assistant reply with the options offered to the patient.
type Turn struct {
	Reply   string               `json:"reply"`
	Choices []domain.ReplyOption `json:"choices"`
}

type Service struct {
	store   core.RoomStore
	llm     llm.Completer
	locks   RoomLocker
	model   string
	timeout time.Duration
}

func NewService(store core.RoomStore, completer llm.Completer, locks RoomLocker, model string, timeout time.Duration) (*Service, error) {
	if store == nil {
		return nil, errors.New("conversation: room store must not be nil")
	}
	if completer == nil {
		return nil, errors.New("conversation: completer must not be nil")
	}
	if locks == nil {
		return nil, errors.New("conversation: room locker must not be nil")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("conversation: model must not be empty")
	}
	return &Service{store: store, llm: completer, locks: locks, model: model, timeout: timeout}, nil
}

// StartConversation persists the system prompt built from the patient
// profile, then greets. The greeting request is not replayed from history.
func (s *Service) StartConversation(ctx context.Context, id domain.RoomID) (*Turn, error) {
	release, err := s.locks.Acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	room, err := s.store.FetchRoom(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("conversation: start %s: %w", id, err)
	}

	// A retried start reuses the prompt already leading the transcript.
	history := room.ChatHistory
	var system domain.ChatMessage
	if len(history) > 0 && history[0].Role == domain.ChatRoleSystem {
		system = history[0]
	} else {
		system = domain.ChatMessage{Role: domain.ChatRoleSystem, Content: buildSystemPrompt(room.Patient)}
		history = appendMessage(history, system)
		if err := s.store.PatchRoom(ctx, id, domain.RoomPatch{ChatHistory: history}); err != nil {
			return nil, fmt.Errorf("conversation: start %s: persist prompt: %w", id, err)
		}
	}

	turn, err := s.turn(ctx, []domain.ChatMessage{
		system,
		{Role: domain.ChatRoleUser, Content: greetInstruction},
	})
	if err != nil {
		return nil, fmt.Errorf("conversation: start %s: %w", id, err)
	}

	history = appendMessage(history, domain.ChatMessage{Role: domain.ChatRoleAssistant, Content: turn.Reply})
	if err := s.store.PatchRoom(ctx, id, domain.RoomPatch{ChatHistory: history}); err != nil {
		return nil, fmt.Errorf("conversation: start %s: persist reply: %w", id, err)
	}
	log.Info().Str("module", "conversation").Str("room_id", string(id)).Int("history", len(history)).Msg("conversation started")
	return turn, nil
}

// ContinueConversation appends the user message, replays the whole
// transcript, and appends the reply only once the turn fully succeeded.
func (s *Service) ContinueConversation(ctx context.Context, id domain.RoomID, message string) (*Turn, error) {
	release, err := s.locks.Acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	defer release()

	room, err := s.store.FetchRoom(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("conversation: continue %s: %w", id, err)
	}

	history := appendMessage(room.ChatHistory, domain.ChatMessage{Role: domain.ChatRoleUser, Content: message})
	if err := s.store.PatchRoom(ctx, id, domain.RoomPatch{ChatHistory: history}); err != nil {
		return nil, fmt.Errorf("conversation: continue %s: persist message: %w", id, err)
	}

	turn, err := s.turn(ctx, history)
	if err != nil {
		return nil, fmt.Errorf("conversation: continue %s: %w", id, err)
	}

	history = appendMessage(history, domain.ChatMessage{Role: domain.ChatRoleAssistant, Content: turn.Reply})
	if err := s.store.PatchRoom(ctx, id, domain.RoomPatch{ChatHistory: history}); err != nil {
		return nil, fmt.Errorf("conversation: continue %s: persist reply: %w", id, err)
	}
	log.Info().Str("module", "conversation").Str("room_id", string(id)).Int("history", len(history)).Msg("turn completed")
	return turn, nil
}

// EndConversation leaves a closing directive for the next turn. Nothing is
// generated now. A transcript that already holds the directive is left as is.
func (s *Service) EndConversation(ctx context.Context, id domain.RoomID) error {
	release, err := s.locks.Acquire(ctx, id)
	if err != nil {
		return err
	}
	defer release()

	room, err := s.store.FetchRoom(ctx, id)
	if err != nil {
		return fmt.Errorf("conversation: end %s: %w", id, err)
	}
	if hasCloseDirective(room.ChatHistory) {
		log.Debug().Str("module", "conversation").Str("room_id", string(id)).Msg("close directive already stored")
		return nil
	}
	history := appendMessage(room.ChatHistory, domain.ChatMessage{Role: domain.ChatRoleSystem, Content: closeDirective})
	if err := s.store.PatchRoom(ctx, id, domain.RoomPatch{ChatHistory: history}); err != nil {
		return fmt.Errorf("conversation: end %s: %w", id, err)
	}
	log.Info().Str("module", "conversation").Str("room_id", string(id)).Msg("close directive stored")
	return nil
}

// turn asks for a reply to messages and then for the options that go with it.
func (s *Service) turn(ctx context.Context, messages []domain.ChatMessage) (*Turn, error) {
	resp, err := s.complete(ctx, "reply", &llm.ChatCompletionRequest{
		Model:    s.model,
		Messages: toLLM(messages),
	})
	if err != nil {
		return nil, err
	}
	msg := resp.FirstMessage()
	if msg == nil || strings.TrimSpace(msg.Content) == "" {
		return nil, ErrEmptyReply
	}
	reply := strings.TrimSpace(msg.Content)

	resp, err = s.complete(ctx, "options", &llm.ChatCompletionRequest{
		Model: s.model,
		Messages: []llm.ChatMessage{
			{Role: domain.ChatRoleSystem, Content: optionsInstruction},
			{Role: domain.ChatRoleAssistant, Content: reply},
		},
		Tools:      optionsTools(),
		ToolChoice: llm.ForceFunction(OptionsTool),
	})
	if err != nil {
		return nil, err
	}
	choices, err := parseOptions(resp.FirstMessage())
	if err != nil {
		return nil, err
	}
	return &Turn{Reply: reply, Choices: choices}, nil
}

func (s *Service) complete(ctx context.Context, kind string, req *llm.ChatCompletionRequest) (*llm.ChatCompletionResponse, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	start := time.Now()
	resp, err := s.llm.CreateChatCompletion(ctx, req)
	metrics.LLMRequestDuration.WithLabelValues(kind, metrics.Outcome(err)).Observe(time.Since(start).Seconds())
	if err != nil {
		log.Error().Err(err).Str("module", "conversation").Str("kind", kind).Msg("generation failed")
		return nil, err
	}
	return resp, nil
}

func hasCloseDirective(history []domain.ChatMessage) bool {
	for _, m := range history {
		if m.Role == domain.ChatRoleSystem && m.Content == closeDirective {
			return true
		}
	}
	return false
}

func appendMessage(history []domain.ChatMessage, m domain.ChatMessage) []domain.ChatMessage {
	out := make([]domain.ChatMessage, 0, len(history)+1)
	out = append(out, history...)
	return append(out, m)
}

func toLLM(messages []domain.ChatMessage) []llm.ChatMessage {
	out := make([]llm.ChatMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, llm.ChatMessage{Role: m.Role, Content: m.Content})
	}
	return out
}

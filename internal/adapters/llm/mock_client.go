package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MockClient answers locally. When the request carries tools it calls the
// first one with four canned reply options.
type MockClient struct{}

func NewMockClient() *MockClient {
	return &MockClient{}
}

var _ Completer = (*MockClient)(nil)

func (m *MockClient) CreateChatCompletion(ctx context.Context, req *ChatCompletionRequest) (*ChatCompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	msg := &ChatMessage{Role: "assistant"}
	finish := "stop"
	if len(req.Tools) > 0 {
		args, _ := json.Marshal(map[string]any{"options": mockOptions})
		msg.ToolCalls = []ToolCall{{
			ID:   fmt.Sprintf("mock-call-%d", time.Now().UnixNano()),
			Type: "function",
			Function: ToolCallFunction{
				Name:      req.Tools[0].Function.Name,
				Arguments: string(args),
			},
		}}
		finish = "tool_calls"
	} else {
		msg.Content = mockReply(req)
	}
	return &ChatCompletionResponse{
		ID:      fmt.Sprintf("mock-chatcmpl-%d", time.Now().UnixNano()),
		Object:  "chat.completion",
		Created: time.Now().Unix(),
		Model:   req.Model,
		Choices: []Choice{{Index: 0, Message: msg, FinishReason: finish}},
	}, nil
}

var mockOptions = []map[string]string{
	{"label": "Sim", "text": "Sim, quero contar mais.", "emoji": "😊"},
	{"label": "Não", "text": "Não, prefiro não falar disso.", "emoji": "🙅"},
	{"label": "Talvez", "text": "Talvez, ainda estou pensando.", "emoji": "🤔"},
	{"label": "Outra coisa", "text": "Quero falar de outra coisa.", "emoji": "💬"},
}

func mockReply(req *ChatCompletionRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			return "Entendi: " + strings.TrimSpace(req.Messages[i].Content) + ". Pode me contar mais?"
		}
	}
	return "Olá! Que bom te ver por aqui. Como você está hoje?"
}

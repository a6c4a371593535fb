package conversation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/adapters/llm"
	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/domain"
)

const (
	OptionsTool  = "generate_reply_options"
	OptionsCount = 4
)

var optionsSchema = json.RawMessage(`{
	"type":"object",
	"additionalProperties":false,
	"properties":{
		"options":{
			"type":"array",
			"minItems":4,
			"maxItems":4,
			"items":{
				"type":"object",
				"additionalProperties":false,
				"properties":{
					"label":{"type":"string","description":"rótulo curto que identifica a opção"},
					"text":{"type":"string","description":"texto da resposta do paciente"},
					"emoji":{"type":"string","description":"um emoji que descreve a opção"}
				},
				"required":["label","text","emoji"]
			}
		}
	},
	"required":["options"]
}`)

func optionsTools() []llm.Tool {
	return []llm.Tool{{
		Type: "function",
		Function: llm.ToolFunction{
			Name:        OptionsTool,
			Description: "Devolve as 4 opções de resposta oferecidas ao paciente.",
			Parameters:  optionsSchema,
		},
	}}
}

// parseOptions reads the forced tool call. Anything but exactly four fully
// populated options is ErrMalformedOptions.
func parseOptions(msg *llm.ChatMessage) ([]domain.ReplyOption, error) {
	if msg == nil || len(msg.ToolCalls) == 0 {
		return nil, fmt.Errorf("%w: no tool call", ErrMalformedOptions)
	}
	call := msg.ToolCalls[0].Function
	if call.Name != "" && call.Name != OptionsTool {
		return nil, fmt.Errorf("%w: unexpected function %q", ErrMalformedOptions, call.Name)
	}
	var args struct {
		Options []domain.ReplyOption `json:"options"`
	}
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedOptions, err)
	}
	if len(args.Options) != OptionsCount {
		return nil, fmt.Errorf("%w: got %d options", ErrMalformedOptions, len(args.Options))
	}
	for i, o := range args.Options {
		o.Label = strings.TrimSpace(o.Label)
		o.Text = strings.TrimSpace(o.Text)
		o.Emoji = strings.TrimSpace(o.Emoji)
		if o.Label == "" || o.Text == "" || o.Emoji == "" {
			return nil, fmt.Errorf("%w: option %d has empty fields", ErrMalformedOptions, i)
		}
		args.Options[i] = o
	}
	return args.Options, nil
}

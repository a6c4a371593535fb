package llm

import (
	"github.com/rs/zerolog/log"

	"github.com/luan-vieira-er/28-BYTCHE-sub000/internal/config"
)

// NewFromConfig returns a MockClient when llm.mock is set, a real Client
// otherwise.
func NewFromConfig(cfg config.LLMConfig) (Completer, error) {
	if cfg.Mock {
		log.Warn().Str("module", "llm").Msg("llm.mock set, using mock text generation")
		return NewMockClient(), nil
	}
	return NewClient(cfg.APIKey, WithBaseURL(cfg.BaseURL))
}

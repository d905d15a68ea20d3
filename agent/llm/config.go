package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/thanarat-h/frontdesk/agent/contract"
	openaix "github.com/thanarat-h/frontdesk/pkg/openai"
)

// Config carries the completion backend settings plus per-agent overrides.
// Defaults mirror the phone-call tuning: a chatty supervisor with a short
// reply budget, mid-temperature specialists, and a cooler internal assistant
// with room for longer factual answers.
type Config struct {
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.openai.com/v1"`
	APIKey  string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model   string        `envconfig:"MODEL" split_words:"true" default:"gpt-4o-mini"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`

	SupervisorModel       string  `envconfig:"SUPERVISOR_MODEL" split_words:"true"`
	SpecialistModel       string  `envconfig:"SPECIALIST_MODEL" split_words:"true"`
	InternalModel         string  `envconfig:"INTERNAL_MODEL" split_words:"true"`
	SupervisorTemperature float32 `envconfig:"SUPERVISOR_TEMPERATURE" split_words:"true" default:"-1"`
	SpecialistTemperature float32 `envconfig:"SPECIALIST_TEMPERATURE" split_words:"true" default:"-1"`
	InternalTemperature   float32 `envconfig:"INTERNAL_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openai api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// ChatFor resolves the chat model settings for one agent type.
func (c Config) ChatFor(agentType contractx.AgentType) openaix.ChatConfig {
	modelName := strings.TrimSpace(c.Model)

	var temp float32
	var maxTokens int

	switch agentType {
	case contractx.AgentTypeSupervisor:
		temp, maxTokens = 0.7, 300
		if v := strings.TrimSpace(c.SupervisorModel); v != "" {
			modelName = v
		}
		if c.SupervisorTemperature >= 0 {
			temp = c.SupervisorTemperature
		}
	case contractx.AgentTypeInternal:
		temp, maxTokens = 0.3, 1000
		if v := strings.TrimSpace(c.InternalModel); v != "" {
			modelName = v
		}
		if c.InternalTemperature >= 0 {
			temp = c.InternalTemperature
		}
	default:
		temp, maxTokens = 0.6, 500
		if v := strings.TrimSpace(c.SpecialistModel); v != "" {
			modelName = v
		}
		if c.SpecialistTemperature >= 0 {
			temp = c.SpecialistTemperature
		}
	}

	return openaix.ChatConfig{
		BaseURL:     strings.TrimSpace(c.BaseURL),
		APIKey:      strings.TrimSpace(c.APIKey),
		Model:       modelName,
		Temperature: temp,
		MaxTokens:   maxTokens,
		Timeout:     c.Timeout,
	}
}

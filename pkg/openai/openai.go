package openaix

import (
	"context"
	"fmt"
	"strings"
	"time"

	openaimodel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// LLMBuilder builds a tool-calling chat model from config.
type LLMBuilder interface {
	New(ctx context.Context) (model.ToolCallingChatModel, error)
}

var _ LLMBuilder = (*ChatConfig)(nil)

// Config holds the shared OpenAI connection settings. The same credentials
// serve both the chat models and the audio (Whisper/TTS) client.
type Config struct {
	BaseURL      string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.openai.com/v1"`
	APIKey       string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model        string        `envconfig:"MODEL" split_words:"true" default:"gpt-4o-mini"`
	WhisperModel string        `envconfig:"WHISPER_MODEL" split_words:"true" default:"whisper-1"`
	TTSModel     string        `envconfig:"TTS_MODEL" split_words:"true" default:"tts-1"`
	TTSVoice     string        `envconfig:"TTS_VOICE" split_words:"true" default:"nova"`
	Timeout      time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

// ChatConfig is the per-model slice of Config plus sampling settings.
type ChatConfig struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

func (c *ChatConfig) New(ctx context.Context) (model.ToolCallingChatModel, error) {
	modelName := strings.TrimSpace(c.Model)
	if modelName == "" {
		return nil, fmt.Errorf("openai: model name is required")
	}

	maxTokens := c.MaxTokens
	temperature := c.Temperature

	conf := &openaimodel.ChatModelConfig{
		BaseURL:     strings.TrimRight(c.BaseURL, "/"),
		APIKey:      strings.TrimSpace(c.APIKey),
		Model:       modelName,
		MaxTokens:   &maxTokens,
		Temperature: &temperature,
		Timeout:     c.Timeout,
	}

	m, err := openaimodel.NewChatModel(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("openai: create chat model: %w", err)
	}

	return m, nil
}

// NewClient creates a raw OpenAI SDK client for the audio endpoints.
func NewClient(cfg Config) *openaisdk.Client {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil
	}

	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
	}

	if trimmed := strings.TrimRight(cfg.BaseURL, "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	client := openaisdk.NewClient(opts...)
	return &client
}

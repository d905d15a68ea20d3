// Package specialist runs the tool-using half of a turn. A specialist is a
// bounded loop: the model thinks, requests tools, sees their results, and
// must settle on a reply before its iteration ceiling runs out.
package specialist

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/thanarat-h/frontdesk/agent/contract"
)

// Iteration ceilings per specialist. Booking flows need headroom for
// check-then-book sequences; lookups settle faster.
const (
	ReservationIterations = 5
	InformationIterations = 3
	InternalIterations    = 6
)

type Config struct {
	AgentType     contractx.AgentType
	MaxIterations int
	ToolNames     []string
}

type specialistImpl struct {
	agentType     contractx.AgentType
	chatModel     einomodel.ToolCallingChatModel
	systemPrompt  func() string
	dispatcher    contractx.ToolDispatcher
	maxIterations int
}

var _ contractx.Specialist = (*specialistImpl)(nil)

// New binds the named tools to chatModel and returns a runnable specialist.
// systemPrompt is re-evaluated per turn so rendered timestamps stay fresh.
func New(chatModel einomodel.ToolCallingChatModel, systemPrompt func() string, dispatcher contractx.ToolDispatcher, cfg Config) (contractx.Specialist, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}
	if systemPrompt == nil {
		return nil, fmt.Errorf("%w: system prompt is required", contractx.ErrValidation)
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("%w: tool dispatcher is required", contractx.ErrValidation)
	}
	if cfg.MaxIterations <= 0 {
		return nil, fmt.Errorf("%w: max iterations must be positive for agent=%s", contractx.ErrValidation, cfg.AgentType)
	}

	infos := dispatcher.Infos(cfg.ToolNames...)
	if len(infos) != len(cfg.ToolNames) {
		return nil, fmt.Errorf("%w: agent=%s references unregistered tools", contractx.ErrValidation, cfg.AgentType)
	}
	bound, err := chatModel.WithTools(infos)
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools for agent=%s: %v", contractx.ErrModelInvoke, cfg.AgentType, err)
	}

	return &specialistImpl{
		agentType:     cfg.AgentType,
		chatModel:     bound,
		systemPrompt:  systemPrompt,
		dispatcher:    dispatcher,
		maxIterations: cfg.MaxIterations,
	}, nil
}

func (s *specialistImpl) Run(ctx context.Context, history []*schema.Message) (contractx.SpecialistResult, error) {
	if len(history) == 0 {
		return contractx.SpecialistResult{}, fmt.Errorf("%w: specialist needs at least one message", contractx.ErrValidation)
	}

	messages := make([]*schema.Message, 0, len(history)+1)
	messages = append(messages, schema.SystemMessage(s.systemPrompt()))
	messages = append(messages, history...)

	var toolsUsed []string

	for i := 0; i < s.maxIterations; i++ {
		out, err := s.chatModel.Generate(ctx, messages)
		if err != nil {
			return contractx.SpecialistResult{}, fmt.Errorf("%w: agent=%s iteration=%d: %v", contractx.ErrModelInvoke, s.agentType, i, err)
		}
		if out == nil {
			return contractx.SpecialistResult{}, fmt.Errorf("%w: agent=%s returned nothing", contractx.ErrSchemaViolation, s.agentType)
		}

		if len(out.ToolCalls) == 0 {
			reply := strings.TrimSpace(out.Content)
			if reply == "" {
				return contractx.SpecialistResult{}, fmt.Errorf("%w: agent=%s produced an empty reply", contractx.ErrSchemaViolation, s.agentType)
			}
			return contractx.SpecialistResult{Reply: reply, ToolsUsed: toolsUsed}, nil
		}

		messages = append(messages, out)
		for _, call := range out.ToolCalls {
			name := strings.TrimSpace(call.Function.Name)
			result, ran := s.execute(ctx, name, call.Function.Arguments)
			if ran {
				toolsUsed = append(toolsUsed, name)
			}
			messages = append(messages, schema.ToolMessage(result, call.ID))
		}
	}

	// Ceiling reached: one last pass with tools off so the model has to
	// answer with whatever it gathered.
	log.Warn().Str("agent", string(s.agentType)).Int("max_iterations", s.maxIterations).Msg("iteration ceiling reached, finalizing without tools")
	out, err := s.chatModel.Generate(ctx, messages, einomodel.WithToolChoice(schema.ToolChoiceForbidden))
	if err != nil {
		return contractx.SpecialistResult{}, fmt.Errorf("%w: agent=%s finalize: %v", contractx.ErrModelInvoke, s.agentType, err)
	}
	reply := ""
	if out != nil {
		reply = strings.TrimSpace(out.Content)
	}
	if reply == "" {
		return contractx.SpecialistResult{}, fmt.Errorf("%w: agent=%s finalize produced no reply", contractx.ErrSchemaViolation, s.agentType)
	}
	return contractx.SpecialistResult{Reply: reply, ToolsUsed: toolsUsed}, nil
}

// execute runs one tool call, folding malformed arguments into the same
// conversational error channel the dispatcher uses. Only calls that reach a
// known tool and complete count as having run.
func (s *specialistImpl) execute(ctx context.Context, name, rawArgs string) (string, bool) {
	args := map[string]any{}
	if trimmed := strings.TrimSpace(rawArgs); trimmed != "" {
		if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
			log.Warn().Err(err).Str("agent", string(s.agentType)).Str("tool", name).Msg("unparseable tool arguments")
			return fmt.Sprintf("Error executing %s: arguments were not valid JSON", name), false
		}
	}
	return s.dispatcher.Dispatch(ctx, name, args)
}

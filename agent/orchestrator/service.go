// Package orchestrator runs whole conversation turns: session resolution,
// history replay, routing, the specialist loop, and logging, in one graph.
package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/thanarat-h/frontdesk/agent/contract"
	"github.com/thanarat-h/frontdesk/agent/session"
)

type Config struct {
	CompanyID   string
	ReplayLimit int
}

// Service handles the customer-facing conversation flow.
type Service struct {
	sessions contractx.SessionStore
	agents   contractx.Registry

	runner compose.Runnable[contractx.TurnRequest, contractx.TurnResult]

	companyID   string
	replayLimit int
	now         func() time.Time
}

func New(sessions contractx.SessionStore, agents contractx.Registry, cfg Config) (*Service, error) {
	if sessions == nil {
		return nil, errors.New("session store is required")
	}
	if agents == nil {
		return nil, errors.New("agent registry is required")
	}
	companyID := strings.TrimSpace(cfg.CompanyID)
	if companyID == "" {
		return nil, errors.New("company id is required")
	}
	replayLimit := cfg.ReplayLimit
	if replayLimit <= 0 {
		replayLimit = session.DefaultReplayLimit
	}

	s := &Service{
		sessions:    sessions,
		agents:      agents,
		companyID:   companyID,
		replayLimit: replayLimit,
		now:         time.Now,
	}

	runner, err := s.compileTurnGraph(context.Background())
	if err != nil {
		return nil, err
	}
	s.runner = runner
	return s, nil
}

// HandleTurn processes one caller utterance end to end.
func (s *Service) HandleTurn(ctx context.Context, req contractx.TurnRequest) (contractx.TurnResult, error) {
	return s.runner.Invoke(ctx, req)
}

// StartCall opens a new phone conversation: the first "utterance" is a
// synthetic ring so the restaurant speaks first.
func (s *Service) StartCall(ctx context.Context, req contractx.TurnRequest) (contractx.TurnResult, error) {
	req.Message = StartCallLine
	if req.InputType == "" {
		req.InputType = "voice"
	}
	return s.runner.Invoke(ctx, req)
}

// InternalService is the staff-side flavor: no routing, a bigger tool
// budget, and a shorter replay window.
type InternalService struct {
	sessions contractx.SessionStore
	agents   contractx.Registry

	companyID   string
	replayLimit int
	now         func() time.Time
}

func NewInternal(sessions contractx.SessionStore, agents contractx.Registry, companyID string) (*InternalService, error) {
	if sessions == nil {
		return nil, errors.New("session store is required")
	}
	if agents == nil {
		return nil, errors.New("agent registry is required")
	}
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return nil, errors.New("company id is required")
	}
	return &InternalService{
		sessions:    sessions,
		agents:      agents,
		companyID:   companyID,
		replayLimit: session.InternalReplayLimit,
		now:         time.Now,
	}, nil
}

// HandleTurn answers one staff question. Internal turns skip the supervisor
// entirely: every message goes straight to the internal assistant.
func (i *InternalService) HandleTurn(ctx context.Context, userName string, req contractx.TurnRequest) (contractx.TurnResult, error) {
	startedAt := i.now()
	if strings.TrimSpace(req.Message) == "" {
		return contractx.TurnResult{}, contractx.ErrValidation
	}
	if strings.TrimSpace(userName) == "" {
		userName = "team member"
	}

	sessionID, err := i.sessions.ResolveSession(ctx, i.companyID, req.SessionID)
	if err != nil {
		return contractx.TurnResult{}, err
	}

	history, err := i.sessions.History(ctx, i.companyID, sessionID, i.replayLimit)
	if err != nil {
		return contractx.TurnResult{}, err
	}
	history = append(history, schema.UserMessage(req.Message))

	agent, err := i.agents.Internal(userName)
	if err != nil {
		return contractx.TurnResult{}, err
	}

	reply := ApologyReply
	var toolsUsed []string
	result, err := agent.Run(ctx, history)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("internal assistant failed")
	} else {
		reply = result.Reply
		toolsUsed = result.ToolsUsed
	}
	if toolsUsed == nil {
		toolsUsed = []string{}
	}

	nowTs := i.now()
	latency := int(nowTs.Sub(startedAt) / time.Millisecond)
	userMsg := contractx.StoredMessage{Role: "user", Content: req.Message, InputType: req.InputType, CustomerPhone: req.CustomerPhone, Timestamp: &nowTs}
	if err := i.sessions.Append(ctx, i.companyID, sessionID, userMsg); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("failed to log staff message")
	}
	assistantMsg := contractx.StoredMessage{Role: "assistant", Content: reply, ToolName: strings.Join(toolsUsed, ","), LatencyMS: latency, Timestamp: &nowTs}
	if err := i.sessions.Append(ctx, i.companyID, sessionID, assistantMsg); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("failed to log assistant message")
	}

	return contractx.TurnResult{
		Reply:      reply,
		SessionID:  sessionID,
		ToolsUsed:  toolsUsed,
		LatencyMS:  latency,
		CallActive: true,
	}, nil
}

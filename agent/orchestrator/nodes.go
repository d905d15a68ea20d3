package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/thanarat-h/frontdesk/agent/contract"
)

// ApologyReply contains the turn when anything downstream of routing fails.
// The caller hears this instead of an error; the real failure goes to the log.
const ApologyReply = "I apologize, I'm having a little trouble right now. Could you please repeat that?"

// DefaultFarewell is used when the supervisor ends the call without
// providing its own goodbye.
const DefaultFarewell = "Thank you for calling. Have a wonderful day!"

// StartCallLine opens a phone conversation before the caller has said
// anything, so the greeting comes from the restaurant.
const StartCallLine = "[Phone rings - customer picks up]"

type turnState struct {
	req        contractx.TurnRequest
	sessionID  string
	history    []*schema.Message
	decision   contractx.RoutingDecision
	reply      string
	toolsUsed  []string
	callActive bool
	startedAt  time.Time
}

func (s *Service) validateRequest(in contractx.TurnRequest) (*turnState, error) {
	if strings.TrimSpace(in.Message) == "" {
		return nil, fmt.Errorf("%w: message is required", contractx.ErrValidation)
	}
	return &turnState{
		req:        in,
		callActive: true,
		startedAt:  s.now(),
	}, nil
}

func (s *Service) resolveSession(ctx context.Context, st *turnState) (*turnState, error) {
	sessionID, err := s.sessions.ResolveSession(ctx, s.companyID, st.req.SessionID)
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	st.sessionID = sessionID
	return st, nil
}

func (s *Service) loadHistory(ctx context.Context, st *turnState) (*turnState, error) {
	history, err := s.sessions.History(ctx, s.companyID, st.sessionID, s.replayLimit)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	st.history = append(history, schema.UserMessage(st.req.Message))
	return st, nil
}

func (s *Service) route(ctx context.Context, st *turnState) (*turnState, error) {
	decision, err := s.agents.Supervisor().Route(ctx, st.history)
	if err != nil {
		log.Error().Err(err).Str("session_id", st.sessionID).Msg("routing failed")
		st.decision = contractx.RoutingDecision{Route: contractx.RouteSelf}
		return st, nil
	}
	st.decision = decision
	return st, nil
}

func (s *Service) replyDirect(st *turnState) (*turnState, error) {
	st.reply = st.decision.Message
	if st.reply == "" {
		log.Warn().Str("session_id", st.sessionID).Msg("self route with no message")
		st.reply = ApologyReply
	}
	return st, nil
}

func (s *Service) replyFarewell(st *turnState) (*turnState, error) {
	st.reply = st.decision.Message
	if st.reply == "" {
		st.reply = DefaultFarewell
	}
	st.callActive = false
	return st, nil
}

func (s *Service) runSpecialist(ctx context.Context, st *turnState, agent contractx.Specialist, agentType contractx.AgentType) (*turnState, error) {
	// The supervisor's side message is routing chatter, not a reply.
	if st.decision.Message != "" {
		log.Debug().Str("route", string(st.decision.Route)).Str("discarded", st.decision.Message).Msg("dropping supervisor side message")
	}

	result, err := agent.Run(ctx, st.history)
	if err != nil {
		log.Error().Err(err).Str("session_id", st.sessionID).Str("agent", string(agentType)).Msg("specialist failed")
		st.reply = ApologyReply
		return st, nil
	}
	st.reply = result.Reply
	st.toolsUsed = result.ToolsUsed
	return st, nil
}

// persist appends both sides of the exchange. Logging failures never fail
// the turn: the caller already has their answer.
func (s *Service) persist(ctx context.Context, st *turnState) (*turnState, error) {
	nowTs := s.now()
	latency := int(nowTs.Sub(st.startedAt) / time.Millisecond)

	userMsg := contractx.StoredMessage{
		Role:          "user",
		Content:       st.req.Message,
		InputType:     st.req.InputType,
		CustomerPhone: st.req.CustomerPhone,
		Timestamp:     &nowTs,
	}
	if err := s.sessions.Append(ctx, s.companyID, st.sessionID, userMsg); err != nil {
		log.Error().Err(err).Str("session_id", st.sessionID).Msg("failed to log user message")
	}

	assistantMsg := contractx.StoredMessage{
		Role:      "assistant",
		Content:   st.reply,
		ToolName:  strings.Join(st.toolsUsed, ","),
		LatencyMS: latency,
		Timestamp: &nowTs,
	}
	if err := s.sessions.Append(ctx, s.companyID, st.sessionID, assistantMsg); err != nil {
		log.Error().Err(err).Str("session_id", st.sessionID).Msg("failed to log assistant message")
	}
	return st, nil
}

func (s *Service) finalize(st *turnState) (contractx.TurnResult, error) {
	toolsUsed := st.toolsUsed
	if toolsUsed == nil {
		toolsUsed = []string{}
	}
	return contractx.TurnResult{
		Reply:      st.reply,
		SessionID:  st.sessionID,
		ToolsUsed:  toolsUsed,
		LatencyMS:  int(s.now().Sub(st.startedAt) / time.Millisecond),
		CallActive: st.callActive,
	}, nil
}

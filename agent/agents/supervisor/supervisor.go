// Package supervisor decides which specialist handles the caller's latest
// message. It forces the model through a single routing function and degrades
// to handling the turn itself whenever the output cannot be trusted.
package supervisor

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/thanarat-h/frontdesk/agent/contract"
)

const routeToolName = "route_call"

// routeToolInfo is the only tool the supervisor ever sees. Forcing the call
// keeps the routing decision machine-readable.
var routeToolInfo = &schema.ToolInfo{
	Name: routeToolName,
	Desc: "Route the caller's message to the right handler and optionally answer directly.",
	ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
		"route": {
			Type:     schema.String,
			Desc:     "Who should handle this message",
			Enum:     []string{string(contractx.RouteSelf), string(contractx.RouteReservation), string(contractx.RouteInformation), string(contractx.RouteFarewell)},
			Required: true,
		},
		"message": {
			Type: schema.String,
			Desc: "Reply to the caller, required when route is self or farewell",
		},
	}),
}

// jsonObjectPattern pulls a flat JSON object out of free text, for models
// that describe the routing call instead of making it.
var jsonObjectPattern = regexp.MustCompile(`\{[^{}]+\}`)

type routePayload struct {
	Route   string `json:"route"`
	Message string `json:"message"`
}

type supervisorImpl struct {
	chatModel    einomodel.ToolCallingChatModel
	systemPrompt func() string
}

var _ contractx.Supervisor = (*supervisorImpl)(nil)

// New builds a supervisor around chatModel. systemPrompt is re-evaluated on
// every turn so the rendered clock stays current.
func New(chatModel einomodel.ToolCallingChatModel, systemPrompt func() string) (contractx.Supervisor, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}
	if systemPrompt == nil {
		return nil, fmt.Errorf("%w: system prompt is required", contractx.ErrValidation)
	}
	bound, err := chatModel.WithTools([]*schema.ToolInfo{routeToolInfo})
	if err != nil {
		return nil, fmt.Errorf("%w: bind routing tool: %v", contractx.ErrModelInvoke, err)
	}
	return &supervisorImpl{chatModel: bound, systemPrompt: systemPrompt}, nil
}

func (s *supervisorImpl) Route(ctx context.Context, history []*schema.Message) (contractx.RoutingDecision, error) {
	if len(history) == 0 {
		return contractx.RoutingDecision{}, fmt.Errorf("%w: routing needs at least one message", contractx.ErrValidation)
	}

	messages := make([]*schema.Message, 0, len(history)+1)
	messages = append(messages, schema.SystemMessage(s.systemPrompt()))
	messages = append(messages, history...)

	out, err := s.chatModel.Generate(ctx, messages, einomodel.WithToolChoice(schema.ToolChoiceForced))
	if err != nil {
		return contractx.RoutingDecision{}, fmt.Errorf("%w: routing invoke: %v", contractx.ErrModelInvoke, err)
	}
	if out == nil {
		return contractx.RoutingDecision{}, fmt.Errorf("%w: empty routing response", contractx.ErrSchemaViolation)
	}

	return decodeDecision(out), nil
}

// decodeDecision tries, in order, the forced tool call, a JSON object
// embedded in the text, and finally the raw text handled as self. The
// supervisor never fails a turn over malformed routing output.
func decodeDecision(msg *schema.Message) contractx.RoutingDecision {
	for _, call := range msg.ToolCalls {
		if call.Function.Name != routeToolName {
			continue
		}
		if d, ok := parsePayload(call.Function.Arguments); ok {
			return d
		}
	}

	if raw := jsonObjectPattern.FindString(msg.Content); raw != "" {
		if d, ok := parsePayload(raw); ok {
			log.Debug().Msg("routing decision recovered from message text")
			return d
		}
	}

	log.Warn().Str("content", msg.Content).Msg("unroutable supervisor output, handling turn directly")
	return contractx.RoutingDecision{
		Route:   contractx.RouteSelf,
		Message: strings.TrimSpace(msg.Content),
	}
}

func parsePayload(raw string) (contractx.RoutingDecision, bool) {
	var p routePayload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return contractx.RoutingDecision{}, false
	}
	route, ok := normalizeRoute(p.Route)
	if !ok {
		return contractx.RoutingDecision{}, false
	}
	return contractx.RoutingDecision{Route: route, Message: strings.TrimSpace(p.Message)}, true
}

func normalizeRoute(raw string) (contractx.Route, bool) {
	switch contractx.Route(strings.ToLower(strings.TrimSpace(raw))) {
	case contractx.RouteSelf:
		return contractx.RouteSelf, true
	case contractx.RouteReservation:
		return contractx.RouteReservation, true
	case contractx.RouteInformation:
		return contractx.RouteInformation, true
	case contractx.RouteFarewell:
		return contractx.RouteFarewell, true
	default:
		return "", false
	}
}

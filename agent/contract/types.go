package contract

import "time"

type AgentType string

const (
	AgentTypeSupervisor  AgentType = "supervisor"
	AgentTypeReservation AgentType = "reservation"
	AgentTypeInformation AgentType = "information"
	AgentTypeInternal    AgentType = "internal"
)

// Route is the supervisor's per-turn dispatch decision.
type Route string

const (
	RouteSelf        Route = "self"
	RouteReservation Route = "reservation"
	RouteInformation Route = "information"
	RouteFarewell    Route = "farewell"
)

// RoutingDecision is produced fresh each turn and never persisted; only its
// effects (the reply, the call-active flag) are.
type RoutingDecision struct {
	Route   Route  `json:"route"`
	Message string `json:"message,omitempty"`
}

// Tenant identifies the business a conversation belongs to.
type Tenant struct {
	CompanyID   string `json:"company_id"`
	CompanyName string `json:"company_name"`
}

// TurnRequest is one inbound caller utterance.
type TurnRequest struct {
	Message       string `json:"message"`
	SessionID     string `json:"session_id,omitempty"`
	CustomerPhone string `json:"customer_phone,omitempty"`
	InputType     string `json:"input_type,omitempty"`
}

// TurnResult reports one completed turn. ToolsUsed is turn-scoped: it resets
// every turn and never accumulates across the session.
type TurnResult struct {
	Reply      string   `json:"response"`
	SessionID  string   `json:"session_id"`
	ToolsUsed  []string `json:"tools_used"`
	LatencyMS  int      `json:"latency_ms"`
	CallActive bool     `json:"call_active"`
}

// SpecialistResult is the outcome of one bounded tool-use loop.
type SpecialistResult struct {
	Reply     string
	ToolsUsed []string
}

// SessionInfo summarizes one stored conversation.
type SessionInfo struct {
	SessionID     string     `json:"session_id"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	LastMessageAt *time.Time `json:"last_message_at,omitempty"`
	MessageCount  int        `json:"message_count"`
	CustomerPhone string     `json:"customer_phone,omitempty"`
}

// StoredMessage is one persisted conversation log entry.
type StoredMessage struct {
	Role          string     `json:"role"`
	Content       string     `json:"content"`
	InputType     string     `json:"input_type,omitempty"`
	ToolName      string     `json:"tool_name,omitempty"`
	LatencyMS     int        `json:"latency_ms,omitempty"`
	CustomerPhone string     `json:"customer_phone,omitempty"`
	Timestamp     *time.Time `json:"timestamp,omitempty"`
}

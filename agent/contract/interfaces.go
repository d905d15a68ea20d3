package contract

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// Supervisor classifies one turn into a routing decision from the full
// replay-eligible history.
type Supervisor interface {
	Route(ctx context.Context, history []*schema.Message) (RoutingDecision, error)
}

// Specialist runs one bounded reason/act/observe loop and produces the
// turn's reply.
type Specialist interface {
	Run(ctx context.Context, history []*schema.Message) (SpecialistResult, error)
}

// Registry exposes the per-tenant agent set built for one orchestration
// context.
type Registry interface {
	Supervisor() Supervisor
	Reservation() Specialist
	Information() Specialist
	// Internal builds the staff-side assistant for one named user. The
	// prompt carries the user's name, so these are minted per caller.
	Internal(userName string) (Specialist, error)
}

// ToolDispatcher executes a named tool and flattens the outcome to text.
// Dispatch never fails: unknown tools and execution errors come back as
// conversational strings for the model to react to. The second return
// reports whether a known tool ran to completion, so callers can tell a
// real result apart from those fallback strings.
type ToolDispatcher interface {
	Dispatch(ctx context.Context, name string, args map[string]any) (string, bool)
	Known(name string) bool
	Infos(names ...string) []*schema.ToolInfo
}

// SessionStore is the append-only conversation log contract.
type SessionStore interface {
	// ResolveSession returns sessionID when it exists for the tenant, or a
	// freshly minted ID otherwise.
	ResolveSession(ctx context.Context, companyID, sessionID string) (string, error)
	// History returns the replay window: user/assistant roles only, capped.
	History(ctx context.Context, companyID, sessionID string, limit int) ([]*schema.Message, error)
	Append(ctx context.Context, companyID, sessionID string, msg StoredMessage) error
	ListSessions(ctx context.Context, companyID string, limit int) ([]SessionInfo, error)
	SessionHistory(ctx context.Context, companyID, sessionID string) ([]StoredMessage, error)
}

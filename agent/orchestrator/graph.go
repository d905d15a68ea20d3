package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	contractx "github.com/thanarat-h/frontdesk/agent/contract"
)

func (s *Service) compileTurnGraph(ctx context.Context) (compose.Runnable[contractx.TurnRequest, contractx.TurnResult], error) {
	graph := compose.NewGraph[contractx.TurnRequest, contractx.TurnResult]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in contractx.TurnRequest) (*turnState, error) {
			return s.validateRequest(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("resolve_session",
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (*turnState, error) {
			return s.resolveSession(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node resolve_session: %w", err)
	}

	if err := graph.AddLambdaNode("load_history",
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (*turnState, error) {
			return s.loadHistory(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node load_history: %w", err)
	}

	if err := graph.AddLambdaNode("route",
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (*turnState, error) {
			return s.route(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node route: %w", err)
	}

	if err := graph.AddLambdaNode("reply_direct",
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (*turnState, error) {
			return s.replyDirect(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node reply_direct: %w", err)
	}

	if err := graph.AddLambdaNode("reply_farewell",
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (*turnState, error) {
			return s.replyFarewell(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node reply_farewell: %w", err)
	}

	if err := graph.AddLambdaNode("run_reservation",
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (*turnState, error) {
			return s.runSpecialist(ctx, in, s.agents.Reservation(), contractx.AgentTypeReservation)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node run_reservation: %w", err)
	}

	if err := graph.AddLambdaNode("run_information",
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (*turnState, error) {
			return s.runSpecialist(ctx, in, s.agents.Information(), contractx.AgentTypeInformation)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node run_information: %w", err)
	}

	if err := graph.AddLambdaNode("persist",
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (*turnState, error) {
			return s.persist(ctx, in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node persist: %w", err)
	}

	if err := graph.AddLambdaNode("finalize",
		compose.InvokableLambda(func(ctx context.Context, in *turnState) (contractx.TurnResult, error) {
			return s.finalize(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *turnState) (string, error) {
			switch in.decision.Route {
			case contractx.RouteReservation:
				return "run_reservation", nil
			case contractx.RouteInformation:
				return "run_information", nil
			case contractx.RouteFarewell:
				return "reply_farewell", nil
			default:
				return "reply_direct", nil
			}
		},
		map[string]bool{
			"reply_direct":    true,
			"reply_farewell":  true,
			"run_reservation": true,
			"run_information": true,
		},
	)
	if err := graph.AddBranch("route", branch); err != nil {
		return nil, fmt.Errorf("add routing branch: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"validate_request", "resolve_session"},
		{"resolve_session", "load_history"},
		{"load_history", "route"},
		{"reply_direct", "persist"},
		{"reply_farewell", "persist"},
		{"run_reservation", "persist"},
		{"run_information", "persist"},
		{"persist", "finalize"},
		{"finalize", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("frontdesk.handle_turn"))
	if err != nil {
		return nil, fmt.Errorf("compile turn graph: %w", err)
	}
	return runner, nil
}

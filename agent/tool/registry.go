// Package tool maps tool names to implementations and isolates their
// failures. Dispatch never propagates an error: whatever happens inside a
// tool comes back as text the model can react to conversationally.
package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/thanarat-h/frontdesk/agent/contract"
)

// Handler is one registered tool: its schema plus the invocation function.
// Invoke results are always flattened to human-readable text because they
// re-enter the model's context.
type Handler struct {
	Info   *schema.ToolInfo
	Invoke func(ctx context.Context, args map[string]any) (string, error)
}

var _ contractx.ToolDispatcher = (*Registry)(nil)

// Registry is built once per orchestration context and read-only afterwards.
type Registry struct {
	tools map[string]Handler
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Handler)}
}

func (r *Registry) Register(h Handler) error {
	if h.Info == nil || strings.TrimSpace(h.Info.Name) == "" {
		return fmt.Errorf("%w: tool name is empty", contractx.ErrValidation)
	}
	if h.Invoke == nil {
		return fmt.Errorf("%w: tool %s has no implementation", contractx.ErrValidation, h.Info.Name)
	}
	if _, exists := r.tools[h.Info.Name]; exists {
		return fmt.Errorf("%w: tool %s already registered", contractx.ErrValidation, h.Info.Name)
	}
	r.tools[h.Info.Name] = h
	return nil
}

func (r *Registry) MustRegister(handlers ...Handler) *Registry {
	for _, h := range handlers {
		if err := r.Register(h); err != nil {
			panic(err)
		}
	}
	return r
}

func (r *Registry) Known(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Infos returns tool schemas in the order requested, skipping unknown names.
func (r *Registry) Infos(names ...string) []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(names))
	for _, name := range names {
		if h, ok := r.tools[name]; ok {
			infos = append(infos, h.Info)
		}
	}
	return infos
}

// Dispatch runs a tool and flattens the outcome to text. Unknown names and
// execution failures become conversational results, never errors; the bool
// reports whether a known tool actually ran to completion.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (string, bool) {
	h, ok := r.tools[name]
	if !ok {
		log.Warn().Str("tool", name).Msg("dispatch of unknown tool")
		return fmt.Sprintf("Unknown tool: %s", name), false
	}

	result, err := h.Invoke(ctx, args)
	if err != nil {
		log.Error().Err(err).Str("tool", name).Msg("tool execution failed")
		return fmt.Sprintf("Error executing %s: %v", name, err), false
	}
	return result, true
}

/* ----------------------------- arg helpers ----------------------------- */

func stringArg(args map[string]any, key string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// intArg tolerates the JSON number/string forms models emit.
func intArg(args map[string]any, key string) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		var n int
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%d", &n); err == nil {
			return n
		}
	}
	return 0
}

func intArgDefault(args map[string]any, key string, fallback int) int {
	if _, ok := args[key]; !ok {
		return fallback
	}
	if n := intArg(args, key); n > 0 {
		return n
	}
	return fallback
}

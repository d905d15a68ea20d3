package tool

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/thanarat-h/frontdesk/agent/restaurant"
)

const (
	ToolSearchKnowledge = "search_knowledge"
	ToolSearchMenu      = "search_menu"
)

func InformationToolNames() []string {
	return []string{ToolSearchKnowledge, ToolSearchMenu}
}

// InformationStore is the read-only slice the information tools need.
type InformationStore interface {
	SearchKnowledge(ctx context.Context, companyID, query string, limit int) ([]restaurant.KnowledgeEntry, error)
	SearchMenu(ctx context.Context, companyID, query string, limit int) ([]restaurant.MenuItem, error)
}

func RegisterInformationTools(r *Registry, store InformationStore, companyID string) error {
	handlers := []Handler{
		{
			Info: &schema.ToolInfo{
				Name: ToolSearchKnowledge,
				Desc: "Search the restaurant knowledge base for hours, location, policies, and general questions.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"query": {Type: schema.String, Desc: "What the customer wants to know", Required: true},
				}),
			},
			Invoke: func(ctx context.Context, args map[string]any) (string, error) {
				query := stringArg(args, "query")
				if query == "" {
					return "I need a question to search for.", nil
				}
				entries, err := store.SearchKnowledge(ctx, companyID, query, 3)
				if err != nil {
					return "", err
				}
				if len(entries) == 0 {
					return fmt.Sprintf("I couldn't find anything about %q. You may want to call the restaurant directly.", query), nil
				}
				var b strings.Builder
				for i, e := range entries {
					if i > 0 {
						b.WriteString("\n\n")
					}
					answer := e.ShortAnswer
					if answer == "" {
						answer = e.Content
					}
					fmt.Fprintf(&b, "%s: %s", e.Title, answer)
				}
				return b.String(), nil
			},
		},
		{
			Info: &schema.ToolInfo{
				Name: ToolSearchMenu,
				Desc: "Search the menu by dish name, ingredient, category, or dietary need.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"query": {Type: schema.String, Desc: "Dish, ingredient, category, or dietary keyword", Required: true},
				}),
			},
			Invoke: func(ctx context.Context, args map[string]any) (string, error) {
				query := stringArg(args, "query")
				if query == "" {
					return "I need a dish or keyword to search the menu for.", nil
				}
				items, err := store.SearchMenu(ctx, companyID, query, 5)
				if err != nil {
					return "", err
				}
				if len(items) == 0 {
					return fmt.Sprintf("I couldn't find any menu items matching %q.", query), nil
				}
				var b strings.Builder
				b.WriteString("Menu items:")
				for _, item := range items {
					fmt.Fprintf(&b, "\n- %s ($%.2f)", item.Name, item.BasePrice)
					if item.Description != "" {
						fmt.Fprintf(&b, ": %s", item.Description)
					}
					if item.Allergens != "" {
						fmt.Fprintf(&b, " [contains: %s]", item.Allergens)
					}
				}
				return b.String(), nil
			},
		},
	}

	for _, h := range handlers {
		if err := r.Register(h); err != nil {
			return err
		}
	}
	return nil
}

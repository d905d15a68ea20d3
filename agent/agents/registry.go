// Package agents assembles the per-tenant agent set: one supervisor, the
// customer-facing specialists, and on-demand internal assistants.
package agents

import (
	"context"
	"fmt"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"

	"github.com/thanarat-h/frontdesk/agent/agents/specialist"
	"github.com/thanarat-h/frontdesk/agent/agents/supervisor"
	contractx "github.com/thanarat-h/frontdesk/agent/contract"
	llmx "github.com/thanarat-h/frontdesk/agent/llm"
	promptx "github.com/thanarat-h/frontdesk/agent/prompt"
	"github.com/thanarat-h/frontdesk/agent/tool"
)

type registryImpl struct {
	supervisor  contractx.Supervisor
	reservation contractx.Specialist
	information contractx.Specialist

	internalModel einomodel.ToolCallingChatModel
	prompts       promptx.PromptSet
	dispatcher    contractx.ToolDispatcher
	tenant        contractx.Tenant
	now           func() time.Time
}

func (r *registryImpl) Supervisor() contractx.Supervisor  { return r.supervisor }
func (r *registryImpl) Reservation() contractx.Specialist { return r.reservation }
func (r *registryImpl) Information() contractx.Specialist { return r.information }

func (r *registryImpl) Internal(userName string) (contractx.Specialist, error) {
	promptFn := func() string {
		return promptx.RenderInternal(r.prompts.Internal, r.tenant.CompanyName, clock(r.now), userName)
	}
	return specialist.New(r.internalModel, promptFn, r.dispatcher, specialist.Config{
		AgentType:     contractx.AgentTypeInternal,
		MaxIterations: specialist.InternalIterations,
		ToolNames:     tool.InternalToolNames(),
	})
}

// NewRegistry builds every model the agent set needs up front so a bad LLM
// config fails at startup, not mid-call.
func NewRegistry(
	ctx context.Context,
	cfg llmx.Config,
	dispatcher contractx.ToolDispatcher,
	tenant contractx.Tenant,
	now func() time.Time,
) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if now == nil {
		now = time.Now
	}

	prompts := promptx.LoadPromptSet()

	supervisorCfg := cfg.ChatFor(contractx.AgentTypeSupervisor)
	supervisorModel, err := supervisorCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create supervisor model: %v", contractx.ErrModelInvoke, err)
	}
	reservationCfg := cfg.ChatFor(contractx.AgentTypeReservation)
	reservationModel, err := reservationCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create reservation model: %v", contractx.ErrModelInvoke, err)
	}
	informationCfg := cfg.ChatFor(contractx.AgentTypeInformation)
	informationModel, err := informationCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create information model: %v", contractx.ErrModelInvoke, err)
	}
	internalCfg := cfg.ChatFor(contractx.AgentTypeInternal)
	internalModel, err := internalCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create internal model: %v", contractx.ErrModelInvoke, err)
	}

	sup, err := supervisor.New(supervisorModel, func() string {
		return promptx.Render(prompts.Supervisor, tenant.CompanyName, clock(now))
	})
	if err != nil {
		return nil, err
	}

	reservation, err := specialist.New(reservationModel, func() string {
		return promptx.Render(prompts.Reservation, tenant.CompanyName, clock(now))
	}, dispatcher, specialist.Config{
		AgentType:     contractx.AgentTypeReservation,
		MaxIterations: specialist.ReservationIterations,
		ToolNames:     tool.ReservationToolNames(),
	})
	if err != nil {
		return nil, err
	}

	information, err := specialist.New(informationModel, func() string {
		return promptx.Render(prompts.Information, tenant.CompanyName, clock(now))
	}, dispatcher, specialist.Config{
		AgentType:     contractx.AgentTypeInformation,
		MaxIterations: specialist.InformationIterations,
		ToolNames:     tool.InformationToolNames(),
	})
	if err != nil {
		return nil, err
	}

	return &registryImpl{
		supervisor:    sup,
		reservation:   reservation,
		information:   information,
		internalModel: internalModel,
		prompts:       prompts,
		dispatcher:    dispatcher,
		tenant:        tenant,
		now:           now,
	}, nil
}

func clock(now func() time.Time) string {
	return now().Format("Monday, January 2, 2006 at 3:04 PM")
}

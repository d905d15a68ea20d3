package main

import (
	"context"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/thanarat-h/frontdesk/agent/agents"
	"github.com/thanarat-h/frontdesk/agent/contract"
	llmx "github.com/thanarat-h/frontdesk/agent/llm"
	"github.com/thanarat-h/frontdesk/agent/orchestrator"
	"github.com/thanarat-h/frontdesk/agent/restaurant"
	"github.com/thanarat-h/frontdesk/agent/session"
	"github.com/thanarat-h/frontdesk/agent/tool"
	"github.com/thanarat-h/frontdesk/agent/voice"
	configx "github.com/thanarat-h/frontdesk/pkg/config"
	_ "github.com/thanarat-h/frontdesk/pkg/logger/autoload"
	openaix "github.com/thanarat-h/frontdesk/pkg/openai"
	"github.com/thanarat-h/frontdesk/server"
)

type AppConfig struct {
	DatabaseURL string `envconfig:"DATABASE_URL" split_words:"true" required:"true"`
	CompanyID   string `envconfig:"COMPANY_ID" split_words:"true" required:"true"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appCfg := configx.MustNew[AppConfig]("APP")
	serverCfg := configx.MustNew[server.Config]("SERVER")
	openaiCfg := configx.MustNew[openaix.Config]("OPENAI")
	llmCfg := configx.MustNew[llmx.Config]("OPENAI")

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(appCfg.DatabaseURL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		cancel()
		log.Fatal().Err(err).Msg("database unreachable")
	}
	cancel()

	restaurantStore := restaurant.NewStore(db)
	companyName, err := restaurantStore.CompanyName(ctx, appCfg.CompanyID)
	if err != nil {
		log.Fatal().Err(err).Str("company_id", appCfg.CompanyID).Msg("company lookup failed")
	}
	tenant := contract.Tenant{CompanyID: appCfg.CompanyID, CompanyName: companyName}

	registry := tool.NewRegistry()
	if err := tool.RegisterReservationTools(registry, restaurantStore, appCfg.CompanyID, nil); err != nil {
		log.Fatal().Err(err).Msg("register reservation tools")
	}
	if err := tool.RegisterInformationTools(registry, restaurantStore, appCfg.CompanyID); err != nil {
		log.Fatal().Err(err).Msg("register information tools")
	}
	if err := tool.RegisterInternalTools(registry, restaurantStore, appCfg.CompanyID, nil); err != nil {
		log.Fatal().Err(err).Msg("register internal tools")
	}

	agentSet, err := agents.NewRegistry(ctx, *llmCfg, registry, tenant, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("build agent registry")
	}

	publicSessions := session.NewStore(db)
	internalSessions := session.NewStore(db, session.WithIDPrefix(session.InternalIDPrefix))

	turns, err := orchestrator.New(publicSessions, agentSet, orchestrator.Config{
		CompanyID: appCfg.CompanyID,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("build turn orchestrator")
	}
	internalTurns, err := orchestrator.NewInternal(internalSessions, agentSet, appCfg.CompanyID)
	if err != nil {
		log.Fatal().Err(err).Msg("build internal orchestrator")
	}

	voiceSvc := voice.NewService(openaix.NewClient(*openaiCfg), *openaiCfg)

	handler := server.New(turns, internalTurns, publicSessions, voiceSvc, appCfg.CompanyID)
	router := server.NewRouter(handler)

	log.Info().Str("company", companyName).Msg("front desk ready")
	if err := server.Run(ctx, *serverCfg, router); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

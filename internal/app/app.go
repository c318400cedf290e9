package app

import (
	"context"
	"log"
	"time"

	"github.com/chitragupta-ai/chitragupta-server/internal/config"
	"github.com/chitragupta-ai/chitragupta-server/internal/core"
	db "github.com/chitragupta-ai/chitragupta-server/internal/core/database"
	"github.com/chitragupta-ai/chitragupta-server/internal/core/intake"
	"github.com/chitragupta-ai/chitragupta-server/internal/core/llm"
	objectclient "github.com/chitragupta-ai/chitragupta-server/internal/core/object-client"
	"github.com/chitragupta-ai/chitragupta-server/internal/core/whatsapp"
	"github.com/chitragupta-ai/chitragupta-server/internal/services"
)

type App struct {
	Store        core.Store
	ObjectClient core.ObjectClient
	Server       *Server
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	store, err := db.NewDatabaseClient(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Database initialized and ready.")

	objClient, err := objectclient.NewS3Client(appCtx, cfg)
	if err != nil {
		return nil, err
	}
	log.Println("Object client initialized and ready.")

	// The AI stack is optional; drafting degrades to heuristics without it.
	var (
		llmProvider core.LLMProvider
		embedder    core.EmbeddingProvider
	)
	if cfg.AIAPIKey != "" {
		gen, err := llm.NewGeminiLLM(appCtx, cfg.AIAPIKey, cfg.GenModel)
		if err != nil {
			return nil, err
		}
		llmProvider = gen

		emb, err := llm.NewGeminiEmbedder(appCtx, cfg.AIAPIKey, cfg.EmbedModel)
		if err != nil {
			return nil, err
		}
		embedder = emb
		log.Println("AI providers initialized and ready.")
	} else {
		log.Println("AI_API_KEY not set; drafting runs on heuristics only.")
	}

	transport := whatsapp.NewProvider(cfg)

	leadService := services.NewLeadService(store)
	gateway := services.NewOutboundGateway(store, transport, services.RateLimits{
		MaxPerDay:        cfg.MaxPerDay,
		MaxPerLeadPerDay: cfg.MaxPerLeadPerDay,
	})
	approvalService := services.NewApprovalService(store, gateway)
	metricsService := services.NewMetricsService(store)
	draftService := services.NewDraftService(store, llmProvider, embedder)

	var indiamart *intake.IndiaMartClient
	if key := config.GetIntegrationConfig(appCtx, store, "INDIAMART_CRM_KEY"); key != "" {
		indiamart = intake.NewIndiaMartClient(key)
	}

	server := NewServer(cfg, &Services{
		Store:        store,
		ObjectClient: objClient,
		Leads:        leadService,
		Approvals:    approvalService,
		Metrics:      metricsService,
		Drafts:       draftService,
		IndiaMart:    indiamart,
	})

	return &App{Store: store, ObjectClient: objClient, Server: server}, nil
}

func (a *App) Close() {
	if closer, ok := a.Store.(*db.DatabaseClient); ok {
		_ = closer.Close()
	}
}

package app

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/chitragupta-ai/chitragupta-server/internal/api/handlers"
	appMiddleware "github.com/chitragupta-ai/chitragupta-server/internal/api/middlewares"
	"github.com/chitragupta-ai/chitragupta-server/internal/config"
	"github.com/chitragupta-ai/chitragupta-server/internal/core"
	"github.com/chitragupta-ai/chitragupta-server/internal/core/intake"
	"github.com/chitragupta-ai/chitragupta-server/internal/services"
)

// Services bundles everything the routes need.
type Services struct {
	Store        core.Store
	ObjectClient core.ObjectClient
	Leads        *services.LeadService
	Approvals    *services.ApprovalService
	Metrics      *services.MetricsService
	Drafts       *services.DraftService
	IndiaMart    *intake.IndiaMartClient
}

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, svc *Services) *Server {
	authHandler := handlers.NewAuthHandler(svc.Store)
	enquiryHandler := handlers.NewEnquiryHandler(svc.Store, svc.Leads, svc.IndiaMart)
	webhookHandler := handlers.NewWebhookHandler(svc.Leads)
	leadHandler := handlers.NewLeadHandler(svc.Store, svc.Leads)
	approvalHandler := handlers.NewApprovalHandler(svc.Approvals)
	quoteHandler := handlers.NewQuoteHandler(svc.Store, svc.ObjectClient, svc.Approvals, cfg)
	metricsHandler := handlers.NewMetricsHandler(svc.Metrics)
	agentHandler := handlers.NewAgentHandler(svc.Store, svc.Drafts)
	settingsHandler := handlers.NewSettingsHandler(svc.Store)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8888"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/signup", authHandler.Signup)
		api.Post("/login", authHandler.Login)
		api.Post("/webhooks/{source}", webhookHandler.Receive)

		// operator endpoints
		api.Group(func(protected chi.Router) {
			protected.Use(appMiddleware.JWTMiddleware)

			protected.Post("/enquiries/import", enquiryHandler.ImportCSV)
			protected.Post("/enquiries", enquiryHandler.CreateManual)
			protected.Post("/enquiries/document", enquiryHandler.UploadDocument)
			protected.Get("/enquiries", enquiryHandler.ListUntriaged)
			protected.Post("/enquiries/{id}/triage", enquiryHandler.Triage)

			protected.Get("/leads", leadHandler.List)
			protected.Get("/leads/{id}", leadHandler.Get)
			protected.Patch("/leads/{id}/consent", leadHandler.UpdateConsent)
			protected.Patch("/leads/{id}/status", leadHandler.UpdateStatus)

			protected.Post("/approvals", approvalHandler.CreateDraft)
			protected.Get("/approvals", approvalHandler.List)
			protected.Get("/approvals/{id}", approvalHandler.Get)

			protected.Post("/quotes", quoteHandler.Create)
			protected.Get("/quotes/{id}", quoteHandler.Get)

			protected.Get("/metrics/dashboard", metricsHandler.Dashboard)
			protected.Get("/metrics/daily", metricsHandler.Daily)

			protected.Post("/agent/suggest", agentHandler.Suggest)
			protected.Post("/agent/compose", agentHandler.Compose)

			// director endpoints
			protected.Group(func(director chi.Router) {
				director.Use(appMiddleware.DirectorOnly)

				director.Post("/approvals/{id}/decide", approvalHandler.Decide)
				director.Post("/enquiries/poll/indiamart", enquiryHandler.PollIndiaMART)
				director.Post("/agent/memories", agentHandler.Remember)
				director.Get("/settings/{id}", settingsHandler.Get)
				director.Put("/settings/{id}", settingsHandler.Set)
			})
		})
	})

	httpSrv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	return &Server{httpServer: httpSrv}
}

// Start runs the HTTP server.
func (s *Server) Start() {
	log.Printf("HTTP server listening on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down HTTP server...")
	return s.httpServer.Shutdown(ctx)
}

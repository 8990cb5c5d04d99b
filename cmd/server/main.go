package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/emiryucelweb/asistanapp-sub008/internal/aggregator"
	"github.com/emiryucelweb/asistanapp-sub008/internal/api"
	"github.com/emiryucelweb/asistanapp-sub008/internal/assignment"
	"github.com/emiryucelweb/asistanapp-sub008/internal/auth"
	"github.com/emiryucelweb/asistanapp-sub008/internal/config"
	"github.com/emiryucelweb/asistanapp-sub008/internal/directory"
	"github.com/emiryucelweb/asistanapp-sub008/internal/escalation"
	"github.com/emiryucelweb/asistanapp-sub008/internal/metrics"
	"github.com/emiryucelweb/asistanapp-sub008/internal/notify"
	"github.com/emiryucelweb/asistanapp-sub008/internal/relay"
	"github.com/emiryucelweb/asistanapp-sub008/internal/signaling"
	"github.com/emiryucelweb/asistanapp-sub008/internal/storage"
	"github.com/emiryucelweb/asistanapp-sub008/internal/websocket"
	"github.com/emiryucelweb/asistanapp-sub008/pkg/middleware"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Notifier is the escalation alert sink plus the degraded-call alert
// sink, with a closer for shutdown
type Notifier interface {
	escalation.Notifier
	aggregator.QualityNotifier
	Close() error
}

func main() {
	// Configure logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Set log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Warn().Str("level", cfg.LogLevel).Msg("invalid log level, using info")
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	log.Info().
		Str("port", cfg.Port).
		Str("relay", cfg.RelayBaseURL).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Str("log_level", cfg.LogLevel).
		Msg("starting asistanapp call core")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Relay client, shared by every component that talks upstream
	relayClient := relay.NewClient(cfg.RelayBaseURL, cfg.RelayTimeout, log.Logger)

	// Persistence store (DynamoDB or noop per DYNAMO_MODE)
	store, err := storage.NewStore(ctx, log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}

	// Escalation alert sink (AMQP broker or noop)
	var notifier Notifier
	if cfg.AMQPURL != "" {
		amqpNotifier, err := notify.NewAMQPNotifier(cfg.AMQPURL, cfg.AMQPExchange, log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to AMQP broker")
		}
		notifier = amqpNotifier
	} else {
		log.Info().Msg("AMQP disabled (AMQP_URL empty), escalation alerts are local only")
		notifier = notify.NoopNotifier{}
	}
	defer notifier.Close()

	// WebSocket hub for operator dashboard pushes
	hub := websocket.NewHub(log.Logger)
	go hub.Run()
	wsHandler := websocket.NewHandler(hub, cfg, log.Logger)

	// Call session manager with pion-backed media
	media := signaling.NewWebRTCMediaDevices(log.Logger)
	transport := signaling.NewWebRTCTransport(cfg.STUNServers, log.Logger)
	manager := signaling.NewManager(relayClient, media, transport, cfg.QualitySampleInterval, log.Logger)
	manager.SetStore(store)
	defer manager.Close()

	// Assignment engine
	engine := assignment.NewEngine(relayClient, log.Logger)

	// Escalation queue, navigating accepted calls through the hub
	escalationQueue := escalation.NewQueue(escalation.Delays{
		AcceptSettle: cfg.EscalationAcceptSettle,
		RejectDelay:  cfg.EscalationRejectDelay,
		RingTimeout:  cfg.EscalationRingTimeout,
	}, notifier, hub, log.Logger)

	// Cached agent roster for the per-second snapshot
	roster := directory.NewTracker(relayClient, log.Logger)
	go roster.Run(ctx, 5*time.Second)

	// Snapshot broadcaster
	aggregatorService := aggregator.NewAggregator(manager, escalationQueue, roster, hub, notifier, log.Logger)
	go aggregatorService.Start(ctx)

	// REST handlers
	callsHandler := api.NewCallsHandler(manager, relayClient, log.Logger)
	assignmentsHandler := api.NewAssignmentsHandler(engine, log.Logger)
	escalationsHandler := api.NewEscalationsHandler(escalationQueue, log.Logger)
	rulesHandler := api.NewRulesHandler(relayClient, log.Logger)
	recordsHandler := api.NewRecordsHandler(store, log.Logger)

	// Create router
	r := chi.NewRouter()

	// Add middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(log.Logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Register public routes (no auth required)
	r.Get("/health", healthHandler)
	r.Get("/metrics", metrics.Get().Handler())

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Get("/ws", wsHandler.ServeHTTP)

		r.Route("/api", func(r chi.Router) {
			r.Route("/calls", func(r chi.Router) {
				r.Get("/", callsHandler.List)
				r.Post("/", callsHandler.Dial)
				r.Get("/history", callsHandler.History)
				r.Get("/active", callsHandler.Active)
				r.Route("/{callId}", func(r chi.Router) {
					r.Post("/answer", callsHandler.Answer)
					r.Post("/answer-sdp", callsHandler.AcceptAnswer)
					r.Post("/ice", callsHandler.AddICECandidate)
					r.Post("/end", callsHandler.End)
					r.Post("/hold", callsHandler.Hold)
					r.Post("/resume", callsHandler.Resume)
					r.Post("/mute", callsHandler.ToggleMute)
					r.Post("/volume", callsHandler.SetVolume)
					r.Post("/transfer", callsHandler.Transfer)
					r.Post("/recording/start", callsHandler.StartRecording)
					r.Post("/recording/stop", callsHandler.StopRecording)
				})
			})

			r.Route("/conversations", func(r chi.Router) {
				r.Get("/queued", assignmentsHandler.QueuedConversations)
				r.Post("/bulk-assign", assignmentsHandler.BulkAssign)
				r.Route("/{conversationId}", func(r chi.Router) {
					r.Post("/auto-assign", assignmentsHandler.AutoAssign)
					r.Post("/assign", assignmentsHandler.ManualAssign)
					r.Post("/take", assignmentsHandler.TakeAsOwner)
					r.Post("/reassign", assignmentsHandler.Reassign)
					r.Post("/unassign", assignmentsHandler.Unassign)
				})
			})

			r.Route("/agents", func(r chi.Router) {
				r.Get("/available", assignmentsHandler.AvailableAgents)
				r.Get("/{agentId}/stats", assignmentsHandler.AgentStats)
			})

			r.Route("/escalations", func(r chi.Router) {
				r.Get("/", escalationsHandler.State)
				r.Post("/", escalationsHandler.Trigger)
				r.Post("/accept", escalationsHandler.Accept)
				r.Post("/reject", escalationsHandler.Reject)
				r.Post("/dismiss", escalationsHandler.Dismiss)
				r.Post("/mute", escalationsHandler.ToggleMute)
				r.Post("/clear", escalationsHandler.ClearQueue)
			})

			r.Route("/assignments/rules", func(r chi.Router) {
				r.Get("/", rulesHandler.List)
				r.With(auth.RequireRole("admin", "supervisor")).Post("/", rulesHandler.Create)
				r.With(auth.RequireRole("admin", "supervisor")).Patch("/{ruleId}", rulesHandler.Update)
				r.With(auth.RequireRole("admin", "supervisor")).Delete("/{ruleId}", rulesHandler.Delete)
			})

			r.Get("/records/{date}", recordsHandler.ByDate)
			r.With(auth.RequireRole("admin")).Post("/admin/records/truncate", recordsHandler.Truncate)
		})
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		log.Info().Msgf("server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// healthHandler handles health check requests
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","service":"asistanapp-call-core"}`)
}

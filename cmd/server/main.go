package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scoutdash/scout/internal/clients/brokerage"
	"github.com/scoutdash/scout/internal/clients/features"
	"github.com/scoutdash/scout/internal/config"
	"github.com/scoutdash/scout/internal/database"
	"github.com/scoutdash/scout/internal/domain"
	"github.com/scoutdash/scout/internal/modules/alerts"
	"github.com/scoutdash/scout/internal/modules/dashboard"
	dashboardhandlers "github.com/scoutdash/scout/internal/modules/dashboard/handlers"
	"github.com/scoutdash/scout/internal/modules/discovery"
	discoveryhandlers "github.com/scoutdash/scout/internal/modules/discovery/handlers"
	featuresrepo "github.com/scoutdash/scout/internal/modules/features"
	"github.com/scoutdash/scout/internal/modules/portfolio"
	portfoliohandlers "github.com/scoutdash/scout/internal/modules/portfolio/handlers"
	"github.com/scoutdash/scout/internal/modules/thesis"
	thesishandlers "github.com/scoutdash/scout/internal/modules/thesis/handlers"
	"github.com/scoutdash/scout/internal/scheduler"
	"github.com/scoutdash/scout/internal/server"
	"github.com/scoutdash/scout/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// Logger is not up yet; fall back to stderr.
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting Scout")

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.MissingCredentials() {
		log.Warn().Msg("Brokerage credentials not configured, portfolio endpoints serve zeroed data")
	}

	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Collaborator clients. Dev mode swaps in deterministic fixtures so the
	// full pipeline works without live upstreams.
	var featureSource domain.FeatureSource
	var broker domain.BrokerClient
	if cfg.DevMode {
		featureSource = features.NewFixtureSource()
		broker = brokerage.NewFixtureClient()
		log.Info().Msg("Dev mode: using fixture feature source and broker")
	} else {
		featureSource = features.NewClient(cfg.FeatureServiceURL, log)
		broker = brokerage.NewClient(cfg.BrokerageBaseURL, cfg.BrokerageAPIKey, cfg.BrokerageAPISecret, log)
	}

	// Discovery pipeline.
	featureRepo := featuresrepo.NewRepository(db.Conn(), log)
	weightsRepo := discovery.NewWeightsRepository(db.Conn(), log)
	scorer := discovery.NewScorer(weightsRepo, log)
	classifier := discovery.NewClassifier(cfg.Classifier)
	pipeline := discovery.NewPipeline(cfg.Discovery, log)
	discoveryRepo := discovery.NewRepository(db.Conn(), cfg.Discovery.PriceCap, cfg.Discovery.RecencyWindowHours, log)
	sessionRepo := discovery.NewSessionRepository(db.Conn(), log)
	thesisRepo := thesis.NewRepository(db.Conn(), log)

	capture := discovery.NewCaptureService(
		cfg.Universe,
		featureSource,
		featureRepo,
		thesisRepo,
		scorer,
		classifier,
		pipeline,
		discoveryRepo,
		sessionRepo,
		time.Duration(cfg.Discovery.CacheTTLSeconds)*time.Second,
		log,
	)

	// Portfolio, alerts, thesis, dashboard.
	portfolioSvc := portfolio.NewService(broker, log)
	window := scheduler.NewScanWindow(cfg.ScanWindowStart, cfg.ScanWindowEnd, cfg.ScanWeekdays, cfg.Timezone, log)
	alertGen := alerts.NewGenerator(cfg.Alerts, window.Location(), log)
	thesisSvc := thesis.NewService(thesisRepo, featureRepo, scorer, classifier, log)
	dashboardSvc := dashboard.NewService(portfolioSvc, capture, discoveryRepo, sessionRepo, alertGen, log)

	// Scheduler: one ungated run at startup, then window-gated ticks.
	sched := scheduler.New(log)
	sched.Start()
	defer sched.Stop()

	startupJob := scheduler.NewStartupCaptureJob(capture, log)
	go func() {
		if err := sched.RunNow(startupJob); err != nil {
			log.Error().Err(err).Msg("Startup capture run failed")
		}
	}()

	captureJob := scheduler.NewCaptureJob(capture, window, log)
	schedule := fmt.Sprintf("@every %dm", cfg.ScanIntervalMinutes)
	if err := sched.AddJob(schedule, captureJob); err != nil {
		log.Fatal().Err(err).Msg("Failed to register capture job")
	}

	srv := server.New(server.Config{
		Port:    cfg.Port,
		Log:     log,
		Config:  cfg,
		DevMode: cfg.DevMode,
		Registrars: []server.RouteRegistrar{
			discoveryhandlers.NewHandler(capture, discoveryRepo, log),
			portfoliohandlers.NewHandler(portfolioSvc, log),
			thesishandlers.NewHandler(thesisRepo, thesisSvc, log),
			dashboardhandlers.NewHandler(dashboardSvc, log),
		},
		System: server.NewSystemHandlers(log, cfg, broker, capture),
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}

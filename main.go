package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/medreconcile/medreconcile-api/auth"
	"github.com/medreconcile/medreconcile-api/clinical/dosage"
	"github.com/medreconcile/medreconcile-api/clinical/evidence"
	"github.com/medreconcile/medreconcile-api/clinical/rules"
	"github.com/medreconcile/medreconcile-api/config"
	"github.com/medreconcile/medreconcile-api/data"
	"github.com/medreconcile/medreconcile-api/gateway/rxnav"
	"github.com/medreconcile/medreconcile-api/gateway/simplify"
	"github.com/medreconcile/medreconcile-api/gateway/vision"
	"github.com/medreconcile/medreconcile-api/health"
	"github.com/medreconcile/medreconcile-api/interfaces"
	"github.com/medreconcile/medreconcile-api/logging"
	"github.com/medreconcile/medreconcile-api/scheduler"
	"github.com/medreconcile/medreconcile-api/server"
	"github.com/medreconcile/medreconcile-api/store"
	"github.com/medreconcile/medreconcile-api/validation"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logging.Init(cfg.LogDir, cfg.LogRetentionWeeks)

	container := data.NewContainer(evidence.NewReferenceSource())
	container.SetServerStartTime(time.Now())

	records, closeStore, err := buildStore(cfg)
	if err != nil {
		logging.Error("Failed to connect to the record store", "error", err)
		os.Exit(1)
	}
	defer closeStore()

	buildEngines := func() (*rules.Engine, *dosage.Analyzer, *evidence.Aggregator, error) {
		agg := evidence.NewAggregator(evidence.NewReferenceSource())
		agg.SetSourceTimeout(cfg.EvidenceTimeout)
		return rules.NewEngine(), dosage.NewAnalyzer(), agg, nil
	}
	refresher := scheduler.NewScheduler(container, buildEngines, cfg.RefreshInterval)
	if err := refresher.Start(); err != nil {
		logging.Error("Initial reference data load failed", "error", err)
		os.Exit(1)
	}
	defer refresher.Stop()

	srv := server.NewServer(cfg, server.Dependencies{
		Provider:      container,
		Terminology:   buildTerminology(cfg),
		Scanner:       vision.NewStaticScanner(),
		Simplifier:    buildSimplifier(cfg),
		Records:       records,
		Authenticator: buildAuthenticator(cfg),
		Checker:       health.NewChecker(container, records, cfg.RefreshInterval),
		Validator:     validation.NewValidator(),
	})

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown failed", "error", err)
	}
}

func buildStore(cfg *config.Config) (interfaces.MedicationStore, func(), error) {
	if cfg.DatabaseURL == "" {
		logging.Info("Using in-memory medication record store")
		return store.NewMemoryStore(), func() {}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	logging.Info("Connected to Postgres medication record store")
	return pg, pg.Close, nil
}

func buildTerminology(cfg *config.Config) interfaces.TerminologyGateway {
	if cfg.TerminologyMode == config.ModeLive {
		logging.Info("Using live terminology gateway", "base_url", cfg.TerminologyBaseURL)
		return rxnav.NewClient(cfg.TerminologyBaseURL, cfg.GatewayTimeout)
	}
	return rxnav.NewStaticGateway()
}

func buildSimplifier(cfg *config.Config) interfaces.Simplifier {
	if cfg.SimplifierMode == config.ModeLive {
		logging.Info("Using live instruction simplifier", "base_url", cfg.SimplifierBaseURL)
		return simplify.NewClient(cfg.SimplifierBaseURL, cfg.SimplifierAPIKey, cfg.GatewayTimeout)
	}
	return simplify.NewStaticSimplifier()
}

func buildAuthenticator(cfg *config.Config) interfaces.Authenticator {
	if cfg.AuthMode == config.AuthModeJWT {
		return auth.NewJWTAuthenticator(cfg.JWTSecret)
	}
	logging.Warn("Development authentication enabled, do not use in production")
	return auth.NewDevAuthenticator()
}

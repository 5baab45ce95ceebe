package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"hos-service/internal/auth"
	"hos-service/internal/config"
	"hos-service/internal/db"
	"hos-service/internal/geo"
	httphandler "hos-service/internal/http"
	"hos-service/internal/http/middleware"
	"hos-service/internal/logger"
	"hos-service/internal/repository"
	"hos-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Environment)

	loc, err := time.LoadLocation(cfg.Carrier.Timezone)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid carrier timezone")
	}

	database, err := db.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	timeCardRepo := repository.NewTimeCardRepository(database)
	tripRepo := repository.NewTripRepository(database)
	complianceRepo := repository.NewComplianceRepository(database)
	rosterRepo := repository.NewRosterRepository(database)

	base := geo.Coordinate{Lat: cfg.Carrier.BaseLat, Lng: cfg.Carrier.BaseLng}
	distance := service.NewDistanceTracker(tripRepo, base, cfg.Rules.ExemptionRadiusNM)
	exemption := service.NewExemptionTracker(tripRepo, complianceRepo, cfg.Rules.ExemptionWindowDays, cfg.Rules.ExemptionMaxDays)
	evaluator := service.NewEvaluator(timeCardRepo, complianceRepo, cfg.Rules)

	ledger := service.NewLedger(timeCardRepo, tripRepo, complianceRepo, rosterRepo,
		distance, exemption, evaluator, cfg.Rules, loc, log)
	status := service.NewStatusService(timeCardRepo, tripRepo, complianceRepo, rosterRepo,
		evaluator, exemption, cfg.Rules, loc)

	tokenParser := auth.NewParser(cfg.Auth.AccessSecret)

	healthCheck := func(ctx context.Context) error { return db.HealthCheck(ctx, database) }
	handler := httphandler.NewHandler(ledger, status, healthCheck, log)
	router := httphandler.NewRouter(handler, middleware.Auth(tokenParser), cfg.Environment)

	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
	log.Info().Str("addr", addr).Msg("starting hos service")

	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// Command server runs the crypto advisor HTTP service.
//
// Startup order:
//  1. Load configuration from environment (.env supported)
//  2. Initialize structured logging
//  3. Open the SQLite database and run migrations
//  4. Load the prediction model artifact
//  5. Wire the market data client and module services
//  6. Register background jobs and start the scheduler
//  7. Start the HTTP server and wait for a shutdown signal
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Meza27/cryptoadvisor/internal/clientdata"
	"github.com/Meza27/cryptoadvisor/internal/clients/coingecko"
	"github.com/Meza27/cryptoadvisor/internal/config"
	"github.com/Meza27/cryptoadvisor/internal/database"
	"github.com/Meza27/cryptoadvisor/internal/modules/history"
	"github.com/Meza27/cryptoadvisor/internal/modules/portfolio"
	"github.com/Meza27/cryptoadvisor/internal/modules/recommendations"
	"github.com/Meza27/cryptoadvisor/internal/modules/scoring"
	"github.com/Meza27/cryptoadvisor/internal/oracle"
	"github.com/Meza27/cryptoadvisor/internal/scheduler"
	"github.com/Meza27/cryptoadvisor/internal/server"
	"github.com/Meza27/cryptoadvisor/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{
			Level:  "info",
			Pretty: true,
		})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})

	log.Info().Msg("Starting crypto advisor")

	db, err := database.New(cfg.DatabasePath())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	model, err := oracle.New(cfg.ModelPath, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load prediction model")
	}

	cacheRepo := clientdata.NewRepository(db.Conn())
	gateway := coingecko.NewClient(cfg.CoinGeckoBaseURL, cacheRepo, log)

	scoringSvc := scoring.NewService(gateway, model, log)
	recsSvc := recommendations.NewService(gateway, scoringSvc, cfg.CacheTTL, nil, log)
	portfolioSvc := portfolio.NewService(recsSvc, log)
	historyRepo := history.NewRepository(db.Conn(), log)

	// Background jobs: warm the analysis cache every 5 minutes and purge
	// expired client data hourly.
	sched := scheduler.New(log)
	if err := sched.AddJob("@every 5m", recommendations.NewWarmJob(recsSvc, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cache warm job")
	}
	if err := sched.AddJob("@hourly", clientdata.NewCleanupJob(cacheRepo, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cleanup job")
	}
	sched.Start()

	srv := server.New(server.Config{
		Log:                    log,
		Config:                 cfg,
		Gateway:                gateway,
		ScoringService:         scoringSvc,
		RecommendationsService: recsSvc,
		PortfolioService:       portfolioSvc,
		HistoryRepo:            historyRepo,
		ModelVersion:           model.Version(),
	})

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	sched.Stop(shutdownCtx)

	log.Info().Msg("Server stopped")
}

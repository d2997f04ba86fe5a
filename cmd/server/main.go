package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"estateinsight/server/config"
	"estateinsight/server/internal/analysis"
	"estateinsight/server/internal/api"
	"estateinsight/server/internal/database"
	"estateinsight/server/internal/importer"
	"estateinsight/server/internal/logging"
	"estateinsight/server/internal/query"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	logger := logging.New(cfg.Log.Level)
	gin.SetMode(cfg.Server.Mode)

	locations, err := config.LoadLocations(cfg.Query.LocationsFile)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load locations")
	}

	// Initialize database
	logger.WithField("driver", cfg.Database.Driver).Info("Connecting to database")
	db, err := database.NewDatabase(cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	// Run database migrations
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	generator, err := analysis.NewGenerator(ctx, cfg)
	switch {
	case errors.Is(err, analysis.ErrUnavailable):
		logger.Info("No narrative provider configured, using templated summaries")
	case err != nil:
		logger.WithError(err).Warn("Failed to initialize narrative provider, using templated summaries")
	default:
		logger.WithField("provider", cfg.Narrative.Provider).Info("Narrative provider enabled")
	}
	summarizer := analysis.NewSummarizer(generator, time.Duration(cfg.Narrative.Timeout)*time.Second, logger)

	handler := api.NewHandler(
		db,
		query.NewInterpreter(config.LocationNames(locations), cfg.Query.City, cfg.Query.MinYear, cfg.Query.MaxYear),
		summarizer,
		importer.New(db, cfg.Import.BatchSize, cfg.Query.City, logger),
		locations,
		logger,
	)

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.NewRouter(handler, cfg.Server.AllowedOrigins, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}
}

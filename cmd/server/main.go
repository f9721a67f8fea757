package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clientmailer/clientmailer/internal/config"
	"github.com/clientmailer/clientmailer/internal/database"
	"github.com/clientmailer/clientmailer/internal/email"
	"github.com/clientmailer/clientmailer/internal/handler"
	"github.com/clientmailer/clientmailer/internal/logger"
	"github.com/clientmailer/clientmailer/internal/metrics"
	"github.com/clientmailer/clientmailer/internal/middleware"
	"github.com/clientmailer/clientmailer/internal/repository"
	"github.com/clientmailer/clientmailer/internal/roster"
	"github.com/clientmailer/clientmailer/internal/router"
	"github.com/clientmailer/clientmailer/internal/service"
	"github.com/clientmailer/clientmailer/internal/sheets"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Str("version", handler.Version).Msg("starting clientmailer server")

	ctx := context.Background()
	m := metrics.New()

	// Connect to PostgreSQL
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("connected to PostgreSQL")

	// Connect to Redis
	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("connected to Redis")

	// Spreadsheet roster
	gateway, err := sheets.NewGateway(ctx, cfg.Sheets, m, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize sheets gateway")
	}
	decoder, err := roster.NewDecoder(cfg.Sheets.Timezone)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load roster timezone")
	}
	log.Info().
		Str("spreadsheet_id", cfg.Sheets.SpreadsheetID).
		Str("sheet", cfg.Sheets.SheetName).
		Msg("sheets gateway initialized")

	// Mail provider
	sender, err := email.NewSender(ctx, cfg.Email)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize email sender")
	}
	log.Info().Str("provider", cfg.Email.Provider).Msg("email sender initialized")

	// Initialize services
	templateRepo := repository.NewTemplateRepository(db)
	templateSvc := service.NewTemplateService(templateRepo, log)
	clientSvc := service.NewClientService(gateway, decoder, cfg.Sheets.HeaderRows, log)
	dispatchSvc := service.NewDispatchService(templateRepo, gateway, sender, decoder, cfg, m, log)

	// Initialize handlers
	h := handler.New(
		map[string]handler.HealthChecker{"postgres": db, "redis": rdb},
		log, cfg, templateSvc, clientSvc, dispatchSvc,
	)

	// Initialize middleware
	mw := middleware.New(rdb, log, cfg, m)

	// Set up router
	r := router.New(h, mw, m, cfg)

	// A dispatch may run for up to dispatch.timeout
	writeTimeout := max(15*time.Second, cfg.Dispatch.Timeout+10*time.Second)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// In-flight dispatches get their full timeout to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

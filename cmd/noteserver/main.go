package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/mcndt/noteshare.space/internal/api"
	"github.com/mcndt/noteshare.space/internal/config"
	"github.com/mcndt/noteshare.space/internal/events"
	"github.com/mcndt/noteshare.space/internal/filter"
	"github.com/mcndt/noteshare.space/internal/gc"
	"github.com/mcndt/noteshare.space/internal/platform/factory"
	"github.com/mcndt/noteshare.space/internal/platform/logger"
	"github.com/mcndt/noteshare.space/internal/service"
)

func main() {
	envFile := flag.String("env-file", ".env", "Optional .env file loaded before config parsing")
	flag.Parse()

	// missing .env is fine, the environment may already be populated
	_ = godotenv.Load(*envFile)

	log := logger.New("noteserver")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// -------- Storage layer -----------------
	st, err := factory.NewStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Storage adapter unavailable")
	}
	defer func() { _ = st.Close() }()

	// -------- Tombstone filters -------------
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	filters, err := filter.OpenSet(ctx, st.Filters())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load tombstone filters")
	}

	// -------- Audit sink --------------------
	var recorder events.Recorder
	if cfg.AuditSinkURL != "" {
		recorder = events.NewHTTPRecorder(cfg.AuditSinkURL, log)
	} else {
		recorder = events.NewLogRecorder(log)
	}

	// -------- Services ----------------------
	svc := service.NewNoteService(st, filters, recorder, cfg.ExpireWindow(), log)

	// -------- Garbage collection ------------
	collector := gc.New(st, filters, recorder, log)
	go collector.RunEvery(ctx, cfg.CleanupInterval())

	// -------- Router & Server --------------
	router := api.NewRouter(cfg, svc, st, recorder)
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server")
	cancel()
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited")
}

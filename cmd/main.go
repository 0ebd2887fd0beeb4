package main

import (
	"chatdesk/api"
	"chatdesk/auth"
	"chatdesk/hub"
	"chatdesk/internal"
	"chatdesk/observability"
	"chatdesk/projection"
	"chatdesk/repositories"
	"chatdesk/runtime"
	"chatdesk/runtime/workers"
	"chatdesk/services"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"github.com/panjf2000/ants/v2"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes
// error reporting, so that 'defer' statements (database cleanup, pool release)
// execute before the program exits and graceful shutdown stays in one place.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Repositories & core components
	messages := repositories.NewMessageRepository(db, log)
	contacts := repositories.NewContactRepository(db, log)
	campaigns := repositories.NewCampaignRepository(db, log)
	templates := repositories.NewTemplateRepository(db, log)

	broadcastHub := hub.NewHub(log)

	pool, err := ants.NewPool(config.ReplyPoolSize)
	if err != nil {
		return fmt.Errorf("reply pool creation failed: %w", err)
	}
	defer pool.Release()

	scheduler := runtime.NewReplyScheduler(log, messages, broadcastHub, pool, config.ReplyDelay)
	dispatcher := runtime.NewCampaignDispatcher(log, messages, contacts, campaigns, scheduler)
	projector := projection.NewSessionProjector(log, contacts, messages)
	chatService := services.NewChatService(log, messages, projector, scheduler)

	monitor, err := observability.NewMonitor()
	if err != nil {
		return fmt.Errorf("process monitor failed: %w", err)
	}

	if config.DebugPort != 0 {
		log.Info("Starting store inspector", "port", config.DebugPort)
		internal.StartDebugServer(db, config.DebugPort, func() map[string]any {
			return map[string]any{"live_connections": broadcastHub.Len()}
		})
	}

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Background workers
	sup := workers.NewSupervisor(log)
	sup.Add(workers.NewCampaignClock(log, campaigns, dispatcher))
	supDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supDone)
	}()

	// 6. HTTP server
	verifier := auth.NewVerifier(config.JWTSecret)
	handler := api.NewHandler(log, chatService, dispatcher, contacts, campaigns, templates, monitor)
	wsHandler := api.NewWSHandler(log, broadcastHub)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   strings.Split(config.AllowedOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	api.RegisterRoutes(r, handler, wsHandler, verifier)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: r}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	sup.Stop()
	<-supDone
	log.Info("Program stopped cleanly")

	return nil
}

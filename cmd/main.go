package main

import (
	"chat-relay/domain"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/projection"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"
	"chat-relay/transport/ws"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and centralizes error reporting.
// This pattern is preferred over calling os.Exit or panic directly because:
// 1. It ensures all 'defer' statements (like database cleanup) are executed before the program exits.
// 2. It improves testability by decoupling the initialization logic from the main entry point.
// 3. It provides a structured way to handle graceful shutdowns for the HTTP server and background workers.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	censoredChar, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return err
	}

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

	// 3. Moderation (embedded wordlists + Aho-Corasick automaton)
	data, err := runtime.NewCensoredLoader().LoadAll("censored")
	if err != nil {
		return fmt.Errorf("loading censored words failed: %w", err)
	}
	log.Info(fmt.Sprintf("%d censored words loaded [%s]",
		len(data.Words), strings.Join(data.Languages, ",")))

	moderator, err := moderation.NewModerator(data.Words, censoredChar, log)
	if err != nil {
		return fmt.Errorf("moderator build failed: %w", err)
	}

	// 4. Engine wiring
	registry := runtime.NewRegistry()
	messageRepository := repositories.NewMessageRepository(db, log)
	userRepository := repositories.NewUserRepository(db)
	history := projection.NewHistory(messageRepository)
	presence := runtime.NewPresence(userRepository, log)

	notices := make(chan domain.Notice, config.BufferSize)
	engine := runtime.NewEngine(log, registry, history, presence,
		messageRepository, moderator, notices, config.SinkTimeout)

	// 5. Supervised background workers
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewNoticeFanoutWorker(log, registry, notices, config.SinkTimeout))
	sup.Add(workers.NewTelemetryWorker(log, config.MetricInterval))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	supDone := make(chan struct{})
	go func() {
		sup.Run(ctx)
		close(supDone)
	}()

	// 6. HTTP / WebSocket server
	chatService := services.NewChatService(engine)
	server := ws.NewServer(log, chatService, config.RoomList(),
		config.FrontendURI, config.ConnectionBufferSize, config.WriteTimeout)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	httpServer := &http.Server{Addr: address, Handler: server.Handler()}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting chat relay", "address", address, "at", time.Now().UTC())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = httpServer.Shutdown(shutdownCtx)
	sup.Stop()
	<-supDone
	log.Info("Program stopped cleanly")

	return nil
}

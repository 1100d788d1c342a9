package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"chat-relay/auth"
	"chat-relay/contract"
	"chat-relay/internal"
	"chat-relay/moderation"
	"chat-relay/observability"
	"chat-relay/queue"
	"chat-relay/repositories"
	"chat-relay/services"
	"chat-relay/transport"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting, so deferred cleanup executes on every exit
// path.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := internal.GetLoggerFromString(config.LogLevel)

	// 2. Storage: badger+bluge when paths are set, in-memory otherwise
	var store contract.MessageStore
	var users contract.UserStore
	var db *badger.DB
	if config.BadgerFilepath != "" {
		var err error
		db, err = badger.Open(badger.DefaultOptions(config.BadgerFilepath).
			WithLoggingLevel(badger.WARNING))
		if err != nil {
			return fmt.Errorf("database opening failed: %w", err)
		}
		defer func() {
			log.Info("Closing BadgerDB...")
			_ = db.Close()
		}()

		blugePath := config.BlugeFilepath
		if blugePath == "" {
			blugePath = config.BadgerFilepath + "-index"
		}
		writer, err := bluge.OpenWriter(bluge.DefaultConfig(blugePath))
		if err != nil {
			return fmt.Errorf("index opening failed: %w", err)
		}
		defer func() {
			log.Info("Closing Bluge index...")
			_ = writer.Close()
		}()

		store = repositories.NewStore(db, writer, log)
		users = repositories.NewUserStore(db, log)
	} else {
		log.Info("No BADGER_FILEPATH set, using in-memory store")
		store = repositories.NewMemoryStore()
		users = repositories.NewMemoryUserStore()
	}

	// 3. Fleet bus: NATS when configured, in-process otherwise
	var bus contract.MessageQueue
	if config.NatsURL != "" {
		natsQueue, err := queue.NewNatsQueue(config.NatsURL, config.NatsSubject, config.AppID, log)
		if err != nil {
			return fmt.Errorf("queue connection failed: %w", err)
		}
		defer natsQueue.Close()
		bus = natsQueue
	} else {
		log.Info("No NATS_URL set, using in-process queue")
		memoryQueue := queue.NewMemoryQueue(log)
		defer memoryQueue.Close()
		bus = memoryQueue
	}

	// 4. Optional collaborators
	var tokens *auth.Tokens
	if config.JWTSecret != "" {
		tokens = auth.NewTokens(config.JWTSecret, config.AuthTokenDuration)
	}

	var moderator *moderation.Moderator
	if config.CensoredWordsPath != "" {
		replacement, err := internal.CharacterRune(config.CharReplacement)
		if err != nil {
			return err
		}
		words, err := readLines(config.CensoredWordsPath)
		if err != nil {
			return fmt.Errorf("censored words: %w", err)
		}
		if moderator, err = moderation.NewModerator(words, replacement, log); err != nil {
			return fmt.Errorf("moderation setup failed: %w", err)
		}
	}

	// 5. Instance identity
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	instanceID := uuid.NewString()
	if _, err := store.SaveInstance(ctx, config.AppID); err != nil {
		return fmt.Errorf("save instance failed: %w", err)
	}

	// 6. Session service and bus translator
	registry := services.NewRegistry(store, log)
	svc := services.NewService(services.Config{
		InstanceID:          instanceID,
		PageSize:            config.PageSize,
		WatchConversationID: config.WatchConversationID,
	}, registry, store, bus, users, tokens, moderator, log)
	if err := svc.Subscribe(); err != nil {
		return fmt.Errorf("bus subscription failed: %w", err)
	}

	if config.DebugPort > 0 && db != nil {
		internal.StartDebugServer(db, config.DebugPort, func() map[string]any {
			memberships, watchers, online := registry.Counts()
			return map[string]any{
				"memberships": memberships,
				"watchers":    watchers,
				"online":      online,
			}
		})
		log.Info("Debug inspector listening", "port", config.DebugPort)
	}

	go func() {
		monitor := observability.NewMonitor(registry, config.MetricInterval, log)
		if err := monitor.Run(ctx); err != nil {
			log.Error("Monitor stopped", "err", err)
		}
	}()

	// 7. Websocket server
	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{
		Addr:    address,
		Handler: transport.NewServer(svc, config.PingInterval, log).Handler(),
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting websocket server", "address", address, "instanceId", instanceID, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	// 8. Wait for stop or error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = server.Shutdown(shutdownCtx)
	log.Info("Program stopped cleanly")

	return nil
}

func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, scanner.Err()
}

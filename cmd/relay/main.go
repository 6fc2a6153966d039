package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"chat-relay/gateway"
	"chat-relay/internal"
	"chat-relay/observability"
	"chat-relay/repositories"
	"chat-relay/runtime"
	"chat-relay/runtime/workers"
	"chat-relay/services"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// Exit codes to provide meaningful status to the operating system or service manager (e.g., systemd).
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	// The main function acts as a thin wrapper.
	// Its only responsibility is to call run() and handle the OS exit code.
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Relay terminated with error: %v\n", err)
	}
	os.Exit(code)
}

// run initializes all components, manages the relay lifecycle, and
// centralizes error reporting so deferred cleanups always execute.
func run() (int, error) {
	// 1. Configuration & Logger
	_ = godotenv.Load()

	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}

	maskRune, err := internal.CharacterRune(config.CharReplacement)
	if err != nil {
		return exitConfig, err
	}

	logger := internal.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Database (BadgerDB)
	options := badger.DefaultOptions(config.BadgerFilepath)
	db, err := badger.Open(options)
	if err != nil {
		return exitRuntime, fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		// Defer ensures the database lock is released and buffers are flushed.
		logger.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. NATS
	nc, err := nats.Connect(config.NatsURL, nats.Name("chat-relay"))
	if err != nil {
		return exitRuntime, fmt.Errorf("NATS connection failed: %w", err)
	}
	defer func() {
		logger.Info("Draining NATS connection...")
		_ = nc.Drain()
	}()

	// 4. Core wiring
	stats := observability.NewRelayStats()
	repository := repositories.NewMessageRepository(db, logger)
	orchestrator, err := runtime.NewOrchestrator(logger, repository, maskRune, stats)
	if err != nil {
		return exitRuntime, fmt.Errorf("orchestrator init failed: %w", err)
	}
	service := services.NewRelayService(orchestrator)
	gw := gateway.NewGateway(logger, nc, service, config.ConnectionBufferSize)

	// 5. Health endpoint (gRPC health protocol)
	if config.HealthPort > 0 {
		if err := startHealthServer(logger, config.HealthPort); err != nil {
			return exitRuntime, err
		}
	}

	// 6. Supervised workers
	supervisor := workers.NewSupervisor(logger)
	supervisor.Add(gw)
	supervisor.Add(workers.NewTelemetryWorker(logger, stats, orchestrator, config.MetricInterval))

	logger.Info("Relay started", "nats", config.NatsURL)
	supervisor.Run(ctx)

	logger.Info("Relay stopped")
	return exitOK, nil
}

func startHealthServer(logger *slog.Logger, port int) error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return fmt.Errorf("health listener failed: %w", err)
	}
	server := grpc.NewServer()
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(server, healthServer)
	go func() {
		logger.Info("Health endpoint listening", "port", port)
		_ = server.Serve(lis)
	}()
	return nil
}

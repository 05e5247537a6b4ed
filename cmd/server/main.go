package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/sgs-online/sgs-server-go/internal/config"
	"github.com/sgs-online/sgs-server-go/internal/game/catalog"
	"github.com/sgs-online/sgs-server-go/internal/game/decision"
	"github.com/sgs-online/sgs-server-go/internal/sandbox"
	"github.com/sgs-online/sgs-server-go/internal/server"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var (
	configPath = flag.String("config", "config/config.yaml", "path to configuration file")
	version    = "dev" // set via ldflags during build
)

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger, err := initLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting SGS decision server",
		zap.String("version", version),
		zap.String("config", *configPath),
	)

	// Create context that listens for termination signals
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	reg := catalog.Standard()
	logger.Info("catalog loaded",
		zap.Int("cards", len(reg.Names())),
	)

	codec, err := server.NewCodec(cfg.Server.WebSocket.Codec)
	if err != nil {
		logger.Fatal("invalid websocket codec", zap.Error(err))
	}

	// The hub is the manager's notifier and the manager backs the hub.
	hub := server.NewHub(cfg.Server.WebSocket, codec, cfg.Server.HTTP.AllowedOrigins, logger)
	manager := decision.NewManager(reg, hub, decision.Options{
		AutoTarget:  cfg.Decision.AutoTarget,
		IntelSelect: cfg.Decision.IntelSelect,
		Timeout:     cfg.Decision.Timeout,
	}, logger)
	hub.Bind(manager)
	go hub.Run(ctx)

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	httpServer := &http.Server{
		Addr:    cfg.Server.HTTP.Address,
		Handler: server.NewRouter(cfg.Server.HTTP, hub, manager, logger),
	}

	// Start HTTP server
	go func() {
		logger.Info("starting HTTP server",
			zap.String("address", cfg.Server.HTTP.Address),
			zap.String("codec", codec.Name()),
		)
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			logger.Error("HTTP server error", zap.Error(serveErr))
			cancel()
		}
	}()

	grpcServer, health := server.NewGRPCServer(cfg.Server.GRPC, logger)
	if cfg.Server.GRPC.Address != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPC.Address)
		if err != nil {
			logger.Fatal("failed to listen", zap.Error(err))
		}

		// Start gRPC server
		go func() {
			logger.Info("starting gRPC server", zap.String("address", cfg.Server.GRPC.Address))
			if serveErr := grpcServer.Serve(lis); serveErr != nil {
				logger.Error("gRPC server error", zap.Error(serveErr))
			}
		}()
	}
	health.SetServingStatus(server.DecisionService, healthpb.HealthCheckResponse_SERVING)

	if cfg.Sandbox.Enabled {
		driver, err := sandbox.New(cfg.Sandbox, reg, manager, logger)
		if err != nil {
			logger.Fatal("failed to start sandbox", zap.Error(err))
		}
		go func() {
			if runErr := driver.Run(ctx); runErr != nil && !errors.Is(runErr, context.Canceled) {
				logger.Error("sandbox stopped", zap.Error(runErr))
			}
		}()
	}

	logger.Info("SGS decision server initialized",
		zap.String("version", version),
		zap.String("http_address", cfg.Server.HTTP.Address),
		zap.String("grpc_address", cfg.Server.GRPC.Address),
		zap.Bool("sandbox", cfg.Sandbox.Enabled),
		zap.Duration("decision_timeout", cfg.Decision.Timeout),
	)

	// Wait for termination signal
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
	}

	// Graceful shutdown
	logger.Info("shutting down gracefully...")
	health.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.HTTP.ShutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP shutdown incomplete", zap.Error(err))
	}

	cancel()

	// Cancel every outstanding decision
	manager.CloseAll()

	grpcServer.GracefulStop()

	logger.Info("SGS decision server stopped")
}

// initLogger initializes the zap logger based on configuration
func initLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	boardapi "github.com/cardwall/cardwall/internal/board/api"
	"github.com/cardwall/cardwall/internal/board/repository"
	"github.com/cardwall/cardwall/internal/board/service"
	"github.com/cardwall/cardwall/internal/common/config"
	"github.com/cardwall/cardwall/internal/common/httpmw"
	"github.com/cardwall/cardwall/internal/common/logger"
	"github.com/cardwall/cardwall/internal/common/tracing"
	"github.com/cardwall/cardwall/internal/events"
	gateway "github.com/cardwall/cardwall/internal/gateway/websocket"
	ws "github.com/cardwall/cardwall/pkg/ws"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize logger
	log, err := logger.NewLogger(logger.LoggingConfig{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputPath: cfg.Logging.OutputPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetDefault(log)

	log.Info("Starting Cardwall server...")

	// 3. Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Event bus: NATS when configured, in-memory otherwise
	provided, busCleanup, err := events.Provide(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize event bus", zap.Error(err))
	}
	defer busCleanup()
	eventBus := provided.Bus

	// 5. Repository: PostgreSQL when configured, embedded SQLite otherwise
	var repo repository.Repository
	if cfg.Database.Host != "" {
		repo, err = repository.NewPostgresRepository(ctx, cfg.Database.DSN(), cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			log.Fatal("Failed to initialize PostgreSQL repository", zap.Error(err))
		}
		log.Info("Connected to PostgreSQL", zap.String("host", cfg.Database.Host))
	} else {
		repo, err = repository.NewSQLiteRepository(cfg.SQLite.Path)
		if err != nil {
			log.Fatal("Failed to initialize SQLite repository", zap.Error(err))
		}
		log.Info("Using embedded SQLite database", zap.String("path", cfg.SQLite.Path))
	}
	defer repo.Close()

	// 6. Board service
	svc := service.NewService(repo, eventBus, log)

	// 7. WebSocket gateway
	dispatcher := ws.NewDispatcher()
	gateway.RegisterHealthHandler(dispatcher)
	hub := gateway.NewHub(dispatcher, log)
	gateway.RegisterBoardNotifications(ctx, eventBus, hub, log)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		hub.Run(groupCtx)
		return nil
	})

	// 8. HTTP server
	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(httpmw.Recovery(log))
	router.Use(httpmw.OtelTracing("cardwall"))
	router.Use(httpmw.RequestLogger(log))
	router.Use(httpmw.CORS())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": "cardwall"})
	})

	wsHandler := gateway.NewHandler(hub, log)
	router.GET("/ws", wsHandler.HandleConnection)

	apiGroup := router.Group("/api/v1")
	apiGroup.Use(httpmw.Identity())
	boardapi.SetupRoutes(apiGroup, svc, log)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// 9. Start server in goroutine
	go func() {
		log.Info("HTTP server listening", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start HTTP server", zap.Error(err))
		}
	}()

	// 10. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down Cardwall server...")

	// 11. Graceful shutdown
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	}

	if err := group.Wait(); err != nil {
		log.Error("Gateway shutdown error", zap.Error(err))
	}

	if err := tracing.Shutdown(shutdownCtx); err != nil {
		log.Error("Tracing shutdown error", zap.Error(err))
	}

	log.Info("Cardwall server stopped")
}

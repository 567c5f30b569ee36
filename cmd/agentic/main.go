package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	app "github.com/abdulateeb/Agentic-Chat"
	"github.com/abdulateeb/Agentic-Chat/internal/config"
	"github.com/abdulateeb/Agentic-Chat/internal/model"
	"github.com/abdulateeb/Agentic-Chat/internal/orchestrator"
	"github.com/abdulateeb/Agentic-Chat/internal/registry"
	"github.com/abdulateeb/Agentic-Chat/internal/server"
	"github.com/abdulateeb/Agentic-Chat/internal/state"
	"github.com/abdulateeb/Agentic-Chat/internal/store"
	"github.com/abdulateeb/Agentic-Chat/internal/tools"
	"github.com/abdulateeb/Agentic-Chat/internal/workflow"
	"github.com/abdulateeb/Agentic-Chat/pkg/log"
)

type agentic struct {
	cfg        *config.Config
	store      store.Store
	state      *state.Manager
	registry   *registry.Registry
	model      model.Client
	tools      tools.Executor
	workflows  *workflow.Service
	apiServer  *server.Server
	httpServer *http.Server
	quit       chan os.Signal
}

var ErrCreateStore = errors.New("failed to create workflow store")

func main() {
	cfg := config.NewDefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", log.Error(err))
		os.Exit(1)
	}

	s := &agentic{
		cfg:  cfg,
		quit: make(chan os.Signal, 1),
	}
	s.setupLogging()

	if err := s.run(); err != nil {
		slog.Error("Failed to start application", log.Error(err))
		os.Exit(1)
	}
}

func (s *agentic) run() error {
	if err := s.initializeStore(); err != nil {
		return err
	}
	s.initializeServices()
	s.startServer()

	signal.Notify(s.quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(s.quit)
	<-s.quit

	s.shutdown()
	return nil
}

func (s *agentic) setupLogging() {
	level := log.ParseLevel(strings.ToLower(s.cfg.LogLevel))
	logger := log.NewWithLevel(app.Name, s.cfg.Environment, app.Version, level)
	slog.SetDefault(logger)
	slog.SetLogLoggerLevel(level)

	slog.Info("Agentic SRE backend starting",
		slog.String("log_level", s.cfg.LogLevel))

	slog.Info("Configuration loaded",
		slog.String("store_backend", s.cfg.StoreBackend),
		slog.String("redis_addr", s.cfg.Redis.Addr),
		slog.Int("redis_db", s.cfg.Redis.DB),
		slog.String("blob_url", s.cfg.Blob.URL),
		slog.String("gemini_model", s.cfg.GeminiModel),
		slog.String("tool_executor_url", s.cfg.ToolExecutorURL),
		slog.String("api_host", s.cfg.APIHost),
		slog.Int("api_port", s.cfg.APIPort))
}

func (s *agentic) initializeStore() error {
	st, err := store.Open(context.Background(), s.cfg.StoreConfig())
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCreateStore, err)
	}
	s.store = st
	return nil
}

func (s *agentic) initializeServices() {
	s.state = state.NewManager(s.store)
	s.registry = registry.New(s.cfg.SendTimeout)
	s.model = model.NewGeminiClient(s.cfg.GeminiConfig())
	s.tools = tools.NewHTTPExecutor(s.cfg.ToolExecutorURL, s.cfg.ToolTimeout)

	s.workflows = workflow.NewService(orchestrator.Dependencies{
		State:       s.state,
		Broadcaster: s.registry,
		Model:       s.model,
		Tools:       s.tools,
	}, workflow.Config{
		Orchestrator: orchestrator.Config{
			ModelTimeout: s.cfg.ModelTimeout,
			ToolTimeout:  s.cfg.ToolTimeout,
		},
		ShutdownTimeout: s.cfg.ShutdownTimeout,
	})
}

func (s *agentic) startServer() {
	s.apiServer = server.NewServer(s.workflows, s.registry, s.cfg)
	mux := s.apiServer.SetupRoutes()

	s.httpServer = &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: mux,
	}

	go func() {
		slog.Info("HTTP server starting",
			slog.String("addr", s.httpServer.Addr))
		err := s.httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", log.Error(err))
		}
	}()
}

func (s *agentic) shutdown() {
	slog.Info("Shutting down")

	ctx, cancel := context.WithTimeout(
		context.Background(), s.cfg.ShutdownTimeout,
	)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		slog.Error("Shutdown failed", log.Error(err))
	}

	s.apiServer.CloseWebSockets()

	if err := s.workflows.Stop(); err != nil {
		slog.Error("Workflow shutdown failed", log.Error(err))
	}

	if err := s.store.Close(); err != nil {
		slog.Error("Store shutdown failed", log.Error(err))
	}

	slog.Info("Server exited")
}

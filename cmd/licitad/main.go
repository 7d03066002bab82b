package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/licita-control/internal/common"
	"github.com/joseph-ayodele/licita-control/internal/export"
	"github.com/joseph-ayodele/licita-control/internal/ingest"
	"github.com/joseph-ayodele/licita-control/internal/llm"
	"github.com/joseph-ayodele/licita-control/internal/llm/openai"
	"github.com/joseph-ayodele/licita-control/internal/pdftext"
	"github.com/joseph-ayodele/licita-control/internal/repository"
	"github.com/joseph-ayodele/licita-control/internal/server"
	"github.com/joseph-ayodele/licita-control/internal/storage"
)

const (
	dbPingTimeout    = 3 * time.Second
	healthInterval   = 15 * time.Second
	staleUploadTTL   = time.Hour
	shutdownDeadline = 10 * time.Second
)

func main() {
	cfg := common.LoadConfig()
	logger := common.NewLogger(cfg.Log)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.Open(ctx, repository.ConfigFrom(cfg.Database), logger)
	if err != nil {
		logger.Error("failed to open database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer db.Close(logger)

	if err := db.HealthCheck(ctx, dbPingTimeout, logger); err != nil {
		logger.Error("database health check failed", "error", err)
		os.Exit(1)
	}
	if cfg.Database.AutoMigrate {
		if err := repository.Migrate(ctx, db.Driver, logger); err != nil {
			logger.Error("database migration failed", "error", err)
			os.Exit(1)
		}
	}
	repo := repository.NewLicitacaoRepository(db.Driver, logger)

	tmpl, err := llm.LoadTemplate(cfg.LLM.PromptTemplate)
	if err != nil {
		logger.Error("failed to load prompt template", "path", cfg.LLM.PromptTemplate, "error", err)
		os.Exit(1)
	}
	aiCfg := openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: &cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		JSONMode:    cfg.LLM.JSONMode,
	}
	var ai llm.StructuredExtractor = llm.Unconfigured{}
	if cfg.LLM.APIKey == "" {
		logger.Warn("OPENAI_API_KEY not set; uploads will fail until it is configured")
	} else {
		model, err := openai.NewModel(aiCfg, logger)
		if err != nil {
			logger.Error("failed to create LLM model", "error", err)
			os.Exit(1)
		}
		ai = openai.NewClient(model, tmpl, aiCfg, logger)
		logger.Info("LLM client initialized", "model", cfg.LLM.Model, "json_mode", cfg.LLM.JSONMode)
	}

	stager, err := storage.NewStager(cfg.Server.UploadDir, ".pdf", logger)
	if err != nil {
		logger.Error("failed to prepare upload directory", "dir", cfg.Server.UploadDir, "error", err)
		os.Exit(1)
	}
	stager.Sweep(staleUploadTTL)
	logger.Info("upload staging ready", "dir", stager.Dir())

	pdf := pdftext.NewExtractor(pdftext.Config{Pdftotext: cfg.PDF.Pdftotext}, logger)
	svc := ingest.NewService(stager, pdf, ai, repo, logger)

	gin.SetMode(gin.ReleaseMode)
	router := server.NewRouter(server.Options{
		Ingest:             svc,
		Repo:               repo,
		Exporter:           export.NewService(repo, logger),
		OpenAIConfigured:   cfg.LLM.APIKey != "",
		DatabaseConfigured: cfg.Database.DSN != "",
		MaxUploadMB:        cfg.Server.MaxUploadMB,
		CORSOrigins:        cfg.Server.CORSOrigins,
		Logger:             logger,
	})

	srv := &http.Server{
		Addr:         cfg.Server.HTTPAddr,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: cfg.LLM.Timeout + 60*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("http server starting", "addr", cfg.Server.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var grpcSrv *server.GRPCServer
	if cfg.Server.GRPCAddr != "" {
		lis, err := net.Listen("tcp", cfg.Server.GRPCAddr)
		if err != nil {
			logger.Error("grpc listen failed", "addr", cfg.Server.GRPCAddr, "error", err)
			os.Exit(1)
		}
		grpcSrv = server.NewGRPCServer(db, dbPingTimeout, logger)
		go grpcSrv.Watch(ctx, healthInterval)
		go func() {
			if err := grpcSrv.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		logger.Error("server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownDeadline)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server forced to shutdown", "error", err)
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	logger.Info("server exited")
}

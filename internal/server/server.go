package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/licita-control/internal/ingest"
	"github.com/joseph-ayodele/licita-control/internal/middleware"
	"github.com/joseph-ayodele/licita-control/internal/repository"
)

// Ingester runs one upload batch and always yields an envelope.
type Ingester interface {
	Process(ctx context.Context, uploads []ingest.Upload) ingest.Envelope
}

// Exporter renders the filtered listing as a workbook.
type Exporter interface {
	ExportLicitacoesXLSX(ctx context.Context, filter repository.ListFilter) ([]byte, error)
}

// Options wires the HTTP surface to its collaborators.
type Options struct {
	Ingest   Ingester
	Repo     repository.LicitacaoRepository
	Exporter Exporter

	OpenAIConfigured   bool
	DatabaseConfigured bool

	MaxUploadMB int64
	CORSOrigins []string
	Logger      *slog.Logger
}

// Handler serves the licita-control HTTP API.
type Handler struct {
	ingest   Ingester
	repo     repository.LicitacaoRepository
	exporter Exporter

	openaiConfigured   bool
	databaseConfigured bool

	logger *slog.Logger
}

func NewHandler(opts Options) *Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		ingest:             opts.Ingest,
		repo:               opts.Repo,
		exporter:           opts.Exporter,
		openaiConfigured:   opts.OpenAIConfigured,
		databaseConfigured: opts.DatabaseConfigured,
		logger:             logger,
	}
}

// NewRouter builds the gin engine with middleware and routes.
func NewRouter(opts Options) *gin.Engine {
	h := NewHandler(opts)

	router := gin.New()
	if opts.MaxUploadMB > 0 {
		router.MaxMultipartMemory = opts.MaxUploadMB << 20
	}

	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(h.logger))
	router.Use(middleware.RequestLogger(h.logger))
	router.Use(middleware.CORS(opts.CORSOrigins))

	router.GET("/", h.Health)
	router.GET("/health", h.Health)
	router.POST("/upload-pdfs", h.UploadPDFs)

	lic := router.Group("/licitacoes")
	{
		lic.GET("", h.ListLicitacoes)
		lic.GET("/export.xlsx", h.ExportLicitacoes)
		lic.GET("/:id", h.GetLicitacao)
		lic.PATCH("/:id/status", h.UpdateStatus)
		lic.DELETE("/:id", h.DeleteLicitacao)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": MsgNotFound})
	})
	return router
}

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/joseph-ayodele/licita-control/constants"
	"github.com/joseph-ayodele/licita-control/internal/common"
	"github.com/joseph-ayodele/licita-control/internal/entity"
	"github.com/joseph-ayodele/licita-control/internal/ingest"
	"github.com/joseph-ayodele/licita-control/internal/llm"
	"github.com/joseph-ayodele/licita-control/internal/llm/openai"
	"github.com/joseph-ayodele/licita-control/internal/pdftext"
	"github.com/joseph-ayodele/licita-control/internal/repository"
	"github.com/joseph-ayodele/licita-control/internal/storage"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:      "licita-ingest",
		Usage:     "Extract one licitação from local PDF files and print the result",
		ArgsUsage: "[file.pdf ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "dir",
				Aliases: []string{"d"},
				Usage:   "Directory scanned recursively for PDF files (hidden entries skipped)",
			},
			&cli.StringFlag{
				Name:    "model",
				Aliases: []string{"m"},
				Usage:   "Chat model, overrides OPENAI_MODEL",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Print the extracted fields instead of saving them",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
		},
		Action: ingestCommand,
	}
}

func ingestCommand(c *cli.Context) error {
	uploads, err := collectUploads(c.String("dir"), c.Args().Slice())
	if err != nil {
		return err
	}
	if len(uploads) == 0 {
		return errors.New("no PDF files given: pass file paths or --dir")
	}

	cfg := common.LoadConfig()
	cfg.Log.Level = c.String("log-level")
	if m := c.String("model"); m != "" {
		cfg.LLM.Model = m
	}
	logger := common.NewLoggerTo(c.App.ErrWriter, cfg.Log)
	dryRun := c.Bool("dry-run")

	if cfg.LLM.APIKey == "" {
		return errors.New("OPENAI_API_KEY is required")
	}
	if !dryRun {
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	var store ingest.RecordStore
	if dryRun {
		store = &dryRunStore{w: c.App.Writer, now: time.Now}
	} else {
		db, err := repository.Open(c.Context, repository.ConfigFrom(cfg.Database), logger)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close(logger)
		if cfg.Database.AutoMigrate {
			if err := repository.Migrate(c.Context, db.Driver, logger); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		store = repository.NewLicitacaoRepository(db.Driver, logger)
	}

	tmpl, err := llm.LoadTemplate(cfg.LLM.PromptTemplate)
	if err != nil {
		return err
	}
	aiCfg := openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: &cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
		JSONMode:    cfg.LLM.JSONMode,
	}
	model, err := openai.NewModel(aiCfg, logger)
	if err != nil {
		return err
	}

	tmpDir, err := os.MkdirTemp("", "licita-ingest-")
	if err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()
	stager, err := storage.NewStager(tmpDir, ".pdf", logger)
	if err != nil {
		return err
	}

	svc := ingest.NewService(
		stager,
		pdftext.NewExtractor(pdftext.Config{Pdftotext: cfg.PDF.Pdftotext}, logger),
		openai.NewClient(model, tmpl, aiCfg, logger),
		store,
		logger,
	)
	env := svc.Process(c.Context, uploads)
	if err := printJSON(c.App.Writer, env); err != nil {
		return err
	}
	if !env.Success {
		return cli.Exit("", 1)
	}
	return nil
}

// collectUploads returns the explicit paths in the given order followed by
// the PDFs found under dir.
func collectUploads(dir string, paths []string) ([]ingest.Upload, error) {
	uploads := make([]ingest.Upload, 0, len(paths))
	for _, p := range paths {
		uploads = append(uploads, ingest.FileUpload(p))
	}
	if dir == "" {
		return uploads, nil
	}
	found, err := ingest.CollectPDFs(dir, true)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	for _, p := range found {
		uploads = append(uploads, ingest.FileUpload(p))
	}
	return uploads, nil
}

// dryRunStore prints the fields it is asked to persist and echoes a row
// without an id.
type dryRunStore struct {
	w   io.Writer
	now func() time.Time
}

func (s *dryRunStore) Insert(_ context.Context, fields entity.LicitacaoFields) (*entity.Licitacao, error) {
	if err := printJSON(s.w, fields); err != nil {
		return nil, err
	}
	return &entity.Licitacao{
		LicitacaoFields: fields,
		Status:          string(constants.InitialStatus),
		DataCadastro:    s.now().UTC(),
	}, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

var _ ingest.RecordStore = (*dryRunStore)(nil)

package pdftext

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// ErrExtraction is returned when a document cannot be opened or parsed as a PDF.
var ErrExtraction = errors.New("pdf text extraction failed")

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
}

type Result struct {
	Text     string
	Pages    int
	Duration time.Duration
}

// TextExtractor is stage 1 of the ingestion pipeline: PDF on disk -> text.
type TextExtractor interface {
	Extract(ctx context.Context, path string) (Result, error)
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return newExtractor(cfg, execRunner{logger: logger}, logger)
}

func newExtractor(cfg Config, runner Runner, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	return &Extractor{cfg: cfg, runner: runner, logger: logger}
}

// Extract returns the text of every page of the PDF at path, in page order,
// joined with a single newline. Empty pages contribute an empty segment.
func (e *Extractor) Extract(ctx context.Context, path string) (Result, error) {
	start := time.Now()
	e.logger.Debug("pdftext.extract.start", "path", path)

	// pdftotext -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		msg := strings.TrimSpace(string(errb))
		if msg == "" {
			msg = err.Error()
		}
		e.logger.Warn("pdftext.extract.failed", "path", path, "error", msg)
		return Result{}, fmt.Errorf("%w: %s", ErrExtraction, msg)
	}

	pages := splitPages(string(out))
	res := Result{
		Text:     strings.Join(pages, "\n"),
		Pages:    len(pages),
		Duration: time.Since(start),
	}
	e.logger.Info("pdftext.extract.ok",
		"path", path,
		"pages", res.Pages,
		"chars", len(res.Text),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res, nil
}

// splitPages cuts pdftotext output on the form feed it emits after every page.
func splitPages(raw string) []string {
	if raw == "" {
		return nil
	}
	pages := strings.Split(raw, "\f")
	// The final form feed terminates the last page rather than opening a new one.
	if len(pages) > 1 && strings.TrimRight(pages[len(pages)-1], "\n") == "" {
		pages = pages[:len(pages)-1]
	}
	return pages
}

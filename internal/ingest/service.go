package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/joseph-ayodele/licita-control/constants"
	"github.com/joseph-ayodele/licita-control/internal/common"
	"github.com/joseph-ayodele/licita-control/internal/entity"
	"github.com/joseph-ayodele/licita-control/internal/llm"
	"github.com/joseph-ayodele/licita-control/internal/pdftext"
	"github.com/joseph-ayodele/licita-control/internal/storage"
)

// DocumentSeparator joins the text of consecutive documents.
const DocumentSeparator = "\n\n"

// RecordStore persists extracted fields.
type RecordStore interface {
	Insert(ctx context.Context, fields entity.LicitacaoFields) (*entity.Licitacao, error)
}

// Stager copies uploads to disk for the text extractor.
type Stager interface {
	Stage(r io.Reader) (*storage.StagedFile, error)
	Remove(path string)
}

// Service runs an upload batch through extraction, inference and persistence.
type Service struct {
	stager    Stager
	extractor pdftext.TextExtractor
	ai        llm.StructuredExtractor
	store     RecordStore
	logger    *slog.Logger
}

func NewService(stager Stager, extractor pdftext.TextExtractor, ai llm.StructuredExtractor, store RecordStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		stager:    stager,
		extractor: extractor,
		ai:        ai,
		store:     store,
		logger:    logger,
	}
}

// Process handles one batch and always returns an envelope. Files are
// processed sequentially in upload order; either the whole batch yields one
// persisted record or nothing is persisted.
func (s *Service) Process(ctx context.Context, uploads []Upload) (env Envelope) {
	log := common.LoggerFromContext(ctx, s.logger)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Error("ingest.panic", "panic", r, "stack", string(debug.Stack()))
			env = Fail(StageUnexpected, MsgUnexpected, "")
		}
		log.Info("ingest.done",
			"success", env.Success,
			"stage", env.Stage,
			"files", len(uploads),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}()

	// Receiving
	if len(uploads) == 0 {
		return Fail(StageReceiving, MsgNoFiles, "")
	}
	for _, u := range uploads {
		if !constants.IsPDFName(u.Filename) {
			log.Warn("ingest.rejected", "filename", u.Filename, "error", ErrNotPDF)
			return Fail(StageReceiving, fmt.Sprintf(MsgNotPDF, u.Filename), "")
		}
	}

	// Extracting
	texts := make([]string, 0, len(uploads))
	for i, u := range uploads {
		text, failed := s.extract(ctx, log, i, u)
		if failed != nil {
			return *failed
		}
		texts = append(texts, text)
	}

	// Consolidating
	consolidated := strings.Join(texts, DocumentSeparator)
	if strings.TrimSpace(consolidated) == "" {
		log.Warn("ingest.empty_text", "files", len(uploads), "error", ErrEmptyText)
		return Fail(StageConsolidating, MsgEmptyText, "")
	}

	// Inferring
	res, panicked := s.infer(ctx, log, consolidated)
	if panicked {
		return Fail(StageInferring, MsgAIFailed, "")
	}
	if !res.Ok() {
		return inferenceFailure(log, res)
	}

	// Persisting
	rec, err := s.persist(ctx, *res.Fields)
	if err != nil {
		log.Error("ingest.persist.failed", "error", err)
		return Fail(StagePersisting, MsgPersistFailed, "")
	}

	status := rec.Status
	if status == "" {
		status = string(constants.InitialStatus)
	}
	log.Info("ingest.persisted", "id", rec.ID, "status", status)
	return Ok(entity.Summary{ID: rec.ID, NumeroEdital: rec.NumeroEdital, Status: status})
}

// extract stages one upload, runs the text extractor on it and removes the
// staged copy on every path.
func (s *Service) extract(ctx context.Context, log *slog.Logger, idx int, u Upload) (string, *Envelope) {
	rc, err := u.Open()
	if err != nil {
		log.Error("ingest.open.failed", "index", idx, "filename", u.Filename, "error", err)
		env := Fail(StageExtracting, fmt.Sprintf(MsgStageFailed, u.Filename), "")
		return "", &env
	}
	staged, err := s.stager.Stage(rc)
	_ = rc.Close()
	if err != nil {
		log.Error("ingest.stage.failed", "index", idx, "filename", u.Filename, "error", err)
		env := Fail(StageExtracting, fmt.Sprintf(MsgStageFailed, u.Filename), "")
		return "", &env
	}
	defer s.stager.Remove(staged.Path)

	res, err := s.extractor.Extract(ctx, staged.Path)
	if err != nil {
		log.Error("ingest.extract.failed", "index", idx, "filename", u.Filename, "staged_id", staged.ID, "error", err)
		env := Fail(StageExtracting, fmt.Sprintf(MsgExtractionFailed, u.Filename), "")
		return "", &env
	}
	log.Info("ingest.extract.ok",
		"index", idx,
		"filename", u.Filename,
		"pages", res.Pages,
		"chars", len(res.Text),
		"elapsed_ms", res.Duration.Milliseconds(),
	)
	return res.Text, nil
}

func (s *Service) infer(ctx context.Context, log *slog.Logger, text string) (res llm.Result, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("ingest.infer.panic", "panic", r, "stack", string(debug.Stack()))
			panicked = true
		}
	}()
	return s.ai.Extract(ctx, text), false
}

func (s *Service) persist(ctx context.Context, fields entity.LicitacaoFields) (rec *entity.Licitacao, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("record store panic: %v", r)
		}
	}()
	rec, err = s.store.Insert(ctx, fields)
	if err == nil && rec == nil {
		err = fmt.Errorf("record store returned no row")
	}
	return rec, err
}

func inferenceFailure(log *slog.Logger, res llm.Result) Envelope {
	kind := llm.KindProviderError
	detail := "missing result"
	if res.Failure != nil {
		kind, detail = res.Failure.Kind, res.Failure.Detail
	}
	log.Error("ingest.infer.failed", "kind", kind, "detail", detail)
	if kind == llm.KindQuota {
		return Fail(StageInferring, MsgQuota, "")
	}
	return Fail(StageInferring, MsgAIFailed, string(kind))
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/joseph-ayodele/licita-control/constants"
	"github.com/joseph-ayodele/licita-control/internal/common"
	"github.com/joseph-ayodele/licita-control/internal/entity"
)

// ErrPersistence is returned when a write yields no row or the driver fails.
// It wraps common.ErrDatabase.
var ErrPersistence = fmt.Errorf("persistence: %w", common.ErrDatabase)

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// ListFilter narrows List. Zero values mean "no filter".
type ListFilter struct {
	Status     string
	Modalidade string
	Limit      int
	Offset     int
}

type LicitacaoRepository interface {
	Insert(ctx context.Context, fields entity.LicitacaoFields) (*entity.Licitacao, error)
	GetByID(ctx context.Context, id int64) (*entity.Licitacao, error)
	List(ctx context.Context, filter ListFilter) ([]*entity.Licitacao, error)
	UpdateStatus(ctx context.Context, id int64, status string) (*entity.Licitacao, error)
	Delete(ctx context.Context, id int64) error
	Count(ctx context.Context) (int, error)
}

type licitacaoRepository struct {
	drv    dialect.Driver
	logger *slog.Logger
	now    func() time.Time
}

func NewLicitacaoRepository(drv dialect.Driver, logger *slog.Logger) LicitacaoRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &licitacaoRepository{
		drv:    drv,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *licitacaoRepository) builder() *entsql.DialectBuilder {
	return entsql.Dialect(r.drv.Dialect())
}

// Insert writes one row with status ANALISAR and the current UTC time and
// returns the row as stored.
func (r *licitacaoRepository) Insert(ctx context.Context, f entity.LicitacaoFields) (*entity.Licitacao, error) {
	itens := f.Itens
	if itens == nil {
		itens = []entity.Item{}
	}
	itensJSON, err := json.Marshal(itens)
	if err != nil {
		return nil, fmt.Errorf("%w: encode itens: %v", ErrPersistence, err)
	}

	var docs any
	if len(f.DocumentosHabilitacao) > 0 {
		docs = []byte(f.DocumentosHabilitacao)
	}

	q, args := r.builder().Insert(TableLicitacoes).
		Columns(
			ColNumeroEdital, ColNumeroProcesso, ColOrgao, ColModalidade, ColTipoDisputa,
			ColRegistroPreco, ColTipoLances, ColDataAbertura, ColDataHoraAbertura,
			ColObjeto, ColObjetoResumido, ColDocumentosHabilitacao, ColItens,
			ColStatus, ColDataCadastro,
		).
		Values(
			str(f.NumeroEdital), str(f.NumeroProcesso), str(f.Orgao), str(f.Modalidade), str(f.TipoDisputa),
			boolean(f.RegistroPreco), str(f.TipoLances), str(f.DataAbertura), str(f.DataHoraAbertura),
			str(f.Objeto), str(f.ObjetoResumido), docs, itensJSON,
			string(constants.InitialStatus), r.now(),
		).
		Returning(columns...).
		Query()

	rec, err := r.queryOne(ctx, q, args)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			r.logger.Error("insert returned no row", "table", TableLicitacoes)
			return nil, fmt.Errorf("%w: insert returned no row", ErrPersistence)
		}
		r.logger.Error("failed to insert licitacao", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	r.logger.Info("licitacao persisted", "id", rec.ID, "numero_edital", deref(rec.NumeroEdital))
	return rec, nil
}

func (r *licitacaoRepository) GetByID(ctx context.Context, id int64) (*entity.Licitacao, error) {
	q, args := r.builder().Select(columns...).
		From(entsql.Table(TableLicitacoes)).
		Where(entsql.EQ(ColID, id)).
		Query()
	rec, err := r.queryOne(ctx, q, args)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("licitacao %d: %w", id, common.ErrNotFound)
		}
		r.logger.Error("failed to get licitacao", "id", id, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return rec, nil
}

// List returns rows newest first.
func (r *licitacaoRepository) List(ctx context.Context, filter ListFilter) ([]*entity.Licitacao, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	sel := r.builder().Select(columns...).From(entsql.Table(TableLicitacoes))
	var preds []*entsql.Predicate
	if filter.Status != "" {
		preds = append(preds, entsql.EQ(ColStatus, filter.Status))
	}
	if filter.Modalidade != "" {
		preds = append(preds, entsql.EQ(ColModalidade, filter.Modalidade))
	}
	if len(preds) > 0 {
		sel.Where(entsql.And(preds...))
	}
	sel.OrderBy(entsql.Desc(ColDataCadastro), entsql.Desc(ColID)).Limit(limit)
	if filter.Offset > 0 {
		sel.Offset(filter.Offset)
	}
	q, args := sel.Query()

	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, q, args, rows); err != nil {
		r.logger.Error("failed to list licitacoes", "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	defer rows.Close()

	out := make([]*entity.Licitacao, 0)
	for rows.Next() {
		rec, err := scanLicitacao(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return out, nil
}

// UpdateStatus moves a row to another workflow status.
func (r *licitacaoRepository) UpdateStatus(ctx context.Context, id int64, status string) (*entity.Licitacao, error) {
	if !constants.IsValidStatus(status) {
		return nil, common.NewAppError("INVALID_STATUS", fmt.Sprintf("status %q is not one of %v", status, constants.Statuses()), common.ErrValidation)
	}
	q, args := r.builder().Update(TableLicitacoes).
		Set(ColStatus, status).
		Where(entsql.EQ(ColID, id)).
		Returning(columns...).
		Query()
	rec, err := r.queryOne(ctx, q, args)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, fmt.Errorf("licitacao %d: %w", id, common.ErrNotFound)
		}
		r.logger.Error("failed to update status", "id", id, "status", status, "error", err)
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	r.logger.Info("licitacao status updated", "id", id, "status", status)
	return rec, nil
}

func (r *licitacaoRepository) Delete(ctx context.Context, id int64) error {
	q, args := r.builder().Delete(TableLicitacoes).Where(entsql.EQ(ColID, id)).Query()
	var res sql.Result
	if err := r.drv.Exec(ctx, q, args, &res); err != nil {
		r.logger.Error("failed to delete licitacao", "id", id, "error", err)
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if n == 0 {
		return fmt.Errorf("licitacao %d: %w", id, common.ErrNotFound)
	}
	r.logger.Info("licitacao deleted", "id", id)
	return nil
}

func (r *licitacaoRepository) Count(ctx context.Context) (int, error) {
	q, args := r.builder().Select(entsql.Count("*")).From(entsql.Table(TableLicitacoes)).Query()
	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, q, args, rows); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	defer rows.Close()
	n, err := entsql.ScanInt(rows)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return n, nil
}

// queryOne runs q and scans its first row; no row yields common.ErrNotFound.
func (r *licitacaoRepository) queryOne(ctx context.Context, q string, args []any) (*entity.Licitacao, error) {
	rows := &entsql.Rows{}
	if err := r.drv.Query(ctx, q, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, common.ErrNotFound
	}
	return scanLicitacao(rows)
}

func scanLicitacao(rows *entsql.Rows) (*entity.Licitacao, error) {
	var (
		rec                                             entity.Licitacao
		numeroEdital, numeroProcesso, orgao, modalidade sql.NullString
		tipoDisputa, tipoLances, dataAbertura, dataHora sql.NullString
		objeto, objetoResumido                          sql.NullString
		registroPreco                                   sql.NullBool
		docs, itens                                     []byte
		dataCadastro                                    any
	)
	if err := rows.Scan(
		&rec.ID, &numeroEdital, &numeroProcesso, &orgao, &modalidade, &tipoDisputa,
		&registroPreco, &tipoLances, &dataAbertura, &dataHora, &objeto, &objetoResumido,
		&docs, &itens, &rec.Status, &dataCadastro,
	); err != nil {
		return nil, fmt.Errorf("scan licitacao: %w", err)
	}

	rec.NumeroEdital = nullStr(numeroEdital)
	rec.NumeroProcesso = nullStr(numeroProcesso)
	rec.Orgao = nullStr(orgao)
	rec.Modalidade = nullStr(modalidade)
	rec.TipoDisputa = nullStr(tipoDisputa)
	rec.TipoLances = nullStr(tipoLances)
	rec.DataAbertura = nullStr(dataAbertura)
	rec.DataHoraAbertura = nullStr(dataHora)
	rec.Objeto = nullStr(objeto)
	rec.ObjetoResumido = nullStr(objetoResumido)
	if registroPreco.Valid {
		b := registroPreco.Bool
		rec.RegistroPreco = &b
	}
	if len(docs) > 0 && string(docs) != "null" {
		rec.DocumentosHabilitacao = json.RawMessage(docs)
	}
	rec.Itens = []entity.Item{}
	if len(itens) > 0 {
		if err := json.Unmarshal(itens, &rec.Itens); err != nil {
			return nil, fmt.Errorf("decode itens: %w", err)
		}
		if rec.Itens == nil {
			rec.Itens = []entity.Item{}
		}
	}
	t, err := asTime(dataCadastro)
	if err != nil {
		return nil, err
	}
	rec.DataCadastro = t
	return &rec, nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999 -0700 MST",
}

func asTime(v any) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case []byte:
		return asTime(string(t))
	case string:
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, t); err == nil {
				return ts.UTC(), nil
			}
		}
		return time.Time{}, fmt.Errorf("unrecognized data_cadastro %q", t)
	case nil:
		return time.Time{}, nil
	default:
		return time.Time{}, fmt.Errorf("unexpected data_cadastro type %T", v)
	}
}

func str(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

func boolean(p *bool) any {
	if p == nil {
		return nil
	}
	return *p
}

func nullStr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/licita-control/internal/entity"
	"github.com/joseph-ayodele/licita-control/internal/repository"
)

const (
	SheetLicitacoes = "Licitacoes"
	SheetItens      = "Itens"
)

// Lister is the read side of the licitacoes repository.
type Lister interface {
	List(ctx context.Context, filter repository.ListFilter) ([]*entity.Licitacao, error)
}

// Service produces XLSX bytes for exports.
type Service struct {
	repo   Lister
	logger *slog.Logger
}

func NewService(repo Lister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

var licitacaoHeaders = []string{
	"ID",
	"Status",
	"Data Cadastro",
	"Número Edital",
	"Número Processo",
	"Órgão",
	"Modalidade",
	"Tipo Disputa",
	"Registro de Preço",
	"Tipo Lances",
	"Data Abertura",
	"Data/Hora Abertura",
	"Objeto Resumido",
	"Objeto",
	"Qtd. Itens",
}

var itemHeaders = []string{
	"ID Licitação",
	"Número Edital",
	"Lote",
	"Item",
	"Descrição",
	"Unidade",
	"Quantidade",
	"Valor Estimado",
}

// ExportLicitacoesXLSX returns a workbook with one sheet of licitações
// (newest first, same filter as the listing) and one sheet of their items.
func (s *Service) ExportLicitacoesXLSX(ctx context.Context, filter repository.ListFilter) ([]byte, error) {
	start := time.Now()

	recs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query licitacoes: %w", err)
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("export.xlsx.close_failed", "error", err)
		}
	}()

	// the default workbook has "Sheet1"; rename it instead of adding a sheet
	if err := f.SetSheetName(f.GetSheetName(0), SheetLicitacoes); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SheetItens); err != nil {
		return nil, err
	}
	f.SetActiveSheet(0)

	writeRow(f, SheetLicitacoes, 1, toAny(licitacaoHeaders))
	writeRow(f, SheetItens, 1, toAny(itemHeaders))

	row, itemRow := 2, 2
	for _, r := range recs {
		registro := ""
		if r.RegistroPreco != nil {
			registro = "Não"
			if *r.RegistroPreco {
				registro = "Sim"
			}
		}
		writeRow(f, SheetLicitacoes, row, []any{
			r.ID,
			r.Status,
			r.DataCadastro.UTC().Format("2006-01-02 15:04:05"),
			val(r.NumeroEdital),
			val(r.NumeroProcesso),
			val(r.Orgao),
			val(r.Modalidade),
			val(r.TipoDisputa),
			registro,
			val(r.TipoLances),
			val(r.DataAbertura),
			val(r.DataHoraAbertura),
			val(r.ObjetoResumido),
			truncate(val(r.Objeto), 500),
			len(r.Itens),
		})
		row++

		for _, it := range r.Itens {
			writeRow(f, SheetItens, itemRow, []any{
				r.ID,
				val(r.NumeroEdital),
				label(it.Lote),
				label(it.Item),
				it.Descricao,
				it.Unidade,
				num(it.Quantidade),
				num(it.ValorEstimado),
			})
			itemRow++
		}
	}

	// Widen a few columns
	_ = f.SetColWidth(SheetLicitacoes, "A", "C", 14)
	_ = f.SetColWidth(SheetLicitacoes, "D", "E", 18)
	_ = f.SetColWidth(SheetLicitacoes, "F", "F", 36)
	_ = f.SetColWidth(SheetLicitacoes, "G", "L", 16)
	_ = f.SetColWidth(SheetLicitacoes, "M", "N", 60)
	_ = f.SetColWidth(SheetItens, "E", "E", 60)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(recs),
		"items", itemRow-2,
		"status_filter", filter.Status,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	_ = f.SetSheetRow(sheet, cell, &values)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func val(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func num(p *float64) any {
	if p == nil {
		return ""
	}
	return *p
}

// label renders a lote/item identifier, which the model returns as a number or text.
func label(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	default:
		return fmt.Sprint(t)
	}
}

func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-1]) + "…"
}

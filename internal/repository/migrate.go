package repository

import (
	"context"
	"fmt"
	"log/slog"

	"entgo.io/ent/dialect"
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const TableLicitacoes = "licitacoes"

// Column names of table licitacoes.
const (
	ColID                    = "id"
	ColNumeroEdital          = "numero_edital"
	ColNumeroProcesso        = "numero_processo"
	ColOrgao                 = "orgao"
	ColModalidade            = "modalidade"
	ColTipoDisputa           = "tipo_disputa"
	ColRegistroPreco         = "registro_preco"
	ColTipoLances            = "tipo_lances"
	ColDataAbertura          = "data_abertura"
	ColDataHoraAbertura      = "data_hora_abertura"
	ColObjeto                = "objeto"
	ColObjetoResumido        = "objeto_resumido"
	ColDocumentosHabilitacao = "documentos_habilitacao"
	ColItens                 = "itens"
	ColStatus                = "status"
	ColDataCadastro          = "data_cadastro"
)

var licitacoesColumns = []*schema.Column{
	{Name: ColID, Type: field.TypeInt64, Increment: true},
	{Name: ColNumeroEdital, Type: field.TypeString, Nullable: true},
	{Name: ColNumeroProcesso, Type: field.TypeString, Nullable: true},
	{Name: ColOrgao, Type: field.TypeString, Nullable: true},
	{Name: ColModalidade, Type: field.TypeString, Nullable: true},
	{Name: ColTipoDisputa, Type: field.TypeString, Nullable: true},
	{Name: ColRegistroPreco, Type: field.TypeBool, Nullable: true},
	{Name: ColTipoLances, Type: field.TypeString, Nullable: true},
	{Name: ColDataAbertura, Type: field.TypeString, Nullable: true},
	{Name: ColDataHoraAbertura, Type: field.TypeString, Nullable: true},
	{Name: ColObjeto, Type: field.TypeString, Nullable: true, SchemaType: map[string]string{dialect.Postgres: "text"}},
	{Name: ColObjetoResumido, Type: field.TypeString, Nullable: true, SchemaType: map[string]string{dialect.Postgres: "text"}},
	{Name: ColDocumentosHabilitacao, Type: field.TypeJSON, Nullable: true},
	{Name: ColItens, Type: field.TypeJSON, Nullable: true},
	{Name: ColStatus, Type: field.TypeString, Default: "ANALISAR"},
	{Name: ColDataCadastro, Type: field.TypeTime},
}

// LicitacoesTable is the Ent schema description of table licitacoes.
var LicitacoesTable = &schema.Table{
	Name:       TableLicitacoes,
	Columns:    licitacoesColumns,
	PrimaryKey: []*schema.Column{licitacoesColumns[0]},
	Indexes: []*schema.Index{
		{Name: "licitacao_status", Columns: []*schema.Column{licitacoesColumns[14]}},
		{Name: "licitacao_data_cadastro", Columns: []*schema.Column{licitacoesColumns[15]}},
	},
}

// Migrate creates table licitacoes (and appends missing columns) in append-only mode.
func Migrate(ctx context.Context, drv dialect.Driver, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	m, err := schema.NewMigrate(drv)
	if err != nil {
		return fmt.Errorf("init migration: %w", err)
	}
	if err := m.Create(ctx, LicitacoesTable); err != nil {
		logger.Error("schema migration failed", "error", err)
		return fmt.Errorf("create schema: %w", err)
	}
	logger.Info("schema migration applied", "table", TableLicitacoes)
	return nil
}

// columns lists every column of licitacoes in scan order.
var columns = func() []string {
	out := make([]string, len(licitacoesColumns))
	for i, c := range licitacoesColumns {
		out[i] = c.Name
	}
	return out
}()

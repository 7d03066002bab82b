package repository

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/licita-control/constants"
	"github.com/joseph-ayodele/licita-control/internal/common"
	"github.com/joseph-ayodele/licita-control/internal/entity"
)

func newTestRepo(t *testing.T) (*licitacaoRepository, *DB) {
	t.Helper()
	ctx := context.Background()
	db, err := Open(ctx, Config{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "licita.db")}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close(nil) })
	require.NoError(t, Migrate(ctx, db.Driver, nil))

	repo := NewLicitacaoRepository(db.Driver, nil).(*licitacaoRepository)
	return repo, db
}

func sp(s string) *string { return &s }

func TestSQLiteDSN(t *testing.T) {
	const suffix = "_pragma=foreign_keys(1)&_time_format=sqlite"
	assert.Equal(t, "file:/tmp/a.db?"+suffix, SQLiteDSN("/tmp/a.db"))
	assert.Equal(t, "file:a.db?cache=shared&"+suffix, SQLiteDSN("file:a.db?cache=shared"))
	assert.Equal(t, "file:a.db?"+suffix, SQLiteDSN("sqlite://a.db"))
	assert.Equal(t, "file:a.db?"+suffix, SQLiteDSN("file:a.db?"+suffix))
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open(context.Background(), Config{Driver: "mysql", DSN: "x"}, nil)
	assert.Error(t, err)
}

func TestInsert_ReturnsPersistedRow(t *testing.T) {
	repo, db := newTestRepo(t)
	ctx := context.Background()
	fixed := time.Date(2024, 5, 10, 13, 45, 0, 0, time.UTC)
	repo.now = func() time.Time { return fixed }

	qty, valor := 10.0, 25.5
	reg := true
	rec, err := repo.Insert(ctx, entity.LicitacaoFields{
		NumeroEdital:          sp("123/2024"),
		Orgao:                 sp("Prefeitura de Lavras"),
		Modalidade:            sp("eletronico"),
		RegistroPreco:         &reg,
		DataAbertura:          sp("2024-06-01"),
		DocumentosHabilitacao: json.RawMessage(`[{"documento":"CND"}]`),
		Itens: []entity.Item{
			{Lote: 1.0, Item: 1.0, Descricao: "Caneta", Unidade: "UN", Quantidade: &qty, ValorEstimado: &valor},
		},
	})
	require.NoError(t, err)

	assert.Positive(t, rec.ID)
	assert.Equal(t, string(constants.StatusAnalisar), rec.Status)
	assert.Equal(t, "123/2024", *rec.NumeroEdital)
	assert.Nil(t, rec.NumeroProcesso)
	assert.True(t, *rec.RegistroPreco)
	assert.True(t, fixed.Equal(rec.DataCadastro), "got %v", rec.DataCadastro)
	assert.JSONEq(t, `[{"documento":"CND"}]`, string(rec.DocumentosHabilitacao))
	require.Len(t, rec.Itens, 1)
	assert.Equal(t, "Caneta", rec.Itens[0].Descricao)
	assert.InDelta(t, 25.5, *rec.Itens[0].ValorEstimado, 1e-9)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, db.HealthCheck(ctx, time.Second, nil))
}

func TestInsert_AllFieldsAbsent(t *testing.T) {
	repo, _ := newTestRepo(t)
	rec, err := repo.Insert(context.Background(), entity.LicitacaoFields{})
	require.NoError(t, err)
	assert.Nil(t, rec.NumeroEdital)
	assert.Nil(t, rec.RegistroPreco)
	assert.Nil(t, rec.DocumentosHabilitacao)
	assert.NotNil(t, rec.Itens)
	assert.Empty(t, rec.Itens)
}

func TestInsert_DriverFailure(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, Config{Driver: DriverSQLite, DSN: filepath.Join(t.TempDir(), "empty.db")}, nil)
	require.NoError(t, err)
	defer db.Close(nil)

	// no migration: the table does not exist
	repo := NewLicitacaoRepository(db.Driver, nil)
	_, err = repo.Insert(ctx, entity.LicitacaoFields{NumeroEdital: sp("1/2024")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPersistence)
	assert.ErrorIs(t, err, common.ErrDatabase)
}

func TestGetByID(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	rec, err := repo.Insert(ctx, entity.LicitacaoFields{NumeroEdital: sp("9/2024")})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, "9/2024", *got.NumeroEdital)

	_, err = repo.GetByID(ctx, rec.ID+100)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestList_OrderAndFilters(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	seed := []struct {
		edital     string
		modalidade string
	}{
		{"1/2024", "eletronico"},
		{"2/2024", "presencial"},
		{"3/2024", "eletronico"},
	}
	ids := make([]int64, 0, len(seed))
	for i, s := range seed {
		at := base.Add(time.Duration(i) * time.Hour)
		repo.now = func() time.Time { return at }
		rec, err := repo.Insert(ctx, entity.LicitacaoFields{NumeroEdital: sp(s.edital), Modalidade: sp(s.modalidade)})
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}

	all, err := repo.List(ctx, ListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "3/2024", *all[0].NumeroEdital, "newest first")
	assert.Equal(t, "1/2024", *all[2].NumeroEdital)

	eletronico, err := repo.List(ctx, ListFilter{Modalidade: "eletronico"})
	require.NoError(t, err)
	assert.Len(t, eletronico, 2)

	limited, err := repo.List(ctx, ListFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, ids[2], limited[0].ID)

	_, err = repo.UpdateStatus(ctx, ids[1], string(constants.StatusParticipar))
	require.NoError(t, err)
	participar, err := repo.List(ctx, ListFilter{Status: string(constants.StatusParticipar)})
	require.NoError(t, err)
	require.Len(t, participar, 1)
	assert.Equal(t, "2/2024", *participar[0].NumeroEdital)

	none, err := repo.List(ctx, ListFilter{Status: string(constants.StatusVencedor)})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestUpdateStatus(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	rec, err := repo.Insert(ctx, entity.LicitacaoFields{})
	require.NoError(t, err)

	updated, err := repo.UpdateStatus(ctx, rec.ID, string(constants.StatusDescartada))
	require.NoError(t, err)
	assert.Equal(t, string(constants.StatusDescartada), updated.Status)

	_, err = repo.UpdateStatus(ctx, rec.ID, "ARQUIVADA")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrValidation)
	var appErr *common.AppError
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "INVALID_STATUS", appErr.Code)

	_, err = repo.UpdateStatus(ctx, rec.ID+1, string(constants.StatusVencedor))
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDelete(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()
	rec, err := repo.Insert(ctx, entity.LicitacaoFields{})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, rec.ID))
	assert.ErrorIs(t, repo.Delete(ctx, rec.ID), common.ErrNotFound)

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestMigrate_Idempotent(t *testing.T) {
	_, db := newTestRepo(t)
	assert.NoError(t, Migrate(context.Background(), db.Driver, nil))
}

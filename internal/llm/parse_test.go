package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"fence on one line", "```{\"a\":1}```", `{"a":1}`},
		{"surrounding space", "  \n```json\n{}\n```\n ", `{}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.in))
		})
	}
}

func TestParseReply_Minimal(t *testing.T) {
	f, err := ParseReply(`{"numero_edital":"123/2024","itens":[]}`, nil)
	require.NoError(t, err)
	require.NotNil(t, f.NumeroEdital)
	assert.Equal(t, "123/2024", *f.NumeroEdital)
	assert.Nil(t, f.Orgao)
	assert.Nil(t, f.RegistroPreco)
	assert.NotNil(t, f.Itens)
	assert.Empty(t, f.Itens)
}

func TestParseReply_MissingItensDefaultsToEmpty(t *testing.T) {
	f, err := ParseReply(`{"orgao":"Prefeitura de Lavras"}`, nil)
	require.NoError(t, err)
	assert.NotNil(t, f.Itens)
	assert.Len(t, f.Itens, 0)
}

func TestParseReply_FullReply(t *testing.T) {
	reply := "```json\n" + `{
		"numero_edital": " 45/2024 ",
		"numero_processo": "PA 100/2024",
		"orgao": "Prefeitura Municipal de Itajubá",
		"modalidade": "Pregão Eletrônico",
		"tipo_disputa": "Por Item",
		"registro_preco": true,
		"tipo_lances": "aberto",
		"data_abertura": "15/03/2024",
		"data_hora_abertura": "15/03/2024 09:30",
		"objeto": "Aquisição de material de escritório",
		"objeto_resumido": "",
		"documentos_habilitacao": [{"documento":"CND Federal","obrigatorio":true}],
		"itens": [
			{"lote": 1, "item": 1, "descricao": " Caneta ", "unidade": "UN", "quantidade": 100, "valor_estimado": 1.5},
			{"lote": "Lote 2", "item": 2, "descricao": "Papel A4", "unidade": "RESMA", "quantidade": null, "valor_estimado": null}
		]
	}` + "\n```"

	f, err := ParseReply(reply, nil)
	require.NoError(t, err)

	assert.Equal(t, "45/2024", *f.NumeroEdital)
	assert.Equal(t, "eletronico", *f.Modalidade)
	assert.Equal(t, "por item", *f.TipoDisputa)
	assert.True(t, *f.RegistroPreco)
	assert.Equal(t, "2024-03-15", *f.DataAbertura)
	assert.Equal(t, "2024-03-15T09:30:00", *f.DataHoraAbertura)
	assert.Nil(t, f.ObjetoResumido)

	require.Len(t, f.Itens, 2)
	assert.Equal(t, "Caneta", f.Itens[0].Descricao)
	assert.Equal(t, float64(1), f.Itens[0].Lote)
	assert.Equal(t, 100.0, *f.Itens[0].Quantidade)
	assert.Equal(t, "Lote 2", f.Itens[1].Lote)
	assert.Nil(t, f.Itens[1].Quantidade)

	var docs []map[string]any
	require.NoError(t, json.Unmarshal(f.DocumentosHabilitacao, &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "CND Federal", docs[0]["documento"])
}

func TestParseReply_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		reply string
	}{
		{"empty", ""},
		{"whitespace", "   \n"},
		{"prose", "Desculpe, não consegui ler o edital."},
		{"truncated", `{"numero_edital": "1/2024"`},
		{"array", `[{"numero_edital":"1"}]`},
		{"string", `"ok"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseReply(tt.reply, nil)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidReply)
			assert.Nil(t, f)
		})
	}
}

func TestParseReply_LenientRepairs(t *testing.T) {
	reply := `{
		"numero_edital": 123,
		"registro_preco": "Sim",
		"documentos_habilitacao": {"documento": "Contrato social"},
		"itens": [
			{"item": 1, "descricao": "Cadeira", "quantidade": "10", "valor_estimado": "R$ 1.234,56"},
			"linha solta"
		],
		"observacao": "extra"
	}`
	f, err := ParseReply(reply, nil)
	require.NoError(t, err)

	assert.Equal(t, "123", *f.NumeroEdital)
	require.NotNil(t, f.RegistroPreco)
	assert.True(t, *f.RegistroPreco)
	require.Len(t, f.Itens, 1)
	assert.InDelta(t, 10.0, *f.Itens[0].Quantidade, 0.0001)
	assert.InDelta(t, 1234.56, *f.Itens[0].ValorEstimado, 0.0001)
	assert.JSONEq(t, `[{"documento":"Contrato social"}]`, string(f.DocumentosHabilitacao))
}

func TestParseReply_DropsMistypedItens(t *testing.T) {
	f, err := ParseReply(`{"numero_edital":"7/2024","itens":"vários"}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "7/2024", *f.NumeroEdital)
	assert.Empty(t, f.Itens)
}

func TestParseReply_DocumentosAsText(t *testing.T) {
	f, err := ParseReply(`{"documentos_habilitacao":"Conforme item 8 do edital"}`, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `"Conforme item 8 do edital"`, string(f.DocumentosHabilitacao))

	f, err = ParseReply(`{"documentos_habilitacao":null}`, nil)
	require.NoError(t, err)
	assert.Nil(t, f.DocumentosHabilitacao)
}

func TestParseReply_RepairsDocumentos(t *testing.T) {
	f, err := ParseReply(`{"numero_edital":"1/2024","documentos_habilitacao":[{"documento":"CND","obrigatorio":"sim"}],"itens":[]}`, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"documento":"CND","obrigatorio":true}]`, string(f.DocumentosHabilitacao))

	f, err = ParseReply(`{"documentos_habilitacao":["CND", 3, ["FGTS"], true]}`, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `["CND","3"]`, string(f.DocumentosHabilitacao))

	f, err = ParseReply(`{"documentos_habilitacao":{"documento":12,"descricao":["x"],"obrigatorio":"talvez"}}`, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"documento":"12"}]`, string(f.DocumentosHabilitacao))
}

func TestSanitizeReply_Documentos(t *testing.T) {
	m := map[string]any{
		"documentos_habilitacao": []any{
			map[string]any{"documento": "Balanço", "obrigatorio": "não"},
			[]any{"CND"},
			nil,
		},
	}
	dropped := SanitizeReply(m)

	assert.Equal(t, []any{map[string]any{"documento": "Balanço", "obrigatorio": false}}, m["documentos_habilitacao"])
	assert.Equal(t, []string{"documentos_habilitacao[1](type)", "documentos_habilitacao[2](type)"}, dropped)
}

func TestSanitizeReply(t *testing.T) {
	m := map[string]any{
		"orgao":          []any{"a"},
		"registro_preco": "talvez",
		"itens":          map[string]any{"item": 1.0},
		"desconhecido":   1.0,
	}
	dropped := SanitizeReply(m)

	assert.NotContains(t, m, "orgao")
	assert.NotContains(t, m, "registro_preco")
	assert.NotContains(t, m, "itens")
	assert.NotContains(t, m, "desconhecido")
	assert.ElementsMatch(t, []string{
		"orgao(type)", "registro_preco(value)", "itens(type)", "desconhecido(unknown)",
	}, dropped)
}

func TestParseDecimalBR(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"1.234,56", 1234.56, true},
		{"R$ 10,00", 10, true},
		{"12.5", 12.5, true},
		{"3", 3, true},
		{"", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDecimalBR(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.InDelta(t, tt.want, got, 0.0001)
		})
	}
}

func TestClassifyProviderError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, ""},
		{"status 429", errors.New("API returned unexpected status code: 429: Rate limit reached for gpt-4.1-mini"), KindQuota},
		{"insufficient quota", errors.New("API returned unexpected status code: 429: You exceeded your current quota"), KindQuota},
		{"quota code", errors.New("insufficient_quota"), KindQuota},
		{"rate limit text", errors.New("Rate Limit exceeded"), KindQuota},
		{"server error", errors.New("API returned unexpected status code: 500: internal error"), KindProviderError},
		{"bad request mentioning quota", errors.New("API returned unexpected status code: 400: Invalid parameter: max_tokens exceeds model quota of output"), KindProviderError},
		{"billing limit", errors.New("API returned unexpected status code: 403: billing hard limit has been reached"), KindQuota},
		{"canceled", context.Canceled, KindProviderError},
		{"auth", errors.New("API returned unexpected status code: 401: Incorrect API key provided"), KindProviderError},
		{"invalid reply", fmt.Errorf("%w: decode", ErrInvalidReply), KindJSONInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyProviderError(tt.err))
		})
	}
}

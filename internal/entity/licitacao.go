package entity

import (
	"encoding/json"
	"time"
)

// Item is one line item of the notice, as returned by the model.
type Item struct {
	Lote          any      `json:"lote,omitempty"` // number or label, e.g. 1 or "Lote 1"
	Item          any      `json:"item,omitempty"`
	Descricao     string   `json:"descricao,omitempty"`
	Unidade       string   `json:"unidade,omitempty"`
	Quantidade    *float64 `json:"quantidade,omitempty"`
	ValorEstimado *float64 `json:"valor_estimado,omitempty"`
}

// LicitacaoFields is the normalized shape we want from the LLM.
// Every field is optional; absence is represented by nil.
type LicitacaoFields struct {
	NumeroEdital          *string         `json:"numero_edital"`
	NumeroProcesso        *string         `json:"numero_processo"`
	Orgao                 *string         `json:"orgao"`
	Modalidade            *string         `json:"modalidade"`
	TipoDisputa           *string         `json:"tipo_disputa"`
	RegistroPreco         *bool           `json:"registro_preco"`
	TipoLances            *string         `json:"tipo_lances"`
	DataAbertura          *string         `json:"data_abertura"`      // YYYY-MM-DD
	DataHoraAbertura      *string         `json:"data_hora_abertura"` // YYYY-MM-DDTHH:MM:SS
	Objeto                *string         `json:"objeto"`
	ObjetoResumido        *string         `json:"objeto_resumido"`
	DocumentosHabilitacao json.RawMessage `json:"documentos_habilitacao"` // list or free text, stored as JSON
	Itens                 []Item          `json:"itens"`
}

// Licitacao represents a persisted row of licitacoes for data transfer between layers.
type Licitacao struct {
	ID int64 `json:"id"`
	LicitacaoFields
	Status       string    `json:"status"`
	DataCadastro time.Time `json:"data_cadastro"`
}

// Summary is the part of a persisted row echoed back to the uploader.
type Summary struct {
	ID           int64   `json:"id"`
	NumeroEdital *string `json:"numero_edital"`
	Status       string  `json:"status"`
}

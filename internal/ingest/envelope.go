package ingest

import (
	"fmt"

	"github.com/joseph-ayodele/licita-control/internal/common"
	"github.com/joseph-ayodele/licita-control/internal/entity"
)

// Validation failures of a batch, logged server-side.
var (
	ErrNotPDF    = fmt.Errorf("upload is not a pdf: %w", common.ErrValidation)
	ErrEmptyText = fmt.Errorf("no text in uploaded documents: %w", common.ErrValidation)
)

// User-facing messages. They are part of the API contract with the front-end.
const (
	MsgNoFiles          = "Nenhum arquivo enviado."
	MsgNotPDF           = "O arquivo %q não é um PDF."
	MsgStageFailed      = "Não foi possível receber o arquivo %q."
	MsgExtractionFailed = "Não foi possível ler o PDF %q."
	MsgEmptyText        = "Não foi possível extrair texto dos PDFs."
	MsgQuota            = "IA sem créditos. Verifique o plano da OpenAI."
	MsgAIFailed         = "Erro ao processar a IA."
	MsgPersistFailed    = "Erro ao salvar a licitação."
	MsgUnexpected       = "Erro inesperado ao processar os arquivos."
)

// Stage names where a request ended; used in logs and tests only.
type Stage string

const (
	StageReceiving     Stage = "receiving"
	StageExtracting    Stage = "extracting"
	StageConsolidating Stage = "consolidating"
	StageInferring     Stage = "inferring"
	StagePersisting    Stage = "persisting"
	StageSucceeded     Stage = "succeeded"
	StageUnexpected    Stage = "unexpected"
)

// Envelope is the response body of an upload, successful or not.
type Envelope struct {
	Success   bool            `json:"success"`
	Licitacao *entity.Summary `json:"licitacao,omitempty"`
	Error     string          `json:"error,omitempty"`
	Details   string          `json:"details,omitempty"`

	Stage Stage `json:"-"`
}

// Ok builds a success envelope.
func Ok(s entity.Summary) Envelope {
	return Envelope{Success: true, Licitacao: &s, Stage: StageSucceeded}
}

// Fail builds a failure envelope; details may be empty.
func Fail(stage Stage, msg, details string) Envelope {
	return Envelope{Success: false, Error: msg, Details: details, Stage: stage}
}

package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// BuildLicitacaoJSONSchema returns the JSON-Schema (draft 2020-12 subset) of a
// model reply as a generic map. Every field is optional and nullable; unknown
// keys are tolerated and dropped later by the sanitizer.
func BuildLicitacaoJSONSchema() map[string]any {
	idOrLabel := map[string]any{"type": []string{"integer", "string", "null"}}

	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"lote":           idOrLabel,
			"item":           idOrLabel,
			"descricao":      nullable("string"),
			"unidade":        nullable("string"),
			"quantidade":     nullable("number"),
			"valor_estimado": nullable("number"),
		},
	}

	documento := map[string]any{
		"type": []string{"object", "string"},
		"properties": map[string]any{
			"documento":   nullable("string"),
			"descricao":   nullable("string"),
			"obrigatorio": nullable("boolean"),
		},
	}

	props := map[string]any{
		"numero_edital":      nullable("string"),
		"numero_processo":    nullable("string"),
		"orgao":              nullable("string"),
		"modalidade":         nullable("string"),
		"tipo_disputa":       nullable("string"),
		"registro_preco":     nullable("boolean"),
		"tipo_lances":        nullable("string"),
		"data_abertura":      nullable("string"),
		"data_hora_abertura": nullable("string"),
		"objeto":             nullable("string"),
		"objeto_resumido":    nullable("string"),
		"documentos_habilitacao": map[string]any{
			"type":  []string{"array", "string", "null"},
			"items": documento,
		},
		"itens": map[string]any{
			"type":  []string{"array", "null"},
			"items": item,
		},
	}

	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

func nullable(t string) map[string]any {
	return map[string]any{"type": []string{t, "null"}}
}

var (
	replySchemaOnce sync.Once
	replySchema     *jsonschema.Schema
	replySchemaErr  error
)

// validateReply validates a decoded reply against BuildLicitacaoJSONSchema.
func validateReply(v any) error {
	replySchemaOnce.Do(func() {
		replySchema, replySchemaErr = compileSchema(BuildLicitacaoJSONSchema())
	})
	if replySchemaErr != nil {
		return replySchemaErr
	}
	if err := replySchema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

func compileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

package llm

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

var textFields = []string{
	"numero_edital", "numero_processo", "orgao", "modalidade", "tipo_disputa",
	"tipo_lances", "data_abertura", "data_hora_abertura", "objeto", "objeto_resumido",
}

var knownFields = func() map[string]struct{} {
	m := map[string]struct{}{
		"registro_preco": {}, "documentos_habilitacao": {}, "itens": {},
	}
	for _, k := range textFields {
		m[k] = struct{}{}
	}
	return m
}()

// SanitizeReply repairs a decoded reply in place so it can pass schema
// validation: numbers become strings where text is expected, yes/no words
// become booleans, Brazilian-formatted amounts become numbers, and values of
// the wrong type or unknown keys are removed. It returns what it dropped.
func SanitizeReply(m map[string]any) []string {
	var dropped []string
	drop := func(k, why string) {
		delete(m, k)
		dropped = append(dropped, k+"("+why+")")
	}

	for _, k := range slices.Sorted(maps.Keys(m)) {
		if _, ok := knownFields[k]; !ok {
			drop(k, "unknown")
		}
	}

	for _, k := range textFields {
		v, ok := m[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case nil, string:
		case float64:
			m[k] = strconv.FormatFloat(t, 'f', -1, 64)
		default:
			drop(k, "type")
		}
	}

	if v, ok := m["registro_preco"]; ok {
		switch t := v.(type) {
		case nil, bool:
		case string:
			if b, ok := parseYesNo(t); ok {
				m["registro_preco"] = b
			} else {
				drop("registro_preco", "value")
			}
		default:
			drop("registro_preco", "type")
		}
	}

	if v, ok := m["documentos_habilitacao"]; ok {
		switch t := v.(type) {
		case nil, string:
		case map[string]any:
			sanitizeDocumento(t, 0, &dropped)
			m["documentos_habilitacao"] = []any{t}
		case []any:
			docs := make([]any, 0, len(t))
			for i, raw := range t {
				switch d := raw.(type) {
				case string:
					docs = append(docs, d)
				case float64:
					docs = append(docs, strconv.FormatFloat(d, 'f', -1, 64))
				case map[string]any:
					sanitizeDocumento(d, i, &dropped)
					docs = append(docs, d)
				default:
					dropped = append(dropped, fmt.Sprintf("documentos_habilitacao[%d](type)", i))
				}
			}
			m["documentos_habilitacao"] = docs
		default:
			drop("documentos_habilitacao", "type")
		}
	}

	if v, ok := m["itens"]; ok {
		switch t := v.(type) {
		case nil:
		case []any:
			items := make([]any, 0, len(t))
			for i, raw := range t {
				it, ok := raw.(map[string]any)
				if !ok {
					dropped = append(dropped, fmt.Sprintf("itens[%d](type)", i))
					continue
				}
				sanitizeItem(it, i, &dropped)
				items = append(items, it)
			}
			m["itens"] = items
		default:
			drop("itens", "type")
		}
	}

	return dropped
}

func sanitizeDocumento(d map[string]any, idx int, dropped *[]string) {
	drop := func(k string) {
		delete(d, k)
		*dropped = append(*dropped, fmt.Sprintf("documentos_habilitacao[%d].%s", idx, k))
	}
	for _, k := range []string{"documento", "descricao"} {
		switch t := d[k].(type) {
		case nil, string:
		case float64:
			d[k] = strconv.FormatFloat(t, 'f', -1, 64)
		default:
			drop(k)
		}
	}
	switch t := d["obrigatorio"].(type) {
	case nil, bool:
	case string:
		if b, ok := parseYesNo(t); ok {
			d["obrigatorio"] = b
		} else {
			drop("obrigatorio")
		}
	default:
		drop("obrigatorio")
	}
}

func sanitizeItem(it map[string]any, idx int, dropped *[]string) {
	drop := func(k string) {
		delete(it, k)
		*dropped = append(*dropped, fmt.Sprintf("itens[%d].%s", idx, k))
	}
	for _, k := range []string{"lote", "item"} {
		switch it[k].(type) {
		case nil, string, float64:
		default:
			drop(k)
		}
	}
	// lote/item must be integral when numeric
	for _, k := range []string{"lote", "item"} {
		if f, ok := it[k].(float64); ok && f != float64(int64(f)) {
			it[k] = strconv.FormatFloat(f, 'f', -1, 64)
		}
	}
	for _, k := range []string{"descricao", "unidade"} {
		switch t := it[k].(type) {
		case nil, string:
		case float64:
			it[k] = strconv.FormatFloat(t, 'f', -1, 64)
		default:
			drop(k)
		}
	}
	for _, k := range []string{"quantidade", "valor_estimado"} {
		switch t := it[k].(type) {
		case nil, float64:
		case string:
			if f, ok := ParseDecimalBR(t); ok {
				it[k] = f
			} else if strings.TrimSpace(t) == "" {
				it[k] = nil
			} else {
				drop(k)
			}
		default:
			drop(k)
		}
	}
}

func parseYesNo(s string) (bool, bool) {
	switch foldASCII(s) {
	case "sim", "s", "true", "yes", "verdadeiro":
		return true, true
	case "nao", "n", "false", "no", "falso":
		return false, true
	}
	return false, false
}

func foldASCII(s string) string {
	r := strings.NewReplacer("ã", "a", "Ã", "a", "á", "a", "Á", "a")
	return strings.ToLower(strings.TrimSpace(r.Replace(s)))
}

// ParseDecimalBR parses amounts such as "1.234,56", "R$ 10,00", "12.5" or "3".
func ParseDecimalBR(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return 0, false
	}
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

package constants

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Modalidade is the procurement modality as stored by the front-end filters.
type Modalidade string

const (
	ModalidadeEletronico     Modalidade = "eletronico"
	ModalidadePresencial     Modalidade = "presencial"
	ModalidadeDispensa       Modalidade = "dispensa"
	ModalidadeCredenciamento Modalidade = "credenciamento"
)

// TipoDisputa is how the dispute is grouped (whole notice, per lot, per item).
type TipoDisputa string

const (
	DisputaGlobal  TipoDisputa = "global"
	DisputaPorLote TipoDisputa = "por lote"
	DisputaPorItem TipoDisputa = "por item"
)

var allModalidades = []Modalidade{
	ModalidadeEletronico,
	ModalidadePresencial,
	ModalidadeDispensa,
	ModalidadeCredenciamento,
}

var allDisputas = []TipoDisputa{DisputaGlobal, DisputaPorLote, DisputaPorItem}

// CanonicalModalidade maps free text from the model onto a known modality.
// Matching ignores case, accents and surrounding whitespace.
func CanonicalModalidade(input string) (Modalidade, bool) {
	key := foldKey(input)
	if key == "" {
		return "", false
	}

	synonyms := map[string]Modalidade{
		"pregao eletronico":       ModalidadeEletronico,
		"concorrencia eletronica": ModalidadeEletronico,
		"eletronica":              ModalidadeEletronico,
		"pregao presencial":       ModalidadePresencial,
		"dispensa eletronica":     ModalidadeDispensa,
		"dispensa de licitacao":   ModalidadeDispensa,
	}
	if m, ok := synonyms[key]; ok {
		return m, true
	}
	for _, m := range allModalidades {
		if key == string(m) {
			return m, true
		}
	}
	return "", false
}

// CanonicalTipoDisputa maps free text from the model onto a known dispute type.
func CanonicalTipoDisputa(input string) (TipoDisputa, bool) {
	key := strings.ReplaceAll(foldKey(input), "_", " ")
	if key == "" {
		return "", false
	}
	switch key {
	case "menor preco global", "lote unico":
		return DisputaGlobal, true
	case "por lotes", "lote":
		return DisputaPorLote, true
	case "por itens", "item", "menor preco por item":
		return DisputaPorItem, true
	}
	for _, d := range allDisputas {
		if key == string(d) {
			return d, true
		}
	}
	return "", false
}

func foldKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.Join(strings.Fields(strings.ToLower(out)), " ")
}

package llm

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/licita-control/constants"
	"github.com/joseph-ayodele/licita-control/internal/entity"
)

const (
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02T15:04:05"
)

var dateLayouts = []string{
	dateLayout,
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"2/1/2006",
}

var dateTimeLayouts = []string{
	dateTimeLayout,
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006 15h04",
	"02/01/2006 15h",
}

// Normalize cleans fields in place: strings are trimmed and emptied ones
// become nil, dates are rewritten as ISO-8601, modality and dispute type are
// mapped onto their canonical values when recognized. Unparseable dates are
// dropped with a warning.
func Normalize(f *entity.LicitacaoFields, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	for _, p := range []**string{
		&f.NumeroEdital, &f.NumeroProcesso, &f.Orgao, &f.Modalidade, &f.TipoDisputa,
		&f.TipoLances, &f.DataAbertura, &f.DataHoraAbertura, &f.Objeto, &f.ObjetoResumido,
	} {
		*p = trimOrNil(*p)
	}

	if f.DataAbertura != nil {
		if d, ok := NormalizeDate(*f.DataAbertura); ok {
			f.DataAbertura = &d
		} else {
			logger.Warn("llm.normalize.date_dropped", "field", "data_abertura", "value", *f.DataAbertura)
			f.DataAbertura = nil
		}
	}
	if f.DataHoraAbertura != nil {
		if d, ok := NormalizeDateTime(*f.DataHoraAbertura); ok {
			f.DataHoraAbertura = &d
		} else {
			logger.Warn("llm.normalize.date_dropped", "field", "data_hora_abertura", "value", *f.DataHoraAbertura)
			f.DataHoraAbertura = nil
		}
	}

	if f.Modalidade != nil {
		if m, ok := constants.CanonicalModalidade(*f.Modalidade); ok {
			s := string(m)
			f.Modalidade = &s
		}
	}
	if f.TipoDisputa != nil {
		if d, ok := constants.CanonicalTipoDisputa(*f.TipoDisputa); ok {
			s := string(d)
			f.TipoDisputa = &s
		}
	}

	f.DocumentosHabilitacao = normalizeDocumentos(f.DocumentosHabilitacao)

	if f.Itens == nil {
		f.Itens = []entity.Item{}
	}
	for i := range f.Itens {
		f.Itens[i].Descricao = strings.TrimSpace(f.Itens[i].Descricao)
		f.Itens[i].Unidade = strings.TrimSpace(f.Itens[i].Unidade)
	}
}

// NormalizeDate converts a date to YYYY-MM-DD. Values carrying a time part
// keep only the date.
func NormalizeDate(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(dateLayout), true
		}
	}
	if t, ok := parseDateTime(s); ok {
		return t.Format(dateLayout), true
	}
	return "", false
}

// NormalizeDateTime converts a date-time to YYYY-MM-DDTHH:MM:SS.
func NormalizeDateTime(s string) (string, bool) {
	t, ok := parseDateTime(s)
	if !ok {
		return "", false
	}
	return t.Format(dateTimeLayout), true
}

func parseDateTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	s = strings.Replace(s, " às ", " ", 1)
	s = strings.Replace(s, " as ", " ", 1)
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func trimOrNil(p *string) *string {
	if p == nil {
		return nil
	}
	s := strings.TrimSpace(*p)
	if s == "" {
		return nil
	}
	return &s
}

func normalizeDocumentos(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		s = strings.TrimSpace(s)
		if s == "" {
			return nil
		}
		b, _ := json.Marshal(s)
		return b
	}
	return raw
}

package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/licita-control/internal/entity"
)

func ptr(s string) *string { return &s }

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-03-15", "2024-03-15", true},
		{"15/03/2024", "2024-03-15", true},
		{"5/3/2024", "2024-03-05", true},
		{"15-03-2024", "2024-03-15", true},
		{"15.03.2024", "2024-03-15", true},
		{"15/03/2024 09:00", "2024-03-15", true},
		{"2024-03-15T09:00:00", "2024-03-15", true},
		{"março de 2024", "", false},
		{"32/13/2024", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeDateTime(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"2024-03-15T09:30:00", "2024-03-15T09:30:00", true},
		{"2024-03-15T09:30", "2024-03-15T09:30:00", true},
		{"2024-03-15 09:30", "2024-03-15T09:30:00", true},
		{"15/03/2024 09:30", "2024-03-15T09:30:00", true},
		{"15/03/2024 às 09:30", "2024-03-15T09:30:00", true},
		{"15/03/2024 9h30", "2024-03-15T09:30:00", true},
		{"15/03/2024 09h30", "2024-03-15T09:30:00", true},
		{"2024-03-15T09:30:00-03:00", "2024-03-15T09:30:00", true},
		{"amanhã", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := NormalizeDateTime(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize(t *testing.T) {
	f := &entity.LicitacaoFields{
		NumeroEdital: ptr("  10/2024 "),
		Orgao:        ptr("   "),
		Modalidade:   ptr("Leilão"),
		TipoDisputa:  ptr("GLOBAL"),
		DataAbertura: ptr("sem data"),
		Itens:        nil,
	}
	Normalize(f, nil)

	assert.Equal(t, "10/2024", *f.NumeroEdital)
	assert.Nil(t, f.Orgao)
	assert.Equal(t, "Leilão", *f.Modalidade, "unknown modality kept verbatim")
	assert.Equal(t, "global", *f.TipoDisputa)
	assert.Nil(t, f.DataAbertura)
	assert.NotNil(t, f.Itens)
}

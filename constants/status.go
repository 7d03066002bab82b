package constants

// LicitacaoStatus is the review status of a row in licitacoes.
type LicitacaoStatus string

// Stable values (store these exact strings in DB).
const (
	StatusAnalisar   LicitacaoStatus = "ANALISAR"   // newly ingested, pending review
	StatusParticipar LicitacaoStatus = "PARTICIPAR" // decided to bid
	StatusDescartada LicitacaoStatus = "DESCARTADA" // discarded
	StatusVencedor   LicitacaoStatus = "VENCEDOR"   // bid won
	StatusPerdida    LicitacaoStatus = "PERDIDA"    // bid lost
	StatusSuspensa   LicitacaoStatus = "SUSPENSA"   // tender suspended by the agency
)

// InitialStatus is the only legal status for a freshly inserted licitação.
const InitialStatus = StatusAnalisar

var allStatuses = []LicitacaoStatus{
	StatusAnalisar,
	StatusParticipar,
	StatusDescartada,
	StatusVencedor,
	StatusPerdida,
	StatusSuspensa,
}

// Statuses returns every known status in display order.
func Statuses() []LicitacaoStatus {
	out := make([]LicitacaoStatus, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// IsValidStatus reports whether s is one of the known statuses (exact match).
func IsValidStatus(s string) bool {
	for _, st := range allStatuses {
		if string(st) == s {
			return true
		}
	}
	return false
}

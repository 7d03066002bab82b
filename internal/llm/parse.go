package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/licita-control/internal/entity"
)

// ErrInvalidReply is returned when a model reply is not the expected JSON object.
var ErrInvalidReply = errors.New("invalid model reply")

// StripCodeFences removes a surrounding markdown code fence (``` or ```json).
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	// drop the language tag line, if any
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		if tag := strings.TrimSpace(s[:i]); tag == "" || !strings.ContainsAny(tag, "{[") {
			s = s[i+1:]
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// ParseReply decodes a model reply into normalized licitação fields.
// The reply is validated strictly first; on failure SanitizeReply repairs
// what it can and the document is validated again.
func ParseReply(reply string, logger *slog.Logger) (*entity.LicitacaoFields, error) {
	if logger == nil {
		logger = slog.Default()
	}

	content := StripCodeFences(reply)
	if content == "" {
		return nil, fmt.Errorf("%w: empty content", ErrInvalidReply)
	}

	var doc any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidReply, err)
	}
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top-level value is not an object", ErrInvalidReply)
	}

	if err := validateReply(m); err != nil {
		dropped := SanitizeReply(m)
		if vErr := validateReply(m); vErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidReply, vErr)
		}
		logger.Warn("llm.extract.lenient_sanitize_applied", "dropped", dropped, "strict_error", err.Error())
	}

	b, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("%w: encode: %v", ErrInvalidReply, err)
	}
	var out entity.LicitacaoFields
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("%w: unmarshal fields: %v", ErrInvalidReply, err)
	}

	Normalize(&out, logger)
	return &out, nil
}

package llm

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Doer is the HTTP client surface provider SDKs accept.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// LoggingDoer wraps a Doer and logs every provider round trip.
type LoggingDoer struct {
	next   Doer
	logger *slog.Logger
}

// NewLoggingDoer returns a Doer that logs request/response metadata.
// A nil next uses an http.Client with the given timeout.
func NewLoggingDoer(next Doer, timeout time.Duration, logger *slog.Logger) *LoggingDoer {
	if logger == nil {
		logger = slog.Default()
	}
	if next == nil {
		if timeout <= 0 {
			timeout = 90 * time.Second
		}
		next = &http.Client{Timeout: timeout}
	}
	return &LoggingDoer{next: next, logger: logger}
}

func (d *LoggingDoer) Do(req *http.Request) (*http.Response, error) {
	reqID := uuid.New().String()
	start := time.Now()

	d.logger.Info("llm.http.request",
		"req_id", reqID,
		"method", req.Method,
		"url", req.URL.Redacted(),
		"content_length", req.ContentLength,
	)

	resp, err := d.next.Do(req)
	if err != nil {
		d.logger.Error("llm.http.send_error", "req_id", reqID, "error", err, "elapsed_ms", time.Since(start).Milliseconds())
		return nil, err
	}

	level := slog.LevelInfo
	if resp.StatusCode/100 != 2 {
		level = slog.LevelWarn
	}
	d.logger.Log(req.Context(), level, "llm.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return resp, nil
}

package llm

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(r *http.Request) (*http.Response, error) { return f(r) }

func TestLoggingDoer(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = io.WriteString(w, `{"error":{"message":"rate limit"}}`)
	}))
	defer srv.Close()

	d := NewLoggingDoer(nil, time.Second, logger)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/chat/completions", strings.NewReader("{}"))
	require.NoError(t, err)

	resp, err := d.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "rate limit", "body is passed through unread")
	assert.Contains(t, buf.String(), "llm.http.request")
	assert.Contains(t, buf.String(), "llm.http.response")
	assert.Contains(t, buf.String(), "level=WARN")
}

func TestLoggingDoer_SendError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	boom := errors.New("dial tcp: connection refused")
	d := NewLoggingDoer(doerFunc(func(*http.Request) (*http.Response, error) { return nil, boom }), 0, logger)

	req, err := http.NewRequest(http.MethodPost, "http://example.invalid/v1/chat/completions", nil)
	require.NoError(t, err)
	_, err = d.Do(req)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, buf.String(), "llm.http.send_error")
}

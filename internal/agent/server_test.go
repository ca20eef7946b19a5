package agent

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duck-agent/internal/domain"
)

type fakeAsker struct {
	resp *Response
	err  error
}

func (f *fakeAsker) Ask(_ context.Context, _ string) (*Response, error) {
	return f.resp, f.err
}

func newTestServer(t *testing.T, asker Asker) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHTTPHandler(asker, logger, ServerConfig{
		RateLimitRPS:   100,
		RateLimitBurst: 100,
		AllowedOrigins: []string{"*"},
	})
}

func TestHealthEndpoint(t *testing.T) {
	h := newTestServer(t, &fakeAsker{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAskEndpoint(t *testing.T) {
	asker := &fakeAsker{resp: &Response{
		Question: "count the rows",
		Intent:   domain.IntentDeterministic,
		SQL:      "SELECT COUNT(*) AS row_count FROM read_parquet(?) LIMIT ?",
		Answer:   "Answer: row_count = 9",
	}}
	h := newTestServer(t, asker)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"question":"count the rows"}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var got Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Answer: row_count = 9", got.Answer)
	assert.Equal(t, domain.IntentDeterministic, got.Intent)
}

func TestAskEndpointRejectsEmptyQuestion(t *testing.T) {
	h := newTestServer(t, &fakeAsker{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"question":"  "}`))
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "question is required")
}

func TestAskEndpointRejectsBadJSON(t *testing.T) {
	h := newTestServer(t, &fakeAsker{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{`))
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAskEndpointErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"validation", domain.ErrValidation("k out of range"), http.StatusBadRequest},
		{"unknown column", domain.ErrUnknownColumn("pipline_name"), http.StatusBadRequest},
		{"malformed filter", domain.ErrMalformedFilter("eff_gas_day", domain.OpBetween, "want 2 values"), http.StatusBadRequest},
		{"dataset unreadable", domain.ErrDatasetUnreadable("data.parquet", assert.AnError), http.StatusBadGateway},
		{"other", assert.AnError, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := newTestServer(t, &fakeAsker{err: tc.err})

			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/ask", strings.NewReader(`{"question":"q"}`))
			h.ServeHTTP(rec, req)

			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

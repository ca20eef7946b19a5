package llm

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"duck-agent/internal/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New("test-key", "test-model", slog.New(slog.NewTextHandler(io.Discard, nil)))
	c.baseURL = srv.URL
	return c
}

func chatReply(t *testing.T, w http.ResponseWriter, content string) {
	t.Helper()
	err := json.NewEncoder(w).Encode(map[string]interface{}{
		"choices": []map[string]interface{}{
			{"message": map[string]string{"role": "assistant", "content": content}},
		},
	})
	require.NoError(t, err)
}

func TestNewWithoutKeyIsDisabled(t *testing.T) {
	c := New("", "gpt-4o-mini", nil)
	assert.Nil(t, c)
	assert.False(t, c.Enabled())
}

func TestChooseAnalyticTool(t *testing.T) {
	var gotBody chatRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		chatReply(t, w, `{"tool": "clustering", "params": {"k": 3, "scaling": "minmax"}}`)
	})

	d, err := c.ChooseAnalyticTool(context.Background(), "segment the pipelines", []string{"pipeline_name", "eff_gas_day"})
	require.NoError(t, err)
	assert.Equal(t, "clustering", d.Tool)
	assert.Equal(t, float64(3), d.Params["k"])
	assert.Equal(t, "test-model", gotBody.Model)
	assert.Contains(t, gotBody.Messages[1].Content, "pipeline_name, eff_gas_day")
}

func TestChooseAnalyticToolStripsFences(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, "```json\n{\"tool\": \"trends\", \"params\": {\"by\": \"day\"}}\n```")
	})

	d, err := c.ChooseAnalyticTool(context.Background(), "how are volumes trending", nil)
	require.NoError(t, err)
	assert.Equal(t, "trends", d.Tool)
	assert.Equal(t, "day", d.Params["by"])
}

func TestChooseAnalyticToolRejectsMissingTool(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, `{"params": {}}`)
	})

	_, err := c.ChooseAnalyticTool(context.Background(), "anything", nil)
	require.Error(t, err)
}

func TestSummarizeAnswerMetadataOnly(t *testing.T) {
	var prompt string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		prompt = req.Messages[1].Content
		chatReply(t, w, "Total volume grew through Q2.")
	})

	res := &domain.Result{
		Columns:  []string{"month", "total_scheduled_quantity"},
		Rows:     [][]interface{}{{"2024-01-01", float64(42)}},
		RowCount: 1,
	}
	summary, err := c.SummarizeAnswer(context.Background(), "how much gas", "SELECT 1", res, nil, 8)
	require.NoError(t, err)
	assert.Equal(t, "Total volume grew through Q2.", summary)
	assert.Contains(t, prompt, "rows=1, cols=2")
	assert.Contains(t, prompt, `"schema_columns":8`)
	assert.NotContains(t, prompt, "42", "row values stay out of prompts unless previews are enabled")
}

// Aggregate-only plans carry no raw record values, so their rows may be
// previewed even without the raw-preview override.
func TestSummarizeAnswerPreviewsAggregateOnlyPlans(t *testing.T) {
	var prompt string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		prompt = req.Messages[1].Content
		chatReply(t, w, "ok")
	})

	plan := &domain.QueryPlan{Aggregations: []domain.Projection{{Alias: "row_count", Expr: "COUNT(*)"}}}
	res := &domain.Result{
		Columns:  []string{"row_count"},
		Rows:     [][]interface{}{{int64(9)}},
		RowCount: 1,
	}
	_, err := c.SummarizeAnswer(context.Background(), "count rows", "SELECT COUNT(*)", res, plan, 8)
	require.NoError(t, err)
	assert.Contains(t, prompt, `"has_aggregations":true`)
	assert.Contains(t, prompt, "Preview (first rows):")
	assert.Contains(t, prompt, "9")
}

func TestSummarizeAnswerWithPreview(t *testing.T) {
	var prompt string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		prompt = req.Messages[1].Content
		chatReply(t, w, "ok")
	})
	c.AllowRawPreview = true

	res := &domain.Result{
		Columns:  []string{"row_count"},
		Rows:     [][]interface{}{{int64(7)}},
		RowCount: 1,
	}
	_, err := c.SummarizeAnswer(context.Background(), "count rows", "SELECT COUNT(*)", res, nil, 8)
	require.NoError(t, err)
	assert.Contains(t, prompt, "Preview (first rows):")
	assert.Contains(t, prompt, "7")
}

func TestChatSurfacesAPIError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"error": map[string]string{"message": "invalid api key"},
		})
	})

	_, err := c.SummarizeAnswer(context.Background(), "q", "SELECT 1", &domain.Result{}, nil, 0)
	require.ErrorContains(t, err, "invalid api key")
}

// Package llm holds the optional OpenAI integration: a fallback planner
// that picks an analytics tool for questions the rule table cannot parse,
// and a narrative summarizer. Both are supplements. Callers must treat a
// nil client or an error as "no model available" and carry on.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"duck-agent/internal/answer"
	"duck-agent/internal/domain"
)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"

	maxSQLChars = 4000
)

// Client talks to the OpenAI chat-completions API.
type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
	logger  *slog.Logger

	// AllowRawPreview permits sending truncated result rows in prompts.
	// Off by default: prompts then carry only shape metadata.
	AllowRawPreview bool
}

// New returns a client, or nil when no API key is configured. A nil
// *Client is a valid "disabled" client for the orchestrator to check.
func New(apiKey, model string, logger *slog.Logger) *Client {
	if apiKey == "" {
		return nil
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// Enabled reports whether the client can make calls.
func (c *Client) Enabled() bool { return c != nil }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) chat(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("marshal chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat completion call: %w", err)
	}
	defer resp.Body.Close()

	var decoded chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if decoded.Error != nil {
		return "", fmt.Errorf("chat completion: %s", decoded.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("chat completion: status %d", resp.StatusCode)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty choices")
	}
	return strings.TrimSpace(decoded.Choices[0].Message.Content), nil
}

const toolCatalog = `Allowed tools:
- correlation: compute correlations across pipeline daily totals. params: {method:'pearson'|'spearman', include_pvalue:bool}
- clustering: cluster pipelines by monthly totals. params: {k:int (1-20), scaling:'standard'|'minmax'|'none', seed:int}
- anomalies_vs_category: flag loc_name anomalies vs category baselines. params: {z:float (1-10), min_days:int (1-365), year:int?, state:str?, rec_del_sign:int?}
- anomalies_iqr: flag daily total outliers via IQR. params: {k:float (0.5-5), limit:int}
- sudden_shifts: detect rolling deviations. params: {window:int (3-60), sigma:float (1-10), limit:int}
- trends: summarize trends by 'month' or 'day' with moving averages. params: {by:'month'|'day', yoy:bool?}`

// ChooseAnalyticTool asks the model to map a question to one of the fixed
// analytics tools. Column names go into the prompt; data values never do.
func (c *Client) ChooseAnalyticTool(ctx context.Context, question string, schemaColumns []string) (*domain.AnalyticDirective, error) {
	system := "You are a planning assistant that maps natural-language questions to one of the allowed analytics tools. " +
		"Only respond with valid JSON. Do NOT invent columns or tools."
	user := fmt.Sprintf("Schema columns: %s\n\nQuestion: %s\n\n%s\nRespond with JSON object with keys 'tool' and 'params'.",
		strings.Join(schemaColumns, ", "), question, toolCatalog)

	content, err := c.chat(ctx, system, user, 0.1, 200)
	if err != nil {
		return nil, err
	}

	var directive struct {
		Tool   string                 `json:"tool"`
		Params map[string]interface{} `json:"params"`
	}
	if err := json.Unmarshal([]byte(extractJSON(content)), &directive); err != nil {
		return nil, fmt.Errorf("parse tool choice: %w", err)
	}
	if directive.Tool == "" {
		return nil, fmt.Errorf("tool choice missing tool name")
	}
	if directive.Params == nil {
		directive.Params = map[string]interface{}{}
	}
	return &domain.AnalyticDirective{Tool: directive.Tool, Params: directive.Params}, nil
}

// SummarizeAnswer asks the model for a short narrative over an executed
// query. By default it sees only the question, the SQL, result shape
// metadata, and the plan's shape. Raw rows go into the prompt only when
// explicitly allowed or when the plan is aggregate-only, and always
// capped through answer.RedactPreviewRows.
func (c *Client) SummarizeAnswer(ctx context.Context, question, sqlText string, res *domain.Result, plan *domain.QueryPlan, schemaColumns int) (string, error) {
	system := "You are a data analyst assistant. Explain results clearly, conservatively, and concisely. " +
		"Include: what was computed, key patterns, and short caveats. If a preview is not provided, reason using metadata only."

	if len(sqlText) > maxSQLChars {
		sqlText = sqlText[:maxSQLChars]
	}
	user := fmt.Sprintf("Question:\n%s\n\nExecuted SQL (truncated if long):\n%s\n\nResult metadata:\n%s\n",
		question, sqlText, resultMetadata(res))
	if shape, err := json.Marshal(answer.LLMContextSummary(schemaColumns, plan)); err == nil {
		user += "\nPlan shape:\n" + string(shape) + "\n"
	}
	if c.AllowRawPreview || answer.PlanIsAggregateOnly(plan) {
		rows := 0
		if res != nil {
			rows = len(res.Rows)
		}
		if preview := renderPreview(res, answer.RedactPreviewRows(rows)); preview != "" {
			user += "\nPreview (first rows):\n" + preview + "\n"
		}
	}

	return c.chat(ctx, system, user, 0.2, 400)
}

func resultMetadata(res *domain.Result) string {
	if res == nil {
		return "result metadata unavailable"
	}
	cols := res.Columns
	if len(cols) > 20 {
		cols = cols[:20]
	}
	return fmt.Sprintf("rows=%d, cols=%d (%s)", res.RowCount, len(res.Columns), strings.Join(cols, ", "))
}

func renderPreview(res *domain.Result, maxRows int) string {
	if res == nil || res.RowCount == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(strings.Join(res.Columns, " | "))
	b.WriteByte('\n')
	for i, row := range res.Rows {
		if i >= maxRows {
			break
		}
		cells := make([]string, len(row))
		for j, v := range row {
			cells[j] = fmt.Sprint(v)
		}
		b.WriteString(strings.Join(cells, " | "))
		b.WriteByte('\n')
	}
	return b.String()
}

// extractJSON strips markdown code fences models sometimes wrap JSON in.
func extractJSON(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		if i := strings.LastIndex(s, "```"); i >= 0 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}

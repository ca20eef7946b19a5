// Package agent wires the pipeline together: resolve the schema, classify
// the question, compile and execute or dispatch to analytics, then attach
// answers, caveats, and artifacts.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"duck-agent/internal/analytics"
	"duck-agent/internal/answer"
	"duck-agent/internal/domain"
	"duck-agent/internal/history"
	"duck-agent/internal/llm"
	"duck-agent/internal/planner"
	"duck-agent/internal/report"
	"duck-agent/internal/schema"
	"duck-agent/internal/sqlbuild"
)

// Executor runs parameterized SQL against the dataset engine.
type Executor interface {
	Query(ctx context.Context, sqlText string, params []interface{}) (*domain.Result, error)
}

// Summarizer produces optional model-written narratives. *llm.Client
// satisfies it; nil means disabled.
type Summarizer interface {
	Enabled() bool
	SummarizeAnswer(ctx context.Context, question, sqlText string, res *domain.Result, plan *domain.QueryPlan, schemaColumns int) (string, error)
	ChooseAnalyticTool(ctx context.Context, question string, schemaColumns []string) (*domain.AnalyticDirective, error)
}

// Response is one answered question. SQL is empty for analytic runs;
// Result is nil when the question could not be parsed.
type Response struct {
	Question    string           `json:"question"`
	Intent      domain.Intent    `json:"intent"`
	Tool        string           `json:"tool,omitempty"`
	SQL         string           `json:"sql,omitempty"`
	Result      *domain.Result   `json:"result,omitempty"`
	Answer      string           `json:"answer"`
	Summary     string           `json:"summary,omitempty"`
	Caveats     []string         `json:"caveats,omitempty"`
	Notes       string           `json:"notes,omitempty"`
	Suggestions []string         `json:"suggestions,omitempty"`
	RunDir      string           `json:"run_dir,omitempty"`
	Latency     time.Duration    `json:"latency_ns"`
}

// Options carries the optional collaborators. Any of them may be nil; the
// agent answers questions with whatever it has.
type Options struct {
	Profiles   *schema.ProfileCache
	Summarizer Summarizer
	Reporter   *report.Reporter
	History    *history.Store
}

// Agent answers natural-language questions over one parquet dataset.
type Agent struct {
	dataset    string
	executor   Executor
	resolver   *schema.Resolver
	classifier *planner.Classifier
	runner     *analytics.Runner
	profiles   *schema.ProfileCache
	summarizer Summarizer
	reporter   *report.Reporter
	history    *history.Store
	logger     *slog.Logger
}

// New builds an agent over the given dataset and engine.
func New(dataset string, executor Executor, resolver *schema.Resolver, runner *analytics.Runner, logger *slog.Logger, opts Options) *Agent {
	return &Agent{
		dataset:    dataset,
		executor:   executor,
		resolver:   resolver,
		classifier: planner.New(planner.DefaultConventions()),
		runner:     runner,
		profiles:   opts.Profiles,
		summarizer: opts.Summarizer,
		reporter:   opts.Reporter,
		history:    opts.History,
		logger:     logger,
	}
}

// profileSampleRows is how many rows the null-rate sampler reads per
// column when building caveats.
const profileSampleRows = 10_000

// unparsedHelp is returned when neither the rule table nor the model
// fallback produced a plan.
const unparsedHelp = "I can: anomalies vs category, correlations, clustering, sums, distincts, group-bys, and top-N by a column."

// Ask answers one question end to end.
func (a *Agent) Ask(ctx context.Context, question string) (*Response, error) {
	started := time.Now()

	snapshot, err := a.resolver.Resolve(ctx, a.dataset)
	if err != nil {
		return nil, err
	}

	parsed := a.classifier.Classify(question, snapshot)
	resp := &Response{
		Question:    question,
		Intent:      parsed.Intent,
		Notes:       parsed.Notes,
		Suggestions: parsed.Suggestions,
	}

	if parsed.Intent == domain.IntentUnknown && a.summarizer != nil && a.summarizer.Enabled() {
		directive, llmErr := a.summarizer.ChooseAnalyticTool(ctx, question, snapshot.ColumnNames())
		if llmErr != nil {
			a.logger.Warn("llm tool choice failed", "error", llmErr)
		} else if directive != nil {
			parsed.Intent = domain.IntentAnalytic
			parsed.Directive = directive
			resp.Intent = domain.IntentAnalytic
			resp.Notes = "analytics: planned by model fallback"
		}
	}

	switch parsed.Intent {
	case domain.IntentDeterministic:
		sqlText, params, err := sqlbuild.Build(a.dataset, parsed.Plan, snapshot)
		if err != nil {
			return nil, err
		}
		resp.SQL = sqlText
		resp.Result, err = a.executor.Query(ctx, sqlText, params)
		if err != nil {
			return nil, fmt.Errorf("execute plan: %w", err)
		}
	case domain.IntentAnalytic:
		resp.Tool = parsed.Directive.Tool
		var err error
		resp.Result, err = a.runner.Run(ctx, a.dataset, parsed.Directive)
		if err != nil {
			return nil, err
		}
	default:
		resp.Answer = unparsedHelp
		resp.Latency = time.Since(started)
		return resp, nil
	}

	resp.Latency = time.Since(started)
	a.attachNarrative(ctx, parsed, resp, len(snapshot.Columns))
	a.persist(ctx, parsed, resp)
	return resp, nil
}

// attachNarrative fills in the concise answer, caveats, and the optional
// model summary. Failures here are logged, never fatal: the result is
// already computed.
func (a *Agent) attachNarrative(ctx context.Context, parsed domain.ParseResult, resp *Response, schemaColumns int) {
	answerCtx := answer.Context{Intent: parsed.Intent, Analytics: resp.Tool}
	if parsed.Directive != nil {
		if m, ok := parsed.Directive.Params["method"].(string); ok {
			answerCtx.Method = m
		}
		if b, ok := parsed.Directive.Params["include_pvalue"].(bool); ok {
			answerCtx.IncludePValue = b
		}
	}
	if a.profiles != nil {
		profile, err := a.profiles.GetOrProfile(ctx, a.dataset, profileSampleRows)
		if err != nil {
			a.logger.Warn("profile dataset", "error", err)
		} else {
			answerCtx.Profile = profile
		}
	}

	resp.Answer = answer.Concise(resp.Result, answerCtx)
	resp.Caveats = answer.Caveats(resp.Result, answerCtx)

	if a.summarizer != nil && a.summarizer.Enabled() {
		sqlText := resp.SQL
		if sqlText == "" {
			sqlText = "--analytics: " + resp.Tool
		}
		summary, err := a.summarizer.SummarizeAnswer(ctx, resp.Question, sqlText, resp.Result, parsed.Plan, schemaColumns)
		if err != nil {
			a.logger.Warn("llm summary failed", "error", err)
		} else {
			resp.Summary = summary
		}
	}
}

// persist saves run artifacts and the history row. Both are best-effort.
func (a *Agent) persist(ctx context.Context, parsed domain.ParseResult, resp *Response) {
	if a.reporter != nil {
		var plan interface{}
		switch {
		case parsed.Plan != nil:
			plan = parsed.Plan
		case parsed.Directive != nil:
			plan = parsed.Directive
		}
		summary := fmt.Sprintf("Question: %s\n\n", resp.Question)
		if resp.Summary != "" {
			summary += resp.Summary + "\n\n"
		}
		summary += resp.Answer
		if resp.Notes != "" {
			summary += "\n\nNotes: " + resp.Notes
		}
		runDir, err := a.reporter.Save(report.Artifacts{
			Plan:    plan,
			SQL:     resp.SQL,
			Result:  resp.Result,
			Summary: summary,
			Latency: resp.Latency,
		})
		if err != nil {
			a.logger.Warn("save run artifacts", "error", err)
		} else {
			resp.RunDir = runDir
		}
	}

	if a.history != nil {
		rowCount := 0
		if resp.Result != nil {
			rowCount = resp.Result.RowCount
		}
		err := a.history.Record(ctx, history.Entry{
			Question: resp.Question,
			Intent:   string(resp.Intent),
			Tool:     resp.Tool,
			SQL:      resp.SQL,
			RowCount: rowCount,
			RunDir:   resp.RunDir,
			Duration: resp.Latency,
		})
		if err != nil {
			a.logger.Warn("record history", "error", err)
		}
	}
}

// compile-time check that the real client satisfies Summarizer.
var _ Summarizer = (*llm.Client)(nil)

package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/nvandessel/neurodash/internal/models"
	"github.com/nvandessel/neurodash/internal/ratelimit"
)

// SummaryURI is the resource holding a markdown overview of the dataset.
const SummaryURI = "neurodash://dataset/summary"

// registerTools registers all dataset tools with the server.
func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "neuro_statistics",
		Description: "Summarize the generated dataset: collection totals, subjects, tasks, devices and per-task/per-subject breakdowns",
	}, s.handleStatistics)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "neuro_sessions",
		Description: "List generated sessions, optionally filtered by subject, task or date range",
	}, s.handleSessions)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "neuro_session_metrics",
		Description: "Get recording and event counts plus mean quality metrics for one session",
	}, s.handleSessionMetrics)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "neuro_quality_average",
		Description: "Average one quality metric (snr, noiseFloor, drift, spikeAmplitude) across all recordings",
	}, s.handleQualityAverage)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "neuro_best_run",
		Description: "Get the training run with the highest accuracy",
	}, s.handleBestRun)
}

// registerResources registers MCP resources for auto-loading into context.
func (s *Server) registerResources() {
	s.server.AddResource(&sdk.Resource{
		URI:         SummaryURI,
		Name:        "neurodash-dataset-summary",
		Description: "Overview of the generated neural recording dataset.",
		MIMEType:    "text/markdown",
	}, s.handleSummaryResource)
}

func (s *Server) handleStatistics(ctx context.Context, req *sdk.CallToolRequest, args StatisticsInput) (_ *sdk.CallToolResult, _ StatisticsOutput, retErr error) {
	start := time.Now()
	defer func() { s.auditTool("neuro_statistics", start, retErr, toolParams(nil)) }()

	if err := ratelimit.CheckLimit(s.toolLimiters, "neuro_statistics"); err != nil {
		return nil, StatisticsOutput{}, err
	}

	return nil, StatisticsOutput{
		Statistics: s.catalog.Statistics(),
		Tasks:      s.catalog.TaskAnalysis(),
		Subjects:   s.catalog.SubjectAnalysis(),
	}, nil
}

func (s *Server) handleSessions(ctx context.Context, req *sdk.CallToolRequest, args SessionsInput) (_ *sdk.CallToolResult, _ SessionsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("neuro_sessions", start, retErr, toolParams(map[string]any{
			"subject": args.Subject, "task": args.Task, "from": args.From, "to": args.To,
		}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "neuro_sessions"); err != nil {
		return nil, SessionsOutput{}, err
	}

	sessions := s.catalog.Sessions()
	if args.From != "" || args.To != "" {
		from, to := args.From, args.To
		if to == "" {
			to = "9999-12-31"
		}
		sessions = s.catalog.SessionsByDateRange(from, to)
	}

	out := SessionsOutput{Sessions: []SessionSummary{}}
	for _, sess := range sessions {
		if args.Subject != "" && sess.Subject != args.Subject {
			continue
		}
		if args.Task != "" && sess.Task != args.Task {
			continue
		}
		out.Sessions = append(out.Sessions, SessionSummary{
			ID:         sess.ID,
			Subject:    sess.Subject,
			Date:       sess.Date,
			Task:       sess.Task,
			Duration:   sess.Duration,
			Channels:   sess.Channels,
			Quality:    sess.Metadata.Quality,
			Recordings: len(s.catalog.RecordingsBySession(sess.ID)),
			Events:     len(s.catalog.EventsBySession(sess.ID)),
		})
	}
	out.Count = len(out.Sessions)
	return nil, out, nil
}

func (s *Server) handleSessionMetrics(ctx context.Context, req *sdk.CallToolRequest, args SessionMetricsInput) (_ *sdk.CallToolResult, _ SessionMetricsOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("neuro_session_metrics", start, retErr, toolParams(map[string]any{"session_id": args.SessionID}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "neuro_session_metrics"); err != nil {
		return nil, SessionMetricsOutput{}, err
	}
	if args.SessionID == "" {
		return nil, SessionMetricsOutput{}, fmt.Errorf("session_id is required")
	}

	m, ok := s.catalog.SessionMetrics(args.SessionID)
	if !ok {
		return nil, SessionMetricsOutput{}, fmt.Errorf("session not found: %s", args.SessionID)
	}
	return nil, SessionMetricsOutput{Metrics: *m}, nil
}

func (s *Server) handleQualityAverage(ctx context.Context, req *sdk.CallToolRequest, args QualityAverageInput) (_ *sdk.CallToolResult, _ QualityAverageOutput, retErr error) {
	start := time.Now()
	defer func() {
		s.auditTool("neuro_quality_average", start, retErr, toolParams(map[string]any{"metric_type": args.MetricType}))
	}()

	if err := ratelimit.CheckLimit(s.toolLimiters, "neuro_quality_average"); err != nil {
		return nil, QualityAverageOutput{}, err
	}

	r, ok := models.MetricRanges[args.MetricType]
	if !ok {
		return nil, QualityAverageOutput{}, fmt.Errorf("unknown metric type %q, want one of %s",
			args.MetricType, strings.Join(models.MetricTypes, ", "))
	}

	return nil, QualityAverageOutput{
		MetricType: args.MetricType,
		Average:    s.catalog.AverageQualityMetric(args.MetricType),
		Count:      len(s.catalog.QualityMetricsByType(args.MetricType)),
		Range:      r,
	}, nil
}

func (s *Server) handleBestRun(ctx context.Context, req *sdk.CallToolRequest, args BestRunInput) (_ *sdk.CallToolResult, _ BestRunOutput, retErr error) {
	start := time.Now()
	defer func() { s.auditTool("neuro_best_run", start, retErr, toolParams(nil)) }()

	if err := ratelimit.CheckLimit(s.toolLimiters, "neuro_best_run"); err != nil {
		return nil, BestRunOutput{}, err
	}

	run, ok := s.catalog.BestTrainingRun()
	return nil, BestRunOutput{Found: ok, Run: run}, nil
}

// handleSummaryResource renders the dataset overview as markdown.
func (s *Server) handleSummaryResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      SummaryURI,
				MIMEType: "text/markdown",
				Text:     s.summaryMarkdown(),
			},
		},
	}, nil
}

func (s *Server) summaryMarkdown() string {
	stats := s.catalog.Statistics()

	var sb strings.Builder
	sb.WriteString("# Neural Recording Dataset\n\n")
	if stats.TotalSessions == 0 {
		sb.WriteString("The dataset is empty. Generate one with `neurodash generate`.\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "- Sessions: %d\n", stats.TotalSessions)
	fmt.Fprintf(&sb, "- Recordings: %d\n", stats.TotalRecordings)
	fmt.Fprintf(&sb, "- Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(&sb, "- Quality metrics: %d\n", stats.TotalQualityMetrics)
	fmt.Fprintf(&sb, "- Features: %d\n", stats.TotalFeatures)
	fmt.Fprintf(&sb, "- Training runs: %d\n", stats.TotalTrainingRuns)
	fmt.Fprintf(&sb, "- Registry entries: %d\n\n", stats.TotalRegistryEntries)

	fmt.Fprintf(&sb, "Subjects: %s\n\n", strings.Join(stats.Subjects, ", "))
	fmt.Fprintf(&sb, "Tasks: %s\n\n", strings.Join(stats.Tasks, ", "))
	fmt.Fprintf(&sb, "Mean session length %.1f min over %.1f channels.\n", stats.AvgSessionDuration, stats.AvgChannels)

	if run, ok := s.catalog.BestTrainingRun(); ok {
		fmt.Fprintf(&sb, "\nBest training run: %s (%s, accuracy %.3f).\n", run.Name, run.ModelType, run.Accuracy)
	}
	return sb.String()
}

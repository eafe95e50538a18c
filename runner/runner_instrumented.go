package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"agenttools"
	"agenttools/tools"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentedRunner is an instrumented version of the Runner with comprehensive observability metrics.
type InstrumentedRunner struct {
	toolProvider agenttools.ToolProvider
	maxCalls     int
	logger       agenttools.InvocationLogger
	tracer       trace.Tracer
	meter        metric.Meter
}

// NewInstrumentedRunner initializes a new instrumented runner.
func NewInstrumentedRunner(toolProvider agenttools.ToolProvider, maxCalls int, logger agenttools.InvocationLogger, tracer trace.Tracer, meter metric.Meter) *InstrumentedRunner {
	return &InstrumentedRunner{
		toolProvider: toolProvider,
		maxCalls:     maxCalls,
		logger:       logger,
		tracer:       tracer,
		meter:        meter,
	}
}

// Run executes every call in the plan in order with full instrumentation. The
// semantics match Runner.Run exactly: sequential execution, first failure
// stops the batch, no retries.
func (r *InstrumentedRunner) Run(ctx context.Context, plan agenttools.CallPlan) ([]tools.Result, error) {
	ctx, span := r.tracer.Start(ctx, "InstrumentedRunner.Run")
	defer span.End()

	slog.Info("RUNNER: Starting instrumented run", "task", plan.Task, "calls", len(plan.Calls))

	// Initialize all metrics
	batchesCounter, _ := r.meter.Int64Counter("runner_batches_total",
		metric.WithDescription("Total number of call batches started"))
	batchesCompletedCounter, _ := r.meter.Int64Counter("runner_batches_completed_total",
		metric.WithDescription("Total number of call batches completed successfully"))
	batchesFailedCounter, _ := r.meter.Int64Counter("runner_batches_failed_total",
		metric.WithDescription("Total number of call batches that failed"))
	toolCallsCounter, _ := r.meter.Int64Counter("tool_calls_total",
		metric.WithDescription("Total number of tool calls executed"))
	toolCallsFailedCounter, _ := r.meter.Int64Counter("tool_calls_failed_total",
		metric.WithDescription("Total number of tool calls that failed"))

	// Gauges
	toolsAvailableGauge, _ := r.meter.Int64Gauge("tools_available_count",
		metric.WithDescription("Number of tools available to the runner"))
	callsInBatchGauge, _ := r.meter.Int64Gauge("batch_calls_count",
		metric.WithDescription("Number of calls in the current batch"))

	// Histograms
	batchDurationHist, _ := r.meter.Float64Histogram("batch_duration_seconds",
		metric.WithDescription("Total duration of call batch execution in seconds"))
	toolExecutionTimeHist, _ := r.meter.Float64Histogram("tool_execution_time_seconds",
		metric.WithDescription("Time taken to execute individual tools in seconds"))

	batchesCounter.Add(ctx, 1)
	toolsAvailableGauge.Record(ctx, int64(len(r.toolProvider.GetTools())))
	callsInBatchGauge.Record(ctx, int64(len(plan.Calls)))

	if len(plan.Calls) == 0 {
		batchesFailedCounter.Add(ctx, 1)
		span.SetStatus(codes.Error, "Empty call plan")
		return nil, fmt.Errorf("call plan has no calls")
	}
	if r.maxCalls > 0 && len(plan.Calls) > r.maxCalls {
		batchesFailedCounter.Add(ctx, 1)
		span.SetStatus(codes.Error, "Call plan over batch cap")
		return nil, fmt.Errorf("call plan has %d calls, max is %d", len(plan.Calls), r.maxCalls)
	}

	invLog := agenttools.InvocationLog{
		ID:        uuid.NewString(),
		Task:      plan.Task,
		Timestamp: time.Now(),
	}
	span.SetAttributes(
		attribute.String("invocation.id", invLog.ID),
		attribute.Int("batch_calls_count", len(plan.Calls)),
	)

	batchStartTime := time.Now()
	var results []tools.Result

	for i, call := range plan.Calls {
		ctx, callSpan := r.tracer.Start(ctx, fmt.Sprintf("InstrumentedRunner.Run.Call.%d", i+1), trace.WithAttributes(
			attribute.String("tool_name", call.Name),
		))

		toolCallsCounter.Add(ctx, 1, metric.WithAttributes(
			attribute.String("tool_name", call.Name),
		))

		tlog := agenttools.ToolCallLog{Name: call.Name, ToolUseID: call.ToolUseID, Input: call.Input}

		tool, err := r.toolProvider.GetTool(call.Name)
		if err != nil {
			toolCallsFailedCounter.Add(ctx, 1, metric.WithAttributes(
				attribute.String("tool_name", call.Name),
				attribute.String("error_type", "tool_not_found"),
			))
			callSpan.SetStatus(codes.Error, "Tool not found")
			callSpan.RecordError(err)
			callSpan.End()
			r.failBatch(ctx, span, invLog, tlog, err, batchesFailedCounter, batchDurationHist, batchStartTime)
			return results, fmt.Errorf("call %d (%s): %w", i+1, call.Name, err)
		}

		input, _ := tools.NormalizeInput(call.Input).(map[string]any)
		tlog.Input = input

		if err := tools.ValidateInput(tool, input); err != nil {
			toolCallsFailedCounter.Add(ctx, 1, metric.WithAttributes(
				attribute.String("tool_name", call.Name),
				attribute.String("error_type", "invalid_input"),
			))
			callSpan.SetStatus(codes.Error, "Input validation failed")
			callSpan.RecordError(err)
			callSpan.End()
			r.failBatch(ctx, span, invLog, tlog, err, batchesFailedCounter, batchDurationHist, batchStartTime)
			return results, fmt.Errorf("call %d (%s): %w", i+1, call.Name, err)
		}

		slog.Info("RUNNER: Executing tool call", "call", i+1, "name", call.Name)

		toolStartTime := time.Now()
		output, err := tool.Run(ctx, input)
		toolDuration := time.Since(toolStartTime)
		tlog.DurationMS = toolDuration.Milliseconds()
		toolExecutionTimeHist.Record(ctx, toolDuration.Seconds(), metric.WithAttributes(
			attribute.String("tool_name", call.Name),
		))

		if err != nil {
			toolCallsFailedCounter.Add(ctx, 1, metric.WithAttributes(
				attribute.String("tool_name", call.Name),
				attribute.String("error_type", "tool_execution_failed"),
			))
			callSpan.SetStatus(codes.Error, "Tool execution failed")
			callSpan.RecordError(err)
			callSpan.End()
			r.failBatch(ctx, span, invLog, tlog, err, batchesFailedCounter, batchDurationHist, batchStartTime)
			return results, fmt.Errorf("call %d (%s): %w", i+1, call.Name, err)
		}

		slog.Info("RUNNER: Tool call completed", "call", i+1, "name", call.Name, "duration_ms", tlog.DurationMS)

		callSpan.AddEvent("Tool executed successfully", trace.WithAttributes(
			attribute.String("tool_name", call.Name),
			attribute.Float64("tool_execution_time_seconds", toolDuration.Seconds()),
		))
		callSpan.End()

		tlog.Output = output
		invLog.ToolCalls = append(invLog.ToolCalls, tlog)
		results = append(results, tools.Result{
			Name:      tool.Name(),
			ToolUseID: call.ToolUseID,
			Output:    output,
		})
	}

	batchesCompletedCounter.Add(ctx, 1)
	batchDurationHist.Record(ctx, time.Since(batchStartTime).Seconds())
	r.logInvocation(invLog)
	return results, nil
}

// failBatch records the failing call in the invocation log and closes out the
// batch-level metrics and span before the caller returns the error.
func (r *InstrumentedRunner) failBatch(ctx context.Context, span trace.Span, invLog agenttools.InvocationLog, tlog agenttools.ToolCallLog, err error, failed metric.Int64Counter, durationHist metric.Float64Histogram, start time.Time) {
	tlog.Error = err.Error()
	invLog.ToolCalls = append(invLog.ToolCalls, tlog)
	invLog.Error = err.Error()

	failed.Add(ctx, 1)
	durationHist.Record(ctx, time.Since(start).Seconds())
	span.SetStatus(codes.Error, "Batch failed")
	span.RecordError(err)

	r.logInvocation(invLog)
}

func (r *InstrumentedRunner) logInvocation(inv agenttools.InvocationLog) {
	if r.logger != nil {
		if err := r.logger.LogInvocation(inv); err != nil {
			slog.Error("Failed to log invocation", "error", err, "id", inv.ID)
		}
	}
}

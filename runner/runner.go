package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"agenttools"
	"agenttools/tools"

	"github.com/google/uuid"
)

// Runner executes a call plan against a tool registry: look up, normalize,
// validate, invoke, collect. Calls run sequentially; the first failure stops
// the batch and the error propagates to the caller unretried.
type Runner struct {
	toolProvider agenttools.ToolProvider
	maxCalls     int
	logger       agenttools.InvocationLogger
}

// NewRunner initializes a new runner. maxCalls caps the batch size; zero or
// negative means no cap.
func NewRunner(toolProvider agenttools.ToolProvider, maxCalls int, logger agenttools.InvocationLogger) *Runner {
	return &Runner{
		toolProvider: toolProvider,
		maxCalls:     maxCalls,
		logger:       logger,
	}
}

// Run executes every call in the plan in order and returns one result per
// completed call. On failure it returns the results produced so far along
// with an error identifying the failing call.
func (r *Runner) Run(ctx context.Context, plan agenttools.CallPlan) ([]tools.Result, error) {
	if len(plan.Calls) == 0 {
		return nil, fmt.Errorf("call plan has no calls")
	}
	if r.maxCalls > 0 && len(plan.Calls) > r.maxCalls {
		return nil, fmt.Errorf("call plan has %d calls, max is %d", len(plan.Calls), r.maxCalls)
	}

	slog.Info("RUNNER: Starting run", "task", plan.Task, "calls", len(plan.Calls))

	invLog := agenttools.InvocationLog{
		ID:        uuid.NewString(),
		Task:      plan.Task,
		Timestamp: time.Now(),
	}

	var results []tools.Result

	for i, call := range plan.Calls {
		tlog := agenttools.ToolCallLog{Name: call.Name, ToolUseID: call.ToolUseID, Input: call.Input}

		tool, err := r.toolProvider.GetTool(call.Name)
		if err != nil {
			tlog.Error = err.Error()
			invLog.ToolCalls = append(invLog.ToolCalls, tlog)
			invLog.Error = err.Error()
			r.logInvocation(invLog)
			return results, fmt.Errorf("call %d (%s): %w", i+1, call.Name, err)
		}

		input, _ := tools.NormalizeInput(call.Input).(map[string]any)
		tlog.Input = input

		if err := tools.ValidateInput(tool, input); err != nil {
			tlog.Error = err.Error()
			invLog.ToolCalls = append(invLog.ToolCalls, tlog)
			invLog.Error = err.Error()
			r.logInvocation(invLog)
			return results, fmt.Errorf("call %d (%s): %w", i+1, call.Name, err)
		}

		slog.Info("RUNNER: Executing tool call", "call", i+1, "name", call.Name)

		start := time.Now()
		output, err := tool.Run(ctx, input)
		tlog.DurationMS = time.Since(start).Milliseconds()

		if err != nil {
			tlog.Error = err.Error()
			invLog.ToolCalls = append(invLog.ToolCalls, tlog)
			invLog.Error = err.Error()
			r.logInvocation(invLog)
			return results, fmt.Errorf("call %d (%s): %w", i+1, call.Name, err)
		}

		slog.Info("RUNNER: Tool call completed", "call", i+1, "name", call.Name, "duration_ms", tlog.DurationMS)

		tlog.Output = output
		invLog.ToolCalls = append(invLog.ToolCalls, tlog)
		results = append(results, tools.Result{
			Name:      tool.Name(),
			ToolUseID: call.ToolUseID,
			Output:    output,
		})
	}

	r.logInvocation(invLog)
	return results, nil
}

func (r *Runner) logInvocation(inv agenttools.InvocationLog) {
	if r.logger != nil {
		if err := r.logger.LogInvocation(inv); err != nil {
			slog.Error("Failed to log invocation", "error", err, "id", inv.ID)
		}
	}
}

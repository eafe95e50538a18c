package runner

import (
	"context"
	"testing"

	"agenttools"
	"agenttools/tools"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

func newNoopInstrumentedRunner(provider agenttools.ToolProvider, maxCalls int, logger agenttools.InvocationLogger) *InstrumentedRunner {
	tracer := tracenoop.NewTracerProvider().Tracer("runner-test")
	meter := metricnoop.NewMeterProvider().Meter("runner-test")
	return NewInstrumentedRunner(provider, maxCalls, logger, tracer, meter)
}

func TestInstrumentedRunner_Run(t *testing.T) {
	t.Run("matches Runner semantics on success", func(t *testing.T) {
		provider, _ := newEchoProvider()
		logger := &captureLogger{}
		r := newNoopInstrumentedRunner(provider, 4, logger)

		plan := agenttools.CallPlan{
			Task: "echo",
			Calls: []tools.Call{
				{Name: "echo", Input: map[string]any{"query": "hello"}, ToolUseID: "t1"},
			},
		}

		results, err := r.Run(context.Background(), plan)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, map[string]any{"result": "hello"}, results[0].Output)

		require.Len(t, logger.invocations, 1)
		assert.Len(t, logger.invocations[0].ToolCalls, 1)
	})

	t.Run("empty plan is an error", func(t *testing.T) {
		provider, _ := newEchoProvider()
		r := newNoopInstrumentedRunner(provider, 4, &captureLogger{})

		_, err := r.Run(context.Background(), agenttools.CallPlan{Task: "nothing"})
		assert.Error(t, err)
	})

	t.Run("unknown tool stops the batch and logs the failure", func(t *testing.T) {
		provider, echo := newEchoProvider()
		logger := &captureLogger{}
		r := newNoopInstrumentedRunner(provider, 4, logger)

		plan := agenttools.CallPlan{
			Task: "mixed",
			Calls: []tools.Call{
				{Name: "echo", Input: map[string]any{"query": "ok"}},
				{Name: "missing", Input: map[string]any{"query": "nope"}},
			},
		}

		results, err := r.Run(context.Background(), plan)
		require.Error(t, err)
		assert.Len(t, results, 1)
		assert.Equal(t, 1, echo.calls)

		require.Len(t, logger.invocations, 1)
		assert.NotEmpty(t, logger.invocations[0].Error)
	})

	t.Run("schema rejection prevents execution", func(t *testing.T) {
		provider, echo := newEchoProvider()
		r := newNoopInstrumentedRunner(provider, 4, &captureLogger{})

		plan := agenttools.CallPlan{
			Task:  "bad input",
			Calls: []tools.Call{{Name: "echo", Input: map[string]any{"query": 99}}},
		}

		_, err := r.Run(context.Background(), plan)
		assert.Error(t, err)
		assert.Equal(t, 0, echo.calls)
	})
}

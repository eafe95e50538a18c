package agenttools

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// InvocationLogger is the interface for audit logging of executed call plans.
type InvocationLogger interface {
	LogInvocation(invocation InvocationLog) error
}

// NewInvocationLogFilePath returns a file path based on a cleaned up label (typically the plan's task) to make it easier to identify specific logs produced by various runs.
func NewInvocationLogFilePath(label string) string {
	return fmt.Sprintf(
		"./logs/%d.%s.json",
		time.Now().Unix(),
		strings.ReplaceAll(strings.ToLower(label), " ", "_"),
	)
}

// InvocationLog represents a single executed call plan
type InvocationLog struct {
	ID        string        `json:"id"`
	Task      string        `json:"task,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
	ToolCalls []ToolCallLog `json:"tool_calls,omitempty"`
	Error     string        `json:"error,omitempty"`
}

// ToolCallLog represents a tool execution within an invocation
type ToolCallLog struct {
	Name       string         `json:"name"`
	ToolUseID  string         `json:"tool_use_id,omitempty"`
	Input      map[string]any `json:"input"`
	Output     map[string]any `json:"output"`
	DurationMS int64          `json:"duration_ms"`
	Error      string         `json:"error,omitempty"`
}

// FileInvocationLogger logs to a file, accumulating invocations and flushing at the end
type FileInvocationLogger struct {
	invocations []InvocationLog
	writer      io.Writer
}

// NewFileInvocationLogger creates a new file-based invocation logger
func NewFileInvocationLogger(writer io.Writer) *FileInvocationLogger {
	return &FileInvocationLogger{
		invocations: make([]InvocationLog, 0),
		writer:      writer,
	}
}

// LogInvocation logs an invocation to the buffer (does not flush immediately)
func (fil *FileInvocationLogger) LogInvocation(invocation InvocationLog) error {
	fil.invocations = append(fil.invocations, invocation)
	return nil
}

// Flush flushes all accumulated invocations to the writer
func (fil *FileInvocationLogger) Flush() error {
	if fil.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"invocation_session": map[string]any{
			"timestamp":   time.Now(),
			"invocations": fil.invocations,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal invocation log: %w", err)
	}

	if _, err := fil.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write invocation log: %w", err)
	}

	// Clear the buffer after successful write
	fil.invocations = fil.invocations[:0]
	return nil
}

// NoOpInvocationLogger is a logger that discards all log entries
type NoOpInvocationLogger struct{}

// NewNoOpInvocationLogger creates a new no-op invocation logger
func NewNoOpInvocationLogger() *NoOpInvocationLogger {
	return &NoOpInvocationLogger{}
}

// LogInvocation discards the invocation log (no-op)
func (nop *NoOpInvocationLogger) LogInvocation(invocation InvocationLog) error {
	return nil
}

// StdoutInvocationLogger logs each invocation as a JSON line to stdout (for Lambda/CloudWatch)
type StdoutInvocationLogger struct{}

// NewStdoutInvocationLogger creates a new stdout-based invocation logger
func NewStdoutInvocationLogger() *StdoutInvocationLogger {
	return &StdoutInvocationLogger{}
}

// LogInvocation writes the invocation as a JSON line to os.Stdout
func (l *StdoutInvocationLogger) LogInvocation(invocation InvocationLog) error {
	data, err := json.Marshal(invocation)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, string(data))
	return nil
}

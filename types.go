package agenttools

import (
	"context"
	"net/http"

	"agenttools/tools"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type AnnotationClient interface {
	PutRecord(ctx context.Context, toolName string, comment string, rating int) error
}

type ToolProvider interface {
	GetTools() []tools.Tool
	GetTool(name string) (tools.Tool, error)
}

type ToolRunner interface {
	Run(ctx context.Context, plan CallPlan) ([]tools.Result, error)
}

// CallPlan is a batch of tool invocations submitted by an external orchestrator.
type CallPlan struct {
	Task  string       `json:"task"`
	Calls []tools.Call `json:"calls"`
}

// IsValid checks if the CallPlan meets basic validation requirements. The
// task label is optional; it only decorates logs.
func (cp *CallPlan) IsValid() bool {
	// Must have at least one call
	if len(cp.Calls) == 0 {
		return false
	}

	// Each call must name a tool and carry an input payload
	for _, call := range cp.Calls {
		if call.Name == "" {
			return false
		}
		if call.Input == nil {
			return false
		}
	}

	return true
}

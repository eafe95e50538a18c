package agenttools

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"agenttools/tools"
)

func TestCallPlan_IsValid(t *testing.T) {
	tests := []struct {
		name string
		plan CallPlan
		want bool
	}{
		{
			name: "named call with input",
			plan: CallPlan{
				Task:  "lookup",
				Calls: []tools.Call{{Name: "corpus_search", Input: map[string]any{"query": "x"}}},
			},
			want: true,
		},
		{
			name: "empty task is allowed",
			plan: CallPlan{
				Calls: []tools.Call{{Name: "corpus_search", Input: map[string]any{"query": "x"}}},
			},
			want: true,
		},
		{
			name: "no calls",
			plan: CallPlan{Task: "lookup"},
			want: false,
		},
		{
			name: "unnamed call",
			plan: CallPlan{
				Calls: []tools.Call{{Input: map[string]any{"query": "x"}}},
			},
			want: false,
		},
		{
			name: "call without input",
			plan: CallPlan{
				Calls: []tools.Call{{Name: "corpus_search"}},
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.plan.IsValid())
		})
	}
}

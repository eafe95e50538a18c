package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

// AnnotationStore posts structured feedback records to an external annotation
// service for human labeling.
type AnnotationStore interface {
	PutRecord(ctx context.Context, toolName string, comment string, rating int) error
}

type AnnotationPut struct{ store AnnotationStore }

func NewAnnotationPut(store AnnotationStore) *AnnotationPut { return &AnnotationPut{store: store} }

func (t *AnnotationPut) Name() string  { return "annotation_put" }
func (t *AnnotationPut) Title() string { return "Put Annotation Record" }
func (t *AnnotationPut) Description() string {
	return "Records feedback about a previous tool result on the annotation platform for human review."
}

func (t *AnnotationPut) InputSchema() *jsonschema.Schema {
	minRating := 1.0
	maxRating := 5.0
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"tool_name": {
				Type:        "string",
				Description: "Name of the tool the feedback is about.",
			},
			"comment": {
				Type:        "string",
				Description: "Free-form feedback on the tool result.",
			},
			"rating": {
				Type:        "integer",
				Minimum:     &minRating,
				Maximum:     &maxRating,
				Description: "Optional quality rating from 1 (poor) to 5 (excellent).",
			},
		},
		Required:             []string{"tool_name", "comment"},
		AdditionalProperties: noExtraFields(),
	}
}

func (t *AnnotationPut) OutputSchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"status": {Type: "string"},
		},
		Required: []string{"status"},
	}
}

func (t *AnnotationPut) Run(ctx context.Context, input map[string]any) (map[string]any, error) {
	toolName, ok := input["tool_name"].(string)
	if !ok || strings.TrimSpace(toolName) == "" {
		return nil, fmt.Errorf("tool_name must be a non-empty string")
	}

	comment, ok := input["comment"].(string)
	if !ok || strings.TrimSpace(comment) == "" {
		return nil, fmt.Errorf("comment must be a non-empty string")
	}

	// Rating is optional; zero means unrated.
	rating, _ := intArg(input, "rating")

	if err := t.store.PutRecord(ctx, toolName, comment, rating); err != nil {
		return nil, fmt.Errorf("put annotation record: %w", err)
	}

	return map[string]any{"status": "recorded"}, nil
}

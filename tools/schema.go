package tools

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/jsonschema"
)

// noExtraFields is the "false" schema. Assigning it to AdditionalProperties
// closes an object schema so undeclared fields fail validation.
func noExtraFields() *jsonschema.Schema {
	return &jsonschema.Schema{Not: &jsonschema.Schema{}}
}

// ValidateInput checks input against the tool's declared input schema. Unknown
// fields and mistyped values are rejected here, before the tool touches any
// external resource.
func ValidateInput(t Tool, input map[string]any) error {
	schema := t.InputSchema()
	if schema == nil {
		return nil
	}

	resolved, err := schema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("resolve input schema for %q: %w", t.Name(), err)
	}

	if input == nil {
		input = map[string]any{}
	}
	if err := resolved.Validate(input); err != nil {
		return fmt.Errorf("invalid input for %q: %w", t.Name(), err)
	}
	return nil
}

// NormalizeInput recursively coerces transport-level encodings into the shapes
// tool schemas declare: whole floats become ints and stringified JSON arrays
// or objects are decoded. Entry points that accept input emitted by a language
// model should normalize before dispatching; inputs built programmatically do
// not need it.
func NormalizeInput(val any) any {
	switch v := val.(type) {
	case float64:
		// Convert whole numbers like 2.0 → 2
		if v == float64(int(v)) {
			return int(v)
		}
		return v

	case string:
		// Check if it's a stringified JSON array or object
		var decoded any
		if json.Unmarshal([]byte(v), &decoded) == nil {
			switch decoded.(type) {
			case []any, map[string]any:
				return NormalizeInput(decoded)
			}
		}
		return v

	case []any:
		// Recursively clean each array element
		for i := range v {
			v[i] = NormalizeInput(v[i])
		}
		return v

	case map[string]any:
		// Recursively clean each map value
		for key, val := range v {
			v[key] = NormalizeInput(val)
		}
		return v

	default:
		return v
	}
}

// stringList promotes a scalar filter value to a one-element list and accepts
// list-shaped values as-is. It returns nil for absent values and an error for
// anything that is not a string or a list of strings.
func stringList(val any) ([]string, error) {
	switch v := val.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected a string, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected a string or list of strings, got %T", v)
	}
}

// intArg reads an integer argument that may arrive as a JSON number (float64)
// or as an int after NormalizeInput.
func intArg(input map[string]any, key string) (int, bool) {
	switch v := input[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

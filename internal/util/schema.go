package util

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// ValidationError represents a tool argument that does not satisfy the tool's schema.
type ValidationError struct {
	Field   string `json:"field"`
	Value   any    `json:"value,omitempty"`
	Message string `json:"message"`
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

// SchemaFor derives an object schema from the exported fields of a Go struct.
// Field names come from the json tag, descriptions from the description tag.
// Fields without omitempty that are not pointers are required.
//
//	type args struct {
//		Query string `json:"query" description:"Search query"`
//	}
//	schema := util.SchemaFor(args{})
func SchemaFor(v any) map[string]any {
	t := reflect.TypeOf(v)
	if t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	properties := map[string]any{}
	if t == nil || t.Kind() != reflect.Struct {
		return map[string]any{"type": "object", "properties": properties}
	}

	required := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		tag := field.Tag.Get("json")
		if tag == "-" {
			continue
		}

		name := field.Name
		if n, _, _ := strings.Cut(tag, ","); n != "" {
			name = n
		}

		prop := map[string]any{"type": jsonType(field.Type)}
		if d := field.Tag.Get("description"); d != "" {
			prop["description"] = d
		}
		properties[name] = prop

		if !hasOmitEmpty(tag) && field.Type.Kind() != reflect.Ptr {
			required = append(required, name)
		}
	}

	schema := map[string]any{"type": "object", "properties": properties}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// RequiredFields returns the sorted required property names of schema. Both
// []string (schemas built in Go) and []any (schemas decoded from JSON) are accepted.
func RequiredFields(schema map[string]any) []string {
	var out []string
	switch req := schema["required"].(type) {
	case []string:
		out = append(out, req...)
	case []any:
		for _, r := range req {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
	}
	sort.Strings(out)
	return out
}

// ValidateParameters checks params against an object schema: every required
// field must be present and typed properties must carry a value of that type.
// Unknown fields are allowed.
func ValidateParameters(params map[string]any, schema map[string]any) error {
	for _, name := range RequiredFields(schema) {
		if _, ok := params[name]; !ok {
			return &ValidationError{Field: name, Message: "required field is missing"}
		}
	}

	properties, _ := schema["properties"].(map[string]any)
	for name, value := range params {
		prop, ok := properties[name].(map[string]any)
		if !ok {
			continue
		}
		expected, _ := prop["type"].(string)
		if !isValidType(value, expected) {
			return &ValidationError{
				Field:   name,
				Value:   value,
				Message: fmt.Sprintf("expected type %s, got %T", expected, value),
			}
		}
	}
	return nil
}

// DecodeArguments parses the JSON argument object a model attached to a
// function call. An empty string decodes to an empty map.
func DecodeArguments(raw string) (map[string]any, error) {
	args := map[string]any{}
	if strings.TrimSpace(raw) == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("invalid tool arguments: %w", err)
	}
	return args, nil
}

func jsonType(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "integer"
	case reflect.Float32, reflect.Float64:
		return "number"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct:
		return "object"
	case reflect.Ptr:
		return jsonType(t.Elem())
	default:
		return "string"
	}
}

func hasOmitEmpty(tag string) bool {
	_, opts, _ := strings.Cut(tag, ",")
	for _, o := range strings.Split(opts, ",") {
		if strings.TrimSpace(o) == "omitempty" {
			return true
		}
	}
	return false
}

func isValidType(value any, expected string) bool {
	if value == nil {
		return true
	}
	switch expected {
	case "string":
		_, ok := value.(string)
		return ok
	case "integer":
		switch v := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64: // JSON numbers decode as float64
			return v == float64(int64(v))
		}
		return false
	case "number":
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	default:
		return true
	}
}

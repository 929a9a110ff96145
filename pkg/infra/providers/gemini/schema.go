package gemini

import (
	"fmt"
	"sort"

	"google.golang.org/genai"
)

var schemaTypes = map[string]genai.Type{
	"object":  genai.TypeObject,
	"string":  genai.TypeString,
	"integer": genai.TypeInteger,
	"number":  genai.TypeNumber,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
}

// ToSchema converts the JSON schema subset used by this service into a
// genai.Schema. A ["T", "null"] type union becomes a nullable T.
func ToSchema(def map[string]any) (*genai.Schema, error) {
	if def == nil {
		return nil, fmt.Errorf("schema definition is empty")
	}

	s := &genai.Schema{}
	if err := setType(s, def["type"]); err != nil {
		return nil, err
	}
	if desc, ok := def["description"].(string); ok {
		s.Description = desc
	}

	if props, ok := def["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		names := make([]string, 0, len(props))
		for name, raw := range props {
			child, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("property %s: expected object definition, got %T", name, raw)
			}
			converted, err := ToSchema(child)
			if err != nil {
				return nil, fmt.Errorf("property %s: %w", name, err)
			}
			s.Properties[name] = converted
			names = append(names, name)
		}
		sort.Strings(names)
		s.PropertyOrdering = names
	}

	if items, ok := def["items"].(map[string]any); ok {
		converted, err := ToSchema(items)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		s.Items = converted
	}

	required, err := stringList(def["required"])
	if err != nil {
		return nil, fmt.Errorf("required: %w", err)
	}
	s.Required = required

	return s, nil
}

func setType(s *genai.Schema, raw any) error {
	switch t := raw.(type) {
	case string:
		gt, ok := schemaTypes[t]
		if !ok {
			return fmt.Errorf("unsupported schema type %q", t)
		}
		s.Type = gt
		return nil
	case []any:
		var base string
		for _, item := range t {
			name, ok := item.(string)
			if !ok {
				return fmt.Errorf("type union entries must be strings, got %T", item)
			}
			if name == "null" {
				s.Nullable = genai.Ptr(true)
				continue
			}
			if base != "" {
				return fmt.Errorf("type unions are limited to one type plus null")
			}
			base = name
		}
		return setType(s, base)
	default:
		return fmt.Errorf("unsupported schema type %v", raw)
	}
}

func stringList(raw any) ([]string, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("expected list, got %T", raw)
	}
}

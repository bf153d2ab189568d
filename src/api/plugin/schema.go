// Package plugin interprets admin-defined "standard plugin" schemas. A plugin
// is a stored list of field descriptions; assets created against a plugin are
// validated at runtime against that list. The shapes are data, not Go types.
package plugin

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	FieldText    = "text"
	FieldNumber  = "number"
	FieldDate    = "date"
	FieldBoolean = "boolean"
	FieldSelect  = "select"
)

type Field struct {
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"` // select only
}

type Fields []Field

// ParseFields decodes and sanity-checks a stored field list.
func ParseFields(raw string) (Fields, error) {
	var fields Fields
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return nil, fmt.Errorf("invalid field schema: %w", err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("field schema must declare at least one field")
	}
	seen := map[string]bool{}
	for _, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("field with empty name")
		}
		if seen[f.Name] {
			return nil, fmt.Errorf("duplicate field %q", f.Name)
		}
		seen[f.Name] = true
		switch f.Type {
		case FieldText, FieldNumber, FieldDate, FieldBoolean:
		case FieldSelect:
			if len(f.Options) == 0 {
				return nil, fmt.Errorf("select field %q has no options", f.Name)
			}
		default:
			return nil, fmt.Errorf("field %q has unknown type %q", f.Name, f.Type)
		}
	}
	return fields, nil
}

// Validate checks an asset payload against the field list. Unknown keys are
// rejected so a renamed plugin field cannot silently orphan data.
func (fields Fields) Validate(payload map[string]interface{}) error {
	byName := make(map[string]Field, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}

	for key := range payload {
		if _, ok := byName[key]; !ok {
			return fmt.Errorf("unknown field %q", key)
		}
	}

	for _, f := range fields {
		v, present := payload[f.Name]
		if !present || v == nil {
			if f.Required {
				return fmt.Errorf("missing required field %q", f.Name)
			}
			continue
		}
		if err := checkValue(f, v); err != nil {
			return err
		}
	}
	return nil
}

func checkValue(f Field, v interface{}) error {
	switch f.Type {
	case FieldText:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("field %q must be text", f.Name)
		}
	case FieldNumber:
		// json decodes numbers as float64
		if _, ok := v.(float64); !ok {
			return fmt.Errorf("field %q must be a number", f.Name)
		}
	case FieldBoolean:
		if _, ok := v.(bool); !ok {
			return fmt.Errorf("field %q must be a boolean", f.Name)
		}
	case FieldDate:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("field %q must be an RFC 3339 date string", f.Name)
		}
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			if _, err := time.Parse("2006-01-02", s); err != nil {
				return fmt.Errorf("field %q must be an RFC 3339 date string", f.Name)
			}
		}
	case FieldSelect:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("field %q must be one of its options", f.Name)
		}
		for _, opt := range f.Options {
			if s == opt {
				return nil
			}
		}
		return fmt.Errorf("field %q must be one of its options", f.Name)
	}
	return nil
}

package models

import (
	"fmt"
	"strconv"
	"strings"
)

// Input field kinds
const (
	FieldKindText   = "text"
	FieldKindNumber = "number"
	FieldKindSelect = "select"
	FieldKindEmail  = "email"
)

// InputField describes one per-item input a buyer must fill at checkout
// (e.g. the account id a top-up code is applied to).
type InputField struct {
	Name     string   `json:"name"`
	Label    string   `json:"label"`
	Kind     string   `json:"kind"`
	Required bool     `json:"required"`
	Options  []string `json:"options,omitempty"`
}

// InputSchema is validated both when a seller defines it and when a buyer
// submits values, so untyped JSON never crosses into the order path.
type InputSchema struct {
	Fields []InputField `json:"fields"`
}

func isValidFieldKind(k string) bool {
	return k == FieldKindText || k == FieldKindNumber || k == FieldKindSelect || k == FieldKindEmail
}

// ValidateDefinition checks the schema itself as supplied by a seller.
func (s *InputSchema) ValidateDefinition() error {
	seen := make(map[string]bool, len(s.Fields))
	for i, f := range s.Fields {
		if f.Name == "" {
			return fmt.Errorf("field %d: name is required", i)
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate field name %q", f.Name)
		}
		seen[f.Name] = true
		if !isValidFieldKind(f.Kind) {
			return fmt.Errorf("field %q: invalid kind %q", f.Name, f.Kind)
		}
		if f.Kind == FieldKindSelect && len(f.Options) == 0 {
			return fmt.Errorf("field %q: select requires options", f.Name)
		}
		if f.Kind != FieldKindSelect && len(f.Options) > 0 {
			return fmt.Errorf("field %q: options only allowed for select", f.Name)
		}
	}
	return nil
}

// ValidateInput checks buyer-supplied values against the schema. Unknown
// keys are rejected so only declared fields reach the order.
func (s *InputSchema) ValidateInput(values map[string]string) error {
	fields := make(map[string]InputField, len(s.Fields))
	for _, f := range s.Fields {
		fields[f.Name] = f
	}

	for name := range values {
		if _, ok := fields[name]; !ok {
			return fmt.Errorf("unknown field %q", name)
		}
	}

	for _, f := range s.Fields {
		v, present := values[f.Name]
		if !present || v == "" {
			if f.Required {
				return fmt.Errorf("field %q is required", f.Name)
			}
			continue
		}
		switch f.Kind {
		case FieldKindNumber:
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				return fmt.Errorf("field %q must be a number", f.Name)
			}
		case FieldKindSelect:
			ok := false
			for _, opt := range f.Options {
				if opt == v {
					ok = true
					break
				}
			}
			if !ok {
				return fmt.Errorf("field %q: %q is not an allowed option", f.Name, v)
			}
		case FieldKindEmail:
			if !strings.Contains(v, "@") {
				return fmt.Errorf("field %q must be an email", f.Name)
			}
		}
	}
	return nil
}

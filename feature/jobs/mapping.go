package jobs

import (
	"fmt"

	"data-loader/core/reconcile"
	"data-loader/core/transform"
)

// Rule names accepted in job files.
const (
	RuleDirect     = "direct"
	RuleConstant   = "constant"
	RuleForeignKey = "fk"
	RuleConcat     = "concat"
	RuleBoolean    = "boolean"
	RuleDate       = "date"
	RuleTime       = "time"
	RuleNormalize  = "normalize"
)

// FieldSpec is the YAML form of a transform field.
type FieldSpec struct {
	// Source is the input column.
	Source string `yaml:"source" json:"source,omitempty"`
	// Name is the output field. Defaults to Source.
	Name string `yaml:"name" json:"name"`
	// Rule selects the transformation. Defaults to direct.
	Rule string `yaml:"rule" json:"rule,omitempty"`

	// Value is the constant of constant fields.
	Value any `yaml:"value" json:"value,omitempty"`
	// Lookup is the step resolving fk fields.
	Lookup string `yaml:"lookup" json:"lookup,omitempty"`
	// NullIfBlank makes an empty fk cell yield NULL.
	NullIfBlank bool `yaml:"null_if_blank" json:"null_if_blank,omitempty"`
	// Sources are the columns joined by concat fields.
	Sources []string `yaml:"sources" json:"sources,omitempty"`
	// Format is the strftime format of date and time fields.
	Format string `yaml:"format" json:"format,omitempty"`
	// From overrides Source for date and time fields.
	From string `yaml:"from" json:"from,omitempty"`
}

// UnmarshalYAML defaults Name to Source.
func (f *FieldSpec) UnmarshalYAML(unmarshal func(any) error) error {
	type plain FieldSpec
	if err := unmarshal((*plain)(f)); err != nil {
		return err
	}
	if f.Name == "" {
		f.Name = f.Source
	}
	return nil
}

func (f FieldSpec) validate() error {
	if f.Name == "" {
		return fmt.Errorf("name or source is required")
	}

	switch f.Rule {
	case "", RuleDirect, RuleBoolean, RuleNormalize:
		if f.Source == "" {
			return fmt.Errorf("%s needs a source", f.Name)
		}
	case RuleConstant:
	case RuleForeignKey:
		if f.Source == "" || f.Lookup == "" {
			return fmt.Errorf("fk %s needs a source and a lookup", f.Name)
		}
	case RuleConcat:
		if len(f.Sources) == 0 {
			return fmt.Errorf("concat %s needs sources", f.Name)
		}
	case RuleDate, RuleTime:
		if f.Format == "" {
			return fmt.Errorf("%s %s needs a format", f.Rule, f.Name)
		}
		if f.Source == "" && f.From == "" {
			return fmt.Errorf("%s %s needs a source", f.Rule, f.Name)
		}
	default:
		return fmt.Errorf("unknown rule %q", f.Rule)
	}
	return nil
}

// buildMapping converts the field specs, resolving fk lookups by step name.
func buildMapping(specs []FieldSpec, lookups map[string]reconcile.Lookup) (transform.Mapping, error) {
	m := make(transform.Mapping, 0, len(specs))
	for _, f := range specs {
		field := transform.Field{Source: f.Source, Name: f.Name}

		switch f.Rule {
		case "", RuleDirect:
			field.Rule = transform.Direct{}
		case RuleConstant:
			field.Rule = transform.Constant{Value: f.Value}
		case RuleForeignKey:
			lookup, ok := lookups[f.Lookup]
			if !ok {
				return nil, fmt.Errorf("field %s: %w %q", f.Name, ErrUnknownStep, f.Lookup)
			}
			field.Rule = transform.ForeignKey{Lookup: lookup, NullIfBlank: f.NullIfBlank}
		case RuleConcat:
			field.Rule = transform.Concat{Sources: f.Sources}
		case RuleBoolean:
			field.Rule = transform.Boolean{}
		case RuleDate:
			field.Rule = transform.Date{Source: f.From, Format: f.Format}
		case RuleTime:
			field.Rule = transform.Time{Source: f.From, Format: f.Format}
		case RuleNormalize:
			field.Rule = transform.Normalize{}
		default:
			return nil, fmt.Errorf("field %s: unknown rule %q", f.Name, f.Rule)
		}

		m = append(m, field)
	}
	return m, nil
}

package jobs

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"data-loader/core/extract"
	"data-loader/core/reconcile"

	"gopkg.in/yaml.v3"
)

var (
	// ErrUnknownStep is returned when a lookup names a step the job does not define.
	ErrUnknownStep = errors.New("unknown step")
	// ErrJobRunning is returned when a job is triggered while already running.
	ErrJobRunning = errors.New("job is already running")
	// ErrJobNotFound is returned when no definition file exists for a job name.
	ErrJobNotFound = errors.New("job not found")
)

// Primary column settings of a pair step.
const (
	PrimaryAuto = ""
	PrimaryNone = "none"
)

// Job is a named list of load steps read from a YAML file.
type Job struct {
	Name  string `yaml:"name" json:"name"`
	Steps []Step `yaml:"steps" json:"steps"`
}

// Step loads one source file into one table.
type Step struct {
	// Name identifies the step; lookups refer to it.
	Name string `yaml:"name" json:"name"`
	// Table is the target table.
	Table string `yaml:"table" json:"table"`
	// Key is the key column of single-key steps.
	Key string `yaml:"key" json:"key,omitempty"`
	// IDColumn is the stored id exposed to lookups. Defaults to "id".
	IDColumn string `yaml:"id_column" json:"id_column,omitempty"`
	// Source is a local path or an s3://bucket/key location.
	Source string `yaml:"source" json:"source"`
	// Separator is the field separator. Defaults to "|".
	Separator string `yaml:"separator" json:"separator,omitempty"`
	// Scope is all, referenced or none. Defaults to all for steps used as
	// lookups and none otherwise.
	Scope string `yaml:"scope" json:"scope,omitempty"`
	// Fields map source columns to record fields.
	Fields []FieldSpec `yaml:"fields" json:"fields"`
	// Pair turns the step into a join-table step.
	Pair *PairSpec `yaml:"pair" json:"pair,omitempty"`
}

// PairSpec describes a join table keyed by two references.
type PairSpec struct {
	Left  PairEnd `yaml:"left" json:"left"`
	Right PairEnd `yaml:"right" json:"right"`
	// PrimaryColumn is the primary flag column. Empty detects an is_primary
	// column; "none" disables the flag.
	PrimaryColumn string `yaml:"primary_column" json:"primary_column,omitempty"`
}

// PairEnd is one reference of a pair step.
type PairEnd struct {
	// Field is the record field holding the natural key.
	Field string `yaml:"field" json:"field"`
	// Column is the foreign-key column of the join table.
	Column string `yaml:"column" json:"column"`
	// Lookup is the step whose index resolves the natural key.
	Lookup string `yaml:"lookup" json:"lookup"`
}

// LoadFile reads and validates a job definition. The job name defaults to
// the file name without extension.
func LoadFile(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job %s: %w", path, err)
	}

	job, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", path, err)
	}
	if job.Name == "" {
		job.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return job, nil
}

// Parse decodes and validates a job definition. Unknown keys are rejected.
func Parse(data []byte) (*Job, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var job Job
	if err := dec.Decode(&job); err != nil {
		return nil, fmt.Errorf("invalid job definition: %w", err)
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

// Validate checks the definition without touching the database.
func (j *Job) Validate() error {
	if len(j.Steps) == 0 {
		return fmt.Errorf("job has no steps")
	}

	steps := make(map[string]*Step, len(j.Steps))
	for i := range j.Steps {
		s := &j.Steps[i]
		if s.Name == "" {
			return fmt.Errorf("step %d has no name", i)
		}
		if _, dup := steps[s.Name]; dup {
			return fmt.Errorf("step %q is defined twice", s.Name)
		}
		steps[s.Name] = s
	}

	for i := range j.Steps {
		if err := j.Steps[i].validate(steps); err != nil {
			return fmt.Errorf("step %q: %w", j.Steps[i].Name, err)
		}
	}

	_, err := Plan(j)
	return err
}

func (s *Step) validate(steps map[string]*Step) error {
	if s.Table == "" {
		return fmt.Errorf("table is required")
	}
	if s.Source == "" {
		return fmt.Errorf("source is required")
	}
	if len(s.Fields) == 0 {
		return fmt.Errorf("fields are required")
	}
	if len([]rune(s.Separator)) > 1 {
		return fmt.Errorf("separator must be a single character")
	}
	if _, err := reconcile.ParseScope(s.Scope); err != nil {
		return err
	}

	names := make(map[string]struct{}, len(s.Fields))
	for i, f := range s.Fields {
		if err := f.validate(); err != nil {
			return fmt.Errorf("field %d: %w", i, err)
		}
		names[f.Name] = struct{}{}
	}

	for _, dep := range s.Lookups() {
		target, ok := steps[dep]
		if !ok {
			return fmt.Errorf("%w %q", ErrUnknownStep, dep)
		}
		if dep == s.Name {
			return fmt.Errorf("step cannot look itself up")
		}
		if target.Pair != nil {
			return fmt.Errorf("pair step %q cannot serve as a lookup", dep)
		}
		if target.Scope == "none" {
			return fmt.Errorf("step %q has scope none and cannot serve as a lookup", dep)
		}
	}

	if s.Pair == nil {
		if s.Key == "" {
			return fmt.Errorf("key is required")
		}
		if _, ok := names[s.Key]; !ok {
			return fmt.Errorf("key %q is not a mapped field", s.Key)
		}
		return nil
	}

	for side, end := range map[string]PairEnd{"left": s.Pair.Left, "right": s.Pair.Right} {
		if end.Field == "" || end.Column == "" || end.Lookup == "" {
			return fmt.Errorf("pair %s needs field, column and lookup", side)
		}
		if _, ok := names[end.Field]; !ok {
			return fmt.Errorf("pair %s field %q is not a mapped field", side, end.Field)
		}
	}
	return nil
}

// Lookups returns the names of the steps this step depends on, without repeats.
func (s *Step) Lookups() []string {
	var deps []string
	seen := map[string]struct{}{}
	add := func(name string) {
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		deps = append(deps, name)
	}

	if s.Pair != nil {
		add(s.Pair.Left.Lookup)
		add(s.Pair.Right.Lookup)
	}
	for _, f := range s.Fields {
		add(f.Lookup)
	}
	return deps
}

func (s *Step) idColumn() string {
	if s.IDColumn == "" {
		return "id"
	}
	return s.IDColumn
}

func (s *Step) separator() rune {
	if s.Separator == "" {
		return extract.DefaultSeparator
	}
	return []rune(s.Separator)[0]
}

// Tables returns the distinct tables written by the job.
func (j *Job) Tables() []string {
	seen := map[string]struct{}{}
	var tables []string
	for _, s := range j.Steps {
		if _, ok := seen[s.Table]; ok {
			continue
		}
		seen[s.Table] = struct{}{}
		tables = append(tables, s.Table)
	}
	return tables
}

// referenced reports which steps are used as lookups by another step.
func (j *Job) referenced() map[string]bool {
	out := map[string]bool{}
	for i := range j.Steps {
		for _, dep := range j.Steps[i].Lookups() {
			out[dep] = true
		}
	}
	return out
}

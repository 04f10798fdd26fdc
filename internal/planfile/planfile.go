// Package planfile loads task graphs from YAML or JSON plan documents.
package planfile

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/aristath/htse/internal/scheduler"
)

// Format is the encoding of a plan document.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrInvalidPlan is wrapped by every validation failure.
var ErrInvalidPlan = errors.New("invalid plan")

// TaskSpec describes one task. Key is the local handle used by edges; it is
// not the graph ID, which is assigned when the plan is built.
type TaskSpec struct {
	Key       string   `yaml:"key" json:"key" validate:"required"`
	Name      string   `yaml:"name" json:"name" validate:"required"`
	Priority  int      `yaml:"priority" json:"priority" validate:"min=1,max=10"`
	Deadline  int      `yaml:"deadline" json:"deadline" validate:"min=0"`
	Cost      int      `yaml:"cost" json:"cost" validate:"min=1"`
	Subtasks  []string `yaml:"subtasks,omitempty" json:"subtasks,omitempty" validate:"dive,required"`
	DependsOn []string `yaml:"depends_on,omitempty" json:"depends_on,omitempty" validate:"dive,required"`
	Completed bool     `yaml:"completed,omitempty" json:"completed,omitempty"`
}

// Plan is a decoded plan document.
type Plan struct {
	Tasks []TaskSpec `yaml:"tasks" json:"tasks" validate:"dive"`
}

var validate = validator.New()

// FormatFor picks the format from the file extension. Anything other than
// .json is read as YAML.
func FormatFor(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return FormatJSON
	}
	return FormatYAML
}

// Load reads and validates the plan at path from fs.
// Use afero.NewOsFs() for real files or afero.NewMemMapFs() in tests.
func Load(fs afero.Fs, path string) (*Plan, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("reading plan %s: %w", path, err)
	}

	plan, err := Parse(data, FormatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return plan, nil
}

// Parse decodes and validates a plan document.
func Parse(data []byte, format Format) (*Plan, error) {
	var plan Plan
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &plan); err != nil {
			return nil, fmt.Errorf("parsing JSON plan: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &plan); err != nil {
			return nil, fmt.Errorf("parsing YAML plan: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported plan format %q", format)
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}
	return &plan, nil
}

// Validate checks field domains, key uniqueness and that every edge names a
// declared key.
func (p *Plan) Validate() error {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("%w: %v", ErrInvalidPlan, err)
		}
		msgs := make([]string, 0, len(verrs))
		for _, e := range verrs {
			msgs = append(msgs, fmt.Sprintf("field '%s': rule '%s' (value: '%v')", e.Namespace(), e.Tag(), e.Value()))
		}
		return fmt.Errorf("%w: %s", ErrInvalidPlan, strings.Join(msgs, "; "))
	}

	keys := make(map[string]bool, len(p.Tasks))
	for _, t := range p.Tasks {
		if keys[t.Key] {
			return fmt.Errorf("%w: duplicate task key %q", ErrInvalidPlan, t.Key)
		}
		keys[t.Key] = true
	}

	for _, t := range p.Tasks {
		for _, k := range slices.Concat(t.Subtasks, t.DependsOn) {
			if k == t.Key {
				return fmt.Errorf("%w: task %q references itself", ErrInvalidPlan, t.Key)
			}
		}
		for _, k := range t.Subtasks {
			if !keys[k] {
				return fmt.Errorf("%w: task %q lists unknown subtask %q", ErrInvalidPlan, t.Key, k)
			}
		}
		for _, k := range t.DependsOn {
			if !keys[k] {
				return fmt.Errorf("%w: task %q depends on unknown task %q", ErrInvalidPlan, t.Key, k)
			}
		}
	}
	return nil
}

// Build creates the tasks in file order, then adds subtask and dependency
// edges through the graph. It returns the graph and the key-to-ID mapping.
// Cycles are not rejected here; detection belongs to the run.
func (p *Plan) Build() (*scheduler.Graph, map[string]int, error) {
	g := scheduler.NewGraph()
	ids := make(map[string]int, len(p.Tasks))
	for _, t := range p.Tasks {
		ids[t.Key] = g.CreateTask(t.Name, t.Priority, t.Deadline, t.Cost).ID
	}

	// Missing keys resolve to ID 0, which the graph rejects
	for _, t := range p.Tasks {
		for _, k := range t.Subtasks {
			if err := g.AddSubtask(ids[t.Key], ids[k]); err != nil {
				return nil, nil, fmt.Errorf("task %q subtask %q: %w", t.Key, k, err)
			}
		}
		for _, k := range t.DependsOn {
			if err := g.AddDependency(ids[t.Key], ids[k]); err != nil {
				return nil, nil, fmt.Errorf("task %q dependency %q: %w", t.Key, k, err)
			}
		}
	}

	for _, t := range p.Tasks {
		if t.Completed {
			if err := g.ForceComplete(ids[t.Key]); err != nil {
				return nil, nil, err
			}
		}
	}
	return g, ids, nil
}

// Find returns the task with key.
func (p *Plan) Find(key string) (*TaskSpec, bool) {
	for i := range p.Tasks {
		if p.Tasks[i].Key == key {
			return &p.Tasks[i], true
		}
	}
	return nil, false
}

// Add appends a task. The plan is unchanged if the result does not validate.
func (p *Plan) Add(spec TaskSpec) error {
	return p.mutate(func() { p.Tasks = append(p.Tasks, spec) })
}

// Link makes child a subtask of parent.
func (p *Plan) Link(parent, child string) error {
	t, ok := p.Find(parent)
	if !ok {
		return fmt.Errorf("%w: unknown task %q", ErrInvalidPlan, parent)
	}
	if slices.Contains(t.Subtasks, child) {
		return nil
	}
	return p.mutate(func() { t.Subtasks = append(t.Subtasks, child) })
}

// Depend makes task depend on other.
func (p *Plan) Depend(task, other string) error {
	t, ok := p.Find(task)
	if !ok {
		return fmt.Errorf("%w: unknown task %q", ErrInvalidPlan, task)
	}
	if slices.Contains(t.DependsOn, other) {
		return nil
	}
	return p.mutate(func() { t.DependsOn = append(t.DependsOn, other) })
}

// mutate applies fn to a deep copy and keeps the result only if it validates.
func (p *Plan) mutate(fn func()) error {
	saved := p.clone()
	fn()
	if err := p.Validate(); err != nil {
		*p = *saved
		return err
	}
	return nil
}

func (p *Plan) clone() *Plan {
	cp := &Plan{Tasks: make([]TaskSpec, len(p.Tasks))}
	for i, t := range p.Tasks {
		t.Subtasks = slices.Clone(t.Subtasks)
		t.DependsOn = slices.Clone(t.DependsOn)
		cp.Tasks[i] = t
	}
	return cp
}

// Save writes the plan to path on fs in the format its extension selects.
// Parent directories are created as needed.
func Save(fs afero.Fs, path string, plan *Plan) error {
	data, err := plan.Encode(FormatFor(path))
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}

	dir := filepath.Dir(path)
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	if err := afero.WriteFile(fs, path, data, 0644); err != nil {
		return fmt.Errorf("writing plan to %s: %w", path, err)
	}
	return nil
}

// Encode renders the plan in format.
func (p *Plan) Encode(format Format) ([]byte, error) {
	switch format {
	case FormatJSON:
		return json.MarshalIndent(p, "", "  ")
	case FormatYAML:
		return yaml.Marshal(p)
	default:
		return nil, fmt.Errorf("unsupported plan format %q", format)
	}
}

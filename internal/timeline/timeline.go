// Package timeline manages the ordered list of steps that make up a play.
// Every operation returns a new value and leaves its inputs untouched.
package timeline

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/tmcoach/board/pkg/core"
)

// DefaultCopySuffix is appended to the name of a duplicated step
const DefaultCopySuffix = " (copy)"

// Config holds the defaults new steps are created with
type Config struct {
	DefaultDuration core.Millis `json:"defaultDuration" mapstructure:"defaultDuration"`
	DefaultName     string      `json:"defaultName" mapstructure:"defaultName"`
}

// IDFunc produces a fresh unique id
type IDFunc func() string

// NewUUID is the default IDFunc
func NewUUID() string {
	return uuid.NewString()
}

// Manager creates steps. It only exists to carry the injected defaults and
// id source; the list operations are plain functions.
type Manager struct {
	cfg   Config
	newID IDFunc
}

// New creates a Manager. A nil newID uses uuids.
func New(cfg Config, newID IDFunc) *Manager {
	if newID == nil {
		newID = NewUUID
	}
	cfg.DefaultDuration = ClampDuration(cfg.DefaultDuration)
	if cfg.DefaultName == "" {
		cfg.DefaultName = "Step"
	}
	return &Manager{cfg: cfg, newID: newID}
}

// Config returns the defaults in use
func (m *Manager) Config() Config {
	return m.cfg
}

// CreateStep builds a step holding a deep copy of elements. An empty name or
// zero duration falls back to the configured defaults.
func (m *Manager) CreateStep(elements []core.Element, name string, duration core.Millis) core.Step {
	if name == "" {
		name = m.cfg.DefaultName
	}
	if duration == 0 {
		duration = m.cfg.DefaultDuration
	}
	return core.Step{
		ID:       m.newID(),
		Name:     name,
		Elements: core.CloneElements(elements),
		Duration: ClampDuration(duration),
	}
}

// DuplicateStep copies step under a new id. An empty suffix uses DefaultCopySuffix.
func (m *Manager) DuplicateStep(step core.Step, suffix string) core.Step {
	if suffix == "" {
		suffix = DefaultCopySuffix
	}
	return core.Step{
		ID:       m.newID(),
		Name:     step.Name + suffix,
		Elements: core.CloneElements(step.Elements),
		Duration: step.Duration,
	}
}

// ClampDuration enforces the minimum step duration
func ClampDuration(d core.Millis) core.Millis {
	if d < core.MinStepDuration {
		return core.MinStepDuration
	}
	return d
}

// NextStepName suggests "Step N" for a step appended to steps
func NextStepName(steps []core.Step) string {
	return fmt.Sprintf("Step %d", len(steps)+1)
}

// InsertStepAt inserts step before index. Indexes past the end append and
// negative indexes insert at the front.
func InsertStepAt(steps []core.Step, step core.Step, index int) []core.Step {
	index = max(0, min(index, len(steps)))
	out := make([]core.Step, 0, len(steps)+1)
	out = append(out, steps[:index]...)
	out = append(out, step)
	out = append(out, steps[index:]...)
	return out
}

// RemoveStepAt drops the step at index. Out-of-range indexes return steps unchanged.
func RemoveStepAt(steps []core.Step, index int) []core.Step {
	if index < 0 || index >= len(steps) {
		return steps
	}
	out := make([]core.Step, 0, len(steps)-1)
	out = append(out, steps[:index]...)
	out = append(out, steps[index+1:]...)
	return out
}

// MoveStep moves the step at from so it ends up at index to.
// Either index out of range returns steps unchanged.
func MoveStep(steps []core.Step, from, to int) []core.Step {
	if from < 0 || from >= len(steps) || to < 0 || to >= len(steps) {
		return steps
	}
	moved := steps[from]
	out := RemoveStepAt(steps, from)
	return InsertStepAt(out, moved, to)
}

// UpdateStepElements replaces the step's elements with a copy of elements
func UpdateStepElements(step core.Step, elements []core.Element) core.Step {
	step.Elements = core.CloneElements(elements)
	return step
}

// UpdateStepName renames a step
func UpdateStepName(step core.Step, name string) core.Step {
	step.Name = name
	return step
}

// UpdateStepDuration sets the duration, floored at core.MinStepDuration
func UpdateStepDuration(step core.Step, duration core.Millis) core.Step {
	step.Duration = ClampDuration(duration)
	return step
}

// TotalDuration is the sum of all step durations
func TotalDuration(steps []core.Step) core.Millis {
	var total core.Millis
	for _, s := range steps {
		total += s.Duration
	}
	return total
}

// FindStepByID returns the step with the given id
func FindStepByID(steps []core.Step, id string) (core.Step, bool) {
	i := FindStepIndexByID(steps, id)
	if i < 0 {
		return core.Step{}, false
	}
	return steps[i], true
}

// FindStepIndexByID returns the index of the step with the given id, or -1
func FindStepIndexByID(steps []core.Step, id string) int {
	for i, s := range steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// ReplaceStep swaps in step for the existing step with the same id.
// Unknown ids return steps unchanged.
func ReplaceStep(steps []core.Step, step core.Step) []core.Step {
	i := FindStepIndexByID(steps, step.ID)
	if i < 0 {
		return steps
	}
	out := make([]core.Step, len(steps))
	copy(out, steps)
	out[i] = step
	return out
}

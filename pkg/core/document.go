// pkg/core/document.go
package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// MinStepDuration is the shortest playback time a step may have
const MinStepDuration Millis = 100

// Step is one keyframe: a self-contained set of elements and the time it
// takes to animate from this step to the next one.
type Step struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Elements []Element `json:"elements"`
	Duration Millis    `json:"duration"`
}

// UnmarshalJSON decodes the polymorphic element list
func (s *Step) UnmarshalJSON(data []byte) error {
	var aux struct {
		ID       string            `json:"id"`
		Name     string            `json:"name"`
		Elements []json.RawMessage `json:"elements"`
		Duration Millis            `json:"duration"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	elements := make([]Element, 0, len(aux.Elements))
	for i, raw := range aux.Elements {
		el, err := UnmarshalElement(raw)
		if err != nil {
			return fmt.Errorf("step %q element %d: %w", aux.ID, i, err)
		}
		elements = append(elements, el)
	}

	s.ID = aux.ID
	s.Name = aux.Name
	s.Elements = elements
	s.Duration = aux.Duration
	return nil
}

// BoardDocument is one saved project
type BoardDocument struct {
	Version          int          `json:"version"`
	Name             string       `json:"name"`
	CreatedAt        time.Time    `json:"createdAt"`
	UpdatedAt        time.Time    `json:"updatedAt"`
	CurrentStepIndex int          `json:"currentStepIndex"`
	Steps            []Step       `json:"steps"`
	PitchConfig      PitchConfig  `json:"pitchConfig"`
	TeamSettings     TeamSettings `json:"teamSettings"`
}

// CurrentStep returns the step the editor is positioned on
func (d BoardDocument) CurrentStep() (Step, bool) {
	if d.CurrentStepIndex < 0 || d.CurrentStepIndex >= len(d.Steps) {
		return Step{}, false
	}
	return d.Steps[d.CurrentStepIndex], true
}

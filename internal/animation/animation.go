// Package animation produces the in-between frames shown while a play runs
// from one step to the next.
package animation

import (
	"time"

	"github.com/tmcoach/board/pkg/core"
)

// Playback is the player state for one animation tick
type Playback struct {
	IsPlaying        bool
	Progress         float64 // 0 at the current step, 1 on arrival at the next
	CurrentStepIndex int
	Steps            []core.Step
}

// Bounds is the box of a zone
type Bounds struct {
	X, Y, Width, Height float64
}

// Endpoints are the two ends of an arrow
type Endpoints struct {
	Start, End core.Position
}

// ZoneBounds extracts the bounds of a zone
func ZoneBounds(z core.ZoneElement) Bounds {
	return Bounds{X: z.Position.X, Y: z.Position.Y, Width: z.Width, Height: z.Height}
}

// ArrowEndpoints extracts the ends of an arrow
func ArrowEndpoints(a core.ArrowElement) Endpoints {
	return Endpoints{Start: a.StartPoint, End: a.EndPoint}
}

// Interpolator answers geometry queries for one tick. Build one per tick.
type Interpolator struct {
	active   bool
	progress float64
	current  *core.Step
	next     *core.Step
	byID     map[string]core.Element
}

// New prepares an Interpolator for pb. Progress is clamped to [0,1].
func New(pb Playback) *Interpolator {
	i := &Interpolator{progress: clamp01(pb.Progress)}

	if pb.CurrentStepIndex >= 0 && pb.CurrentStepIndex < len(pb.Steps) {
		i.current = &pb.Steps[pb.CurrentStepIndex]
	}
	if n := pb.CurrentStepIndex + 1; n >= 1 && n < len(pb.Steps) {
		i.next = &pb.Steps[n]
	}

	i.active = pb.IsPlaying && i.progress != 0 && i.next != nil
	if i.active {
		i.byID = make(map[string]core.Element, len(i.next.Elements))
		for _, el := range i.next.Elements {
			i.byID[el.ElementID()] = el
		}
	}
	return i
}

// NextStep returns the step being animated towards, if there is one
func (i *Interpolator) NextStep() (core.Step, bool) {
	if i.next == nil {
		return core.Step{}, false
	}
	return *i.next, true
}

// Progress is the clamped progress fraction
func (i *Interpolator) Progress() float64 {
	return i.progress
}

func (i *Interpolator) target(id string) (core.Element, bool) {
	if !i.active {
		return nil, false
	}
	el, ok := i.byID[id]
	return el, ok
}

func (i *Interpolator) lerp(from, to float64) float64 {
	return from + (to-from)*i.progress
}

// Position interpolates the anchor of element id. current comes back as-is
// when not playing, at progress 0, on the last step, or when the next step
// has no positioned element with that id.
func (i *Interpolator) Position(id string, current core.Position) core.Position {
	el, ok := i.target(id)
	if !ok {
		return current
	}
	next, ok := core.HasPosition(el)
	if !ok {
		return current
	}
	return core.Position{X: i.lerp(current.X, next.X), Y: i.lerp(current.Y, next.Y)}
}

// ZoneBounds interpolates the box of zone id, with the same fallbacks as Position
func (i *Interpolator) ZoneBounds(id string, current Bounds) Bounds {
	el, ok := i.target(id)
	if !ok {
		return current
	}
	z, ok := core.IsZoneElement(el)
	if !ok {
		return current
	}
	next := ZoneBounds(z)
	return Bounds{
		X:      i.lerp(current.X, next.X),
		Y:      i.lerp(current.Y, next.Y),
		Width:  i.lerp(current.Width, next.Width),
		Height: i.lerp(current.Height, next.Height),
	}
}

// ArrowEndpoints interpolates both ends of arrow id, with the same fallbacks as Position
func (i *Interpolator) ArrowEndpoints(id string, current Endpoints) Endpoints {
	el, ok := i.target(id)
	if !ok {
		return current
	}
	a, ok := core.IsArrowElement(el)
	if !ok {
		return current
	}
	next := ArrowEndpoints(a)
	return Endpoints{
		Start: core.Position{X: i.lerp(current.Start.X, next.Start.X), Y: i.lerp(current.Start.Y, next.Start.Y)},
		End:   core.Position{X: i.lerp(current.End.X, next.End.X), Y: i.lerp(current.End.Y, next.End.Y)},
	}
}

// Element interpolates every geometric capability el has, and returns el
// itself when nothing moves.
func (i *Interpolator) Element(el core.Element) core.Element {
	if _, ok := i.target(el.ElementID()); !ok {
		return el
	}

	switch v := el.(type) {
	case core.ZoneElement:
		b := i.ZoneBounds(v.ID, ZoneBounds(v))
		v.Position = core.Position{X: b.X, Y: b.Y}
		v.Width, v.Height = b.Width, b.Height
		return v
	case core.ArrowElement:
		v.Position = i.Position(v.ID, v.Position)
		ends := i.ArrowEndpoints(v.ID, ArrowEndpoints(v))
		v.StartPoint, v.EndPoint = ends.Start, ends.End
		return v
	case core.DrawingElement:
		// points are absolute, so the stroke follows its anchor
		p := i.Position(v.ID, v.Position)
		dx, dy := p.X-v.Position.X, p.Y-v.Position.Y
		pts := make([]float64, len(v.Points))
		for n, c := range v.Points {
			if n%2 == 0 {
				pts[n] = c + dx
			} else {
				pts[n] = c + dy
			}
		}
		v.Position, v.Points = p, pts
		return v
	default:
		if p, ok := core.HasPosition(el); ok {
			return core.WithPosition(el, i.Position(el.ElementID(), p))
		}
		return el
	}
}

// Frame returns the current step's elements as they appear at this tick.
// Without a current step it returns nil.
func (i *Interpolator) Frame() []core.Element {
	if i.current == nil {
		return nil
	}
	if !i.active {
		return i.current.Elements
	}
	out := make([]core.Element, len(i.current.Elements))
	for n, el := range i.current.Elements {
		out[n] = i.Element(el)
	}
	return out
}

// Locate maps an elapsed playback time onto a step index and the progress
// towards the following step. Each step's duration is the time spent moving
// from it to the next one; past the end it parks on the last step.
func Locate(steps []core.Step, elapsed time.Duration) (index int, progress float64) {
	if len(steps) == 0 {
		return 0, 0
	}
	if elapsed <= 0 {
		return 0, 0
	}
	for n, s := range steps[:len(steps)-1] {
		d := s.Duration.Duration()
		if elapsed < d {
			return n, float64(elapsed) / float64(d)
		}
		elapsed -= d
	}
	return len(steps) - 1, 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Package orientation remaps board geometry when the surface flips between
// landscape and portrait.
//
// The surface is turned a quarter about the centre of its padded-in playing
// area and re-embedded with the same padding. Going to portrait turns the
// content counter-clockwise on the y-down surface, going to landscape turns it
// clockwise, so the two directions are exact inverses of each other.
package orientation

import (
	"github.com/tmcoach/board/pkg/core"
)

// Direction is a layout change
type Direction int

const (
	ToPortrait Direction = iota
	ToLandscape
)

func (d Direction) String() string {
	if d == ToPortrait {
		return "toPortrait"
	}
	return "toLandscape"
}

// Inverse returns the direction that undoes d
func (d Direction) Inverse() Direction {
	if d == ToPortrait {
		return ToLandscape
	}
	return ToPortrait
}

// Target is the orientation the surface has after applying d
func (d Direction) Target() core.Orientation {
	if d == ToPortrait {
		return core.Portrait
	}
	return core.Landscape
}

// Source is the orientation the surface must have before applying d
func (d Direction) Source() core.Orientation {
	return d.Inverse().Target()
}

// DirectionBetween returns the direction taking from to to, and false when
// the two orientations are the same.
func DirectionBetween(from, to core.Orientation) (Direction, bool) {
	from, to = normalize(from), normalize(to)
	if from == to {
		return 0, false
	}
	if to == core.Portrait {
		return ToPortrait, true
	}
	return ToLandscape, true
}

func normalize(o core.Orientation) core.Orientation {
	if o == core.Portrait {
		return core.Portrait
	}
	return core.Landscape
}

// RotationDelta is the change applied to every rotation and orientation field
func RotationDelta(d Direction) float64 {
	if d == ToPortrait {
		return -90
	}
	return 90
}

// RotateDegrees applies the delta for d to an angle in [0,360). Rotating
// back with d.Inverse() returns the original angle exactly.
func RotateDegrees(value float64, d Direction) float64 {
	return core.NormalizeDegrees(value + RotationDelta(d) + 360)
}

// Engine transforms elements for one pitch. It is immutable and safe to share.
type Engine struct {
	padding float64
	// inner playing-area sizes, indexed by the orientation they belong to
	landW, landH float64
	portW, portH float64
}

// New builds an Engine for the given surface
func New(pitch core.PitchConfig) *Engine {
	lw, lh := pitch.InnerSize(core.Landscape)
	pw, ph := pitch.InnerSize(core.Portrait)
	return &Engine{
		padding: pitch.Padding,
		landW:   lw,
		landH:   lh,
		portW:   pw,
		portH:   ph,
	}
}

func (e *Engine) inner(o core.Orientation) (float64, float64) {
	if o == core.Portrait {
		return e.portW, e.portH
	}
	return e.landW, e.landH
}

// TransformPoint maps a surface point through the quarter turn.
// The turn is done by swapping coordinates, not with trigonometry, so a round
// trip only accumulates float addition error.
func (e *Engine) TransformPoint(p core.Position, d Direction) core.Position {
	srcW, srcH := e.inner(d.Source())
	dstW, dstH := e.inner(d.Target())

	dx := p.X - e.padding - srcW/2
	dy := p.Y - e.padding - srcH/2

	var rx, ry float64
	if d == ToPortrait {
		rx, ry = dy, -dx
	} else {
		rx, ry = -dy, dx
	}

	return core.Position{
		X: rx + dstW/2 + e.padding,
		Y: ry + dstH/2 + e.padding,
	}
}

// TransformElement returns el as it must look after the surface turns in
// direction d. Elements of unknown type come back unchanged.
func (e *Engine) TransformElement(el core.Element, d Direction) core.Element {
	switch v := el.(type) {
	case core.ZoneElement:
		return e.transformZone(v, d)
	case core.DrawingElement:
		v.Position = e.TransformPoint(v.Position, d)
		v.Points = e.transformPoints(v.Points, d)
		return v
	case core.ArrowElement:
		v.Position = e.TransformPoint(v.Position, d)
		v.StartPoint = e.TransformPoint(v.StartPoint, d)
		v.EndPoint = e.TransformPoint(v.EndPoint, d)
		return v
	case core.TextElement:
		v.Position = e.TransformPoint(v.Position, d)
		// text stays upright whatever the layout
		if v.Rotation != nil {
			v.Rotation = core.Float(0)
		}
		return v
	case core.PlayerElement:
		v.Position = e.TransformPoint(v.Position, d)
		if o, ok := core.HasOrientation(v); ok {
			v.Orientation = core.Float(RotateDegrees(o, d))
		}
		return v
	case core.EquipmentElement:
		v.Position = e.TransformPoint(v.Position, d)
		if r, ok := core.HasRotation(v); ok {
			v.Rotation = RotateDegrees(r, d)
		}
		return v
	case core.BallElement:
		v.Position = e.TransformPoint(v.Position, d)
		return v
	default:
		return el
	}
}

// Zones are axis-aligned boxes anchored at their top-left corner. A quarter
// turn keeps them axis-aligned, so the new box is spanned by the two turned
// corners and width and height swap.
func (e *Engine) transformZone(z core.ZoneElement, d Direction) core.ZoneElement {
	a := e.TransformPoint(z.Position, d)
	b := e.TransformPoint(core.Position{X: z.Position.X + z.Width, Y: z.Position.Y + z.Height}, d)

	z.Position = core.Position{X: min(a.X, b.X), Y: min(a.Y, b.Y)}
	z.Width, z.Height = z.Height, z.Width
	return z
}

func (e *Engine) transformPoints(points []float64, d Direction) []float64 {
	if points == nil {
		return nil
	}
	out := make([]float64, len(points))
	for i := 0; i+1 < len(points); i += 2 {
		p := e.TransformPoint(core.Position{X: points[i], Y: points[i+1]}, d)
		out[i], out[i+1] = p.X, p.Y
	}
	if len(points)%2 == 1 {
		out[len(points)-1] = points[len(points)-1]
	}
	return out
}

// TransformElements transforms every element of a list into a new list
func (e *Engine) TransformElements(els []core.Element, d Direction) []core.Element {
	out := make([]core.Element, len(els))
	for i, el := range els {
		out[i] = e.TransformElement(el, d)
	}
	return out
}

// TransformStep transforms all elements of a step
func (e *Engine) TransformStep(s core.Step, d Direction) core.Step {
	s.Elements = e.TransformElements(s.Elements, d)
	return s
}

// TransformElement is a convenience wrapper for one-off calls
func TransformElement(el core.Element, d Direction, pitch core.PitchConfig) core.Element {
	return New(pitch).TransformElement(el, d)
}

// TransformDocument lays every step of doc out for the orientation to. The
// document is returned as-is when it is already in that orientation.
func TransformDocument(doc core.BoardDocument, to core.Orientation) core.BoardDocument {
	d, ok := DirectionBetween(doc.PitchConfig.Orientation, to)
	if !ok {
		return doc
	}

	e := New(doc.PitchConfig)
	steps := make([]core.Step, len(doc.Steps))
	for i, s := range doc.Steps {
		steps[i] = e.TransformStep(s, d)
	}

	doc.Steps = steps
	doc.PitchConfig.Orientation = d.Target()
	return doc
}

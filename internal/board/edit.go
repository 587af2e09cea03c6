package board

import (
	"github.com/tmcoach/board/pkg/core"
)

// Selection is a set of element ids
type Selection map[string]struct{}

// Select builds a Selection from ids
func Select(ids ...string) Selection {
	s := make(Selection, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is selected
func (s Selection) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the selected ids in no particular order
func (s Selection) IDs() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}

// AddElement appends el to a copy of els
func AddElement(els []core.Element, el core.Element) []core.Element {
	out := make([]core.Element, 0, len(els)+1)
	out = append(out, els...)
	return append(out, el)
}

// RemoveElement filters the element with the given id out of els
func RemoveElement(els []core.Element, id string) []core.Element {
	return RemoveElements(els, Select(id))
}

// RemoveElements filters every selected element out of els
func RemoveElements(els []core.Element, sel Selection) []core.Element {
	out := make([]core.Element, 0, len(els))
	for _, el := range els {
		if !sel.Has(el.ElementID()) {
			out = append(out, el)
		}
	}
	return out
}

// ReplaceElement swaps in el for the element with the same id.
// els is returned unchanged when no element matches.
func ReplaceElement(els []core.Element, el core.Element) []core.Element {
	for i, cur := range els {
		if cur.ElementID() == el.ElementID() {
			out := make([]core.Element, len(els))
			copy(out, els)
			out[i] = el
			return out
		}
	}
	return els
}

// FindElement looks up an element by id
func FindElement(els []core.Element, id string) (core.Element, bool) {
	for _, el := range els {
		if el.ElementID() == id {
			return el, true
		}
	}
	return nil, false
}

// MoveElements translates every selected element by delta. Arrows move both
// ends and drawings move every point, so shapes keep their geometry.
func MoveElements(els []core.Element, sel Selection, delta core.Position) []core.Element {
	out := make([]core.Element, len(els))
	for i, el := range els {
		if !sel.Has(el.ElementID()) {
			out[i] = el
			continue
		}
		out[i] = translate(el, delta)
	}
	return out
}

func translate(el core.Element, delta core.Position) core.Element {
	switch v := el.(type) {
	case core.ArrowElement:
		v.Position = v.Position.Add(delta)
		v.StartPoint = v.StartPoint.Add(delta)
		v.EndPoint = v.EndPoint.Add(delta)
		return v
	case core.DrawingElement:
		v.Position = v.Position.Add(delta)
		pts := make([]float64, len(v.Points))
		for i := range v.Points {
			if i%2 == 0 {
				pts[i] = v.Points[i] + delta.X
			} else {
				pts[i] = v.Points[i] + delta.Y
			}
		}
		v.Points = pts
		return v
	default:
		if p, ok := core.HasPosition(el); ok {
			return core.WithPosition(el, p.Add(delta))
		}
		return el
	}
}

// ToggleVision flips the vision cone of the selected players as a group:
// if any of them has vision off, all are switched on, otherwise all are
// switched off. Non-player elements in the selection are ignored.
func ToggleVision(els []core.Element, sel Selection) []core.Element {
	allOn := true
	targeted := 0
	for _, el := range els {
		p, ok := core.IsPlayerElement(el)
		if !ok || !sel.Has(p.ID) {
			continue
		}
		targeted++
		if !p.ShowVision {
			allOn = false
		}
	}
	if targeted == 0 {
		return els
	}

	want := !allOn
	out := make([]core.Element, len(els))
	for i, el := range els {
		p, ok := core.IsPlayerElement(el)
		if ok && sel.Has(p.ID) {
			p.ShowVision = want
			out[i] = p
			continue
		}
		out[i] = el
	}
	return out
}

// SetOrientation sets the facing direction of a player, normalized to [0,360).
// Other elements are returned unchanged.
func SetOrientation(el core.Element, degrees float64) core.Element {
	p, ok := core.IsPlayerElement(el)
	if !ok {
		return el
	}
	p.Orientation = core.Float(core.NormalizeDegrees(degrees))
	return p
}

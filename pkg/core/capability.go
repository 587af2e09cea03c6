// pkg/core/capability.go
package core

// Capability predicates. Every layer that needs to know whether an element
// carries a geometric field asks here instead of switching on types itself.

// HasPosition reports the element's anchor position. UnknownElement has none.
func HasPosition(el Element) (Position, bool) {
	switch e := el.(type) {
	case PlayerElement:
		return e.Position, true
	case BallElement:
		return e.Position, true
	case ArrowElement:
		return e.Position, true
	case ZoneElement:
		return e.Position, true
	case TextElement:
		return e.Position, true
	case DrawingElement:
		return e.Position, true
	case EquipmentElement:
		return e.Position, true
	default:
		return Position{}, false
	}
}

// HasRotation reports the visual spin of the element in degrees.
// Equipment always has one; text only when it was set.
func HasRotation(el Element) (float64, bool) {
	switch e := el.(type) {
	case EquipmentElement:
		return e.Rotation, true
	case TextElement:
		if e.Rotation == nil {
			return 0, false
		}
		return *e.Rotation, true
	default:
		return 0, false
	}
}

// HasOrientation reports the facing direction of a player, when set
func HasOrientation(el Element) (float64, bool) {
	if p, ok := el.(PlayerElement); ok && p.Orientation != nil {
		return *p.Orientation, true
	}
	return 0, false
}

// IsPlayerElement narrows to a player
func IsPlayerElement(el Element) (PlayerElement, bool) {
	p, ok := el.(PlayerElement)
	return p, ok
}

// IsZoneElement narrows to a zone
func IsZoneElement(el Element) (ZoneElement, bool) {
	z, ok := el.(ZoneElement)
	return z, ok
}

// IsArrowElement narrows to an arrow
func IsArrowElement(el Element) (ArrowElement, bool) {
	a, ok := el.(ArrowElement)
	return a, ok
}

// IsDrawingElement narrows to a drawing
func IsDrawingElement(el Element) (DrawingElement, bool) {
	d, ok := el.(DrawingElement)
	return d, ok
}

// IsTextElement narrows to a text label
func IsTextElement(el Element) (TextElement, bool) {
	t, ok := el.(TextElement)
	return t, ok
}

// IsKnown reports whether the element is one of the variants in Kinds
func IsKnown(el Element) bool {
	_, unknown := el.(UnknownElement)
	return el != nil && !unknown
}

// WithPosition returns a copy of el anchored at p. Elements without a
// position are returned unchanged.
func WithPosition(el Element, p Position) Element {
	switch e := el.(type) {
	case PlayerElement:
		e.Position = p
		return e
	case BallElement:
		e.Position = p
		return e
	case ArrowElement:
		e.Position = p
		return e
	case ZoneElement:
		e.Position = p
		return e
	case TextElement:
		e.Position = p
		return e
	case DrawingElement:
		e.Position = p
		return e
	case EquipmentElement:
		e.Position = p
		return e
	default:
		return el
	}
}

// Float returns a pointer to v, for optional degree fields
func Float(v float64) *float64 {
	return &v
}

// CloneElement deep-copies the pointer and slice fields of el so the copy
// shares no memory with the original.
func CloneElement(el Element) Element {
	switch e := el.(type) {
	case PlayerElement:
		e.Orientation = cloneFloat(e.Orientation)
		return e
	case TextElement:
		e.Rotation = cloneFloat(e.Rotation)
		return e
	case DrawingElement:
		if e.Points != nil {
			e.Points = append([]float64(nil), e.Points...)
		}
		return e
	case UnknownElement:
		if e.Raw != nil {
			e.Raw = append([]byte(nil), e.Raw...)
		}
		return e
	default:
		return el
	}
}

// CloneElements deep-copies a whole element list. The result is never nil.
func CloneElements(els []Element) []Element {
	out := make([]Element, len(els))
	for i, el := range els {
		out[i] = CloneElement(el)
	}
	return out
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

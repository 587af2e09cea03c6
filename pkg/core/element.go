// pkg/core/element.go
package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Kind is the element discriminator, serialized as the "type" field
type Kind string

const (
	KindPlayer    Kind = "player"
	KindBall      Kind = "ball"
	KindArrow     Kind = "arrow"
	KindZone      Kind = "zone"
	KindText      Kind = "text"
	KindDrawing   Kind = "drawing"
	KindEquipment Kind = "equipment"
)

// Kinds lists every known element kind
var Kinds = []Kind{KindPlayer, KindBall, KindArrow, KindZone, KindText, KindDrawing, KindEquipment}

// Element is one visual item on the board. The set of implementations is
// closed: only the variants in this package satisfy it.
type Element interface {
	ElementID() string
	Kind() Kind
	element()
}

// Team identifies a side
type Team string

const (
	TeamHome Team = "home"
	TeamAway Team = "away"
)

// ArrowType distinguishes pass, run and shot arrows
type ArrowType string

const (
	ArrowPass  ArrowType = "pass"
	ArrowRun   ArrowType = "run"
	ArrowShoot ArrowType = "shoot"
)

// ZoneShape is the outline of a zone
type ZoneShape string

const (
	ZoneRect    ZoneShape = "rect"
	ZoneEllipse ZoneShape = "ellipse"
)

// BorderStyle of a zone outline
type BorderStyle string

const (
	BorderSolid  BorderStyle = "solid"
	BorderDashed BorderStyle = "dashed"
	BorderNone   BorderStyle = "none"
)

// DrawingType distinguishes pen strokes from translucent highlighter strokes
type DrawingType string

const (
	DrawingFreehand    DrawingType = "freehand"
	DrawingHighlighter DrawingType = "highlighter"
)

// PlayerElement is a numbered player token.
// Orientation is the facing direction in degrees, nil when never set.
type PlayerElement struct {
	ID          string   `json:"id"`
	Position    Position `json:"position"`
	Team        Team     `json:"team"`
	Number      int      `json:"number"`
	Label       string   `json:"label,omitempty"`
	Orientation *float64 `json:"orientation,omitempty"`
	ShowVision  bool     `json:"showVision,omitempty"`
}

// BallElement is the ball
type BallElement struct {
	ID       string   `json:"id"`
	Position Position `json:"position"`
}

// ArrowElement is a movement or pass line between two surface points
type ArrowElement struct {
	ID          string    `json:"id"`
	Position    Position  `json:"position"`
	ArrowType   ArrowType `json:"arrowType"`
	StartPoint  Position  `json:"startPoint"`
	EndPoint    Position  `json:"endPoint"`
	Color       string    `json:"color,omitempty"`
	StrokeWidth float64   `json:"strokeWidth,omitempty"`
}

// ZoneElement is a shaded area. Position is the top-left corner of its bounds.
type ZoneElement struct {
	ID          string      `json:"id"`
	Position    Position    `json:"position"`
	Shape       ZoneShape   `json:"shape"`
	Width       float64     `json:"width"`
	Height      float64     `json:"height"`
	FillColor   string      `json:"fillColor"`
	BorderColor string      `json:"borderColor,omitempty"`
	BorderStyle BorderStyle `json:"borderStyle"`
	Opacity     float64     `json:"opacity"`
}

// TextElement is a free text label
type TextElement struct {
	ID              string   `json:"id"`
	Position        Position `json:"position"`
	Content         string   `json:"content"`
	FontSize        float64  `json:"fontSize"`
	FontFamily      string   `json:"fontFamily"`
	Color           string   `json:"color"`
	Bold            bool     `json:"bold"`
	Italic          bool     `json:"italic"`
	BackgroundColor string   `json:"backgroundColor,omitempty"`
	Rotation        *float64 `json:"rotation,omitempty"`
}

// DrawingElement is a freehand stroke. Points is a flat [x0,y0,x1,y1,...]
// list of absolute surface coordinates and always has even length.
type DrawingElement struct {
	ID          string      `json:"id"`
	Position    Position    `json:"position"`
	DrawingType DrawingType `json:"drawingType"`
	Points      []float64   `json:"points"`
	Color       string      `json:"color"`
	StrokeWidth float64     `json:"strokeWidth"`
	Opacity     float64     `json:"opacity"`
}

// EquipmentElement is a training prop (cone, pole, hurdle, goal...)
type EquipmentElement struct {
	ID            string   `json:"id"`
	Position      Position `json:"position"`
	EquipmentType string   `json:"equipmentType"`
	Variant       string   `json:"variant"`
	Rotation      float64  `json:"rotation"`
	Color         string   `json:"color"`
	Scale         float64  `json:"scale"`
}

// UnknownElement holds an element whose type this build does not know.
// The original JSON is kept (compacted) and written back as-is.
type UnknownElement struct {
	ID   string
	Type Kind
	Raw  json.RawMessage
}

func (e PlayerElement) ElementID() string    { return e.ID }
func (e BallElement) ElementID() string      { return e.ID }
func (e ArrowElement) ElementID() string     { return e.ID }
func (e ZoneElement) ElementID() string      { return e.ID }
func (e TextElement) ElementID() string      { return e.ID }
func (e DrawingElement) ElementID() string   { return e.ID }
func (e EquipmentElement) ElementID() string { return e.ID }
func (e UnknownElement) ElementID() string   { return e.ID }

func (PlayerElement) Kind() Kind    { return KindPlayer }
func (BallElement) Kind() Kind      { return KindBall }
func (ArrowElement) Kind() Kind     { return KindArrow }
func (ZoneElement) Kind() Kind      { return KindZone }
func (TextElement) Kind() Kind      { return KindText }
func (DrawingElement) Kind() Kind   { return KindDrawing }
func (EquipmentElement) Kind() Kind { return KindEquipment }
func (e UnknownElement) Kind() Kind { return e.Type }

func (PlayerElement) element()    {}
func (BallElement) element()      {}
func (ArrowElement) element()     {}
func (ZoneElement) element()      {}
func (TextElement) element()      {}
func (DrawingElement) element()   {}
func (EquipmentElement) element() {}
func (UnknownElement) element()   {}

// ErrMissingType is returned when an element object has no "type" field
var ErrMissingType = errors.New("element has no type")

// withType splices the "type" discriminator in front of an encoded object.
func withType(kind Kind, body []byte, err error) ([]byte, error) {
	if err != nil {
		return nil, err
	}
	head := fmt.Sprintf(`{"type":%q`, kind)
	if len(body) <= 2 {
		return []byte(head + "}"), nil
	}
	return append([]byte(head+","), body[1:]...), nil
}

func (e PlayerElement) MarshalJSON() ([]byte, error) {
	type plain PlayerElement
	b, err := json.Marshal(plain(e))
	return withType(KindPlayer, b, err)
}

func (e BallElement) MarshalJSON() ([]byte, error) {
	type plain BallElement
	b, err := json.Marshal(plain(e))
	return withType(KindBall, b, err)
}

func (e ArrowElement) MarshalJSON() ([]byte, error) {
	type plain ArrowElement
	b, err := json.Marshal(plain(e))
	return withType(KindArrow, b, err)
}

func (e ZoneElement) MarshalJSON() ([]byte, error) {
	type plain ZoneElement
	b, err := json.Marshal(plain(e))
	return withType(KindZone, b, err)
}

func (e TextElement) MarshalJSON() ([]byte, error) {
	type plain TextElement
	b, err := json.Marshal(plain(e))
	return withType(KindText, b, err)
}

func (e DrawingElement) MarshalJSON() ([]byte, error) {
	type plain DrawingElement
	if e.Points == nil {
		e.Points = []float64{}
	}
	b, err := json.Marshal(plain(e))
	return withType(KindDrawing, b, err)
}

func (e EquipmentElement) MarshalJSON() ([]byte, error) {
	type plain EquipmentElement
	b, err := json.Marshal(plain(e))
	return withType(KindEquipment, b, err)
}

// MarshalJSON writes the element exactly as it was read
func (e UnknownElement) MarshalJSON() ([]byte, error) {
	if len(e.Raw) == 0 {
		return withType(e.Type, []byte(fmt.Sprintf(`{"id":%q}`, e.ID)), nil)
	}
	return e.Raw, nil
}

// UnmarshalElement decodes one element object, dispatching on its "type".
// Unknown types decode to UnknownElement rather than failing.
func UnmarshalElement(data []byte) (Element, error) {
	var head struct {
		Type Kind   `json:"type"`
		ID   string `json:"id"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode element: %w", err)
	}
	if head.Type == "" {
		return nil, ErrMissingType
	}

	switch head.Type {
	case KindPlayer:
		return decodeAs[PlayerElement](data)
	case KindBall:
		return decodeAs[BallElement](data)
	case KindArrow:
		return decodeAs[ArrowElement](data)
	case KindZone:
		return decodeAs[ZoneElement](data)
	case KindText:
		return decodeAs[TextElement](data)
	case KindDrawing:
		el, err := decodeAs[DrawingElement](data)
		if err != nil {
			return nil, err
		}
		d := el.(DrawingElement)
		if len(d.Points)%2 != 0 {
			return nil, fmt.Errorf("drawing %s: odd number of point coordinates (%d)", d.ID, len(d.Points))
		}
		return d, nil
	case KindEquipment:
		return decodeAs[EquipmentElement](data)
	default:
		var raw bytes.Buffer
		if err := json.Compact(&raw, data); err != nil {
			return nil, fmt.Errorf("decode element: %w", err)
		}
		return UnknownElement{ID: head.ID, Type: head.Type, Raw: raw.Bytes()}, nil
	}
}

func decodeAs[T Element](data []byte) (Element, error) {
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("decode %s element: %w", v.Kind(), err)
	}
	return v, nil
}

// Package board holds the element factories and the element-list edits the
// editor performs on a single step.
package board

import (
	"math"

	"github.com/google/uuid"

	"github.com/tmcoach/board/pkg/core"
)

// Factory creates elements with fresh ids and grid-snapped positions
type Factory struct {
	gridSize float64
	newID    func() string
}

// NewFactory creates a Factory for the given pitch. A nil newID uses uuids.
func NewFactory(pitch core.PitchConfig, newID func() string) *Factory {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Factory{gridSize: pitch.GridSize, newID: newID}
}

// SnapToGrid rounds p to the nearest grid intersection. A non-positive grid
// size disables snapping.
func SnapToGrid(p core.Position, gridSize float64) core.Position {
	if gridSize <= 0 {
		return p
	}
	return core.Position{
		X: math.Round(p.X/gridSize) * gridSize,
		Y: math.Round(p.Y/gridSize) * gridSize,
	}
}

func (f *Factory) snap(p core.Position) core.Position {
	return SnapToGrid(p, f.gridSize)
}

// NewPlayer creates a player token
func (f *Factory) NewPlayer(at core.Position, team core.Team, number int) core.PlayerElement {
	return core.PlayerElement{
		ID:       f.newID(),
		Position: f.snap(at),
		Team:     team,
		Number:   number,
	}
}

// NewBall creates the ball
func (f *Factory) NewBall(at core.Position) core.BallElement {
	return core.BallElement{ID: f.newID(), Position: f.snap(at)}
}

// NewArrow creates an arrow from start to end. Both ends are snapped and the
// arrow is anchored at its start.
func (f *Factory) NewArrow(arrowType core.ArrowType, start, end core.Position) core.ArrowElement {
	start, end = f.snap(start), f.snap(end)
	return core.ArrowElement{
		ID:          f.newID(),
		Position:    start,
		ArrowType:   arrowType,
		StartPoint:  start,
		EndPoint:    end,
		StrokeWidth: 2,
	}
}

// NewZone creates a zone with its top-left corner at at
func (f *Factory) NewZone(shape core.ZoneShape, at core.Position, width, height float64) core.ZoneElement {
	return core.ZoneElement{
		ID:          f.newID(),
		Position:    f.snap(at),
		Shape:       shape,
		Width:       width,
		Height:      height,
		FillColor:   "#ffeb3b",
		BorderStyle: core.BorderDashed,
		Opacity:     0.3,
	}
}

// NewText creates an upright text label
func (f *Factory) NewText(at core.Position, content string) core.TextElement {
	return core.TextElement{
		ID:         f.newID(),
		Position:   f.snap(at),
		Content:    content,
		FontSize:   18,
		FontFamily: "sans-serif",
		Color:      "#ffffff",
	}
}

// NewDrawing creates a stroke from a flat point list. Points are kept as drawn
// (never snapped); a dangling odd coordinate is dropped. The drawing is
// anchored at its first point.
func (f *Factory) NewDrawing(drawingType core.DrawingType, points []float64, color string) core.DrawingElement {
	n := len(points) &^ 1
	pts := append([]float64(nil), points[:n]...)
	if pts == nil {
		pts = []float64{}
	}

	var anchor core.Position
	if n >= 2 {
		anchor = core.Position{X: pts[0], Y: pts[1]}
	}

	d := core.DrawingElement{
		ID:          f.newID(),
		Position:    anchor,
		DrawingType: drawingType,
		Points:      pts,
		Color:       color,
		StrokeWidth: 3,
		Opacity:     1,
	}
	if drawingType == core.DrawingHighlighter {
		d.StrokeWidth = 12
		d.Opacity = 0.4
	}
	return d
}

// NewEquipment creates a training prop
func (f *Factory) NewEquipment(at core.Position, equipmentType, variant, color string) core.EquipmentElement {
	return core.EquipmentElement{
		ID:            f.newID(),
		Position:      f.snap(at),
		EquipmentType: equipmentType,
		Variant:       variant,
		Color:         color,
		Scale:         1,
	}
}

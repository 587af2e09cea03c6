package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementJSON_CarriesType(t *testing.T) {
	tests := []struct {
		el   Element
		want Kind
	}{
		{PlayerElement{ID: "p", Team: TeamHome, Number: 9}, KindPlayer},
		{BallElement{ID: "b"}, KindBall},
		{ArrowElement{ID: "a", ArrowType: ArrowPass}, KindArrow},
		{ZoneElement{ID: "z", Shape: ZoneRect}, KindZone},
		{TextElement{ID: "t", Content: "hi"}, KindText},
		{DrawingElement{ID: "d"}, KindDrawing},
		{EquipmentElement{ID: "e", EquipmentType: "cone"}, KindEquipment},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			b, err := json.Marshal(tt.el)
			require.NoError(t, err)

			var head map[string]any
			require.NoError(t, json.Unmarshal(b, &head))
			assert.Equal(t, string(tt.want), head["type"])
			assert.Equal(t, tt.el.ElementID(), head["id"])

			back, err := UnmarshalElement(b)
			require.NoError(t, err)
			assert.Equal(t, tt.el.Kind(), back.Kind())
			assert.Equal(t, tt.el.ElementID(), back.ElementID())
		})
	}
}

func TestPlayerElement_OptionalFields(t *testing.T) {
	b, err := json.Marshal(PlayerElement{ID: "p", Team: TeamAway, Number: 4})
	require.NoError(t, err)
	assert.NotContains(t, string(b), "orientation")
	assert.NotContains(t, string(b), "showVision")

	b, err = json.Marshal(PlayerElement{ID: "p", Orientation: Float(0), ShowVision: true})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"orientation":0`)

	el, err := UnmarshalElement(b)
	require.NoError(t, err)
	o, ok := HasOrientation(el)
	require.True(t, ok)
	assert.Equal(t, 0.0, o)
}

func TestDrawingElement_NilPointsEncodeAsEmpty(t *testing.T) {
	b, err := json.Marshal(DrawingElement{ID: "d"})
	require.NoError(t, err)
	assert.Contains(t, string(b), `"points":[]`)
}

func TestUnmarshalElement_OddDrawingPoints(t *testing.T) {
	_, err := UnmarshalElement([]byte(`{"type":"drawing","id":"d","points":[1,2,3]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "odd number")
}

func TestUnmarshalElement_MissingType(t *testing.T) {
	_, err := UnmarshalElement([]byte(`{"id":"x"}`))
	assert.ErrorIs(t, err, ErrMissingType)

	_, err = UnmarshalElement([]byte(`not json`))
	assert.Error(t, err)
}

func TestUnmarshalElement_UnknownTypeIsPreserved(t *testing.T) {
	raw := `{"type":"hologram","id":"h1","glow":true,"position":{"x":1,"y":2}}`

	el, err := UnmarshalElement([]byte(raw))
	require.NoError(t, err)

	u, ok := el.(UnknownElement)
	require.True(t, ok)
	assert.Equal(t, "h1", u.ID)
	assert.Equal(t, Kind("hologram"), u.Kind())
	assert.False(t, IsKnown(el))

	_, ok = HasPosition(el)
	assert.False(t, ok)

	out, err := json.Marshal(el)
	require.NoError(t, err)
	assert.JSONEq(t, raw, string(out))
}

func TestStep_UnmarshalJSON(t *testing.T) {
	data := `{"id":"s1","name":"Kick-off","duration":2000,"elements":[
		{"type":"ball","id":"b","position":{"x":525,"y":340}},
		{"type":"player","id":"p","position":{"x":500,"y":340},"team":"home","number":9}
	]}`

	var s Step
	require.NoError(t, json.Unmarshal([]byte(data), &s))
	assert.Equal(t, "Kick-off", s.Name)
	assert.Equal(t, Millis(2000), s.Duration)
	require.Len(t, s.Elements, 2)
	assert.IsType(t, BallElement{}, s.Elements[0])
	assert.IsType(t, PlayerElement{}, s.Elements[1])

	err := json.Unmarshal([]byte(`{"id":"s2","elements":[{"id":"x"}]}`), &s)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMissingType)
	assert.Contains(t, err.Error(), `step "s2" element 0`)
}

func TestCapabilities(t *testing.T) {
	eq := EquipmentElement{ID: "e", Rotation: 45}
	r, ok := HasRotation(eq)
	assert.True(t, ok)
	assert.Equal(t, 45.0, r)

	_, ok = HasRotation(TextElement{ID: "t"})
	assert.False(t, ok)
	r, ok = HasRotation(TextElement{ID: "t", Rotation: Float(30)})
	assert.True(t, ok)
	assert.Equal(t, 30.0, r)

	_, ok = HasRotation(PlayerElement{})
	assert.False(t, ok)
	_, ok = HasOrientation(PlayerElement{})
	assert.False(t, ok)
	_, ok = HasOrientation(EquipmentElement{})
	assert.False(t, ok)

	_, ok = IsZoneElement(ZoneElement{})
	assert.True(t, ok)
	_, ok = IsZoneElement(BallElement{})
	assert.False(t, ok)

	assert.True(t, IsKnown(BallElement{}))
	assert.False(t, IsKnown(nil))
}

func TestWithPosition(t *testing.T) {
	p := Position{X: 7, Y: 8}
	for _, el := range []Element{PlayerElement{}, BallElement{}, ArrowElement{}, ZoneElement{}, TextElement{}, DrawingElement{}, EquipmentElement{}} {
		got, ok := HasPosition(WithPosition(el, p))
		require.True(t, ok, el.Kind())
		assert.Equal(t, p, got, el.Kind())
	}

	u := UnknownElement{ID: "u"}
	assert.Equal(t, u, WithPosition(u, p))
}

func TestCloneElement_SharesNoMemory(t *testing.T) {
	pl := PlayerElement{ID: "p", Orientation: Float(90)}
	c := CloneElement(pl).(PlayerElement)
	*c.Orientation = 180
	assert.Equal(t, 90.0, *pl.Orientation)

	d := DrawingElement{ID: "d", Points: []float64{1, 2}}
	cd := CloneElement(d).(DrawingElement)
	cd.Points[0] = 99
	assert.Equal(t, 1.0, d.Points[0])

	u := UnknownElement{ID: "u", Raw: json.RawMessage(`{"type":"x"}`)}
	cu := CloneElement(u).(UnknownElement)
	cu.Raw[2] = 'X'
	assert.Equal(t, byte('t'), u.Raw[2])

	assert.NotNil(t, CloneElements(nil))
}

func TestPitchConfig_Sizes(t *testing.T) {
	p := PitchConfig{Width: 1050, Height: 680, Padding: 40}

	w, h := p.Dimensions()
	assert.Equal(t, []float64{1050, 680}, []float64{w, h})

	p.Orientation = Portrait
	w, h = p.Dimensions()
	assert.Equal(t, []float64{680, 1050}, []float64{w, h})

	w, h = p.InnerSize(Landscape)
	assert.Equal(t, []float64{970, 600}, []float64{w, h})
	w, h = p.InnerSize(Portrait)
	assert.Equal(t, []float64{600, 970}, []float64{w, h})
}

func TestBoardDocument_CurrentStep(t *testing.T) {
	doc := BoardDocument{Steps: []Step{{ID: "a"}, {ID: "b"}}, CurrentStepIndex: 1}
	s, ok := doc.CurrentStep()
	require.True(t, ok)
	assert.Equal(t, "b", s.ID)

	doc.CurrentStepIndex = 5
	_, ok = doc.CurrentStep()
	assert.False(t, ok)
}

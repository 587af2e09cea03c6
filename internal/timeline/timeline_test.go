package timeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmcoach/board/pkg/core"
)

func sequentialIDs() IDFunc {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func steps(ids ...string) []core.Step {
	out := make([]core.Step, len(ids))
	for i, id := range ids {
		out[i] = core.Step{ID: id, Name: id, Duration: 1000}
	}
	return out
}

func ids(steps []core.Step) []string {
	out := make([]string, len(steps))
	for i, s := range steps {
		out[i] = s.ID
	}
	return out
}

func TestNew_Defaults(t *testing.T) {
	m := New(Config{}, nil)

	assert.Equal(t, core.MinStepDuration, m.Config().DefaultDuration)
	assert.Equal(t, "Step", m.Config().DefaultName)
}

func TestCreateStep(t *testing.T) {
	m := New(Config{DefaultDuration: 2000, DefaultName: "Phase"}, sequentialIDs())
	orientation := core.Float(90)
	elements := []core.Element{
		core.PlayerElement{ID: "p1", Orientation: orientation},
		core.DrawingElement{ID: "d1", Points: []float64{1, 2, 3, 4}},
	}

	s := m.CreateStep(elements, "", 0)

	assert.Equal(t, "id-1", s.ID)
	assert.Equal(t, "Phase", s.Name)
	assert.Equal(t, core.Millis(2000), s.Duration)
	require.Len(t, s.Elements, 2)

	// deep copy: edits to the copy never reach the source
	s.Elements[1].(core.DrawingElement).Points[0] = 99
	*s.Elements[0].(core.PlayerElement).Orientation = 180
	assert.Equal(t, 1.0, elements[1].(core.DrawingElement).Points[0])
	assert.Equal(t, 90.0, *orientation)
}

func TestCreateStep_ClampsDuration(t *testing.T) {
	m := New(Config{DefaultDuration: 2000}, sequentialIDs())

	s := m.CreateStep(nil, "kick-off", 20)
	assert.Equal(t, core.MinStepDuration, s.Duration)
	assert.Equal(t, "kick-off", s.Name)
	assert.NotNil(t, s.Elements)
}

func TestDuplicateStep(t *testing.T) {
	m := New(Config{DefaultDuration: 2000}, sequentialIDs())
	src := core.Step{ID: "orig", Name: "Build-up", Duration: 1500, Elements: []core.Element{
		core.DrawingElement{ID: "d", Points: []float64{5, 5}},
	}}

	dup := m.DuplicateStep(src, "")
	assert.Equal(t, "id-1", dup.ID)
	assert.Equal(t, "Build-up (copy)", dup.Name)
	assert.Equal(t, core.Millis(1500), dup.Duration)

	dup.Elements[0].(core.DrawingElement).Points[0] = 0
	assert.Equal(t, 5.0, src.Elements[0].(core.DrawingElement).Points[0])

	custom := m.DuplicateStep(src, " v2")
	assert.Equal(t, "Build-up v2", custom.Name)
}

func TestInsertStepAt(t *testing.T) {
	tests := []struct {
		name  string
		index int
		want  []string
	}{
		{"front", 0, []string{"x", "a", "b", "c"}},
		{"middle", 1, []string{"a", "x", "b", "c"}},
		{"end", 3, []string{"a", "b", "c", "x"}},
		{"past end appends", 10, []string{"a", "b", "c", "x"}},
		{"negative prepends", -1, []string{"x", "a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := steps("a", "b", "c")
			got := InsertStepAt(in, core.Step{ID: "x"}, tt.index)
			assert.Equal(t, tt.want, ids(got))
			assert.Equal(t, []string{"a", "b", "c"}, ids(in))
		})
	}
}

func TestRemoveStepAt(t *testing.T) {
	in := steps("a", "b", "c")

	assert.Equal(t, []string{"a", "c"}, ids(RemoveStepAt(in, 1)))
	assert.Equal(t, []string{"a", "b", "c"}, ids(in))
	assert.Equal(t, []string{"a", "b", "c"}, ids(RemoveStepAt(in, 3)))
	assert.Equal(t, []string{"a", "b", "c"}, ids(RemoveStepAt(in, -1)))
}

func TestMoveStep(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
		want     []string
	}{
		{"forward", 0, 2, []string{"b", "c", "a"}},
		{"backward", 2, 0, []string{"c", "a", "b"}},
		{"same place", 1, 1, []string{"a", "b", "c"}},
		{"from out of range", 5, 0, []string{"a", "b", "c"}},
		{"to out of range", 0, 3, []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := steps("a", "b", "c")
			assert.Equal(t, tt.want, ids(MoveStep(in, tt.from, tt.to)))
			assert.Equal(t, []string{"a", "b", "c"}, ids(in))
		})
	}
}

func TestUpdateStep(t *testing.T) {
	s := core.Step{ID: "a", Name: "old", Duration: 1000}

	assert.Equal(t, "new", UpdateStepName(s, "new").Name)
	assert.Equal(t, core.Millis(2500), UpdateStepDuration(s, 2500).Duration)
	assert.Equal(t, core.MinStepDuration, UpdateStepDuration(s, 0).Duration)
	assert.Equal(t, core.MinStepDuration, UpdateStepDuration(s, -50).Duration)

	els := []core.Element{core.BallElement{ID: "ball"}}
	updated := UpdateStepElements(s, els)
	require.Len(t, updated.Elements, 1)
	assert.Empty(t, s.Elements)
	assert.Equal(t, "old", s.Name)
}

func TestTotalDuration(t *testing.T) {
	assert.Equal(t, core.Millis(0), TotalDuration(nil))
	assert.Equal(t, core.Millis(3000), TotalDuration(steps("a", "b", "c")))
}

func TestFindStep(t *testing.T) {
	in := steps("a", "b", "c")

	s, ok := FindStepByID(in, "b")
	require.True(t, ok)
	assert.Equal(t, "b", s.Name)
	assert.Equal(t, 2, FindStepIndexByID(in, "c"))

	_, ok = FindStepByID(in, "zz")
	assert.False(t, ok)
	assert.Equal(t, -1, FindStepIndexByID(in, "zz"))
}

func TestReplaceStep(t *testing.T) {
	in := steps("a", "b")

	got := ReplaceStep(in, core.Step{ID: "b", Name: "renamed"})
	assert.Equal(t, "renamed", got[1].Name)
	assert.Equal(t, "b", in[1].Name)

	assert.Equal(t, in, ReplaceStep(in, core.Step{ID: "nope"}))
}

func TestNextStepName(t *testing.T) {
	assert.Equal(t, "Step 1", NextStepName(nil))
	assert.Equal(t, "Step 3", NextStepName(steps("a", "b")))
}

package project

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/tmcoach/board/internal/config"
	"github.com/tmcoach/board/internal/document"
	"github.com/tmcoach/board/internal/orientation"
	"github.com/tmcoach/board/internal/storage"
	"github.com/tmcoach/board/internal/storage/memory"
	"github.com/tmcoach/board/internal/timeline"
	"github.com/tmcoach/board/pkg/core"
)

var fixedNow = time.Date(2024, 3, 9, 15, 0, 0, 0, time.UTC)

var testPitch = core.PitchConfig{Width: 1050, Height: 680, Padding: 40, GridSize: 10, Orientation: core.Landscape}

func newTestService(t *testing.T) (*Service, *memory.Backend) {
	t.Helper()
	store := memory.New(config.MemoryConfig{})
	codec := document.NewCodec(document.Dependencies{
		Defaults: document.Defaults{Pitch: testPitch},
		Now:      func() time.Time { return fixedNow },
		Timeline: timeline.New(timeline.Config{DefaultDuration: 1000, DefaultName: "Step"}, nil),
	})
	s, err := New(Dependencies{Store: store, Codec: codec})
	require.NoError(t, err)
	return s, store
}

func twoStepDocument(s *Service, name string) core.BoardDocument {
	doc := s.Codec().CreateDocument(name, testPitch, s.Codec().Defaults().Teams)
	doc.Steps[0].Duration = 1000
	doc.Steps[0].Elements = []core.Element{
		core.PlayerElement{ID: "p1", Position: core.Position{X: 100, Y: 100}, Team: core.TeamHome, Number: 9},
	}
	doc.Steps = append(doc.Steps, core.Step{
		ID: "s2", Name: "Step 2", Duration: 1000,
		Elements: []core.Element{
			core.PlayerElement{ID: "p1", Position: core.Position{X: 300, Y: 200}, Team: core.TeamHome, Number: 9},
		},
	})
	return doc
}

func TestNew_RequiresStore(t *testing.T) {
	_, err := New(Dependencies{})
	assert.Error(t, err)
}

func TestCreate(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	doc, err := s.Create(ctx, "Counter press")
	require.NoError(t, err)
	assert.Equal(t, "Counter press", doc.Name)
	require.Len(t, doc.Steps, 1)
	assert.Equal(t, "Step 1", doc.Steps[0].Name)
	assert.Equal(t, testPitch, doc.PitchConfig)

	_, err = s.Create(ctx, "Counter press")
	assert.ErrorIs(t, err, ErrExists)

	_, err = s.Create(ctx, "a/b")
	assert.ErrorIs(t, err, storage.ErrInvalidName)
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	doc := twoStepDocument(s, "p")
	require.NoError(t, s.Save(ctx, doc))

	got, err := s.Load(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, doc.Steps, got.Steps)
	assert.Equal(t, document.CurrentVersion, got.Version)

	_, err = s.Load(ctx, "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestLoad_RejectsCorruptDocument(t *testing.T) {
	ctx := context.Background()
	s, store := newTestService(t)

	require.NoError(t, store.Save(ctx, "broken", []byte(`{"version":`)))
	_, err := s.Load(ctx, "broken")
	assert.ErrorIs(t, err, document.ErrInvalidDocument)
	assert.ErrorIs(t, err, document.ErrMalformed)
}

func TestImport_MigratesAndRenames(t *testing.T) {
	ctx := context.Background()
	s, store := newTestService(t)

	old := []byte(`{
		"version": 1,
		"name": "old name",
		"currentStepIndex": 5,
		"steps": [{"id": "s1", "name": "", "elements": [], "duration": 0}],
		"pitchConfig": {"width": 1050, "height": 680, "padding": 40, "gridSize": 10}
	}`)
	doc, err := s.Import(ctx, "Imported", old)
	require.NoError(t, err)
	assert.Equal(t, "Imported", doc.Name)
	assert.Equal(t, 0, doc.CurrentStepIndex)
	assert.Equal(t, core.Millis(1000), doc.Steps[0].Duration)
	assert.Equal(t, core.Landscape, doc.PitchConfig.Orientation)

	raw, err := store.Load(ctx, "Imported")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"version": 3`)

	_, err = s.Import(ctx, "bad", []byte(`[]`))
	assert.ErrorIs(t, err, document.ErrInvalidDocument)
	_, err = store.Load(ctx, "bad")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	require.NoError(t, s.Save(ctx, twoStepDocument(s, "p")))

	data, err := s.Export(ctx, "p")
	require.NoError(t, err)
	doc, err := s.Codec().Deserialize(data)
	require.NoError(t, err)
	assert.Len(t, doc.Steps, 2)
}

func TestDeleteAndList(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)

	_, err := s.Create(ctx, "b")
	require.NoError(t, err)
	_, err = s.Create(ctx, "a")
	require.NoError(t, err)

	infos, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "a", infos[0].Name)

	require.NoError(t, s.Delete(ctx, "a"))
	assert.ErrorIs(t, s.Delete(ctx, "a"), storage.ErrNotFound)
}

func TestRotate(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	doc := twoStepDocument(s, "p")
	require.NoError(t, s.Save(ctx, doc))

	rotated, err := s.Rotate(ctx, "p", core.Portrait)
	require.NoError(t, err)
	assert.Equal(t, core.Portrait, rotated.PitchConfig.Orientation)

	want := orientation.TransformDocument(doc, core.Portrait)
	assert.Equal(t, want.Steps, rotated.Steps)

	stored, err := s.Load(ctx, "p")
	require.NoError(t, err)
	assert.Equal(t, core.Portrait, stored.PitchConfig.Orientation)
	assert.Equal(t, want.Steps, stored.Steps)

	again, err := s.Rotate(ctx, "p", core.Portrait)
	require.NoError(t, err)
	assert.Equal(t, stored.Steps, again.Steps)

	back, err := s.Rotate(ctx, "p", core.Landscape)
	require.NoError(t, err)
	assert.Equal(t, doc.Steps, back.Steps)

	_, err = s.Rotate(ctx, "p", core.Orientation("diagonal"))
	assert.ErrorIs(t, err, ErrInvalidOrientation)
}

func TestFrameAt(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t)
	require.NoError(t, s.Save(ctx, twoStepDocument(s, "p")))

	tests := []struct {
		name     string
		elapsed  time.Duration
		index    int
		progress float64
		at       core.Position
	}{
		{"start", 0, 0, 0, core.Position{X: 100, Y: 100}},
		{"halfway", 500 * time.Millisecond, 0, 0.5, core.Position{X: 200, Y: 150}},
		{"end", 5 * time.Second, 1, 0, core.Position{X: 300, Y: 200}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := s.FrameAt(ctx, "p", tt.elapsed)
			require.NoError(t, err)
			assert.Equal(t, tt.index, f.StepIndex)
			assert.InDelta(t, tt.progress, f.Progress, 1e-9)
			require.Len(t, f.Elements, 1)
			pos, ok := core.HasPosition(f.Elements[0])
			require.True(t, ok)
			assert.InDelta(t, tt.at.X, pos.X, 1e-9)
			assert.InDelta(t, tt.at.Y, pos.Y, 1e-9)
		})
	}
}

func TestFrameOf_EmptyStep(t *testing.T) {
	f := FrameOf(core.BoardDocument{}, time.Second)
	assert.Equal(t, 0, f.StepIndex)
	assert.NotNil(t, f.Elements)
	assert.Empty(t, f.Elements)
}

func TestMigrateAll(t *testing.T) {
	ctx := context.Background()
	s, store := newTestService(t)

	require.NoError(t, store.Save(ctx, "old", []byte(`{"version":1,"steps":[],"pitchConfig":{"width":1050,"height":680}}`)))
	require.NoError(t, store.Save(ctx, "broken", []byte(`nope`)))
	_, err := s.Create(ctx, "new")
	require.NoError(t, err)

	migrated, failed, err := s.MigrateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, migrated)
	assert.Equal(t, 1, failed)

	raw, err := store.Load(ctx, "old")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"version": 3`)
}

func TestMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	prev := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)
	t.Cleanup(func() { otel.SetMeterProvider(prev) })

	ctx := context.Background()
	s, store := newTestService(t)
	require.NoError(t, s.Save(ctx, twoStepDocument(s, "p")))
	_, err := s.Load(ctx, "p")
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "broken", []byte(`{}`)))
	_, err = s.Load(ctx, "broken")
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	assert.Equal(t, int64(1), counterValue(rm, "tmc.project.saves"))
	assert.Equal(t, int64(2), counterValue(rm, "tmc.project.loads"))
	assert.Equal(t, int64(1), counterValue(rm, "tmc.project.decode_failures"))
}

func counterValue(rm metricdata.ResourceMetrics, name string) int64 {
	var total int64
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					total += dp.Value
				}
			}
		}
	}
	return total
}

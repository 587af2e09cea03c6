package document

import (
	"github.com/tmcoach/board/internal/timeline"
	"github.com/tmcoach/board/pkg/core"
)

// Migrate upgrades doc to CurrentVersion. Missing optional fields are filled
// from the codec defaults, step durations are clamped and the current step
// index is pulled back into range. Blank step names are only filled for
// documents older than CurrentVersion; an empty step list stays empty.
// Migrating an already migrated document changes nothing but UpdatedAt.
//
// The input is not modified; the result shares no memory with it.
func (c *Codec) Migrate(doc core.BoardDocument) core.BoardDocument {
	out := doc
	out.Steps = c.migrateSteps(doc.Steps, doc.Version < CurrentVersion)
	out.PitchConfig = c.migratePitch(doc.PitchConfig)
	out.TeamSettings = c.migrateTeams(doc.TeamSettings)

	if out.Name == "" {
		out.Name = c.defaults.Name
	}
	now := c.now()
	if out.CreatedAt.IsZero() {
		out.CreatedAt = now
	}
	out.UpdatedAt = now

	out.CurrentStepIndex = max(0, min(out.CurrentStepIndex, len(out.Steps)-1))
	out.Version = CurrentVersion
	return out
}

func (c *Codec) migrateSteps(steps []core.Step, legacy bool) []core.Step {
	def := c.timeline.Config().DefaultDuration
	out := make([]core.Step, len(steps))
	for i, s := range steps {
		s.Elements = core.CloneElements(s.Elements)
		if s.Duration <= 0 {
			s.Duration = def
		}
		s.Duration = timeline.ClampDuration(s.Duration)
		if legacy && s.Name == "" {
			s.Name = timeline.NextStepName(out[:i])
		}
		out[i] = s
	}
	return out
}

// migratePitch fills fields absent before version 3. A pitch without
// dimensions is replaced by the default one.
func (c *Codec) migratePitch(p core.PitchConfig) core.PitchConfig {
	def := c.defaults.Pitch
	if p.Width <= 0 || p.Height <= 0 {
		return def
	}
	if p.Padding < 0 {
		p.Padding = def.Padding
	}
	if p.GridSize <= 0 {
		p.GridSize = def.GridSize
	}
	if p.Orientation != core.Landscape && p.Orientation != core.Portrait {
		p.Orientation = core.Landscape
	}
	return p
}

// migrateTeams fills teamSettings, absent before version 2
func (c *Codec) migrateTeams(t core.TeamSettings) core.TeamSettings {
	def := c.defaults.Teams
	if t.Home == (core.TeamStyle{}) {
		t.Home = def.Home
	}
	if t.Away == (core.TeamStyle{}) {
		t.Away = def.Away
	}
	return t
}

// Package document encodes and decodes board documents and upgrades older
// saves to the current schema.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tmcoach/board/internal/timeline"
	"github.com/tmcoach/board/pkg/core"
)

// CurrentVersion is the schema version written by Serialize.
//
//	1: no teamSettings
//	2: no pitchConfig.orientation
//	3: current
const CurrentVersion = 3

// FileExtension is appended to project names for exported files
const FileExtension = ".tmc.json"

var (
	// ErrInvalidDocument is the failure marker of Deserialize. Every decode
	// error wraps it.
	ErrInvalidDocument = errors.New("invalid board document")
	// ErrMalformed means the input is not valid JSON or an element could not be decoded
	ErrMalformed = fmt.Errorf("%w: malformed", ErrInvalidDocument)
	// ErrIncomplete means a required top-level field is missing or has the wrong shape
	ErrIncomplete = fmt.Errorf("%w: incomplete", ErrInvalidDocument)
	// ErrUnsupportedVersion means the document was written by a newer schema
	ErrUnsupportedVersion = fmt.Errorf("%w: unsupported version", ErrInvalidDocument)
)

// DefaultPitch is the pitch used when Defaults.Pitch has no dimensions
var DefaultPitch = core.PitchConfig{Width: 1050, Height: 680, Padding: 40, GridSize: 10, Orientation: core.Landscape}

// DefaultTeams are the team styles used when Defaults.Teams is empty
var DefaultTeams = core.TeamSettings{
	Home: core.TeamStyle{Name: "Home", PrimaryColor: "#e53935", SecondaryColor: "#ffffff"},
	Away: core.TeamStyle{Name: "Away", PrimaryColor: "#1e88e5", SecondaryColor: "#ffffff"},
}

// Defaults are the values filled into new and migrated documents
type Defaults struct {
	Name  string
	Pitch core.PitchConfig
	Teams core.TeamSettings
}

// Dependencies of a Codec. Zero fields get working defaults: DefaultPitch,
// DefaultTeams, the name "Untitled", the wall clock and a timeline manager
// with its own defaults.
type Dependencies struct {
	Defaults Defaults
	Now      func() time.Time
	Timeline *timeline.Manager
}

// Codec creates, serializes, deserializes and migrates documents
type Codec struct {
	defaults Defaults
	now      func() time.Time
	timeline *timeline.Manager
}

// NewCodec creates a Codec
func NewCodec(deps Dependencies) *Codec {
	c := &Codec{
		defaults: deps.Defaults,
		now:      deps.Now,
		timeline: deps.Timeline,
	}
	if c.now == nil {
		c.now = func() time.Time { return time.Now().UTC() }
	}
	if c.timeline == nil {
		c.timeline = timeline.New(timeline.Config{}, nil)
	}
	if c.defaults.Name == "" {
		c.defaults.Name = "Untitled"
	}
	if c.defaults.Pitch.Width <= 0 || c.defaults.Pitch.Height <= 0 {
		c.defaults.Pitch = DefaultPitch
	}
	if c.defaults.Pitch.Orientation == "" {
		c.defaults.Pitch.Orientation = core.Landscape
	}
	if c.defaults.Teams == (core.TeamSettings{}) {
		c.defaults.Teams = DefaultTeams
	}
	return c
}

// Defaults returns the defaults the codec fills in
func (c *Codec) Defaults() Defaults {
	return c.defaults
}

// CreateDocument builds a fresh document with a single empty step
func (c *Codec) CreateDocument(name string, pitch core.PitchConfig, teams core.TeamSettings) core.BoardDocument {
	if name == "" {
		name = c.defaults.Name
	}
	if pitch.Orientation == "" {
		pitch.Orientation = core.Landscape
	}
	now := c.now()
	return core.BoardDocument{
		Version:          CurrentVersion,
		Name:             name,
		CreatedAt:        now,
		UpdatedAt:        now,
		CurrentStepIndex: 0,
		Steps:            []core.Step{c.timeline.CreateStep(nil, timeline.NextStepName(nil), 0)},
		PitchConfig:      pitch,
		TeamSettings:     teams,
	}
}

// Serialize encodes doc as indented JSON. Field order is fixed so equal
// documents always produce equal bytes. doc is not modified.
func (c *Codec) Serialize(doc core.BoardDocument) ([]byte, error) {
	steps := make([]core.Step, len(doc.Steps))
	copy(steps, doc.Steps)
	for i := range steps {
		if steps[i].Elements == nil {
			steps[i].Elements = []core.Element{}
		}
	}
	doc.Steps = steps
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("serialize document %q: %w", doc.Name, err)
	}
	return b, nil
}

// Deserialize decodes and migrates a document. Any failure is returned as an
// error wrapping ErrInvalidDocument; it never panics on bad input.
func (c *Codec) Deserialize(data []byte) (core.BoardDocument, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return core.BoardDocument{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if top == nil {
		return core.BoardDocument{}, fmt.Errorf("%w: document is null", ErrIncomplete)
	}

	if err := requireShape(top, "version", isNumber); err != nil {
		return core.BoardDocument{}, err
	}
	if err := requireShape(top, "steps", isArray); err != nil {
		return core.BoardDocument{}, err
	}
	if err := requireShape(top, "pitchConfig", isObject); err != nil {
		return core.BoardDocument{}, err
	}

	var doc core.BoardDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return core.BoardDocument{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if doc.Version < 1 || doc.Version > CurrentVersion {
		return core.BoardDocument{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, doc.Version)
	}

	return c.Migrate(doc), nil
}

func requireShape(top map[string]json.RawMessage, field string, ok func(json.RawMessage) bool) error {
	raw, present := top[field]
	if !present {
		return fmt.Errorf("%w: missing %s", ErrIncomplete, field)
	}
	if !ok(raw) {
		return fmt.Errorf("%w: %s has the wrong type", ErrIncomplete, field)
	}
	return nil
}

func firstByte(raw json.RawMessage) byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0
	}
	return raw[0]
}

func isArray(raw json.RawMessage) bool  { return firstByte(raw) == '[' }
func isObject(raw json.RawMessage) bool { return firstByte(raw) == '{' }

func isNumber(raw json.RawMessage) bool {
	b := firstByte(raw)
	return b == '-' || (b >= '0' && b <= '9')
}

// FileName is the export file name for a project, "<name>.tmc.json".
// Path separators are replaced so the result is always a single file name.
func FileName(name string) string {
	name = strings.TrimSpace(name)
	name = strings.NewReplacer("/", "-", "\\", "-").Replace(name)
	if name == "" || name == "." || name == ".." {
		name = "untitled"
	}
	return name + FileExtension
}

// ProjectName is the inverse of FileName. ok is false when file does not
// carry the export extension.
func ProjectName(file string) (name string, ok bool) {
	name, ok = strings.CutSuffix(file, FileExtension)
	if !ok || name == "" {
		return "", false
	}
	return name, true
}

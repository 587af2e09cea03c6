package document

import (
	"slices"
	"time"

	"github.com/tmcoach/board/internal/board"
	"github.com/tmcoach/board/pkg/core"
)

// Snapshot is one undo entry: a private copy of a step's elements and the
// selection at the time it was taken.
type Snapshot struct {
	Elements    []core.Element `json:"elements"`
	SelectedIDs []string       `json:"selectedIds"`
	TakenAt     time.Time      `json:"takenAt"`
}

// Snapshot deep-copies elements and records the selected ids in sorted order
func (c *Codec) Snapshot(elements []core.Element, selection board.Selection) Snapshot {
	ids := selection.IDs()
	slices.Sort(ids)
	return Snapshot{
		Elements:    core.CloneElements(elements),
		SelectedIDs: ids,
		TakenAt:     c.now(),
	}
}

// Selection rebuilds the selection set recorded in s
func (s Snapshot) Selection() board.Selection {
	return board.Select(s.SelectedIDs...)
}

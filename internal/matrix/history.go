package matrix

import (
	"time"

	"github.com/roach88/varmatrix/internal/ir"
)

// History is a snapshot-based undo/redo stack over attributes and variants.
//
// Snapshots share slices with the live state instead of deep-copying them.
// This is safe because every attribute and variant operation returns new
// slices and never writes to the ones it was given.
//
// Both stacks are capped; pushing past the cap evicts the oldest entry.
// History is not safe for concurrent use.
type History struct {
	undo  []ir.Snapshot
	redo  []ir.Snapshot
	limit int
	seq   int64
	now   func() time.Time
}

// NewHistory creates an empty history holding at most limit entries per stack.
func NewHistory(limit int, now func() time.Time) *History {
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	if now == nil {
		now = time.Now
	}
	return &History{limit: limit, now: now}
}

// Snapshot stamps the given state with the next sequence number.
func (h *History) Snapshot(attrs []ir.Attribute, variants []ir.Variant) ir.Snapshot {
	h.seq++
	return ir.Snapshot{
		Attributes: attrs,
		Variants:   variants,
		Seq:        h.seq,
		Timestamp:  h.now(),
	}
}

// Record pushes the pre-mutation state onto the undo stack and clears redo.
func (h *History) Record(attrs []ir.Attribute, variants []ir.Variant) {
	h.undo = pushBounded(h.undo, h.Snapshot(attrs, variants), h.limit)
	h.redo = nil
}

// Undo pops the latest undo snapshot, pushing the current state onto redo.
// Returns false, and leaves both stacks untouched, when there is nothing to undo.
func (h *History) Undo(attrs []ir.Attribute, variants []ir.Variant) (ir.Snapshot, bool) {
	if len(h.undo) == 0 {
		return ir.Snapshot{}, false
	}
	prev := h.undo[len(h.undo)-1]
	h.undo = h.undo[:len(h.undo)-1]
	h.redo = pushBounded(h.redo, h.Snapshot(attrs, variants), h.limit)
	return prev, true
}

// Redo is the mirror of Undo.
func (h *History) Redo(attrs []ir.Attribute, variants []ir.Variant) (ir.Snapshot, bool) {
	if len(h.redo) == 0 {
		return ir.Snapshot{}, false
	}
	next := h.redo[len(h.redo)-1]
	h.redo = h.redo[:len(h.redo)-1]
	h.undo = pushBounded(h.undo, h.Snapshot(attrs, variants), h.limit)
	return next, true
}

// CanUndo reports whether Undo would change state.
func (h *History) CanUndo() bool { return len(h.undo) > 0 }

// CanRedo reports whether Redo would change state.
func (h *History) CanRedo() bool { return len(h.redo) > 0 }

// UndoDepth returns the number of undo entries.
func (h *History) UndoDepth() int { return len(h.undo) }

// RedoDepth returns the number of redo entries.
func (h *History) RedoDepth() int { return len(h.redo) }

// Clear drops both stacks.
func (h *History) Clear() {
	h.undo = nil
	h.redo = nil
}

// pushBounded appends s, evicting from the front when over limit.
func pushBounded(stack []ir.Snapshot, s ir.Snapshot, limit int) []ir.Snapshot {
	stack = append(stack, s)
	if over := len(stack) - limit; over > 0 {
		// Zero evicted slots so their slices can be collected.
		for i := 0; i < over; i++ {
			stack[i] = ir.Snapshot{}
		}
		stack = append(stack[:0:0], stack[over:]...)
	}
	return stack
}

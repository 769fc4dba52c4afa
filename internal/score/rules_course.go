package score

import (
	"github.com/campushq/timetable/internal/model"
)

// coursePairScore covers one (course, group) bucket: the impossible
// same-batch overlap, the preference for B1/B2 sharing a slot, and the
// reward for back-to-back sessions of the same course.
func (e *evaluator) coursePairScore(key pairKey) model.Score {
	indices := e.pairSessions[key]
	if len(indices) < 2 {
		return model.Score{}
	}

	var sc model.Score
	slots := e.p.Slots

	for x := 0; x < len(indices); x++ {
		for y := x + 1; y < len(indices); y++ {
			a, b := &e.sessions[indices[x]], &e.sessions[indices[y]]

			aBatched := a.Batch != model.BatchNone
			bBatched := b.Batch != model.BatchNone

			if aBatched && bBatched {
				if a.Batch == b.Batch {
					if a.Slot != model.Unassigned && b.Slot != model.Unassigned &&
						slots[a.Slot].Overlaps(slots[b.Slot]) {
						sc.Hard += weightSameBatch
					}
				} else if a.Slot != b.Slot {
					sc.Soft += weightPairedBatchSlot
				}
			}

			if a.Slot != model.Unassigned && b.Slot != model.Unassigned &&
				adjacent(slots[a.Slot], slots[b.Slot]) {
				sc.Soft += weightConsecutive
			}
		}
	}
	return sc
}

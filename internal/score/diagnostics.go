package score

import (
	"slices"

	"github.com/campushq/timetable/internal/model"
)

// Diagnostics rescans the arena and names every violated hard constraint.
// It is a reporting path, not a scoring path: called once per solve, after
// termination.
func (e *evaluator) Diagnostics() []model.Violation {
	var out []model.Violation
	add := func(constraint string, penalty int, ids ...string) {
		out = append(out, model.Violation{Constraint: constraint, Sessions: ids, Penalty: penalty})
	}

	for i := range e.sessions {
		s := &e.sessions[i]
		group := &e.p.Groups[s.Group]

		if s.Kind != model.KindLab && s.Batch != model.BatchNone {
			add("lecture or tutorial carries a batch label", weightTheoryBatch, s.ID)
		}
		if s.Kind == model.KindLab && s.Batch == model.BatchNone && group.Size > e.p.BatchThreshold {
			add("lab for a large group is not batched", weightUnbatchedLab, s.ID)
		}

		if !s.Assigned() {
			add("session left unassigned", s.Capacity+2, s.ID)
			continue
		}

		slot := e.p.Slots[s.Slot]
		room := e.p.Rooms[s.Room]

		if s.RequiresLabRoom() && !slot.IsLab {
			add("lab session in a theory slot", weightKindMismatch, s.ID)
		}
		if s.RequiresTheoryRoom() && slot.IsLab {
			add("theory session in a lab slot", weightKindMismatch, s.ID)
		}
		if s.RequiresLabRoom() && !room.IsLab {
			add("lab session in a theory room", weightKindMismatch, s.ID)
		}
		if s.RequiresTheoryRoom() && room.IsLab {
			add("theory session in a lab room", weightKindMismatch, s.ID)
		}
		if room.Capacity < s.Capacity {
			add("room capacity exceeded", s.Capacity-room.Capacity, s.ID)
		}
		if s.PinnedRoom != model.Unassigned && s.Room != s.PinnedRoom {
			add("session moved away from its pinned room", weightPinnedRoom, s.ID)
		}

		course := &e.p.Courses[s.Course]
		if s.Kind == model.KindLab {
			if mapping, ok := e.mappingByCourse[s.Course]; ok {
				if !slices.Contains(mapping.Rooms, s.Room) {
					add("mapped course outside its allowed labs", weightMappedLab, s.ID)
				}
			} else if typeMismatch(course, room, e.alwaysComputer) {
				add("lab type mismatch", weightLabTypeMismatch, s.ID)
			}
		}

		for _, b := range e.teacherBlackouts[s.Teacher] {
			if b.Covers(slot) {
				add("teacher unavailable", weightBlackout, s.ID)
			}
		}
		for _, b := range e.roomBlackouts[s.Room] {
			if b.Covers(slot) {
				add("room unavailable", weightBlackout, s.ID)
			}
		}

		if !e.p.WorkdayAllowed(group.Department, slot.Day) {
			add("department outside its allowed days", weightWorkday, s.ID)
		}
		if dept, ok := e.p.RestrictedRooms[room.Name]; ok && dept != group.Department {
			add("restricted room used by another department", weightRestrictedRoom, s.ID)
		}
	}

	for _, occ := range e.occupants {
		for x := 0; x < len(occ); x++ {
			for y := x + 1; y < len(occ); y++ {
				add("room double-booked", weightConflict,
					e.sessions[occ[x]].ID, e.sessions[occ[y]].ID)
			}
		}
	}

	slots := e.p.Slots
	for t := range e.p.Teachers {
		for _, day := range e.activeDays(e.teacherSessions[t]) {
			indices := e.assignedOnDay(e.teacherSessions[t], day)
			for x := 0; x < len(indices); x++ {
				for y := x + 1; y < len(indices); y++ {
					a, b := &e.sessions[indices[x]], &e.sessions[indices[y]]
					if slots[a.Slot].Overlaps(slots[b.Slot]) {
						add("teacher double-booked", weightConflict, a.ID, b.ID)
					}
				}
			}
		}
	}

	for g := range e.p.Groups {
		for _, day := range e.activeDays(e.groupSessions[g]) {
			indices := e.assignedOnDay(e.groupSessions[g], day)
			for x := 0; x < len(indices); x++ {
				for y := x + 1; y < len(indices); y++ {
					a, b := &e.sessions[indices[x]], &e.sessions[indices[y]]
					if slots[a.Slot].Overlaps(slots[b.Slot]) && batchesCollide(a.Batch, b.Batch) {
						add("student group double-booked", weightConflict, a.ID, b.ID)
					}
				}
			}
			if e.lunchOccupancy(indices) == 3 {
				ids := make([]string, 0, len(indices))
				for _, i := range indices {
					ids = append(ids, e.sessions[i].ID)
				}
				add("no lunch window left", lunchPenalty(3), ids...)
			}
		}
	}

	for _, indices := range e.pairSessions {
		for x := 0; x < len(indices); x++ {
			for y := x + 1; y < len(indices); y++ {
				a, b := &e.sessions[indices[x]], &e.sessions[indices[y]]
				if a.Batch != model.BatchNone && a.Batch == b.Batch &&
					a.Slot != model.Unassigned && b.Slot != model.Unassigned &&
					slots[a.Slot].Overlaps(slots[b.Slot]) {
					add("same batch double-booked", weightSameBatch, a.ID, b.ID)
				}
			}
		}
	}

	return out
}

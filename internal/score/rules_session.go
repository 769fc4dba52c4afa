package score

import (
	"slices"

	"github.com/campushq/timetable/internal/model"
)

// sessionScore is the contribution that depends only on one session's own
// assignment: structural kind filters, capacity, lab typing and mapping,
// blackouts, workday policy, pinning and the batching legality rules.
func (e *evaluator) sessionScore(i int) model.Score {
	s := &e.sessions[i]
	var sc model.Score

	// Batching legality holds whether or not the session is placed.
	if s.Kind != model.KindLab && s.Batch != model.BatchNone {
		sc.Hard += weightTheoryBatch
	}
	group := &e.p.Groups[s.Group]
	if s.Kind == model.KindLab && s.Batch == model.BatchNone && group.Size > e.p.BatchThreshold {
		sc.Hard += weightUnbatchedLab
	}

	if !s.Assigned() {
		// Dominates any placement: the capacity shortfall of a missing
		// room plus both kind filters.
		sc.Hard += s.Capacity + 2
		return sc
	}

	slot := e.p.Slots[s.Slot]
	room := e.p.Rooms[s.Room]

	if s.RequiresLabRoom() != slot.IsLab {
		sc.Hard += weightKindMismatch
	}
	if s.RequiresLabRoom() != room.IsLab {
		sc.Hard += weightKindMismatch
	}

	if room.Capacity < s.Capacity {
		sc.Hard += s.Capacity - room.Capacity
	}

	if s.PinnedRoom != model.Unassigned && s.Room != s.PinnedRoom {
		sc.Hard += weightPinnedRoom
	}

	course := &e.p.Courses[s.Course]
	if s.Kind == model.KindLab {
		if mapping, ok := e.mappingByCourse[s.Course]; ok {
			if pos := slices.Index(mapping.Rooms, s.Room); pos < 0 {
				sc.Hard += weightMappedLab
			} else {
				sc.Soft += weightLabPriority * pos
			}
		} else if typeMismatch(course, room, e.alwaysComputer) {
			sc.Hard += weightLabTypeMismatch
		}
		if s.Batch != model.BatchNone && room.Capacity >= largeLabThreshold {
			sc.Soft += weightLargeLabWaste * labWastefulness(group.Size/2, room.Capacity)
		}
	}

	for _, b := range e.teacherBlackouts[s.Teacher] {
		if b.Covers(slot) {
			sc.Hard += weightBlackout
		}
	}
	for _, b := range e.roomBlackouts[s.Room] {
		if b.Covers(slot) {
			sc.Hard += weightBlackout
		}
	}

	if !e.p.WorkdayAllowed(group.Department, slot.Day) {
		sc.Hard += weightWorkday
	}

	if dept, ok := e.p.RestrictedRooms[room.Name]; ok && dept != group.Department {
		sc.Hard += weightRestrictedRoom
	}

	return sc
}

// typeMismatch applies the declared lab-type rule for unmapped courses:
// "computer" and "core" match any room of that type, any other declared
// type must match exactly, and the always-computer course list forces a
// computer lab even without a declared type.
func typeMismatch(course *model.Course, room model.Room, alwaysComputer map[string]bool) bool {
	switch course.LabType {
	case "":
		return alwaysComputer[course.Code] && room.LabType != "computer"
	case "computer":
		return room.LabType != "computer"
	case "core":
		return room.LabType != "core"
	default:
		return course.LabType != room.LabType
	}
}

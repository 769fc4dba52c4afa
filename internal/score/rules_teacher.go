package score

import (
	"sort"

	"github.com/samber/lo"

	"github.com/campushq/timetable/internal/model"
)

// teacherDayScore covers everything keyed by one (teacher, day) bucket:
// overlapping pairs, the longest back-to-back run, daily load, workday span
// and travel between blocks.
func (e *evaluator) teacherDayScore(t, day int) model.Score {
	indices := e.assignedOnDay(e.teacherSessions[t], day)
	if len(indices) == 0 {
		return model.Score{}
	}

	var sc model.Score
	slots := e.p.Slots

	for x := 0; x < len(indices); x++ {
		for y := x + 1; y < len(indices); y++ {
			a, b := &e.sessions[indices[x]], &e.sessions[indices[y]]
			if slots[a.Slot].Overlaps(slots[b.Slot]) {
				sc.Hard += weightConflict
			}
			if adjacent(slots[a.Slot], slots[b.Slot]) &&
				a.Room != model.Unassigned && b.Room != model.Unassigned &&
				e.p.Rooms[a.Room].Block != e.p.Rooms[b.Room].Block {
				sc.Soft += weightTravel
			}
		}
	}

	sort.Slice(indices, func(x, y int) bool {
		return slots[e.sessions[indices[x]].Slot].Start < slots[e.sessions[indices[y]].Slot].Start
	})

	// Longest run of sessions separated by at most adjacencyGap minutes.
	maxRun, run := 0, 0
	var runEnd model.Minutes
	for n, i := range indices {
		s := &e.sessions[i]
		hours := s.EffectiveHours(slots, e.p.DefaultSessionHours)
		if n == 0 || slots[s.Slot].Start-runEnd > adjacencyGap {
			maxRun = max(maxRun, run)
			run = hours
		} else {
			run += hours
		}
		runEnd = slots[s.Slot].End
	}
	maxRun = max(maxRun, run)
	if maxRun > maxContinuousHours {
		sc.Soft += weightContinuousRun * (maxRun - maxContinuousHours) * 10
	}

	dailyHours := lo.SumBy(indices, func(i int) int {
		return e.sessions[i].EffectiveHours(slots, e.p.DefaultSessionHours)
	})
	if dailyHours > maxDailyHours {
		sc.Soft += weightDailyLoad * (dailyHours - maxDailyHours)
	}

	first := slots[e.sessions[indices[0]].Slot].Start
	last := lo.Max(lo.Map(indices, func(i int, _ int) model.Minutes {
		return slots[e.sessions[i].Slot].End
	}))
	if span := int(last - first); span > maxDaySpanMinutes {
		sc.Soft += weightWorkdaySpan * (span - maxDaySpanMinutes)
	}

	return sc
}

// teacherWeekScore charges effective hours beyond the weekly cap.
func (e *evaluator) teacherWeekScore(t int) model.Score {
	total := 0
	for _, i := range e.teacherSessions[t] {
		s := &e.sessions[i]
		if s.Slot == model.Unassigned {
			continue
		}
		total += s.EffectiveHours(e.p.Slots, e.p.DefaultSessionHours)
	}
	if limit := e.p.Teachers[t].MaxWeeklyHours; total > limit {
		return model.Score{Soft: weightWeeklyHours * (total - limit)}
	}
	return model.Score{}
}

// assignedOnDay filters the static session list down to the given day.
func (e *evaluator) assignedOnDay(indices []int, day int) []int {
	return lo.Filter(indices, func(i int, _ int) bool {
		s := &e.sessions[i]
		return s.Slot != model.Unassigned && e.p.Slots[s.Slot].Day == day
	})
}

// adjacent reports two same-day slots meeting end to start in either order.
func adjacent(a, b model.TimeSlot) bool {
	return a.Day == b.Day && (a.End == b.Start || b.End == a.Start)
}

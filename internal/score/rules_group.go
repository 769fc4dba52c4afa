package score

import (
	"math"

	"github.com/samber/lo"

	"github.com/campushq/timetable/internal/model"
)

// groupDayScore covers one (group, day) bucket: the batch-aware conflict
// rule, the lunch window, shift adherence, the minimum class count and the
// theory/lab mix of the day.
func (e *evaluator) groupDayScore(g, day int) model.Score {
	indices := e.assignedOnDay(e.groupSessions[g], day)
	if len(indices) == 0 {
		return model.Score{}
	}

	var sc model.Score
	slots := e.p.Slots

	for x := 0; x < len(indices); x++ {
		for y := x + 1; y < len(indices); y++ {
			a, b := &e.sessions[indices[x]], &e.sessions[indices[y]]
			if slots[a.Slot].Overlaps(slots[b.Slot]) && batchesCollide(a.Batch, b.Batch) {
				sc.Hard += weightConflict
			}
		}
	}

	if e.lunchOccupancy(indices) == 3 {
		sc.Hard += lunchPenalty(3)
	}

	first := lo.Min(lo.Map(indices, func(i int, _ int) model.Minutes { return slots[e.sessions[i].Slot].Start }))
	last := lo.Max(lo.Map(indices, func(i int, _ int) model.Minutes { return slots[e.sessions[i].Slot].End }))
	if !fitsShift(first, last) {
		sc.Soft += weightShiftAdherence * shiftViolation(first, last)
	}

	if len(indices) < minClassesPerDay {
		sc.Soft += weightMinClasses * (minClassesPerDay - len(indices)) * 10
	}

	theory := lo.CountBy(indices, func(i int) bool { return e.sessions[i].RequiresTheoryRoom() })
	labs := len(indices) - theory
	if labs == 0 {
		sc.Soft += weightNoLabDay * max(10, theory*5)
	}
	if theory == 0 || labs == 0 {
		imbalance := theory - labs
		if imbalance < 0 {
			imbalance = -imbalance
		}
		sc.Soft += weightOneKindDay * (20 + len(indices)*10 + imbalance*15)
	}

	return sc
}

// groupWeekScore penalizes an uneven spread of classes across active days.
func (e *evaluator) groupWeekScore(g int) model.Score {
	counts := make(map[int]int)
	for _, i := range e.groupSessions[g] {
		if day, ok := e.sessionDay(i); ok {
			counts[day]++
		}
	}
	if len(counts) == 0 {
		return model.Score{}
	}

	mean := 0.0
	for _, c := range counts {
		mean += float64(c)
	}
	mean /= float64(len(counts))
	variance := 0.0
	for _, c := range counts {
		variance += (float64(c) - mean) * (float64(c) - mean)
	}
	variance /= float64(len(counts))
	stdev := math.Sqrt(variance)

	penalty := 0
	if stdev > 2.0 {
		penalty += int((stdev - 2.0) * 20)
	} else if stdev > 1.5 {
		penalty += int((stdev - 1.5) * 10)
	}
	for _, c := range counts {
		if c > 6 {
			penalty += 25
		}
	}
	if penalty == 0 {
		return model.Score{}
	}
	return model.Score{Soft: weightWeeklyBalance * penalty}
}

// batchesCollide applies the group conflict rule: full-group sessions
// collide with everything, batched labs only with the same batch label.
func batchesCollide(a, b model.Batch) bool {
	if a == model.BatchNone || b == model.BatchNone {
		return true
	}
	return a == b
}

// lunchOccupancy counts how many of the three midday theory starts are
// taken by theory sessions of the bucket.
func (e *evaluator) lunchOccupancy(indices []int) int {
	occupied := map[model.Minutes]bool{}
	for _, i := range indices {
		s := &e.sessions[i]
		if !s.RequiresTheoryRoom() {
			continue
		}
		start := e.p.Slots[s.Slot].Start
		if start == lunchFirstStart || start == lunchSecondStart || start == lunchThirdStart {
			occupied[start] = true
		}
	}
	return len(occupied)
}

// fitsShift accepts a day span contained in either standard window.
func fitsShift(first, last model.Minutes) bool {
	early := first >= earlyShiftStart && last <= earlyShiftEnd
	mid := first >= midShiftStart && last <= midShiftEnd
	return early || mid
}

// shiftViolation grades a day outside both windows: a flat base, the span
// beyond 8 hours, and surcharges for very early starts, late first classes
// and late ends.
func shiftViolation(first, last model.Minutes) int {
	penalty := 20
	if spanHours := int(last-first) / 60; spanHours > 8 {
		penalty += (spanHours - 8) * 10
	}
	if first < veryEarlyStart {
		penalty += 15
	}
	if first > lateFirstStart {
		penalty += 15
	}
	if last > lateDayEnd {
		penalty += 25
	}
	return penalty
}

// Package score computes the two-tier penalty of an assignment state and
// keeps it current across single-session moves without rescanning the whole
// arena. Contributions are cached per bucket: per session, per (room, slot),
// per (teacher, day), per teacher week, per (group, day), per group week and
// per (course, group). A move touches a bounded number of buckets.
package score

import (
	"github.com/samber/lo"

	"github.com/campushq/timetable/internal/model"
)

type Evaluator interface {
	// Score returns the current cached total.
	Score() model.Score

	// Assign moves a session to (slot, room), either of which may be
	// model.Unassigned, and returns the updated total. Undo is a second
	// Assign with the previous values.
	Assign(session, slot, room int) model.Score

	// Full rebuilds every bucket from scratch and returns the total.
	Full() model.Score

	// Sessions exposes the live arena the evaluator scores. Callers
	// must mutate it only through Assign.
	Sessions() []model.Session

	// Diagnostics lists every violated hard constraint with the
	// offending session identities.
	Diagnostics() []model.Violation
}

type dayKey struct {
	entity int
	day    int
}

type pairKey struct {
	a int
	b int
}

type evaluator struct {
	p        *model.Problem
	sessions []model.Session

	// Static indices: the teacher, group and course of a session never
	// change, only its slot and room do.
	teacherSessions  [][]int
	groupSessions    [][]int
	pairSessions     map[pairKey][]int // (course, group)
	mappingByCourse  map[int]*model.LabMapping
	alwaysComputer   map[string]bool
	teacherBlackouts map[int][]model.Blackout
	roomBlackouts    map[int][]model.Blackout

	// Cached contributions.
	perSession  []model.Score
	roomSlot    map[pairKey]model.Score
	occupants   map[pairKey][]int
	teacherDay  map[dayKey]model.Score
	teacherWeek []model.Score
	groupDay    map[dayKey]model.Score
	groupWeek   []model.Score
	coursePair  map[pairKey]model.Score

	total model.Score
}

func NewEvaluator(p *model.Problem, sessions []model.Session) Evaluator {
	e := &evaluator{
		p:                p,
		sessions:         sessions,
		teacherSessions:  make([][]int, len(p.Teachers)),
		groupSessions:    make([][]int, len(p.Groups)),
		pairSessions:     make(map[pairKey][]int),
		mappingByCourse:  make(map[int]*model.LabMapping),
		alwaysComputer:   lo.SliceToMap(p.AlwaysComputer, func(c string) (string, bool) { return c, true }),
		teacherBlackouts: make(map[int][]model.Blackout),
		roomBlackouts:    make(map[int][]model.Blackout),
	}

	for i := range sessions {
		s := &sessions[i]
		e.teacherSessions[s.Teacher] = append(e.teacherSessions[s.Teacher], i)
		e.groupSessions[s.Group] = append(e.groupSessions[s.Group], i)
		key := pairKey{s.Course, s.Group}
		e.pairSessions[key] = append(e.pairSessions[key], i)
	}

	for ci := range p.Courses {
		if m := p.Mapping(p.Courses[ci].Code); m != nil {
			e.mappingByCourse[ci] = m
		}
	}

	for _, b := range p.TeacherBlackouts {
		e.teacherBlackouts[b.Entity] = append(e.teacherBlackouts[b.Entity], b)
	}
	for _, b := range p.RoomBlackouts {
		e.roomBlackouts[b.Entity] = append(e.roomBlackouts[b.Entity], b)
	}

	e.Full()
	return e
}

func (e *evaluator) Score() model.Score { return e.total }

func (e *evaluator) Sessions() []model.Session { return e.sessions }

func (e *evaluator) Full() model.Score {
	e.perSession = make([]model.Score, len(e.sessions))
	e.roomSlot = make(map[pairKey]model.Score)
	e.occupants = make(map[pairKey][]int)
	e.teacherDay = make(map[dayKey]model.Score)
	e.teacherWeek = make([]model.Score, len(e.p.Teachers))
	e.groupDay = make(map[dayKey]model.Score)
	e.groupWeek = make([]model.Score, len(e.p.Groups))
	e.coursePair = make(map[pairKey]model.Score)
	e.total = model.Score{}

	for i := range e.sessions {
		e.perSession[i] = e.sessionScore(i)
		e.total = e.total.Add(e.perSession[i])
		if key, ok := e.occupancyKey(i); ok {
			e.occupants[key] = append(e.occupants[key], i)
		}
	}
	for key := range e.occupants {
		sc := e.roomSlotScore(key)
		e.roomSlot[key] = sc
		e.total = e.total.Add(sc)
	}

	for t := range e.p.Teachers {
		for _, day := range e.activeDays(e.teacherSessions[t]) {
			key := dayKey{t, day}
			sc := e.teacherDayScore(t, day)
			e.teacherDay[key] = sc
			e.total = e.total.Add(sc)
		}
		e.teacherWeek[t] = e.teacherWeekScore(t)
		e.total = e.total.Add(e.teacherWeek[t])
	}

	for g := range e.p.Groups {
		for _, day := range e.activeDays(e.groupSessions[g]) {
			key := dayKey{g, day}
			sc := e.groupDayScore(g, day)
			e.groupDay[key] = sc
			e.total = e.total.Add(sc)
		}
		e.groupWeek[g] = e.groupWeekScore(g)
		e.total = e.total.Add(e.groupWeek[g])
	}

	for key := range e.pairSessions {
		sc := e.coursePairScore(key)
		e.coursePair[key] = sc
		e.total = e.total.Add(sc)
	}

	return e.total
}

func (e *evaluator) Assign(session, slot, room int) model.Score {
	s := &e.sessions[session]
	if s.Slot == slot && s.Room == room {
		return e.total
	}

	oldDay, oldHasDay := e.sessionDay(session)
	oldKey, oldOcc := e.occupancyKey(session)

	if oldOcc {
		e.occupants[oldKey] = lo.Without(e.occupants[oldKey], session)
		if len(e.occupants[oldKey]) == 0 {
			delete(e.occupants, oldKey)
		}
	}

	s.Slot, s.Room = slot, room

	newDay, newHasDay := e.sessionDay(session)
	if newKey, ok := e.occupancyKey(session); ok {
		e.occupants[newKey] = append(e.occupants[newKey], session)
	}

	// Per-session contribution.
	e.replaceSession(session)

	// Exact (room, slot) occupancy pairs.
	if oldOcc {
		e.replaceRoomSlot(oldKey)
	}
	if newKey, ok := e.occupancyKey(session); ok && (!oldOcc || newKey != oldKey) {
		e.replaceRoomSlot(newKey)
	}

	// Day buckets for the session's teacher and group.
	t, g := s.Teacher, s.Group
	if oldHasDay {
		e.replaceTeacherDay(dayKey{t, oldDay})
		e.replaceGroupDay(dayKey{g, oldDay})
	}
	if newHasDay && (!oldHasDay || newDay != oldDay) {
		e.replaceTeacherDay(dayKey{t, newDay})
		e.replaceGroupDay(dayKey{g, newDay})
	}

	// Week buckets and the course/group pair bucket.
	e.total = e.total.Sub(e.teacherWeek[t])
	e.teacherWeek[t] = e.teacherWeekScore(t)
	e.total = e.total.Add(e.teacherWeek[t])

	e.total = e.total.Sub(e.groupWeek[g])
	e.groupWeek[g] = e.groupWeekScore(g)
	e.total = e.total.Add(e.groupWeek[g])

	pair := pairKey{s.Course, g}
	e.total = e.total.Sub(e.coursePair[pair])
	e.coursePair[pair] = e.coursePairScore(pair)
	e.total = e.total.Add(e.coursePair[pair])

	return e.total
}

func (e *evaluator) replaceSession(i int) {
	e.total = e.total.Sub(e.perSession[i])
	e.perSession[i] = e.sessionScore(i)
	e.total = e.total.Add(e.perSession[i])
}

func (e *evaluator) replaceRoomSlot(key pairKey) {
	e.total = e.total.Sub(e.roomSlot[key])
	sc := e.roomSlotScore(key)
	if sc == (model.Score{}) {
		delete(e.roomSlot, key)
	} else {
		e.roomSlot[key] = sc
	}
	e.total = e.total.Add(sc)
}

func (e *evaluator) replaceTeacherDay(key dayKey) {
	e.total = e.total.Sub(e.teacherDay[key])
	sc := e.teacherDayScore(key.entity, key.day)
	if sc == (model.Score{}) {
		delete(e.teacherDay, key)
	} else {
		e.teacherDay[key] = sc
	}
	e.total = e.total.Add(sc)
}

func (e *evaluator) replaceGroupDay(key dayKey) {
	e.total = e.total.Sub(e.groupDay[key])
	sc := e.groupDayScore(key.entity, key.day)
	if sc == (model.Score{}) {
		delete(e.groupDay, key)
	} else {
		e.groupDay[key] = sc
	}
	e.total = e.total.Add(sc)
}

// occupancyKey is valid only for sessions holding both a slot and a room.
func (e *evaluator) occupancyKey(i int) (pairKey, bool) {
	s := &e.sessions[i]
	if s.Slot == model.Unassigned || s.Room == model.Unassigned {
		return pairKey{}, false
	}
	return pairKey{s.Room, s.Slot}, true
}

func (e *evaluator) sessionDay(i int) (int, bool) {
	s := &e.sessions[i]
	if s.Slot == model.Unassigned {
		return 0, false
	}
	return e.p.Slots[s.Slot].Day, true
}

// activeDays lists the distinct days the given sessions currently occupy.
func (e *evaluator) activeDays(indices []int) []int {
	return lo.Uniq(lo.FilterMap(indices, func(i int, _ int) (int, bool) {
		return e.sessionDay(i)
	}))
}

// roomSlotScore charges every unordered pair sharing one exact (room, slot)
// cell.
func (e *evaluator) roomSlotScore(key pairKey) model.Score {
	n := len(e.occupants[key])
	if n < 2 {
		return model.Score{}
	}
	return model.Score{Hard: weightConflict * n * (n - 1) / 2}
}

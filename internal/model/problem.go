package model

import "github.com/samber/lo"

// LabMapping is the priority-ordered list of room indices a course is
// permitted (and, in order, preferred) to use for its lab sessions.
type LabMapping struct {
	CourseCode string
	Rooms      []int
}

// Problem is the immutable instance produced by the builder: reference
// tables, blackout sets and the session arena. Reference data never mutates
// after construction, so workers share it without locking; each worker owns
// a private copy of the Sessions slice only.
type Problem struct {
	Teachers []Teacher
	Rooms    []Room
	Slots    []TimeSlot
	Courses  []Course
	Groups   []StudentGroup
	Sessions []Session

	TeacherBlackouts []Blackout
	RoomBlackouts    []Blackout

	LabMappings []LabMapping

	// Policy knobs the evaluator needs at scoring time.
	BatchThreshold      int
	AlwaysComputer      []string          // course codes forced into computer labs
	DeptWorkdays        map[string][]int
	RestrictedRooms     map[string]string // room name -> sole permitted department
	DefaultSessionHours int
}

// CloneSessions returns a private mutable copy of the session arena.
func (p *Problem) CloneSessions() []Session {
	out := make([]Session, len(p.Sessions))
	copy(out, p.Sessions)
	return out
}

// TeacherIndex resolves a teacher identity to its arena index, -1 when absent.
func (p *Problem) TeacherIndex(id string) int {
	_, i, ok := lo.FindIndexOf(p.Teachers, func(t Teacher) bool { return t.ID == id })
	if !ok {
		return -1
	}
	return i
}

// RoomIndex resolves a room identity to its arena index, -1 when absent.
func (p *Problem) RoomIndex(id string) int {
	_, i, ok := lo.FindIndexOf(p.Rooms, func(r Room) bool { return r.ID == id })
	if !ok {
		return -1
	}
	return i
}

// SlotIndex resolves a slot identity to its arena index, -1 when absent.
func (p *Problem) SlotIndex(id string) int {
	_, i, ok := lo.FindIndexOf(p.Slots, func(s TimeSlot) bool { return s.ID == id })
	if !ok {
		return -1
	}
	return i
}

// SessionIndex resolves a session identity to its arena index, -1 when absent.
func (p *Problem) SessionIndex(id string) int {
	_, i, ok := lo.FindIndexOf(p.Sessions, func(s Session) bool { return s.ID == id })
	if !ok {
		return -1
	}
	return i
}

// Mapping returns the lab mapping for a course code, nil when unmapped.
func (p *Problem) Mapping(code string) *LabMapping {
	for i := range p.LabMappings {
		if p.LabMappings[i].CourseCode == code {
			return &p.LabMappings[i]
		}
	}
	return nil
}

// WorkdayAllowed reports whether a department may hold classes on the day.
// Departments absent from the table are unrestricted.
func (p *Problem) WorkdayAllowed(dept string, day int) bool {
	days, ok := p.DeptWorkdays[dept]
	if !ok {
		return true
	}
	return lo.Contains(days, day)
}

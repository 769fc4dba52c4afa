package model

import "fmt"

// Minutes since midnight. Keeps slot arithmetic integral and comparable.
type Minutes int

func (m Minutes) Hour() int { return int(m) / 60 }

// Clock renders the wall-clock form, e.g. 540 -> "09:00".
func (m Minutes) Clock() string {
	return fmt.Sprintf("%02d:%02d", int(m)/60, int(m)%60)
}

// Weekday indices follow the calendar: 0 = Monday .. 5 = Saturday.
const (
	Monday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

var dayNames = [...]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

func DayName(day int) string {
	if day < 0 || day >= len(dayNames) {
		return "Unknown"
	}
	return dayNames[day]
}

type SessionKind int

const (
	KindLecture SessionKind = iota
	KindTutorial
	KindLab
)

func (k SessionKind) String() string {
	switch k {
	case KindLecture:
		return "lecture"
	case KindTutorial:
		return "tutorial"
	case KindLab:
		return "lab"
	}
	return "unknown"
}

type Batch int

const (
	BatchNone Batch = iota
	BatchB1
	BatchB2
)

func (b Batch) String() string {
	switch b {
	case BatchB1:
		return "B1"
	case BatchB2:
		return "B2"
	}
	return ""
}

type CourseType int

const (
	CourseTheory CourseType = iota
	CourseLab
)

// TimeSlot is one weekly calendar cell. Immutable after the builder runs.
type TimeSlot struct {
	ID      string
	Day     int
	Start   Minutes
	End     Minutes
	IsLab   bool
}

func (t TimeSlot) Duration() Minutes { return t.End - t.Start }

func (t TimeSlot) Overlaps(o TimeSlot) bool {
	return t.Day == o.Day && t.Start < o.End && o.Start < t.End
}

type Room struct {
	ID       string
	Name     string
	Block    string
	Capacity int
	IsLab    bool
	LabType  string // "computer", "core", ... empty when unconstrained
}

type Teacher struct {
	ID             string
	Name           string
	MaxWeeklyHours int
}

type Course struct {
	ID            string
	Code          string
	Name          string
	Department    string
	Type          CourseType
	LectureHours  int
	TutorialHours int
	PracticalHours int
	Credits       int
	LabType       string
}

type StudentGroup struct {
	ID         string
	Name       string
	Size       int
	Department string
	Year       int
}

// Unassigned marks an empty slot/room reference on a Session.
const Unassigned = -1

// Session is the assignable unit: one lecture/tutorial hour-block or one
// two-hour lab block for a (course, group), possibly narrowed to a batch.
// Teacher, Course and Group are indices into the Problem tables; only Slot
// and Room mutate during search.
type Session struct {
	ID      string
	Teacher int
	Course  int
	Group   int
	Kind    SessionKind
	Batch   Batch

	// Capacity is the seat requirement: full group size, or the batch
	// share for batched labs.
	Capacity int

	// PinnedRoom holds a pre-allocated room index, Unassigned when free.
	PinnedRoom int

	Slot int
	Room int
}

func (s Session) Assigned() bool { return s.Slot != Unassigned && s.Room != Unassigned }

func (s Session) RequiresLabRoom() bool { return s.Kind == KindLab }

func (s Session) RequiresTheoryRoom() bool { return s.Kind != KindLab }

// EffectiveHours reports the teaching-load hours of the session: the
// assigned slot duration rounded to whole hours, or defaultHours while
// unassigned.
func (s Session) EffectiveHours(slots []TimeSlot, defaultHours int) int {
	if s.Slot == Unassigned {
		return defaultHours
	}
	return (int(slots[s.Slot].Duration()) + 30) / 60
}

// Blackout is an externally imposed unavailability window for a teacher or
// a room. Entity is an index into the corresponding Problem table.
type Blackout struct {
	Entity int
	Day    int
	Start  Minutes
	End    Minutes
}

func (b Blackout) Covers(slot TimeSlot) bool {
	return b.Day == slot.Day && b.Start < slot.End && slot.Start < b.End
}

package score

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushq/timetable/internal/model"
)

func slot(id string, day int, startHour, startMin, durMin int, isLab bool) model.TimeSlot {
	start := model.Minutes(startHour*60 + startMin)
	return model.TimeSlot{ID: id, Day: day, Start: start, End: start + model.Minutes(durMin), IsLab: isLab}
}

func testProblem() *model.Problem {
	return &model.Problem{
		Teachers: []model.Teacher{
			{ID: "T-1", Name: "Asha", MaxWeeklyHours: 21},
			{ID: "T-2", Name: "Ravi", MaxWeeklyHours: 21},
		},
		Rooms: []model.Room{
			{ID: "R-1", Name: "D101", Block: "D Block", Capacity: 70},
			{ID: "R-2", Name: "A101", Block: "A Block", Capacity: 70},
			{ID: "R-3", Name: "D Lab 1", Block: "D Block", Capacity: 35, IsLab: true, LabType: "computer"},
			{ID: "R-4", Name: "D Lab 2", Block: "D Block", Capacity: 35, IsLab: true, LabType: "core"},
		},
		Slots: []model.TimeSlot{
			slot("TS-1", model.Monday, 8, 0, 50, false),
			slot("TS-2", model.Monday, 9, 0, 50, false),
			slot("TS-3", model.Monday, 10, 0, 50, false),
			slot("TS-4", model.Monday, 11, 0, 50, false),
			slot("TS-5", model.Monday, 12, 0, 50, false),
			slot("TS-6", model.Monday, 13, 0, 50, false),
			slot("TS-7", model.Monday, 14, 0, 50, false),
			slot("TS-LAB-8", model.Monday, 8, 0, 100, true),
			slot("TS-LAB-9", model.Monday, 9, 50, 100, true),
			slot("TS-10", model.Tuesday, 9, 0, 50, false),
			slot("TS-11", model.Tuesday, 10, 0, 50, false),
			slot("TS-LAB-12", model.Tuesday, 9, 50, 100, true),
		},
		Courses: []model.Course{
			{ID: "C-1", Code: "CS19201", Name: "Algorithms", Department: "CSE", Type: model.CourseTheory, LectureHours: 3},
			{ID: "C-2", Code: "CS19301", Name: "OS Lab", Department: "CSE", Type: model.CourseLab, PracticalHours: 2, LabType: "computer"},
		},
		Groups: []model.StudentGroup{
			{ID: "SG-1", Name: "CSE 3.1", Size: 70, Department: "CSE", Year: 3},
		},
		BatchThreshold:      35,
		DefaultSessionHours: 1,
	}
}

func session(id string, teacher, course, group int, kind model.SessionKind, batch model.Batch, capacity int) model.Session {
	return model.Session{
		ID: id, Teacher: teacher, Course: course, Group: group,
		Kind: kind, Batch: batch, Capacity: capacity,
		PinnedRoom: model.Unassigned, Slot: model.Unassigned, Room: model.Unassigned,
	}
}

func TestUnassignedPenalty(t *testing.T) {
	p := testProblem()
	sessions := []model.Session{session("L-1", 0, 0, 0, model.KindLecture, model.BatchNone, 70)}

	e := NewEvaluator(p, sessions)

	assert.Equal(t, model.Score{Hard: 72}, e.Score())
	assert.False(t, e.Score().Feasible())
}

func TestCleanAssignmentHasNoHardPenalty(t *testing.T) {
	p := testProblem()
	sessions := []model.Session{
		session("L-1", 0, 0, 0, model.KindLecture, model.BatchNone, 70),
		session("L-2", 0, 0, 0, model.KindLecture, model.BatchNone, 70),
	}
	e := NewEvaluator(p, sessions)

	e.Assign(0, 1, 0) // Monday 09:00, D101
	got := e.Assign(1, 2, 0)

	assert.Equal(t, 0, got.Hard)
}

func TestRoomConflictPairs(t *testing.T) {
	p := testProblem()
	sessions := []model.Session{
		session("L-1", 0, 0, 0, model.KindLecture, model.BatchNone, 70),
		session("L-2", 1, 0, 0, model.KindLecture, model.BatchNone, 70),
		session("L-3", 1, 0, 0, model.KindLecture, model.BatchNone, 70),
	}
	e := NewEvaluator(p, sessions)

	e.Assign(0, 1, 0)
	e.Assign(1, 1, 0)
	before := e.Score().Hard
	after := e.Assign(2, 1, 0).Hard

	// Three occupants of one cell make three conflicting pairs.
	assert.Greater(t, after, before)
	assert.Equal(t, after, e.Full().Hard)

	roomPairs := 0
	for _, v := range e.Diagnostics() {
		if v.Constraint == "room double-booked" {
			roomPairs++
		}
	}
	assert.Equal(t, 3, roomPairs)
}

func TestTeacherOverlapAcrossSlotKinds(t *testing.T) {
	p := testProblem()
	sessions := []model.Session{
		session("L-1", 0, 0, 0, model.KindLecture, model.BatchNone, 70),
		session("L-2", 0, 1, 0, model.KindLab, model.BatchB1, 35),
	}
	e := NewEvaluator(p, sessions)

	e.Assign(0, 1, 0) // theory 09:00-09:50
	e.Assign(1, 8, 2) // lab 09:50-11:30, no overlap

	noOverlap := e.Score()

	e.Assign(1, 7, 2) // lab 08:00-09:40 overlaps the 09:00 lecture
	overlap := e.Score()

	assert.Greater(t, overlap.Hard, noOverlap.Hard)
}

func TestGroupBatchConflictSemantics(t *testing.T) {
	p := testProblem()
	b1 := session("L-1", 0, 1, 0, model.KindLab, model.BatchB1, 35)
	b2 := session("L-2", 1, 1, 0, model.KindLab, model.BatchB2, 35)
	full := session("L-3", 1, 0, 0, model.KindLecture, model.BatchNone, 70)
	sessions := []model.Session{b1, b2, full}
	e := NewEvaluator(p, sessions)

	// B1 and B2 in parallel labs: legal, even preferred.
	e.Assign(0, 7, 2)
	e.Assign(1, 7, 3)
	assert.Equal(t, 0, e.Score().Hard)

	// A full-group lecture overlapping a batched lab conflicts.
	e.Assign(2, 0, 0) // 08:00 lecture under the 08:00-09:40 labs
	assert.Greater(t, e.Score().Hard, 0)
}

func TestLunchWindowScenario(t *testing.T) {
	p := testProblem()
	sessions := []model.Session{
		session("L-1", 0, 0, 0, model.KindLecture, model.BatchNone, 70),
		session("L-2", 0, 0, 0, model.KindLecture, model.BatchNone, 70),
		session("L-3", 1, 0, 0, model.KindLecture, model.BatchNone, 70),
	}
	e := NewEvaluator(p, sessions)

	e.Assign(0, 3, 0) // 11:00
	e.Assign(1, 4, 0) // 12:00
	twoOccupied := e.Score().Hard
	e.Assign(2, 5, 1) // 13:00 in the other room
	allOccupied := e.Score().Hard

	assert.Equal(t, lunchPenalty(3), allOccupied-twoOccupied)
	assert.Equal(t, 30, lunchPenalty(3))
	assert.Equal(t, 0, lunchPenalty(0))
	assert.Equal(t, 5, lunchPenalty(1))
	assert.Equal(t, 15, lunchPenalty(2))
}

func TestTeacherBlackoutScenario(t *testing.T) {
	p := testProblem()
	p.TeacherBlackouts = []model.Blackout{
		{Entity: 0, Day: model.Monday, Start: 9 * 60, End: 10 * 60},
	}
	sessions := []model.Session{session("L-1", 0, 0, 0, model.KindLecture, model.BatchNone, 70)}
	e := NewEvaluator(p, sessions)

	got := e.Assign(0, 1, 0) // Monday 09:00-09:50, inside the window

	assert.GreaterOrEqual(t, got.Hard, 1)
	assert.False(t, got.Feasible())

	diags := e.Diagnostics()
	require.NotEmpty(t, diags)
	assert.Contains(t, diags[len(diags)-1].Constraint, "unavailable")
}

func TestMappedLabEnforcementAndPriority(t *testing.T) {
	p := testProblem()
	p.LabMappings = []model.LabMapping{{CourseCode: "CS19301", Rooms: []int{3, 2}}}
	sessions := []model.Session{session("L-1", 0, 1, 0, model.KindLab, model.BatchB1, 35)}
	e := NewEvaluator(p, sessions)

	first := e.Assign(0, 7, 3)
	assert.Equal(t, 0, first.Hard)

	second := e.Assign(0, 7, 2)
	assert.Equal(t, 0, second.Hard)
	assert.Equal(t, weightLabPriority, second.Soft-first.Soft)

	outside := e.Assign(0, 7, 1) // theory room, outside the mapping
	assert.GreaterOrEqual(t, outside.Hard, weightMappedLab)
}

func TestLabTypeMismatch(t *testing.T) {
	p := testProblem()
	sessions := []model.Session{session("L-1", 0, 1, 0, model.KindLab, model.BatchB1, 35)}
	e := NewEvaluator(p, sessions)

	matched := e.Assign(0, 7, 2) // computer lab for a computer course
	assert.Equal(t, 0, matched.Hard)

	mismatched := e.Assign(0, 7, 3) // core lab
	assert.Equal(t, weightLabTypeMismatch, mismatched.Hard)
}

func TestConsecutiveSameCourseReward(t *testing.T) {
	p := testProblem()
	// Slots that truly meet end to start; the standard grid keeps a
	// ten-minute gap between theory periods.
	p.Slots = []model.TimeSlot{
		slot("TS-A", model.Monday, 9, 0, 50, false),
		slot("TS-B", model.Monday, 9, 50, 50, false),
		slot("TS-C", model.Monday, 11, 0, 50, false),
	}
	sessions := []model.Session{
		session("L-1", 0, 0, 0, model.KindLecture, model.BatchNone, 70),
		session("L-2", 0, 0, 0, model.KindLecture, model.BatchNone, 70),
	}
	e := NewEvaluator(p, sessions)

	e.Assign(0, 0, 0)
	apart := e.Assign(1, 2, 0).Soft
	together := e.Assign(1, 1, 0).Soft

	assert.Equal(t, apart+weightConsecutive, together)
}

func TestIncrementalMatchesFullRecomputation(t *testing.T) {
	p := testProblem()
	sessions := []model.Session{
		session("L-1", 0, 0, 0, model.KindLecture, model.BatchNone, 70),
		session("L-2", 0, 0, 0, model.KindLecture, model.BatchNone, 70),
		session("L-3", 1, 0, 0, model.KindLecture, model.BatchNone, 70),
		session("L-4", 0, 1, 0, model.KindLab, model.BatchB1, 35),
		session("L-5", 1, 1, 0, model.KindLab, model.BatchB2, 35),
	}
	e := NewEvaluator(p, sessions)
	rng := rand.New(rand.NewSource(7))

	for move := 0; move < 500; move++ {
		si := rng.Intn(len(sessions))
		slotIdx := rng.Intn(len(p.Slots)+1) - 1 // Unassigned included
		roomIdx := rng.Intn(len(p.Rooms)+1) - 1
		incremental := e.Assign(si, slotIdx, roomIdx)

		if move%50 == 0 {
			assert.Equal(t, incremental, e.Full(), "diverged after move %d", move)
		}
	}
	assert.Equal(t, e.Score(), e.Full())
}

func TestScoreIdempotence(t *testing.T) {
	p := testProblem()
	sessions := []model.Session{
		session("L-1", 0, 0, 0, model.KindLecture, model.BatchNone, 70),
		session("L-2", 0, 1, 0, model.KindLab, model.BatchB1, 35),
	}
	e := NewEvaluator(p, sessions)
	e.Assign(0, 1, 0)
	e.Assign(1, 7, 2)

	first := e.Score()
	second := e.Score()

	assert.Equal(t, first, second)
	assert.Equal(t, first, e.Full())
}

func TestLoneBatchWastesLargeLab(t *testing.T) {
	p := testProblem()
	p.Rooms = append(p.Rooms, model.Room{
		ID: "R-5", Name: "D Lab 3", Block: "D Block", Capacity: 70, IsLab: true, LabType: "computer",
	})
	sessions := []model.Session{session("L-1", 0, 1, 0, model.KindLab, model.BatchB1, 35)}
	e := NewEvaluator(p, sessions)

	small := e.Assign(0, 7, 2) // 35-seat computer lab, fully used
	large := e.Assign(0, 7, 4) // 70-seat computer lab, half empty

	assert.Equal(t, 0, large.Hard)
	// 35 of 70 seats sits in the under-70% utilization tier.
	assert.Equal(t, weightLargeLabWaste*labWastefulness(35, 70), large.Soft-small.Soft)

	assert.Equal(t, 8, labWastefulness(35, 70))
	assert.Equal(t, 25, labWastefulness(20, 70))
	assert.Equal(t, 15, labWastefulness(30, 70))
	assert.Equal(t, 2, labWastefulness(35, 40))
}

func TestTeacherContinuousRunOverage(t *testing.T) {
	p := testProblem()
	sessions := []model.Session{
		session("L-1", 0, 0, 0, model.KindLecture, model.BatchNone, 70),
		session("L-2", 0, 0, 0, model.KindLecture, model.BatchNone, 70),
		session("L-3", 0, 0, 0, model.KindLecture, model.BatchNone, 70),
		session("L-4", 0, 0, 0, model.KindLecture, model.BatchNone, 70),
		session("L-5", 0, 0, 0, model.KindLecture, model.BatchNone, 70),
	}
	e := NewEvaluator(p, sessions).(*evaluator)
	for i := 0; i < 5; i++ {
		e.Assign(i, i, 0) // 08:00 through 12:50, ten-minute gaps bridge the run
	}

	// Five effective hours back to back, one past the four-hour limit.
	assert.Equal(t, model.Score{Soft: weightContinuousRun * 1 * 10}, e.teacherDayScore(0, model.Monday))

	e.Assign(4, model.Unassigned, model.Unassigned)
	assert.Equal(t, model.Score{}, e.teacherDayScore(0, model.Monday))
}

func TestTeacherWeeklyHourCap(t *testing.T) {
	p := testProblem()
	p.Teachers[0].MaxWeeklyHours = 2
	sessions := []model.Session{
		session("L-1", 0, 0, 0, model.KindLecture, model.BatchNone, 70),
		session("L-2", 0, 1, 0, model.KindLab, model.BatchB1, 35),
	}
	e := NewEvaluator(p, sessions).(*evaluator)

	assert.Equal(t, model.Score{}, e.teacherWeekScore(0), "unassigned sessions carry no weekly load")

	e.Assign(0, 0, 0) // one effective hour of theory
	e.Assign(1, 8, 2) // a lab block counts two

	assert.Equal(t, model.Score{Soft: weightWeeklyHours * 1}, e.teacherWeekScore(0))
}

func TestTeacherWorkdaySpan(t *testing.T) {
	p := testProblem()
	p.Slots = []model.TimeSlot{
		slot("TS-A", model.Monday, 8, 0, 50, false),
		slot("TS-B", model.Monday, 17, 0, 50, false),
	}
	sessions := []model.Session{
		session("L-1", 0, 0, 0, model.KindLecture, model.BatchNone, 70),
		session("L-2", 0, 0, 0, model.KindLecture, model.BatchNone, 70),
	}
	e := NewEvaluator(p, sessions).(*evaluator)
	e.Assign(0, 0, 0)
	e.Assign(1, 1, 0)

	// 08:00 to 17:50 is 590 minutes, 110 past the eight-hour span.
	assert.Equal(t, model.Score{Soft: weightWorkdaySpan * 110}, e.teacherDayScore(0, model.Monday))
}

func TestTeacherDailyLoadOverage(t *testing.T) {
	p := testProblem()
	p.Slots = []model.TimeSlot{
		slot("TS-LAB-A", model.Monday, 8, 0, 100, true),
		{ID: "TS-LAB-B", Day: model.Monday, Start: 9*60 + 50, End: 11*60 + 30, IsLab: true},
		{ID: "TS-LAB-C", Day: model.Monday, Start: 11*60 + 50, End: 13*60 + 30, IsLab: true},
		{ID: "TS-LAB-D", Day: model.Monday, Start: 13*60 + 50, End: 15*60 + 30, IsLab: true},
	}
	sessions := []model.Session{
		session("L-1", 0, 1, 0, model.KindLab, model.BatchB1, 35),
		session("L-2", 0, 1, 0, model.KindLab, model.BatchB1, 35),
		session("L-3", 0, 1, 0, model.KindLab, model.BatchB1, 35),
		session("L-4", 0, 1, 0, model.KindLab, model.BatchB1, 35),
	}
	e := NewEvaluator(p, sessions).(*evaluator)
	for i := 0; i < 4; i++ {
		e.Assign(i, i, 2)
	}

	// Eight effective lab hours: four past the continuous-run limit and
	// two past the daily cap, inside an acceptable span.
	want := model.Score{Soft: weightContinuousRun*4*10 + weightDailyLoad*2}
	assert.Equal(t, want, e.teacherDayScore(0, model.Monday))
}

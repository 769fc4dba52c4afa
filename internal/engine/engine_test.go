package engine

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campushq/timetable/internal/model"
	"github.com/campushq/timetable/internal/score"
	"github.com/campushq/timetable/pkg/config"
)

func slot(id string, day, startHour, durMin int, isLab bool) model.TimeSlot {
	start := model.Minutes(startHour * 60)
	return model.TimeSlot{ID: id, Day: day, Start: start, End: start + model.Minutes(durMin), IsLab: isLab}
}

func testSolverConfig() config.SolverConfig {
	return config.SolverConfig{
		TimeLimit:             5 * time.Second,
		Workers:               2,
		RandomSeed:            1,
		EarlyTermination:      true,
		EarlyTerminationMoves: 500,
		TempHigh:              200,
		TempLow:               0.5,
		Steps:                 20000,
	}
}

func TestSolveTwoLecturesOneRoom(t *testing.T) {
	p := &model.Problem{
		Teachers: []model.Teacher{{ID: "T-1", Name: "Asha", MaxWeeklyHours: 21}},
		Rooms:    []model.Room{{ID: "R-1", Name: "D101", Block: "D Block", Capacity: 70}},
		Slots: []model.TimeSlot{
			slot("TS-1", model.Monday, 9, 50, false),
			slot("TS-2", model.Monday, 10, 50, false),
			slot("TS-3", model.Monday, 11, 50, false),
		},
		Courses: []model.Course{{ID: "C-1", Code: "CS19201", Name: "Algorithms", Department: "CSE", LectureHours: 2}},
		Groups:  []model.StudentGroup{{ID: "SG-1", Name: "CSE 3.1", Size: 70, Department: "CSE", Year: 3}},
		Sessions: []model.Session{
			{ID: "L-1", Kind: model.KindLecture, Capacity: 70, PinnedRoom: model.Unassigned, Slot: model.Unassigned, Room: model.Unassigned},
			{ID: "L-2", Kind: model.KindLecture, Capacity: 70, PinnedRoom: model.Unassigned, Slot: model.Unassigned, Room: model.Unassigned},
		},
		BatchThreshold:      35,
		DefaultSessionHours: 1,
	}

	eng := New(p, testSolverConfig(), zap.NewNop())
	sol, err := eng.Solve(context.Background(), model.SolveRequest{
		TimeLimit: 3 * time.Second, RandomSeed: 1, Workers: 2,
		EarlyTerminationEnabled: true, EarlyTerminationMoves: 200,
	})

	require.NoError(t, err)
	assert.True(t, sol.Feasible)
	assert.Equal(t, 0, sol.Score.Hard)
	require.Len(t, sol.Sessions, 2)
	assert.True(t, sol.Sessions[0].Assigned())
	assert.True(t, sol.Sessions[1].Assigned())
	assert.NotEqual(t, sol.Sessions[0].Slot, sol.Sessions[1].Slot)
	assert.Equal(t, 0, sol.Sessions[0].Room)
	assert.Equal(t, 0, sol.Sessions[1].Room)
}

func TestConstructionPlacesMappedLabFirstChoice(t *testing.T) {
	p := &model.Problem{
		Teachers: []model.Teacher{{ID: "T-1", MaxWeeklyHours: 21}},
		Rooms: []model.Room{
			{ID: "R-1", Name: "D101", Block: "D Block", Capacity: 70},
			{ID: "R-2", Name: "Lab A", Block: "D Block", Capacity: 35, IsLab: true, LabType: "computer"},
			{ID: "R-3", Name: "Lab B", Block: "D Block", Capacity: 35, IsLab: true, LabType: "computer"},
		},
		Slots: []model.TimeSlot{
			slot("TS-1", model.Monday, 9, 50, false),
			slot("TS-LAB-2", model.Monday, 8, 100, true),
		},
		Courses: []model.Course{{ID: "C-1", Code: "CS19301", Name: "OS Lab", Department: "CSE", Type: model.CourseLab, PracticalHours: 2, LabType: "computer"}},
		Groups:  []model.StudentGroup{{ID: "SG-1", Size: 70, Department: "CSE", Year: 3}},
		Sessions: []model.Session{
			{ID: "L-1", Kind: model.KindLab, Batch: model.BatchB1, Capacity: 35, PinnedRoom: model.Unassigned, Slot: model.Unassigned, Room: model.Unassigned},
		},
		LabMappings:         []model.LabMapping{{CourseCode: "CS19301", Rooms: []int{2, 1}}},
		BatchThreshold:      35,
		DefaultSessionHours: 1,
	}

	sessions := p.CloneSessions()
	ev := score.NewEvaluator(p, sessions)
	construct(p, ev, zap.NewNop())

	require.True(t, sessions[0].Assigned())
	assert.Equal(t, 1, sessions[0].Slot) // the lab slot
	assert.Contains(t, []int{1, 2}, sessions[0].Room)
	assert.Equal(t, 0, ev.Score().Hard)
}

func TestConstructionLeavesImpossibleSessionUnassigned(t *testing.T) {
	p := &model.Problem{
		Teachers: []model.Teacher{{ID: "T-1", MaxWeeklyHours: 21}},
		Rooms:    []model.Room{{ID: "R-1", Name: "D101", Block: "D Block", Capacity: 70}},
		Slots:    []model.TimeSlot{slot("TS-1", model.Monday, 9, 50, false)},
		Courses:  []model.Course{{ID: "C-1", Code: "CS19301", Type: model.CourseLab, PracticalHours: 2}},
		Groups:   []model.StudentGroup{{ID: "SG-1", Size: 70, Department: "CSE", Year: 3}},
		Sessions: []model.Session{
			// A lab session with no lab slot or lab room anywhere.
			{ID: "L-1", Kind: model.KindLab, Batch: model.BatchB1, Capacity: 35, PinnedRoom: model.Unassigned, Slot: model.Unassigned, Room: model.Unassigned},
		},
		BatchThreshold:      35,
		DefaultSessionHours: 1,
	}

	sessions := p.CloneSessions()
	ev := score.NewEvaluator(p, sessions)
	construct(p, ev, zap.NewNop())

	assert.False(t, sessions[0].Assigned())
	assert.Greater(t, ev.Score().Hard, 0)
}

func TestSolveRespectsBlackout(t *testing.T) {
	p := &model.Problem{
		Teachers: []model.Teacher{{ID: "T-1", MaxWeeklyHours: 21}},
		Rooms:    []model.Room{{ID: "R-1", Name: "D101", Block: "D Block", Capacity: 70}},
		Slots: []model.TimeSlot{
			slot("TS-1", model.Monday, 9, 50, false),
			slot("TS-2", model.Monday, 10, 50, false),
		},
		Courses: []model.Course{{ID: "C-1", Code: "CS19201", Department: "CSE", LectureHours: 1}},
		Groups:  []model.StudentGroup{{ID: "SG-1", Size: 70, Department: "CSE", Year: 3}},
		Sessions: []model.Session{
			{ID: "L-1", Kind: model.KindLecture, Capacity: 70, PinnedRoom: model.Unassigned, Slot: model.Unassigned, Room: model.Unassigned},
		},
		TeacherBlackouts: []model.Blackout{
			{Entity: 0, Day: model.Monday, Start: 9 * 60, End: 10 * 60},
		},
		BatchThreshold:      35,
		DefaultSessionHours: 1,
	}

	eng := New(p, testSolverConfig(), zap.NewNop())
	sol, err := eng.Solve(context.Background(), model.SolveRequest{
		TimeLimit: 3 * time.Second, RandomSeed: 1, Workers: 1,
		EarlyTerminationEnabled: true, EarlyTerminationMoves: 200,
	})

	require.NoError(t, err)
	assert.True(t, sol.Feasible)
	assert.Equal(t, 1, sol.Sessions[0].Slot) // the 10:00 slot, outside the window
}

func TestSolveReturnsInfeasibleBestWithoutError(t *testing.T) {
	p := &model.Problem{
		Teachers: []model.Teacher{{ID: "T-1", MaxWeeklyHours: 21}},
		Rooms:    []model.Room{{ID: "R-1", Name: "D101", Block: "D Block", Capacity: 70}},
		Slots:    []model.TimeSlot{slot("TS-1", model.Monday, 9, 50, false)},
		Courses:  []model.Course{{ID: "C-1", Code: "CS19201", Department: "CSE", LectureHours: 2}},
		Groups:   []model.StudentGroup{{ID: "SG-1", Size: 70, Department: "CSE", Year: 3}},
		Sessions: []model.Session{
			// Two full-group lectures, one slot: no feasible timetable.
			{ID: "L-1", Kind: model.KindLecture, Capacity: 70, PinnedRoom: model.Unassigned, Slot: model.Unassigned, Room: model.Unassigned},
			{ID: "L-2", Kind: model.KindLecture, Capacity: 70, PinnedRoom: model.Unassigned, Slot: model.Unassigned, Room: model.Unassigned},
		},
		BatchThreshold:      35,
		DefaultSessionHours: 1,
	}

	eng := New(p, testSolverConfig(), zap.NewNop())
	sol, err := eng.Solve(context.Background(), model.SolveRequest{
		TimeLimit: 2 * time.Second, RandomSeed: 1, Workers: 1,
	})

	require.NoError(t, err)
	assert.False(t, sol.Feasible)
	assert.Greater(t, sol.Score.Hard, 0)
	assert.NotEmpty(t, sol.Diagnostics)
}

func TestTemperatureSchedule(t *testing.T) {
	cfg := testSolverConfig()

	first := temperature(cfg, 0)
	last := temperature(cfg, cfg.Steps-1)

	assert.InDelta(t, cfg.TempHigh, first, 1e-9)
	assert.InDelta(t, cfg.TempLow, last, 1e-9)

	// A one-step schedule must not cool past a zero-length interval.
	cfg.Steps = 1
	only := temperature(cfg, 0)
	assert.False(t, math.IsNaN(only))
	assert.InDelta(t, cfg.TempHigh, only, 1e-9)
}

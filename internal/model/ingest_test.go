package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ingestInput() Input {
	return Input{
		Teachers: []Teacher{{ID: "T-1", Name: "Asha", MaxWeeklyHours: 21}},
		Rooms:    []Room{{ID: "R-1", Name: "D101", Block: "D Block", Capacity: 70}},
		Slots:    []InputSlot{{ID: "TS-1", Day: Monday, Start: 480, End: 530}},
		Courses:  []InputCourse{{ID: "C-1", Code: "CS19201", Name: "Algorithms", Department: "CSE"}},
		Groups:   []StudentGroup{{ID: "SG-1", Name: "CSE 3.1", Size: 70, Department: "CSE"}},
	}
}

func TestResolvePlacementReferences(t *testing.T) {
	// Arrange
	in := ingestInput()
	in.Sessions = []InputSession{
		{ID: "L-1", TeacherID: "T-1", CourseID: "C-1", GroupID: "SG-1", Kind: "lecture",
			SlotID: "TS-1", RoomID: "R-1", PinnedRoom: "R-1"},
	}

	// Act
	p, err := in.Resolve(zap.NewNop())

	// Assert
	require.NoError(t, err)
	require.Len(t, p.Sessions, 1)
	assert.Equal(t, 0, p.Sessions[0].Slot)
	assert.Equal(t, 0, p.Sessions[0].Room)
	assert.Equal(t, 0, p.Sessions[0].PinnedRoom)
}

func TestResolveDropsUnknownPlacementReferences(t *testing.T) {
	// Arrange
	in := ingestInput()
	in.Sessions = []InputSession{
		{ID: "L-1", TeacherID: "T-1", CourseID: "C-1", GroupID: "SG-1", Kind: "lecture",
			SlotID: "TS-99", RoomID: "R-99", PinnedRoom: "R-99"},
	}

	// Act
	p, err := in.Resolve(zap.NewNop())

	// Assert
	require.NoError(t, err, "unknown placement references degrade to an unplaced session")
	require.Len(t, p.Sessions, 1)
	assert.Equal(t, Unassigned, p.Sessions[0].Slot)
	assert.Equal(t, Unassigned, p.Sessions[0].Room)
	assert.Equal(t, Unassigned, p.Sessions[0].PinnedRoom)
}

func TestResolveRejectsUnknownIdentityReferences(t *testing.T) {
	// Arrange
	in := ingestInput()
	in.Sessions = []InputSession{
		{ID: "L-1", TeacherID: "T-99", CourseID: "C-1", GroupID: "SG-1", Kind: "lecture"},
	}

	// Act
	_, err := in.Resolve(zap.NewNop())

	// Assert
	assert.ErrorContains(t, err, "T-99")
}

func TestResolveDropsBlackoutForUnknownEntity(t *testing.T) {
	// Arrange
	in := ingestInput()
	in.TeacherBlackouts = []InputBlackout{
		{EntityID: "T-1", Day: Monday, Start: 540, End: 630},
		{EntityID: "T-99", Day: Monday, Start: 540, End: 630},
	}

	// Act
	p, err := in.Resolve(zap.NewNop())

	// Assert
	require.NoError(t, err)
	require.Len(t, p.TeacherBlackouts, 1)
	assert.Equal(t, 0, p.TeacherBlackouts[0].Entity)
}

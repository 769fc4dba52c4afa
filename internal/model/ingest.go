package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"
)

// Input is the normalized ingestion document: every reference is by
// identity, so any provider (CSV adapter, JSON snapshot, tests) can produce
// it without knowing arena indices.
type Input struct {
	Teachers []Teacher
	Rooms    []Room
	Slots    []InputSlot
	Courses  []InputCourse
	Groups   []StudentGroup
	Sessions []InputSession

	TeacherBlackouts []InputBlackout `mapstructure:"teacherBlackouts"`
	RoomBlackouts    []InputBlackout `mapstructure:"roomBlackouts"`
	LabMappings      []InputMapping  `mapstructure:"labMappings"`
}

type InputSlot struct {
	ID    string
	Day   int
	Start int
	End   int
	IsLab bool `mapstructure:"isLab"`
}

type InputCourse struct {
	ID             string
	Code           string
	Name           string
	Department     string
	Type           string // "theory" or "lab"
	LectureHours   int    `mapstructure:"lectureHours"`
	TutorialHours  int    `mapstructure:"tutorialHours"`
	PracticalHours int    `mapstructure:"practicalHours"`
	Credits        int
	LabType        string `mapstructure:"labType"`
}

type InputSession struct {
	ID         string
	TeacherID  string `mapstructure:"teacherId"`
	CourseID   string `mapstructure:"courseId"`
	GroupID    string `mapstructure:"groupId"`
	Kind       string
	Batch      string
	PinnedRoom string `mapstructure:"pinnedRoom"`
	SlotID     string `mapstructure:"slotId"`
	RoomID     string `mapstructure:"roomId"`
}

type InputBlackout struct {
	EntityID string `mapstructure:"entityId"`
	Day      int
	Start    int
	End      int
}

type InputMapping struct {
	CourseCode string   `mapstructure:"courseCode"`
	RoomIDs    []string `mapstructure:"roomIds"`
}

// InputFromJSON reads a normalized ingestion document from disk.
func InputFromJSON(file string) (Input, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return Input{}, err
	}

	var inputJSON map[string]any
	if err := json.Unmarshal(bytes, &inputJSON); err != nil {
		return Input{}, err
	}

	var input Input
	if err := mapstructure.Decode(inputJSON, &input); err != nil {
		return Input{}, err
	}
	return input, nil
}

// Resolve turns the identity-based document into an indexed Problem. The
// policy fields (batch threshold, workday tables) are set by the caller from
// its configuration afterwards. A session naming an unknown teacher, course
// or group cannot be represented and errors; unknown placement references
// (pinned room, slot, room) are warned about and dropped, leaving the
// session unplaced.
func (in Input) Resolve(log *zap.Logger) (*Problem, error) {
	p := &Problem{
		Teachers: in.Teachers,
		Rooms:    in.Rooms,
		Groups:   in.Groups,
	}

	p.Slots = make([]TimeSlot, len(in.Slots))
	for i, s := range in.Slots {
		p.Slots[i] = TimeSlot{ID: s.ID, Day: s.Day, Start: Minutes(s.Start), End: Minutes(s.End), IsLab: s.IsLab}
	}

	courseIndex := make(map[string]int, len(in.Courses))
	p.Courses = make([]Course, len(in.Courses))
	for i, c := range in.Courses {
		ct := CourseTheory
		if c.Type == "lab" {
			ct = CourseLab
		}
		p.Courses[i] = Course{
			ID: c.ID, Code: c.Code, Name: c.Name, Department: c.Department, Type: ct,
			LectureHours: c.LectureHours, TutorialHours: c.TutorialHours,
			PracticalHours: c.PracticalHours, Credits: c.Credits, LabType: c.LabType,
		}
		courseIndex[c.ID] = i
	}

	teacherIndex := make(map[string]int, len(in.Teachers))
	for i, t := range in.Teachers {
		teacherIndex[t.ID] = i
	}
	groupIndex := make(map[string]int, len(in.Groups))
	for i, g := range in.Groups {
		groupIndex[g.ID] = i
	}
	roomIndex := make(map[string]int, len(in.Rooms))
	for i, r := range in.Rooms {
		roomIndex[r.ID] = i
	}
	slotIndex := make(map[string]int, len(p.Slots))
	for i, s := range p.Slots {
		slotIndex[s.ID] = i
	}

	p.Sessions = make([]Session, 0, len(in.Sessions))
	for _, s := range in.Sessions {
		teacher, ok := teacherIndex[s.TeacherID]
		if !ok {
			return nil, fmt.Errorf("session %v references unknown teacher %v", s.ID, s.TeacherID)
		}
		course, ok := courseIndex[s.CourseID]
		if !ok {
			return nil, fmt.Errorf("session %v references unknown course %v", s.ID, s.CourseID)
		}
		group, ok := groupIndex[s.GroupID]
		if !ok {
			return nil, fmt.Errorf("session %v references unknown group %v", s.ID, s.GroupID)
		}

		kind := KindLecture
		switch s.Kind {
		case "tutorial":
			kind = KindTutorial
		case "lab":
			kind = KindLab
		}
		batch := BatchNone
		switch s.Batch {
		case "B1":
			batch = BatchB1
		case "B2":
			batch = BatchB2
		}

		sess := Session{
			ID: s.ID, Teacher: teacher, Course: course, Group: group,
			Kind: kind, Batch: batch,
			PinnedRoom: Unassigned, Slot: Unassigned, Room: Unassigned,
		}
		sess.Capacity = RequiredCapacity(in.Groups[group].Size, batch)
		if s.PinnedRoom != "" {
			if idx, ok := roomIndex[s.PinnedRoom]; ok {
				sess.PinnedRoom = idx
			} else {
				log.Warn("dropping pin to unknown room",
					zap.String("session", s.ID), zap.String("room", s.PinnedRoom))
			}
		}
		if s.SlotID != "" {
			if idx, ok := slotIndex[s.SlotID]; ok {
				sess.Slot = idx
			} else {
				log.Warn("dropping placement in unknown slot",
					zap.String("session", s.ID), zap.String("slot", s.SlotID))
			}
		}
		if s.RoomID != "" {
			if idx, ok := roomIndex[s.RoomID]; ok {
				sess.Room = idx
			} else {
				log.Warn("dropping placement in unknown room",
					zap.String("session", s.ID), zap.String("room", s.RoomID))
			}
		}
		p.Sessions = append(p.Sessions, sess)
	}

	resolveBlackouts := func(raw []InputBlackout, index map[string]int) []Blackout {
		out := make([]Blackout, 0, len(raw))
		for _, b := range raw {
			idx, ok := index[b.EntityID]
			if !ok {
				log.Warn("dropping blackout for unknown entity", zap.String("entity", b.EntityID))
				continue
			}
			out = append(out, Blackout{Entity: idx, Day: b.Day, Start: Minutes(b.Start), End: Minutes(b.End)})
		}
		return out
	}
	p.TeacherBlackouts = resolveBlackouts(in.TeacherBlackouts, teacherIndex)
	p.RoomBlackouts = resolveBlackouts(in.RoomBlackouts, roomIndex)

	for _, m := range in.LabMappings {
		mapping := LabMapping{CourseCode: m.CourseCode}
		for _, id := range m.RoomIDs {
			if idx, ok := roomIndex[id]; ok {
				mapping.Rooms = append(mapping.Rooms, idx)
			}
		}
		if len(mapping.Rooms) > 0 {
			p.LabMappings = append(p.LabMappings, mapping)
		}
	}

	return p, nil
}

// RequiredCapacity is the seat requirement of a session: the full group for
// unbatched sessions, the round-up half for a batch (B1 takes the larger
// share of odd groups).
func RequiredCapacity(groupSize int, batch Batch) int {
	if batch == BatchNone {
		return groupSize
	}
	return (groupSize + 1) / 2
}

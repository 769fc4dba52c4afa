package csvio

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/campushq/timetable/internal/model"
)

type scheduleRow struct {
	SessionID  string `csv:"session_id"`
	CourseCode string `csv:"course_code"`
	CourseName string `csv:"course_name"`
	Teacher    string `csv:"teacher"`
	Group      string `csv:"student_group"`
	Batch      string `csv:"batch"`
	Kind       string `csv:"kind"`
	Day        string `csv:"day"`
	Start      string `csv:"start"`
	End        string `csv:"end"`
	SlotID     string `csv:"slot_id"`
	Room       string `csv:"room"`
	Block      string `csv:"block"`
}

// ExportSchedule writes the solved arena as one row per session. Unassigned
// sessions keep empty placement columns so they stay visible in the output.
func ExportSchedule(p *model.Problem, sessions []model.Session, path string) error {
	rows := make([]*scheduleRow, 0, len(sessions))
	for _, s := range sessions {
		course := p.Courses[s.Course]
		row := &scheduleRow{
			SessionID:  s.ID,
			CourseCode: course.Code,
			CourseName: course.Name,
			Teacher:    p.Teachers[s.Teacher].Name,
			Group:      p.Groups[s.Group].Name,
			Batch:      s.Batch.String(),
			Kind:       s.Kind.String(),
		}
		if s.Slot != model.Unassigned {
			slot := p.Slots[s.Slot]
			row.Day = model.DayName(slot.Day)
			row.Start = slot.Start.Clock()
			row.End = slot.End.Clock()
			row.SlotID = slot.ID
		}
		if s.Room != model.Unassigned {
			room := p.Rooms[s.Room]
			row.Room = room.Name
			row.Block = room.Block
		}
		rows = append(rows, row)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %v: %w", path, err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&rows, file); err != nil {
		return fmt.Errorf("write %v: %w", path, err)
	}
	return nil
}

// ImportSchedule reads a previously exported schedule back onto a fresh
// session arena, resolving slots and rooms by identity. A row naming an
// unknown session, slot or room is an error; empty placement columns leave
// the session unassigned.
func ImportSchedule(p *model.Problem, path string) ([]model.Session, error) {
	var rows []*scheduleRow
	if err := unmarshalFile(path, &rows); err != nil {
		return nil, err
	}

	sessions := p.CloneSessions()
	byID := make(map[string]int, len(sessions))
	for i, s := range sessions {
		byID[s.ID] = i
	}

	for _, row := range rows {
		i, ok := byID[row.SessionID]
		if !ok {
			return nil, fmt.Errorf("schedule row names unknown session %v", row.SessionID)
		}
		if row.SlotID != "" {
			slot := p.SlotIndex(row.SlotID)
			if slot == model.Unassigned {
				return nil, fmt.Errorf("session %v placed in unknown slot %v", row.SessionID, row.SlotID)
			}
			sessions[i].Slot = slot
		}
		if row.Room != "" {
			room := roomByName(p, row.Room, row.Block)
			if room == model.Unassigned {
				return nil, fmt.Errorf("session %v placed in unknown room %v", row.SessionID, row.Room)
			}
			sessions[i].Room = room
		}
	}
	return sessions, nil
}

func roomByName(p *model.Problem, name, block string) int {
	for i, r := range p.Rooms {
		if r.Name == name && r.Block == block {
			return i
		}
	}
	return model.Unassigned
}

// Package csvio is the file-backed data provider: it reads the roster,
// room, blackout and lab-mapping CSV files into builder input and writes
// the solved timetable back out. The engine itself never touches files.
package csvio

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"github.com/campushq/timetable/internal/builder"
	"github.com/campushq/timetable/internal/model"
)

type rosterRow struct {
	CourseID       string `csv:"course_id"`
	CourseCode     string `csv:"course_code"`
	CourseName     string `csv:"course_name"`
	Department     string `csv:"course_dept"`
	TeacherID      string `csv:"teacher_id"`
	FirstName      string `csv:"first_name"`
	LastName       string `csv:"last_name"`
	Semester       int    `csv:"semester"`
	LectureHours   int    `csv:"lecture_hours"`
	TutorialHours  int    `csv:"tutorial_hours"`
	PracticalHours int    `csv:"practical_hours"`
	Credits        int    `csv:"credits"`
	LabType        string `csv:"lab_type"`
}

type roomRow struct {
	RoomNumber  string `csv:"room_number"`
	Block       string `csv:"block"`
	Description string `csv:"description"`
	Capacity    int    `csv:"room_max_cap"`
	LabType     string `csv:"lab_type"`
}

type blackoutRow struct {
	EntityID string `csv:"entity_id"`
	Day      string `csv:"day"`
	Window   string `csv:"window"`
}

type mappingRow struct {
	CourseCode string `csv:"course_code"`
	Lab1       string `csv:"lab_1"`
	Lab2       string `csv:"lab_2"`
	Lab3       string `csv:"lab_3"`
}

// LoadRoster reads the combined offering CSV into builder roster rows.
func LoadRoster(path string) ([]builder.RosterRow, error) {
	var rows []*rosterRow
	if err := unmarshalFile(path, &rows); err != nil {
		return nil, err
	}

	out := make([]builder.RosterRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, builder.RosterRow{
			CourseID:       r.CourseID,
			CourseCode:     r.CourseCode,
			CourseName:     r.CourseName,
			Department:     r.Department,
			TeacherID:      r.TeacherID,
			TeacherName:    strings.TrimSpace(r.FirstName + " " + r.LastName),
			Semester:       r.Semester,
			LectureHours:   r.LectureHours,
			TutorialHours:  r.TutorialHours,
			PracticalHours: r.PracticalHours,
			Credits:        r.Credits,
			LabType:        strings.ToLower(strings.TrimSpace(r.LabType)),
		})
	}
	return out, nil
}

// LoadRooms reads one room CSV. The identity is the description when
// present, otherwise block and number joined, matching how lab mappings
// refer to rooms.
func LoadRooms(path string, isLab bool) ([]builder.RoomRecord, error) {
	var rows []*roomRow
	if err := unmarshalFile(path, &rows); err != nil {
		return nil, err
	}

	out := make([]builder.RoomRecord, 0, len(rows))
	for _, r := range rows {
		id := strings.TrimSpace(r.Description)
		if id == "" {
			id = strings.TrimSpace(r.Block + " " + r.RoomNumber)
		}
		capacity := r.Capacity
		if capacity == 0 {
			capacity = 70
		}
		out = append(out, builder.RoomRecord{
			ID:       id,
			Name:     strings.TrimSpace(r.RoomNumber),
			Block:    strings.TrimSpace(r.Block),
			Capacity: capacity,
			IsLab:    isLab,
			LabType:  strings.ToLower(strings.TrimSpace(r.LabType)),
		})
	}
	return out, nil
}

var timeRangePattern = regexp.MustCompile(`(\d{1,2}):(\d{2}) ?- ?(\d{1,2}):(\d{2})`)

var dayLookup = map[string]int{
	"mon": model.Monday, "monday": model.Monday,
	"tue": model.Tuesday, "tuesday": model.Tuesday,
	"wed": model.Wednesday, "wednesday": model.Wednesday,
	"thu": model.Thursday, "thur": model.Thursday, "thursday": model.Thursday,
	"fri": model.Friday, "friday": model.Friday,
	"sat": model.Saturday, "saturday": model.Saturday,
}

// LoadBlackouts reads an unavailability matrix CSV. Malformed rows are
// skipped with a warning, never fatal.
func LoadBlackouts(path string, log *zap.Logger) ([]model.InputBlackout, error) {
	var rows []*blackoutRow
	if err := unmarshalFile(path, &rows); err != nil {
		return nil, err
	}

	out := make([]model.InputBlackout, 0, len(rows))
	for _, r := range rows {
		day, ok := dayLookup[strings.ToLower(strings.TrimSpace(r.Day))]
		if !ok {
			log.Warn("skipping blackout row: unknown day", zap.String("day", r.Day))
			continue
		}
		m := timeRangePattern.FindStringSubmatch(r.Window)
		if m == nil {
			log.Warn("skipping blackout row: malformed window", zap.String("window", r.Window))
			continue
		}
		start := atoi(m[1])*60 + atoi(m[2])
		end := atoi(m[3])*60 + atoi(m[4])
		out = append(out, model.InputBlackout{
			EntityID: strings.TrimSpace(r.EntityID), Day: day, Start: start, End: end,
		})
	}
	return out, nil
}

// LoadLabMappings reads the priority-ordered course-to-lab table. Empty
// columns truncate the priority list.
func LoadLabMappings(path string) ([]model.InputMapping, error) {
	var rows []*mappingRow
	if err := unmarshalFile(path, &rows); err != nil {
		return nil, err
	}

	out := make([]model.InputMapping, 0, len(rows))
	for _, r := range rows {
		mapping := model.InputMapping{CourseCode: strings.TrimSpace(r.CourseCode)}
		for _, lab := range []string{r.Lab1, r.Lab2, r.Lab3} {
			if lab = strings.TrimSpace(lab); lab != "" {
				mapping.RoomIDs = append(mapping.RoomIDs, lab)
			}
		}
		if mapping.CourseCode != "" && len(mapping.RoomIDs) > 0 {
			out = append(out, mapping)
		}
	}
	return out, nil
}

func unmarshalFile(path string, out any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %v: %w", path, err)
	}
	defer file.Close()

	if err := gocsv.UnmarshalFile(file, out); err != nil {
		return fmt.Errorf("parse %v: %w", path, err)
	}
	return nil
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

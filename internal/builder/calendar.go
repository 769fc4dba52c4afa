package builder

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/campushq/timetable/internal/model"
	"github.com/campushq/timetable/pkg/config"
)

// parseClock turns "HH:MM" into minutes since midnight.
func parseClock(s string) (model.Minutes, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("malformed clock time %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("malformed clock time %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("malformed clock time %q", s)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("clock time %q out of range", s)
	}
	return model.Minutes(h*60 + m), nil
}

// buildCalendar instantiates the weekly slot grid: for every configured day,
// one slot per theory template and one per lab template.
func buildCalendar(grid config.GridConfig) ([]model.TimeSlot, error) {
	slots := make([]model.TimeSlot, 0, len(grid.Days)*(len(grid.TheorySlots)+len(grid.LabSlots)))
	id := 1

	for _, day := range grid.Days {
		for _, tpl := range grid.TheorySlots {
			start, err := parseClock(tpl.Start)
			if err != nil {
				return nil, err
			}
			end, err := parseClock(tpl.End)
			if err != nil {
				return nil, err
			}
			slots = append(slots, model.TimeSlot{
				ID: fmt.Sprintf("TS-%d", id), Day: day, Start: start, End: end, IsLab: false,
			})
			id++
		}
		for _, tpl := range grid.LabSlots {
			start, err := parseClock(tpl.Start)
			if err != nil {
				return nil, err
			}
			end, err := parseClock(tpl.End)
			if err != nil {
				return nil, err
			}
			slots = append(slots, model.TimeSlot{
				ID: fmt.Sprintf("TS-LAB-%d", id), Day: day, Start: start, End: end, IsLab: true,
			})
			id++
		}
	}
	return slots, nil
}

// Package builder turns a raw course roster plus room and time-grid
// configuration into the immutable problem instance the search engine
// consumes. Reference entities are created exactly once; only the produced
// sessions carry mutable assignments.
package builder

import (
	"fmt"
	"slices"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/campushq/timetable/internal/model"
	"github.com/campushq/timetable/pkg/config"
)

// RosterRow is one de-duplicated (teacher, course) offering row.
type RosterRow struct {
	CourseID       string
	CourseCode     string
	CourseName     string
	Department     string
	TeacherID      string
	TeacherName    string
	Semester       int
	LectureHours   int
	TutorialHours  int
	PracticalHours int
	Credits        int
	LabType        string
}

// RoomRecord is one physical room prior to arena placement.
type RoomRecord struct {
	ID       string
	Name     string
	Block    string
	Capacity int
	IsLab    bool
	LabType  string
}

// Input bundles everything the builder consumes.
type Input struct {
	Roster     []RosterRow
	Classrooms []RoomRecord
	Labs       []RoomRecord

	TeacherBlackouts []model.InputBlackout
	RoomBlackouts    []model.InputBlackout
	LabMappings      []model.InputMapping
}

type Builder struct {
	cfg *config.Config
	log *zap.Logger
}

func New(cfg *config.Config, log *zap.Logger) *Builder {
	return &Builder{cfg: cfg, log: log}
}

// Build produces the full entity set. Malformed rows are skipped with a
// data warning; an understaffed course aborts with a ConfigurationError.
func (b *Builder) Build(in Input) (*model.Problem, error) {
	bc := b.cfg.Builder

	rows := b.filterRoster(in.Roster)
	if len(rows) == 0 {
		return nil, fmt.Errorf("no usable roster rows after filtering")
	}

	teachers, teacherIndex := b.createTeachers(rows)
	courses, courseIndex := b.createCourses(rows)
	groups := b.createGroups(rows)

	sessions, err := b.createSessions(rows, courses, courseIndex, teacherIndex, groups)
	if err != nil {
		return nil, err
	}

	slots, err := buildCalendar(b.cfg.Grid)
	if err != nil {
		return nil, err
	}

	rooms := b.mergeRooms(in.Classrooms, in.Labs)

	p := &model.Problem{
		Teachers:            teachers,
		Rooms:               rooms,
		Slots:               slots,
		Courses:             courses,
		Groups:              groups,
		Sessions:            sessions,
		BatchThreshold:      bc.BatchThreshold,
		AlwaysComputer:      bc.AlwaysComputerCourses,
		DeptWorkdays:        bc.DeptWorkdays,
		RestrictedRooms:     bc.RestrictedRooms,
		DefaultSessionHours: bc.DefaultSessionHours,
	}

	b.attachBlackouts(p, in)
	b.attachMappings(p, in.LabMappings)

	b.log.Info("problem built",
		zap.Int("teachers", len(teachers)),
		zap.Int("courses", len(courses)),
		zap.Int("groups", len(groups)),
		zap.Int("rooms", len(rooms)),
		zap.Int("slots", len(slots)),
		zap.Int("sessions", len(sessions)))

	return p, nil
}

func (b *Builder) filterRoster(rows []RosterRow) []RosterRow {
	bc := b.cfg.Builder
	return lo.Filter(rows, func(r RosterRow, _ int) bool {
		if !lo.Contains(bc.Semesters, r.Semester) {
			return false
		}
		if r.TeacherID == "" || r.TeacherID == "Unknown" {
			b.log.Warn("skipping roster row: missing teacher identity",
				zap.String("course", r.CourseCode), zap.Int("semester", r.Semester))
			return false
		}
		return true
	})
}

func (b *Builder) createTeachers(rows []RosterRow) ([]model.Teacher, map[string]int) {
	bc := b.cfg.Builder
	teachers := make([]model.Teacher, 0)
	index := make(map[string]int)

	for _, r := range rows {
		if _, ok := index[r.TeacherID]; ok {
			continue
		}
		index[r.TeacherID] = len(teachers)
		teachers = append(teachers, model.Teacher{
			ID: r.TeacherID, Name: r.TeacherName, MaxWeeklyHours: bc.MaxTeacherHours,
		})
	}
	return teachers, index
}

func (b *Builder) createCourses(rows []RosterRow) ([]model.Course, map[string]int) {
	courses := make([]model.Course, 0)
	index := make(map[string]int)

	for _, r := range rows {
		if _, ok := index[r.CourseID]; ok {
			continue
		}
		ct := model.CourseTheory
		if r.PracticalHours > 0 {
			ct = model.CourseLab
		}
		index[r.CourseID] = len(courses)
		courses = append(courses, model.Course{
			ID: r.CourseID, Code: r.CourseCode, Name: r.CourseName,
			Department: r.Department, Type: ct,
			LectureHours: r.LectureHours, TutorialHours: r.TutorialHours,
			PracticalHours: r.PracticalHours, Credits: r.Credits, LabType: r.LabType,
		})
	}
	return courses, index
}

// createGroups derives one group per configured section for every
// (department, year) pair present in the filtered roster. Ordering is
// deterministic: departments sorted, then years, then section number.
func (b *Builder) createGroups(rows []RosterRow) []model.StudentGroup {
	bc := b.cfg.Builder

	type deptYear struct {
		dept string
		year int
	}
	pairs := lo.Uniq(lo.FilterMap(rows, func(r RosterRow, _ int) (deptYear, bool) {
		year, ok := bc.SemesterYear[r.Semester]
		return deptYear{r.Department, year}, ok
	}))
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].dept != pairs[j].dept {
			return pairs[i].dept < pairs[j].dept
		}
		return pairs[i].year < pairs[j].year
	})

	groups := make([]model.StudentGroup, 0)
	counter := 1
	for _, pair := range pairs {
		sections := bc.SectionCounts[pair.dept]
		if sections == 0 {
			b.log.Warn("no sections configured for department",
				zap.String("department", pair.dept), zap.Int("year", pair.year))
			continue
		}
		size := bc.GroupSize
		if pair.dept == bc.ExemptDept {
			size = bc.ExemptDeptSize
		}
		for i := 1; i <= sections; i++ {
			groups = append(groups, model.StudentGroup{
				ID:         fmt.Sprintf("SG-%d", counter),
				Name:       fmt.Sprintf("%s %d.%d", pair.dept, pair.year, i),
				Size:       size,
				Department: pair.dept,
				Year:       pair.year,
			})
			counter++
		}
	}
	return groups
}

// createSessions walks departments, semesters and courses in sorted order
// and emits one session per lecture/tutorial hour and one per two practical
// hours, doubled across B1/B2 for batched courses. Teachers rotate over the
// section list by ordinal position.
func (b *Builder) createSessions(
	rows []RosterRow,
	courses []model.Course,
	courseIndex map[string]int,
	teacherIndex map[string]int,
	groups []model.StudentGroup,
) ([]model.Session, error) {
	bc := b.cfg.Builder
	sessions := make([]model.Session, 0)
	idCounter := 1

	byDept := lo.GroupBy(rows, func(r RosterRow) string { return r.Department })
	depts := lo.Keys(byDept)
	slices.Sort(depts)

	for _, dept := range depts {
		bySemester := lo.GroupBy(byDept[dept], func(r RosterRow) int { return r.Semester })
		semesters := lo.Keys(bySemester)
		slices.Sort(semesters)

		for _, semester := range semesters {
			year := bc.SemesterYear[semester]
			sectionGroups := lo.Filter(lo.Range(len(groups)), func(g, _ int) bool {
				return groups[g].Department == dept && groups[g].Year == year
			})

			byCourse := lo.GroupBy(bySemester[semester], func(r RosterRow) string { return r.CourseID })
			courseIDs := lo.Keys(byCourse)
			slices.Sort(courseIDs)

			for _, courseID := range courseIDs {
				ci, ok := courseIndex[courseID]
				if !ok {
					b.log.Warn("skipping session generation: missing course", zap.String("course", courseID))
					continue
				}
				course := courses[ci]

				teacherIDs := lo.Uniq(lo.Map(byCourse[courseID], func(r RosterRow, _ int) string { return r.TeacherID }))
				slices.Sort(teacherIDs)

				if len(teacherIDs) < len(sectionGroups) {
					return nil, &ConfigurationError{
						CourseCode: course.Code,
						Department: dept,
						Year:       year,
						Teachers:   len(teacherIDs),
						Sections:   len(sectionGroups),
					}
				}

				for ordinal, gi := range sectionGroups {
					group := groups[gi]
					ti := teacherIndex[teacherIDs[ordinal%len(teacherIDs)]]

					emit := func(kind model.SessionKind, batch model.Batch) {
						sessions = append(sessions, model.Session{
							ID:         fmt.Sprintf("L-%d", idCounter),
							Teacher:    ti,
							Course:     ci,
							Group:      gi,
							Kind:       kind,
							Batch:      batch,
							Capacity:   model.RequiredCapacity(group.Size, batch),
							PinnedRoom: model.Unassigned,
							Slot:       model.Unassigned,
							Room:       model.Unassigned,
						})
						idCounter++
					}

					for i := 0; i < course.LectureHours; i++ {
						emit(model.KindLecture, model.BatchNone)
					}
					for i := 0; i < course.TutorialHours; i++ {
						emit(model.KindTutorial, model.BatchNone)
					}

					if course.PracticalHours > 0 {
						labSessions := course.PracticalHours / 2 // 2-hour blocks

						exempt := lo.Contains(bc.UnbatchedCourses, course.Code) || dept == bc.ExemptDept
						if exempt {
							for i := 0; i < labSessions; i++ {
								emit(model.KindLab, model.BatchNone)
							}
						} else {
							// Each batch receives the full session count.
							for i := 0; i < labSessions; i++ {
								emit(model.KindLab, model.BatchB1)
							}
							for i := 0; i < labSessions; i++ {
								emit(model.KindLab, model.BatchB2)
							}
						}
					}
				}
			}
		}
	}

	return sessions, nil
}

// mergeRooms joins classroom and lab lists and stably sorts the preferred
// block first; the order is a construction hint only.
func (b *Builder) mergeRooms(classrooms, labs []RoomRecord) []model.Room {
	records := make([]RoomRecord, 0, len(classrooms)+len(labs))
	for _, r := range classrooms {
		r.IsLab = false
		records = append(records, r)
	}
	for _, r := range labs {
		r.IsLab = true
		records = append(records, r)
	}

	preferred := b.cfg.Builder.PreferredBlock
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Block == preferred && records[j].Block != preferred
	})

	return lo.Map(records, func(r RoomRecord, _ int) model.Room {
		return model.Room{
			ID: r.ID, Name: r.Name, Block: r.Block,
			Capacity: r.Capacity, IsLab: r.IsLab, LabType: r.LabType,
		}
	})
}

func (b *Builder) attachBlackouts(p *model.Problem, in Input) {
	resolve := func(raw []model.InputBlackout, index func(string) int, kind string) []model.Blackout {
		out := make([]model.Blackout, 0, len(raw))
		for _, w := range raw {
			idx := index(w.EntityID)
			if idx < 0 {
				b.log.Warn("skipping blackout row: unknown entity",
					zap.String("kind", kind), zap.String("entity", w.EntityID))
				continue
			}
			out = append(out, model.Blackout{
				Entity: idx, Day: w.Day,
				Start: model.Minutes(w.Start), End: model.Minutes(w.End),
			})
		}
		return out
	}
	p.TeacherBlackouts = resolve(in.TeacherBlackouts, p.TeacherIndex, "teacher")
	p.RoomBlackouts = resolve(in.RoomBlackouts, p.RoomIndex, "room")
}

func (b *Builder) attachMappings(p *model.Problem, mappings []model.InputMapping) {
	for _, m := range mappings {
		mapping := model.LabMapping{CourseCode: m.CourseCode}
		for _, id := range m.RoomIDs {
			idx := p.RoomIndex(id)
			if idx < 0 {
				b.log.Warn("skipping mapped lab: unknown room",
					zap.String("course", m.CourseCode), zap.String("room", id))
				continue
			}
			mapping.Rooms = append(mapping.Rooms, idx)
		}
		if len(mapping.Rooms) > 0 {
			p.LabMappings = append(p.LabMappings, mapping)
		}
	}
}

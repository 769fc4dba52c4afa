package engine

import (
	"cmp"
	"slices"

	"github.com/onsi/gomega/matchers/support/goraph/bipartitegraph"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/campushq/timetable/internal/model"
	"github.com/campushq/timetable/internal/score"
)

// construct produces the starting assignment: mapped lab sessions are
// placed first, one lab slot at a time, by a largest matching between
// sessions and their allowed labs; everything left is placed greedy
// first-fit over structurally compatible cells. Sessions with no legal
// candidate stay unassigned rather than aborting.
func construct(p *model.Problem, ev score.Evaluator, log *zap.Logger) {
	c := &constructor{
		p:           p,
		ev:          ev,
		log:         log,
		roomBusy:    make(map[[2]int]bool),
		teacherBusy: make(map[int][]int),
		groupBusy:   make(map[int][]int),
	}
	c.placeMappedLabs()
	c.placeGreedy()
}

type constructor struct {
	p   *model.Problem
	ev  score.Evaluator
	log *zap.Logger

	roomBusy    map[[2]int]bool // (room, slot) occupied
	teacherBusy map[int][]int   // teacher -> assigned slot indices
	groupBusy   map[int][]int   // group -> assigned session indices
}

// placeMappedLabs walks the lab slots in calendar order and, per slot,
// matches a conflict-free batch of pending mapped sessions onto their
// allowed free labs.
func (c *constructor) placeMappedLabs() {
	sessions := c.ev.Sessions()

	pending := lo.Filter(lo.Range(len(sessions)), func(i, _ int) bool {
		s := &sessions[i]
		return s.Kind == model.KindLab && !s.Assigned() && c.p.Mapping(c.p.Courses[s.Course].Code) != nil
	})
	if len(pending) == 0 {
		return
	}

	for slotIdx := range c.p.Slots {
		if len(pending) == 0 {
			break
		}
		if !c.p.Slots[slotIdx].IsLab {
			continue
		}

		candidates := c.slotCandidates(pending, slotIdx)
		if len(candidates) == 0 {
			continue
		}

		matched := c.matchLabs(candidates, slotIdx)
		for si, room := range matched {
			c.commit(si, slotIdx, room)
			pending = lo.Without(pending, si)
		}
	}

	if len(pending) > 0 {
		c.log.Warn("mapped lab sessions left for local search", zap.Int("count", len(pending)))
	}
}

// slotCandidates picks pending sessions that can share the slot without a
// teacher or group clash among themselves or with prior placements.
func (c *constructor) slotCandidates(pending []int, slotIdx int) []int {
	sessions := c.ev.Sessions()
	slot := c.p.Slots[slotIdx]

	var out []int
	teachers := make(map[int]bool)
	groups := make(map[[2]int]bool) // (group, batch)

	for _, si := range pending {
		s := &sessions[si]
		if teachers[s.Teacher] || c.teacherClash(s.Teacher, slot) {
			continue
		}
		gk := [2]int{s.Group, int(s.Batch)}
		if groups[gk] || c.groupClash(si, slotIdx) {
			continue
		}
		if !c.p.WorkdayAllowed(c.p.Groups[s.Group].Department, slot.Day) {
			continue
		}
		if c.blackedOut(c.p.TeacherBlackouts, s.Teacher, slot) {
			continue
		}
		out = append(out, si)
		teachers[s.Teacher] = true
		groups[gk] = true
	}
	return out
}

// matchLabs runs a largest bipartite matching between candidate sessions
// and the labs their mappings allow in this slot, and returns the matched
// session -> room pairs.
func (c *constructor) matchLabs(candidates []int, slotIdx int) map[int]int {
	sessions := c.ev.Sessions()
	slot := c.p.Slots[slotIdx]

	labs := lo.Filter(lo.Range(len(c.p.Rooms)), func(r, _ int) bool {
		return c.p.Rooms[r].IsLab && !c.roomBusy[[2]int{r, slotIdx}] &&
			!c.blackedOut(c.p.RoomBlackouts, r, slot)
	})
	if len(labs) == 0 {
		return nil
	}

	neighbors := func(sessionAny any, roomAny any) (bool, error) {
		si := sessionAny.(int)
		room := roomAny.(int)
		s := &sessions[si]
		mapping := c.p.Mapping(c.p.Courses[s.Course].Code)
		return lo.Contains(mapping.Rooms, room) && c.p.Rooms[room].Capacity >= s.Capacity, nil
	}

	sessionsAny := lo.Map(candidates, func(si, _ int) any { return si })
	labsAny := lo.Map(labs, func(r, _ int) any { return r })

	graph, err := bipartitegraph.NewBipartiteGraph(sessionsAny, labsAny, neighbors)
	if err != nil {
		c.log.Warn("lab matching failed", zap.Error(err))
		return nil
	}

	out := make(map[int]int)
	for _, edge := range graph.LargestMatching() {
		si := candidates[edge.Node1]
		room := labs[edge.Node2-len(candidates)]
		out[si] = room
	}
	return out
}

// placeGreedy assigns the remaining sessions largest-capacity first, taking
// the first legal (slot, room) cell. Rooms keep the builder's
// preferred-block-first order but are tried tightest-fitting first.
func (c *constructor) placeGreedy() {
	sessions := c.ev.Sessions()

	unplaced := lo.Filter(lo.Range(len(sessions)), func(i, _ int) bool {
		return !sessions[i].Assigned()
	})
	slices.SortStableFunc(unplaced, func(a, b int) int {
		return cmp.Compare(sessions[b].Capacity, sessions[a].Capacity)
	})

	for _, si := range unplaced {
		if slotIdx, room, ok := c.firstFit(si); ok {
			c.commit(si, slotIdx, room)
		} else {
			c.log.Warn("session left unassigned after construction",
				zap.String("session", sessions[si].ID))
		}
	}
}

func (c *constructor) firstFit(si int) (int, int, bool) {
	s := &c.ev.Sessions()[si]

	rooms := c.compatibleRooms(si)
	for slotIdx := range c.p.Slots {
		slot := c.p.Slots[slotIdx]
		if slot.IsLab != s.RequiresLabRoom() {
			continue
		}
		if !c.p.WorkdayAllowed(c.p.Groups[s.Group].Department, slot.Day) {
			continue
		}
		if c.teacherClash(s.Teacher, slot) || c.groupClash(si, slotIdx) {
			continue
		}
		if c.blackedOut(c.p.TeacherBlackouts, s.Teacher, slot) {
			continue
		}
		for _, room := range rooms {
			if c.roomBusy[[2]int{room, slotIdx}] {
				continue
			}
			if c.blackedOut(c.p.RoomBlackouts, room, slot) {
				continue
			}
			return slotIdx, room, true
		}
	}
	return 0, 0, false
}

// compatibleRooms lists the legal rooms for a session: the pinned room
// alone when pinned, the mapping set for mapped lab courses, otherwise
// every room of the right kind with enough seats, tightest first and
// preferred block winning ties.
func (c *constructor) compatibleRooms(si int) []int {
	s := &c.ev.Sessions()[si]
	if s.PinnedRoom != model.Unassigned {
		return []int{s.PinnedRoom}
	}

	course := &c.p.Courses[s.Course]
	if s.Kind == model.KindLab {
		if mapping := c.p.Mapping(course.Code); mapping != nil {
			return lo.Filter(mapping.Rooms, func(r, _ int) bool {
				return c.p.Rooms[r].Capacity >= s.Capacity
			})
		}
	}

	rooms := lo.Filter(lo.Range(len(c.p.Rooms)), func(r, _ int) bool {
		room := c.p.Rooms[r]
		if room.IsLab != s.RequiresLabRoom() || room.Capacity < s.Capacity {
			return false
		}
		if dept, ok := c.p.RestrictedRooms[room.Name]; ok && dept != c.p.Groups[s.Group].Department {
			return false
		}
		if s.Kind == model.KindLab {
			return !labTypeClash(course, room, c.p.AlwaysComputer)
		}
		return true
	})
	// Stable: ties keep the preferred-block-first arena order.
	slices.SortStableFunc(rooms, func(a, b int) int {
		return cmp.Compare(c.p.Rooms[a].Capacity, c.p.Rooms[b].Capacity)
	})
	return rooms
}

func labTypeClash(course *model.Course, room model.Room, alwaysComputer []string) bool {
	if course.LabType != "" {
		return course.LabType != room.LabType
	}
	return lo.Contains(alwaysComputer, course.Code) && room.LabType != "computer"
}

func (c *constructor) teacherClash(teacher int, slot model.TimeSlot) bool {
	return lo.SomeBy(c.teacherBusy[teacher], func(other int) bool {
		return c.p.Slots[other].Overlaps(slot)
	})
}

func (c *constructor) groupClash(si, slotIdx int) bool {
	sessions := c.ev.Sessions()
	s := &sessions[si]
	slot := c.p.Slots[slotIdx]
	return lo.SomeBy(c.groupBusy[s.Group], func(other int) bool {
		o := &sessions[other]
		if !c.p.Slots[o.Slot].Overlaps(slot) {
			return false
		}
		if s.Batch == model.BatchNone || o.Batch == model.BatchNone {
			return true
		}
		return s.Batch == o.Batch
	})
}

func (c *constructor) blackedOut(blackouts []model.Blackout, entity int, slot model.TimeSlot) bool {
	return lo.SomeBy(blackouts, func(b model.Blackout) bool {
		return b.Entity == entity && b.Covers(slot)
	})
}

func (c *constructor) commit(si, slotIdx, room int) {
	s := &c.ev.Sessions()[si]
	c.ev.Assign(si, slotIdx, room)
	c.roomBusy[[2]int{room, slotIdx}] = true
	c.teacherBusy[s.Teacher] = append(c.teacherBusy[s.Teacher], slotIdx)
	c.groupBusy[s.Group] = append(c.groupBusy[s.Group], si)
}

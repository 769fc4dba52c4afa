package engine

import (
	"context"
	"math"
	"math/rand"

	"github.com/samber/lo"

	"github.com/campushq/timetable/internal/model"
	"github.com/campushq/timetable/internal/score"
	"github.com/campushq/timetable/pkg/config"
)

// candidate is one worker's best-seen state, reported to the coordinator.
type candidate struct {
	sessions []model.Session
	score    model.Score
}

// scalar collapses the two tiers for the acceptance test only; the best
// tracker always compares lexicographically.
func scalar(s model.Score) float64 {
	return float64(s.Hard)*1e6 + float64(s.Soft)
}

// temperature is the geometric cooling schedule, TempHigh at the first
// step decaying to TempLow at the last. A one-step schedule stays at
// TempHigh rather than dividing by zero.
func temperature(cfg config.SolverConfig, step int) float64 {
	lastStep := float64(max(cfg.Steps-1, 1))
	return cfg.TempHigh * math.Pow(cfg.TempLow/cfg.TempHigh, float64(step)/lastStep)
}

// annealer runs simulated annealing over one private session arena. Moves
// are single reassignments about two thirds of the time and pairwise swaps
// otherwise; deltas come from the incremental evaluator and rejected moves
// are undone by assigning the previous values back.
type annealer struct {
	p   *model.Problem
	ev  score.Evaluator
	cfg config.SolverConfig
	req model.SolveRequest
	rng *rand.Rand

	theorySlots []int
	labSlots    []int
	theoryRooms []int
	labRooms    []int
}

func newAnnealer(p *model.Problem, ev score.Evaluator, cfg config.SolverConfig, req model.SolveRequest, rng *rand.Rand) *annealer {
	return &annealer{
		p:   p,
		ev:  ev,
		cfg: cfg,
		req: req,
		rng: rng,
		theorySlots: lo.Filter(lo.Range(len(p.Slots)), func(i, _ int) bool {
			return !p.Slots[i].IsLab
		}),
		labSlots: lo.Filter(lo.Range(len(p.Slots)), func(i, _ int) bool {
			return p.Slots[i].IsLab
		}),
		theoryRooms: lo.Filter(lo.Range(len(p.Rooms)), func(i, _ int) bool {
			return !p.Rooms[i].IsLab
		}),
		labRooms: lo.Filter(lo.Range(len(p.Rooms)), func(i, _ int) bool {
			return p.Rooms[i].IsLab
		}),
	}
}

// run anneals until the step budget, the context deadline or the early-exit
// rule stops it, then flushes the best state seen.
func (a *annealer) run(ctx context.Context, results chan<- candidate) {
	sessions := a.ev.Sessions()
	current := a.ev.Score()

	best := current
	bestSessions := snapshot(sessions)
	sinceImprovement := 0

	steps := a.cfg.Steps
	for step := 0; step < steps; step++ {
		// Cancellation is cooperative and checked between moves only.
		if step%256 == 0 && ctx.Err() != nil {
			break
		}

		t := temperature(a.cfg, step)

		next, undo, ok := a.propose()
		if !ok {
			continue
		}

		delta := scalar(next) - scalar(current)
		if delta <= 0 || a.rng.Float64() < math.Exp(-delta/t) {
			current = next
			if current.Less(best) {
				best = current
				bestSessions = snapshot(sessions)
				sinceImprovement = 0
				continue
			}
		} else {
			undo()
		}

		sinceImprovement++
		if a.req.EarlyTerminationEnabled && best.Hard == 0 &&
			sinceImprovement >= a.req.EarlyTerminationMoves {
			break
		}
	}

	results <- candidate{sessions: bestSessions, score: best}
}

// propose mutates the arena through the evaluator and returns the new
// total plus an undo closure. ok is false when no move was applicable.
func (a *annealer) propose() (model.Score, func(), bool) {
	sessions := a.ev.Sessions()
	if len(sessions) == 0 {
		return model.Score{}, nil, false
	}

	si := a.rng.Intn(len(sessions))
	s := &sessions[si]

	if a.rng.Intn(3) == 0 && len(sessions) > 1 {
		// Pairwise swap with another session of the same kind class, so
		// the structural slot/room filters stay satisfied.
		sj := a.rng.Intn(len(sessions) - 1)
		if sj >= si {
			sj++
		}
		o := &sessions[sj]
		if s.RequiresLabRoom() != o.RequiresLabRoom() {
			return model.Score{}, nil, false
		}
		if s.Slot == o.Slot && s.Room == o.Room {
			return model.Score{}, nil, false
		}

		sSlot, sRoom := s.Slot, s.Room
		oSlot, oRoom := o.Slot, o.Room
		a.ev.Assign(si, oSlot, oRoom)
		next := a.ev.Assign(sj, sSlot, sRoom)
		undo := func() {
			a.ev.Assign(si, sSlot, sRoom)
			a.ev.Assign(sj, oSlot, oRoom)
		}
		return next, undo, true
	}

	slots, rooms := a.theorySlots, a.theoryRooms
	if s.RequiresLabRoom() {
		slots, rooms = a.labSlots, a.labRooms
	}
	if len(slots) == 0 || len(rooms) == 0 {
		return model.Score{}, nil, false
	}

	oldSlot, oldRoom := s.Slot, s.Room
	newSlot := slots[a.rng.Intn(len(slots))]
	newRoom := rooms[a.rng.Intn(len(rooms))]
	if s.PinnedRoom != model.Unassigned {
		newRoom = s.PinnedRoom
	}
	if newSlot == oldSlot && newRoom == oldRoom {
		return model.Score{}, nil, false
	}

	next := a.ev.Assign(si, newSlot, newRoom)
	undo := func() { a.ev.Assign(si, oldSlot, oldRoom) }
	return next, undo, true
}

func snapshot(sessions []model.Session) []model.Session {
	out := make([]model.Session, len(sessions))
	copy(out, sessions)
	return out
}

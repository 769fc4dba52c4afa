package model

import "time"

// SolveRequest carries the search budget and reproducibility knobs.
type SolveRequest struct {
	TimeLimit               time.Duration
	RandomSeed              int64
	Workers                 int
	EarlyTerminationEnabled bool

	// EarlyTerminationMoves is the number of consecutive moves without a
	// soft improvement (at hard zero) after which a worker stops early.
	EarlyTerminationMoves int
}

// Solution is the final snapshot handed to the exporter: the assigned
// session arena, its score and the critical-constraint diagnostics.
type Solution struct {
	Sessions    []Session
	Score       Score
	Feasible    bool
	Diagnostics []Violation
}

// Assignment reports one session's placement for export.
type Assignment struct {
	SessionID string
	SlotID    string
	RoomID    string
}

// Assignments lists the placements of all assigned sessions in arena order.
func (s *Solution) Assignments(p *Problem) []Assignment {
	out := make([]Assignment, 0, len(s.Sessions))
	for _, sess := range s.Sessions {
		a := Assignment{SessionID: sess.ID}
		if sess.Slot != Unassigned {
			a.SlotID = p.Slots[sess.Slot].ID
		}
		if sess.Room != Unassigned {
			a.RoomID = p.Rooms[sess.Room].ID
		}
		out = append(out, a)
	}
	return out
}

package model

import "fmt"

// Score is the two-tier penalty pair. Lower is better on both components;
// Hard must reach zero for a feasible timetable. Soft may go negative when
// rewards outweigh penalties.
type Score struct {
	Hard int
	Soft int
}

func (s Score) Feasible() bool { return s.Hard == 0 }

// Less compares lexicographically: any hard reduction beats any soft change.
func (s Score) Less(o Score) bool {
	if s.Hard != o.Hard {
		return s.Hard < o.Hard
	}
	return s.Soft < o.Soft
}

func (s Score) Add(o Score) Score { return Score{s.Hard + o.Hard, s.Soft + o.Soft} }

func (s Score) Sub(o Score) Score { return Score{s.Hard - o.Hard, s.Soft - o.Soft} }

func (s Score) String() string { return fmt.Sprintf("%dhard/%dsoft", s.Hard, s.Soft) }

// Violation reports one broken critical constraint for diagnostics.
type Violation struct {
	Constraint string
	Sessions   []string
	Penalty    int
}

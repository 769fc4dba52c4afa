// Package engine drives the search: a deterministic construction pass
// followed by parallel simulated annealing. Workers own private copies of
// the session arena and report their bests to a single coordinator; the
// reference data in the problem is shared read-only.
package engine

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/campushq/timetable/internal/model"
	"github.com/campushq/timetable/internal/score"
	"github.com/campushq/timetable/pkg/config"
)

type Engine interface {
	// Solve runs construction and improvement within the request's time
	// budget and returns the best solution found. An infeasible best is
	// still returned, flagged, never an error.
	Solve(ctx context.Context, req model.SolveRequest) (*model.Solution, error)
}

func New(p *model.Problem, cfg config.SolverConfig, log *zap.Logger) Engine {
	return &engine{p: p, cfg: cfg, log: log}
}

type engine struct {
	p   *model.Problem
	cfg config.SolverConfig
	log *zap.Logger
}

func (e *engine) Solve(ctx context.Context, req model.SolveRequest) (*model.Solution, error) {
	req = e.withDefaults(req)

	start := time.Now()

	// Construction runs once; every worker starts from the same state
	// and diverges through its own random stream.
	base := e.p.CloneSessions()
	baseEval := score.NewEvaluator(e.p, base)
	construct(e.p, baseEval, e.log)
	constructed := baseEval.Score()
	e.log.Info("construction finished",
		zap.String("score", constructed.String()),
		zap.Duration("elapsed", time.Since(start)))

	ctx, cancel := context.WithTimeout(ctx, req.TimeLimit)
	defer cancel()

	results := make(chan candidate, req.Workers)
	var wg sync.WaitGroup
	for w := 0; w < req.Workers; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			sessions := snapshot(base)
			ev := score.NewEvaluator(e.p, sessions)
			rng := rand.New(rand.NewSource(req.RandomSeed + int64(worker)))
			newAnnealer(e.p, ev, e.cfg, req, rng).run(ctx, results)
		}(w)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	best := candidate{sessions: base, score: constructed}
	for c := range results {
		if c.score.Less(best.score) {
			best = c
		}
	}

	final := score.NewEvaluator(e.p, best.sessions)
	sol := &model.Solution{
		Sessions:    best.sessions,
		Score:       final.Score(),
		Feasible:    final.Score().Feasible(),
		Diagnostics: final.Diagnostics(),
	}
	e.log.Info("solve finished",
		zap.String("score", sol.Score.String()),
		zap.Bool("feasible", sol.Feasible),
		zap.Int("violations", len(sol.Diagnostics)),
		zap.Duration("elapsed", time.Since(start)))
	return sol, nil
}

func (e *engine) withDefaults(req model.SolveRequest) model.SolveRequest {
	if req.TimeLimit <= 0 {
		req.TimeLimit = e.cfg.TimeLimit
	}
	if req.Workers <= 0 {
		req.Workers = e.cfg.Workers
	}
	if req.RandomSeed == 0 {
		req.RandomSeed = e.cfg.RandomSeed
	}
	if req.EarlyTerminationMoves <= 0 {
		req.EarlyTerminationMoves = e.cfg.EarlyTerminationMoves
	}
	return req
}

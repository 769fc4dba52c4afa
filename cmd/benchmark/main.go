// Command benchmark sweeps the solver over a range of seeds and step
// budgets against one dataset and writes the per-run scores as CSV, for
// comparing annealing schedules before a deployment.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"go.uber.org/zap"

	"github.com/campushq/timetable/internal/builder"
	"github.com/campushq/timetable/internal/csvio"
	"github.com/campushq/timetable/internal/engine"
	"github.com/campushq/timetable/internal/model"
	"github.com/campushq/timetable/pkg/config"
	"github.com/campushq/timetable/pkg/logger"
)

type runResult struct {
	Seed     int64   `csv:"seed"`
	Steps    int     `csv:"steps"`
	Hard     int     `csv:"hard"`
	Soft     int     `csv:"soft"`
	Feasible bool    `csv:"feasible"`
	Seconds  float64 `csv:"seconds"`
}

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	dataDir := flag.String("data", "data", "dataset directory, same layout the timetable command reads")
	seeds := flag.Int("seeds", 5, "number of consecutive seeds starting from the configured one")
	stepsList := flag.String("steps", "", "comma-separated step budgets; empty keeps the configured budget")
	outPath := flag.String("out", "bench_results.csv", "results CSV")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	log, err := logger.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	budgets, err := parseBudgets(*stepsList, cfg.Solver.Steps)
	if err != nil {
		log.Fatal("bad -steps", zap.Error(err))
	}

	p, err := loadProblem(cfg, log, *dataDir)
	if err != nil {
		log.Fatal("load dataset", zap.Error(err))
	}

	var results []*runResult
	for _, steps := range budgets {
		runCfg := cfg.Solver
		runCfg.Steps = steps
		for i := 0; i < *seeds; i++ {
			seed := cfg.Solver.RandomSeed + int64(i)
			req := model.SolveRequest{
				TimeLimit:               cfg.Solver.TimeLimit,
				RandomSeed:              seed,
				Workers:                 cfg.Solver.Workers,
				EarlyTerminationEnabled: cfg.Solver.EarlyTermination,
				EarlyTerminationMoves:   cfg.Solver.EarlyTerminationMoves,
			}
			start := time.Now()
			sol, err := engine.New(p, runCfg, log).Solve(context.Background(), req)
			if err != nil {
				log.Fatal("solve", zap.Error(err))
			}
			elapsed := time.Since(start)
			log.Info("run finished",
				zap.Int64("seed", seed),
				zap.Int("steps", steps),
				zap.String("score", sol.Score.String()),
				zap.Duration("elapsed", elapsed))
			results = append(results, &runResult{
				Seed:     seed,
				Steps:    steps,
				Hard:     sol.Score.Hard,
				Soft:     sol.Score.Soft,
				Feasible: sol.Feasible,
				Seconds:  elapsed.Seconds(),
			})
		}
	}

	file, err := os.Create(*outPath)
	if err != nil {
		log.Fatal("create results file", zap.Error(err))
	}
	defer file.Close()
	if err := gocsv.MarshalFile(&results, file); err != nil {
		log.Fatal("write results", zap.Error(err))
	}
	log.Info("results written", zap.String("path", *outPath), zap.Int("runs", len(results)))
}

func parseBudgets(list string, fallback int) ([]int, error) {
	if list == "" {
		return []int{fallback}, nil
	}
	var out []int
	for _, part := range strings.Split(list, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("step budget %q is not a positive integer", part)
		}
		out = append(out, n)
	}
	return out, nil
}

func loadProblem(cfg *config.Config, log *zap.Logger, dir string) (*model.Problem, error) {
	roster, err := csvio.LoadRoster(dir + "/combined.csv")
	if err != nil {
		return nil, err
	}
	classrooms, err := csvio.LoadRooms(dir+"/classrooms.csv", false)
	if err != nil {
		return nil, err
	}
	labs, err := csvio.LoadRooms(dir+"/labs.csv", true)
	if err != nil {
		return nil, err
	}
	return builder.New(cfg, log).Build(builder.Input{Roster: roster, Classrooms: classrooms, Labs: labs})
}

// Command timetable reads the institutional roster, room and availability
// files, builds the scheduling problem, runs the solver and writes the
// resulting weekly timetable as CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/campushq/timetable/internal/builder"
	"github.com/campushq/timetable/internal/csvio"
	"github.com/campushq/timetable/internal/engine"
	"github.com/campushq/timetable/internal/model"
	"github.com/campushq/timetable/pkg/config"
	"github.com/campushq/timetable/pkg/logger"
)

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	dataDir := flag.String("data", "data", "directory holding combined.csv, classrooms.csv, labs.csv and the optional availability files")
	jsonInput := flag.String("input", "", "normalized JSON problem document; bypasses the CSV builder when set")
	outPath := flag.String("out", "timetable.csv", "output schedule CSV")
	timeLimit := flag.Duration("timelimit", 0, "solver wall-clock budget; overrides config when set")
	seed := flag.Int64("seed", 0, "random seed; overrides config when set")
	workers := flag.Int("workers", 0, "parallel annealing workers; overrides config when set")
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

	if err := run(cfg, log, *dataDir, *jsonInput, *outPath, *timeLimit, *seed, *workers); err != nil {
		log.Fatal("run failed", zap.Error(err))
	}
}

func run(cfg *config.Config, log *zap.Logger, dataDir, jsonInput, outPath string, timeLimit time.Duration, seed int64, workers int) error {
	var (
		p   *model.Problem
		err error
	)
	if jsonInput != "" {
		p, err = loadJSON(cfg, log, jsonInput)
	} else {
		p, err = loadCSV(cfg, log, dataDir)
	}
	if err != nil {
		return err
	}
	log.Info("problem built",
		zap.Int("teachers", len(p.Teachers)),
		zap.Int("groups", len(p.Groups)),
		zap.Int("rooms", len(p.Rooms)),
		zap.Int("slots", len(p.Slots)),
		zap.Int("sessions", len(p.Sessions)))

	req := model.SolveRequest{
		TimeLimit:               cfg.Solver.TimeLimit,
		RandomSeed:              cfg.Solver.RandomSeed,
		Workers:                 cfg.Solver.Workers,
		EarlyTerminationEnabled: cfg.Solver.EarlyTermination,
		EarlyTerminationMoves:   cfg.Solver.EarlyTerminationMoves,
	}
	if timeLimit > 0 {
		req.TimeLimit = timeLimit
	}
	if seed != 0 {
		req.RandomSeed = seed
	}
	if workers > 0 {
		req.Workers = workers
	}

	sol, err := engine.New(p, cfg.Solver, log).Solve(context.Background(), req)
	if err != nil {
		return err
	}

	log.Info("solve finished",
		zap.String("score", sol.Score.String()),
		zap.Bool("feasible", sol.Feasible))
	for i, v := range sol.Diagnostics {
		if i == 25 {
			log.Warn("further violations elided", zap.Int("remaining", len(sol.Diagnostics)-i))
			break
		}
		log.Warn("constraint violated",
			zap.String("constraint", v.Constraint),
			zap.Strings("sessions", v.Sessions),
			zap.Int("penalty", v.Penalty))
	}

	if err := csvio.ExportSchedule(p, sol.Sessions, outPath); err != nil {
		return err
	}
	log.Info("schedule written", zap.String("path", outPath))
	return nil
}

func loadJSON(cfg *config.Config, log *zap.Logger, path string) (*model.Problem, error) {
	in, err := model.InputFromJSON(path)
	if err != nil {
		return nil, err
	}
	p, err := in.Resolve(log)
	if err != nil {
		return nil, err
	}
	applyPolicy(cfg, p)
	return p, nil
}

// applyPolicy stamps the config-owned scoring knobs onto a problem built
// from a normalized document, which carries entities but not policy.
func applyPolicy(cfg *config.Config, p *model.Problem) {
	p.BatchThreshold = cfg.Builder.BatchThreshold
	p.AlwaysComputer = cfg.Builder.AlwaysComputerCourses
	p.DeptWorkdays = cfg.Builder.DeptWorkdays
	p.RestrictedRooms = cfg.Builder.RestrictedRooms
	p.DefaultSessionHours = cfg.Builder.DefaultSessionHours
}

func loadCSV(cfg *config.Config, log *zap.Logger, dir string) (*model.Problem, error) {
	roster, err := csvio.LoadRoster(filepath.Join(dir, "combined.csv"))
	if err != nil {
		return nil, err
	}
	classrooms, err := csvio.LoadRooms(filepath.Join(dir, "classrooms.csv"), false)
	if err != nil {
		return nil, err
	}
	labs, err := csvio.LoadRooms(filepath.Join(dir, "labs.csv"), true)
	if err != nil {
		return nil, err
	}

	in := builder.Input{Roster: roster, Classrooms: classrooms, Labs: labs}

	// Availability and mapping files are optional deployments.
	if path, ok := optional(dir, "teacher_blackouts.csv", log); ok {
		if in.TeacherBlackouts, err = csvio.LoadBlackouts(path, log); err != nil {
			return nil, err
		}
	}
	if path, ok := optional(dir, "room_blackouts.csv", log); ok {
		if in.RoomBlackouts, err = csvio.LoadBlackouts(path, log); err != nil {
			return nil, err
		}
	}
	if path, ok := optional(dir, "lab_mappings.csv", log); ok {
		if in.LabMappings, err = csvio.LoadLabMappings(path); err != nil {
			return nil, err
		}
	}

	return builder.New(cfg, log).Build(in)
}

func optional(dir, name string, log *zap.Logger) (string, bool) {
	path := filepath.Join(dir, name)
	if _, err := os.Stat(path); err != nil {
		log.Info("optional file not present", zap.String("path", path))
		return "", false
	}
	return path, true
}

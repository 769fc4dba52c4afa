// Package config loads the engine configuration: the institutional policy
// tables the builder needs (semesters, sections, batching exemptions, the
// weekly time grid) and the search budget. Values come from defaults, an
// optional YAML file and TIMETABLE_-prefixed environment variables.
package config

import (
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Builder BuilderConfig
	Grid    GridConfig
	Solver  SolverConfig
	Log     LogConfig
}

type BuilderConfig struct {
	// Semesters lists the semester numbers admitted from the roster.
	Semesters []int
	// SemesterYear maps an admitted semester to the cohort year.
	SemesterYear map[int]int

	// SectionCounts is the per-department section (group) count table.
	SectionCounts map[string]int

	// GroupSize is the default cohort strength; ExemptDept uses
	// ExemptDeptSize instead and its labs are never batched.
	GroupSize      int
	ExemptDept     string
	ExemptDeptSize int

	// BatchThreshold is the group size above which lab sessions must be
	// split into B1/B2.
	BatchThreshold int

	// UnbatchedCourses lists course codes exempt from batching.
	UnbatchedCourses []string

	// AlwaysComputerCourses must sit in computer labs even without a
	// declared lab type.
	AlwaysComputerCourses []string

	// PreferredBlock sorts first in the room table; a placement hint for
	// the construction heuristic, never a correctness rule.
	PreferredBlock string

	// DeptWorkdays restricts listed departments to the given weekdays.
	DeptWorkdays map[string][]int

	// RestrictedRooms reserves a room name for a single department.
	RestrictedRooms map[string]string

	MaxTeacherHours     int
	DefaultSessionHours int
}

// SlotTemplate is one daily time window of the weekly grid.
type SlotTemplate struct {
	Start string // "08:00"
	End   string
}

type GridConfig struct {
	// Days are weekday indices (0 = Monday) the calendar spans.
	Days        []int
	TheorySlots []SlotTemplate
	LabSlots    []SlotTemplate
}

type SolverConfig struct {
	TimeLimit             time.Duration
	Workers               int
	RandomSeed            int64
	EarlyTermination      bool
	EarlyTerminationMoves int

	// Annealing schedule.
	TempHigh float64
	TempLow  float64
	Steps    int
}

type LogConfig struct {
	Level  string
	Format string
}

// Default reproduces the institution's deployed policy tables.
func Default() *Config {
	return &Config{
		Builder: BuilderConfig{
			Semesters:    []int{3, 5, 7},
			SemesterYear: map[int]int{3: 2, 5: 3, 7: 4},
			SectionCounts: map[string]int{
				"CSE-CS": 3, "CSE": 13, "CSBS": 2, "CSD": 1, "IT": 5,
				"AIML": 4, "AIDS": 6, "ECE": 8, "EEE": 2, "AERO": 1,
				"AUTO": 1, "MCT": 2, "MECH": 2, "BT": 3, "BME": 2,
				"R&A": 1, "FT": 1, "CIVIL": 1, "CHEM": 1,
			},
			GroupSize:      70,
			ExemptDept:     "AUTO",
			ExemptDeptSize: 35,
			BatchThreshold: 35,
			UnbatchedCourses: []string{
				"CD23321", "CS19P23", "CS19P21",
				"PH23131", "PH23132", "PH23231", "PH23233",
			},
			AlwaysComputerCourses: []string{"CD23321", "CS19P23", "CS19P21"},
			PreferredBlock:        "D Block",
			DeptWorkdays:          map[string][]int{},
			RestrictedRooms: map[string]string{
				"61": "AUTO", "62": "AUTO", "C108": "AUTO",
			},
			MaxTeacherHours:       21,
			DefaultSessionHours:   1,
		},
		Grid: GridConfig{
			Days: []int{0, 1, 2, 3, 4},
			TheorySlots: []SlotTemplate{
				{"08:00", "08:50"}, {"09:00", "09:50"}, {"10:00", "10:50"},
				{"11:00", "11:50"}, {"12:00", "12:50"}, {"13:00", "13:50"},
				{"14:00", "14:50"}, {"15:00", "15:50"}, {"16:00", "16:50"},
				{"17:00", "17:50"}, {"18:00", "18:50"},
			},
			LabSlots: []SlotTemplate{
				{"08:00", "09:40"}, {"09:50", "11:30"}, {"11:50", "13:30"},
				{"13:50", "15:30"}, {"15:50", "17:30"}, {"17:50", "19:30"},
			},
		},
		Solver: SolverConfig{
			TimeLimit:             5 * time.Minute,
			Workers:               4,
			RandomSeed:            1,
			EarlyTermination:      true,
			EarlyTerminationMoves: 20000,
			TempHigh:              200,
			TempLow:               0.5,
			Steps:                 2_000_000,
		},
		Log: LogConfig{Level: "info", Format: "console"},
	}
}

// Load merges defaults, an optional config file and environment overrides.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("TIMETABLE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := Default()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, err
		}
		if err := v.Unmarshal(cfg); err != nil {
			return nil, err
		}
	}

	if limit := v.GetDuration("solver.timelimit"); limit > 0 {
		cfg.Solver.TimeLimit = limit
	}
	if workers := v.GetInt("solver.workers"); workers > 0 {
		cfg.Solver.Workers = workers
	}
	if v.IsSet("solver.seed") {
		cfg.Solver.RandomSeed = v.GetInt64("solver.seed")
	}
	if level := v.GetString("log.level"); level != "" {
		cfg.Log.Level = level
	}

	return cfg, nil
}

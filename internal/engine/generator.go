package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"schoolscheduler/internal/constraint"
	"schoolscheduler/internal/domain"
	"schoolscheduler/internal/sat"
)

// State is the generator's lifecycle phase. It moves monotonically from Idle
// through the working states into exactly one terminal state per run.
type State int32

const (
	Idle State = iota
	BuildingVariables
	EncodingConstraints
	Solving
	Solved
	Infeasible
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case BuildingVariables:
		return "building variables"
	case EncodingConstraints:
		return "encoding constraints"
	case Solving:
		return "solving"
	case Solved:
		return "solved"
	case Infeasible:
		return "infeasible"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

const defaultMaxSeconds = 30

// Options tunes a single Generate run.
type Options struct {
	// MaxSeconds caps the solver's wall-clock budget; zero means the default.
	MaxSeconds int
	// OptimizeGaps requests minimization of teacher gaps. The current solver
	// treats it as a no-op and only logs the request.
	OptimizeGaps bool
	// UseParallel races Workers shuffled solver copies instead of one search.
	UseParallel bool
	Workers     int
	// VerboseLogging dumps the encoded instance at debug level.
	VerboseLogging bool
	// RelaxNonMandatory drops every non-mandatory constraint from the hard
	// encoding; unsatisfied ones are reported as warnings afterwards.
	RelaxNonMandatory bool
	OnProgress        func(Progress)
}

// Generator turns activities, constraints and configuration into weekly
// schedules. One generator can run Generate multiple times; runs must not
// overlap.
type Generator struct {
	config      domain.Configuration
	activities  []domain.Activity
	teachers    []domain.Teacher
	classes     []domain.SchoolClass
	constraints []constraint.Constraint

	log   *zap.Logger
	state atomic.Int32
}

func New(
	config domain.Configuration,
	activities []domain.Activity,
	teachers []domain.Teacher,
	classes []domain.SchoolClass,
	constraints []constraint.Constraint,
	log *zap.Logger,
) (*Generator, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Generator{
		config:      config,
		activities:  append([]domain.Activity{}, activities...),
		teachers:    append([]domain.Teacher{}, teachers...),
		classes:     append([]domain.SchoolClass{}, classes...),
		constraints: append([]constraint.Constraint{}, constraints...),
		log:         log,
	}, nil
}

func (g *Generator) State() State {
	return State(g.state.Load())
}

func (g *Generator) setState(s State) {
	g.state.Store(int32(s))
	g.log.Debug("state changed", zap.Stringer("state", s))
}

// Generate runs the full pipeline: feasibility pre-checks, encoding, solving
// and extraction. Expected failures (infeasible input, exhausted time budget,
// solver breakdown) come back as an invalid schedule with warnings and a nil
// error; cancellation through ctx returns (nil, ctx.Err()).
func (g *Generator) Generate(ctx context.Context, options Options) (*domain.GeneratedSchedule, error) {
	started := time.Now()
	reporter := newProgressReporter(options.OnProgress)

	g.setState(BuildingVariables)
	reporter.report(0, "analyzing input data")

	if report := g.AnalyzeInfeasibility(); report.Fatal() {
		g.log.Warn("input is structurally infeasible", zap.Strings("reasons", report.Summary()))
		g.setState(Infeasible)
		reporter.complete("generation aborted: input cannot be scheduled", true)
		return g.failedSchedule(started, report.Summary()), nil
	}
	if err := g.checkCancelled(ctx, reporter); err != nil {
		return nil, err
	}

	b := newBuilder(g.config, g.activities, g.constraints, options.RelaxNonMandatory, g.log, reporter.report)
	if err := b.buildVariables(); err != nil {
		g.setState(Infeasible)
		reporter.complete("generation aborted: input cannot be scheduled", true)
		return g.failedSchedule(started, []string{err.Error()}), nil
	}
	reporter.report(20, "start variables built")

	g.setState(EncodingConstraints)
	instance, err := b.encode()
	if err != nil {
		g.setState(Failed)
		reporter.complete("generation failed while encoding constraints", true)
		return g.failedSchedule(started, append(b.warnings, err.Error())), nil
	}
	if options.VerboseLogging {
		g.log.Debug("encoded instance", zap.String("opb", instance.ToOPB()))
	}
	if options.OptimizeGaps {
		g.log.Info("gap optimization requested; solving for feasibility only")
	}
	reporter.report(70, "model encoding complete")

	if err := g.checkCancelled(ctx, reporter); err != nil {
		return nil, err
	}

	g.setState(Solving)
	reporter.report(80, "searching for a feasible assignment")

	budget := options.MaxSeconds
	if budget <= 0 {
		budget = defaultMaxSeconds
	}
	solveCtx, cancel := context.WithTimeout(ctx, time.Duration(budget)*time.Second)
	defer cancel()

	solution, err := g.solverFor(options).Solve(solveCtx, instance)
	switch {
	case err == sat.ErrInterrupted && ctx.Err() != nil:
		g.setState(Cancelled)
		reporter.complete("generation cancelled", false)
		return nil, ctx.Err()
	case err == sat.ErrInterrupted:
		g.log.Warn("time budget exhausted", zap.Int("seconds", budget))
		g.setState(Failed)
		reporter.complete("generation stopped: time budget exhausted", true)
		return g.failedSchedule(started, append(b.warnings,
			fmt.Sprintf("time limit of %v seconds exceeded before a feasible assignment was found", budget))), nil
	case err != nil:
		g.log.Error("solver failed", zap.Error(err))
		g.setState(Failed)
		reporter.complete("generation failed inside the solver", true)
		return g.failedSchedule(started, append(b.warnings, fmt.Sprintf("solver failure: %v", err))), nil
	case solution == nil:
		g.setState(Infeasible)
		reporter.complete("no schedule satisfies all hard constraints", true)
		warnings := append(b.warnings, "no assignment satisfies all hard constraints")
		warnings = append(warnings, g.AnalyzeInfeasibility().Summary()...)
		return g.failedSchedule(started, warnings), nil
	}

	reporter.report(90, "assignment found, extracting schedule")
	schedule := g.extract(solution, b.indexer)
	schedule.GeneratedAt = time.Now()
	schedule.GenerationTime = time.Since(started)
	schedule.IsValid = true
	schedule.Warnings = append(schedule.Warnings, b.warnings...)
	schedule.Warnings = append(schedule.Warnings, g.auditRelaxed(b.relaxed, schedule)...)
	schedule.Statistics = domain.ComputeStatistics(schedule, g.teachers)

	g.setState(Solved)
	g.log.Info("schedule generated",
		zap.Int("slots", len(schedule.Slots)),
		zap.Duration("elapsed", schedule.GenerationTime))
	reporter.complete("schedule generated", false)
	return schedule, nil
}

func (g *Generator) solverFor(options Options) sat.Solver {
	if options.UseParallel && options.Workers > 1 {
		return sat.NewPortfolioSolver(options.Workers)
	}
	return sat.NewGophersatSolver()
}

func (g *Generator) checkCancelled(ctx context.Context, reporter *progressReporter) error {
	if err := ctx.Err(); err != nil {
		g.setState(Cancelled)
		reporter.complete("generation cancelled", false)
		return err
	}
	return nil
}

func (g *Generator) failedSchedule(started time.Time, warnings []string) *domain.GeneratedSchedule {
	return &domain.GeneratedSchedule{
		GeneratedAt:    time.Now(),
		GenerationTime: time.Since(started),
		IsValid:        false,
		Warnings:       warnings,
	}
}

// auditRelaxed checks each constraint that was dropped from the hard encoding
// against the produced schedule and reports the ones the solution does not
// honor.
func (g *Generator) auditRelaxed(relaxed []constraint.Constraint, schedule *domain.GeneratedSchedule) []string {
	if len(relaxed) == 0 {
		return nil
	}

	ctx := constraint.Context{Slots: schedule.Slots, Config: g.config}
	var warnings []string
	for _, c := range constraint.Violated(relaxed, ctx) {
		warnings = append(warnings, fmt.Sprintf("unsatisfied %v-priority goal: %v", c.Info().Priority, c.Describe()))
	}
	return warnings
}

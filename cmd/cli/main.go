package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"schoolscheduler/internal/domain"
	"schoolscheduler/internal/engine"
)

func main() {
	// Define arguments
	filePathPtr := flag.String("file", "", "Path to the input file")
	outFilePathPtr := flag.String("out", "", "Path to the file where the schedule will be written as JSON; if empty, only the text rendering goes to the Standard Output")
	secondsPtr := flag.Int("seconds", 30, "Wall-clock budget for the solver, in seconds")
	parallelPtr := flag.Bool("parallel", false, "Race several solver copies with shuffled constraint orders")
	workersPtr := flag.Int("workers", 4, "Number of solver copies raced when -parallel is set")
	verbosePtr := flag.Bool("verbose", false, "Enable debug logging")
	relaxPtr := flag.Bool("relax", false, "Drop non-mandatory constraints and report the unsatisfied ones instead of failing")
	flag.Parse()

	filePath := *filePathPtr
	outFile := *outFilePathPtr

	// Validate arguments
	if filePath == "" {
		log.Fatal("an input file must be specified")
	} else if *secondsPtr <= 0 {
		log.Fatalf("the time budget must be positive: %v", *secondsPtr)
	} else if *parallelPtr && *workersPtr < 2 {
		log.Fatalf("at least 2 workers are needed to run in parallel: %v", *workersPtr)
	}

	logger := buildLogger(*verbosePtr)
	defer logger.Sync()

	// Extract input
	input, err := engine.InputFromJSON(filePath)
	if err != nil {
		log.Fatalf("cannot parse input file: %v", err)
	}

	generator, err := engine.New(input.Configuration, input.Activities, input.Teachers, input.Classes, input.Constraints, logger)
	if err != nil {
		log.Fatalf("cannot initialize the engine: %v", err)
	}

	for _, issue := range generator.DataConsistency().Issues() {
		fmt.Fprintf(os.Stderr, "warning: %v\n", issue)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Build schedule
	schedule, err := generator.Generate(ctx, engine.Options{
		MaxSeconds:        *secondsPtr,
		UseParallel:       *parallelPtr,
		Workers:           *workersPtr,
		VerboseLogging:    *verbosePtr,
		RelaxNonMandatory: *relaxPtr,
		OnProgress: func(p engine.Progress) {
			fmt.Fprintf(os.Stderr, "[%3d%%] %v\n", p.Percentage, p.Message)
		},
	})
	if err != nil {
		log.Fatalf("generation did not finish: %v", err)
	}

	for _, warning := range schedule.Warnings {
		fmt.Fprintf(os.Stderr, "warning: %v\n", warning)
	}
	if !schedule.IsValid {
		os.Exit(20)
	}

	printSchedule(schedule, input)
	fmt.Printf("\nGenerated in %v, %v slots, %v teacher gaps, score %.1f\n",
		schedule.GenerationTime.Round(time.Millisecond),
		schedule.Statistics.TotalSlots,
		schedule.Statistics.TotalTeacherGaps,
		schedule.Statistics.OptimizationScore)

	if outFile != "" {
		writeSchedule(schedule, outFile)
	}
}

func buildLogger(verbose bool) *zap.Logger {
	config := zap.NewProductionConfig()
	if verbose {
		config = zap.NewDevelopmentConfig()
	}
	logger, err := config.Build()
	if err != nil {
		log.Fatalf("cannot initialize logging: %v", err)
	}
	return logger
}

func printSchedule(schedule *domain.GeneratedSchedule, input engine.Input) {
	days := input.Configuration.ActiveDays()

	for _, class := range input.Classes {
		fmt.Printf("\n%v\n%v\n", class.Name, strings.Repeat("=", len(class.Name)))

		matrix := schedule.ClassMatrix(class.Name, input.Configuration)
		for hour, row := range matrix {
			cells := make([]string, len(days))
			for day := range days {
				cells[day] = "-"
				if slot := row[day]; slot != nil {
					cells[day] = fmt.Sprintf("%v (%v)", slot.Subject, slot.TeacherName)
				}
			}
			fmt.Printf("h%v  %v\n", hour+1, strings.Join(cells, " | "))
		}
	}
}

func writeSchedule(schedule *domain.GeneratedSchedule, outFile string) {
	bytes, err := json.MarshalIndent(schedule, "", "  ")
	if err != nil {
		log.Fatalf("cannot serialize the schedule: %v", err)
	}
	if err := os.WriteFile(outFile, bytes, 0644); err != nil {
		log.Fatalf("cannot write the output file: %v", err)
	}
}

package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"

	"schoolscheduler/internal/constraint"
	"schoolscheduler/internal/domain"
)

// Input is the fully decoded problem description: grid configuration,
// activity list and constraint catalog. Teachers and classes are derived from
// the activities unless the file declares them explicitly.
type Input struct {
	Configuration domain.Configuration
	Activities    []domain.Activity
	Teachers      []domain.Teacher
	Classes       []domain.SchoolClass
	Constraints   []constraint.Constraint
}

type rawInput struct {
	Configuration map[string]any   `mapstructure:"configuration"`
	Activities    []map[string]any `mapstructure:"activities"`
	Teachers      []map[string]any `mapstructure:"teachers"`
	Classes       []map[string]any `mapstructure:"classes"`
	Constraints   []map[string]any `mapstructure:"constraints"`
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

var priorityNames = map[string]constraint.Priority{
	"wish":      constraint.Wish,
	"low":       constraint.Low,
	"medium":    constraint.Medium,
	"high":      constraint.High,
	"mandatory": constraint.Mandatory,
}

// decodeHook turns JSON strings into time.Weekday and constraint.Priority
// values so input files can say "friday" and "high" instead of raw numbers.
func decodeHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}

	name := strings.ToLower(data.(string))
	switch to {
	case reflect.TypeOf(time.Weekday(0)):
		day, ok := weekdayNames[name]
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", data)
		}
		return day, nil
	case reflect.TypeOf(constraint.Priority(0)):
		priority, ok := priorityNames[name]
		if !ok {
			return nil, fmt.Errorf("unknown priority %q", data)
		}
		return priority, nil
	}
	return data, nil
}

func decode(raw any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: decodeHook,
		Result:     target,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(raw)
}

// InputFromJSON reads and decodes a problem file. Missing configuration
// fields fall back to the defaults; teachers and classes missing from the
// file are derived from the activity list.
func InputFromJSON(file string) (Input, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return Input{}, err
	}

	var document map[string]any
	if err := json.Unmarshal(bytes, &document); err != nil {
		return Input{}, fmt.Errorf("cannot parse input file: %w", err)
	}

	var raw rawInput
	if err := decode(document, &raw); err != nil {
		return Input{}, fmt.Errorf("malformed input file: %w", err)
	}

	input := Input{Configuration: domain.DefaultConfiguration()}
	if raw.Configuration != nil {
		if err := decode(raw.Configuration, &input.Configuration); err != nil {
			return Input{}, fmt.Errorf("malformed configuration: %w", err)
		}
	}

	for i, entry := range raw.Activities {
		var activity domain.Activity
		if err := decode(entry, &activity); err != nil {
			return Input{}, fmt.Errorf("malformed activity at position %v: %w", i, err)
		}
		if activity.ID == 0 {
			activity.ID = i
		}
		input.Activities = append(input.Activities, activity)
	}

	for i, entry := range raw.Teachers {
		var teacher domain.Teacher
		if err := decode(entry, &teacher); err != nil {
			return Input{}, fmt.Errorf("malformed teacher at position %v: %w", i, err)
		}
		input.Teachers = append(input.Teachers, teacher)
	}
	if len(input.Teachers) == 0 {
		input.Teachers = domain.DeriveTeachers(input.Activities)
	}

	for i, entry := range raw.Classes {
		var class domain.SchoolClass
		if err := decode(entry, &class); err != nil {
			return Input{}, fmt.Errorf("malformed class at position %v: %w", i, err)
		}
		input.Classes = append(input.Classes, class)
	}
	if len(input.Classes) == 0 {
		input.Classes = domain.DeriveClasses(input.Activities)
	}

	for i, entry := range raw.Constraints {
		c, err := decodeConstraint(entry)
		if err != nil {
			return Input{}, fmt.Errorf("malformed constraint at position %v: %w", i, err)
		}
		input.Constraints = append(input.Constraints, c)
	}

	return input, nil
}

// decodeConstraint dispatches on the "kind" discriminator to the concrete
// constraint type.
func decodeConstraint(entry map[string]any) (constraint.Constraint, error) {
	kind, _ := entry["kind"].(string)

	switch kind {
	case "teacherUnavailable":
		var c constraint.TeacherUnavailable
		return c, decode(entry, &c)
	case "teacherMaxDailyHours":
		var c constraint.TeacherMaxDailyHours
		return c, decode(entry, &c)
	case "teacherMaxWeeklyGaps":
		var c constraint.TeacherMaxWeeklyGaps
		return c, decode(entry, &c)
	case "teacherDayOff":
		var c constraint.TeacherDayOff
		return c, decode(entry, &c)
	case "classExactDailyHours":
		var c constraint.ClassExactDailyHours
		return c, decode(entry, &c)
	case "classWeeklyDistribution":
		// map keys are not run through decode hooks, so day names are
		// converted by hand
		var raw struct {
			constraint.Meta `mapstructure:",squash"`
			Class           string         `mapstructure:"class"`
			DailyHours      map[string]int `mapstructure:"dailyHours"`
		}
		if err := decode(entry, &raw); err != nil {
			return nil, err
		}
		c := constraint.ClassWeeklyDistribution{
			Meta:       raw.Meta,
			Class:      raw.Class,
			DailyHours: make(map[time.Weekday]int, len(raw.DailyHours)),
		}
		for name, hours := range raw.DailyHours {
			day, ok := weekdayNames[strings.ToLower(name)]
			if !ok {
				return nil, fmt.Errorf("unknown weekday %q", name)
			}
			c.DailyHours[day] = hours
		}
		return c, nil
	case "classStartHour":
		var c constraint.ClassStartHour
		return c, decode(entry, &c)
	default:
		return nil, fmt.Errorf("unknown constraint kind %q", kind)
	}
}

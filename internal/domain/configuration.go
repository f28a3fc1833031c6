package domain

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// ClassConfiguration overrides the global grid bounds for a single class. Nil
// fields fall back to the global configuration.
type ClassConfiguration struct {
	StartHour     *int `mapstructure:"startHour"`
	MinDailyHours *int `mapstructure:"minDailyHours"`
	MaxDailyHours *int `mapstructure:"maxDailyHours"`
}

// TeacherConfiguration overrides the daily-load band for a single teacher. A
// zero MinDailyHours disables the floor entirely; carve-outs for specific
// people are expressed here, never in code.
type TeacherConfiguration struct {
	MinDailyHours *int `mapstructure:"minDailyHours"`
	MaxDailyHours *int `mapstructure:"maxDailyHours"`
}

// Configuration defines the weekly grid (days x hours) plus daily load bounds.
// DefaultStartTime and LessonDurationMinutes are presentation-only and never
// influence scheduling.
type Configuration struct {
	SchoolDays            int          `mapstructure:"schoolDays" validate:"oneof=5 6"`
	ExcludedDay           time.Weekday `mapstructure:"excludedDay"`
	DefaultStartTime      string       `mapstructure:"defaultStartTime"`
	LessonDurationMinutes int          `mapstructure:"lessonDurationMinutes" validate:"min=1"`
	MinDailyHours         int          `mapstructure:"minDailyHours" validate:"min=0"`
	MaxDailyHours         int          `mapstructure:"maxDailyHours" validate:"min=1"`
	TeacherMinDailyHours  int          `mapstructure:"teacherMinDailyHours" validate:"min=0"`
	TeacherMaxDailyHours  int          `mapstructure:"teacherMaxDailyHours" validate:"min=1"`

	ClassOverrides   map[string]ClassConfiguration   `mapstructure:"classOverrides"`
	TeacherOverrides map[string]TeacherConfiguration `mapstructure:"teacherOverrides"`
}

func DefaultConfiguration() Configuration {
	return Configuration{
		SchoolDays:            5,
		ExcludedDay:           time.Saturday,
		DefaultStartTime:      "08:00",
		LessonDurationMinutes: 60,
		MinDailyHours:         4,
		MaxDailyHours:         6,
		TeacherMinDailyHours:  2,
		TeacherMaxDailyHours:  5,
	}
}

var validate = validator.New()

// Validate checks the structural invariants. A broken configuration is a
// programming error on the caller's side and aborts generation.
func (c Configuration) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.MinDailyHours > c.MaxDailyHours {
		return fmt.Errorf("invalid configuration: minDailyHours %v exceeds maxDailyHours %v", c.MinDailyHours, c.MaxDailyHours)
	}
	if c.TeacherMinDailyHours > c.TeacherMaxDailyHours {
		return fmt.Errorf("invalid configuration: teacherMinDailyHours %v exceeds teacherMaxDailyHours %v", c.TeacherMinDailyHours, c.TeacherMaxDailyHours)
	}
	if c.SchoolDays == 5 && (c.ExcludedDay < time.Monday || c.ExcludedDay > time.Saturday) {
		return fmt.Errorf("invalid configuration: excludedDay %v is not a school day", c.ExcludedDay)
	}
	return nil
}

// ActiveDays yields the ordered schooldays; its positions are the canonical
// day indices 0..D-1 used everywhere in the engine.
func (c Configuration) ActiveDays() []time.Weekday {
	all := []time.Weekday{
		time.Monday, time.Tuesday, time.Wednesday,
		time.Thursday, time.Friday, time.Saturday,
	}

	days := make([]time.Weekday, 0, len(all))
	for _, day := range all {
		if c.SchoolDays == 6 || day != c.ExcludedDay {
			days = append(days, day)
		}
	}
	return days
}

// DayIndex returns the canonical index of a weekday, or -1 if it is not an
// active school day.
func (c Configuration) DayIndex(day time.Weekday) int {
	for i, active := range c.ActiveDays() {
		if active == day {
			return i
		}
	}
	return -1
}

// ClassBounds resolves the daily min/max lesson-hours for a class, honoring
// per-class overrides.
func (c Configuration) ClassBounds(className string) (min, max int) {
	min, max = c.MinDailyHours, c.MaxDailyHours
	if override, ok := c.ClassOverrides[className]; ok {
		if override.MinDailyHours != nil {
			min = *override.MinDailyHours
		}
		if override.MaxDailyHours != nil {
			max = *override.MaxDailyHours
		}
	}
	return min, max
}

// ClassStartHour resolves the mandatory entry hour for a class (default 1).
func (c Configuration) ClassStartHour(className string) int {
	if override, ok := c.ClassOverrides[className]; ok && override.StartHour != nil {
		return *override.StartHour
	}
	return 1
}

// TeacherBounds resolves the daily min/max teaching-hours for a teacher,
// honoring per-teacher overrides. A resolved min of 0 disables the floor.
func (c Configuration) TeacherBounds(teacherFullName string) (min, max int) {
	min, max = c.TeacherMinDailyHours, c.TeacherMaxDailyHours
	if override, ok := c.TeacherOverrides[teacherFullName]; ok {
		if override.MinDailyHours != nil {
			min = *override.MinDailyHours
		}
		if override.MaxDailyHours != nil {
			max = *override.MaxDailyHours
		}
	}
	return min, max
}

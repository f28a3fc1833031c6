package constraint

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"schoolscheduler/internal/domain"
)

// Priority orders user constraints from mere wishes up to inviolable rules.
type Priority int

const (
	Wish Priority = iota
	Low
	Medium
	High
	Mandatory
)

func (p Priority) String() string {
	switch p {
	case Mandatory:
		return "mandatory"
	case High:
		return "high"
	case Medium:
		return "medium"
	case Low:
		return "low"
	default:
		return "wish"
	}
}

// Meta carries the fields shared by every constraint variant. The zero value
// is an active Wish-priority constraint.
type Meta struct {
	Priority Priority
	Disabled bool
}

// Info returns the shared metadata. The name sidesteps the embedded field:
// a method called Meta would be shadowed by the field of the same name, so
// variants would never satisfy the interface.
func (m Meta) Info() Meta { return m }

func (m Meta) Active() bool { return !m.Disabled }

// Context is the candidate schedule a constraint is validated against.
// Validation is pure: it re-derives the relevant slot subset and re-checks the
// rule independently of how the model builder encoded it, so the same list can
// both constrain generation and audit hand-edited schedules.
type Context struct {
	Slots  []domain.ScheduleSlot
	Config domain.Configuration
}

func (ctx Context) teacherSlots(teacher string) []domain.ScheduleSlot {
	return lo.Filter(ctx.Slots, func(slot domain.ScheduleSlot, _ int) bool {
		return slot.TeacherName == teacher
	})
}

func (ctx Context) classSlots(class string) []domain.ScheduleSlot {
	return lo.Filter(ctx.Slots, func(slot domain.ScheduleSlot, _ int) bool {
		return slot.ClassName == class
	})
}

// Constraint is the closed set of user-declared scheduling rules. Each variant
// carries its own typed fields; the model builder dispatches on the concrete
// type to encode it, and Validate re-checks the same rule declaratively.
type Constraint interface {
	Info() Meta
	Validate(ctx Context) bool
	Describe() string

	sealed()
}

// TimeSlot names one (day, hour) cell of the grid.
type TimeSlot struct {
	Day  time.Weekday `mapstructure:"day"`
	Hour int          `mapstructure:"hour"`
}

func (s TimeSlot) String() string { return fmt.Sprintf("%v hour %v", s.Day, s.Hour) }

// TeacherUnavailable forbids any of the teacher's lessons on the listed slots.
type TeacherUnavailable struct {
	Meta    `mapstructure:",squash"`
	Teacher string     `mapstructure:"teacher"`
	Slots   []TimeSlot `mapstructure:"slots"`
}

func (c TeacherUnavailable) sealed() {}

func (c TeacherUnavailable) Validate(ctx Context) bool {
	return !lo.SomeBy(ctx.teacherSlots(c.Teacher), func(slot domain.ScheduleSlot) bool {
		return lo.SomeBy(c.Slots, func(unavailable TimeSlot) bool {
			return unavailable.Day == slot.Day && unavailable.Hour == slot.Hour
		})
	})
}

func (c TeacherUnavailable) Describe() string {
	descriptions := lo.Map(c.Slots, func(slot TimeSlot, _ int) string { return slot.String() })
	return fmt.Sprintf("%v unavailable on: %v", c.Teacher, strings.Join(descriptions, ", "))
}

// TeacherMaxDailyHours caps the teacher's lesson count on every active day.
type TeacherMaxDailyHours struct {
	Meta     `mapstructure:",squash"`
	Teacher  string `mapstructure:"teacher"`
	MaxHours int    `mapstructure:"maxHours"`
}

func (c TeacherMaxDailyHours) sealed() {}

func (c TeacherMaxDailyHours) Validate(ctx Context) bool {
	byDay := lo.GroupBy(ctx.teacherSlots(c.Teacher), func(slot domain.ScheduleSlot) time.Weekday {
		return slot.Day
	})
	for _, daySlots := range byDay {
		if len(daySlots) > c.MaxHours {
			return false
		}
	}
	return true
}

func (c TeacherMaxDailyHours) Describe() string {
	return fmt.Sprintf("%v: at most %v hours per day", c.Teacher, c.MaxHours)
}

// TeacherMaxWeeklyGaps bounds the teacher's idle hours between lessons,
// summed over the days the teacher works.
type TeacherMaxWeeklyGaps struct {
	Meta    `mapstructure:",squash"`
	Teacher string `mapstructure:"teacher"`
	MaxGaps int    `mapstructure:"maxGaps"`
}

func (c TeacherMaxWeeklyGaps) sealed() {}

func (c TeacherMaxWeeklyGaps) Validate(ctx Context) bool {
	return domain.WeeklyGaps(ctx.teacherSlots(c.Teacher)) <= c.MaxGaps
}

func (c TeacherMaxWeeklyGaps) Describe() string {
	return fmt.Sprintf("%v: at most %v idle hours per week", c.Teacher, c.MaxGaps)
}

// TeacherDayOff keeps the named day completely free for the teacher.
type TeacherDayOff struct {
	Meta    `mapstructure:",squash"`
	Teacher string       `mapstructure:"teacher"`
	Day     time.Weekday `mapstructure:"day"`
}

func (c TeacherDayOff) sealed() {}

func (c TeacherDayOff) Validate(ctx Context) bool {
	return !lo.SomeBy(ctx.teacherSlots(c.Teacher), func(slot domain.ScheduleSlot) bool {
		return slot.Day == c.Day
	})
}

func (c TeacherDayOff) Describe() string {
	return fmt.Sprintf("%v: day off on %v", c.Teacher, c.Day)
}

// ClassExactDailyHours pins the class's lesson count on one day.
type ClassExactDailyHours struct {
	Meta  `mapstructure:",squash"`
	Class string       `mapstructure:"class"`
	Day   time.Weekday `mapstructure:"day"`
	Hours int          `mapstructure:"hours"`
}

func (c ClassExactDailyHours) sealed() {}

func (c ClassExactDailyHours) Validate(ctx Context) bool {
	count := lo.CountBy(ctx.classSlots(c.Class), func(slot domain.ScheduleSlot) bool {
		return slot.Day == c.Day
	})
	return count == c.Hours
}

func (c ClassExactDailyHours) Describe() string {
	return fmt.Sprintf("class %v: exactly %v hours on %v", c.Class, c.Hours, c.Day)
}

// ClassWeeklyDistribution pins the class's lesson count for every listed day.
type ClassWeeklyDistribution struct {
	Meta       `mapstructure:",squash"`
	Class      string               `mapstructure:"class"`
	DailyHours map[time.Weekday]int `mapstructure:"dailyHours"`
}

func (c ClassWeeklyDistribution) sealed() {}

func (c ClassWeeklyDistribution) Validate(ctx Context) bool {
	slots := ctx.classSlots(c.Class)
	for day, hours := range c.DailyHours {
		count := lo.CountBy(slots, func(slot domain.ScheduleSlot) bool { return slot.Day == day })
		if count != hours {
			return false
		}
	}
	return true
}

func (c ClassWeeklyDistribution) Describe() string {
	parts := make([]string, 0, len(c.DailyHours))
	for _, day := range []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday} {
		if hours, ok := c.DailyHours[day]; ok {
			parts = append(parts, fmt.Sprintf("%v=%vh", day, hours))
		}
	}
	return fmt.Sprintf("class %v: %v", c.Class, strings.Join(parts, ", "))
}

// ClassStartHour demands that whenever the class works a day, its first lesson
// is at the designated hour. A nil Day applies the rule to every active day.
type ClassStartHour struct {
	Meta      `mapstructure:",squash"`
	Class     string        `mapstructure:"class"`
	StartHour int           `mapstructure:"startHour"`
	Day       *time.Weekday `mapstructure:"day"`
}

func (c ClassStartHour) sealed() {}

func (c ClassStartHour) Validate(ctx Context) bool {
	days := ctx.Config.ActiveDays()
	if c.Day != nil {
		days = []time.Weekday{*c.Day}
	}

	slots := ctx.classSlots(c.Class)
	for _, day := range days {
		daySlots := lo.Filter(slots, func(slot domain.ScheduleSlot, _ int) bool { return slot.Day == day })
		if len(daySlots) == 0 {
			continue
		}
		first := lo.MinBy(daySlots, func(a, b domain.ScheduleSlot) bool { return a.Hour < b.Hour })
		if first.Hour != c.StartHour {
			return false
		}
	}
	return true
}

func (c ClassStartHour) Describe() string {
	if c.Day != nil {
		return fmt.Sprintf("class %v: starts at hour %v on %v", c.Class, c.StartHour, *c.Day)
	}
	return fmt.Sprintf("class %v: starts at hour %v every day", c.Class, c.StartHour)
}

// Violated returns the active constraints the candidate schedule breaks, in
// declaration order.
func Violated(constraints []Constraint, ctx Context) []Constraint {
	return lo.Filter(constraints, func(c Constraint, _ int) bool {
		return c.Info().Active() && !c.Validate(ctx)
	})
}

package domain

import (
	"sort"
	"time"

	"github.com/samber/lo"
)

// ScheduleSlot is one occupied cell of the weekly grid. Slots are produced by
// the solution extractor and never mutated.
type ScheduleSlot struct {
	Day               time.Weekday
	Hour              int // 1-based
	ClassName         string
	TeacherName       string
	Subject           string
	ArticulationGroup string
}

// GeneratedSchedule is the engine's output: the slot set plus validity,
// timing, warnings and statistics. It is populated once and returned; callers
// must treat it as read-only.
type GeneratedSchedule struct {
	Slots          []ScheduleSlot
	GeneratedAt    time.Time
	GenerationTime time.Duration
	Statistics     ScheduleStatistics
	IsValid        bool
	Warnings       []string
}

func sortSlots(slots []ScheduleSlot) []ScheduleSlot {
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].Day != slots[j].Day {
			return slots[i].Day < slots[j].Day
		}
		return slots[i].Hour < slots[j].Hour
	})
	return slots
}

// ClassSchedule returns the class's slots ordered by day then hour.
func (s *GeneratedSchedule) ClassSchedule(className string) []ScheduleSlot {
	return sortSlots(lo.Filter(s.Slots, func(slot ScheduleSlot, _ int) bool {
		return slot.ClassName == className
	}))
}

// TeacherSchedule returns the teacher's slots ordered by day then hour.
func (s *GeneratedSchedule) TeacherSchedule(teacherName string) []ScheduleSlot {
	return sortSlots(lo.Filter(s.Slots, func(slot ScheduleSlot, _ int) bool {
		return slot.TeacherName == teacherName
	}))
}

// ClassMatrix lays a class's slots out as an hour x day grid for display.
// Articulated slots sharing a cell keep the last one written; presentation
// layers needing all of them should read ClassSchedule instead.
func (s *GeneratedSchedule) ClassMatrix(className string, config Configuration) [][]*ScheduleSlot {
	days := config.ActiveDays()

	matrix := make([][]*ScheduleSlot, config.MaxDailyHours)
	for i := range matrix {
		matrix[i] = make([]*ScheduleSlot, len(days))
	}

	for _, slot := range s.ClassSchedule(className) {
		dayIndex := config.DayIndex(slot.Day)
		if dayIndex >= 0 && slot.Hour >= 1 && slot.Hour <= config.MaxDailyHours {
			cell := slot
			matrix[slot.Hour-1][dayIndex] = &cell
		}
	}
	return matrix
}

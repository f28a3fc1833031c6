package domain

import (
	"sort"
	"time"

	"github.com/samber/lo"
)

// ScheduleStatistics is a derived-only aggregate computed once from a finished
// schedule; recomputing it on the same input yields identical numbers.
type ScheduleStatistics struct {
	TotalSlots        int
	TotalTeacherGaps  int
	TeacherGaps       map[string]int
	TeacherDailyMax   map[string]int
	OptimizationScore float64
}

// GapsInDay counts the idle hours strictly between the first and last occupied
// hour of one day. This is the canonical gap formula; the constraint
// validators and the statistics fold both call it so the two can never
// disagree.
func GapsInDay(hours []int) int {
	if len(hours) <= 1 {
		return 0
	}

	sorted := make([]int, len(hours))
	copy(sorted, hours)
	sort.Ints(sorted)

	gaps := 0
	for i := 1; i < len(sorted); i++ {
		gaps += sorted[i] - sorted[i-1] - 1
	}
	return gaps
}

// WeeklyGaps sums GapsInDay over the days covered by the given slots.
func WeeklyGaps(slots []ScheduleSlot) int {
	byDay := lo.GroupBy(slots, func(slot ScheduleSlot) time.Weekday { return slot.Day })

	total := 0
	for _, daySlots := range byDay {
		total += GapsInDay(lo.Map(daySlots, func(slot ScheduleSlot, _ int) int { return slot.Hour }))
	}
	return total
}

// ComputeStatistics folds a finished schedule into per-teacher gap counts,
// daily maxima and the 0-100 optimization score. Pure function of its input.
func ComputeStatistics(schedule *GeneratedSchedule, teachers []Teacher) ScheduleStatistics {
	stats := ScheduleStatistics{
		TotalSlots:      len(schedule.Slots),
		TeacherGaps:     make(map[string]int, len(teachers)),
		TeacherDailyMax: make(map[string]int, len(teachers)),
	}

	for _, teacher := range teachers {
		slots := schedule.TeacherSchedule(teacher.FullName())

		gaps := WeeklyGaps(slots)
		stats.TeacherGaps[teacher.FullName()] = gaps
		stats.TotalTeacherGaps += gaps

		byDay := lo.GroupBy(slots, func(slot ScheduleSlot) time.Weekday { return slot.Day })
		maxDaily := 0
		for _, daySlots := range byDay {
			if len(daySlots) > maxDaily {
				maxDaily = len(daySlots)
			}
		}
		stats.TeacherDailyMax[teacher.FullName()] = maxDaily
	}

	if len(teachers) > 0 {
		averageGaps := float64(stats.TotalTeacherGaps) / float64(len(teachers))
		stats.OptimizationScore = max(0, 100-averageGaps*10)
	}

	return stats
}

package engine

import (
	"sort"

	"schoolscheduler/internal/domain"
	"schoolscheduler/internal/sat"
)

// extract reads the true start variables out of a solution and unfolds each
// multi-hour block into consecutive slots.
func (g *Generator) extract(solution sat.Solution, indexer *Indexer) *domain.GeneratedSchedule {
	days := g.config.ActiveDays()

	var slots []domain.ScheduleSlot
	for index := 1; index <= indexer.Variables(); index++ {
		if !solution[index] {
			continue
		}

		activityIndex, day, startHour := indexer.Attributes(index)
		activity := g.activities[activityIndex]
		for offset := 0; offset < activity.WeeklyHours; offset++ {
			slots = append(slots, domain.ScheduleSlot{
				Day:               days[day],
				Hour:              startHour + offset,
				ClassName:         activity.ClassName,
				TeacherName:       activity.TeacherFullName,
				Subject:           activity.Subject,
				ArticulationGroup: activity.ArticulationGroup,
			})
		}
	}

	sort.Slice(slots, func(i, j int) bool {
		if slots[i].ClassName != slots[j].ClassName {
			return slots[i].ClassName < slots[j].ClassName
		}
		if slots[i].Day != slots[j].Day {
			return slots[i].Day < slots[j].Day
		}
		return slots[i].Hour < slots[j].Hour
	})

	return &domain.GeneratedSchedule{Slots: slots}
}

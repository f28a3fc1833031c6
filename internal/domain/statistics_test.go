package domain

import (
	"testing"
	"time"

	. "github.com/onsi/gomega"
)

func TestGapsInDay(t *testing.T) {
	g := NewWithT(t)

	g.Expect(GapsInDay(nil)).To(Equal(0))
	g.Expect(GapsInDay([]int{3})).To(Equal(0))
	g.Expect(GapsInDay([]int{1, 2, 3})).To(Equal(0))
	g.Expect(GapsInDay([]int{1, 3})).To(Equal(1))
	g.Expect(GapsInDay([]int{1, 4, 6})).To(Equal(3))
	g.Expect(GapsInDay([]int{6, 1, 4})).To(Equal(3), "order must not matter")
}

func TestWeeklyGaps(t *testing.T) {
	g := NewWithT(t)

	slots := []ScheduleSlot{
		{Day: time.Monday, Hour: 1},
		{Day: time.Monday, Hour: 3},
		{Day: time.Tuesday, Hour: 2},
		{Day: time.Wednesday, Hour: 1},
		{Day: time.Wednesday, Hour: 5},
	}

	g.Expect(WeeklyGaps(slots)).To(Equal(1 + 0 + 3))
	g.Expect(WeeklyGaps(nil)).To(Equal(0))
}

func TestComputeStatistics(t *testing.T) {
	g := NewWithT(t)

	schedule := &GeneratedSchedule{Slots: []ScheduleSlot{
		{Day: time.Monday, Hour: 1, TeacherName: "Rossi Anna", ClassName: "1A"},
		{Day: time.Monday, Hour: 2, TeacherName: "Rossi Anna", ClassName: "1A"},
		{Day: time.Monday, Hour: 4, TeacherName: "Rossi Anna", ClassName: "1B"},
		{Day: time.Tuesday, Hour: 1, TeacherName: "Bianchi Marco", ClassName: "1A"},
	}}
	teachers := []Teacher{
		{Surname: "Rossi", Name: "Anna"},
		{Surname: "Bianchi", Name: "Marco"},
	}

	stats := ComputeStatistics(schedule, teachers)

	g.Expect(stats.TotalSlots).To(Equal(4))
	g.Expect(stats.TeacherGaps).To(HaveKeyWithValue("Rossi Anna", 1))
	g.Expect(stats.TeacherGaps).To(HaveKeyWithValue("Bianchi Marco", 0))
	g.Expect(stats.TotalTeacherGaps).To(Equal(1))
	g.Expect(stats.TeacherDailyMax).To(HaveKeyWithValue("Rossi Anna", 3))
	g.Expect(stats.TeacherDailyMax).To(HaveKeyWithValue("Bianchi Marco", 1))
	g.Expect(stats.OptimizationScore).To(BeNumerically("==", 95))
}

func TestComputeStatisticsScoreFloor(t *testing.T) {
	g := NewWithT(t)

	// a pathologically gappy week cannot push the score below zero
	slots := []ScheduleSlot{}
	for day := time.Monday; day <= time.Friday; day++ {
		slots = append(slots,
			ScheduleSlot{Day: day, Hour: 1, TeacherName: "Rossi Anna"},
			ScheduleSlot{Day: day, Hour: 6, TeacherName: "Rossi Anna"},
		)
	}
	stats := ComputeStatistics(&GeneratedSchedule{Slots: slots}, []Teacher{{Surname: "Rossi", Name: "Anna"}})

	g.Expect(stats.TotalTeacherGaps).To(Equal(20))
	g.Expect(stats.OptimizationScore).To(Equal(0.0))
}

package constraint

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolscheduler/internal/domain"
)

func slot(teacher, class string, day time.Weekday, hour int) domain.ScheduleSlot {
	return domain.ScheduleSlot{
		Day:         day,
		Hour:        hour,
		ClassName:   class,
		TeacherName: teacher,
		Subject:     "math",
	}
}

func testContext(slots ...domain.ScheduleSlot) Context {
	return Context{Slots: slots, Config: domain.DefaultConfiguration()}
}

func TestTeacherUnavailableValidate(t *testing.T) {
	// Arrange
	c := TeacherUnavailable{
		Teacher: "Rossi Anna",
		Slots:   []TimeSlot{{Day: time.Monday, Hour: 1}},
	}

	// Act + Assert
	assert.False(t, c.Validate(testContext(slot("Rossi Anna", "1A", time.Monday, 1))))
	assert.True(t, c.Validate(testContext(slot("Rossi Anna", "1A", time.Monday, 2))))
	assert.True(t, c.Validate(testContext(slot("Bianchi Marco", "1A", time.Monday, 1))))
}

func TestTeacherMaxDailyHoursValidate(t *testing.T) {
	// Arrange
	c := TeacherMaxDailyHours{Teacher: "Rossi Anna", MaxHours: 2}

	over := testContext(
		slot("Rossi Anna", "1A", time.Monday, 1),
		slot("Rossi Anna", "1A", time.Monday, 2),
		slot("Rossi Anna", "1B", time.Monday, 3),
	)
	spread := testContext(
		slot("Rossi Anna", "1A", time.Monday, 1),
		slot("Rossi Anna", "1A", time.Monday, 2),
		slot("Rossi Anna", "1B", time.Tuesday, 1),
	)

	// Act + Assert
	assert.False(t, c.Validate(over))
	assert.True(t, c.Validate(spread))
}

func TestTeacherMaxWeeklyGapsValidate(t *testing.T) {
	// Arrange: hours 1 and 4 on the same day leave a two-hour gap
	c := TeacherMaxWeeklyGaps{Teacher: "Rossi Anna", MaxGaps: 1}

	gappy := testContext(
		slot("Rossi Anna", "1A", time.Monday, 1),
		slot("Rossi Anna", "1B", time.Monday, 4),
	)
	compact := testContext(
		slot("Rossi Anna", "1A", time.Monday, 1),
		slot("Rossi Anna", "1B", time.Monday, 2),
	)

	// Act + Assert
	assert.False(t, c.Validate(gappy))
	assert.True(t, c.Validate(compact))
}

func TestTeacherDayOffValidate(t *testing.T) {
	// Arrange
	c := TeacherDayOff{Teacher: "Rossi Anna", Day: time.Friday}

	// Act + Assert
	assert.False(t, c.Validate(testContext(slot("Rossi Anna", "1A", time.Friday, 1))))
	assert.True(t, c.Validate(testContext(slot("Rossi Anna", "1A", time.Thursday, 1))))
}

func TestClassExactDailyHoursValidate(t *testing.T) {
	// Arrange
	c := ClassExactDailyHours{Class: "1A", Day: time.Monday, Hours: 2}

	exact := testContext(
		slot("Rossi Anna", "1A", time.Monday, 1),
		slot("Bianchi Marco", "1A", time.Monday, 2),
	)
	short := testContext(slot("Rossi Anna", "1A", time.Monday, 1))

	// Act + Assert
	assert.True(t, c.Validate(exact))
	assert.False(t, c.Validate(short))
}

func TestClassWeeklyDistributionValidate(t *testing.T) {
	// Arrange
	c := ClassWeeklyDistribution{
		Class:      "1A",
		DailyHours: map[time.Weekday]int{time.Monday: 1, time.Tuesday: 0},
	}

	matching := testContext(slot("Rossi Anna", "1A", time.Monday, 1))
	violating := testContext(
		slot("Rossi Anna", "1A", time.Monday, 1),
		slot("Bianchi Marco", "1A", time.Tuesday, 1),
	)

	// Act + Assert
	assert.True(t, c.Validate(matching))
	assert.False(t, c.Validate(violating))
}

func TestClassStartHourValidate(t *testing.T) {
	t.Run("every day", func(t *testing.T) {
		c := ClassStartHour{Class: "1A", StartHour: 2}

		late := testContext(
			slot("Rossi Anna", "1A", time.Monday, 2),
			slot("Bianchi Marco", "1A", time.Monday, 3),
		)
		early := testContext(slot("Rossi Anna", "1A", time.Monday, 1))

		assert.True(t, c.Validate(late))
		assert.False(t, c.Validate(early))
	})

	t.Run("single day ignores the rest of the week", func(t *testing.T) {
		day := time.Wednesday
		c := ClassStartHour{Class: "1A", StartHour: 2, Day: &day}

		ctx := testContext(
			slot("Rossi Anna", "1A", time.Monday, 1),
			slot("Rossi Anna", "1A", time.Wednesday, 2),
		)
		assert.True(t, c.Validate(ctx))
	})

	t.Run("empty days are fine", func(t *testing.T) {
		c := ClassStartHour{Class: "1A", StartHour: 2}
		assert.True(t, c.Validate(testContext()))
	})
}

func TestEveryVariantExposesItsMetadata(t *testing.T) {
	// Arrange: one of each variant, all carrying the same metadata
	day := time.Monday
	meta := Meta{Priority: High}
	constraints := []Constraint{
		TeacherUnavailable{Meta: meta, Teacher: "Rossi Anna"},
		TeacherMaxDailyHours{Meta: meta, Teacher: "Rossi Anna", MaxHours: 4},
		TeacherMaxWeeklyGaps{Meta: meta, Teacher: "Rossi Anna", MaxGaps: 1},
		TeacherDayOff{Meta: meta, Teacher: "Rossi Anna", Day: time.Friday},
		ClassExactDailyHours{Meta: meta, Class: "1A", Day: time.Monday, Hours: 4},
		ClassWeeklyDistribution{Meta: meta, Class: "1A"},
		ClassStartHour{Meta: meta, Class: "1A", StartHour: 1, Day: &day},
	}

	// Act + Assert: the metadata survives the trip through the interface
	for _, c := range constraints {
		assert.Equal(t, meta, c.Info(), c.Describe())
		assert.True(t, c.Info().Active())
	}
}

func TestViolated(t *testing.T) {
	// Arrange
	constraints := []Constraint{
		TeacherDayOff{Meta: Meta{Priority: High}, Teacher: "Rossi Anna", Day: time.Monday},
		TeacherDayOff{Meta: Meta{Priority: High, Disabled: true}, Teacher: "Rossi Anna", Day: time.Monday},
		TeacherDayOff{Meta: Meta{Priority: High}, Teacher: "Rossi Anna", Day: time.Friday},
	}
	ctx := testContext(slot("Rossi Anna", "1A", time.Monday, 1))

	// Act
	violated := Violated(constraints, ctx)

	// Assert: the disabled copy and the satisfied rule are not reported
	require.Len(t, violated, 1)
	assert.Equal(t, constraints[0], violated[0])
}

func TestBuilderAccumulatesAcrossTargets(t *testing.T) {
	// Arrange + Act
	day := time.Wednesday
	constraints := NewBuilder().
		Teacher("Rossi Anna").
		DayOff(time.Friday, High).
		MaxWeeklyGaps(2, Medium).
		Done().
		Class("1A").
		ExactDailyHours(time.Monday, 4, Mandatory).
		StartHour(2, &day, Low).
		Done().
		Build()

	// Assert: switching targets keeps everything accumulated so far
	require.Len(t, constraints, 4)
	assert.IsType(t, TeacherDayOff{}, constraints[0])
	assert.IsType(t, TeacherMaxWeeklyGaps{}, constraints[1])
	assert.IsType(t, ClassExactDailyHours{}, constraints[2])
	assert.IsType(t, ClassStartHour{}, constraints[3])
}

func TestBuilderMergesUnavailability(t *testing.T) {
	// Arrange + Act
	constraints := NewBuilder().
		Teacher("Rossi Anna").
		Unavailable(time.Monday, 1).
		Unavailable(time.Monday, 2).
		Unavailable(time.Tuesday, 1).
		Done().
		Build()

	// Assert: one constraint holding all three cells
	require.Len(t, constraints, 1)
	unavailable, ok := constraints[0].(TeacherUnavailable)
	require.True(t, ok)
	assert.Len(t, unavailable.Slots, 3)
	assert.Equal(t, Mandatory, unavailable.Info().Priority)
}

func TestBuildReturnsACopy(t *testing.T) {
	// Arrange
	builder := NewBuilder()
	builder.Teacher("Rossi Anna").DayOff(time.Friday, High)

	// Act
	first := builder.Build()
	builder.Teacher("Bianchi Marco").DayOff(time.Monday, High)

	// Assert
	assert.Len(t, first, 1)
	assert.Len(t, builder.Build(), 2)
}

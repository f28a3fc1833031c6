package constraint

import "time"

// Builder accumulates constraints into one explicit list. The per-target
// builders append through the parent, so switching targets never discards
// previously built constraints.
type Builder struct {
	constraints []Constraint
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build returns a copy of the accumulated list.
func (b *Builder) Build() []Constraint {
	built := make([]Constraint, len(b.constraints))
	copy(built, b.constraints)
	return built
}

func (b *Builder) Teacher(name string) *TeacherBuilder {
	return &TeacherBuilder{teacher: name, parent: b}
}

func (b *Builder) Class(name string) *ClassBuilder {
	return &ClassBuilder{class: name, parent: b}
}

type TeacherBuilder struct {
	teacher string
	parent  *Builder
}

// Done returns to the parent builder.
func (tb *TeacherBuilder) Done() *Builder { return tb.parent }

// Unavailable marks one grid cell as forbidden, merging into the teacher's
// existing unavailability constraint when there is one.
func (tb *TeacherBuilder) Unavailable(day time.Weekday, hour int) *TeacherBuilder {
	for i, c := range tb.parent.constraints {
		if existing, ok := c.(TeacherUnavailable); ok && existing.Teacher == tb.teacher {
			existing.Slots = append(existing.Slots, TimeSlot{Day: day, Hour: hour})
			tb.parent.constraints[i] = existing
			return tb
		}
	}

	tb.parent.constraints = append(tb.parent.constraints, TeacherUnavailable{
		Meta:    Meta{Priority: Mandatory},
		Teacher: tb.teacher,
		Slots:   []TimeSlot{{Day: day, Hour: hour}},
	})
	return tb
}

func (tb *TeacherBuilder) MaxDailyHours(hours int, priority Priority) *TeacherBuilder {
	tb.parent.constraints = append(tb.parent.constraints, TeacherMaxDailyHours{
		Meta:     Meta{Priority: priority},
		Teacher:  tb.teacher,
		MaxHours: hours,
	})
	return tb
}

func (tb *TeacherBuilder) MaxWeeklyGaps(gaps int, priority Priority) *TeacherBuilder {
	tb.parent.constraints = append(tb.parent.constraints, TeacherMaxWeeklyGaps{
		Meta:    Meta{Priority: priority},
		Teacher: tb.teacher,
		MaxGaps: gaps,
	})
	return tb
}

func (tb *TeacherBuilder) DayOff(day time.Weekday, priority Priority) *TeacherBuilder {
	tb.parent.constraints = append(tb.parent.constraints, TeacherDayOff{
		Meta:    Meta{Priority: priority},
		Teacher: tb.teacher,
		Day:     day,
	})
	return tb
}

type ClassBuilder struct {
	class  string
	parent *Builder
}

// Done returns to the parent builder.
func (cb *ClassBuilder) Done() *Builder { return cb.parent }

func (cb *ClassBuilder) ExactDailyHours(day time.Weekday, hours int, priority Priority) *ClassBuilder {
	cb.parent.constraints = append(cb.parent.constraints, ClassExactDailyHours{
		Meta:  Meta{Priority: priority},
		Class: cb.class,
		Day:   day,
		Hours: hours,
	})
	return cb
}

func (cb *ClassBuilder) WeeklyDistribution(dailyHours map[time.Weekday]int, priority Priority) *ClassBuilder {
	cb.parent.constraints = append(cb.parent.constraints, ClassWeeklyDistribution{
		Meta:       Meta{Priority: priority},
		Class:      cb.class,
		DailyHours: dailyHours,
	})
	return cb
}

func (cb *ClassBuilder) StartHour(hour int, day *time.Weekday, priority Priority) *ClassBuilder {
	cb.parent.constraints = append(cb.parent.constraints, ClassStartHour{
		Meta:      Meta{Priority: priority},
		Class:     cb.class,
		StartHour: hour,
		Day:       day,
	})
	return cb
}

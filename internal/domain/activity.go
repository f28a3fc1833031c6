package domain

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
)

// Activity is one teaching assignment: an indivisible block of WeeklyHours
// consecutive lesson-hours taught by one teacher to one class. Several
// activities may share (teacher, class, subject); those must be scheduled on
// different days. Activities are immutable once imported; names are expected
// to be already normalized by the importer.
type Activity struct {
	ID                int    `mapstructure:"id"`
	TeacherFullName   string `mapstructure:"teacher" validate:"required"`
	ClassName         string `mapstructure:"class" validate:"required"`
	Subject           string `mapstructure:"subject" validate:"required"`
	WeeklyHours       int    `mapstructure:"weeklyHours" validate:"min=1"`
	ArticulationGroup string `mapstructure:"articulationGroup"`
}

func (a Activity) IsArticulated() bool {
	return a.ArticulationGroup != ""
}

// Key identifies recurring (teacher, class, subject) placements.
func (a Activity) Key() string {
	return fmt.Sprintf("%v_%v_%v", a.TeacherFullName, a.ClassName, a.Subject)
}

// Teacher aggregates the activities taught by one person.
type Teacher struct {
	ID               int             `mapstructure:"id"`
	Surname          string          `mapstructure:"surname"`
	Name             string          `mapstructure:"name"`
	ClassCodes       map[string]bool `mapstructure:"classCodes"`
	TotalWeeklyHours int             `mapstructure:"totalWeeklyHours"` // declared by the importer
	Activities       []Activity      `mapstructure:"-"`
}

func (t Teacher) FullName() string {
	if t.Surname == "" {
		return t.Name
	} else if t.Name == "" {
		return t.Surname
	}
	return t.Surname + " " + t.Name
}

// DerivedWeeklyHours sums the hours of the teacher's activities, as opposed to
// the declared total carried from the import.
func (t Teacher) DerivedWeeklyHours() int {
	return lo.SumBy(t.Activities, func(a Activity) int { return a.WeeklyHours })
}

// SchoolClass aggregates the activities received by one class.
type SchoolClass struct {
	ID               int        `mapstructure:"id"`
	Name             string     `mapstructure:"name" validate:"required"`
	TotalWeeklyHours int        `mapstructure:"totalWeeklyHours"` // declared by the importer
	Activities       []Activity `mapstructure:"-"`
}

func (c SchoolClass) DerivedWeeklyHours() int {
	return lo.SumBy(c.Activities, func(a Activity) int { return a.WeeklyHours })
}

func (c SchoolClass) HasArticulation() bool {
	return lo.SomeBy(c.Activities, Activity.IsArticulated)
}

// ArticulationGroup is the set of a class's activities sharing one tag; they
// are taught to sub-groups of the class in parallel and therefore occupy the
// same slots instead of conflicting.
type ArticulationGroup struct {
	Name       string
	Activities []Activity
}

// ArticulationGroups derives the class's tagged groups, ordered by tag.
func (c SchoolClass) ArticulationGroups() []ArticulationGroup {
	tagged := lo.GroupBy(
		lo.Filter(c.Activities, func(a Activity, _ int) bool { return a.IsArticulated() }),
		func(a Activity) string { return a.ArticulationGroup },
	)

	groups := make([]ArticulationGroup, 0, len(tagged))
	for tag, activities := range tagged {
		groups = append(groups, ArticulationGroup{Name: tag, Activities: activities})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	return groups
}

// DeriveTeachers groups activities into Teacher aggregates keyed by the full
// name exactly as it appears on the activities.
func DeriveTeachers(activities []Activity) []Teacher {
	byTeacher := lo.GroupBy(activities, func(a Activity) string { return a.TeacherFullName })

	names := lo.Keys(byTeacher)
	sort.Strings(names)

	teachers := make([]Teacher, 0, len(names))
	for i, name := range names {
		teacher := Teacher{
			ID:         i,
			Surname:    name,
			Activities: byTeacher[name],
		}
		teacher.TotalWeeklyHours = teacher.DerivedWeeklyHours()
		teachers = append(teachers, teacher)
	}
	return teachers
}

// DeriveClasses groups activities into SchoolClass aggregates by class name.
func DeriveClasses(activities []Activity) []SchoolClass {
	byClass := lo.GroupBy(activities, func(a Activity) string { return a.ClassName })

	names := lo.Keys(byClass)
	sort.Strings(names)

	classes := make([]SchoolClass, 0, len(names))
	for i, name := range names {
		class := SchoolClass{
			ID:         i,
			Name:       name,
			Activities: byClass[name],
		}
		class.TotalWeeklyHours = class.DerivedWeeklyHours()
		classes = append(classes, class)
	}
	return classes
}

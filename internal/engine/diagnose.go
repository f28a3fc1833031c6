package engine

import (
	"fmt"
	"sort"

	"github.com/samber/lo"

	"schoolscheduler/internal/domain"
)

// HourTotals pairs the weekly hours an entity declares with the hours its
// activities actually sum to.
type HourTotals struct {
	Declared int
	Derived  int
}

func (t HourTotals) Consistent() bool {
	return t.Declared == 0 || t.Declared == t.Derived
}

// ConsistencyReport compares declared weekly hours against the activity list,
// per class and per teacher. A declared total of zero means "not declared"
// and is never flagged.
type ConsistencyReport struct {
	ClassHours   map[string]HourTotals
	TeacherHours map[string]HourTotals
}

func (r ConsistencyReport) Issues() []string {
	var issues []string
	for _, name := range sortedKeys(r.ClassHours) {
		if totals := r.ClassHours[name]; !totals.Consistent() {
			issues = append(issues, fmt.Sprintf(
				"class %v declares %v weekly hours but its activities sum to %v",
				name, totals.Declared, totals.Derived))
		}
	}
	for _, name := range sortedKeys(r.TeacherHours) {
		if totals := r.TeacherHours[name]; !totals.Consistent() {
			issues = append(issues, fmt.Sprintf(
				"teacher %v declares %v weekly hours but their activities sum to %v",
				name, totals.Declared, totals.Derived))
		}
	}
	return issues
}

// DataConsistency cross-checks the declared rosters against the activities.
func (g *Generator) DataConsistency() ConsistencyReport {
	report := ConsistencyReport{
		ClassHours:   make(map[string]HourTotals),
		TeacherHours: make(map[string]HourTotals),
	}

	for _, class := range g.classes {
		report.ClassHours[class.Name] = HourTotals{
			Declared: class.TotalWeeklyHours,
			Derived:  g.classActivityHours(class.Name),
		}
	}
	for _, teacher := range g.teachers {
		report.TeacherHours[teacher.FullName()] = HourTotals{
			Declared: teacher.TotalWeeklyHours,
			Derived:  g.teacherActivityHours(teacher.FullName()),
		}
	}
	return report
}

func (g *Generator) classActivityHours(class string) int {
	return lo.SumBy(g.activities, func(a domain.Activity) int {
		if a.ClassName == class {
			return a.WeeklyHours
		}
		return 0
	})
}

func (g *Generator) teacherActivityHours(teacher string) int {
	return lo.SumBy(g.activities, func(a domain.Activity) int {
		if a.TeacherFullName == teacher {
			return a.WeeklyHours
		}
		return 0
	})
}

// InfeasibilityReport lists structural reasons no schedule can exist, plus
// advisory notes that merely make solving harder.
type InfeasibilityReport struct {
	OverloadedClasses       []string
	OverconstrainedTeachers []string
	OversizedActivities     []string
	LargeBlocks             []string
}

// Fatal reports whether generation cannot possibly succeed.
func (r InfeasibilityReport) Fatal() bool {
	return len(r.OverloadedClasses) > 0 ||
		len(r.OverconstrainedTeachers) > 0 ||
		len(r.OversizedActivities) > 0
}

// Summary flattens the fatal findings in a stable order.
func (r InfeasibilityReport) Summary() []string {
	var summary []string
	summary = append(summary, r.OversizedActivities...)
	summary = append(summary, r.OverloadedClasses...)
	summary = append(summary, r.OverconstrainedTeachers...)
	return summary
}

// AnalyzeInfeasibility runs cheap arithmetic checks before any encoding:
// class totals that cannot fit the week, activity blocks longer than a day,
// and teachers whose spreading requirement outruns their hours.
func (g *Generator) AnalyzeInfeasibility() InfeasibilityReport {
	var report InfeasibilityReport
	days := len(g.config.ActiveDays())

	for _, activity := range g.activities {
		if activity.WeeklyHours > g.config.MaxDailyHours {
			report.OversizedActivities = append(report.OversizedActivities, fmt.Sprintf(
				"activity %v needs a single %v-hour block but days are capped at %v hours",
				activity.Key(), activity.WeeklyHours, g.config.MaxDailyHours))
		} else if activity.WeeklyHours > 3 {
			report.LargeBlocks = append(report.LargeBlocks, fmt.Sprintf(
				"activity %v occupies %v consecutive hours; consider splitting it",
				activity.Key(), activity.WeeklyHours))
		}
	}

	classTotals := make(map[string]int)
	for _, activity := range g.activities {
		classTotals[activity.ClassName] += activity.WeeklyHours
	}
	for _, class := range sortedKeys(classTotals) {
		total := classTotals[class]
		min, max := g.config.ClassBounds(class)
		switch {
		case total > days*max:
			report.OverloadedClasses = append(report.OverloadedClasses, fmt.Sprintf(
				"class %v needs %v weekly hours but at most %v fit in %v days of %v hours",
				class, total, days*max, days, max))
		case total > 0 && total < min:
			report.OverloadedClasses = append(report.OverloadedClasses, fmt.Sprintf(
				"class %v has only %v weekly hours, below the %v-hour minimum of a single day",
				class, total, min))
		}
	}

	for _, finding := range g.teacherSpreadingFindings(days) {
		report.OverconstrainedTeachers = append(report.OverconstrainedTeachers, finding)
	}

	return report
}

// teacherSpreadingFindings checks that spreading duplicated (teacher, class,
// subject) blocks over distinct days stays within both the week and the
// teacher's own hours under the min-daily floor.
func (g *Generator) teacherSpreadingFindings(days int) []string {
	type load struct {
		total   int
		keyRuns map[string]int
	}
	loads := make(map[string]*load)
	for _, activity := range g.activities {
		l, ok := loads[activity.TeacherFullName]
		if !ok {
			l = &load{keyRuns: make(map[string]int)}
			loads[activity.TeacherFullName] = l
		}
		l.total += activity.WeeklyHours
		l.keyRuns[activity.Key()]++
	}

	var findings []string
	teachers := lo.Keys(loads)
	sort.Strings(teachers)
	for _, teacher := range teachers {
		l := loads[teacher]
		daysNeeded := lo.Max(lo.Values(l.keyRuns))
		if daysNeeded < 2 {
			continue
		}

		if daysNeeded > days {
			findings = append(findings, fmt.Sprintf(
				"teacher %v repeats a subject %v times but the week has only %v days",
				teacher, daysNeeded, days))
			continue
		}

		min, _ := g.config.TeacherBounds(teacher)
		if min > 0 && l.total/min < daysNeeded {
			findings = append(findings, fmt.Sprintf(
				"teacher %v must work %v distinct days but %v weekly hours cannot cover them at %v hours minimum per day",
				teacher, daysNeeded, l.total, min))
		}
	}
	return findings
}

package engine

import (
	"strings"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolscheduler/internal/domain"
)

func TestDataConsistency(t *testing.T) {
	// Arrange
	activities := []domain.Activity{
		{ID: 1, TeacherFullName: "Bianchi Marco", ClassName: "1A", Subject: "math", WeeklyHours: 3},
		{ID: 2, TeacherFullName: "Bianchi Marco", ClassName: "1B", Subject: "math", WeeklyHours: 2},
	}
	teachers := []domain.Teacher{
		{Surname: "Bianchi", Name: "Marco", TotalWeeklyHours: 6}, // declares one hour too many
	}
	classes := []domain.SchoolClass{
		{Name: "1A", TotalWeeklyHours: 3},
		{Name: "1B", TotalWeeklyHours: 2},
	}
	generator, err := New(testConfig(), activities, teachers, classes, nil, nil)
	require.NoError(t, err)

	// Act
	report := generator.DataConsistency()

	// Assert
	assert.Equal(t, HourTotals{Declared: 6, Derived: 5}, report.TeacherHours["Bianchi Marco"])
	assert.Equal(t, HourTotals{Declared: 3, Derived: 3}, report.ClassHours["1A"])

	issues := report.Issues()
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0], "Bianchi Marco")
	assert.Contains(t, issues[0], "declares 6")
}

func TestDataConsistencyUndeclaredTotalsAreIgnored(t *testing.T) {
	// Arrange
	activities := []domain.Activity{
		{ID: 1, TeacherFullName: "Verdi Lucia", ClassName: "2A", Subject: "italian", WeeklyHours: 4},
	}
	generator := newTestGenerator(t, testConfig(), activities, nil)

	// Act + Assert: derived rosters always declare the derived totals
	assert.Empty(t, generator.DataConsistency().Issues())
}

func TestAnalyzeInfeasibilityOverloadedClass(t *testing.T) {
	// Arrange: 25 weekly hours against a 5x4 grid
	activities := []domain.Activity{}
	for i := 0; i < 13; i++ {
		activities = append(activities, domain.Activity{
			ID: i, TeacherFullName: "Bianchi Marco", ClassName: "1A", Subject: "math", WeeklyHours: 2,
		})
	}
	generator := newTestGenerator(t, testConfig(), activities, nil)

	// Act
	report := generator.AnalyzeInfeasibility()

	// Assert
	assert.True(t, report.Fatal())
	require.Len(t, report.OverloadedClasses, 1)
	assert.Contains(t, report.OverloadedClasses[0], "1A")
}

func TestAnalyzeInfeasibilityOversizedActivity(t *testing.T) {
	// Arrange
	activities := []domain.Activity{
		{ID: 1, TeacherFullName: "Bianchi Marco", ClassName: "1A", Subject: "math", WeeklyHours: 5},
	}
	generator := newTestGenerator(t, testConfig(), activities, nil)

	// Act
	report := generator.AnalyzeInfeasibility()

	// Assert
	assert.True(t, report.Fatal())
	require.Len(t, report.OversizedActivities, 1)
	assert.Contains(t, report.OversizedActivities[0], "5-hour block")
}

func TestAnalyzeInfeasibilityLargeBlockIsAdvisoryOnly(t *testing.T) {
	// Arrange
	activities := []domain.Activity{
		{ID: 1, TeacherFullName: "Bianchi Marco", ClassName: "1A", Subject: "math", WeeklyHours: 4},
	}
	generator := newTestGenerator(t, testConfig(), activities, nil)

	// Act
	report := generator.AnalyzeInfeasibility()

	// Assert
	assert.False(t, report.Fatal())
	assert.Len(t, report.LargeBlocks, 1)
	assert.Empty(t, report.Summary())
}

func TestAnalyzeInfeasibilityOverconstrainedTeacher(t *testing.T) {
	// Arrange: six repetitions of the same subject in a five-day week
	activities := []domain.Activity{}
	for i := 0; i < 6; i++ {
		activities = append(activities, domain.Activity{
			ID: i, TeacherFullName: "Neri Paolo", ClassName: "3A", Subject: "history", WeeklyHours: 1,
		})
	}
	config := testConfig()
	config.MinDailyHours = 1
	generator := newTestGenerator(t, config, activities, nil)

	// Act
	report := generator.AnalyzeInfeasibility()

	// Assert
	assert.True(t, report.Fatal())
	assert.True(t, lo.SomeBy(report.OverconstrainedTeachers, func(finding string) bool {
		return strings.Contains(finding, "Neri Paolo")
	}))
}

func TestAnalyzeInfeasibilityCleanInput(t *testing.T) {
	// Arrange
	activities := []domain.Activity{
		{ID: 1, TeacherFullName: "Bianchi Marco", ClassName: "1A", Subject: "math", WeeklyHours: 2},
		{ID: 2, TeacherFullName: "Verdi Lucia", ClassName: "1A", Subject: "italian", WeeklyHours: 2},
	}
	generator := newTestGenerator(t, testConfig(), activities, nil)

	// Act
	report := generator.AnalyzeInfeasibility()

	// Assert
	assert.False(t, report.Fatal())
	assert.Empty(t, report.Summary())
}

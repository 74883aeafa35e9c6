package service

import (
	"encoding/json"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jlintlin/Grade-Converter/internal/models"
	appErrors "github.com/jlintlin/Grade-Converter/pkg/errors"
)

func floatPtr(v float64) *float64 { return &v }

func testGradebook(columns []models.AssignmentColumn, students ...models.Student) *models.Gradebook {
	return &models.Gradebook{
		Students:          students,
		AssignmentColumns: columns,
		RowCount:          len(students),
	}
}

func newTestGradingService() *GradingService {
	return NewGradingService(validator.New(), zap.NewNop())
}

func simpleScale() models.GradingScale {
	return models.GradingScale{"A": 90, "B": 80, "C": 70, "F": 0}
}

func TestCalculateEndToEnd(t *testing.T) {
	svc := newTestGradingService()
	gb := testGradebook(
		[]models.AssignmentColumn{
			{Name: "H1", PointsPossible: 10},
			{Name: "H2", PointsPossible: 10},
			{Name: "E1", PointsPossible: 100},
		},
		models.Student{ID: "1001", Name: "Alice", Scores: map[string]*float64{
			"H1": floatPtr(8), "H2": floatPtr(10), "E1": floatPtr(85),
		}},
	)
	cfg := models.CalcConfig{
		Categories: []models.Category{
			{Name: "Homework", Weight: 40, DropLowest: 1, Assignments: []string{"H1", "H2"}},
			{Name: "Exams", Weight: 60, Assignments: []string{"E1"}},
		},
		GradingScale:     simpleScale(),
		PassingThreshold: 60,
	}

	report, err := svc.Calculate(gb, cfg)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)

	result := report.Results[0]
	assert.InDelta(t, 100.0, result.CategoryScores["Homework"], 1e-9)
	assert.InDelta(t, 85.0, result.CategoryScores["Exams"], 1e-9)
	assert.InDelta(t, 91.0, result.FinalPercentage, 1e-9)
	assert.Equal(t, "A", result.LetterGrade)
	assert.Equal(t, 1, report.Summary.GradeDistribution["A"])
	assert.Equal(t, 1, report.Summary.PassingCount)
}

func TestCalculateMissingScoreExcludedNotZeroed(t *testing.T) {
	svc := newTestGradingService()
	gb := testGradebook(
		[]models.AssignmentColumn{
			{Name: "H1", PointsPossible: 10},
			{Name: "H2", PointsPossible: 10},
			{Name: "E1", PointsPossible: 100},
		},
		models.Student{ID: "1001", Name: "Alice", Scores: map[string]*float64{
			"H2": floatPtr(10), "E1": floatPtr(85),
		}},
	)
	cfg := models.CalcConfig{
		Categories: []models.Category{
			{Name: "Homework", Weight: 40, DropLowest: 1, Assignments: []string{"H1", "H2"}},
			{Name: "Exams", Weight: 60, Assignments: []string{"E1"}},
		},
		GradingScale:     simpleScale(),
		PassingThreshold: 60,
	}

	report, err := svc.Calculate(gb, cfg)
	require.NoError(t, err)
	result := report.Results[0]
	// H1 is excluded entirely; H2 alone remains and drop-lowest has
	// nothing further to remove from a one-item set.
	assert.InDelta(t, 100.0, result.CategoryScores["Homework"], 1e-9)
	assert.InDelta(t, 91.0, result.FinalPercentage, 1e-9)
	assert.Equal(t, "A", result.LetterGrade)
}

func TestCalculateReplacementRule(t *testing.T) {
	svc := newTestGradingService()
	gb := testGradebook(
		[]models.AssignmentColumn{
			{Name: "Q1", PointsPossible: 100},
			{Name: "Q2", PointsPossible: 100},
			{Name: "R", PointsPossible: 100},
		},
		models.Student{ID: "1001", Name: "Alice", Scores: map[string]*float64{
			"Q1": floatPtr(60), "Q2": floatPtr(90), "R": floatPtr(95),
		}},
	)
	cfg := models.CalcConfig{
		Categories: []models.Category{
			{Name: "Quizzes", Weight: 100, Assignments: []string{"Q1", "Q2"}},
		},
		GradingScale:     simpleScale(),
		ReplacementRules: models.ReplacementRules{"R": {"Q1", "Q2"}},
		PassingThreshold: 60,
	}

	report, err := svc.Calculate(gb, cfg)
	require.NoError(t, err)
	result := report.Results[0]
	assert.InDelta(t, 92.5, result.CategoryScores["Quizzes"], 1e-9)
	require.Len(t, result.ReplacementInfo, 1)
	info := result.ReplacementInfo[0]
	assert.Equal(t, "Q1", info.Replaced)
	assert.Equal(t, "R", info.Replacer)
	assert.InDelta(t, 60.0, info.OriginalScore, 1e-9)
	assert.InDelta(t, 95.0, info.NewScore, 1e-9)
	assert.InDelta(t, 35.0, info.Improvement, 1e-9)
	assert.Equal(t, "Quizzes", info.Category)
}

func TestCalculateReplacementOnlyHelps(t *testing.T) {
	svc := newTestGradingService()
	columns := []models.AssignmentColumn{
		{Name: "Q1", PointsPossible: 100},
		{Name: "Q2", PointsPossible: 100},
		{Name: "R", PointsPossible: 100},
	}
	student := models.Student{ID: "1001", Name: "Alice", Scores: map[string]*float64{
		"Q1": floatPtr(60), "Q2": floatPtr(90), "R": floatPtr(50),
	}}
	cfg := models.CalcConfig{
		Categories: []models.Category{
			{Name: "Quizzes", Weight: 100, Assignments: []string{"Q1", "Q2"}},
		},
		GradingScale:     simpleScale(),
		ReplacementRules: models.ReplacementRules{"R": {"Q1", "Q2"}},
		PassingThreshold: 60,
	}

	report, err := svc.Calculate(testGradebook(columns, student), cfg)
	require.NoError(t, err)
	withRule := report.Results[0]
	assert.Empty(t, withRule.ReplacementInfo)

	cfg.ReplacementRules = nil
	baseline, err := svc.Calculate(testGradebook(columns, student), cfg)
	require.NoError(t, err)
	assert.Equal(t, baseline.Results[0].CategoryScores["Quizzes"], withRule.CategoryScores["Quizzes"])
	assert.Equal(t, baseline.Results[0].FinalPercentage, withRule.FinalPercentage)
}

func TestCalculateWeightInvariant(t *testing.T) {
	svc := newTestGradingService()
	gb := testGradebook(
		[]models.AssignmentColumn{{Name: "H1", PointsPossible: 10}},
		models.Student{ID: "1001", Name: "Alice", Scores: map[string]*float64{"H1": floatPtr(9)}},
	)
	cfg := models.CalcConfig{
		Categories: []models.Category{
			{Name: "Homework", Weight: 90, Assignments: []string{"H1"}},
		},
		GradingScale:     simpleScale(),
		PassingThreshold: 60,
	}

	report, err := svc.Calculate(gb, cfg)
	require.Error(t, err)
	assert.Nil(t, report)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidWeights.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "90.00")
}

func TestCalculateWeightTolerance(t *testing.T) {
	svc := newTestGradingService()
	gb := testGradebook(
		[]models.AssignmentColumn{{Name: "H1", PointsPossible: 10}},
		models.Student{ID: "1001", Name: "Alice", Scores: map[string]*float64{"H1": floatPtr(9)}},
	)
	cfg := models.CalcConfig{
		Categories: []models.Category{
			{Name: "A", Weight: 33.33, Assignments: nil},
			{Name: "B", Weight: 33.33, Assignments: nil},
			{Name: "C", Weight: 33.335, Assignments: []string{"H1"}},
		},
		GradingScale:     simpleScale(),
		PassingThreshold: 60,
	}

	_, err := svc.Calculate(gb, cfg)
	assert.NoError(t, err)
}

func TestCalculateUnknownAssignment(t *testing.T) {
	svc := newTestGradingService()
	gb := testGradebook(
		[]models.AssignmentColumn{{Name: "H1", PointsPossible: 10}},
		models.Student{ID: "1001", Name: "Alice", Scores: map[string]*float64{"H1": floatPtr(9)}},
	)
	cfg := models.CalcConfig{
		Categories: []models.Category{
			{Name: "Homework", Weight: 100, Assignments: []string{"H1", "H9"}},
		},
		GradingScale:     simpleScale(),
		PassingThreshold: 60,
	}

	_, err := svc.Calculate(gb, cfg)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrConfiguration.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "Homework")
	assert.Contains(t, appErr.Message, "H9")
}

func TestCalculateReplacerInsideCategoryRejected(t *testing.T) {
	svc := newTestGradingService()
	gb := testGradebook(
		[]models.AssignmentColumn{
			{Name: "Q1", PointsPossible: 100},
			{Name: "R", PointsPossible: 100},
		},
		models.Student{ID: "1001", Name: "Alice", Scores: map[string]*float64{
			"Q1": floatPtr(60), "R": floatPtr(95),
		}},
	)
	cfg := models.CalcConfig{
		Categories: []models.Category{
			{Name: "Quizzes", Weight: 100, Assignments: []string{"Q1", "R"}},
		},
		GradingScale:     simpleScale(),
		ReplacementRules: models.ReplacementRules{"R": {"Q1"}},
		PassingThreshold: 60,
	}

	_, err := svc.Calculate(gb, cfg)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "unassigned")
}

func TestCalculateAssignmentInTwoCategoriesRejected(t *testing.T) {
	svc := newTestGradingService()
	gb := testGradebook(
		[]models.AssignmentColumn{{Name: "H1", PointsPossible: 10}},
		models.Student{ID: "1001", Name: "Alice", Scores: map[string]*float64{"H1": floatPtr(9)}},
	)
	cfg := models.CalcConfig{
		Categories: []models.Category{
			{Name: "Homework", Weight: 50, Assignments: []string{"H1"}},
			{Name: "Labs", Weight: 50, Assignments: []string{"H1"}},
		},
		GradingScale:     simpleScale(),
		PassingThreshold: 60,
	}

	_, err := svc.Calculate(gb, cfg)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Contains(t, appErr.Message, "Homework")
	assert.Contains(t, appErr.Message, "Labs")
}

func TestCalculateScaleRequiresBottomGrade(t *testing.T) {
	svc := newTestGradingService()
	gb := testGradebook(
		[]models.AssignmentColumn{{Name: "H1", PointsPossible: 10}},
		models.Student{ID: "1001", Name: "Alice", Scores: map[string]*float64{"H1": floatPtr(9)}},
	)
	cfg := models.CalcConfig{
		Categories: []models.Category{
			{Name: "Homework", Weight: 100, Assignments: []string{"H1"}},
		},
		GradingScale:     models.GradingScale{"A": 90},
		PassingThreshold: 60,
	}

	_, err := svc.Calculate(gb, cfg)
	require.Error(t, err)
	assert.Contains(t, appErrors.FromError(err).Message, "bottom grade")
}

func TestDropLowestNeverEmptiesCategory(t *testing.T) {
	svc := newTestGradingService()
	gb := testGradebook(
		[]models.AssignmentColumn{
			{Name: "H1", PointsPossible: 10},
			{Name: "H2", PointsPossible: 10},
		},
		models.Student{ID: "1001", Name: "Alice", Scores: map[string]*float64{
			"H1": floatPtr(2), "H2": floatPtr(9),
		}},
	)
	cfg := models.CalcConfig{
		Categories: []models.Category{
			{Name: "Homework", Weight: 100, DropLowest: 5, Assignments: []string{"H1", "H2"}},
		},
		GradingScale:     simpleScale(),
		PassingThreshold: 60,
	}

	report, err := svc.Calculate(gb, cfg)
	require.NoError(t, err)
	// Only one of two gradable assignments may be dropped.
	assert.InDelta(t, 90.0, report.Results[0].CategoryScores["Homework"], 1e-9)
}

func TestDropLowestTieBreaksInAssignmentOrder(t *testing.T) {
	svc := newTestGradingService()
	gb := testGradebook(
		[]models.AssignmentColumn{
			{Name: "A1", PointsPossible: 2},
			{Name: "A2", PointsPossible: 100},
			{Name: "A3", PointsPossible: 10},
		},
		models.Student{ID: "1001", Name: "Alice", Scores: map[string]*float64{
			"A1": floatPtr(1), "A2": floatPtr(50), "A3": floatPtr(9),
		}},
	)
	cfg := models.CalcConfig{
		Categories: []models.Category{
			{Name: "Work", Weight: 100, DropLowest: 1, Assignments: []string{"A1", "A2", "A3"}},
		},
		GradingScale:     simpleScale(),
		PassingThreshold: 60,
	}

	report, err := svc.Calculate(gb, cfg)
	require.NoError(t, err)
	// A1 and A2 tie at 50%; A1 comes first in the list and is dropped,
	// leaving (50+9)/(100+10).
	assert.InDelta(t, 59.0/110.0*100, report.Results[0].CategoryScores["Work"], 1e-9)
}

func TestCalculateNoGradableWorkScoresZero(t *testing.T) {
	svc := newTestGradingService()
	gb := testGradebook(
		[]models.AssignmentColumn{
			{Name: "H1", PointsPossible: 10},
			{Name: "E1", PointsPossible: 100},
		},
		models.Student{ID: "1001", Name: "Alice", Scores: map[string]*float64{
			"E1": floatPtr(100),
		}},
	)
	cfg := models.CalcConfig{
		Categories: []models.Category{
			{Name: "Homework", Weight: 40, Assignments: []string{"H1"}},
			{Name: "Exams", Weight: 60, Assignments: []string{"E1"}},
		},
		GradingScale:     simpleScale(),
		PassingThreshold: 60,
	}

	report, err := svc.Calculate(gb, cfg)
	require.NoError(t, err)
	result := report.Results[0]
	// An empty homework category still carries its 40% weight.
	assert.InDelta(t, 0.0, result.CategoryScores["Homework"], 1e-9)
	assert.InDelta(t, 60.0, result.FinalPercentage, 1e-9)
}

func TestCalculateZeroPointColumnDegrades(t *testing.T) {
	svc := newTestGradingService()
	gb := testGradebook(
		[]models.AssignmentColumn{
			{Name: "Survey", PointsPossible: 0},
			{Name: "E1", PointsPossible: 100},
		},
		models.Student{ID: "1001", Name: "Alice", Scores: map[string]*float64{
			"Survey": floatPtr(1), "E1": floatPtr(80),
		}},
	)
	cfg := models.CalcConfig{
		Categories: []models.Category{
			{Name: "Participation", Weight: 10, Assignments: []string{"Survey"}},
			{Name: "Exams", Weight: 90, Assignments: []string{"E1"}},
		},
		GradingScale:     simpleScale(),
		PassingThreshold: 60,
	}

	report, err := svc.Calculate(gb, cfg)
	require.NoError(t, err)
	result := report.Results[0]
	assert.InDelta(t, 0.0, result.CategoryScores["Participation"], 1e-9)
	assert.InDelta(t, 72.0, result.FinalPercentage, 1e-9)
}

func TestCalculateExtraCreditCap(t *testing.T) {
	svc := newTestGradingService()
	gb := testGradebook(
		[]models.AssignmentColumn{
			{Name: "E1", PointsPossible: 100},
			{Name: "B1", PointsPossible: 10},
		},
		models.Student{ID: "1001", Name: "Alice", Scores: map[string]*float64{
			"E1": floatPtr(80), "B1": floatPtr(20),
		}},
	)
	cfg := models.CalcConfig{
		Categories: []models.Category{
			{Name: "Exams", Weight: 100, Assignments: []string{"E1"}},
			{Name: "Bonus", Weight: 10, Assignments: []string{"B1"}, ExtraCredit: true},
		},
		GradingScale:          simpleScale(),
		ExtraCreditEnabled:    true,
		MaxExtraCreditPercent: 5,
		PassingThreshold:      60,
	}

	report, err := svc.Calculate(gb, cfg)
	require.NoError(t, err)
	result := report.Results[0]
	// Bonus scores 200% at weight 10 for a raw contribution of 20,
	// capped at 5.
	assert.InDelta(t, 200.0, result.CategoryScores["Bonus"], 1e-9)
	assert.InDelta(t, 85.0, result.FinalPercentage, 1e-9)

	cfg.ExtraCreditEnabled = false
	report, err = svc.Calculate(gb, cfg)
	require.NoError(t, err)
	assert.InDelta(t, 80.0, report.Results[0].FinalPercentage, 1e-9)
}

func TestLetterBoundaries(t *testing.T) {
	scale := sortScale(models.GradingScale{"A": 90, "B": 80, "F": 0})

	assert.Equal(t, "A", letterFor(90.0, scale))
	assert.Equal(t, "B", letterFor(89.99, scale))
	assert.Equal(t, "F", letterFor(0, scale))
	assert.Equal(t, "F", letterFor(-0.5, scale))
	assert.Equal(t, "A", letterFor(104.2, scale))
}

func TestCalculateIdempotent(t *testing.T) {
	svc := newTestGradingService()
	columns := []models.AssignmentColumn{
		{Name: "H1", PointsPossible: 10},
		{Name: "E1", PointsPossible: 100},
	}
	students := []models.Student{
		{ID: "1001", Name: "Alice", Scores: map[string]*float64{"H1": floatPtr(8), "E1": floatPtr(85)}},
		{ID: "1002", Name: "Bob", Scores: map[string]*float64{"H1": floatPtr(5), "E1": floatPtr(60)}},
	}
	cfg := models.CalcConfig{
		Categories: []models.Category{
			{Name: "Homework", Weight: 40, Assignments: []string{"H1"}},
			{Name: "Exams", Weight: 60, Assignments: []string{"E1"}},
		},
		GradingScale:     simpleScale(),
		PassingThreshold: 60,
	}

	first, err := svc.Calculate(testGradebook(columns, students...), cfg)
	require.NoError(t, err)
	second, err := svc.Calculate(testGradebook(columns, students...), cfg)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, firstJSON, secondJSON)
}

func TestCalculatePreservesStudentOrder(t *testing.T) {
	svc := newTestGradingService()
	columns := []models.AssignmentColumn{{Name: "E1", PointsPossible: 100}}
	students := []models.Student{
		{ID: "3", Name: "Carol", Scores: map[string]*float64{"E1": floatPtr(70)}},
		{ID: "1", Name: "Alice", Scores: map[string]*float64{"E1": floatPtr(91)}},
		{ID: "2", Name: "Bob", Scores: map[string]*float64{"E1": floatPtr(85)}},
	}
	cfg := models.CalcConfig{
		Categories:       []models.Category{{Name: "Exams", Weight: 100, Assignments: []string{"E1"}}},
		GradingScale:     simpleScale(),
		PassingThreshold: 60,
	}

	report, err := svc.Calculate(testGradebook(columns, students...), cfg)
	require.NoError(t, err)
	require.Len(t, report.Results, 3)
	assert.Equal(t, "3", report.Results[0].StudentID)
	assert.Equal(t, "1", report.Results[1].StudentID)
	assert.Equal(t, "2", report.Results[2].StudentID)
}

func TestSummaryStatistics(t *testing.T) {
	svc := newTestGradingService()
	columns := []models.AssignmentColumn{{Name: "E1", PointsPossible: 100}}
	students := []models.Student{
		{ID: "1", Name: "Alice", Scores: map[string]*float64{"E1": floatPtr(91)}},
		{ID: "2", Name: "Bob", Scores: map[string]*float64{"E1": floatPtr(85)}},
		{ID: "3", Name: "Carol", Scores: map[string]*float64{"E1": floatPtr(70)}},
	}
	cfg := models.CalcConfig{
		Categories:       []models.Category{{Name: "Exams", Weight: 100, Assignments: []string{"E1"}}},
		GradingScale:     simpleScale(),
		PassingThreshold: 75,
	}

	report, err := svc.Calculate(testGradebook(columns, students...), cfg)
	require.NoError(t, err)

	summary := report.Summary
	assert.Equal(t, 3, summary.TotalStudents)
	assert.Equal(t, map[string]int{"A": 1, "B": 1, "C": 1}, summary.GradeDistribution)
	assert.InDelta(t, 82.0, summary.Average, 1e-9)
	assert.InDelta(t, 85.0, summary.Median, 1e-9)
	assert.InDelta(t, 8.8317608, summary.StdDev, 1e-6)
	// All counts tie at one; the highest grade in scale order wins.
	assert.Equal(t, "A", summary.Mode)
	assert.Equal(t, 2, summary.PassingCount)
	assert.Equal(t, 1, summary.FailingCount)
}

func TestCalculateEmptyRoster(t *testing.T) {
	svc := newTestGradingService()
	gb := testGradebook([]models.AssignmentColumn{{Name: "E1", PointsPossible: 100}})
	cfg := models.CalcConfig{
		Categories:       []models.Category{{Name: "Exams", Weight: 100, Assignments: []string{"E1"}}},
		GradingScale:     simpleScale(),
		PassingThreshold: 60,
	}

	report, err := svc.Calculate(gb, cfg)
	require.NoError(t, err)
	assert.Empty(t, report.Results)
	assert.Equal(t, 0, report.Summary.TotalStudents)
	assert.Equal(t, 0.0, report.Summary.Average)
	assert.Equal(t, 0.0, report.Summary.StdDev)
	assert.Empty(t, report.Summary.Mode)
}

func TestAssignmentOwners(t *testing.T) {
	owners := AssignmentOwners([]models.Category{
		{Name: "Homework", Assignments: []string{"H1", "H2"}},
		{Name: "Exams", Assignments: []string{"E1"}},
	})
	assert.Equal(t, map[string]string{"H1": "Homework", "H2": "Homework", "E1": "Exams"}, owners)
}

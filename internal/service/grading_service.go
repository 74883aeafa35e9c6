package service

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/jlintlin/Grade-Converter/internal/models"
	appErrors "github.com/jlintlin/Grade-Converter/pkg/errors"
)

// weightTolerance absorbs accumulated floating error in weight sums.
const weightTolerance = 0.01

// GradingService computes weighted letter-grade reports from a parsed
// gradebook and a caller-supplied configuration. It is stateless and
// side-effect free: every invocation re-derives the full report from its
// inputs, so concurrent calls against different sessions need no locks.
type GradingService struct {
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGradingService constructs GradingService.
func NewGradingService(validate *validator.Validate, logger *zap.Logger) *GradingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradingService{validator: validate, logger: logger}
}

// workingScore is one gradable assignment entry for one student after
// replacement resolution.
type workingScore struct {
	name     string
	raw      float64
	possible float64
	percent  float64
}

// scaleStep is one letter threshold, held in descending-threshold order.
type scaleStep struct {
	letter string
	min    float64
}

// Calculate produces the full grade report for a gradebook under the
// given configuration. Configuration errors are reported before any
// per-student computation runs; per-student data problems (missing
// scores, zero-point columns) degrade to defined numeric answers and
// never abort the batch.
func (s *GradingService) Calculate(gb *models.Gradebook, cfg models.CalcConfig) (*models.GradeReport, error) {
	if gb == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "gradebook required")
	}
	if err := s.validator.Struct(cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grading configuration")
	}
	columns := gb.GradableColumns()
	owners := AssignmentOwners(cfg.Categories)
	if err := validateConfig(cfg, columns, owners); err != nil {
		return nil, err
	}
	scale := sortScale(cfg.GradingScale)

	results := make([]models.StudentResult, 0, len(gb.Students))
	for _, student := range gb.Students {
		results = append(results, scoreStudent(student, cfg, columns, owners, scale))
	}

	return &models.GradeReport{
		Results: results,
		Summary: summarize(results, scale, cfg.PassingThreshold),
	}, nil
}

// AssignmentOwners derives the assignment-to-category mapping from the
// category list. It is recomputed on demand rather than kept as shared
// mutable state.
func AssignmentOwners(categories []models.Category) map[string]string {
	owners := make(map[string]string)
	for _, cat := range categories {
		for _, name := range cat.Assignments {
			if _, ok := owners[name]; !ok {
				owners[name] = cat.Name
			}
		}
	}
	return owners
}

func validateConfig(cfg models.CalcConfig, columns map[string]models.AssignmentColumn, owners map[string]string) error {
	seen := make(map[string]bool, len(cfg.Categories))
	totalWeight := 0.0
	claimed := make(map[string]string)
	for _, cat := range cfg.Categories {
		if seen[cat.Name] {
			return appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("duplicate category name %q", cat.Name))
		}
		seen[cat.Name] = true
		if !cat.ExtraCredit {
			totalWeight += cat.Weight
		}
		for _, name := range cat.Assignments {
			if _, ok := columns[name]; !ok {
				return appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("category %q references unknown assignment %q", cat.Name, name))
			}
			if prev, dup := claimed[name]; dup {
				return appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("assignment %q belongs to both %q and %q", name, prev, cat.Name))
			}
			claimed[name] = cat.Name
		}
	}
	if math.Abs(totalWeight-100) > weightTolerance {
		return appErrors.Clone(appErrors.ErrInvalidWeights, fmt.Sprintf("category weights must sum to 100%% (currently %.2f%%)", totalWeight))
	}
	for replacer, targets := range cfg.ReplacementRules {
		if _, ok := columns[replacer]; !ok {
			return appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("replacement rule references unknown assignment %q", replacer))
		}
		// Replacers come from the unassigned pool; a replacer inside a
		// scored category is rejected rather than given an implicit
		// precedence.
		if cat, scored := owners[replacer]; scored {
			return appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("replacement source %q must stay unassigned but belongs to category %q", replacer, cat))
		}
		for _, target := range targets {
			if _, ok := columns[target]; !ok {
				return appErrors.Clone(appErrors.ErrConfiguration, fmt.Sprintf("replacement rule %q references unknown assignment %q", replacer, target))
			}
		}
	}
	hasBottom := false
	for _, min := range cfg.GradingScale {
		if min <= 0 {
			hasBottom = true
			break
		}
	}
	if !hasBottom {
		return appErrors.Clone(appErrors.ErrConfiguration, "grading scale requires a catch-all bottom grade with threshold 0")
	}
	return nil
}

func scoreStudent(student models.Student, cfg models.CalcConfig, columns map[string]models.AssignmentColumn, owners map[string]string, scale []scaleStep) models.StudentResult {
	working, replacements := resolveReplacements(student, cfg.ReplacementRules, columns, owners)

	result := models.StudentResult{
		StudentID:       student.ID,
		StudentName:     student.Name,
		SISUserID:       student.SISUserID,
		CategoryScores:  make(map[string]float64, len(cfg.Categories)),
		ReplacementInfo: replacements,
	}

	base := 0.0
	extra := 0.0
	for _, cat := range cfg.Categories {
		score := categoryScore(cat, working)
		result.CategoryScores[cat.Name] = score
		if cat.ExtraCredit {
			extra += score * cat.Weight / 100
		} else {
			base += score * cat.Weight / 100
		}
	}
	// The base is never clamped; only the extra-credit contribution is
	// capped before addition.
	if cfg.ExtraCreditEnabled && extra > 0 {
		base += math.Min(extra, cfg.MaxExtraCreditPercent)
	}

	result.FinalPercentage = base
	result.LetterGrade = letterFor(base, scale)
	return result
}

// assignmentScore computes the percentage entry for one assignment, or
// nil when the student has no usable data for it. A missing score or a
// non-positive points-possible excludes the assignment entirely; it is
// never treated as a zero.
func assignmentScore(student models.Student, col models.AssignmentColumn) *workingScore {
	if col.PointsPossible <= 0 {
		return nil
	}
	raw, ok := student.Scores[col.Name]
	if !ok || raw == nil {
		return nil
	}
	return &workingScore{
		name:     col.Name,
		raw:      *raw,
		possible: col.PointsPossible,
		percent:  *raw / col.PointsPossible * 100,
	}
}

// resolveReplacements builds the student's working score set and applies
// each replacement rule at most once: the lowest-scoring target with
// data is substituted with the replacer's raw and possible points when
// the replacer's percentage is strictly greater. Rules are applied in
// sorted replacer order for determinism.
func resolveReplacements(student models.Student, rules models.ReplacementRules, columns map[string]models.AssignmentColumn, owners map[string]string) (map[string]workingScore, []models.ReplacementInfo) {
	working := make(map[string]workingScore, len(columns))
	for name, col := range columns {
		if ws := assignmentScore(student, col); ws != nil {
			working[name] = *ws
		}
	}
	if len(rules) == 0 {
		return working, nil
	}

	replacers := make([]string, 0, len(rules))
	for replacer := range rules {
		replacers = append(replacers, replacer)
	}
	sort.Strings(replacers)

	var infos []models.ReplacementInfo
	for _, replacer := range replacers {
		source, ok := working[replacer]
		if !ok {
			continue
		}
		found := false
		var lowest workingScore
		for _, target := range rules[replacer] {
			ws, ok := working[target]
			if !ok {
				continue
			}
			if !found || ws.percent < lowest.percent {
				lowest = ws
				found = true
			}
		}
		if !found || source.percent <= lowest.percent {
			continue
		}
		working[lowest.name] = workingScore{
			name:     lowest.name,
			raw:      source.raw,
			possible: source.possible,
			percent:  source.percent,
		}
		infos = append(infos, models.ReplacementInfo{
			Replaced:      lowest.name,
			Replacer:      replacer,
			OriginalScore: lowest.percent,
			NewScore:      source.percent,
			Improvement:   source.percent - lowest.percent,
			Category:      owners[lowest.name],
		})
	}
	return working, infos
}

// categoryScore aggregates one category for one student: drop-lowest by
// percentage (never emptying a non-empty set, ties dropped in
// assignment-list order), then total raw over total possible. A student
// with no gradable work in the category scores 0; the category's weight
// still applies.
func categoryScore(cat models.Category, working map[string]workingScore) float64 {
	entries := make([]workingScore, 0, len(cat.Assignments))
	for _, name := range cat.Assignments {
		if ws, ok := working[name]; ok {
			entries = append(entries, ws)
		}
	}
	if len(entries) == 0 {
		return 0
	}
	if cat.DropLowest > 0 && len(entries) > 1 {
		drop := cat.DropLowest
		if drop > len(entries)-1 {
			drop = len(entries) - 1
		}
		sort.SliceStable(entries, func(i, j int) bool { return entries[i].percent < entries[j].percent })
		entries = entries[drop:]
	}
	var raw, possible float64
	for _, entry := range entries {
		raw += entry.raw
		possible += entry.possible
	}
	if possible <= 0 {
		return 0
	}
	return raw / possible * 100
}

// sortScale orders thresholds descending; equal thresholds tie-break on
// the label so the scan order is deterministic.
func sortScale(scale models.GradingScale) []scaleStep {
	steps := make([]scaleStep, 0, len(scale))
	for letter, min := range scale {
		steps = append(steps, scaleStep{letter: letter, min: min})
	}
	sort.Slice(steps, func(i, j int) bool {
		if steps[i].min == steps[j].min {
			return steps[i].letter < steps[j].letter
		}
		return steps[i].min > steps[j].min
	})
	return steps
}

func letterFor(final float64, scale []scaleStep) string {
	for _, step := range scale {
		if final >= step.min {
			return step.letter
		}
	}
	// validateConfig guarantees a threshold <= 0 exists.
	return scale[len(scale)-1].letter
}

func summarize(results []models.StudentResult, scale []scaleStep, passingThreshold float64) models.ReportSummary {
	summary := models.ReportSummary{
		TotalStudents:     len(results),
		GradeDistribution: make(map[string]int),
	}
	if len(results) == 0 {
		return summary
	}

	finals := make([]float64, 0, len(results))
	for _, result := range results {
		summary.GradeDistribution[result.LetterGrade]++
		finals = append(finals, result.FinalPercentage)
		if result.FinalPercentage >= passingThreshold {
			summary.PassingCount++
		} else {
			summary.FailingCount++
		}
	}

	summary.Average = mean(finals)
	summary.Median = median(finals)
	summary.StdDev = stdDev(finals, summary.Average)

	// Mode ties resolve to the higher grade in scale order.
	best := 0
	for _, step := range scale {
		if count := summary.GradeDistribution[step.letter]; count > best {
			best = count
			summary.Mode = step.letter
		}
	}
	return summary
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func median(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}

// stdDev is the population standard deviation.
func stdDev(values []float64, avg float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		diff := v - avg
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(values)))
}

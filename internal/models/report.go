package models

// ReplacementInfo records one applied score substitution for a student.
type ReplacementInfo struct {
	Replaced      string  `json:"replaced"`
	Replacer      string  `json:"replacer"`
	OriginalScore float64 `json:"original_score"`
	NewScore      float64 `json:"new_score"`
	Improvement   float64 `json:"improvement"`
	Category      string  `json:"category,omitempty"`
}

// StudentResult holds the computed grades for one student. Percentages
// are kept at full precision; rounding belongs to display and export.
type StudentResult struct {
	StudentID       string             `json:"student_id"`
	StudentName     string             `json:"student_name"`
	SISUserID       string             `json:"sis_user_id,omitempty"`
	CategoryScores  map[string]float64 `json:"category_scores"`
	FinalPercentage float64            `json:"final_percentage"`
	LetterGrade     string             `json:"letter_grade"`
	ReplacementInfo []ReplacementInfo  `json:"replacement_info,omitempty"`
}

// ReportSummary aggregates class-level statistics over final percentages
// and letter grades.
type ReportSummary struct {
	TotalStudents     int            `json:"total_students"`
	GradeDistribution map[string]int `json:"grade_distribution"`
	Average           float64        `json:"average"`
	Median            float64        `json:"median"`
	Mode              string         `json:"mode,omitempty"`
	StdDev            float64        `json:"std_dev"`
	PassingCount      int            `json:"passing_count"`
	FailingCount      int            `json:"failing_count"`
}

// GradeReport is the complete computed output for one gradebook and one
// configuration. Results preserve the input student order.
type GradeReport struct {
	Results []StudentResult `json:"results"`
	Summary ReportSummary   `json:"summary"`
}

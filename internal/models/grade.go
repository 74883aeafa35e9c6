package models

// Category is a weighted grouping of assignment columns.
type Category struct {
	Name        string   `json:"name" validate:"required"`
	Weight      float64  `json:"weight" validate:"gte=0"`
	DropLowest  int      `json:"drop_lowest" validate:"gte=0"`
	Assignments []string `json:"assignments"`
	ExtraCredit bool     `json:"extra_credit"`
}

// GradingScale maps a letter-grade label to its minimum percentage.
// Thresholds above 100 are legal and represent grades reachable only
// through extra credit.
type GradingScale map[string]float64

// ReplacementRules maps a replacer assignment name to the target
// assignment names whose lowest score it may substitute.
type ReplacementRules map[string][]string

// CalcConfig is the caller-supplied grading configuration for one
// calculate or export invocation. It is rebuilt on every request; the
// engine never retains it between calls.
type CalcConfig struct {
	Categories            []Category       `json:"categories" validate:"required,min=1,dive"`
	GradingScale          GradingScale     `json:"grading_scale" validate:"required,min=1"`
	ReplacementRules      ReplacementRules `json:"replacement_rules,omitempty"`
	ExtraCreditEnabled    bool             `json:"extra_credit_enabled"`
	MaxExtraCreditPercent float64          `json:"max_extra_credit_percent" validate:"gte=0"`
	PassingThreshold      float64          `json:"passing_threshold" validate:"gte=0"`
}

// DefaultGradingScale is the standard A-F scale offered as a starting
// point for customisation.
var DefaultGradingScale = GradingScale{
	"A":  90.0,
	"A-": 87.0,
	"B+": 84.0,
	"B":  80.0,
	"B-": 77.0,
	"C+": 74.0,
	"C":  70.0,
	"C-": 67.0,
	"D+": 64.0,
	"D":  61.0,
	"D-": 57.0,
	"F":  0.0,
}

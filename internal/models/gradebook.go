package models

// Student is one row of the uploaded gradebook. Scores maps an assignment
// column name to the raw score; a nil entry means the assignment was not
// graded for this student.
type Student struct {
	ID        string              `json:"id"`
	Name      string              `json:"name"`
	SISUserID string              `json:"sis_user_id,omitempty"`
	Section   string              `json:"section,omitempty"`
	Scores    map[string]*float64 `json:"scores"`
}

// AssignmentColumn describes one gradable column of the upload.
// A column with PointsPossible <= 0 never contributes to percentages.
type AssignmentColumn struct {
	Name           string  `json:"name"`
	PointsPossible float64 `json:"points_possible"`
	ReadOnly       bool    `json:"read_only"`
}

// Gradebook is the parsed, validated representation of a Canvas export.
// It is built once at upload time and treated as read-only afterwards.
type Gradebook struct {
	Students          []Student          `json:"students"`
	AssignmentColumns []AssignmentColumn `json:"assignment_columns"`
	ReadOnlyColumns   []string           `json:"read_only_columns,omitempty"`
	MetadataColumns   []string           `json:"metadata_columns"`
	Sections          []string           `json:"sections,omitempty"`
	Filename          string             `json:"filename,omitempty"`
	RowCount          int                `json:"row_count"`
}

// GradableColumns returns the assignment columns usable for computation,
// keyed by name. Read-only summary columns are excluded.
func (g *Gradebook) GradableColumns() map[string]AssignmentColumn {
	columns := make(map[string]AssignmentColumn, len(g.AssignmentColumns))
	for _, col := range g.AssignmentColumns {
		if col.ReadOnly {
			continue
		}
		columns[col.Name] = col
	}
	return columns
}

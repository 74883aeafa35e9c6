package service

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/jlintlin/Grade-Converter/internal/models"
	appErrors "github.com/jlintlin/Grade-Converter/pkg/errors"
)

// metadataColumns are the Canvas identity columns, in export order.
var metadataColumns = []string{"Student", "ID", "SIS User ID", "SIS Login ID", "Root Account", "Section"}

// readOnlyPatterns mark Canvas summary columns that must never enter a
// grade computation.
var readOnlyPatterns = []string{"Current Score", "Final Score", "Unposted", "Current Points", "Final Points"}

// ParserService turns a Canvas gradebook CSV export into a Gradebook.
//
// The Canvas layout is: header row, a posting-status row, a
// points-possible row, then one row per student.
type ParserService struct {
	logger *zap.Logger
}

// NewParserService constructs ParserService.
func NewParserService(logger *zap.Logger) *ParserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ParserService{logger: logger}
}

// Parse reads the CSV stream and builds the immutable gradebook model.
func (s *ParserService) Parse(r io.Reader, filename string) (*models.Gradebook, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".csv") {
		return nil, appErrors.Clone(appErrors.ErrUpload, "file must be a CSV")
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpload.Code, appErrors.ErrUpload.Status, "error parsing CSV")
	}
	if len(records) < 3 {
		return nil, appErrors.Clone(appErrors.ErrUpload, "CSV is missing the Canvas header rows")
	}

	header := records[0]
	columnIndex := make(map[string]int, len(header))
	for i, name := range header {
		columnIndex[strings.TrimSpace(name)] = i
	}

	metadataPresent := make([]string, 0, len(metadataColumns))
	for _, name := range metadataColumns {
		if _, ok := columnIndex[name]; ok {
			metadataPresent = append(metadataPresent, name)
		}
	}

	var assignmentNames, readOnlyNames []string
	for _, name := range header {
		name = strings.TrimSpace(name)
		if name == "" || isMetadataColumn(name) {
			continue
		}
		if isReadOnlyColumn(name) {
			readOnlyNames = append(readOnlyNames, name)
		} else {
			assignmentNames = append(assignmentNames, name)
		}
	}

	pointsRow := records[2]
	columns := make([]models.AssignmentColumn, 0, len(assignmentNames)+len(readOnlyNames))
	for _, name := range assignmentNames {
		points := 0.0
		if idx := columnIndex[name]; idx < len(pointsRow) {
			if parsed, ok := parseNumber(pointsRow[idx]); ok {
				points = parsed
			}
		}
		columns = append(columns, models.AssignmentColumn{Name: name, PointsPossible: points})
	}
	for _, name := range readOnlyNames {
		columns = append(columns, models.AssignmentColumn{Name: name, ReadOnly: true})
	}

	students := make([]models.Student, 0, len(records)-3)
	seenSections := make(map[string]bool)
	var sections []string
	for _, row := range records[3:] {
		if isBlankRow(row) {
			continue
		}
		student := models.Student{
			Name:      cell(row, columnIndex, "Student"),
			ID:        cell(row, columnIndex, "ID"),
			SISUserID: cell(row, columnIndex, "SIS User ID"),
			Section:   cell(row, columnIndex, "Section"),
			Scores:    make(map[string]*float64, len(assignmentNames)),
		}
		for _, name := range assignmentNames {
			idx := columnIndex[name]
			if idx >= len(row) {
				continue
			}
			if score, ok := parseNumber(row[idx]); ok {
				value := score
				student.Scores[name] = &value
			}
		}
		if student.Section != "" && !seenSections[student.Section] {
			seenSections[student.Section] = true
			sections = append(sections, student.Section)
		}
		students = append(students, student)
	}

	gb := &models.Gradebook{
		Students:          students,
		AssignmentColumns: columns,
		ReadOnlyColumns:   readOnlyNames,
		MetadataColumns:   metadataPresent,
		Sections:          sections,
		Filename:          filename,
		RowCount:          len(students),
	}
	s.logger.Info("gradebook parsed",
		zap.String("filename", filename),
		zap.Int("students", len(students)),
		zap.Int("assignments", len(assignmentNames)),
		zap.Int("read_only_columns", len(readOnlyNames)),
	)
	return gb, nil
}

func isMetadataColumn(name string) bool {
	for _, meta := range metadataColumns {
		if name == meta {
			return true
		}
	}
	return false
}

func isReadOnlyColumn(name string) bool {
	for _, pattern := range readOnlyPatterns {
		if strings.Contains(name, pattern) {
			return true
		}
	}
	return false
}

// parseNumber reads a Canvas numeric cell. Blank or non-numeric cells
// yield no value; thousands separators are tolerated.
func parseNumber(raw string) (float64, bool) {
	raw = strings.TrimSpace(strings.ReplaceAll(raw, ",", ""))
	if raw == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

func cell(row []string, columnIndex map[string]int, name string) string {
	idx, ok := columnIndex[name]
	if !ok || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlankRow(row []string) bool {
	for _, value := range row {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}

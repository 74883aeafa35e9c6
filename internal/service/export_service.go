package service

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jlintlin/Grade-Converter/internal/models"
	appErrors "github.com/jlintlin/Grade-Converter/pkg/errors"
	"github.com/jlintlin/Grade-Converter/pkg/export"
)

// Export formats accepted by the export endpoint.
const (
	ExportFormatCSV = "csv"
	ExportFormatPDF = "pdf"
)

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportFile is a rendered report ready to stream to the client. Files
// are built in memory and never touch disk.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ExportService renders grade reports into downloadable files.
type ExportService struct {
	csv    csvRenderer
	pdf    pdfRenderer
	logger *zap.Logger
	now    func() time.Time
}

// NewExportService constructs an ExportService.
func NewExportService(csv csvRenderer, pdf pdfRenderer, logger *zap.Logger) *ExportService {
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{csv: csv, pdf: pdf, logger: logger, now: time.Now}
}

// Generate renders the report in the requested format. Percentages are
// rounded to one decimal here; the report itself stays full precision.
func (s *ExportService) Generate(report *models.GradeReport, categories []models.Category, format string) (*ExportFile, error) {
	if report == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "report required")
	}
	dataset := BuildDataset(report, categories)
	stamp := s.now().Format("20060102_150405")

	switch format {
	case ExportFormatCSV, "":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render CSV")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("grades_export_%s.csv", stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	case ExportFormatPDF:
		data, err := s.pdf.Render(dataset, "Grade Report")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render PDF")
		}
		return &ExportFile{
			Filename:    fmt.Sprintf("grades_export_%s.pdf", stamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

// BuildDataset flattens a grade report into tabular form: identity
// columns, one column per configured category, final percentage and
// letter grade.
func BuildDataset(report *models.GradeReport, categories []models.Category) export.Dataset {
	headers := []string{"Student", "ID", "SIS User ID"}
	for _, cat := range categories {
		headers = append(headers, cat.Name)
	}
	headers = append(headers, "Final %", "Letter Grade")

	rows := make([][]string, 0, len(report.Results))
	for _, result := range report.Results {
		row := []string{result.StudentName, result.StudentID, result.SISUserID}
		for _, cat := range categories {
			row = append(row, formatPercent(result.CategoryScores[cat.Name]))
		}
		row = append(row, formatPercent(result.FinalPercentage), result.LetterGrade)
		rows = append(rows, row)
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func formatPercent(value float64) string {
	return fmt.Sprintf("%.1f", value)
}

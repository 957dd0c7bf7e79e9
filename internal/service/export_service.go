package service

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/Anjo-Erinjery/Attendance-sub000/internal/models"
	appErrors "github.com/Anjo-Erinjery/Attendance-sub000/pkg/errors"
	"github.com/Anjo-Erinjery/Attendance-sub000/pkg/export"
)

// ExportFormat is a supported download format.
type ExportFormat string

const (
	ExportFormatCSV  ExportFormat = "csv"
	ExportFormatPDF  ExportFormat = "pdf"
	ExportFormatXLSX ExportFormat = "xlsx"
)

var exportContentTypes = map[ExportFormat]string{
	ExportFormatCSV:  "text/csv; charset=utf-8",
	ExportFormatPDF:  "application/pdf",
	ExportFormatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

const arrivalLayout = "2006-01-02 15:04"

// exportColumn renders one table column from an aggregate row.
type exportColumn struct {
	header string
	value  func(row models.AggregateRow, loc *time.Location) string
}

var (
	studentColumn    = exportColumn{"Student", func(r models.AggregateRow, _ *time.Location) string { return r.StudentName }}
	departmentColumn = exportColumn{"Department", func(r models.AggregateRow, _ *time.Location) string { return r.Department }}
	batchColumn      = exportColumn{"Batch", func(r models.AggregateRow, _ *time.Location) string { return r.Batch }}
	levelColumn      = exportColumn{"Level", func(r models.AggregateRow, _ *time.Location) string { return r.Level.Label() }}
	groupColumn      = exportColumn{"Group", func(r models.AggregateRow, _ *time.Location) string { return r.Group }}
	lateCountColumn  = exportColumn{"Late Count", func(r models.AggregateRow, _ *time.Location) string { return strconv.Itoa(r.LateCount) }}
	arrivalColumn    = exportColumn{"Arrival Time", func(r models.AggregateRow, loc *time.Location) string {
		if r.LastArrivalTime == nil {
			return ""
		}
		return r.LastArrivalTime.In(loc).Format(arrivalLayout)
	}}
	allTimeColumn = exportColumn{"All-Time Count", func(r models.AggregateRow, _ *time.Location) string {
		if r.AllTimeCount == nil {
			return ""
		}
		return strconv.Itoa(*r.AllTimeCount)
	}}
)

// columnsFor picks the table layout of a summary view.
func columnsFor(view models.SummaryMode, result models.AggregateResult) []exportColumn {
	switch view {
	case models.SummaryPerStudentLatest:
		return []exportColumn{studentColumn, departmentColumn, batchColumn, levelColumn, arrivalColumn}
	case models.SummaryPerGroupCount:
		return []exportColumn{groupColumn, lateCountColumn}
	}
	columns := []exportColumn{studentColumn, departmentColumn, batchColumn, levelColumn, lateCountColumn}
	if len(result.Rows) > 0 && result.Rows[0].AllTimeCount != nil {
		columns = append(columns, allTimeColumn)
	}
	return columns
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

type datasetRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportService renders aggregated late-arrival tables into downloadable files.
type ExportService struct {
	renderers map[ExportFormat]datasetRenderer
	loc       *time.Location
	logger    *zap.Logger
	now       func() time.Time
}

// NewExportService constructs an ExportService with the CSV, PDF and XLSX renderers.
func NewExportService(loc *time.Location, logger *zap.Logger) *ExportService {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		renderers: map[ExportFormat]datasetRenderer{
			ExportFormatCSV:  export.NewCSVExporter(true),
			ExportFormatPDF:  export.NewPDFExporter(),
			ExportFormatXLSX: export.NewXLSXExporter(),
		},
		loc:    loc,
		logger: logger,
		now:    time.Now,
	}
}

// ParseExportFormat maps a query value to a format, defaulting to CSV.
func ParseExportFormat(raw string) (ExportFormat, error) {
	format := ExportFormat(strings.ToLower(strings.TrimSpace(raw)))
	if format == "" {
		return ExportFormatCSV, nil
	}
	if _, ok := exportContentTypes[format]; !ok {
		return "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", raw))
	}
	return format, nil
}

// Render writes the table rows of result in the requested format.
func (s *ExportService) Render(result models.AggregateResult, view models.SummaryMode, title string, format ExportFormat) (*ExportFile, error) {
	renderer, ok := s.renderers[format]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}

	dataset := s.buildDataset(result, view, title)
	payload, err := renderer.Render(dataset)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	s.logger.Debug("export rendered", zap.String("format", string(format)), zap.Int("rows", len(dataset.Rows)), zap.Int("bytes", len(payload)))

	return &ExportFile{
		Filename:    s.buildFilename(title, format),
		ContentType: exportContentTypes[format],
		Payload:     payload,
	}, nil
}

func (s *ExportService) buildDataset(result models.AggregateResult, view models.SummaryMode, title string) export.Dataset {
	columns := columnsFor(view, result)
	headers := make([]string, len(columns))
	for i, column := range columns {
		headers[i] = column.header
	}
	rows := make([][]string, len(result.Rows))
	for i, row := range result.Rows {
		values := make([]string, len(columns))
		for j, column := range columns {
			values[j] = column.value(row, s.loc)
		}
		rows[i] = values
	}
	return export.Dataset{
		Title:    title,
		Subtitle: fmt.Sprintf("Generated %s, %d rows", s.now().In(s.loc).Format("2006-01-02 15:04 MST"), len(rows)),
		Headers:  headers,
		Rows:     rows,
	}
}

func (s *ExportService) buildFilename(title string, format ExportFormat) string {
	timestamp := s.now().In(s.loc).Format("20060102_150405")
	return fmt.Sprintf("%s_%s.%s", sanitizeFilename(strings.ToLower(title)), timestamp, format)
}

const maxFilenameBytes = 100

func sanitizeFilename(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return "late_arrivals"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "\"", "", "..", ".")
	result := replacer.Replace(strings.TrimSpace(raw))
	for strings.Contains(result, "__") {
		result = strings.ReplaceAll(result, "__", "_")
	}
	if len(result) <= maxFilenameBytes {
		return result
	}
	cut := maxFilenameBytes
	for cut > 0 && !utf8.RuneStart(result[cut]) {
		cut--
	}
	return result[:cut]
}

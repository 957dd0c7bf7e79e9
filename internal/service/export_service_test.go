package service

import (
	"bytes"
	"encoding/csv"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Anjo-Erinjery/Attendance-sub000/internal/models"
	appErrors "github.com/Anjo-Erinjery/Attendance-sub000/pkg/errors"
)

func newExportServiceForTest() *ExportService {
	svc := NewExportService(ist, nil)
	svc.now = func() time.Time { return time.Date(2024, 11, 10, 11, 30, 0, 0, ist) }
	return svc
}

func readCSV(t *testing.T, payload []byte) [][]string {
	t.Helper()
	require.True(t, bytes.HasPrefix(payload, []byte("\xef\xbb\xbf")), "csv exports start with a BOM")
	records, err := csv.NewReader(bytes.NewReader(payload[3:])).ReadAll()
	require.NoError(t, err)
	return records
}

func TestParseExportFormat(t *testing.T) {
	format, err := ParseExportFormat("")
	require.NoError(t, err)
	assert.Equal(t, ExportFormatCSV, format)

	format, err = ParseExportFormat(" XLSX ")
	require.NoError(t, err)
	assert.Equal(t, ExportFormatXLSX, format)

	_, err = ParseExportFormat("docx")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestExportServiceRenderLatestCSV(t *testing.T) {
	svc := newExportServiceForTest()
	arrived := time.Date(2024, 11, 10, 3, 35, 0, 0, time.UTC)
	result := models.AggregateResult{Rows: []models.AggregateRow{
		{StudentName: "Asha", Department: "CSE", Batch: "U5DS2024", Level: models.LevelUG, LastArrivalTime: &arrived, LateCount: 1},
		{StudentName: "Bala", Department: "ECE", LastArrivalTime: &arrived, LateCount: 1},
	}}

	file, err := svc.Render(result, models.SummaryPerStudentLatest, "Late Arrivals Today", ExportFormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "late_arrivals_today_20241110_113000.csv", file.Filename)
	assert.Equal(t, "text/csv; charset=utf-8", file.ContentType)

	records := readCSV(t, file.Payload)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Student", "Department", "Batch", "Level", "Arrival Time"}, records[0])
	assert.Equal(t, []string{"Asha", "CSE", "U5DS2024", "UG", "2024-11-10 09:05"}, records[1])
	assert.Equal(t, "UNKNOWN", records[2][3])
}

func TestExportServiceRenderCountsWithAllTime(t *testing.T) {
	svc := newExportServiceForTest()
	total := 7
	result := models.AggregateResult{Rows: []models.AggregateRow{
		{StudentName: "Asha", Department: "CSE", Level: models.LevelPG, LateCount: 3, AllTimeCount: &total},
	}}

	file, err := svc.Render(result, models.SummaryPerStudentCount, "Weekly", ExportFormatCSV)
	require.NoError(t, err)
	records := readCSV(t, file.Payload)
	assert.Equal(t, []string{"Student", "Department", "Batch", "Level", "Late Count", "All-Time Count"}, records[0])
	assert.Equal(t, []string{"Asha", "CSE", "", "PG", "3", "7"}, records[1])
}

func TestExportServiceRenderGroupsXLSX(t *testing.T) {
	svc := newExportServiceForTest()
	result := models.AggregateResult{Rows: []models.AggregateRow{
		{Group: "CSE", LateCount: 4},
		{Group: "ECE", LateCount: 2},
	}}

	file, err := svc.Render(result, models.SummaryPerGroupCount, "By Department", ExportFormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "by_department_20241110_113000.xlsx", file.Filename)

	book, err := excelize.OpenReader(bytes.NewReader(file.Payload))
	require.NoError(t, err)
	defer book.Close()
	rows, err := book.GetRows(book.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Group", "Late Count"}, rows[0])
	assert.Equal(t, []string{"CSE", "4"}, rows[1])
}

func TestExportServiceRenderPDF(t *testing.T) {
	svc := newExportServiceForTest()
	file, err := svc.Render(models.AggregateResult{}, models.SummaryPerStudentCount, "", ExportFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", file.ContentType)
	assert.True(t, bytes.HasPrefix(file.Payload, []byte("%PDF")))
	assert.Equal(t, "late_arrivals_20241110_113000.pdf", file.Filename)
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := newExportServiceForTest()
	_, err := svc.Render(models.AggregateResult{}, models.SummaryPerStudentCount, "x", ExportFormat("docx"))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
}

func TestSanitizeFilenameTrimsOnRuneBoundary(t *testing.T) {
	title := "D" + strings.Repeat("é", 60)

	name := sanitizeFilename(title)

	assert.LessOrEqual(t, len(name), maxFilenameBytes)
	assert.True(t, utf8.ValidString(name), "name %q", name)
	assert.Equal(t, "D"+strings.Repeat("é", 49), name)
}

func TestSanitizeFilenameKeepsShortNames(t *testing.T) {
	assert.Equal(t, "late_arrivals_cse", sanitizeFilename("late arrivals  cse"))
	assert.Equal(t, "late_arrivals", sanitizeFilename("   "))
}

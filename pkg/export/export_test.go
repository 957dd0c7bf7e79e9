package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleDataset() Dataset {
	return Dataset{
		Title:    "Late Arrivals: CSE",
		Subtitle: "Generated 2024-11-10 11:30",
		Headers:  []string{"Student", "Late Count"},
		Rows: [][]string{
			{"Anu", "3"},
			{"Binu"},
		},
	}
}

func TestCSVExporterPadsShortRows(t *testing.T) {
	payload, err := NewCSVExporter(false).Render(sampleDataset())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(payload)).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Student", "Late Count"}, {"Anu", "3"}, {"Binu", ""}}, records)
}

func TestCSVExporterWritesBOM(t *testing.T) {
	payload, err := NewCSVExporter(true).Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, utf8BOM))
	assert.True(t, bytes.HasPrefix(payload[len(utf8BOM):], []byte("Student,Late Count\n")))
}

func TestExportersRejectMalformedDatasets(t *testing.T) {
	wide := Dataset{Headers: []string{"Student"}, Rows: [][]string{{"Anu", "3"}}}
	for name, renderer := range map[string]interface{ Render(Dataset) ([]byte, error) }{
		"csv":  NewCSVExporter(false),
		"pdf":  NewPDFExporter(),
		"xlsx": NewXLSXExporter(),
	} {
		_, err := renderer.Render(Dataset{})
		assert.Error(t, err, name)
		_, err = renderer.Render(wide)
		assert.Error(t, err, name)
	}
}

func TestPDFExporterProducesDocument(t *testing.T) {
	payload, err := NewPDFExporter().Render(sampleDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))

	empty := sampleDataset()
	empty.Rows = nil
	payload, err = NewPDFExporter().Render(empty)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}

func TestXLSXExporterRoundTrip(t *testing.T) {
	payload, err := NewXLSXExporter().Render(sampleDataset())
	require.NoError(t, err)

	file, err := excelize.OpenReader(bytes.NewReader(payload))
	require.NoError(t, err)
	defer file.Close()

	sheets := file.GetSheetList()
	require.Equal(t, []string{"Late Arrivals CSE"}, sheets)
	rows, err := file.GetRows(sheets[0])
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Student", "Late Count"}, rows[0])
	assert.Equal(t, []string{"Anu", "3"}, rows[1])
	assert.Equal(t, "Binu", rows[2][0])
}

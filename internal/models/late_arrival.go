package models

import (
	"strings"
	"time"
)

// AcademicLevel flags undergraduate or postgraduate students. The empty value means unknown.
type AcademicLevel string

const (
	LevelUG      AcademicLevel = "UG"
	LevelPG      AcademicLevel = "PG"
	LevelUnknown AcademicLevel = ""
)

// UnknownGroupLabel names the group of records without an academic level.
const UnknownGroupLabel = "UNKNOWN"

// ParseAcademicLevel normalises loosely formatted level values.
func ParseAcademicLevel(raw string) AcademicLevel {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "UG", "UNDERGRADUATE", "BTECH", "B.TECH":
		return LevelUG
	case "PG", "POSTGRADUATE", "MTECH", "M.TECH", "MCA", "MBA":
		return LevelPG
	default:
		return LevelUnknown
	}
}

// Label returns the display label, mapping the unknown level to UNKNOWN.
func (l AcademicLevel) Label() string {
	if l == LevelUnknown {
		return UnknownGroupLabel
	}
	return string(l)
}

// LateArrivalRecord is one timestamped late arrival of a student.
// A zero Timestamp marks a source value that could not be parsed.
type LateArrivalRecord struct {
	StudentName string        `db:"student_name" json:"student_name"`
	Department  string        `db:"department" json:"department"`
	Batch       string        `db:"batch" json:"batch"`
	Level       AcademicLevel `db:"level" json:"level,omitempty"`
	Timestamp   time.Time     `db:"arrived_at" json:"timestamp"`
}

// HasTimestamp reports whether the record carries a usable arrival time.
func (r LateArrivalRecord) HasTimestamp() bool {
	return !r.Timestamp.IsZero()
}

// LateArrivalQuery scopes record retrieval at the source.
type LateArrivalQuery struct {
	Department string
	Token      string
}

// FilterMode selects the date window applied to late-arrival records.
type FilterMode string

const (
	FilterToday        FilterMode = "today"
	FilterSpecificDate FilterMode = "specific_date"
	FilterWeekly       FilterMode = "weekly"
	FilterMonthly      FilterMode = "monthly"
	FilterDateRange    FilterMode = "date_range"
	FilterAllRecords   FilterMode = "all"
)

// SingleDay reports whether the mode describes one calendar day.
func (m FilterMode) SingleDay() bool {
	return m == FilterToday || m == FilterSpecificDate
}

// AllSentinel disables the department, batch and level filters.
const AllSentinel = "All"

// FilterCriteria is the ephemeral filter state of a dashboard view.
type FilterCriteria struct {
	Mode         FilterMode
	SpecificDate *time.Time
	StartDate    *time.Time
	EndDate      *time.Time
	Department   string
	Batch        string
	Level        string
}

// SummaryMode selects how filtered records are aggregated.
type SummaryMode string

const (
	SummaryPerDayTrailing7  SummaryMode = "per_day_trailing7"
	SummaryTopOffenders     SummaryMode = "top_offenders"
	SummaryPerStudentLatest SummaryMode = "per_student_latest"
	SummaryPerStudentCount  SummaryMode = "per_student_count"
	SummaryPerGroupCount    SummaryMode = "per_group_count"
)

// GroupDimension is the attribute used by per-group counts.
type GroupDimension string

const (
	GroupByDepartment GroupDimension = "department"
	GroupByBatch      GroupDimension = "batch"
	GroupByLevel      GroupDimension = "level"
)

// DefaultTopN is the number of offenders returned when none is requested.
const DefaultTopN = 5

// SummaryRequest parameterises an aggregation. AllTime, when non-nil, feeds the
// all-time column of per-student counts.
type SummaryRequest struct {
	Mode    SummaryMode
	TopN    int
	GroupBy GroupDimension
	AllTime []LateArrivalRecord
}

// AggregateRow is one table row of an aggregation.
type AggregateRow struct {
	StudentName     string        `json:"student_name,omitempty"`
	Group           string        `json:"group,omitempty"`
	Department      string        `json:"department,omitempty"`
	Batch           string        `json:"batch,omitempty"`
	Level           AcademicLevel `json:"level,omitempty"`
	LastArrivalTime *time.Time    `json:"last_arrival_time,omitempty"`
	LateCount       int           `json:"late_count"`
	AllTimeCount    *int          `json:"all_time_count,omitempty"`
}

// ChartPoint is one bar of a chart series.
type ChartPoint struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// AggregateResult bundles table rows with a chart-ready series.
type AggregateResult struct {
	Rows        []AggregateRow `json:"rows"`
	ChartSeries []ChartPoint   `json:"chart_series"`
}

// FilterOptions lists the distinct values available for dashboard dropdowns.
type FilterOptions struct {
	Departments []string `json:"departments"`
	Batches     []string `json:"batches"`
	Levels      []string `json:"levels"`
}

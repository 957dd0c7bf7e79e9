package dto

import (
	"strings"

	"github.com/Anjo-Erinjery/Attendance-sub000/internal/models"
)

// DateLayout is the calendar date format accepted in query strings.
const DateLayout = "2006-01-02"

// LateArrivalFilterQuery captures the shared filter query parameters of the late-arrival endpoints.
type LateArrivalFilterQuery struct {
	Mode       string `form:"mode" validate:"omitempty,oneof=today specific_date weekly monthly date_range all"`
	Date       string `form:"date" validate:"omitempty,datetime=2006-01-02"`
	StartDate  string `form:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate    string `form:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Department string `form:"department" validate:"omitempty,max=64"`
	Batch      string `form:"batch" validate:"omitempty,max=64"`
	Level      string `form:"level" validate:"omitempty,oneof=UG PG UNKNOWN All"`
}

// Normalize trims every field and canonicalises the level spelling.
func (q *LateArrivalFilterQuery) Normalize() {
	q.Mode = strings.ToLower(strings.TrimSpace(q.Mode))
	q.Date = strings.TrimSpace(q.Date)
	q.StartDate = strings.TrimSpace(q.StartDate)
	q.EndDate = strings.TrimSpace(q.EndDate)
	q.Department = strings.TrimSpace(q.Department)
	q.Batch = strings.TrimSpace(q.Batch)
	level := strings.TrimSpace(q.Level)
	if strings.EqualFold(level, models.AllSentinel) {
		q.Level = models.AllSentinel
	} else {
		q.Level = strings.ToUpper(level)
	}
}

// LateArrivalSummaryQuery adds the aggregation parameters of GET /late-arrivals/summary.
type LateArrivalSummaryQuery struct {
	View    string `form:"view" validate:"omitempty,oneof=per_student_latest per_student_count per_day_trailing7 top_offenders per_group_count"`
	Top     int    `form:"top" validate:"omitempty,min=1,max=100"`
	GroupBy string `form:"group_by" validate:"omitempty,oneof=department batch level"`
}

// LateArrivalExportQuery selects the rendered file format.
type LateArrivalExportQuery struct {
	Format string `form:"format"`
}

// LateArrivalListResponse wraps the filtered records.
type LateArrivalListResponse struct {
	Records []models.LateArrivalRecord `json:"records"`
	Total   int                        `json:"total"`
}

// LateArrivalDashboardResponse is the composed HOD/Principal dashboard payload.
type LateArrivalDashboardResponse struct {
	Mode         models.FilterMode      `json:"mode"`
	Table        models.AggregateResult `json:"table"`
	TableView    models.SummaryMode     `json:"table_view"`
	Trailing7    []models.ChartPoint    `json:"trailing7"`
	TopOffenders models.AggregateResult `json:"top_offenders"`
	Totals       LateArrivalTotals      `json:"totals"`
}

// LateArrivalTotals counts the records behind a dashboard view.
type LateArrivalTotals struct {
	Records  int `json:"records"`
	Students int `json:"students"`
	AllTime  int `json:"all_time"`
}

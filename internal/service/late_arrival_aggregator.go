package service

import (
	"sort"
	"strings"
	"time"

	"github.com/Anjo-Erinjery/Attendance-sub000/internal/models"
)

const (
	trailingDays     = 7
	chartLabelLayout = "Jan 2"
	dayKeyLayout     = "2006-01-02"
)

// LateArrivalAggregator filters and summarises late-arrival records in memory.
// Every calendar-day computation happens in a single location.
type LateArrivalAggregator struct {
	loc *time.Location
	now func() time.Time
}

// NewLateArrivalAggregator constructs an aggregator evaluating calendar days in loc (UTC when nil).
func NewLateArrivalAggregator(loc *time.Location) *LateArrivalAggregator {
	if loc == nil {
		loc = time.UTC
	}
	return &LateArrivalAggregator{loc: loc, now: time.Now}
}

// Location returns the timezone used for calendar-day comparisons.
func (a *LateArrivalAggregator) Location() *time.Location {
	return a.loc
}

// Today returns local midnight of the current day.
func (a *LateArrivalAggregator) Today() time.Time {
	return a.startOfDay(a.now().In(a.loc))
}

// DeriveWindow returns the trailing window for weekly and monthly modes. Weekly covers the
// seven calendar days ending today, monthly starts on the same day one month earlier.
func (a *LateArrivalAggregator) DeriveWindow(mode models.FilterMode) (start, end *time.Time) {
	today := a.Today()
	var from time.Time
	switch mode {
	case models.FilterWeekly:
		from = today.AddDate(0, 0, -(trailingDays - 1))
	case models.FilterMonthly:
		from = today.AddDate(0, -1, 0)
	default:
		return nil, nil
	}
	return &from, &today
}

// Filter keeps the records matching every predicate of criteria. Input order is preserved
// and the input slice is never modified.
func (a *LateArrivalAggregator) Filter(records []models.LateArrivalRecord, criteria models.FilterCriteria) []models.LateArrivalRecord {
	window := a.window(criteria)
	result := make([]models.LateArrivalRecord, 0, len(records))
	for _, record := range records {
		if !window.contains(record) {
			continue
		}
		if !matchesField(record.Department, criteria.Department) ||
			!matchesField(record.Batch, criteria.Batch) ||
			!matchesField(record.Level.Label(), criteria.Level) {
			continue
		}
		result = append(result, record)
	}
	return result
}

// Summarize aggregates records according to req. It never fails; empty input yields empty
// rows and series, except the trailing series which always has seven buckets.
func (a *LateArrivalAggregator) Summarize(records []models.LateArrivalRecord, req models.SummaryRequest) models.AggregateResult {
	switch req.Mode {
	case models.SummaryPerStudentLatest:
		return models.AggregateResult{Rows: a.latestPerStudent(records), ChartSeries: []models.ChartPoint{}}
	case models.SummaryPerDayTrailing7:
		return models.AggregateResult{Rows: []models.AggregateRow{}, ChartSeries: a.trailingSeries(records)}
	case models.SummaryTopOffenders:
		n := req.TopN
		if n <= 0 {
			n = models.DefaultTopN
		}
		rows := countPerStudent(records, nil)
		if len(rows) > n {
			rows = rows[:n]
		}
		series := make([]models.ChartPoint, 0, len(rows))
		for _, row := range rows {
			series = append(series, models.ChartPoint{Label: row.StudentName, Count: row.LateCount})
		}
		return models.AggregateResult{Rows: rows, ChartSeries: series}
	case models.SummaryPerGroupCount:
		rows := countPerGroup(records, req.GroupBy)
		series := make([]models.ChartPoint, 0, len(rows))
		for _, row := range rows {
			series = append(series, models.ChartPoint{Label: row.Group, Count: row.LateCount})
		}
		return models.AggregateResult{Rows: rows, ChartSeries: series}
	default:
		return models.AggregateResult{Rows: countPerStudent(records, req.AllTime), ChartSeries: []models.ChartPoint{}}
	}
}

// Options lists the distinct departments, batches and levels present in records.
func (a *LateArrivalAggregator) Options(records []models.LateArrivalRecord) models.FilterOptions {
	departments := map[string]struct{}{}
	batches := map[string]struct{}{}
	levels := map[string]struct{}{}
	for _, record := range records {
		if dept := strings.TrimSpace(record.Department); dept != "" {
			departments[dept] = struct{}{}
		}
		if batch := strings.TrimSpace(record.Batch); batch != "" {
			batches[batch] = struct{}{}
		}
		levels[record.Level.Label()] = struct{}{}
	}
	return models.FilterOptions{
		Departments: sortedKeys(departments),
		Batches:     sortedKeys(batches),
		Levels:      sortedKeys(levels),
	}
}

type dateWindow struct {
	active bool
	from   *time.Time
	to     *time.Time
}

func (w dateWindow) contains(record models.LateArrivalRecord) bool {
	if !w.active {
		return true
	}
	if !record.HasTimestamp() {
		return false
	}
	if w.from != nil && record.Timestamp.Before(*w.from) {
		return false
	}
	if w.to != nil && record.Timestamp.After(*w.to) {
		return false
	}
	return true
}

func (a *LateArrivalAggregator) window(criteria models.FilterCriteria) dateWindow {
	switch criteria.Mode {
	case models.FilterToday:
		today := a.Today()
		return dateWindow{active: true, from: &today}
	case models.FilterSpecificDate:
		if criteria.SpecificDate == nil {
			return dateWindow{}
		}
		from := a.calendarDay(*criteria.SpecificDate)
		to := a.endOfDay(from)
		return dateWindow{active: true, from: &from, to: &to}
	case models.FilterWeekly, models.FilterMonthly, models.FilterDateRange:
		start, end := criteria.StartDate, criteria.EndDate
		if start == nil && end == nil && criteria.Mode != models.FilterDateRange {
			start, end = a.DeriveWindow(criteria.Mode)
		}
		if start == nil && end == nil {
			return dateWindow{}
		}
		w := dateWindow{active: true}
		if start != nil {
			from := a.calendarDay(*start)
			w.from = &from
		}
		if end != nil {
			to := a.endOfDay(a.calendarDay(*end))
			w.to = &to
		}
		return w
	default:
		return dateWindow{}
	}
}

func (a *LateArrivalAggregator) latestPerStudent(records []models.LateArrivalRecord) []models.AggregateRow {
	latest := map[string]models.LateArrivalRecord{}
	counts := map[string]int{}
	for _, record := range records {
		if !record.HasTimestamp() {
			continue
		}
		name := strings.TrimSpace(record.StudentName)
		counts[name]++
		if current, ok := latest[name]; !ok || record.Timestamp.After(current.Timestamp) {
			latest[name] = record
		}
	}
	rows := make([]models.AggregateRow, 0, len(latest))
	for name, record := range latest {
		arrived := record.Timestamp.In(a.loc)
		rows = append(rows, models.AggregateRow{
			StudentName:     name,
			Department:      record.Department,
			Batch:           record.Batch,
			Level:           record.Level,
			LastArrivalTime: &arrived,
			LateCount:       counts[name],
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		ti, tj := *rows[i].LastArrivalTime, *rows[j].LastArrivalTime
		if ti.Equal(tj) {
			return rows[i].StudentName < rows[j].StudentName
		}
		return ti.Before(tj)
	})
	return rows
}

func (a *LateArrivalAggregator) trailingSeries(records []models.LateArrivalRecord) []models.ChartPoint {
	start := a.Today().AddDate(0, 0, -(trailingDays - 1))
	series := make([]models.ChartPoint, trailingDays)
	index := make(map[string]int, trailingDays)
	for i := 0; i < trailingDays; i++ {
		day := start.AddDate(0, 0, i)
		series[i] = models.ChartPoint{Label: day.Format(chartLabelLayout)}
		index[day.Format(dayKeyLayout)] = i
	}
	for _, record := range records {
		if !record.HasTimestamp() {
			continue
		}
		if i, ok := index[record.Timestamp.In(a.loc).Format(dayKeyLayout)]; ok {
			series[i].Count++
		}
	}
	return series
}

type studentTally struct {
	row    models.AggregateRow
	latest time.Time
}

// countPerStudent counts records per student, sorted by count descending then name.
// The department, batch and level of each row come from the student's latest record.
func countPerStudent(records []models.LateArrivalRecord, allTime []models.LateArrivalRecord) []models.AggregateRow {
	tallies := map[string]*studentTally{}
	for _, record := range records {
		name := strings.TrimSpace(record.StudentName)
		tally, ok := tallies[name]
		if !ok {
			tally = &studentTally{row: models.AggregateRow{StudentName: name}}
			tallies[name] = tally
		}
		tally.row.LateCount++
		if !ok || record.Timestamp.After(tally.latest) {
			tally.latest = record.Timestamp
			tally.row.Department = record.Department
			tally.row.Batch = record.Batch
			tally.row.Level = record.Level
		}
	}

	var allTimeCounts map[string]int
	if allTime != nil {
		allTimeCounts = make(map[string]int, len(tallies))
		for _, record := range allTime {
			allTimeCounts[strings.TrimSpace(record.StudentName)]++
		}
	}

	rows := make([]models.AggregateRow, 0, len(tallies))
	for name, tally := range tallies {
		row := tally.row
		if allTimeCounts != nil {
			total := allTimeCounts[name]
			row.AllTimeCount = &total
		}
		rows = append(rows, row)
	}
	sortByCount(rows, func(row models.AggregateRow) string { return row.StudentName })
	return rows
}

func countPerGroup(records []models.LateArrivalRecord, dimension models.GroupDimension) []models.AggregateRow {
	counts := map[string]int{}
	for _, record := range records {
		counts[groupKey(record, dimension)]++
	}
	rows := make([]models.AggregateRow, 0, len(counts))
	for group, count := range counts {
		rows = append(rows, models.AggregateRow{Group: group, LateCount: count})
	}
	sortByCount(rows, func(row models.AggregateRow) string { return row.Group })
	return rows
}

func groupKey(record models.LateArrivalRecord, dimension models.GroupDimension) string {
	var value string
	switch dimension {
	case models.GroupByLevel:
		return record.Level.Label()
	case models.GroupByBatch:
		value = record.Batch
	default:
		value = record.Department
	}
	if value = strings.TrimSpace(value); value == "" {
		return models.UnknownGroupLabel
	}
	return value
}

func sortByCount(rows []models.AggregateRow, name func(models.AggregateRow) string) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].LateCount == rows[j].LateCount {
			return name(rows[i]) < name(rows[j])
		}
		return rows[i].LateCount > rows[j].LateCount
	})
}

// matchesField compares trimmed values case-insensitively; an empty or "All" filter matches anything.
func matchesField(value, filter string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" || strings.EqualFold(filter, models.AllSentinel) {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(value), filter)
}

func (a *LateArrivalAggregator) startOfDay(t time.Time) time.Time {
	y, m, d := t.In(a.loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, a.loc)
}

// calendarDay reads the date components of a criteria date as written, without shifting zones.
func (a *LateArrivalAggregator) calendarDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, a.loc)
}

func (a *LateArrivalAggregator) endOfDay(day time.Time) time.Time {
	return day.AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

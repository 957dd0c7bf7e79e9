package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Anjo-Erinjery/Attendance-sub000/internal/dto"
	"github.com/Anjo-Erinjery/Attendance-sub000/internal/models"
	appErrors "github.com/Anjo-Erinjery/Attendance-sub000/pkg/errors"
)

// LateArrivalSource loads raw late-arrival records for a scope.
type LateArrivalSource interface {
	Fetch(ctx context.Context, query models.LateArrivalQuery) ([]models.LateArrivalRecord, error)
	Name() string
}

// LateArrivalServiceConfig tunes late-arrival behaviour.
type LateArrivalServiceConfig struct {
	TopN int
}

// LateArrivalServiceParams groups constructor dependencies.
type LateArrivalServiceParams struct {
	Source     LateArrivalSource
	Aggregator *LateArrivalAggregator
	Exporter   *ExportService
	Cache      *CacheService
	Metrics    *MetricsService
	Logger     *zap.Logger
	Config     LateArrivalServiceConfig
}

// LateArrivalService serves viewer-scoped late-arrival tables, charts and exports.
type LateArrivalService struct {
	source     LateArrivalSource
	aggregator *LateArrivalAggregator
	exporter   *ExportService
	cache      *CacheService
	metrics    *MetricsService
	logger     *zap.Logger
	cfg        LateArrivalServiceConfig
}

// NewLateArrivalService constructs a LateArrivalService with sane defaults.
func NewLateArrivalService(params LateArrivalServiceParams) *LateArrivalService {
	cfg := params.Config
	if cfg.TopN <= 0 {
		cfg.TopN = models.DefaultTopN
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	aggregator := params.Aggregator
	if aggregator == nil {
		aggregator = NewLateArrivalAggregator(time.UTC)
	}
	exporter := params.Exporter
	if exporter == nil {
		exporter = NewExportService(aggregator.Location(), logger)
	}
	return &LateArrivalService{
		source:     params.Source,
		aggregator: aggregator,
		exporter:   exporter,
		cache:      params.Cache,
		metrics:    params.Metrics,
		logger:     logger,
		cfg:        cfg,
	}
}

// List returns the viewer's records matching criteria.
func (s *LateArrivalService) List(ctx context.Context, viewer models.Viewer, criteria models.FilterCriteria) (*dto.LateArrivalListResponse, bool, error) {
	records, hit, err := s.records(ctx, viewer)
	if err != nil {
		return nil, false, err
	}
	filtered := s.aggregator.Filter(records, scopeCriteria(viewer, criteria))
	return &dto.LateArrivalListResponse{Records: filtered, Total: len(filtered)}, hit, nil
}

// Summary aggregates the viewer's filtered records. Per-student counts carry the
// all-time column computed over the viewer's whole record set.
func (s *LateArrivalService) Summary(ctx context.Context, viewer models.Viewer, criteria models.FilterCriteria, req models.SummaryRequest) (*models.AggregateResult, bool, error) {
	records, hit, err := s.records(ctx, viewer)
	if err != nil {
		return nil, false, err
	}
	filtered := s.aggregator.Filter(records, scopeCriteria(viewer, criteria))
	if req.Mode == "" {
		req.Mode = defaultTableView(criteria.Mode)
	}
	if req.TopN <= 0 {
		req.TopN = s.cfg.TopN
	}
	if req.Mode == models.SummaryPerStudentCount && req.AllTime == nil {
		req.AllTime = records
	}
	if req.Mode == models.SummaryPerDayTrailing7 {
		filtered = s.aggregator.Filter(records, attributesOnly(scopeCriteria(viewer, criteria)))
	}
	result := s.aggregator.Summarize(filtered, req)
	return &result, hit, nil
}

// Dashboard composes the table, trailing chart, top offenders and totals of one view.
func (s *LateArrivalService) Dashboard(ctx context.Context, viewer models.Viewer, criteria models.FilterCriteria) (*dto.LateArrivalDashboardResponse, bool, error) {
	records, hit, err := s.records(ctx, viewer)
	if err != nil {
		return nil, false, err
	}
	criteria = scopeCriteria(viewer, criteria)
	filtered := s.aggregator.Filter(records, criteria)

	view := defaultTableView(criteria.Mode)
	tableReq := models.SummaryRequest{Mode: view}
	if view == models.SummaryPerStudentCount {
		tableReq.AllTime = records
	}
	trailing := s.aggregator.Summarize(
		s.aggregator.Filter(records, attributesOnly(criteria)),
		models.SummaryRequest{Mode: models.SummaryPerDayTrailing7},
	)

	return &dto.LateArrivalDashboardResponse{
		Mode:         criteria.Mode,
		Table:        s.aggregator.Summarize(filtered, tableReq),
		TableView:    view,
		Trailing7:    trailing.ChartSeries,
		TopOffenders: s.aggregator.Summarize(filtered, models.SummaryRequest{Mode: models.SummaryTopOffenders, TopN: s.cfg.TopN}),
		Totals: dto.LateArrivalTotals{
			Records:  len(filtered),
			Students: countStudents(filtered),
			AllTime:  len(records),
		},
	}, hit, nil
}

// Options lists the departments, batches and levels present in the viewer's records.
func (s *LateArrivalService) Options(ctx context.Context, viewer models.Viewer) (*models.FilterOptions, bool, error) {
	records, hit, err := s.records(ctx, viewer)
	if err != nil {
		return nil, false, err
	}
	options := s.aggregator.Options(records)
	return &options, hit, nil
}

// Export renders the dashboard table of the view in the requested format.
func (s *LateArrivalService) Export(ctx context.Context, viewer models.Viewer, criteria models.FilterCriteria, format ExportFormat) (*ExportFile, error) {
	dashboard, _, err := s.Dashboard(ctx, viewer, criteria)
	if err != nil {
		return nil, err
	}
	file, err := s.exporter.Render(dashboard.Table, dashboard.TableView, exportTitle(viewer, scopeCriteria(viewer, criteria)), format)
	if err != nil {
		return nil, err
	}
	s.metrics.IncExport(string(format))
	s.logger.Info("late-arrival export generated",
		zap.String("user_id", viewer.UserID),
		zap.String("format", string(format)),
		zap.Int("rows", len(dashboard.Table.Rows)),
	)
	return file, nil
}

// Invalidate drops every cached record set.
func (s *LateArrivalService) Invalidate(ctx context.Context, viewer models.Viewer) error {
	if viewer.Role != models.RolePrincipal {
		return appErrors.Clone(appErrors.ErrForbidden, "only the principal may clear the late-arrival cache")
	}
	removed, err := s.cache.Purge(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear cache")
	}
	s.logger.Info("late-arrival cache cleared", zap.String("user_id", viewer.UserID), zap.Int("removed", removed))
	return nil
}

// records loads the viewer's record set, reading through the cache.
func (s *LateArrivalService) records(ctx context.Context, viewer models.Viewer) ([]models.LateArrivalRecord, bool, error) {
	if s.source == nil {
		return nil, false, appErrors.Clone(appErrors.ErrInternal, "late-arrival source is not configured")
	}
	query := models.LateArrivalQuery{Token: viewer.Token}
	if viewer.DepartmentScoped() {
		query.Department = strings.TrimSpace(viewer.Department)
		if query.Department == "" {
			return nil, false, appErrors.Clone(appErrors.ErrForbidden, "department scope is missing")
		}
	}

	scope := cacheScope(query)
	if cached, hit := s.cache.Records(ctx, scope); hit {
		return cached, true, nil
	}

	start := time.Now()
	records, err := s.source.Fetch(ctx, query)
	s.metrics.ObserveFetch(s.source.Name(), len(records), time.Since(start), err)
	if err != nil {
		s.logger.Warn("late-arrival fetch failed", zap.String("source", s.source.Name()), zap.String("scope", scope), zap.Error(err))
		return nil, false, err
	}
	if records == nil {
		records = []models.LateArrivalRecord{}
	}
	s.cache.StoreRecords(ctx, scope, records)
	return records, false, nil
}

// cacheScope names the cached record set; HODs of one department share an entry.
func cacheScope(query models.LateArrivalQuery) string {
	if query.Department == "" {
		return "all"
	}
	return "dept:" + strings.ToLower(query.Department)
}

// scopeCriteria pins a department-scoped viewer to their own department.
func scopeCriteria(viewer models.Viewer, criteria models.FilterCriteria) models.FilterCriteria {
	if viewer.DepartmentScoped() {
		criteria.Department = viewer.Department
	}
	return criteria
}

func attributesOnly(criteria models.FilterCriteria) models.FilterCriteria {
	return models.FilterCriteria{
		Mode:       models.FilterAllRecords,
		Department: criteria.Department,
		Batch:      criteria.Batch,
		Level:      criteria.Level,
	}
}

func defaultTableView(mode models.FilterMode) models.SummaryMode {
	if mode.SingleDay() {
		return models.SummaryPerStudentLatest
	}
	return models.SummaryPerStudentCount
}

func countStudents(records []models.LateArrivalRecord) int {
	seen := make(map[string]struct{}, len(records))
	for _, record := range records {
		seen[strings.TrimSpace(record.StudentName)] = struct{}{}
	}
	return len(seen)
}

func exportTitle(viewer models.Viewer, criteria models.FilterCriteria) string {
	parts := []string{"Late Arrivals"}
	if dept := strings.TrimSpace(criteria.Department); dept != "" && !strings.EqualFold(dept, models.AllSentinel) {
		parts = append(parts, dept)
	}
	switch criteria.Mode {
	case models.FilterSpecificDate:
		if criteria.SpecificDate != nil {
			parts = append(parts, criteria.SpecificDate.Format(dto.DateLayout))
		}
	case models.FilterDateRange:
		parts = append(parts, fmt.Sprintf("%s to %s", formatDate(criteria.StartDate), formatDate(criteria.EndDate)))
	case "":
	default:
		parts = append(parts, strings.ReplaceAll(string(criteria.Mode), "_", " "))
	}
	if viewer.Role == models.RolePrincipal && len(parts) == 1 {
		parts = append(parts, "All Departments")
	}
	return strings.Join(parts, " ")
}

func formatDate(t *time.Time) string {
	if t == nil {
		return "any"
	}
	return t.Format(dto.DateLayout)
}

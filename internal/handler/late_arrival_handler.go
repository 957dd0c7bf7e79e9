package handler

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/Anjo-Erinjery/Attendance-sub000/internal/dto"
	"github.com/Anjo-Erinjery/Attendance-sub000/internal/models"
	"github.com/Anjo-Erinjery/Attendance-sub000/internal/service"
	appErrors "github.com/Anjo-Erinjery/Attendance-sub000/pkg/errors"
	"github.com/Anjo-Erinjery/Attendance-sub000/pkg/response"
)

type lateArrivalService interface {
	List(ctx context.Context, viewer models.Viewer, criteria models.FilterCriteria) (*dto.LateArrivalListResponse, bool, error)
	Summary(ctx context.Context, viewer models.Viewer, criteria models.FilterCriteria, req models.SummaryRequest) (*models.AggregateResult, bool, error)
	Dashboard(ctx context.Context, viewer models.Viewer, criteria models.FilterCriteria) (*dto.LateArrivalDashboardResponse, bool, error)
	Options(ctx context.Context, viewer models.Viewer) (*models.FilterOptions, bool, error)
	Export(ctx context.Context, viewer models.Viewer, criteria models.FilterCriteria, format service.ExportFormat) (*service.ExportFile, error)
	Invalidate(ctx context.Context, viewer models.Viewer) error
}

// LateArrivalHandler exposes the HOD and Principal late-arrival endpoints.
type LateArrivalHandler struct {
	service  lateArrivalService
	validate *validator.Validate
	loc      *time.Location
}

// NewLateArrivalHandler constructs the handler. Query dates are read as calendar days in loc.
func NewLateArrivalHandler(service lateArrivalService, validate *validator.Validate, loc *time.Location) *LateArrivalHandler {
	if validate == nil {
		validate = validator.New()
	}
	validate.RegisterTagNameFunc(queryParamName)
	if loc == nil {
		loc = time.UTC
	}
	return &LateArrivalHandler{service: service, validate: validate, loc: loc}
}

// List godoc
// @Summary List late arrivals
// @Tags LateArrivals
// @Produce json
// @Param mode query string false "today|specific_date|weekly|monthly|date_range|all (default today)"
// @Param date query string false "Date for specific_date (YYYY-MM-DD)"
// @Param start_date query string false "Range start (YYYY-MM-DD)"
// @Param end_date query string false "Range end, inclusive (YYYY-MM-DD)"
// @Param department query string false "Department or All"
// @Param batch query string false "Batch or All"
// @Param level query string false "UG, PG or All"
// @Success 200 {object} response.Envelope
// @Router /late-arrivals [get]
func (h *LateArrivalHandler) List(c *gin.Context) {
	viewer, criteria, ok := h.prepare(c)
	if !ok {
		return
	}
	start := time.Now()
	result, cacheHit, err := h.service.List(c.Request.Context(), viewer, criteria)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, responseMeta(c, start, cacheHit))
}

// Summary godoc
// @Summary Aggregate late arrivals
// @Tags LateArrivals
// @Produce json
// @Param view query string false "per_student_latest|per_student_count|per_day_trailing7|top_offenders|per_group_count"
// @Param top query int false "Number of offenders for top_offenders"
// @Param group_by query string false "department|batch|level for per_group_count"
// @Success 200 {object} response.Envelope
// @Router /late-arrivals/summary [get]
func (h *LateArrivalHandler) Summary(c *gin.Context) {
	viewer, criteria, ok := h.prepare(c)
	if !ok {
		return
	}
	var query dto.LateArrivalSummaryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid summary parameters"))
		return
	}
	if err := h.validate.Struct(query); err != nil {
		response.Error(c, validationError(err, "invalid summary parameters"))
		return
	}
	req := models.SummaryRequest{
		Mode:    models.SummaryMode(query.View),
		TopN:    query.Top,
		GroupBy: models.GroupDimension(query.GroupBy),
	}
	if req.Mode == models.SummaryPerGroupCount && req.GroupBy == "" {
		req.GroupBy = models.GroupByDepartment
	}

	start := time.Now()
	result, cacheHit, err := h.service.Summary(c.Request.Context(), viewer, criteria, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, responseMeta(c, start, cacheHit))
}

// Dashboard godoc
// @Summary Late-arrival dashboard
// @Description Table, trailing seven day chart, top offenders and totals for one filter view.
// @Tags LateArrivals
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /late-arrivals/dashboard [get]
func (h *LateArrivalHandler) Dashboard(c *gin.Context) {
	viewer, criteria, ok := h.prepare(c)
	if !ok {
		return
	}
	start := time.Now()
	result, cacheHit, err := h.service.Dashboard(c.Request.Context(), viewer, criteria)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, responseMeta(c, start, cacheHit))
}

// Options godoc
// @Summary Filter dropdown values
// @Tags LateArrivals
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /late-arrivals/options [get]
func (h *LateArrivalHandler) Options(c *gin.Context) {
	viewer, err := viewerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	result, cacheHit, err := h.service.Options(c.Request.Context(), viewer)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, responseMeta(c, start, cacheHit))
}

// Export godoc
// @Summary Download the dashboard table
// @Tags LateArrivals
// @Produce text/csv
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param format query string false "csv|pdf|xlsx (default csv)"
// @Success 200 {file} file
// @Failure 429 {object} response.Envelope
// @Router /late-arrivals/export [get]
func (h *LateArrivalHandler) Export(c *gin.Context) {
	viewer, criteria, ok := h.prepare(c)
	if !ok {
		return
	}
	var query dto.LateArrivalExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export parameters"))
		return
	}
	format, err := service.ParseExportFormat(query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.service.Export(c.Request.Context(), viewer, criteria, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}

// InvalidateCache godoc
// @Summary Clear cached late-arrival record sets
// @Tags LateArrivals
// @Success 204
// @Router /late-arrivals/cache [delete]
func (h *LateArrivalHandler) InvalidateCache(c *gin.Context) {
	viewer, err := viewerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Invalidate(c.Request.Context(), viewer); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *LateArrivalHandler) prepare(c *gin.Context) (models.Viewer, models.FilterCriteria, bool) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return models.Viewer{}, models.FilterCriteria{}, false
	}
	viewer, err := viewerFromContext(c)
	if err != nil {
		response.Error(c, err)
		return models.Viewer{}, models.FilterCriteria{}, false
	}
	criteria, err := h.parseCriteria(c)
	if err != nil {
		response.Error(c, err)
		return models.Viewer{}, models.FilterCriteria{}, false
	}
	return viewer, criteria, true
}

func (h *LateArrivalHandler) parseCriteria(c *gin.Context) (models.FilterCriteria, error) {
	var query dto.LateArrivalFilterQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		return models.FilterCriteria{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid filter parameters")
	}
	query.Normalize()
	if err := h.validate.Struct(query); err != nil {
		return models.FilterCriteria{}, validationError(err, "invalid filter parameters, dates must be YYYY-MM-DD")
	}

	criteria := models.FilterCriteria{
		Mode:       models.FilterMode(query.Mode),
		Department: query.Department,
		Batch:      query.Batch,
		Level:      query.Level,
	}
	if criteria.Mode == "" {
		criteria.Mode = models.FilterToday
	}

	var err error
	if criteria.SpecificDate, err = h.parseDate(query.Date); err != nil {
		return models.FilterCriteria{}, err
	}
	if criteria.StartDate, err = h.parseDate(query.StartDate); err != nil {
		return models.FilterCriteria{}, err
	}
	if criteria.EndDate, err = h.parseDate(query.EndDate); err != nil {
		return models.FilterCriteria{}, err
	}
	if criteria.StartDate != nil && criteria.EndDate != nil && criteria.EndDate.Before(*criteria.StartDate) {
		return models.FilterCriteria{}, appErrors.Clone(appErrors.ErrValidation, "end_date must not be before start_date")
	}
	return criteria, nil
}

func (h *LateArrivalHandler) parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.ParseInLocation(dto.DateLayout, raw, h.loc)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "invalid date format, expected YYYY-MM-DD")
	}
	return &parsed, nil
}

// queryParamName reports struct fields by their query parameter name.
func queryParamName(field reflect.StructField) string {
	name, _, _ := strings.Cut(field.Tag.Get("form"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// validationError lists the failed rule of every invalid parameter.
func validationError(err error, message string) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, message)
	}
	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		details[fe.Field()] = rule
	}
	return appErrors.WithDetails(appErrors.Clone(appErrors.ErrValidation, message), details)
}

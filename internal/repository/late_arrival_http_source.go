package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Anjo-Erinjery/Attendance-sub000/internal/models"
	appErrors "github.com/Anjo-Erinjery/Attendance-sub000/pkg/errors"
	"github.com/Anjo-Erinjery/Attendance-sub000/pkg/middleware/requestid"
)

const maxUpstreamBody = 32 << 20

var (
	nameKeys       = []string{"student_name", "studentName", "name"}
	departmentKeys = []string{"department", "dept"}
	batchKeys      = []string{"batch"}
	levelKeys      = []string{"level", "program"}
	timestampKeys  = []string{"timestamp", "arrival_time", "late_time", "created_at"}

	naiveLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04",
		"2006-01-02 15:04",
		"2006-01-02",
	}
)

// LateArrivalHTTPSource reads late-arrival records from the upstream late-arrivals service.
type LateArrivalHTTPSource struct {
	baseURL    string
	httpClient *http.Client
	loc        *time.Location
	logger     *zap.Logger
}

// NewLateArrivalHTTPSource constructs the source. Naive upstream timestamps are read in loc.
func NewLateArrivalHTTPSource(baseURL string, httpClient *http.Client, loc *time.Location, logger *zap.Logger) *LateArrivalHTTPSource {
	if httpClient == nil {
		httpClient = DefaultLateArrivalHTTPClient()
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LateArrivalHTTPSource{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		loc:        loc,
		logger:     logger,
	}
}

// DefaultLateArrivalHTTPClient returns the client used when none is injected.
func DefaultLateArrivalHTTPClient() *http.Client {
	return &http.Client{Timeout: 5 * time.Second}
}

// Name identifies the source in metrics and logs.
func (s *LateArrivalHTTPSource) Name() string {
	return "http"
}

// Fetch retrieves the records visible to the query's department scope.
func (s *LateArrivalHTTPSource) Fetch(ctx context.Context, query models.LateArrivalQuery) ([]models.LateArrivalRecord, error) {
	if s.baseURL == "" {
		return nil, appErrors.Clone(appErrors.ErrInternal, "late-arrival service url is not configured")
	}

	endpoint := s.baseURL + "/late-arrivals"
	if dept := strings.TrimSpace(query.Department); dept != "" {
		endpoint += "?" + url.Values{"department": {dept}}.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build late-arrival request")
	}
	req.Header.Set("Accept", "application/json")
	if query.Token != "" {
		req.Header.Set("Authorization", "Bearer "+query.Token)
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.Header, id)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
			return nil, appErrors.Wrap(err, appErrors.ErrUpstreamSlow.Code, appErrors.ErrUpstreamSlow.Status, appErrors.ErrUpstreamSlow.Message)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		// continue
	case resp.StatusCode == http.StatusNotFound:
		return []models.LateArrivalRecord{}, nil
	case resp.StatusCode == http.StatusUnauthorized, resp.StatusCode == http.StatusForbidden:
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "late-arrival service rejected the credentials")
	default:
		return nil, appErrors.Wrap(
			fmt.Errorf("late-arrival service unexpected status: %d", resp.StatusCode),
			appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, appErrors.ErrUpstream.Message,
		)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "read late-arrival response")
	}

	items, err := decodeItems(body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "decode late-arrival response")
	}

	records := make([]models.LateArrivalRecord, 0, len(items))
	malformed := 0
	for _, item := range items {
		record := s.coerce(item)
		if !record.HasTimestamp() {
			malformed++
		}
		records = append(records, record)
	}
	if malformed > 0 {
		s.logger.Warn("late-arrival records without a usable timestamp", zap.Int("count", malformed), zap.Int("total", len(records)))
	}
	return records, nil
}

// decodeItems accepts a bare array or an object wrapping the array under data or results.
func decodeItems(body []byte) ([]map[string]interface{}, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, nil
	}

	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if body[0] == '[' {
		var items []map[string]interface{}
		if err := decoder.Decode(&items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var envelope struct {
		Data    []map[string]interface{} `json:"data"`
		Results []map[string]interface{} `json:"results"`
	}
	if err := decoder.Decode(&envelope); err != nil {
		return nil, err
	}
	if envelope.Data != nil {
		return envelope.Data, nil
	}
	return envelope.Results, nil
}

func (s *LateArrivalHTTPSource) coerce(item map[string]interface{}) models.LateArrivalRecord {
	record := models.LateArrivalRecord{
		StudentName: strings.TrimSpace(firstString(item, nameKeys)),
		Department:  strings.TrimSpace(firstString(item, departmentKeys)),
		Batch:       strings.TrimSpace(firstString(item, batchKeys)),
		Level:       models.ParseAcademicLevel(firstString(item, levelKeys)),
	}
	if record.Level == models.LevelUnknown {
		if isPG, ok := item["is_pg"]; ok {
			if pg, ok := asBool(isPG); ok {
				record.Level = models.LevelUG
				if pg {
					record.Level = models.LevelPG
				}
			}
		}
	}
	for _, key := range timestampKeys {
		if raw, ok := item[key]; ok && raw != nil {
			record.Timestamp = s.parseTimestamp(raw)
			break
		}
	}
	return record
}

// parseTimestamp returns the zero time when the value cannot be read.
func (s *LateArrivalHTTPSource) parseTimestamp(raw interface{}) time.Time {
	switch v := raw.(type) {
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return epoch(n)
		}
		if f, err := v.Float64(); err == nil {
			return epoch(int64(f))
		}
	case string:
		value := strings.TrimSpace(v)
		if value == "" {
			return time.Time{}
		}
		if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
			return t
		}
		for _, layout := range naiveLayouts {
			if t, err := time.ParseInLocation(layout, value, s.loc); err == nil {
				return t
			}
		}
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return epoch(n)
		}
	}
	return time.Time{}
}

// epoch treats values beyond the year 33658 in seconds as milliseconds.
func epoch(n int64) time.Time {
	if n <= 0 {
		return time.Time{}
	}
	if n >= 1e12 {
		return time.UnixMilli(n).UTC()
	}
	return time.Unix(n, 0).UTC()
}

func firstString(item map[string]interface{}, keys []string) string {
	for _, key := range keys {
		switch v := item[key].(type) {
		case string:
			if strings.TrimSpace(v) != "" {
				return v
			}
		case json.Number:
			return v.String()
		}
	}
	return ""
}

func asBool(raw interface{}) (bool, bool) {
	switch v := raw.(type) {
	case bool:
		return v, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		return b, err == nil
	case json.Number:
		n, err := v.Int64()
		return n != 0, err == nil
	}
	return false, false
}

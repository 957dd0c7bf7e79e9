package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Anjo-Erinjery/Attendance-sub000/internal/models"
)

const lateArrivalColumns = "student_name, department, batch, level, arrived_at"

type queryObserver interface {
	ObserveDBQuery(label string, duration time.Duration)
}

type lateArrivalRow struct {
	StudentName string         `db:"student_name"`
	Department  sql.NullString `db:"department"`
	Batch       sql.NullString `db:"batch"`
	Level       sql.NullString `db:"level"`
	ArrivedAt   sql.NullTime   `db:"arrived_at"`
}

// LateArrivalRepository reads late-arrival records straight from PostgreSQL.
type LateArrivalRepository struct {
	db       *sqlx.DB
	observer queryObserver
}

// NewLateArrivalRepository constructs a LateArrivalRepository. observer may be nil.
func NewLateArrivalRepository(db *sqlx.DB, observer queryObserver) *LateArrivalRepository {
	return &LateArrivalRepository{db: db, observer: observer}
}

// Name identifies the source in metrics and logs.
func (r *LateArrivalRepository) Name() string {
	return "postgres"
}

// Fetch returns every record, or only the department's when the query is scoped, oldest first.
func (r *LateArrivalRepository) Fetch(ctx context.Context, query models.LateArrivalQuery) ([]models.LateArrivalRecord, error) {
	sqlQuery := fmt.Sprintf("SELECT %s FROM late_arrivals", lateArrivalColumns)
	args := []interface{}{}
	if dept := strings.TrimSpace(query.Department); dept != "" {
		sqlQuery += " WHERE LOWER(TRIM(department)) = LOWER($1)"
		args = append(args, dept)
	}
	sqlQuery += " ORDER BY arrived_at"

	start := time.Now()
	var rows []lateArrivalRow
	err := r.db.SelectContext(ctx, &rows, sqlQuery, args...)
	if r.observer != nil {
		r.observer.ObserveDBQuery("late_arrivals_fetch", time.Since(start))
	}
	if err != nil {
		return nil, fmt.Errorf("select late arrivals: %w", err)
	}

	records := make([]models.LateArrivalRecord, 0, len(rows))
	for _, row := range rows {
		record := models.LateArrivalRecord{
			StudentName: strings.TrimSpace(row.StudentName),
			Department:  strings.TrimSpace(row.Department.String),
			Batch:       strings.TrimSpace(row.Batch.String),
			Level:       models.ParseAcademicLevel(row.Level.String),
		}
		if row.ArrivedAt.Valid {
			record.Timestamp = row.ArrivedAt.Time
		}
		records = append(records, record)
	}
	return records, nil
}

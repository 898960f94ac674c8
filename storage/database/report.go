package database

import (
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/tkabeya/darasa/core/report"
)

type reportRepository struct {
	db *sqlx.DB
}

var _ report.Repository = (*reportRepository)(nil)

func NewReportRepository(db *sqlx.DB) report.Repository {
	return &reportRepository{db: db}
}

func (repo reportRepository) QueryPaymentSummaries(period string) ([]report.PaymentSummary, error) {
	query := `
	SELECT period,
	       COUNT(1) AS record_count,
	       COUNT(1) FILTER (WHERE status = 'pending') AS pending_count,
	       COUNT(1) FILTER (WHERE status = 'partial') AS partial_count,
	       COUNT(1) FILTER (WHERE status = 'paid') AS paid_count,
	       COALESCE(SUM(total_amount), 0) AS total_billed,
	       COALESCE(SUM(amount_paid), 0) AS total_collected,
	       COALESCE(SUM(balance), 0) AS total_outstanding
	FROM billing_record`
	var args []interface{}
	if period != "" {
		query += ` WHERE period = $1`
		args = append(args, period)
	}
	query += ` GROUP BY period ORDER BY period DESC`

	var summaries []report.PaymentSummary
	if err := repo.db.Select(&summaries, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying payment summaries")
	}
	return summaries, nil
}

func (repo reportRepository) QueryAttendanceSummaries(classRoom, month string) ([]report.AttendanceSummary, error) {
	query := `
	SELECT class_room,
	       TO_CHAR(day, 'YYYY-MM') AS month,
	       COUNT(1) FILTER (WHERE status = 'present') AS present_count,
	       COUNT(1) FILTER (WHERE status = 'absent') AS absent_count,
	       COUNT(1) FILTER (WHERE status = 'late') AS late_count,
	       COUNT(1) FILTER (WHERE status = 'excused') AS excused_count,
	       COUNT(1) AS total_count,
	       COUNT(1) FILTER (WHERE status IN ('present', 'late'))::float / COUNT(1) AS present_rate
	FROM attendance`
	var conditions []string
	var args []interface{}
	if classRoom != "" {
		args = append(args, classRoom)
		conditions = append(conditions, "class_room = $1")
	}
	if month != "" {
		args = append(args, month)
		if len(args) == 1 {
			conditions = append(conditions, "TO_CHAR(day, 'YYYY-MM') = $1")
		} else {
			conditions = append(conditions, "TO_CHAR(day, 'YYYY-MM') = $2")
		}
	}
	if len(conditions) > 0 {
		query += " WHERE " + conditions[0]
		for _, cond := range conditions[1:] {
			query += " AND " + cond
		}
	}
	query += ` GROUP BY class_room, TO_CHAR(day, 'YYYY-MM') ORDER BY month DESC, class_room`

	var summaries []report.AttendanceSummary
	if err := repo.db.Select(&summaries, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance summaries")
	}
	return summaries, nil
}

func (repo reportRepository) QuerySubjectAverages(classRoom, term string) ([]report.SubjectAverage, error) {
	query := `
	SELECT subject, class_room, term,
	       AVG(CASE WHEN max_score > 0 THEN score / max_score * 100 ELSE 0 END) AS average_percent,
	       COUNT(1) AS grade_count
	FROM grade`
	var conditions []string
	var args []interface{}
	if classRoom != "" {
		args = append(args, classRoom)
		conditions = append(conditions, "class_room = $1")
	}
	if term != "" {
		args = append(args, term)
		if len(args) == 1 {
			conditions = append(conditions, "term = $1")
		} else {
			conditions = append(conditions, "term = $2")
		}
	}
	if len(conditions) > 0 {
		query += " WHERE " + conditions[0]
		for _, cond := range conditions[1:] {
			query += " AND " + cond
		}
	}
	query += ` GROUP BY subject, class_room, term ORDER BY term DESC, class_room, subject`

	var averages []report.SubjectAverage
	if err := repo.db.Select(&averages, query, args...); err != nil {
		return nil, errors.Wrap(err, "querying subject averages")
	}
	return averages, nil
}

package inmemdb

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/tkabeya/darasa/core/attendance"
	"github.com/tkabeya/darasa/core/billing"
	"github.com/tkabeya/darasa/core/report"
)

type reportRepository struct {
	db *DB
}

var _ report.Repository = (*reportRepository)(nil)

func NewReportRepository(db *DB) report.Repository {
	return &reportRepository{db: db}
}

func (repo *reportRepository) QueryPaymentSummaries(period string) ([]report.PaymentSummary, error) {
	repo.db.billing.mutex.RLock()
	defer repo.db.billing.mutex.RUnlock()

	byPeriod := make(map[string]*report.PaymentSummary)
	for _, rec := range repo.db.billing.table {
		if period != "" && rec.Period != period {
			continue
		}
		// stored derived fields may be stale; recompute before aggregating
		cur := billing.Reconcile(copyRecord(rec))
		sum, ok := byPeriod[cur.Period]
		if !ok {
			sum = &report.PaymentSummary{
				Period:           cur.Period,
				TotalBilled:      decimal.Zero,
				TotalCollected:   decimal.Zero,
				TotalOutstanding: decimal.Zero,
			}
			byPeriod[cur.Period] = sum
		}
		sum.RecordCount++
		switch cur.Status {
		case billing.StatusPending:
			sum.PendingCount++
		case billing.StatusPartial:
			sum.PartialCount++
		case billing.StatusPaid:
			sum.PaidCount++
		}
		sum.TotalBilled = sum.TotalBilled.Add(cur.TotalAmount)
		sum.TotalCollected = sum.TotalCollected.Add(cur.AmountPaid)
		sum.TotalOutstanding = sum.TotalOutstanding.Add(cur.Balance)
	}

	summaries := make([]report.PaymentSummary, 0, len(byPeriod))
	for _, sum := range byPeriod {
		summaries = append(summaries, *sum)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Period > summaries[j].Period })
	return summaries, nil
}

func (repo *reportRepository) QueryAttendanceSummaries(classRoom, month string) ([]report.AttendanceSummary, error) {
	repo.db.attendance.mutex.RLock()
	defer repo.db.attendance.mutex.RUnlock()

	type key struct{ classRoom, month string }
	byKey := make(map[key]*report.AttendanceSummary)
	for _, att := range repo.db.attendance.table {
		attMonth := att.Day.Format("2006-01")
		if classRoom != "" && att.ClassRoom != classRoom {
			continue
		}
		if month != "" && attMonth != month {
			continue
		}
		k := key{att.ClassRoom, attMonth}
		sum, ok := byKey[k]
		if !ok {
			sum = &report.AttendanceSummary{ClassRoom: att.ClassRoom, Month: attMonth}
			byKey[k] = sum
		}
		sum.TotalCount++
		switch att.Status {
		case attendance.StatusPresent:
			sum.PresentCount++
		case attendance.StatusAbsent:
			sum.AbsentCount++
		case attendance.StatusLate:
			sum.LateCount++
		case attendance.StatusExcused:
			sum.ExcusedCount++
		}
	}

	summaries := make([]report.AttendanceSummary, 0, len(byKey))
	for _, sum := range byKey {
		if sum.TotalCount > 0 {
			sum.PresentRate = float64(sum.PresentCount+sum.LateCount) / float64(sum.TotalCount)
		}
		summaries = append(summaries, *sum)
	}
	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].Month == summaries[j].Month {
			return summaries[i].ClassRoom < summaries[j].ClassRoom
		}
		return summaries[i].Month > summaries[j].Month
	})
	return summaries, nil
}

func (repo *reportRepository) QuerySubjectAverages(classRoom, term string) ([]report.SubjectAverage, error) {
	repo.db.grade.mutex.RLock()
	defer repo.db.grade.mutex.RUnlock()

	type key struct{ subject, classRoom, term string }
	type agg struct {
		sum   float64
		count int
	}
	byKey := make(map[key]*agg)
	for _, g := range repo.db.grade.table {
		if classRoom != "" && g.ClassRoom != classRoom {
			continue
		}
		if term != "" && g.Term != term {
			continue
		}
		k := key{g.Subject, g.ClassRoom, g.Term}
		a, ok := byKey[k]
		if !ok {
			a = &agg{}
			byKey[k] = a
		}
		a.sum += g.Percent()
		a.count++
	}

	averages := make([]report.SubjectAverage, 0, len(byKey))
	for k, a := range byKey {
		averages = append(averages, report.SubjectAverage{
			Subject:        k.subject,
			ClassRoom:      k.classRoom,
			Term:           k.term,
			AveragePercent: a.sum / float64(a.count),
			GradeCount:     a.count,
		})
	}
	sort.Slice(averages, func(i, j int) bool {
		if averages[i].Term != averages[j].Term {
			return averages[i].Term > averages[j].Term
		}
		if averages[i].ClassRoom != averages[j].ClassRoom {
			return averages[i].ClassRoom < averages[j].ClassRoom
		}
		return averages[i].Subject < averages[j].Subject
	})
	return averages, nil
}

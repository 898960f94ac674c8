package inmemdb

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/tkabeya/darasa/core"
	"github.com/tkabeya/darasa/core/billing"
)

type billingRepository struct {
	db *billingTable
}

var _ billing.Repository = (*billingRepository)(nil)

func NewBillingRepository(db *DB) billing.Repository {
	return &billingRepository{db: db.billing}
}

func (repo *billingRepository) query() []billing.BillingRecord {
	recs := make([]billing.BillingRecord, 0, len(repo.db.table))
	for _, rec := range repo.db.table {
		recs = append(recs, copyRecord(rec))
	}
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].Period == recs[j].Period {
			return recs[i].CreatedAt.After(recs[j].CreatedAt)
		}
		return recs[i].Period > recs[j].Period
	})
	return recs
}

// copyRecord copies the payments slice so callers cannot mutate stored state.
func copyRecord(rec *billing.BillingRecord) billing.BillingRecord {
	cp := *rec
	cp.Payments = make([]billing.PaymentEntry, len(rec.Payments))
	copy(cp.Payments, rec.Payments)
	return cp
}

func (repo *billingRepository) CreateRecord(rec billing.BillingRecord) (billing.BillingRecord, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	stored := copyRecord(&rec)
	repo.db.table[rec.ID] = &stored
	return copyRecord(&stored), nil
}

func (repo *billingRepository) GetRecordByID(id string) (billing.BillingRecord, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	if rec, ok := repo.db.table[id]; ok {
		return copyRecord(rec), nil
	}
	return billing.BillingRecord{}, billing.ErrNotFound
}

func (repo *billingRepository) GetRecordByStudentAndPeriod(studentID, period string) (billing.BillingRecord, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	for _, rec := range repo.db.table {
		if rec.StudentID == studentID && rec.Period == period {
			return copyRecord(rec), nil
		}
	}
	return billing.BillingRecord{}, billing.ErrNotFound
}

func (repo *billingRepository) FilterRecords(filter billing.QueryFilter, orderings ...core.DBOrdering) ([]billing.BillingRecord, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	var recs []billing.BillingRecord
	for _, rec := range repo.query() {
		if filter.StudentID != "" && rec.StudentID != filter.StudentID {
			continue
		}
		if filter.Period != "" && rec.Period != filter.Period {
			continue
		}
		if filter.Status != "" && string(rec.Status) != filter.Status {
			continue
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func (repo *billingRepository) SaveRecord(rec billing.BillingRecord) (billing.BillingRecord, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	orig, ok := repo.db.table[rec.ID]
	if !ok {
		return billing.BillingRecord{}, billing.ErrNotFound
	}
	rec.CreatedAt = orig.CreatedAt
	rec.UpdatedAt = time.Now().UTC()
	stored := copyRecord(&rec)
	repo.db.table[rec.ID] = &stored
	return copyRecord(&stored), nil
}

func (repo *billingRepository) DeleteRecordsByID(ids ...string) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	for _, id := range ids {
		delete(repo.db.table, id)
	}
	return nil
}

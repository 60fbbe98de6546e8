package dummydb

import (
	"context"
	"sort"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/ledger"
)

type paymentRepository struct {
	db *DB
}

var _ ledger.PaymentRepository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *DB) ledger.PaymentRepository {
	return &paymentRepository{db: db}
}

func (repo *paymentRepository) CreatePayment(_ context.Context, pmt ledger.Payment, _ ...core.DBExecutor) (ledger.Payment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if pmt.PaidAmount.IsNegative() {
		return ledger.Payment{}, errors.New("payment amount cannot be negative")
	}
	if _, ok := repo.db.students[pmt.StudentID]; !ok {
		return ledger.Payment{}, errors.Errorf("student %d does not exist", pmt.StudentID)
	}
	pmt.ID = repo.db.nextID()
	repo.db.payments[pmt.ID] = pmt
	return pmt, nil
}

func (repo *paymentRepository) QueryPayments(_ context.Context, filter ledger.PaymentFilter, _ ...core.DBExecutor) ([]ledger.Payment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	pmts := make([]ledger.Payment, 0)
	for _, p := range repo.db.payments {
		switch {
		case filter.StudentID != 0 && p.StudentID != filter.StudentID,
			filter.LedgerEntryID != 0 && p.LedgerEntryID != filter.LedgerEntryID,
			filter.Method != "" && p.Method != filter.Method,
			!filter.From.IsZero() && p.PaymentDate.Before(filter.From.Time),
			!filter.To.IsZero() && p.PaymentDate.After(filter.To.Time):
			continue
		}
		pmts = append(pmts, p)
	}
	sort.Slice(pmts, func(i, j int) bool {
		if pmts[i].PaymentDate.Equal(pmts[j].PaymentDate.Time) {
			return pmts[i].ID < pmts[j].ID
		}
		return pmts[i].PaymentDate.Before(pmts[j].PaymentDate.Time)
	})
	return pmts, nil
}

func (repo *paymentRepository) SumPaymentsByMethod(_ context.Context, from, to time.Time, _ ...core.DBExecutor) ([]ledger.MethodTotal, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	start, end := core.NewDate(from), core.NewDate(to)
	byMethod := make(map[ledger.Method]*ledger.MethodTotal)
	for _, p := range repo.db.payments {
		if p.PaidAmount.IsZero() || p.PaymentDate.Before(start.Time) || !p.PaymentDate.Before(end.Time) {
			continue
		}
		mt, ok := byMethod[p.Method]
		if !ok {
			mt = &ledger.MethodTotal{Method: p.Method, Total: decimal.Zero}
			byMethod[p.Method] = mt
		}
		mt.Total = mt.Total.Add(p.PaidAmount)
		mt.Count++
	}

	totals := make([]ledger.MethodTotal, 0, len(byMethod))
	for _, mt := range byMethod {
		totals = append(totals, *mt)
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Method < totals[j].Method })
	return totals, nil
}

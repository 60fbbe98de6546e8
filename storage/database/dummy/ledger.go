package dummydb

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/fees"
	"github.com/trezcool/bursary/core/ledger"
	"github.com/trezcool/bursary/core/student"
)

type ledgerRepository struct {
	db *DB
}

var _ ledger.Repository = (*ledgerRepository)(nil) // interface compliance check

func NewLedgerRepository(db *DB) ledger.Repository {
	return &ledgerRepository{db: db}
}

func (repo *ledgerRepository) CreateEntries(_ context.Context, entries []ledger.Entry, _ ...core.DBExecutor) ([]ledger.Entry, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, e := range entries {
		if _, ok := repo.db.students[e.StudentID]; !ok {
			return nil, student.ErrNotFound
		}
		if _, ok := repo.db.masters[e.FeesMasterID]; !ok {
			return nil, fees.ErrMasterNotFound
		}
	}
	created := make([]ledger.Entry, 0, len(entries))
	for _, e := range entries {
		e.ID = repo.db.nextID()
		repo.db.entries[e.ID] = e
		created = append(created, e)
	}
	return created, nil
}

func (repo *ledgerRepository) GetEntryByID(_ context.Context, id int, _ ...core.DBExecutor) (ledger.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if e, ok := repo.db.entries[id]; ok {
		return e, nil
	}
	return ledger.Entry{}, ledger.ErrEntryNotFound
}

// GetEntryForUpdate needs no lock of its own: transactions on the dummy DB are serialized.
func (repo *ledgerRepository) GetEntryForUpdate(ctx context.Context, id int, exec ...core.DBExecutor) (ledger.Entry, error) {
	return repo.GetEntryByID(ctx, id, exec...)
}

func (repo *ledgerRepository) byStudent(studentID int) []ledger.Entry {
	entries := make([]ledger.Entry, 0)
	for _, e := range repo.db.entries {
		if e.StudentID == studentID {
			entries = append(entries, e)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

func (repo *ledgerRepository) QueryEntriesByStudent(_ context.Context, studentID int, _ ...core.DBExecutor) ([]ledger.Entry, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return repo.byStudent(studentID), nil
}

func (repo *ledgerRepository) QueryEntryDetails(_ context.Context, studentID int, _ ...core.DBExecutor) ([]ledger.EntryDetail, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	entries := repo.byStudent(studentID)
	details := make([]ledger.EntryDetail, 0, len(entries))
	for _, e := range entries {
		details = append(details, ledger.EntryDetail{
			Entry:  e,
			Master: joinMaster(repo.db.tables, repo.db.masters[e.FeesMasterID]),
			Fine:   decimal.Zero,
		})
	}
	sort.SliceStable(details, func(i, j int) bool { return details[i].Master.DueDate.Before(details[j].Master.DueDate.Time) })
	return details, nil
}

func (repo *ledgerRepository) UpdateEntryBalance(_ context.Context, entry ledger.Entry, _ ...core.DBExecutor) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.entries[entry.ID]
	if !ok {
		return ledger.ErrEntryNotFound
	}
	orig.PaidAmount = entry.PaidAmount
	orig.RemainingAmount = entry.RemainingAmount
	orig.Status = entry.Status
	orig.UpdatedAt = entry.UpdatedAt
	if err := orig.Check(); err != nil { // table CHECK constraints
		return err
	}
	repo.db.entries[entry.ID] = orig
	return nil
}

func (repo *ledgerRepository) DeleteEntriesByStudent(_ context.Context, studentID int, _ ...core.DBExecutor) (int, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	var n int
	for id, e := range repo.db.entries {
		if e.StudentID != studentID {
			continue
		}
		delete(repo.db.entries, id)
		n++
		// ON DELETE SET NULL
		for pid, p := range repo.db.payments {
			if p.LedgerEntryID == id {
				p.LedgerEntryID = 0
				repo.db.payments[pid] = p
			}
		}
	}
	return n, nil
}

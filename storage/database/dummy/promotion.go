package dummydb

import (
	"context"
	"sort"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/promotion"
	"github.com/trezcool/bursary/core/student"
)

type promotionRepository struct {
	db *DB
}

var _ promotion.Repository = (*promotionRepository)(nil) // interface compliance check

func NewPromotionRepository(db *DB) promotion.Repository {
	return &promotionRepository{db: db}
}

func (repo *promotionRepository) CreateRecord(_ context.Context, rec promotion.Record, _ ...core.DBExecutor) (promotion.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.students[rec.StudentID]; !ok {
		return promotion.Record{}, student.ErrNotFound
	}
	rec.ID = repo.db.nextID()
	repo.db.promotions[rec.ID] = rec
	return rec, nil
}

func (repo *promotionRepository) QueryRecords(_ context.Context, filter promotion.RecordFilter, _ ...core.DBExecutor) ([]promotion.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := make([]promotion.Record, 0)
	for _, r := range repo.db.promotions {
		if filter.StudentID != 0 && r.StudentID != filter.StudentID {
			continue
		}
		if filter.SessionID != 0 && r.SessionID != filter.SessionID {
			continue
		}
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].ID > recs[j].ID }) // newest first
	return recs, nil
}

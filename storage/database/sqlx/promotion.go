package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/promotion"
)

const promotionColumns = `id, student_id, session_id, current_result, next_session, created_at`

type promotionRow struct {
	ID            int       `db:"id"`
	StudentID     int       `db:"student_id"`
	SessionID     int       `db:"session_id"`
	CurrentResult string    `db:"current_result"`
	NextSession   string    `db:"next_session"`
	CreatedAt     time.Time `db:"created_at"`
}

type promotionRepository struct {
	baseRepo
}

var _ promotion.Repository = (*promotionRepository)(nil) // interface compliance check

func NewPromotionRepository(db *sqlx.DB) promotion.Repository {
	return &promotionRepository{baseRepo{db: db}}
}

func (repo *promotionRepository) CreateRecord(ctx context.Context, rec promotion.Record, exec ...core.DBExecutor) (promotion.Record, error) {
	q := `INSERT INTO student_promotions (student_id, session_id, current_result, next_session, created_at)
		VALUES ($1, $2, $3, $4, $5) RETURNING id`
	err := repo.getExec(exec).QueryRowxContext(
		ctx, q, rec.StudentID, rec.SessionID, string(rec.CurrentResult), string(rec.NextSession), rec.CreatedAt,
	).Scan(&rec.ID)
	if err != nil {
		return promotion.Record{}, errors.Wrap(err, "inserting promotion record")
	}
	return rec, nil
}

func (repo *promotionRepository) QueryRecords(ctx context.Context, filter promotion.RecordFilter, exec ...core.DBExecutor) ([]promotion.Record, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.StudentID != 0 {
		where = append(where, `student_id = ?`)
		args = append(args, filter.StudentID)
	}
	if filter.SessionID != 0 {
		where = append(where, `session_id = ?`)
		args = append(args, filter.SessionID)
	}
	q := `SELECT ` + promotionColumns + ` FROM student_promotions`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY ` + core.DBOrdering{Field: "created_at"}.String()

	ext := repo.getExec(exec)
	var rows []promotionRow
	if err := sqlx.SelectContext(ctx, ext, &rows, ext.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying promotion records")
	}
	recs := make([]promotion.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, promotion.Record{
			ID:            row.ID,
			StudentID:     row.StudentID,
			SessionID:     row.SessionID,
			CurrentResult: promotion.Result(row.CurrentResult),
			NextSession:   promotion.NextSession(row.NextSession),
			CreatedAt:     row.CreatedAt.UTC(),
		})
	}
	return recs, nil
}

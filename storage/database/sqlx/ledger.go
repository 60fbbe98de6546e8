package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/ledger"
)

const entryColumns = `id, student_id, fees_master_id, amount, paid_amount, remaining_amount, status, created_at, updated_at`

type entryRow struct {
	ID              int             `db:"id"`
	StudentID       int             `db:"student_id"`
	FeesMasterID    int             `db:"fees_master_id"`
	Amount          decimal.Decimal `db:"amount"`
	PaidAmount      decimal.Decimal `db:"paid_amount"`
	RemainingAmount decimal.Decimal `db:"remaining_amount"`
	Status          string          `db:"status"`
	CreatedAt       time.Time       `db:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at"`
}

func (row entryRow) toEntry() ledger.Entry {
	return ledger.Entry{
		ID:              row.ID,
		StudentID:       row.StudentID,
		FeesMasterID:    row.FeesMasterID,
		Amount:          row.Amount,
		PaidAmount:      row.PaidAmount,
		RemainingAmount: row.RemainingAmount,
		Status:          ledger.Status(row.Status),
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
}

type entryDetailRow struct {
	entryRow
	Master masterRow `db:"m"`
}

type ledgerRepository struct {
	baseRepo
}

var _ ledger.Repository = (*ledgerRepository)(nil) // interface compliance check

func NewLedgerRepository(db *sqlx.DB) ledger.Repository {
	return &ledgerRepository{baseRepo{db: db}}
}

func (repo *ledgerRepository) CreateEntries(ctx context.Context, entries []ledger.Entry, exec ...core.DBExecutor) ([]ledger.Entry, error) {
	ext := repo.getExec(exec)
	q := `INSERT INTO student_fees (student_id, fees_master_id, amount, paid_amount, remaining_amount, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`

	created := make([]ledger.Entry, 0, len(entries))
	for _, e := range entries {
		err := ext.QueryRowxContext(
			ctx, q,
			e.StudentID, e.FeesMasterID, e.Amount, e.PaidAmount, e.RemainingAmount, string(e.Status), e.CreatedAt, e.UpdatedAt,
		).Scan(&e.ID)
		if err != nil {
			return nil, errors.Wrap(err, "inserting student fee")
		}
		created = append(created, e)
	}
	return created, nil
}

func (repo *ledgerRepository) getEntry(ctx context.Context, q string, id int, exec []core.DBExecutor) (ledger.Entry, error) {
	var row entryRow
	if err := sqlx.GetContext(ctx, repo.getExec(exec), &row, q, id); err != nil {
		return ledger.Entry{}, trapNoRowsErr(err, ledger.ErrEntryNotFound, "fetching student fee")
	}
	return row.toEntry(), nil
}

func (repo *ledgerRepository) GetEntryByID(ctx context.Context, id int, exec ...core.DBExecutor) (ledger.Entry, error) {
	return repo.getEntry(ctx, `SELECT `+entryColumns+` FROM student_fees WHERE id = $1`, id, exec)
}

func (repo *ledgerRepository) GetEntryForUpdate(ctx context.Context, id int, exec ...core.DBExecutor) (ledger.Entry, error) {
	return repo.getEntry(ctx, `SELECT `+entryColumns+` FROM student_fees WHERE id = $1 FOR UPDATE`, id, exec)
}

func (repo *ledgerRepository) QueryEntriesByStudent(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]ledger.Entry, error) {
	var rows []entryRow
	q := `SELECT ` + entryColumns + ` FROM student_fees WHERE student_id = $1 ORDER BY id`
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying student fees")
	}
	entries := make([]ledger.Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, row.toEntry())
	}
	return entries, nil
}

func (repo *ledgerRepository) QueryEntryDetails(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]ledger.EntryDetail, error) {
	q := `SELECT sf.id, sf.student_id, sf.fees_master_id, sf.amount, sf.paid_amount, sf.remaining_amount, sf.status,
			sf.created_at, sf.updated_at,
			m.id AS "m.id", m.fees_group_id AS "m.fees_group_id", g.name AS "m.fees_group_name",
			m.fees_type_id AS "m.fees_type_id", t.name AS "m.fees_type_name", m.due_date AS "m.due_date",
			m.amount AS "m.amount", m.fine_type AS "m.fine_type",
			m.percentage_fine_amount AS "m.percentage_fine_amount", m.fixed_fine_amount AS "m.fixed_fine_amount",
			m.per_day AS "m.per_day", m.created_at AS "m.created_at", m.updated_at AS "m.updated_at"
		FROM student_fees sf
		JOIN fees_master m ON m.id = sf.fees_master_id
		JOIN fees_groups g ON g.id = m.fees_group_id
		JOIN fees_types t ON t.id = m.fees_type_id
		WHERE sf.student_id = $1
		ORDER BY m.due_date, sf.id`

	var rows []entryDetailRow
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q, studentID); err != nil {
		return nil, errors.Wrap(err, "querying student fee details")
	}
	details := make([]ledger.EntryDetail, 0, len(rows))
	for _, row := range rows {
		details = append(details, ledger.EntryDetail{
			Entry:  row.toEntry(),
			Master: row.Master.toMaster(),
			Fine:   decimal.Zero,
		})
	}
	return details, nil
}

func (repo *ledgerRepository) UpdateEntryBalance(ctx context.Context, entry ledger.Entry, exec ...core.DBExecutor) error {
	q := `UPDATE student_fees SET paid_amount = $1, remaining_amount = $2, status = $3, updated_at = $4 WHERE id = $5`
	res, err := repo.getExec(exec).ExecContext(
		ctx, q,
		entry.PaidAmount, entry.RemainingAmount, string(entry.Status), entry.UpdatedAt, entry.ID,
	)
	if err != nil {
		return errors.Wrap(err, "updating student fee")
	}
	return affected(res, ledger.ErrEntryNotFound)
}

func (repo *ledgerRepository) DeleteEntriesByStudent(ctx context.Context, studentID int, exec ...core.DBExecutor) (int, error) {
	res, err := repo.getExec(exec).ExecContext(ctx, `DELETE FROM student_fees WHERE student_id = $1`, studentID)
	if err != nil {
		return 0, errors.Wrap(err, "deleting student fees")
	}
	n, err := res.RowsAffected()
	return int(n), errors.Wrap(err, "reading affected rows")
}

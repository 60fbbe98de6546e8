package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/ledger"
)

const paymentColumns = `id, receipt_no, student_fees_id, student_id, class_id, section_id, session_id, method,
	bank_account_id, mfs_id, payment_date, paid_amount, remarks, created_by, created_at`

type paymentRow struct {
	ID            int             `db:"id"`
	ReceiptNo     string          `db:"receipt_no"`
	LedgerEntryID null.Int        `db:"student_fees_id"`
	StudentID     int             `db:"student_id"`
	ClassID       null.Int        `db:"class_id"`
	SectionID     null.Int        `db:"section_id"`
	SessionID     null.Int        `db:"session_id"`
	Method        string          `db:"method"`
	BankAccountID null.Int        `db:"bank_account_id"`
	MfsID         null.Int        `db:"mfs_id"`
	PaymentDate   core.Date       `db:"payment_date"`
	PaidAmount    decimal.Decimal `db:"paid_amount"`
	Remarks       string          `db:"remarks"`
	CreatedBy     null.Int        `db:"created_by"`
	CreatedAt     time.Time       `db:"created_at"`
}

func (row paymentRow) toPayment() ledger.Payment {
	return ledger.Payment{
		ID:            row.ID,
		ReceiptNo:     row.ReceiptNo,
		LedgerEntryID: row.LedgerEntryID.Int, // 0 once the entry was replaced by a promotion
		StudentID:     row.StudentID,
		ClassID:       row.ClassID.Ptr(),
		SectionID:     row.SectionID.Ptr(),
		SessionID:     row.SessionID.Ptr(),
		Method:        ledger.Method(row.Method),
		BankAccountID: row.BankAccountID.Ptr(),
		MfsID:         row.MfsID.Ptr(),
		PaymentDate:   row.PaymentDate,
		PaidAmount:    row.PaidAmount,
		Remarks:       row.Remarks,
		CreatedBy:     row.CreatedBy.Ptr(),
		CreatedAt:     row.CreatedAt.UTC(),
	}
}

type methodTotalRow struct {
	Method string          `db:"method"`
	Total  decimal.Decimal `db:"total"`
	Count  int             `db:"count"`
}

type paymentRepository struct {
	baseRepo
}

var _ ledger.PaymentRepository = (*paymentRepository)(nil) // interface compliance check

func NewPaymentRepository(db *sqlx.DB) ledger.PaymentRepository {
	return &paymentRepository{baseRepo{db: db}}
}

func (repo *paymentRepository) CreatePayment(ctx context.Context, pmt ledger.Payment, exec ...core.DBExecutor) (ledger.Payment, error) {
	q := `INSERT INTO student_payments (receipt_no, student_fees_id, student_id, class_id, section_id, session_id, method,
			bank_account_id, mfs_id, payment_date, paid_amount, remarks, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) RETURNING id`
	err := repo.getExec(exec).QueryRowxContext(
		ctx, q,
		pmt.ReceiptNo, nullIntFrom(pmt.LedgerEntryID), pmt.StudentID,
		null.IntFromPtr(pmt.ClassID), null.IntFromPtr(pmt.SectionID), null.IntFromPtr(pmt.SessionID),
		string(pmt.Method), null.IntFromPtr(pmt.BankAccountID), null.IntFromPtr(pmt.MfsID),
		pmt.PaymentDate, pmt.PaidAmount, pmt.Remarks, null.IntFromPtr(pmt.CreatedBy), pmt.CreatedAt,
	).Scan(&pmt.ID)
	if err != nil {
		return ledger.Payment{}, errors.Wrap(err, "inserting payment")
	}
	return pmt, nil
}

func (repo *paymentRepository) QueryPayments(ctx context.Context, filter ledger.PaymentFilter, exec ...core.DBExecutor) ([]ledger.Payment, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.StudentID != 0 {
		where = append(where, `student_id = ?`)
		args = append(args, filter.StudentID)
	}
	if filter.LedgerEntryID != 0 {
		where = append(where, `student_fees_id = ?`)
		args = append(args, filter.LedgerEntryID)
	}
	if filter.Method != "" {
		where = append(where, `method = ?`)
		args = append(args, string(filter.Method))
	}
	if !filter.From.IsZero() {
		where = append(where, `payment_date >= ?`)
		args = append(args, filter.From)
	}
	if !filter.To.IsZero() {
		where = append(where, `payment_date <= ?`)
		args = append(args, filter.To)
	}

	q := `SELECT ` + paymentColumns + ` FROM student_payments`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	q += ` ORDER BY payment_date, id`

	ext := repo.getExec(exec)
	var rows []paymentRow
	if err := sqlx.SelectContext(ctx, ext, &rows, ext.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying payments")
	}
	pmts := make([]ledger.Payment, 0, len(rows))
	for _, row := range rows {
		pmts = append(pmts, row.toPayment())
	}
	return pmts, nil
}

func (repo *paymentRepository) SumPaymentsByMethod(ctx context.Context, from, to time.Time, exec ...core.DBExecutor) ([]ledger.MethodTotal, error) {
	q := `SELECT method, COALESCE(SUM(paid_amount), 0) AS total, COUNT(*) AS count
		FROM student_payments
		WHERE payment_date >= $1 AND payment_date < $2 AND paid_amount > 0
		GROUP BY method
		ORDER BY method`

	var rows []methodTotalRow
	if err := sqlx.SelectContext(ctx, repo.getExec(exec), &rows, q, core.NewDate(from), core.NewDate(to)); err != nil {
		return nil, errors.Wrap(err, "summing payments")
	}
	totals := make([]ledger.MethodTotal, 0, len(rows))
	for _, row := range rows {
		totals = append(totals, ledger.MethodTotal{Method: ledger.Method(row.Method), Total: row.Total, Count: row.Count})
	}
	return totals, nil
}

package ledger

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/bursary/core"
)

var (
	// errors
	ErrEntryNotFound = errors.New("student fee record not found")
)

type (
	Repository interface {
		CreateEntries(ctx context.Context, entries []Entry, exec ...core.DBExecutor) ([]Entry, error)
		GetEntryByID(ctx context.Context, id int, exec ...core.DBExecutor) (Entry, error)
		// GetEntryForUpdate reads the entry and locks its row until the enclosing transaction ends.
		GetEntryForUpdate(ctx context.Context, id int, exec ...core.DBExecutor) (Entry, error)
		QueryEntriesByStudent(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]Entry, error)
		// QueryEntryDetails returns the student's entries joined to their fees master, group & type.
		QueryEntryDetails(ctx context.Context, studentID int, exec ...core.DBExecutor) ([]EntryDetail, error)
		UpdateEntryBalance(ctx context.Context, entry Entry, exec ...core.DBExecutor) error
		DeleteEntriesByStudent(ctx context.Context, studentID int, exec ...core.DBExecutor) (int, error)
	}

	// PaymentRepository is the append-only payment recorder.
	PaymentRepository interface {
		CreatePayment(ctx context.Context, pmt Payment, exec ...core.DBExecutor) (Payment, error)
		QueryPayments(ctx context.Context, filter PaymentFilter, exec ...core.DBExecutor) ([]Payment, error)
		// SumPaymentsByMethod totals non-zero payments dated within [from, to).
		SumPaymentsByMethod(ctx context.Context, from, to time.Time, exec ...core.DBExecutor) ([]MethodTotal, error)
	}
)

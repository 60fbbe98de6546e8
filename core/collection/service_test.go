package collection_test

import (
	"context"
	"io/ioutil"
	"log"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bursary/core"
	"github.com/trezcool/bursary/core/account"
	"github.com/trezcool/bursary/core/collection"
	"github.com/trezcool/bursary/core/ledger"
	"github.com/trezcool/bursary/services/email"
	"github.com/trezcool/bursary/services/logger"
	"github.com/trezcool/bursary/tests"
)

type fixture struct {
	conf  *core.Config
	repos testutil.Repos
	mail  *emailsvc.ConsoleServiceMock
	svc   collection.Service
}

func setup(t *testing.T) fixture {
	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf)
	repos := testutil.OpenRepos()
	mail := emailsvc.NewConsoleServiceMock(conf, logger)
	svc := collection.NewService(conf, logger, repos.DB, repos.Ledger, repos.Payments, repos.Students, repos.Accounts, mail)
	return fixture{conf: conf, repos: repos, mail: mail, svc: svc}
}

// newEntry admits a student owing amount on a single fees master.
func (f fixture) newEntry(t *testing.T, amount string, rollNo int) ledger.Entry {
	mst := testutil.CreateFeesMaster(t, f.repos.Fees, amount, time.Now().AddDate(0, 1, 0))
	std := testutil.CreateStudent(t, f.repos.Students, "Amina", rollNo)
	return testutil.OpenLedger(t, f.repos, std.ID, mst)[0]
}

func (f fixture) payments(t *testing.T, entryID int) []ledger.Payment {
	pmts, err := f.repos.Payments.QueryPayments(context.Background(), ledger.PaymentFilter{LedgerEntryID: entryID})
	require.NoError(t, err)
	return pmts
}

func partial(entryID int, amount string) collection.Request {
	return collection.Request{
		LedgerEntryID: entryID,
		PaymentType:   collection.PartialAmount,
		PaidAmount:    decimal.RequireFromString(amount),
		Method:        ledger.MethodCash,
	}
}

func settle(entryID int) collection.Request {
	return collection.Request{LedgerEntryID: entryID, PaymentType: collection.FullSettle, Method: ledger.MethodCash}
}

func assertValidation(t *testing.T, err error, want error, field string) {
	t.Helper()
	require.Error(t, err)
	verr, ok := errors.Cause(err).(*core.ValidationError)
	require.True(t, ok, "error %T (%v) is not a validation error", err, err)
	assert.Equal(t, want, verr.Err)
	if assert.Len(t, verr.Fields, 1) {
		assert.Equal(t, field, verr.Fields[0].Field)
	}
}

func assertBalance(t *testing.T, e ledger.Entry, paid, remaining string, status ledger.Status) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(paid).Equal(e.PaidAmount), "paid = %s; want %s", e.PaidAmount, paid)
	assert.True(t, decimal.RequireFromString(remaining).Equal(e.RemainingAmount), "remaining = %s; want %s", e.RemainingAmount, remaining)
	assert.Equal(t, status, e.Status)
	assert.NoError(t, e.Check())
}

func Test_service_Collect_partials(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	entry := f.newEntry(t, "1000", 1)
	staffID := 7

	res, err := f.svc.Collect(ctx, collection.Batch{partial(entry.ID, "400")}, &staffID)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, entry.ID, res[0].LedgerEntryID)
	assert.Equal(t, ledger.StatusPartial, res[0].Status)
	assert.NotEmpty(t, res[0].ReceiptNo)
	assertBalance(t, testutil.GetEntry(t, f.repos.Ledger, entry.ID), "400", "600", ledger.StatusPartial)

	res, err = f.svc.Collect(ctx, collection.Batch{partial(entry.ID, "600")}, &staffID)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPaid, res[0].Status)
	assert.True(t, res[0].RemainingAmount.IsZero())
	assertBalance(t, testutil.GetEntry(t, f.repos.Ledger, entry.ID), "1000", "0", ledger.StatusPaid)

	_, err = f.svc.Collect(ctx, collection.Batch{partial(entry.ID, "1")}, &staffID)
	assertValidation(t, err, ledger.ErrOverpayment, "paid_amount")
	assertBalance(t, testutil.GetEntry(t, f.repos.Ledger, entry.ID), "1000", "0", ledger.StatusPaid)

	pmts := f.payments(t, entry.ID)
	require.Len(t, pmts, 2)
	assert.True(t, decimal.NewFromInt(400).Equal(pmts[0].PaidAmount))
	assert.True(t, decimal.NewFromInt(600).Equal(pmts[1].PaidAmount))
	for _, p := range pmts {
		assert.Equal(t, entry.StudentID, p.StudentID)
		assert.Equal(t, core.NewDate(time.Now()), p.PaymentDate)
		if assert.NotNil(t, p.CreatedBy) {
			assert.Equal(t, staffID, *p.CreatedBy)
		}
		if assert.NotNil(t, p.ClassID) {
			assert.Equal(t, 1, *p.ClassID)
		}
	}
	assert.NotEqual(t, pmts[0].ReceiptNo, pmts[1].ReceiptNo)
}

func Test_service_Collect_rejections(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	entry := f.newEntry(t, "1000", 1)

	tests := []struct {
		name    string
		req     collection.Request
		wantErr error
		field   string
	}{
		{name: "overpayment", req: partial(entry.ID, "1500"), wantErr: ledger.ErrOverpayment, field: "paid_amount"},
		{name: "zero partial", req: partial(entry.ID, "0"), wantErr: ledger.ErrAmountRequired, field: "paid_amount"},
		{name: "sub-cent partial", req: partial(entry.ID, "0.001"), wantErr: ledger.ErrAmountScale, field: "paid_amount"},
		{name: "sub-cent remainder", req: partial(entry.ID, "400.005"), wantErr: ledger.ErrAmountScale, field: "paid_amount"},
		{
			name: "wrong student", wantErr: collection.ErrStudentMismatch, field: "student_id",
			req: func() collection.Request { r := partial(entry.ID, "10"); r.StudentID = entry.StudentID + 100; return r }(),
		},
		{
			name: "cash with bank account", wantErr: collection.ErrUnexpectedFunding, field: "method",
			req: func() collection.Request { r := partial(entry.ID, "10"); id := 1; r.BankAccountID = &id; return r }(),
		},
		{
			name: "bank without account", wantErr: collection.ErrBankAccountRequired, field: "bank_account_id",
			req: func() collection.Request { r := partial(entry.ID, "10"); r.Method = ledger.MethodBank; return r }(),
		},
		{
			name: "bank with unknown account", wantErr: collection.ErrInvalidBankAccount, field: "bank_account_id",
			req: func() collection.Request {
				r := partial(entry.ID, "10")
				id := 999
				r.Method, r.BankAccountID = ledger.MethodBank, &id
				return r
			}(),
		},
		{
			name: "mfs without account", wantErr: collection.ErrMfsAccountRequired, field: "mfs_id",
			req: func() collection.Request { r := partial(entry.ID, "10"); r.Method = ledger.MethodBkash; return r }(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Collect(ctx, collection.Batch{tt.req}, nil)
			assertValidation(t, err, tt.wantErr, tt.field)
		})
	}

	// nothing was recorded
	assertBalance(t, testutil.GetEntry(t, f.repos.Ledger, entry.ID), "0", "1000", ledger.StatusUnpaid)
	assert.Empty(t, f.payments(t, entry.ID))

	t.Run("unknown entry", func(t *testing.T) {
		_, err := f.svc.Collect(ctx, collection.Batch{partial(9999, "10")}, nil)
		assert.True(t, core.IsNotFound(err), "got %v", err)
	})
	t.Run("empty batch", func(t *testing.T) {
		_, err := f.svc.Collect(ctx, nil, nil)
		assert.True(t, core.IsValidation(err), "got %v", err)
	})
}

func Test_service_Collect_fullSettle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	entry := f.newEntry(t, "1000", 1)

	_, err := f.svc.Collect(ctx, collection.Batch{partial(entry.ID, "250.25")}, nil)
	require.NoError(t, err)

	// a supplied amount is ignored when settling
	req := settle(entry.ID)
	req.PaidAmount = decimal.NewFromInt(5)
	res, err := f.svc.Collect(ctx, collection.Batch{req}, nil)
	require.NoError(t, err)
	assert.Equal(t, ledger.StatusPaid, res[0].Status)
	assert.True(t, decimal.NewFromInt(1000).Equal(res[0].PaidAmount))
	assertBalance(t, testutil.GetEntry(t, f.repos.Ledger, entry.ID), "1000", "0", ledger.StatusPaid)

	pmts := f.payments(t, entry.ID)
	require.Len(t, pmts, 2)
	assert.True(t, decimal.RequireFromString("749.75").Equal(pmts[1].PaidAmount), "got %s", pmts[1].PaidAmount)

	// settling again is a no-op on the balance, recorded as a zero payment
	res, err = f.svc.Collect(ctx, collection.Batch{settle(entry.ID)}, nil)
	require.NoError(t, err)
	require.Len(t, res, 1)
	assert.Equal(t, ledger.StatusPaid, res[0].Status)
	assert.True(t, decimal.NewFromInt(1000).Equal(res[0].PaidAmount))
	assert.True(t, res[0].RemainingAmount.IsZero())
	assertBalance(t, testutil.GetEntry(t, f.repos.Ledger, entry.ID), "1000", "0", ledger.StatusPaid)

	pmts = f.payments(t, entry.ID)
	require.Len(t, pmts, 3)
	assert.True(t, pmts[2].PaidAmount.IsZero(), "got %s", pmts[2].PaidAmount)
	assert.Equal(t, res[0].ReceiptNo, pmts[2].ReceiptNo)
}

func Test_service_Collect_batch(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e1 := f.newEntry(t, "1000", 1)
	e2 := f.newEntry(t, "500", 2)

	t.Run("all or nothing", func(t *testing.T) {
		_, err := f.svc.Collect(ctx, collection.Batch{partial(e1.ID, "100"), partial(e2.ID, "600")}, nil)
		assertValidation(t, err, ledger.ErrOverpayment, "[1].paid_amount")

		assertBalance(t, testutil.GetEntry(t, f.repos.Ledger, e1.ID), "0", "1000", ledger.StatusUnpaid)
		assert.Empty(t, f.payments(t, e1.ID))
		assert.Empty(t, f.mail.SentMessages())
	})

	t.Run("same entry twice", func(t *testing.T) {
		res, err := f.svc.Collect(ctx, collection.Batch{partial(e1.ID, "400"), partial(e1.ID, "600"), settle(e2.ID)}, nil)
		require.NoError(t, err)
		require.Len(t, res, 3)
		assert.Equal(t, ledger.StatusPartial, res[0].Status)
		assert.True(t, decimal.NewFromInt(600).Equal(res[0].RemainingAmount))
		assert.Equal(t, ledger.StatusPaid, res[1].Status)
		assert.Equal(t, ledger.StatusPaid, res[2].Status)

		assertBalance(t, testutil.GetEntry(t, f.repos.Ledger, e1.ID), "1000", "0", ledger.StatusPaid)
		assertBalance(t, testutil.GetEntry(t, f.repos.Ledger, e2.ID), "500", "0", ledger.StatusPaid)
		assert.Len(t, f.payments(t, e1.ID), 2)
		assert.Len(t, f.payments(t, e2.ID), 1)
	})
}

func Test_service_Collect_concurrent(t *testing.T) {
	f := setup(t)
	entry := f.newEntry(t, "1000", 1)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		failures int
	)
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.svc.Collect(context.Background(), collection.Batch{partial(entry.ID, "100")}, nil); err != nil {
				mu.Lock()
				failures++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 2, failures)
	assertBalance(t, testutil.GetEntry(t, f.repos.Ledger, entry.ID), "1000", "0", ledger.StatusPaid)
	assert.Len(t, f.payments(t, entry.ID), 10)
}

func Test_service_Collect_funding(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	entry := f.newEntry(t, "1000", 1)

	bank, err := f.repos.Accounts.CreateBankAccount(ctx, account.BankAccount{BankName: "City Bank", AccountName: "School", AccountNumber: "0001"})
	require.NoError(t, err)
	nagad, err := f.repos.Accounts.CreateMfsAccount(ctx, account.MfsAccount{AccountName: "School", MfsNumber: "01700000000", MfsType: ledger.MethodNagad})
	require.NoError(t, err)

	byBank := partial(entry.ID, "100")
	byBank.Method, byBank.BankAccountID = ledger.MethodBank, &bank.ID
	_, err = f.svc.Collect(ctx, collection.Batch{byBank}, nil)
	require.NoError(t, err)

	wrongMfs := partial(entry.ID, "100")
	wrongMfs.Method, wrongMfs.MfsID = ledger.MethodBkash, &nagad.ID
	_, err = f.svc.Collect(ctx, collection.Batch{wrongMfs}, nil)
	assertValidation(t, err, collection.ErrMfsTypeMismatch, "mfs_id")

	byNagad := partial(entry.ID, "100")
	byNagad.Method, byNagad.MfsID = ledger.MethodNagad, &nagad.ID
	_, err = f.svc.Collect(ctx, collection.Batch{byNagad}, nil)
	require.NoError(t, err)

	pmts := f.payments(t, entry.ID)
	require.Len(t, pmts, 2)
	assert.Equal(t, ledger.MethodBank, pmts[0].Method)
	assert.Equal(t, &bank.ID, pmts[0].BankAccountID)
	assert.Equal(t, ledger.MethodNagad, pmts[1].Method)
	assert.Equal(t, &nagad.ID, pmts[1].MfsID)
}

func Test_service_Collect_receipts(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	e1 := f.newEntry(t, "1000", 1)
	e2 := f.newEntry(t, "300", 2)

	res, err := f.svc.Collect(ctx, collection.Batch{partial(e1.ID, "400"), partial(e1.ID, "100"), settle(e2.ID)}, nil)
	require.NoError(t, err)

	sent := f.mail.SentMessages()
	require.Len(t, sent, 2, "one receipt per student")
	assert.Equal(t, "father1@test.cd", sent[0].To[0].Address)
	assert.Equal(t, "father2@test.cd", sent[1].To[0].Address)
	assert.True(t, strings.Contains(sent[0].TextContent, res[0].ReceiptNo))
	assert.True(t, strings.Contains(sent[0].TextContent, res[1].ReceiptNo))
	assert.True(t, strings.Contains(sent[0].TextContent, "500"), "total paid")
	assert.True(t, strings.Contains(sent[1].HTMLContent, res[2].ReceiptNo))

	f.mail.Reset()
	f.conf.Fees.SendReceipts = false
	_, err = f.svc.Collect(ctx, collection.Batch{partial(e1.ID, "1")}, nil)
	require.NoError(t, err)
	assert.Empty(t, f.mail.SentMessages())
}

func TestBatch_Validate(t *testing.T) {
	validate, _ := testutil.NewValidator()

	tests := []struct {
		name    string
		batch   collection.Batch
		wantErr bool
	}{
		{name: "empty", batch: collection.Batch{}, wantErr: true},
		{name: "valid", batch: collection.Batch{partial(1, "10"), settle(2)}},
		{name: "method is normalized", batch: collection.Batch{func() collection.Request { r := settle(1); r.Method = " CASH "; return r }()}},
		{name: "unknown method", batch: collection.Batch{func() collection.Request { r := settle(1); r.Method = "cheque"; return r }()}, wantErr: true},
		{name: "unknown payment type", batch: collection.Batch{func() collection.Request { r := settle(1); r.PaymentType = "Half"; return r }()}, wantErr: true},
		{name: "negative amount", batch: collection.Batch{partial(1, "-1")}, wantErr: true},
		{name: "missing entry", batch: collection.Batch{partial(0, "1")}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.batch.Validate(validate)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			_, isFieldErr := err.(validator.ValidationErrors)
			assert.True(t, isFieldErr || core.IsValidation(err), "unexpected error %T: %v", err, err)
		})
	}

	t.Run("failing item is named", func(t *testing.T) {
		bad := settle(2)
		bad.Method = "cheque"
		err := collection.Batch{partial(1, "10"), bad}.Validate(validate)

		ierr, ok := err.(*core.ItemValidationError)
		require.True(t, ok, "unexpected error %T: %v", err, err)
		assert.Equal(t, 1, ierr.Index)
		require.Len(t, ierr.Errs, 1)
		assert.Equal(t, "[1].method", ierr.Field(ierr.Errs[0].Field()))
	})
}
